package shops

import (
	"time"

	"cro-backend/internal/recommendations"
)

// Shop represents a merchant storefront registered for CRO audits.
type Shop struct {
	ID       string
	UserID   string
	Domain   string
	Name     string
	Platform string

	// Store metrics drive ROI estimation. MetricsUpdatedAt is nil until the
	// merchant has provided them at least once.
	ConversionRate      float64
	AvgOrderValue       float64
	MonthlyVisitors     float64
	MobilePercentage    float64
	CartAbandonmentRate float64
	MetricsUpdatedAt    *time.Time

	SnapshotKey      string
	SnapshotAt       *time.Time
	ExtractedTextKey string
	ExtractedAt      *time.Time

	CreatedAt time.Time
}

// Metrics returns the shop's metrics in the form ROI estimation consumes.
func (s Shop) Metrics() recommendations.StoreMetrics {
	return recommendations.StoreMetrics{
		ConversionRate:      s.ConversionRate,
		AvgOrderValue:       s.AvgOrderValue,
		MonthlyVisitors:     s.MonthlyVisitors,
		MobilePercentage:    s.MobilePercentage,
		CartAbandonmentRate: s.CartAbandonmentRate,
	}
}

// HasMetrics reports whether the merchant has supplied store metrics.
func (s Shop) HasMetrics() bool {
	return s.MetricsUpdatedAt != nil
}

// HasSnapshot reports whether a storefront snapshot has been captured.
func (s Shop) HasSnapshot() bool {
	return s.SnapshotKey != ""
}
