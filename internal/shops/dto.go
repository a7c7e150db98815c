package shops

import "time"

// ShopResponse is the outward-facing representation of a shop.
type ShopResponse struct {
	ShopID      string           `json:"shopId"`
	Domain      string           `json:"domain"`
	Name        string           `json:"name,omitempty"`
	Platform    string           `json:"platform"`
	HasMetrics  bool             `json:"hasMetrics"`
	Metrics     *MetricsResponse `json:"metrics,omitempty"`
	HasSnapshot bool             `json:"hasSnapshot"`
	SnapshotAt  *time.Time       `json:"snapshotAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// MetricsResponse mirrors the merchant-supplied store metrics.
type MetricsResponse struct {
	ConversionRate      float64   `json:"conversionRate"`
	AvgOrderValue       float64   `json:"avgOrderValue"`
	MonthlyVisitors     float64   `json:"monthlyVisitors"`
	MobilePercentage    float64   `json:"mobilePercentage"`
	CartAbandonmentRate float64   `json:"cartAbandonmentRate"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func toResponse(shop Shop) ShopResponse {
	resp := ShopResponse{
		ShopID:      shop.ID,
		Domain:      shop.Domain,
		Name:        shop.Name,
		Platform:    shop.Platform,
		HasMetrics:  shop.HasMetrics(),
		HasSnapshot: shop.HasSnapshot(),
		SnapshotAt:  shop.SnapshotAt,
		CreatedAt:   shop.CreatedAt,
	}
	if shop.HasMetrics() {
		resp.Metrics = &MetricsResponse{
			ConversionRate:      shop.ConversionRate,
			AvgOrderValue:       shop.AvgOrderValue,
			MonthlyVisitors:     shop.MonthlyVisitors,
			MobilePercentage:    shop.MobilePercentage,
			CartAbandonmentRate: shop.CartAbandonmentRate,
			UpdatedAt:           *shop.MetricsUpdatedAt,
		}
	}
	return resp
}
