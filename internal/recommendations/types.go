package recommendations

import (
	"strings"
	"time"
)

// Recommendation statuses.
const (
	StatusPending     = "pending"
	StatusImplemented = "implemented"
	StatusSkipped     = "skipped"
)

// Known recommendation categories. The LLM may emit others; unknown values
// fall back to CategoryGeneral during normalization.
const (
	CategoryHero        = "hero"
	CategoryProduct     = "product"
	CategoryCart        = "cart"
	CategoryCheckout    = "checkout"
	CategoryMobile      = "mobile"
	CategoryTrust       = "trust"
	CategoryNavigation  = "navigation"
	CategoryPricing     = "pricing"
	CategorySocialProof = "social_proof"
	CategoryUrgency     = "urgency"
	CategorySpeed       = "speed"
	CategoryGeneral     = "general"
)

// Recommendation is a single CRO suggestion after normalization. Implementation
// steps are kept as an ordered list in memory; persistence joins them with
// newlines at the storage boundary.
type Recommendation struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Reasoning       string          `json:"reasoning"`
	Category        string          `json:"category"`
	ImpactScore     int             `json:"impactScore"`
	EffortScore     int             `json:"effortScore"`
	Priority        int             `json:"priority"`
	Implementation  []string        `json:"implementation"`
	CodeSnippet     *string         `json:"codeSnippet"`
	EstimatedUplift string          `json:"estimatedUplift"`
	EstimatedROI    string          `json:"estimatedROI"`
	QualityScore    int             `json:"qualityScore,omitempty"`
	Status          string          `json:"status"`
	ImplementedAt   *time.Time      `json:"implementedAt,omitempty"`
	Warning         string          `json:"warning,omitempty"`
	ROI             *ROICalculation `json:"roi,omitempty"`
}

// StoreMetrics are the shop-level inputs to ROI estimation, immutable for the
// duration of an analysis run.
type StoreMetrics struct {
	ConversionRate      float64 `json:"conversionRate"`
	AvgOrderValue       float64 `json:"avgOrderValue"`
	MonthlyVisitors     float64 `json:"monthlyVisitors"`
	MobilePercentage    float64 `json:"mobilePercentage"`
	CartAbandonmentRate float64 `json:"cartAbandonmentRate"`
}

// ROICalculation is the derived revenue projection attached to a recommendation.
type ROICalculation struct {
	EstimatedLift  string   `json:"estimatedLift"`
	MonthlyRevenue string   `json:"monthlyRevenue"`
	AnnualRevenue  string   `json:"annualRevenue"`
	Confidence     int      `json:"confidence"`
	Calculation    []string `json:"calculation"`
	Assumptions    []string `json:"assumptions"`

	// Raw values retained so aggregates avoid compounding display rounding.
	MonthlyRevenueRaw float64 `json:"-"`
	AnnualRevenueRaw  float64 `json:"-"`
}

// TotalROI aggregates per-recommendation projections for a whole analysis run.
type TotalROI struct {
	MonthlyRevenue string  `json:"monthlyRevenue"`
	AnnualRevenue  string  `json:"annualRevenue"`
	AvgConfidence  int     `json:"avgConfidence"`
	Count          int     `json:"count"`
	MonthlyRaw     float64 `json:"-"`
}

// ConflictType derives the conflict-table key from a recommendation ID: the
// portion after the first hyphen, lower-cased.
func ConflictType(id string) string {
	_, rest, found := strings.Cut(id, "-")
	if !found {
		return ""
	}
	return strings.ToLower(rest)
}

// JoinImplementation serializes implementation steps for storage.
func JoinImplementation(steps []string) string {
	return strings.Join(steps, "\n")
}

// SplitImplementation parses a stored newline-joined implementation string back
// into the canonical list form, discarding blank lines.
func SplitImplementation(joined string) []string {
	out := make([]string, 0, 8)
	for _, line := range strings.Split(joined, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
