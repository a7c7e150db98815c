package recommendations

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// baseLiftByImpact maps impact scores to expected conversion-rate lift in
// percentage points, expressed fractionally.
var baseLiftByImpact = map[int]float64{
	5: 0.008,
	4: 0.005,
	3: 0.003,
	2: 0.0015,
	1: 0.0005,
}

const fallbackLift = 0.003

// categoryMultipliers weight the base lift by where on the funnel the change
// lands. Lookup is case-insensitive with a 1.0 fallback.
var categoryMultipliers = map[string]float64{
	CategoryHero:       1.2,
	CategoryProduct:    1.0,
	CategoryCart:       1.3,
	CategoryCheckout:   1.4,
	CategoryMobile:     0.8,
	CategoryTrust:      1.1,
	CategoryNavigation: 0.9,
	CategorySpeed:      1.15,
}

// confidenceByEffort maps effort to baseline confidence. Lower-effort changes
// are easier to predict.
var confidenceByEffort = map[int]int{
	1: 95,
	2: 85,
	3: 75,
	4: 65,
	5: 55,
}

const (
	fallbackConfidence = 70
	maxConfidence      = 95
)

// CalculateRealisticROI projects the revenue effect of a recommendation from
// its impact, effort, category, and the shop's metrics. It is a pure
// function; invalid metrics produce an explicit error rather than NaN or Inf
// leaking into display strings.
func CalculateRealisticROI(impact, effort int, category string, metrics StoreMetrics) (ROICalculation, error) {
	if err := ValidateMetrics(metrics); err != nil {
		return ROICalculation{}, err
	}
	impact = clampScore(impact)
	effort = clampScore(effort)

	baseLift, ok := baseLiftByImpact[impact]
	if !ok {
		baseLift = fallbackLift
	}
	loweredCategory := strings.ToLower(strings.TrimSpace(category))
	multiplier, ok := categoryMultipliers[loweredCategory]
	if !ok {
		multiplier = 1.0
	}
	adjustedLift := baseLift * multiplier

	effectiveTraffic := metrics.MonthlyVisitors
	trafficNote := "Applies to all monthly visitors."
	if loweredCategory == CategoryMobile {
		effectiveTraffic = metrics.MonthlyVisitors * metrics.MobilePercentage / 100
		trafficNote = fmt.Sprintf("Applies to mobile traffic only (%.0f%% of visitors).", metrics.MobilePercentage)
	}

	currentRate := metrics.ConversionRate / 100
	currentOrders := effectiveTraffic * currentRate
	projectedOrders := effectiveTraffic * (currentRate + adjustedLift)
	monthlyRevenueLift := (projectedOrders - currentOrders) * metrics.AvgOrderValue
	annualRevenueLift := monthlyRevenueLift * 12

	confidence, ok := confidenceByEffort[effort]
	if !ok {
		confidence = fallbackConfidence
	}
	switch {
	case impact >= 4:
		confidence += 10
	case impact == 3:
		confidence += 5
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	liftPoints := adjustedLift * 100
	calc := ROICalculation{
		EstimatedLift:  fmt.Sprintf("%.2f%%", liftPoints),
		MonthlyRevenue: formatCurrency(monthlyRevenueLift),
		AnnualRevenue:  formatCurrency(annualRevenueLift),
		Confidence:     confidence,
		Calculation: []string{
			fmt.Sprintf("Current: %.0f orders/month at %.2f%% conversion", currentOrders, metrics.ConversionRate),
			fmt.Sprintf("Projected: %.0f orders/month at %.2f%% conversion", projectedOrders, metrics.ConversionRate+liftPoints),
			fmt.Sprintf("Difference: %s/month additional revenue", formatCurrency(monthlyRevenueLift)),
		},
		Assumptions: []string{
			fmt.Sprintf("Conversion lift of %.2f percentage points derived from impact %d with a %.2fx %s multiplier.", liftPoints, impact, multiplier, fallbackCategory(loweredCategory)),
			trafficNote,
			fmt.Sprintf("Average order value held constant at %s.", formatCurrency(metrics.AvgOrderValue)),
			"No seasonality applied; figures are steady-state monthly estimates.",
			fmt.Sprintf("Confidence %d%% based on effort %d, adjusted for impact %d, capped at %d%%.", confidence, effort, impact, maxConfidence),
		},
		MonthlyRevenueRaw: monthlyRevenueLift,
		AnnualRevenueRaw:  annualRevenueLift,
	}
	return calc, nil
}

// CalculateTotalROI aggregates projections across a recommendation list.
// Raw revenue values are summed before any display rounding so the totals do
// not accumulate per-item rounding error. An empty list is an explicit error;
// averaging confidence over zero items is never allowed to divide by zero.
func CalculateTotalROI(recs []Recommendation, metrics StoreMetrics) (TotalROI, error) {
	if len(recs) == 0 {
		return TotalROI{}, ErrEmptyRecommendations
	}
	if err := ValidateMetrics(metrics); err != nil {
		return TotalROI{}, err
	}

	var monthly float64
	var confidenceSum int
	counted := 0
	for _, rec := range recs {
		calc := rec.ROI
		if calc == nil {
			computed, err := CalculateRealisticROI(rec.ImpactScore, rec.EffortScore, rec.Category, metrics)
			if err != nil {
				return TotalROI{}, err
			}
			calc = &computed
		}
		monthly += calc.MonthlyRevenueRaw
		confidenceSum += calc.Confidence
		counted++
	}

	return TotalROI{
		MonthlyRevenue: formatCurrency(monthly),
		AnnualRevenue:  formatCurrency(monthly * 12),
		AvgConfidence:  int(math.Round(float64(confidenceSum) / float64(counted))),
		Count:          counted,
		MonthlyRaw:     monthly,
	}, nil
}

// ValidateMetrics rejects store metrics that would corrupt downstream math.
func ValidateMetrics(metrics StoreMetrics) error {
	checks := []struct {
		field string
		value float64
		min   float64
		max   float64
	}{
		{"conversionRate", metrics.ConversionRate, 0, 100},
		{"avgOrderValue", metrics.AvgOrderValue, 0, math.MaxFloat64},
		{"monthlyVisitors", metrics.MonthlyVisitors, 0, math.MaxFloat64},
		{"mobilePercentage", metrics.MobilePercentage, 0, 100},
		{"cartAbandonmentRate", metrics.CartAbandonmentRate, 0, 100},
	}
	for _, check := range checks {
		if math.IsNaN(check.value) || math.IsInf(check.value, 0) {
			return &InvalidMetricsError{Field: check.field, Reason: "is not finite"}
		}
		if check.value < check.min || check.value > check.max {
			return &InvalidMetricsError{Field: check.field, Reason: fmt.Sprintf("%.2f out of range", check.value)}
		}
	}
	if metrics.AvgOrderValue == 0 {
		return &InvalidMetricsError{Field: "avgOrderValue", Reason: "must be greater than zero"}
	}
	return nil
}

// IsInvalidMetrics reports whether err is an InvalidMetricsError.
func IsInvalidMetrics(err error) bool {
	var target *InvalidMetricsError
	return errors.As(err, &target)
}

func fallbackCategory(category string) string {
	if category == "" {
		return CategoryGeneral
	}
	return category
}

// formatCurrency renders a whole-unit dollar amount with comma grouping.
func formatCurrency(value float64) string {
	rounded := int64(math.Round(value))
	negative := rounded < 0
	if negative {
		rounded = -rounded
	}
	digits := fmt.Sprintf("%d", rounded)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
