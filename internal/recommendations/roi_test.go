package recommendations

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func demoMetrics() StoreMetrics {
	return StoreMetrics{
		ConversionRate:      1.8,
		AvgOrderValue:       85,
		MonthlyVisitors:     12000,
		MobilePercentage:    65,
		CartAbandonmentRate: 68,
	}
}

func TestCalculateRealisticROICheckoutScenario(t *testing.T) {
	calc, err := CalculateRealisticROI(5, 2, "checkout", demoMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calc.EstimatedLift != "1.12%" {
		t.Fatalf("expected 1.12%% lift, got %s", calc.EstimatedLift)
	}
	if calc.Confidence != 95 {
		t.Fatalf("expected confidence 95, got %d", calc.Confidence)
	}
	if math.Abs(calc.AnnualRevenueRaw-calc.MonthlyRevenueRaw*12) > 1e-9 {
		t.Fatalf("annual %.4f is not 12x monthly %.4f", calc.AnnualRevenueRaw, calc.MonthlyRevenueRaw)
	}
	// 12000 visitors * 0.0112 lift * $85 AOV.
	if math.Abs(calc.MonthlyRevenueRaw-11424) > 0.01 {
		t.Fatalf("unexpected monthly revenue lift: %.4f", calc.MonthlyRevenueRaw)
	}
	if calc.MonthlyRevenue != "$11,424" {
		t.Fatalf("unexpected monthly revenue string: %s", calc.MonthlyRevenue)
	}
	if len(calc.Calculation) != 3 {
		t.Fatalf("expected 3 breakdown lines, got %d", len(calc.Calculation))
	}
	if len(calc.Assumptions) != 5 {
		t.Fatalf("expected 5 assumptions, got %d", len(calc.Assumptions))
	}
}

func TestCalculateRealisticROIMobileScalesTraffic(t *testing.T) {
	metrics := demoMetrics()
	mobile, err := CalculateRealisticROI(4, 2, "mobile", metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hero, err := CalculateRealisticROI(4, 2, "hero", metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mobile.MonthlyRevenueRaw >= hero.MonthlyRevenueRaw {
		t.Fatalf("expected mobile revenue %.2f below hero revenue %.2f", mobile.MonthlyRevenueRaw, hero.MonthlyRevenueRaw)
	}
	// Effective traffic is 12000 * 0.65 = 7800 at a 0.8x multiplier.
	expected := 7800 * 0.005 * 0.8 * 85
	if math.Abs(mobile.MonthlyRevenueRaw-expected) > 0.01 {
		t.Fatalf("unexpected mobile revenue: %.4f, want %.4f", mobile.MonthlyRevenueRaw, expected)
	}
	found := false
	for _, assumption := range mobile.Assumptions {
		if strings.Contains(assumption, "mobile traffic only") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected mobile traffic-scope assumption, got %v", mobile.Assumptions)
	}
}

func TestCalculateRealisticROIUnknownCategoryFallsBack(t *testing.T) {
	unknown, err := CalculateRealisticROI(3, 3, "merchandising", demoMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	product, err := CalculateRealisticROI(3, 3, "product", demoMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unknown.EstimatedLift != product.EstimatedLift {
		t.Fatalf("expected 1.0x fallback multiplier, got %s vs %s", unknown.EstimatedLift, product.EstimatedLift)
	}
}

func TestCalculateRealisticROIConfidenceRules(t *testing.T) {
	cases := []struct {
		impact int
		effort int
		want   int
	}{
		{5, 1, 95},
		{4, 3, 85},
		{3, 3, 80},
		{2, 3, 75},
		{1, 5, 55},
		{3, 1, 95},
	}
	for _, tc := range cases {
		calc, err := CalculateRealisticROI(tc.impact, tc.effort, "product", demoMetrics())
		if err != nil {
			t.Fatalf("impact=%d effort=%d: %v", tc.impact, tc.effort, err)
		}
		if calc.Confidence != tc.want {
			t.Fatalf("impact=%d effort=%d: expected confidence %d, got %d", tc.impact, tc.effort, tc.want, calc.Confidence)
		}
	}
}

func TestCalculateRealisticROIRejectsInvalidMetrics(t *testing.T) {
	metrics := demoMetrics()
	metrics.AvgOrderValue = 0
	if _, err := CalculateRealisticROI(3, 3, "cart", metrics); !IsInvalidMetrics(err) {
		t.Fatalf("expected InvalidMetricsError for zero AOV, got %v", err)
	}

	metrics = demoMetrics()
	metrics.ConversionRate = math.NaN()
	if _, err := CalculateRealisticROI(3, 3, "cart", metrics); !IsInvalidMetrics(err) {
		t.Fatalf("expected InvalidMetricsError for NaN conversion rate, got %v", err)
	}

	metrics = demoMetrics()
	metrics.MobilePercentage = 140
	if _, err := CalculateRealisticROI(3, 3, "cart", metrics); !IsInvalidMetrics(err) {
		t.Fatalf("expected InvalidMetricsError for mobile percentage above 100, got %v", err)
	}
}

func TestCalculateTotalROIEmptyListGuard(t *testing.T) {
	_, err := CalculateTotalROI(nil, demoMetrics())
	if !errors.Is(err, ErrEmptyRecommendations) {
		t.Fatalf("expected ErrEmptyRecommendations, got %v", err)
	}
}

func TestCalculateTotalROISumsRawValues(t *testing.T) {
	recs := []Recommendation{
		{ImpactScore: 5, EffortScore: 2, Category: "checkout"},
		{ImpactScore: 3, EffortScore: 3, Category: "cart"},
	}
	total, err := CalculateTotalROI(recs, demoMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := CalculateRealisticROI(5, 2, "checkout", demoMetrics())
	second, _ := CalculateRealisticROI(3, 3, "cart", demoMetrics())
	want := first.MonthlyRevenueRaw + second.MonthlyRevenueRaw
	if math.Abs(total.MonthlyRaw-want) > 1e-9 {
		t.Fatalf("expected raw sum %.4f, got %.4f", want, total.MonthlyRaw)
	}
	wantConfidence := int(math.Round(float64(first.Confidence+second.Confidence) / 2))
	if total.AvgConfidence != wantConfidence {
		t.Fatalf("expected avg confidence %d, got %d", wantConfidence, total.AvgConfidence)
	}
	if total.Count != 2 {
		t.Fatalf("expected count 2, got %d", total.Count)
	}
}

func TestFormatCurrencyGrouping(t *testing.T) {
	cases := map[float64]string{
		0:       "$0",
		949.5:   "$950",
		11424:   "$11,424",
		137088:  "$137,088",
		1234567: "$1,234,567",
		-2500.2: "-$2,500",
	}
	for value, want := range cases {
		if got := formatCurrency(value); got != want {
			t.Fatalf("formatCurrency(%.2f) = %s, want %s", value, got, want)
		}
	}
}
