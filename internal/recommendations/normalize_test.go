package recommendations

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	rec := Normalize(map[string]any{})
	if rec.Title != "Untitled Recommendation" {
		t.Fatalf("unexpected title default: %q", rec.Title)
	}
	if rec.Category != CategoryGeneral {
		t.Fatalf("unexpected category default: %q", rec.Category)
	}
	if rec.ImpactScore != 3 || rec.EffortScore != 3 {
		t.Fatalf("expected score defaults 3/3, got %d/%d", rec.ImpactScore, rec.EffortScore)
	}
	if rec.Priority != 3 {
		t.Fatalf("expected priority 3, got %d", rec.Priority)
	}
	if rec.EstimatedUplift != "TBD" || rec.EstimatedROI != "TBD" {
		t.Fatalf("expected TBD placeholders, got %q / %q", rec.EstimatedUplift, rec.EstimatedROI)
	}
	if rec.CodeSnippet != nil {
		t.Fatalf("expected nil code snippet")
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", rec.Status)
	}
	if rec.Implementation == nil || len(rec.Implementation) != 0 {
		t.Fatalf("expected empty implementation list, got %#v", rec.Implementation)
	}
}

func TestNormalizeCoercesNumericStrings(t *testing.T) {
	rec := Normalize(map[string]any{
		"title":       "Shrink hero to 480px",
		"impactScore": "4",
		"effortScore": "2.4",
	})
	if rec.ImpactScore != 4 {
		t.Fatalf("expected impact 4, got %d", rec.ImpactScore)
	}
	if rec.EffortScore != 2 {
		t.Fatalf("expected effort 2, got %d", rec.EffortScore)
	}
	if rec.Priority != 6 {
		t.Fatalf("expected priority 6, got %d", rec.Priority)
	}
}

func TestNormalizeClampsScores(t *testing.T) {
	rec := Normalize(map[string]any{
		"impactScore": float64(9),
		"effortScore": float64(-2),
	})
	if rec.ImpactScore != 5 || rec.EffortScore != 1 {
		t.Fatalf("expected clamped 5/1, got %d/%d", rec.ImpactScore, rec.EffortScore)
	}
}

func TestNormalizePriorityNeverTrustedFromInput(t *testing.T) {
	rec := Normalize(map[string]any{
		"impactScore": float64(5),
		"effortScore": float64(2),
		"priority":    float64(99),
	})
	if rec.Priority != 8 {
		t.Fatalf("expected recomputed priority 8, got %d", rec.Priority)
	}
}

func TestNormalizeImplementationForms(t *testing.T) {
	fromArray := Normalize(map[string]any{
		"implementation": []any{"Edit theme.liquid", " ", "Set padding to 24px"},
	})
	if !reflect.DeepEqual(fromArray.Implementation, []string{"Edit theme.liquid", "Set padding to 24px"}) {
		t.Fatalf("unexpected steps from array: %#v", fromArray.Implementation)
	}

	fromString := Normalize(map[string]any{
		"implementation": "Edit theme.liquid\n\nSet padding to 24px",
	})
	if !reflect.DeepEqual(fromString.Implementation, []string{"Edit theme.liquid", "Set padding to 24px"}) {
		t.Fatalf("unexpected steps from string: %#v", fromString.Implementation)
	}
}

func TestNormalizeUnknownCategoryFallsBack(t *testing.T) {
	rec := Normalize(map[string]any{"category": "growth-hacking"})
	if rec.Category != CategoryGeneral {
		t.Fatalf("expected general fallback, got %q", rec.Category)
	}
	known := Normalize(map[string]any{"category": " Checkout "})
	if known.Category != CategoryCheckout {
		t.Fatalf("expected checkout, got %q", known.Category)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize(map[string]any{
		"id":             "rec-hero-cta",
		"title":          "Move hero CTA above the fold",
		"description":    "CTA currently sits at 900px on mobile.",
		"category":       "hero",
		"impactScore":    float64(4),
		"effortScore":    float64(2),
		"implementation": []any{"Edit sections/hero.liquid", "Set top margin to 32px"},
		"codeSnippet":    ".hero-cta { margin-top: 32px; }",
	})

	payload, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var roundTripped map[string]any
	if err := json.Unmarshal(payload, &roundTripped); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	second := Normalize(roundTripped)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization drifted on second pass:\nfirst:  %#v\nsecond: %#v", first, second)
	}
}
