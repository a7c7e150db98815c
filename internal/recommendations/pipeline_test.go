package recommendations

import (
	"errors"
	"reflect"
	"testing"
)

const pipelineFixture = "Here is my audit of the store.\n```json\n" + `{
  "recommendations": [
    {
      "id": "rec-hero-cta",
      "title": "Reposition CTA 120px higher on mobile viewport",
      "description": "Move the primary button from 650px to 530px so it sits above the fold.",
      "category": "hero",
      "impactScore": 4,
      "effortScore": 2,
      "implementation": ["Edit sections/hero.liquid and set the CTA margin-top to 32px"]
    },
    {
      "id": "rec-hero-image",
      "title": "Replace hero image with the 200ms-load compressed variant",
      "description": "Current image is 2.4mb; swap to the 180kb asset, cutting LCP from 4s to 1.5s.",
      "category": "hero",
      "impactScore": 4,
      "effortScore": 1,
      "implementation": ["Update assets/hero.jpg and set loading priority to high"]
    },
    {
      "id": "rec-general-vibes",
      "title": "Improve checkout",
      "description": "This might help the store feel more premium.",
      "category": "checkout",
      "implementation": ["Think about it"]
    }
  ]
}` + "\n```\nLet me know if you want deeper detail."

func TestPipelineProcess(t *testing.T) {
	out, err := NewPipeline().Process(pipelineFixture, demoMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 validated recommendations, got %d", len(out))
	}
	for _, rec := range out {
		if rec.ROI == nil {
			t.Fatalf("expected ROI attached to %s", rec.ID)
		}
		if rec.QualityScore < 0 || rec.QualityScore > 100 {
			t.Fatalf("quality score out of bounds on %s: %d", rec.ID, rec.QualityScore)
		}
		if rec.Priority != ComputePriority(rec.ImpactScore, rec.EffortScore) {
			t.Fatalf("priority invariant broken on %s", rec.ID)
		}
	}
	if out[0].QualityScore < out[1].QualityScore {
		t.Fatalf("expected descending quality order")
	}
	cta := findByID(t, out, "rec-hero-cta")
	if cta.Warning == "" {
		t.Fatalf("expected conflict warning on hero-cta when hero-image is present")
	}
	if cta.EstimatedUplift == "TBD" {
		t.Fatalf("expected uplift filled by the estimator")
	}
}

func TestPipelineDeterministic(t *testing.T) {
	pipe := NewPipeline()
	first, err := pipe.Process(pipelineFixture, demoMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := pipe.Process(pipelineFixture, demoMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("pipeline output is not deterministic")
	}
}

func TestPipelineEmptyAfterValidation(t *testing.T) {
	raw := `{"recommendations":[{"title":"Improve checkout","description":"This might help.","implementation":["Think"]}]}`
	_, err := NewPipeline().Process(raw, demoMetrics())
	if !errors.Is(err, ErrEmptyRecommendations) {
		t.Fatalf("expected ErrEmptyRecommendations, got %v", err)
	}
}

func TestPipelineEmptyRecommendationsArray(t *testing.T) {
	_, err := NewPipeline().Process(`{"recommendations":[]}`, demoMetrics())
	if !errors.Is(err, ErrEmptyRecommendations) {
		t.Fatalf("expected ErrEmptyRecommendations, got %v", err)
	}
}

func TestPipelineMalformedDistinctFromEmpty(t *testing.T) {
	_, err := NewPipeline().Process("no json at all", demoMetrics())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if errors.Is(err, ErrEmptyRecommendations) {
		t.Fatalf("malformed response must not read as an empty set")
	}
}

func TestPipelineInvalidMetrics(t *testing.T) {
	metrics := demoMetrics()
	metrics.AvgOrderValue = 0
	_, err := NewPipeline().Process(pipelineFixture, metrics)
	if !IsInvalidMetrics(err) {
		t.Fatalf("expected InvalidMetricsError, got %v", err)
	}
}

func findByID(t *testing.T, recs []Recommendation, id string) Recommendation {
	t.Helper()
	for _, rec := range recs {
		if rec.ID == id {
			return rec
		}
	}
	t.Fatalf("recommendation %s not found", id)
	return Recommendation{}
}
