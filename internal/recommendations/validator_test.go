package recommendations

import "testing"

func snippet(s string) *string {
	return &s
}

func specificRec() Recommendation {
	return Recommendation{
		ID:          "rec-hero-cta",
		Title:       "Reposition CTA 120px higher on mobile viewport",
		Description: "Move the primary button from 650px to 530px so it lands above the fold.",
		Category:    CategoryHero,
		ImpactScore: 4,
		EffortScore: 2,
		Implementation: []string{
			"Edit sections/hero.liquid and set the CTA container margin-top to 32px",
		},
		Status: StatusPending,
	}
}

func TestValidateExcludesVagueTitle(t *testing.T) {
	rec := specificRec()
	rec.Title = "Improve mobile"
	rec.Description = "Make the mobile experience better for shoppers overall."

	out := Validate([]Recommendation{rec})
	if len(out) != 0 {
		t.Fatalf("expected vague recommendation to be filtered, got %d", len(out))
	}
}

func TestValidateExcludesGenericPhrases(t *testing.T) {
	rec := specificRec()
	rec.Description = "This might help and will improve user experience across the funnel."

	out := Validate([]Recommendation{rec})
	if len(out) != 0 {
		t.Fatalf("expected generic recommendation to be filtered, got %d", len(out))
	}
}

func TestValidateIncludesSpecificActionableRec(t *testing.T) {
	out := Validate([]Recommendation{specificRec()})
	if len(out) != 1 {
		t.Fatalf("expected recommendation to pass, got %d", len(out))
	}
	if out[0].QualityScore < 50 || out[0].QualityScore > 100 {
		t.Fatalf("quality score out of bounds: %d", out[0].QualityScore)
	}
}

func TestValidateLongTitleBypassesMarkerRequirement(t *testing.T) {
	rec := specificRec()
	rec.Title = "Restructure the product page layout so shipping and return policies sit beside the buy box"
	rec.Description = "Shoppers abandon when policies are hard to find."

	out := Validate([]Recommendation{rec})
	if len(out) != 1 {
		t.Fatalf("expected long-title recommendation to pass, got %d", len(out))
	}
}

func TestValidateRejectsWithoutActionableSteps(t *testing.T) {
	rec := specificRec()
	rec.Implementation = []string{"Do it", "Quick fix"}

	out := Validate([]Recommendation{rec})
	if len(out) != 0 {
		t.Fatalf("expected recommendation without detailed steps to be filtered, got %d", len(out))
	}

	rec.Implementation = []string{}
	out = Validate([]Recommendation{rec})
	if len(out) != 0 {
		t.Fatalf("expected recommendation without steps to be filtered, got %d", len(out))
	}
}

func TestValidateQualityScoreBounds(t *testing.T) {
	rec := specificRec()
	rec.ImpactScore = 5
	rec.EffortScore = 1
	rec.CodeSnippet = snippet(makeText(600))
	rec.Implementation = []string{
		"Edit sections/hero.liquid and set the CTA container margin-top to 32px so the button renders above the fold on a 390px viewport",
		"Update assets/theme.css and change the hero height from 720px to 480px for small breakpoints",
	}

	out := Validate([]Recommendation{rec})
	if len(out) != 1 {
		t.Fatalf("expected recommendation to pass, got %d", len(out))
	}
	if out[0].QualityScore > 100 {
		t.Fatalf("quality score exceeds cap: %d", out[0].QualityScore)
	}
	if out[0].QualityScore != 100 {
		t.Fatalf("expected stacked bonuses to hit the cap, got %d", out[0].QualityScore)
	}
}

func TestValidateRatioBonusMonotonicInImpact(t *testing.T) {
	prev := -1
	for impact := 1; impact <= 5; impact++ {
		rec := specificRec()
		rec.ImpactScore = impact
		rec.EffortScore = 1
		rec.Category = CategoryGeneral

		out := Validate([]Recommendation{rec})
		if len(out) != 1 {
			t.Fatalf("impact %d: expected recommendation to pass", impact)
		}
		if out[0].QualityScore < prev {
			t.Fatalf("quality score decreased when impact rose to %d: %d < %d", impact, out[0].QualityScore, prev)
		}
		prev = out[0].QualityScore
	}
}

func TestValidateEffortRepairManySteps(t *testing.T) {
	rec := specificRec()
	rec.EffortScore = 1
	rec.Implementation = []string{
		"Edit sections/hero.liquid to move the CTA markup above the image",
		"Update assets/theme.css with the new hero spacing rules",
		"Set the mobile breakpoint hero height to 480px",
		"Replace the hero image with the compressed 120kb variant",
		"Add a fallback background color of #f4f4f4",
		"Configure the theme editor preset with the new defaults",
	}

	out := Validate([]Recommendation{rec})
	if len(out) != 1 {
		t.Fatalf("expected recommendation to pass, got %d", len(out))
	}
	if out[0].EffortScore != 3 {
		t.Fatalf("expected effort raised to 3 for 6 steps, got %d", out[0].EffortScore)
	}
	if out[0].Priority != ComputePriority(out[0].ImpactScore, 3) {
		t.Fatalf("priority not recomputed after repair: %d", out[0].Priority)
	}
}

func TestValidateEffortRepairLargeSnippet(t *testing.T) {
	rec := specificRec()
	rec.EffortScore = 1
	rec.CodeSnippet = snippet(makeText(600))

	out := Validate([]Recommendation{rec})
	if len(out) != 1 {
		t.Fatalf("expected recommendation to pass, got %d", len(out))
	}
	if out[0].EffortScore != 2 {
		t.Fatalf("expected effort raised to 2 for large snippet, got %d", out[0].EffortScore)
	}
}

func TestValidateEffortRepairOverstatedEffort(t *testing.T) {
	rec := specificRec()
	rec.EffortScore = 5
	rec.Implementation = []string{
		"Edit sections/hero.liquid and set the CTA container margin-top to 32px",
	}

	out := Validate([]Recommendation{rec})
	if len(out) != 1 {
		t.Fatalf("expected recommendation to pass, got %d", len(out))
	}
	if out[0].EffortScore != 3 {
		t.Fatalf("expected effort lowered to 3, got %d", out[0].EffortScore)
	}
}

func TestValidateSortStable(t *testing.T) {
	first := specificRec()
	first.ID = "rec-cart-drawer"
	first.Title = "Pin the cart drawer total at 16px from the top"
	first.Category = CategoryGeneral

	second := specificRec()
	second.ID = "rec-trust-badges"
	second.Title = "Show payment badges 24px below the buy button"
	second.Category = CategoryGeneral

	third := specificRec()
	third.ID = "rec-checkout-express"
	third.ImpactScore = 5
	third.EffortScore = 1

	out := Validate([]Recommendation{first, second, third})
	if len(out) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(out))
	}
	if out[0].ID != "rec-checkout-express" {
		t.Fatalf("expected highest scored first, got %s", out[0].ID)
	}
	if out[1].ID != "rec-cart-drawer" || out[2].ID != "rec-trust-badges" {
		t.Fatalf("expected stable order for equal scores, got %s then %s", out[1].ID, out[2].ID)
	}
}

func makeText(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'a'
	}
	return string(out)
}
