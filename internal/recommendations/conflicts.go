package recommendations

import (
	"fmt"
	"strings"
)

// defaultConflictGroups maps a recommendation type to the types it overlaps
// or contradicts. The table is directional on purpose: a specific change can
// conflict with a broader one without the reverse entry existing. Pass a
// custom table to NewAnnotator to override.
var defaultConflictGroups = map[string][]string{
	"hero-cta":         {"hero-image", "hero-redesign", "hero-text"},
	"hero-image":       {"hero-redesign"},
	"hero-text":        {"hero-redesign"},
	"cart-drawer":      {"cart-page", "cart-redesign"},
	"checkout-express": {"checkout-simplify"},
	"checkout-trust":   {"checkout-simplify"},
	"mobile-nav":       {"nav-redesign", "nav-mega-menu"},
	"urgency-timer":    {"urgency-stock", "urgency-banner"},
	"pricing-anchor":   {"pricing-display", "pricing-bundle"},
	"social-reviews":   {"social-ugc"},
}

// Annotator flags recommendations whose types commonly collide when
// implemented together in the same run.
type Annotator struct {
	groups map[string][]string
}

// NewAnnotator returns an Annotator using the default conflict table, or the
// provided one when non-nil.
func NewAnnotator(groups map[string][]string) *Annotator {
	if groups == nil {
		groups = defaultConflictGroups
	}
	return &Annotator{groups: groups}
}

// Annotate attaches a warning to every recommendation whose conflict group
// contains the type of at least one other list member. The list order is
// preserved and non-conflicting items are untouched.
func (a *Annotator) Annotate(recs []Recommendation) []Recommendation {
	types := make([]string, len(recs))
	for i, rec := range recs {
		types[i] = ConflictType(rec.ID)
	}

	out := make([]Recommendation, len(recs))
	copy(out, recs)
	for i := range out {
		group, ok := a.groups[types[i]]
		if !ok {
			continue
		}
		for j, other := range types {
			if j == i || other == "" {
				continue
			}
			if containsFold(group, other) {
				out[i].Warning = fmt.Sprintf("May conflict with the %q recommendation; review together before implementing both.", strings.ReplaceAll(other, "-", " "))
				break
			}
		}
	}
	return out
}

func containsFold(list []string, target string) bool {
	for _, item := range list {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}
