package recommendations

import (
	"math"
	"strconv"
	"strings"
)

const (
	defaultTitle    = "Untitled Recommendation"
	defaultScore    = 3
	placeholderText = "TBD"
)

// Normalize maps a loosely-typed LLM object onto a fully-populated
// Recommendation. Every field is optional and possibly mistyped on input;
// output fields always carry usable values. Priority is recomputed from the
// normalized impact and effort, never trusted from input.
func Normalize(raw map[string]any) Recommendation {
	rec := Recommendation{
		ID:              stringField(raw, "id", ""),
		Title:           stringField(raw, "title", defaultTitle),
		Description:     stringField(raw, "description", ""),
		Reasoning:       stringField(raw, "reasoning", ""),
		Category:        normalizeCategory(stringField(raw, "category", CategoryGeneral)),
		ImpactScore:     scoreField(raw, "impactScore"),
		EffortScore:     scoreField(raw, "effortScore"),
		Implementation:  implementationField(raw["implementation"]),
		CodeSnippet:     snippetField(raw["codeSnippet"]),
		EstimatedUplift: stringField(raw, "estimatedUplift", placeholderText),
		EstimatedROI:    stringField(raw, "estimatedROI", placeholderText),
		Status:          StatusPending,
	}
	rec.Priority = ComputePriority(rec.ImpactScore, rec.EffortScore)
	return rec
}

// NormalizeAll normalizes a batch of raw objects in order.
func NormalizeAll(raws []map[string]any) []Recommendation {
	out := make([]Recommendation, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// ComputePriority derives the default ranking from impact and effort. Higher
// values sort first.
func ComputePriority(impact, effort int) int {
	return impact*2 - effort
}

func normalizeCategory(category string) string {
	lowered := strings.ToLower(strings.TrimSpace(category))
	switch lowered {
	case CategoryHero, CategoryProduct, CategoryCart, CategoryCheckout,
		CategoryMobile, CategoryTrust, CategoryNavigation, CategoryPricing,
		CategorySocialProof, CategoryUrgency, CategorySpeed:
		return lowered
	default:
		return CategoryGeneral
	}
}

func stringField(raw map[string]any, key, fallback string) string {
	value, ok := raw[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// scoreField coerces numbers and numeric strings onto the 1..5 scale,
// defaulting to 3 when missing or unparseable.
func scoreField(raw map[string]any, key string) int {
	switch value := raw[key].(type) {
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return defaultScore
		}
		return clampScore(int(math.Round(value)))
	case int:
		return clampScore(value)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return defaultScore
		}
		return clampScore(int(math.Round(parsed)))
	default:
		return defaultScore
	}
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

// implementationField accepts either an array of steps or a newline-joined
// string and produces the canonical step list.
func implementationField(value any) []string {
	switch steps := value.(type) {
	case []any:
		out := make([]string, 0, len(steps))
		for _, step := range steps {
			text, ok := step.(string)
			if !ok {
				continue
			}
			trimmed := strings.TrimSpace(text)
			if trimmed == "" {
				continue
			}
			out = append(out, trimmed)
		}
		return out
	case []string:
		out := make([]string, 0, len(steps))
		for _, step := range steps {
			trimmed := strings.TrimSpace(step)
			if trimmed == "" {
				continue
			}
			out = append(out, trimmed)
		}
		return out
	case string:
		return SplitImplementation(steps)
	default:
		return []string{}
	}
}

func snippetField(value any) *string {
	text, ok := value.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil
	}
	return &text
}
