package recommendations

import (
	"regexp"
	"sort"
	"strings"

	"cro-backend/internal/shared/telemetry"
)

// genericPhrases rejects recommendations that read like filler. Matching is
// case-insensitive over title and description combined.
var genericPhrases = []string{
	"improve user experience",
	"optimize the",
	"enhance overall",
	"might help",
	"could improve",
	"consider adding",
	"it is recommended",
	"best practices",
	"make it better",
	"user friendly",
	"increase engagement",
	"boost conversions",
	"improve performance",
	"optimize for",
	"general improvement",
}

// vagueTitlePattern rejects two-word imperative titles like "Improve mobile".
var vagueTitlePattern = regexp.MustCompile(`(?i)^(improve|optimize|enhance|better|fix|add)\s+\w+$`)

// specificityMarkers are proxies for concreteness: measurements, colors,
// prices, explicit before/after values. Each pattern is checked independently
// against title and description when scoring.
var specificityMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s*px\b`),
	regexp.MustCompile(`\d+(\.\d+)?%`),
	regexp.MustCompile(`#[0-9a-fA-F]{3,8}\b`),
	regexp.MustCompile(`\$\d`),
	regexp.MustCompile(`(?i)\d+\s*(ms|millisecond|second|minute)s?\b`),
	regexp.MustCompile(`(?i)(above|below)[\s-]the[\s-]fold`),
	regexp.MustCompile(`(?i)\d[^\s]*\s+to\s+\d`),
	regexp.MustCompile(`(?i)currently\s+\d`),
	regexp.MustCompile(`(?i)rgba?\(`),
	regexp.MustCompile(`(?i)\b(font-size|line-height|padding|margin|border-radius|letter-spacing|z-index|background-color)\b`),
	regexp.MustCompile(`(?i)\d+\s*(vw|vh|rem|em)\b`),
}

// actionVerbs mark an implementation step as concrete.
var actionVerbs = []string{
	"edit", "add", "change", "modify", "create", "update",
	"remove", "replace", "move", "set", "configure",
}

// longTitleThreshold treats a long title as sufficient detail on its own.
const longTitleThreshold = 60

// Validate filters recommendations for specificity and actionability, repairs
// implausible effort scores, assigns a 0-100 quality score, and returns the
// survivors sorted by descending quality. Items that fail validation are
// dropped and logged, never errored. The input slice is not mutated.
func Validate(recs []Recommendation) []Recommendation {
	kept := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		if !isSpecific(rec) {
			logFiltered(rec, "not specific")
			continue
		}
		if !isActionable(rec) {
			logFiltered(rec, "not actionable")
			continue
		}
		rec = repairEffort(rec)
		rec.QualityScore = qualityScore(rec)
		kept = append(kept, rec)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].QualityScore > kept[j].QualityScore
	})
	return kept
}

// isSpecific rejects generic phrasing and vague titles, then requires at
// least one specificity marker unless the title is long enough to stand on
// its own.
func isSpecific(rec Recommendation) bool {
	combined := strings.ToLower(rec.Title + " " + rec.Description)
	for _, phrase := range genericPhrases {
		if strings.Contains(combined, phrase) {
			return false
		}
	}
	if vagueTitlePattern.MatchString(strings.TrimSpace(rec.Title)) {
		return false
	}
	if len(rec.Title) >= longTitleThreshold {
		return true
	}
	for _, marker := range specificityMarkers {
		if marker.MatchString(rec.Title) || marker.MatchString(rec.Description) {
			return true
		}
	}
	return false
}

// isActionable requires at least one detailed implementation step: longer
// than 15 characters and containing an action verb.
func isActionable(rec Recommendation) bool {
	if len(rec.Implementation) == 0 {
		return false
	}
	return countDetailedSteps(rec.Implementation) >= 1
}

func countDetailedSteps(steps []string) int {
	count := 0
	for _, step := range steps {
		if len(step) <= 15 {
			continue
		}
		lowered := strings.ToLower(step)
		for _, verb := range actionVerbs {
			if strings.Contains(lowered, verb) {
				count++
				break
			}
		}
	}
	return count
}

// repairEffort corrects effort scores that contradict the implementation
// evidence. The rules run sequentially in this order; a later rule can
// override an earlier correction within the same pass.
func repairEffort(rec Recommendation) Recommendation {
	steps := len(rec.Implementation)
	snippetLen := 0
	if rec.CodeSnippet != nil {
		snippetLen = len(*rec.CodeSnippet)
	}

	if rec.EffortScore == 1 && steps > 5 {
		raised := (steps + 1) / 2
		if raised > 3 {
			raised = 3
		}
		rec.EffortScore = raised
	}
	if rec.EffortScore == 1 && snippetLen > 500 {
		rec.EffortScore = 2
	}
	if rec.EffortScore == 5 && steps < 3 && snippetLen == 0 {
		rec.EffortScore = 3
	}

	rec.Priority = ComputePriority(rec.ImpactScore, rec.EffortScore)
	return rec
}

// qualityScore starts at 50 and adds weighted bonuses for specificity
// markers, step detail, code snippets, impact/effort ratio, and high-value
// categories, capped at 100.
func qualityScore(rec Recommendation) int {
	score := 50

	for _, marker := range specificityMarkers {
		if marker.MatchString(rec.Title) {
			score += 5
		}
		if marker.MatchString(rec.Description) {
			score += 3
		}
	}

	if avg := averageStepLength(rec.Implementation); avg > 50 {
		score += 10
		if avg > 100 {
			score += 10
		}
	}

	if rec.CodeSnippet != nil {
		snippetLen := len(*rec.CodeSnippet)
		if snippetLen > 100 {
			score += 10
		}
		if snippetLen > 300 {
			score += 5
		}
		if snippetLen > 500 {
			score += 5
		}
	}

	if rec.EffortScore > 0 {
		ratio := float64(rec.ImpactScore) / float64(rec.EffortScore)
		if ratio >= 2 {
			score += 15
		}
		if ratio >= 3 {
			score += 10
		}
		if ratio >= 4 {
			score += 5
		}
	}

	switch strings.ToLower(rec.Category) {
	case CategoryCheckout, CategoryCart, CategoryHero:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

func averageStepLength(steps []string) float64 {
	if len(steps) == 0 {
		return 0
	}
	total := 0
	for _, step := range steps {
		total += len(step)
	}
	return float64(total) / float64(len(steps))
}

func logFiltered(rec Recommendation, reason string) {
	telemetry.Info("recommendation.filtered", map[string]any{
		"title":    rec.Title,
		"category": rec.Category,
		"reason":   reason,
	})
}
