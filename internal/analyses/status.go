package analyses

import (
	"errors"
	"strings"

	"cro-backend/internal/recommendations"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ParseRecommendationStatus normalizes and validates a recommendation status
// sent by the merchant dashboard.
func ParseRecommendationStatus(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", errors.New("recommendation status is required")
	}
	switch normalized {
	case recommendations.StatusPending, recommendations.StatusImplemented, recommendations.StatusSkipped:
		return normalized, nil
	default:
		return "", errors.New("recommendation status is invalid")
	}
}
