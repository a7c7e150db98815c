package analyses

import (
	"time"

	"cro-backend/internal/recommendations"
)

// Analysis represents a CRO audit run for a shop.
type Analysis struct {
	ID              string                           `json:"id"`
	ShopID          string                           `json:"shopId"`
	UserID          string                           `json:"userId"`
	Status          string                           `json:"status"`
	PromptVersion   string                           `json:"promptVersion"`
	AnalysisVersion string                           `json:"analysisVersion"`
	PromptHash      string                           `json:"promptHash,omitempty"`
	Provider        string                           `json:"provider"`
	Model           string                           `json:"model"`
	RawResponse     string                           `json:"-"`
	Recommendations []recommendations.Recommendation `json:"recommendations,omitempty"`
	TotalROI        *recommendations.TotalROI        `json:"totalRoi,omitempty"`
	ErrorCode       string                           `json:"errorCode,omitempty"`
	ErrorMessage    *string                          `json:"errorMessage,omitempty"`
	ErrorRetryable  bool                             `json:"errorRetryable,omitempty"`
	StartedAt       *time.Time                       `json:"startedAt,omitempty"`
	CompletedAt     *time.Time                       `json:"completedAt,omitempty"`
	CreatedAt       time.Time                        `json:"createdAt"`
	UpdatedAt       time.Time                        `json:"updatedAt"`
}
