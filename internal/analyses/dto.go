package analyses

import (
	"time"

	"github.com/gin-gonic/gin"

	"cro-backend/internal/recommendations"
)

// detailResponse is the outward-facing representation of a single audit run.
type detailResponse struct {
	AnalysisID      string                           `json:"analysisId"`
	ShopID          string                           `json:"shopId"`
	Status          string                           `json:"status"`
	PromptVersion   string                           `json:"promptVersion,omitempty"`
	Provider        string                           `json:"provider,omitempty"`
	Model           string                           `json:"model,omitempty"`
	Recommendations []recommendations.Recommendation `json:"recommendations,omitempty"`
	TotalROI        *recommendations.TotalROI        `json:"totalRoi,omitempty"`
	ErrorCode       string                           `json:"errorCode,omitempty"`
	ErrorMessage    string                           `json:"errorMessage,omitempty"`
	ErrorRetryable  bool                             `json:"errorRetryable,omitempty"`
	CreatedAt       time.Time                        `json:"createdAt"`
	CompletedAt     *time.Time                       `json:"completedAt,omitempty"`
}

func toDetailResponse(analysis Analysis) detailResponse {
	resp := detailResponse{
		AnalysisID:    analysis.ID,
		ShopID:        analysis.ShopID,
		Status:        analysis.Status,
		PromptVersion: analysis.PromptVersion,
		Provider:      analysis.Provider,
		Model:         analysis.Model,
		CreatedAt:     analysis.CreatedAt,
		CompletedAt:   analysis.CompletedAt,
	}
	if analysis.Status == StatusCompleted {
		resp.Recommendations = analysis.Recommendations
		resp.TotalROI = analysis.TotalROI
	}
	if analysis.Status == StatusFailed {
		resp.ErrorCode = analysis.ErrorCode
		resp.ErrorRetryable = analysis.ErrorRetryable
		if analysis.ErrorMessage != nil {
			resp.ErrorMessage = *analysis.ErrorMessage
		}
	}
	return resp
}

func toListResponse(analyses []Analysis) []gin.H {
	resp := make([]gin.H, 0, len(analyses))
	for _, a := range analyses {
		item := gin.H{
			"analysisId": a.ID,
			"shopId":     a.ShopID,
			"status":     a.Status,
			"createdAt":  a.CreatedAt,
		}
		if a.Status == StatusCompleted {
			item["recommendationCount"] = len(a.Recommendations)
			if a.TotalROI != nil {
				item["totalRoi"] = a.TotalROI
			}
		}
		if a.Status == StatusFailed {
			item["errorCode"] = a.ErrorCode
		}
		resp = append(resp, item)
	}
	return resp
}
