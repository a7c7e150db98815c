package analyses

import (
	"context"
	"time"

	"cro-backend/internal/recommendations"
)

// Repo defines persistence operations for analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	GetOrCreateForShop(ctx context.Context, analysis Analysis, allowRetry bool, allowCreate func() error) (Analysis, bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error)
	ListByShop(ctx context.Context, userID, shopID string, limit, offset int) ([]Analysis, error)
	UpdateStatusAndError(ctx context.Context, analysisID, status string, errorCode, errorMessage *string, errorRetryable *bool, startedAt, completedAt *time.Time) error
	UpdateRawResponse(ctx context.Context, analysisID, raw string) error
	UpdatePromptMetadata(ctx context.Context, analysisID, analysisVersion, promptHash string) error
	UpdateResult(ctx context.Context, analysisID string, recs []recommendations.Recommendation, total recommendations.TotalROI, completedAt *time.Time) error
	UpdateRecommendations(ctx context.Context, analysisID string, recs []recommendations.Recommendation) error
}
