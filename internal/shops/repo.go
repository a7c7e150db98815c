package shops

import (
	"context"
	"time"

	"cro-backend/internal/recommendations"
)

// ShopsRepo defines persistence operations for shops.
type ShopsRepo interface {
	Create(ctx context.Context, shop Shop) error
	GetByID(ctx context.Context, userId, shopID string) (Shop, error)
	GetByDomain(ctx context.Context, userId, domain string) (Shop, error)
	ListByUser(ctx context.Context, userId string, limit, offset int) ([]Shop, error)
	UpdateMetrics(ctx context.Context, userId, shopID string, metrics recommendations.StoreMetrics, updatedAt time.Time) error
	UpdateSnapshot(ctx context.Context, userId, shopID, snapshotKey string, capturedAt time.Time) error
	UpdateExtraction(ctx context.Context, userId, shopID, extractedKey string, extractedAt time.Time) error
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}
