package shops

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cro-backend/internal/recommendations"
)

// MemoryRepo is an in-memory implementation of ShopsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Shop // userId -> shops
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Shop),
	}
}

// Create stores a new shop for a user.
func (r *MemoryRepo) Create(ctx context.Context, shop Shop) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[shop.UserID] = append(r.data[shop.UserID], shop)
	return nil
}

// GetByID returns a shop by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userId, shopID string) (Shop, error) {
	if err := ctx.Err(); err != nil {
		return Shop{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, shop := range r.data[userId] {
		if shop.ID == shopID {
			return shop, nil
		}
	}
	return Shop{}, ErrNotFound
}

// GetByDomain returns a user's shop matching the domain.
func (r *MemoryRepo) GetByDomain(ctx context.Context, userId, domain string) (Shop, error) {
	if err := ctx.Err(); err != nil {
		return Shop{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, shop := range r.data[userId] {
		if strings.EqualFold(shop.Domain, domain) {
			return shop, nil
		}
	}
	return Shop{}, ErrNotFound
}

// ListByUser returns shops for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Shop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	userShops := r.data[userId]
	r.mu.RUnlock()

	if len(userShops) == 0 || offset >= len(userShops) {
		return []Shop{}, nil
	}

	shops := make([]Shop, len(userShops))
	copy(shops, userShops)
	sort.Slice(shops, func(i, j int) bool {
		return shops[i].CreatedAt.After(shops[j].CreatedAt)
	})

	end := len(shops)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return shops[offset:end], nil
}

// UpdateMetrics replaces the shop's store metrics.
func (r *MemoryRepo) UpdateMetrics(ctx context.Context, userId, shopID string, metrics recommendations.StoreMetrics, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	shops := r.data[userId]
	for i := range shops {
		if shops[i].ID == shopID {
			shops[i].ConversionRate = metrics.ConversionRate
			shops[i].AvgOrderValue = metrics.AvgOrderValue
			shops[i].MonthlyVisitors = metrics.MonthlyVisitors
			shops[i].MobilePercentage = metrics.MobilePercentage
			shops[i].CartAbandonmentRate = metrics.CartAbandonmentRate
			shops[i].MetricsUpdatedAt = &updatedAt
			r.data[userId] = shops
			return nil
		}
	}
	return ErrNotFound
}

// UpdateSnapshot records the storage key of a captured storefront snapshot.
func (r *MemoryRepo) UpdateSnapshot(ctx context.Context, userId, shopID, snapshotKey string, capturedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	shops := r.data[userId]
	for i := range shops {
		if shops[i].ID == shopID {
			shops[i].SnapshotKey = snapshotKey
			shops[i].SnapshotAt = &capturedAt
			// A new snapshot invalidates any previous extraction.
			shops[i].ExtractedTextKey = ""
			shops[i].ExtractedAt = nil
			r.data[userId] = shops
			return nil
		}
	}
	return ErrNotFound
}

// UpdateExtraction stores the extracted text metadata for a shop snapshot.
func (r *MemoryRepo) UpdateExtraction(ctx context.Context, userId, shopID, extractedKey string, extractedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	shops := r.data[userId]
	for i := range shops {
		if shops[i].ID == shopID {
			if shops[i].ExtractedTextKey == "" {
				shops[i].ExtractedTextKey = extractedKey
				shops[i].ExtractedAt = &extractedAt
				r.data[userId] = shops
			}
			return nil
		}
	}
	return ErrNotFound
}

// ClaimGuest reassigns shops owned by a guest user to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	claimed := r.data[guestUserID]
	if len(claimed) == 0 {
		return 0, nil
	}
	for i := range claimed {
		claimed[i].UserID = authedUserID
	}
	r.data[authedUserID] = append(r.data[authedUserID], claimed...)
	delete(r.data, guestUserID)
	return len(claimed), nil
}

var _ ShopsRepo = (*MemoryRepo)(nil)
