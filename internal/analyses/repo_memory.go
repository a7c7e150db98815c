package analyses

import (
	"context"
	"sort"
	"sync"
	"time"

	"cro-backend/internal/recommendations"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Analysis
	byUser map[string][]string // userID -> analysis IDs
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Analysis),
		byUser: make(map[string][]string),
	}
}

// Create stores the analysis.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[analysis.ID] = analysis
	r.byUser[analysis.UserID] = append(r.byUser[analysis.UserID], analysis.ID)
	return nil
}

// GetByID returns an analysis by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// GetOrCreateForShop returns the latest analysis for a shop or creates a new
// one. A failed latest run requires allowRetry to start over.
func (r *MemoryRepo) GetOrCreateForShop(ctx context.Context, analysis Analysis, allowRetry bool, allowCreate func() error) (Analysis, bool, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *Analysis
	for _, id := range r.byUser[analysis.UserID] {
		candidate := r.byID[id]
		if candidate.ShopID != analysis.ShopID {
			continue
		}
		if latest == nil || candidate.CreatedAt.After(latest.CreatedAt) {
			copied := candidate
			latest = &copied
		}
	}

	if latest != nil {
		switch latest.Status {
		case StatusQueued, StatusProcessing, StatusCompleted:
			return *latest, false, nil
		case StatusFailed:
			if !allowRetry {
				return *latest, false, ErrRetryRequired
			}
		}
	}

	if allowCreate != nil {
		if err := allowCreate(); err != nil {
			return Analysis{}, false, err
		}
	}

	r.byID[analysis.ID] = analysis
	r.byUser[analysis.UserID] = append(r.byUser[analysis.UserID], analysis.ID)
	return analysis, true, nil
}

// ListByUser returns analyses for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byUser[userID]
	all := make([]Analysis, 0, len(ids))
	for _, id := range ids {
		all = append(all, r.byID[id])
	}
	r.mu.RUnlock()
	return paginate(all, limit, offset), nil
}

// ListByShop returns analyses for one shop, newest first.
func (r *MemoryRepo) ListByShop(ctx context.Context, userID, shopID string, limit, offset int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byUser[userID]
	all := make([]Analysis, 0, len(ids))
	for _, id := range ids {
		if a := r.byID[id]; a.ShopID == shopID {
			all = append(all, a)
		}
	}
	r.mu.RUnlock()
	return paginate(all, limit, offset), nil
}

// UpdateStatusAndError updates status/error fields and timestamps.
func (r *MemoryRepo) UpdateStatusAndError(ctx context.Context, analysisID, status string, errorCode, errorMessage *string, errorRetryable *bool, startedAt, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	analysis.Status = status
	if errorCode != nil {
		analysis.ErrorCode = *errorCode
	}
	if errorMessage != nil {
		analysis.ErrorMessage = errorMessage
	}
	if errorRetryable != nil {
		analysis.ErrorRetryable = *errorRetryable
	}
	if startedAt != nil {
		analysis.StartedAt = startedAt
	} else if status == StatusProcessing && analysis.StartedAt == nil {
		now := time.Now().UTC()
		analysis.StartedAt = &now
	}
	if completedAt != nil {
		analysis.CompletedAt = completedAt
	} else if (status == StatusCompleted || status == StatusFailed) && analysis.CompletedAt == nil {
		now := time.Now().UTC()
		analysis.CompletedAt = &now
	}
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// UpdateRawResponse stores the raw LLM output for an analysis.
func (r *MemoryRepo) UpdateRawResponse(ctx context.Context, analysisID, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	analysis.RawResponse = raw
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// UpdatePromptMetadata stores the analysis version and prompt hash.
func (r *MemoryRepo) UpdatePromptMetadata(ctx context.Context, analysisID, analysisVersion, promptHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	if analysisVersion != "" {
		analysis.AnalysisVersion = analysisVersion
	}
	if promptHash != "" {
		analysis.PromptHash = promptHash
	}
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// UpdateResult stores the validated recommendations and marks the run completed.
func (r *MemoryRepo) UpdateResult(ctx context.Context, analysisID string, recs []recommendations.Recommendation, total recommendations.TotalROI, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	analysis.Status = StatusCompleted
	analysis.Recommendations = recs
	analysis.TotalROI = &total
	if completedAt != nil {
		analysis.CompletedAt = completedAt
	} else if analysis.CompletedAt == nil {
		now := time.Now().UTC()
		analysis.CompletedAt = &now
	}
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// UpdateRecommendations replaces the stored recommendation list.
func (r *MemoryRepo) UpdateRecommendations(ctx context.Context, analysisID string, recs []recommendations.Recommendation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	analysis.Recommendations = recs
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// ClaimGuest reassigns analyses owned by a guest user to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byUser[guestUserID]
	for _, id := range ids {
		analysis, ok := r.byID[id]
		if !ok {
			continue
		}
		analysis.UserID = authedUserID
		r.byID[id] = analysis
	}
	r.byUser[authedUserID] = append(r.byUser[authedUserID], ids...)
	delete(r.byUser, guestUserID)
	return len(ids), nil
}

func paginate(all []Analysis, limit, offset int) []Analysis {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if len(all) == 0 || offset >= len(all) {
		return []Analysis{}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

var _ Repo = (*MemoryRepo)(nil)
