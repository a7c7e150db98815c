package reviews

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	reviews map[string]Review
	replies map[string]Reply
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		reviews: make(map[string]Review),
		replies: make(map[string]Reply),
	}
}

// CreateReview stores a review.
func (r *MemoryRepo) CreateReview(ctx context.Context, review Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[review.ID] = review
	return nil
}

// GetReview returns a review by ID for a user.
func (r *MemoryRepo) GetReview(ctx context.Context, userID, reviewID string) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.reviews[reviewID]
	if !ok || review.UserID != userID {
		return Review{}, ErrNotFound
	}
	return review, nil
}

// ListReviewsByShop returns a shop's reviews, newest first.
func (r *MemoryRepo) ListReviewsByShop(ctx context.Context, userID, shopID string, limit, offset int) ([]Review, error) {
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
	all := make([]Review, 0)
	for _, review := range r.reviews {
		if review.UserID == userID && review.ShopID == shopID {
			all = append(all, review)
		}
	}
	r.mu.RUnlock()

	if len(all) == 0 || offset >= len(all) {
		return []Review{}, nil
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// CreateReply stores a generated reply.
func (r *MemoryRepo) CreateReply(ctx context.Context, reply Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[reply.ID] = reply
	return nil
}

// GetReply returns a reply by ID for a user.
func (r *MemoryRepo) GetReply(ctx context.Context, userID, replyID string) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	reply, ok := r.replies[replyID]
	if !ok || reply.UserID != userID {
		return Reply{}, ErrNotFound
	}
	return reply, nil
}

// ListRepliesByReview returns all replies for a review, newest first.
func (r *MemoryRepo) ListRepliesByReview(ctx context.Context, userID, reviewID string) ([]Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Reply, 0)
	for _, reply := range r.replies {
		if reply.UserID == userID && reply.ReviewID == reviewID {
			out = append(out, reply)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ApproveReply marks a reply approved; any sibling approval is cleared.
func (r *MemoryRepo) ApproveReply(ctx context.Context, userID, replyID string) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	reply, ok := r.replies[replyID]
	if !ok || reply.UserID != userID {
		return Reply{}, ErrNotFound
	}

	for id, sibling := range r.replies {
		if sibling.ReviewID == reply.ReviewID && sibling.Approved {
			sibling.Approved = false
			sibling.ApprovedAt = nil
			r.replies[id] = sibling
		}
	}

	now := time.Now().UTC()
	reply.Approved = true
	reply.ApprovedAt = &now
	r.replies[replyID] = reply
	return reply, nil
}

// ClaimGuest reassigns reviews and replies owned by a guest user to an
// authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, review := range r.reviews {
		if review.UserID == guestUserID {
			review.UserID = authedUserID
			r.reviews[id] = review
			moved++
		}
	}
	for id, reply := range r.replies {
		if reply.UserID == guestUserID {
			reply.UserID = authedUserID
			r.replies[id] = reply
		}
	}
	return moved, nil
}

var _ Repo = (*MemoryRepo)(nil)
