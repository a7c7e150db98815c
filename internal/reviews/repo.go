package reviews

import "context"

// Repo defines persistence operations for reviews and replies.
type Repo interface {
	CreateReview(ctx context.Context, review Review) error
	GetReview(ctx context.Context, userID, reviewID string) (Review, error)
	ListReviewsByShop(ctx context.Context, userID, shopID string, limit, offset int) ([]Review, error)

	CreateReply(ctx context.Context, reply Reply) error
	GetReply(ctx context.Context, userID, replyID string) (Reply, error)
	ListRepliesByReview(ctx context.Context, userID, reviewID string) ([]Reply, error)
	ApproveReply(ctx context.Context, userID, replyID string) (Reply, error)
}
