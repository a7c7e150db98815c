package reviews

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateReview inserts a review.
func (r *PGRepo) CreateReview(ctx context.Context, review Review) error {
	const query = `
INSERT INTO reviews (
    id, user_id, shop_id, product_name, author, rating, body, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		review.ID,
		review.UserID,
		review.ShopID,
		review.ProductName,
		review.Author,
		review.Rating,
		review.Body,
		review.CreatedAt,
	)
	return err
}

// GetReview returns a review by ID for a user.
func (r *PGRepo) GetReview(ctx context.Context, userID, reviewID string) (Review, error) {
	const query = `
SELECT id, user_id, shop_id, product_name, author, rating, body, created_at
FROM reviews
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
LIMIT 1`
	var review Review
	err := r.DB.QueryRowContext(ctx, query, reviewID, userID).Scan(
		&review.ID,
		&review.UserID,
		&review.ShopID,
		&review.ProductName,
		&review.Author,
		&review.Rating,
		&review.Body,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return review, nil
}

// ListReviewsByShop lists a shop's reviews ordered newest-first.
func (r *PGRepo) ListReviewsByShop(ctx context.Context, userID, shopID string, limit, offset int) ([]Review, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, shop_id, product_name, author, rating, body, created_at
FROM reviews
WHERE user_id = $1 AND shop_id = $2 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctx, query, userID, shopID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var review Review
		if err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.ShopID,
			&review.ProductName,
			&review.Author,
			&review.Rating,
			&review.Body,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, review)
	}
	return out, rows.Err()
}

// CreateReply inserts a generated reply.
func (r *PGRepo) CreateReply(ctx context.Context, reply Reply) error {
	const query = `
INSERT INTO review_replies (
    id, review_id, user_id, tone, body, approved, provider, model, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		reply.ID,
		reply.ReviewID,
		reply.UserID,
		reply.Tone,
		reply.Body,
		reply.Approved,
		reply.Provider,
		reply.Model,
		reply.CreatedAt,
	)
	return err
}

// GetReply returns a reply by ID for a user.
func (r *PGRepo) GetReply(ctx context.Context, userID, replyID string) (Reply, error) {
	const query = `
SELECT id, review_id, user_id, tone, body, approved, approved_at, provider, model, created_at
FROM review_replies
WHERE id = $1 AND user_id = $2
LIMIT 1`
	return scanReply(r.DB.QueryRowContext(ctx, query, replyID, userID))
}

// ListRepliesByReview lists a review's replies ordered newest-first.
func (r *PGRepo) ListRepliesByReview(ctx context.Context, userID, reviewID string) ([]Reply, error) {
	const query = `
SELECT id, review_id, user_id, tone, body, approved, approved_at, provider, model, created_at
FROM review_replies
WHERE user_id = $1 AND review_id = $2
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reply
	for rows.Next() {
		var reply Reply
		var approvedAt sql.NullTime
		if err := rows.Scan(
			&reply.ID,
			&reply.ReviewID,
			&reply.UserID,
			&reply.Tone,
			&reply.Body,
			&reply.Approved,
			&approvedAt,
			&reply.Provider,
			&reply.Model,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		if approvedAt.Valid {
			reply.ApprovedAt = &approvedAt.Time
		}
		out = append(out, reply)
	}
	return out, rows.Err()
}

// ApproveReply marks one reply approved and clears any sibling approval.
func (r *PGRepo) ApproveReply(ctx context.Context, userID, replyID string) (Reply, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Reply{}, err
	}
	defer tx.Rollback()

	const clear = `
UPDATE review_replies
SET approved = FALSE, approved_at = NULL
WHERE review_id = (SELECT review_id FROM review_replies WHERE id = $1 AND user_id = $2)
  AND user_id = $2 AND approved`
	if _, err := tx.ExecContext(ctx, clear, replyID, userID); err != nil {
		return Reply{}, err
	}

	const approve = `
UPDATE review_replies
SET approved = TRUE, approved_at = now()
WHERE id = $1 AND user_id = $2`
	res, err := tx.ExecContext(ctx, approve, replyID, userID)
	if err != nil {
		return Reply{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Reply{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return Reply{}, err
	}
	return r.GetReply(ctx, userID, replyID)
}

// ClaimGuest reassigns reviews and replies owned by a guest user to an
// authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE reviews SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	moved, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `
UPDATE review_replies SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(moved), nil
}

func scanReply(row *sql.Row) (Reply, error) {
	var reply Reply
	var approvedAt sql.NullTime
	err := row.Scan(
		&reply.ID,
		&reply.ReviewID,
		&reply.UserID,
		&reply.Tone,
		&reply.Body,
		&reply.Approved,
		&approvedAt,
		&reply.Provider,
		&reply.Model,
		&reply.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reply{}, ErrNotFound
		}
		return Reply{}, err
	}
	if approvedAt.Valid {
		reply.ApprovedAt = &approvedAt.Time
	}
	return reply, nil
}

var _ Repo = (*PGRepo)(nil)
