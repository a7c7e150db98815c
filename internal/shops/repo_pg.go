package shops

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cro-backend/internal/recommendations"
)

// PGRepo implements ShopsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const shopColumns = `id, user_id, domain, name, platform, conversion_rate, avg_order_value, monthly_visitors, mobile_percentage, cart_abandonment_rate, metrics_updated_at, snapshot_key, snapshot_at, extracted_text_key, extracted_at, created_at`

// Create inserts a new shop.
func (r *PGRepo) Create(ctx context.Context, shop Shop) error {
	const query = `
INSERT INTO shops (
    id,
    user_id,
    domain,
    name,
    platform,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6)`

	platform := shop.Platform
	if platform == "" {
		platform = "shopify"
	}

	var name sql.NullString
	if shop.Name != "" {
		name = sql.NullString{String: shop.Name, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		shop.ID,
		shop.UserID,
		shop.Domain,
		name,
		platform,
		shop.CreatedAt,
	)
	return err
}

// GetByID fetches a shop by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userId, shopID string) (Shop, error) {
	const query = `
SELECT ` + shopColumns + `
FROM shops
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userId, shopID))
}

// GetByDomain fetches a user's shop by domain.
func (r *PGRepo) GetByDomain(ctx context.Context, userId, domain string) (Shop, error) {
	const query = `
SELECT ` + shopColumns + `
FROM shops
WHERE user_id = $1 AND domain = $2 AND deleted_at IS NULL
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userId, domain))
}

// ListByUser lists shops ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Shop, error) {
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
SELECT ` + shopColumns + `
FROM shops
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Shop
	for rows.Next() {
		shop, err := scanShop(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, shop)
	}
	return out, rows.Err()
}

// UpdateMetrics replaces the shop's store metrics.
func (r *PGRepo) UpdateMetrics(ctx context.Context, userId, shopID string, metrics recommendations.StoreMetrics, updatedAt time.Time) error {
	const query = `
UPDATE shops
SET conversion_rate = $1,
    avg_order_value = $2,
    monthly_visitors = $3,
    mobile_percentage = $4,
    cart_abandonment_rate = $5,
    metrics_updated_at = $6
WHERE user_id = $7 AND id = $8 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(
		ctx,
		query,
		metrics.ConversionRate,
		metrics.AvgOrderValue,
		metrics.MonthlyVisitors,
		metrics.MobilePercentage,
		metrics.CartAbandonmentRate,
		updatedAt,
		userId,
		shopID,
	)
	if err != nil {
		return err
	}
	updated, _ := res.RowsAffected()
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSnapshot records the storage key of a captured storefront snapshot and
// clears any previous extraction.
func (r *PGRepo) UpdateSnapshot(ctx context.Context, userId, shopID, snapshotKey string, capturedAt time.Time) error {
	const query = `
UPDATE shops
SET snapshot_key = $1, snapshot_at = $2, extracted_text_key = NULL, extracted_at = NULL
WHERE user_id = $3 AND id = $4 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, snapshotKey, capturedAt, userId, shopID)
	if err != nil {
		return err
	}
	updated, _ := res.RowsAffected()
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateExtraction stores the extracted text metadata for a shop snapshot.
func (r *PGRepo) UpdateExtraction(ctx context.Context, userId, shopID, extractedKey string, extractedAt time.Time) error {
	const query = `
UPDATE shops
SET extracted_text_key = $1, extracted_at = $2
WHERE user_id = $3 AND id = $4 AND extracted_text_key IS NULL`
	_, err := r.DB.ExecContext(ctx, query, extractedKey, extractedAt, userId, shopID)
	return err
}

// ClaimGuest reassigns shops owned by a guest user to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const query = `
UPDATE shops
SET user_id = $1
WHERE user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

func (r *PGRepo) scanOne(row *sql.Row) (Shop, error) {
	shop, err := scanShop(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return shop, nil
}

func scanShop(scan func(dest ...any) error) (Shop, error) {
	var shop Shop
	var name sql.NullString
	var platform sql.NullString
	var conversionRate sql.NullFloat64
	var avgOrderValue sql.NullFloat64
	var monthlyVisitors sql.NullFloat64
	var mobilePercentage sql.NullFloat64
	var cartAbandonment sql.NullFloat64
	var metricsUpdatedAt sql.NullTime
	var snapshotKey sql.NullString
	var snapshotAt sql.NullTime
	var extractedKey sql.NullString
	var extractedAt sql.NullTime

	err := scan(
		&shop.ID,
		&shop.UserID,
		&shop.Domain,
		&name,
		&platform,
		&conversionRate,
		&avgOrderValue,
		&monthlyVisitors,
		&mobilePercentage,
		&cartAbandonment,
		&metricsUpdatedAt,
		&snapshotKey,
		&snapshotAt,
		&extractedKey,
		&extractedAt,
		&shop.CreatedAt,
	)
	if err != nil {
		return Shop{}, err
	}

	if name.Valid {
		shop.Name = name.String
	}
	if platform.Valid {
		shop.Platform = platform.String
	}
	if conversionRate.Valid {
		shop.ConversionRate = conversionRate.Float64
	}
	if avgOrderValue.Valid {
		shop.AvgOrderValue = avgOrderValue.Float64
	}
	if monthlyVisitors.Valid {
		shop.MonthlyVisitors = monthlyVisitors.Float64
	}
	if mobilePercentage.Valid {
		shop.MobilePercentage = mobilePercentage.Float64
	}
	if cartAbandonment.Valid {
		shop.CartAbandonmentRate = cartAbandonment.Float64
	}
	if metricsUpdatedAt.Valid {
		shop.MetricsUpdatedAt = &metricsUpdatedAt.Time
	}
	if snapshotKey.Valid {
		shop.SnapshotKey = snapshotKey.String
	}
	if snapshotAt.Valid {
		shop.SnapshotAt = &snapshotAt.Time
	}
	if extractedKey.Valid {
		shop.ExtractedTextKey = extractedKey.String
	}
	if extractedAt.Valid {
		shop.ExtractedAt = &extractedAt.Time
	}
	return shop, nil
}

var _ ShopsRepo = (*PGRepo)(nil)
