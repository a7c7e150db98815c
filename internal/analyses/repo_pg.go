package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"cro-backend/internal/recommendations"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `id, shop_id, user_id, status, prompt_version, analysis_version, prompt_hash, provider, model,
       raw_response, recommendations, total_roi,
       error_code, error_message, error_retryable, started_at, completed_at, created_at, updated_at`

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	return createAnalysis(ctx, r.DB, analysis)
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	analysis, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return analysis, nil
}

// GetOrCreateForShop returns the latest analysis for a shop or creates a new one.
func (r *PGRepo) GetOrCreateForShop(ctx context.Context, analysis Analysis, allowRetry bool, allowCreate func() error) (Analysis, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Analysis{}, false, err
	}
	defer tx.Rollback()

	// Serialize per-shop to avoid duplicate audit creation.
	if _, err := tx.ExecContext(ctx, `SELECT id FROM shops WHERE id = $1 AND user_id = $2 FOR UPDATE`, analysis.ShopID, analysis.UserID); err != nil {
		return Analysis{}, false, err
	}

	latest, err := getLatestForShop(ctx, tx, analysis.UserID, analysis.ShopID)
	if err == nil {
		switch latest.Status {
		case StatusQueued, StatusProcessing, StatusCompleted:
			if err := tx.Commit(); err != nil {
				return Analysis{}, false, err
			}
			return latest, false, nil
		case StatusFailed:
			if !allowRetry {
				if err := tx.Commit(); err != nil {
					return Analysis{}, false, err
				}
				return latest, false, ErrRetryRequired
			}
		}
	} else if !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, ErrNotFound) {
		return Analysis{}, false, err
	}

	if allowCreate != nil {
		if err := allowCreate(); err != nil {
			return Analysis{}, false, err
		}
	}

	if err := createAnalysis(ctx, tx, analysis); err != nil {
		return Analysis{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Analysis{}, false, err
	}
	return analysis, true, nil
}

// ListByUser lists analyses for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

// ListByShop lists one shop's analyses ordered newest-first.
func (r *PGRepo) ListByShop(ctx context.Context, userID, shopID string, limit, offset int) ([]Analysis, error) {
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND shop_id = $2 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, query, userID, shopID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

func (r *PGRepo) list(ctx context.Context, query, userID string, limit, offset int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// UpdateStatusAndError updates status/error fields and timestamps.
func (r *PGRepo) UpdateStatusAndError(ctx context.Context, analysisID, status string, errorCode, errorMessage *string, errorRetryable *bool, startedAt, completedAt *time.Time) error {
	const query = `
UPDATE analyses
SET status = $1,
    error_code = COALESCE($2::text, error_code),
    error_message = COALESCE($3::text, error_message),
    error_retryable = CASE
        WHEN $4::boolean IS NOT NULL THEN $4::boolean
        ELSE error_retryable
    END,
    started_at = CASE
        WHEN $5::timestamptz IS NOT NULL THEN $5::timestamptz
        WHEN $1 = 'processing' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN $6::timestamptz IS NOT NULL THEN $6::timestamptz
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $7::uuid`

	res, err := r.DB.ExecContext(ctx, query, status, errorCode, errorMessage, errorRetryable, startedAt, completedAt, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRawResponse stores the raw LLM output.
func (r *PGRepo) UpdateRawResponse(ctx context.Context, analysisID, raw string) error {
	const query = `
UPDATE analyses
SET raw_response = $1,
    updated_at = now()
WHERE id = $2::uuid`
	res, err := r.DB.ExecContext(ctx, query, raw, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePromptMetadata updates analysis_version and prompt_hash.
func (r *PGRepo) UpdatePromptMetadata(ctx context.Context, analysisID, analysisVersion, promptHash string) error {
	const query = `
UPDATE analyses
SET analysis_version = COALESCE(NULLIF($1::text, ''), analysis_version),
    prompt_hash = COALESCE(NULLIF($2::text, ''), prompt_hash),
    updated_at = now()
WHERE id = $3::uuid`

	res, err := r.DB.ExecContext(ctx, query, analysisVersion, promptHash, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateResult stores the recommendations and marks the run completed.
func (r *PGRepo) UpdateResult(ctx context.Context, analysisID string, recs []recommendations.Recommendation, total recommendations.TotalROI, completedAt *time.Time) error {
	const query = `
UPDATE analyses
SET recommendations = $1::jsonb,
    total_roi = $2::jsonb,
    status = 'completed',
    completed_at = COALESCE($3::timestamptz, completed_at, now()),
    updated_at = now()
WHERE id = $4::uuid`

	recsPayload, err := marshalJSONB(recs)
	if err != nil {
		return err
	}
	totalPayload, err := marshalJSONB(total)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, recsPayload, totalPayload, completedAt, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRecommendations replaces the stored recommendation list.
func (r *PGRepo) UpdateRecommendations(ctx context.Context, analysisID string, recs []recommendations.Recommendation) error {
	const query = `
UPDATE analyses
SET recommendations = $1::jsonb,
    updated_at = now()
WHERE id = $2::uuid`

	payload, err := marshalJSONB(recs)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, payload, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimGuest reassigns analyses owned by a guest user to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const query = `
UPDATE analyses
SET user_id = $1, updated_at = now()
WHERE user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

var _ Repo = (*PGRepo)(nil)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func createAnalysis(ctx context.Context, db execer, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, shop_id, user_id, status, prompt_version, analysis_version, prompt_hash, provider, model,
	raw_response, recommendations, total_roi, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	recsPayload, err := marshalJSONB(analysis.Recommendations)
	if err != nil {
		return err
	}
	totalPayload, err := marshalJSONB(analysis.TotalROI)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query,
		analysis.ID,
		analysis.ShopID,
		analysis.UserID,
		analysis.Status,
		analysis.PromptVersion,
		analysis.AnalysisVersion,
		analysis.PromptHash,
		analysis.Provider,
		analysis.Model,
		analysis.RawResponse,
		recsPayload,
		totalPayload,
		analysis.CreatedAt,
	)
	return err
}

func getLatestForShop(ctx context.Context, q queryer, userID, shopID string) (Analysis, error) {
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE shop_id = $1 AND user_id = $2 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT 1`

	analysis, err := scanAnalysis(q.QueryRowContext(ctx, query, shopID, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return analysis, nil
}

func collectAnalyses(rows *sql.Rows) ([]Analysis, error) {
	var out []Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis)
	}
	return out, rows.Err()
}

func scanAnalysis(scan func(dest ...any) error) (Analysis, error) {
	var a Analysis
	var promptVersion sql.NullString
	var analysisVersion sql.NullString
	var promptHash sql.NullString
	var provider sql.NullString
	var model sql.NullString
	var rawResponse sql.NullString
	var recsJSON sql.NullString
	var totalJSON sql.NullString
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var errorRetryable sql.NullBool
	var startedAt sql.NullTime
	var completedAt sql.NullTime

	err := scan(
		&a.ID,
		&a.ShopID,
		&a.UserID,
		&a.Status,
		&promptVersion,
		&analysisVersion,
		&promptHash,
		&provider,
		&model,
		&rawResponse,
		&recsJSON,
		&totalJSON,
		&errorCode,
		&errorMessage,
		&errorRetryable,
		&startedAt,
		&completedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return Analysis{}, err
	}

	if promptVersion.Valid {
		a.PromptVersion = promptVersion.String
	}
	if analysisVersion.Valid {
		a.AnalysisVersion = analysisVersion.String
	}
	if promptHash.Valid {
		a.PromptHash = promptHash.String
	}
	if provider.Valid {
		a.Provider = provider.String
	}
	if model.Valid {
		a.Model = model.String
	}
	if rawResponse.Valid {
		a.RawResponse = rawResponse.String
	}
	if recsJSON.Valid && recsJSON.String != "" {
		if err := json.Unmarshal([]byte(recsJSON.String), &a.Recommendations); err != nil {
			a.Recommendations = nil
		}
	}
	if totalJSON.Valid && totalJSON.String != "" && totalJSON.String != "null" {
		var total recommendations.TotalROI
		if err := json.Unmarshal([]byte(totalJSON.String), &total); err == nil && total.Count > 0 {
			a.TotalROI = &total
		}
	}
	if errorCode.Valid {
		a.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		a.ErrorMessage = &errorMessage.String
	}
	if errorRetryable.Valid {
		a.ErrorRetryable = errorRetryable.Bool
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(value)
}
