package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cro-backend/internal/analyses"
	"cro-backend/internal/reviews"
	"cro-backend/internal/shops"
)

type Service struct {
	ShopsRepo    shops.ShopsRepo
	AnalysisRepo analyses.Repo
	ReviewsRepo  reviews.Repo
}

type ClaimResult struct {
	MigratedShops    int `json:"migratedShops"`
	MigratedAnalyses int `json:"migratedAnalyses"`
	MigratedReviews  int `json:"migratedReviews"`
}

func NewService(shopsRepo shops.ShopsRepo, analysisRepo analyses.Repo, reviewsRepo reviews.Repo) *Service {
	return &Service{ShopsRepo: shopsRepo, AnalysisRepo: analysisRepo, ReviewsRepo: reviewsRepo}
}

func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}

	if shopPG, ok := s.ShopsRepo.(*shops.PGRepo); ok && shopPG != nil && shopPG.DB != nil {
		if analysisPG, ok := s.AnalysisRepo.(*analyses.PGRepo); ok && analysisPG != nil && analysisPG.DB != nil {
			return claimWithTx(ctx, shopPG.DB, guestUserID, authedUserID)
		}
	}

	shopCount, err := s.ShopsRepo.ClaimGuest(ctx, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	analysisCount, err := claimVia(ctx, s.AnalysisRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	reviewCount := 0
	if s.ReviewsRepo != nil {
		reviewCount, err = claimVia(ctx, s.ReviewsRepo, guestUserID, authedUserID)
		if err != nil {
			return ClaimResult{}, err
		}
	}
	return ClaimResult{MigratedShops: shopCount, MigratedAnalyses: analysisCount, MigratedReviews: reviewCount}, nil
}

func claimWithTx(ctx context.Context, db *sql.DB, guestUserID, authedUserID string) (ClaimResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimResult{}, err
	}
	defer tx.Rollback()

	shopRes, err := tx.ExecContext(ctx, `UPDATE shops SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	shopCount, _ := shopRes.RowsAffected()

	analysisRes, err := tx.ExecContext(ctx, `UPDATE analyses SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	analysisCount, _ := analysisRes.RowsAffected()

	reviewRes, err := tx.ExecContext(ctx, `UPDATE reviews SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	reviewCount, _ := reviewRes.RowsAffected()

	if _, err := tx.ExecContext(ctx, `UPDATE review_replies SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID); err != nil {
		return ClaimResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{
		MigratedShops:    int(shopCount),
		MigratedAnalyses: int(analysisCount),
		MigratedReviews:  int(reviewCount),
	}, nil
}

type guestClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}

func claimVia(ctx context.Context, repo any, guestUserID, authedUserID string) (int, error) {
	if claimer, ok := repo.(guestClaimer); ok {
		return claimer.ClaimGuest(ctx, guestUserID, authedUserID)
	}
	return 0, errors.New("repo does not support claim")
}
