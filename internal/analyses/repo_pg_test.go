package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateIncludesPromptMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	analysis := Analysis{
		ID:              "analysis-1",
		ShopID:          "shop-1",
		UserID:          "user-1",
		Status:          StatusQueued,
		PromptVersion:   "v2",
		AnalysisVersion: "claude-sonnet:v1",
		PromptHash:      "deadbeef",
		Provider:        "anthropic",
		Model:           "claude-sonnet",
		CreatedAt:       time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			analysis.ID,
			analysis.ShopID,
			analysis.UserID,
			analysis.Status,
			analysis.PromptVersion,
			analysis.AnalysisVersion,
			analysis.PromptHash,
			analysis.Provider,
			analysis.Model,
			"",
			sqlmock.AnyArg(), // recommendations
			sqlmock.AnyArg(), // total_roi
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatusAndError(context.Background(), "missing", StatusProcessing, nil, nil, nil, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
