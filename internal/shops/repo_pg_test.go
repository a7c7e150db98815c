package shops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"cro-backend/internal/recommendations"
)

func TestPGRepoCreateDefaultsPlatform(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	shop := Shop{
		ID:        "shop-1",
		UserID:    "user-1",
		Domain:    "demo.myshopify.com",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO shops").
		WithArgs(
			shop.ID,
			shop.UserID,
			shop.Domain,
			nil, // name
			"shopify",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), shop); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMetricsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE shops").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateMetrics(context.Background(), "user-1", "missing", recommendations.StoreMetrics{
		ConversionRate:  1.8,
		AvgOrderValue:   85,
		MonthlyVisitors: 12000,
	}, time.Now().UTC())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
