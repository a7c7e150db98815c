package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cro-backend/internal/analyses"
	"cro-backend/internal/reviews"
	"cro-backend/internal/shops"
)

func newClaimRouter(shopsRepo *shops.MemoryRepo, analysisRepo *analyses.MemoryRepo, reviewsRepo *reviews.MemoryRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewService(shopsRepo, analysisRepo, reviewsRepo))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("isGuest", false)
		c.Next()
	})
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router
}

func TestClaimGuestMigratesData(t *testing.T) {
	shopsRepo := shops.NewMemoryRepo()
	analysisRepo := analyses.NewMemoryRepo()
	reviewsRepo := reviews.NewMemoryRepo()
	router := newClaimRouter(shopsRepo, analysisRepo, reviewsRepo)

	guestID := "11111111-1111-1111-1111-111111111111"
	guestUserID := "guest:" + guestID

	shop := shops.Shop{
		ID:        "shop-1",
		UserID:    guestUserID,
		Domain:    "demo.myshopify.com",
		Platform:  "shopify",
		CreatedAt: time.Now().UTC(),
	}
	if err := shopsRepo.Create(context.Background(), shop); err != nil {
		t.Fatalf("create shop: %v", err)
	}
	analysis := analyses.Analysis{
		ID:        "analysis-1",
		ShopID:    shop.ID,
		UserID:    guestUserID,
		Status:    analyses.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := analysisRepo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("create analysis: %v", err)
	}
	review := reviews.Review{
		ID:        "review-1",
		UserID:    guestUserID,
		ShopID:    shop.ID,
		Rating:    4,
		Body:      "Great product, slow shipping.",
		CreatedAt: time.Now().UTC(),
	}
	if err := reviewsRepo.CreateReview(context.Background(), review); err != nil {
		t.Fatalf("create review: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	shopsList, err := shopsRepo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list shops: %v", err)
	}
	if len(shopsList) != 1 {
		t.Fatalf("expected 1 migrated shop, got %d", len(shopsList))
	}

	analysesList, err := analysisRepo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	if len(analysesList) != 1 {
		t.Fatalf("expected 1 migrated analysis, got %d", len(analysesList))
	}

	if _, err := reviewsRepo.GetReview(context.Background(), "user-1", "review-1"); err != nil {
		t.Fatalf("migrated review not owned by user-1: %v", err)
	}
}

func TestClaimGuestIdempotentAndIsolated(t *testing.T) {
	shopsRepo := shops.NewMemoryRepo()
	analysisRepo := analyses.NewMemoryRepo()
	reviewsRepo := reviews.NewMemoryRepo()
	router := newClaimRouter(shopsRepo, analysisRepo, reviewsRepo)

	guestID := "22222222-2222-2222-2222-222222222222"
	guestUserID := "guest:" + guestID

	shop := shops.Shop{
		ID:        "shop-2",
		UserID:    guestUserID,
		Domain:    "other.myshopify.com",
		Platform:  "shopify",
		CreatedAt: time.Now().UTC(),
	}
	if err := shopsRepo.Create(context.Background(), shop); err != nil {
		t.Fatalf("create shop: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req2.Header.Set("X-Guest-Id", guestID)
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusOK {
		t.Fatalf("expected status 200 on idempotent call, got %d", resp2.Code)
	}

	shopsList, err := shopsRepo.ListByUser(context.Background(), "user-2", 10, 0)
	if err != nil {
		t.Fatalf("list shops: %v", err)
	}
	if len(shopsList) != 0 {
		t.Fatalf("expected no shops for other user, got %d", len(shopsList))
	}
}
