package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cro-backend/internal/shared/storage/object/local"
	"cro-backend/internal/shops"
)

func newTestRouter(t *testing.T, client LLMClient) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	shopsRepo := shops.NewMemoryRepo()
	shopSvc := &shops.Service{Store: local.New(t.TempDir()), Repo: shopsRepo}
	shop, err := shopSvc.Register(context.Background(), "user-1", "demo-store.myshopify.com", "Demo Store")
	if err != nil {
		t.Fatalf("register shop: %v", err)
	}

	svc := &Service{
		Repo:  NewMemoryRepo(),
		Shops: shopsRepo,
		LLM:   client,
	}
	handler := NewHandler(svc)

	router := gin.New()
	group := router.Group("/api/v1")
	group.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	handler.RegisterRoutes(group)
	return router, shop.ID
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAddAndListReviews(t *testing.T) {
	router, shopID := newTestRouter(t, &stubLLM{})

	resp := postJSON(t, router, "/api/v1/shops/"+shopID+"/reviews",
		`{"productName":"Trail Runner Shoes","author":"Maya","rating":2,"body":"Arrived scuffed."}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created ReviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ReviewID == "" || created.Rating != 2 {
		t.Fatalf("unexpected response: %+v", created)
	}

	respBad := postJSON(t, router, "/api/v1/shops/"+shopID+"/reviews",
		`{"rating":9,"body":"way out of range"}`)
	if respBad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", respBad.Code)
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/shops/"+shopID+"/reviews", nil)
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	if respList.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", respList.Code)
	}
	var listed []ReviewResponse
	if err := json.NewDecoder(respList.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ReviewID != created.ReviewID {
		t.Fatalf("unexpected list: %+v", listed)
	}
}

func TestGenerateReplyEndpoint(t *testing.T) {
	client := &stubLLM{resp: `{"reply":"So sorry about the scuffed pair, Maya. A replacement ships today.","tone":"apologetic"}`}
	router, shopID := newTestRouter(t, client)

	resp := postJSON(t, router, "/api/v1/shops/"+shopID+"/reviews",
		`{"author":"Maya","rating":2,"body":"Arrived scuffed."}`)
	var review ReviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&review); err != nil {
		t.Fatalf("decode review: %v", err)
	}

	respReply := postJSON(t, router, "/api/v1/reviews/"+review.ReviewID+"/reply", `{"tone":"apologetic"}`)
	if respReply.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", respReply.Code, respReply.Body.String())
	}
	var reply ReplyResponse
	if err := json.NewDecoder(respReply.Body).Decode(&reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Tone != ToneApologetic || reply.Approved {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	respBadTone := postJSON(t, router, "/api/v1/reviews/"+review.ReviewID+"/reply", `{"tone":"sarcastic"}`)
	if respBadTone.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad tone, got %d", respBadTone.Code)
	}

	respApprove := postJSON(t, router, "/api/v1/replies/"+reply.ReplyID+"/approve", "")
	if respApprove.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", respApprove.Code, respApprove.Body.String())
	}
	var approved ReplyResponse
	if err := json.NewDecoder(respApprove.Body).Decode(&approved); err != nil {
		t.Fatalf("decode approved: %v", err)
	}
	if !approved.Approved || approved.ApprovedAt == nil {
		t.Fatalf("reply not approved: %+v", approved)
	}
}

func TestGenerateReplyBadOutputEndpoint(t *testing.T) {
	router, shopID := newTestRouter(t, &stubLLM{resp: "not json at all"})

	resp := postJSON(t, router, "/api/v1/shops/"+shopID+"/reviews", `{"rating":4,"body":"Lovely product."}`)
	var review ReviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&review); err != nil {
		t.Fatalf("decode review: %v", err)
	}

	respReply := postJSON(t, router, "/api/v1/reviews/"+review.ReviewID+"/reply", "")
	if respReply.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", respReply.Code, respReply.Body.String())
	}
}

func TestReviewNotFoundEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubLLM{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
