package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cro-backend/internal/llm"
)

func TestAnalyzeStoreReturnsContentText(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var lastBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header: %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Errorf("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&lastBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"recommendations\":[]}"}],"usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()
	apiURL = server.URL

	client, err := NewClient("test-key", "claude-sonnet")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw, err := client.AnalyzeStore(context.Background(), llm.AnalyzeInput{
		ShopDomain:     "demo.myshopify.com",
		StorefrontText: "storefront",
		MetricsSummary: "conversion rate 1.8%",
		PromptVersion:  "v2",
	})
	if err != nil {
		t.Fatalf("AnalyzeStore: %v", err)
	}
	if raw != `{"recommendations":[]}` {
		t.Fatalf("unexpected content: %q", raw)
	}
	if lastBody["model"] != "claude-sonnet" {
		t.Fatalf("unexpected model in request: %v", lastBody["model"])
	}
	if _, ok := lastBody["max_tokens"]; !ok {
		t.Fatalf("expected max_tokens in request")
	}
}

func TestAnalyzeStoreCapturesPromptHash(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer server.Close()
	apiURL = server.URL

	client, err := NewClient("test-key", "claude-sonnet")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var hash string
	ctx := llm.WithPromptHashCapture(context.Background(), &hash)
	if _, err := client.AnalyzeStore(ctx, llm.AnalyzeInput{StorefrontText: "text", PromptVersion: "v1"}); err != nil {
		t.Fatalf("AnalyzeStore: %v", err)
	}
	if len(hash) != 64 {
		t.Fatalf("expected sha256 hex hash, got %q", hash)
	}
}

func TestAnalyzeStoreSurfacesAPIError(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()
	apiURL = server.URL

	client, err := NewClient("test-key", "claude-sonnet")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.AnalyzeStore(context.Background(), llm.AnalyzeInput{StorefrontText: "text"})
	if err == nil || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
