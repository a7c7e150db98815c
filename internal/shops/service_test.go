package shops

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cro-backend/internal/recommendations"
	"cro-backend/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		Store: local.New(t.TempDir()),
		Repo:  NewMemoryRepo(),
	}
}

func TestNormalizeDomain(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Demo.MyShopify.com", want: "demo.myshopify.com"},
		{in: "https://demo.myshopify.com/collections/all", want: "demo.myshopify.com"},
		{in: "demo.myshopify.com/", want: "demo.myshopify.com"},
		{in: "acme-outdoor.com.", want: "acme-outdoor.com"},
		{in: "", wantErr: true},
		{in: "not a domain", wantErr: true},
		{in: "nodots", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizeDomain(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizeDomain(%q): expected error, got %q", tc.in, got)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("NormalizeDomain(%q): expected ErrInvalidInput, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeDomain(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegisterRejectsDuplicateDomain(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user-1", "demo.myshopify.com", "Demo"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "user-1", "HTTPS://demo.myshopify.com", "Demo again")
	if !errors.Is(err, ErrDuplicateDomain) {
		t.Fatalf("expected ErrDuplicateDomain, got %v", err)
	}

	// A different user may register the same domain.
	if _, err := svc.Register(ctx, "user-2", "demo.myshopify.com", ""); err != nil {
		t.Fatalf("register for second user: %v", err)
	}
}

func TestSetMetricsValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	shop, err := svc.Register(ctx, "user-1", "demo.myshopify.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.SetMetrics(ctx, "user-1", shop.ID, recommendations.StoreMetrics{
		ConversionRate:  1.8,
		AvgOrderValue:   0, // must be positive
		MonthlyVisitors: 12000,
	})
	if !recommendations.IsInvalidMetrics(err) {
		t.Fatalf("expected invalid metrics error, got %v", err)
	}

	updated, err := svc.SetMetrics(ctx, "user-1", shop.ID, recommendations.StoreMetrics{
		ConversionRate:      1.8,
		AvgOrderValue:       85,
		MonthlyVisitors:     12000,
		MobilePercentage:    65,
		CartAbandonmentRate: 68,
	})
	if err != nil {
		t.Fatalf("SetMetrics: %v", err)
	}
	if !updated.HasMetrics() {
		t.Fatalf("expected HasMetrics after update")
	}
	if updated.Metrics().AvgOrderValue != 85 {
		t.Fatalf("unexpected metrics: %+v", updated.Metrics())
	}
}

func TestSnapshotAndStorefrontText(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	shop, err := svc.Register(ctx, "user-1", "demo.myshopify.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.StorefrontText(ctx, "user-1", shop.ID)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput before snapshot, got %v", err)
	}

	page := `<html><body><h1>Summer Sale: 20% off</h1><p>Free shipping over $75</p></body></html>`
	withSnapshot, err := svc.SaveSnapshot(ctx, "user-1", shop.ID, strings.NewReader(page))
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if !withSnapshot.HasSnapshot() {
		t.Fatalf("expected snapshot key on shop")
	}

	text, err := svc.StorefrontText(ctx, "user-1", shop.ID)
	if err != nil {
		t.Fatalf("StorefrontText: %v", err)
	}
	if !strings.Contains(text, "Summer Sale: 20% off") {
		t.Fatalf("unexpected extracted text: %q", text)
	}

	// Second call serves the cached extraction.
	again, err := svc.StorefrontText(ctx, "user-1", shop.ID)
	if err != nil {
		t.Fatalf("StorefrontText cached: %v", err)
	}
	if again != text {
		t.Fatalf("cached text differs from first extraction")
	}
}

func TestClaimGuestMovesShops(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "guest:abc", "demo.myshopify.com", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	claimed, err := svc.ClaimGuest(ctx, "guest:abc", "user-1")
	if err != nil {
		t.Fatalf("ClaimGuest: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("expected 1 claimed shop, got %d", claimed)
	}

	shops, err := svc.List(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(shops) != 1 || shops[0].Domain != "demo.myshopify.com" {
		t.Fatalf("unexpected shops after claim: %+v", shops)
	}
}
