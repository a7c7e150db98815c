package shops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"cro-backend/internal/extract"
	"cro-backend/internal/recommendations"
	"cro-backend/internal/shared/storage/object"
)

// Service contains business logic for shops.
type Service struct {
	Store object.ObjectStore
	Repo  ShopsRepo
}

// Register records a new shop for the user. The domain is normalized before
// storage; registering the same domain twice is rejected.
func (s *Service) Register(ctx context.Context, userId, domain, name string) (Shop, error) {
	if userId == "" {
		return Shop{}, errors.New("user id required")
	}

	normalized, err := NormalizeDomain(domain)
	if err != nil {
		return Shop{}, err
	}

	if _, err := s.Repo.GetByDomain(ctx, userId, normalized); err == nil {
		return Shop{}, ErrDuplicateDomain
	} else if !errors.Is(err, ErrNotFound) {
		return Shop{}, err
	}

	shop := Shop{
		ID:        uuid.NewString(),
		UserID:    userId,
		Domain:    normalized,
		Name:      strings.TrimSpace(name),
		Platform:  "shopify",
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, shop); err != nil {
		return Shop{}, err
	}

	return shop, nil
}

// Get returns a shop by ID for a user.
func (s *Service) Get(ctx context.Context, userId, shopID string) (Shop, error) {
	if userId == "" || shopID == "" {
		return Shop{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userId, shopID)
}

// List returns the user's shops, newest first.
func (s *Service) List(ctx context.Context, userId string, limit, offset int) ([]Shop, error) {
	if userId == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userId, limit, offset)
}

// SetMetrics validates and stores the shop's store metrics.
func (s *Service) SetMetrics(ctx context.Context, userId, shopID string, metrics recommendations.StoreMetrics) (Shop, error) {
	if userId == "" || shopID == "" {
		return Shop{}, ErrInvalidInput
	}
	if err := recommendations.ValidateMetrics(metrics); err != nil {
		return Shop{}, err
	}
	if err := s.Repo.UpdateMetrics(ctx, userId, shopID, metrics, time.Now().UTC()); err != nil {
		return Shop{}, err
	}
	return s.Repo.GetByID(ctx, userId, shopID)
}

// SaveSnapshot stores a captured storefront HTML page and records its key on
// the shop. A new snapshot supersedes any previous extraction.
func (s *Service) SaveSnapshot(ctx context.Context, userId, shopID string, r io.Reader) (Shop, error) {
	if userId == "" || shopID == "" {
		return Shop{}, ErrInvalidInput
	}

	shop, err := s.Repo.GetByID(ctx, userId, shopID)
	if err != nil {
		return Shop{}, err
	}

	fileName := shop.Domain + ".html"
	storageKey, _, _, err := s.Store.Save(ctx, userId, fileName, r)
	if err != nil {
		return Shop{}, err
	}

	if err := s.Repo.UpdateSnapshot(ctx, userId, shopID, storageKey, time.Now().UTC()); err != nil {
		return Shop{}, err
	}
	return s.Repo.GetByID(ctx, userId, shopID)
}

// StorefrontText returns the extracted visible text of the shop's snapshot,
// running extraction on first access and caching the derived object.
func (s *Service) StorefrontText(ctx context.Context, userId, shopID string) (string, error) {
	shop, err := s.Repo.GetByID(ctx, userId, shopID)
	if err != nil {
		return "", err
	}
	if !shop.HasSnapshot() {
		return "", fmt.Errorf("shop %s: %w: no storefront snapshot", shopID, ErrInvalidInput)
	}

	if shop.ExtractedTextKey != "" {
		body, err := s.Store.Open(ctx, shop.ExtractedTextKey)
		if err == nil {
			defer body.Close()
			raw, readErr := io.ReadAll(body)
			if readErr == nil {
				return string(raw), nil
			}
		}
		// Re-extract from the snapshot if the cached copy is unreadable.
	}

	text, err := extract.ExtractText(ctx, s.Store, shop.SnapshotKey)
	if err != nil {
		return "", err
	}

	if err := s.Repo.UpdateExtraction(ctx, userId, shopID, shop.SnapshotKey+".extracted.txt", time.Now().UTC()); err != nil {
		return "", err
	}
	return text, nil
}

// ClaimGuest reassigns a guest's shops to an authenticated user.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if guestUserID == "" || authedUserID == "" {
		return 0, ErrInvalidInput
	}
	return s.Repo.ClaimGuest(ctx, guestUserID, authedUserID)
}

// NormalizeDomain lower-cases a shop domain and strips any scheme, path, and
// trailing dot. It rejects values that do not look like a hostname.
func NormalizeDomain(domain string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(domain))
	if trimmed == "" {
		return "", fmt.Errorf("%w: domain is required", ErrInvalidInput)
	}

	if strings.Contains(trimmed, "://") {
		parsed, err := url.Parse(trimmed)
		if err != nil || parsed.Host == "" {
			return "", fmt.Errorf("%w: invalid domain", ErrInvalidInput)
		}
		trimmed = parsed.Host
	}
	if i := strings.IndexAny(trimmed, "/?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimSuffix(trimmed, ".")

	if trimmed == "" || !strings.Contains(trimmed, ".") || strings.ContainsAny(trimmed, " \t@:") {
		return "", fmt.Errorf("%w: invalid domain", ErrInvalidInput)
	}
	return trimmed, nil
}
