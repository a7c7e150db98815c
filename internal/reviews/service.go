package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cro-backend/internal/llm"
	"cro-backend/internal/shops"
)

const maxReviewBodyLen = 4000

// LLMClient generates reply payloads from prompts.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service coordinates review storage and reply generation.
type Service struct {
	Repo     Repo
	Shops    shops.ShopsRepo
	LLM      LLMClient
	Provider string
	Model    string
}

// AddReview stores a customer review for a shop.
func (s *Service) AddReview(ctx context.Context, userID, shopID, productName, author string, rating int, body string) (Review, error) {
	if userID == "" || shopID == "" {
		return Review{}, ErrInvalidInput
	}
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxReviewBodyLen {
		return Review{}, ErrInvalidInput
	}
	if rating < 1 || rating > 5 {
		return Review{}, ErrInvalidInput
	}

	if _, err := s.Shops.GetByID(ctx, userID, shopID); err != nil {
		if errors.Is(err, shops.ErrNotFound) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}

	review := Review{
		ID:          uuid.NewString(),
		UserID:      userID,
		ShopID:      shopID,
		ProductName: strings.TrimSpace(productName),
		Author:      strings.TrimSpace(author),
		Rating:      rating,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.CreateReview(ctx, review); err != nil {
		return Review{}, err
	}
	return review, nil
}

// GetReview returns a review by ID for a user.
func (s *Service) GetReview(ctx context.Context, userID, reviewID string) (Review, error) {
	if userID == "" || reviewID == "" {
		return Review{}, ErrInvalidInput
	}
	return s.Repo.GetReview(ctx, userID, reviewID)
}

// ListReviews returns a shop's reviews, newest first.
func (s *Service) ListReviews(ctx context.Context, userID, shopID string, limit, offset int) ([]Review, error) {
	if userID == "" || shopID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListReviewsByShop(ctx, userID, shopID, limit, offset)
}

// GenerateReply asks the model for a reply in the requested tone and stores
// it. Calling again for the same review produces a fresh alternative.
func (s *Service) GenerateReply(ctx context.Context, userID, reviewID, tone string) (Reply, error) {
	parsedTone, err := ParseTone(tone)
	if err != nil {
		return Reply{}, err
	}
	if s.LLM == nil {
		return Reply{}, errors.New("missing llm client")
	}

	review, err := s.Repo.GetReview(ctx, userID, reviewID)
	if err != nil {
		return Reply{}, err
	}

	prompt := buildReplyPrompt(review, parsedTone)
	raw, err := s.LLM.Complete(ctx, prompt)
	if err != nil {
		return Reply{}, err
	}

	body, err := decodeReply(raw)
	if err != nil {
		log.Printf("review reply invalid json review_id=%s: %v", review.ID, err)
		return Reply{}, ErrInvalidLLMOutput
	}

	reply := Reply{
		ID:        uuid.NewString(),
		ReviewID:  review.ID,
		UserID:    userID,
		Tone:      parsedTone,
		Body:      body,
		Provider:  s.Provider,
		Model:     s.Model,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.CreateReply(ctx, reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// ListReplies returns all generated replies for a review.
func (s *Service) ListReplies(ctx context.Context, userID, reviewID string) ([]Reply, error) {
	if userID == "" || reviewID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.Repo.GetReview(ctx, userID, reviewID); err != nil {
		return nil, err
	}
	return s.Repo.ListRepliesByReview(ctx, userID, reviewID)
}

// ApproveReply marks one reply as the published one.
func (s *Service) ApproveReply(ctx context.Context, userID, replyID string) (Reply, error) {
	if userID == "" || replyID == "" {
		return Reply{}, ErrInvalidInput
	}
	return s.Repo.ApproveReply(ctx, userID, replyID)
}

func buildReplyPrompt(review Review, tone string) string {
	author := review.Author
	if author == "" {
		author = "an anonymous customer"
	}
	product := review.ProductName
	if product == "" {
		product = "their purchase"
	}
	replacer := strings.NewReplacer(
		"{{TONE}}", tone,
		"{{RATING}}", strconv.Itoa(review.Rating),
		"{{AUTHOR}}", author,
		"{{PRODUCT}}", product,
		"{{REVIEW_BODY}}", review.Body,
	)
	return replacer.Replace(llm.ReviewReplyPromptV1())
}

type replyPayload struct {
	Reply string `json:"reply"`
	Tone  string `json:"tone"`
}

func decodeReply(raw string) (string, error) {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return "", errors.New("empty llm response")
	}
	if !json.Valid([]byte(payload)) {
		start := strings.Index(payload, "{")
		end := strings.LastIndex(payload, "}")
		if start == -1 || end == -1 || end <= start {
			return "", errors.New("no json object found")
		}
		payload = payload[start : end+1]
		if !json.Valid([]byte(payload)) {
			return "", errors.New("invalid json object")
		}
	}

	var parsed replyPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return "", err
	}
	body := strings.TrimSpace(parsed.Reply)
	if body == "" {
		return "", errors.New("empty reply")
	}
	return body, nil
}
