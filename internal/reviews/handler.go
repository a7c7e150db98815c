package reviews

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cro-backend/internal/shared/server/middleware"
	"cro-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the reviews service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches review routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/shops/:id/reviews", h.addReview)
	rg.GET("/shops/:id/reviews", h.listReviews)
	rg.GET("/reviews/:id", h.getReview)
	rg.POST("/reviews/:id/reply", h.generateReply)
	rg.GET("/reviews/:id/replies", h.listReplies)
	rg.POST("/replies/:id/approve", h.approveReply)
}

type addReviewRequest struct {
	ProductName string `json:"productName"`
	Author      string `json:"author"`
	Rating      int    `json:"rating"`
	Body        string `json:"body"`
}

func (h *Handler) addReview(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	shopID := c.Param("id")

	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	review, err := h.Svc.AddReview(c.Request.Context(), userID, shopID, req.ProductName, req.Author, req.Rating, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "shop not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "rating must be 1-5 and body non-empty", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store review", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toReviewResponse(review))
}

func (h *Handler) listReviews(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	shopID := c.Param("id")

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	reviews, err := h.Svc.ListReviews(c.Request.Context(), userID, shopID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list reviews", nil)
		return
	}

	resp := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) getReview(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	review, err := h.Svc.GetReview(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch review", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toReviewResponse(review))
}

type generateReplyRequest struct {
	Tone string `json:"tone"`
}

func (h *Handler) generateReply(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	reviewID := c.Param("id")

	req := generateReplyRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	reply, err := h.Svc.GenerateReply(c.Request.Context(), userID, reviewID, req.Tone)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTone):
			respond.Error(c, http.StatusBadRequest, "validation_error", "tone must be friendly, professional, apologetic or enthusiastic", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
		case errors.Is(err, ErrInvalidLLMOutput):
			respond.Error(c, http.StatusBadGateway, "invalid_llm_output", "invalid model output", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate reply", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toReplyResponse(reply))
}

func (h *Handler) listReplies(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	replies, err := h.Svc.ListReplies(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list replies", nil)
		}
		return
	}

	resp := make([]ReplyResponse, 0, len(replies))
	for _, reply := range replies {
		resp = append(resp, toReplyResponse(reply))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) approveReply(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	reply, err := h.Svc.ApproveReply(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "reply not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to approve reply", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toReplyResponse(reply))
}

// ReviewResponse is the outward-facing representation of a review.
type ReviewResponse struct {
	ReviewID    string    `json:"reviewId"`
	ShopID      string    `json:"shopId"`
	ProductName string    `json:"productName,omitempty"`
	Author      string    `json:"author,omitempty"`
	Rating      int       `json:"rating"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReplyResponse is the outward-facing representation of a generated reply.
type ReplyResponse struct {
	ReplyID    string     `json:"replyId"`
	ReviewID   string     `json:"reviewId"`
	Tone       string     `json:"tone"`
	Body       string     `json:"body"`
	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toReviewResponse(review Review) ReviewResponse {
	return ReviewResponse{
		ReviewID:    review.ID,
		ShopID:      review.ShopID,
		ProductName: review.ProductName,
		Author:      review.Author,
		Rating:      review.Rating,
		Body:        review.Body,
		CreatedAt:   review.CreatedAt,
	}
}

func toReplyResponse(reply Reply) ReplyResponse {
	return ReplyResponse{
		ReplyID:    reply.ID,
		ReviewID:   reply.ReviewID,
		Tone:       reply.Tone,
		Body:       reply.Body,
		Approved:   reply.Approved,
		ApprovedAt: reply.ApprovedAt,
		CreatedAt:  reply.CreatedAt,
	}
}
