package analyses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cro-backend/internal/shared/server/middleware"
	"cro-backend/internal/shared/server/respond"
	"cro-backend/internal/shops"
	"cro-backend/internal/usage"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc     *Service
	limiter *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		Svc:     svc,
		limiter: newPollLimiter(pollLimitWindow, nil),
	}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/shops/:id/analyze", h.startAnalysis)
	rg.GET("/shops/:id/analyses", h.listShopAnalyses)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.PATCH("/analyses/:id/recommendations/:recId", h.setRecommendationStatus)
}

func (h *Handler) startAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	shopID := c.Param("id")
	if shopID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "shop id is required", nil)
		return
	}
	allowRetry := c.Query("retry") == "true"
	promptVersion := c.Query("promptVersion")

	analysis, created, err := h.Svc.StartOrReuse(c.Request.Context(), shopID, userID, promptVersion, allowRetry)
	if err != nil {
		switch {
		case errors.Is(err, shops.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "shop not found", nil)
		case errors.Is(err, ErrShopNotReady):
			respond.Error(c, http.StatusConflict, "shop_not_ready", "Add store metrics and a storefront snapshot before running an audit.", nil)
		case errors.Is(err, ErrRetryRequired):
			respond.Error(c, http.StatusConflict, "retry_required", "The last audit failed. Pass retry=true to run again.", gin.H{
				"analysisId": analysis.ID,
			})
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your audit limit. Upgrade your plan to continue.", []map[string]string{
				{"field": "usage", "issue": "limit_reached"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	respond.JSON(c, status, gin.H{
		"analysisId": analysis.ID,
		"status":     analysis.Status,
		"created":    created,
	})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "analysis id is required", nil)
		return
	}

	if !h.limiter.Allow(userID, analysisID) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "poll_too_fast", "Polling too frequently", nil)
		return
	}

	analysis, err := h.Svc.Get(c.Request.Context(), userID, analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toDetailResponse(analysis))
}

func (h *Handler) listAnalyses(c *gin.Context) {
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
			return
		}
	}

	userID := middleware.UserIDFromContext(c)
	limit, offset := pageParams(c)

	analyses, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toListResponse(analyses))
}

func (h *Handler) listShopAnalyses(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	shopID := c.Param("id")
	if shopID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "shop id is required", nil)
		return
	}
	limit, offset := pageParams(c)

	analyses, err := h.Svc.ListForShop(c.Request.Context(), userID, shopID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toListResponse(analyses))
}

type recommendationStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setRecommendationStatus(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	recommendationID := c.Param("recId")

	var req recommendationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	rec, err := h.Svc.SetRecommendationStatus(c.Request.Context(), userID, analysisID, recommendationID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "recommendation not found", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, rec)
}

func pageParams(c *gin.Context) (int, int) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
