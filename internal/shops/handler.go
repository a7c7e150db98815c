package shops

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cro-backend/internal/recommendations"
	"cro-backend/internal/shared/server/middleware"
	"cro-backend/internal/shared/server/respond"
)

const maxSnapshotSize = 5 << 20 // 5MB of storefront HTML

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches shop routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/shops", h.register)
	rg.GET("/shops", h.list)
	rg.GET("/shops/:id", h.get)
	rg.PUT("/shops/:id/metrics", h.setMetrics)
	rg.POST("/shops/:id/snapshot", h.uploadSnapshot)
}

type registerRequest struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

func (h *Handler) register(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	shop, err := h.Svc.Register(c.Request.Context(), userID, req.Domain, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateDomain):
			respond.Error(c, http.StatusConflict, "duplicate_domain", "domain already registered", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register shop", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(shop))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

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

	shops, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list shops", nil)
		return
	}

	resp := make([]ShopResponse, 0, len(shops))
	for _, shop := range shops {
		resp = append(resp, toResponse(shop))
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	shop, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "shop not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch shop", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(shop))
}

type metricsRequest struct {
	ConversionRate      float64 `json:"conversionRate"`
	AvgOrderValue       float64 `json:"avgOrderValue"`
	MonthlyVisitors     float64 `json:"monthlyVisitors"`
	MobilePercentage    float64 `json:"mobilePercentage"`
	CartAbandonmentRate float64 `json:"cartAbandonmentRate"`
}

func (h *Handler) setMetrics(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req metricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	shop, err := h.Svc.SetMetrics(c.Request.Context(), userID, c.Param("id"), recommendations.StoreMetrics{
		ConversionRate:      req.ConversionRate,
		AvgOrderValue:       req.AvgOrderValue,
		MonthlyVisitors:     req.MonthlyVisitors,
		MobilePercentage:    req.MobilePercentage,
		CartAbandonmentRate: req.CartAbandonmentRate,
	})
	if err != nil {
		switch {
		case recommendations.IsInvalidMetrics(err):
			respond.Error(c, http.StatusBadRequest, "invalid_metrics", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "shop not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update metrics", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(shop))
}

func (h *Handler) uploadSnapshot(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSnapshotSize)

	contentType := c.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "text/html") && !strings.HasPrefix(contentType, "text/plain") {
		respond.Error(c, http.StatusUnsupportedMediaType, "validation_error", "snapshot must be text/html", nil)
		return
	}

	shop, err := h.Svc.SaveSnapshot(c.Request.Context(), userID, c.Param("id"), c.Request.Body)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "shop not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save snapshot", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(shop))
}
