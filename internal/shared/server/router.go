package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cro-backend/internal/account"
	"cro-backend/internal/analyses"
	googleauth "cro-backend/internal/auth"
	"cro-backend/internal/reviews"
	"cro-backend/internal/services/health"
	"cro-backend/internal/shared/config"
	"cro-backend/internal/shared/metrics"
	"cro-backend/internal/shared/server/middleware"
	"cro-backend/internal/shared/server/respond"
	"cro-backend/internal/shops"
	"cro-backend/internal/uploads"
	"cro-backend/internal/usage"
	"cro-backend/internal/users"
)

// RouterDeps carries the wired handlers for route registration.
type RouterDeps struct {
	Config          config.Config
	GoogleAuth      *googleauth.GoogleService
	ShopHandler     *shops.Handler
	AnalysisHandler *analyses.Handler
	ReviewHandler   *reviews.Handler
	UsageHandler    *usage.Handler
	AccountHandler  *account.Handler
	UserHandler     *users.Handler
	Health          *health.Service
}

const analyzeRateGroup = "ANALYZE"

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				analyzeRateGroup: {Rate: 0.2, Burst: 3},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/analyze") {
					return analyzeRateGroup
				}
				return ""
			},
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	} else {
		registerMeRoutes(api)
	}
	if deps.ShopHandler != nil {
		deps.ShopHandler.RegisterRoutes(api)
	}
	uploads.RegisterRoutes(api)
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.Config.Env == "dev" && deps.UsageHandler != nil {
		dev := api.Group("/dev")
		deps.UsageHandler.RegisterDevRoutes(dev)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
