package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/account"
	"sourcing-backend/internal/classifications"
	"sourcing-backend/internal/feasibility"
	"sourcing-backend/internal/knowledge"
	"sourcing-backend/internal/requests"
	"sourcing-backend/internal/services/health"
	"sourcing-backend/internal/shared/auth"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/uploads"
	"sourcing-backend/internal/usage"
	"sourcing-backend/internal/visualization"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupPolling = "POLLING"
	rateGroupReports = "REPORTS"
	rateGroupUploads = "UPLOADS"
)

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config                 config.Config
	RequestsHandler        *requests.Handler
	VisualizationHandler   *visualization.Handler
	ClassificationsHandler *classifications.Handler
	FeasibilityHandler     *feasibility.Handler
	KnowledgeHandler       *knowledge.Handler
	UsageHandler           *usage.Handler
	AccountHandler         *account.Handler
	Health                 *health.Service
	// UploadsHandler is set only when the object store is S3.
	UploadsHandler         *uploads.Handler
	// Now overrides the rate limiter clock in tests.
	Now                    func() time.Time
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if ok, _ := status["ok"].(bool); !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	authed := api.Group("")
	authed.Use(
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      middleware.NewRateLimiter(now),
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: 5, Burst: 30},
				rateGroupPolling: {Rate: 10, Burst: 60},
				rateGroupReports: {Rate: 0.2, Burst: 3},
				rateGroupUploads: {Rate: 0.1, Burst: 2},
			},
		}),
	)

	var usageSvc *usage.Service
	if deps.UsageHandler != nil {
		usageSvc = deps.UsageHandler.Svc
	}
	registerMeRoutes(authed, usageSvc)
	if deps.RequestsHandler != nil {
		deps.RequestsHandler.RegisterRoutes(authed)
	}
	if deps.VisualizationHandler != nil {
		deps.VisualizationHandler.RegisterRoutes(authed)
	}
	if deps.ClassificationsHandler != nil {
		deps.ClassificationsHandler.RegisterRoutes(authed)
	}
	if deps.FeasibilityHandler != nil {
		deps.FeasibilityHandler.RegisterRoutes(authed)
	}
	writeKnowledge := middleware.RequireRole(auth.RoleBuyer, auth.RoleAgent)
	if deps.KnowledgeHandler != nil {
		deps.KnowledgeHandler.RegisterRoutes(authed, writeKnowledge)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(authed)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(authed, writeKnowledge)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(authed)
		if deps.Config.Env == "dev" {
			dev := authed.Group("/dev")
			deps.UsageHandler.RegisterDevRoutes(dev)
		}
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	switch c.Request.Method {
	case http.MethodGet:
		if path == "/api/v1/feasibility-reports/:id" {
			return rateGroupPolling
		}
	case http.MethodPost:
		switch path {
		case "/api/v1/feasibility-reports":
			return rateGroupReports
		case "/api/v1/knowledge/uploads", "/api/v1/knowledge/uploads/ingest":
			return rateGroupUploads
		}
	}
	return rateGroupDefault
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
