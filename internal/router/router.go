package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/admissions-api/internal/handler/application"
	"github.com/jwalitptl/admissions-api/internal/handler/auth"
	"github.com/jwalitptl/admissions-api/internal/handler/enrollment"
	"github.com/jwalitptl/admissions-api/internal/handler/health"
	"github.com/jwalitptl/admissions-api/internal/handler/messages"
	"github.com/jwalitptl/admissions-api/internal/handler/news"
	"github.com/jwalitptl/admissions-api/internal/handler/prometheus"
	"github.com/jwalitptl/admissions-api/internal/handler/student"
	"github.com/jwalitptl/admissions-api/internal/handler/workspace"
	"github.com/jwalitptl/admissions-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	Enrollment  *enrollment.Handler
	Messages    *messages.Handler
	Workspace   *workspace.Handler
	Application *application.Handler
	Student     *student.Handler
	News        *news.Handler
	Health      *health.Handler
	Metrics     *prometheus.Handler
}

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// EnrollmentLimiter guards the public enrollment form.
	EnrollmentLimiter *middleware.RateLimiter
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	h      Handlers
	config RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, h Handlers, config RouterConfig) *Router {
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		h.Metrics.Middleware(),
		middleware.CORS(middleware.DefaultCORSConfig(config.AllowedOrigins)),
		middleware.SecurityHeaders(),
		middleware.Timeout(config.RequestTimeout),
		middleware.SizeLimit(config.MaxBodyBytes),
	)

	return &Router{
		engine: engine,
		auth:   auth,
		h:      h,
		config: config,
	}
}

func (r *Router) Setup() {
	r.h.Health.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", r.h.Metrics.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.h.Auth.RegisterRoutes(rg)

	limit := func(c *gin.Context) { c.Next() }
	if r.config.EnrollmentLimiter != nil {
		limit = r.config.EnrollmentLimiter.RateLimit()
	}
	r.h.Enrollment.RegisterRoutes(rg, limit)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.h.Auth.RegisterProtectedRoutes(rg)
	for _, h := range []Handler{
		r.h.Messages,
		r.h.Workspace,
		r.h.Application,
		r.h.Student,
		r.h.News,
	} {
		h.RegisterRoutes(rg)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
