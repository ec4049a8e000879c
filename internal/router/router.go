package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler/health"
	"github.com/jwalitptl/booking-api/internal/handler/prometheus"
	"github.com/jwalitptl/booking-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	health  *health.Handler
	metrics *prometheus.Handler

	public    []Handler
	protected []Handler
}

type RouterConfig struct {
	RateLimit  middleware.RateLimiterConfig
	CORSConfig middleware.CORSConfig
	Security   middleware.SecurityConfig
	Timeout    middleware.TimeoutConfig
	Mode       string
}

// Handlers groups the route sets by whether they need an authenticated
// caller
type Handlers struct {
	Health    *health.Handler
	Metrics   *prometheus.Handler
	Public    []Handler
	Protected []Handler
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	r := &Router{
		engine:    engine,
		auth:      auth,
		health:    handlers.Health,
		metrics:   handlers.Metrics,
		public:    handlers.Public,
		protected: handlers.Protected,
	}

	// Order matters: the request id must exist before anything logs, and
	// recovery must sit outside the handlers it protects
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	if r.metrics != nil {
		engine.Use(r.metrics.Middleware())
	}
	engine.Use(
		middleware.Timeout(config.Timeout),
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(config.RateLimit)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	if r.health != nil {
		r.health.RegisterRoutes(r.engine)
	}
	if r.metrics != nil {
		r.engine.GET("/metrics", r.metrics.Handler())
	}

	api := r.engine.Group("/api/v1")

	// Add version header
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	for _, h := range r.public {
		h.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
