package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careloop/booking-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	healthH      Handler
	authH        Handler
	userH        Handler
	appointmentH Handler
	feedbackH    Handler
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimitEnabled  bool
	RequestsPerSecond float64
	Burst             int
	CORSConfig        middleware.CORSConfig
	MetricsPrefix     string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH Handler,
	authH Handler,
	userH Handler,
	appointmentH Handler,
	feedbackH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		healthH:      healthH,
		authH:        authH,
		userH:        userH,
		appointmentH: appointmentH,
		feedbackH:    feedbackH,
		metrics:      initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(config.RequestsPerSecond, config.Burst)
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	// Public routes
	r.authH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.userH.RegisterRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)
	r.feedbackH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
