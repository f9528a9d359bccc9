package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"taskapp/internal/adapter/http/handler"
	"taskapp/internal/adapter/http/middleware"
	"taskapp/internal/adapter/telemetry"
	"taskapp/internal/core/port"
	"taskapp/pkg/config"
	"taskapp/pkg/logger"
)

type HandlersConfig struct {
	TaskHandler   *handler.TaskHandler
	HealthHandler *handler.HealthHandler
}

// Dependencies are the cross-cutting pieces the router installs as middleware.
// RateLimiter, Metrics and MetricsHandler may be nil.
type Dependencies struct {
	Resolver       port.PrincipalResolver
	RateLimiter    *middleware.RateLimiter
	Metrics        *telemetry.AppMetrics
	MetricsHandler http.Handler
	Logger         *logger.Logger
	Config         *config.Config
}

func SetupRouter(handlers HandlersConfig, deps Dependencies) *gin.Engine {
	if deps.Config == nil {
		deps.Config = config.GetDefaultConfig()
	}

	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	router := gin.New()

	if err := router.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		deps.Logger.Logger.Warn("Ignoring invalid trusted proxies", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	if deps.Config.Telemetry.Enabled {
		router.Use(otelgin.Middleware(deps.Config.App.Name))
	}

	router.Use(gin.Recovery())
	router.Use(middleware.HTTPSMiddleware(deps.Config.EnforceHTTPS, deps.Logger.Zap()))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}

	router.Use(corsMiddleware())

	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	if handlers.HealthHandler != nil {
		router.GET("/health", handlers.HealthHandler.Health)
	}

	if handlers.TaskHandler != nil {
		setupTaskRoutes(router, handlers.TaskHandler, deps)
	}

	return router
}

func setupTaskRoutes(router *gin.Engine, taskHandler *handler.TaskHandler, deps Dependencies) {
	tasks := router.Group("/tasks")
	tasks.Use(middleware.PrincipalMiddleware(deps.Resolver, deps.Logger))

	if deps.RateLimiter != nil {
		tasks.Use(deps.RateLimiter.RateLimitMiddleware())
	}

	{
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.GET("/:id", taskHandler.Retrieve)
		tasks.PATCH("/:id", taskHandler.Update)
		tasks.PUT("/:id", taskHandler.Replace)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
