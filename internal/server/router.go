package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/carebridge-backend/internal/handlers"
	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/platform/envutil"
)

type RouterConfig struct {
	ConversationHandler *handlers.ConversationHandler
	CatalogHandler      *handlers.CatalogHandler
	Metrics             *observability.Metrics
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.Use(otelgin.Middleware("carebridge"))
	router.Use(metricsMiddleware(cfg.Metrics))

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := router.Group("/api")
	{
		api.POST("/conversations", cfg.ConversationHandler.Create)
		api.POST("/conversations/:id/messages", cfg.ConversationHandler.Respond)
		api.GET("/conversations/:id", cfg.ConversationHandler.Get)
		api.GET("/conversations/:id/profile", cfg.ConversationHandler.Profile)
		api.GET("/participants/:id/conversations", cfg.ConversationHandler.ListForParticipant)

		api.GET("/catalog", cfg.CatalogHandler.Hierarchy)
		api.POST("/catalog/reload", cfg.CatalogHandler.Reload)
	}

	return router
}

func metricsMiddleware(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.ApiInflightInc()
		start := time.Now()
		c.Next()
		m.ApiInflightDec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
