package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/invoicestack/api/handlers"
	"github.com/customeros/invoicestack/api/middleware"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, h *handlers.APIHandlers, apikey string) {
	if h == nil {
		panic("Handlers cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  middleware.APIKeyHeader,
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware(utils.AppSourceApi))
	api.Use(middleware.TracingMiddleware())
	{
		api.POST("/scans", h.Scans.Trigger())

		connections := api.Group("/connections")
		{
			connections.POST("", h.Connections.Connect())
			connections.DELETE("/:userId", h.Connections.Disconnect())
		}

		api.GET("/users/:userId/ledger", h.Ledger.List())
	}
}
