package handlers

import (
	"controlling_pump/internal/logger"
	"controlling_pump/internal/metrics"
	"controlling_pump/internal/service"
	"controlling_pump/internal/telemetry"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services, the websocket hub and logging.
type Handler struct {
	services *service.Service
	hub      *telemetry.Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, hub *telemetry.Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Websocket upgrade on the same port: /api/v1/ws/data, /api/v1/ws/remoteDebugger
		api.GET("/ws/:endpoint", h.wsConnect)

		h.registerPumpRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerPumpRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.getStatus)
	api.GET("/sessions", h.getSessions)

	settings := api.Group("/settings")
	{
		settings.GET("", h.getSettings)
		// Body example: {"min_ambient":38,"ambient_hysteresis":2,"min_water":35,"water_hysteresis":4}
		settings.PUT("", h.putSettings)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
