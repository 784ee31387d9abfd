package handlers

import (
	"observo/internal/broadcast"
	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Hub is the subscriber registry behind /ws.
type Hub interface {
	Register(conn broadcast.Conn) *broadcast.Subscriber
	Unregister(s *broadcast.Subscriber)
	Count() int
}

// ConsumerStatus reports whether the broker consumer loop is active.
type ConsumerStatus interface {
	Running() bool
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      Hub
	consumer ConsumerStatus
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. hub and
// consumer may be nil when the process runs without them.
func NewHandler(services *service.Service, hub Hub, consumer ConsumerStatus, m *metrics.Metrics, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, hub: hub, consumer: consumer, metrics: m, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	router.GET("/health", h.health)
	router.GET("/ws", h.wsConnect)

	h.registerSettingsRoutes(router)

	return router
}

func (h *Handler) registerSettingsRoutes(r *gin.Engine) {
	settings := r.Group("/api/settings")
	{
		settings.GET("", h.getSettings)
		settings.PUT("", h.updateSettings)
		settings.POST("/reset", h.resetSettings)
		settings.GET("/export", h.exportSettings)
		settings.POST("/import", h.importSettings)
		settings.POST("/retention/cleanup", h.retentionCleanup)
		settings.GET("/:section", h.getSection)
		settings.PUT("/:section", h.updateSection)
	}
}
