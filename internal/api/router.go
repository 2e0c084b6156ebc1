package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/api/admin"
	"github.com/liliang-cn/docflow/internal/api/chat"
	"github.com/liliang-cn/docflow/internal/api/middleware"
	"github.com/liliang-cn/docflow/internal/schema"
	"github.com/liliang-cn/docflow/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey        string
	AllowOrigins  []string
	AllowMethods  []string
	AllowHeaders  []string
	OracleEnabled bool
	DatabasePath  string
	Logger        *zap.Logger
}

// Services groups the services exposed over HTTP
type Services struct {
	Engine    *service.Engine
	Process   *service.ProcessService
	Artifacts *service.ArtifactService
	Admin     *service.AdminService
	Registry  *schema.Registry
}

// SetupRouter sets up the Gin router
func SetupRouter(svc Services, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger.Named("http")))

	// CORS middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: cfg.AllowHeaders,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"config": gin.H{
				"oracle_configured": cfg.OracleEnabled,
				"database_path":     cfg.DatabasePath,
				"document_types":    len(svc.Registry.Schemas()),
			},
		})
	})

	// Conversation API (public)
	chatHandler := chat.NewHandler(svc.Engine, svc.Process, svc.Artifacts, svc.Registry)
	chatHandler.RegisterRoutes(r.Group("/api"))

	// Admin API (requires API key)
	adminHandler := admin.NewHandler(svc.Admin)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.AdminKey(cfg.APIKey, logger.Named("admin")))
	adminHandler.RegisterRoutes(adminGroup)

	return r
}
