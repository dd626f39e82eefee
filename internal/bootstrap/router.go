package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/registro-museografico/museum-registry/internal/api/http"
	"github.com/registro-museografico/museum-registry/internal/api/http/middleware"
	"github.com/registro-museografico/museum-registry/internal/catalog"
	chathttp "github.com/registro-museografico/museum-registry/internal/chat/http"
	registryhttp "github.com/registro-museografico/museum-registry/internal/registry/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	APIKey         string
	Redis          *redis.Client

	Registry *registryhttp.Handler
	Chat     *chathttp.Handler
	Catalog  *catalog.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(dep.AllowedOrigins))
	r.Use(middleware.RequestIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	// marketing pages, the assistant widget and <img> previews
	public := api.Group("")
	dep.Catalog.Register(public)
	dep.Chat.Register(public)
	dep.Registry.RegisterPublic(public)

	dashboard := api.Group("")
	dashboard.Use(middleware.APIKeyMiddleware(dep.APIKey))
	dep.Registry.Register(dashboard)
	dashboard.GET("/metrics", httpapi.Metrics)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-API-Key", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
