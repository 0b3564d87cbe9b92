package bootstrap

import (
	httpapi "github.com/planmarket/planmarket/internal/api/http"
	"github.com/planmarket/planmarket/internal/api/http/middleware"
	"github.com/planmarket/planmarket/internal/api/http/routes"
	"github.com/planmarket/planmarket/internal/storefront"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	BackendURL     string
	AllowedOrigins []string
	Logger         *zap.Logger
	Redis          *redis.Client
	Products       *storefront.Products
	ClientConfig   *storefront.ClientConfig
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(dep.Logger))
	r.Use(middleware.Recovery(dep.Logger))
	r.Use(middleware.CORS(dep.AllowedOrigins))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.BackendURL, dep.Redis)
	healthHandler.RegisterRoutes(r)

	routes.RegisterAPI(r, routes.APIDeps{Products: dep.Products, ClientConfig: dep.ClientConfig})

	return r
}
