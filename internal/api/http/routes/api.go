package routes

import (
	"github.com/planmarket/planmarket/internal/storefront"

	"github.com/gin-gonic/gin"
)

type APIDeps struct {
	Products     *storefront.Products
	ClientConfig *storefront.ClientConfig
}

// RegisterAPI mounts the storefront API under /api.
func RegisterAPI(r *gin.Engine, dep APIDeps) {
	api := r.Group("/api")
	if dep.ClientConfig != nil {
		api.GET("/config", dep.ClientConfig.Get)
	}
	if dep.Products != nil {
		dep.Products.RegisterRoutes(api)
		return
	}
	api.GET("/categories", storefront.ListCategories)
}
