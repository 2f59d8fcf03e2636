package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarket/catalog-service/internal/middleware"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"github.com/gomarket/catalog-service/internal/platform/metrics"
)

// NewRouter wires the catalog routes with the standard middleware chain.
// Read endpoints are public; mutations require authentication, product
// mutations additionally the admin role.
func NewRouter(handler *Handler, jwtSecret string, m *metrics.Manager, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Metrics(m),
		middleware.AccessLog(log),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	products := api.Group("/products")
	products.GET("", handler.ListProducts)
	products.GET("/top", handler.TopProducts)
	products.GET("/:id", handler.GetProduct)

	authed := products.Group("")
	authed.Use(middleware.RequireAuth(jwtSecret, log))
	authed.POST("/:id/reviews", handler.CreateReview)

	adminOnly := products.Group("")
	adminOnly.Use(middleware.RequireAuth(jwtSecret, log), middleware.RequireAdmin(log))
	adminOnly.POST("", handler.CreateProduct)
	adminOnly.PUT("/:id", handler.UpdateProduct)
	adminOnly.DELETE("/:id", handler.DeleteProduct)

	return router
}
