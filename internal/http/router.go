package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-catalog/internal/config"
	"github.com/iyhunko/product-catalog/internal/http/controller"
	"github.com/iyhunko/product-catalog/internal/http/middleware"
)

func InitRouter(conf *config.Config, server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery(), middleware.Logger(), middleware.CORS())

	server.GET("/ping", ctr.Ping)
	server.Static("/uploads", conf.Upload.Dir)

	uploads := middleware.Uploads(conf.Upload.Dir, middleware.ImagesField)

	// Product endpoints
	products := server.Group("/products")
	{
		products.POST("", uploads, productCtr.CreateProduct)
		products.GET("", productCtr.ListProducts)
		products.GET("/:id", productCtr.GetProduct)
		products.PUT("/:id", uploads, productCtr.UpdateProduct)
		products.PATCH("/:id", uploads, productCtr.UpdateProduct)
		products.DELETE("/:id", productCtr.DeleteProduct)
		products.GET("/:id/images", productCtr.GetProductImages)
	}

	return server
}
