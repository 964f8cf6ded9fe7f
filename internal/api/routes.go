package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.GET("/properties", handler.GetAllProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.POST("/properties/import", handler.ImportProperties)
		api.GET("/properties/:id/overrides", handler.GetOverrides)
		api.PUT("/properties/:id/overrides", handler.SaveOverrides)

		api.GET("/rents/:postal_code", handler.GetRents)
		api.POST("/rents/refresh", handler.RefreshRents)

		api.POST("/sessions", handler.CreateSession)
		api.GET("/sessions/:id", handler.GetSession)
		api.POST("/sessions/:id/edits", handler.ApplyEdit)
		api.POST("/sessions/:id/undo", handler.Undo)
		api.POST("/sessions/:id/redo", handler.Redo)
		api.POST("/sessions/:id/resync", handler.ResyncUnitMix)
	}
}
