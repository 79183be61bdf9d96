package routes

import (
	"github.com/gin-gonic/gin"

	"taskstore/internal/controller"
	"taskstore/internal/middleware"
)

// Router wires the task endpoints. Reads are public; mutations sit behind JWT
// auth when a secret is configured.
func Router(h *controller.Controller, jwtSecret string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())

	router.GET("/health", h.Health)

	router.GET("/tasks", h.List)
	router.GET("/tasks/stats", h.Stats)
	router.GET("/tasks/export", h.Export)

	api := router.Group("")
	if jwtSecret != "" {
		api.Use(middleware.Auth(jwtSecret))
	}
	{
		api.POST("/tasks", h.Create)
		api.POST("/tasks/import", h.Import)
		api.PUT("/tasks/:id", h.Edit)
		api.PATCH("/tasks/:id/toggle", h.Toggle)
		api.DELETE("/tasks/:id", h.Delete)
		api.DELETE("/tasks/completed", h.ClearCompleted)
		api.DELETE("/tasks", h.ClearAll)
	}

	return router
}
