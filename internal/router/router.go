package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/statuscore-dev/statuscore/internal/handlers"
	"github.com/statuscore-dev/statuscore/internal/middleware"
	"github.com/statuscore-dev/statuscore/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		// Public viewer surface: snapshot fetch, push channel, email intake.
		api.GET("/status-pages/:slug/snapshot", handlers.GetSnapshot)
		api.POST("/status-pages/:slug/subscriptions", handlers.Subscribe)
		api.GET("/ws", handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		pages := api.Group("/pages", middleware.AuthMiddleware())
		{
			pages.POST("", handlers.CreateStatusPage)
			pages.GET("", handlers.ListStatusPages)
			pages.PATCH("/:page_id", handlers.UpdateStatusPage)
			pages.DELETE("/:page_id", handlers.DeleteStatusPage)

			// Monitor endpoints
			pages.POST("/:page_id/monitors", handlers.CreateMonitor)
			pages.GET("/:page_id/monitors", handlers.GetMonitors)
			pages.PUT("/:page_id/monitors/:monitor_id", handlers.UpdateMonitor)
			pages.GET("/:page_id/monitors/:monitor_id/checks", handlers.GetMonitorChecks)
			pages.DELETE("/:page_id/monitors/:monitor_id", handlers.DeleteMonitor)

			// Incident endpoints
			pages.POST("/:page_id/incidents", handlers.CreateIncident)
			pages.GET("/:page_id/incidents", handlers.ListIncidents)

			// Maintenance endpoints
			pages.POST("/:page_id/maintenance", handlers.CreateMaintenance)
			pages.GET("/:page_id/maintenance", handlers.ListMaintenance)
		}

		incidents := api.Group("/incidents", middleware.AuthMiddleware())
		{
			incidents.PATCH("/:incident_id", handlers.TransitionIncident)
			incidents.POST("/:incident_id/updates", handlers.AppendIncidentUpdate)
		}

		maintenance := api.Group("/maintenance", middleware.AuthMiddleware())
		{
			maintenance.PATCH("/:window_id", handlers.RescheduleMaintenance)
		}
	}

	return r
}
