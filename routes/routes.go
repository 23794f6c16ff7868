package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minihospital/controllers"
	"minihospital/middleware"
	"minihospital/utils"
)

// HealthCheck reports whether the store answers.
type HealthCheck func(c *gin.Context) error

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, h *controllers.Handlers, tokens *utils.TokenIssuer, health HealthCheck) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := health(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes (no authentication required)
	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login)
	}

	// Protected routes (authentication required)
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.POST("/auth/refresh", h.RefreshToken)
		protected.GET("/profile", h.GetUserProfile)
		protected.POST("/profile/change-password", h.ChangePassword)

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.GET("/patients", h.AdminGetPatients)
			admin.POST("/patients", h.CreatePatient)
			admin.PUT("/patients/:id", h.UpdatePatient)
			admin.GET("/patients/:id/original", h.ShowOriginalPatient)
			admin.DELETE("/patients/:id", h.DeletePatient)

			admin.POST("/reverify", h.Reverify)
			admin.POST("/anonymize", h.AnonymizeAll)
			admin.POST("/retention", h.ApplyRetention)
			admin.GET("/export/patients", h.ExportPatients)
			admin.GET("/export/logs", h.ExportLogs)
			admin.GET("/logs", h.GetLogs)
			admin.GET("/stats", h.AdminDashboard)

			admin.GET("/users", h.GetUsers)
			admin.POST("/users", h.CreateUser)
			admin.GET("/users/role/:role", h.GetUsersByRole)
			admin.PUT("/users/:username/role", h.UpdateUserRole)
			admin.DELETE("/users/:username", h.DeleteUser)
		}

		doctor := protected.Group("/doctor")
		doctor.Use(middleware.DoctorAuthMiddleware())
		{
			doctor.GET("/patients", h.DoctorGetPatients)
		}

		reception := protected.Group("/reception")
		reception.Use(middleware.ReceptionistAuthMiddleware())
		{
			reception.POST("/patients", h.CreatePatient)
			reception.GET("/patients/:id", h.ReceptionGetPatient)
			reception.PUT("/patients/:id", h.UpdatePatient)
		}
	}
}
