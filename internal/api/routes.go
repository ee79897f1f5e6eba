package api

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRoutes wires handlers and middleware onto the Gin engine.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	logger zerolog.Logger,
	authService service.AuthService,
	syncService service.SyncService,
	scheduleService service.ScheduleService,
	templateService service.TemplateService,
) {
	authHandler := NewAuthHandler(authService)
	assignmentHandler := NewAssignmentHandler(syncService, scheduleService)
	templateHandler := NewTemplateHandler(templateService)

	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Template catalog (coach only) ---
		templateGroup := protected.Group("/templates")
		templateGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			templateGroup.POST("", templateHandler.CreateTemplate)
			templateGroup.GET("", templateHandler.GetCoachTemplates)
		}

		// --- Assignment scheduling ---
		assignmentGroup := protected.Group("/assignments")
		{
			// Only coaches schedule and unschedule workouts.
			assignmentGroup.POST("", RoleMiddleware(domain.RoleCoach), assignmentHandler.CreateAssignment)
			assignmentGroup.DELETE("/:id", RoleMiddleware(domain.RoleCoach), assignmentHandler.DeleteAssignment)

			// Athletes move their own assignments through the lifecycle;
			// coaches may as well (e.g. cancelling).
			assignmentGroup.PATCH("/:id/status", assignmentHandler.UpdateAssignmentStatus)
		}

		// --- Cached schedule reads ---
		protected.GET("/athletes/:athleteId/assignments", assignmentHandler.ListAthleteAssignments)
	}
}
