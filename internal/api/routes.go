package api

import (
	"net/http"

	"ironlog/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	exerciseService service.ExerciseService,
	programService service.ProgramService,
	sessionService service.SessionService,
	streakService service.StreakService,
	recordService service.RecordService,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	programHandler := NewProgramHandler(programService)
	sessionHandler := NewSessionHandler(sessionService)
	statsHandler := NewStatsHandler(streakService, recordService)

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
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		// --- Exercise Library ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:exerciseId", exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:exerciseId", exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:exerciseId", exerciseHandler.DeleteExercise)

			exerciseGroup.POST("/:exerciseId/demo/upload-url", exerciseHandler.RequestDemoUpload)
			exerciseGroup.POST("/:exerciseId/demo/confirm", exerciseHandler.ConfirmDemoUpload)
			exerciseGroup.GET("/:exerciseId/demo/download-url", exerciseHandler.GetDemoDownloadURL)

			exerciseGroup.GET("/:exerciseId/records", statsHandler.GetRecordsForExercise)
		}

		// --- Programs & Progress Cursor ---
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("/import", programHandler.ImportProgram)
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/active", programHandler.GetActiveProgram)
			programGroup.GET("/:programId", programHandler.GetProgram)
			programGroup.POST("/:programId/activate", programHandler.ActivateProgram)
			programGroup.DELETE("/:programId", programHandler.DeleteProgram)

			programGroup.GET("/:programId/current-day", programHandler.GetCurrentDay)
			programGroup.POST("/:programId/advance", programHandler.AdvanceProgram)
			programGroup.POST("/:programId/skip", programHandler.SkipToday)
			programGroup.POST("/:programId/pause", programHandler.PauseProgram)
			programGroup.POST("/:programId/resume", programHandler.ResumeProgram)
			programGroup.GET("/:programId/progress", programHandler.GetProgress)
		}

		// --- Workout Sessions ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.POST("", sessionHandler.StartSession)
			sessionGroup.GET("", sessionHandler.GetHistory)
			sessionGroup.GET("/:sessionId", sessionHandler.GetSession)
			sessionGroup.POST("/:sessionId/exercises", sessionHandler.AddExercise)
			sessionGroup.POST("/:sessionId/supersets", sessionHandler.CreateSuperset)
			sessionGroup.POST("/:sessionId/finish", sessionHandler.FinishSession)
			sessionGroup.POST("/:sessionId/cancel", sessionHandler.CancelSession)
			sessionGroup.GET("/:sessionId/rest-timer", sessionHandler.GetRestTimer)
		}

		// --- In-Session Mutations ---
		protected.POST("/workout-exercises/:workoutExerciseId/sets", sessionHandler.AddSet)
		protected.PUT("/sets/:setId", sessionHandler.UpdateSet)
		protected.POST("/sets/:setId/toggle", sessionHandler.ToggleCompleted)
		protected.POST("/sets/:setId/propagate", sessionHandler.PropagateValue)

		// --- Stats ---
		statsGroup := protected.Group("/stats")
		{
			statsGroup.GET("/streak", statsHandler.GetStreak)
			statsGroup.POST("/streak/check", statsHandler.CheckStreak)
			statsGroup.GET("/records", statsHandler.GetRecords)
		}
	}
}
