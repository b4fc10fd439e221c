package api

import (
	"net/http"
	"time"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

// StatsHandler exposes streak stats and personal records.
type StatsHandler struct {
	streakService service.StreakService
	recordService service.RecordService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(streakService service.StreakService, recordService service.RecordService) *StatsHandler {
	return &StatsHandler{streakService: streakService, recordService: recordService}
}

type StreakResponse struct {
	CurrentStreak   int        `json:"currentStreak"`
	LongestStreak   int        `json:"longestStreak"`
	LastWorkoutDate *time.Time `json:"lastWorkoutDate,omitempty"`
	StreakFrozen    bool       `json:"streakFrozen"`
}

type CheckStreakRequest struct {
	ScheduledDays []int `json:"scheduledDays,omitempty"`
}

func mapStatsToResponse(stats *domain.UserStats) StreakResponse {
	if stats == nil {
		return StreakResponse{}
	}
	return StreakResponse{
		CurrentStreak:   stats.CurrentStreak,
		LongestStreak:   stats.LongestStreak,
		LastWorkoutDate: stats.LastWorkoutDate,
		StreakFrozen:    stats.StreakFrozen,
	}
}

// GetStreak returns the caller's streak stats.
func (h *StatsHandler) GetStreak(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	stats, err := h.streakService.GetStats(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get streak stats")
		return
	}
	c.JSON(http.StatusOK, mapStatsToResponse(stats))
}

// CheckStreak runs the daily streak maintenance check. Idempotent.
func (h *StatsHandler) CheckStreak(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	var req CheckStreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	stats, err := h.streakService.CheckStreakStatus(c.Request.Context(), userID, req.ScheduledDays, time.Now())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to check streak status")
		return
	}
	c.JSON(http.StatusOK, mapStatsToResponse(stats))
}

// GetRecords lists the caller's personal records.
func (h *StatsHandler) GetRecords(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	records, err := h.recordService.GetRecords(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get records")
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetRecordsForExercise lists records for one library exercise.
func (h *StatsHandler) GetRecordsForExercise(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "exerciseId")
	if !ok {
		return
	}

	records, err := h.recordService.GetRecordsForExercise(c.Request.Context(), userID, exerciseID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get records")
		return
	}
	c.JSON(http.StatusOK, records)
}
