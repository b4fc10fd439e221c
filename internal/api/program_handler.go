package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ProgramHandler holds the program service dependency.
type ProgramHandler struct {
	programService service.ProgramService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- Request/Response Structs ---

type ProgramResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	StartDate         time.Time  `json:"startDate"`
	ScheduledDays     []int      `json:"scheduledDays,omitempty"`
	IsActive          bool       `json:"isActive"`
	PausedUntil       *time.Time `json:"pausedUntil,omitempty"`
	PauseResumeMode   string     `json:"pauseResumeMode,omitempty"`
	CurrentPhaseIndex int        `json:"currentPhaseIndex"`
	CurrentWeekIndex  int        `json:"currentWeekIndex"`
	CurrentDayIndex   int        `json:"currentDayIndex"`
}

type SkipTodayRequest struct {
	DelayDays int `json:"delayDays"`
}

type PauseRequest struct {
	Until time.Time `json:"until" binding:"required"`
	Mode  string    `json:"mode" binding:"omitempty,oneof=continueWhereLeft restartCurrentWeek goBackOneWeek"`
}

type ProgressResponse struct {
	Completion float64 `json:"completion"`
}

// MapProgramToResponse converts a domain Program to its response DTO.
func MapProgramToResponse(program *domain.Program) ProgramResponse {
	if program == nil {
		return ProgramResponse{}
	}
	return ProgramResponse{
		ID:                program.ID.Hex(),
		Name:              program.Name,
		StartDate:         program.StartDate,
		ScheduledDays:     program.ScheduledDays,
		IsActive:          program.IsActive,
		PausedUntil:       program.PausedUntil,
		PauseResumeMode:   string(program.PauseResumeMode),
		CurrentPhaseIndex: program.CurrentPhaseIndex,
		CurrentWeekIndex:  program.CurrentWeekIndex,
		CurrentDayIndex:   program.CurrentDayIndex,
	}
}

// --- Handler Methods ---

// ImportProgram persists a complete program tree in one request.
func (h *ProgramHandler) ImportProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	var req service.ProgramImport
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.ImportProgram(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyProgram), errors.Is(err, service.ErrUnknownExerciseRef):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to import program")
		}
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// ListPrograms returns all of the caller's programs.
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	programs, err := h.programService.GetPrograms(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list programs")
		return
	}

	response := make([]ProgramResponse, 0, len(programs))
	for i := range programs {
		response = append(response, MapProgramToResponse(&programs[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetActiveProgram returns the caller's currently active program.
func (h *ProgramHandler) GetActiveProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	program, err := h.programService.GetActiveProgram(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveProgram) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to get active program")
		}
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// GetProgram returns one program by id.
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	program, err := h.programService.GetProgram(c.Request.Context(), userID, programID)
	if err != nil {
		handleProgramError(c, err, "Failed to get program")
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// ActivateProgram makes the program the caller's single active one.
func (h *ProgramHandler) ActivateProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	program, err := h.programService.ActivateProgram(c.Request.Context(), userID, programID)
	if err != nil {
		handleProgramError(c, err, "Failed to activate program")
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// DeleteProgram removes the program and its entire subtree.
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	if err := h.programService.DeleteProgram(c.Request.Context(), userID, programID); err != nil {
		handleProgramError(c, err, "Failed to delete program")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCurrentDay answers "what is today's workout" for the program.
func (h *ProgramHandler) GetCurrentDay(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	info, err := h.programService.CurrentDay(c.Request.Context(), userID, programID)
	if err != nil {
		handleProgramError(c, err, "Failed to resolve current day")
		return
	}
	c.JSON(http.StatusOK, info)
}

// AdvanceProgram moves the cursor past the current day.
func (h *ProgramHandler) AdvanceProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	program, err := h.programService.Advance(c.Request.Context(), userID, programID)
	if err != nil {
		handleProgramError(c, err, "Failed to advance program")
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// SkipToday pushes the schedule out without touching the cursor.
func (h *ProgramHandler) SkipToday(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	var req SkipTodayRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	program, err := h.programService.SkipToday(c.Request.Context(), userID, programID, req.DelayDays)
	if err != nil {
		handleProgramError(c, err, "Failed to skip today")
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// PauseProgram pauses the program until a date with a chosen resume mode.
func (h *ProgramHandler) PauseProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	var req PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	mode := domain.PauseResumeMode(req.Mode)
	if mode == "" {
		mode = domain.ResumeContinue
	}
	program, err := h.programService.Pause(c.Request.Context(), userID, programID, req.Until, mode)
	if err != nil {
		handleProgramError(c, err, "Failed to pause program")
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// ResumeProgram clears the pause and applies the stored resume mode.
func (h *ProgramHandler) ResumeProgram(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	program, err := h.programService.Resume(c.Request.Context(), userID, programID)
	if err != nil {
		handleProgramError(c, err, "Failed to resume program")
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// GetProgress returns the completion ratio over training days.
func (h *ProgramHandler) GetProgress(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}

	completion, err := h.programService.Progress(c.Request.Context(), userID, programID)
	if err != nil {
		handleProgramError(c, err, "Failed to compute progress")
		return
	}
	c.JSON(http.StatusOK, ProgressResponse{Completion: completion})
}

func handleProgramError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProgramNotOwned):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
