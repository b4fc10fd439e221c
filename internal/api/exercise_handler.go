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

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- Request/Response Structs ---

type ExerciseRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	MuscleGroups []string `json:"muscleGroups"`
	Equipment    string   `json:"equipment"`
	Difficulty   string   `json:"difficulty"`
}

type ExerciseResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	MuscleGroups []string  `json:"muscleGroups,omitempty"`
	Equipment    string    `json:"equipment,omitempty"`
	Difficulty   string    `json:"difficulty,omitempty"`
	HasDemoMedia bool      `json:"hasDemoMedia"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type DemoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type DemoUploadConfirmRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// MapExerciseToResponse converts a domain Exercise to its response DTO.
func MapExerciseToResponse(exercise *domain.Exercise) ExerciseResponse {
	if exercise == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:           exercise.ID.Hex(),
		Name:         exercise.Name,
		Description:  exercise.Description,
		MuscleGroups: exercise.MuscleGroups,
		Equipment:    exercise.Equipment,
		Difficulty:   exercise.Difficulty,
		HasDemoMedia: exercise.VideoObjectKey != "",
		CreatedAt:    exercise.CreatedAt,
		UpdatedAt:    exercise.UpdatedAt,
	}
}

// --- Handler Methods ---

// CreateExercise adds a new exercise to the caller's library.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), userID, req.Name, req.Description, req.MuscleGroups, req.Equipment, req.Difficulty)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create exercise")
		}
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// ListExercises returns the caller's exercise library.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	exercises, err := h.exerciseService.GetExercisesByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list exercises")
		return
	}

	response := make([]ExerciseResponse, 0, len(exercises))
	for i := range exercises {
		response = append(response, MapExerciseToResponse(&exercises[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetExercise returns a single exercise by id.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	if _, ok := getUserObjectID(c); !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "exerciseId")
	if !ok {
		return
	}

	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to get exercise")
		}
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// UpdateExercise updates an exercise the caller owns.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "exerciseId")
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), userID, exerciseID, req.Name, req.Description, req.MuscleGroups, req.Equipment, req.Difficulty)
	if err != nil {
		handleExerciseError(c, err, "Failed to update exercise")
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise removes an exercise the caller owns.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "exerciseId")
	if !ok {
		return
	}

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), userID, exerciseID); err != nil {
		handleExerciseError(c, err, "Failed to delete exercise")
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestDemoUpload issues a presigned upload URL for demo media.
func (h *ExerciseHandler) RequestDemoUpload(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "exerciseId")
	if !ok {
		return
	}

	var req DemoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ticket, err := h.exerciseService.RequestDemoUpload(c.Request.Context(), userID, exerciseID, req.ContentType)
	if err != nil {
		handleExerciseError(c, err, "Failed to create upload URL")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// ConfirmDemoUpload stores the uploaded object key on the exercise.
func (h *ExerciseHandler) ConfirmDemoUpload(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "exerciseId")
	if !ok {
		return
	}

	var req DemoUploadConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.ConfirmDemoUpload(c.Request.Context(), userID, exerciseID, req.ObjectKey)
	if err != nil {
		handleExerciseError(c, err, "Failed to confirm upload")
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// GetDemoDownloadURL returns a presigned download URL for the demo media.
func (h *ExerciseHandler) GetDemoDownloadURL(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "exerciseId")
	if !ok {
		return
	}

	url, err := h.exerciseService.GetDemoDownloadURL(c.Request.Context(), userID, exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrNoDemoMedia) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		handleExerciseError(c, err, "Failed to create download URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func handleExerciseError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExerciseAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
