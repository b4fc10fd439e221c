package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ironlog/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler holds the session service dependency.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- Request Structs ---

type StartSessionRequest struct {
	TemplateID   *string `json:"templateId,omitempty"`
	ProgramDayID *string `json:"programDayId,omitempty"`
}

type AddExerciseRequest struct {
	ExerciseID  string `json:"exerciseId" binding:"required"`
	SetCount    int    `json:"setCount"`
	RestSeconds *int   `json:"restSeconds,omitempty"`
}

type PropagateRequest struct {
	Field string  `json:"field" binding:"required,oneof=weight reps time"`
	Value float64 `json:"value" binding:"required"`
}

type CreateSupersetRequest struct {
	GroupIDs []string `json:"groupIds" binding:"required,min=2"`
}

type FinishSessionRequest struct {
	Rating *int `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
}

// --- Handler Methods ---

// StartSession begins a workout, from a template, a program day or empty.
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	templateID, ok := parseOptionalID(c, req.TemplateID, "templateId")
	if !ok {
		return
	}
	programDayID, ok := parseOptionalID(c, req.ProgramDayID, "programDayId")
	if !ok {
		return
	}

	detail, err := h.sessionService.StartSession(c.Request.Context(), userID, templateID, programDayID)
	if err != nil {
		handleSessionError(c, err, "Failed to start session")
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GetSession returns the full session graph.
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}

	detail, err := h.sessionService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleSessionError(c, err, "Failed to get session")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetHistory lists the caller's sessions, newest first.
func (h *SessionHandler) GetHistory(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	sessions, err := h.sessionService.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// AddExercise appends an exercise to a running session.
func (h *SessionHandler) AddExercise(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}

	var req AddExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format")
		return
	}

	group, err := h.sessionService.AddExercise(c.Request.Context(), userID, sessionID, exerciseID, req.SetCount, req.RestSeconds)
	if err != nil {
		handleSessionError(c, err, "Failed to add exercise")
		return
	}
	c.JSON(http.StatusCreated, group)
}

// AddSet appends the next set (or left/right pair) to an exercise.
func (h *SessionHandler) AddSet(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	exerciseID, ok := parseObjectIDParam(c, "workoutExerciseId")
	if !ok {
		return
	}

	sets, err := h.sessionService.AddSet(c.Request.Context(), userID, exerciseID)
	if err != nil {
		handleSessionError(c, err, "Failed to add set")
		return
	}
	c.JSON(http.StatusCreated, sets)
}

// UpdateSet replaces the logged actual values of a set.
func (h *SessionHandler) UpdateSet(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	setID, ok := parseObjectIDParam(c, "setId")
	if !ok {
		return
	}

	var req service.SetUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	set, err := h.sessionService.UpdateSet(c.Request.Context(), userID, setID, req)
	if err != nil {
		handleSessionError(c, err, "Failed to update set")
		return
	}
	c.JSON(http.StatusOK, set)
}

// ToggleCompleted flips a set's completion state.
func (h *SessionHandler) ToggleCompleted(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	setID, ok := parseObjectIDParam(c, "setId")
	if !ok {
		return
	}

	result, err := h.sessionService.ToggleCompleted(c.Request.Context(), userID, setID)
	if err != nil {
		handleSessionError(c, err, "Failed to toggle set")
		return
	}
	c.JSON(http.StatusOK, result)
}

// PropagateValue copies a first-set value into later incomplete sets.
func (h *SessionHandler) PropagateValue(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	setID, ok := parseObjectIDParam(c, "setId")
	if !ok {
		return
	}

	var req PropagateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	updated, err := h.sessionService.PropagateValue(c.Request.Context(), userID, setID, service.PropagateField(req.Field), req.Value)
	if err != nil {
		handleSessionError(c, err, "Failed to propagate value")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// CreateSuperset merges single groups into one superset group.
func (h *SessionHandler) CreateSuperset(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}

	var req CreateSupersetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	groupIDs := make([]primitive.ObjectID, 0, len(req.GroupIDs))
	for _, raw := range req.GroupIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid group id format")
			return
		}
		groupIDs = append(groupIDs, id)
	}

	group, err := h.sessionService.CreateSuperset(c.Request.Context(), userID, sessionID, groupIDs)
	if err != nil {
		handleSessionError(c, err, "Failed to create superset")
		return
	}
	c.JSON(http.StatusCreated, group)
}

// FinishSession completes the workout.
func (h *SessionHandler) FinishSession(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}

	var req FinishSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	session, err := h.sessionService.Finish(c.Request.Context(), userID, sessionID, req.Rating)
	if err != nil {
		handleSessionError(c, err, "Failed to finish session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// CancelSession discards the workout and its logged data.
func (h *SessionHandler) CancelSession(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}

	if err := h.sessionService.Cancel(c.Request.Context(), userID, sessionID); err != nil {
		handleSessionError(c, err, "Failed to cancel session")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRestTimer returns the session's current rest timer, if any.
func (h *SessionHandler) GetRestTimer(c *gin.Context) {
	if _, ok := getUserObjectID(c); !ok {
		return
	}
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}

	timer := h.sessionService.ActiveRestTimer(sessionID)
	if timer == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":           !timer.IsComplete(),
		"totalSeconds":     timer.TotalSeconds,
		"remainingSeconds": timer.RemainingSeconds(),
		"startedAt":        timer.StartedAt,
	})
}

func parseOptionalID(c *gin.Context, raw *string, name string) (*primitive.ObjectID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return nil, false
	}
	return &id, true
}

func handleSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSetNotFound),
		errors.Is(err, service.ErrWorkoutExerciseMissing),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionNotOwned),
		errors.Is(err, service.ErrTemplateNotOwned):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSessionNotActive),
		errors.Is(err, service.ErrSupersetTooFew),
		errors.Is(err, service.ErrSupersetNotSingle),
		errors.Is(err, service.ErrSupersetWrongSession),
		errors.Is(err, service.ErrSupersetDuplicateGroup),
		errors.Is(err, service.ErrPropagateNotFirstSet):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
