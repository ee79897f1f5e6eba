package api

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentHandler serves the assignment mutation and read endpoints.
// Mutations go through the synchronization coordinator; reads go through the
// cached schedule service. After every successful mutation the handler
// invalidates the read cache — the cache itself never watches writes.
type AssignmentHandler struct {
	syncService     service.SyncService
	scheduleService service.ScheduleService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(syncService service.SyncService, scheduleService service.ScheduleService) *AssignmentHandler {
	return &AssignmentHandler{
		syncService:     syncService,
		scheduleService: scheduleService,
	}
}

// --- DTOs for API ---

// CreateAssignmentRequest defines the expected JSON for scheduling a workout.
type CreateAssignmentRequest struct {
	WorkoutTemplateID   string  `json:"workoutTemplateId" binding:"required"`
	AssignedToUserID    string  `json:"assignedToUserId" binding:"required"`
	ScheduledDate       string  `json:"scheduledDate" binding:"required"` // "YYYY-MM-DD"
	Priority            string  `json:"priority" binding:"omitempty,oneof=low normal high"`
	IntensityAdjustment float64 `json:"intensityAdjustment" binding:"omitempty"`
	DurationAdjustment  float64 `json:"durationAdjustment" binding:"omitempty"`
	Notes               string  `json:"notes" binding:"omitempty"`
}

// UpdateStatusRequest defines the expected JSON for a lifecycle transition.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"omitempty"`
}

// SyncOutcomeResponse tells the caller whether, and why (not), the remote
// mirror succeeded.
type SyncOutcomeResponse struct {
	Status     string `json:"status"`
	ExternalID string `json:"externalId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// AssignmentResponse is the DTO for returning assignment details.
type AssignmentResponse struct {
	ID                  string              `json:"id"`
	WorkoutTemplateID   string              `json:"workoutTemplateId"`
	AssignedToUserID    string              `json:"assignedToUserId"`
	AssignedByUserID    string              `json:"assignedByUserId"`
	ScheduledDate       string              `json:"scheduledDate"`
	Status              string              `json:"status"`
	Priority            string              `json:"priority"`
	IntensityAdjustment float64             `json:"intensityAdjustment,omitempty"`
	DurationAdjustment  float64             `json:"durationAdjustment,omitempty"`
	Notes               string              `json:"notes,omitempty"`
	Sync                SyncOutcomeResponse `json:"sync"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// CreateAssignmentResponse pairs the new assignment with its sync outcome.
type CreateAssignmentResponse struct {
	Assignment  AssignmentResponse  `json:"assignment"`
	SyncOutcome SyncOutcomeResponse `json:"syncOutcome"`
}

// RemoteOutcomeResponse describes the remote-deletion side of an unassign.
type RemoteOutcomeResponse struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
}

// UnassignResponse reports the local deletion and the remote outcome.
type UnassignResponse struct {
	Deleted bool                   `json:"deleted"`
	Reason  string                 `json:"reason,omitempty"`
	Remote  *RemoteOutcomeResponse `json:"remoteOutcome,omitempty"`
}

// MapAssignmentToResponse converts a domain.WorkoutAssignment to its DTO.
func MapAssignmentToResponse(a *domain.WorkoutAssignment) AssignmentResponse {
	if a == nil {
		return AssignmentResponse{}
	}
	return AssignmentResponse{
		ID:                  a.ID.Hex(),
		WorkoutTemplateID:   a.TemplateID.Hex(),
		AssignedToUserID:    a.AthleteID.Hex(),
		AssignedByUserID:    a.AssignedBy.Hex(),
		ScheduledDate:       a.ScheduledDate.String(),
		Status:              string(a.Status),
		Priority:            string(a.Priority),
		IntensityAdjustment: a.IntensityAdjustment,
		DurationAdjustment:  a.DurationAdjustment,
		Notes:               a.Notes,
		Sync: SyncOutcomeResponse{
			Status:     string(a.Sync.Status),
			ExternalID: a.Sync.ExternalID,
			Reason:     a.Sync.Reason,
		},
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// MapAssignmentsToResponse converts a slice of assignments to DTOs.
func MapAssignmentsToResponse(assignments []domain.WorkoutAssignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		responses[i] = MapAssignmentToResponse(&assignments[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateAssignment schedules a workout for an athlete and reports the sync
// outcome alongside the created row. A failed remote mirror is still a 201:
// the schedule entry exists locally and the response says why the mirror
// did not.
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}
	coachID, err := primitive.ObjectIDFromHex(coachIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format in token.")
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.WorkoutTemplateID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout template ID format.")
		return
	}
	athleteID, err := primitive.ObjectIDFromHex(req.AssignedToUserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athlete ID format.")
		return
	}
	scheduledDate, err := domain.ParseDate(req.ScheduledDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.syncService.AssignWorkout(c.Request.Context(), service.AssignWorkoutInput{
		TemplateID:          templateID,
		AthleteID:           athleteID,
		CoachID:             coachID,
		Date:                scheduledDate,
		Priority:            domain.Priority(req.Priority),
		IntensityAdjustment: req.IntensityAdjustment,
		DurationAdjustment:  req.DurationAdjustment,
		Notes:               req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidationFailed), errors.Is(err, service.ErrNotAnAthlete):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTemplateNotFound), errors.Is(err, service.ErrAthleteNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create assignment.")
		}
		return
	}

	h.scheduleService.InvalidateCache()

	c.JSON(http.StatusCreated, CreateAssignmentResponse{
		Assignment: MapAssignmentToResponse(result.Assignment),
		SyncOutcome: SyncOutcomeResponse{
			Status:     string(result.Sync.Status),
			ExternalID: result.Sync.ExternalID,
			Reason:     result.Sync.Reason,
		},
	})
}

// DeleteAssignment removes an assignment. The second delete of the same id
// answers deleted=false rather than an error.
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assignment ID format.")
		return
	}

	result, err := h.syncService.UnassignWorkout(c.Request.Context(), assignmentID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete assignment.")
		return
	}

	if result.Deleted {
		h.scheduleService.InvalidateCache()
	}

	resp := UnassignResponse{Deleted: result.Deleted, Reason: result.Reason}
	if result.Remote != nil {
		resp.Remote = &RemoteOutcomeResponse{
			Attempted: result.Remote.Attempted,
			OK:        result.Remote.OK,
			Reason:    result.Remote.Reason,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListAthleteAssignments returns an athlete's assignments for an inclusive
// date range, served through the read cache.
func (h *AssignmentHandler) ListAthleteAssignments(c *gin.Context) {
	athleteID, err := primitive.ObjectIDFromHex(c.Param("athleteId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athlete ID format.")
		return
	}

	// Athletes may only read their own schedule; coaches may read any.
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	if roleRaw, _ := c.Get(ContextUserRoleKey); roleRaw == domain.RoleAthlete && userIDStr != athleteID.Hex() {
		abortWithError(c, http.StatusForbidden, "Athletes may only view their own schedule.")
		return
	}

	start, err := domain.ParseDate(c.Query("start"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid start date: "+err.Error())
		return
	}
	end, err := domain.ParseDate(c.Query("end"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid end date: "+err.Error())
		return
	}

	assignments, err := h.scheduleService.ListForAthlete(c.Request.Context(), athleteID, start, end)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve assignments.")
		return
	}

	c.JSON(http.StatusOK, MapAssignmentsToResponse(assignments))
}

// UpdateAssignmentStatus moves an assignment through its lifecycle.
func (h *AssignmentHandler) UpdateAssignmentStatus(c *gin.Context) {
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assignment ID format.")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	updated, err := h.scheduleService.UpdateStatus(c.Request.Context(), assignmentID, domain.AssignmentStatus(req.Status), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAssignmentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidStatusChange):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update assignment status.")
		}
		return
	}

	h.scheduleService.InvalidateCache()

	c.JSON(http.StatusOK, MapAssignmentToResponse(updated))
}
