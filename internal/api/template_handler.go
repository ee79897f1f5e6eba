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

// TemplateHandler serves the workout template catalog endpoints.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// CreateTemplateRequest defines the expected JSON for creating a template.
type CreateTemplateRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description" binding:"omitempty"`
	DurationMinutes int    `json:"durationMinutes" binding:"omitempty,min=0"`
}

// TemplateResponse is the DTO for returning template details.
type TemplateResponse struct {
	ID              string    `json:"id"`
	CreatedBy       string    `json:"createdBy"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MapTemplateToResponse converts a domain.WorkoutTemplate to its DTO.
func MapTemplateToResponse(t *domain.WorkoutTemplate) TemplateResponse {
	if t == nil {
		return TemplateResponse{}
	}
	return TemplateResponse{
		ID:              t.ID.Hex(),
		CreatedBy:       t.CreatedBy.Hex(),
		Name:            t.Name,
		Description:     t.Description,
		DurationMinutes: t.DurationMinutes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// CreateTemplate creates a workout template for the authenticated coach.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
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

	template, err := h.templateService.CreateTemplate(c.Request.Context(), coachID, req.Name, req.Description, req.DurationMinutes)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create template.")
		return
	}

	c.JSON(http.StatusCreated, MapTemplateToResponse(template))
}

// GetCoachTemplates lists the authenticated coach's templates.
func (h *TemplateHandler) GetCoachTemplates(c *gin.Context) {
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

	templates, err := h.templateService.ListByCoach(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve templates.")
		return
	}

	responses := make([]TemplateResponse, len(templates))
	for i := range templates {
		responses[i] = MapTemplateToResponse(&templates[i])
	}
	c.JSON(http.StatusOK, responses)
}
