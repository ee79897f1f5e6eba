package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateService manages the workout template catalog the coordinator
// consumes for remote event payloads.
type TemplateService interface {
	CreateTemplate(ctx context.Context, coachID primitive.ObjectID, name, description string, durationMinutes int) (*domain.WorkoutTemplate, error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
}

type templateService struct {
	templateRepo repository.WorkoutTemplateRepository
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(templateRepo repository.WorkoutTemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func (s *templateService) CreateTemplate(ctx context.Context, coachID primitive.ObjectID, name, description string, durationMinutes int) (*domain.WorkoutTemplate, error) {
	if coachID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: coach id is required", ErrValidationFailed)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidationFailed)
	}
	if durationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration cannot be negative", ErrValidationFailed)
	}

	template := &domain.WorkoutTemplate{
		CreatedBy:       coachID,
		Name:            name,
		Description:     description,
		DurationMinutes: durationMinutes,
	}
	templateID, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}
	template.ID = templateID
	return template, nil
}

func (s *templateService) GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

func (s *templateService) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	if coachID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: coach id is required", ErrValidationFailed)
	}
	return s.templateRepo.ListByCreator(ctx, coachID)
}
