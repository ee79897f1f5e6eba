package service

import (
	"alcyxob/fitness-scheduler/internal/cache"
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidStatusChange = errors.New("invalid status change")
)

// ScheduleService serves the read and status-update paths of the schedule.
// List reads go through the TTL cache; the cache is never consulted or
// refreshed by mutations — callers invalidate it explicitly afterwards.
type ScheduleService interface {
	ListForAthlete(ctx context.Context, athleteID primitive.ObjectID, start, end domain.Date) ([]domain.WorkoutAssignment, error)
	GetAssignment(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, next domain.AssignmentStatus, notes string) (*domain.WorkoutAssignment, error)
	// InvalidateCache drops every cached list. Mutating handlers call this
	// after a successful write.
	InvalidateCache()
}

// scheduleService implements the ScheduleService interface.
type scheduleService struct {
	assignmentRepo repository.AssignmentRepository
	listCache      *cache.Cache[[]domain.WorkoutAssignment]
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(assignmentRepo repository.AssignmentRepository, listCache *cache.Cache[[]domain.WorkoutAssignment]) ScheduleService {
	return &scheduleService{
		assignmentRepo: assignmentRepo,
		listCache:      listCache,
	}
}

// dateRangeFilter is the serialized filter part of a list cache key.
type dateRangeFilter struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ListForAthlete returns the athlete's assignments in an inclusive date
// range, served from the cache when a fresh entry exists.
func (s *scheduleService) ListForAthlete(ctx context.Context, athleteID primitive.ObjectID, start, end domain.Date) ([]domain.WorkoutAssignment, error) {
	if athleteID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: athlete id is required", ErrValidationFailed)
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrValidationFailed)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date is after end date", ErrValidationFailed)
	}

	key := cache.Key("GET", "/athletes/"+athleteID.Hex()+"/assignments", dateRangeFilter{
		Start: start.String(),
		End:   end.String(),
	})
	return s.listCache.Get(ctx, key, func(ctx context.Context) ([]domain.WorkoutAssignment, error) {
		return s.assignmentRepo.ListByAthleteAndRange(ctx, athleteID, start, end)
	})
}

// GetAssignment retrieves a single assignment, bypassing the cache.
func (s *scheduleService) GetAssignment(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

// UpdateStatus moves an assignment through its lifecycle. Sync state never
// gates this: an assignment whose mirror failed still completes normally.
func (s *scheduleService) UpdateStatus(ctx context.Context, id primitive.ObjectID, next domain.AssignmentStatus, notes string) (*domain.WorkoutAssignment, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, next)
	}

	updated, err := s.assignmentRepo.UpdateStatus(ctx, id, next, notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrAssignmentNotFound
		case errors.Is(err, repository.ErrInvalidTransition):
			return nil, fmt.Errorf("%w: cannot move to %q", ErrInvalidStatusChange, next)
		}
		return nil, err
	}
	return updated, nil
}

// InvalidateCache drops all cached list results.
func (s *scheduleService) InvalidateCache() {
	s.listCache.InvalidateAll()
}
