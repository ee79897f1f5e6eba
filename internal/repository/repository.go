package repository

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound          = RepositoryError("not found")
	ErrConflict          = RepositoryError("conflict")
	ErrInvalidTransition = RepositoryError("invalid status transition")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// AssignmentRepository is the canonical Assignment Store. Local rows are the
// source of truth for an assignment's existence; sync state is advisory
// metadata mirrored alongside.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error)
	// ListByAthleteAndRange returns the athlete's assignments with
	// start <= scheduledDate <= end, compared as calendar dates.
	ListByAthleteAndRange(ctx context.Context, athleteID primitive.ObjectID, start, end domain.Date) ([]domain.WorkoutAssignment, error)
	// UpdateStatus applies a lifecycle transition atomically and returns the
	// updated row. ErrInvalidTransition when the current status does not
	// allow the move, ErrNotFound when the row is absent.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, next domain.AssignmentStatus, notes string) (*domain.WorkoutAssignment, error)
	UpdateSyncState(ctx context.Context, id primitive.ObjectID, state domain.SyncState) error
	// Delete removes the row and reports whether it existed. Deleting an
	// absent row is not an error.
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// UserRepository is the athlete/coach directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// WorkoutTemplateRepository is the workout template catalog.
type WorkoutTemplateRepository interface {
	Create(ctx context.Context, template *domain.WorkoutTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	ListByCreator(ctx context.Context, coachID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
}
