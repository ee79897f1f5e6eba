package service

import (
	"alcyxob/fitness-scheduler/internal/calendar"
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrAthleteNotFound    = errors.New("athlete not found")
	ErrNotAnAthlete       = errors.New("user is not an athlete")
	ErrTemplateNotFound   = errors.New("workout template not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// AssignWorkoutInput carries the parameters of one assign call. Repeated
// calls with identical parameters create distinct assignments; deduplication
// is deliberately not performed here.
type AssignWorkoutInput struct {
	TemplateID          primitive.ObjectID
	AthleteID           primitive.ObjectID
	CoachID             primitive.ObjectID
	Date                domain.Date
	Priority            domain.Priority
	IntensityAdjustment float64
	DurationAdjustment  float64
	Notes               string
}

// SyncOutcome is the caller-visible result of the remote mirror attempt.
type SyncOutcome struct {
	Status     domain.SyncStatus `json:"status"`
	ExternalID string            `json:"externalId,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// AssignmentResult combines the created assignment with its sync outcome.
type AssignmentResult struct {
	Assignment *domain.WorkoutAssignment
	Sync       SyncOutcome
}

// RemoteOutcome describes the remote-deletion side of an unassign call.
type RemoteOutcome struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
}

// UnassignResult reports local deletion plus the remote outcome, if any.
type UnassignResult struct {
	Deleted bool           `json:"deleted"`
	Reason  string         `json:"reason,omitempty"` // Set when Deleted is false
	Remote  *RemoteOutcome `json:"remote,omitempty"`
}

// SyncService is the Synchronization Coordinator. It sequences the dual
// write between the local assignment store and the remote calendar mirror:
// local-then-remote on assign, remote-then-local on unassign. The local
// store is authoritative; the mirror is best effort and its failures are
// reported, never propagated as call failures.
type SyncService interface {
	AssignWorkout(ctx context.Context, input AssignWorkoutInput) (*AssignmentResult, error)
	UnassignWorkout(ctx context.Context, assignmentID primitive.ObjectID) (UnassignResult, error)
}

// syncService implements the SyncService interface.
type syncService struct {
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	templateRepo   repository.WorkoutTemplateRepository
	calendar       calendar.Service
	log            zerolog.Logger
}

// NewSyncService creates a new instance of syncService.
func NewSyncService(
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	templateRepo repository.WorkoutTemplateRepository,
	calendarService calendar.Service,
	logger zerolog.Logger,
) SyncService {
	return &syncService{
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		templateRepo:   templateRepo,
		calendar:       calendarService,
		log:            logger.With().Str("component", "sync").Logger(),
	}
}

// AssignWorkout schedules a workout for an athlete and mirrors it into the
// athlete's external calendar. The local row is written first and must
// succeed; remote failures downgrade to a reported outcome so a flaky
// calendar service can never lose a schedule entry.
func (s *syncService) AssignWorkout(ctx context.Context, input AssignWorkoutInput) (*AssignmentResult, error) {
	// 1. Validate Input
	if input.TemplateID == primitive.NilObjectID || input.AthleteID == primitive.NilObjectID || input.CoachID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: template, athlete and coach ids are required", ErrValidationFailed)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: scheduled date is required", ErrValidationFailed)
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidationFailed, input.Priority)
	}

	// 2. Resolve collaborators: the template supplies the event payload, the
	// athlete directory supplies the external account id.
	template, err := s.templateRepo.GetByID(ctx, input.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	athlete, err := s.userRepo.GetByID(ctx, input.AthleteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	if !athlete.IsAthlete() {
		return nil, ErrNotAnAthlete
	}

	// 3. Create the local row unconditionally. A store failure aborts the
	// whole call; local data integrity never bends to remote concerns.
	assignment := &domain.WorkoutAssignment{
		TemplateID:          input.TemplateID,
		AthleteID:           input.AthleteID,
		AssignedBy:          input.CoachID,
		ScheduledDate:       input.Date,
		Status:              domain.StatusAssigned,
		Priority:            input.Priority,
		IntensityAdjustment: input.IntensityAdjustment,
		DurationAdjustment:  input.DurationAdjustment,
		Notes:               input.Notes,
		Sync:                domain.SyncStatePending(),
	}
	assignmentID, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		return nil, err
	}
	assignment.ID = assignmentID

	// 4. Resolve the sync state. No account means no network call at all.
	var state domain.SyncState
	if !athlete.HasCalendarAccount() {
		state = domain.SyncStateNotConfigured()
	} else {
		result := s.calendar.CreateEvent(ctx, athlete.CalendarAccountID, template.Name, template.Description, input.Date)
		switch result.Outcome {
		case calendar.OutcomeOK:
			state = domain.SyncStateSynced(result.ExternalID)
		case calendar.OutcomeNotConfigured:
			state = domain.SyncStateNotConfigured()
		default:
			state = domain.SyncStateFailed(result.Reason)
			s.log.Warn().
				Str("assignmentId", assignmentID.Hex()).
				Str("reason", result.Reason).
				Msg("remote calendar sync failed; assignment saved locally")
		}
	}

	// 5. Record the outcome on the row. This is a store write, so a failure
	// here does abort, but the created row survives either way.
	if err := s.assignmentRepo.UpdateSyncState(ctx, assignmentID, state); err != nil {
		return nil, err
	}
	assignment.Sync = state

	return &AssignmentResult{
		Assignment: assignment,
		Sync:       SyncOutcome{Status: state.Status, ExternalID: state.ExternalID, Reason: state.Reason},
	}, nil
}

// UnassignWorkout removes an assignment. The remote event is deleted first,
// only because its external id lives on the row about to disappear; the
// local deletion proceeds no matter how the remote call ends. Calling twice
// for the same id is safe: the second call reports Deleted=false.
func (s *syncService) UnassignWorkout(ctx context.Context, assignmentID primitive.ObjectID) (UnassignResult, error) {
	// 1. Load the row; an absent row is a normal idempotent outcome.
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return UnassignResult{Deleted: false, Reason: "not found"}, nil
		}
		return UnassignResult{}, err
	}

	// 2. Attempt the remote deletion while the external id is still known.
	var remote *RemoteOutcome
	if assignment.Sync.Status == domain.SyncSynced && assignment.Sync.ExternalID != "" {
		athlete, err := s.userRepo.GetByID(ctx, assignment.AthleteID)
		switch {
		case err == nil && athlete.HasCalendarAccount():
			result := s.calendar.DeleteEvent(ctx, athlete.CalendarAccountID, assignment.Sync.ExternalID)
			remote = &RemoteOutcome{Attempted: true, OK: result.OK(), Reason: result.Reason}
			if !result.OK() {
				// Best effort: the row is about to go away, but a concurrent
				// reader should see why the mirror drifted.
				if stateErr := s.assignmentRepo.UpdateSyncState(ctx, assignmentID, domain.SyncStateDeleteFailed(result.Reason)); stateErr != nil {
					s.log.Warn().Err(stateErr).Str("assignmentId", assignmentID.Hex()).Msg("could not record delete_failed state")
				}
				s.log.Warn().
					Str("assignmentId", assignmentID.Hex()).
					Str("externalId", assignment.Sync.ExternalID).
					Str("reason", result.Reason).
					Msg("remote calendar event not deleted; local row removed anyway")
			}
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return UnassignResult{}, err
		default:
			// Athlete gone or calendar disconnected since the sync.
			remote = &RemoteOutcome{Attempted: false, Reason: "calendar account no longer resolvable"}
		}
	}

	// 3. Delete the local row regardless of the remote outcome.
	deleted, err := s.assignmentRepo.Delete(ctx, assignmentID)
	if err != nil {
		return UnassignResult{}, err
	}

	result := UnassignResult{Deleted: deleted, Remote: remote}
	if !deleted {
		// Concurrent unassign won the race after our read.
		result.Reason = "not found"
	}
	return result, nil
}
