package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for the assignment lifecycle.
type AssignmentStatus string

const (
	StatusAssigned   AssignmentStatus = "assigned"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusCompleted  AssignmentStatus = "completed" // Terminal
	StatusSkipped    AssignmentStatus = "skipped"   // Terminal
	StatusCancelled  AssignmentStatus = "cancelled" // Terminal, reachable from any non-terminal state
)

// statusTransitions maps each status to the statuses it may move to.
// Terminal statuses have no entries.
var statusTransitions = map[AssignmentStatus][]AssignmentStatus{
	StatusAssigned:   {StatusInProgress, StatusSkipped, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// IsValid reports whether s is a known assignment status.
func (s AssignmentStatus) IsValid() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusSkipped, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
func (s AssignmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which next is reachable.
// The Mongo repository uses this to guard status updates atomically.
func TransitionSources(next AssignmentStatus) []AssignmentStatus {
	var sources []AssignmentStatus
	for from, targets := range statusTransitions {
		for _, target := range targets {
			if target == next {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// Priority of an assignment within a day's schedule.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// SyncStatus classifies the state of the remote calendar mirror for one
// assignment. It is advisory metadata: it never blocks mutation of the
// assignment's own lifecycle status.
type SyncStatus string

const (
	SyncPending       SyncStatus = "pending"
	SyncNotConfigured SyncStatus = "not_configured" // Athlete has no external calendar account
	SyncSynced        SyncStatus = "synced"
	SyncFailed        SyncStatus = "sync_failed"
	SyncDeleteFailed  SyncStatus = "delete_failed"
)

// SyncState is embedded in an assignment row, not a separate document.
type SyncState struct {
	Status     SyncStatus `bson:"status" json:"status"`
	ExternalID string     `bson:"externalId,omitempty" json:"externalId,omitempty"` // Set only when Status == synced
	Reason     string     `bson:"reason,omitempty" json:"reason,omitempty"`         // Set only for the *_failed states
}

// SyncStatePending is the initial state before the mirror attempt.
func SyncStatePending() SyncState { return SyncState{Status: SyncPending} }

// SyncStateNotConfigured marks an athlete without an external account.
func SyncStateNotConfigured() SyncState { return SyncState{Status: SyncNotConfigured} }

// SyncStateSynced records a successful mirror with its remote event id.
func SyncStateSynced(externalID string) SyncState {
	return SyncState{Status: SyncSynced, ExternalID: externalID}
}

// SyncStateFailed records a failed mirror attempt with its reason.
func SyncStateFailed(reason string) SyncState {
	return SyncState{Status: SyncFailed, Reason: reason}
}

// SyncStateDeleteFailed records a failed remote deletion with its reason.
func SyncStateDeleteFailed(reason string) SyncState {
	return SyncState{Status: SyncDeleteFailed, Reason: reason}
}

// WorkoutAssignment schedules one workout template for one athlete on one
// calendar date. The local row is always the source of truth for whether the
// assignment exists; the remote calendar event is a best-effort mirror.
type WorkoutAssignment struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TemplateID          primitive.ObjectID `bson:"templateId" json:"templateId"`
	AthleteID           primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	AssignedBy          primitive.ObjectID `bson:"assignedBy" json:"assignedBy"` // Coach who scheduled it
	ScheduledDate       Date               `bson:"scheduledDate" json:"scheduledDate"`
	Status              AssignmentStatus   `bson:"status" json:"status"`
	Priority            Priority           `bson:"priority" json:"priority"`
	IntensityAdjustment float64            `bson:"intensityAdjustment,omitempty" json:"intensityAdjustment,omitempty"`
	DurationAdjustment  float64            `bson:"durationAdjustment,omitempty" json:"durationAdjustment,omitempty"`
	Notes               string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Sync                SyncState          `bson:"sync" json:"sync"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}
