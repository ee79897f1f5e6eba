// Package calendar wraps the third-party training-calendar API.
//
// Every operation returns a result value instead of an error for expected
// failure modes: a missing account, a network failure, a non-2xx response or
// a malformed body are all normal outcomes the coordinator records and moves
// past. Go errors would force callers to treat an advisory mirror as a hard
// dependency.
package calendar

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"context"
)

// Outcome classifies how a remote calendar call ended.
type Outcome string

const (
	// OutcomeOK means the remote call succeeded.
	OutcomeOK Outcome = "ok"
	// OutcomeNotConfigured means the athlete has no external account; no
	// network call was attempted. This is a normal case, not an error.
	OutcomeNotConfigured Outcome = "not_configured"
	// OutcomeFailed covers network errors, timeouts, non-2xx responses and
	// malformed bodies, normalized into a reason string.
	OutcomeFailed Outcome = "failed"
)

// CreateResult is the outcome of CreateEvent (and UpdateEvent).
type CreateResult struct {
	Outcome    Outcome
	ExternalID string // Remote event id, set when Outcome == OutcomeOK
	Reason     string // Failure description, set when Outcome == OutcomeFailed
}

// OK reports whether the event was created remotely.
func (r CreateResult) OK() bool { return r.Outcome == OutcomeOK }

// DeleteResult is the outcome of DeleteEvent.
type DeleteResult struct {
	Outcome Outcome
	Reason  string
}

// OK reports whether the event was deleted remotely.
func (r DeleteResult) OK() bool { return r.Outcome == OutcomeOK }

// Event is a remote calendar event, reduced to the fields this service
// mirrors. Date is the calendar date the remote reported, truncated from
// whatever date-time (and zone) the service answered with.
type Event struct {
	ID          string
	Name        string
	Description string
	Date        domain.Date
}

// ListResult is the outcome of ListEvents.
type ListResult struct {
	Outcome Outcome
	Events  []Event
	Reason  string
}

// OK reports whether the listing succeeded.
func (r ListResult) OK() bool { return r.Outcome == OutcomeOK }

// Service is the External Calendar Adapter contract consumed by the
// synchronization coordinator.
type Service interface {
	CreateEvent(ctx context.Context, accountID, name, description string, date domain.Date) CreateResult
	UpdateEvent(ctx context.Context, accountID, externalID, name, description string, date domain.Date) CreateResult
	DeleteEvent(ctx context.Context, accountID, externalID string) DeleteResult
	ListEvents(ctx context.Context, accountID string, start, end domain.Date) ListResult
}
