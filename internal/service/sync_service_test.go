package service

import (
	"alcyxob/fitness-scheduler/internal/calendar"
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Stub collaborators ---

// opLog records the order of side effects across stubs so tests can assert
// the coordinator's write ordering.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

type stubAssignmentRepo struct {
	mu         sync.Mutex
	rows       map[primitive.ObjectID]*domain.WorkoutAssignment
	log        *opLog
	listCalls  int
	syncStates []domain.SyncState // Every state passed to UpdateSyncState, in order
}

func newStubAssignmentRepo(log *opLog) *stubAssignmentRepo {
	return &stubAssignmentRepo{
		rows: make(map[primitive.ObjectID]*domain.WorkoutAssignment),
		log:  log,
	}
}

func (r *stubAssignmentRepo) Create(_ context.Context, a *domain.WorkoutAssignment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = domain.StatusAssigned
	}
	if a.Priority == "" {
		a.Priority = domain.PriorityNormal
	}
	if a.Sync.Status == "" {
		a.Sync = domain.SyncStatePending()
	}
	clone := *a
	r.rows[a.ID] = &clone
	r.log.add("store.create")
	return a.ID, nil
}

func (r *stubAssignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *stubAssignmentRepo) ListByAthleteAndRange(_ context.Context, athleteID primitive.ObjectID, start, end domain.Date) ([]domain.WorkoutAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []domain.WorkoutAssignment
	for _, row := range r.rows {
		if row.AthleteID == athleteID && !row.ScheduledDate.Before(start) && !row.ScheduledDate.After(end) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *stubAssignmentRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, next domain.AssignmentStatus, notes string) (*domain.WorkoutAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !row.Status.CanTransitionTo(next) {
		return nil, repository.ErrInvalidTransition
	}
	row.Status = next
	if notes != "" {
		row.Notes = notes
	}
	row.UpdatedAt = time.Now().UTC()
	clone := *row
	return &clone, nil
}

func (r *stubAssignmentRepo) UpdateSyncState(_ context.Context, id primitive.ObjectID, state domain.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Sync = state
	r.syncStates = append(r.syncStates, state)
	r.log.add("store.syncstate")
	return nil
}

func (r *stubAssignmentRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.rows[id]
	delete(r.rows, id)
	r.log.add("store.delete")
	return existed, nil
}

func (r *stubAssignmentRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = primitive.NewObjectID()
	clone := *u
	r.users[u.ID] = &clone
	return u.ID, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) remove(id primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type stubTemplateRepo struct {
	mu        sync.Mutex
	templates map[primitive.ObjectID]*domain.WorkoutTemplate
}

func newStubTemplateRepo() *stubTemplateRepo {
	return &stubTemplateRepo{templates: make(map[primitive.ObjectID]*domain.WorkoutTemplate)}
}

func (r *stubTemplateRepo) Create(_ context.Context, t *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = primitive.NewObjectID()
	clone := *t
	r.templates[t.ID] = &clone
	return t.ID, nil
}

func (r *stubTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTemplateRepo) ListByCreator(_ context.Context, coachID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WorkoutTemplate
	for _, t := range r.templates {
		if t.CreatedBy == coachID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type stubCalendar struct {
	mu           sync.Mutex
	log          *opLog
	createResult calendar.CreateResult
	deleteResult calendar.DeleteResult
	createCalls  int
	deleteCalls  int

	lastAccountID   string
	lastName        string
	lastDescription string
	lastDate        domain.Date
	lastExternalID  string
}

func (c *stubCalendar) CreateEvent(_ context.Context, accountID, name, description string, date domain.Date) calendar.CreateResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	c.lastAccountID = accountID
	c.lastName = name
	c.lastDescription = description
	c.lastDate = date
	c.log.add("calendar.create")
	return c.createResult
}

func (c *stubCalendar) UpdateEvent(_ context.Context, accountID, externalID, name, description string, date domain.Date) calendar.CreateResult {
	return c.createResult
}

func (c *stubCalendar) DeleteEvent(_ context.Context, accountID, externalID string) calendar.DeleteResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteCalls++
	c.lastAccountID = accountID
	c.lastExternalID = externalID
	c.log.add("calendar.delete")
	return c.deleteResult
}

func (c *stubCalendar) ListEvents(_ context.Context, accountID string, start, end domain.Date) calendar.ListResult {
	return calendar.ListResult{Outcome: calendar.OutcomeOK}
}

// --- Fixture ---

type syncFixture struct {
	repo      *stubAssignmentRepo
	users     *stubUserRepo
	templates *stubTemplateRepo
	cal       *stubCalendar
	svc       SyncService
	log       *opLog

	coachID    primitive.ObjectID
	athleteID  primitive.ObjectID
	templateID primitive.ObjectID
}

func newSyncFixture(t *testing.T, calendarAccountID string) *syncFixture {
	t.Helper()

	log := &opLog{}
	repo := newStubAssignmentRepo(log)
	users := newStubUserRepo()
	templates := newStubTemplateRepo()
	cal := &stubCalendar{
		log:          log,
		createResult: calendar.CreateResult{Outcome: calendar.OutcomeOK, ExternalID: "evt_123"},
		deleteResult: calendar.DeleteResult{Outcome: calendar.OutcomeOK},
	}

	coachID, err := users.Create(context.Background(), &domain.User{
		Email: "coach@example.com", PasswordHash: "x", Name: "Coach", Role: domain.RoleCoach,
	})
	require.NoError(t, err)
	athleteID, err := users.Create(context.Background(), &domain.User{
		Email: "athlete@example.com", PasswordHash: "x", Name: "Athlete",
		Role: domain.RoleAthlete, CalendarAccountID: calendarAccountID,
	})
	require.NoError(t, err)
	templateID, err := templates.Create(context.Background(), &domain.WorkoutTemplate{
		CreatedBy: coachID, Name: "Intervals", Description: "6x800m @ 5k pace", DurationMinutes: 45,
	})
	require.NoError(t, err)

	return &syncFixture{
		repo:       repo,
		users:      users,
		templates:  templates,
		cal:        cal,
		svc:        NewSyncService(repo, users, templates, cal, zerolog.Nop()),
		log:        log,
		coachID:    coachID,
		athleteID:  athleteID,
		templateID: templateID,
	}
}

func (f *syncFixture) assignInput(t *testing.T, date string) AssignWorkoutInput {
	t.Helper()
	d, err := domain.ParseDate(date)
	require.NoError(t, err)
	return AssignWorkoutInput{
		TemplateID: f.templateID,
		AthleteID:  f.athleteID,
		CoachID:    f.coachID,
		Date:       d,
	}
}

// --- AssignWorkout ---

func TestAssignWorkoutCreatesRowAndMirrorsEvent(t *testing.T) {
	f := newSyncFixture(t, "ath_9")

	result, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err)

	require.Equal(t, domain.SyncSynced, result.Sync.Status)
	require.Equal(t, "evt_123", result.Sync.ExternalID)

	// The local row exists and carries the external id.
	stored, err := f.repo.GetByID(context.Background(), result.Assignment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SyncSynced, stored.Sync.Status)
	require.Equal(t, "evt_123", stored.Sync.ExternalID)
	require.Equal(t, domain.StatusAssigned, stored.Status)

	// The remote payload came from the template and the athlete directory.
	require.Equal(t, 1, f.cal.createCalls)
	require.Equal(t, "ath_9", f.cal.lastAccountID)
	require.Equal(t, "Intervals", f.cal.lastName)
	require.Equal(t, "6x800m @ 5k pace", f.cal.lastDescription)
	require.Equal(t, "2025-09-01", f.cal.lastDate.String())

	// Local write strictly precedes the remote call.
	require.Equal(t, []string{"store.create", "calendar.create", "store.syncstate"}, f.log.entries())
}

func TestAssignWorkoutWithoutCalendarAccount(t *testing.T) {
	f := newSyncFixture(t, "")

	result, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err)

	require.Equal(t, domain.SyncNotConfigured, result.Sync.Status)
	require.Empty(t, result.Sync.Reason)
	// Not configured is a normal case: no network call is ever attempted.
	require.Equal(t, 0, f.cal.createCalls)

	stored, err := f.repo.GetByID(context.Background(), result.Assignment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SyncNotConfigured, stored.Sync.Status)
}

func TestAssignWorkoutRemoteFailureKeepsLocalRow(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	f.cal.createResult = calendar.CreateResult{
		Outcome: calendar.OutcomeFailed,
		Reason:  "503 Service Unavailable: upstream unavailable",
	}

	result, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err, "a remote failure must not fail the call")

	require.Equal(t, domain.SyncFailed, result.Sync.Status)
	require.Equal(t, "503 Service Unavailable: upstream unavailable", result.Sync.Reason)

	stored, err := f.repo.GetByID(context.Background(), result.Assignment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SyncFailed, stored.Sync.Status)
	require.Equal(t, "503 Service Unavailable: upstream unavailable", stored.Sync.Reason)
}

func TestAssignWorkoutTemplateMissing(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	input := f.assignInput(t, "2025-09-01")
	input.TemplateID = primitive.NewObjectID()

	_, err := f.svc.AssignWorkout(context.Background(), input)
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.Equal(t, 0, f.repo.rowCount(), "nothing is written before collaborators resolve")
	require.Equal(t, 0, f.cal.createCalls)
}

func TestAssignWorkoutAthleteMissing(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	input := f.assignInput(t, "2025-09-01")
	input.AthleteID = primitive.NewObjectID()

	_, err := f.svc.AssignWorkout(context.Background(), input)
	require.ErrorIs(t, err, ErrAthleteNotFound)
	require.Equal(t, 0, f.repo.rowCount())
}

func TestAssignWorkoutRejectsCoachAsTarget(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	input := f.assignInput(t, "2025-09-01")
	input.AthleteID = f.coachID

	_, err := f.svc.AssignWorkout(context.Background(), input)
	require.ErrorIs(t, err, ErrNotAnAthlete)
}

func TestAssignWorkoutValidation(t *testing.T) {
	f := newSyncFixture(t, "ath_9")

	missingIDs := f.assignInput(t, "2025-09-01")
	missingIDs.AthleteID = primitive.NilObjectID
	_, err := f.svc.AssignWorkout(context.Background(), missingIDs)
	require.ErrorIs(t, err, ErrValidationFailed)

	noDate := f.assignInput(t, "2025-09-01")
	noDate.Date = domain.Date{}
	_, err = f.svc.AssignWorkout(context.Background(), noDate)
	require.ErrorIs(t, err, ErrValidationFailed)

	badPriority := f.assignInput(t, "2025-09-01")
	badPriority.Priority = domain.Priority("urgent")
	_, err = f.svc.AssignWorkout(context.Background(), badPriority)
	require.ErrorIs(t, err, ErrValidationFailed)

	require.Equal(t, 0, f.repo.rowCount())
}

func TestAssignWorkoutDuplicatesAreAllowed(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	input := f.assignInput(t, "2025-09-01")

	first, err := f.svc.AssignWorkout(context.Background(), input)
	require.NoError(t, err)
	second, err := f.svc.AssignWorkout(context.Background(), input)
	require.NoError(t, err)

	// Scheduling the same workout twice is a caller decision, not an error.
	require.NotEqual(t, first.Assignment.ID, second.Assignment.ID)
	require.Equal(t, 2, f.repo.rowCount())
}

// --- UnassignWorkout ---

func TestUnassignWorkoutDeletesRemoteThenLocal(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	created, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err)

	result, err := f.svc.UnassignWorkout(context.Background(), created.Assignment.ID)
	require.NoError(t, err)

	require.True(t, result.Deleted)
	require.NotNil(t, result.Remote)
	require.True(t, result.Remote.Attempted)
	require.True(t, result.Remote.OK)

	require.Equal(t, 1, f.cal.deleteCalls)
	require.Equal(t, "evt_123", f.cal.lastExternalID)
	require.Equal(t, 0, f.repo.rowCount())

	// The remote deletion happens while the row (and its external id) still
	// exists; the local delete follows unconditionally.
	ops := f.log.entries()
	require.Equal(t, []string{"calendar.delete", "store.delete"}, ops[len(ops)-2:])
}

func TestUnassignWorkoutRemoteFailureStillDeletesLocal(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	created, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err)

	f.cal.deleteResult = calendar.DeleteResult{Outcome: calendar.OutcomeFailed, Reason: "request timed out after 10s"}

	result, err := f.svc.UnassignWorkout(context.Background(), created.Assignment.ID)
	require.NoError(t, err)

	require.True(t, result.Deleted, "local deletion never gates on the remote outcome")
	require.NotNil(t, result.Remote)
	require.True(t, result.Remote.Attempted)
	require.False(t, result.Remote.OK)
	require.Equal(t, "request timed out after 10s", result.Remote.Reason)
	require.Equal(t, 0, f.repo.rowCount())

	// The drift was recorded on the row before it went away.
	last := f.repo.syncStates[len(f.repo.syncStates)-1]
	require.Equal(t, domain.SyncDeleteFailed, last.Status)
	require.Equal(t, "request timed out after 10s", last.Reason)
}

func TestUnassignWorkoutIsIdempotent(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	created, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err)

	first, err := f.svc.UnassignWorkout(context.Background(), created.Assignment.ID)
	require.NoError(t, err)
	require.True(t, first.Deleted)

	second, err := f.svc.UnassignWorkout(context.Background(), created.Assignment.ID)
	require.NoError(t, err, "a second unassign is a normal outcome, not an error")
	require.False(t, second.Deleted)
	require.Equal(t, "not found", second.Reason)
	require.Nil(t, second.Remote)

	require.Equal(t, 1, f.cal.deleteCalls, "only the first call reaches the remote service")
}

func TestUnassignWorkoutSkipsRemoteWhenNeverSynced(t *testing.T) {
	f := newSyncFixture(t, "")
	created, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err)
	require.Equal(t, domain.SyncNotConfigured, created.Sync.Status)

	result, err := f.svc.UnassignWorkout(context.Background(), created.Assignment.ID)
	require.NoError(t, err)

	require.True(t, result.Deleted)
	require.Nil(t, result.Remote)
	require.Equal(t, 0, f.cal.deleteCalls)
}

func TestUnassignWorkoutWhenAthleteGone(t *testing.T) {
	f := newSyncFixture(t, "ath_9")
	created, err := f.svc.AssignWorkout(context.Background(), f.assignInput(t, "2025-09-01"))
	require.NoError(t, err)

	f.users.remove(f.athleteID)

	result, err := f.svc.UnassignWorkout(context.Background(), created.Assignment.ID)
	require.NoError(t, err)

	require.True(t, result.Deleted)
	require.NotNil(t, result.Remote)
	require.False(t, result.Remote.Attempted)
	require.Equal(t, 0, f.cal.deleteCalls)
	require.Equal(t, 0, f.repo.rowCount())
}
