package mongo

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignmentCollectionName = "workout_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository.
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new assignment store backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment row. The row is created unconditionally and
// independently of any remote mirror; sync state starts as pending unless the
// caller already resolved it.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error) {
	if assignment.TemplateID == primitive.NilObjectID ||
		assignment.AthleteID == primitive.NilObjectID ||
		assignment.AssignedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires templateId, athleteId and assignedBy")
	}
	if assignment.ScheduledDate.IsZero() {
		return primitive.NilObjectID, errors.New("assignment requires a scheduled date")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = domain.StatusAssigned
	}
	if assignment.Priority == "" {
		assignment.Priority = domain.PriorityNormal
	}
	if assignment.Sync.Status == "" {
		assignment.Sync = domain.SyncStatePending()
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}

	return insertedID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	var assignment domain.WorkoutAssignment
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// ListByAthleteAndRange retrieves an athlete's assignments inside an
// inclusive date range. Dates are stored as "YYYY-MM-DD" strings, so the
// range filter is a plain lexicographic comparison with no timezone math.
func (r *mongoAssignmentRepository) ListByAthleteAndRange(ctx context.Context, athleteID primitive.ObjectID, start, end domain.Date) ([]domain.WorkoutAssignment, error) {
	var assignments []domain.WorkoutAssignment
	filter := bson.M{
		"athleteId": athleteID,
		"scheduledDate": bson.M{
			"$gte": start.String(),
			"$lte": end.String(),
		},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}, {Key: "priority", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// UpdateStatus applies a lifecycle transition. The filter restricts the match
// to rows whose current status legally precedes next, so the check-and-set is
// a single atomic operation even under concurrent updates to the same row.
func (r *mongoAssignmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, next domain.AssignmentStatus, notes string) (*domain.WorkoutAssignment, error) {
	if !next.IsValid() {
		return nil, repository.ErrInvalidTransition
	}
	sources := domain.TransitionSources(next)
	if len(sources) == 0 {
		// No status may move to next (e.g. back to "assigned").
		return nil, repository.ErrInvalidTransition
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": sources}}
	updateFields := bson.M{
		"status":    next,
		"updatedAt": time.Now().UTC(),
	}
	if notes != "" {
		updateFields["notes"] = notes
	}
	update := bson.M{"$set": updateFields}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.WorkoutAssignment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the row is gone or its current status refuses the
	// transition. A second lookup tells the two apart.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, repository.ErrInvalidTransition
}

// UpdateSyncState replaces the embedded sync state of an assignment.
func (r *mongoAssignmentRepository) UpdateSyncState(ctx context.Context, id primitive.ObjectID, state domain.SyncState) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"sync":      state,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the assignment row. Deleting a row that is already gone
// returns false with no error, which keeps unassign idempotent.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The list-by-range query path
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "assignedBy", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
