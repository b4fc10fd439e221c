package mongo

import (
	"context"
	"errors"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionCollectionName   = "workout_sessions"
	loggedSetCollectionName = "logged_sets"
)

// mongoSessionRepository implements repository.SessionRepository. Groups and
// workout exercises share collections with templates; session queries always
// filter on sessionId.
type mongoSessionRepository struct {
	sessions   *mongo.Collection
	groups     *mongo.Collection
	exercises  *mongo.Collection
	loggedSets *mongo.Collection
}

// NewMongoSessionRepository creates a new workout session repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		sessions:   db.Collection(sessionCollectionName),
		groups:     db.Collection(groupCollectionName),
		exercises:  db.Collection(workoutExerciseCollectionName),
		loggedSets: db.Collection(loggedSetCollectionName),
	}
}

// Create inserts a new workout session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires userId")
	}
	session.ID = primitive.NewObjectID()

	result, err := r.sessions.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByUserID retrieves a user's sessions, newest first.
func (r *mongoSessionRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error) {
	var sessions []domain.WorkoutSession
	findOptions := options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}})
	if limit > 0 {
		findOptions = findOptions.SetLimit(limit)
	}

	cursor, err := r.sessions.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetLatestCompletedByTemplateID retrieves the most recent completed session
// materialized from the given template. Used to back-fill previous
// performance values on session start.
func (r *mongoSessionRepository) GetLatestCompletedByTemplateID(ctx context.Context, userID, templateID primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	filter := bson.M{
		"userId":     userID,
		"templateId": templateID,
		"status":     domain.SessionCompleted,
	}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "startTime", Value: -1}})

	err := r.sessions.FindOne(ctx, filter, findOptions).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Update persists the mutable session fields.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.WorkoutSession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"endTime":    session.EndTime,
			"status":     session.Status,
			"rating":     session.Rating,
			"wasSkipped": session.WasSkipped,
		},
	}

	result, err := r.sessions.UpdateOne(ctx, bson.M{"_id": session.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a session and its whole owned subtree (groups, exercises,
// logged sets). Explicit recursive delete, children first.
func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	groupIDs, err := collectIDs(ctx, r.groups, bson.M{"sessionId": id})
	if err != nil {
		return err
	}
	exerciseIDs, err := collectIDs(ctx, r.exercises, bson.M{"groupId": bson.M{"$in": groupIDs}})
	if err != nil {
		return err
	}

	if _, err := r.loggedSets.DeleteMany(ctx, bson.M{"workoutExerciseId": bson.M{"$in": exerciseIDs}}); err != nil {
		return err
	}
	if _, err := r.exercises.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": exerciseIDs}}); err != nil {
		return err
	}
	if _, err := r.groups.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": groupIDs}}); err != nil {
		return err
	}

	result, err := r.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateGroup inserts a new exercise group owned by a session.
func (r *mongoSessionRepository) CreateGroup(ctx context.Context, group *domain.ExerciseGroup) (primitive.ObjectID, error) {
	if group.SessionID == nil || *group.SessionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session group requires sessionId")
	}
	if group.TemplateID != nil {
		return primitive.NilObjectID, errors.New("group cannot belong to a template and a session")
	}
	group.ID = primitive.NewObjectID()

	result, err := r.groups.InsertOne(ctx, group)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted group ID")
	}
	return insertedID, nil
}

// UpdateGroup persists a group's mutable fields (type, order, name).
func (r *mongoSessionRepository) UpdateGroup(ctx context.Context, group *domain.ExerciseGroup) error {
	if group.ID == primitive.NilObjectID {
		return errors.New("group ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"groupType": group.GroupType,
			"order":     group.Order,
			"name":      group.Name,
		},
	}

	result, err := r.groups.UpdateOne(ctx, bson.M{"_id": group.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteGroup removes a single (expected-empty) group document.
func (r *mongoSessionRepository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.groups.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetGroupByID retrieves a single exercise group.
func (r *mongoSessionRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseGroup, error) {
	var group domain.ExerciseGroup
	err := r.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GetGroupsBySessionID returns a session's groups sorted by order.
func (r *mongoSessionRepository) GetGroupsBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.ExerciseGroup, error) {
	var groups []domain.ExerciseGroup
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.groups.Find(ctx, bson.M{"sessionId": sessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateWorkoutExercise inserts a new exercise into a session group.
func (r *mongoSessionRepository) CreateWorkoutExercise(ctx context.Context, exercise *domain.WorkoutExercise) (primitive.ObjectID, error) {
	if exercise.GroupID == primitive.NilObjectID || exercise.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout exercise requires groupId and exerciseId")
	}
	exercise.ID = primitive.NewObjectID()

	result, err := r.exercises.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout exercise ID")
	}
	return insertedID, nil
}

// UpdateWorkoutExercise persists an exercise's mutable fields (group
// membership, order, notes, rest).
func (r *mongoSessionRepository) UpdateWorkoutExercise(ctx context.Context, exercise *domain.WorkoutExercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("workout exercise ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"groupId":     exercise.GroupID,
			"order":       exercise.Order,
			"isOptional":  exercise.IsOptional,
			"notes":       exercise.Notes,
			"restSeconds": exercise.RestSeconds,
		},
	}

	result, err := r.exercises.UpdateOne(ctx, bson.M{"_id": exercise.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetWorkoutExerciseByID retrieves a single session exercise.
func (r *mongoSessionRepository) GetWorkoutExerciseByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutExercise, error) {
	var exercise domain.WorkoutExercise
	err := r.exercises.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetExercisesByGroupID returns a group's exercises sorted by order.
func (r *mongoSessionRepository) GetExercisesByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	var exercises []domain.WorkoutExercise
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.exercises.Find(ctx, bson.M{"groupId": groupID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// CreateLoggedSet inserts a new logged set.
func (r *mongoSessionRepository) CreateLoggedSet(ctx context.Context, set *domain.LoggedSet) (primitive.ObjectID, error) {
	if set.WorkoutExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("logged set requires workoutExerciseId")
	}
	set.ID = primitive.NewObjectID()

	result, err := r.loggedSets.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted logged set ID")
	}
	return insertedID, nil
}

// UpdateLoggedSet persists a logged set's actuals and completion state.
func (r *mongoSessionRepository) UpdateLoggedSet(ctx context.Context, set *domain.LoggedSet) error {
	if set.ID == primitive.NilObjectID {
		return errors.New("logged set ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"actualReps":     set.ActualReps,
			"actualWeight":   set.ActualWeight,
			"actualDistance": set.ActualDistance,
			"actualSeconds":  set.ActualSeconds,
			"actualRpe":      set.ActualRPE,
			"isCompleted":    set.IsCompleted,
			"completedAt":    set.CompletedAt,
		},
	}

	result, err := r.loggedSets.UpdateOne(ctx, bson.M{"_id": set.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetLoggedSetByID retrieves a single logged set.
func (r *mongoSessionRepository) GetLoggedSetByID(ctx context.Context, id primitive.ObjectID) (*domain.LoggedSet, error) {
	var set domain.LoggedSet
	err := r.loggedSets.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// GetLoggedSetsByExerciseID returns an exercise's logged sets in the canonical
// (setNumber, side) order.
func (r *mongoSessionRepository) GetLoggedSetsByExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error) {
	var sets []domain.LoggedSet
	findOptions := options.Find().SetSort(bson.D{{Key: "setNumber", Value: 1}})

	cursor, err := r.loggedSets.Find(ctx, bson.M{"workoutExerciseId": workoutExerciseID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	domain.SortLoggedSets(sets)
	return sets, nil
}

// EnsureSessionIndexes creates necessary indexes. Call during startup.
func EnsureSessionIndexes(ctx context.Context, db *mongo.Database) {
	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "startTime", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "templateId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := db.Collection(sessionCollectionName).Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", sessionCollectionName, err)
	}

	setIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutExerciseId", Value: 1}, {Key: "setNumber", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := db.Collection(loggedSetCollectionName).Indexes().CreateMany(ctx, setIndexes); err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", loggedSetCollectionName, err)
	}

	groupIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := db.Collection(groupCollectionName).Indexes().CreateMany(ctx, groupIndexes); err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", groupCollectionName, err)
	}
}
