package mongo

import (
	"context"
	"errors"
	"time"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const programCollectionName = "programs"

// mongoProgramRepository implements repository.ProgramRepository. It holds the
// whole database handle because Delete walks the owning subtree across the
// hierarchy and template collections.
type mongoProgramRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new program repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		db:         db,
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program root.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.UserID == primitive.NilObjectID || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires userId and name")
	}
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted program ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// GetByUserID retrieves all programs of a user, newest first.
func (r *mongoProgramRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error) {
	var programs []domain.Program
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// GetActiveByUserID retrieves the user's active program, if any.
func (r *mongoProgramRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	filter := bson.M{"userId": userID, "isActive": true}
	err := r.collection.FindOne(ctx, filter).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// Update persists the mutable program fields (cursor, pause state, schedule,
// active flag). Hierarchy children are immutable after import and are not
// touched here.
func (r *mongoProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"name":              program.Name,
			"scheduledDays":     program.ScheduledDays,
			"startDate":         program.StartDate,
			"pausedUntil":       program.PausedUntil,
			"pauseResumeMode":   program.PauseResumeMode,
			"currentPhaseIndex": program.CurrentPhaseIndex,
			"currentWeekIndex":  program.CurrentWeekIndex,
			"currentDayIndex":   program.CurrentDayIndex,
			"isActive":          program.IsActive,
			"updatedAt":         time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": program.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateOthers clears the active flag on every other program of the user.
// Keeps "one active program" without structurally forbidding a second row.
func (r *mongoProgramRepository) DeactivateOthers(ctx context.Context, userID, excludeProgramID primitive.ObjectID) error {
	filter := bson.M{
		"userId":   userID,
		"isActive": true,
		"_id":      bson.M{"$ne": excludeProgramID},
	}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// Delete removes a program and its whole owned subtree: phases, weeks, days,
// templates and the planned group/exercise/set tree under them. The walk is
// explicit; there is no referential cascade in storage.
func (r *mongoProgramRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	// Ownership check first so a wrong user can't delete anything.
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}

	phases := r.db.Collection(phaseCollectionName)
	weeks := r.db.Collection(weekCollectionName)
	days := r.db.Collection(dayCollectionName)

	phaseIDs, err := collectIDs(ctx, phases, bson.M{"programId": id})
	if err != nil {
		return err
	}
	weekIDs, err := collectIDs(ctx, weeks, bson.M{"phaseId": bson.M{"$in": phaseIDs}})
	if err != nil {
		return err
	}
	dayIDs, err := collectIDs(ctx, days, bson.M{"weekId": bson.M{"$in": weekIDs}})
	if err != nil {
		return err
	}

	if err := r.deleteTemplatesForDays(ctx, dayIDs); err != nil {
		return err
	}

	// Children before parents, program root last.
	if _, err := days.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": dayIDs}}); err != nil {
		return err
	}
	if _, err := weeks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": weekIDs}}); err != nil {
		return err
	}
	if _, err := phases.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": phaseIDs}}); err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrDeleteFailed
	}
	return nil
}

// deleteTemplatesForDays removes the templates owned by the given days along
// with their planned group/exercise/set subtree.
func (r *mongoProgramRepository) deleteTemplatesForDays(ctx context.Context, dayIDs []primitive.ObjectID) error {
	templates := r.db.Collection(templateCollectionName)
	groups := r.db.Collection(groupCollectionName)
	workoutExercises := r.db.Collection(workoutExerciseCollectionName)
	setTemplates := r.db.Collection(setTemplateCollectionName)

	templateIDs, err := collectIDs(ctx, templates, bson.M{"programDayId": bson.M{"$in": dayIDs}})
	if err != nil {
		return err
	}
	groupIDs, err := collectIDs(ctx, groups, bson.M{"templateId": bson.M{"$in": templateIDs}})
	if err != nil {
		return err
	}
	exerciseIDs, err := collectIDs(ctx, workoutExercises, bson.M{"groupId": bson.M{"$in": groupIDs}})
	if err != nil {
		return err
	}

	if _, err := setTemplates.DeleteMany(ctx, bson.M{"workoutExerciseId": bson.M{"$in": exerciseIDs}}); err != nil {
		return err
	}
	if _, err := workoutExercises.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": exerciseIDs}}); err != nil {
		return err
	}
	if _, err := groups.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": groupIDs}}); err != nil {
		return err
	}
	if _, err := templates.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": templateIDs}}); err != nil {
		return err
	}
	return nil
}

// collectIDs returns the _id of every document matching filter.
func collectIDs(ctx context.Context, collection *mongo.Collection, filter bson.M) ([]primitive.ObjectID, error) {
	cursor, err := collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
