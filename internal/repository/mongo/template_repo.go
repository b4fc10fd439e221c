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

const (
	templateCollectionName        = "workout_templates"
	groupCollectionName           = "exercise_groups"
	workoutExerciseCollectionName = "workout_exercises"
	setTemplateCollectionName     = "set_templates"
)

// mongoTemplateRepository implements repository.TemplateRepository. The group
// and workout-exercise collections are shared with sessions; template queries
// always filter on templateId.
type mongoTemplateRepository struct {
	templates    *mongo.Collection
	groups       *mongo.Collection
	exercises    *mongo.Collection
	setTemplates *mongo.Collection
}

// NewMongoTemplateRepository creates a new workout template repository.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		templates:    db.Collection(templateCollectionName),
		groups:       db.Collection(groupCollectionName),
		exercises:    db.Collection(workoutExerciseCollectionName),
		setTemplates: db.Collection(setTemplateCollectionName),
	}
}

// Create inserts a new workout template.
func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	if template.UserID == primitive.NilObjectID || template.Name == "" {
		return primitive.NilObjectID, errors.New("template requires userId and name")
	}
	template.ID = primitive.NewObjectID()
	template.CreatedAt = time.Now().UTC()

	result, err := r.templates.InsertOne(ctx, template)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted template ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single template by its ID.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	var template domain.WorkoutTemplate
	err := r.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetByProgramDayID retrieves the template owned by a program day. A day owns
// at most one.
func (r *mongoTemplateRepository) GetByProgramDayID(ctx context.Context, programDayID primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	var template domain.WorkoutTemplate
	err := r.templates.FindOne(ctx, bson.M{"programDayId": programDayID}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetByUserID retrieves all templates of a user, newest first.
func (r *mongoTemplateRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	var templates []domain.WorkoutTemplate
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.templates.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// CreateGroup inserts a new exercise group owned by a template.
func (r *mongoTemplateRepository) CreateGroup(ctx context.Context, group *domain.ExerciseGroup) (primitive.ObjectID, error) {
	if group.TemplateID == nil || *group.TemplateID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("template group requires templateId")
	}
	if group.SessionID != nil {
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

// CreateWorkoutExercise inserts a new exercise slot into a template group.
func (r *mongoTemplateRepository) CreateWorkoutExercise(ctx context.Context, exercise *domain.WorkoutExercise) (primitive.ObjectID, error) {
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

// CreateSetTemplate inserts a new planned set.
func (r *mongoTemplateRepository) CreateSetTemplate(ctx context.Context, set *domain.SetTemplate) (primitive.ObjectID, error) {
	if set.WorkoutExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("set template requires workoutExerciseId")
	}
	set.ID = primitive.NewObjectID()

	result, err := r.setTemplates.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted set template ID")
	}
	return insertedID, nil
}

// GetGroupsByTemplateID returns a template's groups sorted by order.
func (r *mongoTemplateRepository) GetGroupsByTemplateID(ctx context.Context, templateID primitive.ObjectID) ([]domain.ExerciseGroup, error) {
	var groups []domain.ExerciseGroup
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.groups.Find(ctx, bson.M{"templateId": templateID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetExercisesByGroupID returns a group's exercises sorted by order.
func (r *mongoTemplateRepository) GetExercisesByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
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

// GetSetTemplatesByExerciseID returns an exercise's planned sets. The mongo
// sort covers setNumber; the caller applies the side tie-break via
// domain.SortSetTemplates.
func (r *mongoTemplateRepository) GetSetTemplatesByExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.SetTemplate, error) {
	var sets []domain.SetTemplate
	findOptions := options.Find().SetSort(bson.D{{Key: "setNumber", Value: 1}})

	cursor, err := r.setTemplates.Find(ctx, bson.M{"workoutExerciseId": workoutExerciseID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	domain.SortSetTemplates(sets)
	return sets, nil
}

// EnsureTemplateIndexes creates necessary indexes. Call during startup.
func EnsureTemplateIndexes(ctx context.Context, db *mongo.Database) {
	for collection, key := range map[string]string{
		templateCollectionName:        "programDayId",
		groupCollectionName:           "templateId",
		workoutExerciseCollectionName: "groupId",
		setTemplateCollectionName:     "workoutExerciseId",
	} {
		indexes := []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: key, Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		}
		_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
		if err != nil {
			// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection, err)
		}
	}
}
