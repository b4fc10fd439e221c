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
	phaseCollectionName = "phases"
	weekCollectionName  = "weeks"
	dayCollectionName   = "program_days"
)

// mongoHierarchyRepository implements repository.HierarchyRepository over the
// three hierarchy collections. Documents are stored unsorted; every accessor
// sorts by the order key in the query so stored order can never drift from
// what callers see.
type mongoHierarchyRepository struct {
	phases *mongo.Collection
	weeks  *mongo.Collection
	days   *mongo.Collection
}

// NewMongoHierarchyRepository creates a new hierarchy repository.
func NewMongoHierarchyRepository(db *mongo.Database) repository.HierarchyRepository {
	return &mongoHierarchyRepository{
		phases: db.Collection(phaseCollectionName),
		weeks:  db.Collection(weekCollectionName),
		days:   db.Collection(dayCollectionName),
	}
}

// CreatePhase inserts a new phase under a program.
func (r *mongoHierarchyRepository) CreatePhase(ctx context.Context, phase *domain.Phase) (primitive.ObjectID, error) {
	if phase.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("phase requires programId")
	}
	phase.ID = primitive.NewObjectID()
	phase.CreatedAt = time.Now().UTC()

	result, err := r.phases.InsertOne(ctx, phase)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted phase ID")
	}
	return insertedID, nil
}

// CreateWeek inserts a new week under a phase.
func (r *mongoHierarchyRepository) CreateWeek(ctx context.Context, week *domain.Week) (primitive.ObjectID, error) {
	if week.PhaseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("week requires phaseId")
	}
	week.ID = primitive.NewObjectID()

	result, err := r.weeks.InsertOne(ctx, week)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted week ID")
	}
	return insertedID, nil
}

// CreateDay inserts a new day under a week.
func (r *mongoHierarchyRepository) CreateDay(ctx context.Context, day *domain.ProgramDay) (primitive.ObjectID, error) {
	if day.WeekID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("day requires weekId")
	}
	if day.DayType == "" {
		day.DayType = domain.DayTypeTraining
	}
	day.ID = primitive.NewObjectID()

	result, err := r.days.InsertOne(ctx, day)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted day ID")
	}
	return insertedID, nil
}

// GetPhasesByProgramID returns the phases of a program sorted by order.
func (r *mongoHierarchyRepository) GetPhasesByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.Phase, error) {
	var phases []domain.Phase
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.phases.Find(ctx, bson.M{"programId": programID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// GetWeeksByPhaseID returns the weeks of a phase sorted by week number.
func (r *mongoHierarchyRepository) GetWeeksByPhaseID(ctx context.Context, phaseID primitive.ObjectID) ([]domain.Week, error) {
	var weeks []domain.Week
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})

	cursor, err := r.weeks.Find(ctx, bson.M{"phaseId": phaseID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

// GetDaysByWeekID returns the days of a week sorted by day number.
func (r *mongoHierarchyRepository) GetDaysByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.ProgramDay, error) {
	var days []domain.ProgramDay
	findOptions := options.Find().SetSort(bson.D{{Key: "dayNumber", Value: 1}})

	cursor, err := r.days.Find(ctx, bson.M{"weekId": weekID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// GetPhaseByID retrieves a single phase.
func (r *mongoHierarchyRepository) GetPhaseByID(ctx context.Context, id primitive.ObjectID) (*domain.Phase, error) {
	var phase domain.Phase
	err := r.phases.FindOne(ctx, bson.M{"_id": id}).Decode(&phase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &phase, nil
}

// GetWeekByID retrieves a single week.
func (r *mongoHierarchyRepository) GetWeekByID(ctx context.Context, id primitive.ObjectID) (*domain.Week, error) {
	var week domain.Week
	err := r.weeks.FindOne(ctx, bson.M{"_id": id}).Decode(&week)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &week, nil
}

// GetDayByID retrieves a single program day.
func (r *mongoHierarchyRepository) GetDayByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramDay, error) {
	var day domain.ProgramDay
	err := r.days.FindOne(ctx, bson.M{"_id": id}).Decode(&day)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &day, nil
}

// EnsureHierarchyIndexes creates the parent-id indexes used by every accessor.
func EnsureHierarchyIndexes(ctx context.Context, db *mongo.Database) {
	for collection, key := range map[string]string{
		phaseCollectionName: "programId",
		weekCollectionName:  "phaseId",
		dayCollectionName:   "weekId",
	} {
		indexes := []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: key, Value: 1}},
				Options: options.Index(),
			},
		}
		_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
		if err != nil {
			// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection, err)
		}
	}
}
