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

const recordCollectionName = "personal_records"

// mongoRecordRepository implements repository.RecordRepository
type mongoRecordRepository struct {
	collection *mongo.Collection
}

// NewMongoRecordRepository creates a new personal record repository.
func NewMongoRecordRepository(db *mongo.Database) repository.RecordRepository {
	return &mongoRecordRepository{
		collection: db.Collection(recordCollectionName),
	}
}

// Create inserts a new personal record.
func (r *mongoRecordRepository) Create(ctx context.Context, record *domain.PersonalRecord) (primitive.ObjectID, error) {
	if record.UserID == primitive.NilObjectID || record.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("record requires userId and exerciseId")
	}
	record.ID = primitive.NewObjectID()
	if record.AchievedAt.IsZero() {
		record.AchievedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted record ID")
	}
	return insertedID, nil
}

// GetBest returns the user's best record of the given type for an exercise.
// For fastestTime the best is the lowest value; for everything else the
// highest.
func (r *mongoRecordRepository) GetBest(ctx context.Context, userID, exerciseID primitive.ObjectID, recordType domain.RecordType) (*domain.PersonalRecord, error) {
	sortDir := -1
	if recordType == domain.RecordFastestTime {
		sortDir = 1
	}

	var record domain.PersonalRecord
	filter := bson.M{
		"userId":     userID,
		"exerciseId": exerciseID,
		"recordType": recordType,
	}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "value", Value: sortDir}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByExerciseID returns all records for one exercise, newest first.
func (r *mongoRecordRepository) GetByExerciseID(ctx context.Context, userID, exerciseID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	var records []domain.PersonalRecord
	filter := bson.M{"userId": userID, "exerciseId": exerciseID}
	findOptions := options.Find().SetSort(bson.D{{Key: "achievedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetByUserID returns all of a user's records, newest first.
func (r *mongoRecordRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	var records []domain.PersonalRecord
	findOptions := options.Find().SetSort(bson.D{{Key: "achievedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureRecordIndexes creates necessary indexes. Call during startup.
func EnsureRecordIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "exerciseId", Value: 1}, {Key: "recordType", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
