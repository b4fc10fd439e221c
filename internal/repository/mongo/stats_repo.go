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

const statsCollectionName = "user_stats"

// mongoStatsRepository implements repository.StatsRepository
type mongoStatsRepository struct {
	collection *mongo.Collection
}

// NewMongoStatsRepository creates a new user stats repository.
func NewMongoStatsRepository(db *mongo.Database) repository.StatsRepository {
	return &mongoStatsRepository{
		collection: db.Collection(statsCollectionName),
	}
}

// GetOrCreateByUserID returns the user's stats row, inserting a zeroed one on
// first access. One row per user; the unique index backs that up.
func (r *mongoStatsRepository) GetOrCreateByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserStats, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("userId is required")
	}

	var stats domain.UserStats
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&stats)
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	stats = domain.UserStats{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, &stats); err != nil {
		// A concurrent first access may have inserted the row already.
		if mongo.IsDuplicateKeyError(err) {
			if ferr := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&stats); ferr == nil {
				return &stats, nil
			}
		}
		return nil, err
	}
	return &stats, nil
}

// Update persists the streak fields.
func (r *mongoStatsRepository) Update(ctx context.Context, stats *domain.UserStats) error {
	if stats.ID == primitive.NilObjectID {
		return errors.New("stats ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"currentStreak":   stats.CurrentStreak,
			"longestStreak":   stats.LongestStreak,
			"lastWorkoutDate": stats.LastWorkoutDate,
			"streakFrozen":    stats.StreakFrozen,
			"updatedAt":       time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": stats.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureStatsIndexes creates necessary indexes. Call during startup.
func EnsureStatsIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
