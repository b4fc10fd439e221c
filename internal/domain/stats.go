package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordType classifies a personal record.
type RecordType string

const (
	RecordMaxWeight    RecordType = "maxWeight"
	RecordMaxReps      RecordType = "maxReps"
	RecordMaxVolume    RecordType = "maxVolume"
	RecordEstimated1RM RecordType = "estimated1RM"
	RecordMaxDistance  RecordType = "maxDistance"
	RecordFastestTime  RecordType = "fastestTime"
)

// PersonalRecord is created opportunistically when a completed set beats the
// user's previous best for an exercise. ExerciseID and LoggedSetID are
// non-owning references.
type PersonalRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	LoggedSetID primitive.ObjectID `bson:"loggedSetId" json:"loggedSetId"`
	RecordType  RecordType         `bson:"recordType" json:"recordType"`
	Value       float64            `bson:"value" json:"value"`
	AchievedAt  time.Time          `bson:"achievedAt" json:"achievedAt"`
}

// UserStats is the per-user singleton carrying streak state. It is created
// lazily on first access and updated once per session completion and on
// pause/resume boundaries.
type UserStats struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	CurrentStreak   int                `bson:"currentStreak" json:"currentStreak"`
	LongestStreak   int                `bson:"longestStreak" json:"longestStreak"`
	LastWorkoutDate *time.Time         `bson:"lastWorkoutDate,omitempty" json:"lastWorkoutDate,omitempty"`
	StreakFrozen    bool               `bson:"streakFrozen" json:"streakFrozen"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
