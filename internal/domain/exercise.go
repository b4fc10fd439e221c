package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a single exercise definition in the library. The session and
// template engines reference exercises read-only; only the library endpoints
// mutate them.
type Exercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"` // Owner of this library entry
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	MuscleGroups []string           `bson:"muscleGroups,omitempty" json:"muscleGroups,omitempty"` // e.g. "Chest", "Legs", "Back"
	Equipment    string             `bson:"equipment,omitempty" json:"equipment,omitempty"`       // e.g. "Barbell", "Dumbbell", "Bodyweight"
	Difficulty   string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`     // e.g. "Novice", "Medium", "Advanced"

	// VideoObjectKey is the S3 key of the demonstration video, set once the
	// upload has been confirmed. Internal use only; clients get presigned URLs.
	VideoObjectKey string `bson:"videoObjectKey,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
