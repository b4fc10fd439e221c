package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupType describes how the exercises of an ExerciseGroup are performed.
type GroupType string

const (
	GroupSingle   GroupType = "single"
	GroupSuperset GroupType = "superset"
	GroupTriset   GroupType = "triset"
	GroupCircuit  GroupType = "circuit"
	GroupZone     GroupType = "zone"
)

// SetType classifies a set within an exercise.
type SetType string

const (
	SetWarmup    SetType = "warmup"
	SetWorking   SetType = "working"
	SetDropset   SetType = "dropset"
	SetFailure   SetType = "failure"
	SetAmrap     SetType = "amrap"
	SetRestPause SetType = "restPause"
)

// Side marks a set of a unilateral exercise. Absent (nil) means bilateral.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// WorkoutTemplate is the immutable plan for one workout. Once a session has
// been materialized from it, its subtree is never mutated again; sessions
// copy its children, they never reference them.
type WorkoutTemplate struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	ProgramDayID  *primitive.ObjectID `bson:"programDayId,omitempty" json:"programDayId,omitempty"` // set when the template is owned by a plan day
	Name          string              `bson:"name" json:"name"`
	EstimatedMins int                 `bson:"estimatedMins,omitempty" json:"estimatedMins,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// ExerciseGroup is an ordered container of exercises belonging to exactly one
// of a WorkoutTemplate or a WorkoutSession, never both.
type ExerciseGroup struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TemplateID *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"`
	SessionID  *primitive.ObjectID `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	GroupType  GroupType           `bson:"groupType" json:"groupType"`
	Order      int                 `bson:"order" json:"order"` // unique per parent container
	Name       string              `bson:"name,omitempty" json:"name,omitempty"`
}

// WorkoutExercise places a library Exercise inside a group. Inside a template
// it owns SetTemplates; inside a session it owns LoggedSets, never both.
type WorkoutExercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID     primitive.ObjectID `bson:"groupId" json:"groupId"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"` // non-owning ref into the exercise library
	Order       int                `bson:"order" json:"order"`           // unique per group
	IsOptional  bool               `bson:"isOptional,omitempty" json:"isOptional,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	RestSeconds *int               `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"` // nil falls back to the global default
}

// SetTemplate is one planned set of a template exercise.
type SetTemplate struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutExerciseID primitive.ObjectID `bson:"workoutExerciseId" json:"workoutExerciseId"`
	SetNumber         int                `bson:"setNumber" json:"setNumber"`
	SetType           SetType            `bson:"setType" json:"setType"`
	Side              *Side              `bson:"side,omitempty" json:"side,omitempty"`

	TargetReps     *int     `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	TargetWeight   *float64 `bson:"targetWeight,omitempty" json:"targetWeight,omitempty"`
	TargetDistance *float64 `bson:"targetDistance,omitempty" json:"targetDistance,omitempty"`
	TargetSeconds  *int     `bson:"targetSeconds,omitempty" json:"targetSeconds,omitempty"`
	TargetRPE      *float64 `bson:"targetRpe,omitempty" json:"targetRpe,omitempty"`
}
