package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus is the lifecycle state of a WorkoutSession.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "inProgress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// WorkoutSession is the mutable, per-occurrence copy of a workout created
// when the user starts training. Its ExerciseGroup subtree is copied from the
// originating template (never shared); TemplateID and ProgramDayID are
// non-owning back references.
type WorkoutSession struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"userId" json:"userId"`
	TemplateID   *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"`
	ProgramDayID *primitive.ObjectID `bson:"programDayId,omitempty" json:"programDayId,omitempty"`
	StartTime    time.Time           `bson:"startTime" json:"startTime"`
	EndTime      *time.Time          `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Status       SessionStatus       `bson:"status" json:"status"`
	Rating       *int                `bson:"rating,omitempty" json:"rating,omitempty"`
	WasSkipped   bool                `bson:"wasSkipped,omitempty" json:"wasSkipped,omitempty"`
}

// LoggedSet is one performed (or to-be-performed) set inside a session
// exercise. It mirrors SetTemplate's planned fields and adds actuals plus
// completion state. PreviousReps/PreviousWeight carry the figures from the
// most recent completed session of the same template, when one exists.
type LoggedSet struct {
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

	ActualReps     *int     `bson:"actualReps,omitempty" json:"actualReps,omitempty"`
	ActualWeight   *float64 `bson:"actualWeight,omitempty" json:"actualWeight,omitempty"`
	ActualDistance *float64 `bson:"actualDistance,omitempty" json:"actualDistance,omitempty"`
	ActualSeconds  *int     `bson:"actualSeconds,omitempty" json:"actualSeconds,omitempty"`
	ActualRPE      *float64 `bson:"actualRpe,omitempty" json:"actualRpe,omitempty"`

	PreviousReps   *int     `bson:"previousReps,omitempty" json:"previousReps,omitempty"`
	PreviousWeight *float64 `bson:"previousWeight,omitempty" json:"previousWeight,omitempty"`

	IsCompleted bool       `bson:"isCompleted" json:"isCompleted"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// sideRank orders sides as left < right < unspecified.
func sideRank(s *Side) int {
	if s == nil {
		return 2
	}
	if *s == SideLeft {
		return 0
	}
	return 1
}

// SortLoggedSets sorts sets in place by setNumber ascending, then side with
// left < right < unspecified. The sort is stable; addSet's "later incomplete
// sets" computation and display logic both rely on this ordering.
func SortLoggedSets(sets []LoggedSet) {
	sort.SliceStable(sets, func(i, j int) bool {
		if sets[i].SetNumber != sets[j].SetNumber {
			return sets[i].SetNumber < sets[j].SetNumber
		}
		return sideRank(sets[i].Side) < sideRank(sets[j].Side)
	})
}

// SortSetTemplates applies the same (setNumber, side) ordering to planned sets.
func SortSetTemplates(sets []SetTemplate) {
	sort.SliceStable(sets, func(i, j int) bool {
		if sets[i].SetNumber != sets[j].SetNumber {
			return sets[i].SetNumber < sets[j].SetNumber
		}
		return sideRank(sets[i].Side) < sideRank(sets[j].Side)
	})
}

// RestTimer is the ephemeral countdown started when a set is completed. It is
// never persisted; the remaining time is derived from the wall clock, so it
// can be polled at any cadence without coordination. Starting a new timer
// replaces the previous one; there is no queue.
type RestTimer struct {
	TotalSeconds int       `json:"totalSeconds"`
	StartedAt    time.Time `json:"startedAt"`
}

// RemainingSeconds returns the seconds left on the timer, clamped at zero.
func (t *RestTimer) RemainingSeconds() int {
	return t.remainingAt(time.Now())
}

// IsComplete reports whether the countdown reached zero.
func (t *RestTimer) IsComplete() bool {
	return t.RemainingSeconds() == 0
}

func (t *RestTimer) remainingAt(now time.Time) int {
	elapsed := int(now.Sub(t.StartedAt).Seconds())
	if remaining := t.TotalSeconds - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}
