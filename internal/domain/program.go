package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PauseResumeMode controls where the cursor lands when a paused program resumes.
type PauseResumeMode string

const (
	ResumeContinue    PauseResumeMode = "continueWhereLeft"
	ResumeRestartWeek PauseResumeMode = "restartCurrentWeek"
	ResumeBackOneWeek PauseResumeMode = "goBackOneWeek"
)

// DayType classifies a day inside a training week.
type DayType string

const (
	DayTypeTraining       DayType = "training"
	DayTypeRest           DayType = "rest"
	DayTypeActiveRecovery DayType = "activeRecovery"
	DayTypeDeload         DayType = "deload"
)

// Program is the root of a multi-week training plan. The cursor fields
// (CurrentPhaseIndex/CurrentWeekIndex/CurrentDayIndex) index into the
// order-sorted Phase/Week/Day sequences; an index equal to the sequence
// length means the plan is finished, which is a valid terminal state and
// never an error.
type Program struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	StartDate time.Time          `bson:"startDate" json:"startDate"`

	// ScheduledDays holds weekday indices (0=Sunday .. 6=Saturday).
	// Empty means the program is scheduled every day.
	ScheduledDays []int `bson:"scheduledDays,omitempty" json:"scheduledDays,omitempty"`

	PausedUntil     *time.Time      `bson:"pausedUntil,omitempty" json:"pausedUntil,omitempty"`
	PauseResumeMode PauseResumeMode `bson:"pauseResumeMode,omitempty" json:"pauseResumeMode,omitempty"`

	CurrentPhaseIndex int `bson:"currentPhaseIndex" json:"currentPhaseIndex"`
	CurrentWeekIndex  int `bson:"currentWeekIndex" json:"currentWeekIndex"`
	CurrentDayIndex   int `bson:"currentDayIndex" json:"currentDayIndex"`

	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsScheduledOn reports whether the program has a workout scheduled on the
// weekday of t. An empty ScheduledDays set means every day is scheduled.
func (p *Program) IsScheduledOn(t time.Time) bool {
	if len(p.ScheduledDays) == 0 {
		return true
	}
	weekday := int(t.Weekday())
	for _, d := range p.ScheduledDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// NextScheduledDate returns the first date on or after now with a scheduled
// workout. It scans at most seven days, which is exhaustive for valid weekday
// values; entries outside 0..6 never match and are effectively ignored. Nil is
// only possible when ScheduledDays contains no valid weekday index at all.
func (p *Program) NextScheduledDate(now time.Time) *time.Time {
	for i := 0; i < 7; i++ {
		candidate := now.AddDate(0, 0, i)
		if p.IsScheduledOn(candidate) {
			return &candidate
		}
	}
	return nil
}

// IsPaused reports whether the program is paused at instant now.
func (p *Program) IsPaused(now time.Time) bool {
	return p.PausedUntil != nil && p.PausedUntil.After(now)
}

// Phase is an ordered block of weeks inside a Program (e.g. "Hypertrophy").
type Phase struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID primitive.ObjectID `bson:"programId" json:"programId"`
	Name      string             `bson:"name" json:"name"`
	Order     int                `bson:"order" json:"order"` // unique per program, defines the sequence
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Week groups the days of one training week. WeekNumber is a sort key within
// the phase; it need not be contiguous.
type Week struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PhaseID    primitive.ObjectID `bson:"phaseId" json:"phaseId"`
	WeekNumber int                `bson:"weekNumber" json:"weekNumber"`
}

// ProgramDay is a single day slot inside a Week. A training day owns at most
// one WorkoutTemplate; rest/recovery days own none.
type ProgramDay struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WeekID    primitive.ObjectID `bson:"weekId" json:"weekId"`
	DayNumber int                `bson:"dayNumber" json:"dayNumber"` // sort key within the week
	DayType   DayType            `bson:"dayType" json:"dayType"`
}

// IsTraining reports whether the day counts toward plan progress.
func (d *ProgramDay) IsTraining() bool {
	return d.DayType == DayTypeTraining
}
