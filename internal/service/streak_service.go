package service

import (
	"context"
	"time"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StreakService maintains the daily-bucketed consecutive-completion counter on
// the per-user UserStats singleton. States are {no-streak, active(n),
// frozen(n)}; freezing preserves the count across an explicit pause.
type StreakService interface {
	// RecordWorkout applies a workout completion at instant at.
	RecordWorkout(ctx context.Context, userID primitive.ObjectID, at time.Time) (*domain.UserStats, error)

	// Freeze marks the streak as frozen without altering the count. Called
	// when a pause/vacation period begins.
	Freeze(ctx context.Context, userID primitive.ObjectID) error

	// Unfreeze clears the frozen flag. Called on resume.
	Unfreeze(ctx context.Context, userID primitive.ObjectID) error

	// CheckStreakStatus is the daily maintenance check: if the streak is not
	// frozen and yesterday was a scheduled day with no workout logged for it,
	// the streak resets to 0. Idempotent; safe to call more than once per day.
	CheckStreakStatus(ctx context.Context, userID primitive.ObjectID, scheduledDays []int, now time.Time) (*domain.UserStats, error)

	GetStats(ctx context.Context, userID primitive.ObjectID) (*domain.UserStats, error)
}

// streakService implements the StreakService interface.
type streakService struct {
	statsRepo repository.StatsRepository
}

// NewStreakService creates a new instance of streakService.
func NewStreakService(statsRepo repository.StatsRepository) StreakService {
	return &streakService{statsRepo: statsRepo}
}

// daysBetween returns the whole-day difference between the calendar dates of
// a and b in UTC, ignoring time of day.
func daysBetween(a, b time.Time) int {
	aDay := time.Date(a.UTC().Year(), a.UTC().Month(), a.UTC().Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.UTC().Year(), b.UTC().Month(), b.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay).Hours() / 24)
}

// scheduledOn mirrors Program.IsScheduledOn for a bare weekday set: empty
// means every day is scheduled.
func scheduledOn(scheduledDays []int, t time.Time) bool {
	if len(scheduledDays) == 0 {
		return true
	}
	weekday := int(t.Weekday())
	for _, d := range scheduledDays {
		if d == weekday {
			return true
		}
	}
	return false
}

func (s *streakService) RecordWorkout(ctx context.Context, userID primitive.ObjectID, at time.Time) (*domain.UserStats, error) {
	stats, err := s.statsRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case stats.LastWorkoutDate == nil:
		stats.CurrentStreak = 1
	default:
		gap := daysBetween(*stats.LastWorkoutDate, at)
		switch {
		case gap <= 0:
			// Same-day re-completion does not double count.
		case gap == 1:
			stats.CurrentStreak++
		case stats.StreakFrozen:
			// A frozen streak treats any gap as a single day, then thaws.
			stats.CurrentStreak++
			stats.StreakFrozen = false
		default:
			stats.CurrentStreak = 1
		}
	}

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	workoutDate := at.UTC()
	stats.LastWorkoutDate = &workoutDate

	if err := s.statsRepo.Update(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *streakService) Freeze(ctx context.Context, userID primitive.ObjectID) error {
	stats, err := s.statsRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if stats.StreakFrozen {
		return nil
	}
	stats.StreakFrozen = true
	return s.statsRepo.Update(ctx, stats)
}

func (s *streakService) Unfreeze(ctx context.Context, userID primitive.ObjectID) error {
	stats, err := s.statsRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !stats.StreakFrozen {
		return nil
	}
	stats.StreakFrozen = false
	return s.statsRepo.Update(ctx, stats)
}

func (s *streakService) CheckStreakStatus(ctx context.Context, userID primitive.ObjectID, scheduledDays []int, now time.Time) (*domain.UserStats, error) {
	stats, err := s.statsRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if stats.StreakFrozen || stats.CurrentStreak == 0 {
		return stats, nil
	}

	yesterday := now.AddDate(0, 0, -1)
	if !scheduledOn(scheduledDays, yesterday) {
		return stats, nil
	}

	// A workout logged yesterday or later keeps the streak alive.
	if stats.LastWorkoutDate != nil && daysBetween(*stats.LastWorkoutDate, yesterday) <= 0 {
		return stats, nil
	}

	stats.CurrentStreak = 0
	if err := s.statsRepo.Update(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *streakService) GetStats(ctx context.Context, userID primitive.ObjectID) (*domain.UserStats, error) {
	return s.statsRepo.GetOrCreateByUserID(ctx, userID)
}
