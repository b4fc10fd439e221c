package service

import (
	"context"
	"errors"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordService listens for the "a set was just completed" signal from the
// session engine and opportunistically creates PersonalRecord rows when the
// set beats the user's previous best for its exercise.
type RecordService interface {
	// CheckCompletedSet inspects a just-completed set and returns any new
	// records it produced. Detection failures are logged, never fatal to the
	// completing operation.
	CheckCompletedSet(ctx context.Context, userID, exerciseID primitive.ObjectID, set *domain.LoggedSet) ([]domain.PersonalRecord, error)

	GetRecordsForExercise(ctx context.Context, userID, exerciseID primitive.ObjectID) ([]domain.PersonalRecord, error)
	GetRecords(ctx context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error)
}

// recordService implements the RecordService interface.
type recordService struct {
	recordRepo repository.RecordRepository
}

// NewRecordService creates a new instance of recordService.
func NewRecordService(recordRepo repository.RecordRepository) RecordService {
	return &recordService{recordRepo: recordRepo}
}

// candidate is one potential record extracted from a completed set.
type candidate struct {
	recordType domain.RecordType
	value      float64
}

// candidatesFromSet derives every record candidate the set's actuals support.
// Estimated 1RM uses the Epley formula: weight * (1 + reps/30).
func candidatesFromSet(set *domain.LoggedSet) []candidate {
	var out []candidate
	if set.ActualWeight != nil {
		out = append(out, candidate{domain.RecordMaxWeight, *set.ActualWeight})
	}
	if set.ActualReps != nil {
		out = append(out, candidate{domain.RecordMaxReps, float64(*set.ActualReps)})
	}
	if set.ActualWeight != nil && set.ActualReps != nil {
		reps := float64(*set.ActualReps)
		out = append(out,
			candidate{domain.RecordMaxVolume, *set.ActualWeight * reps},
			candidate{domain.RecordEstimated1RM, *set.ActualWeight * (1 + reps/30)},
		)
	}
	if set.ActualDistance != nil {
		out = append(out, candidate{domain.RecordMaxDistance, *set.ActualDistance})
	}
	if set.ActualSeconds != nil && set.ActualDistance != nil {
		out = append(out, candidate{domain.RecordFastestTime, float64(*set.ActualSeconds)})
	}
	return out
}

// beats reports whether value improves on the current best for the type.
func beats(recordType domain.RecordType, value, best float64) bool {
	if recordType == domain.RecordFastestTime {
		return value < best
	}
	return value > best
}

func (s *recordService) CheckCompletedSet(ctx context.Context, userID, exerciseID primitive.ObjectID, set *domain.LoggedSet) ([]domain.PersonalRecord, error) {
	var created []domain.PersonalRecord

	for _, c := range candidatesFromSet(set) {
		best, err := s.recordRepo.GetBest(ctx, userID, exerciseID, c.recordType)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return created, err
		}
		if best != nil && !beats(c.recordType, c.value, best.Value) {
			continue
		}

		record := domain.PersonalRecord{
			UserID:      userID,
			ExerciseID:  exerciseID,
			LoggedSetID: set.ID,
			RecordType:  c.recordType,
			Value:       c.value,
		}
		if set.CompletedAt != nil {
			record.AchievedAt = *set.CompletedAt
		}
		if _, err := s.recordRepo.Create(ctx, &record); err != nil {
			return created, err
		}
		log.Infof("new %s record for exercise %s: %.2f", c.recordType, exerciseID.Hex(), c.value)
		created = append(created, record)
	}

	return created, nil
}

func (s *recordService) GetRecordsForExercise(ctx context.Context, userID, exerciseID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	return s.recordRepo.GetByExerciseID(ctx, userID, exerciseID)
}

func (s *recordService) GetRecords(ctx context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	return s.recordRepo.GetByUserID(ctx, userID)
}
