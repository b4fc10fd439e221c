package service

import (
	"context"
	"testing"
	"time"

	"ironlog/training-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func completedSet(reps *int, weight, distance *float64, seconds *int) *domain.LoggedSet {
	now := time.Now().UTC()
	return &domain.LoggedSet{
		ID:             primitive.NewObjectID(),
		ActualReps:     reps,
		ActualWeight:   weight,
		ActualDistance: distance,
		ActualSeconds:  seconds,
		IsCompleted:    true,
		CompletedAt:    &now,
	}
}

func TestFirstCompletedSetCreatesRecords(t *testing.T) {
	svc := NewRecordService(newFakeRecordRepo())
	userID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()
	reps := 5
	weight := 100.0

	created, err := svc.CheckCompletedSet(context.Background(), userID, exerciseID, completedSet(&reps, &weight, nil, nil))
	require.NoError(t, err)

	byType := make(map[domain.RecordType]float64)
	for _, rec := range created {
		byType[rec.RecordType] = rec.Value
	}
	assert.InDelta(t, 100.0, byType[domain.RecordMaxWeight], 1e-9)
	assert.InDelta(t, 5.0, byType[domain.RecordMaxReps], 1e-9)
	assert.InDelta(t, 500.0, byType[domain.RecordMaxVolume], 1e-9)
	assert.InDelta(t, 100.0*(1+5.0/30.0), byType[domain.RecordEstimated1RM], 1e-9, "Epley estimate")
}

func TestWeakerSetCreatesNoRecords(t *testing.T) {
	svc := NewRecordService(newFakeRecordRepo())
	userID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()
	ctx := context.Background()

	reps := 5
	weight := 100.0
	_, err := svc.CheckCompletedSet(ctx, userID, exerciseID, completedSet(&reps, &weight, nil, nil))
	require.NoError(t, err)

	weakerReps := 3
	weakerWeight := 80.0
	created, err := svc.CheckCompletedSet(ctx, userID, exerciseID, completedSet(&weakerReps, &weakerWeight, nil, nil))
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestHeavierSetBeatsOnlySomeRecords(t *testing.T) {
	svc := NewRecordService(newFakeRecordRepo())
	userID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()
	ctx := context.Background()

	reps := 10
	weight := 80.0
	_, err := svc.CheckCompletedSet(ctx, userID, exerciseID, completedSet(&reps, &weight, nil, nil))
	require.NoError(t, err)

	// Heavier but fewer reps and less volume: only maxWeight and 1RM improve.
	heavyReps := 3
	heavyWeight := 110.0
	created, err := svc.CheckCompletedSet(ctx, userID, exerciseID, completedSet(&heavyReps, &heavyWeight, nil, nil))
	require.NoError(t, err)

	types := make(map[domain.RecordType]bool)
	for _, rec := range created {
		types[rec.RecordType] = true
	}
	assert.True(t, types[domain.RecordMaxWeight])
	assert.True(t, types[domain.RecordEstimated1RM])
	assert.False(t, types[domain.RecordMaxReps])
	assert.False(t, types[domain.RecordMaxVolume])
}

func TestFastestTimeLowerIsBetter(t *testing.T) {
	svc := NewRecordService(newFakeRecordRepo())
	userID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()
	ctx := context.Background()

	distance := 5000.0
	slow := 1500
	_, err := svc.CheckCompletedSet(ctx, userID, exerciseID, completedSet(nil, nil, &distance, &slow))
	require.NoError(t, err)

	fast := 1400
	created, err := svc.CheckCompletedSet(ctx, userID, exerciseID, completedSet(nil, nil, &distance, &fast))
	require.NoError(t, err)
	types := make(map[domain.RecordType]bool)
	for _, rec := range created {
		types[rec.RecordType] = true
	}
	assert.True(t, types[domain.RecordFastestTime], "a faster time beats a slower one")

	slower := 1600
	created, err = svc.CheckCompletedSet(ctx, userID, exerciseID, completedSet(nil, nil, &distance, &slower))
	require.NoError(t, err)
	for _, rec := range created {
		assert.NotEqual(t, domain.RecordFastestTime, rec.RecordType)
	}
}

func TestSetWithoutActualsCreatesNothing(t *testing.T) {
	svc := NewRecordService(newFakeRecordRepo())

	created, err := svc.CheckCompletedSet(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), completedSet(nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Empty(t, created)
}
