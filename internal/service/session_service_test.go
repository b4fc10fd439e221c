package service

import (
	"context"
	"testing"
	"time"

	"ironlog/training-app/internal/config"
	"ironlog/training-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionFixture struct {
	sessionRepo   *fakeSessionRepo
	templateRepo  *fakeTemplateRepo
	hierarchyRepo *fakeHierarchyRepo
	exerciseRepo  *fakeExerciseRepo
	programRepo   *fakeProgramRepo
	statsRepo     *fakeStatsRepo
	recordRepo    *fakeRecordRepo
	programs      ProgramService
	svc           SessionService
	userID        primitive.ObjectID
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		sessionRepo:   newFakeSessionRepo(),
		templateRepo:  newFakeTemplateRepo(),
		hierarchyRepo: newFakeHierarchyRepo(),
		exerciseRepo:  newFakeExerciseRepo(),
		programRepo:   newFakeProgramRepo(),
		statsRepo:     newFakeStatsRepo(),
		recordRepo:    newFakeRecordRepo(),
		userID:        primitive.NewObjectID(),
	}
	streaks := NewStreakService(f.statsRepo)
	records := NewRecordService(f.recordRepo)
	f.programs = NewProgramService(f.programRepo, f.hierarchyRepo, f.templateRepo, f.exerciseRepo, streaks)
	f.svc = NewSessionService(f.sessionRepo, f.templateRepo, f.hierarchyRepo, f.exerciseRepo, streaks, records, f.programs, config.WorkoutConfig{
		DefaultRestSeconds: 90,
		DefaultSetCount:    3,
		DefaultReps:        10,
	})
	return f
}

func (f *sessionFixture) seedLibraryExercise(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	id, err := f.exerciseRepo.Create(context.Background(), &domain.Exercise{UserID: f.userID, Name: name})
	require.NoError(t, err)
	return id
}

// seedTemplate builds a one-group template with a single exercise and three
// bilateral working sets of 5x100.
func (f *sessionFixture) seedTemplate(t *testing.T) (*domain.WorkoutTemplate, primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()

	libID := f.seedLibraryExercise(t, "Back Squat")
	template := &domain.WorkoutTemplate{UserID: f.userID, Name: "squat day"}
	templateID, err := f.templateRepo.Create(ctx, template)
	require.NoError(t, err)

	group := &domain.ExerciseGroup{TemplateID: &templateID, GroupType: domain.GroupSingle, Order: 0}
	groupID, err := f.templateRepo.CreateGroup(ctx, group)
	require.NoError(t, err)

	rest := 120
	exercise := &domain.WorkoutExercise{GroupID: groupID, ExerciseID: libID, Order: 0, RestSeconds: &rest}
	exerciseID, err := f.templateRepo.CreateWorkoutExercise(ctx, exercise)
	require.NoError(t, err)

	reps := 5
	weight := 100.0
	for n := 1; n <= 3; n++ {
		_, err := f.templateRepo.CreateSetTemplate(ctx, &domain.SetTemplate{
			WorkoutExerciseID: exerciseID,
			SetNumber:         n,
			SetType:           domain.SetWorking,
			TargetReps:        &reps,
			TargetWeight:      &weight,
		})
		require.NoError(t, err)
	}
	return template, libID
}

func TestStartSessionDeepCopiesTemplate(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, libID := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)

	require.Len(t, detail.Groups, 1)
	group := detail.Groups[0]
	assert.Equal(t, domain.GroupSingle, group.Group.GroupType)
	require.NotNil(t, group.Group.SessionID)
	assert.Nil(t, group.Group.TemplateID, "session groups never point back at the template")

	require.Len(t, group.Exercises, 1)
	exercise := group.Exercises[0]
	assert.Equal(t, libID, exercise.Exercise.ExerciseID)
	require.Len(t, exercise.Sets, 3)
	for i, set := range exercise.Sets {
		assert.Equal(t, i+1, set.SetNumber)
		require.NotNil(t, set.TargetReps)
		assert.Equal(t, 5, *set.TargetReps)
		assert.False(t, set.IsCompleted)
		assert.Nil(t, set.PreviousReps, "no history yet")
	}

	// Every node got a fresh identity.
	templateGroups, err := f.templateRepo.GetGroupsByTemplateID(ctx, template.ID)
	require.NoError(t, err)
	assert.NotEqual(t, templateGroups[0].ID, group.Group.ID)

	// Mutating the session leaves the template's planned sets untouched.
	_, err = f.svc.AddSet(ctx, f.userID, exercise.Exercise.ID)
	require.NoError(t, err)
	templateExercises, err := f.templateRepo.GetExercisesByGroupID(ctx, templateGroups[0].ID)
	require.NoError(t, err)
	templateSets, err := f.templateRepo.GetSetTemplatesByExerciseID(ctx, templateExercises[0].ID)
	require.NoError(t, err)
	assert.Len(t, templateSets, 3)
}

func TestStartSessionBackfillsPreviousPerformance(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, _ := f.seedTemplate(t)

	// First run: log actuals and finish.
	first, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	for i, set := range first.Groups[0].Exercises[0].Sets {
		reps := 5 + i
		weight := 100.0 + float64(i)*2.5
		_, err := f.svc.UpdateSet(ctx, f.userID, set.ID, SetUpdate{ActualReps: &reps, ActualWeight: &weight})
		require.NoError(t, err)
	}
	_, err = f.svc.Finish(ctx, f.userID, first.Session.ID, nil)
	require.NoError(t, err)

	// Second run sees the first run's figures as "previous".
	second, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	sets := second.Groups[0].Exercises[0].Sets
	require.Len(t, sets, 3)
	for i, set := range sets {
		require.NotNil(t, set.PreviousReps)
		require.NotNil(t, set.PreviousWeight)
		assert.Equal(t, 5+i, *set.PreviousReps)
		assert.InDelta(t, 100.0+float64(i)*2.5, *set.PreviousWeight, 1e-9)
		assert.Nil(t, set.ActualReps, "previous figures are hints, not pre-logged values")
	}
}

func TestStartSessionEmptyWithoutTemplate(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	detail, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, detail.Groups)
	assert.Equal(t, domain.SessionInProgress, detail.Session.Status)
	assert.Nil(t, detail.Session.TemplateID)
}

func TestAddExerciseUsesDefaults(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	libID := f.seedLibraryExercise(t, "Plank")

	detail, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)

	group, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.GroupSingle, group.Group.GroupType)
	assert.Equal(t, 0, group.Group.Order)
	require.Len(t, group.Exercises, 1)
	sets := group.Exercises[0].Sets
	require.Len(t, sets, 3, "falls back to the configured default set count")
	for _, set := range sets {
		require.NotNil(t, set.TargetReps)
		assert.Equal(t, 10, *set.TargetReps)
	}

	// A second exercise lands in a new group after the first.
	group2, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, group2.Group.Order)
	assert.Len(t, group2.Exercises[0].Sets, 2)
}

func TestAddSetSeedsFromPreviousSet(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, _ := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	exerciseID := detail.Groups[0].Exercises[0].Exercise.ID

	// Log the last set so the seed has actuals to copy.
	last := detail.Groups[0].Exercises[0].Sets[2]
	reps := 8
	weight := 110.0
	_, err = f.svc.UpdateSet(ctx, f.userID, last.ID, SetUpdate{ActualReps: &reps, ActualWeight: &weight})
	require.NoError(t, err)

	created, err := f.svc.AddSet(ctx, f.userID, exerciseID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	newSet := created[0]
	assert.Equal(t, 4, newSet.SetNumber)
	require.NotNil(t, newSet.ActualReps)
	assert.Equal(t, 8, *newSet.ActualReps)
	require.NotNil(t, newSet.ActualWeight)
	assert.InDelta(t, 110.0, *newSet.ActualWeight, 1e-9)
	assert.False(t, newSet.IsCompleted, "completion state is never copied")
}

func TestAddSetCreatesSidePairs(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	libID := f.seedLibraryExercise(t, "Bulgarian Split Squat")

	detail, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)
	group, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 1, nil)
	require.NoError(t, err)
	exerciseID := group.Exercises[0].Exercise.ID

	// Turn the exercise side-tracked by replacing its single set with a pair.
	left := domain.SideLeft
	right := domain.SideRight
	firstSet := group.Exercises[0].Sets[0]
	firstSet.Side = &left
	require.NoError(t, f.sessionRepo.UpdateLoggedSet(ctx, &firstSet))
	_, err = f.sessionRepo.CreateLoggedSet(ctx, &domain.LoggedSet{
		WorkoutExerciseID: exerciseID, SetNumber: 1, SetType: domain.SetWorking, Side: &right,
	})
	require.NoError(t, err)

	created, err := f.svc.AddSet(ctx, f.userID, exerciseID)
	require.NoError(t, err)
	require.Len(t, created, 2, "side-tracked exercises add sets in pairs")
	assert.Equal(t, 2, created[0].SetNumber)
	assert.Equal(t, 2, created[1].SetNumber)
	require.NotNil(t, created[0].Side)
	require.NotNil(t, created[1].Side)
	assert.Equal(t, domain.SideLeft, *created[0].Side)
	assert.Equal(t, domain.SideRight, *created[1].Side)

	// Count stays even and ordering is by number, then left before right.
	sets, err := f.sessionRepo.GetLoggedSetsByExerciseID(ctx, exerciseID)
	require.NoError(t, err)
	assert.Equal(t, 0, len(sets)%2)
	assert.Equal(t, domain.SideLeft, *sets[0].Side)
	assert.Equal(t, domain.SideRight, *sets[1].Side)
}

func TestToggleCompletedStartsRestTimerAndDetectsRecords(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, libID := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	set := detail.Groups[0].Exercises[0].Sets[0]

	reps := 5
	weight := 100.0
	_, err = f.svc.UpdateSet(ctx, f.userID, set.ID, SetUpdate{ActualReps: &reps, ActualWeight: &weight})
	require.NoError(t, err)

	result, err := f.svc.ToggleCompleted(ctx, f.userID, set.ID)
	require.NoError(t, err)
	assert.True(t, result.Set.IsCompleted)
	require.NotNil(t, result.Set.CompletedAt)

	// Timer uses the exercise's own rest seconds, not the global default.
	require.NotNil(t, result.RestTimer)
	assert.Equal(t, 120, result.RestTimer.TotalSeconds)
	assert.NotNil(t, f.svc.ActiveRestTimer(detail.Session.ID))

	// First completed set of the exercise sets several records at once.
	assert.NotEmpty(t, result.NewRecords)
	records, err := f.recordRepo.GetByExerciseID(ctx, f.userID, libID)
	require.NoError(t, err)
	types := make(map[domain.RecordType]float64)
	for _, rec := range records {
		types[rec.RecordType] = rec.Value
	}
	assert.InDelta(t, 100.0, types[domain.RecordMaxWeight], 1e-9)
	assert.InDelta(t, 500.0, types[domain.RecordMaxVolume], 1e-9)
	assert.InDelta(t, 100.0*(1+5.0/30.0), types[domain.RecordEstimated1RM], 1e-9)

	// Un-completing clears the stamp but leaves the timer running.
	result, err = f.svc.ToggleCompleted(ctx, f.userID, set.ID)
	require.NoError(t, err)
	assert.False(t, result.Set.IsCompleted)
	assert.Nil(t, result.Set.CompletedAt)
	assert.NotNil(t, f.svc.ActiveRestTimer(detail.Session.ID))
}

func TestPropagateValueAppliesToLaterIncompleteSets(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, _ := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	sets := detail.Groups[0].Exercises[0].Sets

	// Complete the third set; it must keep its own value.
	reps := 3
	_, err = f.svc.UpdateSet(ctx, f.userID, sets[2].ID, SetUpdate{ActualReps: &reps})
	require.NoError(t, err)
	_, err = f.svc.ToggleCompleted(ctx, f.userID, sets[2].ID)
	require.NoError(t, err)

	updated, err := f.svc.PropagateValue(ctx, f.userID, sets[0].ID, PropagateWeight, 102.5)
	require.NoError(t, err)
	require.Len(t, updated, 1, "only the incomplete later set changes")
	assert.Equal(t, sets[1].ID, updated[0].ID)
	require.NotNil(t, updated[0].ActualWeight)
	assert.InDelta(t, 102.5, *updated[0].ActualWeight, 1e-9)

	completed, err := f.sessionRepo.GetLoggedSetByID(ctx, sets[2].ID)
	require.NoError(t, err)
	assert.Nil(t, completed.ActualWeight, "completed sets are never overwritten")
}

func TestPropagateValueRejectsNonFirstSet(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, _ := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	sets := detail.Groups[0].Exercises[0].Sets

	_, err = f.svc.PropagateValue(ctx, f.userID, sets[1].ID, PropagateWeight, 100)
	assert.ErrorIs(t, err, ErrPropagateNotFirstSet)
}

func TestPropagateValueRejectsRightSideSource(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	libID := f.seedLibraryExercise(t, "Single Arm Row")

	detail, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)
	group, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 1, nil)
	require.NoError(t, err)
	exerciseID := group.Exercises[0].Exercise.ID

	right := domain.SideRight
	rightSetID, err := f.sessionRepo.CreateLoggedSet(ctx, &domain.LoggedSet{
		WorkoutExerciseID: exerciseID, SetNumber: 1, SetType: domain.SetWorking, Side: &right,
	})
	require.NoError(t, err)

	_, err = f.svc.PropagateValue(ctx, f.userID, rightSetID, PropagateReps, 10)
	assert.ErrorIs(t, err, ErrPropagateNotFirstSet)
}

func TestCreateSupersetMergesAndRenumbers(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	libID := f.seedLibraryExercise(t, "Curl")

	detail, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)
	sessionID := detail.Session.ID

	// Four single groups at orders 0..3.
	var groups []*SessionGroupDetail
	for i := 0; i < 4; i++ {
		g, err := f.svc.AddExercise(ctx, f.userID, sessionID, libID, 1, nil)
		require.NoError(t, err)
		groups = append(groups, g)
	}

	// Merge the groups at orders 2 and 0, in that selection order.
	merged, err := f.svc.CreateSuperset(ctx, f.userID, sessionID, []primitive.ObjectID{
		groups[2].Group.ID, groups[0].Group.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GroupSuperset, merged.GroupType)

	// The merged group's exercises follow the selection order, renumbered 0..n-1.
	exercises, err := f.sessionRepo.GetExercisesByGroupID(ctx, merged.ID)
	require.NoError(t, err)
	require.Len(t, exercises, 2)
	assert.Equal(t, groups[2].Exercises[0].Exercise.ID, exercises[0].ID)
	assert.Equal(t, groups[0].Exercises[0].Exercise.ID, exercises[1].ID)
	assert.Equal(t, 0, exercises[0].Order)
	assert.Equal(t, 1, exercises[1].Order)

	// The emptied source groups are gone and sibling orders are contiguous.
	remaining, err := f.sessionRepo.GetGroupsBySessionID(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	for i, g := range remaining {
		assert.Equal(t, i, g.Order)
	}
	// The merged group took the lowest selected order, so it now leads.
	assert.Equal(t, merged.ID, remaining[0].ID)
}

func TestCreateSupersetOfThreeIsTriset(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	libID := f.seedLibraryExercise(t, "Lateral Raise")

	detail, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		g, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 1, nil)
		require.NoError(t, err)
		ids = append(ids, g.Group.ID)
	}

	merged, err := f.svc.CreateSuperset(ctx, f.userID, detail.Session.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupTriset, merged.GroupType)
}

func TestCreateSupersetValidatesBeforeWriting(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	libID := f.seedLibraryExercise(t, "Dip")

	detail, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)
	g1, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 1, nil)
	require.NoError(t, err)
	g2, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 1, nil)
	require.NoError(t, err)

	_, err = f.svc.CreateSuperset(ctx, f.userID, detail.Session.ID, []primitive.ObjectID{g1.Group.ID})
	assert.ErrorIs(t, err, ErrSupersetTooFew)

	_, err = f.svc.CreateSuperset(ctx, f.userID, detail.Session.ID, []primitive.ObjectID{g1.Group.ID, g1.Group.ID})
	assert.ErrorIs(t, err, ErrSupersetDuplicateGroup)

	// A group from another session is rejected, and nothing is merged.
	other, err := f.svc.StartSession(ctx, f.userID, nil, nil)
	require.NoError(t, err)
	foreign, err := f.svc.AddExercise(ctx, f.userID, other.Session.ID, libID, 1, nil)
	require.NoError(t, err)
	_, err = f.svc.CreateSuperset(ctx, f.userID, detail.Session.ID, []primitive.ObjectID{g1.Group.ID, foreign.Group.ID})
	assert.ErrorIs(t, err, ErrSupersetWrongSession)

	// A non-single group cannot be merged again.
	merged, err := f.svc.CreateSuperset(ctx, f.userID, detail.Session.ID, []primitive.ObjectID{g1.Group.ID, g2.Group.ID})
	require.NoError(t, err)
	g3, err := f.svc.AddExercise(ctx, f.userID, detail.Session.ID, libID, 1, nil)
	require.NoError(t, err)
	_, err = f.svc.CreateSuperset(ctx, f.userID, detail.Session.ID, []primitive.ObjectID{merged.ID, g3.Group.ID})
	assert.ErrorIs(t, err, ErrSupersetNotSingle)
}

func TestFinishRecordsStreakAndAdvancesProgram(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	// A one-phase, one-week, two-training-day program.
	program := &domain.Program{UserID: f.userID, Name: "plan", IsActive: true}
	_, err := f.programRepo.Create(ctx, program)
	require.NoError(t, err)
	phaseID, err := f.hierarchyRepo.CreatePhase(ctx, &domain.Phase{ProgramID: program.ID, Order: 0})
	require.NoError(t, err)
	weekID, err := f.hierarchyRepo.CreateWeek(ctx, &domain.Week{PhaseID: phaseID, WeekNumber: 1})
	require.NoError(t, err)
	day := &domain.ProgramDay{WeekID: weekID, DayNumber: 1, DayType: domain.DayTypeTraining}
	dayID, err := f.hierarchyRepo.CreateDay(ctx, day)
	require.NoError(t, err)
	_, err = f.hierarchyRepo.CreateDay(ctx, &domain.ProgramDay{WeekID: weekID, DayNumber: 2, DayType: domain.DayTypeTraining})
	require.NoError(t, err)

	detail, err := f.svc.StartSession(ctx, f.userID, nil, &dayID)
	require.NoError(t, err)

	rating := 4
	session, err := f.svc.Finish(ctx, f.userID, detail.Session.ID, &rating)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, session.Status)
	require.NotNil(t, session.EndTime)
	require.NotNil(t, session.Rating)
	assert.Equal(t, 4, *session.Rating)

	stats, err := f.statsRepo.GetOrCreateByUserID(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)

	updated, err := f.programRepo.GetByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentDayIndex, "finishing a training day advances the cursor")

	assert.Nil(t, f.svc.ActiveRestTimer(detail.Session.ID))

	_, err = f.svc.Finish(ctx, f.userID, detail.Session.ID, nil)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestFinishRestDaySessionDoesNotAdvanceCursor(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	program := &domain.Program{UserID: f.userID, Name: "plan"}
	_, err := f.programRepo.Create(ctx, program)
	require.NoError(t, err)
	phaseID, err := f.hierarchyRepo.CreatePhase(ctx, &domain.Phase{ProgramID: program.ID, Order: 0})
	require.NoError(t, err)
	weekID, err := f.hierarchyRepo.CreateWeek(ctx, &domain.Week{PhaseID: phaseID, WeekNumber: 1})
	require.NoError(t, err)
	dayID, err := f.hierarchyRepo.CreateDay(ctx, &domain.ProgramDay{WeekID: weekID, DayNumber: 1, DayType: domain.DayTypeActiveRecovery})
	require.NoError(t, err)

	detail, err := f.svc.StartSession(ctx, f.userID, nil, &dayID)
	require.NoError(t, err)
	_, err = f.svc.Finish(ctx, f.userID, detail.Session.ID, nil)
	require.NoError(t, err)

	updated, err := f.programRepo.GetByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentDayIndex)

	// The streak still counts the recovery session.
	stats, err := f.statsRepo.GetOrCreateByUserID(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestCancelDeletesSessionSubtree(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, _ := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	setID := detail.Groups[0].Exercises[0].Sets[0].ID

	require.NoError(t, f.svc.Cancel(ctx, f.userID, detail.Session.ID))

	_, err = f.sessionRepo.GetByID(ctx, detail.Session.ID)
	assert.Error(t, err)
	_, err = f.sessionRepo.GetLoggedSetByID(ctx, setID)
	assert.Error(t, err)

	// The template is untouched.
	_, err = f.templateRepo.GetByID(ctx, template.ID)
	assert.NoError(t, err)
}

func TestMutationsRejectedOutsideActiveSession(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, _ := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)
	setID := detail.Groups[0].Exercises[0].Sets[0].ID
	exerciseID := detail.Groups[0].Exercises[0].Exercise.ID

	_, err = f.svc.Finish(ctx, f.userID, detail.Session.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.AddSet(ctx, f.userID, exerciseID)
	assert.ErrorIs(t, err, ErrSessionNotActive)
	reps := 5
	_, err = f.svc.UpdateSet(ctx, f.userID, setID, SetUpdate{ActualReps: &reps})
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, err = f.svc.ToggleCompleted(ctx, f.userID, setID)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSessionOwnershipEnforced(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	template, _ := f.seedTemplate(t)

	detail, err := f.svc.StartSession(ctx, f.userID, &template.ID, nil)
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	_, err = f.svc.GetSession(ctx, stranger, detail.Session.ID)
	assert.ErrorIs(t, err, ErrSessionNotOwned)
	err = f.svc.Cancel(ctx, stranger, detail.Session.ID)
	assert.ErrorIs(t, err, ErrSessionNotOwned)
}

func TestRestTimerCountsDown(t *testing.T) {
	timer := domain.RestTimer{TotalSeconds: 90, StartedAt: time.Now().Add(-30 * time.Second)}
	remaining := timer.RemainingSeconds()
	assert.InDelta(t, 60, remaining, 1)
	assert.False(t, timer.IsComplete())

	expired := domain.RestTimer{TotalSeconds: 90, StartedAt: time.Now().Add(-2 * time.Minute)}
	assert.Equal(t, 0, expired.RemainingSeconds())
	assert.True(t, expired.IsComplete())
}
