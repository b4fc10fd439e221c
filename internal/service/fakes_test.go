package service

import (
	"context"
	"sort"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the sorting contracts of the mongo
// implementations so services can be tested without a database.

type fakeStatsRepo struct {
	stats map[primitive.ObjectID]*domain.UserStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[primitive.ObjectID]*domain.UserStats)}
}

func (r *fakeStatsRepo) GetOrCreateByUserID(_ context.Context, userID primitive.ObjectID) (*domain.UserStats, error) {
	if s, ok := r.stats[userID]; ok {
		copied := *s
		return &copied, nil
	}
	s := &domain.UserStats{ID: primitive.NewObjectID(), UserID: userID}
	r.stats[userID] = s
	copied := *s
	return &copied, nil
}

func (r *fakeStatsRepo) Update(_ context.Context, stats *domain.UserStats) error {
	copied := *stats
	r.stats[stats.UserID] = &copied
	return nil
}

type fakeRecordRepo struct {
	records []domain.PersonalRecord
}

func newFakeRecordRepo() *fakeRecordRepo { return &fakeRecordRepo{} }

func (r *fakeRecordRepo) Create(_ context.Context, record *domain.PersonalRecord) (primitive.ObjectID, error) {
	record.ID = primitive.NewObjectID()
	r.records = append(r.records, *record)
	return record.ID, nil
}

func (r *fakeRecordRepo) GetBest(_ context.Context, userID, exerciseID primitive.ObjectID, recordType domain.RecordType) (*domain.PersonalRecord, error) {
	var best *domain.PersonalRecord
	for i := range r.records {
		rec := r.records[i]
		if rec.UserID != userID || rec.ExerciseID != exerciseID || rec.RecordType != recordType {
			continue
		}
		if best == nil {
			best = &rec
			continue
		}
		if recordType == domain.RecordFastestTime {
			if rec.Value < best.Value {
				best = &rec
			}
		} else if rec.Value > best.Value {
			best = &rec
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (r *fakeRecordRepo) GetByExerciseID(_ context.Context, userID, exerciseID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	var out []domain.PersonalRecord
	for _, rec := range r.records {
		if rec.UserID == userID && rec.ExerciseID == exerciseID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	var out []domain.PersonalRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := e
	return &copied, nil
}

func (r *fakeExerciseRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, e := range r.exercises {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *fakeExerciseRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	e, ok := r.exercises[id]
	if !ok || e.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

type fakeProgramRepo struct {
	programs map[primitive.ObjectID]domain.Program
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: make(map[primitive.ObjectID]domain.Program)}
}

func (r *fakeProgramRepo) Create(_ context.Context, program *domain.Program) (primitive.ObjectID, error) {
	program.ID = primitive.NewObjectID()
	r.programs[program.ID] = *program
	return program.ID, nil
}

func (r *fakeProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (r *fakeProgramRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Program, error) {
	var out []domain.Program
	for _, p := range r.programs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProgramRepo) GetActiveByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Program, error) {
	for _, p := range r.programs {
		if p.UserID == userID && p.IsActive {
			copied := p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProgramRepo) Update(_ context.Context, program *domain.Program) error {
	if _, ok := r.programs[program.ID]; !ok {
		return repository.ErrNotFound
	}
	r.programs[program.ID] = *program
	return nil
}

func (r *fakeProgramRepo) DeactivateOthers(_ context.Context, userID, excludeProgramID primitive.ObjectID) error {
	for id, p := range r.programs {
		if p.UserID == userID && id != excludeProgramID && p.IsActive {
			p.IsActive = false
			r.programs[id] = p
		}
	}
	return nil
}

func (r *fakeProgramRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	p, ok := r.programs[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.programs, id)
	return nil
}

type fakeHierarchyRepo struct {
	phases map[primitive.ObjectID]domain.Phase
	weeks  map[primitive.ObjectID]domain.Week
	days   map[primitive.ObjectID]domain.ProgramDay
}

func newFakeHierarchyRepo() *fakeHierarchyRepo {
	return &fakeHierarchyRepo{
		phases: make(map[primitive.ObjectID]domain.Phase),
		weeks:  make(map[primitive.ObjectID]domain.Week),
		days:   make(map[primitive.ObjectID]domain.ProgramDay),
	}
}

func (r *fakeHierarchyRepo) CreatePhase(_ context.Context, phase *domain.Phase) (primitive.ObjectID, error) {
	phase.ID = primitive.NewObjectID()
	r.phases[phase.ID] = *phase
	return phase.ID, nil
}

func (r *fakeHierarchyRepo) CreateWeek(_ context.Context, week *domain.Week) (primitive.ObjectID, error) {
	week.ID = primitive.NewObjectID()
	r.weeks[week.ID] = *week
	return week.ID, nil
}

func (r *fakeHierarchyRepo) CreateDay(_ context.Context, day *domain.ProgramDay) (primitive.ObjectID, error) {
	day.ID = primitive.NewObjectID()
	r.days[day.ID] = *day
	return day.ID, nil
}

func (r *fakeHierarchyRepo) GetPhasesByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.Phase, error) {
	var out []domain.Phase
	for _, p := range r.phases {
		if p.ProgramID == programID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeHierarchyRepo) GetWeeksByPhaseID(_ context.Context, phaseID primitive.ObjectID) ([]domain.Week, error) {
	var out []domain.Week
	for _, w := range r.weeks {
		if w.PhaseID == phaseID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

func (r *fakeHierarchyRepo) GetDaysByWeekID(_ context.Context, weekID primitive.ObjectID) ([]domain.ProgramDay, error) {
	var out []domain.ProgramDay
	for _, d := range r.days {
		if d.WeekID == weekID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

func (r *fakeHierarchyRepo) GetPhaseByID(_ context.Context, id primitive.ObjectID) (*domain.Phase, error) {
	p, ok := r.phases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (r *fakeHierarchyRepo) GetWeekByID(_ context.Context, id primitive.ObjectID) (*domain.Week, error) {
	w, ok := r.weeks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := w
	return &copied, nil
}

func (r *fakeHierarchyRepo) GetDayByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramDay, error) {
	d, ok := r.days[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := d
	return &copied, nil
}

type fakeTemplateRepo struct {
	templates map[primitive.ObjectID]domain.WorkoutTemplate
	groups    map[primitive.ObjectID]domain.ExerciseGroup
	exercises map[primitive.ObjectID]domain.WorkoutExercise
	sets      map[primitive.ObjectID]domain.SetTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{
		templates: make(map[primitive.ObjectID]domain.WorkoutTemplate),
		groups:    make(map[primitive.ObjectID]domain.ExerciseGroup),
		exercises: make(map[primitive.ObjectID]domain.WorkoutExercise),
		sets:      make(map[primitive.ObjectID]domain.SetTemplate),
	}
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	template.ID = primitive.NewObjectID()
	r.templates[template.ID] = *template
	return template.ID, nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := t
	return &copied, nil
}

func (r *fakeTemplateRepo) GetByProgramDayID(_ context.Context, programDayID primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	for _, t := range r.templates {
		if t.ProgramDayID != nil && *t.ProgramDayID == programDayID {
			copied := t
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTemplateRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	var out []domain.WorkoutTemplate
	for _, t := range r.templates {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) CreateGroup(_ context.Context, group *domain.ExerciseGroup) (primitive.ObjectID, error) {
	group.ID = primitive.NewObjectID()
	r.groups[group.ID] = *group
	return group.ID, nil
}

func (r *fakeTemplateRepo) CreateWorkoutExercise(_ context.Context, exercise *domain.WorkoutExercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeTemplateRepo) CreateSetTemplate(_ context.Context, set *domain.SetTemplate) (primitive.ObjectID, error) {
	set.ID = primitive.NewObjectID()
	r.sets[set.ID] = *set
	return set.ID, nil
}

func (r *fakeTemplateRepo) GetGroupsByTemplateID(_ context.Context, templateID primitive.ObjectID) ([]domain.ExerciseGroup, error) {
	var out []domain.ExerciseGroup
	for _, g := range r.groups {
		if g.TemplateID != nil && *g.TemplateID == templateID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeTemplateRepo) GetExercisesByGroupID(_ context.Context, groupID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	var out []domain.WorkoutExercise
	for _, e := range r.exercises {
		if e.GroupID == groupID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeTemplateRepo) GetSetTemplatesByExerciseID(_ context.Context, workoutExerciseID primitive.ObjectID) ([]domain.SetTemplate, error) {
	var out []domain.SetTemplate
	for _, s := range r.sets {
		if s.WorkoutExerciseID == workoutExerciseID {
			out = append(out, s)
		}
	}
	domain.SortSetTemplates(out)
	return out, nil
}

type fakeSessionRepo struct {
	sessions  map[primitive.ObjectID]domain.WorkoutSession
	groups    map[primitive.ObjectID]domain.ExerciseGroup
	exercises map[primitive.ObjectID]domain.WorkoutExercise
	sets      map[primitive.ObjectID]domain.LoggedSet
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions:  make(map[primitive.ObjectID]domain.WorkoutSession),
		groups:    make(map[primitive.ObjectID]domain.ExerciseGroup),
		exercises: make(map[primitive.ObjectID]domain.WorkoutExercise),
		sets:      make(map[primitive.ObjectID]domain.LoggedSet),
	}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	r.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := s
	return &copied, nil
}

func (r *fakeSessionRepo) GetByUserID(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error) {
	var out []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) GetLatestCompletedByTemplateID(_ context.Context, userID, templateID primitive.ObjectID) (*domain.WorkoutSession, error) {
	var latest *domain.WorkoutSession
	for _, s := range r.sessions {
		s := s
		if s.UserID != userID || s.Status != domain.SessionCompleted {
			continue
		}
		if s.TemplateID == nil || *s.TemplateID != templateID {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *domain.WorkoutSession) error {
	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for gid, g := range r.groups {
		if g.SessionID == nil || *g.SessionID != id {
			continue
		}
		for eid, e := range r.exercises {
			if e.GroupID != gid {
				continue
			}
			for sid, s := range r.sets {
				if s.WorkoutExerciseID == eid {
					delete(r.sets, sid)
				}
			}
			delete(r.exercises, eid)
		}
		delete(r.groups, gid)
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) CreateGroup(_ context.Context, group *domain.ExerciseGroup) (primitive.ObjectID, error) {
	group.ID = primitive.NewObjectID()
	r.groups[group.ID] = *group
	return group.ID, nil
}

func (r *fakeSessionRepo) UpdateGroup(_ context.Context, group *domain.ExerciseGroup) error {
	if _, ok := r.groups[group.ID]; !ok {
		return repository.ErrNotFound
	}
	r.groups[group.ID] = *group
	return nil
}

func (r *fakeSessionRepo) DeleteGroup(_ context.Context, id primitive.ObjectID) error {
	delete(r.groups, id)
	return nil
}

func (r *fakeSessionRepo) GetGroupByID(_ context.Context, id primitive.ObjectID) (*domain.ExerciseGroup, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := g
	return &copied, nil
}

func (r *fakeSessionRepo) GetGroupsBySessionID(_ context.Context, sessionID primitive.ObjectID) ([]domain.ExerciseGroup, error) {
	var out []domain.ExerciseGroup
	for _, g := range r.groups {
		if g.SessionID != nil && *g.SessionID == sessionID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeSessionRepo) CreateWorkoutExercise(_ context.Context, exercise *domain.WorkoutExercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeSessionRepo) UpdateWorkoutExercise(_ context.Context, exercise *domain.WorkoutExercise) error {
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *fakeSessionRepo) GetWorkoutExerciseByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutExercise, error) {
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := e
	return &copied, nil
}

func (r *fakeSessionRepo) GetExercisesByGroupID(_ context.Context, groupID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	var out []domain.WorkoutExercise
	for _, e := range r.exercises {
		if e.GroupID == groupID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeSessionRepo) CreateLoggedSet(_ context.Context, set *domain.LoggedSet) (primitive.ObjectID, error) {
	set.ID = primitive.NewObjectID()
	r.sets[set.ID] = *set
	return set.ID, nil
}

func (r *fakeSessionRepo) UpdateLoggedSet(_ context.Context, set *domain.LoggedSet) error {
	if _, ok := r.sets[set.ID]; !ok {
		return repository.ErrNotFound
	}
	r.sets[set.ID] = *set
	return nil
}

func (r *fakeSessionRepo) GetLoggedSetByID(_ context.Context, id primitive.ObjectID) (*domain.LoggedSet, error) {
	s, ok := r.sets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := s
	return &copied, nil
}

func (r *fakeSessionRepo) GetLoggedSetsByExerciseID(_ context.Context, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error) {
	var out []domain.LoggedSet
	for _, s := range r.sets {
		if s.WorkoutExerciseID == workoutExerciseID {
			out = append(out, s)
		}
	}
	domain.SortLoggedSets(out)
	return out, nil
}
