package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ironlog/training-app/internal/config"
	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionNotOwned        = errors.New("session does not belong to this user")
	ErrSessionNotActive       = errors.New("session is not in progress")
	ErrTemplateNotFound       = errors.New("workout template not found")
	ErrTemplateNotOwned       = errors.New("workout template does not belong to this user")
	ErrSetNotFound            = errors.New("logged set not found")
	ErrWorkoutExerciseMissing = errors.New("workout exercise not found")
	ErrSupersetTooFew         = errors.New("select at least two exercise groups to merge")
	ErrSupersetNotSingle      = errors.New("only single-exercise groups can be merged into a superset")
	ErrSupersetWrongSession   = errors.New("all merged groups must belong to the same session")
	ErrSupersetDuplicateGroup = errors.New("the same group was selected more than once")
	ErrPropagateNotFirstSet   = errors.New("values propagate only from the first set of an exercise")
)

// PropagateField names the logged value a propagation copies forward.
type PropagateField string

const (
	PropagateWeight PropagateField = "weight"
	PropagateReps   PropagateField = "reps"
	PropagateTime   PropagateField = "time"
)

// SetUpdate carries the actual performance values logged for a set.
type SetUpdate struct {
	ActualReps     *int     `json:"actualReps,omitempty"`
	ActualWeight   *float64 `json:"actualWeight,omitempty"`
	ActualDistance *float64 `json:"actualDistance,omitempty"`
	ActualSeconds  *int     `json:"actualSeconds,omitempty"`
	ActualRPE      *float64 `json:"actualRpe,omitempty"`
}

// SessionDetail is the fully assembled session graph returned to callers.
type SessionDetail struct {
	Session domain.WorkoutSession `json:"session"`
	Groups  []SessionGroupDetail  `json:"groups"`
}

type SessionGroupDetail struct {
	Group     domain.ExerciseGroup    `json:"group"`
	Exercises []SessionExerciseDetail `json:"exercises"`
}

type SessionExerciseDetail struct {
	Exercise domain.WorkoutExercise `json:"exercise"`
	Library  *domain.Exercise       `json:"libraryExercise,omitempty"`
	Sets     []domain.LoggedSet     `json:"sets"`
}

// ToggleResult is the outcome of flipping a set's completion state.
type ToggleResult struct {
	Set        domain.LoggedSet        `json:"set"`
	RestTimer  *domain.RestTimer       `json:"restTimer,omitempty"`
	NewRecords []domain.PersonalRecord `json:"newRecords,omitempty"`
}

// SessionService turns an immutable template into a live, independently
// mutable session graph and carries every in-workout mutation: adding
// exercises and sets, merging groups into supersets, completing sets and
// propagating logged values.
type SessionService interface {
	// StartSession materializes a new session. With a template (given
	// directly or resolved from a program day) the whole group/exercise/set
	// tree is deep-copied under fresh ids; without one the session starts
	// empty and exercises are added interactively.
	StartSession(ctx context.Context, userID primitive.ObjectID, templateID, programDayID *primitive.ObjectID) (*SessionDetail, error)

	GetSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*SessionDetail, error)
	GetHistory(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error)

	// AddExercise appends a new single-type group holding one exercise with
	// freshly numbered sets.
	AddExercise(ctx context.Context, userID, sessionID, exerciseID primitive.ObjectID, setCount int, restSeconds *int) (*SessionGroupDetail, error)

	// AddSet appends the next set to an exercise. Side-tracked exercises get
	// a left/right pair sharing the new set number.
	AddSet(ctx context.Context, userID, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error)

	UpdateSet(ctx context.Context, userID, setID primitive.ObjectID, update SetUpdate) (*domain.LoggedSet, error)

	// ToggleCompleted flips completion. Completing stamps the time, starts
	// the session's rest timer and signals the record detector; un-completing
	// clears the stamp but never cancels an already-running timer.
	ToggleCompleted(ctx context.Context, userID, setID primitive.ObjectID) (*ToggleResult, error)

	// PropagateValue copies a value from an exercise's first set into its
	// later, still-incomplete sets. The caller decides whether to apply it;
	// completed sets are never overwritten.
	PropagateValue(ctx context.Context, userID, fromSetID primitive.ObjectID, field PropagateField, value float64) ([]domain.LoggedSet, error)

	// CreateSuperset merges two or more single-type groups into one superset
	// (or triset) group. The operation validates everything up front and is
	// ordered so exercises are never left detached from a group.
	CreateSuperset(ctx context.Context, userID, sessionID primitive.ObjectID, groupIDs []primitive.ObjectID) (*domain.ExerciseGroup, error)

	Finish(ctx context.Context, userID, sessionID primitive.ObjectID, rating *int) (*domain.WorkoutSession, error)

	// Cancel finalizes the session as cancelled and deletes its whole subtree.
	Cancel(ctx context.Context, userID, sessionID primitive.ObjectID) error

	// ActiveRestTimer returns the session's current rest timer, or nil. The
	// timer is ephemeral in-memory state, never persisted.
	ActiveRestTimer(sessionID primitive.ObjectID) *domain.RestTimer
}

// sessionService implements the SessionService interface.
type sessionService struct {
	sessionRepo   repository.SessionRepository
	templateRepo  repository.TemplateRepository
	hierarchyRepo repository.HierarchyRepository
	exerciseRepo  repository.ExerciseRepository
	streaks       StreakService
	records       RecordService
	programs      ProgramService
	defaults      config.WorkoutConfig

	mu     sync.Mutex
	timers map[primitive.ObjectID]*domain.RestTimer // keyed by session id
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	templateRepo repository.TemplateRepository,
	hierarchyRepo repository.HierarchyRepository,
	exerciseRepo repository.ExerciseRepository,
	streaks StreakService,
	records RecordService,
	programs ProgramService,
	defaults config.WorkoutConfig,
) SessionService {
	return &sessionService{
		sessionRepo:   sessionRepo,
		templateRepo:  templateRepo,
		hierarchyRepo: hierarchyRepo,
		exerciseRepo:  exerciseRepo,
		streaks:       streaks,
		records:       records,
		programs:      programs,
		defaults:      defaults,
		timers:        make(map[primitive.ObjectID]*domain.RestTimer),
	}
}

// getOwnedSession loads a session and verifies ownership.
func (s *sessionService) getOwnedSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}
	return session, nil
}

// getActiveSession additionally requires the session to be in progress.
func (s *sessionService) getActiveSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, ErrSessionNotActive
	}
	return session, nil
}

// === Materializer ===

func (s *sessionService) StartSession(ctx context.Context, userID primitive.ObjectID, templateID, programDayID *primitive.ObjectID) (*SessionDetail, error) {
	var template *domain.WorkoutTemplate
	var err error

	switch {
	case templateID != nil:
		template, err = s.templateRepo.GetByID(ctx, *templateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}
		if template.UserID != userID {
			return nil, ErrTemplateNotOwned
		}
	case programDayID != nil:
		// A rest/recovery day simply has no template; the session starts empty.
		template, err = s.templateRepo.GetByProgramDayID(ctx, *programDayID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	session := &domain.WorkoutSession{
		UserID:       userID,
		ProgramDayID: programDayID,
		StartTime:    time.Now().UTC(),
		Status:       domain.SessionInProgress,
	}
	if template != nil {
		session.TemplateID = &template.ID
	}
	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	if template != nil {
		if err := s.materialize(ctx, userID, sessionID, template); err != nil {
			// Don't leave a half-copied session behind.
			if delErr := s.sessionRepo.Delete(ctx, sessionID); delErr != nil {
				log.Errorf("failed to clean up half-materialized session %s: %v", sessionID.Hex(), delErr)
			}
			return nil, err
		}
	}

	return s.GetSession(ctx, userID, sessionID)
}

// materialize deep-copies the template's group/exercise/set tree under the
// session. Every node gets a fresh id from the repository; nothing is shared
// with the template subtree, so mutating the session can never touch the plan.
func (s *sessionService) materialize(ctx context.Context, userID, sessionID primitive.ObjectID, template *domain.WorkoutTemplate) error {
	previous := s.loadPreviousPerformance(ctx, userID, template.ID)

	groups, err := s.templateRepo.GetGroupsByTemplateID(ctx, template.ID)
	if err != nil {
		return err
	}
	for _, tplGroup := range groups {
		group := &domain.ExerciseGroup{
			SessionID: &sessionID,
			GroupType: tplGroup.GroupType,
			Order:     tplGroup.Order,
			Name:      tplGroup.Name,
		}
		groupID, err := s.sessionRepo.CreateGroup(ctx, group)
		if err != nil {
			return err
		}

		exercises, err := s.templateRepo.GetExercisesByGroupID(ctx, tplGroup.ID)
		if err != nil {
			return err
		}
		for _, tplExercise := range exercises {
			exercise := &domain.WorkoutExercise{
				GroupID:     groupID,
				ExerciseID:  tplExercise.ExerciseID,
				Order:       tplExercise.Order,
				IsOptional:  tplExercise.IsOptional,
				Notes:       tplExercise.Notes,
				RestSeconds: tplExercise.RestSeconds,
			}
			exerciseID, err := s.sessionRepo.CreateWorkoutExercise(ctx, exercise)
			if err != nil {
				return err
			}

			setTemplates, err := s.templateRepo.GetSetTemplatesByExerciseID(ctx, tplExercise.ID)
			if err != nil {
				return err
			}
			prevSets := previous.take(tplExercise.ExerciseID)
			for i, tpl := range setTemplates {
				set := &domain.LoggedSet{
					WorkoutExerciseID: exerciseID,
					SetNumber:         tpl.SetNumber,
					SetType:           tpl.SetType,
					Side:              tpl.Side,
					TargetReps:        tpl.TargetReps,
					TargetWeight:      tpl.TargetWeight,
					TargetDistance:    tpl.TargetDistance,
					TargetSeconds:     tpl.TargetSeconds,
					TargetRPE:         tpl.TargetRPE,
				}
				if i < len(prevSets) {
					set.PreviousReps = prevSets[i].ActualReps
					set.PreviousWeight = prevSets[i].ActualWeight
				}
				if _, err := s.sessionRepo.CreateLoggedSet(ctx, set); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// previousPerformance maps a library exercise to its logged sets from the last
// completed run of the same template, one entry per occurrence of the
// exercise, consumed in template order.
type previousPerformance struct {
	byExercise map[primitive.ObjectID][][]domain.LoggedSet
}

func (p previousPerformance) take(exerciseID primitive.ObjectID) []domain.LoggedSet {
	if p.byExercise == nil {
		return nil
	}
	queue := p.byExercise[exerciseID]
	if len(queue) == 0 {
		return nil
	}
	p.byExercise[exerciseID] = queue[1:]
	return queue[0]
}

// loadPreviousPerformance back-fills previousReps/previousWeight from the most
// recent completed session of the template. Absence of history is not an
// error; the previous fields just stay empty.
func (s *sessionService) loadPreviousPerformance(ctx context.Context, userID, templateID primitive.ObjectID) previousPerformance {
	none := previousPerformance{}

	prevSession, err := s.sessionRepo.GetLatestCompletedByTemplateID(ctx, userID, templateID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Errorf("failed to load previous session for template %s: %v", templateID.Hex(), err)
		}
		return none
	}

	result := previousPerformance{byExercise: make(map[primitive.ObjectID][][]domain.LoggedSet)}
	groups, err := s.sessionRepo.GetGroupsBySessionID(ctx, prevSession.ID)
	if err != nil {
		return none
	}
	for _, group := range groups {
		exercises, err := s.sessionRepo.GetExercisesByGroupID(ctx, group.ID)
		if err != nil {
			return none
		}
		for _, exercise := range exercises {
			sets, err := s.sessionRepo.GetLoggedSetsByExerciseID(ctx, exercise.ID)
			if err != nil {
				return none
			}
			result.byExercise[exercise.ExerciseID] = append(result.byExercise[exercise.ExerciseID], sets)
		}
	}
	return result
}

// === Queries ===

func (s *sessionService) GetSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*SessionDetail, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{Session: *session}
	groups, err := s.sessionRepo.GetGroupsBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		groupDetail := SessionGroupDetail{Group: group}
		exercises, err := s.sessionRepo.GetExercisesByGroupID(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		for _, exercise := range exercises {
			sets, err := s.sessionRepo.GetLoggedSetsByExerciseID(ctx, exercise.ID)
			if err != nil {
				return nil, err
			}
			library, err := s.exerciseRepo.GetByID(ctx, exercise.ExerciseID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			groupDetail.Exercises = append(groupDetail.Exercises, SessionExerciseDetail{
				Exercise: exercise,
				Library:  library,
				Sets:     sets,
			})
		}
		detail.Groups = append(detail.Groups, groupDetail)
	}
	return detail, nil
}

func (s *sessionService) GetHistory(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error) {
	return s.sessionRepo.GetByUserID(ctx, userID, limit)
}

// === Mutator ===

func (s *sessionService) AddExercise(ctx context.Context, userID, sessionID, exerciseID primitive.ObjectID, setCount int, restSeconds *int) (*SessionGroupDetail, error) {
	session, err := s.getActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	library, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	existing, err := s.sessionRepo.GetGroupsBySessionID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	group := &domain.ExerciseGroup{
		SessionID: &session.ID,
		GroupType: domain.GroupSingle,
		Order:     len(existing),
	}
	groupID, err := s.sessionRepo.CreateGroup(ctx, group)
	if err != nil {
		return nil, err
	}

	exercise := &domain.WorkoutExercise{
		GroupID:     groupID,
		ExerciseID:  exerciseID,
		Order:       0,
		RestSeconds: restSeconds,
	}
	workoutExerciseID, err := s.sessionRepo.CreateWorkoutExercise(ctx, exercise)
	if err != nil {
		return nil, err
	}

	if setCount <= 0 {
		setCount = s.defaults.DefaultSetCount
	}
	defaultReps := s.defaults.DefaultReps
	sets := make([]domain.LoggedSet, 0, setCount)
	for n := 1; n <= setCount; n++ {
		set := &domain.LoggedSet{
			WorkoutExerciseID: workoutExerciseID,
			SetNumber:         n,
			SetType:           domain.SetWorking,
			TargetReps:        &defaultReps,
		}
		if _, err := s.sessionRepo.CreateLoggedSet(ctx, set); err != nil {
			return nil, err
		}
		sets = append(sets, *set)
	}

	return &SessionGroupDetail{
		Group: *group,
		Exercises: []SessionExerciseDetail{
			{Exercise: *exercise, Library: library, Sets: sets},
		},
	}, nil
}

// resolveSet walks a logged set up to its owning session, verifying ownership
// along the way.
func (s *sessionService) resolveSet(ctx context.Context, userID, setID primitive.ObjectID) (*domain.LoggedSet, *domain.WorkoutExercise, *domain.WorkoutSession, error) {
	set, err := s.sessionRepo.GetLoggedSetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrSetNotFound
		}
		return nil, nil, nil, err
	}
	exercise, session, err := s.resolveExercise(ctx, userID, set.WorkoutExerciseID)
	if err != nil {
		return nil, nil, nil, err
	}
	return set, exercise, session, nil
}

func (s *sessionService) resolveExercise(ctx context.Context, userID, workoutExerciseID primitive.ObjectID) (*domain.WorkoutExercise, *domain.WorkoutSession, error) {
	exercise, err := s.sessionRepo.GetWorkoutExerciseByID(ctx, workoutExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrWorkoutExerciseMissing
		}
		return nil, nil, err
	}
	group, err := s.sessionRepo.GetGroupByID(ctx, exercise.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if group.SessionID == nil {
		// Template subtrees are immutable; the mutator never touches them.
		return nil, nil, ErrWorkoutExerciseMissing
	}
	session, err := s.getOwnedSession(ctx, userID, *group.SessionID)
	if err != nil {
		return nil, nil, err
	}
	return exercise, session, nil
}

func (s *sessionService) AddSet(ctx context.Context, userID, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error) {
	exercise, session, err := s.resolveExercise(ctx, userID, workoutExerciseID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	sets, err := s.sessionRepo.GetLoggedSetsByExerciseID(ctx, exercise.ID)
	if err != nil {
		return nil, err
	}

	nextNumber := 1
	sided := false
	for _, set := range sets {
		if set.SetNumber >= nextNumber {
			nextNumber = set.SetNumber + 1
		}
		if set.Side != nil {
			sided = true
		}
	}

	if !sided {
		set := &domain.LoggedSet{
			WorkoutExerciseID: exercise.ID,
			SetNumber:         nextNumber,
			SetType:           domain.SetWorking,
		}
		seedFrom(set, lastSetForSide(sets, nil))
		if _, err := s.sessionRepo.CreateLoggedSet(ctx, set); err != nil {
			return nil, err
		}
		return []domain.LoggedSet{*set}, nil
	}

	// Side-tracked exercises always keep matching left/right pairs per set
	// number, so one logical "add set" appends both sides at once.
	created := make([]domain.LoggedSet, 0, 2)
	for _, side := range []domain.Side{domain.SideLeft, domain.SideRight} {
		side := side
		set := &domain.LoggedSet{
			WorkoutExerciseID: exercise.ID,
			SetNumber:         nextNumber,
			SetType:           domain.SetWorking,
			Side:              &side,
		}
		seedFrom(set, lastSetForSide(sets, &side))
		if _, err := s.sessionRepo.CreateLoggedSet(ctx, set); err != nil {
			return nil, err
		}
		created = append(created, *set)
	}
	return created, nil
}

// lastSetForSide returns the last set in canonical order matching the side
// (nil matches bilateral sets), falling back to the overall last set.
func lastSetForSide(sets []domain.LoggedSet, side *domain.Side) *domain.LoggedSet {
	var fallback *domain.LoggedSet
	var match *domain.LoggedSet
	for i := range sets {
		set := &sets[i]
		fallback = set
		switch {
		case side == nil && set.Side == nil:
			match = set
		case side != nil && set.Side != nil && *side == *set.Side:
			match = set
		}
	}
	if match != nil {
		return match
	}
	return fallback
}

// seedFrom copies the previous set's reps/weight/time values into a freshly
// appended set. Completion state is never copied.
func seedFrom(set *domain.LoggedSet, prev *domain.LoggedSet) {
	if prev == nil {
		return
	}
	set.SetType = prev.SetType
	set.TargetReps = prev.TargetReps
	set.TargetWeight = prev.TargetWeight
	set.TargetSeconds = prev.TargetSeconds
	set.ActualReps = prev.ActualReps
	set.ActualWeight = prev.ActualWeight
	set.ActualSeconds = prev.ActualSeconds
}

func (s *sessionService) UpdateSet(ctx context.Context, userID, setID primitive.ObjectID, update SetUpdate) (*domain.LoggedSet, error) {
	set, _, session, err := s.resolveSet(ctx, userID, setID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	set.ActualReps = update.ActualReps
	set.ActualWeight = update.ActualWeight
	set.ActualDistance = update.ActualDistance
	set.ActualSeconds = update.ActualSeconds
	set.ActualRPE = update.ActualRPE

	if err := s.sessionRepo.UpdateLoggedSet(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *sessionService) ToggleCompleted(ctx context.Context, userID, setID primitive.ObjectID) (*ToggleResult, error) {
	set, exercise, session, err := s.resolveSet(ctx, userID, setID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	result := &ToggleResult{}
	if set.IsCompleted {
		// Un-completing clears the stamp but does not retroactively cancel an
		// already-started rest timer.
		set.IsCompleted = false
		set.CompletedAt = nil
		if err := s.sessionRepo.UpdateLoggedSet(ctx, set); err != nil {
			return nil, err
		}
		result.Set = *set
		return result, nil
	}

	now := time.Now().UTC()
	set.IsCompleted = true
	set.CompletedAt = &now
	if err := s.sessionRepo.UpdateLoggedSet(ctx, set); err != nil {
		return nil, err
	}
	result.Set = *set

	restSeconds := s.defaults.DefaultRestSeconds
	if exercise.RestSeconds != nil {
		restSeconds = *exercise.RestSeconds
	}
	timer := &domain.RestTimer{TotalSeconds: restSeconds, StartedAt: now}
	s.mu.Lock()
	s.timers[session.ID] = timer
	s.mu.Unlock()
	result.RestTimer = timer

	// Signal the record collaborator. Detection failures never fail the toggle.
	records, err := s.records.CheckCompletedSet(ctx, userID, exercise.ExerciseID, set)
	if err != nil {
		log.Errorf("record detection failed for set %s: %v", set.ID.Hex(), err)
	}
	result.NewRecords = records

	return result, nil
}

func (s *sessionService) PropagateValue(ctx context.Context, userID, fromSetID primitive.ObjectID, field PropagateField, value float64) ([]domain.LoggedSet, error) {
	fromSet, exercise, session, err := s.resolveSet(ctx, userID, fromSetID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, ErrSessionNotActive
	}
	if fromSet.SetNumber != 1 || (fromSet.Side != nil && *fromSet.Side == domain.SideRight) {
		return nil, ErrPropagateNotFirstSet
	}

	sets, err := s.sessionRepo.GetLoggedSetsByExerciseID(ctx, exercise.ID)
	if err != nil {
		return nil, err
	}

	// Work strictly on sets after the source in canonical order; completed
	// sets keep their logged values.
	var updated []domain.LoggedSet
	seen := false
	for i := range sets {
		set := &sets[i]
		if set.ID == fromSet.ID {
			seen = true
			continue
		}
		if !seen || set.IsCompleted {
			continue
		}
		switch field {
		case PropagateWeight:
			v := value
			set.ActualWeight = &v
		case PropagateReps:
			v := int(value)
			set.ActualReps = &v
		case PropagateTime:
			v := int(value)
			set.ActualSeconds = &v
		}
		if err := s.sessionRepo.UpdateLoggedSet(ctx, set); err != nil {
			return updated, err
		}
		updated = append(updated, *set)
	}
	return updated, nil
}

func (s *sessionService) CreateSuperset(ctx context.Context, userID, sessionID primitive.ObjectID, groupIDs []primitive.ObjectID) (*domain.ExerciseGroup, error) {
	session, err := s.getActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	// Validate everything before the first write: a precondition violation
	// must decline the operation without any partial merge.
	if len(groupIDs) < 2 {
		return nil, ErrSupersetTooFew
	}
	seen := make(map[primitive.ObjectID]bool, len(groupIDs))
	selected := make([]*domain.ExerciseGroup, 0, len(groupIDs))
	for _, id := range groupIDs {
		if seen[id] {
			return nil, ErrSupersetDuplicateGroup
		}
		seen[id] = true

		group, err := s.sessionRepo.GetGroupByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrSupersetWrongSession
			}
			return nil, err
		}
		if group.SessionID == nil || *group.SessionID != session.ID {
			return nil, ErrSupersetWrongSession
		}
		if group.GroupType != domain.GroupSingle {
			return nil, ErrSupersetNotSingle
		}
		selected = append(selected, group)
	}

	newType := domain.GroupTriset
	if len(selected) == 2 {
		newType = domain.GroupSuperset
	}
	newOrder := selected[0].Order
	for _, group := range selected[1:] {
		if group.Order < newOrder {
			newOrder = group.Order
		}
	}

	// The merged group exists before any exercise moves and the emptied
	// groups are deleted only after every move, so an interruption at any
	// point leaves each exercise attached to exactly one group.
	merged := &domain.ExerciseGroup{
		SessionID: &session.ID,
		GroupType: newType,
		Order:     newOrder,
	}
	mergedID, err := s.sessionRepo.CreateGroup(ctx, merged)
	if err != nil {
		return nil, err
	}

	// Exercises move in selection order, renumbered 0..n-1 in the new group.
	nextOrder := 0
	for _, group := range selected {
		exercises, err := s.sessionRepo.GetExercisesByGroupID(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		for i := range exercises {
			exercise := exercises[i]
			exercise.GroupID = mergedID
			exercise.Order = nextOrder
			nextOrder++
			if err := s.sessionRepo.UpdateWorkoutExercise(ctx, &exercise); err != nil {
				return nil, err
			}
		}
	}

	for _, group := range selected {
		if err := s.sessionRepo.DeleteGroup(ctx, group.ID); err != nil {
			return nil, err
		}
	}

	if err := s.renumberGroups(ctx, session.ID); err != nil {
		return nil, err
	}

	// Re-read to pick up the renumbered order.
	return s.sessionRepo.GetGroupByID(ctx, mergedID)
}

// renumberGroups rewrites the session's sibling groups to a contiguous 0..k-1
// order sequence based on their current relative position.
func (s *sessionService) renumberGroups(ctx context.Context, sessionID primitive.ObjectID) error {
	groups, err := s.sessionRepo.GetGroupsBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	for i := range groups {
		if groups[i].Order == i {
			continue
		}
		groups[i].Order = i
		if err := s.sessionRepo.UpdateGroup(ctx, &groups[i]); err != nil {
			return err
		}
	}
	return nil
}

// === Lifecycle ===

func (s *sessionService) Finish(ctx context.Context, userID, sessionID primitive.ObjectID, rating *int) (*domain.WorkoutSession, error) {
	session, err := s.getActiveSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.Status = domain.SessionCompleted
	session.EndTime = &now
	session.Rating = rating
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	s.dropTimer(sessionID)

	if _, err := s.streaks.RecordWorkout(ctx, userID, now); err != nil {
		log.Errorf("failed to record workout for streak, user %s: %v", userID.Hex(), err)
	}

	if session.ProgramDayID != nil {
		s.advanceProgramForDay(ctx, userID, *session.ProgramDayID)
	}

	log.Infof("session %s completed for user %s", sessionID.Hex(), userID.Hex())
	return session, nil
}

// advanceProgramForDay walks the finished day up to its program and advances
// the cursor. Only training days move the cursor.
func (s *sessionService) advanceProgramForDay(ctx context.Context, userID, programDayID primitive.ObjectID) {
	day, err := s.hierarchyRepo.GetDayByID(ctx, programDayID)
	if err != nil {
		log.Errorf("failed to load program day %s: %v", programDayID.Hex(), err)
		return
	}
	if !day.IsTraining() {
		return
	}
	week, err := s.hierarchyRepo.GetWeekByID(ctx, day.WeekID)
	if err != nil {
		log.Errorf("failed to load week %s: %v", day.WeekID.Hex(), err)
		return
	}
	phase, err := s.hierarchyRepo.GetPhaseByID(ctx, week.PhaseID)
	if err != nil {
		log.Errorf("failed to load phase %s: %v", week.PhaseID.Hex(), err)
		return
	}
	if _, err := s.programs.Advance(ctx, userID, phase.ProgramID); err != nil {
		log.Errorf("failed to advance program %s: %v", phase.ProgramID.Hex(), err)
	}
}

func (s *sessionService) Cancel(ctx context.Context, userID, sessionID primitive.ObjectID) error {
	session, err := s.getActiveSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	session.Status = domain.SessionCancelled
	session.EndTime = &now
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return err
	}
	s.dropTimer(sessionID)

	// A cancelled workout leaves no trace: the whole subtree goes.
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	log.Infof("session %s cancelled and deleted for user %s", sessionID.Hex(), userID.Hex())
	return nil
}

func (s *sessionService) ActiveRestTimer(sessionID primitive.ObjectID) *domain.RestTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[sessionID]
}

func (s *sessionService) dropTimer(sessionID primitive.ObjectID) {
	s.mu.Lock()
	delete(s.timers, sessionID)
	s.mu.Unlock()
}
