package service

import (
	"context"
	"errors"
	"time"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProgramNotFound    = errors.New("program not found")
	ErrProgramNotOwned    = errors.New("program does not belong to this user")
	ErrNoActiveProgram    = errors.New("no active program")
	ErrEmptyProgram       = errors.New("program must contain at least one phase, week and day")
	ErrUnknownExerciseRef = errors.New("imported template references an unknown library exercise")
)

// --- Import DTOs ---
// The import collaborator hands over a fully-materialized tree, already
// resolved against the exercise library. No serialization format is assumed
// beyond these structs.

type ProgramImport struct {
	Name          string        `json:"name" binding:"required"`
	ScheduledDays []int         `json:"scheduledDays,omitempty"`
	StartDate     time.Time     `json:"startDate"`
	Activate      bool          `json:"activate"`
	Phases        []PhaseImport `json:"phases" binding:"required"`
}

type PhaseImport struct {
	Name  string       `json:"name"`
	Order int          `json:"order"`
	Weeks []WeekImport `json:"weeks"`
}

type WeekImport struct {
	WeekNumber int         `json:"weekNumber"`
	Days       []DayImport `json:"days"`
}

type DayImport struct {
	DayNumber int             `json:"dayNumber"`
	DayType   domain.DayType  `json:"dayType"`
	Template  *TemplateImport `json:"template,omitempty"`
}

type TemplateImport struct {
	Name          string        `json:"name"`
	EstimatedMins int           `json:"estimatedMins,omitempty"`
	Groups        []GroupImport `json:"groups"`
}

type GroupImport struct {
	GroupType domain.GroupType       `json:"groupType"`
	Order     int                    `json:"order"`
	Name      string                 `json:"name,omitempty"`
	Exercises []WorkoutExerciseImport `json:"exercises"`
}

type WorkoutExerciseImport struct {
	ExerciseID  primitive.ObjectID `json:"exerciseId"`
	Order       int                `json:"order"`
	IsOptional  bool               `json:"isOptional,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	RestSeconds *int               `json:"restSeconds,omitempty"`
	Sets        []SetImport        `json:"sets"`
}

type SetImport struct {
	SetNumber      int            `json:"setNumber"`
	SetType        domain.SetType `json:"setType"`
	Side           *domain.Side   `json:"side,omitempty"`
	TargetReps     *int           `json:"targetReps,omitempty"`
	TargetWeight   *float64       `json:"targetWeight,omitempty"`
	TargetDistance *float64       `json:"targetDistance,omitempty"`
	TargetSeconds  *int           `json:"targetSeconds,omitempty"`
	TargetRPE      *float64       `json:"targetRpe,omitempty"`
}

// CurrentDayInfo is the answer to "what is today's workout".
type CurrentDayInfo struct {
	Finished  bool                    `json:"finished"`
	Day       *domain.ProgramDay      `json:"day,omitempty"`
	Template  *domain.WorkoutTemplate `json:"template,omitempty"`
	Paused    bool                    `json:"paused"`
	Scheduled bool                    `json:"scheduledToday"`
	NextDate  *time.Time              `json:"nextScheduledDate,omitempty"`
}

// ProgramService owns the program hierarchy and the progress cursor: it knows
// where the user is inside a plan and governs advance/skip/pause/resume.
type ProgramService interface {
	ImportProgram(ctx context.Context, userID primitive.ObjectID, imp ProgramImport) (*domain.Program, error)
	GetPrograms(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error)
	GetProgram(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error)
	GetActiveProgram(ctx context.Context, userID primitive.ObjectID) (*domain.Program, error)
	ActivateProgram(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error)
	DeleteProgram(ctx context.Context, userID, programID primitive.ObjectID) error

	// CurrentDay resolves the cursor against the order-sorted hierarchy. An
	// out-of-range cursor yields Finished=true rather than an error.
	CurrentDay(ctx context.Context, userID, programID primitive.ObjectID) (*CurrentDayInfo, error)

	// Advance moves the cursor past the current day, rolling week and phase
	// boundaries. Called on workout completion for a training day.
	Advance(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error)

	// SkipToday shifts scheduling by delayDays without touching the cursor.
	SkipToday(ctx context.Context, userID, programID primitive.ObjectID, delayDays int) (*domain.Program, error)

	Pause(ctx context.Context, userID, programID primitive.ObjectID, until time.Time, mode domain.PauseResumeMode) (*domain.Program, error)
	Resume(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error)

	// Progress returns the ratio of training days strictly before the cursor
	// to total training days; 0 when the plan has no training days.
	Progress(ctx context.Context, userID, programID primitive.ObjectID) (float64, error)
}

// programService implements the ProgramService interface.
type programService struct {
	programRepo   repository.ProgramRepository
	hierarchyRepo repository.HierarchyRepository
	templateRepo  repository.TemplateRepository
	exerciseRepo  repository.ExerciseRepository
	streaks       StreakService
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	programRepo repository.ProgramRepository,
	hierarchyRepo repository.HierarchyRepository,
	templateRepo repository.TemplateRepository,
	exerciseRepo repository.ExerciseRepository,
	streaks StreakService,
) ProgramService {
	return &programService{
		programRepo:   programRepo,
		hierarchyRepo: hierarchyRepo,
		templateRepo:  templateRepo,
		exerciseRepo:  exerciseRepo,
		streaks:       streaks,
	}
}

// getOwned loads a program and verifies ownership.
func (s *programService) getOwned(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.UserID != userID {
		return nil, ErrProgramNotOwned
	}
	return program, nil
}

// === Import ===

// ImportProgram persists a fully-materialized program tree handed over by the
// import collaborator. Library exercise references are verified before any
// write. Activation deactivates every other program of the user.
func (s *programService) ImportProgram(ctx context.Context, userID primitive.ObjectID, imp ProgramImport) (*domain.Program, error) {
	if len(imp.Phases) == 0 {
		return nil, ErrEmptyProgram
	}
	if err := s.verifyExerciseRefs(ctx, imp); err != nil {
		return nil, err
	}

	startDate := imp.StartDate
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}
	program := &domain.Program{
		UserID:        userID,
		Name:          imp.Name,
		ScheduledDays: imp.ScheduledDays,
		StartDate:     startDate,
		IsActive:      imp.Activate,
	}
	programID, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, err
	}

	for _, phaseImp := range imp.Phases {
		phase := &domain.Phase{ProgramID: programID, Name: phaseImp.Name, Order: phaseImp.Order}
		phaseID, err := s.hierarchyRepo.CreatePhase(ctx, phase)
		if err != nil {
			return nil, err
		}
		for _, weekImp := range phaseImp.Weeks {
			week := &domain.Week{PhaseID: phaseID, WeekNumber: weekImp.WeekNumber}
			weekID, err := s.hierarchyRepo.CreateWeek(ctx, week)
			if err != nil {
				return nil, err
			}
			for _, dayImp := range weekImp.Days {
				day := &domain.ProgramDay{WeekID: weekID, DayNumber: dayImp.DayNumber, DayType: dayImp.DayType}
				dayID, err := s.hierarchyRepo.CreateDay(ctx, day)
				if err != nil {
					return nil, err
				}
				if dayImp.Template != nil {
					if err := s.importTemplate(ctx, userID, dayID, *dayImp.Template); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if imp.Activate {
		if err := s.programRepo.DeactivateOthers(ctx, userID, programID); err != nil {
			log.Errorf("failed to deactivate other programs for user %s: %v", userID.Hex(), err)
		}
	}

	log.Infof("imported program %s (%d phases) for user %s", program.Name, len(imp.Phases), userID.Hex())
	return program, nil
}

// verifyExerciseRefs checks every library exercise reference up front, so a
// bad import is rejected before the first write.
func (s *programService) verifyExerciseRefs(ctx context.Context, imp ProgramImport) error {
	seen := make(map[primitive.ObjectID]bool)
	for _, phase := range imp.Phases {
		for _, week := range phase.Weeks {
			for _, day := range week.Days {
				if day.Template == nil {
					continue
				}
				for _, group := range day.Template.Groups {
					for _, we := range group.Exercises {
						if seen[we.ExerciseID] {
							continue
						}
						if _, err := s.exerciseRepo.GetByID(ctx, we.ExerciseID); err != nil {
							if errors.Is(err, repository.ErrNotFound) {
								return ErrUnknownExerciseRef
							}
							return err
						}
						seen[we.ExerciseID] = true
					}
				}
			}
		}
	}
	return nil
}

func (s *programService) importTemplate(ctx context.Context, userID, dayID primitive.ObjectID, imp TemplateImport) error {
	template := &domain.WorkoutTemplate{
		UserID:        userID,
		ProgramDayID:  &dayID,
		Name:          imp.Name,
		EstimatedMins: imp.EstimatedMins,
	}
	templateID, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return err
	}

	for _, groupImp := range imp.Groups {
		group := &domain.ExerciseGroup{
			TemplateID: &templateID,
			GroupType:  groupImp.GroupType,
			Order:      groupImp.Order,
			Name:       groupImp.Name,
		}
		groupID, err := s.templateRepo.CreateGroup(ctx, group)
		if err != nil {
			return err
		}
		for _, weImp := range groupImp.Exercises {
			we := &domain.WorkoutExercise{
				GroupID:     groupID,
				ExerciseID:  weImp.ExerciseID,
				Order:       weImp.Order,
				IsOptional:  weImp.IsOptional,
				Notes:       weImp.Notes,
				RestSeconds: weImp.RestSeconds,
			}
			weID, err := s.templateRepo.CreateWorkoutExercise(ctx, we)
			if err != nil {
				return err
			}
			for _, setImp := range weImp.Sets {
				set := &domain.SetTemplate{
					WorkoutExerciseID: weID,
					SetNumber:         setImp.SetNumber,
					SetType:           setImp.SetType,
					Side:              setImp.Side,
					TargetReps:        setImp.TargetReps,
					TargetWeight:      setImp.TargetWeight,
					TargetDistance:    setImp.TargetDistance,
					TargetSeconds:     setImp.TargetSeconds,
					TargetRPE:         setImp.TargetRPE,
				}
				if _, err := s.templateRepo.CreateSetTemplate(ctx, set); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// === Queries ===

func (s *programService) GetPrograms(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error) {
	return s.programRepo.GetByUserID(ctx, userID)
}

func (s *programService) GetProgram(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error) {
	return s.getOwned(ctx, userID, programID)
}

func (s *programService) GetActiveProgram(ctx context.Context, userID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveProgram
		}
		return nil, err
	}
	return program, nil
}

func (s *programService) ActivateProgram(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.getOwned(ctx, userID, programID)
	if err != nil {
		return nil, err
	}
	program.IsActive = true
	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}
	if err := s.programRepo.DeactivateOthers(ctx, userID, programID); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *programService) DeleteProgram(ctx context.Context, userID, programID primitive.ObjectID) error {
	return s.programRepo.Delete(ctx, programID, userID)
}

// resolveCursor walks the sorted hierarchy down to the day the cursor points
// at. A nil day with nil error means the plan is finished.
func (s *programService) resolveCursor(ctx context.Context, program *domain.Program) (*domain.ProgramDay, error) {
	phases, err := s.hierarchyRepo.GetPhasesByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	if program.CurrentPhaseIndex < 0 || program.CurrentPhaseIndex >= len(phases) {
		return nil, nil
	}
	weeks, err := s.hierarchyRepo.GetWeeksByPhaseID(ctx, phases[program.CurrentPhaseIndex].ID)
	if err != nil {
		return nil, err
	}
	if program.CurrentWeekIndex < 0 || program.CurrentWeekIndex >= len(weeks) {
		return nil, nil
	}
	days, err := s.hierarchyRepo.GetDaysByWeekID(ctx, weeks[program.CurrentWeekIndex].ID)
	if err != nil {
		return nil, err
	}
	if program.CurrentDayIndex < 0 || program.CurrentDayIndex >= len(days) {
		return nil, nil
	}
	day := days[program.CurrentDayIndex]
	return &day, nil
}

func (s *programService) CurrentDay(ctx context.Context, userID, programID primitive.ObjectID) (*CurrentDayInfo, error) {
	program, err := s.getOwned(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	info := &CurrentDayInfo{
		Paused:    program.IsPaused(now),
		Scheduled: program.IsScheduledOn(now),
		NextDate:  program.NextScheduledDate(now),
	}

	day, err := s.resolveCursor(ctx, program)
	if err != nil {
		return nil, err
	}
	if day == nil {
		info.Finished = true
		return info, nil
	}
	info.Day = day

	template, err := s.templateRepo.GetByProgramDayID(ctx, day.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	info.Template = template // nil for rest/recovery days without a template
	return info, nil
}

func (s *programService) Advance(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.getOwned(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	phases, err := s.hierarchyRepo.GetPhasesByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	if program.CurrentPhaseIndex >= len(phases) {
		// Already past the end; the plan is finished and advance is a no-op.
		return program, nil
	}
	weeks, err := s.hierarchyRepo.GetWeeksByPhaseID(ctx, phases[program.CurrentPhaseIndex].ID)
	if err != nil {
		return nil, err
	}
	var days []domain.ProgramDay
	if program.CurrentWeekIndex < len(weeks) {
		days, err = s.hierarchyRepo.GetDaysByWeekID(ctx, weeks[program.CurrentWeekIndex].ID)
		if err != nil {
			return nil, err
		}
	}

	if program.CurrentDayIndex >= len(days) &&
		program.CurrentWeekIndex+1 >= len(weeks) &&
		program.CurrentPhaseIndex+1 >= len(phases) {
		// The day index already ran past the end with nothing left to roll
		// into; the plan is finished and advance is a no-op.
		return program, nil
	}

	switch {
	case program.CurrentDayIndex+1 < len(days):
		program.CurrentDayIndex++
	case program.CurrentWeekIndex+1 < len(weeks):
		program.CurrentWeekIndex++
		program.CurrentDayIndex = 0
	case program.CurrentPhaseIndex+1 < len(phases):
		program.CurrentPhaseIndex++
		program.CurrentWeekIndex = 0
		program.CurrentDayIndex = 0
	default:
		// Last day of the plan: let the day index run past the end. The
		// out-of-range cursor is the terminal "plan finished" state.
		program.CurrentDayIndex++
	}

	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *programService) SkipToday(ctx context.Context, userID, programID primitive.ObjectID, delayDays int) (*domain.Program, error) {
	program, err := s.getOwned(ctx, userID, programID)
	if err != nil {
		return nil, err
	}
	if delayDays < 1 {
		delayDays = 1
	}

	// A skip is a short schedule shift: push pausedUntil out without touching
	// the cursor or the resume mode.
	now := time.Now().UTC()
	until := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, delayDays)
	program.PausedUntil = &until

	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *programService) Pause(ctx context.Context, userID, programID primitive.ObjectID, until time.Time, mode domain.PauseResumeMode) (*domain.Program, error) {
	program, err := s.getOwned(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	program.PausedUntil = &until
	program.PauseResumeMode = mode
	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}

	// The streak survives the rest period.
	if err := s.streaks.Freeze(ctx, userID); err != nil {
		log.Errorf("failed to freeze streak for user %s: %v", userID.Hex(), err)
	}
	return program, nil
}

func (s *programService) Resume(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.getOwned(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	program.PausedUntil = nil
	switch program.PauseResumeMode {
	case domain.ResumeRestartWeek:
		program.CurrentDayIndex = 0
	case domain.ResumeBackOneWeek:
		if err := s.stepBackOneWeek(ctx, program); err != nil {
			return nil, err
		}
	default:
		// continueWhereLeft (or unset): cursor untouched.
	}

	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}

	if err := s.streaks.Unfreeze(ctx, userID); err != nil {
		log.Errorf("failed to unfreeze streak for user %s: %v", userID.Hex(), err)
	}
	return program, nil
}

// stepBackOneWeek rewinds the cursor one week, crossing the phase boundary
// when needed and clamping at the very start of the plan. The day index is
// always reset.
func (s *programService) stepBackOneWeek(ctx context.Context, program *domain.Program) error {
	program.CurrentDayIndex = 0
	if program.CurrentWeekIndex > 0 {
		program.CurrentWeekIndex--
		return nil
	}
	if program.CurrentPhaseIndex == 0 {
		return nil // already at the first week of the first phase
	}

	phases, err := s.hierarchyRepo.GetPhasesByProgramID(ctx, program.ID)
	if err != nil {
		return err
	}
	prevPhaseIdx := program.CurrentPhaseIndex - 1
	if prevPhaseIdx >= len(phases) {
		return nil
	}
	weeks, err := s.hierarchyRepo.GetWeeksByPhaseID(ctx, phases[prevPhaseIdx].ID)
	if err != nil {
		return err
	}
	program.CurrentPhaseIndex = prevPhaseIdx
	if len(weeks) > 0 {
		program.CurrentWeekIndex = len(weeks) - 1
	} else {
		program.CurrentWeekIndex = 0
	}
	return nil
}

func (s *programService) Progress(ctx context.Context, userID, programID primitive.ObjectID) (float64, error) {
	program, err := s.getOwned(ctx, userID, programID)
	if err != nil {
		return 0, err
	}

	phases, err := s.hierarchyRepo.GetPhasesByProgramID(ctx, program.ID)
	if err != nil {
		return 0, err
	}

	var total, before int
	for pi, phase := range phases {
		weeks, err := s.hierarchyRepo.GetWeeksByPhaseID(ctx, phase.ID)
		if err != nil {
			return 0, err
		}
		for wi, week := range weeks {
			days, err := s.hierarchyRepo.GetDaysByWeekID(ctx, week.ID)
			if err != nil {
				return 0, err
			}
			for di, day := range days {
				if !day.IsTraining() {
					continue
				}
				total++
				if cursorAfter(program, pi, wi, di) {
					before++
				}
			}
		}
	}

	if total == 0 {
		return 0, nil
	}
	return float64(before) / float64(total), nil
}

// cursorAfter reports whether the cursor is strictly past position (pi, wi, di).
func cursorAfter(p *domain.Program, pi, wi, di int) bool {
	if p.CurrentPhaseIndex != pi {
		return p.CurrentPhaseIndex > pi
	}
	if p.CurrentWeekIndex != wi {
		return p.CurrentWeekIndex > wi
	}
	return p.CurrentDayIndex > di
}
