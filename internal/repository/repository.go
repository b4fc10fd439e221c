package repository

import (
	"context"

	"ironlog/training-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository defines the interface for the exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error // Ensure the user owns the exercise
}

// ProgramRepository defines the interface for program roots. Delete cascades
// through the whole Phase/Week/Day/Template subtree.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error)
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	DeactivateOthers(ctx context.Context, userID, excludeProgramID primitive.ObjectID) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// HierarchyRepository stores the Phase/Week/Day tree under a program. Child
// collections are kept unsorted in storage; every accessor returns an
// order-by-key view so stored order can never drift from query order.
type HierarchyRepository interface {
	CreatePhase(ctx context.Context, phase *domain.Phase) (primitive.ObjectID, error)
	CreateWeek(ctx context.Context, week *domain.Week) (primitive.ObjectID, error)
	CreateDay(ctx context.Context, day *domain.ProgramDay) (primitive.ObjectID, error)

	GetPhasesByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.Phase, error)
	GetWeeksByPhaseID(ctx context.Context, phaseID primitive.ObjectID) ([]domain.Week, error)
	GetDaysByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.ProgramDay, error)

	GetPhaseByID(ctx context.Context, id primitive.ObjectID) (*domain.Phase, error)
	GetWeekByID(ctx context.Context, id primitive.ObjectID) (*domain.Week, error)
	GetDayByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramDay, error)
}

// TemplateRepository stores workout templates and their planned subtree
// (groups, exercises, set templates). Templates are written once at import and
// read by the session materializer.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.WorkoutTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	GetByProgramDayID(ctx context.Context, programDayID primitive.ObjectID) (*domain.WorkoutTemplate, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutTemplate, error)

	CreateGroup(ctx context.Context, group *domain.ExerciseGroup) (primitive.ObjectID, error)
	CreateWorkoutExercise(ctx context.Context, exercise *domain.WorkoutExercise) (primitive.ObjectID, error)
	CreateSetTemplate(ctx context.Context, set *domain.SetTemplate) (primitive.ObjectID, error)

	GetGroupsByTemplateID(ctx context.Context, templateID primitive.ObjectID) ([]domain.ExerciseGroup, error)
	GetExercisesByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.WorkoutExercise, error)
	GetSetTemplatesByExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.SetTemplate, error)
}

// SessionRepository stores workout sessions and their mutable subtree.
// Delete cascades through groups, exercises and logged sets.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error)
	GetLatestCompletedByTemplateID(ctx context.Context, userID, templateID primitive.ObjectID) (*domain.WorkoutSession, error)
	Update(ctx context.Context, session *domain.WorkoutSession) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	CreateGroup(ctx context.Context, group *domain.ExerciseGroup) (primitive.ObjectID, error)
	UpdateGroup(ctx context.Context, group *domain.ExerciseGroup) error
	DeleteGroup(ctx context.Context, id primitive.ObjectID) error
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseGroup, error)
	GetGroupsBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.ExerciseGroup, error)

	CreateWorkoutExercise(ctx context.Context, exercise *domain.WorkoutExercise) (primitive.ObjectID, error)
	UpdateWorkoutExercise(ctx context.Context, exercise *domain.WorkoutExercise) error
	GetWorkoutExerciseByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutExercise, error)
	GetExercisesByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.WorkoutExercise, error)

	CreateLoggedSet(ctx context.Context, set *domain.LoggedSet) (primitive.ObjectID, error)
	UpdateLoggedSet(ctx context.Context, set *domain.LoggedSet) error
	GetLoggedSetByID(ctx context.Context, id primitive.ObjectID) (*domain.LoggedSet, error)
	GetLoggedSetsByExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error)
}

// StatsRepository stores the per-user UserStats singleton. GetOrCreate returns
// the existing row or lazily inserts a zeroed one.
type StatsRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserStats, error)
	Update(ctx context.Context, stats *domain.UserStats) error
}

// RecordRepository stores personal records.
type RecordRepository interface {
	Create(ctx context.Context, record *domain.PersonalRecord) (primitive.ObjectID, error)
	GetBest(ctx context.Context, userID, exerciseID primitive.ObjectID, recordType domain.RecordType) (*domain.PersonalRecord, error)
	GetByExerciseID(ctx context.Context, userID, exerciseID primitive.ObjectID) ([]domain.PersonalRecord, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error)
}
