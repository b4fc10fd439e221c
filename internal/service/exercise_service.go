package service

import (
	"context"
	"errors"
	"fmt"

	"ironlog/training-app/internal/domain"
	"ironlog/training-app/internal/repository"
	"ironlog/training-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to modify or delete this exercise")
	ErrValidationFailed     = errors.New("exercise validation failed")
	ErrNoDemoMedia          = errors.New("exercise has no demo media attached")
)

// MediaUploadTicket carries a presigned upload URL plus the object key the
// client must confirm back once the upload succeeds.
type MediaUploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ExerciseService interface {
	CreateExercise(ctx context.Context, userID primitive.ObjectID, name, description string, muscleGroups []string, equipment, difficulty string) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, userID, exerciseID primitive.ObjectID, name, description string, muscleGroups []string, equipment, difficulty string) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, userID, exerciseID primitive.ObjectID) error

	// RequestDemoUpload issues a presigned URL for uploading a demo video or
	// image for the exercise. ConfirmDemoUpload stores the key after the
	// client finishes the upload.
	RequestDemoUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, contentType string) (*MediaUploadTicket, error)
	ConfirmDemoUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error)
	GetDemoDownloadURL(ctx context.Context, userID, exerciseID primitive.ObjectID) (string, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// CreateExercise adds a new exercise to the user's library.
func (s *exerciseService) CreateExercise(ctx context.Context, userID primitive.ObjectID, name, description string, muscleGroups []string, equipment, difficulty string) (*domain.Exercise, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required to create an exercise")
	}

	exercise := &domain.Exercise{
		UserID:       userID,
		Name:         name,
		Description:  description,
		MuscleGroups: muscleGroups,
		Equipment:    equipment,
		Difficulty:   difficulty,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	// Fetch again to get all DB-populated fields.
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

func (s *exerciseService) GetExercisesByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID cannot be nil")
	}
	return s.exerciseRepo.GetByUserID(ctx, userID)
}

// UpdateExercise updates an existing exercise, ensuring ownership.
func (s *exerciseService) UpdateExercise(ctx context.Context, userID, exerciseID primitive.ObjectID, name, description string, muscleGroups []string, equipment, difficulty string) (*domain.Exercise, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}

	existing, err := s.getOwned(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}

	existing.Name = name
	existing.Description = description
	existing.MuscleGroups = muscleGroups
	existing.Equipment = equipment
	existing.Difficulty = difficulty

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteExercise deletes an exercise, ensuring ownership. The repository's
// Delete filter includes the user ID, so ownership is enforced at the DB level.
func (s *exerciseService) DeleteExercise(ctx context.Context, userID, exerciseID primitive.ObjectID) error {
	existing, err := s.getOwned(ctx, userID, exerciseID)
	if err != nil {
		return err
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if existing.VideoObjectKey != "" {
		if err := s.fileStorage.DeleteObject(ctx, existing.VideoObjectKey); err != nil {
			// The exercise is gone either way; the orphaned object is the
			// only casualty.
			return nil
		}
	}
	return nil
}

// --- Demo Media ---

func (s *exerciseService) RequestDemoUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, contentType string) (*MediaUploadTicket, error) {
	if _, err := s.getOwned(ctx, userID, exerciseID); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("exercises/%s/demo/%s", exerciseID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &MediaUploadTicket{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

func (s *exerciseService) ConfirmDemoUpload(ctx context.Context, userID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error) {
	existing, err := s.getOwned(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	// Keys are always minted by RequestDemoUpload under this prefix.
	expectedPrefix := fmt.Sprintf("exercises/%s/demo/", exerciseID.Hex())
	if objectKey == "" || len(objectKey) <= len(expectedPrefix) || objectKey[:len(expectedPrefix)] != expectedPrefix {
		return nil, ErrValidationFailed
	}

	previousKey := existing.VideoObjectKey
	existing.VideoObjectKey = objectKey
	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	if previousKey != "" && previousKey != objectKey {
		_ = s.fileStorage.DeleteObject(ctx, previousKey)
	}
	return existing, nil
}

func (s *exerciseService) GetDemoDownloadURL(ctx context.Context, userID, exerciseID primitive.ObjectID) (string, error) {
	existing, err := s.getOwned(ctx, userID, exerciseID)
	if err != nil {
		return "", err
	}
	if existing.VideoObjectKey == "" {
		return "", ErrNoDemoMedia
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, existing.VideoObjectKey, storage.DefaultPresignedURLExpiry)
}

func (s *exerciseService) getOwned(ctx context.Context, userID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrExerciseAccessDenied
	}
	return existing, nil
}
