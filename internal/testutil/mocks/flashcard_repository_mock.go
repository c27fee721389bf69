package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studyup/studyup/internal/models"
)

// MockFlashcardRepository is a mock implementation of repository.FlashcardRepository
type MockFlashcardRepository struct {
	mock.Mock
}

func (m *MockFlashcardRepository) ListBySet(ctx context.Context, setID string) ([]models.Flashcard, error) {
	args := m.Called(ctx, setID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flashcard), args.Error(1)
}

func (m *MockFlashcardRepository) Get(ctx context.Context, id string) (*models.Flashcard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flashcard), args.Error(1)
}

func (m *MockFlashcardRepository) Commit(ctx context.Context, cs models.ChangeSet) error {
	args := m.Called(ctx, cs)
	return args.Error(0)
}
