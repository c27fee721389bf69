package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studyup/studyup/internal/models"
)

// MockSetRepository is a mock implementation of repository.SetRepository
type MockSetRepository struct {
	mock.Mock
}

func (m *MockSetRepository) Create(ctx context.Context, set models.FlashcardSet) error {
	args := m.Called(ctx, set)
	return args.Error(0)
}

func (m *MockSetRepository) Get(ctx context.Context, id string) (*models.FlashcardSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlashcardSet), args.Error(1)
}

func (m *MockSetRepository) List(ctx context.Context, filter models.SetFilter) ([]models.FlashcardSet, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlashcardSet), args.Error(1)
}

func (m *MockSetRepository) Count(ctx context.Context, filter models.SetFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockSetRepository) Rename(ctx context.Context, id, title string) error {
	args := m.Called(ctx, id, title)
	return args.Error(0)
}

func (m *MockSetRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
