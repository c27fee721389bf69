package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studyup/studyup/internal/models"
)

// MockPersister is a mock implementation of store.Persister
type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) Persist(ctx context.Context, cs models.ChangeSet) error {
	args := m.Called(ctx, cs)
	return args.Error(0)
}
