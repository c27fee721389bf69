package repository

import (
	"context"

	"github.com/studyup/studyup/internal/models"
)

// SetRepository handles flashcard set data access
type SetRepository interface {
	Create(ctx context.Context, set models.FlashcardSet) error
	// Get returns nil, nil when the set does not exist.
	Get(ctx context.Context, id string) (*models.FlashcardSet, error)
	List(ctx context.Context, filter models.SetFilter) ([]models.FlashcardSet, error)
	Count(ctx context.Context, filter models.SetFilter) (int, error)
	// Rename and Delete return sql.ErrNoRows when the set does not exist.
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

// FlashcardRepository handles flashcard data access
type FlashcardRepository interface {
	// ListBySet returns the set's cards ordered by stored position, unset
	// positions last, ties by creation time.
	ListBySet(ctx context.Context, setID string) ([]models.Flashcard, error)
	// Get returns nil, nil when the card does not exist.
	Get(ctx context.Context, id string) (*models.Flashcard, error)
	// Commit applies a change set atomically: deletes, then inserts, then updates.
	Commit(ctx context.Context, cs models.ChangeSet) error
}
