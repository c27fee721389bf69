package models

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultSetTitle = "Untitled Set"

type FlashcardSet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	CardCount int       `json:"card_count"`
}

type SetFilter struct {
	Query    string
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir string
}

// ChangeSet is the unit of work produced by one store mutation.
type ChangeSet struct {
	SetID    string
	Inserted []Flashcard
	Updated  []Flashcard
	Deleted  []string
}

func (cs ChangeSet) Empty() bool {
	return len(cs.Inserted) == 0 && len(cs.Updated) == 0 && len(cs.Deleted) == 0
}

// NewID returns a URL-safe identifier for sets and cards.
func NewID() (string, error) {
	return gonanoid.New()
}

// NewFlashcardSet returns a set with a fresh ID, defaulting the title.
func NewFlashcardSet(title string) (FlashcardSet, error) {
	id, err := NewID()
	if err != nil {
		return FlashcardSet{}, err
	}
	if title == "" {
		title = DefaultSetTitle
	}
	return FlashcardSet{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}, nil
}
