package models

import "time"

const (
	DefaultQuestion = "New Question"
	DefaultAnswer   = "New Answer"

	// MaxTextLength caps a question or answer, in characters.
	MaxTextLength = 2000
)

type Flashcard struct {
	ID        string    `json:"id"`
	SetID     string    `json:"set_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Position  *int      `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFlashcard returns an unplaced card with a fresh ID. Empty text falls back
// to the placeholder strings.
func NewFlashcard(question, answer string) (Flashcard, error) {
	id, err := NewID()
	if err != nil {
		return Flashcard{}, err
	}
	if question == "" {
		question = DefaultQuestion
	}
	if answer == "" {
		answer = DefaultAnswer
	}
	return Flashcard{
		ID:        id,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// HasPosition reports whether the card has been given a rank.
func (c Flashcard) HasPosition() bool {
	return c.Position != nil
}

// PositionOr returns the stored position, or def when it is unassigned.
func (c Flashcard) PositionOr(def int) int {
	if c.Position == nil {
		return def
	}
	return *c.Position
}

// SetPosition stores p and reports whether the value changed.
func (c *Flashcard) SetPosition(p int) bool {
	if c.Position != nil && *c.Position == p {
		return false
	}
	c.Position = &p
	return true
}

// Clone returns a copy that shares no memory with c.
func (c Flashcard) Clone() Flashcard {
	if c.Position != nil {
		p := *c.Position
		c.Position = &p
	}
	return c
}

// Pos is a helper for building cards with a literal position.
func Pos(p int) *int {
	return &p
}
