// Package study walks the cards of a set one at a time, flipping them and
// tallying which ones the learner knew.
package study

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/studyup/studyup/internal/models"
)

var (
	ErrSessionNotFound = errors.New("study session not found")
	ErrSessionFinished = errors.New("study session is finished")
)

type Grade int

const (
	Unknown Grade = iota
	Known
)

func (g Grade) String() string {
	if g == Known {
		return "known"
	}
	return "unknown"
}

// ParseGrade accepts "known" or "unknown", case-insensitively.
func ParseGrade(s string) (Grade, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "known":
		return Known, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid grade %q", s)
}

// State is a point-in-time view of a session.
type State struct {
	ID       string            `json:"id"`
	SetID    string            `json:"set_id"`
	Title    string            `json:"title"`
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Flipped  bool              `json:"flipped"`
	Card     *models.Flashcard `json:"card,omitempty"`
	Known    int               `json:"known"`
	Unknown  int               `json:"unknown"`
	Finished bool              `json:"finished"`
}

// Summary is shown once every card has been graded.
type Summary struct {
	SetID    string        `json:"set_id"`
	Title    string        `json:"title"`
	Total    int           `json:"total"`
	Known    int           `json:"known"`
	Unknown  int           `json:"unknown"`
	Missed   []string      `json:"missed"`
	Duration time.Duration `json:"duration_ns"`
}

// Session studies a snapshot of a set's cards. Edits made to the set after
// the session starts are not seen.
type Session struct {
	id      string
	setID   string
	title   string
	started time.Time

	mu      sync.Mutex
	cards   []models.Flashcard
	index   int
	flipped bool
	grades  map[string]Grade
	ended   time.Time
}

// NewSession starts a session over cards in the order given.
func NewSession(id, setID, title string, cards []models.Flashcard) *Session {
	snap := make([]models.Flashcard, len(cards))
	for i, c := range cards {
		snap[i] = c.Clone()
	}
	s := &Session{
		id:      id,
		setID:   setID,
		title:   title,
		started: time.Now(),
		cards:   snap,
		grades:  make(map[string]Grade, len(cards)),
	}
	if len(snap) == 0 {
		s.ended = s.started
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Flip turns the current card over.
func (s *Session) Flip() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished() {
		return s.state(), ErrSessionFinished
	}
	s.flipped = !s.flipped
	return s.state(), nil
}

// Grade records g for the current card and moves to the next one.
func (s *Session) Grade(g Grade) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished() {
		return s.state(), ErrSessionFinished
	}
	s.grades[s.cards[s.index].ID] = g
	s.index++
	s.flipped = false
	if s.finished() {
		s.ended = time.Now()
	}
	return s.state(), nil
}

// Restart begins the deck again. With unknownOnly, only the cards graded
// unknown in the previous pass are kept.
func (s *Session) Restart(unknownOnly bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if unknownOnly {
		var keep []models.Flashcard
		for _, c := range s.cards {
			if g, ok := s.grades[c.ID]; ok && g == Unknown {
				keep = append(keep, c)
			}
		}
		s.cards = keep
	}
	s.index = 0
	s.flipped = false
	s.grades = make(map[string]Grade, len(s.cards))
	s.started = time.Now()
	s.ended = time.Time{}
	if len(s.cards) == 0 {
		s.ended = s.started
	}
	return s.state()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// Summary reports the tallies so far. Duration runs until the last grade.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	known, unknown := s.tally()
	sum := Summary{
		SetID:   s.setID,
		Title:   s.title,
		Total:   len(s.cards),
		Known:   known,
		Unknown: unknown,
		Missed:  []string{},
	}
	for _, c := range s.cards {
		if g, ok := s.grades[c.ID]; ok && g == Unknown {
			sum.Missed = append(sum.Missed, c.ID)
		}
	}
	end := s.ended
	if end.IsZero() {
		end = time.Now()
	}
	sum.Duration = end.Sub(s.started)
	return sum
}

func (s *Session) finished() bool {
	return s.index >= len(s.cards)
}

func (s *Session) tally() (known, unknown int) {
	for _, g := range s.grades {
		if g == Known {
			known++
		} else {
			unknown++
		}
	}
	return known, unknown
}

func (s *Session) state() State {
	known, unknown := s.tally()
	st := State{
		ID:       s.id,
		SetID:    s.setID,
		Title:    s.title,
		Index:    s.index,
		Total:    len(s.cards),
		Flipped:  s.flipped,
		Known:    known,
		Unknown:  unknown,
		Finished: s.finished(),
	}
	if !st.Finished {
		c := s.cards[s.index].Clone()
		st.Card = &c
	}
	return st
}
