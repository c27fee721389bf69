// Package store holds the in-memory ordered card sequence of one flashcard set.
//
// A Store is the only writer of its cards' positions. Every mutation runs
// under the store's lock, keeps positions equal to array indices, and hands
// the resulting change set to a Persister before the lock is released. That
// hand-off happens on every exit path, including no-ops, and its failure
// never rolls back the in-memory change.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/ordering"
)

var (
	// ErrNotFound is returned by lookups for a card that is not in the set.
	ErrNotFound = errors.New("flashcard not found")
	// ErrOutOfRange is returned by TryInsert and TryMove for a bad index.
	ErrOutOfRange = errors.New("index out of range")
)

// Persister receives the change set of each mutation.
type Persister interface {
	Persist(ctx context.Context, cs models.ChangeSet) error
}

// NopPersister discards every change set.
type NopPersister struct{}

func (NopPersister) Persist(context.Context, models.ChangeSet) error { return nil }

type Store struct {
	setID   string
	persist Persister

	mu    sync.Mutex
	cards []*models.Flashcard
}

// New returns an empty store for setID.
func New(setID string, p Persister) *Store {
	if p == nil {
		p = NopPersister{}
	}
	return &Store{setID: setID, persist: p}
}

// Load builds a store from cards read back from storage. The cards are
// normalized and any repaired positions are persisted.
func Load(ctx context.Context, setID string, cards []models.Flashcard, p Persister) *Store {
	s := New(setID, p)
	log := s.logger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	cs := models.ChangeSet{SetID: setID}
	defer s.save(ctx, &cs)

	loaded := make([]*models.Flashcard, 0, len(cards))
	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		c := c.Clone()
		s.claim(&c, seen)
		loaded = append(loaded, &c)
	}

	res := ordering.Normalize(loaded, nil)
	s.cards = res.Order
	cs.Updated = snapshot(res.Changed)
	if len(res.Changed) > 0 {
		log.Info("repaired %d card positions on load", len(res.Changed))
	}
	return s
}

// SetID returns the ID of the set the store belongs to.
func (s *Store) SetID() string {
	return s.setID
}

// Append adds card at the end of the sequence.
func (s *Store) Append(ctx context.Context, card models.Flashcard) (models.Flashcard, error) {
	return s.Insert(ctx, card, ordering.Back())
}

// InsertFront adds card at index 0, shifting every other card by one.
func (s *Store) InsertFront(ctx context.Context, card models.Flashcard) (models.Flashcard, error) {
	return s.Insert(ctx, card, ordering.Front())
}

// Insert adds card where placement asks. An empty ID is filled in and a zero
// CreatedAt is set to now. A duplicate ID, a card owned by another set, or an
// At index past the end panics.
func (s *Store) Insert(ctx context.Context, card models.Flashcard, placement ordering.Placement) (models.Flashcard, error) {
	c, err := s.TryInsert(ctx, card, placement)
	if errors.Is(err, ErrOutOfRange) {
		panic("store: " + err.Error())
	}
	return c, err
}

// TryInsert is Insert, except that an At index outside 0..Len() is reported
// as ErrOutOfRange instead of panicking.
func (s *Store) TryInsert(ctx context.Context, card models.Flashcard, placement ordering.Placement) (models.Flashcard, error) {
	log := s.logger(ctx)

	if card.ID == "" {
		id, err := models.NewID()
		if err != nil {
			return models.Flashcard{}, fmt.Errorf("generate card id: %w", err)
		}
		card.ID = id
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}
	card = card.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	cs := models.ChangeSet{SetID: s.setID}
	defer s.save(ctx, &cs)

	if s.indexOf(card.ID) >= 0 {
		panic(fmt.Sprintf("store: card %s is already in set %s", card.ID, s.setID))
	}
	s.claim(&card, nil)

	if placement.Kind == ordering.KindAt && (placement.Index < 0 || placement.Index > len(s.cards)) {
		return models.Flashcard{}, fmt.Errorf("%w: %s for %d cards", ErrOutOfRange, placement, len(s.cards))
	}
	if placement.Kind == ordering.KindNone {
		placement = ordering.Back()
	}
	all := append(slices.Clip(s.cards), &card)
	res := ordering.Normalize(all, map[string]ordering.Placement{card.ID: placement})
	s.cards = res.Order

	cs.Inserted = []models.Flashcard{card.Clone()}
	for _, c := range res.Changed {
		if c.ID != card.ID {
			cs.Updated = append(cs.Updated, c.Clone())
		}
	}

	log.Debug("inserted card %s at %s, index %d, %d cards shifted", card.ID, placement, *card.Position, len(cs.Updated))
	return card.Clone(), nil
}

// Remove deletes the card with id and renumbers the rest. An unknown id is
// logged and ignored; the result reports whether a card was removed.
func (s *Store) Remove(ctx context.Context, id string) bool {
	log := s.logger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	cs := models.ChangeSet{SetID: s.setID}
	defer s.save(ctx, &cs)

	i := s.indexOf(id)
	if i < 0 {
		log.Warn("remove: card %s is not in the set, ignoring", id)
		return false
	}

	s.cards = slices.Delete(s.cards, i, i+1)
	cs.Deleted = []string{id}
	cs.Updated = snapshot(ordering.Renumber(s.cards))

	log.Debug("removed card %s from index %d, %d cards renumbered", id, i, len(cs.Updated))
	return true
}

// Move relocates the card at index from so that it ends at index to. Either
// index out of range panics.
func (s *Store) Move(ctx context.Context, from, to int) {
	if err := s.TryMove(ctx, from, to); err != nil {
		panic("store: " + err.Error())
	}
}

// TryMove is Move, reporting a bad index as ErrOutOfRange.
func (s *Store) TryMove(ctx context.Context, from, to int) error {
	log := s.logger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	cs := models.ChangeSet{SetID: s.setID}
	defer s.save(ctx, &cs)

	n := len(s.cards)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move(%d, %d) for %d cards", ErrOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}

	c := s.cards[from]
	s.cards = slices.Delete(s.cards, from, from+1)
	s.cards = slices.Insert(s.cards, to, c)
	cs.Updated = snapshot(ordering.Renumber(s.cards))

	log.Debug("moved card %s from %d to %d", c.ID, from, to)
	return nil
}

// Reindex rewrites positions from the current sequence order and returns how
// many cards changed. A second call in a row returns 0.
func (s *Store) Reindex(ctx context.Context) int {
	log := s.logger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	cs := models.ChangeSet{SetID: s.setID}
	defer s.save(ctx, &cs)

	cs.Updated = snapshot(ordering.Renumber(s.cards))
	if len(cs.Updated) > 0 {
		log.Info("reindex corrected %d positions", len(cs.Updated))
	}
	return len(cs.Updated)
}

// Edit replaces the text of a card in place. A nil question or answer keeps
// the current text.
func (s *Store) Edit(ctx context.Context, id string, question, answer *string) (models.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := models.ChangeSet{SetID: s.setID}
	defer s.save(ctx, &cs)

	i := s.indexOf(id)
	if i < 0 {
		return models.Flashcard{}, ErrNotFound
	}
	c := s.cards[i]
	q, a := c.Question, c.Answer
	if question != nil {
		q = *question
	}
	if answer != nil {
		a = *answer
	}
	if c.Question == q && c.Answer == a {
		return c.Clone(), nil
	}
	c.Question = q
	c.Answer = a
	cs.Updated = []models.Flashcard{c.Clone()}
	return c.Clone(), nil
}

// Cards returns a copy of the ordered sequence.
func (s *Store) Cards() []models.Flashcard {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := snapshot(s.cards)
	if out == nil {
		out = []models.Flashcard{}
	}
	return out
}

// Card returns a copy of the card with id.
func (s *Store) Card(id string) (models.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Flashcard{}, ErrNotFound
	}
	return s.cards[i].Clone(), nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// save hands cs to the persister. Callers hold s.mu.
func (s *Store) save(ctx context.Context, cs *models.ChangeSet) {
	log := s.logger(ctx)

	if log.Enabled(logger.DEBUG) {
		if err := ordering.Validate(snapshot(s.cards)); err != nil {
			log.Debug("sequence is not dense after mutation: %v", err)
		}
	}
	if err := s.persist.Persist(ctx, *cs); err != nil {
		log.WithError(err).Error("failed to persist changes (%d inserted, %d updated, %d deleted)",
			len(cs.Inserted), len(cs.Updated), len(cs.Deleted))
	}
}

// claim binds c to this set. seen, when non-nil, tracks IDs for a bulk load.
func (s *Store) claim(c *models.Flashcard, seen map[string]bool) {
	if c.SetID != "" && c.SetID != s.setID {
		panic(fmt.Sprintf("store: card %s belongs to set %s, not %s", c.ID, c.SetID, s.setID))
	}
	c.SetID = s.setID
	if seen != nil {
		if seen[c.ID] {
			panic(fmt.Sprintf("store: duplicate card %s in set %s", c.ID, s.setID))
		}
		seen[c.ID] = true
	}
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.cards, func(c *models.Flashcard) bool { return c.ID == id })
}

func (s *Store) logger(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx).WithPrefix("store").WithField("set_id", s.setID)
}

func snapshot(cards []*models.Flashcard) []models.Flashcard {
	if len(cards) == 0 {
		return nil
	}
	out := make([]models.Flashcard, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}
