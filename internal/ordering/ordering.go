// Package ordering computes the canonical order of the cards in a set.
//
// Every structural change to a set (append, prepend, delete, reorder) ends in
// a call to Normalize or Renumber. Both are pure: they rewrite the Position
// field of the cards they are given and report which cards changed, but they
// never touch storage.
package ordering

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/studyup/studyup/internal/models"
)

// Kind tags a placement request.
type Kind int

const (
	KindNone Kind = iota
	KindFront
	KindBack
	KindAt
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFront:
		return "front"
	case KindBack:
		return "back"
	case KindAt:
		return "at"
	default:
		return "unknown"
	}
}

// Placement asks for a card to land in a relative slot before its real
// position is computed. It is never stored in the position field.
type Placement struct {
	Kind  Kind
	Index int
}

func Front() Placement { return Placement{Kind: KindFront} }
func Back() Placement  { return Placement{Kind: KindBack} }
func At(n int) Placement {
	return Placement{Kind: KindAt, Index: n}
}

func (p Placement) String() string {
	if p.Kind == KindAt {
		return fmt.Sprintf("at(%d)", p.Index)
	}
	return p.Kind.String()
}

// Result is the outcome of a normalization pass.
type Result struct {
	// Order is the canonical sequence; Order[i].Position == i.
	Order []*models.Flashcard
	// Changed holds the cards whose stored position was rewritten.
	Changed []*models.Flashcard
}

// unset cards sort after every card that has a position.
const unsetPosition = math.MaxInt

// Normalize returns the canonical order of cards.
//
// Cards with a placement request are bucketed by it: Front cards lead and Back
// cards trail, each bucket in creation order. All other cards sort by stored
// position, ties broken by creation time and then by ID. At(n) requests are
// spliced in last, in ascending n (ties by creation time). A request lands at
// index n unless an earlier request already took n or a later slot, in which
// case it lands right after that request; requests never overtake each other.
// An At index outside the resulting sequence is a programming error and panics.
func Normalize(cards []*models.Flashcard, placements map[string]Placement) Result {
	var front, back, normal, at []*models.Flashcard
	for _, c := range cards {
		p, ok := placements[c.ID]
		if !ok {
			normal = append(normal, c)
			continue
		}
		switch p.Kind {
		case KindFront:
			front = append(front, c)
		case KindBack:
			back = append(back, c)
		case KindAt:
			if p.Index < 0 {
				panic(fmt.Sprintf("ordering: negative placement %s for card %s", p, c.ID))
			}
			at = append(at, c)
		default:
			normal = append(normal, c)
		}
	}

	slices.SortStableFunc(normal, byStoredPosition)
	slices.SortStableFunc(front, byCreation)
	slices.SortStableFunc(back, byCreation)
	slices.SortStableFunc(at, func(a, b *models.Flashcard) int {
		if c := cmp.Compare(placements[a.ID].Index, placements[b.ID].Index); c != 0 {
			return c
		}
		return byCreation(a, b)
	})

	order := make([]*models.Flashcard, 0, len(cards))
	order = append(order, front...)
	order = append(order, normal...)
	order = append(order, back...)

	next := 0
	for _, c := range at {
		idx := max(placements[c.ID].Index, next)
		if idx > len(order) {
			panic(fmt.Sprintf("ordering: placement %s for card %s is past the end of a %d-card set", placements[c.ID], c.ID, len(order)))
		}
		order = slices.Insert(order, idx, c)
		next = idx + 1
	}

	return Result{Order: order, Changed: Renumber(order)}
}

// Renumber assigns position = index to every card and returns the ones whose
// value actually changed.
func Renumber(cards []*models.Flashcard) []*models.Flashcard {
	var changed []*models.Flashcard
	for i, c := range cards {
		if c.SetPosition(i) {
			changed = append(changed, c)
		}
	}
	return changed
}

// Validate reports the first way in which cards break the dense-run
// invariant: every card positioned, positions equal to their index.
func Validate(cards []models.Flashcard) error {
	for i, c := range cards {
		if !c.HasPosition() {
			return fmt.Errorf("card %s at index %d has no position", c.ID, i)
		}
		if *c.Position != i {
			return fmt.Errorf("card %s at index %d has position %d", c.ID, i, *c.Position)
		}
	}
	return nil
}

func byStoredPosition(a, b *models.Flashcard) int {
	if c := cmp.Compare(a.PositionOr(unsetPosition), b.PositionOr(unsetPosition)); c != 0 {
		return c
	}
	return byCreation(a, b)
}

func byCreation(a, b *models.Flashcard) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
