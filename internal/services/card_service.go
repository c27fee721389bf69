package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"unicode/utf8"

	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/ordering"
	"github.com/studyup/studyup/internal/repository"
	"github.com/studyup/studyup/internal/store"
)

// CardService handles the cards of one set. Every mutation goes through the
// set's FlashcardStore.
type CardService interface {
	ListCards(ctx context.Context, setID string) ([]models.Flashcard, error)
	GetCard(ctx context.Context, setID, cardID string) (*models.Flashcard, error)
	AddCard(ctx context.Context, setID, question, answer string, placement ordering.Placement) (*models.Flashcard, error)
	// EditCard changes the text of a card; a nil question or answer is left as is.
	EditCard(ctx context.Context, setID, cardID string, question, answer *string) (*models.Flashcard, error)
	// RemoveCard reports whether a card was removed; an unknown card is not an error.
	RemoveCard(ctx context.Context, setID, cardID string) (bool, error)
	MoveCard(ctx context.Context, setID string, from, to int) ([]models.Flashcard, error)
	Reindex(ctx context.Context, setID string) (int, error)
}

type cardService struct {
	setRepo repository.SetRepository
	stores  *StoreRegistry
}

// NewCardService creates a new CardService
func NewCardService(setRepo repository.SetRepository, stores *StoreRegistry) CardService {
	return &cardService{setRepo: setRepo, stores: stores}
}

// open returns the set's store, checking that the set exists first.
func (s *cardService) open(ctx context.Context, setID string) (*store.Store, error) {
	if st, ok := s.stores.Cached(setID); ok {
		return st, nil
	}

	log := logger.FromContext(ctx)
	set, err := s.setRepo.Get(ctx, setID)
	if err != nil {
		log.Error("failed to get set: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if set == nil {
		return nil, errors.NewNotFoundError("set", setID)
	}

	st, err := s.stores.Open(ctx, setID)
	if stderrors.Is(err, ErrSetDeleted) {
		return nil, errors.NewNotFoundError("set", setID)
	}
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return st, nil
}

func (s *cardService) ListCards(ctx context.Context, setID string) ([]models.Flashcard, error) {
	st, err := s.open(ctx, setID)
	if err != nil {
		return nil, err
	}
	return st.Cards(), nil
}

func (s *cardService) GetCard(ctx context.Context, setID, cardID string) (*models.Flashcard, error) {
	st, err := s.open(ctx, setID)
	if err != nil {
		return nil, err
	}
	c, err := st.Card(cardID)
	if err != nil {
		return nil, errors.NewNotFoundError("flashcard", cardID)
	}
	return &c, nil
}

func (s *cardService) AddCard(ctx context.Context, setID, question, answer string, placement ordering.Placement) (*models.Flashcard, error) {
	log := logger.FromContext(ctx)

	if err := checkText(&question, &answer); err != nil {
		return nil, err
	}
	st, err := s.open(ctx, setID)
	if err != nil {
		return nil, err
	}

	card, err := models.NewFlashcard(question, answer)
	if err != nil {
		log.Error("failed to generate card id: %v", err)
		return nil, errors.NewInternalError(err)
	}

	added, err := st.TryInsert(ctx, card, placement)
	if stderrors.Is(err, store.ErrOutOfRange) {
		return nil, errors.NewValidationError("index", err.Error())
	}
	if err != nil {
		log.Error("failed to add card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &added, nil
}

func (s *cardService) EditCard(ctx context.Context, setID, cardID string, question, answer *string) (*models.Flashcard, error) {
	if err := checkText(question, answer); err != nil {
		return nil, err
	}
	st, err := s.open(ctx, setID)
	if err != nil {
		return nil, err
	}

	edited, err := st.Edit(ctx, cardID, question, answer)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewNotFoundError("flashcard", cardID)
	}
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return &edited, nil
}

func (s *cardService) RemoveCard(ctx context.Context, setID, cardID string) (bool, error) {
	st, err := s.open(ctx, setID)
	if err != nil {
		return false, err
	}
	return st.Remove(ctx, cardID), nil
}

func (s *cardService) MoveCard(ctx context.Context, setID string, from, to int) ([]models.Flashcard, error) {
	st, err := s.open(ctx, setID)
	if err != nil {
		return nil, err
	}

	if err := st.TryMove(ctx, from, to); err != nil {
		if stderrors.Is(err, store.ErrOutOfRange) {
			return nil, errors.NewValidationError("from/to", err.Error())
		}
		return nil, errors.NewInternalError(err)
	}
	return st.Cards(), nil
}

func (s *cardService) Reindex(ctx context.Context, setID string) (int, error) {
	st, err := s.open(ctx, setID)
	if err != nil {
		return 0, err
	}
	return st.Reindex(ctx), nil
}

// checkText rejects card text over models.MaxTextLength; nil sides are skipped.
func checkText(question, answer *string) error {
	if question != nil && utf8.RuneCountInString(*question) > models.MaxTextLength {
		return errors.NewValidationError("question", fmt.Sprintf("must be at most %d characters", models.MaxTextLength))
	}
	if answer != nil && utf8.RuneCountInString(*answer) > models.MaxTextLength {
		return errors.NewValidationError("answer", fmt.Sprintf("must be at most %d characters", models.MaxTextLength))
	}
	return nil
}
