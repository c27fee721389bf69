package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/repository"
	"github.com/studyup/studyup/internal/store"
)

const maxTitleLength = 200

// SetService handles flashcard set business logic
type SetService interface {
	CreateSet(ctx context.Context, title string) (*models.FlashcardSet, error)
	// ImportSet creates a set holding cards in the given order.
	ImportSet(ctx context.Context, title string, cards []models.Flashcard) (*models.FlashcardSet, error)
	GetSet(ctx context.Context, id string) (*models.FlashcardSet, error)
	ListSets(ctx context.Context, filter models.SetFilter) ([]models.FlashcardSet, int, error)
	RenameSet(ctx context.Context, id, title string) (*models.FlashcardSet, error)
	DeleteSet(ctx context.Context, id string) error
}

type setService struct {
	setRepo repository.SetRepository
	stores  *StoreRegistry
}

// NewSetService creates a new SetService
func NewSetService(setRepo repository.SetRepository, stores *StoreRegistry) SetService {
	return &setService{setRepo: setRepo, stores: stores}
}

func (s *setService) CreateSet(ctx context.Context, title string) (*models.FlashcardSet, error) {
	return s.ImportSet(ctx, title, nil)
}

func (s *setService) ImportSet(ctx context.Context, title string, cards []models.Flashcard) (*models.FlashcardSet, error) {
	log := logger.FromContext(ctx)

	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		return nil, errors.NewValidationError("title", "must be at most 200 characters")
	}

	set, err := models.NewFlashcardSet(title)
	if err != nil {
		log.Error("failed to generate set id: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Debug("creating set: id=%s, title=%q, cards=%d", set.ID, set.Title, len(cards))

	if err := s.setRepo.Create(ctx, set); err != nil {
		log.Error("failed to create set: %v", err)
		return nil, errors.NewInternalError(err)
	}

	st := store.New(set.ID, s.stores.Persister())
	for _, c := range cards {
		c.ID = ""
		c.SetID = ""
		c.Position = nil
		if c.Question == "" {
			c.Question = models.DefaultQuestion
		}
		if c.Answer == "" {
			c.Answer = models.DefaultAnswer
		}
		if _, err := st.Append(ctx, c); err != nil {
			log.Error("failed to add imported card: %v", err)
			return nil, errors.NewInternalError(err)
		}
	}
	s.stores.Register(st)

	set.CardCount = st.Len()
	log.Info("created set %s with %d cards", set.ID, set.CardCount)
	return &set, nil
}

func (s *setService) GetSet(ctx context.Context, id string) (*models.FlashcardSet, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting set: id=%s", id)

	set, err := s.setRepo.Get(ctx, id)
	if err != nil {
		log.Error("failed to get set: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if set == nil {
		return nil, errors.NewNotFoundError("set", id)
	}
	s.liveCount(set)
	return set, nil
}

func (s *setService) ListSets(ctx context.Context, filter models.SetFilter) ([]models.FlashcardSet, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing sets: query=%q", filter.Query)

	sets, err := s.setRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list sets: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	total, err := s.setRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count sets: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	for i := range sets {
		s.liveCount(&sets[i])
	}
	return sets, total, nil
}

func (s *setService) RenameSet(ctx context.Context, id, title string) (*models.FlashcardSet, error) {
	log := logger.FromContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewValidationError("title", "must not be empty")
	}
	if len(title) > maxTitleLength {
		return nil, errors.NewValidationError("title", "must be at most 200 characters")
	}

	if err := s.setRepo.Rename(ctx, id, title); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("set", id)
		}
		log.Error("failed to rename set: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("renamed set %s to %q", id, title)
	return s.GetSet(ctx, id)
}

func (s *setService) DeleteSet(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	// Pending card writes for the set must land before the cascade, and no
	// card request may reopen the store in between.
	if err := s.stores.Retire(ctx, id); err != nil {
		log.Warn("delete set %s: flushing pending writes: %v", id, err)
	}

	if err := s.setRepo.Delete(ctx, id); err != nil {
		s.stores.Restore(id)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("set", id)
		}
		log.Error("failed to delete set: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("deleted set %s", id)
	return nil
}

// liveCount replaces the stored card count with the open store's, which is
// ahead of storage while writes are pending.
func (s *setService) liveCount(set *models.FlashcardSet) {
	if st, ok := s.stores.Cached(set.ID); ok {
		set.CardCount = st.Len()
	}
}
