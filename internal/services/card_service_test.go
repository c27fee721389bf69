package services_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/jobs"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/ordering"
	"github.com/studyup/studyup/internal/repository"
	"github.com/studyup/studyup/internal/repository/sqlite"
	"github.com/studyup/studyup/internal/services"
	"github.com/studyup/studyup/internal/testutil"
	"github.com/studyup/studyup/internal/worker"
)

// CardServiceSuite runs the card service against SQLite with write-behind
// persistence, reopening stores from storage to check what was written.
type CardServiceSuite struct {
	suite.Suite
	db    *sql.DB
	pool  *worker.Pool
	queue *jobs.WriteBehind
	cards repository.FlashcardRepository
	sets  services.SetService
	svc   services.CardService
	setID string
}

func (s *CardServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	setRepo := sqlite.NewSetRepository(s.db)
	s.cards = sqlite.NewFlashcardRepository(s.db)

	s.pool = worker.NewPool(1, 16)
	s.pool.Start(context.Background())
	s.queue = jobs.NewWriteBehind(s.pool, s.cards)

	registry := services.NewStoreRegistry(s.cards, s.queue)
	s.sets = services.NewSetService(setRepo, registry)
	s.svc = services.NewCardService(setRepo, registry)

	set, err := s.sets.CreateSet(context.Background(), "Science")
	s.Require().NoError(err)
	s.setID = set.ID
}

func (s *CardServiceSuite) TearDownTest() {
	s.pool.Stop()
	testutil.MustClose(s.T(), s.db)
}

// stored flushes pending writes and reads the set back from SQLite.
func (s *CardServiceSuite) stored() []string {
	ctx := context.Background()
	s.Require().NoError(s.queue.Flush(ctx))
	cards, err := s.cards.ListBySet(ctx, s.setID)
	s.Require().NoError(err)
	for i, c := range cards {
		s.Require().NotNil(c.Position)
		s.Require().Equal(i, *c.Position, "stored positions must be dense")
	}
	return questions(cards)
}

func questions(cards []models.Flashcard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Question
	}
	return out
}

func (s *CardServiceSuite) add(q string, p ordering.Placement) *models.Flashcard {
	c, err := s.svc.AddCard(context.Background(), s.setID, q, "answer", p)
	s.Require().NoError(err)
	return c
}

func (s *CardServiceSuite) TestAddPlacements() {
	s.add("b", ordering.Back())
	s.add("a", ordering.Front())
	s.add("d", ordering.Back())
	s.add("c", ordering.At(2))

	cards, err := s.svc.ListCards(context.Background(), s.setID)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"a", "b", "c", "d"}, questions(cards))
	s.Assert().Equal([]string{"a", "b", "c", "d"}, s.stored())
}

func (s *CardServiceSuite) TestAddDefaultsText() {
	c, err := s.svc.AddCard(context.Background(), s.setID, "", "", ordering.Back())
	s.Require().NoError(err)
	s.Assert().Equal(models.DefaultQuestion, c.Question)
	s.Assert().Equal(models.DefaultAnswer, c.Answer)
}

func (s *CardServiceSuite) TestAddAtOutOfRange() {
	_, err := s.svc.AddCard(context.Background(), s.setID, "x", "y", ordering.At(1))
	appErr, ok := errors.AsAppError(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeValidation, appErr.Code)
}

func (s *CardServiceSuite) TestTextTooLong() {
	ctx := context.Background()
	long := strings.Repeat("x", models.MaxTextLength+1)

	_, err := s.svc.AddCard(ctx, s.setID, long, "a", ordering.Back())
	appErr, ok := errors.AsAppError(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeValidation, appErr.Code)

	c := s.add("q", ordering.Back())
	_, err = s.svc.EditCard(ctx, s.setID, c.ID, nil, &long)
	appErr, ok = errors.AsAppError(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeValidation, appErr.Code)

	cards, err := s.svc.ListCards(ctx, s.setID)
	s.Require().NoError(err)
	s.Assert().Len(cards, 1)
}

func (s *CardServiceSuite) TestRemoveAndMove() {
	ctx := context.Background()
	a := s.add("a", ordering.Back())
	s.add("b", ordering.Back())
	s.add("c", ordering.Back())
	s.add("d", ordering.Back())

	removed, err := s.svc.RemoveCard(ctx, s.setID, a.ID)
	s.Require().NoError(err)
	s.Assert().True(removed)

	removed, err = s.svc.RemoveCard(ctx, s.setID, a.ID)
	s.Require().NoError(err, "removing a stale id is not an error")
	s.Assert().False(removed)

	cards, err := s.svc.MoveCard(ctx, s.setID, 2, 0)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"d", "b", "c"}, questions(cards))
	s.Assert().Equal([]string{"d", "b", "c"}, s.stored())

	_, err = s.svc.MoveCard(ctx, s.setID, 0, 3)
	appErr, ok := errors.AsAppError(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeValidation, appErr.Code)
}

func (s *CardServiceSuite) TestEditCard() {
	ctx := context.Background()
	c := s.add("What is H2O?", ordering.Back())

	water := "Water"
	edited, err := s.svc.EditCard(ctx, s.setID, c.ID, nil, &water)
	s.Require().NoError(err)
	s.Assert().Equal("What is H2O?", edited.Question)
	s.Assert().Equal("Water", edited.Answer)

	s.Require().NoError(s.queue.Flush(ctx))
	stored, err := s.cards.Get(ctx, c.ID)
	s.Require().NoError(err)
	s.Assert().Equal("Water", stored.Answer)

	_, err = s.svc.EditCard(ctx, s.setID, "missing", nil, &water)
	s.Assert().True(errors.IsNotFound(err))

	got, err := s.svc.GetCard(ctx, s.setID, c.ID)
	s.Require().NoError(err)
	s.Assert().Equal("Water", got.Answer)
	_, err = s.svc.GetCard(ctx, s.setID, "missing")
	s.Assert().True(errors.IsNotFound(err))
}

func (s *CardServiceSuite) TestUnknownSet() {
	_, err := s.svc.ListCards(context.Background(), "no-such-set")
	s.Assert().True(errors.IsNotFound(err))
}

func (s *CardServiceSuite) TestReopenRepairsStoredDrift() {
	ctx := context.Background()
	other, err := s.sets.CreateSet(ctx, "Drifted")
	s.Require().NoError(err)

	// Write a drifted set behind the service's back, then open it through a
	// fresh registry the way a restarted server would.
	s.Require().NoError(s.cards.Commit(ctx, models.ChangeSet{
		SetID: other.ID,
		Inserted: []models.Flashcard{
			{ID: "x", SetID: other.ID, Question: "x", Position: models.Pos(5)},
			{ID: "y", SetID: other.ID, Question: "y", Position: models.Pos(5)},
			{ID: "z", SetID: other.ID, Question: "z"},
		},
	}))

	registry := services.NewStoreRegistry(s.cards, jobs.Immediate{Repo: s.cards})
	fresh := services.NewCardService(sqlite.NewSetRepository(s.db), registry)

	n, err := fresh.Reindex(ctx, other.ID)
	s.Require().NoError(err)
	s.Assert().Equal(0, n, "drift is repaired when the set is opened")

	cards, err := s.cards.ListBySet(ctx, other.ID)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"x", "y", "z"}, questions(cards))
	for i, c := range cards {
		s.Assert().Equal(i, *c.Position)
	}
}

func (s *CardServiceSuite) TestDeleteSetWithPendingWrites() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.add("card", ordering.Back())
	}
	s.Require().NoError(s.sets.DeleteSet(ctx, s.setID))

	_, err := s.svc.ListCards(ctx, s.setID)
	s.Assert().True(errors.IsNotFound(err))
}

func TestCardServiceSuite(t *testing.T) {
	suite.Run(t, new(CardServiceSuite))
}
