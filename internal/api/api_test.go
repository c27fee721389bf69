package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/jobs"
	"github.com/studyup/studyup/internal/models"
	"github.com/studyup/studyup/internal/repository/sqlite"
	"github.com/studyup/studyup/internal/services"
	"github.com/studyup/studyup/internal/study"
	"github.com/studyup/studyup/internal/testutil"
)

type APISuite struct {
	suite.Suite
	db  *sql.DB
	srv *api.Server
	h   http.Handler
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	setRepo := sqlite.NewSetRepository(s.db)
	cardRepo := sqlite.NewFlashcardRepository(s.db)
	registry := services.NewStoreRegistry(cardRepo, jobs.Immediate{Repo: cardRepo})

	s.srv = &api.Server{
		SetService:  services.NewSetService(setRepo, registry),
		CardService: services.NewCardService(setRepo, registry),
		Sessions:    study.NewManager(time.Hour),
		DB:          s.db,
	}
	s.h = s.srv.Routes()
}

func (s *APISuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *APISuite) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *APISuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.decode(rec, &body)
	return body.Error.Code
}

func (s *APISuite) createSet(title string) models.FlashcardSet {
	rec := s.do(http.MethodPost, "/sets", `{"title":"`+title+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var set models.FlashcardSet
	s.decode(rec, &set)
	return set
}

func (s *APISuite) addCard(setID, body string) models.Flashcard {
	rec := s.do(http.MethodPost, "/sets/"+setID+"/cards", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Flashcard
	s.decode(rec, &c)
	return c
}

func (s *APISuite) questions(setID string) []string {
	rec := s.do(http.MethodGet, "/sets/"+setID+"/cards", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var cards []models.Flashcard
	s.decode(rec, &cards)
	out := make([]string, len(cards))
	for i, c := range cards {
		s.Require().NotNil(c.Position)
		s.Require().Equal(i, *c.Position)
		out[i] = c.Question
	}
	return out
}

func (s *APISuite) TestHealthAndReady() {
	s.Assert().Equal(http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
	s.Assert().Equal(http.StatusOK, s.do(http.MethodGet, "/ready", "").Code)

	s.srv.DB = failingPinger{}
	rec := httptest.NewRecorder()
	s.srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	s.Assert().Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *APISuite) TestSetLifecycle() {
	set := s.createSet("")
	s.Assert().Equal(models.DefaultSetTitle, set.Title)

	s.createSet("Organic Chemistry")
	s.createSet("World History")

	rec := s.do(http.MethodGet, "/sets?q=chem", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var list struct {
		Sets  []models.FlashcardSet `json:"sets"`
		Total int                   `json:"total"`
	}
	s.decode(rec, &list)
	s.Require().Len(list.Sets, 1)
	s.Assert().Equal("Organic Chemistry", list.Sets[0].Title)
	s.Assert().Equal(1, list.Total)

	rec = s.do(http.MethodPut, "/sets/"+set.ID, `{"title":"Biology"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	var renamed models.FlashcardSet
	s.decode(rec, &renamed)
	s.Assert().Equal("Biology", renamed.Title)

	rec = s.do(http.MethodPut, "/sets/"+set.ID, `{"title":""}`)
	s.Assert().Equal(http.StatusBadRequest, rec.Code)

	s.Assert().Equal(http.StatusNoContent, s.do(http.MethodDelete, "/sets/"+set.ID, "").Code)
	rec = s.do(http.MethodGet, "/sets/"+set.ID, "")
	s.Assert().Equal(http.StatusNotFound, rec.Code)
	s.Assert().Equal("NOT_FOUND", s.errorCode(rec))
}

func (s *APISuite) TestListSetsRejectsBadQuery() {
	s.Assert().Equal(http.StatusBadRequest, s.do(http.MethodGet, "/sets?limit=abc", "").Code)
	s.Assert().Equal(http.StatusBadRequest, s.do(http.MethodGet, "/sets?order_by=position", "").Code)
	s.Assert().Equal(http.StatusBadRequest, s.do(http.MethodGet, "/sets?offset=-1", "").Code)
}

func (s *APISuite) TestCardOrdering() {
	set := s.createSet("Science")

	s.addCard(set.ID, `{"question":"b"}`)
	s.addCard(set.ID, `{"question":"a","placement":"front"}`)
	s.addCard(set.ID, `{"question":"d","placement":"back"}`)
	c := s.addCard(set.ID, `{"question":"c","placement":"index","index":2}`)
	s.Assert().Equal(2, *c.Position)
	s.Assert().Equal(models.DefaultAnswer, c.Answer)
	s.Assert().Equal([]string{"a", "b", "c", "d"}, s.questions(set.ID))

	// Move d (index 3) to index 1.
	rec := s.do(http.MethodPost, "/sets/"+set.ID+"/cards/move", `{"from":3,"to":1}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Assert().Equal([]string{"a", "d", "b", "c"}, s.questions(set.ID))

	rec = s.do(http.MethodPost, "/sets/"+set.ID+"/reindex", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Assert().JSONEq(`{"changed":0}`, rec.Body.String())
}

func (s *APISuite) TestCardValidation() {
	set := s.createSet("Science")
	s.addCard(set.ID, `{"question":"only"}`)

	tests := []struct {
		name, path, body string
	}{
		{"index past end", "/cards", `{"placement":"index","index":5}`},
		{"index missing", "/cards", `{"placement":"index"}`},
		{"negative index", "/cards", `{"placement":"index","index":-1}`},
		{"unknown placement", "/cards", `{"placement":"middle"}`},
		{"unknown field", "/cards", `{"position":0}`},
		{"malformed", "/cards", `{"question":`},
		{"move out of range", "/cards/move", `{"from":0,"to":1}`},
		{"move negative", "/cards/move", `{"from":-1,"to":0}`},
		{"move missing to", "/cards/move", `{"from":0}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/sets/"+set.ID+tt.path, tt.body)
			s.Assert().Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	s.Assert().Equal([]string{"only"}, s.questions(set.ID))
}

func (s *APISuite) TestEditAndRemove() {
	set := s.createSet("Science")
	a := s.addCard(set.ID, `{"question":"What is H2O?"}`)
	b := s.addCard(set.ID, `{"question":"Closest planet?","answer":"Mercury"}`)
	s.addCard(set.ID, `{"question":"Hardest substance?"}`)

	rec := s.do(http.MethodPut, "/sets/"+set.ID+"/cards/"+a.ID, `{"answer":"Water"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	var edited models.Flashcard
	s.decode(rec, &edited)
	s.Assert().Equal("What is H2O?", edited.Question)
	s.Assert().Equal("Water", edited.Answer)

	s.Assert().Equal(http.StatusNotFound, s.do(http.MethodPut, "/sets/"+set.ID+"/cards/missing", `{"answer":"x"}`).Code)

	s.Assert().Equal(http.StatusNoContent, s.do(http.MethodDelete, "/sets/"+set.ID+"/cards/"+b.ID, "").Code)
	s.Assert().Equal(http.StatusNoContent, s.do(http.MethodDelete, "/sets/"+set.ID+"/cards/"+b.ID, "").Code, "stale delete is harmless")
	s.Assert().Equal([]string{"What is H2O?", "Hardest substance?"}, s.questions(set.ID))

	s.Assert().Equal(http.StatusNotFound, s.do(http.MethodGet, "/sets/nope/cards", "").Code)
}

func (s *APISuite) TestStudySession() {
	set := s.createSet("Science")
	s.addCard(set.ID, `{"question":"What is H2O?","answer":"Water"}`)
	s.addCard(set.ID, `{"question":"Closest planet?","answer":"Mercury"}`)

	rec := s.do(http.MethodPost, "/sets/"+set.ID+"/sessions", "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var st study.State
	s.decode(rec, &st)
	s.Assert().Equal(2, st.Total)
	s.Assert().Equal("What is H2O?", st.Card.Question)
	base := "/sessions/" + st.ID

	rec = s.do(http.MethodPost, base+"/flip", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &st)
	s.Assert().True(st.Flipped)

	s.Assert().Equal(http.StatusBadRequest, s.do(http.MethodPost, base+"/grade", `{"grade":"maybe"}`).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/grade", `{"grade":"known"}`).Code)
	rec = s.do(http.MethodPost, base+"/grade", `{"grade":"unknown"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &st)
	s.Assert().True(st.Finished)

	rec = s.do(http.MethodPost, base+"/grade", `{"grade":"known"}`)
	s.Assert().Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, base+"/summary", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var sum study.Summary
	s.decode(rec, &sum)
	s.Assert().Equal(1, sum.Known)
	s.Assert().Equal(1, sum.Unknown)

	rec = s.do(http.MethodPost, base+"/restart", `{"unknown_only":true}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &st)
	s.Assert().Equal(1, st.Total)
	s.Assert().Equal("Closest planet?", st.Card.Question)

	s.Assert().Equal(http.StatusNoContent, s.do(http.MethodDelete, base, "").Code)
	s.Assert().Equal(http.StatusNotFound, s.do(http.MethodGet, base, "").Code)
	s.Assert().Equal(http.StatusNotFound, s.do(http.MethodPost, "/sets/nope/sessions", "").Code)
}

func (s *APISuite) TestExportImport() {
	set := s.createSet("Science")
	s.addCard(set.ID, `{"question":"What is H2O?","answer":"Water"}`)
	s.addCard(set.ID, `{"question":"Speed of light?","answer":"299,792,458 meters per second","placement":"front"}`)

	rec := s.do(http.MethodGet, "/sets/"+set.ID+"/export", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal("application/yaml", rec.Header().Get("Content-Type"))
	s.Assert().Contains(rec.Header().Get("Content-Disposition"), "Science.yaml")
	exported := rec.Body.String()

	req := httptest.NewRequest(http.MethodPost, "/sets/import?title=Copy", bytes.NewBufferString(exported))
	rec = httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var imported models.FlashcardSet
	s.decode(rec, &imported)
	s.Assert().Equal("Copy", imported.Title)
	s.Assert().Equal(2, imported.CardCount)
	s.Assert().Equal([]string{"Speed of light?", "What is H2O?"}, s.questions(imported.ID))

	rec = s.do(http.MethodPost, "/sets/import", "title: x\nbogus: true\n")
	s.Assert().Equal(http.StatusBadRequest, rec.Code)
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("database is closed") }

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
