package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/ordering"
)

type addCardRequest struct {
	Question  string `json:"question" validate:"max=2000"`
	Answer    string `json:"answer" validate:"max=2000"`
	Placement string `json:"placement" validate:"omitempty,oneof=front back index"`
	Index     *int   `json:"index" validate:"omitempty,min=0"`
}

func (req addCardRequest) placement() ordering.Placement {
	switch req.Placement {
	case "front":
		return ordering.Front()
	case "index":
		return ordering.At(*req.Index)
	default:
		return ordering.Back()
	}
}

// editCardRequest leaves a side unchanged when it is omitted.
type editCardRequest struct {
	Question *string `json:"question" validate:"omitempty,max=2000"`
	Answer   *string `json:"answer" validate:"omitempty,max=2000"`
}

type moveCardRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

type reindexResponse struct {
	Changed int `json:"changed"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.CardService.ListCards(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.CardService.GetCard(r.Context(), chi.URLParam(r, "setID"), chi.URLParam(r, "cardID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var req addCardRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Placement == "index" && req.Index == nil {
		handleError(w, r, errors.NewValidationError("index", "index is required when placement is index"))
		return
	}

	card, err := s.CardService.AddCard(r.Context(), chi.URLParam(r, "setID"), req.Question, req.Answer, req.placement())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleEditCard(w http.ResponseWriter, r *http.Request) {
	var req editCardRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.EditCard(r.Context(), chi.URLParam(r, "setID"), chi.URLParam(r, "cardID"), req.Question, req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

// handleRemoveCard answers 204 whether or not the card was still there, so a
// repeated delete is harmless.
func (s *Server) handleRemoveCard(w http.ResponseWriter, r *http.Request) {
	if _, err := s.CardService.RemoveCard(r.Context(), chi.URLParam(r, "setID"), chi.URLParam(r, "cardID")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req moveCardRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	cards, err := s.CardService.MoveCard(r.Context(), chi.URLParam(r, "setID"), *req.From, *req.To)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	n, err := s.CardService.Reindex(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reindexResponse{Changed: n})
}
