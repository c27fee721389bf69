package api

import (
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/study"
)

type gradeRequest struct {
	Grade string `json:"grade" validate:"required,oneof=known unknown"`
}

type restartRequest struct {
	UnknownOnly bool `json:"unknown_only"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setID := chi.URLParam(r, "setID")

	set, err := s.SetService.GetSet(ctx, setID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.CardService.ListCards(ctx, setID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	sess, err := s.Sessions.Start(ctx, set.ID, set.Title, cards)
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}
	writeJSON(w, r, http.StatusCreated, sess.State())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*study.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.Sessions.Get(id)
	if err != nil {
		handleError(w, r, errors.NewNotFoundError("study session", id))
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, sess.State())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.Sessions.End(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, err := sess.Flip()
	if err != nil {
		handleError(w, r, sessionError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	grade, err := study.ParseGrade(req.Grade)
	if err != nil {
		handleError(w, r, errors.NewValidationError("grade", err.Error()))
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, err := sess.Grade(grade)
	if err != nil {
		handleError(w, r, sessionError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req restartRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, sess.Restart(req.UnknownOnly))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, sess.Summary())
}

func sessionError(err error) error {
	if stderrors.Is(err, study.ErrSessionFinished) {
		return errors.NewConflictError("study session is finished")
	}
	return errors.NewInternalError(err)
}
