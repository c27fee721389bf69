package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
)

type createSetRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type renameSetRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type listSetsQuery struct {
	Query    string `json:"q" validate:"max=200"`
	Limit    int    `json:"limit" validate:"min=0,max=200"`
	Offset   int    `json:"offset" validate:"min=0"`
	OrderBy  string `json:"order_by" validate:"omitempty,oneof=created_at title"`
	OrderDir string `json:"order_dir" validate:"omitempty,oneof=asc desc ASC DESC"`
}

type listSetsResponse struct {
	Sets  []models.FlashcardSet `json:"sets"`
	Total int                   `json:"total"`
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := listSetsQuery{
		Query:    q.Get("q"),
		OrderBy:  q.Get("order_by"),
		OrderDir: q.Get("order_dir"),
	}
	var err error
	if query.Limit, err = intParam(q.Get("limit")); err != nil {
		handleError(w, r, errors.NewValidationError("limit", "must be an integer"))
		return
	}
	if query.Offset, err = intParam(q.Get("offset")); err != nil {
		handleError(w, r, errors.NewValidationError("offset", "must be an integer"))
		return
	}
	if err := validateStruct(query); err != nil {
		handleError(w, r, err)
		return
	}

	sets, total, err := s.SetService.ListSets(r.Context(), models.SetFilter{
		Query:    query.Query,
		Limit:    query.Limit,
		Offset:   query.Offset,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if sets == nil {
		sets = []models.FlashcardSet{}
	}
	writeJSON(w, r, http.StatusOK, listSetsResponse{Sets: sets, Total: total})
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	set, err := s.SetService.CreateSet(r.Context(), req.Title)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("created set %s", set.ID)
	writeJSON(w, r, http.StatusCreated, set)
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.SetService.GetSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, set)
}

func (s *Server) handleRenameSet(w http.ResponseWriter, r *http.Request) {
	var req renameSetRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	set, err := s.SetService.RenameSet(r.Context(), chi.URLParam(r, "setID"), req.Title)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := s.SetService.DeleteSet(r.Context(), chi.URLParam(r, "setID")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
