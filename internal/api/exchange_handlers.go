package api

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/studyup/studyup/internal/errors"
	"github.com/studyup/studyup/internal/exchange"
	"github.com/studyup/studyup/internal/logger"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *Server) handleExportSet(w http.ResponseWriter, r *http.Request) {
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

	name := strings.Trim(unsafeFilename.ReplaceAllString(set.Title, "-"), "-")
	if name == "" {
		name = set.ID
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".yaml"))
	if err := exchange.Encode(w, exchange.NewDocument(set.Title, cards)); err != nil {
		logger.FromContext(ctx).Error("failed to export set %s: %v", setID, err)
	}
}

// handleImportSet creates a set from a YAML document. The title query
// parameter overrides the document's title.
func (s *Server) handleImportSet(w http.ResponseWriter, r *http.Request) {
	doc, err := exchange.Decode(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		handleError(w, r, errors.NewBadRequestError(err.Error()))
		return
	}
	title := doc.Title
	if t := r.URL.Query().Get("title"); t != "" {
		title = t
	}

	set, err := s.SetService.ImportSet(r.Context(), title, doc.Flashcards())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, set)
}
