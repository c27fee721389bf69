package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const requestTimeout = 30 * time.Second

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/sets", func(r chi.Router) {
		r.Get("/", s.handleListSets)
		r.Post("/", s.handleCreateSet)
		r.Post("/import", s.handleImportSet)

		r.Route("/{setID}", func(r chi.Router) {
			r.Get("/", s.handleGetSet)
			r.Put("/", s.handleRenameSet)
			r.Delete("/", s.handleDeleteSet)
			r.Get("/export", s.handleExportSet)
			r.Post("/reindex", s.handleReindex)
			r.Post("/sessions", s.handleStartSession)

			r.Get("/cards", s.handleListCards)
			r.Post("/cards", s.handleAddCard)
			r.Post("/cards/move", s.handleMoveCard)
			r.Get("/cards/{cardID}", s.handleGetCard)
			r.Put("/cards/{cardID}", s.handleEditCard)
			r.Delete("/cards/{cardID}", s.handleRemoveCard)
		})
	})

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleEndSession)
		r.Post("/flip", s.handleFlip)
		r.Post("/grade", s.handleGrade)
		r.Post("/restart", s.handleRestart)
		r.Get("/summary", s.handleSummary)
	})

	return r
}
