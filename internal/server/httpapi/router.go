// Package httpapi serves the vault web pages and JSON API and enforces
// session-based route protection.
package httpapi

import (
	"net/http"

	"github.com/codevault/codevault/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the pages, session endpoints and record API.
func NewRouter(h *Handler, logger logging.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(PageGuard(h.auth))

	r.Get("/", servePage("index.html"))
	r.Get("/login", servePage("login.html"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.login)
		r.Delete("/session", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(h.auth))

			r.Get("/session", h.session)
			r.Get("/records", h.listRecords)
			r.Post("/records", h.createRecord)
			r.Post("/records/refresh", h.refreshRecords)
			r.Put("/records/{id}", h.updateRecord)
			r.Delete("/records/{id}", h.deleteRecord)
			r.Get("/records/{id}/attachment", h.downloadAttachment)
			r.Get("/platforms", h.listPlatforms)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no such route"})
	})
	return r
}
