package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/examdeck/examdeck/internal/catalog"
	"github.com/examdeck/examdeck/internal/session"
)

// Mount wires every API route onto r. Auth, CORS and the rest of the
// middleware chain are the caller's concern.
func Mount(r chi.Router, cat *catalog.Store, mgr *session.Manager) {
	r.Get("/exams", ListExamsHandler(cat, mgr))
	r.Get("/ingest/events", IngestEventsHandler(cat))

	r.Route("/session", func(sr chi.Router) {
		sr.Post("/exam", SelectExamHandler(cat, mgr))
		sr.Get("/", WindowHandler(mgr))
		sr.Post("/index", SetIndexHandler(mgr))
		sr.Post("/next", MoveNextHandler(mgr))
		sr.Post("/prev", MovePreviousHandler(mgr))
		sr.Post("/answer", AnswerHandler(mgr))
		sr.Delete("/answer", DiscardAnswerHandler(mgr))
		sr.Post("/mark", ToggleMarkedHandler(mgr))
		sr.Post("/attempts", NewAttemptHandler(mgr))
	})
}
