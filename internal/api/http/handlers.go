// Package http exposes the catalog and the active exam session over a
// small JSON API. Handlers are thin: decode, call the session manager,
// reply with the refreshed window.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/examdeck/examdeck/internal/catalog"
	"github.com/examdeck/examdeck/internal/session"
)

// status maps domain errors onto HTTP codes. Unknown errors are a 500.
func status(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoActiveExam):
		return http.StatusConflict
	case errors.Is(err, session.ErrIndexOutOfRange),
		errors.Is(err, session.ErrNoStagedAnswer),
		errors.Is(err, session.ErrNotAnswered):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), status(err))
}

func writeWindow(w http.ResponseWriter, mgr *session.Manager) {
	win, err := mgr.Window()
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(win)
}

type examEntry struct {
	Name           string  `json:"name"`
	Version        string  `json:"version"`
	Origin         string  `json:"origin"`
	Description    string  `json:"description"`
	FileName       string  `json:"file_name"`
	QuestionAmount int     `json:"question_amount"`
	Progress       float64 `json:"progress"`
}

// GET /exams — every catalog entry with the latest attempt's progress.
func ListExamsHandler(cat *catalog.Store, mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exams, err := cat.List(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]examEntry, 0, len(exams))
		for _, e := range exams {
			p, err := mgr.Progress(r.Context(), e)
			if err != nil {
				writeErr(w, err)
				return
			}
			out = append(out, examEntry{
				Name:           e.Name,
				Version:        e.Version,
				Origin:         e.Origin,
				Description:    e.Description,
				FileName:       e.FileName,
				QuestionAmount: e.QuestionAmount,
				Progress:       p,
			})
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// POST /session/exam  { "file_name": "..." }
func SelectExamHandler(cat *catalog.Store, mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FileName string `json:"file_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		exam, err := cat.ByFileName(r.Context(), req.FileName)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := mgr.SelectExam(r.Context(), exam); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// GET /session
func WindowHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeWindow(w, mgr)
	}
}

// POST /session/index  { "index": n }
func SetIndexHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := mgr.SetCurrentQuestion(r.Context(), req.Index); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// POST /session/next
func MoveNextHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.MoveNext(r.Context()); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// POST /session/prev
func MovePreviousHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.MovePrevious(r.Context()); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// POST /session/answer  { "answers": ["..."] } — stage and persist in one
// round trip, the confirm flow of the UI.
func AnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers []string `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.Answers) == 0 {
			http.Error(w, "answers required", http.StatusBadRequest)
			return
		}
		if err := mgr.SubmitAnswer(req.Answers); err != nil {
			writeErr(w, err)
			return
		}
		if err := mgr.SaveAnswer(r.Context()); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// DELETE /session/answer
func DiscardAnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.DiscardAnswer(r.Context()); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// POST /session/mark
func ToggleMarkedHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.ToggleMarked(r.Context()); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// POST /session/attempts
func NewAttemptHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.StartNewAttempt(r.Context()); err != nil {
			writeErr(w, err)
			return
		}
		writeWindow(w, mgr)
	}
}

// GET /ingest/events?limit=n — newest first.
func IngestEventsHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		events, err := cat.Events(r.Context(), limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(events)
	}
}
