package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/examdeck/examdeck/internal/api/http"
	"github.com/examdeck/examdeck/internal/catalog"
	"github.com/examdeck/examdeck/internal/ingest"
	"github.com/examdeck/examdeck/internal/model"
	"github.com/examdeck/examdeck/internal/session"
)

const testBundle = `{
  "version": "1.0",
  "origin": "examdeck",
  "name": "Network Basics",
  "description": "practice bank",
  "last_updated": "2024-03-01T10:00:00Z",
  "topics": [
    {"name": "routing", "questions": [
      {"text": "q one", "options": ["a", "b"], "correct_answer": ["a"]},
      {"text": "q two", "options": ["a", "b"], "correct_answer": ["b"]}
    ]}
  ]
}`

type window struct {
	Attempt   model.AttemptHistory         `json:"attempt"`
	Index     int                          `json:"index"`
	Completed bool                         `json:"completed"`
	Current   *model.Question              `json:"current"`
	Statuses  map[int]model.QuestionStatus `json:"statuses"`
}

func newServer(t *testing.T) (*httptest.Server, *catalog.Store) {
	t.Helper()
	ctx := context.Background()
	dataDir := t.TempDir()

	cat, err := catalog.Open(ctx, dataDir)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	bundleDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(bundleDir, "network_basics.json"), []byte(testBundle), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	if err := ingest.NewPipeline(cat, dataDir).Run(ctx, ingest.NewSource(bundleDir)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	mgr := session.NewManager(cat, dataDir)
	t.Cleanup(func() { mgr.Close() })

	r := chi.NewRouter()
	api.Mount(r, cat, mgr)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, cat
}

func do(t *testing.T, method, url string, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func selectExam(t *testing.T, srv *httptest.Server) window {
	t.Helper()
	resp, body := do(t, "POST", srv.URL+"/session/exam", `{"file_name":"network_basics"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select exam status = %d: %s", resp.StatusCode, body)
	}
	var w window
	if err := json.Unmarshal(body, &w); err != nil {
		t.Fatalf("decode window: %v", err)
	}
	return w
}

func TestListExams(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, "GET", srv.URL+"/exams", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var exams []struct {
		FileName       string  `json:"file_name"`
		QuestionAmount int     `json:"question_amount"`
		Progress       float64 `json:"progress"`
	}
	if err := json.Unmarshal(body, &exams); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(exams) != 1 || exams[0].FileName != "network_basics" {
		t.Fatalf("exams = %+v", exams)
	}
	if exams[0].Progress != 0 {
		t.Errorf("untouched exam progress = %v", exams[0].Progress)
	}
}

func TestSessionBeforeSelection(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := do(t, "GET", srv.URL+"/session/", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestSelectUnknownExam(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := do(t, "POST", srv.URL+"/session/exam", `{"file_name":"missing"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAnswerFlow(t *testing.T) {
	srv, _ := newServer(t)
	w := selectExam(t, srv)
	if w.Index != 0 || w.Attempt.AttemptID != 1 {
		t.Fatalf("initial window = %+v", w)
	}

	resp, body := do(t, "POST", srv.URL+"/session/answer", `{"answers":["a"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer status = %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Attempt.FinishedQuestionAmount != 1 || !w.Statuses[0].Answered {
		t.Errorf("window after answer = %+v", w)
	}

	// Half the questions answered shows up in the exam list.
	_, body = do(t, "GET", srv.URL+"/exams", "")
	var exams []struct {
		Progress float64 `json:"progress"`
	}
	if err := json.Unmarshal(body, &exams); err != nil {
		t.Fatalf("decode exams: %v", err)
	}
	if exams[0].Progress != 0.5 {
		t.Errorf("progress = %v, want 0.5", exams[0].Progress)
	}

	// Finish and verify completion with the score.
	if resp, _ := do(t, "POST", srv.URL+"/session/next", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("next status = %d", resp.StatusCode)
	}
	resp, body = do(t, "POST", srv.URL+"/session/answer", `{"answers":["b"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer status = %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !w.Completed || w.Attempt.Score != 1.0 {
		t.Errorf("completed window = %+v", w)
	}
}

func TestDiscardAnswer(t *testing.T) {
	srv, _ := newServer(t)
	selectExam(t, srv)

	// Discard with nothing saved is a client error.
	resp, _ := do(t, "DELETE", srv.URL+"/session/answer", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty discard status = %d, want 400", resp.StatusCode)
	}

	if resp, _ := do(t, "POST", srv.URL+"/session/answer", `{"answers":["a"]}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("answer status = %d", resp.StatusCode)
	}
	resp, body := do(t, "DELETE", srv.URL+"/session/answer", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("discard status = %d: %s", resp.StatusCode, body)
	}
	var w window
	if err := json.Unmarshal(body, &w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Attempt.FinishedQuestionAmount != 0 || w.Statuses[0].Answered {
		t.Errorf("window after discard = %+v", w)
	}
}

func TestSetIndexOutOfRange(t *testing.T) {
	srv, _ := newServer(t)
	selectExam(t, srv)

	resp, _ := do(t, "POST", srv.URL+"/session/index", `{"index":9}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestNewAttempt(t *testing.T) {
	srv, _ := newServer(t)
	selectExam(t, srv)
	if resp, _ := do(t, "POST", srv.URL+"/session/answer", `{"answers":["a"]}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("answer failed")
	}

	resp, body := do(t, "POST", srv.URL+"/session/attempts", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new attempt status = %d", resp.StatusCode)
	}
	var w window
	if err := json.Unmarshal(body, &w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Attempt.AttemptID != 2 || w.Attempt.FinishedQuestionAmount != 0 {
		t.Errorf("new attempt = %+v", w.Attempt)
	}
}

func TestIngestEvents(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, "GET", srv.URL+"/ingest/events?limit=5", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var events []catalog.Event
	if err := json.Unmarshal(body, &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) == 0 || events[0].Type != catalog.EventExamInserted {
		t.Errorf("events = %+v", events)
	}

	resp, _ = do(t, "GET", srv.URL+"/ingest/events?limit=zero", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", resp.StatusCode)
	}
}
