package session

import "github.com/examdeck/examdeck/internal/model"

// Window is a point-in-time snapshot of the navigation state: the three
// live question copies around the current index plus the per-index
// marked/answered map. It is derived data; the stores stay authoritative.
type Window struct {
	Exam      model.Exam                   `json:"exam"`
	Attempt   model.AttemptHistory         `json:"attempt"`
	Index     int                          `json:"index"`
	Completed bool                         `json:"completed"`
	Prev      *model.Question              `json:"prev,omitempty"`
	Current   *model.Question              `json:"current,omitempty"`
	Next      *model.Question              `json:"next,omitempty"`
	Statuses  map[int]model.QuestionStatus `json:"statuses"`
}

// Window returns the current snapshot, or ErrNoActiveExam before any
// selection.
func (m *Manager) Window() (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return Window{}, ErrNoActiveExam
	}

	w := Window{
		Exam:      m.exam,
		Attempt:   m.attempt,
		Index:     m.index,
		Completed: m.finished,
		Statuses:  make(map[int]model.QuestionStatus, len(m.statuses)),
	}
	for i, s := range m.statuses {
		w.Statuses[i] = s
	}
	w.Prev = copyQuestion(m.prev)
	w.Current = copyQuestion(m.current)
	w.Next = copyQuestion(m.next)
	return w, nil
}

func copyQuestion(q *model.Question) *model.Question {
	if q == nil {
		return nil
	}
	c := *q
	return &c
}
