// Package session turns stored rows into a navigable exam-attempt state
// machine: one active exam, a prev/current/next question window, and
// answer mutations that are flushed to the store before they count.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/bank"
	"github.com/examdeck/examdeck/internal/catalog"
	"github.com/examdeck/examdeck/internal/model"
)

var (
	// ErrNoActiveExam is returned by operations that need a selected exam.
	ErrNoActiveExam = errors.New("session: no active exam")
	// ErrIndexOutOfRange reports navigation outside the question list.
	ErrIndexOutOfRange = errors.New("session: question index out of range")
	// ErrNoStagedAnswer reports a save without a prior submit.
	ErrNoStagedAnswer = errors.New("session: no staged answer to save")
	// ErrNotAnswered reports a discard on a question without an answer.
	ErrNotAnswered = errors.New("session: question has no answer to discard")
)

// Manager holds the single active exam context. All operations are
// serialized: the store below assumes one logical writer.
type Manager struct {
	mu      sync.Mutex
	catalog *catalog.Store
	dataDir string

	exam     model.Exam
	store    *bank.Store // nil until an exam is selected
	attempt  model.AttemptHistory
	statuses map[int]model.QuestionStatus
	index    int
	finished bool

	prev, current, next *model.Question
}

func NewManager(cat *catalog.Store, dataDir string) *Manager {
	return &Manager{catalog: cat, dataDir: dataDir}
}

// Close releases the active exam store, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deactivate()
}

func (m *Manager) deactivate() error {
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	m.statuses = nil
	m.prev, m.current, m.next = nil, nil, nil
	return err
}

// SelectExam activates the exam's store (closing the previous one first),
// loads the latest attempt, rebuilds the question-list map, and positions
// the window on the highest answered index, or 0 when nothing is answered.
// On store-open failure no exam is active afterwards.
func (m *Manager) SelectExam(ctx context.Context, exam model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.deactivate(); err != nil {
		return err
	}
	st, err := bank.Open(ctx, m.dataDir, exam.FileName)
	if err != nil {
		return err
	}
	m.store = st
	m.exam = exam

	if m.attempt, err = st.LatestAttempt(ctx, exam); err != nil {
		m.deactivate()
		return err
	}
	if m.statuses, err = st.QuestionStatusMap(ctx); err != nil {
		m.deactivate()
		return err
	}
	m.finished = m.attempt.Completed(exam.QuestionAmount)

	m.index = 0
	for i, s := range m.statuses {
		if s.Answered && i > m.index {
			m.index = i
		}
	}
	if err := m.refreshWindow(ctx); err != nil {
		m.deactivate()
		return err
	}
	return nil
}

// SetCurrentQuestion moves the window to index. Out-of-range indexes are a
// reported no-op, never a crash.
func (m *Manager) SetCurrentQuestion(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setIndex(ctx, index)
}

func (m *Manager) setIndex(ctx context.Context, index int) error {
	if m.store == nil {
		return ErrNoActiveExam
	}
	if index < 0 || index >= len(m.statuses) {
		return ErrIndexOutOfRange
	}
	m.index = index
	return m.refreshWindow(ctx)
}

// MoveNext advances one question; a no-op at the last index.
func (m *Manager) MoveNext(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return ErrNoActiveExam
	}
	if m.index >= len(m.statuses)-1 {
		return nil
	}
	return m.setIndex(ctx, m.index+1)
}

// MovePrevious goes back one question; a no-op at index 0.
func (m *Manager) MovePrevious(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return ErrNoActiveExam
	}
	if m.index == 0 {
		return nil
	}
	return m.setIndex(ctx, m.index-1)
}

// SubmitAnswer stages answers on the in-memory current question and flags
// the window entry answered. Nothing is persisted until SaveAnswer.
func (m *Manager) SubmitAnswer(answers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil || m.current == nil {
		return ErrNoActiveExam
	}
	m.current.UserAnswers = answers
	if s, ok := m.statuses[m.index]; ok {
		s.Answered = true
		m.statuses[m.index] = s
	}
	return nil
}

// SaveAnswer persists the staged answer as a question-history row, advances
// the attempt's finished-count, and completes (and scores) the attempt when
// the last question is answered. Re-answering a question replaces its row
// without advancing the count; on a completed attempt the score is
// recomputed from the replacement. The attempt row is written before the
// call reports success.
func (m *Manager) SaveAnswer(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil || m.current == nil {
		return ErrNoActiveExam
	}
	if m.current.UserAnswers == nil {
		return ErrNoStagedAnswer
	}

	answered, err := m.store.HasQuestionHistory(ctx, m.current.ID, m.attempt.ID)
	if err != nil {
		return err
	}

	h := model.QuestionHistory{
		ID:               uuid.New(),
		AttemptHistoryID: m.attempt.ID,
		QuestionID:       m.current.ID,
		IsCorrect:        m.current.IsCorrect(),
		UserAnswer:       m.current.UserAnswers,
	}
	if err := m.store.InsertQuestionHistory(ctx, h); err != nil {
		return err
	}

	if !answered {
		m.attempt.FinishedQuestionAmount++
	}
	if m.attempt.Completed(m.exam.QuestionAmount) {
		m.finished = true
		correct, err := m.store.CorrectCount(ctx, m.attempt.ID)
		if err != nil {
			return err
		}
		m.attempt.Score = float64(correct) / float64(m.exam.QuestionAmount)
	}
	return m.store.UpdateAttempt(ctx, m.attempt)
}

// DiscardAnswer undoes a saved answer: clears the staged copy, marks the
// window entry unanswered, deletes the question-history row and persists
// the decremented attempt.
func (m *Manager) DiscardAnswer(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil || m.current == nil {
		return ErrNoActiveExam
	}
	status, ok := m.statuses[m.index]
	if !ok || !status.Answered {
		return ErrNotAnswered
	}
	if m.attempt.FinishedQuestionAmount == 0 {
		return ErrNotAnswered
	}

	m.current.UserAnswers = nil
	m.attempt.FinishedQuestionAmount--
	m.attempt.Score = model.UnscoredSentinel
	m.finished = false
	status.Answered = false
	m.statuses[m.index] = status

	if err := m.store.RemoveQuestionHistory(ctx, m.current.ID, m.attempt.ID); err != nil {
		return err
	}
	return m.store.UpdateAttempt(ctx, m.attempt)
}

// ToggleMarked flips the bookmark on the current question and persists it.
func (m *Manager) ToggleMarked(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil || m.current == nil {
		return ErrNoActiveExam
	}
	m.current.Marked = !m.current.Marked
	if err := m.store.SetMarked(ctx, *m.current); err != nil {
		return err
	}
	if s, ok := m.statuses[m.index]; ok {
		s.Marked = m.current.Marked
		m.statuses[m.index] = s
	}
	return nil
}

// StartNewAttempt supersedes the current attempt with ordinal+1, even when
// the current one is unfinished. Prior attempts are never deleted. The
// question-list map is rebuilt so answered flags track the new attempt.
func (m *Manager) StartNewAttempt(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return ErrNoActiveExam
	}
	next := model.AttemptHistory{
		ID:        uuid.New(),
		ExamID:    m.exam.ID,
		Version:   m.exam.Version,
		AttemptID: m.attempt.AttemptID + 1,
		Score:     model.UnscoredSentinel,
	}
	if err := m.store.InsertAttempt(ctx, next); err != nil {
		return err
	}
	m.attempt = next
	m.finished = false

	var err error
	if m.statuses, err = m.store.QuestionStatusMap(ctx); err != nil {
		return err
	}
	return m.refreshWindow(ctx)
}

// Progress reports finished/total of the latest persisted attempt for exam,
// independent of which exam is active. A non-active exam's store is opened
// scoped to this call and closed before returning.
func (m *Manager) Progress(ctx context.Context, exam model.Exam) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exam.QuestionAmount == 0 {
		return 0, nil
	}

	st := m.store
	if st == nil || st.FileName() != exam.FileName {
		var err error
		if st, err = bank.Open(ctx, m.dataDir, exam.FileName); err != nil {
			return 0, err
		}
		defer st.Close()
	}
	attempt, err := st.LatestAttempt(ctx, exam)
	if err != nil {
		return 0, err
	}
	return float64(attempt.FinishedQuestionAmount) / float64(exam.QuestionAmount), nil
}

// refreshWindow reloads the prev/current/next snapshots. Whenever the
// window is rebuilt, a submitted answer on the current question is hidden
// in the in-memory copy if the attempt's version no longer matches the
// exam — the persisted row is untouched. This mirrors the store-level
// reconciliation as a second guard against displaying stale answers.
func (m *Manager) refreshWindow(ctx context.Context) error {
	m.prev, m.current, m.next = nil, nil, nil

	var err error
	if m.index > 0 {
		if m.prev, err = m.questionAt(ctx, m.index - 1); err != nil {
			return err
		}
	}
	if m.current, err = m.questionAt(ctx, m.index); err != nil {
		return err
	}
	if m.index < len(m.statuses)-1 {
		if m.next, err = m.questionAt(ctx, m.index + 1); err != nil {
			return err
		}
	}

	if m.current != nil && m.current.UserAnswers != nil && m.attempt.Version != m.exam.Version {
		m.current.UserAnswers = nil
	}
	return nil
}

func (m *Manager) questionAt(ctx context.Context, index int) (*model.Question, error) {
	status, ok := m.statuses[index]
	if !ok {
		return nil, nil
	}
	q, err := m.store.QuestionByID(ctx, status.ID, m.exam.Version)
	if errors.Is(err, bank.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}
