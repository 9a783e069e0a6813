package bank

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/codec"
	"github.com/examdeck/examdeck/internal/model"
)

// InsertAttempt writes an attempt row, replacing any existing row with the
// same id. Used both for fresh attempts and for the ensure-an-attempt-exists
// fallback in LatestAttempt.
func (s *Store) InsertAttempt(ctx context.Context, a model.AttemptHistory) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO attempt_history (id, exam_id, version, attempt_id, mode, score, finished_question_amount)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.ExamID.String(), a.Version, a.AttemptID, a.Mode, a.Score, a.FinishedQuestionAmount)
	return err
}

// UpdateAttempt persists score and finished-count only, keyed by attempt id.
func (s *Store) UpdateAttempt(ctx context.Context, a model.AttemptHistory) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE attempt_history SET score = ?, finished_question_amount = ? WHERE id = ?`,
		a.Score, a.FinishedQuestionAmount, a.ID.String())
	return err
}

// LatestAttempt returns the attempt with the highest ordinal for exam.
// The stored row is only resumable when it is fully finished (a completed
// past attempt stays visible regardless of version) or when it was taken
// against the exam's current version. Anything else — including no attempt
// at all — synthesizes and persists a fresh empty attempt, so an
// in-progress attempt never resumes against a question bank that has
// changed shape underneath it.
func (s *Store) LatestAttempt(ctx context.Context, exam model.Exam) (model.AttemptHistory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, exam_id, version, attempt_id, mode, score, finished_question_amount
		 FROM attempt_history WHERE exam_id = ? ORDER BY attempt_id DESC LIMIT 1`,
		exam.ID.String())

	var (
		a          model.AttemptHistory
		id, examID string
	)
	err := row.Scan(&id, &examID, &a.Version, &a.AttemptID, &a.Mode, &a.Score, &a.FinishedQuestionAmount)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.freshAttempt(ctx, exam, 1)
	case err != nil:
		return model.AttemptHistory{}, err
	}

	// A superseding attempt takes the next ordinal so the stale one stays
	// behind it in history.
	if a.FinishedQuestionAmount != exam.QuestionAmount && a.Version != exam.Version {
		return s.freshAttempt(ctx, exam, a.AttemptID+1)
	}

	if a.ID, err = uuid.Parse(id); err != nil {
		return model.AttemptHistory{}, err
	}
	if a.ExamID, err = uuid.Parse(examID); err != nil {
		return model.AttemptHistory{}, err
	}
	return a, nil
}

func (s *Store) freshAttempt(ctx context.Context, exam model.Exam, ordinal int) (model.AttemptHistory, error) {
	a := model.AttemptHistory{
		ID:        uuid.New(),
		ExamID:    exam.ID,
		Version:   exam.Version,
		AttemptID: ordinal,
		Score:     model.UnscoredSentinel,
	}
	if err := s.InsertAttempt(ctx, a); err != nil {
		return model.AttemptHistory{}, err
	}
	return a, nil
}

// InsertQuestionHistory records a submitted answer, replacing any previous
// answer for the same (attempt, question) pair.
func (s *Store) InsertQuestionHistory(ctx context.Context, h model.QuestionHistory) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO question_history (id, attempt_history_id, question_id, is_correct, user_answer)
		 VALUES (?, ?, ?, ?, ?)`,
		h.ID.String(), h.AttemptHistoryID.String(), h.QuestionID.String(), h.IsCorrect, codec.Join(h.UserAnswer))
	return err
}

// HasQuestionHistory reports whether an answer row already exists for the
// (attempt, question) pair.
func (s *Store) HasQuestionHistory(ctx context.Context, questionID, attemptID uuid.UUID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM question_history WHERE question_id = ? AND attempt_history_id = ?`,
		questionID.String(), attemptID.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoveQuestionHistory deletes the single (attempt, question) answer row.
func (s *Store) RemoveQuestionHistory(ctx context.Context, questionID, attemptID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM question_history WHERE question_id = ? AND attempt_history_id = ?`,
		questionID.String(), attemptID.String())
	return err
}

// CorrectCount counts the correct answers recorded for one attempt.
func (s *Store) CorrectCount(ctx context.Context, attemptID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM question_history WHERE attempt_history_id = ? AND is_correct = 1`,
		attemptID.String()).Scan(&n)
	return n, err
}
