package bank

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/codec"
	"github.com/examdeck/examdeck/internal/model"
)

// QuestionStatusMap builds the session-window cache in one query: for every
// question, its index, bookmark flag and whether an answer row exists in
// the attempt with the highest ordinal. Marked status is always current
// from the questions table; answered status is only ever relative to that
// single most-recent attempt. A reseeded bank can hold a superseded and a
// revised row on the same index; rowid ordering makes the newest row win
// the map slot.
func (s *Store) QuestionStatusMap(ctx context.Context) (map[int]model.QuestionStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q."index", q.marked, CASE WHEN qh.id IS NULL THEN 0 ELSE 1 END AS answered, q.id
		FROM questions q
		LEFT JOIN (
			SELECT qh.question_id, qh.id
			FROM question_history qh
			JOIN attempt_history ah ON qh.attempt_history_id = ah.id
			WHERE ah.id = (SELECT id FROM attempt_history ORDER BY attempt_id DESC LIMIT 1)
		) qh ON q.id = qh.question_id
		ORDER BY q."index", q.rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[int]model.QuestionStatus)
	for rows.Next() {
		var (
			index  int
			status model.QuestionStatus
			id     string
		)
		if err := rows.Scan(&index, &status.Marked, &status.Answered, &id); err != nil {
			return nil, err
		}
		if status.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		statuses[index] = status
	}
	return statuses, rows.Err()
}

// QuestionByID loads one question joined with its most-recent-attempt
// answer, if any. The caller supplies the exam's current version; when the
// answering attempt was taken against a different version the submitted
// answers are withheld, never silently reattached to a newer bank.
func (s *Store) QuestionByID(ctx context.Context, id uuid.UUID, version string) (model.Question, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT q.id, q.topic_id, q."index", q.body, q.options, q.correct_answers, q.marked, q.offset,
		       qh.user_answer, qh.version
		FROM questions q
		LEFT JOIN (
			SELECT qh.question_id, qh.user_answer, ah.version
			FROM question_history qh
			JOIN attempt_history ah ON qh.attempt_history_id = ah.id
			WHERE ah.id = (SELECT id FROM attempt_history ORDER BY attempt_id DESC LIMIT 1)
		) qh ON q.id = qh.question_id
		WHERE q.id = ?`, id.String())

	var (
		q                      model.Question
		qid, topicID           string
		options, correct       string
		userAnswer, attemptVer sql.NullString
	)
	err := row.Scan(&qid, &topicID, &q.Index, &q.Body, &options, &correct, &q.Marked, &q.Offset, &userAnswer, &attemptVer)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.Question{}, ErrNotFound
	case err != nil:
		return model.Question{}, err
	}

	if q.ID, err = uuid.Parse(qid); err != nil {
		return model.Question{}, err
	}
	if q.TopicID, err = uuid.Parse(topicID); err != nil {
		return model.Question{}, err
	}
	q.Options = codec.Split(options)
	q.CorrectAnswers = codec.Split(correct)

	if userAnswer.Valid && attemptVer.Valid && attemptVer.String == version {
		q.UserAnswers = codec.Split(userAnswer.String)
	}
	return q, nil
}
