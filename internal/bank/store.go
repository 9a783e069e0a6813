// Package bank is the per-exam durable store: one SQLite file per exam
// file name holding topics, questions, attempt history and per-question
// answer history.
package bank

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/codec"
	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/model"
)

// ErrNotFound is returned when a point lookup matches no row.
var ErrNotFound = errors.New("bank: not found")

// Store owns one open <fileName>.db handle. Exactly one store is active per
// session; the session manager swaps handles on exam selection and closes
// the previous one first.
type Store struct {
	db       *sql.DB
	fileName string
}

// Open opens (creating if absent) the store for fileName under dataDir and
// ensures its four tables exist.
func Open(ctx context.Context, dataDir, fileName string) (*Store, error) {
	dbh, err := db.Open(ctx, db.ExamPath(dataDir, fileName), db.SchemaExam)
	if err != nil {
		return nil, err
	}
	return &Store{db: dbh, fileName: fileName}, nil
}

// NewStore wraps an already-open handle. Used by tests with an in-memory
// database.
func NewStore(dbh *sql.DB, fileName string) *Store {
	return &Store{db: dbh, fileName: fileName}
}

// FileName is the exam file name this store was opened for.
func (s *Store) FileName() string { return s.fileName }

func (s *Store) Close() error { return s.db.Close() }

// InsertTopic inserts a topic. Re-inserting an identical topic name is a
// no-op success, so ingestion can be retried safely.
func (s *Store) InsertTopic(ctx context.Context, t model.Topic) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO topics (id, name) VALUES (?, ?)`,
		t.ID.String(), t.Name)
	return err
}

// EnsureTopic inserts the topic if its name is new and returns the stored
// topic id either way. Question rows must reference the stored id, not the
// one a re-ingested bundle generated.
func (s *Store) EnsureTopic(ctx context.Context, t model.Topic) (uuid.UUID, error) {
	if err := s.InsertTopic(ctx, t); err != nil {
		return uuid.Nil, err
	}
	var id string
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM topics WHERE name = ?`, t.Name).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(id)
}

// InsertQuestion inserts a question. The (body, options, index) uniqueness
// constraint turns duplicate ingestion into a no-op success.
func (s *Store) InsertQuestion(ctx context.Context, q model.Question) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO questions (id, topic_id, "index", body, options, correct_answers, marked, offset)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID.String(), q.TopicID.String(), q.Index, q.Body,
		codec.Join(q.Options), codec.Join(q.CorrectAnswers), q.Marked, q.Offset)
	return err
}

// SetMarked persists the bookmark flag of a question, nothing else.
func (s *Store) SetMarked(ctx context.Context, q model.Question) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE questions SET marked = ? WHERE id = ?`,
		q.Marked, q.ID.String())
	return err
}
