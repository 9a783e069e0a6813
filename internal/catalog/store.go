// Package catalog is the durable registry of known exams: one row per exam
// identity, keyed for store lookup by file name.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/model"
)

// ErrNotFound reports a lookup for a file name the catalog has never seen.
var ErrNotFound = errors.New("catalog: exam not found")

// UpsertResult reports what Upsert did with an incoming exam.
type UpsertResult int

const (
	Unchanged UpsertResult = iota
	Inserted
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Store owns the process-lifetime list.db handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the catalog store under dataDir. Failure
// here is fatal to startup; the caller decides that.
func Open(ctx context.Context, dataDir string) (*Store, error) {
	dbh, err := db.Open(ctx, db.CatalogPath(dataDir), db.SchemaCatalog)
	if err != nil {
		return nil, err
	}
	return &Store{db: dbh}, nil
}

// NewStore wraps an already-open handle. Used by tests with an in-memory
// database.
func NewStore(dbh *sql.DB) *Store { return &Store{db: dbh} }

func (s *Store) Close() error { return s.db.Close() }

// Upsert reconciles an incoming exam with the catalog, looked up by file
// name. A new file name inserts (idempotently: a duplicate
// (name, version, last_updated) identity is ignored). A known file name
// updates only when the incoming version is strictly greater, or the
// version is equal and the incoming last-updated is strictly more recent.
// Anything else is a no-op, so an older or duplicate import never clobbers
// newer data.
func (s *Store) Upsert(ctx context.Context, e model.Exam) (UpsertResult, error) {
	lastUpdated := e.LastUpdated.UTC().Format(time.RFC3339)

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM exams WHERE file_name = ?`, e.FileName).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO exams (id, name, version, origin, description, last_updated, question_amount, file_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(), e.Name, e.Version, e.Origin, e.Description, lastUpdated, e.QuestionAmount, e.FileName)
		if err != nil {
			return Unchanged, err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return Unchanged, err
		}
		return Inserted, nil
	case err != nil:
		return Unchanged, err
	}

	// Version first, timestamp as tie-break. Both compare lexically:
	// versions are ordered strings and last_updated is RFC 3339 UTC.
	res, err := s.db.ExecContext(ctx,
		`UPDATE exams
		 SET name = ?, version = ?, origin = ?, description = ?, last_updated = ?, question_amount = ?
		 WHERE file_name = ?
		   AND (version < ? OR (version = ? AND last_updated < ?))`,
		e.Name, e.Version, e.Origin, e.Description, lastUpdated, e.QuestionAmount,
		e.FileName, e.Version, e.Version, lastUpdated)
	if err != nil {
		return Unchanged, err
	}
	// A completed statement with zero affected rows means the guard
	// rejected the import; that must not report success.
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return Unchanged, err
	}
	return Updated, nil
}

// ByFileName returns the exam registered under fileName.
func (s *Store) ByFileName(ctx context.Context, fileName string) (model.Exam, error) {
	var (
		e           model.Exam
		id, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, origin, description, last_updated, question_amount, file_name
		 FROM exams WHERE file_name = ?`, fileName).
		Scan(&id, &e.Name, &e.Version, &e.Origin, &e.Description, &updated, &e.QuestionAmount, &e.FileName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exam{}, ErrNotFound
	}
	if err != nil {
		return model.Exam{}, err
	}
	if e.ID, err = uuid.Parse(id); err != nil {
		return model.Exam{}, err
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		e.LastUpdated = t
	}
	return e, nil
}

// List returns all known exams, unordered.
func (s *Store) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, version, origin, description, last_updated, question_amount, file_name FROM exams`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var (
			e           model.Exam
			id, updated string
		)
		if err := rows.Scan(&id, &e.Name, &e.Version, &e.Origin, &e.Description, &updated, &e.QuestionAmount, &e.FileName); err != nil {
			return nil, err
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			e.LastUpdated = t
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
