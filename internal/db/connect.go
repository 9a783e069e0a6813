// Package db opens the embedded SQLite stores and ensures their schemas.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite" // driver: sqlite
)

// CatalogFileName is the process-lifetime registry store. Exam stores live
// next to it as <fileName>.db.
const CatalogFileName = "list.db"

// CatalogPath returns the catalog store path under dataDir.
func CatalogPath(dataDir string) string {
	return filepath.Join(dataDir, CatalogFileName)
}

// ExamPath returns the per-exam store path under dataDir for an exam file
// name (the stable key from the catalog, without extension).
func ExamPath(dataDir, fileName string) string {
	return filepath.Join(dataDir, fileName+".db")
}

// Open opens the SQLite file at path and applies schema. The DSN enables a
// busy timeout and foreign keys the same way for every store.
func Open(ctx context.Context, path, schema string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	dbh, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := dbh.PingContext(ctx); err != nil {
		dbh.Close()
		return nil, err
	}
	if _, err := dbh.ExecContext(ctx, schema); err != nil {
		dbh.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return dbh, nil
}

// OpenMemory opens a private in-memory store with schema applied. Test use.
func OpenMemory(ctx context.Context, schema string) (*sql.DB, error) {
	dbh, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Each in-memory connection is its own database, so the pool must not
	// open a second one.
	dbh.SetMaxOpenConns(1)
	if _, err := dbh.ExecContext(ctx, schema); err != nil {
		dbh.Close()
		return nil, err
	}
	return dbh, nil
}

// SchemaCatalog backs list.db: the registry of known exams plus the
// ingestion log.
const SchemaCatalog = `
CREATE TABLE IF NOT EXISTS exams (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  version TEXT,
  origin TEXT,
  description TEXT,
  last_updated TEXT,
  question_amount INTEGER NOT NULL,
  file_name TEXT,
  UNIQUE(name, version, last_updated)
);

CREATE TABLE IF NOT EXISTS ingest_log (
  offset INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  detail TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

// SchemaExam backs one <fileName>.db per exam: the question bank and the
// attempt/answer history.
const SchemaExam = `
CREATE TABLE IF NOT EXISTS topics (
  id TEXT PRIMARY KEY,
  name TEXT,
  UNIQUE(name)
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  topic_id TEXT,
  "index" INTEGER,
  body TEXT,
  options TEXT,
  correct_answers TEXT,
  marked BOOLEAN,
  offset REAL,
  FOREIGN KEY (topic_id) REFERENCES topics(id),
  UNIQUE(body, options, "index")
);

CREATE TABLE IF NOT EXISTS attempt_history (
  id TEXT PRIMARY KEY,
  exam_id TEXT,
  version TEXT,
  attempt_id INTEGER,
  mode TEXT,
  score REAL,
  finished_question_amount INTEGER
);

CREATE TABLE IF NOT EXISTS question_history (
  id TEXT PRIMARY KEY,
  attempt_history_id TEXT,
  question_id TEXT,
  is_correct INTEGER,
  user_answer TEXT,
  FOREIGN KEY (attempt_history_id) REFERENCES attempt_history(id),
  FOREIGN KEY (question_id) REFERENCES questions(id),
  UNIQUE(attempt_history_id, question_id)
);
`
