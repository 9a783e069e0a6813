package catalog

import (
	"context"
	"time"
)

// Event is one ingestion outcome recorded in list.db. Key is the exam file
// name (or source path for documents rejected before decoding).
type Event struct {
	Offset    int64  `json:"offset"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	Detail    string `json:"detail"`
	CreatedAt int64  `json:"created_at"`
}

// Ingestion event types.
const (
	EventExamInserted = "exam_inserted"
	EventExamUpdated  = "exam_updated"
	EventExamSkipped  = "exam_skipped"
	EventExamRejected = "exam_rejected"
)

// AppendEvent records an ingestion outcome. Logging failures are surfaced
// but never roll back the ingestion they describe.
func (s *Store) AppendEvent(ctx context.Context, typ, key, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_log (typ, key, detail, created_at) VALUES (?, ?, ?, ?)`,
		typ, key, detail, time.Now().Unix())
	return err
}

// Events returns the most recent ingestion events, newest first.
func (s *Store) Events(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT offset, typ, key, detail, created_at FROM ingest_log ORDER BY offset DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
