package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/catalog"
	"github.com/examdeck/examdeck/internal/db"
	"github.com/examdeck/examdeck/internal/model"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	dbh, err := db.OpenMemory(context.Background(), db.SchemaCatalog)
	if err != nil {
		t.Fatalf("open catalog store: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return catalog.NewStore(dbh)
}

func testExam(version string, updated time.Time) model.Exam {
	return model.Exam{
		ID:             uuid.New(),
		Name:           "Network Basics",
		Version:        version,
		Origin:         "examdeck",
		Description:    "practice bank",
		LastUpdated:    updated,
		FileName:       "network_basics",
		QuestionAmount: 3,
	}
}

func TestUpsertInsertsNewExam(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	res, err := st.Upsert(ctx, testExam("1.0", time.Unix(1700000000, 0)))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res != catalog.Inserted {
		t.Fatalf("upsert = %v, want inserted", res)
	}

	exams, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(exams) != 1 {
		t.Fatalf("got %d exams, want 1", len(exams))
	}
	if exams[0].FileName != "network_basics" || exams[0].Version != "1.0" {
		t.Errorf("unexpected exam row: %+v", exams[0])
	}
}

func TestUpsertIdempotentReingestion(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	updated := time.Unix(1700000000, 0)

	if _, err := st.Upsert(ctx, testExam("1.0", updated)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Same identity, different row id: the insert is ignored and the
	// update guard rejects the equal version/timestamp.
	res, err := st.Upsert(ctx, testExam("1.0", updated))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if res != catalog.Unchanged {
		t.Errorf("re-ingestion = %v, want unchanged", res)
	}

	exams, _ := st.List(ctx)
	if len(exams) != 1 {
		t.Fatalf("got %d exams after re-ingestion, want 1", len(exams))
	}
}

func TestUpsertOrdering(t *testing.T) {
	base := time.Unix(1700000000, 0)
	cases := []struct {
		name     string
		version  string
		updated  time.Time
		want     catalog.UpsertResult
		wantVers string
	}{
		{"older version never updates", "0.9", base.Add(time.Hour), catalog.Unchanged, "1.0"},
		{"same version older timestamp never updates", "1.0", base.Add(-time.Hour), catalog.Unchanged, "1.0"},
		{"same version same timestamp never updates", "1.0", base, catalog.Unchanged, "1.0"},
		{"newer version always updates", "2.0", base.Add(-24 * time.Hour), catalog.Updated, "2.0"},
		{"same version newer timestamp updates", "1.0", base.Add(time.Hour), catalog.Updated, "1.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newTestStore(t)
			ctx := context.Background()
			if _, err := st.Upsert(ctx, testExam("1.0", base)); err != nil {
				t.Fatalf("seed upsert: %v", err)
			}

			res, err := st.Upsert(ctx, testExam(tc.version, tc.updated))
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if res != tc.want {
				t.Errorf("upsert = %v, want %v", res, tc.want)
			}
			exams, _ := st.List(ctx)
			if exams[0].Version != tc.wantVers {
				t.Errorf("stored version = %q, want %q", exams[0].Version, tc.wantVers)
			}
		})
	}
}

func TestUpsertKeepsOriginalID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := testExam("1.0", time.Unix(1700000000, 0))
	if _, err := st.Upsert(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := st.Upsert(ctx, testExam("2.0", time.Unix(1700000000, 0))); err != nil {
		t.Fatalf("update: %v", err)
	}

	exams, _ := st.List(ctx)
	if exams[0].ID != first.ID {
		t.Errorf("update replaced the stable exam id: %s != %s", exams[0].ID, first.ID)
	}
}

func TestByFileName(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	want := testExam("1.0", time.Unix(1700000000, 0))
	if _, err := st.Upsert(ctx, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := st.ByFileName(ctx, "network_basics")
	if err != nil {
		t.Fatalf("by file name: %v", err)
	}
	if got.ID != want.ID || got.Version != "1.0" || got.QuestionAmount != 3 {
		t.Errorf("unexpected exam: %+v", got)
	}

	if _, err := st.ByFileName(ctx, "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestEventLog(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, typ := range []string{catalog.EventExamInserted, catalog.EventExamUpdated} {
		if err := st.AppendEvent(ctx, typ, "network_basics", "v1.0"); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	events, err := st.Events(ctx, 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != catalog.EventExamUpdated {
		t.Errorf("events not newest-first: %+v", events)
	}
}
