package ingest

import (
	"context"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/bank"
	"github.com/examdeck/examdeck/internal/catalog"
	"github.com/examdeck/examdeck/internal/model"
)

// Pipeline reconciles source documents into the catalog and seeds the
// per-exam stores. Failures are scoped to one document: a rejected bundle
// never rolls back previously committed exams.
type Pipeline struct {
	catalog *catalog.Store
	dataDir string
}

func NewPipeline(cat *catalog.Store, dataDir string) *Pipeline {
	return &Pipeline{catalog: cat, dataDir: dataDir}
}

// Run processes every bundle the source yields. Per-document errors are
// logged and recorded in the ingest log, then skipped.
func (p *Pipeline) Run(ctx context.Context, src *Source) error {
	paths, err := src.Paths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		res, err := p.ProcessFile(ctx, path)
		if err != nil {
			log.Printf("ingest: %s rejected: %v", path, err)
			if logErr := p.catalog.AppendEvent(ctx, catalog.EventExamRejected, FileKey(path), err.Error()); logErr != nil {
				log.Printf("ingest: append event: %v", logErr)
			}
			continue
		}
		log.Printf("ingest: %s %s", path, res)
	}
	return nil
}

// ProcessFile ingests one bundle: decode, validate, reconcile with the
// catalog, and — when the catalog reports the exam as new or newer — seed
// the exam store with its topics and questions.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (catalog.UpsertResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Unchanged, err
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return catalog.Unchanged, err
	}
	exam, topics, questions, err := doc.Materialize(FileKey(path))
	if err != nil {
		return catalog.Unchanged, err
	}

	res, err := p.catalog.Upsert(ctx, exam)
	if err != nil {
		return catalog.Unchanged, err
	}
	if res == catalog.Unchanged {
		if err := p.catalog.AppendEvent(ctx, catalog.EventExamSkipped, exam.FileName, "catalog up to date for version "+exam.Version); err != nil {
			log.Printf("ingest: append event: %v", err)
		}
		return res, nil
	}

	if err := p.seed(ctx, exam.FileName, topics, questions); err != nil {
		return res, err
	}

	typ := catalog.EventExamInserted
	if res == catalog.Updated {
		typ = catalog.EventExamUpdated
	}
	if err := p.catalog.AppendEvent(ctx, typ, exam.FileName, "version "+exam.Version); err != nil {
		log.Printf("ingest: append event: %v", err)
	}
	return res, nil
}

// seed opens the exam store scoped to this call and inserts the bank rows.
// All inserts are insert-or-ignore, so re-seeding an unchanged bank is a
// no-op and retried ingestion stays safe.
func (p *Pipeline) seed(ctx context.Context, fileName string, topics []model.Topic, questions []model.Question) error {
	st, err := bank.Open(ctx, p.dataDir, fileName)
	if err != nil {
		return err
	}
	defer st.Close()

	// A re-ingested topic keeps its stored id; remap questions onto it.
	ids := make(map[uuid.UUID]uuid.UUID, len(topics))
	for _, t := range topics {
		stored, err := st.EnsureTopic(ctx, t)
		if err != nil {
			return err
		}
		ids[t.ID] = stored
	}
	for _, q := range questions {
		q.TopicID = ids[q.TopicID]
		if err := st.InsertQuestion(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
