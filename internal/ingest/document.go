// Package ingest discovers exam bundle documents, validates them and
// reconciles them into the catalog and per-exam stores.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/examdeck/examdeck/internal/model"
)

// MaxQuestions caps one document. Exceeding it rejects the whole document,
// never a partial import.
const MaxQuestions = 1500

var (
	// ErrInvalidDocument covers malformed or incomplete source documents,
	// including structurally-present fields of the wrong type.
	ErrInvalidDocument = errors.New("ingest: invalid document")
	// ErrTooManyQuestions is the capacity rejection.
	ErrTooManyQuestions = fmt.Errorf("ingest: document exceeds %d questions", MaxQuestions)
)

// Document is the typed intermediate representation of one source exam
// bundle, mirroring the JSON schema exactly. It is produced before any
// store-facing code runs.
type Document struct {
	Version     string          `json:"version" validate:"required"`
	Origin      string          `json:"origin" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	LastUpdated string          `json:"last_updated" validate:"required"`
	Topics      []TopicDocument `json:"topics" validate:"required,min=1,dive"`
}

type TopicDocument struct {
	Name      string             `json:"name" validate:"required"`
	Questions []QuestionDocument `json:"questions" validate:"required,min=1,dive"`
}

type QuestionDocument struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=1"`
	CorrectAnswer []string `json:"correct_answer" validate:"required,min=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeDocument parses and validates one source document. Any type
// mismatch or missing field fails closed; nothing is defaulted.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := validate.Struct(doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, err := time.Parse(time.RFC3339, doc.LastUpdated); err != nil {
		return Document{}, fmt.Errorf("%w: last_updated: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Materialize turns a validated document into catalog and store rows.
// Question indexes are assigned 0-based across the whole document, in
// topic order. fileName is the bundle file name without extension — the
// stable store key.
func (d Document) Materialize(fileName string) (model.Exam, []model.Topic, []model.Question, error) {
	lastUpdated, err := time.Parse(time.RFC3339, d.LastUpdated)
	if err != nil {
		return model.Exam{}, nil, nil, fmt.Errorf("%w: last_updated: %v", ErrInvalidDocument, err)
	}

	var (
		topics    []model.Topic
		questions []model.Question
	)
	for _, td := range d.Topics {
		topic := model.Topic{ID: uuid.New(), Name: td.Name}
		topics = append(topics, topic)
		for _, qd := range td.Questions {
			questions = append(questions, model.Question{
				ID:             uuid.New(),
				TopicID:        topic.ID,
				Index:          len(questions),
				Body:           qd.Text,
				Options:        qd.Options,
				CorrectAnswers: qd.CorrectAnswer,
			})
			if len(questions) > MaxQuestions {
				return model.Exam{}, nil, nil, ErrTooManyQuestions
			}
		}
	}

	exam := model.Exam{
		ID:             uuid.New(),
		Name:           d.Name,
		Version:        d.Version,
		Origin:         d.Origin,
		Description:    d.Description,
		LastUpdated:    lastUpdated,
		FileName:       fileName,
		QuestionAmount: len(questions),
	}
	return exam, topics, questions, nil
}
