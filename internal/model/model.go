// Package model holds the domain types shared by the catalog store, the
// per-exam stores and the session manager.
package model

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Exam is the catalog row for one versioned question bank. FileName is the
// stable store key: it never changes across versions of the same exam.
type Exam struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	Origin         string    `json:"origin"`
	Description    string    `json:"description"`
	LastUpdated    time.Time `json:"last_updated"`
	FileName       string    `json:"file_name"`
	QuestionAmount int       `json:"question_amount"`
}

// Topic groups questions inside one exam store. Name is unique per store.
type Topic struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Question is one bank entry. Index is the 0-based position across the
// whole exam, unique within a store. UserAnswers is only populated when a
// matching-version answer exists in the latest attempt.
type Question struct {
	ID             uuid.UUID `json:"id"`
	TopicID        uuid.UUID `json:"topic_id"`
	Index          int       `json:"index"`
	Body           string    `json:"body"`
	Options        []string  `json:"options"`
	CorrectAnswers []string  `json:"correct_answers"`
	Marked         bool      `json:"marked"`
	Offset         float64   `json:"offset"`
	UserAnswers    []string  `json:"user_answers,omitempty"`
}

// IsCorrect reports whether the submitted answers match the correct set,
// order-insensitive.
func (q Question) IsCorrect() bool {
	if q.UserAnswers == nil {
		return false
	}
	return equalStringSets(q.UserAnswers, q.CorrectAnswers)
}

// Shuffle reorders the options in place. Presentation only, never persisted.
func (q *Question) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
}

// UnscoredSentinel marks an attempt whose score has not been computed yet.
const UnscoredSentinel = -1

// AttemptHistory is one numbered pass through an exam, scoped to the exam
// version active when it started. AttemptID is the per-exam ordinal,
// starting at 1.
type AttemptHistory struct {
	ID                     uuid.UUID `json:"id"`
	ExamID                 uuid.UUID `json:"exam_id"`
	Version                string    `json:"version"`
	AttemptID              int       `json:"attempt_id"`
	Mode                   string    `json:"mode"`
	Score                  float64   `json:"score"`
	FinishedQuestionAmount int       `json:"finished_question_amount"`
}

// Completed reports whether every question of an exam with questionAmount
// questions has been answered in this attempt.
func (a AttemptHistory) Completed(questionAmount int) bool {
	return questionAmount > 0 && a.FinishedQuestionAmount == questionAmount
}

// QuestionHistory records one submitted answer for one question within one
// attempt. At most one row exists per (attempt, question).
type QuestionHistory struct {
	ID               uuid.UUID `json:"id"`
	AttemptHistoryID uuid.UUID `json:"attempt_history_id"`
	QuestionID       uuid.UUID `json:"question_id"`
	IsCorrect        bool      `json:"is_correct"`
	UserAnswer       []string  `json:"user_answer"`
}

// QuestionStatus is one entry of the session-window map: the per-index
// navigation state derived from the questions table and the latest attempt.
type QuestionStatus struct {
	Marked   bool      `json:"marked"`
	Answered bool      `json:"answered"`
	ID       uuid.UUID `json:"id"`
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := map[string]int{}
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
	}
	for _, v := range seen {
		if v != 0 {
			return false
		}
	}
	return true
}
