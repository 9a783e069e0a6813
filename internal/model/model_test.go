package model

import (
	"math/rand"
	"sort"
	"testing"
)

func TestIsCorrect(t *testing.T) {
	cases := []struct {
		name    string
		user    []string
		correct []string
		want    bool
	}{
		{"unanswered", nil, []string{"a"}, false},
		{"exact match", []string{"a"}, []string{"a"}, true},
		{"order insensitive", []string{"b", "a"}, []string{"a", "b"}, true},
		{"wrong answer", []string{"c"}, []string{"a"}, false},
		{"subset is wrong", []string{"a"}, []string{"a", "b"}, false},
		{"duplicate mismatch", []string{"a", "a"}, []string{"a", "b"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Question{UserAnswers: tc.user, CorrectAnswers: tc.correct}
			if got := q.IsCorrect(); got != tc.want {
				t.Errorf("IsCorrect() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShuffleKeepsOptions(t *testing.T) {
	q := Question{Options: []string{"a", "b", "c", "d"}}
	q.Shuffle(rand.New(rand.NewSource(1)))
	got := append([]string(nil), q.Options...)
	sort.Strings(got)
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("options changed after shuffle: %v", q.Options)
		}
	}
}

func TestCompleted(t *testing.T) {
	a := AttemptHistory{FinishedQuestionAmount: 3}
	if !a.Completed(3) {
		t.Error("attempt with all questions finished should be completed")
	}
	if a.Completed(4) {
		t.Error("attempt with open questions should not be completed")
	}
	empty := AttemptHistory{}
	if empty.Completed(0) {
		t.Error("zero-question exam never completes")
	}
}
