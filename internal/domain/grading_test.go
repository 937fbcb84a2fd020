package domain

import (
	"testing"
	"time"
)

func TestGrade(t *testing.T) {
	freeText := Question{Type: QuestionTypeFreeText, CorrectAnswer: "  A closure keeps its scope "}
	choice := Question{
		Type: QuestionTypeMultipleChoice,
		Choices: []Choice{
			{Text: "var"},
			{Text: "let", IsCorrect: true},
			{Text: "const", IsCorrect: true},
		},
	}

	cases := []struct {
		name     string
		question Question
		answer   string
		want     bool
	}{
		{"free text exact", freeText, "A closure keeps its scope", true},
		{"free text case and spaces", freeText, "a CLOSURE keeps its scope\n", true},
		{"free text wrong", freeText, "a closure", false},
		{"choice correct", choice, "LET ", true},
		{"choice second flagged is ignored", choice, "const", false},
		{"choice wrong", choice, "var", false},
		{"choice without flagged option", Question{Type: QuestionTypeMultipleChoice, Choices: []Choice{{Text: "a"}}}, "a", false},
		{"unknown type", Question{Type: "essay", CorrectAnswer: "x"}, "x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Grade(tc.question, tc.answer); got != tc.want {
				t.Fatalf("Grade(%q) = %v, want %v", tc.answer, got, tc.want)
			}
		})
	}
}

func TestAccuracyRoundsHalfUp(t *testing.T) {
	cases := []struct{ correct, total, want int }{
		{2, 3, 67},
		{1, 3, 33},
		{1, 2, 50},
		{1, 8, 13}, // 12.5
		{0, 0, 0},
		{0, 4, 0},
		{4, 4, 100},
	}
	for _, tc := range cases {
		if got := Accuracy(tc.correct, tc.total); got != tc.want {
			t.Fatalf("Accuracy(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestAttemptScoreAndExpiry(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	attempt := Attempt{
		Status:    AttemptInProgress,
		StartedAt: start,
		Answers: []AttemptAnswer{
			{QuestionID: "q1", IsCorrect: true},
			{QuestionID: "q2", IsCorrect: false},
			{QuestionID: "q3", IsCorrect: true},
		},
	}
	if got := attempt.RecomputeScore(); got != 20 {
		t.Fatalf("expected default 10 points per answer, got score %d", got)
	}
	attempt.PointsPerAnswer = 5
	if got := attempt.RecomputeScore(); got != 10 {
		t.Fatalf("expected 5 points per answer, got score %d", got)
	}
	if !attempt.HasAnswer("q2") || attempt.HasAnswer("q4") {
		t.Fatalf("unexpected HasAnswer results")
	}

	if attempt.Expired(0, start.Add(time.Hour)) {
		t.Fatalf("zero ttl must never expire")
	}
	if attempt.Expired(30*time.Minute, start.Add(29*time.Minute)) {
		t.Fatalf("attempt expired too early")
	}
	if !attempt.Expired(30*time.Minute, start.Add(30*time.Minute)) {
		t.Fatalf("attempt should expire at ttl")
	}
	attempt.Status = AttemptCompleted
	if attempt.ExpiresAt(time.Minute) != nil {
		t.Fatalf("completed attempts have no expiry")
	}
}

func TestUniqueIDs(t *testing.T) {
	got := UniqueIDs([]string{"a", "", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
