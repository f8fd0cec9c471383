package attempt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/quizhall/quizhall-backend/internal/model"
)

func mcQuestion(t *testing.T, text string, optionIDs []string, correct []string) model.Question {
	t.Helper()
	opts := make([]model.AnswerOption, len(optionIDs))
	for i, id := range optionIDs {
		opts[i] = model.AnswerOption{ID: id, Text: "option " + id}
	}
	return model.Question{
		ID:             uuid.New(),
		Text:           text,
		Options:        opts,
		CorrectOptions: correct,
	}
}

func TestSetsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{"reversed order", []string{"a", "b"}, []string{"b", "a"}, true},
		{"identical", []string{"a"}, []string{"a"}, true},
		{"both empty", nil, []string{}, true},
		{"subset", []string{"a"}, []string{"a", "b"}, false},
		{"superset", []string{"a", "b", "c"}, []string{"a", "b"}, false},
		{"disjoint", []string{"a"}, []string{"b"}, false},
		{"duplicate vs single", []string{"a", "a"}, []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SetsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("SetsEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestGradeMultiSelectExactMatch(t *testing.T) {
	q := mcQuestion(t, "pick two", []string{"a", "b", "c", "d"}, []string{"a", "b"})

	score, entries := Grade([]model.Question{q}, map[string][]string{
		q.ID.String(): {"b", "a"}, // reversed order still counts
	})
	if score != 1 {
		t.Errorf("score = %d, want 1", score)
	}
	if !entries[0].IsCorrect {
		t.Error("reversed-order selection must be correct")
	}

	score, entries = Grade([]model.Question{q}, map[string][]string{
		q.ID.String(): {"a"}, // partial answer, no partial credit
	})
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if entries[0].IsCorrect {
		t.Error("partial selection must not be correct")
	}
}

func TestGradeScenario(t *testing.T) {
	// 3 questions, 2 answered correctly, 1 wrong.
	q1 := mcQuestion(t, "q1", []string{"a", "b"}, []string{"a"})
	q2 := mcQuestion(t, "q2", []string{"a", "b", "c"}, []string{"b", "c"})
	q3 := mcQuestion(t, "q3", []string{"a", "b"}, []string{"b"})
	questions := []model.Question{q1, q2, q3}

	score, entries := Grade(questions, map[string][]string{
		q1.ID.String(): {"a"},
		q2.ID.String(): {"c", "b"},
		q3.ID.String(): {"a"},
	})

	if score != 2 {
		t.Errorf("score = %d, want 2", score)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	correct := 0
	for _, e := range entries {
		if e.IsCorrect {
			correct++
		}
	}
	if correct != 2 {
		t.Errorf("correct entries = %d, want 2", correct)
	}
}

func TestGradeDenormalizesOptionContent(t *testing.T) {
	q := mcQuestion(t, "q", []string{"a", "b"}, []string{"b"})

	_, entries := Grade([]model.Question{q}, map[string][]string{
		q.ID.String(): {"a"},
	})

	e := entries[0]
	if e.QuestionText != "q" {
		t.Errorf("question text = %q", e.QuestionText)
	}
	if len(e.Selected) != 1 || e.Selected[0].Text != "option a" {
		t.Errorf("selected content not denormalized: %+v", e.Selected)
	}
	if len(e.Correct) != 1 || e.Correct[0].Text != "option b" {
		t.Errorf("correct content not denormalized: %+v", e.Correct)
	}
}

func TestGradeUnansweredQuestion(t *testing.T) {
	q := mcQuestion(t, "q", []string{"a", "b"}, []string{"a"})

	score, entries := Grade([]model.Question{q}, map[string][]string{})
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if entries[0].IsCorrect {
		t.Error("unanswered question must not be correct")
	}
	if len(entries[0].Selected) != 0 {
		t.Errorf("selected = %+v, want empty", entries[0].Selected)
	}
}
