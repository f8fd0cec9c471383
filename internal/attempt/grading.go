package attempt

import (
	"sort"

	"github.com/quizhall/quizhall-backend/internal/model"
)

// SetsEqual reports order-independent equality of two option-id lists.
// Duplicate ids are significant, matching sort-then-compare semantics.
func SetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Grade computes exact-match correctness per question and the aggregate score.
// A question counts only when the selected set equals the accepted set; no
// partial credit on multi-select questions. Entries denormalize the full
// option content for later review display.
func Grade(questions []model.Question, selections map[string][]string) (int, []model.ResultEntry) {
	score := 0
	entries := make([]model.ResultEntry, 0, len(questions))

	for _, q := range questions {
		selected := selections[q.ID.String()]
		correct := SetsEqual(selected, q.CorrectOptions)
		if correct {
			score++
		}

		byID := make(map[string]model.AnswerOption, len(q.Options))
		for _, opt := range q.Options {
			byID[opt.ID] = opt
		}

		entries = append(entries, model.ResultEntry{
			QuestionID:       q.ID.String(),
			QuestionText:     q.Text,
			QuestionImageURL: q.ImageURL,
			Selected:         resolveOptions(byID, selected),
			Correct:          resolveOptions(byID, q.CorrectOptions),
			IsCorrect:        correct,
		})
	}

	return score, entries
}

// resolveOptions maps option ids to their full content. Ids that no longer
// exist in the question are kept as bare entries so the record stays complete.
func resolveOptions(byID map[string]model.AnswerOption, ids []string) []model.AnswerOption {
	opts := make([]model.AnswerOption, 0, len(ids))
	for _, id := range ids {
		if opt, ok := byID[id]; ok {
			opts = append(opts, opt)
			continue
		}
		opts = append(opts, model.AnswerOption{ID: id})
	}
	return opts
}
