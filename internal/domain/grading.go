package domain

import "strings"

// Grade decides whether answer is correct for question.
//
// Free-text answers match the stored correct answer ignoring case and surrounding
// whitespace. Multiple-choice answers are the text of the chosen option and match the
// first option flagged correct under the same normalization.
func Grade(question Question, answer string) bool {
	switch question.Type {
	case QuestionTypeFreeText:
		return normalize(question.CorrectAnswer) == normalize(answer)
	case QuestionTypeMultipleChoice:
		correct, ok := question.CorrectChoice()
		if !ok {
			return false
		}
		return normalize(correct.Text) == normalize(answer)
	default:
		return false
	}
}

// CorrectChoice returns the first choice flagged correct.
func (q Question) CorrectChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c, true
		}
	}
	return Choice{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
