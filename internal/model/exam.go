package model

import (
	"github.com/google/uuid"
)

// StartExamQuery carries the raw query parameters of an exam start.
// Both stay strings: malformed values degrade instead of failing the request.
type StartExamQuery struct {
	Timer string `form:"timer"`
	Batch string `form:"batch"`
}

// RecordSelectionRequest replaces the selected choices of one question.
type RecordSelectionRequest struct {
	QuestionID uuid.UUID   `json:"question_id" binding:"required"`
	ChoiceIDs  []uuid.UUID `json:"choice_ids"`
}

// ChoiceForTaker is a choice without its correctness flag.
type ChoiceForTaker struct {
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content"`
}

// QuestionForTaker is a question as shown during an exam.
type QuestionForTaker struct {
	ID            uuid.UUID        `json:"id"`
	QuestionTitle string           `json:"question_title"`
	Choices       []ChoiceForTaker `json:"choices"`
}

// NewQuestionForTaker strips correctness flags and moderation fields.
func NewQuestionForTaker(q Question) QuestionForTaker {
	choices := make([]ChoiceForTaker, len(q.Choices))
	for i, c := range q.Choices {
		choices[i] = ChoiceForTaker{ID: c.ID, Content: c.Content}
	}
	return QuestionForTaker{ID: q.ID, QuestionTitle: q.QuestionTitle, Choices: choices}
}
