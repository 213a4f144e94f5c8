package model

import (
	"time"

	"github.com/google/uuid"
)

// Note is a user-authored study unit holding an ordered list of questions.
type Note struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	IsShared    bool       `json:"is_shared"`
	UserID      uuid.UUID  `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Question is a multiple-choice prompt. Zero, one or many choices may be correct.
type Question struct {
	ID            uuid.UUID `json:"id"`
	NoteID        uuid.UUID `json:"note_id"`
	QuestionTitle string    `json:"question_title"`
	Choices       []Choice  `json:"choices"`
	IsFlagged     bool      `json:"is_flagged"`
	Comment       *string   `json:"comment,omitempty"`
	OrderNum      int       `json:"order_num"`
}

// Choice is one answer option of a question.
type Choice struct {
	ID       uuid.UUID `json:"id"`
	Content  string    `json:"content"`
	Answer   bool      `json:"answer"`
	OrderNum int       `json:"order_num"`
}

// CorrectChoiceIDs returns the identifiers of every choice flagged as correct.
func (q *Question) CorrectChoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(q.Choices))
	for _, c := range q.Choices {
		if c.Answer {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// NoteSummary is the slice of a note shown next to moderated questions.
type NoteSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	IsShared  bool      `json:"is_shared"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionWithNote is a question joined with its owning note, used by moderation views.
type QuestionWithNote struct {
	Question
	Note NoteSummary `json:"note"`
}

// ChoiceRequest is one choice in a create/update payload.
type ChoiceRequest struct {
	ID      *uuid.UUID `json:"id" binding:"omitempty"`
	Content string     `json:"content" binding:"required,notblank,max=1000"`
	Answer  bool       `json:"answer"`
}

// CreateQuestionRequest is one question in a create-note payload.
type CreateQuestionRequest struct {
	QuestionTitle string          `json:"question_title" binding:"required,notblank,max=2000"`
	Choices       []ChoiceRequest `json:"choices" binding:"dive"`
}

// UpdateQuestionRequest is one question in an update-note payload.
type UpdateQuestionRequest struct {
	ID            *uuid.UUID      `json:"id" binding:"omitempty"`
	QuestionTitle string          `json:"question_title" binding:"required,notblank,max=2000"`
	Choices       []ChoiceRequest `json:"choices" binding:"dive"`
	IsFlagged     bool            `json:"is_flagged"`
	Comment       *string         `json:"comment" binding:"omitempty,max=1000"`
}

// CreateNoteRequest is the payload for creating a note.
type CreateNoteRequest struct {
	Title       string                  `json:"title" binding:"required,notblank,max=255"`
	Description string                  `json:"description" binding:"required,notblank"`
	IsShared    bool                    `json:"is_shared"`
	Questions   []CreateQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// UpdateNoteRequest is the payload for updating a note. A non-nil Questions
// replaces the full question list.
type UpdateNoteRequest struct {
	Title       *string                  `json:"title" binding:"omitempty,notblank,max=255"`
	Description *string                  `json:"description" binding:"omitempty,notblank"`
	IsShared    *bool                    `json:"is_shared"`
	Questions   *[]UpdateQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// ModerateQuestionRequest flags or unflags a question and sets the moderator comment.
type ModerateQuestionRequest struct {
	IsFlagged *bool   `json:"is_flagged" binding:"required"`
	Comment   *string `json:"comment" binding:"omitempty,max=1000"`
}
