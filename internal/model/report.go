package model

import (
	"time"

	"github.com/google/uuid"
)

// Selection maps a question ID to the choice IDs currently selected for it.
// An absent key means the question is unanswered.
type Selection map[uuid.UUID][]uuid.UUID

// Clone returns a deep copy so callers cannot mutate session state.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for qid, ids := range s {
		out[qid] = append([]uuid.UUID(nil), ids...)
	}
	return out
}

// ReportList groups the reports of one user for one note.
type ReportList struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	NoteID    uuid.UUID `json:"note_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Reports   []Report  `json:"reports,omitempty"`
}

// Report is the persisted record of a completed or timed-out exam attempt.
type Report struct {
	ID           uuid.UUID `json:"id"`
	ReportListID uuid.UUID `json:"reportListId"`
	NoteID       uuid.UUID `json:"noteId"`
	NoteTitle    string    `json:"noteTitle"`
	UserName     string    `json:"userName"`
	Result       int       `json:"result"`
	ChoiceID     Selection `json:"choiceId"`
	Batch        *int      `json:"batch"`
	UserID       uuid.UUID `json:"userId"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// Submission is the body sent to the report sink when an exam ends.
// Result is always the percentage score.
type Submission struct {
	NoteID       uuid.UUID  `json:"noteId" binding:"required"`
	NoteTitle    string     `json:"noteTitle" binding:"required,max=255"`
	UserName     string     `json:"userName" binding:"max=255"`
	Result       int        `json:"result" binding:"min=0"`
	ChoiceID     Selection  `json:"choiceId"`
	Batch        *int       `json:"batch" binding:"omitempty,min=0"`
	UserID       uuid.UUID  `json:"userId" binding:"required"`
	SubmittedAt  time.Time  `json:"submittedAt" binding:"required"`
	ReportListID *uuid.UUID `json:"reportListId,omitempty"`
}

// ResultView is the navigation target shown once an exam has been submitted.
type ResultView struct {
	ID       uuid.UUID `json:"id"`
	Correct  int       `json:"correct"`
	Total    int       `json:"total"`
	Result   int       `json:"result"`
	ChoiceID Selection `json:"choiceId"`
	Batch    *int      `json:"batch"`
}

// QueuedReport is a submission waiting in the persistence queue. ID is fixed
// at enqueue time so a requeued item is written at most once.
type QueuedReport struct {
	ID uuid.UUID `json:"id"`
	Submission
}

// ReportListQuery filters the caller's report history.
type ReportListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PerPage   int    `form:"per_page" binding:"omitempty,min=1,max=100"`
	NoteTitle string `form:"note_title" binding:"omitempty,max=255"`
}
