package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState enumerates exam session lifecycle states.
type SessionState string

const (
	SessionStateInitializing SessionState = "INITIALIZING"
	SessionStateActive       SessionState = "ACTIVE"
	SessionStateExpired      SessionState = "EXPIRED"
	SessionStateSubmitting   SessionState = "SUBMITTING"
	SessionStateSubmitted    SessionState = "SUBMITTED"
)

// ScoreSummary is the running score of a session.
type ScoreSummary struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ExamSessionView is what a taker sees of a live session.
type ExamSessionView struct {
	ID          uuid.UUID          `json:"id"`
	NoteID      uuid.UUID          `json:"note_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Batch       *int               `json:"batch"`
	Questions   []QuestionForTaker `json:"questions"`
	Selection   Selection          `json:"selection"`
	State       SessionState       `json:"state"`
	// RemainingMs is nil when the session runs without a countdown.
	RemainingMs *int64       `json:"remaining_ms"`
	Score       ScoreSummary `json:"score"`
	UserName    string       `json:"user_name"`
	Result      *ResultView  `json:"result,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
}
