package websocket

import (
	"github.com/google/uuid"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect Action = "select"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestPayload is the single shape every client message is decoded into.
// Fields a given action does not use are ignored.
type RequestPayload struct {
	Action     Action      `json:"action"`
	QuestionID uuid.UUID   `json:"question_id"`
	ChoiceIDs  []uuid.UUID `json:"choice_ids"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventSaved  Event = "saved"
	EventResult Event = "result"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// Envelope wraps every server message. Session notifications are forwarded
// with their own type as the event name.
type Envelope struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// SavedResponse acknowledges a recorded selection.
type SavedResponse struct {
	QuestionID uuid.UUID `json:"question_id"`
}

type ErrorResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
