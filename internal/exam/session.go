// Package exam implements a single timed quiz attempt over a note: batch
// windowing, shuffled presentation, answer tracking, scoring, a resumable
// countdown and submission of the result.
package exam

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/studymate/studymate-backend/internal/model"
)

// Domain errors.
var (
	ErrNoNote           = errors.New("exam: note snapshot is required")
	ErrNoSink           = errors.New("exam: report sink is required")
	ErrUnknownQuestion  = errors.New("exam: question does not belong to this note")
	ErrSessionClosed    = errors.New("exam: session no longer accepts changes")
	ErrSubmitInProgress = errors.New("exam: submission already in progress")
)

// UserLookup resolves a user to a display name.
type UserLookup interface {
	DisplayName(ctx context.Context, userID uuid.UUID) (string, error)
}

// ReportSink accepts a finished exam. It reports success or failure only.
type ReportSink interface {
	Submit(ctx context.Context, sub *model.Submission) error
}

// EventType names a session notification.
type EventType string

const (
	EventTick         EventType = "tick"
	EventScore        EventType = "score"
	EventExpired      EventType = "expired"
	EventSubmitted    EventType = "submitted"
	EventSubmitFailed EventType = "submit_failed"
	EventUserResolved EventType = "user_resolved"
)

// Notification texts.
const (
	MsgTimeExpired  = "Time is up!"
	MsgSubmitted    = "Congrats, you've finished your exam!"
	MsgSubmitFailed = "Sorry, something went wrong. Please try again."
)

// Event is emitted on every observable state change.
type Event struct {
	Type        EventType           `json:"type"`
	RemainingMs *int64              `json:"remaining_ms,omitempty"`
	Score       *model.ScoreSummary `json:"score,omitempty"`
	Result      *model.ResultView   `json:"result,omitempty"`
	UserName    string              `json:"user_name,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// Options configures a new Session.
type Options struct {
	Note      *model.Note
	Batch     Batch
	BatchSize int
	// InitialDurationMs is used when the clock store holds nothing.
	InitialDurationMs int64
	ClockStore        ClockStore
	Sink              ReportSink
	// PriorReportListID makes the sink append to an existing report list.
	PriorReportListID *uuid.UUID
	Rand              *rand.Rand
	Now               func() time.Time
}

// Session is the state machine of one exam attempt:
//
//	Initializing -> Active -> Submitting -> Submitted
//	                Active -> Expired -> Submitting -> Submitted
//
// A failed submission returns to the state it came from. Session is not safe
// for concurrent use; Runner serializes access to it.
type Session struct {
	note      model.Note
	known     map[uuid.UUID]struct{}
	batch     Batch
	batchSize int
	deck      *Deck

	selection model.Selection
	score     model.ScoreSummary
	clock     *Clock
	state     model.SessionState
	// before is the state a pending submission returns to on failure.
	before model.SessionState

	userName  string
	priorList *uuid.UUID
	result    *model.ResultView
	startedAt time.Time

	sink ReportSink
	now  func() time.Time
	emit func(Event)
}

// NewSession snapshots the note, deals the shuffled batch window and starts
// the clock. The session is Active on return.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Note == nil {
		return nil, ErrNoNote
	}
	if opts.Sink == nil {
		return nil, ErrNoSink
	}

	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		note:      snapshot(opts.Note),
		batch:     opts.Batch,
		batchSize: size,
		deck:      NewDeck(opts.Rand),
		selection: make(model.Selection),
		state:     model.SessionStateInitializing,
		priorList: opts.PriorReportListID,
		sink:      opts.Sink,
		now:       now,
		emit:      func(Event) {},
	}

	s.known = make(map[uuid.UUID]struct{}, len(s.note.Questions))
	for _, q := range s.note.Questions {
		s.known[q.ID] = struct{}{}
	}

	s.deck.Deal(&s.note, s.batch, s.batchSize)
	s.clock = StartClock(ctx, opts.ClockStore, opts.InitialDurationMs)
	s.rescore()
	s.startedAt = now()
	s.state = model.SessionStateActive

	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() model.SessionState { return s.state }

// Questions returns the shuffled questions of the current batch window.
func (s *Session) Questions() []model.Question {
	return s.deck.Deal(&s.note, s.batch, s.batchSize)
}

// Counting reports whether the session is Active with a running countdown.
func (s *Session) Counting() bool {
	return s.state == model.SessionStateActive && s.clock.Enabled() && !s.clock.Expired()
}

// Selection returns a copy of the current selections.
func (s *Session) Selection() model.Selection { return s.selection.Clone() }

// Score returns the running score.
func (s *Session) Score() model.ScoreSummary { return s.score }

// Result returns the results view once submitted.
func (s *Session) Result() *model.ResultView { return s.result }

// Remaining returns the remaining milliseconds, or false without a countdown.
func (s *Session) Remaining() (int64, bool) {
	if !s.clock.Enabled() {
		return 0, false
	}
	return s.clock.Remaining(), true
}

// SetUserName stores the display name resolved after start.
func (s *Session) SetUserName(name string) {
	s.userName = name
	s.emit(Event{Type: EventUserResolved, UserName: name})
}

// RecordSelection replaces the selected choices of one question. The choice
// count is not checked against the question.
func (s *Session) RecordSelection(questionID uuid.UUID, choiceIDs []uuid.UUID) error {
	if s.state != model.SessionStateActive {
		return ErrSessionClosed
	}
	if _, ok := s.known[questionID]; !ok {
		return ErrUnknownQuestion
	}

	s.selection[questionID] = append([]uuid.UUID(nil), choiceIDs...)
	s.rescore()

	score := s.score
	s.emit(Event{Type: EventScore, Score: &score})
	return nil
}

// Tick advances the countdown by one interval while Active. It returns true
// on the tick that expires the session; the caller must then submit.
func (s *Session) Tick(ctx context.Context) (bool, error) {
	if s.state != model.SessionStateActive {
		return false, nil
	}

	expired, err := s.clock.Tick(ctx)
	if !s.clock.Enabled() {
		return false, err
	}

	remaining := s.clock.Remaining()
	s.emit(Event{Type: EventTick, RemainingMs: &remaining})

	if expired {
		s.state = model.SessionStateExpired
		s.emit(Event{Type: EventExpired, Message: MsgTimeExpired})
	}
	return expired, err
}

// BeginSubmit moves the session to Submitting and returns the payload to send.
func (s *Session) BeginSubmit() (*model.Submission, error) {
	switch s.state {
	case model.SessionStateActive, model.SessionStateExpired:
	case model.SessionStateSubmitting:
		return nil, ErrSubmitInProgress
	default:
		return nil, ErrSessionClosed
	}

	s.before = s.state
	s.state = model.SessionStateSubmitting

	return &model.Submission{
		NoteID:       s.note.ID,
		NoteTitle:    s.note.Title,
		UserName:     s.userName,
		Result:       s.score.Percentage,
		ChoiceID:     s.selection.Clone(),
		Batch:        s.batch.Ptr(),
		UserID:       s.note.UserID,
		SubmittedAt:  s.now().UTC(),
		ReportListID: s.priorList,
	}, nil
}

// FinishSubmit records the sink outcome. On failure the session returns to
// the state it was in before BeginSubmit with selections untouched.
func (s *Session) FinishSubmit(ctx context.Context, sendErr error) error {
	if s.state != model.SessionStateSubmitting {
		return nil
	}

	if sendErr != nil {
		s.state = s.before
		s.emit(Event{Type: EventSubmitFailed, Message: MsgSubmitFailed})
		return sendErr
	}

	clearErr := s.clock.Stop(ctx)
	s.state = model.SessionStateSubmitted
	s.result = &model.ResultView{
		ID:       s.note.ID,
		Correct:  s.score.Correct,
		Total:    s.score.Total,
		Result:   s.score.Percentage,
		ChoiceID: s.selection.Clone(),
		Batch:    s.batch.Ptr(),
	}
	s.emit(Event{Type: EventSubmitted, Result: s.result, Message: MsgSubmitted})
	return clearErr
}

// View renders the session for the taker. Correctness flags are not exposed.
func (s *Session) View(id uuid.UUID) model.ExamSessionView {
	questions := s.Questions()
	forTaker := make([]model.QuestionForTaker, len(questions))
	for i, q := range questions {
		forTaker[i] = model.NewQuestionForTaker(q)
	}

	v := model.ExamSessionView{
		ID:          id,
		NoteID:      s.note.ID,
		Title:       s.note.Title,
		Description: s.note.Description,
		Batch:       s.batch.Ptr(),
		Questions:   forTaker,
		Selection:   s.selection.Clone(),
		State:       s.state,
		Score:       s.score,
		UserName:    s.userName,
		Result:      s.result,
		StartedAt:   s.startedAt,
	}
	if ms, ok := s.Remaining(); ok {
		v.RemainingMs = &ms
	}
	return v
}

func (s *Session) rescore() {
	s.score = Score(s.note.Questions, s.selection, len(s.Questions()))
}

// snapshot deep-copies the note so later edits cannot leak into a running exam.
func snapshot(n *model.Note) model.Note {
	out := *n
	out.Questions = make([]model.Question, len(n.Questions))
	for i, q := range n.Questions {
		q.Choices = append([]model.Choice(nil), q.Choices...)
		out.Questions[i] = q
	}
	return out
}
