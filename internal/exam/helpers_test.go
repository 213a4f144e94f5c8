package exam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/studymate/studymate-backend/internal/model"
)

// makeNote builds a note with n questions, each with two choices where the
// first one is correct.
func makeNote(n int) *model.Note {
	note := &model.Note{
		ID:        uuid.New(),
		Title:     "Cell biology",
		UserID:    uuid.New(),
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		q := model.Question{
			ID:            uuid.New(),
			NoteID:        note.ID,
			QuestionTitle: fmt.Sprintf("Question %d", i+1),
			OrderNum:      i,
			Choices: []model.Choice{
				{ID: uuid.New(), Content: "right", Answer: true},
				{ID: uuid.New(), Content: "wrong"},
			},
		}
		note.Questions = append(note.Questions, q)
	}
	return note
}

// submitNow runs a whole submission inline, the way Runner does across
// its loop and the sink goroutine.
func submitNow(ctx context.Context, s *Session) (*model.ResultView, error) {
	sub, err := s.BeginSubmit()
	if err != nil {
		return nil, err
	}
	if sendErr := s.sink.Submit(ctx, sub); sendErr != nil {
		_ = s.FinishSubmit(ctx, sendErr)
		return nil, sendErr
	}
	_ = s.FinishSubmit(ctx, nil)
	return s.Result(), nil
}

func questionIDs(qs []model.Question) []uuid.UUID {
	ids := make([]uuid.UUID, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

type memClockStore struct {
	mu      sync.Mutex
	value   int64
	present bool
	readErr error
	writes  []int64
	clears  int
}

func (m *memClockStore) Read(context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, false, m.readErr
	}
	return m.value, m.present, nil
}

func (m *memClockStore) Write(_ context.Context, v int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.present = v, true
	m.writes = append(m.writes, v)
	return nil
}

func (m *memClockStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.present = 0, false
	m.clears++
	return nil
}

func (m *memClockStore) snapshot() (int64, bool, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.present, m.clears
}

type fakeSink struct {
	mu   sync.Mutex
	subs []*model.Submission
	err  error
}

func (f *fakeSink) Submit(_ context.Context, sub *model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	return f.err
}

func (f *fakeSink) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSink) submissions() []*model.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Submission(nil), f.subs...)
}

type fakeLookup struct {
	name string
	err  error
}

func (f fakeLookup) DisplayName(context.Context, uuid.UUID) (string, error) {
	return f.name, f.err
}

var errSinkDown = errors.New("sink down")

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time, 8)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

func (m *manualTicker) tick() {
	select {
	case m.ch <- time.Now():
	default:
	}
}
