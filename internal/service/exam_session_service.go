package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/exam"
	"github.com/studymate/studymate-backend/internal/model"
)

var ErrExamSessionNotFound = errors.New("exam session not found")

type noteProvider interface {
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Note, error)
}

type reportListFinder interface {
	PriorListID(ctx context.Context, userID, noteID uuid.UUID) (*uuid.UUID, error)
}

// ClockStoreFactory returns the clock store of a taker's exam on a note.
type ClockStoreFactory func(userID, noteID uuid.UUID) exam.ClockStore

// ExamSessionConfig tunes session hosting.
type ExamSessionConfig struct {
	BatchSize   int
	IdleTimeout time.Duration
	// NewTicker overrides the countdown ticker; nil uses time.Ticker.
	NewTicker func(time.Duration) exam.Ticker
}

type hostedSession struct {
	runner  *exam.Runner
	takerID uuid.UUID
	noteID  uuid.UUID
	batch   exam.Batch
}

// ExamSessionService hosts live exam sessions. Each session is driven by its
// own exam.Runner goroutine; the service only routes calls to it.
type ExamSessionService struct {
	notes  noteProvider
	lists  reportListFinder
	sink   exam.ReportSink
	lookup exam.UserLookup
	clocks ClockStoreFactory
	cfg    ExamSessionConfig
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[uuid.UUID]*hostedSession
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	notes noteProvider,
	lists reportListFinder,
	sink exam.ReportSink,
	lookup exam.UserLookup,
	clocks ClockStoreFactory,
	cfg ExamSessionConfig,
	log zerolog.Logger,
) *ExamSessionService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = exam.DefaultBatchSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ExamSessionService{
		notes:    notes,
		lists:    lists,
		sink:     sink,
		lookup:   lookup,
		clocks:   clocks,
		cfg:      cfg,
		log:      log.With().Str("component", "exam_session_service").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[uuid.UUID]*hostedSession),
	}
}

// Start opens an exam on a note for the actor. A live session of the same
// taker on the same note and batch is returned as is; any other live session
// of the taker on that note is closed first and its clock resumed.
func (s *ExamSessionService) Start(ctx context.Context, actor Actor, noteID uuid.UUID, q model.StartExamQuery) (model.ExamSessionView, error) {
	note, err := s.notes.Get(ctx, actor, noteID)
	if err != nil {
		return model.ExamSessionView{}, err
	}

	batch := exam.ParseBatch(q.Batch)
	if existing := s.takeOver(actor.UserID, noteID, batch); existing != nil {
		if v, err := existing.View(ctx); err == nil && v.State != model.SessionStateSubmitted {
			return v, nil
		}
		existing.Close()
	}

	// The report list belongs to the note owner, who is also the report's user.
	prior, err := s.lists.PriorListID(ctx, note.UserID, note.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("note_id", note.ID.String()).Msg("Prior report list lookup failed")
		prior = nil
	}

	var clock exam.ClockStore
	if s.clocks != nil {
		clock = s.clocks(actor.UserID, note.ID)
	}

	session, err := exam.NewSession(ctx, exam.Options{
		Note:              note,
		Batch:             batch,
		BatchSize:         s.cfg.BatchSize,
		InitialDurationMs: exam.ParseTimer(q.Timer),
		ClockStore:        clock,
		Sink:              s.sink,
		PriorReportListID: prior,
	})
	if err != nil {
		return model.ExamSessionView{}, fmt.Errorf("start session: %w", err)
	}

	id := uuid.New()
	runner := exam.NewRunner(session, exam.RunnerOptions{
		ID:        id,
		Lookup:    s.lookup,
		UserID:    note.UserID,
		NewTicker: s.cfg.NewTicker,
		Logger:    s.log,
	})

	s.mu.Lock()
	s.sessions[id] = &hostedSession{runner: runner, takerID: actor.UserID, noteID: note.ID, batch: batch}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runner.Run(s.ctx)
		runner.Drain()
		s.forget(id, runner)
	}()

	s.log.Info().
		Str("session_id", id.String()).
		Str("note_id", note.ID.String()).
		Str("user_id", actor.UserID.String()).
		Int("questions", len(note.Questions)).
		Msg("Exam session started")

	return runner.View(ctx)
}

// takeOver finds the taker's live session on a note. A session on the same
// batch is returned; one on another batch is closed and nil is returned.
func (s *ExamSessionService) takeOver(takerID, noteID uuid.UUID, batch exam.Batch) *exam.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()

	var same *exam.Runner
	for id, h := range s.sessions {
		if h.takerID != takerID || h.noteID != noteID {
			continue
		}
		if h.batch == batch && same == nil {
			same = h.runner
			continue
		}
		h.runner.Close()
		delete(s.sessions, id)
	}
	return same
}

// View returns the taker's view of a session.
func (s *ExamSessionService) View(ctx context.Context, actor Actor, id uuid.UUID) (model.ExamSessionView, error) {
	r, err := s.runner(actor, id)
	if err != nil {
		return model.ExamSessionView{}, err
	}
	return r.View(ctx)
}

// RecordSelection replaces the selected choices of one question.
func (s *ExamSessionService) RecordSelection(ctx context.Context, actor Actor, id uuid.UUID, req *model.RecordSelectionRequest) (model.ExamSessionView, error) {
	r, err := s.runner(actor, id)
	if err != nil {
		return model.ExamSessionView{}, err
	}
	if err := r.RecordSelection(ctx, req.QuestionID, req.ChoiceIDs); err != nil {
		return model.ExamSessionView{}, err
	}
	return r.View(ctx)
}

// Submit submits the session and waits for the report sink.
func (s *ExamSessionService) Submit(ctx context.Context, actor Actor, id uuid.UUID) (*model.ResultView, error) {
	r, err := s.runner(actor, id)
	if err != nil {
		return nil, err
	}
	return r.Submit(ctx)
}

// Subscribe streams the events of a session until it ends or cancel is called.
func (s *ExamSessionService) Subscribe(actor Actor, id uuid.UUID) (<-chan exam.Event, func(), error) {
	r, err := s.runner(actor, id)
	if err != nil {
		return nil, nil, err
	}
	events, cancel := r.Subscribe()
	return events, cancel, nil
}

// Abandon stops a session without submitting. The persisted clock is kept
// so a later start on the same note resumes it.
func (s *ExamSessionService) Abandon(actor Actor, id uuid.UUID) error {
	r, err := s.runner(actor, id)
	if err != nil {
		return err
	}
	r.Close()
	s.forget(id, r)
	s.log.Info().Str("session_id", id.String()).Msg("Exam session abandoned")
	return nil
}

// Sweep evicts sessions whose runner exited or that have been idle longer
// than the configured timeout. Sessions with a running countdown are kept
// until they expire and submit. It returns the number of sessions evicted.
func (s *ExamSessionService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, h := range s.sessions {
		select {
		case <-h.runner.Done():
			delete(s.sessions, id)
			evicted++
			continue
		default:
		}
		if h.runner.Counting() {
			continue
		}
		if s.cfg.IdleTimeout > 0 && now.Sub(h.runner.LastActive()) > s.cfg.IdleTimeout {
			h.runner.Close()
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Active returns the number of hosted sessions.
func (s *ExamSessionService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops every runner and waits, until ctx ends, for the runners
// to exit and for their in-flight report sends to return.
func (s *ExamSessionService) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExamSessionService) runner(actor Actor, id uuid.UUID) (*exam.Runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.sessions[id]
	if !ok || h.takerID != actor.UserID {
		return nil, ErrExamSessionNotFound
	}
	return h.runner, nil
}

func (s *ExamSessionService) forget(id uuid.UUID, r *exam.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.sessions[id]; ok && h.runner == r {
		delete(s.sessions, id)
	}
}
