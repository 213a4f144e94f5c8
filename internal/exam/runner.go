package exam

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/model"
)

const (
	defaultSubmitTimeout = 10 * time.Second
	subscriberBuffer     = 16
)

// Ticker abstracts time.Ticker so tests can drive the countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	ID     uuid.UUID
	Sink   ReportSink
	Lookup UserLookup
	// UserID is resolved through Lookup once when the runner starts.
	UserID        uuid.UUID
	NewTicker     func(time.Duration) Ticker
	SubmitTimeout time.Duration
	Logger        zerolog.Logger
}

type submitOutcome struct {
	result *model.ResultView
	err    error
}

// Runner owns one Session and is its only mutator. Ticks, selections, the
// user lookup result and the submission result are all applied on the
// Run goroutine; the two outbound calls run on their own goroutines and
// post their completion back.
type Runner struct {
	id      uuid.UUID
	session *Session
	sink    ReportSink
	lookup  UserLookup
	userID  uuid.UUID

	newTicker     func(time.Duration) Ticker
	submitTimeout time.Duration
	log           zerolog.Logger

	cmds     chan func(context.Context)
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool
	touched  atomic.Int64
	counting atomic.Bool

	// sends tracks report submissions still talking to the sink.
	sends sync.WaitGroup

	// waiters are only touched on the Run goroutine.
	waiters []chan submitOutcome

	subsMu     sync.Mutex
	subs       map[int]chan Event
	nextID     int
	subsClosed bool
}

// NewRunner wraps session. Call Run to start the event loop.
func NewRunner(session *Session, opts RunnerOptions) *Runner {
	newTicker := opts.NewTicker
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	sink := opts.Sink
	if sink == nil {
		sink = session.sink
	}

	r := &Runner{
		id:            opts.ID,
		session:       session,
		sink:          sink,
		lookup:        opts.Lookup,
		userID:        opts.UserID,
		newTicker:     newTicker,
		submitTimeout: timeout,
		log:           opts.Logger.With().Str("component", "exam_runner").Str("session_id", opts.ID.String()).Logger(),
		cmds:          make(chan func(context.Context)),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		subs:          make(map[int]chan Event),
	}
	r.touch()
	r.counting.Store(session.Counting())
	session.emit = r.broadcast
	return r
}

// ID returns the session identifier.
func (r *Runner) ID() uuid.UUID { return r.id }

// Done is closed once the event loop has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Drain waits for the event loop to exit and for every report send it
// started to return. Sends are bounded by the submit timeout.
func (r *Runner) Drain() {
	<-r.done
	r.sends.Wait()
}

// Counting reports whether the countdown is still running. A counting
// session will submit on its own and must not be treated as idle.
func (r *Runner) Counting() bool { return r.counting.Load() }

// LastActive returns the time of the last command handled.
func (r *Runner) LastActive() time.Time { return time.Unix(0, r.touched.Load()) }

// Run processes events until ctx ends or Close is called. The ticker is
// released on every exit path and as soon as the session is submitted.
func (r *Runner) Run(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	defer close(r.done)
	defer r.closeSubscribers()

	ticker := r.newTicker(TickInterval)
	tickerStopped := false
	stopTicker := func() {
		if !tickerStopped {
			ticker.Stop()
			tickerStopped = true
		}
	}
	defer stopTicker()
	ticks := ticker.C()

	r.log.Debug().Msg("Runner started")
	r.resolveUser(ctx)

	for {
		select {
		case <-ctx.Done():
			r.failWaiters(ctx.Err())
			r.log.Debug().Msg("Runner cancelled")
			return
		case <-r.stop:
			r.failWaiters(ErrSessionClosed)
			r.log.Debug().Msg("Runner closed")
			return
		case <-ticks:
			r.handleTick(ctx)
		case fn := <-r.cmds:
			fn(ctx)
		}

		r.counting.Store(r.session.Counting())
		if r.session.State() == model.SessionStateSubmitted && ticks != nil {
			stopTicker()
			ticks = nil
		}
	}
}

// Close stops the event loop. Safe to call more than once.
func (r *Runner) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Subscribe returns a stream of session events. Slow subscribers miss events
// rather than block the loop. The channel closes when the runner exits.
func (r *Runner) Subscribe() (<-chan Event, func()) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if r.subsClosed {
		close(ch)
		return ch, func() {}
	}

	id := r.nextID
	r.nextID++
	r.subs[id] = ch

	return ch, func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

// View returns the taker's view of the session.
func (r *Runner) View(ctx context.Context) (model.ExamSessionView, error) {
	var v model.ExamSessionView
	err := r.do(ctx, func(context.Context) error {
		v = r.session.View(r.id)
		return nil
	})
	return v, err
}

// RecordSelection replaces the selection of one question.
func (r *Runner) RecordSelection(ctx context.Context, questionID uuid.UUID, choiceIDs []uuid.UUID) error {
	return r.do(ctx, func(context.Context) error {
		return r.session.RecordSelection(questionID, choiceIDs)
	})
}

// Submit starts a manual submission, or joins one already running, and waits
// for its outcome. Submitting a submitted session returns its result again.
func (r *Runner) Submit(ctx context.Context) (*model.ResultView, error) {
	reply := make(chan submitOutcome, 1)

	err := r.do(ctx, func(loopCtx context.Context) error {
		switch r.session.State() {
		case model.SessionStateSubmitted:
			reply <- submitOutcome{result: r.session.Result()}
			return nil
		case model.SessionStateSubmitting:
			r.waiters = append(r.waiters, reply)
			return nil
		}
		if err := r.beginSubmit(loopCtx); err != nil {
			return err
		}
		r.waiters = append(r.waiters, reply)
		return nil
	})
	if err != nil {
		return nil, err
	}

	select {
	case out := <-reply:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runner) handleTick(ctx context.Context) {
	expired, err := r.session.Tick(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("Persist clock failed")
	}
	if !expired {
		return
	}

	r.log.Info().Msg("Exam time expired, submitting")
	if err := r.beginSubmit(ctx); err != nil {
		r.log.Error().Err(err).Msg("Auto-submit failed to start")
	}
}

// beginSubmit runs on the loop. The sink call happens off the loop.
func (r *Runner) beginSubmit(ctx context.Context) error {
	sub, err := r.session.BeginSubmit()
	if err != nil {
		return err
	}

	r.sends.Add(1)
	go func() {
		defer r.sends.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.submitTimeout)
		defer cancel()

		sendErr := r.sink.Submit(sendCtx, sub)
		r.post(func(loopCtx context.Context) {
			r.finishSubmit(loopCtx, sendErr)
		})
	}()
	return nil
}

func (r *Runner) finishSubmit(ctx context.Context, sendErr error) {
	err := r.session.FinishSubmit(ctx, sendErr)
	if sendErr != nil {
		r.log.Warn().Err(sendErr).Msg("Report submission failed")
	} else if err != nil {
		r.log.Warn().Err(err).Msg("Clear clock failed")
	} else {
		score := r.session.Score()
		r.log.Info().
			Int("correct", score.Correct).
			Int("total", score.Total).
			Int("percentage", score.Percentage).
			Msg("Exam submitted")
	}

	out := submitOutcome{result: r.session.Result(), err: sendErr}
	for _, w := range r.waiters {
		w <- out
	}
	r.waiters = nil
}

func (r *Runner) resolveUser(ctx context.Context) {
	if r.lookup == nil {
		return
	}
	go func() {
		name, err := r.lookup.DisplayName(ctx, r.userID)
		if err != nil {
			r.log.Debug().Err(err).Msg("User lookup failed, continuing without display name")
			return
		}
		r.post(func(context.Context) {
			r.session.SetUserName(name)
		})
	}()
}

// do runs fn on the loop and waits for its result.
func (r *Runner) do(ctx context.Context, fn func(context.Context) error) error {
	r.touch()
	errc := make(chan error, 1)
	cmd := func(loopCtx context.Context) { errc <- fn(loopCtx) }

	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrSessionClosed
	case <-r.stop:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn on the loop without waiting. Dropped if the loop has exited.
func (r *Runner) post(fn func(context.Context)) {
	select {
	case r.cmds <- fn:
	case <-r.done:
	case <-r.stop:
	}
}

func (r *Runner) failWaiters(err error) {
	for _, w := range r.waiters {
		w <- submitOutcome{err: err}
	}
	r.waiters = nil
}

func (r *Runner) broadcast(ev Event) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (r *Runner) closeSubscribers() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	r.subsClosed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

func (r *Runner) touch() {
	r.touched.Store(time.Now().UnixNano())
}
