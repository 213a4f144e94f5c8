package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studymate/studymate-backend/internal/exam"
	"github.com/studymate/studymate-backend/internal/model"
)

type stillTicker struct{ ch chan time.Time }

func (s stillTicker) C() <-chan time.Time { return s.ch }
func (s stillTicker) Stop()               {}

type nameLookup map[uuid.UUID]string

func (n nameLookup) DisplayName(_ context.Context, id uuid.UUID) (string, error) {
	if name, ok := n[id]; ok {
		return name, nil
	}
	return "", errors.New("no such user")
}

type examFixture struct {
	svc    *ExamSessionService
	note   *model.Note
	owner  Actor
	taker  Actor
	pusher *fakePusher
	listID uuid.UUID
}

func newExamFixture(t *testing.T) *examFixture {
	t.Helper()
	f := &examFixture{
		owner:  Actor{UserID: uuid.New()},
		taker:  Actor{UserID: uuid.New()},
		pusher: &fakePusher{},
		listID: uuid.New(),
	}
	f.note = makeNote(f.owner.UserID, true, 3)

	reports := NewReportService(&fakeReportStore{lists: map[[2]uuid.UUID]*model.ReportList{
		{f.owner.UserID, f.note.ID}: {ID: f.listID},
	}}, f.pusher, zerolog.Nop())

	f.svc = NewExamSessionService(
		NewNoteService(newFakeNoteStore(f.note)),
		reports,
		reports,
		nameLookup{f.owner.UserID: "Grace Hopper"},
		nil,
		ExamSessionConfig{
			IdleTimeout: time.Minute,
			NewTicker:   func(time.Duration) exam.Ticker { return stillTicker{ch: make(chan time.Time)} },
		},
		zerolog.Nop(),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = f.svc.Shutdown(ctx)
	})
	return f
}

func TestStartAndSubmitExam(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	v, err := f.svc.Start(ctx, f.taker, f.note.ID, model.StartExamQuery{Timer: "60000", Batch: "0"})
	require.NoError(t, err)
	assert.Equal(t, model.SessionStateActive, v.State)
	assert.Len(t, v.Questions, 3)
	if assert.NotNil(t, v.RemainingMs) {
		assert.EqualValues(t, 60000, *v.RemainingMs)
	}

	q := f.note.Questions[0]
	v, err = f.svc.RecordSelection(ctx, f.taker, v.ID, &model.RecordSelectionRequest{
		QuestionID: q.ID,
		ChoiceIDs:  []uuid.UUID{q.Choices[0].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Score.Correct)

	require.Eventually(t, func() bool {
		cur, err := f.svc.View(ctx, f.taker, v.ID)
		return err == nil && cur.UserName == "Grace Hopper"
	}, 2*time.Second, 5*time.Millisecond)

	result, err := f.svc.Submit(ctx, f.taker, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, result.Result)
	assert.Equal(t, 3, result.Total)

	require.Equal(t, 1, f.pusher.count())
	var queued model.QueuedReport
	require.NoError(t, json.Unmarshal(f.pusher.values[0], &queued))
	assert.Equal(t, f.owner.UserID, queued.UserID)
	assert.Equal(t, "Grace Hopper", queued.UserName)
	assert.Equal(t, &f.listID, queued.ReportListID)
	assert.Equal(t, 0, *queued.Batch)
}

func TestSessionHiddenFromOtherUsers(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	v, err := f.svc.Start(ctx, f.taker, f.note.ID, model.StartExamQuery{})
	require.NoError(t, err)

	_, err = f.svc.View(ctx, f.owner, v.ID)
	assert.ErrorIs(t, err, ErrExamSessionNotFound)
	_, err = f.svc.Submit(ctx, f.owner, v.ID)
	assert.ErrorIs(t, err, ErrExamSessionNotFound)
}

func TestStartOnInvisibleNote(t *testing.T) {
	f := newExamFixture(t)
	f.note.IsShared = false

	_, err := f.svc.Start(context.Background(), f.taker, f.note.ID, model.StartExamQuery{})

	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestStartResumesSameBatch(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, f.taker, f.note.ID, model.StartExamQuery{Batch: "0"})
	require.NoError(t, err)
	again, err := f.svc.Start(ctx, f.taker, f.note.ID, model.StartExamQuery{Batch: "0"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := f.svc.Start(ctx, f.taker, f.note.ID, model.StartExamQuery{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = f.svc.View(ctx, f.taker, first.ID)
	assert.ErrorIs(t, err, ErrExamSessionNotFound)
}

func TestAbandonSession(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()
	v, err := f.svc.Start(ctx, f.taker, f.note.ID, model.StartExamQuery{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Abandon(f.taker, v.ID))

	_, err = f.svc.View(ctx, f.taker, v.ID)
	assert.ErrorIs(t, err, ErrExamSessionNotFound)
	assert.Equal(t, 0, f.pusher.count())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	f := newExamFixture(t)
	_, err := f.svc.Start(context.Background(), f.taker, f.note.ID, model.StartExamQuery{})
	require.NoError(t, err)

	assert.Equal(t, 0, f.svc.Sweep(time.Now()))
	assert.Equal(t, 1, f.svc.Active())

	assert.Equal(t, 1, f.svc.Sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, f.svc.Active())
}

func TestSweepKeepsCountingSessions(t *testing.T) {
	f := newExamFixture(t)
	v, err := f.svc.Start(context.Background(), f.taker, f.note.ID, model.StartExamQuery{Timer: "14400000"})
	require.NoError(t, err)
	require.NotNil(t, v.RemainingMs)

	assert.Equal(t, 0, f.svc.Sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 1, f.svc.Active())

	view, err := f.svc.View(context.Background(), f.taker, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStateActive, view.State)
}

func TestSubscribeStreamsScore(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()
	v, err := f.svc.Start(ctx, f.taker, f.note.ID, model.StartExamQuery{})
	require.NoError(t, err)

	events, cancel, err := f.svc.Subscribe(f.taker, v.ID)
	require.NoError(t, err)
	defer cancel()

	q := f.note.Questions[1]
	_, err = f.svc.RecordSelection(ctx, f.taker, v.ID, &model.RecordSelectionRequest{QuestionID: q.ID, ChoiceIDs: []uuid.UUID{q.Choices[0].ID}})
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type != exam.EventScore {
				continue
			}
			assert.Equal(t, 1, ev.Score.Correct)
			return
		case <-deadline:
			t.Fatal("no score event")
		}
	}
}
