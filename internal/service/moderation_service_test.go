package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studymate/studymate-backend/internal/model"
)

type fakeQuestionStore struct {
	questions  map[uuid.UUID]*model.QuestionWithNote
	sharedOnly *bool
}

func (f *fakeQuestionStore) ListFlagged(_ context.Context, sharedOnly bool) ([]model.QuestionWithNote, error) {
	f.sharedOnly = &sharedOnly
	return nil, nil
}

func (f *fakeQuestionStore) ListAll(_ context.Context, sharedOnly bool) ([]model.QuestionWithNote, error) {
	f.sharedOnly = &sharedOnly
	return nil, nil
}

func (f *fakeQuestionStore) GetWithNote(_ context.Context, id uuid.UUID) (*model.QuestionWithNote, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuestionStore) UpdateModeration(_ context.Context, id uuid.UUID, isFlagged bool, comment *string) error {
	q := f.questions[id]
	q.IsFlagged = isFlagged
	q.Comment = comment
	return nil
}

func newModerationFixture(flagged, shared bool) (*ModerationService, *fakeQuestionStore, *model.QuestionWithNote) {
	q := &model.QuestionWithNote{
		Question: model.Question{ID: uuid.New(), IsFlagged: flagged},
		Note:     model.NoteSummary{ID: uuid.New(), UserID: uuid.New(), IsShared: shared},
	}
	store := &fakeQuestionStore{questions: map[uuid.UUID]*model.QuestionWithNote{q.ID: q}}
	return NewModerationService(store), store, q
}

func boolPtr(b bool) *bool { return &b }

func TestListFlaggedScope(t *testing.T) {
	svc, store, _ := newModerationFixture(true, true)

	_, err := svc.ListFlagged(context.Background(), Actor{Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, *store.sharedOnly)

	_, err = svc.ListQuestions(context.Background(), Actor{Role: model.RoleUser})
	require.NoError(t, err)
	assert.True(t, *store.sharedOnly)
}

func TestAnyoneMayFlagVisibleQuestion(t *testing.T) {
	svc, store, q := newModerationFixture(false, true)
	comment := "answer key is wrong"

	got, err := svc.Moderate(context.Background(), Actor{UserID: uuid.New()}, q.ID,
		&model.ModerateQuestionRequest{IsFlagged: boolPtr(true), Comment: &comment})

	require.NoError(t, err)
	assert.True(t, got.IsFlagged)
	assert.True(t, store.questions[q.ID].IsFlagged)
	assert.Equal(t, &comment, store.questions[q.ID].Comment)
}

func TestOnlyAdminClearsFlag(t *testing.T) {
	svc, _, q := newModerationFixture(true, true)
	req := &model.ModerateQuestionRequest{IsFlagged: boolPtr(false)}

	_, err := svc.Moderate(context.Background(), Actor{UserID: q.Note.UserID}, q.ID, req)
	assert.ErrorIs(t, err, ErrUnflagForbidden)

	got, err := svc.Moderate(context.Background(), Actor{Role: model.RoleAdmin}, q.ID, req)
	require.NoError(t, err)
	assert.False(t, got.IsFlagged)
}

func TestModeratePrivateQuestionHidden(t *testing.T) {
	svc, _, q := newModerationFixture(false, false)

	_, err := svc.Moderate(context.Background(), Actor{UserID: uuid.New()}, q.ID,
		&model.ModerateQuestionRequest{IsFlagged: boolPtr(true)})

	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
