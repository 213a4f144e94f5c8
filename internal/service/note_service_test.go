package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studymate/studymate-backend/internal/model"
)

func TestNoteVisibility(t *testing.T) {
	owner := Actor{UserID: uuid.New(), Role: model.RoleUser}
	stranger := Actor{UserID: uuid.New(), Role: model.RoleUser}
	admin := Actor{UserID: uuid.New(), Role: model.RoleAdmin}

	private := makeNote(owner.UserID, false, 1)
	shared := makeNote(owner.UserID, true, 1)
	svc := NewNoteService(newFakeNoteStore(private, shared))
	ctx := context.Background()

	_, err := svc.Get(ctx, owner, private.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, admin, private.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, stranger, private.ID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	_, err = svc.Get(ctx, stranger, shared.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestCreateNoteOwnedByActor(t *testing.T) {
	actor := Actor{UserID: uuid.New()}
	store := newFakeNoteStore()
	svc := NewNoteService(store)

	n, err := svc.Create(context.Background(), actor, &model.CreateNoteRequest{
		Title:       "Genetics",
		Description: "Mendel",
		Questions: []model.CreateQuestionRequest{{
			QuestionTitle: "Dominant allele?",
			Choices:       []model.ChoiceRequest{{Content: "A", Answer: true}, {Content: "a"}},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, actor.UserID, n.UserID)
	require.Len(t, n.Questions, 1)
	assert.True(t, n.Questions[0].Choices[0].Answer)
}

func TestUpdateNotePartial(t *testing.T) {
	actor := Actor{UserID: uuid.New()}
	note := makeNote(actor.UserID, false, 2)
	store := newFakeNoteStore(note)
	svc := NewNoteService(store)
	title := "Renamed"

	n, err := svc.Update(context.Background(), actor, note.ID, &model.UpdateNoteRequest{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "Renamed", n.Title)
	assert.Equal(t, "Functional groups", n.Description)
	assert.Len(t, n.Questions, 2)
	assert.False(t, store.replaced)
}

func TestUpdateNoteReplacesQuestions(t *testing.T) {
	actor := Actor{UserID: uuid.New()}
	note := makeNote(actor.UserID, false, 2)
	store := newFakeNoteStore(note)
	svc := NewNoteService(store)
	keep := note.Questions[1].ID
	comment := "typo in choice B"

	n, err := svc.Update(context.Background(), actor, note.ID, &model.UpdateNoteRequest{
		Questions: &[]model.UpdateQuestionRequest{{
			ID:            &keep,
			QuestionTitle: "Rewritten",
			IsFlagged:     true,
			Comment:       &comment,
		}},
	})

	require.NoError(t, err)
	assert.True(t, store.replaced)
	require.Len(t, n.Questions, 1)
	assert.Equal(t, keep, n.Questions[0].ID)
	assert.True(t, n.Questions[0].IsFlagged)
	assert.Equal(t, &comment, n.Questions[0].Comment)
}

func TestOnlyOwnerOrAdminEdits(t *testing.T) {
	owner := uuid.New()
	note := makeNote(owner, true, 1)
	svc := NewNoteService(newFakeNoteStore(note))
	stranger := Actor{UserID: uuid.New()}
	title := "x"

	_, err := svc.Update(context.Background(), stranger, note.ID, &model.UpdateNoteRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNoteForbidden)

	err = svc.Delete(context.Background(), stranger, note.ID)
	assert.ErrorIs(t, err, ErrNoteForbidden)

	err = svc.Delete(context.Background(), Actor{UserID: uuid.New(), Role: model.RoleAdmin}, note.ID)
	assert.NoError(t, err)
}
