package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/studymate/studymate-backend/internal/model"
	"github.com/studymate/studymate-backend/internal/repository"
)

var (
	ErrNoteNotFound  = errors.New("note not found")
	ErrNoteForbidden = errors.New("only the owner may change this note")
)

type noteStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Note, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Note, error)
	ListShared(ctx context.Context) ([]model.Note, error)
	Create(ctx context.Context, n *model.Note) error
	Update(ctx context.Context, n *model.Note, replaceQuestions bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NoteService handles note authoring and is the note provider for exams.
type NoteService struct {
	notes noteStore
}

// NewNoteService creates a new NoteService.
func NewNoteService(notes noteStore) *NoteService {
	return &NoteService{notes: notes}
}

// Get returns a note with its questions if the actor may see it. Notes the
// actor may not see are reported as missing.
func (s *NoteService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Note, error) {
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	if !actor.CanSee(n.UserID, n.IsShared) {
		return nil, ErrNoteNotFound
	}
	return n, nil
}

// ListMine returns the actor's own notes.
func (s *NoteService) ListMine(ctx context.Context, actor Actor) ([]model.Note, error) {
	notes, err := s.notes.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// ListShared returns every shared note.
func (s *NoteService) ListShared(ctx context.Context) ([]model.Note, error) {
	notes, err := s.notes.ListShared(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shared notes: %w", err)
	}
	return notes, nil
}

// Create stores a new note owned by the actor.
func (s *NoteService) Create(ctx context.Context, actor Actor, req *model.CreateNoteRequest) (*model.Note, error) {
	n := &model.Note{
		Title:       req.Title,
		Description: req.Description,
		IsShared:    req.IsShared,
		UserID:      actor.UserID,
		Questions:   make([]model.Question, len(req.Questions)),
	}
	for i, q := range req.Questions {
		n.Questions[i] = model.Question{
			QuestionTitle: q.QuestionTitle,
			Choices:       toChoices(q.Choices),
		}
	}

	if err := s.notes.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// Update applies a partial update. A non-nil question list replaces the
// stored one in full.
func (s *NoteService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *model.UpdateNoteRequest) (*model.Note, error) {
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(n.UserID) {
		return nil, ErrNoteForbidden
	}

	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Description != nil {
		n.Description = *req.Description
	}
	if req.IsShared != nil {
		n.IsShared = *req.IsShared
	}

	replace := req.Questions != nil
	if replace {
		n.Questions = make([]model.Question, len(*req.Questions))
		for i, q := range *req.Questions {
			n.Questions[i] = model.Question{
				QuestionTitle: q.QuestionTitle,
				Choices:       toChoices(q.Choices),
				IsFlagged:     q.IsFlagged,
				Comment:       q.Comment,
			}
			if q.ID != nil {
				n.Questions[i].ID = *q.ID
			}
		}
	}

	if err := s.notes.Update(ctx, n, replace); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

// Delete removes a note owned by the actor.
func (s *NoteService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.CanEdit(n.UserID) {
		return ErrNoteForbidden
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

func toChoices(reqs []model.ChoiceRequest) []model.Choice {
	out := make([]model.Choice, len(reqs))
	for i, c := range reqs {
		out[i] = model.Choice{Content: c.Content, Answer: c.Answer}
		if c.ID != nil {
			out[i].ID = *c.ID
		}
	}
	return out
}
