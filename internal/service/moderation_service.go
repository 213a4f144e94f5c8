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
	ErrQuestionNotFound = errors.New("question not found")
	ErrUnflagForbidden  = errors.New("only administrators may clear a flag")
)

type questionStore interface {
	ListFlagged(ctx context.Context, sharedOnly bool) ([]model.QuestionWithNote, error)
	ListAll(ctx context.Context, sharedOnly bool) ([]model.QuestionWithNote, error)
	GetWithNote(ctx context.Context, id uuid.UUID) (*model.QuestionWithNote, error)
	UpdateModeration(ctx context.Context, id uuid.UUID, isFlagged bool, comment *string) error
}

// ModerationService serves the flagged-question views. Administrators see
// every note; other users only shared ones.
type ModerationService struct {
	questions questionStore
}

// NewModerationService creates a new ModerationService.
func NewModerationService(questions questionStore) *ModerationService {
	return &ModerationService{questions: questions}
}

// ListFlagged returns the flagged questions visible to the actor.
func (s *ModerationService) ListFlagged(ctx context.Context, actor Actor) ([]model.QuestionWithNote, error) {
	qs, err := s.questions.ListFlagged(ctx, !actor.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("list flagged questions: %w", err)
	}
	return qs, nil
}

// ListQuestions returns every question visible to the actor.
func (s *ModerationService) ListQuestions(ctx context.Context, actor Actor) ([]model.QuestionWithNote, error) {
	qs, err := s.questions.ListAll(ctx, !actor.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

// Moderate flags or unflags a question and sets its comment.
func (s *ModerationService) Moderate(ctx context.Context, actor Actor, id uuid.UUID, req *model.ModerateQuestionRequest) (*model.QuestionWithNote, error) {
	q, err := s.questions.GetWithNote(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	if !actor.CanSee(q.Note.UserID, q.Note.IsShared) {
		return nil, ErrQuestionNotFound
	}

	flag := *req.IsFlagged
	if q.IsFlagged && !flag && !actor.IsAdmin() {
		return nil, ErrUnflagForbidden
	}

	if err := s.questions.UpdateModeration(ctx, id, flag, req.Comment); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("moderate question: %w", err)
	}

	q.IsFlagged = flag
	q.Comment = req.Comment
	return q, nil
}
