package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studymate/studymate-backend/internal/model"
)

// QuestionRepository serves the moderation views, which list questions
// across notes.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionWithNoteColumns = `
	q.id, q.note_id, q.question_title, q.is_flagged, q.comment, q.order_num,
	n.id, n.title, n.is_shared, n.user_id, n.created_at, n.updated_at`

func scanQuestionWithNote(row pgx.Row, q *model.QuestionWithNote) error {
	return row.Scan(
		&q.ID, &q.NoteID, &q.QuestionTitle, &q.IsFlagged, &q.Comment, &q.OrderNum,
		&q.Note.ID, &q.Note.Title, &q.Note.IsShared, &q.Note.UserID, &q.Note.CreatedAt, &q.Note.UpdatedAt,
	)
}

// ListFlagged returns flagged questions with their note. With sharedOnly
// only questions of shared notes are returned.
func (r *QuestionRepository) ListFlagged(ctx context.Context, sharedOnly bool) ([]model.QuestionWithNote, error) {
	return r.list(ctx, true, sharedOnly)
}

// ListAll returns every question with its note, filtered like ListFlagged.
func (r *QuestionRepository) ListAll(ctx context.Context, sharedOnly bool) ([]model.QuestionWithNote, error) {
	return r.list(ctx, false, sharedOnly)
}

func (r *QuestionRepository) list(ctx context.Context, flaggedOnly, sharedOnly bool) ([]model.QuestionWithNote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionWithNoteColumns+`
		 FROM questions q
		 JOIN notes n ON n.id = q.note_id
		 WHERE ($1::bool = FALSE OR q.is_flagged)
		   AND ($2::bool = FALSE OR n.is_shared)
		 ORDER BY n.updated_at DESC, q.order_num`, flaggedOnly, sharedOnly,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.QuestionWithNote{}
	var ids []uuid.UUID
	for rows.Next() {
		var q model.QuestionWithNote
		if err := scanQuestionWithNote(rows, &q); err != nil {
			return nil, err
		}
		out = append(out, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	choices, err := loadChoices(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Choices = choices[out[i].ID]
	}
	return out, nil
}

// GetWithNote retrieves one question joined with its note.
func (r *QuestionRepository) GetWithNote(ctx context.Context, id uuid.UUID) (*model.QuestionWithNote, error) {
	q := &model.QuestionWithNote{}
	err := scanQuestionWithNote(r.pool.QueryRow(ctx,
		`SELECT `+questionWithNoteColumns+`
		 FROM questions q
		 JOIN notes n ON n.id = q.note_id
		 WHERE q.id = $1`, id,
	), q)
	if err != nil {
		return nil, err
	}

	choices, err := loadChoices(ctx, r.pool, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	q.Choices = choices[id]
	return q, nil
}

// UpdateModeration sets the flag and moderator comment of a question.
func (r *QuestionRepository) UpdateModeration(ctx context.Context, id uuid.UUID, isFlagged bool, comment *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET is_flagged = $1, comment = $2 WHERE id = $3`,
		isFlagged, comment, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
