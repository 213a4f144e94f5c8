package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studymate/studymate-backend/internal/model"
)

// NoteRepository handles note, question and choice data access.
type NoteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

// GetByID retrieves a note with its questions and choices in display order.
func (r *NoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Note, error) {
	n := &model.Note{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, is_shared, user_id, created_at, updated_at
		 FROM notes WHERE id = $1`, id,
	).Scan(&n.ID, &n.Title, &n.Description, &n.IsShared, &n.UserID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, note_id, question_title, is_flagged, comment, order_num
		 FROM questions WHERE note_id = $1
		 ORDER BY order_num`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.NoteID, &q.QuestionTitle, &q.IsFlagged, &q.Comment, &q.OrderNum); err != nil {
			return nil, err
		}
		n.Questions = append(n.Questions, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	choices, err := loadChoices(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range n.Questions {
		n.Questions[i].Choices = choices[n.Questions[i].ID]
	}
	return n, nil
}

// ListByUser returns the notes owned by userID, most recently updated first.
// Questions are not loaded.
func (r *NoteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Note, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

// ListShared returns every shared note, most recently updated first.
func (r *NoteRepository) ListShared(ctx context.Context) ([]model.Note, error) {
	return r.list(ctx, `WHERE is_shared`)
}

func (r *NoteRepository) list(ctx context.Context, where string, args ...any) ([]model.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, is_shared, user_id, created_at, updated_at
		 FROM notes `+where+`
		 ORDER BY updated_at DESC`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Description, &n.IsShared, &n.UserID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Create inserts a note and its questions in one transaction.
func (r *NoteRepository) Create(ctx context.Context, n *model.Note) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO notes (title, description, is_shared, user_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at, updated_at`,
			n.Title, n.Description, n.IsShared, n.UserID,
		).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
		if err != nil {
			return err
		}
		return insertQuestions(ctx, tx, n.ID, n.Questions)
	})
}

// Update writes the note fields. With replaceQuestions the stored question
// list is dropped and replaced by n.Questions.
func (r *NoteRepository) Update(ctx context.Context, n *model.Note, replaceQuestions bool) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE notes SET title = $1, description = $2, is_shared = $3, updated_at = NOW()
			 WHERE id = $4
			 RETURNING updated_at`,
			n.Title, n.Description, n.IsShared, n.ID,
		).Scan(&n.UpdatedAt)
		if err != nil {
			return err
		}
		if !replaceQuestions {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE note_id = $1`, n.ID); err != nil {
			return err
		}
		return insertQuestions(ctx, tx, n.ID, n.Questions)
	})
}

// Delete removes a note; questions and choices cascade.
func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
