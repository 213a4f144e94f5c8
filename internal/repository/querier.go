package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/studymate/studymate-backend/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

const uniqueViolation = "23505"

// loadChoices fetches the choices of the given questions keyed by question ID,
// each list ordered by order_num.
func loadChoices(ctx context.Context, q querier, questionIDs []uuid.UUID) (map[uuid.UUID][]model.Choice, error) {
	out := make(map[uuid.UUID][]model.Choice, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx,
		`SELECT id, question_id, content, answer, order_num
		 FROM choices WHERE question_id = ANY($1)
		 ORDER BY question_id, order_num`, questionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Choice
		var questionID uuid.UUID
		if err := rows.Scan(&c.ID, &questionID, &c.Content, &c.Answer, &c.OrderNum); err != nil {
			return nil, err
		}
		out[questionID] = append(out[questionID], c)
	}
	return out, rows.Err()
}

// insertQuestions bulk-loads questions and their choices with COPY. IDs are
// assigned here when missing so choices can reference their question.
func insertQuestions(ctx context.Context, q querier, noteID uuid.UUID, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	var choiceRows [][]any
	questionRows := make([][]any, len(questions))
	for i := range questions {
		qs := &questions[i]
		if qs.ID == uuid.Nil {
			qs.ID = uuid.New()
		}
		qs.NoteID = noteID
		qs.OrderNum = i
		questionRows[i] = []any{qs.ID, noteID, qs.QuestionTitle, qs.IsFlagged, qs.Comment, qs.OrderNum}

		for j := range qs.Choices {
			c := &qs.Choices[j]
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			c.OrderNum = j
			choiceRows = append(choiceRows, []any{c.ID, qs.ID, c.Content, c.Answer, c.OrderNum})
		}
	}

	if _, err := q.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"id", "note_id", "question_title", "is_flagged", "comment", "order_num"},
		pgx.CopyFromRows(questionRows),
	); err != nil {
		return err
	}

	if len(choiceRows) == 0 {
		return nil
	}
	_, err := q.CopyFrom(ctx,
		pgx.Identifier{"choices"},
		[]string{"id", "question_id", "content", "answer", "order_num"},
		pgx.CopyFromRows(choiceRows),
	)
	return err
}
