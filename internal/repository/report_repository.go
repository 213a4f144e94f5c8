package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studymate/studymate-backend/internal/model"
)

// ReportRepository reads persisted reports. Writes go through the report
// queue and ReportWorker.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

const reportColumns = `id, report_list_id, note_id, note_title, user_name, result, choice_id, batch, user_id, submitted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner, rp *model.Report) error {
	return row.Scan(&rp.ID, &rp.ReportListID, &rp.NoteID, &rp.NoteTitle, &rp.UserName,
		&rp.Result, &rp.ChoiceID, &rp.Batch, &rp.UserID, &rp.SubmittedAt)
}

// GetListByUserAndNote retrieves the report list of a user for a note.
func (r *ReportRepository) GetListByUserAndNote(ctx context.Context, userID, noteID uuid.UUID) (*model.ReportList, error) {
	l := &model.ReportList{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, note_id, created_at, updated_at
		 FROM report_lists WHERE user_id = $1 AND note_id = $2`, userID, noteID,
	).Scan(&l.ID, &l.UserID, &l.NoteID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListByUser retrieves a user's reports newest first, optionally filtered by
// a case-insensitive note title substring.
func (r *ReportRepository) ListByUser(ctx context.Context, userID uuid.UUID, noteTitle string, limit, offset int) ([]model.Report, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{userID}
	if noteTitle != "" {
		args = append(args, "%"+noteTitle+"%")
		where += fmt.Sprintf(` AND note_title ILIKE $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reportColumns + ` FROM reports` + where +
		fmt.Sprintf(` ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		var rp model.Report
		if err := scanReport(rows, &rp); err != nil {
			return nil, 0, err
		}
		reports = append(reports, rp)
	}
	return reports, total, rows.Err()
}

// ListAllByUser retrieves every report of a user, newest first.
func (r *ReportRepository) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Report, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY submitted_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		var rp model.Report
		if err := scanReport(rows, &rp); err != nil {
			return nil, err
		}
		reports = append(reports, rp)
	}
	return reports, rows.Err()
}
