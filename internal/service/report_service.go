package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/config"
	"github.com/studymate/studymate-backend/internal/model"
	"github.com/studymate/studymate-backend/internal/repository"
	"github.com/studymate/studymate-backend/internal/response"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultReportPageSize = 5
	reportSheet           = "Reports"
)

var ErrReportForbidden = errors.New("reports can only be filed for yourself")

type reportStore interface {
	GetListByUserAndNote(ctx context.Context, userID, noteID uuid.UUID) (*model.ReportList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, noteTitle string, limit, offset int) ([]model.Report, int, error)
	ListAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Report, error)
}

// listPusher is the slice of *redis.Client the service needs.
type listPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ReportService is the report sink for finished exams and serves the
// report history. Writes are queued in Redis and persisted by ReportWorker.
type ReportService struct {
	reports reportStore
	queue   listPusher
	log     zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(reports reportStore, queue listPusher, log zerolog.Logger) *ReportService {
	return &ReportService{
		reports: reports,
		queue:   queue,
		log:     log.With().Str("component", "report_service").Logger(),
	}
}

// Submit queues a finished exam for persistence. It is called once per
// submission attempt and never retries.
func (s *ReportService) Submit(ctx context.Context, sub *model.Submission) error {
	item := model.QueuedReport{ID: uuid.New(), Submission: *sub}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := s.queue.RPush(ctx, config.WorkerKey.PersistReportsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue report: %w", err)
	}

	s.log.Debug().
		Str("report_id", item.ID.String()).
		Str("note_id", sub.NoteID.String()).
		Int("result", sub.Result).
		Msg("Report queued")
	return nil
}

// SubmitAs files a report on behalf of an HTTP caller, who may only file
// reports for themselves unless they are an administrator.
func (s *ReportService) SubmitAs(ctx context.Context, actor Actor, sub *model.Submission) error {
	if !actor.IsAdmin() && sub.UserID != actor.UserID {
		return ErrReportForbidden
	}
	return s.Submit(ctx, sub)
}

// PriorListID returns the report list a new report for (userID, noteID)
// should be appended to, or nil when none exists yet.
func (s *ReportService) PriorListID(ctx context.Context, userID, noteID uuid.UUID) (*uuid.UUID, error) {
	l, err := s.reports.GetListByUserAndNote(ctx, userID, noteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get report list: %w", err)
	}
	return &l.ID, nil
}

// List returns one page of the actor's reports, newest first.
func (s *ReportService) List(ctx context.Context, actor Actor, q model.ReportListQuery) ([]model.Report, *response.Pagination, error) {
	page, perPage := normalizePage(q.Page, q.PerPage)
	reports, total, err := s.reports.ListByUser(ctx, actor.UserID, q.NoteTitle, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list reports: %w", err)
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return reports, pagination, nil
}

// Export writes the actor's full report history as an xlsx workbook.
func (s *ReportService) Export(ctx context.Context, actor Actor, w io.Writer) error {
	reports, err := s.reports.ListAllByUser(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := []interface{}{"Submitted At", "Note", "User", "Result (%)", "Batch", "Answered"}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range reports {
		batch := "-"
		if r.Batch != nil {
			batch = fmt.Sprintf("%d", *r.Batch+1)
		}
		row := []interface{}{
			r.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
			r.NoteTitle,
			r.UserName,
			r.Result,
			batch,
			len(r.ChoiceID),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(reportSheet, "A", "A", 20)
	_ = f.SetColWidth(reportSheet, "B", "C", 32)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultReportPageSize
	}
	return page, perPage
}
