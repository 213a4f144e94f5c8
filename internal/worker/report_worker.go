package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/config"
	"github.com/studymate/studymate-backend/internal/model"
)

const (
	ReportBatchSize    = 50
	ReportBatchTimeout = 2 * time.Second
	ReportPollTimeout  = 1 * time.Second
	// MaxReportAttempts bounds how often a failing report is requeued.
	MaxReportAttempts = 5
)

// insertReportSQL appends a report to the given list when it exists, and
// otherwise to the (user, note) list, creating that list on first use.
// Replaying the same report ID is a no-op.
const insertReportSQL = `
	WITH existing AS (
		SELECT id FROM report_lists WHERE id = $1::uuid
	), created AS (
		INSERT INTO report_lists (user_id, note_id)
		SELECT $2::uuid, $3::uuid
		WHERE NOT EXISTS (SELECT 1 FROM existing)
		ON CONFLICT (user_id, note_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	)
	INSERT INTO reports (id, report_list_id, note_id, note_title, user_name, result, choice_id, batch, user_id, submitted_at)
	SELECT $4::uuid,
	       COALESCE((SELECT id FROM existing), (SELECT id FROM created)),
	       $3::uuid, $5::text, $6::text, $7::int, $8::jsonb, $9::int, $2::uuid, $10::timestamptz
	ON CONFLICT (id) DO NOTHING`

// ReportWorker drains persist_reports_queue into PostgreSQL in batches.
type ReportWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewReportWorker creates a new ReportWorker.
func NewReportWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ReportWorker {
	return &ReportWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "report_worker").Logger(),
	}
}

type reportPayload struct {
	model.QueuedReport
	Attempts int `json:"attempts,omitempty"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds. Call in a goroutine.
func (w *ReportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReportWorker started")

	batch := make([]*reportPayload, 0, ReportBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ReportBatchSize || time.Since(lastFlush) >= ReportBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ReportPollTimeout, config.WorkerKey.PersistReportsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			p, err := decodeReport(item[1])
			if err != nil {
				w.log.Error().Err(err).Msg("Invalid report payload, dropping")
				continue
			}
			batch = append(batch, p)
		}
	}
}

func decodeReport(raw string) (*reportPayload, error) {
	var p reportPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	if p.ChoiceID == nil {
		p.ChoiceID = model.Selection{}
	}
	return &p, nil
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *ReportWorker) flushSafe(ctx context.Context, batch []*reportPayload) {
	if len(batch) == 0 {
		return
	}

	err := pgx.BeginFunc(ctx, w.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, buildReportBatch(batch)).Close()
	})
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Reports persisted")
		return
	}

	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Batch report insert failed, using fallback")
	for _, p := range batch {
		if err := w.persistSingle(ctx, p); err != nil {
			w.requeue(ctx, p, err)
		}
	}
}

func (w *ReportWorker) persistSingle(ctx context.Context, p *reportPayload) error {
	_, err := w.pool.Exec(ctx, insertReportSQL, reportArgs(p)...)
	return err
}

func (w *ReportWorker) requeue(ctx context.Context, p *reportPayload, cause error) {
	next, ok := nextAttempt(p)
	logEvt := w.log.Error().Err(cause).Str("report_id", p.ID.String()).Int("attempts", next.Attempts)
	if !ok {
		logEvt.Msg("Report dropped after repeated failures")
		return
	}

	raw, err := json.Marshal(next)
	if err != nil {
		logEvt.Msg("Report could not be re-encoded, dropping")
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistReportsQueue, raw).Err(); err != nil {
		logEvt.AnErr("requeue_err", err).Msg("Report requeue failed")
		return
	}
	logEvt.Msg("persistSingle failed, requeued")
}

// nextAttempt returns p with its attempt count bumped, or false once the
// limit is reached.
func nextAttempt(p *reportPayload) (*reportPayload, bool) {
	next := *p
	next.Attempts++
	return &next, next.Attempts < MaxReportAttempts
}

func buildReportBatch(batch []*reportPayload) *pgx.Batch {
	b := &pgx.Batch{}
	for _, p := range batch {
		b.Queue(insertReportSQL, reportArgs(p)...)
	}
	return b
}

func reportArgs(p *reportPayload) []any {
	return []any{
		p.ReportListID,
		p.UserID,
		p.NoteID,
		p.ID,
		p.NoteTitle,
		p.UserName,
		p.Result,
		p.ChoiceID,
		p.Batch,
		p.SubmittedAt,
	}
}
