package router

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/studymate/studymate-backend/internal/model"
)

type memUsers struct {
	byID map[uuid.UUID]*model.User
}

func (m *memUsers) add(u *model.User) {
	m.byID[u.ID] = u
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.DisplayName(), nil
}

// memNotes stores notes and serves both the note and question views.
type memNotes struct {
	mu    sync.Mutex
	notes map[uuid.UUID]*model.Note
}

func (m *memNotes) GetByID(_ context.Context, id uuid.UUID) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *n
	cp.Questions = append([]model.Question(nil), n.Questions...)
	return &cp, nil
}

func (m *memNotes) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Note
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memNotes) ListShared(context.Context) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Note
	for _, n := range m.notes {
		if n.IsShared {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memNotes) Create(_ context.Context, n *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = uuid.New()
	assignIDs(n)
	m.notes[n.ID] = n
	return nil
}

func (m *memNotes) Update(_ context.Context, n *model.Note, replace bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if replace {
		assignIDs(n)
	}
	m.notes[n.ID] = n
	return nil
}

func (m *memNotes) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.notes, id)
	return nil
}

func assignIDs(n *model.Note) {
	for i := range n.Questions {
		q := &n.Questions[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		q.NoteID = n.ID
		q.OrderNum = i
		for j := range q.Choices {
			if q.Choices[j].ID == uuid.Nil {
				q.Choices[j].ID = uuid.New()
			}
			q.Choices[j].OrderNum = j
		}
	}
}

type memQuestions struct{ notes *memNotes }

func (m memQuestions) list(flaggedOnly, sharedOnly bool) []model.QuestionWithNote {
	m.notes.mu.Lock()
	defer m.notes.mu.Unlock()
	var out []model.QuestionWithNote
	for _, n := range m.notes.notes {
		if sharedOnly && !n.IsShared {
			continue
		}
		for _, q := range n.Questions {
			if flaggedOnly && !q.IsFlagged {
				continue
			}
			out = append(out, model.QuestionWithNote{Question: q, Note: summary(n)})
		}
	}
	return out
}

func (m memQuestions) ListFlagged(_ context.Context, sharedOnly bool) ([]model.QuestionWithNote, error) {
	return m.list(true, sharedOnly), nil
}

func (m memQuestions) ListAll(_ context.Context, sharedOnly bool) ([]model.QuestionWithNote, error) {
	return m.list(false, sharedOnly), nil
}

func (m memQuestions) GetWithNote(_ context.Context, id uuid.UUID) (*model.QuestionWithNote, error) {
	for _, q := range m.list(false, false) {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memQuestions) UpdateModeration(_ context.Context, id uuid.UUID, isFlagged bool, comment *string) error {
	m.notes.mu.Lock()
	defer m.notes.mu.Unlock()
	for _, n := range m.notes.notes {
		for i := range n.Questions {
			if n.Questions[i].ID == id {
				n.Questions[i].IsFlagged = isFlagged
				n.Questions[i].Comment = comment
				return nil
			}
		}
	}
	return pgx.ErrNoRows
}

func summary(n *model.Note) model.NoteSummary {
	return model.NoteSummary{ID: n.ID, Title: n.Title, IsShared: n.IsShared, UserID: n.UserID}
}

type memReports struct {
	mu      sync.Mutex
	reports []model.Report
}

func (m *memReports) GetListByUserAndNote(context.Context, uuid.UUID, uuid.UUID) (*model.ReportList, error) {
	return nil, pgx.ErrNoRows
}

func (m *memReports) ListByUser(_ context.Context, userID uuid.UUID, noteTitle string, limit, offset int) ([]model.Report, int, error) {
	all, _ := m.ListAllByUser(context.Background(), userID)
	var matched []model.Report
	for _, r := range all {
		if strings.Contains(strings.ToLower(r.NoteTitle), strings.ToLower(noteTitle)) {
			matched = append(matched, r)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (m *memReports) ListAllByUser(_ context.Context, userID uuid.UUID) ([]model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Report
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

var errQueueDown = errors.New("redis: connection refused")

// memQueue stands in for the Redis report queue.
type memQueue struct {
	mu     sync.Mutex
	values []interface{}
	down   bool
}

func (q *memQueue) setDown(down bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.down = down
}

func (q *memQueue) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.down {
		return redis.NewIntResult(0, errQueueDown)
	}
	q.values = append(q.values, values...)
	return redis.NewIntResult(int64(len(q.values)), nil)
}

func (q *memQueue) LLen(ctx context.Context, key string) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	return redis.NewIntResult(int64(len(q.values)), nil)
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.values)
}
