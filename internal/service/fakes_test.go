package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/studymate/studymate-backend/internal/model"
)

type fakeNoteStore struct {
	mu       sync.Mutex
	notes    map[uuid.UUID]*model.Note
	replaced bool
	deleted  []uuid.UUID
}

func newFakeNoteStore(notes ...*model.Note) *fakeNoteStore {
	f := &fakeNoteStore{notes: map[uuid.UUID]*model.Note{}}
	for _, n := range notes {
		f.notes[n.ID] = n
	}
	return f
}

func (f *fakeNoteStore) GetByID(_ context.Context, id uuid.UUID) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNoteStore) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Note, error) {
	var out []model.Note
	for _, n := range f.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNoteStore) ListShared(context.Context) ([]model.Note, error) {
	var out []model.Note
	for _, n := range f.notes {
		if n.IsShared {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNoteStore) Create(_ context.Context, n *model.Note) error {
	n.ID = uuid.New()
	f.notes[n.ID] = n
	return nil
}

func (f *fakeNoteStore) Update(_ context.Context, n *model.Note, replace bool) error {
	f.replaced = replace
	f.notes[n.ID] = n
	return nil
}

func (f *fakeNoteStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.notes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.notes, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func makeNote(owner uuid.UUID, shared bool, questions int) *model.Note {
	n := &model.Note{
		ID:          uuid.New(),
		Title:       "Organic chemistry",
		Description: "Functional groups",
		IsShared:    shared,
		UserID:      owner,
		UpdatedAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < questions; i++ {
		n.Questions = append(n.Questions, model.Question{
			ID:            uuid.New(),
			NoteID:        n.ID,
			QuestionTitle: "Which group is a ketone?",
			OrderNum:      i,
			Choices: []model.Choice{
				{ID: uuid.New(), Content: "C=O in chain", Answer: true},
				{ID: uuid.New(), Content: "-OH"},
			},
		})
	}
	return n
}

type fakePusher struct {
	mu     sync.Mutex
	key    string
	values [][]byte
	err    error
}

func (f *fakePusher) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.key = key
	for _, v := range values {
		f.values = append(f.values, v.([]byte))
	}
	return redis.NewIntResult(int64(len(f.values)), nil)
}

func (f *fakePusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}

type fakeReportStore struct {
	lists   map[[2]uuid.UUID]*model.ReportList
	reports []model.Report

	gotTitle  string
	gotLimit  int
	gotOffset int
}

func (f *fakeReportStore) GetListByUserAndNote(_ context.Context, userID, noteID uuid.UUID) (*model.ReportList, error) {
	if l, ok := f.lists[[2]uuid.UUID{userID, noteID}]; ok {
		return l, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeReportStore) ListByUser(_ context.Context, _ uuid.UUID, noteTitle string, limit, offset int) ([]model.Report, int, error) {
	f.gotTitle, f.gotLimit, f.gotOffset = noteTitle, limit, offset
	return f.reports, len(f.reports), nil
}

func (f *fakeReportStore) ListAllByUser(context.Context, uuid.UUID) ([]model.Report, error) {
	return f.reports, nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}
