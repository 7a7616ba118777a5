package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/model"
	"github.com/sakif/hackernews/internal/repository"
)

// =========================================================================
// MOCK STORE
// =========================================================================
//
// mockStore implements repository.Store in memory. It keeps copies, never the
// caller's pointers, so a test can't accidentally mutate stored state. It
// only models what the services rely on: ordering and LIKE escaping are
// covered by the sqlite package's own tests.
//
// failWith, when set, makes every call return that error so tests can
// simulate a broken database.

type mockStore struct {
	users    map[int]model.User
	links    map[int]model.Link
	voters   map[int]map[int]bool // linkID → set of userIDs
	nextUser int
	nextLink int

	failWith error
	calls    []string
}

var _ repository.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		users:  make(map[int]model.User),
		links:  make(map[int]model.Link),
		voters: make(map[int]map[int]bool),
	}
}

func (m *mockStore) record(name string) error {
	m.calls = append(m.calls, name)
	return m.failWith
}

func (m *mockStore) called(name string) bool {
	for _, c := range m.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) CreateUser(_ context.Context, u *model.User) error {
	if err := m.record("CreateUser"); err != nil {
		return err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperror.DuplicateEmail(u.Email)
		}
	}
	m.nextUser++
	u.ID = m.nextUser
	m.users[u.ID] = *u
	return nil
}

func (m *mockStore) GetUserByID(_ context.Context, id int) (*model.User, error) {
	if err := m.record("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if err := m.record("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (m *mockStore) ListLinksByAuthor(_ context.Context, userID int) ([]*model.Link, error) {
	if err := m.record("ListLinksByAuthor"); err != nil {
		return nil, err
	}
	return m.collect(func(l model.Link) bool {
		return l.PostedByID != nil && *l.PostedByID == userID
	}), nil
}

func (m *mockStore) ListVotedLinks(_ context.Context, userID int) ([]*model.Link, error) {
	if err := m.record("ListVotedLinks"); err != nil {
		return nil, err
	}
	return m.collect(func(l model.Link) bool { return m.voters[l.ID][userID] }), nil
}

func (m *mockStore) CreateLink(_ context.Context, l *model.Link) error {
	if err := m.record("CreateLink"); err != nil {
		return err
	}
	m.nextLink++
	l.ID = m.nextLink
	l.CreatedAt = time.Now().UTC()
	m.links[l.ID] = *l
	return nil
}

func (m *mockStore) GetLinkByID(_ context.Context, id int) (*model.Link, error) {
	if err := m.record("GetLinkByID"); err != nil {
		return nil, err
	}
	l, ok := m.links[id]
	if !ok {
		return nil, apperror.NotFound("link", id)
	}
	return &l, nil
}

func (m *mockStore) ListLinks(_ context.Context, q repository.FeedQuery) ([]*model.Link, error) {
	if err := m.record("ListLinks"); err != nil {
		return nil, err
	}
	links := m.collect(matches(q.Filter))
	if q.Skip != nil {
		if *q.Skip >= len(links) {
			return []*model.Link{}, nil
		}
		links = links[*q.Skip:]
	}
	if q.Take != nil && *q.Take < len(links) {
		links = links[:*q.Take]
	}
	return links, nil
}

func (m *mockStore) CountLinks(_ context.Context, filter string) (int, error) {
	if err := m.record("CountLinks"); err != nil {
		return 0, err
	}
	return len(m.collect(matches(filter))), nil
}

func (m *mockStore) UpdateLink(_ context.Context, id int, patch repository.LinkPatch) (*model.Link, error) {
	if err := m.record("UpdateLink"); err != nil {
		return nil, err
	}
	l, ok := m.links[id]
	if !ok {
		return nil, apperror.NotFound("link", id)
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.URL != nil {
		l.URL = *patch.URL
	}
	m.links[id] = l
	return &l, nil
}

func (m *mockStore) DeleteLink(_ context.Context, id int) (*model.Link, error) {
	if err := m.record("DeleteLink"); err != nil {
		return nil, err
	}
	l, ok := m.links[id]
	if !ok {
		return nil, apperror.NotFound("link", id)
	}
	delete(m.links, id)
	delete(m.voters, id)
	return &l, nil
}

func (m *mockStore) AddVoter(_ context.Context, linkID, userID int) error {
	if err := m.record("AddVoter"); err != nil {
		return err
	}
	if _, ok := m.links[linkID]; !ok {
		return errors.New("mock: foreign key constraint failed")
	}
	if m.voters[linkID] == nil {
		m.voters[linkID] = make(map[int]bool)
	}
	m.voters[linkID][userID] = true
	return nil
}

func (m *mockStore) ListVoters(_ context.Context, linkID int) ([]*model.User, error) {
	if err := m.record("ListVoters"); err != nil {
		return nil, err
	}
	users := []*model.User{}
	for id := range m.voters[linkID] {
		u := m.users[id]
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// collect returns copies of the links accepted by keep, in id order.
func (m *mockStore) collect(keep func(model.Link) bool) []*model.Link {
	out := []*model.Link{}
	for _, l := range m.links {
		if keep(l) {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matches(filter string) func(model.Link) bool {
	return func(l model.Link) bool {
		return filter == "" ||
			strings.Contains(l.Description, filter) ||
			strings.Contains(l.URL, filter)
	}
}

// testLogger only lets errors through so test output stays readable.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }
