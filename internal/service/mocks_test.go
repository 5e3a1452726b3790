package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/model"
)

// In-memory mocks for the repository interfaces. They implement the same
// contracts as the sqlite implementations (including which apperror each
// failure returns), so the services under test can't tell the difference.

type mockUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("email already registered")
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "no user with email " + email}
}

func (m *mockUserRepo) UpsertByGitHubID(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID {
			u.Username = user.Username
			u.Email = user.Email
			user.ID = u.ID
			return nil
		}
	}
	return m.Create(context.Background(), user)
}

type mockItemRepo struct {
	items  map[int64]*model.Item
	nextID int64
	// failCreate simulates a database failure after the image was stored,
	// to exercise the compensating file removal
	failCreate bool
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[int64]*model.Item)}
}

func (m *mockItemRepo) Create(_ context.Context, item *model.Item) error {
	if m.failCreate {
		return fmt.Errorf("sqlite: disk I/O error")
	}
	m.nextID++
	item.ID = m.nextID
	stored := *item
	m.items[item.ID] = &stored
	return nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id int64) (*model.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, apperror.NotFound("item", id)
	}
	result := *item
	return &result, nil
}

func (m *mockItemRepo) List(_ context.Context) ([]model.Item, error) {
	result := make([]model.Item, 0, len(m.items))
	for _, item := range m.items {
		result = append(result, *item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockItemRepo) Update(_ context.Context, item *model.Item) error {
	if _, ok := m.items[item.ID]; !ok {
		return apperror.NotFound("item", item.ID)
	}
	stored := *item
	m.items[item.ID] = &stored
	return nil
}

func (m *mockItemRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return apperror.NotFound("item", id)
	}
	delete(m.items, id)
	return nil
}

type favoritePair struct {
	userID, itemID int64
}

type mockFavoriteRepo struct {
	pairs map[favoritePair]bool
	items *mockItemRepo
}

func newMockFavoriteRepo(items *mockItemRepo) *mockFavoriteRepo {
	return &mockFavoriteRepo{pairs: make(map[favoritePair]bool), items: items}
}

func (m *mockFavoriteRepo) Add(_ context.Context, userID, itemID int64) error {
	key := favoritePair{userID, itemID}
	if m.pairs[key] {
		return apperror.Conflict("item is already in favorites")
	}
	m.pairs[key] = true
	return nil
}

func (m *mockFavoriteRepo) Remove(_ context.Context, userID, itemID int64) error {
	key := favoritePair{userID, itemID}
	if !m.pairs[key] {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "item not found in favorites"}
	}
	delete(m.pairs, key)
	return nil
}

func (m *mockFavoriteRepo) ListItems(_ context.Context, userID int64) ([]model.Item, error) {
	result := []model.Item{}
	for pair := range m.pairs {
		if pair.userID != userID {
			continue
		}
		if item, ok := m.items.items[pair.itemID]; ok {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type mockFeedbackRepo struct {
	rows   map[int64]*model.Feedback
	nextID int64
}

func newMockFeedbackRepo() *mockFeedbackRepo {
	return &mockFeedbackRepo{rows: make(map[int64]*model.Feedback)}
}

func (m *mockFeedbackRepo) Create(_ context.Context, fb *model.Feedback) error {
	m.nextID++
	fb.ID = m.nextID
	stored := *fb
	m.rows[fb.ID] = &stored
	return nil
}

func (m *mockFeedbackRepo) GetByID(_ context.Context, id int64) (*model.Feedback, error) {
	fb, ok := m.rows[id]
	if !ok {
		return nil, apperror.NotFound("feedback", id)
	}
	result := *fb
	return &result, nil
}

func (m *mockFeedbackRepo) ListForItem(_ context.Context, itemID int64) ([]model.Feedback, error) {
	result := []model.Feedback{}
	for _, fb := range m.rows {
		if fb.ItemID == itemID {
			result = append(result, *fb)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockFeedbackRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return apperror.NotFound("feedback", id)
	}
	delete(m.rows, id)
	return nil
}

// mockImageStore records stored and removed filenames without touching the
// filesystem.
type mockImageStore struct {
	saved   []string
	removed []string
	nextID  int
}

func (m *mockImageStore) Save(originalName string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.nextID++
	name := fmt.Sprintf("stored-%d_%s", m.nextID, originalName)
	m.saved = append(m.saved, name)
	return name, nil
}

func (m *mockImageStore) Remove(name string) error {
	m.removed = append(m.removed, name)
	return nil
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
