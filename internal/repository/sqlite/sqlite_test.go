package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/curbside-market/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" gives each test a fresh database with no disk I/O, destroyed
// when the connection closes. t.Cleanup handles the close even in subtests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Username:     "tester",
		PasswordHash: "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
	}
	if err := db.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestItem(t *testing.T, db *DB, userID int64, name string) *model.Item {
	t.Helper()
	item := &model.Item{
		UserID:            userID,
		Name:              name,
		Description:       "a " + name,
		Location:          "123 Main St",
		Condition:         model.ConditionGood,
		TimeToBeSetOnCurb: time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC),
		Image:             "test_" + name + ".jpg",
	}
	if err := db.Items.Create(context.Background(), item); err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}
