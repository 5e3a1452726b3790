package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/model"
)

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "$2a$04$hash",
	}

	if err := db.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ada@example.com")

	// Different username and hash — only the email matters
	dup := &model.User{
		Email:        "ada@example.com",
		Username:     "someone-else",
		PasswordHash: "$2a$04$other",
	}

	err := db.Users.Create(context.Background(), dup)
	if err == nil {
		t.Fatal("Create() should reject a duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestUserCreate_EmailCaseSensitive(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ada@example.com")

	// Stored emails match case-sensitively, so this is a different email
	other := &model.User{Email: "Ada@example.com", Username: "ada2", PasswordHash: "$2a$04$x"}
	if err := db.Users.Create(context.Background(), other); err != nil {
		t.Fatalf("Create() with differently-cased email: %v", err)
	}
}

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "ada@example.com")

	found, err := db.Users.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != "ada@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "ada@example.com")
	}
	if found.PasswordHash != created.PasswordHash {
		t.Error("GetByID() did not return the stored password hash")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users.GetByID(context.Background(), 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "ada@example.com")

	found, err := db.Users.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	// Exact match only
	if _, err := db.Users.GetByEmail(context.Background(), "ADA@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("differently-cased lookup error = %v, want ErrNotFound", err)
	}
}

func TestUserUpsertByGitHubID(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:    "gh@example.com",
		Username: "octo",
		GitHubID: 12345,
	}

	// First sign-in inserts
	if err := db.Users.UpsertByGitHubID(context.Background(), user); err != nil {
		t.Fatalf("UpsertByGitHubID() error = %v", err)
	}
	firstID := user.ID
	if firstID == 0 {
		t.Fatal("upsert did not set user.ID")
	}

	// Second sign-in with a changed username keeps the internal id
	again := &model.User{
		Email:    "gh@example.com",
		Username: "octo-renamed",
		GitHubID: 12345,
	}
	if err := db.Users.UpsertByGitHubID(context.Background(), again); err != nil {
		t.Fatalf("UpsertByGitHubID() second call error = %v", err)
	}
	if again.ID != firstID {
		t.Errorf("second upsert ID = %d, want %d", again.ID, firstID)
	}

	found, err := db.Users.GetByID(context.Background(), firstID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Username != "octo-renamed" {
		t.Errorf("Username = %q, want refreshed %q", found.Username, "octo-renamed")
	}
}
