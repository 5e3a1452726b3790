package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/model"
	"github.com/sakif/curbside-market/internal/repository"
)

// UserRepo implements repository.UserRepository on the shared pool.
type UserRepo struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserRepo)(nil)

// Create inserts a new user row.
//
// DUPLICATE EMAILS:
// users.email carries a UNIQUE constraint, so the insert itself is the
// duplicate check. INSERT OR IGNORE makes a conflicting insert affect zero
// rows instead of erroring, and zero rows affected translates to
// ErrConflict. One atomic statement — no lookup-then-insert race.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (email, username, password_hash, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		user.PasswordHash,
		nullableID(user.GitHubID),
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating user %s: %w", user.Email, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.Conflict("email already registered")
	}

	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id. Returns apperror.ErrNotFound if absent.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.scanUser(
		r.conn.QueryRowContext(ctx,
			`SELECT id, email, username, password_hash, github_id, created_at
			 FROM users WHERE id = ?`, id),
		func() error { return apperror.NotFound("user", id) },
	)
}

// GetByEmail retrieves a user by exact (case-sensitive) email match.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanUser(
		r.conn.QueryRowContext(ctx,
			`SELECT id, email, username, password_hash, github_id, created_at
			 FROM users WHERE email = ?`, email),
		func() error {
			return &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("no user with email %s", email),
			}
		},
	)
}

// UpsertByGitHubID inserts the user on first GitHub sign-in, or refreshes
// username/email on a repeat sign-in, keeping the existing internal id.
func (r *UserRepo) UpsertByGitHubID(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("sqlite: upsert requires a GitHub id")
	}

	var existingID int64
	err := r.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != 0 {
		user.ID = existingID
		_, err = r.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, email = ? WHERE id = ?`,
			user.Username, user.Email, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
		}
		return nil
	}

	return r.Create(ctx, user)
}

// scanUser reads one user row; notFound supplies the error for zero rows.
func (r *UserRepo) scanUser(row *sql.Row, notFound func() error) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)

	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &githubID, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound()
		}
		return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
	}

	if githubID.Valid {
		u.GitHubID = githubID.Int64
	}

	return &u, nil
}

// nullableID maps "no GitHub account" (0) to NULL so the UNIQUE constraint
// on github_id only bites for real IDs — SQLite treats NULLs as distinct.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
