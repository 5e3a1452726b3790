package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/model"
	"github.com/sakif/curbside-market/internal/repository"
)

// FavoriteRepo implements repository.FavoriteRepository on the shared pool.
type FavoriteRepo struct {
	conn *sql.DB
}

var _ repository.FavoriteRepository = (*FavoriteRepo)(nil)

// Add favorites an item for a user.
//
// ATOMIC DUPLICATE REJECTION:
// A SELECT-then-INSERT would be a check-then-act race: two concurrent
// requests could both pass the check and insert twice. Instead the
// UNIQUE(user_id, item_id) constraint does the checking inside the INSERT
// itself — OR IGNORE turns the constraint hit into zero rows affected,
// which we report as ErrConflict.
func (r *FavoriteRepo) Add(ctx context.Context, userID, itemID int64) error {
	result, err := r.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, item_id) VALUES (?, ?)`,
		userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding favorite (user=%d item=%d): %w", userID, itemID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.Conflict("item is already in favorites")
	}

	return nil
}

// Remove deletes the caller's favorite for the given item. Keying the
// DELETE on both ids means a user can only ever remove their own rows.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, itemID int64) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND item_id = ?`,
		userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing favorite (user=%d item=%d): %w", userID, itemID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "item not found in favorites",
		}
	}

	return nil
}

// ListItems returns the full item representation for everything the user
// has favorited, joined through the relation, newest favorite first.
func (r *FavoriteRepo) ListItems(ctx context.Context, userID int64) ([]model.Item, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT i.id, i.user_id, i.name, i.description, i.location, i.condition,
		        i.time_to_be_set_on_curb, i.image, i.created_at, i.updated_at
		 FROM items i
		 JOIN favorites f ON f.item_id = i.id
		 WHERE f.user_id = ?
		 ORDER BY f.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing favorites for user %d: %w", userID, err)
	}
	defer rows.Close()

	return collectItems(rows)
}
