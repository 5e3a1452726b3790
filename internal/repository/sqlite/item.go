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

// ItemRepo implements repository.ItemRepository on the shared pool.
type ItemRepo struct {
	conn *sql.DB
}

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, user_id, name, description, location, condition,
	time_to_be_set_on_curb, image, created_at, updated_at`

// Create inserts a new item and fills in ID, CreatedAt, and UpdatedAt.
//
// The referenced owner must exist: user_id is a declared foreign key and
// the connection runs with PRAGMA foreign_keys=ON, so a dangling owner id
// fails here rather than producing an orphaned row.
func (r *ItemRepo) Create(ctx context.Context, item *model.Item) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO items (user_id, name, description, location, condition,
		                    time_to_be_set_on_curb, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.UserID,
		item.Name,
		item.Description,
		item.Location,
		item.Condition,
		item.TimeToBeSetOnCurb,
		item.Image,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating item: %w", err)
	}

	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new item id: %w", err)
	}

	return nil
}

// GetByID retrieves a single item. Returns apperror.ErrNotFound if absent.
func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)

	item, err := scanItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("sqlite: getting item %d: %w", id, err)
	}

	return item, nil
}

// List returns every item, newest first. The marketplace browse page shows
// everything — there is no pagination on this surface.
func (r *ItemRepo) List(ctx context.Context) ([]model.Item, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// Update rewrites the mutable columns of an existing item. The service
// layer resolves partial updates against the current row before calling
// this, so a full-row write is correct here.
func (r *ItemRepo) Update(ctx context.Context, item *model.Item) error {
	item.UpdatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE items
		 SET name = ?, description = ?, location = ?, condition = ?,
		     time_to_be_set_on_curb = ?, image = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name,
		item.Description,
		item.Location,
		item.Condition,
		item.TimeToBeSetOnCurb,
		item.Image,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating item %d: %w", item.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", item.ID)
	}

	return nil
}

// Delete removes an item row. The stored image file is intentionally left
// on disk (matching the original behavior); only the reference goes away.
func (r *ItemRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting item %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", id)
	}

	return nil
}

// scanItem reads one item from any scanner (sql.Row or sql.Rows share the
// Scan signature).
func scanItem(scan func(...any) error) (*model.Item, error) {
	var item model.Item
	err := scan(
		&item.ID,
		&item.UserID,
		&item.Name,
		&item.Description,
		&item.Location,
		&item.Condition,
		&item.TimeToBeSetOnCurb,
		&item.Image,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// collectItems drains a result set of item rows. Shared with the favorites
// join query.
func collectItems(rows *sql.Rows) ([]model.Item, error) {
	items := []model.Item{}

	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}

	return items, nil
}
