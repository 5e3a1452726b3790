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

// FeedbackRepo implements repository.FeedbackRepository on the shared pool.
type FeedbackRepo struct {
	conn *sql.DB
}

var _ repository.FeedbackRepository = (*FeedbackRepo)(nil)

// Create inserts a feedback row and fills in ID and CreatedAt.
// No uniqueness: the same user may submit for the same item repeatedly and
// every row is kept.
func (r *FeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	fb.CreatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO feedback (user_id, item_id, feedback_type, created_at)
		 VALUES (?, ?, ?, ?)`,
		fb.UserID,
		fb.ItemID,
		fb.Type,
		fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating feedback: %w", err)
	}

	fb.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new feedback id: %w", err)
	}

	return nil
}

// GetByID retrieves a single feedback row, used by the delete path to check
// authorship before removing anything.
func (r *FeedbackRepo) GetByID(ctx context.Context, id int64) (*model.Feedback, error) {
	var fb model.Feedback

	err := r.conn.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, feedback_type, created_at
		 FROM feedback WHERE id = ?`,
		id,
	).Scan(&fb.ID, &fb.UserID, &fb.ItemID, &fb.Type, &fb.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("feedback", id)
		}
		return nil, fmt.Errorf("sqlite: getting feedback %d: %w", id, err)
	}

	return &fb, nil
}

// ListForItem returns all feedback left on an item, oldest first.
func (r *FeedbackRepo) ListForItem(ctx context.Context, itemID int64) ([]model.Feedback, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, user_id, item_id, feedback_type, created_at
		 FROM feedback WHERE item_id = ?
		 ORDER BY id ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feedback for item %d: %w", itemID, err)
	}
	defer rows.Close()

	feedback := []model.Feedback{}
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.ItemID, &fb.Type, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feedback row: %w", err)
		}
		feedback = append(feedback, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feedback: %w", err)
	}

	return feedback, nil
}

// Delete removes a feedback row by id.
func (r *FeedbackRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting feedback %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("feedback", id)
	}

	return nil
}
