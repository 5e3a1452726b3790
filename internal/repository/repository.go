// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage provides the one real
// implementation; tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/curbside-market/internal/model"
)

// UserRepository persists accounts. Users are created on registration and
// never mutated or deleted through the enabled API surface.
type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt.
	// Returns apperror.ErrConflict if the email is already registered.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertByGitHubID creates the user on first GitHub sign-in and
	// refreshes username/email on subsequent ones, filling in ID.
	UpsertByGitHubID(ctx context.Context, user *model.User) error
}

// ItemRepository persists item postings.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	// List returns every item. Unbounded; ordering follows creation time
	// but is not part of the contract.
	List(ctx context.Context) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id int64) error
}

// FavoriteRepository persists the (user, item) favorite relation.
type FavoriteRepository interface {
	// Add inserts the pair atomically. Returns apperror.ErrConflict if it
	// already exists — there is no separate existence check to race with.
	Add(ctx context.Context, userID, itemID int64) error
	// Remove deletes the caller's pair; apperror.ErrNotFound if absent.
	Remove(ctx context.Context, userID, itemID int64) error
	// ListItems returns the full item rows the user has favorited.
	ListItems(ctx context.Context, userID int64) ([]model.Item, error)
}

// FeedbackRepository persists like/dislike submissions.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	GetByID(ctx context.Context, id int64) (*model.Feedback, error)
	ListForItem(ctx context.Context, itemID int64) ([]model.Feedback, error)
	Delete(ctx context.Context, id int64) error
}
