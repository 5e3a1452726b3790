package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/curbside-market/internal/model"
	"github.com/sakif/curbside-market/internal/repository"
)

// FavoriteService handles the user↔item favorite relation.
//
// There is exactly one duplicate policy: the repository's unique constraint
// rejects a second (user, item) pair with ErrConflict. Every endpoint that
// adds a favorite goes through Add, so no code path can insert
// unconditionally.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	items     repository.ItemRepository
	logger    *slog.Logger
}

func NewFavoriteService(
	favorites repository.FavoriteRepository,
	items repository.ItemRepository,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		items:     items,
		logger:    logger,
	}
}

// Add favorites an item for the caller. An unknown item is NotFound; an
// already-favorited item is Conflict.
func (s *FavoriteService) Add(ctx context.Context, userID, itemID int64) error {
	// Surface a clean 404 for bogus item ids instead of a raw foreign-key
	// failure from the insert.
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return err
	}

	if err := s.favorites.Add(ctx, userID, itemID); err != nil {
		return err
	}

	s.logger.Info("item favorited",
		slog.Int64("userID", userID),
		slog.Int64("itemID", itemID),
	)
	return nil
}

// Remove un-favorites an item for the caller. Scoped to the caller's own
// rows: removing someone else's favorite is indistinguishable from removing
// a favorite that never existed (NotFound).
func (s *FavoriteService) Remove(ctx context.Context, userID, itemID int64) error {
	if err := s.favorites.Remove(ctx, userID, itemID); err != nil {
		return err
	}

	s.logger.Info("item unfavorited",
		slog.Int64("userID", userID),
		slog.Int64("itemID", itemID),
	)
	return nil
}

// ListForUser returns the full item representation for every favorite.
func (s *FavoriteService) ListForUser(ctx context.Context, userID int64) ([]model.Item, error) {
	items, err := s.favorites.ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return items, nil
}
