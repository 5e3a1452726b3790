package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/model"
	"github.com/sakif/curbside-market/internal/repository"
)

// Validation constants.
const (
	MaxItemNameLength        = 100
	MaxItemDescriptionLength = 2000
)

// ImageStore is the slice of internal/storage the item service needs.
// Declaring the interface here (at the consumer) lets tests substitute an
// in-memory fake without touching the filesystem.
type ImageStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Remove(name string) error
}

// ImageUpload is an uploaded image file on its way to the store.
type ImageUpload struct {
	Filename string
	File     io.Reader
}

// ItemInput carries the form fields for creating an item. CurbTime is the
// raw wire value; the service owns parsing it.
type ItemInput struct {
	Name        string
	Description string
	Location    string
	Condition   string
	CurbTime    string
}

// ItemUpdate carries a partial update: nil means "leave unchanged".
type ItemUpdate struct {
	Name        *string
	Description *string
	Location    *string
	Condition   *string
	CurbTime    *string
	Image       *ImageUpload
}

// ItemService handles posting, browsing, editing, and removing items.
type ItemService struct {
	repo   repository.ItemRepository
	images ImageStore
	logger *slog.Logger
}

func NewItemService(repo repository.ItemRepository, images ImageStore, logger *slog.Logger) *ItemService {
	return &ItemService{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

// Create validates the input, stores the image, and persists the item.
//
// COMPENSATING WRITE ORDER:
// The image file is stored first, then the row is inserted. If the insert
// fails the file is removed again, so a half-failed create leaves neither
// an orphaned file nor a row pointing at nothing.
func (s *ItemService) Create(ctx context.Context, ownerID int64, in ItemInput, image *ImageUpload) (*model.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "item name is required")
	}
	if len(name) > MaxItemNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("item name must be %d characters or less", MaxItemNameLength))
	}
	if len(in.Description) > MaxItemDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxItemDescriptionLength))
	}

	curbTime, err := parseCurbTime(in.CurbTime)
	if err != nil {
		return nil, err
	}

	if image == nil || image.File == nil {
		return nil, apperror.ValidationFailed("file", "an image file is required")
	}

	stored, err := s.images.Save(image.Filename, image.File)
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		UserID:            ownerID,
		Name:              name,
		Description:       strings.TrimSpace(in.Description),
		Location:          strings.TrimSpace(in.Location),
		Condition:         strings.TrimSpace(in.Condition),
		TimeToBeSetOnCurb: curbTime,
		Image:             stored,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		// Compensate: the row never landed, so the file must go too
		if rmErr := s.images.Remove(stored); rmErr != nil {
			s.logger.Error("failed to remove image after create failure",
				slog.String("image", stored),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, fmt.Errorf("creating item: %w", err)
	}

	s.logger.Info("item posted",
		slog.Int64("itemID", item.ID),
		slog.Int64("ownerID", ownerID),
		slog.String("name", item.Name),
	)

	return item, nil
}

// Get returns a single item. Public — no caller identity involved.
func (s *ItemService) Get(ctx context.Context, id int64) (*model.Item, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every posted item. Public.
func (s *ItemService) List(ctx context.Context) ([]model.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// Update applies a partial update to the caller's own item.
//
// OWNERSHIP POLICY:
// The item is fetched first, so a missing id is NotFound and an existing
// item owned by someone else is Forbidden — 404 vs 403 never varies by
// accident. Nothing is mutated on either failure.
func (s *ItemService) Update(ctx context.Context, id, callerID int64, upd ItemUpdate) (*model.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != callerID {
		return nil, apperror.Forbidden("only the owner can update this item")
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "item name cannot be empty")
		}
		if len(name) > MaxItemNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("item name must be %d characters or less", MaxItemNameLength))
		}
		item.Name = name
	}
	if upd.Description != nil {
		if len(*upd.Description) > MaxItemDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("description must be %d characters or less", MaxItemDescriptionLength))
		}
		item.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Location != nil {
		item.Location = strings.TrimSpace(*upd.Location)
	}
	if upd.Condition != nil {
		item.Condition = strings.TrimSpace(*upd.Condition)
	}
	if upd.CurbTime != nil {
		curbTime, err := parseCurbTime(*upd.CurbTime)
		if err != nil {
			return nil, err
		}
		item.TimeToBeSetOnCurb = curbTime
	}

	// Replace the image reference only when a new file was supplied. The
	// previous file stays on disk — references go away, bytes do not.
	var newImage string
	if upd.Image != nil && upd.Image.File != nil {
		newImage, err = s.images.Save(upd.Image.Filename, upd.Image.File)
		if err != nil {
			return nil, err
		}
		item.Image = newImage
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if newImage != "" {
			if rmErr := s.images.Remove(newImage); rmErr != nil {
				s.logger.Error("failed to remove image after update failure",
					slog.String("image", newImage),
					slog.String("error", rmErr.Error()),
				)
			}
		}
		return nil, fmt.Errorf("updating item: %w", err)
	}

	s.logger.Info("item updated", slog.Int64("itemID", item.ID))

	return item, nil
}

// Delete removes the caller's own item. The stored image file is kept.
func (s *ItemService) Delete(ctx context.Context, id, callerID int64) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.UserID != callerID {
		return apperror.Forbidden("only the owner can delete this item")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("item deleted",
		slog.Int64("itemID", id),
		slog.Int64("ownerID", callerID),
	)
	return nil
}

// parseCurbTime parses the wire format for time_to_be_set_on_curb.
func parseCurbTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, apperror.ValidationFailed("time_to_be_set_on_curb",
			"time_to_be_set_on_curb is required")
	}

	t, err := time.Parse(model.CurbTimeLayout, v)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("time_to_be_set_on_curb",
			fmt.Sprintf("time_to_be_set_on_curb must be in %s form", "YYYY-MM-DDTHH:MM:SS"))
	}
	return t, nil
}
