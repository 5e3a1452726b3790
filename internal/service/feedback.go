package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/model"
	"github.com/sakif/curbside-market/internal/repository"
)

// FeedbackService handles like/dislike submissions on items.
type FeedbackService struct {
	feedback repository.FeedbackRepository
	items    repository.ItemRepository
	logger   *slog.Logger
}

func NewFeedbackService(
	feedback repository.FeedbackRepository,
	items repository.ItemRepository,
	logger *slog.Logger,
) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		items:    items,
		logger:   logger,
	}
}

// Submit records a feedback row for the caller.
//
// The type check is case-sensitive and exact: LIKE or DISLIKE, nothing
// else. There is deliberately no duplicate check — repeated submissions
// for the same item, identical or contradictory, all persist.
func (s *FeedbackService) Submit(ctx context.Context, userID, itemID int64, feedbackType string) (*model.Feedback, error) {
	if !model.ValidFeedbackType(feedbackType) {
		return nil, apperror.ValidationFailed("feedback_type",
			fmt.Sprintf("feedback_type must be %s or %s", model.FeedbackLike, model.FeedbackDislike))
	}

	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	fb := &model.Feedback{
		UserID: userID,
		ItemID: itemID,
		Type:   feedbackType,
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("submitting feedback: %w", err)
	}

	s.logger.Info("feedback submitted",
		slog.Int64("feedbackID", fb.ID),
		slog.Int64("itemID", itemID),
		slog.String("type", feedbackType),
	)

	return fb, nil
}

// ListForItem returns all feedback on an item. Public.
func (s *FeedbackService) ListForItem(ctx context.Context, itemID int64) ([]model.Feedback, error) {
	rows, err := s.feedback.ListForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return rows, nil
}

// Delete removes a feedback row, author-only. A missing id is NotFound; an
// existing row by another author is Forbidden — same existence-first policy
// as items.
func (s *FeedbackService) Delete(ctx context.Context, id, callerID int64) error {
	fb, err := s.feedback.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if fb.UserID != callerID {
		return apperror.Forbidden("only the author can delete this feedback")
	}

	if err := s.feedback.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("feedback deleted",
		slog.Int64("feedbackID", id),
		slog.Int64("userID", callerID),
	)
	return nil
}
