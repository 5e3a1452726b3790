package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/auth"
	"github.com/sakif/curbside-market/internal/service"
)

// FeedbackHandler manages LIKE/DISLIKE feedback on items.
type FeedbackHandler struct {
	feedback *service.FeedbackService
	logger   *slog.Logger
}

// NewFeedbackHandler creates a FeedbackHandler.
func NewFeedbackHandler(feedback *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

type submitFeedbackRequest struct {
	ItemID       int64  `json:"item_id"`
	FeedbackType string `json:"feedback_type"`
}

// HandleSubmit records feedback on an item.
//
// HTTP: POST /feedback
// BODY: {"item_id": 42, "feedback_type": "LIKE"}
// Auth: required
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req submitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	fb, err := h.feedback.Submit(r.Context(), userID, req.ItemID, req.FeedbackType)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("feedback submitted",
		slog.Int64("userID", userID),
		slog.Int64("itemID", req.ItemID),
		slog.String("type", fb.Type),
	)
	writeJSON(w, http.StatusCreated, map[string]int64{"feedback_id": fb.ID})
}

// HandleListForItem returns all feedback left on an item, oldest first.
//
// HTTP: GET /items/{id}/feedback
// Auth: none — feedback is public, like the item itself.
func (h *FeedbackHandler) HandleListForItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "item id must be an integer"))
		return
	}

	rows, err := h.feedback.ListForItem(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleDelete removes a feedback row the caller authored.
//
// HTTP: DELETE /feedback/{id}
// Auth: required, author only
func (h *FeedbackHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "feedback id must be an integer"))
		return
	}

	if err := h.feedback.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "feedback deleted"})
}
