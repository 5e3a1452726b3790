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

// FavoriteHandler manages the caller's watch list. Every route here is
// behind RequireAuth — favorites only make sense for a known user.
type FavoriteHandler struct {
	favorites *service.FavoriteService
	logger    *slog.Logger
}

// NewFavoriteHandler creates a FavoriteHandler.
func NewFavoriteHandler(favorites *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

type addFavoriteRequest struct {
	ItemID int64 `json:"item_id"`
}

// HandleAdd favorites an item named in the JSON body.
//
// HTTP: POST /favorites
// BODY: {"item_id": 42}
func (h *FavoriteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	h.add(w, r, req.ItemID)
}

// HandleAddByID favorites the item named in the URL. Same operation as
// HandleAdd, just a more convenient shape for link-style clients.
//
// HTTP: POST /favorites/{itemID}
func (h *FavoriteHandler) HandleAddByID(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("itemID", "item id must be an integer"))
		return
	}
	h.add(w, r, itemID)
}

func (h *FavoriteHandler) add(w http.ResponseWriter, r *http.Request, itemID int64) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.favorites.Add(r.Context(), userID, itemID); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("item favorited",
		slog.Int64("userID", userID),
		slog.Int64("itemID", itemID),
	)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "item added to favorites"})
}

// HandleList returns the caller's favorited items as full item records,
// not just ids, so the client can render the list in one round trip.
//
// HTTP: GET /favorites
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	items, err := h.favorites.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleRemove drops an item from the caller's favorites.
//
// HTTP: DELETE /favorites/{itemID}
//
// 204 on success — there is nothing useful to say in the body.
func (h *FavoriteHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("itemID", "item id must be an integer"))
		return
	}

	if err := h.favorites.Remove(r.Context(), userID, itemID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
