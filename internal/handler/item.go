package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/curbside-market/internal/apperror"
	"github.com/sakif/curbside-market/internal/auth"
	"github.com/sakif/curbside-market/internal/service"
)

// maxUploadBytes caps how much of a multipart body is held in memory
// before the rest spills to temp files. Item photos are small; 10 MiB is
// plenty.
const maxUploadBytes = 10 << 20

// ItemHandler manages the item listings: posting, browsing, editing,
// removing.
//
// Items come in as multipart/form-data because they carry an image file
// alongside the text fields, so these handlers parse forms rather than
// JSON bodies.
type ItemHandler struct {
	items  *service.ItemService
	logger *slog.Logger
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(items *service.ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: logger}
}

// HandleCreate posts a new item.
//
// HTTP: POST /items
// Auth: required
// FORM: name, description, location, condition, time_to_be_set_on_curb,
// and a "file" part with the image. All of them are required.
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed("body", "expected multipart/form-data"))
		return
	}

	in := service.ItemInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Condition:   r.FormValue("condition"),
		CurbTime:    r.FormValue("time_to_be_set_on_curb"),
	}

	upload, closeUpload, err := formImage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if upload != nil {
		defer closeUpload()
	}

	item, err := h.items.Create(r.Context(), userID, in, upload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("item created",
		slog.Int64("itemID", item.ID),
		slog.Int64("userID", userID),
	)
	writeJSON(w, http.StatusCreated, item)
}

// HandleList returns every item, newest first.
//
// HTTP: GET /items
// Auth: none — browsing is public.
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleGet returns a single item.
//
// HTTP: GET /items/{id}
func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleUpdate edits an item the caller owns.
//
// HTTP: PUT /items/{id}
// Auth: required, owner only
//
// The form is partial: only fields that appear in the request change.
// This is why the update struct uses pointers — an absent field and an
// empty field are different things.
func (h *ItemHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	id, err := itemID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed("body", "expected multipart/form-data"))
		return
	}

	upd := service.ItemUpdate{
		Name:        formField(r, "name"),
		Description: formField(r, "description"),
		Location:    formField(r, "location"),
		Condition:   formField(r, "condition"),
		CurbTime:    formField(r, "time_to_be_set_on_curb"),
	}

	upload, closeUpload, err := formImage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if upload != nil {
		defer closeUpload()
		upd.Image = upload
	}

	item, err := h.items.Update(r.Context(), id, userID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleDelete removes an item the caller owns.
//
// HTTP: DELETE /items/{id}
// Auth: required, owner only
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	id, err := itemID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.items.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("item deleted",
		slog.Int64("itemID", id),
		slog.Int64("userID", userID),
	)
	writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// itemID parses the {id} URL parameter.
func itemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("id", "item id must be an integer")
	}
	return id, nil
}

// formField returns a pointer to the form value if the field was present
// in the parsed multipart form, nil if it was omitted entirely.
func formField(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	vals, ok := r.MultipartForm.Value[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

// formImage extracts the optional "file" part. It returns a nil upload
// when no file was attached, which create treats as a validation error
// and update treats as "keep the current image".
func formImage(r *http.Request) (*service.ImageUpload, func(), error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, apperror.ValidationFailed("file", "malformed file upload")
	}
	return &service.ImageUpload{
		Filename: header.Filename,
		File:     file,
	}, func() { closeFormFile(file) }, nil
}

func closeFormFile(f multipart.File) {
	if err := f.Close(); err != nil {
		slog.Warn("closing uploaded file", slog.String("error", err.Error()))
	}
}
