// Package storage implements the server-local image store for item photos.
//
// Uploaded files land in a single configured directory and are referenced
// from the items table by filename only. Serving them back is a plain
// filename-keyed read (GET /uploads/{filename}) with no ownership check —
// the filenames are unguessable enough for a marketplace where every item
// photo is public anyway.
//
// WHY PREFIX FILENAMES WITH AN XID?
// Two users uploading "photo.jpg" must not overwrite each other. Prefixing
// the sanitized original name with a fresh xid keeps uploads collision-free
// while the stored name stays recognizable in the uploads directory.
package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"

	"github.com/sakif/curbside-market/internal/apperror"
)

// Image content types we accept. The check runs on the stored bytes via
// content sniffing, not on the client-supplied Content-Type header, which
// is trivially forged.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Store is a local-filesystem image store rooted at a single directory.
type Store struct {
	dir string
}

// NewLocal creates a Store rooted at dir, creating the directory if needed.
func NewLocal(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: creating upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes an uploaded file to the store and returns the stored
// filename to persist alongside the item row.
//
// Validation happens AFTER the copy: the bytes are written to disk, then
// sniffed, and the file is removed again if it is empty or not an image.
// Sniffing the stored file (rather than buffering the upload in memory)
// keeps memory flat regardless of upload size.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name := xid.New().String() + "_" + sanitizeFilename(originalName)
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", path, err)
	}

	written, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: writing %s: %w", path, err)
	}

	if written == 0 {
		os.Remove(path)
		return "", apperror.ValidationFailed("file", "uploaded file is empty")
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: sniffing %s: %w", path, err)
	}
	if !isAllowedImageType(mtype) {
		os.Remove(path)
		return "", apperror.ValidationFailed("file",
			fmt.Sprintf("unsupported file type %s: upload a JPEG, PNG, GIF, or WebP image", mtype.String()))
	}

	return name, nil
}

// Remove deletes a stored file. Used as the compensating step when the
// item row insert fails after the file was already written.
func (s *Store) Remove(name string) error {
	cleaned := sanitizeFilename(name)
	if cleaned == "" || cleaned != name {
		return fmt.Errorf("storage: refusing to remove suspicious filename %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("storage: removing %s: %w", name, err)
	}
	return nil
}

// ServeFile writes the named stored file to the response, or 404 if it does
// not exist. The filename is sanitized first, so "../../etc/passwd" style
// paths can never escape the uploads directory.
func (s *Store) ServeFile(w http.ResponseWriter, r *http.Request, name string) {
	cleaned := sanitizeFilename(name)
	if cleaned == "" || cleaned != name {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.dir, cleaned)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, path)
}

func isAllowedImageType(mtype *mimetype.MIME) bool {
	for _, allowed := range allowedImageTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

// sanitizeFilename reduces a client-supplied filename to a safe single path
// component: the base name with everything outside [a-zA-Z0-9._-] replaced
// by underscores. Same job as werkzeug's secure_filename.
func sanitizeFilename(name string) string {
	// Strip any directory components, Windows-style ones included
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" || cleaned == "_" {
		return "upload"
	}
	return cleaned
}
