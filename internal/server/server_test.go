package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/curbside-market/internal/config"
	"github.com/sakif/curbside-market/internal/server"
)

// The tests here drive the real stack end to end: router, middleware,
// handlers, services, in-memory SQLite, and a temp-dir image store. Only
// the network socket is skipped — requests go straight to the handler.

var tinyGIF = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Port:      0,
		DBPath:    ":memory:",
		UploadDir: t.TempDir(),
		JWTSecret: "test-secret-0123456789abcdef",
		TokenTTL:  time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.New(cfg, logger)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	return srv.Handler()
}

// doJSON sends a JSON request, attaching the bearer token when non-empty.
func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// doMultipart sends a multipart form with the given fields and, when
// withImage is set, a small valid GIF as the "file" part.
func doMultipart(t *testing.T, h http.Handler, method, path, token string, fields map[string]string, withImage bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing form field %s: %v", k, err)
		}
	}
	if withImage {
		fw, err := mw.CreateFormFile("file", "photo.gif")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := fw.Write(tinyGIF); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type authBody struct {
	User struct {
		ID       int64  `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	} `json:"user"`
	Token string `json:"token"`
}

func register(t *testing.T, h http.Handler, email string) authBody {
	t.Helper()

	rr := doJSON(t, h, http.MethodPost, "/register", "", map[string]string{
		"email":    email,
		"username": "tester",
		"password": "hunter2hunter2",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register(%s) status = %d, body: %s", email, rr.Code, rr.Body.String())
	}

	var body authBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	return body
}

type itemBody struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Image     string `json:"image"`
}

func createItem(t *testing.T, h http.Handler, token, name string) itemBody {
	t.Helper()

	rr := doMultipart(t, h, http.MethodPost, "/items", token, map[string]string{
		"name":                   name,
		"description":            "free to a good home",
		"location":               "123 Maple Street",
		"condition":              "Good",
		"time_to_be_set_on_curb": "2026-09-15T17:00:00",
	}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("creating item %q: status = %d, body: %s", name, rr.Code, rr.Body.String())
	}

	var item itemBody
	if err := json.NewDecoder(rr.Body).Decode(&item); err != nil {
		t.Fatalf("decoding item response: %v", err)
	}
	return item
}

func TestRegisterAndLogin(t *testing.T) {
	h := newTestServer(t)

	created := register(t, h, "ada@example.com")
	assert.NotZero(t, created.User.ID)
	assert.NotEmpty(t, created.Token)

	// Same email again: rejected whatever the other fields say
	rr := doJSON(t, h, http.MethodPost, "/register", "", map[string]string{
		"email":    "ada@example.com",
		"username": "someone-else",
		"password": "different-password",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Email already registered")

	// Correct credentials
	rr = doJSON(t, h, http.MethodPost, "/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	// Wrong password and unknown email look identical
	bad1 := doJSON(t, h, http.MethodPost, "/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	bad2 := doJSON(t, h, http.MethodPost, "/login", "", map[string]string{
		"email": "nobody@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, bad1.Code)
	assert.Equal(t, http.StatusUnauthorized, bad2.Code)
	assert.Equal(t, bad1.Body.String(), bad2.Body.String())
}

func TestProfileRoutes(t *testing.T) {
	h := newTestServer(t)
	ada := register(t, h, "ada@example.com")

	rr := doJSON(t, h, http.MethodGet, "/auth/user", ada.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ada@example.com")
	// The hash never appears in any profile payload
	assert.NotContains(t, rr.Body.String(), "password")

	// No token → 401
	rr = doJSON(t, h, http.MethodGet, "/auth/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Garbage token → 401
	rr = doJSON(t, h, http.MethodGet, "/auth/user", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Another user's profile is readable when authenticated
	grace := register(t, h, "grace@example.com")
	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/users/%d", grace.User.ID), ada.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/users/9999", ada.Token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestItemLifecycle(t *testing.T) {
	h := newTestServer(t)
	ada := register(t, h, "ada@example.com")
	grace := register(t, h, "grace@example.com")

	// Posting requires auth
	rr := doMultipart(t, h, http.MethodPost, "/items", "", map[string]string{"name": "Couch"}, true)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	item := createItem(t, h, ada.Token, "Couch")
	assert.Equal(t, ada.User.ID, item.UserID)
	assert.NotEmpty(t, item.Image)

	// The stored image is publicly fetchable by filename
	req := httptest.NewRequest(http.MethodGet, "/uploads/"+item.Image, nil)
	imgRR := httptest.NewRecorder()
	h.ServeHTTP(imgRR, req)
	assert.Equal(t, http.StatusOK, imgRR.Code)
	assert.Equal(t, tinyGIF, imgRR.Body.Bytes())

	// Browsing is public
	rr = doJSON(t, h, http.MethodGet, "/items", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Couch")

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// A non-owner cannot edit or delete
	rr = doMultipart(t, h, http.MethodPut, fmt.Sprintf("/items/%d", item.ID), grace.Token,
		map[string]string{"name": "Stolen Couch"}, false)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), grace.Token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Partial update by the owner changes only what was sent
	rr = doMultipart(t, h, http.MethodPut, fmt.Sprintf("/items/%d", item.ID), ada.Token,
		map[string]string{"name": "Vintage Couch"}, false)
	assert.Equal(t, http.StatusOK, rr.Code)

	var updated itemBody
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, "Vintage Couch", updated.Name)
	assert.Equal(t, "Good", updated.Condition)
	assert.Equal(t, item.Image, updated.Image)

	// Owner deletes; the item is gone, further ops 404
	rr = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), ada.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), ada.Token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestItemValidation(t *testing.T) {
	h := newTestServer(t)
	ada := register(t, h, "ada@example.com")

	// Missing image
	rr := doMultipart(t, h, http.MethodPost, "/items", ada.Token, map[string]string{
		"name":                   "Couch",
		"time_to_be_set_on_curb": "2026-09-15T17:00:00",
	}, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Malformed curb time
	rr = doMultipart(t, h, http.MethodPost, "/items", ada.Token, map[string]string{
		"name":                   "Couch",
		"time_to_be_set_on_curb": "next tuesday",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFavoriteLifecycle(t *testing.T) {
	h := newTestServer(t)
	ada := register(t, h, "ada@example.com")
	grace := register(t, h, "grace@example.com")
	item := createItem(t, h, grace.Token, "Bookshelf")

	path := fmt.Sprintf("/favorites/%d", item.ID)

	// Favorite via JSON body
	rr := doJSON(t, h, http.MethodPost, "/favorites", ada.Token, map[string]int64{"item_id": item.ID})
	assert.Equal(t, http.StatusCreated, rr.Code)

	// Again, via either route: conflict
	rr = doJSON(t, h, http.MethodPost, path, ada.Token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Unknown item
	rr = doJSON(t, h, http.MethodPost, "/favorites", ada.Token, map[string]int64{"item_id": 9999})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The list carries the full item, not just an id
	rr = doJSON(t, h, http.MethodGet, "/favorites", ada.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Bookshelf")

	// Remove, then remove again
	rr = doJSON(t, h, http.MethodDelete, path, ada.Token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, path, ada.Token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Grace's favorites were never touched by any of this
	rr = doJSON(t, h, http.MethodGet, "/favorites", grace.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestFeedbackFlow(t *testing.T) {
	h := newTestServer(t)
	ada := register(t, h, "ada@example.com")
	grace := register(t, h, "grace@example.com")
	item := createItem(t, h, grace.Token, "Lamp")

	// Only the exact uppercase labels are accepted
	rr := doJSON(t, h, http.MethodPost, "/feedback", ada.Token, map[string]any{
		"item_id": item.ID, "feedback_type": "like",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/feedback", ada.Token, map[string]any{
		"item_id": item.ID, "feedback_type": "LIKE",
	})
	assert.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		FeedbackID int64 `json:"feedback_id"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.NotZero(t, created.FeedbackID)

	// A second submission by the same user also lands
	rr = doJSON(t, h, http.MethodPost, "/feedback", ada.Token, map[string]any{
		"item_id": item.ID, "feedback_type": "DISLIKE",
	})
	assert.Equal(t, http.StatusCreated, rr.Code)

	// Reading feedback is public
	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/items/%d/feedback", item.ID), "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "LIKE")
	assert.Contains(t, rr.Body.String(), "DISLIKE")

	// Only the author may delete
	path := fmt.Sprintf("/feedback/%d", created.FeedbackID)
	rr = doJSON(t, h, http.MethodDelete, path, grace.Token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, path, ada.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, path, ada.Token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
