package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/models"
	"bookcatalog/internal/seed"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *catalog.Store) {
	t.Helper()

	store := catalog.NewStore("Test Library")
	_, err := seed.Apply(context.Background(), store, seed.Sample())
	require.NoError(t, err)

	return NewRouter(store, Config{}, zap.NewNop()), store
}

func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func bookIDs(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestListBooks(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	books := decode[[]models.Book](t, w)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, bookIDs(books))

	w = doRequest(r, http.MethodGet, "/api/books?genre=science%20fiction", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2"}, bookIDs(decode[[]models.Book](t, w)))
}

func TestBookJSONFields(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/books/2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	raw := decode[map[string]any](t, w)
	for _, key := range []string{"id", "title", "author", "genre", "publication_year", "isbn",
		"date_added", "description", "is_borrowed", "borrowed_date", "return_date", "borrower"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, true, raw["is_borrowed"])
	assert.Equal(t, "Alice", raw["borrower"])
	assert.Nil(t, raw["return_date"])
}

func TestCreateBook(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/books", map[string]any{
		"title": "Neuromancer", "author": "William Gibson", "genre": "Cyberpunk", "publication_year": 1984,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	book := decode[models.Book](t, w)
	assert.Equal(t, "6", book.ID)
	assert.Equal(t, "/api/books/6", w.Header().Get("Location"))
	require.NotNil(t, book.PublicationYear)
	assert.Equal(t, 1984, *book.PublicationYear)

	w = doRequest(r, http.MethodPost, "/api/books", map[string]any{"title": "No author", "genre": "G"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "author")

	req := httptest.NewRequest(http.MethodPost, "/api/books", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBook_NotFound(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/books/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Book not found", decode[map[string]string](t, w)["error"])
}

func TestUpdateBook(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodPut, "/api/books/1", map[string]any{"genre": "Adventure", "id": "99"})
	require.Equal(t, http.StatusOK, w.Code)
	book := decode[models.Book](t, w)
	assert.Equal(t, "1", book.ID, "identifier cannot be changed")
	assert.Equal(t, "Adventure", book.Genre)
	assert.Equal(t, "The Hobbit", book.Title)

	w = doRequest(r, http.MethodPut, "/api/books/1", map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/books/999", map[string]any{"genre": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteBook(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodDelete, "/api/books/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Book deleted successfully", decode[map[string]string](t, w)["message"])

	w = doRequest(r, http.MethodDelete, "/api/books/3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBorrowAndReturn(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/books/1/borrow", map[string]string{"borrower": "Carol"})
	require.Equal(t, http.StatusOK, w.Code)
	book := decode[models.Book](t, w)
	assert.True(t, book.IsBorrowed)
	assert.Equal(t, "Carol", book.Borrower)

	w = doRequest(r, http.MethodPost, "/api/books/1/borrow", map[string]string{"borrower": "Dave"})
	assert.Equal(t, http.StatusNotFound, w.Code, "already borrowed")

	w = doRequest(r, http.MethodPost, "/api/books/3/borrow", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/books/1/return", nil)
	require.Equal(t, http.StatusOK, w.Code)
	book = decode[models.Book](t, w)
	assert.False(t, book.IsBorrowed)
	assert.NotNil(t, book.ReturnDate)

	w = doRequest(r, http.MethodPost, "/api/books/1/return", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "not borrowed")
}

func TestListBorrowed(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/books/borrowed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2", "5"}, bookIDs(decode[[]models.Book](t, w)))
}

func TestRecentlyAdded(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/books/recent?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Book](t, w), 2)

	w = doRequest(r, http.MethodGet, "/api/books/recent?limit=bogus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Book](t, w), catalog.DefaultRecentLimit)
}

func TestSearch(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/books/search?q=KING&field=author", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"4"}, bookIDs(decode[[]models.Book](t, w)))

	w = doRequest(r, http.MethodGet, "/api/books/search?q=9780441172719", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2"}, bookIDs(decode[[]models.Book](t, w)))

	w = doRequest(r, http.MethodGet, "/api/books/search?q=x&field=publisher", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	raw := decode[map[string]any](t, w)
	assert.Equal(t, "Test Library", raw["name"])
	assert.EqualValues(t, 5, raw["total_books"])
	assert.EqualValues(t, 2, raw["borrowed_books"])
	assert.EqualValues(t, 3, raw["available_books"])
	assert.EqualValues(t, 5, raw["unique_genres"])
	assert.EqualValues(t, 5, raw["unique_authors"])
	assert.Len(t, raw["top_genres"], 3)
}

func TestHealthAndReady(t *testing.T) {
	ready := false
	r := NewRouter(catalog.NewStore(""), Config{Ready: func() bool { return ready }}, zap.NewNop())

	w := doRequest(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready = true
	w = doRequest(r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(catalog.ErrValidation))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(catalog.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(catalog.ErrInvalidStateOrNotFound))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(errors.New("boom")))
}
