package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/models"
)

// Catalog is the store surface the HTTP handlers use
type Catalog interface {
	Add(ctx context.Context, nb models.NewBook) (models.Book, error)
	Get(ctx context.Context, id string) (models.Book, error)
	Update(ctx context.Context, id string, patch models.BookPatch) (models.Book, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]models.Book, error)
	ListByGenre(ctx context.Context, genre string) ([]models.Book, error)
	ListBorrowed(ctx context.Context) ([]models.Book, error)
	Search(ctx context.Context, query string, field models.SearchField) ([]models.Book, error)
	RecentlyAdded(ctx context.Context, limit int) ([]models.Book, error)
	Borrow(ctx context.Context, id, borrower string) (models.Book, error)
	Return(ctx context.Context, id string) (models.Book, error)
	Stats(ctx context.Context) (models.Stats, error)
	Name() string
}

// BorrowRequest is the body of POST /api/books/:id/borrow
type BorrowRequest struct {
	Borrower string `json:"borrower" binding:"required"`
}

// StatsResponse is the body of GET /api/stats
type StatsResponse struct {
	Name string `json:"name"`
	models.Stats
}

// Handler serves the book endpoints
type Handler struct {
	store  Catalog
	logger *zap.Logger
}

// RegisterRoutes mounts the book and stats endpoints on r
func RegisterRoutes(r gin.IRoutes, store Catalog, logger *zap.Logger) {
	h := &Handler{store: store, logger: logger}

	r.GET("/books", h.ListBooks)
	r.POST("/books", h.CreateBook)
	r.GET("/books/borrowed", h.ListBorrowed)
	r.GET("/books/recent", h.RecentlyAdded)
	r.GET("/books/search", h.Search)
	r.GET("/books/:id", h.GetBook)
	r.PUT("/books/:id", h.UpdateBook)
	r.DELETE("/books/:id", h.DeleteBook)
	r.POST("/books/:id/borrow", h.BorrowBook)
	r.POST("/books/:id/return", h.ReturnBook)
	r.GET("/stats", h.Stats)
}

// ---------- handlers ----------

func (h *Handler) ListBooks(c *gin.Context) {
	var (
		books []models.Book
		err   error
	)
	if genre := c.Query("genre"); genre != "" {
		books, err = h.store.ListByGenre(c.Request.Context(), genre)
	} else {
		books, err = h.store.ListAll(c.Request.Context())
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *Handler) CreateBook(c *gin.Context) {
	var req models.NewBook
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	book, err := h.store.Add(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/books/"+book.ID)
	c.JSON(http.StatusCreated, book)
}

func (h *Handler) GetBook(c *gin.Context) {
	book, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	var patch models.BookPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	book, err := h.store.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

func (h *Handler) ListBorrowed(c *gin.Context) {
	books, err := h.store.ListBorrowed(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *Handler) RecentlyAdded(c *gin.Context) {
	limit := parseIntDefault(c.Query("limit"), catalog.DefaultRecentLimit)
	books, err := h.store.RecentlyAdded(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *Handler) Search(c *gin.Context) {
	field, err := catalog.ParseSearchField(c.Query("field"))
	if err != nil {
		h.fail(c, err)
		return
	}
	books, err := h.store.Search(c.Request.Context(), c.Query("q"), field)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *Handler) BorrowBook(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("borrower is required"))
		return
	}
	book, err := h.store.Borrow(c.Request.Context(), c.Param("id"), req.Borrower)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) ReturnBook(c *gin.Context) {
	book, err := h.store.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Name: h.store.Name(), Stats: stats})
}

// ---------- helpers ----------

func (h *Handler) fail(c *gin.Context, err error) {
	status := ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}
	c.JSON(status, errorFromErr(err))
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
