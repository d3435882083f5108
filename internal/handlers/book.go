package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/services"
)

// BookHandler handles book-related HTTP requests
type BookHandler struct {
	bookService services.BookServiceInterface
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService services.BookServiceInterface) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

// CreateBook adds a title to the inventory
// @Summary Create a new book
// @Tags books
// @Accept json
// @Produce json
// @Param book body models.CreateBookRequest true "Book data"
// @Success 201 {object} models.BookResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create book")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    book,
		Message: "Book created successfully",
	})
}

// GetBook retrieves a book by ID
// @Summary Get a book by ID
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} models.BookResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	book, err := h.bookService.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    book,
	})
}

// ListBooks lists the inventory
// @Summary List books
// @Tags books
// @Produce json
// @Param available_only query bool false "Only books with a free copy"
// @Success 200 {object} ListResponse
// @Router /api/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var filter models.BookFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidRequest(c, err)
		return
	}

	books, err := h.bookService.ListBooks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list books")
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    books,
		Meta:    ListMeta{Total: len(books)},
	})
}

// DeleteBook removes a book
// @Summary Delete a book
// @Tags books
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	if err := h.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete book")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Book deleted successfully",
	})
}
