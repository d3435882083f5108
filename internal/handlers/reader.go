package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/services"
)

// ReaderHandler handles reader-related HTTP requests
type ReaderHandler struct {
	readerService services.ReaderServiceInterface
}

// NewReaderHandler creates a new reader handler
func NewReaderHandler(readerService services.ReaderServiceInterface) *ReaderHandler {
	return &ReaderHandler{
		readerService: readerService,
	}
}

func (h *ReaderHandler) CreateReader(c *gin.Context) {
	var req models.CreateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	reader, err := h.readerService.CreateReader(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create reader")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    reader,
		Message: "Reader created successfully",
	})
}

func (h *ReaderHandler) GetReader(c *gin.Context) {
	id, ok := parseID(c, "id", "reader")
	if !ok {
		return
	}

	reader, err := h.readerService.GetReader(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve reader")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    reader,
	})
}

func (h *ReaderHandler) ListReaders(c *gin.Context) {
	readers, err := h.readerService.ListReaders(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list readers")
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    readers,
		Meta:    ListMeta{Total: len(readers)},
	})
}

// ListReaderRentals lists every rental of one reader
func (h *ReaderHandler) ListReaderRentals(c *gin.Context) {
	id, ok := parseID(c, "id", "reader")
	if !ok {
		return
	}

	rentals, err := h.readerService.ListReaderRentals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to list reader rentals")
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    rentals,
		Meta:    ListMeta{Total: len(rentals)},
	})
}

func (h *ReaderHandler) DeleteReader(c *gin.Context) {
	id, ok := parseID(c, "id", "reader")
	if !ok {
		return
	}

	if err := h.readerService.DeleteReader(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete reader")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Reader deleted successfully",
	})
}
