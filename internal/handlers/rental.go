package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/services"
)

// RentalHandler handles issuing and returning copies
type RentalHandler struct {
	rentalService services.RentalServiceInterface
}

// NewRentalHandler creates a new rental handler
func NewRentalHandler(rentalService services.RentalServiceInterface) *RentalHandler {
	return &RentalHandler{
		rentalService: rentalService,
	}
}

// CreateRental issues a copy of a book to a reader
// @Summary Rent a book
// @Tags rentals
// @Accept json
// @Produce json
// @Param rental body models.CreateRentalRequest true "Rental data"
// @Success 201 {object} models.RentalResponse
// @Failure 409 {object} ErrorResponse "No copy available"
// @Failure 503 {object} ErrorResponse "Book busy, retry"
// @Router /api/rentals [post]
func (h *RentalHandler) CreateRental(c *gin.Context) {
	var req models.CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	rental, err := h.rentalService.CreateRental(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create rental")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    rental,
		Message: "Rental created successfully",
	})
}

// ReturnRental closes a rental and settles the deposit. The body is optional.
// @Summary Return a rented book
// @Tags rentals
// @Accept json
// @Produce json
// @Param id path int true "Rental ID"
// @Param return body models.ReturnRentalRequest false "Damage report"
// @Success 200 {object} models.ReturnResponse
// @Failure 409 {object} ErrorResponse "Already returned"
// @Router /api/rentals/{id}/return [post]
func (h *RentalHandler) ReturnRental(c *gin.Context) {
	id, ok := parseID(c, "id", "rental")
	if !ok {
		return
	}

	var req models.ReturnRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		invalidRequest(c, err)
		return
	}

	result, err := h.rentalService.ReturnRental(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "Failed to return rental")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    result,
		Message: "Rental returned successfully",
	})
}

// ListRentals lists rentals filtered by status=all|active|overdue
// @Summary List rentals
// @Tags rentals
// @Produce json
// @Param status query string false "all, active or overdue"
// @Success 200 {object} ListResponse
// @Router /api/rentals [get]
func (h *RentalHandler) ListRentals(c *gin.Context) {
	filter, err := models.ParseRentalFilter(c.Query("status"))
	if err != nil {
		respondError(c, err, "Failed to list rentals")
		return
	}

	rentals, err := h.rentalService.ListRentals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list rentals")
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    rentals,
		Meta:    ListMeta{Total: len(rentals)},
	})
}
