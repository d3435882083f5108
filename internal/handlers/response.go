package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/errs"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ListResponse represents a list response
type ListResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ListMeta describes a list response
type ListMeta struct {
	Total int `json:"total"`
}

// statusFor maps an error code to its HTTP status. Conflicts and unavailable
// copies are client-side outcomes; busy is transient and retryable.
func statusFor(code string) int {
	switch code {
	case "VALIDATION_ERROR":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "UNAVAILABLE", "CONFLICT":
		return http.StatusConflict
	case "BUSY":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err in the error envelope. Internal errors are logged
// and replaced by fallback so driver details never reach the client.
func respondError(c *gin.Context, err error, fallback string) {
	code := errs.Code(err)
	message := err.Error()

	switch code {
	case "INTERNAL_ERROR":
		slog.Error(fallback, "error", err, "path", c.FullPath())
		message = fallback
	case "BUSY":
		c.Header("Retry-After", "1")
	}

	c.JSON(statusFor(code), ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// invalidRequest reports a body or query that could not be bound
func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request data",
			Details: err.Error(),
		},
	})
}

// parseID reads a positive int64 path parameter, answering 400 when it is not
func parseID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid " + label + " ID",
			},
		})
		return 0, false
	}
	return id, true
}
