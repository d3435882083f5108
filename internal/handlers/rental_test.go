package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) CreateRental(ctx context.Context, req models.CreateRentalRequest) (*models.RentalResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RentalResponse), args.Error(1)
}

func (m *MockRentalService) ReturnRental(ctx context.Context, id int64, req models.ReturnRentalRequest) (*models.ReturnResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReturnResponse), args.Error(1)
}

func (m *MockRentalService) ListRentals(ctx context.Context, filter models.RentalFilter) ([]models.RentalResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RentalResponse), args.Error(1)
}

func setupRentalTestRouter(mockService *MockRentalService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewRentalHandler(mockService)
	rentals := router.Group("/api/rentals")
	rentals.POST("", handler.CreateRental)
	rentals.GET("", handler.ListRentals)
	rentals.POST("/:id/return", handler.ReturnRental)

	return router
}

func TestRentalHandler_CreateRental(t *testing.T) {
	days := int32(7)
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("created", func(t *testing.T) {
		mockService := new(MockRentalService)
		router := setupRentalTestRouter(mockService)

		mockService.On("CreateRental", mock.Anything, models.CreateRentalRequest{BookID: 1, ReaderID: 2, RentalDays: &days}).
			Return(&models.RentalResponse{
				ID:                 9,
				BookID:             1,
				ReaderID:           2,
				IssueDate:          issued,
				RentalDays:         days,
				ExpectedReturnDate: issued.AddDate(0, 0, 7),
				DepositPaid:        money.MustParse("10.00"),
				RentalCost:         money.MustParse("7.00"),
				Status:             models.RentalStatusActive,
			}, nil)

		body := bytes.NewBufferString(`{"book_id":1,"reader_id":2,"rental_days":7}`)
		req := httptest.NewRequest(http.MethodPost, "/api/rentals", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"rental_cost":7.00`)
		mockService.AssertExpectations(t)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no copy", errs.Unavailable("no copies of book 1 are available"), http.StatusConflict, "UNAVAILABLE"},
		{"unknown reader", errs.NotFound("reader 2 not found"), http.StatusNotFound, "NOT_FOUND"},
		{"book busy", errs.Busy("book 1 is locked by another operation"), http.StatusServiceUnavailable, "BUSY"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockRentalService)
			router := setupRentalTestRouter(mockService)
			mockService.On("CreateRental", mock.Anything, mock.Anything).Return(nil, tc.err)

			body := bytes.NewBufferString(`{"book_id":1,"reader_id":2}`)
			req := httptest.NewRequest(http.MethodPost, "/api/rentals", body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Error.Code)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		mockService := new(MockRentalService)
		router := setupRentalTestRouter(mockService)

		req := httptest.NewRequest(http.MethodPost, "/api/rentals", bytes.NewBufferString(`{"book_id":"one"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Error.Code)
		mockService.AssertNumberOfCalls(t, "CreateRental", 0)
	})
}

func TestRentalHandler_ReturnRental(t *testing.T) {
	returned := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)
	settlement := &models.ReturnResponse{
		RentalID:    9,
		Status:      models.RentalStatusReturned,
		ReturnDate:  returned,
		DepositPaid: money.MustParse("10.00"),
		Settlement: models.Settlement{
			RefundToReader: money.MustParse("10.00"),
			FineAmount:     money.Zero,
			FeeAmount:      money.Zero,
		},
	}

	t.Run("empty body means no damage", func(t *testing.T) {
		mockService := new(MockRentalService)
		router := setupRentalTestRouter(mockService)
		mockService.On("ReturnRental", mock.Anything, int64(9), models.ReturnRentalRequest{}).Return(settlement, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rentals/9/return", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response SuccessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Contains(t, w.Body.String(), `"refund_to_reader":10.00`)
		mockService.AssertExpectations(t)
	})

	t.Run("damage level is passed through", func(t *testing.T) {
		mockService := new(MockRentalService)
		router := setupRentalTestRouter(mockService)
		level := models.DamageSevere
		mockService.On("ReturnRental", mock.Anything, int64(9), models.ReturnRentalRequest{DamageLevel: &level}).Return(settlement, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/rentals/9/return", bytes.NewBufferString(`{"damage_level":"severe"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("already returned", func(t *testing.T) {
		mockService := new(MockRentalService)
		router := setupRentalTestRouter(mockService)
		mockService.On("ReturnRental", mock.Anything, int64(9), mock.Anything).
			Return(nil, errs.Conflict("rental 9 already returned"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rentals/9/return", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		response := decodeError(t, w)
		assert.Equal(t, "CONFLICT", response.Error.Code)
		assert.Contains(t, response.Error.Message, "already returned")
	})

	t.Run("invalid id", func(t *testing.T) {
		mockService := new(MockRentalService)
		router := setupRentalTestRouter(mockService)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rentals/x/return", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNumberOfCalls(t, "ReturnRental", 0)
	})
}

func TestRentalHandler_ListRentals(t *testing.T) {
	mockService := new(MockRentalService)
	router := setupRentalTestRouter(mockService)

	mockService.On("ListRentals", mock.Anything, models.RentalFilterOverdue).
		Return([]models.RentalResponse{{ID: 1, IsOverdue: true, DaysOverdue: 3}}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rentals?status=overdue", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
		Meta    ListMeta    `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Meta.Total)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rentals?status=lost", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNumberOfCalls(t, "ListRentals", 1)
}
