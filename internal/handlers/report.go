package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/services"
)

// ReportHandler serves the inventory, circulation and financial reports
type ReportHandler struct {
	reportService services.ReportServiceInterface
	ledgerService services.LedgerServiceInterface
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService services.ReportServiceInterface, ledgerService services.LedgerServiceInterface) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		ledgerService: ledgerService,
	}
}

// AvailableBooks
// @Summary Books with a free copy
// @Tags reports
// @Produce json
// @Success 200 {object} models.AvailableBooksReport
// @Router /api/reports/available-books [get]
func (h *ReportHandler) AvailableBooks(c *gin.Context) {
	report, err := h.reportService.AvailableBooks(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to generate available books report")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    report,
	})
}

// IssuedBooks
// @Summary Copies currently out, with overdue state
// @Tags reports
// @Produce json
// @Success 200 {object} models.IssuedBooksReport
// @Router /api/reports/issued-books [get]
func (h *ReportHandler) IssuedBooks(c *gin.Context) {
	report, err := h.reportService.IssuedBooks(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to generate issued books report")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    report,
	})
}

// FinancialStatus
// @Summary Ledger totals and rental counts
// @Tags reports
// @Produce json
// @Success 200 {object} models.FinancialStatus
// @Router /api/reports/financial-status [get]
func (h *ReportHandler) FinancialStatus(c *gin.Context) {
	status, err := h.ledgerService.Status(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to compute financial status")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    status,
	})
}

// FinancialHistory
// @Summary Every ledger entry in recording order
// @Tags reports
// @Produce json
// @Success 200 {object} ListResponse
// @Router /api/reports/financial-history [get]
func (h *ReportHandler) FinancialHistory(c *gin.Context) {
	history, err := h.ledgerService.History(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load financial history")
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    history,
		Meta:    ListMeta{Total: len(history)},
	})
}
