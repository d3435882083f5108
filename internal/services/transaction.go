package services

import (
	"context"

	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
)

// LedgerQuerier reads the financial ledger
type LedgerQuerier interface {
	LedgerSnapshot(ctx context.Context) (models.LedgerSnapshot, error)
}

// LedgerServiceInterface defines the interface for ledger service operations
type LedgerServiceInterface interface {
	History(ctx context.Context) ([]models.Transaction, error)
	Status(ctx context.Context) (*models.FinancialStatus, error)
}

// LedgerService reports on the append-only transaction ledger. Entries are
// only ever written by the rental service.
type LedgerService struct {
	querier LedgerQuerier
}

// NewLedgerService creates a new ledger service
func NewLedgerService(querier LedgerQuerier) *LedgerService {
	return &LedgerService{querier: querier}
}

// History returns every entry in the order it was recorded
func (s *LedgerService) History(ctx context.Context) ([]models.Transaction, error) {
	snap, err := s.querier.LedgerSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Transactions == nil {
		return []models.Transaction{}, nil
	}
	return snap.Transactions, nil
}

// Status aggregates the ledger and rental counts taken from one snapshot
func (s *LedgerService) Status(ctx context.Context) (*models.FinancialStatus, error) {
	snap, err := s.querier.LedgerSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	status := &models.FinancialStatus{
		TotalRentalIncome: money.Zero,
		TotalFines:        money.Zero,
		TotalDeposits:     money.Zero,
		ActiveRentals:     snap.ActiveRentals,
		TotalRentals:      snap.TotalRentals,
	}
	for _, t := range snap.Transactions {
		switch t.TransactionType {
		case models.TransactionTypeIncome:
			status.TotalRentalIncome = status.TotalRentalIncome.Add(t.Amount)
		case models.TransactionTypeFine:
			status.TotalFines = status.TotalFines.Add(t.Amount)
		case models.TransactionTypeDeposit:
			status.TotalDeposits = status.TotalDeposits.Add(t.Amount)
		}
	}
	status.TotalRevenue = status.TotalRentalIncome.Add(status.TotalFines)

	return status, nil
}
