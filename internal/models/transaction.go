package models

import (
	"time"

	"github.com/ngenohkevin/bookrent/internal/money"
)

// TransactionType classifies a ledger entry for aggregation
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeFine    TransactionType = "fine"
	TransactionTypeDeposit TransactionType = "deposit"
)

// Ledger entry labels
const (
	LabelDeposit     = "Deposit"
	LabelRentalFee   = "Rental fee"
	LabelOverdueFine = "Overdue fine"
	LabelDamageFee   = "Damage fee"
)

// Transaction represents an append-only entry in the financial ledger
type Transaction struct {
	ID              int64           `json:"id"`
	RentalID        int64           `json:"rental_id"`
	Date            time.Time       `json:"date"`
	Type            string          `json:"type"`
	Description     string          `json:"description"`
	Amount          money.Money     `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
}

// FinancialStatus aggregates the ledger and the rental set
type FinancialStatus struct {
	TotalRentalIncome money.Money `json:"total_rental_income"`
	TotalFines        money.Money `json:"total_fines"`
	TotalDeposits     money.Money `json:"total_deposits"`
	TotalRevenue      money.Money `json:"total_revenue"`
	ActiveRentals     int64       `json:"active_rentals"`
	TotalRentals      int64       `json:"total_rentals"`
}

// LedgerSnapshot is the ledger and rental counts read at one instant
type LedgerSnapshot struct {
	Transactions  []Transaction
	ActiveRentals int64
	TotalRentals  int64
}
