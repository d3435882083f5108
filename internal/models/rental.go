package models

import (
	"time"

	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/money"
)

// MaxRentalDays bounds the rental period accepted at issue time
const MaxRentalDays = 365

// RentalStatus represents the lifecycle state of a rental
type RentalStatus string

const (
	RentalStatusActive   RentalStatus = "ACTIVE"
	RentalStatusReturned RentalStatus = "RETURNED"
)

// DamageLevel is the condition reported when a copy comes back
type DamageLevel string

const (
	DamageMinor     DamageLevel = "minor"
	DamageModerate  DamageLevel = "moderate"
	DamageSevere    DamageLevel = "severe"
	DamageDestroyed DamageLevel = "destroyed"
)

// DamageLevels lists the levels from least to most severe
var DamageLevels = []DamageLevel{DamageMinor, DamageModerate, DamageSevere, DamageDestroyed}

// IsValid checks if the damage level is known
func (d DamageLevel) IsValid() bool {
	for _, known := range DamageLevels {
		if d == known {
			return true
		}
	}
	return false
}

// Rental represents one copy of a book issued to a reader
type Rental struct {
	ID                 int64        `json:"id"`
	BookID             int64        `json:"book_id"`
	ReaderID           int64        `json:"reader_id"`
	IssueDate          time.Time    `json:"issue_date"`
	RentalDays         int32        `json:"rental_days"`
	ExpectedReturnDate time.Time    `json:"expected_return_date"`
	ReturnDate         *time.Time   `json:"return_date"`
	DepositPaid        money.Money  `json:"deposit_paid"`
	RentalCost         money.Money  `json:"rental_cost"`
	DamageLevel        *DamageLevel `json:"damage_level"`
	Status             RentalStatus `json:"status"`
}

// IsOverdue reports whether the rental is still out past its due date at now
func (r *Rental) IsOverdue(now time.Time) bool {
	return r.Status == RentalStatusActive && now.After(r.ExpectedReturnDate)
}

// DaysOverdue is the number of started days the rental is late at now,
// or zero when it is not overdue.
func (r *Rental) DaysOverdue(now time.Time) int {
	if !r.IsOverdue(now) {
		return 0
	}
	return DaysLate(r.ExpectedReturnDate, now)
}

// DaysLate counts started 24h periods between due and at.
func DaysLate(due, at time.Time) int {
	if !at.After(due) {
		return 0
	}
	late := at.Sub(due)
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// RentalResponse is the public view of a rental with derived overdue flags
type RentalResponse struct {
	ID                 int64        `json:"id"`
	BookID             int64        `json:"book_id"`
	ReaderID           int64        `json:"reader_id"`
	IssueDate          time.Time    `json:"issue_date"`
	RentalDays         int32        `json:"rental_days"`
	ExpectedReturnDate time.Time    `json:"expected_return_date"`
	ReturnDate         *time.Time   `json:"return_date"`
	DepositPaid        money.Money  `json:"deposit_paid"`
	RentalCost         money.Money  `json:"rental_cost"`
	DamageLevel        *DamageLevel `json:"damage_level"`
	Status             RentalStatus `json:"status"`
	IsOverdue          bool         `json:"is_overdue"`
	DaysOverdue        int          `json:"days_overdue"`
}

// NewRentalResponse builds the view of a rental evaluated at now
func NewRentalResponse(r *Rental, now time.Time) RentalResponse {
	return RentalResponse{
		ID:                 r.ID,
		BookID:             r.BookID,
		ReaderID:           r.ReaderID,
		IssueDate:          r.IssueDate,
		RentalDays:         r.RentalDays,
		ExpectedReturnDate: r.ExpectedReturnDate,
		ReturnDate:         r.ReturnDate,
		DepositPaid:        r.DepositPaid,
		RentalCost:         r.RentalCost,
		DamageLevel:        r.DamageLevel,
		Status:             r.Status,
		IsOverdue:          r.IsOverdue(now),
		DaysOverdue:        r.DaysOverdue(now),
	}
}

// NewRentalResponses converts a slice of rentals evaluated at the same instant
func NewRentalResponses(rentals []Rental, now time.Time) []RentalResponse {
	out := make([]RentalResponse, 0, len(rentals))
	for i := range rentals {
		out = append(out, NewRentalResponse(&rentals[i], now))
	}
	return out
}

// RentalFilter selects which rentals a listing returns
type RentalFilter string

const (
	RentalFilterAll     RentalFilter = "all"
	RentalFilterActive  RentalFilter = "active"
	RentalFilterOverdue RentalFilter = "overdue"
)

// ParseRentalFilter reads a status query value; empty means all.
func ParseRentalFilter(s string) (RentalFilter, error) {
	switch RentalFilter(s) {
	case "", RentalFilterAll:
		return RentalFilterAll, nil
	case RentalFilterActive:
		return RentalFilterActive, nil
	case RentalFilterOverdue:
		return RentalFilterOverdue, nil
	}
	return "", errs.Validation("unknown rental status filter %q", s)
}

// CreateRentalRequest represents the request to issue a copy to a reader
type CreateRentalRequest struct {
	BookID     int64  `json:"book_id"`
	ReaderID   int64  `json:"reader_id"`
	RentalDays *int32 `json:"rental_days"`
}

// Validate checks ids and fills in the rental period when omitted
func (r *CreateRentalRequest) Validate(defaultDays int32) error {
	if r.BookID < 1 {
		return errs.Validation("book_id is required")
	}
	if r.ReaderID < 1 {
		return errs.Validation("reader_id is required")
	}
	if r.RentalDays == nil {
		days := defaultDays
		r.RentalDays = &days
	}
	if *r.RentalDays < 1 {
		return errs.Validation("rental_days must be at least 1")
	}
	if *r.RentalDays > MaxRentalDays {
		return errs.Validation("rental_days cannot exceed %d", MaxRentalDays)
	}
	return nil
}

// ReturnRentalRequest represents the request to close a rental
type ReturnRentalRequest struct {
	DamageLevel *DamageLevel `json:"damage_level"`
}

// Validate treats an empty damage level as none
func (r *ReturnRentalRequest) Validate() error {
	if r.DamageLevel == nil {
		return nil
	}
	if *r.DamageLevel == "" {
		r.DamageLevel = nil
		return nil
	}
	if !r.DamageLevel.IsValid() {
		return errs.Validation("unknown damage level %q", *r.DamageLevel)
	}
	return nil
}

// Settlement splits the deposit of a returned rental. RefundToReader,
// FineAmount and FeeAmount always add up to the deposit paid.
type Settlement struct {
	RefundToReader money.Money `json:"refund_to_reader"`
	FineAmount     money.Money `json:"fine_amount"`
	FeeAmount      money.Money `json:"fee_amount"`
	DaysLate       int         `json:"days_late"`
}

// ReturnResponse is the result of returning a rental
type ReturnResponse struct {
	RentalID    int64        `json:"rental_id"`
	Status      RentalStatus `json:"status"`
	ReturnDate  time.Time    `json:"return_date"`
	DamageLevel *DamageLevel `json:"damage_level"`
	DepositPaid money.Money  `json:"deposit_paid"`
	Settlement
}

// RentalQuery narrows a rental listing at the storage layer
type RentalQuery struct {
	ActiveOnly bool
	ReaderID   int64
}

// RentalClosure carries the fields fixed when a rental is returned together
// with the ledger entries written in the same unit.
type RentalClosure struct {
	ReturnDate  time.Time
	DamageLevel *DamageLevel
	Entries     []Transaction
}

// CloseFunc decides the closure of an active rental. It runs while the
// rental is locked and must not block.
type CloseFunc func(r Rental) (RentalClosure, error)
