package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/pricing"
)

// RentalQuerier defines the storage operations the rental service needs
type RentalQuerier interface {
	GetBook(ctx context.Context, id int64) (models.Book, error)
	GetReader(ctx context.Context, id int64) (models.Reader, error)
	ReserveCopy(ctx context.Context, bookID int64) error
	ReleaseCopy(ctx context.Context, bookID int64) error
	CreateRental(ctx context.Context, rental models.Rental, entries []models.Transaction) (models.Rental, error)
	ListRentals(ctx context.Context, q models.RentalQuery) ([]models.Rental, error)
	CloseRental(ctx context.Context, id int64, fn models.CloseFunc) (models.Rental, error)
}

// RentalServiceInterface defines the interface for rental service operations
type RentalServiceInterface interface {
	CreateRental(ctx context.Context, req models.CreateRentalRequest) (*models.RentalResponse, error)
	ReturnRental(ctx context.Context, id int64, req models.ReturnRentalRequest) (*models.ReturnResponse, error)
	ListRentals(ctx context.Context, filter models.RentalFilter) ([]models.RentalResponse, error)
}

// RentalService issues copies to readers and settles their return
type RentalService struct {
	querier     RentalQuerier
	policy      *pricing.Policy
	defaultDays int32
	logger      *slog.Logger
	now         func() time.Time

	// releaseTimeout bounds how long a compensating release keeps retrying
	releaseTimeout time.Duration
}

const defaultReleaseTimeout = 5 * time.Second

// NewRentalService creates a new rental service. defaultDays applies when a
// request leaves the rental period out.
func NewRentalService(querier RentalQuerier, policy *pricing.Policy, defaultDays int32, logger *slog.Logger) *RentalService {
	return &RentalService{
		querier:     querier,
		policy:      policy,
		defaultDays: defaultDays,
		logger:      logger,
		now:         time.Now,

		releaseTimeout: defaultReleaseTimeout,
	}
}

// CreateRental reserves a copy, prices the rental for the reader's category
// and records it together with its deposit and fee entries. When recording
// fails the reserved copy is put back before the error is returned.
func (s *RentalService) CreateRental(ctx context.Context, req models.CreateRentalRequest) (*models.RentalResponse, error) {
	if err := req.Validate(s.defaultDays); err != nil {
		return nil, err
	}
	days := *req.RentalDays

	reader, err := s.querier.GetReader(ctx, req.ReaderID)
	if err != nil {
		return nil, err
	}
	book, err := s.querier.GetBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}

	if err := s.querier.ReserveCopy(ctx, book.ID); err != nil {
		return nil, err
	}

	issued := s.now().UTC()
	cost := s.policy.RentalPrice(book.BaseRentalCost, days, reader.Category)
	rental := models.Rental{
		BookID:             book.ID,
		ReaderID:           reader.ID,
		IssueDate:          issued,
		RentalDays:         days,
		ExpectedReturnDate: issued.AddDate(0, 0, int(days)),
		DepositPaid:        book.DepositCost,
		RentalCost:         cost,
		Status:             models.RentalStatusActive,
	}
	entries := []models.Transaction{
		{
			Date:            issued,
			Type:            models.LabelDeposit,
			Description:     fmt.Sprintf("Deposit for %q", book.Title),
			Amount:          book.DepositCost,
			TransactionType: models.TransactionTypeDeposit,
		},
		{
			Date:            issued,
			Type:            models.LabelRentalFee,
			Description:     fmt.Sprintf("Rental of %q for %d days", book.Title, days),
			Amount:          cost,
			TransactionType: models.TransactionTypeIncome,
		},
	}

	created, err := s.querier.CreateRental(ctx, rental, entries)
	if err != nil {
		s.compensate(ctx, book.ID, err)
		return nil, err
	}

	s.logger.Info("Rental created",
		"rental_id", created.ID,
		"book_id", created.BookID,
		"reader_id", created.ReaderID,
		"rental_days", days,
		"rental_cost", cost.String(),
		"deposit", created.DepositPaid.String())

	response := models.NewRentalResponse(&created, issued)
	return &response, nil
}

// compensate puts a reserved copy back after a failed create. It runs even
// when the request context is already cancelled, and retries while the book
// is busy until releaseTimeout runs out.
func (s *RentalService) compensate(ctx context.Context, bookID int64, cause error) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	defer cancel()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 10 * time.Millisecond
	retry.MaxInterval = 250 * time.Millisecond
	retry.MaxElapsedTime = 0

	attempts := 0
	release := func() error {
		attempts++
		err := s.querier.ReleaseCopy(releaseCtx, bookID)
		if err != nil && !errors.Is(err, errs.ErrBusy) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(release, backoff.WithContext(retry, releaseCtx)); err != nil {
		s.logger.Error("Failed to release reserved copy",
			"book_id", bookID,
			"attempts", attempts,
			"cause", cause,
			"error", err)
		return
	}
	s.logger.Warn("Rental not recorded, reserved copy released",
		"book_id", bookID,
		"attempts", attempts,
		"error", cause)
}

// ReturnRental closes an active rental at the current instant. The copy goes
// back on the shelf and the overdue fine and damage fee are booked in the
// same unit; the rest of the deposit is refunded.
func (s *RentalService) ReturnRental(ctx context.Context, id int64, req models.ReturnRentalRequest) (*models.ReturnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var settlement models.Settlement
	closed, err := s.querier.CloseRental(ctx, id, func(r models.Rental) (models.RentalClosure, error) {
		at := s.now().UTC()
		settlement = s.policy.Settle(&r, req.DamageLevel, at)

		var entries []models.Transaction
		if settlement.FineAmount.IsPositive() {
			entries = append(entries, models.Transaction{
				Date:            at,
				Type:            models.LabelOverdueFine,
				Description:     fmt.Sprintf("Returned %d days late", settlement.DaysLate),
				Amount:          settlement.FineAmount,
				TransactionType: models.TransactionTypeFine,
			})
		}
		if settlement.FeeAmount.IsPositive() {
			entries = append(entries, models.Transaction{
				Date:            at,
				Type:            models.LabelDamageFee,
				Description:     fmt.Sprintf("Returned with %s damage", *req.DamageLevel),
				Amount:          settlement.FeeAmount,
				TransactionType: models.TransactionTypeFine,
			})
		}

		return models.RentalClosure{
			ReturnDate:  at,
			DamageLevel: req.DamageLevel,
			Entries:     entries,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Rental returned",
		"rental_id", closed.ID,
		"days_late", settlement.DaysLate,
		"fine", settlement.FineAmount.String(),
		"fee", settlement.FeeAmount.String(),
		"refund", settlement.RefundToReader.String())

	return &models.ReturnResponse{
		RentalID:    closed.ID,
		Status:      closed.Status,
		ReturnDate:  *closed.ReturnDate,
		DamageLevel: closed.DamageLevel,
		DepositPaid: closed.DepositPaid,
		Settlement:  settlement,
	}, nil
}

// ListRentals lists rentals; overdue is judged against the clock at call time
func (s *RentalService) ListRentals(ctx context.Context, filter models.RentalFilter) ([]models.RentalResponse, error) {
	rentals, err := s.querier.ListRentals(ctx, models.RentalQuery{
		ActiveOnly: filter != models.RentalFilterAll,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	if filter == models.RentalFilterOverdue {
		overdue := rentals[:0]
		for _, r := range rentals {
			if r.IsOverdue(now) {
				overdue = append(overdue, r)
			}
		}
		rentals = overdue
	}
	return models.NewRentalResponses(rentals, now), nil
}
