package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
)

var rentalColumns = []string{
	"id", "book_id", "reader_id", "issue_date", "rental_days", "expected_return_date",
	"return_date", "deposit_paid_cents", "rental_cost_cents", "damage_level", "status",
}

func scanRental(row scanner) (models.Rental, error) {
	var (
		r             models.Rental
		returnDate    *time.Time
		deposit, cost int64
		damage        *string
		status        string
	)
	err := row.Scan(
		&r.ID, &r.BookID, &r.ReaderID, &r.IssueDate, &r.RentalDays, &r.ExpectedReturnDate,
		&returnDate, &deposit, &cost, &damage, &status,
	)
	if err != nil {
		return models.Rental{}, err
	}
	r.ReturnDate = returnDate
	r.DepositPaid = money.FromCents(deposit)
	r.RentalCost = money.FromCents(cost)
	if damage != nil {
		level := models.DamageLevel(*damage)
		r.DamageLevel = &level
	}
	r.Status = models.RentalStatus(status)
	return r, nil
}

// CreateRental inserts an active rental and its ledger entries in one
// transaction. The copy must already be reserved; the reader and book rows
// are key-share locked so neither can be deleted underneath the insert.
func (s *Store) CreateRental(ctx context.Context, rental models.Rental, entries []models.Transaction) (models.Rental, error) {
	cents, err := centsOf(rental.DepositPaid, rental.RentalCost)
	if err != nil {
		return models.Rental{}, err
	}

	var created models.Rental
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM readers WHERE id = $1 FOR KEY SHARE`, rental.ReaderID).Scan(&id)
		if err != nil {
			return mapError(err, fmt.Sprintf("reader %d", rental.ReaderID))
		}
		err = tx.QueryRow(ctx, `SELECT id FROM books WHERE id = $1 FOR KEY SHARE`, rental.BookID).Scan(&id)
		if err != nil {
			return mapError(err, fmt.Sprintf("book %d", rental.BookID))
		}

		query, args, err := qb.Insert("rentals").
			Columns("book_id", "reader_id", "issue_date", "rental_days", "expected_return_date",
				"deposit_paid_cents", "rental_cost_cents", "status").
			Values(rental.BookID, rental.ReaderID, rental.IssueDate, rental.RentalDays, rental.ExpectedReturnDate,
				cents[0], cents[1], string(models.RentalStatusActive)).
			Suffix("RETURNING " + joinList(rentalColumns)).
			ToSql()
		if err != nil {
			return err
		}

		created, err = scanRental(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return mapError(err, "rental")
		}

		return insertEntries(ctx, tx, created.ID, entries)
	})
	if err != nil {
		return models.Rental{}, err
	}
	return created, nil
}

// GetRental loads one rental
func (s *Store) GetRental(ctx context.Context, id int64) (models.Rental, error) {
	query, args, err := qb.Select(rentalColumns...).From("rentals").Where("id = ?", id).ToSql()
	if err != nil {
		return models.Rental{}, err
	}

	r, err := scanRental(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Rental{}, mapError(err, fmt.Sprintf("rental %d", id))
	}
	return r, nil
}

// ListRentals returns rentals ordered by id
func (s *Store) ListRentals(ctx context.Context, q models.RentalQuery) ([]models.Rental, error) {
	sel := qb.Select(rentalColumns...).From("rentals").OrderBy("id")
	if q.ActiveOnly {
		sel = sel.Where("status = ?", string(models.RentalStatusActive))
	}
	if q.ReaderID != 0 {
		sel = sel.Where("reader_id = ?", q.ReaderID)
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "rentals")
	}
	defer rows.Close()

	rentals := make([]models.Rental, 0)
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, mapError(err, "rentals")
		}
		rentals = append(rentals, r)
	}
	return rentals, mapError(rows.Err(), "rentals")
}

// CloseRental locks the rental, lets fn decide the closure, then returns the
// copy, marks the rental returned and appends the entries in the same
// transaction.
func (s *Store) CloseRental(ctx context.Context, id int64, fn models.CloseFunc) (models.Rental, error) {
	what := fmt.Sprintf("rental %d", id)
	var closed models.Rental
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		query, args, err := qb.Select(rentalColumns...).From("rentals").Where("id = ?", id).Suffix("FOR UPDATE").ToSql()
		if err != nil {
			return err
		}
		r, err := scanRental(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return mapError(err, what)
		}
		if r.Status != models.RentalStatusActive {
			return errs.Conflict("rental %d already returned", id)
		}

		closure, err := fn(r)
		if err != nil {
			return err
		}

		if err := releaseCopy(ctx, tx, r.BookID); err != nil {
			return mapError(err, fmt.Sprintf("book %d", r.BookID))
		}

		var damage *string
		if closure.DamageLevel != nil {
			level := string(*closure.DamageLevel)
			damage = &level
		}
		update, args, err := qb.Update("rentals").
			Set("status", string(models.RentalStatusReturned)).
			Set("return_date", closure.ReturnDate).
			Set("damage_level", damage).
			Where("id = ?", id).
			Suffix("RETURNING " + joinList(rentalColumns)).
			ToSql()
		if err != nil {
			return err
		}
		closed, err = scanRental(tx.QueryRow(ctx, update, args...))
		if err != nil {
			return mapError(err, what)
		}

		return insertEntries(ctx, tx, id, closure.Entries)
	})
	if err != nil {
		return models.Rental{}, err
	}
	return closed, nil
}
