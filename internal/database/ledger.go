package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
)

func insertEntries(ctx context.Context, tx pgx.Tx, rentalID int64, entries []models.Transaction) error {
	if len(entries) == 0 {
		return nil
	}

	ins := qb.Insert("transactions").
		Columns("rental_id", "date", "type", "description", "amount_cents", "transaction_type")
	for _, e := range entries {
		cents, err := centsOf(e.Amount)
		if err != nil {
			return err
		}
		ins = ins.Values(rentalID, e.Date, e.Type, e.Description, cents[0], string(e.TransactionType))
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return mapError(err, "transaction")
	}
	return nil
}

// LedgerSnapshot reads every ledger entry and the rental counts inside one
// repeatable-read transaction.
func (s *Store) LedgerSnapshot(ctx context.Context) (models.LedgerSnapshot, error) {
	var snap models.LedgerSnapshot
	err := s.inSnapshot(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, rental_id, date, type, description, amount_cents, transaction_type
			FROM transactions
			ORDER BY id`)
		if err != nil {
			return mapError(err, "transactions")
		}
		defer rows.Close()

		snap.Transactions = make([]models.Transaction, 0)
		for rows.Next() {
			var (
				t      models.Transaction
				amount int64
				kind   string
			)
			if err := rows.Scan(&t.ID, &t.RentalID, &t.Date, &t.Type, &t.Description, &amount, &kind); err != nil {
				return mapError(err, "transactions")
			}
			t.Amount = money.FromCents(amount)
			t.TransactionType = models.TransactionType(kind)
			snap.Transactions = append(snap.Transactions, t)
		}
		if err := rows.Err(); err != nil {
			return mapError(err, "transactions")
		}

		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FILTER (WHERE status = 'ACTIVE'), COUNT(*)
			FROM rentals`,
		).Scan(&snap.ActiveRentals, &snap.TotalRentals)
		return mapError(err, "rentals")
	})
	if err != nil {
		return models.LedgerSnapshot{}, err
	}
	return snap, nil
}

func joinList(cols []string) string {
	return strings.Join(cols, ", ")
}
