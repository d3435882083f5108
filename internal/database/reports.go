package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/ngenohkevin/bookrent/internal/models"
)

// IssuedSnapshot reads the active rentals together with their books and
// readers inside one repeatable-read transaction.
func (s *Store) IssuedSnapshot(ctx context.Context) ([]models.IssuedRental, error) {
	var issued []models.IssuedRental
	err := s.inSnapshot(ctx, func(tx pgx.Tx) error {
		rentalsSQL, rentalArgs, err := qb.Select(rentalColumns...).From("rentals").
			Where("status = ?", string(models.RentalStatusActive)).OrderBy("id").ToSql()
		if err != nil {
			return err
		}
		rentals, err := collect(ctx, tx, "rentals", scanRental, rentalsSQL, rentalArgs...)
		if err != nil {
			return err
		}

		books, err := collect(ctx, tx, "books", scanBook, `
			SELECT `+joinList(bookColumns)+` FROM books
			WHERE id IN (SELECT book_id FROM rentals WHERE status = 'ACTIVE')`)
		if err != nil {
			return err
		}

		readers, err := collect(ctx, tx, "readers", scanReader, `
			SELECT `+readerColumns+` FROM readers
			WHERE id IN (SELECT reader_id FROM rentals WHERE status = 'ACTIVE')`)
		if err != nil {
			return err
		}

		bookByID := make(map[int64]models.Book, len(books))
		for _, b := range books {
			bookByID[b.ID] = b
		}
		readerByID := make(map[int64]models.Reader, len(readers))
		for _, r := range readers {
			readerByID[r.ID] = r
		}

		issued = make([]models.IssuedRental, 0, len(rentals))
		for _, r := range rentals {
			book, okBook := bookByID[r.BookID]
			reader, okReader := readerByID[r.ReaderID]
			if !okBook || !okReader {
				continue
			}
			issued = append(issued, models.IssuedRental{Rental: r, Book: book, Reader: reader})
		}
		return nil
	})
	return issued, err
}

func collect[T any](ctx context.Context, tx pgx.Tx, what string, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, what)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
	return out, mapError(err, what)
}
