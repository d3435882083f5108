package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
)

var bookColumns = []string{
	"id", "title", "author", "genre", "value_cents", "deposit_cents",
	"base_rental_cents", "total_copies", "available_copies", "created_at",
}

func scanBook(row scanner) (models.Book, error) {
	var (
		b                     models.Book
		value, deposit, daily int64
	)
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Genre, &value, &deposit,
		&daily, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt,
	)
	if err != nil {
		return models.Book{}, err
	}
	b.Value = money.FromCents(value)
	b.DepositCost = money.FromCents(deposit)
	b.BaseRentalCost = money.FromCents(daily)
	return b, nil
}

// CreateBook inserts a book and returns it with its id
func (s *Store) CreateBook(ctx context.Context, book models.Book) (models.Book, error) {
	cents, err := centsOf(book.Value, book.DepositCost, book.BaseRentalCost)
	if err != nil {
		return models.Book{}, err
	}

	query, args, err := qb.Insert("books").
		Columns("title", "author", "genre", "value_cents", "deposit_cents",
			"base_rental_cents", "total_copies", "available_copies", "created_at").
		Values(book.Title, book.Author, string(book.Genre), cents[0], cents[1],
			cents[2], book.TotalCopies, book.AvailableCopies, book.CreatedAt).
		Suffix("RETURNING " + joinList(bookColumns)).
		ToSql()
	if err != nil {
		return models.Book{}, err
	}

	created, err := scanBook(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Book{}, mapError(err, "book")
	}
	return created, nil
}

// GetBook loads one book
func (s *Store) GetBook(ctx context.Context, id int64) (models.Book, error) {
	query, args, err := qb.Select(bookColumns...).From("books").Where("id = ?", id).ToSql()
	if err != nil {
		return models.Book{}, err
	}

	b, err := scanBook(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Book{}, mapError(err, fmt.Sprintf("book %d", id))
	}
	return b, nil
}

// ListBooks returns books ordered by id
func (s *Store) ListBooks(ctx context.Context, availableOnly bool) ([]models.Book, error) {
	q := qb.Select(bookColumns...).From("books").OrderBy("id")
	if availableOnly {
		q = q.Where("available_copies > 0")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "books")
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, mapError(err, "books")
		}
		books = append(books, b)
	}
	return books, mapError(rows.Err(), "books")
}

// DeleteBook removes a book with no copy out. The row lock taken here is the
// same one ReserveCopy needs, so deletion and reservation cannot interleave.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	what := fmt.Sprintf("book %d", id)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var total, available int32
		err := tx.QueryRow(ctx,
			`SELECT total_copies, available_copies FROM books WHERE id = $1 FOR UPDATE`, id,
		).Scan(&total, &available)
		if err != nil {
			return mapError(err, what)
		}

		var active int64
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM rentals WHERE book_id = $1 AND status = 'ACTIVE'`, id,
		).Scan(&active)
		if err != nil {
			return mapError(err, what)
		}
		if active > 0 {
			return errs.Conflict("cannot delete book %d: active rentals exist", id)
		}
		if available != total {
			return errs.Conflict("cannot delete book %d: a rental is being issued", id)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
			return mapError(err, what)
		}
		return nil
	})
}

// ReserveCopy decrements the counter in a single conditional update
func (s *Store) ReserveCopy(ctx context.Context, id int64) error {
	what := fmt.Sprintf("book %d", id)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE books SET available_copies = available_copies - 1
			 WHERE id = $1 AND available_copies > 0`, id)
		if err != nil {
			return mapError(err, what)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		return mapError(missingOr(ctx, tx, id, errs.Unavailable("no copies of book %d are available", id)), what)
	})
}

// ReleaseCopy increments the counter, never past total_copies
func (s *Store) ReleaseCopy(ctx context.Context, id int64) error {
	what := fmt.Sprintf("book %d", id)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := releaseCopy(ctx, tx, id); err != nil {
			return mapError(err, what)
		}
		return nil
	})
}

func releaseCopy(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE books SET available_copies = available_copies + 1
		 WHERE id = $1 AND available_copies < total_copies`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return missingOr(ctx, tx, id, errs.Conflict("no copy of book %d is out", id))
}

// missingOr reports not found when the book row is gone, otherwise cause.
func missingOr(ctx context.Context, tx pgx.Tx, id int64, cause error) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return errs.NotFound("book %d not found", id)
	}
	return cause
}
