package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
)

const readerColumns = "id, full_name, address, telephone, category, created_at"

func scanReader(row scanner) (models.Reader, error) {
	var r models.Reader
	var category string
	if err := row.Scan(&r.ID, &r.FullName, &r.Address, &r.Telephone, &category, &r.CreatedAt); err != nil {
		return models.Reader{}, err
	}
	r.Category = models.ReaderCategory(category)
	return r, nil
}

// CreateReader inserts a reader and returns it with its id
func (s *Store) CreateReader(ctx context.Context, reader models.Reader) (models.Reader, error) {
	const q = `
		INSERT INTO readers (full_name, address, telephone, category, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + readerColumns

	created, err := scanReader(s.pool.QueryRow(ctx, q,
		reader.FullName, reader.Address, reader.Telephone, string(reader.Category), reader.CreatedAt))
	if err != nil {
		return models.Reader{}, mapError(err, "reader")
	}
	return created, nil
}

// GetReader loads one reader
func (s *Store) GetReader(ctx context.Context, id int64) (models.Reader, error) {
	const q = `SELECT ` + readerColumns + ` FROM readers WHERE id = $1`

	r, err := scanReader(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return models.Reader{}, mapError(err, fmt.Sprintf("reader %d", id))
	}
	return r, nil
}

// ListReaders returns readers ordered by id
func (s *Store) ListReaders(ctx context.Context) ([]models.Reader, error) {
	const q = `SELECT ` + readerColumns + ` FROM readers ORDER BY id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError(err, "readers")
	}
	defer rows.Close()

	readers := make([]models.Reader, 0)
	for rows.Next() {
		r, err := scanReader(rows)
		if err != nil {
			return nil, mapError(err, "readers")
		}
		readers = append(readers, r)
	}
	return readers, mapError(rows.Err(), "readers")
}

// DeleteReader removes a reader with no active rental
func (s *Store) DeleteReader(ctx context.Context, id int64) error {
	what := fmt.Sprintf("reader %d", id)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM readers WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			return mapError(err, what)
		}

		var active int64
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM rentals WHERE reader_id = $1 AND status = 'ACTIVE'`, id,
		).Scan(&active)
		if err != nil {
			return mapError(err, what)
		}
		if active > 0 {
			return errs.Conflict("cannot delete reader %d: active rentals exist", id)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM readers WHERE id = $1`, id); err != nil {
			return mapError(err, what)
		}
		return nil
	})
}
