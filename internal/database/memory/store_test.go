package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBook(t *testing.T, s *Store, copies int32) models.Book {
	t.Helper()
	b, err := s.CreateBook(context.Background(), models.Book{
		Title:           "The Hobbit",
		Author:          "J.R.R. Tolkien",
		Genre:           models.GenreFantasy,
		Value:           money.MustParse("20.00"),
		DepositCost:     money.MustParse("10.00"),
		BaseRentalCost:  money.MustParse("1.00"),
		TotalCopies:     copies,
		AvailableCopies: copies,
	})
	require.NoError(t, err)
	return b
}

func seedReader(t *testing.T, s *Store) models.Reader {
	t.Helper()
	r, err := s.CreateReader(context.Background(), models.Reader{
		FullName: "Bilbo Baggins",
		Category: models.ReaderCategoryRegular,
	})
	require.NoError(t, err)
	return r
}

func activeRental(bookID, readerID int64) models.Rental {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Rental{
		BookID:             bookID,
		ReaderID:           readerID,
		IssueDate:          issued,
		RentalDays:         7,
		ExpectedReturnDate: issued.AddDate(0, 0, 7),
		DepositPaid:        money.MustParse("10.00"),
		RentalCost:         money.MustParse("7.00"),
		Status:             models.RentalStatusActive,
	}
}

func TestStore_ReserveAndReleaseCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Second)
	b := seedBook(t, s, 1)

	require.NoError(t, s.ReserveCopy(ctx, b.ID))
	err := s.ReserveCopy(ctx, b.ID)
	assert.ErrorIs(t, err, errs.ErrUnavailable)

	require.NoError(t, s.ReleaseCopy(ctx, b.ID))
	err = s.ReleaseCopy(ctx, b.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.AvailableCopies)

	assert.ErrorIs(t, s.ReserveCopy(ctx, 999), errs.ErrNotFound)
}

func TestStore_ConcurrentReservationsNeverOverbook(t *testing.T) {
	ctx := context.Background()
	s := NewStore(5 * time.Second)

	const copies = 3
	const callers = 40
	b := seedBook(t, s, copies)

	var ok, unavailable atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ReserveCopy(ctx, b.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, errs.ErrUnavailable):
				unavailable.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(copies), ok.Load())
	assert.Equal(t, int32(callers-copies), unavailable.Load())

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.AvailableCopies)
}

func TestStore_LockWaitIsBounded(t *testing.T) {
	ctx := context.Background()
	s := NewStore(20 * time.Millisecond)
	b := seedBook(t, s, 1)

	unlock, err := s.lockBook(ctx, b.ID)
	require.NoError(t, err)
	defer unlock()

	start := time.Now()
	err = s.ReserveCopy(ctx, b.ID)
	assert.ErrorIs(t, err, errs.ErrBusy)
	assert.Less(t, time.Since(start), time.Second)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = s.ReserveCopy(cancelled, b.ID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_DeleteBookGuard(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Second)
	b := seedBook(t, s, 2)
	r := seedReader(t, s)

	require.NoError(t, s.ReserveCopy(ctx, b.ID))
	err := s.DeleteBook(ctx, b.ID)
	assert.ErrorIs(t, err, errs.ErrConflict, "a reserved copy blocks deletion")

	rental, err := s.CreateRental(ctx, activeRental(b.ID, r.ID), nil)
	require.NoError(t, err)

	err = s.DeleteBook(ctx, b.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Contains(t, err.Error(), "active rentals exist")

	err = s.DeleteReader(ctx, r.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = s.CloseRental(ctx, rental.ID, func(models.Rental) (models.RentalClosure, error) {
		return models.RentalClosure{ReturnDate: time.Now()}, nil
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBook(ctx, b.ID))
	require.NoError(t, s.DeleteReader(ctx, r.ID))

	_, err = s.GetBook(ctx, b.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, s.DeleteBook(ctx, b.ID), errs.ErrNotFound)
	assert.ErrorIs(t, s.DeleteReader(ctx, r.ID), errs.ErrNotFound)

	// history of the deleted book stays readable
	kept, err := s.GetRental(ctx, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusReturned, kept.Status)
}

func TestStore_CreateRentalWritesEntries(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Second)
	b := seedBook(t, s, 1)
	r := seedReader(t, s)

	require.NoError(t, s.ReserveCopy(ctx, b.ID))
	rental, err := s.CreateRental(ctx, activeRental(b.ID, r.ID), []models.Transaction{
		{Type: models.LabelDeposit, Amount: money.MustParse("10.00"), TransactionType: models.TransactionTypeDeposit},
		{Type: models.LabelRentalFee, Amount: money.MustParse("7.00"), TransactionType: models.TransactionTypeIncome},
	})
	require.NoError(t, err)
	assert.NotZero(t, rental.ID)

	snap, err := s.LedgerSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, rental.ID, snap.Transactions[0].RentalID)
	assert.Less(t, snap.Transactions[0].ID, snap.Transactions[1].ID)
	assert.Equal(t, int64(1), snap.ActiveRentals)
	assert.Equal(t, int64(1), snap.TotalRentals)

	_, err = s.CreateRental(ctx, activeRental(b.ID, 404), nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_CloseRental(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Second)
	b := seedBook(t, s, 1)
	r := seedReader(t, s)

	require.NoError(t, s.ReserveCopy(ctx, b.ID))
	rental, err := s.CreateRental(ctx, activeRental(b.ID, r.ID), nil)
	require.NoError(t, err)

	t.Run("failing closure changes nothing", func(t *testing.T) {
		_, err := s.CloseRental(ctx, rental.ID, func(models.Rental) (models.RentalClosure, error) {
			return models.RentalClosure{}, errs.Validation("nope")
		})
		assert.ErrorIs(t, err, errs.ErrValidation)

		got, err := s.GetRental(ctx, rental.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RentalStatusActive, got.Status)
		book, err := s.GetBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(0), book.AvailableCopies)
	})

	t.Run("close once", func(t *testing.T) {
		level := models.DamageMinor
		returned := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		closed, err := s.CloseRental(ctx, rental.ID, func(models.Rental) (models.RentalClosure, error) {
			return models.RentalClosure{
				ReturnDate:  returned,
				DamageLevel: &level,
				Entries: []models.Transaction{
					{Type: models.LabelDamageFee, Amount: money.MustParse("2.00"), TransactionType: models.TransactionTypeFine},
				},
			}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.RentalStatusReturned, closed.Status)
		assert.Equal(t, returned, *closed.ReturnDate)
		assert.Equal(t, models.DamageMinor, *closed.DamageLevel)

		book, err := s.GetBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(1), book.AvailableCopies)

		snap, err := s.LedgerSnapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Transactions, 1)
		assert.Equal(t, int64(0), snap.ActiveRentals)
	})

	t.Run("second close conflicts", func(t *testing.T) {
		_, err := s.CloseRental(ctx, rental.ID, func(models.Rental) (models.RentalClosure, error) {
			t.Fatal("closure must not run for a returned rental")
			return models.RentalClosure{}, nil
		})
		assert.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("unknown rental", func(t *testing.T) {
		_, err := s.CloseRental(ctx, 404, nil)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestStore_Listings(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Second)
	first := seedBook(t, s, 1)
	second := seedBook(t, s, 2)
	reader := seedReader(t, s)
	other := seedReader(t, s)

	require.NoError(t, s.ReserveCopy(ctx, first.ID))
	_, err := s.CreateRental(ctx, activeRental(first.ID, reader.ID), nil)
	require.NoError(t, err)
	require.NoError(t, s.ReserveCopy(ctx, second.ID))
	_, err = s.CreateRental(ctx, activeRental(second.ID, other.ID), nil)
	require.NoError(t, err)

	all, err := s.ListBooks(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	available, err := s.ListBooks(ctx, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, second.ID, available[0].ID)

	mine, err := s.ListRentals(ctx, models.RentalQuery{ReaderID: reader.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].BookID)

	readers, err := s.ListReaders(ctx)
	require.NoError(t, err)
	assert.Len(t, readers, 2)
}

func TestStore_IssuedSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewStore(time.Second)
	hobbit := seedBook(t, s, 1)
	other := seedBook(t, s, 1)
	r := seedReader(t, s)

	require.NoError(t, s.ReserveCopy(ctx, hobbit.ID))
	kept, err := s.CreateRental(ctx, activeRental(hobbit.ID, r.ID), nil)
	require.NoError(t, err)
	require.NoError(t, s.ReserveCopy(ctx, other.ID))
	closed, err := s.CreateRental(ctx, activeRental(other.ID, r.ID), nil)
	require.NoError(t, err)
	_, err = s.CloseRental(ctx, closed.ID, func(models.Rental) (models.RentalClosure, error) {
		return models.RentalClosure{ReturnDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)}, nil
	})
	require.NoError(t, err)

	issued, err := s.IssuedSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, issued, 1)
	assert.Equal(t, kept.ID, issued[0].Rental.ID)
	assert.Equal(t, hobbit.ID, issued[0].Book.ID)
	assert.Equal(t, "The Hobbit", issued[0].Book.Title)
	assert.Equal(t, "Bilbo Baggins", issued[0].Reader.FullName)

	snap, err := s.LedgerSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ActiveRentals, int64(len(issued)))
}
