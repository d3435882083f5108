// Package memory is an in-process implementation of the rental store. It is
// used for development, for tests and when no database is configured.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
	"golang.org/x/sync/semaphore"
)

// DefaultLockWait is used when NewStore is given a non-positive wait.
const DefaultLockWait = 250 * time.Millisecond

// Store keeps every record in maps guarded by one RWMutex. Operations that
// change a book's copy counter additionally hold that book's semaphore, which
// is acquired with a bounded wait.
type Store struct {
	lockWait time.Duration

	mu      sync.RWMutex
	books   map[int64]*models.Book
	readers map[int64]*models.Reader
	rentals map[int64]*models.Rental
	ledger  []models.Transaction

	nextBookID   int64
	nextReaderID int64
	nextRentalID int64
	nextEntryID  int64

	locksMu   sync.Mutex
	bookLocks map[int64]*semaphore.Weighted
}

// NewStore creates an empty store
func NewStore(lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &Store{
		lockWait:  lockWait,
		books:     make(map[int64]*models.Book),
		readers:   make(map[int64]*models.Reader),
		rentals:   make(map[int64]*models.Rental),
		bookLocks: make(map[int64]*semaphore.Weighted),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) bookSemaphore(id int64) *semaphore.Weighted {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	sem, ok := s.bookLocks[id]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.bookLocks[id] = sem
	}
	return sem
}

// lockBook serializes work on one book's counter. It gives up with a busy
// error once lockWait has elapsed.
func (s *Store) lockBook(ctx context.Context, id int64) (func(), error) {
	sem := s.bookSemaphore(id)

	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	if err := sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Busy("book %d is locked by another operation", id)
	}
	return func() { sem.Release(1) }, nil
}

// CreateBook stores a new book and assigns its id
func (s *Store) CreateBook(_ context.Context, book models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBookID++
	book.ID = s.nextBookID
	stored := book
	s.books[book.ID] = &stored
	return book, nil
}

// GetBook returns a copy of the book
func (s *Store) GetBook(_ context.Context, id int64) (models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return models.Book{}, errs.NotFound("book %d not found", id)
	}
	return *b, nil
}

// ListBooks returns books ordered by id
func (s *Store) ListBooks(_ context.Context, availableOnly bool) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		if availableOnly && b.AvailableCopies == 0 {
			continue
		}
		books = append(books, *b)
	}
	slices.SortFunc(books, func(a, b models.Book) int { return cmp.Compare(a.ID, b.ID) })
	return books, nil
}

// DeleteBook removes a book that has no copy out
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	unlock, err := s.lockBook(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return errs.NotFound("book %d not found", id)
	}
	if s.countActive(func(r *models.Rental) bool { return r.BookID == id }) > 0 {
		return errs.Conflict("cannot delete book %d: active rentals exist", id)
	}
	if b.AvailableCopies != b.TotalCopies {
		return errs.Conflict("cannot delete book %d: a rental is being issued", id)
	}

	delete(s.books, id)
	s.locksMu.Lock()
	delete(s.bookLocks, id)
	s.locksMu.Unlock()
	return nil
}

// ReserveCopy takes one copy off the shelf
func (s *Store) ReserveCopy(ctx context.Context, id int64) error {
	unlock, err := s.lockBook(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return errs.NotFound("book %d not found", id)
	}
	if b.AvailableCopies == 0 {
		return errs.Unavailable("no copies of book %d are available", id)
	}
	b.AvailableCopies--
	return nil
}

// ReleaseCopy puts one copy back on the shelf
func (s *Store) ReleaseCopy(ctx context.Context, id int64) error {
	unlock, err := s.lockBook(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return errs.NotFound("book %d not found", id)
	}
	if b.AvailableCopies >= b.TotalCopies {
		return errs.Conflict("no copy of book %d is out", id)
	}
	b.AvailableCopies++
	return nil
}

// CreateReader stores a new reader and assigns its id
func (s *Store) CreateReader(_ context.Context, reader models.Reader) (models.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReaderID++
	reader.ID = s.nextReaderID
	stored := reader
	s.readers[reader.ID] = &stored
	return reader, nil
}

// GetReader returns a copy of the reader
func (s *Store) GetReader(_ context.Context, id int64) (models.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.readers[id]
	if !ok {
		return models.Reader{}, errs.NotFound("reader %d not found", id)
	}
	return *r, nil
}

// ListReaders returns readers ordered by id
func (s *Store) ListReaders(context.Context) ([]models.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readers := make([]models.Reader, 0, len(s.readers))
	for _, r := range s.readers {
		readers = append(readers, *r)
	}
	slices.SortFunc(readers, func(a, b models.Reader) int { return cmp.Compare(a.ID, b.ID) })
	return readers, nil
}

// DeleteReader removes a reader with no active rental
func (s *Store) DeleteReader(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.readers[id]; !ok {
		return errs.NotFound("reader %d not found", id)
	}
	if s.countActive(func(r *models.Rental) bool { return r.ReaderID == id }) > 0 {
		return errs.Conflict("cannot delete reader %d: active rentals exist", id)
	}
	delete(s.readers, id)
	return nil
}

// CreateRental stores an active rental and its ledger entries as one unit.
// The copy must already be reserved.
func (s *Store) CreateRental(_ context.Context, rental models.Rental, entries []models.Transaction) (models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.readers[rental.ReaderID]; !ok {
		return models.Rental{}, errs.NotFound("reader %d not found", rental.ReaderID)
	}
	if _, ok := s.books[rental.BookID]; !ok {
		return models.Rental{}, errs.NotFound("book %d not found", rental.BookID)
	}

	s.nextRentalID++
	rental.ID = s.nextRentalID
	stored := rental
	s.rentals[rental.ID] = &stored

	for _, e := range entries {
		s.appendEntry(rental.ID, e)
	}
	return rental, nil
}

// GetRental returns a copy of the rental
func (s *Store) GetRental(_ context.Context, id int64) (models.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rentals[id]
	if !ok {
		return models.Rental{}, errs.NotFound("rental %d not found", id)
	}
	return *r, nil
}

// ListRentals returns rentals ordered by id
func (s *Store) ListRentals(_ context.Context, q models.RentalQuery) ([]models.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rentals := make([]models.Rental, 0, len(s.rentals))
	for _, r := range s.rentals {
		if q.ActiveOnly && r.Status != models.RentalStatusActive {
			continue
		}
		if q.ReaderID != 0 && r.ReaderID != q.ReaderID {
			continue
		}
		rentals = append(rentals, *r)
	}
	slices.SortFunc(rentals, func(a, b models.Rental) int { return cmp.Compare(a.ID, b.ID) })
	return rentals, nil
}

// CloseRental returns the copy, closes the rental and appends the entries
// decided by fn, all under the book lock. Nothing changes if fn fails.
func (s *Store) CloseRental(ctx context.Context, id int64, fn models.CloseFunc) (models.Rental, error) {
	s.mu.RLock()
	r, ok := s.rentals[id]
	var bookID int64
	if ok {
		bookID = r.BookID
	}
	s.mu.RUnlock()
	if !ok {
		return models.Rental{}, errs.NotFound("rental %d not found", id)
	}

	unlock, err := s.lockBook(ctx, bookID)
	if err != nil {
		return models.Rental{}, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Status != models.RentalStatusActive {
		return models.Rental{}, errs.Conflict("rental %d already returned", id)
	}
	b, ok := s.books[bookID]
	if !ok {
		return models.Rental{}, errs.NotFound("book %d not found", bookID)
	}
	if b.AvailableCopies >= b.TotalCopies {
		return models.Rental{}, errs.Conflict("no copy of book %d is out", bookID)
	}

	closure, err := fn(*r)
	if err != nil {
		return models.Rental{}, err
	}

	b.AvailableCopies++
	returned := closure.ReturnDate
	r.ReturnDate = &returned
	r.DamageLevel = closure.DamageLevel
	r.Status = models.RentalStatusReturned
	for _, e := range closure.Entries {
		s.appendEntry(id, e)
	}
	return *r, nil
}

// LedgerSnapshot reads the ledger and the rental counts under one lock
func (s *Store) LedgerSnapshot(context.Context) (models.LedgerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.LedgerSnapshot{
		Transactions:  slices.Clone(s.ledger),
		ActiveRentals: int64(s.countActive(func(*models.Rental) bool { return true })),
		TotalRentals:  int64(len(s.rentals)),
	}, nil
}

// IssuedSnapshot joins every active rental with its book and reader under
// one read lock, ordered by rental id.
func (s *Store) IssuedSnapshot(context.Context) ([]models.IssuedRental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issued := make([]models.IssuedRental, 0)
	for _, r := range s.rentals {
		if r.Status != models.RentalStatusActive {
			continue
		}
		book, okBook := s.books[r.BookID]
		reader, okReader := s.readers[r.ReaderID]
		if !okBook || !okReader {
			continue
		}
		issued = append(issued, models.IssuedRental{Rental: *r, Book: *book, Reader: *reader})
	}
	slices.SortFunc(issued, func(a, b models.IssuedRental) int { return cmp.Compare(a.Rental.ID, b.Rental.ID) })
	return issued, nil
}

// appendEntry must be called with mu held for writing.
func (s *Store) appendEntry(rentalID int64, e models.Transaction) {
	s.nextEntryID++
	e.ID = s.nextEntryID
	e.RentalID = rentalID
	s.ledger = append(s.ledger, e)
}

// countActive must be called with mu held.
func (s *Store) countActive(match func(*models.Rental) bool) int {
	n := 0
	for _, r := range s.rentals {
		if r.Status == models.RentalStatusActive && match(r) {
			n++
		}
	}
	return n
}
