package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ngenohkevin/bookrent/internal/database/memory"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/money"
	"github.com/ngenohkevin/bookrent/internal/pricing"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() *pricing.Policy {
	return pricing.MustPolicy(pricing.DefaultTable())
}

func int32Ptr(v int32) *int32 {
	return &v
}

func damagePtr(d models.DamageLevel) *models.DamageLevel {
	return &d
}

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// testEnv wires every service to one in-memory store and a movable clock
type testEnv struct {
	store   *memory.Store
	books   *BookService
	readers *ReaderService
	rentals *RentalService
	ledger  *LedgerService
	reports *ReportService
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore(time.Second)
	env := &testEnv{
		store:   store,
		books:   NewBookService(store, testPolicy(), testLogger()),
		readers: NewReaderService(store, testLogger()),
		rentals: NewRentalService(store, testPolicy(), 14, testLogger()),
		ledger:  NewLedgerService(store),
		reports: NewReportService(store),
		now:     baseTime,
	}
	clock := func() time.Time { return env.now }
	env.books.now = clock
	env.readers.now = clock
	env.rentals.now = clock
	env.reports.now = clock
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) addBook(t *testing.T, value string, copies int32) *models.BookResponse {
	t.Helper()
	b, err := e.books.CreateBook(context.Background(), models.CreateBookRequest{
		Title:  "The Name of the Rose",
		Author: "Umberto Eco",
		Genre:  models.GenreMystery,
		Value:  money.MustParse(value),
		Copies: copies,
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) addReader(t *testing.T, category models.ReaderCategory) *models.Reader {
	t.Helper()
	r, err := e.readers.CreateReader(context.Background(), models.CreateReaderRequest{
		FullName:  "Adso of Melk",
		Telephone: "555-0199",
		Category:  category,
	})
	require.NoError(t, err)
	return r
}

func (e *testEnv) rent(t *testing.T, bookID, readerID int64, days int32) *models.RentalResponse {
	t.Helper()
	r, err := e.rentals.CreateRental(context.Background(), models.CreateRentalRequest{
		BookID:     bookID,
		ReaderID:   readerID,
		RentalDays: int32Ptr(days),
	})
	require.NoError(t, err)
	return r
}
