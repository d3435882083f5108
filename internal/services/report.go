package services

import (
	"context"
	"time"

	"github.com/ngenohkevin/bookrent/internal/models"
)

// ReportQuerier interface defines the storage reads needed for reports
type ReportQuerier interface {
	ListBooks(ctx context.Context, availableOnly bool) ([]models.Book, error)
	IssuedSnapshot(ctx context.Context) ([]models.IssuedRental, error)
}

// ReportServiceInterface defines the interface for report service operations
type ReportServiceInterface interface {
	AvailableBooks(ctx context.Context) (*models.AvailableBooksReport, error)
	IssuedBooks(ctx context.Context) (*models.IssuedBooksReport, error)
}

// ReportService builds the inventory and circulation reports
type ReportService struct {
	db  ReportQuerier
	now func() time.Time
}

// NewReportService creates a new report service instance
func NewReportService(db ReportQuerier) *ReportService {
	return &ReportService{
		db:  db,
		now: time.Now,
	}
}

// AvailableBooks lists every title with at least one copy on the shelf
func (rs *ReportService) AvailableBooks(ctx context.Context) (*models.AvailableBooksReport, error) {
	books, err := rs.db.ListBooks(ctx, true)
	if err != nil {
		return nil, err
	}

	report := &models.AvailableBooksReport{
		Books:       make([]models.AvailableBookEntry, 0, len(books)),
		GeneratedAt: rs.now().UTC(),
	}
	for _, b := range books {
		report.Books = append(report.Books, models.AvailableBookEntry{
			ID:              b.ID,
			Title:           b.Title,
			Author:          b.Author,
			Genre:           b.Genre,
			AvailableCopies: b.AvailableCopies,
			TotalCopies:     b.TotalCopies,
		})
	}
	report.TotalAvailable = len(report.Books)
	return report, nil
}

// IssuedBooks lists the copies currently out, each joined with its book and
// reader as of a single snapshot.
func (rs *ReportService) IssuedBooks(ctx context.Context) (*models.IssuedBooksReport, error) {
	issued, err := rs.db.IssuedSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := rs.now()
	report := &models.IssuedBooksReport{
		Rentals:     make([]models.IssuedBookEntry, 0, len(issued)),
		GeneratedAt: now.UTC(),
	}
	for i := range issued {
		r, book, reader := &issued[i].Rental, &issued[i].Book, &issued[i].Reader

		entry := models.IssuedBookEntry{
			RentalID:           r.ID,
			BookTitle:          book.Title,
			BookAuthor:         book.Author,
			ReaderName:         reader.FullName,
			IssueDate:          r.IssueDate,
			ExpectedReturnDate: r.ExpectedReturnDate,
			IsOverdue:          r.IsOverdue(now),
			DaysOverdue:        r.DaysOverdue(now),
		}
		if entry.IsOverdue {
			report.TotalOverdue++
		}
		report.Rentals = append(report.Rentals, entry)
	}
	report.TotalIssued = len(report.Rentals)
	return report, nil
}
