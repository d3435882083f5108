package models

import "time"

// AvailableBooksReport lists the titles that have at least one free copy
type AvailableBooksReport struct {
	TotalAvailable int                  `json:"total_available"`
	Books          []AvailableBookEntry `json:"books"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// AvailableBookEntry is one row of the available books report
type AvailableBookEntry struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Genre           Genre  `json:"genre"`
	AvailableCopies int32  `json:"available_copies"`
	TotalCopies     int32  `json:"total_copies"`
}

// IssuedBooksReport lists the copies currently out with their overdue state
type IssuedBooksReport struct {
	TotalIssued  int               `json:"total_issued"`
	TotalOverdue int               `json:"total_overdue"`
	Rentals      []IssuedBookEntry `json:"rentals"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// IssuedBookEntry is one row of the issued books report
type IssuedBookEntry struct {
	RentalID           int64     `json:"rental_id"`
	BookTitle          string    `json:"book_title"`
	BookAuthor         string    `json:"book_author"`
	ReaderName         string    `json:"reader_name"`
	IssueDate          time.Time `json:"issue_date"`
	ExpectedReturnDate time.Time `json:"expected_return_date"`
	IsOverdue          bool      `json:"is_overdue"`
	DaysOverdue        int       `json:"days_overdue"`
}

// IssuedRental is an active rental joined with its book and reader, read
// from one consistent view of the store
type IssuedRental struct {
	Rental Rental
	Book   Book
	Reader Reader
}
