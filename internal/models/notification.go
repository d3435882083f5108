package models

import "time"

// OverdueNotice is a reminder queued for a reader holding an overdue copy
type OverdueNotice struct {
	ID                 string    `json:"id"`
	RentalID           int64     `json:"rental_id"`
	ReaderID           int64     `json:"reader_id"`
	ReaderName         string    `json:"reader_name"`
	Telephone          string    `json:"telephone"`
	BookID             int64     `json:"book_id"`
	BookTitle          string    `json:"book_title"`
	ExpectedReturnDate time.Time `json:"expected_return_date"`
	DaysOverdue        int       `json:"days_overdue"`
	CreatedAt          time.Time `json:"created_at"`
	RetryCount         int       `json:"retry_count"`
	MaxRetries         int       `json:"max_retries"`
}

// NotifierStats reports the depth of the overdue notice queues
type NotifierStats struct {
	Pending    int64 `json:"pending"`
	Dead       int64 `json:"dead"`
	Dispatched int64 `json:"dispatched"`
}
