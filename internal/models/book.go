package models

import (
	"strings"
	"time"

	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/money"
)

// Genre is the closed set of shelf genres a book can belong to
type Genre string

const (
	GenreFiction    Genre = "Fiction"
	GenreNonFiction Genre = "Non-Fiction"
	GenreScience    Genre = "Science"
	GenreHistory    Genre = "History"
	GenreBiography  Genre = "Biography"
	GenreMystery    Genre = "Mystery"
	GenreRomance    Genre = "Romance"
	GenreFantasy    Genre = "Fantasy"
)

// Genres lists every accepted genre in display order
var Genres = []Genre{
	GenreFiction, GenreNonFiction, GenreScience, GenreHistory,
	GenreBiography, GenreMystery, GenreRomance, GenreFantasy,
}

// IsValid checks if the genre is one of the known genres
func (g Genre) IsValid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// BookTier selects the row of the pricing table used to derive a book's
// deposit and daily rate from its value
type BookTier string

const (
	BookTierStandard BookTier = "standard"
	BookTierPremium  BookTier = "premium"
)

// IsValid checks if the tier is known
func (t BookTier) IsValid() bool {
	return t == BookTierStandard || t == BookTierPremium
}

// Book represents a title held by the rental desk and its copy counters
type Book struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	Genre           Genre       `json:"genre"`
	Value           money.Money `json:"value"`
	DepositCost     money.Money `json:"deposit_cost"`
	BaseRentalCost  money.Money `json:"base_rental_cost"`
	TotalCopies     int32       `json:"total_copies"`
	AvailableCopies int32       `json:"available_copies"`
	CreatedAt       time.Time   `json:"created_at"`
}

// IsAvailable reports whether at least one copy can be rented right now
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// BookResponse is the public view of a book
type BookResponse struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	Genre           Genre       `json:"genre"`
	Value           money.Money `json:"value"`
	DepositCost     money.Money `json:"deposit_cost"`
	BaseRentalCost  money.Money `json:"base_rental_cost"`
	TotalCopies     int32       `json:"total_copies"`
	AvailableCopies int32       `json:"available_copies"`
	IsAvailable     bool        `json:"is_available"`
}

// NewBookResponse builds the view of a book; is_available is derived here
// and never stored.
func NewBookResponse(b *Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		Value:           b.Value,
		DepositCost:     b.DepositCost,
		BaseRentalCost:  b.BaseRentalCost,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		IsAvailable:     b.IsAvailable(),
	}
}

// NewBookResponses converts a slice of books
func NewBookResponses(books []Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, NewBookResponse(&books[i]))
	}
	return out
}

// CreateBookRequest represents the request to add a new title
type CreateBookRequest struct {
	Title  string      `json:"title"`
	Author string      `json:"author"`
	Genre  Genre       `json:"genre"`
	Value  money.Money `json:"value"`
	Copies int32       `json:"copies"`
	Tier   BookTier    `json:"tier,omitempty"`
}

// MaxBookValue bounds a book's value. With pricing ratios capped at 1 and at
// most MaxRentalDays days, every amount derived from it fits in int64 cents.
var MaxBookValue = money.MustParse("1000000000.00")

// Validate normalizes and validates the CreateBookRequest
func (r *CreateBookRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errs.Validation("title is required")
	}
	if len(r.Title) > 255 {
		return errs.Validation("title cannot exceed 255 characters")
	}

	r.Author = strings.TrimSpace(r.Author)
	if r.Author == "" {
		return errs.Validation("author is required")
	}
	if len(r.Author) > 255 {
		return errs.Validation("author cannot exceed 255 characters")
	}

	if !r.Genre.IsValid() {
		return errs.Validation("unknown genre %q", r.Genre)
	}
	if !r.Value.IsPositive() {
		return errs.Validation("value must be greater than zero")
	}
	if r.Value.Cmp(MaxBookValue) > 0 {
		return errs.Validation("value cannot exceed %s", MaxBookValue)
	}
	if r.Copies < 1 {
		return errs.Validation("copies must be at least 1")
	}

	if r.Tier == "" {
		r.Tier = BookTierStandard
	}
	if !r.Tier.IsValid() {
		return errs.Validation("unknown pricing tier %q", r.Tier)
	}

	return nil
}

// BookFilter narrows a book listing
type BookFilter struct {
	AvailableOnly bool `form:"available_only"`
}
