package models

import (
	"strings"
	"time"

	"github.com/ngenohkevin/bookrent/internal/errs"
)

// ReaderCategory drives the discount applied to rental prices
type ReaderCategory string

const (
	ReaderCategoryRegular ReaderCategory = "Regular"
	ReaderCategoryStudent ReaderCategory = "Student"
	ReaderCategorySenior  ReaderCategory = "Senior"
	ReaderCategoryVIP     ReaderCategory = "VIP"
)

// IsValid checks if the category is known
func (c ReaderCategory) IsValid() bool {
	switch c {
	case ReaderCategoryRegular, ReaderCategoryStudent, ReaderCategorySenior, ReaderCategoryVIP:
		return true
	}
	return false
}

// Reader represents a registered customer of the rental desk
type Reader struct {
	ID        int64          `json:"id"`
	FullName  string         `json:"full_name"`
	Address   string         `json:"address"`
	Telephone string         `json:"telephone"`
	Category  ReaderCategory `json:"category"`
	CreatedAt time.Time      `json:"created_at"`
}

// CreateReaderRequest represents the request to register a reader
type CreateReaderRequest struct {
	FullName  string         `json:"full_name"`
	Address   string         `json:"address"`
	Telephone string         `json:"telephone"`
	Category  ReaderCategory `json:"category"`
}

// Validate normalizes and validates the CreateReaderRequest
func (r *CreateReaderRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return errs.Validation("full_name is required")
	}
	if len(r.FullName) > 255 {
		return errs.Validation("full_name cannot exceed 255 characters")
	}

	r.Address = strings.TrimSpace(r.Address)
	if len(r.Address) > 500 {
		return errs.Validation("address cannot exceed 500 characters")
	}

	r.Telephone = strings.TrimSpace(r.Telephone)
	if len(r.Telephone) > 50 {
		return errs.Validation("telephone cannot exceed 50 characters")
	}

	if r.Category == "" {
		return errs.Validation("category is required")
	}
	if !r.Category.IsValid() {
		return errs.Validation("unknown reader category %q", r.Category)
	}

	return nil
}
