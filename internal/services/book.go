package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/ngenohkevin/bookrent/internal/pricing"
)

// BookQuerier defines the storage operations the book service needs
type BookQuerier interface {
	CreateBook(ctx context.Context, book models.Book) (models.Book, error)
	GetBook(ctx context.Context, id int64) (models.Book, error)
	ListBooks(ctx context.Context, availableOnly bool) ([]models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BookServiceInterface defines the interface for book service operations
type BookServiceInterface interface {
	CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.BookResponse, error)
	GetBook(ctx context.Context, id int64) (*models.BookResponse, error)
	ListBooks(ctx context.Context, filter models.BookFilter) ([]models.BookResponse, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BookService manages the inventory of titles
type BookService struct {
	querier BookQuerier
	policy  *pricing.Policy
	logger  *slog.Logger
	now     func() time.Time
}

// NewBookService creates a new book service
func NewBookService(querier BookQuerier, policy *pricing.Policy, logger *slog.Logger) *BookService {
	return &BookService{
		querier: querier,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateBook validates the request, derives the deposit and daily rate from
// the book's value and stores it with every copy on the shelf.
func (s *BookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.BookResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	deposit, daily := s.policy.BookCosts(req.Value, req.Tier)
	book, err := s.querier.CreateBook(ctx, models.Book{
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		Value:           req.Value,
		DepositCost:     deposit,
		BaseRentalCost:  daily,
		TotalCopies:     req.Copies,
		AvailableCopies: req.Copies,
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Book created",
		"book_id", book.ID,
		"tier", req.Tier,
		"copies", book.TotalCopies,
		"deposit", book.DepositCost.String())

	response := models.NewBookResponse(&book)
	return &response, nil
}

// GetBook retrieves a book by id
func (s *BookService) GetBook(ctx context.Context, id int64) (*models.BookResponse, error) {
	book, err := s.querier.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	response := models.NewBookResponse(&book)
	return &response, nil
}

// ListBooks lists every book, or only those with a free copy
func (s *BookService) ListBooks(ctx context.Context, filter models.BookFilter) ([]models.BookResponse, error) {
	books, err := s.querier.ListBooks(ctx, filter.AvailableOnly)
	if err != nil {
		return nil, err
	}
	return models.NewBookResponses(books), nil
}

// DeleteBook removes a book; it is refused while any copy is out
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if err := s.querier.DeleteBook(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Book deleted", "book_id", id)
	return nil
}
