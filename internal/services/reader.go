package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngenohkevin/bookrent/internal/models"
)

// ReaderQuerier defines the storage operations the reader service needs
type ReaderQuerier interface {
	CreateReader(ctx context.Context, reader models.Reader) (models.Reader, error)
	GetReader(ctx context.Context, id int64) (models.Reader, error)
	ListReaders(ctx context.Context) ([]models.Reader, error)
	DeleteReader(ctx context.Context, id int64) error
	ListRentals(ctx context.Context, q models.RentalQuery) ([]models.Rental, error)
}

// ReaderServiceInterface defines the interface for reader service operations
type ReaderServiceInterface interface {
	CreateReader(ctx context.Context, req models.CreateReaderRequest) (*models.Reader, error)
	GetReader(ctx context.Context, id int64) (*models.Reader, error)
	ListReaders(ctx context.Context) ([]models.Reader, error)
	DeleteReader(ctx context.Context, id int64) error
	ListReaderRentals(ctx context.Context, id int64) ([]models.RentalResponse, error)
}

// ReaderService manages registered readers
type ReaderService struct {
	querier ReaderQuerier
	logger  *slog.Logger
	now     func() time.Time
}

// NewReaderService creates a new reader service
func NewReaderService(querier ReaderQuerier, logger *slog.Logger) *ReaderService {
	return &ReaderService{
		querier: querier,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateReader registers a reader
func (s *ReaderService) CreateReader(ctx context.Context, req models.CreateReaderRequest) (*models.Reader, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reader, err := s.querier.CreateReader(ctx, models.Reader{
		FullName:  req.FullName,
		Address:   req.Address,
		Telephone: req.Telephone,
		Category:  req.Category,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reader registered", "reader_id", reader.ID, "category", reader.Category)
	return &reader, nil
}

func (s *ReaderService) GetReader(ctx context.Context, id int64) (*models.Reader, error) {
	reader, err := s.querier.GetReader(ctx, id)
	if err != nil {
		return nil, err
	}
	return &reader, nil
}

func (s *ReaderService) ListReaders(ctx context.Context) ([]models.Reader, error) {
	return s.querier.ListReaders(ctx)
}

// DeleteReader removes a reader; it is refused while the reader holds a copy
func (s *ReaderService) DeleteReader(ctx context.Context, id int64) error {
	if err := s.querier.DeleteReader(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Reader deleted", "reader_id", id)
	return nil
}

// ListReaderRentals returns every rental of one reader, active or not
func (s *ReaderService) ListReaderRentals(ctx context.Context, id int64) ([]models.RentalResponse, error) {
	if _, err := s.querier.GetReader(ctx, id); err != nil {
		return nil, err
	}

	rentals, err := s.querier.ListRentals(ctx, models.RentalQuery{ReaderID: id})
	if err != nil {
		return nil, err
	}
	return models.NewRentalResponses(rentals, s.now()), nil
}
