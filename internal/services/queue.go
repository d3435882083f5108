package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/models"
	"github.com/redis/go-redis/v9"
)

// Queue keys
const (
	OverdueQueue     = "overdue_notices"
	OverdueDeadQueue = "overdue_notices:dead"

	overdueDispatchedKey   = "overdue_notices:dispatched"
	overdueSentKeyPrefix   = "overdue_notices:sent:"
	overdueSentKeyLifetime = 48 * time.Hour
	defaultNoticeRetries   = 3
	defaultNoticeBatch     = 50
)

// NotifierQuerier defines the storage reads the overdue notifier needs
type NotifierQuerier interface {
	GetBook(ctx context.Context, id int64) (models.Book, error)
	GetReader(ctx context.Context, id int64) (models.Reader, error)
	ListRentals(ctx context.Context, q models.RentalQuery) ([]models.Rental, error)
}

// NoticeDispatcher delivers one overdue notice to its reader
type NoticeDispatcher func(ctx context.Context, notice *models.OverdueNotice) error

// LogDispatcher writes notices to the log instead of contacting the reader
func LogDispatcher(logger *slog.Logger) NoticeDispatcher {
	return func(_ context.Context, n *models.OverdueNotice) error {
		logger.Info("Overdue notice",
			"notice_id", n.ID,
			"rental_id", n.RentalID,
			"reader", n.ReaderName,
			"telephone", n.Telephone,
			"book", n.BookTitle,
			"days_overdue", n.DaysOverdue)
		return nil
	}
}

// OverdueNotifier periodically finds overdue rentals and queues one notice
// per rental per day in a Redis sorted set, then drains the queue through a
// dispatcher. Failed notices are retried and finally parked in a dead queue.
type OverdueNotifier struct {
	querier    NotifierQuerier
	redis      *redis.Client
	dispatch   NoticeDispatcher
	logger     *slog.Logger
	batchSize  int
	maxRetries int
	now        func() time.Time
}

// NewOverdueNotifier creates a notifier. A nil dispatcher logs the notices.
func NewOverdueNotifier(querier NotifierQuerier, redisClient *redis.Client, dispatch NoticeDispatcher, batchSize int, logger *slog.Logger) *OverdueNotifier {
	if dispatch == nil {
		dispatch = LogDispatcher(logger)
	}
	if batchSize <= 0 {
		batchSize = defaultNoticeBatch
	}
	return &OverdueNotifier{
		querier:    querier,
		redis:      redisClient,
		dispatch:   dispatch,
		logger:     logger,
		batchSize:  batchSize,
		maxRetries: defaultNoticeRetries,
		now:        time.Now,
	}
}

// Run scans and drains on every tick until ctx is done
func (n *OverdueNotifier) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n.logger.Info("Overdue notifier started", "interval", interval)
	for {
		n.tick(ctx)

		select {
		case <-ctx.Done():
			n.logger.Info("Overdue notifier stopped")
			return
		case <-ticker.C:
		}
	}
}

func (n *OverdueNotifier) tick(ctx context.Context) {
	if _, err := n.ScanOverdue(ctx); err != nil && ctx.Err() == nil {
		n.logger.Error("Failed to scan overdue rentals", "error", err)
	}
	if _, err := n.ProcessQueue(ctx); err != nil && ctx.Err() == nil {
		n.logger.Error("Failed to process overdue notices", "error", err)
	}
}

// ScanOverdue queues a notice for every overdue rental not yet noticed today
// and returns how many were queued.
func (n *OverdueNotifier) ScanOverdue(ctx context.Context) (int, error) {
	rentals, err := n.querier.ListRentals(ctx, models.RentalQuery{ActiveOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to list active rentals: %w", err)
	}

	now := n.now().UTC()
	day := now.Format(time.DateOnly)
	queued := 0

	for i := range rentals {
		r := &rentals[i]
		if !r.IsOverdue(now) {
			continue
		}

		first, err := n.redis.SetNX(ctx, fmt.Sprintf("%s%d:%s", overdueSentKeyPrefix, r.ID, day), 1, overdueSentKeyLifetime).Result()
		if err != nil {
			return queued, fmt.Errorf("failed to mark rental %d as noticed: %w", r.ID, err)
		}
		if !first {
			continue
		}

		notice, err := n.buildNotice(ctx, r, now)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				n.logger.Warn("Skipping overdue rental", "rental_id", r.ID, "error", err)
				continue
			}
			return queued, err
		}

		if err := n.enqueue(ctx, OverdueQueue, notice, float64(r.ExpectedReturnDate.Unix())); err != nil {
			return queued, err
		}
		queued++
	}

	if queued > 0 {
		n.logger.Info("Overdue notices queued", "count", queued)
	}
	return queued, nil
}

func (n *OverdueNotifier) buildNotice(ctx context.Context, r *models.Rental, now time.Time) (*models.OverdueNotice, error) {
	reader, err := n.querier.GetReader(ctx, r.ReaderID)
	if err != nil {
		return nil, err
	}
	book, err := n.querier.GetBook(ctx, r.BookID)
	if err != nil {
		return nil, err
	}

	return &models.OverdueNotice{
		ID:                 uuid.NewString(),
		RentalID:           r.ID,
		ReaderID:           reader.ID,
		ReaderName:         reader.FullName,
		Telephone:          reader.Telephone,
		BookID:             book.ID,
		BookTitle:          book.Title,
		ExpectedReturnDate: r.ExpectedReturnDate,
		DaysOverdue:        r.DaysOverdue(now),
		CreatedAt:          now,
		MaxRetries:         n.maxRetries,
	}, nil
}

// ProcessQueue pops up to one batch of notices, oldest due date first, and
// dispatches them. It returns how many were delivered.
func (n *OverdueNotifier) ProcessQueue(ctx context.Context) (int, error) {
	jobs, err := n.redis.ZPopMin(ctx, OverdueQueue, int64(n.batchSize)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to pop overdue notices: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	delivered, failed := 0, 0
	for _, job := range jobs {
		member, _ := job.Member.(string)

		var notice models.OverdueNotice
		if err := json.Unmarshal([]byte(member), &notice); err != nil {
			n.logger.Error("Failed to unmarshal overdue notice", "error", err)
			failed++
			continue
		}

		if err := n.dispatch(ctx, &notice); err != nil {
			failed++
			n.retryOrBury(ctx, &notice, job.Score, err)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		if err := n.redis.IncrBy(ctx, overdueDispatchedKey, int64(delivered)).Err(); err != nil {
			n.logger.Warn("Failed to count dispatched notices", "error", err)
		}
	}

	n.logger.Info("Overdue notice processing completed", "delivered", delivered, "failed", failed)
	return delivered, nil
}

func (n *OverdueNotifier) retryOrBury(ctx context.Context, notice *models.OverdueNotice, score float64, cause error) {
	if notice.RetryCount < notice.MaxRetries {
		notice.RetryCount++
		if err := n.enqueue(ctx, OverdueQueue, notice, score); err != nil {
			n.logger.Error("Failed to requeue overdue notice", "notice_id", notice.ID, "error", err)
		}
		n.logger.Warn("Overdue notice will be retried",
			"notice_id", notice.ID,
			"retry", notice.RetryCount,
			"error", cause)
		return
	}

	if err := n.enqueue(ctx, OverdueDeadQueue, notice, float64(n.now().Unix())); err != nil {
		n.logger.Error("Failed to move overdue notice to dead queue", "notice_id", notice.ID, "error", err)
		return
	}
	n.logger.Error("Overdue notice gave up", "notice_id", notice.ID, "rental_id", notice.RentalID, "error", cause)
}

func (n *OverdueNotifier) enqueue(ctx context.Context, queue string, notice *models.OverdueNotice, score float64) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal overdue notice: %w", err)
	}

	err = n.redis.ZAdd(ctx, queue, redis.Z{Score: score, Member: string(data)}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue overdue notice: %w", err)
	}
	return nil
}

// Stats reports queue depths and the number of notices delivered so far
func (n *OverdueNotifier) Stats(ctx context.Context) (*models.NotifierStats, error) {
	pipe := n.redis.Pipeline()
	pending := pipe.ZCard(ctx, OverdueQueue)
	dead := pipe.ZCard(ctx, OverdueDeadQueue)
	dispatched := pipe.Get(ctx, overdueDispatchedKey)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get notifier stats: %w", err)
	}

	count, err := dispatched.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read dispatched count: %w", err)
	}

	return &models.NotifierStats{
		Pending:    pending.Val(),
		Dead:       dead.Val(),
		Dispatched: count,
	}, nil
}
