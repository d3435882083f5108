package main

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/config"
	"github.com/ngenohkevin/bookrent/internal/database"
	"github.com/ngenohkevin/bookrent/internal/handlers"
	"github.com/ngenohkevin/bookrent/internal/middleware"
	"github.com/ngenohkevin/bookrent/internal/pricing"
	"github.com/ngenohkevin/bookrent/internal/services"
)

// storage is satisfied by both the memory and the postgres store
type storage interface {
	services.BookQuerier
	services.ReaderQuerier
	services.RentalQuerier
	services.LedgerQuerier
	services.ReportQuerier
	services.NotifierQuerier
	handlers.Pinger
}

// newRouter wires services and handlers over store. redisClient and notifier
// may be nil.
func newRouter(cfg *config.Config, store storage, redisClient *database.RedisClient, notifier *services.OverdueNotifier, logger *slog.Logger) (*gin.Engine, error) {
	table, err := cfg.Pricing.Table()
	if err != nil {
		return nil, err
	}
	policy, err := pricing.NewPolicy(table)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing policy: %w", err)
	}

	bookService := services.NewBookService(store, policy, logger)
	readerService := services.NewReaderService(store, logger)
	rentalService := services.NewRentalService(store, policy, cfg.Rental.DefaultDays, logger)
	ledgerService := services.NewLedgerService(store)
	reportService := services.NewReportService(store)

	// nil pointers must not reach the health handler as non-nil interfaces
	var redisPinger handlers.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	var notices handlers.NotifierStatter
	if notifier != nil {
		notices = notifier
	}

	healthHandler := handlers.NewHealthHandler(store, redisPinger, notices, version)
	bookHandler := handlers.NewBookHandler(bookService)
	readerHandler := handlers.NewReaderHandler(readerService)
	rentalHandler := handlers.NewRentalHandler(rentalService)
	reportHandler := handlers.NewReportHandler(reportService, ledgerService)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())

	r.GET("/health", healthHandler.Health)
	r.GET("/ping", healthHandler.Ping)

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		if redisClient == nil {
			slog.Warn("Rate limiting needs Redis, requests will not be limited")
		} else {
			limiter := middleware.NewRateLimiter(redisClient.Client, middleware.RateLimit{
				Requests: cfg.RateLimit.Requests,
				Window:   cfg.RateLimit.Window,
			})
			api.Use(limiter.Limit())
		}
	}

	books := api.Group("/books")
	{
		books.POST("", bookHandler.CreateBook)
		books.GET("", bookHandler.ListBooks)
		books.GET("/:id", bookHandler.GetBook)
		books.DELETE("/:id", bookHandler.DeleteBook)
	}

	readers := api.Group("/readers")
	{
		readers.POST("", readerHandler.CreateReader)
		readers.GET("", readerHandler.ListReaders)
		readers.GET("/:id", readerHandler.GetReader)
		readers.GET("/:id/rentals", readerHandler.ListReaderRentals)
		readers.DELETE("/:id", readerHandler.DeleteReader)
	}

	rentals := api.Group("/rentals")
	{
		rentals.POST("", rentalHandler.CreateRental)
		rentals.GET("", rentalHandler.ListRentals)
		rentals.POST("/:id/return", rentalHandler.ReturnRental)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/available-books", reportHandler.AvailableBooks)
		reports.GET("/issued-books", reportHandler.IssuedBooks)
		reports.GET("/financial-status", reportHandler.FinancialStatus)
		reports.GET("/financial-history", reportHandler.FinancialHistory)
	}

	return r, nil
}
