package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"grocery/internal/config"
	"grocery/internal/events"
	httpapi "grocery/internal/http"
	"grocery/internal/logging"
	"grocery/internal/redisx"
	"grocery/internal/repository"
	"grocery/internal/repository/mongostore"
	"grocery/internal/service"

	_ "grocery/docs"
)

// @title Grocery Cart & Checkout API
// @version 1.0
// @description Каталог, корзина и оформление заказа с учётом остатков.
// @BasePath /api/v1
func main() {
	// .env необязателен, переменные окружения важнее
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting grocery API",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	var (
		cache service.CatalogCache     = service.NoCache{}
		idem  service.IdempotencyStore = service.NewMemoryIdempotency()
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redisx.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		cache = redisx.NewCatalogCache(rdb, cfg.Redis.CacheTTL, logger)
		idem = redisx.NewIdempotency(rdb, cfg.Redis.IdempotencyTTL)
		logger.Info("Redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, 256, logger)
		logger.Info("Kafka publisher enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close publisher", zap.Error(err))
		}
	}()

	srv := httpapi.NewServer(httpapi.Services{
		Products: service.NewProductService(repos.Products, repos.Categories, cache, logger),
		Carts:    service.NewCartService(repos.Products, repos.Carts, repos.Tx),
		Checkout: service.NewCheckoutService(repos, cache, idem, publisher, service.CheckoutOptions{
			ExpressFee: cfg.Checkout.ExpressFee,
			Reprice:    cfg.Checkout.Reprice,
			Producer:   cfg.ServiceName,
		}, logger),
		Orders:    service.NewOrderService(repos.Orders, repos.Reconciliation, publisher, cfg.ServiceName, logger),
		Addresses: service.NewAddressService(repos.Addresses),
	}, logger, cfg.RequestTimeout)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Repositories, func(), error) {
	if cfg.Store.Driver != config.DriverMongo {
		return repository.NewMemoryRepositories(repository.NewMemoryStore()), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := mongostore.Connect(connectCtx, mongostore.Config{
		URI:          cfg.Store.MongoURI,
		Database:     cfg.Store.MongoDatabase,
		Transactions: cfg.Store.MongoTransactions,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = store.Close(context.Background())
		return nil, nil, err
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.Store.MongoDatabase))

	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}
	return store.Repositories(), closeFn, nil
}
