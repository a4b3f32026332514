package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sweetshop/config"
	"sweetshop/internal/api"
	"sweetshop/internal/broker"
	"sweetshop/internal/catalog"
	"sweetshop/internal/redisclient"
	"sweetshop/internal/session"
	"sweetshop/internal/store"
	"sweetshop/internal/storefront"
	"sweetshop/internal/util"
	"sweetshop/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting sweetshop storefront")

	tp, err := util.InitTracer("sweetshop", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	var readyChecks []api.ReadyFunc

	source, closeSource, err := newCatalogSource(cfg)
	if err != nil {
		logger.Fatal("Failed to set up catalog source", zap.Error(err))
	}
	defer closeSource()

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute

	var storage session.Storage = session.NewMemoryStorage()
	if cfg.Session.Storage == "redis" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sessionTTL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))

		storage = redisClient
		readyChecks = append(readyChecks, redisClient.Ping)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var publisher storefront.EventPublisher = broker.NopPublisher{}
	var receiptWorker *worker.ReceiptWorker
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		receiptWorker = worker.NewReceiptWorker(consumer)
		go func() {
			if err := receiptWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Receipt worker error", zap.Error(err))
			}
		}()
	}

	registry := storefront.NewRegistry(catalog.New(source),
		session.NewRoster(cfg.Session.Roster),
		storage,
		publisher,
		storefront.RegistryOptions{IdleTTL: sessionTTL, MaxSessions: cfg.Session.MaxSessions})

	// The catalog has to finish loading, successfully or not, before the
	// first storefront is opened.
	loadCtx, loadCancel := catalogContext(cfg.Catalog.TimeoutSeconds)
	_ = registry.Init(loadCtx)
	loadCancel()

	go registry.Run(workerCtx, sweepInterval(sessionTTL))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(registry, allReady(readyChecks))
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if receiptWorker != nil {
		_ = receiptWorker.Stop()
	}

	logger.Info("Server exited")
}

func newCatalogSource(cfg *config.Config) (catalog.Source, func(), error) {
	noop := func() {}

	switch cfg.Catalog.Source {
	case "simulated":
		return &catalog.SimulatedSource{
			Delay: time.Duration(cfg.Catalog.DelayMillis) * time.Millisecond,
		}, noop, nil
	case "file":
		return &catalog.FileSource{Path: cfg.Catalog.FilePath}, noop, nil
	case "http":
		if cfg.Catalog.URL == "" {
			return nil, noop, fmt.Errorf("CATALOG_URL is required for the http catalog source")
		}
		return &catalog.HTTPSource{URL: cfg.Catalog.URL, Client: &http.Client{}}, noop, nil
	case "db":
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			return nil, noop, err
		}
		if err := seedStore(db, cfg.Catalog.SeedFile); err != nil {
			db.Close()
			return nil, noop, err
		}
		return &catalog.StoreSource{Lister: db}, func() { db.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// seedStore creates the products table and, when seedFile is set, upserts
// the items it lists
func seedStore(db *store.Store, seedFile string) error {
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	if seedFile == "" {
		return nil
	}

	items, err := (&catalog.FileSource{Path: seedFile}).Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return db.UpsertItems(ctx, items)
}

func catalogContext(timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
}

// sweepInterval checks for idle sessions a few times per TTL, at most once a minute
func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

func allReady(checks []api.ReadyFunc) api.ReadyFunc {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
