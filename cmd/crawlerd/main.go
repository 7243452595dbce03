// Package main wires together the grocery catalog crawler service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/pricewatch-vn/grocery-crawler/internal/api"
	"github.com/pricewatch-vn/grocery-crawler/internal/archive"
	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/clock/system"
	"github.com/pricewatch-vn/grocery-crawler/internal/config"
	"github.com/pricewatch-vn/grocery-crawler/internal/fetch"
	"github.com/pricewatch-vn/grocery-crawler/internal/id/uuid"
	"github.com/pricewatch-vn/grocery-crawler/internal/logging"
	"github.com/pricewatch-vn/grocery-crawler/internal/pipeline"
	memorypublisher "github.com/pricewatch-vn/grocery-crawler/internal/publisher/memory"
	pubsubpublisher "github.com/pricewatch-vn/grocery-crawler/internal/publisher/pubsub"
	"github.com/pricewatch-vn/grocery-crawler/internal/session"
	"github.com/pricewatch-vn/grocery-crawler/internal/store/postgres"
	"github.com/pricewatch-vn/grocery-crawler/internal/taxonomy"
	"github.com/pricewatch-vn/grocery-crawler/internal/translate"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, err := postgres.NewProductStore(ctx, postgres.PoolConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("connect product store: %w", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx, taxonomy.Collections()); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	sessions, closeSessions, err := buildSessions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	translator, err := buildTranslator(cfg, logger)
	if err != nil {
		return err
	}

	payloadArchive, err := buildArchive(ctx, cfg)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	clients := func(chain catalog.Chain, sess catalog.Session) (pipeline.CatalogClient, error) {
		vendor, ok := cfg.Vendor(vendorKey(chain))
		if !ok {
			return nil, fmt.Errorf("no vendor config for chain %s", chain)
		}
		client := fetch.NewClient(fetch.Config{
			ListingURL:     vendor.ListingURL,
			StoresURL:      vendor.StoresURL,
			MenuURL:        vendor.MenuURL,
			ProductBaseURL: vendor.ProductBaseURL,
			Referer:        vendor.Referer,
			Origin:         vendor.Origin,
			APIKey:         vendor.APIKey,
			Platform:       vendor.Platform,
			UserAgent:      cfg.Crawler.UserAgent,
			Timeout:        cfg.HTTPTimeout(),
			PageDelay:      cfg.PageDelay(),
		}, chain, sess, logger.Named("fetch"))
		return client.WithArchive(payloadArchive), nil
	}

	runner := pipeline.NewRunner(pipeline.Deps{
		Sessions:   sessions,
		Clients:    clients,
		Store:      store,
		Directory:  store,
		Recorder:   store,
		Finder:     store,
		Translator: translator,
		Publisher:  publisher,
		Clock:      system.New(),
		IDs:        uuid.New(),
		Logger:     logger.Named("runner"),
	}, pipeline.RunnerConfig{
		Concurrency:   cfg.Crawler.Concurrency,
		QueueCapacity: cfg.Crawler.QueueDepth,
		PageSize:      cfg.Crawler.PageSize,
		StorePageSize: cfg.Crawler.StorePageSize,
		Provinces:     cfg.Crawler.Provinces,
		Topic:         cfg.PubSub.TopicName,
	})

	apiServer := api.NewServer(runner, cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func vendorKey(chain catalog.Chain) string {
	switch chain {
	case catalog.ChainBHX:
		return "bhx"
	case catalog.ChainWinMart:
		return "winmart"
	default:
		return ""
	}
}

func buildSessions(cfg config.Config, logger *zap.Logger) (catalog.SessionProvider, func(), error) {
	switch cfg.Session.Mode {
	case "intercept":
		interceptor, err := session.NewInterceptor(session.InterceptorConfig{
			StartURL:          cfg.Session.StartURL,
			APIHost:           cfg.Session.APIHost,
			UserAgent:         cfg.Crawler.UserAgent,
			NavigationTimeout: time.Duration(cfg.Session.NavTimeoutSec) * time.Second,
		}, logger.Named("session"))
		if err != nil {
			return nil, nil, fmt.Errorf("build session interceptor: %w", err)
		}
		return interceptor, interceptor.Close, nil
	default:
		static, err := session.NewStatic(cfg.Session.Token, cfg.Session.DeviceID)
		if err != nil {
			return nil, nil, fmt.Errorf("build static session provider: %w", err)
		}
		return static, func() {}, nil
	}
}

func buildTranslator(cfg config.Config, logger *zap.Logger) (catalog.Translator, error) {
	if cfg.Translator.Mode != "http" {
		return translate.Passthrough{}, nil
	}
	client, err := translate.NewClient(translate.Config{
		Endpoint: cfg.Translator.Endpoint,
		APIKey:   cfg.Translator.APIKey,
		Source:   cfg.Translator.Source,
		Target:   cfg.Translator.Target,
		Timeout:  time.Duration(cfg.Translator.TimeoutSeconds) * time.Second,
	}, logger.Named("translate"))
	if err != nil {
		return nil, fmt.Errorf("build translator: %w", err)
	}
	return client, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (catalog.Archive, error) {
	switch cfg.Archive.Mode {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		gcs, err := archive.NewGCS(client, archive.GCSConfig{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("build gcs archive: %w", err)
		}
		return gcs, nil
	case "memory":
		return archive.NewMemory(), nil
	default:
		return archive.Noop{}, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (catalog.Publisher, func(), error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return memorypublisher.New(), func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("create pubsub client: %w", err)
	}
	publisher, err := pubsubpublisher.New(client, cfg.PubSub.TopicName)
	if err != nil {
		return nil, nil, fmt.Errorf("build pubsub publisher: %w", err)
	}
	closeAll := func() {
		publisher.Close()
		_ = client.Close()
	}
	return publisher, closeAll, nil
}
