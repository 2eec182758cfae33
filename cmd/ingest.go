package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	cloudpubsub "cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/api"
	"github.com/JakeFAU/billtext-ingest/internal/bills"
	"github.com/JakeFAU/billtext-ingest/internal/config"
	"github.com/JakeFAU/billtext-ingest/internal/congress"
	"github.com/JakeFAU/billtext-ingest/internal/fetcher"
	"github.com/JakeFAU/billtext-ingest/internal/ingest"
	"github.com/JakeFAU/billtext-ingest/internal/progress"
	"github.com/JakeFAU/billtext-ingest/internal/progress/sinks"
	pubsubpublisher "github.com/JakeFAU/billtext-ingest/internal/publisher/pubsub"
	"github.com/JakeFAU/billtext-ingest/internal/render"
	"github.com/JakeFAU/billtext-ingest/internal/storage"
	"github.com/JakeFAU/billtext-ingest/internal/storage/gcs"
	"github.com/JakeFAU/billtext-ingest/internal/storage/local"
	"github.com/JakeFAU/billtext-ingest/internal/storage/memory"
	"github.com/JakeFAU/billtext-ingest/internal/storage/postgres"
)

func newIngestCmd() *cobra.Command {
	var (
		limit       int
		workers     int
		congressNum int
		billType    string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Runs one bill-text ingestion job",
		Long: `Fetches, normalizes, and persists the latest text for a range of
bills, processing them across a fixed worker pool while rendering
live progress.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			if limit > 0 {
				cfg.Ingest.Limit = limit
			}
			if workers > 0 {
				cfg.Ingest.Workers = workers
			}
			if congressNum > 0 {
				cfg.Ingest.Congress = congressNum
			}
			if billType != "" {
				cfg.Ingest.BillType = billType
			}
			return runIngest(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of bills to ingest (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (overrides config)")
	cmd.Flags().IntVar(&congressNum, "congress", 0, "congress number (overrides config)")
	cmd.Flags().StringVar(&billType, "bill-type", "", "bill type such as hr or s (overrides config)")
	return cmd
}

// discardStore stands in when persistence is disabled.
type discardStore struct{}

func (discardStore) UpsertBillText(context.Context, bills.TextRecord) error {
	return nil
}

func runIngest(parent context.Context, cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retrying := fetcher.NewRetrying(
		fetcher.NewCollyFetcher(fetcher.Config{
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.FetchTimeout(),
		}),
		fetcher.NewLinearRetryPolicyWith(cfg.HTTP.MaxAttempts, cfg.BackoffStep()),
		logger,
	)

	client := congress.NewClient(retrying, congress.Config{
		BaseURL: cfg.Congress.BaseURL,
		APIKey:  cfg.Congress.APIKey,
	}, logger)

	var store ingest.BillStore = discardStore{}
	if cfg.Database.Enabled {
		pg, err := postgres.NewBillStore(ctx, postgres.BillStoreConfig{
			DSN:      cfg.Database.DSN,
			Table:    cfg.Database.Table,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("init bill store: %w", err)
		}
		defer pg.Close()
		store = pg
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		return err
	}

	var publish ingest.Publisher
	if cfg.PubSub.Enabled {
		psClient, err := cloudpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("init pubsub client: %w", err)
		}
		defer psClient.Close() //nolint:errcheck // best-effort close
		publish = pubsubpublisher.New(psClient)
	}

	hubSinks := []progress.Sink{sinks.NewLogSink(logger)}
	var metricsHandler http.Handler
	if cfg.Server.Enabled {
		promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("init prometheus sink: %w", err)
		}
		hubSinks = append(hubSinks, promSink)
		metricsHandler = promhttp.Handler()
	}
	hub := progress.NewHub(progress.Config{Logger: logger}, hubSinks...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hub.Close(closeCtx); err != nil {
			logger.Warn("close progress hub", zap.Error(err))
		}
	}()

	var renderer render.SnapshotRenderer
	if cfg.Ingest.Renderer == "ansi" {
		renderer = render.NewANSIRenderer(nil)
	} else {
		renderer = render.NewLogRenderer(logger)
	}

	coord := ingest.NewCoordinator(ingest.Config{
		Workers:        cfg.Ingest.Workers,
		Limit:          cfg.Ingest.Limit,
		RenderInterval: cfg.RenderInterval(),
	}, ingest.Deps{
		Versions: client,
		Fetch:    retrying,
		Store:    store,
		Archive:  archive,
		Publish:  publish,
		Topic:    cfg.PubSub.TopicName,
		Emit:     hub,
		Logger:   logger,
	}, renderer)

	shutdownServer := startServer(cfg, coord, metricsHandler, logger)
	defer shutdownServer()

	backlog := ingest.Backlog(cfg.Ingest.Congress, cfg.Ingest.BillType, cfg.Ingest.Limit)
	if _, err := coord.Run(ctx, backlog); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run ingestion: %w", err)
	}
	return nil
}

func buildArchive(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "none", "":
		return storage.NoOpStore{}, nil
	case "memory":
		return memory.NewBlobStore(), nil
	case "local":
		store, err := local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		return store, nil
	case "gcs":
		client, err := cloudstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{
			Bucket: cfg.Storage.GCSBucket,
			Prefix: cfg.Storage.GCSPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// startServer launches the operator HTTP surface when enabled and
// returns its shutdown func.
func startServer(cfg config.Config, source api.ProgressSource, metrics http.Handler, logger *zap.Logger) func() {
	if !cfg.Server.Enabled {
		return func() {}
	}
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewServer(source, metrics, api.Config{
			APIKey:     cfg.Server.APIKey,
			JobLimit:   cfg.Ingest.Limit,
			JobWorkers: cfg.Ingest.Workers,
		}, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("operator server", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown operator server", zap.Error(err))
		}
	}
}
