// Command indexer follows one or more state chain pipelines and maintains the
// swap lifecycle tables. With --replay it rebuilds state from the raw event
// archive instead.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/events"
	"crosschain-swap-indexer/internal/ingestion"
	"crosschain-swap-indexer/internal/lifecycle"
	"crosschain-swap-indexer/internal/observability"
	"crosschain-swap-indexer/internal/statechain"
	"crosschain-swap-indexer/internal/storage"
	chstore "crosschain-swap-indexer/internal/storage/clickhouse"
	"crosschain-swap-indexer/internal/storage/memory"
	"crosschain-swap-indexer/internal/storage/migrations"
	pgstore "crosschain-swap-indexer/internal/storage/postgres"
)

type config struct {
	Pipelines     []string `long:"pipeline" env:"INDEXER_PIPELINES" env-delim:"," description:"pipeline as name=ws-endpoint, repeatable"`
	PostgresDSN   string   `long:"postgres-dsn" env:"INDEXER_POSTGRES_DSN" description:"postgres dsn"`
	ClickhouseDSN string   `long:"clickhouse-dsn" env:"INDEXER_CLICKHOUSE_DSN" description:"clickhouse dsn, enables the raw event archive"`
	UseMemory     bool     `long:"use-memory" env:"INDEXER_USE_MEMORY" description:"keep state in memory"`
	MetricsAddr   string   `long:"metrics-addr" env:"INDEXER_METRICS_ADDR" description:"metrics addr" default:":9090"`
	DevLog        bool     `long:"dev-log" env:"INDEXER_DEV_LOG" description:"human readable logs"`

	Replay       bool   `long:"replay" description:"rebuild state from the archive and exit"`
	ReplaySource string `long:"replay-source" description:"pipeline whose archive is replayed"`
	ReplayTarget string `long:"replay-target" description:"pipeline watermark written by the replay, defaults to the source"`
	ReplayFrom   uint64 `long:"replay-from" description:"first height to replay"`
	ReplayTo     uint64 `long:"replay-to" description:"last height to replay"`
}

type pipelineSpec struct {
	name     string
	endpoint string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config
	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger, err := newLogger(cfg.DevLog)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("indexer stopped", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	shutdown := lifecycle.NewShutdown(logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdown.Close(closeCtx)
	}()

	store, archive, err := openStorage(ctx, cfg, shutdown, logger)
	if err != nil {
		return err
	}

	serveMetrics(cfg.MetricsAddr, shutdown, logger)
	metrics := observability.DefaultMetrics
	decoder := events.NewDecoder()

	if cfg.Replay {
		return replay(ctx, cfg, store, archive, decoder, metrics, logger)
	}

	specs, err := parsePipelines(cfg.Pipelines)
	if err != nil {
		return err
	}

	runners := make([]*ingestion.Runner, 0, len(specs))
	for _, spec := range specs {
		plog := logger.With(zap.String("pipeline", spec.name))
		feed := statechain.NewBlockFeed(spec.endpoint, decoder.TrackedNames(), nil, plog)
		shutdown.AddFunc("block feed "+spec.name, feed.Close)

		runner, err := ingestion.NewRunner(ingestion.RunnerOptions{
			Pipeline: spec.name,
			Source:   feed,
			Decoder:  decoder,
			Store:    store,
			Archive:  archive,
			Metrics:  metrics.Pipeline(spec.name),
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", spec.name, err)
		}
		runners = append(runners, runner)
	}

	logger.Info("starting indexer", zap.Int("pipelines", len(runners)))
	return ingestion.NewManager(logger, runners...).Run(ctx)
}

func replay(
	ctx context.Context,
	cfg config,
	store storage.Store,
	archive storage.EventArchive,
	decoder *events.Decoder,
	metrics *observability.Metrics,
	logger *zap.Logger,
) error {
	if archive == nil {
		return errors.New("--replay requires --clickhouse-dsn")
	}
	target := cfg.ReplayTarget
	if target == "" {
		target = cfg.ReplaySource
	}

	replayer, err := ingestion.NewReplayer(ingestion.ReplayerOptions{
		Archive:        archive,
		SourcePipeline: cfg.ReplaySource,
		TargetPipeline: target,
		Store:          store,
		Decoder:        decoder,
		Metrics:        metrics.Pipeline(target),
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	result, err := replayer.Replay(ctx, cfg.ReplayFrom, cfg.ReplayTo)
	if err != nil {
		return err
	}
	logger.Info("replay finished",
		zap.Int("blocks_applied", result.BlocksApplied),
		zap.Int("blocks_skipped", result.BlocksSkipped),
		zap.Int("channels_expired", result.ChannelsExpired),
		zap.Int("broadcasts_replaced", result.BroadcastsReplaced),
	)
	return nil
}

// parsePipelines reads "name=endpoint" pairs. Names must be unique.
func parsePipelines(values []string) ([]pipelineSpec, error) {
	if len(values) == 0 {
		return nil, errors.New("at least one --pipeline is required")
	}
	seen := make(map[string]bool, len(values))
	specs := make([]pipelineSpec, 0, len(values))
	for _, v := range values {
		name, endpoint, ok := strings.Cut(strings.TrimSpace(v), "=")
		name = strings.TrimSpace(name)
		endpoint = strings.TrimSpace(endpoint)
		if !ok || name == "" || endpoint == "" {
			return nil, fmt.Errorf("invalid pipeline %q, want name=endpoint", v)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate pipeline %q", name)
		}
		seen[name] = true
		specs = append(specs, pipelineSpec{name: name, endpoint: endpoint})
	}
	return specs, nil
}

func openStorage(ctx context.Context, cfg config, shutdown *lifecycle.Shutdown, logger *zap.Logger) (storage.Store, storage.EventArchive, error) {
	var store storage.Store
	switch {
	case cfg.UseMemory:
		logger.Warn("using in-memory storage, state is lost on exit")
		store = memory.NewStore()
	case cfg.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		shutdown.AddFunc("postgres", func() error { pool.Close(); return nil })
		if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
			return nil, nil, err
		}
		store = pgstore.NewStore(pool)
	default:
		return nil, nil, errors.New("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	var archive storage.EventArchive
	switch {
	case cfg.ClickhouseDSN != "":
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		shutdown.AddFunc("clickhouse", conn.Close)
		archive = chstore.NewEventArchive(conn)
	case cfg.UseMemory:
		archive = memory.NewEventArchive()
	}
	return store, archive, nil
}

func serveMetrics(addr string, shutdown *lifecycle.Shutdown, logger *zap.Logger) {
	if addr == "" {
		return
	}
	s := observability.NewServer(addr)
	shutdown.Add("metrics server", s.Shutdown)

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}
