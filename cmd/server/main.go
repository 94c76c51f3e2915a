// Command server serves swap lookups, deposit channel requests and quotes.
// Market makers connect to /quotes/ws.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/addresses"
	"crosschain-swap-indexer/internal/api"
	"crosschain-swap-indexer/internal/config"
	"crosschain-swap-indexer/internal/fees"
	"crosschain-swap-indexer/internal/lifecycle"
	"crosschain-swap-indexer/internal/observability"
	"crosschain-swap-indexer/internal/quoting"
	"crosschain-swap-indexer/internal/statechain"
	"crosschain-swap-indexer/internal/status"
	"crosschain-swap-indexer/internal/storage"
	"crosschain-swap-indexer/internal/storage/memory"
	"crosschain-swap-indexer/internal/storage/migrations"
	pgstore "crosschain-swap-indexer/internal/storage/postgres"
)

type options struct {
	Addr          string        `long:"addr" env:"SERVER_ADDR" description:"http addr" default:":8080"`
	RPCEndpoint   string        `long:"rpc-endpoint" env:"SERVER_RPC_ENDPOINT" description:"state chain rpc endpoint" required:"true"`
	RPCRateLimit  int           `long:"rpc-rate-limit" env:"SERVER_RPC_RATE_LIMIT" description:"rpc requests per second, 0 disables" default:"20"`
	RPCTimeout    time.Duration `long:"rpc-timeout" env:"SERVER_RPC_TIMEOUT" description:"rpc request timeout" default:"10s"`
	PostgresDSN   string        `long:"postgres-dsn" env:"SERVER_POSTGRES_DSN" description:"postgres dsn"`
	UseMemory     bool          `long:"use-memory" env:"SERVER_USE_MEMORY" description:"serve an empty in-memory store"`
	Schedule      string        `long:"schedule" env:"SERVER_SCHEDULE" description:"fee schedule toml file"`
	BrokerAccount string        `long:"broker-account" env:"SERVER_BROKER_ACCOUNT" description:"broker account id used to serialize channel requests"`
	DevLog        bool          `long:"dev-log" env:"SERVER_DEV_LOG" description:"human readable logs"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts options
	if _, err := flags.ParseArgs(&opts, os.Args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger, err := newLogger(opts.DevLog)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, opts, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	shutdown := lifecycle.NewShutdown(logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdown.Close(closeCtx)
	}()

	schedule := config.Default()
	if opts.Schedule != "" {
		var err error
		if schedule, err = config.Load(opts.Schedule); err != nil {
			return err
		}
	}
	feeSchedule, err := schedule.FeeSchedule()
	if err != nil {
		return err
	}

	reader, err := openReader(ctx, opts, shutdown, logger)
	if err != nil {
		return err
	}

	metrics := observability.DefaultMetrics

	clientOpts := []statechain.ClientOption{
		statechain.WithTimeout(opts.RPCTimeout),
		statechain.WithMetrics(metrics.RPC()),
	}
	if opts.RPCRateLimit > 0 {
		clientOpts = append(clientOpts, statechain.WithRateLimit(opts.RPCRateLimit))
	}
	client := statechain.NewClient(opts.RPCEndpoint, clientOpts...)
	shutdown.AddFunc("statechain client", client.Close)

	calc, err := fees.NewCalculator(feeSchedule, client)
	if err != nil {
		return err
	}

	validator, err := addresses.NewValidator(schedule.BitcoinNetwork)
	if err != nil {
		return err
	}

	hub := quoting.NewHub(nil, metrics.Quotes(), logger)
	shutdown.AddFunc("quote hub", func() error { hub.Close(); return nil })
	collector := quoting.NewCollector(schedule.Timeout(), metrics.Quotes())

	srv, err := api.NewServer(api.Options{
		Lookup:         status.NewService(reader, calc, logger),
		Opener:         client,
		Quotes:         quoting.NewQuoter(hub, collector, client, calc, logger),
		Addresses:      validator,
		QuoteSocket:    hub,
		MetricsHandler: observability.Handler(),
		BrokerAccount:  opts.BrokerAccount,
		Settlement:     feeSchedule.SettlementAsset,
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	s := &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server",
		zap.String("addr", opts.Addr),
		zap.String("settlement_asset", feeSchedule.SettlementAsset.String()),
		zap.Duration("quote_timeout", schedule.Timeout()),
	)
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openReader(ctx context.Context, opts options, shutdown *lifecycle.Shutdown, logger *zap.Logger) (storage.Reader, error) {
	if opts.UseMemory {
		logger.Warn("serving an empty in-memory store")
		return memory.NewStore(), nil
	}
	if opts.PostgresDSN == "" {
		return nil, errors.New("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	pool, err := pgstore.NewPool(ctx, opts.PostgresDSN)
	if err != nil {
		return nil, err
	}
	shutdown.AddFunc("postgres", func() error { pool.Close(); return nil })
	if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
		return nil, err
	}
	return pgstore.NewStore(pool), nil
}
