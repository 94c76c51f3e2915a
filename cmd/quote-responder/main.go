// Command quote-responder is a market maker that answers quote requests from
// the server's quote hub with the state chain rate minus a fixed spread.
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

	"crosschain-swap-indexer/internal/lifecycle"
	"crosschain-swap-indexer/internal/observability"
	"crosschain-swap-indexer/internal/quoting"
	"crosschain-swap-indexer/internal/statechain"
)

type options struct {
	HubEndpoint  string        `long:"hub-endpoint" env:"RESPONDER_HUB_ENDPOINT" description:"quote hub websocket url" default:"ws://localhost:8080/quotes/ws"`
	ResponderID  string        `long:"responder-id" env:"RESPONDER_ID" description:"market maker id" required:"true"`
	RPCEndpoint  string        `long:"rpc-endpoint" env:"RESPONDER_RPC_ENDPOINT" description:"state chain rpc endpoint" required:"true"`
	RPCRateLimit int           `long:"rpc-rate-limit" env:"RESPONDER_RPC_RATE_LIMIT" description:"rpc requests per second, 0 disables" default:"20"`
	SpreadBps    uint32        `long:"spread-bps" env:"RESPONDER_SPREAD_BPS" description:"spread below the oracle rate in basis points" default:"10"`
	QuoteTimeout time.Duration `long:"quote-timeout" env:"RESPONDER_QUOTE_TIMEOUT" description:"budget for pricing one request" default:"800ms"`
	MetricsAddr  string        `long:"metrics-addr" env:"RESPONDER_METRICS_ADDR" description:"metrics addr, empty disables" default:":9091"`
	DevLog       bool          `long:"dev-log" env:"RESPONDER_DEV_LOG" description:"human readable logs"`
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

	var logger *zap.Logger
	var err error
	if opts.DevLog {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, opts, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("responder stopped", zap.Error(err))
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	shutdown := lifecycle.NewShutdown(logger)
	defer func() {
		_ = shutdown.Close(context.Background())
	}()

	if opts.MetricsAddr != "" {
		srv := observability.NewServer(opts.MetricsAddr)
		shutdown.Add("metrics server", srv.Shutdown)
		go func() {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	client := statechain.NewClient(opts.RPCEndpoint,
		statechain.WithRateLimit(opts.RPCRateLimit),
		statechain.WithMetrics(observability.DefaultMetrics.RPC()),
	)
	shutdown.AddFunc("statechain client", client.Close)

	quote, err := quoting.SpreadQuoteFunc(client, opts.SpreadBps)
	if err != nil {
		return err
	}

	cfg := quoting.DefaultResponderConfig()
	cfg.QuoteTimeout = opts.QuoteTimeout

	logger.Info("starting quote responder",
		zap.String("hub", opts.HubEndpoint),
		zap.String("responder", opts.ResponderID),
		zap.Uint32("spread_bps", opts.SpreadBps),
	)
	return quoting.NewResponderClient(opts.HubEndpoint, opts.ResponderID, quote, &cfg, logger).Run(ctx)
}
