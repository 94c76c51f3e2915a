package quoting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/fees"
)

// QuoteFunc prices a quote request. A nil quote declines the request.
type QuoteFunc func(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error)

// ResponderConfig configures a market maker connection.
type ResponderConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	WriteTimeout      time.Duration
	QuoteTimeout      time.Duration // budget for pricing one request
}

// DefaultResponderConfig returns default responder configuration.
func DefaultResponderConfig() ResponderConfig {
	return ResponderConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		WriteTimeout:      5 * time.Second,
		QuoteTimeout:      DefaultCollectTimeout,
	}
}

// ResponderClient connects a market maker to the quote hub and answers
// every request it receives.
type ResponderClient struct {
	endpoint    string
	responderID string
	quote       QuoteFunc
	config      ResponderConfig
	logger      *zap.Logger

	writeMu sync.Mutex
}

// NewResponderClient creates a market maker client.
func NewResponderClient(endpoint, responderID string, quote QuoteFunc, config *ResponderConfig, logger *zap.Logger) *ResponderClient {
	cfg := DefaultResponderConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponderClient{
		endpoint:    endpoint,
		responderID: responderID,
		quote:       quote,
		config:      cfg,
		logger:      logger.Named("responder").With(zap.String("responder", responderID)),
	}
}

// Run keeps a connection to the hub open until ctx is cancelled,
// reconnecting with exponential backoff.
func (c *ResponderClient) Run(ctx context.Context) error {
	delay := c.config.ReconnectDelay
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			delay = c.config.ReconnectDelay
		}
		c.logger.Warn("quote hub connection lost", zap.Error(err), zap.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// session serves one connection. It reports whether the dial succeeded.
func (c *ResponderClient) session(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	header.Set(ResponderIDHeader, c.responderID)

	conn, _, err := dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()
	c.logger.Info("connected to quote hub")

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.config.WriteTimeout))
		conn.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var req domain.QuoteRequest
		if err := conn.ReadJSON(&req); err != nil {
			return true, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.answer(ctx, conn, req)
		}()
	}
}

func (c *ResponderClient) answer(ctx context.Context, conn *websocket.Conn, req domain.QuoteRequest) {
	ctx, cancel := context.WithTimeout(ctx, c.config.QuoteTimeout)
	defer cancel()

	quote, err := c.quote(ctx, req)
	if err != nil {
		c.logger.Warn("pricing failed", zap.String("request_id", req.RequestID), zap.Error(err))
		return
	}
	if quote == nil {
		return
	}
	quote.RequestID = req.RequestID
	quote.ResponderID = c.responderID

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(quote); err != nil {
		c.logger.Warn("send quote failed", zap.String("request_id", req.RequestID), zap.Error(err))
	}
}

// SpreadQuoteFunc prices requests from the swap rate oracle less spreadBps
// basis points of the output.
func SpreadQuoteFunc(oracle fees.RateOracle, spreadBps uint32) (QuoteFunc, error) {
	if oracle == nil {
		return nil, errors.New("swap rate oracle is required")
	}
	if spreadBps >= 10_000 {
		return nil, fmt.Errorf("spread %d bps must be below 100%%", spreadBps)
	}
	keep := uint256.NewInt(uint64(10_000 - spreadBps))
	denom := uint256.NewInt(10_000)

	return func(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
		amount, err := domain.ParseAmount(req.Amount)
		if err != nil {
			return nil, fmt.Errorf("request amount: %w", err)
		}
		rate, err := oracle.SwapRate(ctx, req.SrcAsset, req.DestAsset, amount, "")
		if err != nil {
			return nil, err
		}

		out := new(uint256.Int).Mul(rate.Output, keep)
		out.Div(out, denom)

		quote := &domain.Quote{EgressAmount: out.Dec()}
		if req.Route == domain.RouteViaIntermediate && rate.Intermediary != nil {
			quote.IntermediateAmount = rate.Intermediary.Dec()
		}
		return quote, nil
	}, nil
}
