package statechain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
)

const (
	methodSubscribeBlocks   = "archive_subscribeBlocks"
	methodUnsubscribeBlocks = "archive_unsubscribeBlocks"
	notificationBlock       = "archive_block"
)

// FeedConfig configures the block feed connection.
type FeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Buffer is the capacity of the delivered block channel.
	Buffer int
}

// DefaultFeedConfig returns default block feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            256,
	}
}

// BlockFeed streams blocks from a state chain archive over a websocket
// JSON-RPC subscription. Blocks are delivered in increasing height order.
// After a reconnect the subscription resumes at the block following the last
// one delivered, so a block may be delivered twice but never skipped.
type BlockFeed struct {
	endpoint string
	config   FeedConfig
	events   []string
	logger   *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	requestID  atomic.Uint64
	subscribed atomic.Bool
	closed     atomic.Bool
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewBlockFeed creates a block feed. events restricts the subscription to the
// named events; nil subscribes to every event.
func NewBlockFeed(endpoint string, events []string, config *FeedConfig, logger *zap.Logger) *BlockFeed {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockFeed{
		endpoint: endpoint,
		config:   cfg,
		events:   events,
		logger:   logger.Named("block_feed"),
		done:     make(chan struct{}),
	}
}

// Subscribe connects and streams blocks with height >= from. The returned
// channel is closed when ctx is cancelled or the feed is closed.
// A feed supports a single subscription.
func (f *BlockFeed) Subscribe(ctx context.Context, from uint64) (<-chan *domain.Block, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if f.subscribed.Swap(true) {
		return nil, errors.New("block feed already subscribed")
	}

	conn, err := f.connect(ctx)
	if err != nil {
		f.subscribed.Store(false)
		return nil, err
	}
	if err := f.subscribe(conn, from); err != nil {
		conn.Close()
		f.subscribed.Store(false)
		return nil, err
	}

	out := make(chan *domain.Block, f.config.Buffer)

	f.wg.Add(2)
	go f.readLoop(ctx, conn, from, out)
	go f.pingLoop()

	return out, nil
}

// Close stops the feed and waits for its goroutines.
func (f *BlockFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
		f.conn.WriteJSON(wsRequest{JSONRPC: "2.0", ID: f.requestID.Add(1), Method: methodUnsubscribeBlocks})
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

func (f *BlockFeed) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	return conn, nil
}

func (f *BlockFeed) subscribe(conn *websocket.Conn, from uint64) error {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      f.requestID.Add(1),
		Method:  methodSubscribeBlocks,
		Params: []interface{}{
			subscribeParams{FromHeight: from, Events: f.events},
		},
	}

	f.connMu.Lock()
	defer f.connMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// readLoop reads notifications and reconnects with exponential backoff on failure.
func (f *BlockFeed) readLoop(ctx context.Context, conn *websocket.Conn, next uint64, out chan<- *domain.Block) {
	defer f.wg.Done()
	defer close(out)

	reconnectDelay := f.config.ReconnectDelay

	for {
		if f.closed.Load() || ctx.Err() != nil {
			return
		}

		if conn == nil {
			select {
			case <-f.done:
				return
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}

			reconnectDelay *= 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}

			var err error
			if conn, err = f.connect(ctx); err != nil {
				f.logger.Warn("reconnect failed", zap.Error(err))
				conn = nil
				continue
			}
			if err := f.subscribe(conn, next); err != nil {
				f.logger.Warn("resubscribe failed", zap.Error(err))
				conn.Close()
				conn = nil
				continue
			}
			f.logger.Info("resubscribed", zap.Uint64("from_height", next))
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() || ctx.Err() != nil {
				return
			}
			f.logger.Warn("block feed connection lost", zap.Error(err), zap.Uint64("next_height", next))
			conn.Close()
			conn = nil
			continue
		}

		reconnectDelay = f.config.ReconnectDelay

		block, err := f.handleMessage(message)
		if err != nil {
			f.logger.Error("bad block feed message", zap.Error(err))
			continue
		}
		if block == nil {
			continue
		}
		if block.Height < next {
			// replayed after resubscribe
			continue
		}

		// Block until delivered; never drop blocks.
		select {
		case out <- block:
			next = block.Height + 1
		case <-f.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage returns the block carried by a notification, or nil for other messages.
func (f *BlockFeed) handleMessage(message []byte) (*domain.Block, error) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}

	switch {
	case env.Error != nil:
		return nil, env.Error
	case env.Method == notificationBlock && env.Params != nil:
		return env.Params.Result.toDomain()
	case env.ID != nil:
		f.logger.Debug("subscription confirmed", zap.ByteString("subscription", env.Result))
		return nil, nil
	default:
		return nil, nil
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (f *BlockFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				// a dead connection is detected by the reader
				_ = f.conn.WriteMessage(websocket.PingMessage, nil)
			}
			f.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type subscribeParams struct {
	FromHeight uint64   `json:"fromHeight"`
	Events     []string `json:"events,omitempty"`
}

type wsEnvelope struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id,omitempty"`
	Result  json.RawMessage       `json:"result,omitempty"`
	Error   *RPCError             `json:"error,omitempty"`
	Method  string                `json:"method,omitempty"`
	Params  *wsNotificationParams `json:"params,omitempty"`
}

type wsNotificationParams struct {
	Subscription string       `json:"subscription"`
	Result       blockPayload `json:"result"`
}

type blockPayload struct {
	Height      uint64         `json:"height"`
	Hash        string         `json:"hash"`
	Timestamp   int64          `json:"timestamp"` // unix milliseconds
	SpecVersion uint32         `json:"specVersion"`
	Events      []eventPayload `json:"events"`
}

type eventPayload struct {
	IndexInBlock uint32          `json:"indexInBlock"`
	Name         string          `json:"name"`
	Args         json.RawMessage `json:"args"`
}

func (p blockPayload) toDomain() (*domain.Block, error) {
	if p.Hash == "" {
		return nil, fmt.Errorf("block %d: missing hash", p.Height)
	}
	b := &domain.Block{
		Height:      p.Height,
		Hash:        p.Hash,
		Timestamp:   time.UnixMilli(p.Timestamp).UTC(),
		SpecVersion: p.SpecVersion,
		Events:      make([]domain.RawEvent, 0, len(p.Events)),
	}
	for _, e := range p.Events {
		b.Events = append(b.Events, domain.RawEvent{
			IndexInBlock: e.IndexInBlock,
			Name:         e.Name,
			Args:         e.Args,
		})
	}
	return b, nil
}
