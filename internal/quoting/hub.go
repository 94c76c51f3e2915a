package quoting

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
)

// ResponderIDHeader identifies a market maker on the quote socket. The
// responder_id query parameter is accepted as well.
const ResponderIDHeader = "X-Responder-ID"

// HubConfig configures the quote hub.
type HubConfig struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadLimit    int64
	SendQueue    int // requests buffered per responder before Broadcast skips it
}

// DefaultHubConfig returns default quote hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
		ReadLimit:    64 * 1024,
		SendQueue:    16,
	}
}

type responderConn struct {
	id   string
	conn *websocket.Conn
	send chan domain.QuoteRequest
	done chan struct{}
}

// Hub is the server side of the market maker socket.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	metrics  Metrics
	logger   *zap.Logger

	mu         sync.RWMutex
	responders map[string]*responderConn
	subs       map[string]*subscription
	closed     bool
}

// NewHub creates a quote hub.
func NewHub(config *HubConfig, metrics Metrics, logger *zap.Logger) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 1
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		config:     cfg,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		metrics:    metrics,
		logger:     logger.Named("quote_hub"),
		responders: make(map[string]*responderConn),
		subs:       make(map[string]*subscription),
	}
}

var _ QuoteHub = (*Hub)(nil)

// ServeHTTP upgrades a market maker connection and reads its quotes until
// the connection drops. A responder id may be connected only once.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(ResponderIDHeader)
	if id == "" {
		id = r.URL.Query().Get("responder_id")
	}
	if id == "" || id == domain.BrokerResponderID {
		http.Error(w, "missing or reserved responder id", http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	_, taken := h.responders[id]
	closed := h.closed
	h.mu.RUnlock()
	switch {
	case closed:
		http.Error(w, "quote hub closed", http.StatusServiceUnavailable)
		return
	case taken:
		http.Error(w, "responder already connected", http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("responder", id), zap.Error(err))
		return
	}

	rc := &responderConn{
		id:   id,
		conn: conn,
		send: make(chan domain.QuoteRequest, h.config.SendQueue),
		done: make(chan struct{}),
	}
	if err := h.register(rc); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(h.config.WriteTimeout))
		conn.Close()
		return
	}
	defer h.unregister(rc)

	go h.writeLoop(rc)
	go h.pingLoop(rc)
	h.readLoop(rc)
}

func (h *Hub) register(rc *responderConn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("quote hub closed")
	}
	if _, taken := h.responders[rc.id]; taken {
		return errors.New("responder already connected")
	}
	h.responders[rc.id] = rc
	h.metrics.SetConnected(len(h.responders))
	h.logger.Info("responder connected", zap.String("responder", rc.id))
	return nil
}

func (h *Hub) unregister(rc *responderConn) {
	h.mu.Lock()
	if h.responders[rc.id] == rc {
		delete(h.responders, rc.id)
	}
	h.metrics.SetConnected(len(h.responders))
	h.mu.Unlock()

	close(rc.done)
	rc.conn.Close()
	h.logger.Info("responder disconnected", zap.String("responder", rc.id))
}

func (h *Hub) readLoop(rc *responderConn) {
	rc.conn.SetReadLimit(h.config.ReadLimit)
	for {
		var q domain.Quote
		if err := rc.conn.ReadJSON(&q); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.logger.Debug("responder read failed", zap.String("responder", rc.id), zap.Error(err))
			}
			return
		}
		// the connection, not the payload, identifies the responder
		q.ResponderID = rc.id
		h.deliver(q)
	}
}

// writeLoop is the only writer of data frames on rc. A failed or timed out
// write drops the connection, which ends readLoop and unregisters rc.
func (h *Hub) writeLoop(rc *responderConn) {
	for {
		select {
		case <-rc.done:
			return
		case req := <-rc.send:
			rc.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := rc.conn.WriteJSON(req); err != nil {
				h.logger.Warn("quote request not delivered",
					zap.String("responder", rc.id), zap.String("request_id", req.RequestID), zap.Error(err))
				rc.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) pingLoop(rc *responderConn) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rc.done:
			return
		case <-ticker.C:
			if err := rc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.config.WriteTimeout)); err != nil {
				rc.conn.Close()
				return
			}
		}
	}
}

// deliver routes a quote to the subscription of its request. Quotes without
// a live subscription, or beyond its buffer, are dropped.
func (h *Hub) deliver(q domain.Quote) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub, ok := h.subs[q.RequestID]
	if !ok {
		return
	}
	select {
	case sub.ch <- q:
	default:
		h.logger.Debug("subscription buffer full, dropping quote",
			zap.String("request_id", q.RequestID), zap.String("responder", q.ResponderID))
	}
}

// Connected returns the number of connected responders.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.responders)
}

// Subscribe registers interest in the answers to requestID. Subscribe before
// Broadcast so that no early answer is lost.
func (h *Hub) Subscribe(requestID string, buffer int) Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	sub := &subscription{hub: h, requestID: requestID, ch: make(chan domain.Quote, buffer)}

	h.mu.Lock()
	if prev, ok := h.subs[requestID]; ok {
		close(prev.ch)
	}
	h.subs[requestID] = sub
	h.mu.Unlock()
	return sub
}

// Broadcast queues req for every connected responder and returns how many
// accepted it. It never blocks: a responder whose queue is full is skipped
// for this request.
func (h *Hub) Broadcast(req domain.QuoteRequest) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, rc := range h.responders {
		select {
		case rc.send <- req:
			sent++
		default:
			h.logger.Warn("responder send queue full, skipping request",
				zap.String("responder", rc.id), zap.String("request_id", req.RequestID))
		}
	}
	return sent
}

// Close disconnects every responder and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := make([]*responderConn, 0, len(h.responders))
	for _, rc := range h.responders {
		conns = append(conns, rc)
	}
	h.mu.Unlock()

	for _, rc := range conns {
		rc.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(h.config.WriteTimeout))
		rc.conn.Close()
	}
}

type subscription struct {
	hub       *Hub
	requestID string
	ch        chan domain.Quote
	once      sync.Once
}

func (s *subscription) C() <-chan domain.Quote {
	return s.ch
}

func (s *subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.subs[s.requestID] == s {
			delete(h.subs, s.requestID)
			close(s.ch)
		}
	})
}
