// Package api exposes swap lookups, deposit channel requests and quotes over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/keylock"
)

// DefaultBrokerAccount is the lock key used when no broker account is configured.
const DefaultBrokerAccount = "broker"

// Options configures a Server. Nil collaborators disable their routes.
type Options struct {
	Lookup         SwapLookup
	Opener         ChannelOpener
	Quotes         QuoteService
	Addresses      AddressValidator
	QuoteSocket    http.Handler // market maker websocket endpoint
	MetricsHandler http.Handler
	BrokerAccount  string
	Settlement     domain.Asset // asset of intermediate amounts, defaults to USDC
	Metrics        Metrics
	Logger         *zap.Logger
}

// Server routes HTTP requests to the read path, the broker and the quoter.
type Server struct {
	lookup        SwapLookup
	opener        ChannelOpener
	quotes        QuoteService
	addresses     AddressValidator
	brokerAccount string
	settlement    domain.Asset
	locks         *keylock.Map
	metrics       Metrics
	logger        *zap.Logger
	engine        *gin.Engine
}

// NewServer creates the API server.
func NewServer(opts Options) (*Server, error) {
	if opts.Lookup == nil {
		return nil, errors.New("swap lookup is required")
	}
	if opts.Opener != nil && opts.Addresses == nil {
		return nil, errors.New("address validator is required to open channels")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var metrics Metrics = nopMetrics{}
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}
	settlement := opts.Settlement
	if settlement == "" {
		settlement = domain.DefaultSettlementAsset
	}
	account := opts.BrokerAccount
	if account == "" {
		account = DefaultBrokerAccount
	}

	s := &Server{
		lookup:        opts.Lookup,
		opener:        opts.Opener,
		quotes:        opts.Quotes,
		addresses:     opts.Addresses,
		brokerAccount: account,
		settlement:    settlement,
		locks:         keylock.New(),
		metrics:       metrics,
		logger:        logger.Named("api"),
	}

	engine := gin.New()
	engine.Use(s.observe(), s.recovery())
	engine.GET("/health", s.health)
	engine.GET("/swaps/:id", s.getSwap)
	if s.opener != nil {
		engine.POST("/swaps", s.openChannel)
	}
	if s.quotes != nil {
		engine.GET("/quote", s.getQuote)
	}
	if opts.QuoteSocket != nil {
		engine.GET("/quotes/ws", gin.WrapH(opts.QuoteSocket))
	}
	if opts.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	s.engine = engine

	return s, nil
}

// Handler returns the router wrapped with permissive CORS.
func (s *Server) Handler() http.Handler {
	return cors.Default().Handler(s.engine)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, errorResponse{Error: msg})
}
