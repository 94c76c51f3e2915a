package quoting

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/fees"
)

// ErrNoQuotes is returned when neither the broker nor any market maker
// produced a usable quote.
var ErrNoQuotes = errors.New("no quotes available")

// maxResponders bounds the subscription buffer of one request.
const maxResponders = 64

// Result is the outcome of one quote request.
type Result struct {
	Request domain.QuoteRequest
	Best    domain.Quote
	Quotes  []domain.Quote   // market maker answers in arrival order
	Fees    []domain.SwapFee // nil when the pool has no configured rate
}

// Quoter answers quote requests with the best of the broker quote and the
// connected market makers.
type Quoter struct {
	hub       QuoteHub
	collector *Collector
	oracle    fees.RateOracle
	calc      *fees.Calculator
	newID     func() string
	logger    *zap.Logger
}

// NewQuoter creates a Quoter.
func NewQuoter(hub QuoteHub, collector *Collector, oracle fees.RateOracle, calc *fees.Calculator, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{
		hub:       hub,
		collector: collector,
		oracle:    oracle,
		calc:      calc,
		newID:     uuid.NewString,
		logger:    logger.Named("quoter"),
	}
}

// Quote requests quotes for swapping amount of src into dest.
func (q *Quoter) Quote(ctx context.Context, src, dest domain.Asset, amount *uint256.Int) (*Result, error) {
	req, err := BuildQuoteRequest(q.newID(), q.calc.Schedule().SettlementAsset, src, dest, amount)
	if err != nil {
		return nil, err
	}
	logger := q.logger.With(zap.String("request_id", req.RequestID))

	// The whole round, broker included, shares one deadline.
	ctx, cancel := context.WithTimeout(ctx, q.collector.Timeout())
	defer cancel()

	sub := q.hub.Subscribe(req.RequestID, maxResponders)
	defer sub.Close()

	type brokerAnswer struct {
		quote domain.Quote
		err   error
	}
	brokerCh := make(chan brokerAnswer, 1)
	go func() {
		quote, err := q.brokerQuote(ctx, req, amount)
		brokerCh <- brokerAnswer{quote: quote, err: err}
	}()

	expected := q.hub.Broadcast(req)
	quotes := q.collector.Collect(ctx, req.RequestID, expected, sub.C())
	sub.Close()

	var broker brokerAnswer
	select {
	case broker = <-brokerCh:
	case <-ctx.Done():
		select {
		case broker = <-brokerCh:
		default:
			broker = brokerAnswer{
				quote: domain.Quote{RequestID: req.RequestID, ResponderID: domain.BrokerResponderID},
				err:   ctx.Err(),
			}
		}
	}
	if broker.err != nil {
		logger.Warn("broker quote unavailable", zap.Error(broker.err))
	}

	best := FindBestQuote(quotes, broker.quote)
	egress, ok := parseEgress(best)
	if !ok {
		if broker.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoQuotes, broker.err)
		}
		return nil, ErrNoQuotes
	}

	res := &Result{Request: req, Best: best, Quotes: quotes}
	res.Fees, err = q.fees(src, dest, amount, best, egress)
	if err != nil {
		logger.Debug("fees omitted", zap.String("responder", best.ResponderID), zap.Error(err))
	}

	logger.Debug("quote selected",
		zap.Int("expected", expected),
		zap.Int("received", len(quotes)),
		zap.String("responder", best.ResponderID),
		zap.String("egress_amount", best.EgressAmount),
	)
	return res, nil
}

func (q *Quoter) brokerQuote(ctx context.Context, req domain.QuoteRequest, amount *uint256.Int) (domain.Quote, error) {
	quote := domain.Quote{RequestID: req.RequestID, ResponderID: domain.BrokerResponderID}
	if q.oracle == nil {
		return quote, errors.New("no swap rate oracle configured")
	}

	rate, err := q.oracle.SwapRate(ctx, req.SrcAsset, req.DestAsset, amount, "")
	if err != nil {
		return quote, err
	}
	quote.EgressAmount = domain.AmountString(rate.Output)
	if rate.Intermediary != nil {
		quote.IntermediateAmount = rate.Intermediary.Dec()
	}
	return quote, nil
}

func (q *Quoter) fees(src, dest domain.Asset, amount *uint256.Int, best domain.Quote, egress *uint256.Int) ([]domain.SwapFee, error) {
	var intermediate *uint256.Int
	if best.IntermediateAmount != "" {
		v, err := domain.ParseAmount(best.IntermediateAmount)
		if err != nil {
			return nil, fmt.Errorf("intermediate amount: %w", err)
		}
		intermediate = v
	}
	return q.calc.ComputeSwapFees(src, dest, amount, intermediate, egress)
}
