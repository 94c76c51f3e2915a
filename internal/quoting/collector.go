package quoting

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
)

// DefaultCollectTimeout bounds a single quote collection.
const DefaultCollectTimeout = time.Second

// Metrics records quote collections.
type Metrics interface {
	ObserveCollection(responses int, timedOut bool, started time.Time)
	SetConnected(n int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveCollection(int, bool, time.Time) {}
func (nopMetrics) SetConnected(int) {}

// Collector gathers the answers to one quote request under a deadline.
type Collector struct {
	timeout time.Duration
	metrics Metrics
}

// NewCollector creates a Collector. A zero timeout selects DefaultCollectTimeout.
func NewCollector(timeout time.Duration, metrics Metrics) *Collector {
	if timeout <= 0 {
		timeout = DefaultCollectTimeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Collector{timeout: timeout, metrics: metrics}
}

// Timeout returns the collection deadline.
func (c *Collector) Timeout() time.Duration {
	return c.timeout
}

// Collect reads responses until expected distinct responders have answered
// requestID, the timeout fires, ctx is done or responses is closed. Quotes for
// other requests are dropped and only the first quote of each responder
// counts. A partial or empty result is not an error.
func (c *Collector) Collect(ctx context.Context, requestID string, expected int, responses <-chan domain.Quote) []domain.Quote {
	started := time.Now()
	quotes := make([]domain.Quote, 0, max(expected, 0))
	if expected <= 0 {
		c.metrics.ObserveCollection(0, false, started)
		return quotes
	}

	seen := make(map[string]struct{}, expected)
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			c.metrics.ObserveCollection(len(quotes), true, started)
			return quotes

		case <-ctx.Done():
			c.metrics.ObserveCollection(len(quotes), true, started)
			return quotes

		case q, ok := <-responses:
			if !ok {
				c.metrics.ObserveCollection(len(quotes), false, started)
				return quotes
			}
			if q.RequestID != requestID {
				continue
			}
			if _, dup := seen[q.ResponderID]; dup {
				continue
			}
			seen[q.ResponderID] = struct{}{}
			quotes = append(quotes, q)

			if len(quotes) >= expected {
				c.metrics.ObserveCollection(len(quotes), false, started)
				return quotes
			}
		}
	}
}

// FindBestQuote returns the quote with the largest egress amount. Quotes are
// compared left to right starting from fallback and only a strictly greater
// amount replaces the current best, so ties keep the earlier quote. Quotes
// whose amount is not a decimal integer never win.
func FindBestQuote(quotes []domain.Quote, fallback domain.Quote) domain.Quote {
	best := fallback
	bestAmount, _ := parseEgress(fallback)

	for _, q := range quotes {
		amount, ok := parseEgress(q)
		if !ok {
			continue
		}
		if bestAmount == nil || amount.Gt(bestAmount) {
			best, bestAmount = q, amount
		}
	}
	return best
}

func parseEgress(q domain.Quote) (*uint256.Int, bool) {
	if q.EgressAmount == "" {
		return nil, false
	}
	v, err := uint256.FromDecimal(q.EgressAmount)
	if err != nil {
		return nil, false
	}
	return v, true
}
