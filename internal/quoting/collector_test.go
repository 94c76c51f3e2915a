package quoting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosschain-swap-indexer/internal/domain"
)

func quote(requestID, responder, egress string) domain.Quote {
	return domain.Quote{RequestID: requestID, ResponderID: responder, EgressAmount: egress}
}

func sendAfter(ch chan<- domain.Quote, delay time.Duration, quotes ...domain.Quote) {
	go func() {
		time.Sleep(delay)
		for _, q := range quotes {
			ch <- q
		}
	}()
}

func TestCollect_ResolvesEarlyWhenAllRespond(t *testing.T) {
	c := NewCollector(time.Second, nil)
	responses := make(chan domain.Quote, 8)
	sendAfter(responses, 50*time.Millisecond, quote("r1", "mm-a", "100"), quote("r1", "mm-b", "200"))

	start := time.Now()
	got := c.Collect(context.Background(), "r1", 2, responses)

	assert.Len(t, got, 2)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "must not wait for the timeout")
}

func TestCollect_ResolvesAtTimeoutWithPartialSet(t *testing.T) {
	timeout := 200 * time.Millisecond
	c := NewCollector(timeout, nil)
	responses := make(chan domain.Quote, 8)
	sendAfter(responses, 10*time.Millisecond, quote("r1", "mm-a", "100"), quote("r1", "mm-b", "200"))

	start := time.Now()
	got := c.Collect(context.Background(), "r1", 3, responses)

	require.Len(t, got, 2)
	assert.GreaterOrEqual(t, time.Since(start), timeout)
	assert.Equal(t, "mm-a", got[0].ResponderID)
	assert.Equal(t, "mm-b", got[1].ResponderID)
}

func TestCollect_FirstQuotePerResponderWins(t *testing.T) {
	c := NewCollector(time.Second, nil)
	responses := make(chan domain.Quote, 8)
	responses <- quote("r1", "mm-a", "100")
	responses <- quote("r1", "mm-a", "999")
	responses <- quote("other", "mm-c", "500")
	responses <- quote("r1", "mm-b", "200")

	got := c.Collect(context.Background(), "r1", 2, responses)

	require.Len(t, got, 2)
	assert.Equal(t, "100", got[0].EgressAmount)
	assert.Equal(t, "mm-b", got[1].ResponderID)
}

func TestCollect_ZeroExpectedResolvesImmediately(t *testing.T) {
	c := NewCollector(time.Hour, nil)

	start := time.Now()
	got := c.Collect(context.Background(), "r1", 0, make(chan domain.Quote))

	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestCollect_StopsWhenSubscriptionClosed(t *testing.T) {
	c := NewCollector(time.Hour, nil)
	responses := make(chan domain.Quote, 1)
	responses <- quote("r1", "mm-a", "100")
	close(responses)

	got := c.Collect(context.Background(), "r1", 3, responses)
	assert.Len(t, got, 1)
}

func TestCollect_StopsOnContextCancel(t *testing.T) {
	c := NewCollector(time.Hour, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	got := c.Collect(ctx, "r1", 1, make(chan domain.Quote))
	assert.Empty(t, got)
}

type recordingMetrics struct {
	responses int
	timedOut  bool
	calls     int
}

func (m *recordingMetrics) ObserveCollection(responses int, timedOut bool, _ time.Time) {
	m.responses, m.timedOut = responses, timedOut
	m.calls++
}

func (m *recordingMetrics) SetConnected(int) {}

func TestCollect_RecordsMetrics(t *testing.T) {
	m := &recordingMetrics{}
	c := NewCollector(20*time.Millisecond, m)

	c.Collect(context.Background(), "r1", 2, make(chan domain.Quote))
	assert.Equal(t, 1, m.calls)
	assert.True(t, m.timedOut)
	assert.Zero(t, m.responses)
}

func TestNewCollector_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultCollectTimeout, NewCollector(0, nil).Timeout())
}

func TestFindBestQuote(t *testing.T) {
	fallback := quote("r1", domain.BrokerResponderID, "200")

	t.Run("larger market maker quote wins", func(t *testing.T) {
		got := FindBestQuote([]domain.Quote{quote("r1", "a", "100"), quote("r1", "b", "300")}, fallback)
		assert.Equal(t, "300", got.EgressAmount)
		assert.Equal(t, "b", got.ResponderID)
	})

	t.Run("fallback kept when nothing beats it", func(t *testing.T) {
		got := FindBestQuote([]domain.Quote{quote("r1", "a", "100")}, fallback)
		assert.Equal(t, domain.BrokerResponderID, got.ResponderID)
	})

	t.Run("tie keeps the earlier quote", func(t *testing.T) {
		got := FindBestQuote([]domain.Quote{quote("r1", "a", "200"), quote("r1", "b", "250"), quote("r1", "c", "250")}, fallback)
		assert.Equal(t, "b", got.ResponderID)

		got = FindBestQuote([]domain.Quote{quote("r1", "a", "200")}, fallback)
		assert.Equal(t, domain.BrokerResponderID, got.ResponderID)
	})

	t.Run("invalid amounts never win", func(t *testing.T) {
		got := FindBestQuote([]domain.Quote{
			quote("r1", "a", "1e30"),
			quote("r1", "b", "-5000"),
			quote("r1", "c", ""),
			quote("r1", "d", "0x1000"),
		}, fallback)
		assert.Equal(t, domain.BrokerResponderID, got.ResponderID)
	})

	t.Run("beyond float precision", func(t *testing.T) {
		got := FindBestQuote([]domain.Quote{
			quote("r1", "a", "90071992547409931"),
			quote("r1", "b", "90071992547409932"),
		}, quote("r1", domain.BrokerResponderID, "90071992547409930"))
		assert.Equal(t, "b", got.ResponderID)
	})

	t.Run("invalid fallback is replaced", func(t *testing.T) {
		got := FindBestQuote([]domain.Quote{quote("r1", "a", "1")}, quote("r1", domain.BrokerResponderID, ""))
		assert.Equal(t, "a", got.ResponderID)
	})
}

func TestFindBestQuote_OrderIndependent(t *testing.T) {
	quotes := []domain.Quote{
		quote("r1", "a", "340282366920938463463374607431768211455"),
		quote("r1", "b", "7"),
		quote("r1", "c", "340282366920938463463374607431768211454"),
		quote("r1", "d", "12345678901234567890"),
	}
	fallback := quote("r1", domain.BrokerResponderID, "1000")

	var permute func(int)
	permute = func(k int) {
		if k == len(quotes) {
			got := FindBestQuote(quotes, fallback)
			assert.Equal(t, "340282366920938463463374607431768211455", got.EgressAmount)
			return
		}
		for i := k; i < len(quotes); i++ {
			quotes[k], quotes[i] = quotes[i], quotes[k]
			permute(k + 1)
			quotes[k], quotes[i] = quotes[i], quotes[k]
		}
	}
	permute(0)
}
