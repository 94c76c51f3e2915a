package api

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/quoting"
	"crosschain-swap-indexer/internal/statechain"
	"crosschain-swap-indexer/internal/status"
)

// SwapLookup resolves swap identifiers.
type SwapLookup interface {
	Lookup(ctx context.Context, id string) (status.Result, error)
}

// ChannelOpener asks the broker for a new deposit channel.
type ChannelOpener interface {
	RequestSwapDepositAddress(ctx context.Context, req statechain.DepositAddressRequest) (*statechain.DepositChannel, error)
}

// QuoteService answers quote requests.
type QuoteService interface {
	Quote(ctx context.Context, src, dest domain.Asset, amount *uint256.Int) (*quoting.Result, error)
}

// AddressValidator checks and normalizes destination addresses.
type AddressValidator interface {
	Validate(chain domain.Chain, address string) (string, error)
}

// Metrics records served requests.
type Metrics interface {
	ObserveHTTP(method, route string, code int, started time.Time)
}

type nopMetrics struct{}

func (nopMetrics) ObserveHTTP(string, string, int, time.Time) {}
