// Package quoting collects competing swap quotes from the broker and
// connected market makers and selects the best one.
package quoting

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/fees"
)

// ErrInvalidRequest is returned for quote requests that cannot be routed.
var ErrInvalidRequest = errors.New("invalid quote request")

// BuildQuoteRequest shapes a request by its route through the settlement
// asset. Market makers answer the legs as given and never re-route.
func BuildQuoteRequest(requestID string, settlement, src, dest domain.Asset, amount *uint256.Int) (domain.QuoteRequest, error) {
	switch {
	case !src.IsValid() || !dest.IsValid():
		return domain.QuoteRequest{}, fmt.Errorf("%w: unknown asset %s -> %s", ErrInvalidRequest, src, dest)
	case src == dest:
		return domain.QuoteRequest{}, fmt.Errorf("%w: source and destination are both %s", ErrInvalidRequest, src)
	case amount == nil || amount.IsZero():
		return domain.QuoteRequest{}, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}

	req := domain.QuoteRequest{
		RequestID: requestID,
		SrcAsset:  src,
		DestAsset: dest,
		Amount:    amount.Dec(),
		Route:     fees.Route(settlement, src, dest),
	}

	switch req.Route {
	case domain.RouteDirectIn:
		// settlement in, market maker sells dest
		req.Legs = []domain.QuoteLeg{
			{BaseAsset: dest, Side: domain.SideSell, Amount: req.Amount},
		}
	case domain.RouteDirectOut:
		req.Legs = []domain.QuoteLeg{
			{BaseAsset: src, Side: domain.SideBuy, Amount: req.Amount},
		}
	default:
		// the second leg is sized by the settlement output of the first
		req.Legs = []domain.QuoteLeg{
			{BaseAsset: src, Side: domain.SideBuy, Amount: req.Amount},
			{BaseAsset: dest, Side: domain.SideSell},
		}
	}
	return req, nil
}
