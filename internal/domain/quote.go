package domain

import "github.com/holiman/uint256"

// Side is the market maker's side of a quote leg.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RouteKind is the routing shape of a swap relative to the settlement asset.
type RouteKind string

const (
	RouteDirectIn        RouteKind = "DIRECT_IN"        // source is the settlement asset
	RouteDirectOut       RouteKind = "DIRECT_OUT"       // destination is the settlement asset
	RouteViaIntermediate RouteKind = "VIA_INTERMEDIATE" // two pools through the settlement asset
)

// QuoteLeg is one pool hop of a quote request.
type QuoteLeg struct {
	BaseAsset Asset  `json:"baseAsset"`
	Side      Side   `json:"side"`
	Amount    string `json:"amount,omitempty"` // decimal base units; empty when it depends on the previous leg
}

// QuoteRequest is broadcast to every quote responder.
type QuoteRequest struct {
	RequestID string     `json:"requestId"`
	SrcAsset  Asset      `json:"srcAsset"`
	DestAsset Asset      `json:"destAsset"`
	Amount    string     `json:"amount"`
	Route     RouteKind  `json:"route"`
	Legs      []QuoteLeg `json:"legs"`
}

// Quote is a single responder's answer. Amounts are decimal strings of base units.
type Quote struct {
	RequestID          string `json:"requestId"`
	ResponderID        string `json:"responderId"`
	IntermediateAmount string `json:"intermediateAmount,omitempty"`
	EgressAmount       string `json:"egressAmount"`
}

// BrokerResponderID tags quotes computed by the broker itself.
const BrokerResponderID = "broker"

// SwapRate is the swap-rate oracle's answer for a simulated swap.
type SwapRate struct {
	Output       *uint256.Int // amount of the destination asset
	Intermediary *uint256.Int // settlement amount between the legs, nil for single-leg routes
}
