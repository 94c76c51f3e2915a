package domain

import "github.com/holiman/uint256"

// FeeType classifies a fee charged on a swap.
type FeeType string

const (
	FeeTypeNetwork   FeeType = "NETWORK"
	FeeTypeLiquidity FeeType = "LIQUIDITY"
)

// SwapFee is a single fee line of a swap.
type SwapFee struct {
	Type   FeeType
	Asset  Asset
	Amount *uint256.Int
}
