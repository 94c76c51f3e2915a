// Package fees computes network and liquidity fees of a swap route.
//
// All arithmetic is integer arithmetic in hundredth pips and truncates toward
// zero. The results must match on-chain fee accounting bit for bit, so the
// formulas are deliberately not simplified.
package fees

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
)

// OneInHundredthPips is 100% expressed in hundredth pips.
const OneInHundredthPips = 1_000_000

var (
	// ErrMissingIntermediate is returned when a two-leg swap has no intermediate amount.
	ErrMissingIntermediate = errors.New("intermediate amount required for two-leg swap")

	// ErrUnknownPool is returned when no liquidity fee is configured for a pool.
	ErrUnknownPool = errors.New("unknown pool")

	// ErrInvalidRate is returned for fee rates of 100% or more.
	ErrInvalidRate = errors.New("fee rate must be below 100%")
)

var one = uint256.NewInt(OneInHundredthPips)

// Schedule holds the fee rates in force.
type Schedule struct {
	SettlementAsset   domain.Asset
	NetworkFeeRate    uint32                  // hundredth pips
	PoolLiquidityFees map[domain.Asset]uint32 // keyed by the pool's non-settlement asset
}

// Validate checks that every rate is below 100%.
func (s Schedule) Validate() error {
	if !s.SettlementAsset.IsValid() {
		return fmt.Errorf("unknown settlement asset %q", s.SettlementAsset)
	}
	if s.NetworkFeeRate >= OneInHundredthPips {
		return fmt.Errorf("network fee: %w", ErrInvalidRate)
	}
	for asset, rate := range s.PoolLiquidityFees {
		if rate >= OneInHundredthPips {
			return fmt.Errorf("pool %s: %w", asset, ErrInvalidRate)
		}
	}
	return nil
}

// RateOracle simulates swaps at current pool prices.
type RateOracle interface {
	SwapRate(ctx context.Context, src, dest domain.Asset, amount *uint256.Int, blockHash string) (*domain.SwapRate, error)
}

// Calculator computes swap fees for a fixed schedule.
type Calculator struct {
	schedule Schedule
	oracle   RateOracle
}

// NewCalculator creates a Calculator. oracle may be nil if EstimateFeeInAsset is unused.
func NewCalculator(schedule Schedule, oracle RateOracle) (*Calculator, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{schedule: schedule, oracle: oracle}, nil
}

// Schedule returns the fee schedule in force.
func (c *Calculator) Schedule() Schedule {
	return c.schedule
}

// Pips returns floor(value * rate / 1_000_000).
func Pips(value *uint256.Int, rate uint32) *uint256.Int {
	if value == nil {
		return uint256.NewInt(0)
	}
	out := new(uint256.Int).Mul(value, uint256.NewInt(uint64(rate)))
	return out.Div(out, one)
}

// Route classifies a swap relative to the settlement asset.
func Route(settlement, src, dest domain.Asset) domain.RouteKind {
	switch {
	case src == settlement:
		return domain.RouteDirectIn
	case dest == settlement:
		return domain.RouteDirectOut
	default:
		return domain.RouteViaIntermediate
	}
}

// ComputeSwapFees returns the fee lines of a swap. intermediate may be nil
// unless the swap crosses two pools.
func (c *Calculator) ComputeSwapFees(
	src, dest domain.Asset,
	deposit, intermediate, egress *uint256.Int,
) ([]domain.SwapFee, error) {
	settlement := c.schedule.SettlementAsset
	networkRate := c.schedule.NetworkFeeRate

	switch Route(settlement, src, dest) {
	case domain.RouteDirectIn:
		rate, err := c.poolRate(dest)
		if err != nil {
			return nil, err
		}
		return []domain.SwapFee{
			{Type: domain.FeeTypeNetwork, Asset: settlement, Amount: Pips(deposit, networkRate)},
			{Type: domain.FeeTypeLiquidity, Asset: src, Amount: Pips(deposit, rate)},
		}, nil

	case domain.RouteDirectOut:
		rate, err := c.poolRate(src)
		if err != nil {
			return nil, err
		}
		// pre = egress * ONE / (ONE - networkRate)
		pre := new(uint256.Int).Mul(orZero(egress), one)
		pre.Div(pre, uint256.NewInt(uint64(OneInHundredthPips-networkRate)))
		return []domain.SwapFee{
			{Type: domain.FeeTypeNetwork, Asset: settlement, Amount: Pips(pre, networkRate)},
			{Type: domain.FeeTypeLiquidity, Asset: src, Amount: Pips(deposit, rate)},
		}, nil

	default:
		if intermediate == nil {
			return nil, fmt.Errorf("%s -> %s: %w", src, dest, ErrMissingIntermediate)
		}
		srcRate, err := c.poolRate(src)
		if err != nil {
			return nil, err
		}
		destRate, err := c.poolRate(dest)
		if err != nil {
			return nil, err
		}
		return []domain.SwapFee{
			{Type: domain.FeeTypeNetwork, Asset: settlement, Amount: Pips(intermediate, networkRate)},
			{Type: domain.FeeTypeLiquidity, Asset: src, Amount: Pips(deposit, srcRate)},
			{Type: domain.FeeTypeLiquidity, Asset: settlement, Amount: Pips(intermediate, destRate)},
		}, nil
	}
}

// EstimateFeeInAsset converts a fee paid in the chain's native asset into asset.
// The oracle may lag the ingestion cursor by a few blocks; the result is an estimate.
func (c *Calculator) EstimateFeeInAsset(ctx context.Context, nativeFee *uint256.Int, asset domain.Asset) (*uint256.Int, error) {
	if asset.IsNative() {
		return nativeFee, nil
	}
	native, err := domain.NativeAsset(asset.Chain())
	if err != nil {
		return nil, err
	}
	if c.oracle == nil {
		return nil, errors.New("no swap rate oracle configured")
	}
	rate, err := c.oracle.SwapRate(ctx, native, asset, nativeFee, "")
	if err != nil {
		return nil, fmt.Errorf("swap rate %s -> %s: %w", native, asset, err)
	}
	return rate.Output, nil
}

func (c *Calculator) poolRate(asset domain.Asset) (uint32, error) {
	rate, ok := c.schedule.PoolLiquidityFees[asset]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownPool, asset, c.schedule.SettlementAsset)
	}
	return rate, nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return v
}
