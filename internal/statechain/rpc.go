package statechain

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
)

const (
	methodSwapRate              = "cf_swap_rate"
	methodRequestDepositAddress = "broker_request_swap_deposit_address"
)

// AssetRef is the state chain's encoding of an asset.
type AssetRef struct {
	Chain string `json:"chain"`
	Asset string `json:"asset"`
}

// NewAssetRef encodes a known asset.
func NewAssetRef(a domain.Asset) AssetRef {
	info := a.Info()
	return AssetRef{Chain: string(info.Chain), Asset: info.Symbol}
}

// Resolve decodes the reference back into an asset.
func (r AssetRef) Resolve() (domain.Asset, error) {
	chain, err := domain.ParseChain(r.Chain)
	if err != nil {
		return "", err
	}
	return domain.AssetBySymbol(chain, r.Asset)
}

type swapRateResult struct {
	Output       string  `json:"output"`
	Intermediary *string `json:"intermediary"`
}

// SwapRate simulates swapping amount of src into dest at the pool prices of
// blockHash, or of the latest block when blockHash is empty.
func (c *Client) SwapRate(ctx context.Context, src, dest domain.Asset, amount *uint256.Int, blockHash string) (*domain.SwapRate, error) {
	if amount == nil {
		return nil, errors.New("swap rate: amount required")
	}

	params := []interface{}{NewAssetRef(src), NewAssetRef(dest), amount.Hex()}
	if blockHash != "" {
		params = append(params, blockHash)
	}

	var res swapRateResult
	if err := c.call(ctx, methodSwapRate, params, &res); err != nil {
		return nil, fmt.Errorf("%s %s -> %s: %w", methodSwapRate, src, dest, err)
	}

	output, err := domain.ParseAmount(res.Output)
	if err != nil {
		return nil, fmt.Errorf("%s output: %w", methodSwapRate, err)
	}
	rate := &domain.SwapRate{Output: output}
	if res.Intermediary != nil {
		if rate.Intermediary, err = domain.ParseAmount(*res.Intermediary); err != nil {
			return nil, fmt.Errorf("%s intermediary: %w", methodSwapRate, err)
		}
	}
	return rate, nil
}

// DepositAddressRequest asks the broker to open a deposit channel.
type DepositAddressRequest struct {
	SrcAsset      domain.Asset
	DestAsset     domain.Asset
	DestAddress   string
	CommissionBps uint16
}

// DepositChannel is the broker's answer to a DepositAddressRequest.
type DepositChannel struct {
	SrcChain       domain.Chain
	ChannelID      uint64
	IssuedBlock    uint64
	DepositAddress string
	ExpiryBlock    uint64 // source chain expiry block, zero when not reported
}

// CompositeID returns the identifier accepted by the swap lookup.
func (d *DepositChannel) CompositeID() string {
	return domain.ChannelCompositeID(d.IssuedBlock, d.SrcChain, d.ChannelID)
}

type depositAddressResult struct {
	Address                string `json:"address"`
	IssuedBlock            uint64 `json:"issued_block"`
	ChannelID              uint64 `json:"channel_id"`
	SourceChainExpiryBlock uint64 `json:"source_chain_expiry_block"`
}

// RequestSwapDepositAddress opens a deposit channel through the broker account of the node.
// Requests of one broker account must not run concurrently.
func (c *Client) RequestSwapDepositAddress(ctx context.Context, req DepositAddressRequest) (*DepositChannel, error) {
	params := []interface{}{
		NewAssetRef(req.SrcAsset),
		NewAssetRef(req.DestAsset),
		req.DestAddress,
		req.CommissionBps,
	}

	var res depositAddressResult
	if err := c.call(ctx, methodRequestDepositAddress, params, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", methodRequestDepositAddress, err)
	}
	if res.Address == "" {
		return nil, fmt.Errorf("%s: empty deposit address", methodRequestDepositAddress)
	}

	return &DepositChannel{
		SrcChain:       req.SrcAsset.Chain(),
		ChannelID:      res.ChannelID,
		IssuedBlock:    res.IssuedBlock,
		DepositAddress: res.Address,
		ExpiryBlock:    res.SourceChainExpiryBlock,
	}, nil
}
