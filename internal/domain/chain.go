package domain

import (
	"fmt"
	"strings"
)

// Chain identifies a foreign chain that holds deposits or receives egresses.
type Chain string

const (
	ChainEthereum Chain = "Ethereum"
	ChainPolkadot Chain = "Polkadot"
	ChainBitcoin  Chain = "Bitcoin"
	ChainArbitrum Chain = "Arbitrum"
	ChainSolana   Chain = "Solana"
)

// Chains lists every supported chain in a stable order.
var Chains = []Chain{ChainEthereum, ChainPolkadot, ChainBitcoin, ChainArbitrum, ChainSolana}

// String returns the string representation of Chain.
func (c Chain) String() string {
	return string(c)
}

// IsValid checks if the chain is supported.
func (c Chain) IsValid() bool {
	for _, known := range Chains {
		if c == known {
			return true
		}
	}
	return false
}

// ParseChain resolves a chain name case-insensitively.
func ParseChain(s string) (Chain, error) {
	for _, known := range Chains {
		if strings.EqualFold(string(known), s) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown chain %q", s)
}

// Asset identifies a token on a specific chain.
type Asset string

const (
	AssetETH     Asset = "ETH"
	AssetFLIP    Asset = "FLIP"
	AssetUSDC    Asset = "USDC"
	AssetUSDT    Asset = "USDT"
	AssetDOT     Asset = "DOT"
	AssetBTC     Asset = "BTC"
	AssetArbETH  Asset = "ArbETH"
	AssetArbUSDC Asset = "ArbUSDC"
	AssetSOL     Asset = "SOL"
	AssetSolUSDC Asset = "SolUSDC"
)

// DefaultSettlementAsset is the asset every pool is quoted against.
const DefaultSettlementAsset = AssetUSDC

// AssetInfo describes static properties of an asset.
type AssetInfo struct {
	Asset    Asset
	Chain    Chain
	Symbol   string // ticker within its chain, as the state chain encodes it
	Decimals int32
	Native   bool // gas asset of its chain
}

var assets = map[Asset]AssetInfo{
	AssetETH:     {Asset: AssetETH, Chain: ChainEthereum, Symbol: "ETH", Decimals: 18, Native: true},
	AssetFLIP:    {Asset: AssetFLIP, Chain: ChainEthereum, Symbol: "FLIP", Decimals: 18},
	AssetUSDC:    {Asset: AssetUSDC, Chain: ChainEthereum, Symbol: "USDC", Decimals: 6},
	AssetUSDT:    {Asset: AssetUSDT, Chain: ChainEthereum, Symbol: "USDT", Decimals: 6},
	AssetDOT:     {Asset: AssetDOT, Chain: ChainPolkadot, Symbol: "DOT", Decimals: 10, Native: true},
	AssetBTC:     {Asset: AssetBTC, Chain: ChainBitcoin, Symbol: "BTC", Decimals: 8, Native: true},
	AssetArbETH:  {Asset: AssetArbETH, Chain: ChainArbitrum, Symbol: "ETH", Decimals: 18, Native: true},
	AssetArbUSDC: {Asset: AssetArbUSDC, Chain: ChainArbitrum, Symbol: "USDC", Decimals: 6},
	AssetSOL:     {Asset: AssetSOL, Chain: ChainSolana, Symbol: "SOL", Decimals: 9, Native: true},
	AssetSolUSDC: {Asset: AssetSolUSDC, Chain: ChainSolana, Symbol: "USDC", Decimals: 6},
}

// Assets lists every supported asset in a stable order.
func Assets() []Asset {
	return []Asset{
		AssetETH, AssetFLIP, AssetUSDC, AssetUSDT, AssetDOT,
		AssetBTC, AssetArbETH, AssetArbUSDC, AssetSOL, AssetSolUSDC,
	}
}

// String returns the string representation of Asset.
func (a Asset) String() string {
	return string(a)
}

// IsValid checks if the asset is supported.
func (a Asset) IsValid() bool {
	_, ok := assets[a]
	return ok
}

// Info returns static asset properties. The zero value is returned for unknown assets.
func (a Asset) Info() AssetInfo {
	return assets[a]
}

// Chain returns the chain the asset lives on.
func (a Asset) Chain() Chain {
	return assets[a].Chain
}

// IsNative reports whether the asset is the gas asset of its chain.
func (a Asset) IsNative() bool {
	return assets[a].Native
}

// ParseAsset resolves an asset symbol case-insensitively.
func ParseAsset(s string) (Asset, error) {
	for a := range assets {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown asset %q", s)
}

// NativeAsset returns the gas asset of a chain.
func NativeAsset(c Chain) (Asset, error) {
	for _, info := range assets {
		if info.Chain == c && info.Native {
			return info.Asset, nil
		}
	}
	return "", fmt.Errorf("no native asset for chain %q", c)
}

// AssetBySymbol resolves a state-chain (chain, ticker) pair.
func AssetBySymbol(c Chain, symbol string) (Asset, error) {
	for _, info := range assets {
		if info.Chain == c && strings.EqualFold(info.Symbol, symbol) {
			return info.Asset, nil
		}
	}
	return "", fmt.Errorf("unknown asset %s on %s", symbol, c)
}
