// Package config loads the fee and quote schedule file.
//
// Example:
//
//	settlement_asset = "USDC"
//	network_fee_rate = 1000      # hundredth pips
//	quote_timeout    = "1s"
//	bitcoin_network  = "mainnet"
//
//	[pool_fees]
//	ETH = 2000
//	BTC = 1500
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/fees"
)

// Defaults for keys missing from the file.
const (
	DefaultNetworkFeeRate = 1000
	DefaultPoolFeeRate    = 2000
	DefaultQuoteTimeout   = time.Second
	DefaultBitcoinNetwork = "mainnet"
)

// ErrInvalidConfig is returned when the file parses but fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

// UnmarshalText parses values such as "750ms" or "2s".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Schedule is the decoded schedule file.
type Schedule struct {
	SettlementAsset string            `toml:"settlement_asset"`
	NetworkFeeRate  *uint32           `toml:"network_fee_rate"`
	PoolFees        map[string]uint32 `toml:"pool_fees"`
	QuoteTimeout    *Duration         `toml:"quote_timeout"`
	BitcoinNetwork  string            `toml:"bitcoin_network"`
}

// Default returns the schedule used when no file is given: USDC settlement
// and the default pool rate for every other asset.
func Default() *Schedule {
	s := &Schedule{}
	s.applyDefaults()
	return s
}

// Load reads and validates a schedule file. Unknown keys are rejected.
func Load(path string) (*Schedule, error) {
	var s Schedule
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return finish(&s, md)
}

// Parse decodes a schedule from TOML text.
func Parse(data string) (*Schedule, error) {
	var s Schedule
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return finish(&s, md)
}

func finish(s *Schedule, md toml.MetaData) (*Schedule, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schedule) applyDefaults() {
	if s.SettlementAsset == "" {
		s.SettlementAsset = string(domain.DefaultSettlementAsset)
	}
	if s.NetworkFeeRate == nil {
		rate := uint32(DefaultNetworkFeeRate)
		s.NetworkFeeRate = &rate
	}
	if s.QuoteTimeout == nil {
		s.QuoteTimeout = &Duration{DefaultQuoteTimeout}
	}
	if s.BitcoinNetwork == "" {
		s.BitcoinNetwork = DefaultBitcoinNetwork
	}
	if s.PoolFees == nil {
		s.PoolFees = make(map[string]uint32)
	}

	settlement, err := domain.ParseAsset(s.SettlementAsset)
	if err != nil {
		return
	}
	for _, a := range domain.Assets() {
		if a == settlement {
			continue
		}
		if _, ok := s.lookupPool(a); !ok {
			s.PoolFees[string(a)] = DefaultPoolFeeRate
		}
	}
}

func (s *Schedule) lookupPool(a domain.Asset) (uint32, bool) {
	for k, v := range s.PoolFees {
		if strings.EqualFold(k, string(a)) {
			return v, true
		}
	}
	return 0, false
}

// Validate checks asset names, rates and the quote timeout.
func (s *Schedule) Validate() error {
	_, err := s.FeeSchedule()
	if err != nil {
		return err
	}
	if s.QuoteTimeout == nil || s.QuoteTimeout.Duration <= 0 {
		return fmt.Errorf("%w: quote_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// FeeSchedule converts the file into the calculator's schedule.
func (s *Schedule) FeeSchedule() (fees.Schedule, error) {
	settlement, err := domain.ParseAsset(s.SettlementAsset)
	if err != nil {
		return fees.Schedule{}, fmt.Errorf("%w: settlement_asset: %w", ErrInvalidConfig, err)
	}

	out := fees.Schedule{
		SettlementAsset:   settlement,
		PoolLiquidityFees: make(map[domain.Asset]uint32, len(s.PoolFees)),
	}
	if s.NetworkFeeRate != nil {
		out.NetworkFeeRate = *s.NetworkFeeRate
	}

	names := make([]string, 0, len(s.PoolFees))
	for name := range s.PoolFees {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		asset, err := domain.ParseAsset(name)
		if err != nil {
			return fees.Schedule{}, fmt.Errorf("%w: pool_fees: %w", ErrInvalidConfig, err)
		}
		if asset == settlement {
			return fees.Schedule{}, fmt.Errorf("%w: pool_fees: settlement asset %s has no pool", ErrInvalidConfig, asset)
		}
		out.PoolLiquidityFees[asset] = s.PoolFees[name]
	}

	if err := out.Validate(); err != nil {
		return fees.Schedule{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return out, nil
}

// Timeout returns the quote collection timeout.
func (s *Schedule) Timeout() time.Duration {
	if s.QuoteTimeout == nil {
		return DefaultQuoteTimeout
	}
	return s.QuoteTimeout.Duration
}
