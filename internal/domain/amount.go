package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses an on-chain amount encoded either as 0x-prefixed hex
// (the chain's u128 encoding) or as a base-10 string.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidAmount
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		// uint256.FromHex rejects leading zeros which the chain emits freely.
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			return uint256.NewInt(0), nil
		}
		v, err := uint256.FromHex("0x" + digits)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
		}
		return v, nil
	}

	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return v, nil
}

// MustAmount parses a decimal amount and panics on failure. Intended for tests and constants.
func MustAmount(s string) *uint256.Int {
	v, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return v
}

// AmountString renders an amount as a base-10 string. Nil renders as empty.
func AmountString(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}

// FormatAmount renders a base-unit amount in whole units of the asset,
// e.g. 1500000 USDC base units -> "1.5".
func FormatAmount(asset Asset, v *uint256.Int) string {
	if v == nil {
		return ""
	}
	d, err := decimal.NewFromString(v.Dec())
	if err != nil {
		return ""
	}
	return d.Shift(-asset.Info().Decimals).String()
}

// BlockIndex builds the "<height>-<indexInBlock>" position string stamped on entities.
func BlockIndex(height uint64, index uint32) string {
	return fmt.Sprintf("%d-%d", height, index)
}
