// Package addresses validates and normalizes swap destination addresses.
package addresses

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"crosschain-swap-indexer/internal/domain"
)

// ErrInvalidAddress is returned for addresses that are malformed or belong
// to another chain or network.
var ErrInvalidAddress = errors.New("invalid address")

// PolkadotSS58Prefix is the SS58 network prefix of Polkadot.
const PolkadotSS58Prefix = 0

const ss58GenericPrefix = 42

// Validator checks destination addresses for every supported chain.
type Validator struct {
	btcParams *chaincfg.Params
}

// NewValidator creates a Validator for the named Bitcoin network.
func NewValidator(bitcoinNetwork string) (*Validator, error) {
	params, err := chainParamsForNetwork(bitcoinNetwork)
	if err != nil {
		return nil, err
	}
	return &Validator{btcParams: params}, nil
}

// Validate returns the canonical form of address on chain.
func (v *Validator) Validate(chain domain.Chain, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	switch chain {
	case domain.ChainEthereum, domain.ChainArbitrum:
		return validateEVM(address)
	case domain.ChainBitcoin:
		return v.validateBitcoin(address)
	case domain.ChainPolkadot:
		return validatePolkadot(address)
	case domain.ChainSolana:
		return validateSolana(address)
	default:
		return "", fmt.Errorf("%w: unsupported chain %q", ErrInvalidAddress, chain)
	}
}

func validateEVM(address string) (string, error) {
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q is not a 20-byte hex address", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}

func (v *Validator) validateBitcoin(address string) (string, error) {
	addr, err := btcutil.DecodeAddress(address, v.btcParams)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !addr.IsForNet(v.btcParams) {
		return "", fmt.Errorf("%w: %q is not a %s address", ErrInvalidAddress, address, v.btcParams.Name)
	}
	return addr.EncodeAddress(), nil
}

// validatePolkadot accepts an SS58 address with the Polkadot or generic
// prefix, or a 0x-prefixed 32-byte public key, and returns the Polkadot
// SS58 form.
func validatePolkadot(address string) (string, error) {
	if strings.HasPrefix(address, "0x") {
		pub, err := hex.DecodeString(address[2:])
		if err != nil || len(pub) != 32 {
			return "", fmt.Errorf("%w: %q is not a 32-byte public key", ErrInvalidAddress, address)
		}
		return encodeSS58(PolkadotSS58Prefix, pub), nil
	}

	raw, err := base58.Decode(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	// one prefix byte, 32 key bytes, 2 checksum bytes
	if len(raw) != 35 {
		return "", fmt.Errorf("%w: unexpected ss58 length %d", ErrInvalidAddress, len(raw))
	}
	prefix, pub, checksum := raw[0], raw[1:33], raw[33:]
	if prefix != PolkadotSS58Prefix && prefix != ss58GenericPrefix {
		return "", fmt.Errorf("%w: ss58 prefix %d is not polkadot", ErrInvalidAddress, prefix)
	}
	if want := ss58Checksum(raw[:33]); want[0] != checksum[0] || want[1] != checksum[1] {
		return "", fmt.Errorf("%w: bad ss58 checksum", ErrInvalidAddress)
	}
	return encodeSS58(PolkadotSS58Prefix, pub), nil
}

func encodeSS58(prefix byte, pub []byte) string {
	payload := make([]byte, 0, 35)
	payload = append(payload, prefix)
	payload = append(payload, pub...)
	checksum := ss58Checksum(payload)
	return base58.Encode(append(payload, checksum[:2]...))
}

func ss58Checksum(payload []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write([]byte("SS58PRE"))
	h.Write(payload)
	return h.Sum(nil)
}

// validateSolana requires a base58 ed25519 public key on the curve; program
// derived addresses cannot sign and are rejected.
func validateSolana(address string) (string, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidAddress, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return "", fmt.Errorf("%w: not an ed25519 public key", ErrInvalidAddress)
	}
	return base58.Encode(raw), nil
}

func chainParamsForNetwork(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(network) {
	case "", "main", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported bitcoin network %q", network)
	}
}
