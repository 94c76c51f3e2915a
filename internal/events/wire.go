package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
)

// uintValue accepts a JSON number, a decimal string or a 0x-prefixed hex string.
type uintValue struct {
	set   bool
	value uint64
}

func (u *uintValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return fmt.Errorf("parse integer %s: %w", data, err)
	}
	u.set = true
	u.value = v
	return nil
}

// amountValue accepts u128 amounts as hex or decimal, quoted or bare.
type amountValue struct {
	value *uint256.Int
}

func (a *amountValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	v, err := domain.ParseAmount(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	a.value = v
	return nil
}

// egressIDValue is the (chain, id) tuple the chain uses for egress ids.
type egressIDValue struct {
	chain domain.Chain
	id    uint64
}

func (e *egressIDValue) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("egress id: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("egress id: expected 2 elements, got %d", len(parts))
	}

	var chainName string
	if err := json.Unmarshal(parts[0], &chainName); err != nil {
		return fmt.Errorf("egress id chain: %w", err)
	}
	chain, err := domain.ParseChain(chainName)
	if err != nil {
		return fmt.Errorf("egress id: %w", err)
	}

	var id uintValue
	if err := json.Unmarshal(parts[1], &id); err != nil {
		return fmt.Errorf("egress id: %w", err)
	}
	if !id.set {
		return fmt.Errorf("egress id: missing id")
	}

	e.chain = chain
	e.id = id.value
	return nil
}

type channelOpenedArgs struct {
	ChannelID             uintValue   `json:"channelId"`
	SourceChain           string      `json:"sourceChain"`
	SourceAsset           string      `json:"sourceAsset"`
	DestinationAsset      string      `json:"destinationAsset"`
	DestinationAddress    string      `json:"destinationAddress"`
	DepositAddress        string      `json:"depositAddress"`
	ExpectedDepositAmount amountValue `json:"expectedDepositAmount"`
	ExpiryBlock           uintValue   `json:"expiryBlock"`
}

type swapOriginArgs struct {
	Kind           string    `json:"__kind"`
	ChannelID      uintValue `json:"channelId"`
	DepositAddress string    `json:"depositAddress"`
	TxHash         string    `json:"txHash"`
}

type swapScheduledArgs struct {
	SwapID             uintValue       `json:"swapId"`
	SourceAsset        string          `json:"sourceAsset"`
	DestinationAsset   string          `json:"destinationAsset"`
	DestinationAddress string          `json:"destinationAddress"`
	DepositAmount      amountValue     `json:"depositAmount"`
	Origin             *swapOriginArgs `json:"origin"`
}

type swapExecutedArgs struct {
	SwapID             uintValue   `json:"swapId"`
	IntermediateAmount amountValue `json:"intermediateAmount"`
	OutputAmount       amountValue `json:"outputAmount"`
}

type swapEgressScheduledArgs struct {
	SwapID   uintValue      `json:"swapId"`
	EgressID *egressIDValue `json:"egressId"`
	Asset    string         `json:"asset"`
	Amount   amountValue    `json:"amount"`
}

type batchBroadcastArgs struct {
	BroadcastID uintValue       `json:"broadcastId"`
	EgressIDs   []egressIDValue `json:"egressIds"`
}

type ccmBroadcastArgs struct {
	BroadcastID uintValue      `json:"broadcastId"`
	EgressID    *egressIDValue `json:"egressId"`
}

type broadcastIDArgs struct {
	BroadcastID uintValue `json:"broadcastId"`
}

type signatureInvalidArgs struct {
	BroadcastID      uintValue `json:"broadcastId"`
	RetryBroadcastID uintValue `json:"retryBroadcastId"`
}
