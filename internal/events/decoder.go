package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"crosschain-swap-indexer/internal/domain"
)

var (
	// ErrUntracked is returned for event names the decoder does not know.
	// Such events never change swap state and are filtered out before reduction.
	ErrUntracked = errors.New("untracked event")

	// ErrDecode is returned when a tracked event has a malformed payload.
	// It is fatal for the block being processed.
	ErrDecode = errors.New("decode event")
)

type decodeFunc func(chain domain.Chain, args json.RawMessage) (Event, error)

// Decoder maps "<Pallet>.<Event>" names to typed events.
type Decoder struct {
	handlers map[string]decodeFunc
}

// NewDecoder creates a decoder for the swap lifecycle events of every supported chain.
func NewDecoder() *Decoder {
	d := &Decoder{handlers: make(map[string]decodeFunc)}

	d.handlers["Swapping.SwapDepositAddressReady"] = decodeChannelOpened
	d.handlers["Swapping.SwapScheduled"] = decodeSwapScheduled
	d.handlers["Swapping.SwapExecuted"] = decodeSwapExecuted
	d.handlers["Swapping.SwapEgressScheduled"] = decodeSwapEgressScheduled

	for _, chain := range domain.Chains {
		ingressEgress := string(chain) + "IngressEgress."
		broadcaster := string(chain) + "Broadcaster."

		d.handlers[ingressEgress+"BatchBroadcastRequested"] = decodeBatchBroadcastRequested
		d.handlers[ingressEgress+"CcmBroadcastRequested"] = decodeCcmBroadcastRequested
		d.handlers[broadcaster+"TransactionBroadcastRequest"] = decodeTransactionBroadcastRequest
		d.handlers[broadcaster+"BroadcastSuccess"] = decodeBroadcastSuccess
		d.handlers[broadcaster+"BroadcastAborted"] = decodeBroadcastAborted
		d.handlers[broadcaster+"ThresholdSignatureInvalid"] = decodeThresholdSignatureInvalid
	}

	return d
}

// IsTracked reports whether the decoder handles the event name.
func (d *Decoder) IsTracked(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// TrackedNames returns every event name the decoder handles.
func (d *Decoder) TrackedNames() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Decode turns a raw event into its typed form.
// Returns ErrUntracked for unknown names and ErrDecode for malformed payloads.
func (d *Decoder) Decode(name string, args json.RawMessage) (Event, error) {
	handler, ok := d.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUntracked, name)
	}

	ev, err := handler(palletChain(name), args)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, name, err)
	}
	return ev, nil
}

// DecodeBlock decodes every tracked event of a block, preserving order.
// Untracked events are skipped; the first decode failure aborts the block.
func (d *Decoder) DecodeBlock(block *domain.Block) ([]Decoded, error) {
	decoded := make([]Decoded, 0, len(block.Events))
	for _, raw := range block.Events {
		if !d.IsTracked(raw.Name) {
			continue
		}
		ev, err := d.Decode(raw.Name, raw.Args)
		if err != nil {
			return nil, fmt.Errorf("block %d event %d: %w", block.Height, raw.IndexInBlock, err)
		}
		decoded = append(decoded, Decoded{
			Meta: Meta{
				Height:       block.Height,
				BlockHash:    block.Hash,
				Timestamp:    block.Timestamp,
				IndexInBlock: raw.IndexInBlock,
			},
			Event: ev,
		})
	}
	return decoded, nil
}

// palletChain extracts the chain from per-chain pallet names such as
// "PolkadotBroadcaster". Returns "" for chain-agnostic pallets.
func palletChain(name string) domain.Chain {
	pallet, _, _ := strings.Cut(name, ".")
	for _, chain := range domain.Chains {
		if strings.HasPrefix(pallet, string(chain)) {
			return chain
		}
	}
	return ""
}

func parseAsset(field, value string) (domain.Asset, error) {
	if value == "" {
		return "", fmt.Errorf("missing %s", field)
	}
	asset, err := domain.ParseAsset(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return asset, nil
}

func required(field string, v uintValue) (uint64, error) {
	if !v.set {
		return 0, fmt.Errorf("missing %s", field)
	}
	return v.value, nil
}

func decodeChannelOpened(_ domain.Chain, raw json.RawMessage) (Event, error) {
	var args channelOpenedArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	channelID, err := required("channelId", args.ChannelID)
	if err != nil {
		return nil, err
	}
	expiry, err := required("expiryBlock", args.ExpiryBlock)
	if err != nil {
		return nil, err
	}
	srcAsset, err := parseAsset("sourceAsset", args.SourceAsset)
	if err != nil {
		return nil, err
	}
	destAsset, err := parseAsset("destinationAsset", args.DestinationAsset)
	if err != nil {
		return nil, err
	}

	srcChain := srcAsset.Chain()
	if args.SourceChain != "" {
		if srcChain, err = domain.ParseChain(args.SourceChain); err != nil {
			return nil, err
		}
		if srcChain != srcAsset.Chain() {
			return nil, fmt.Errorf("asset %s does not live on %s", srcAsset, srcChain)
		}
	}
	if args.DepositAddress == "" || args.DestinationAddress == "" {
		return nil, errors.New("missing deposit or destination address")
	}

	return SwapDepositChannelOpened{
		ChannelID:             channelID,
		SrcChain:              srcChain,
		SrcAsset:              srcAsset,
		DestAsset:             destAsset,
		DestAddress:           args.DestinationAddress,
		DepositAddress:        args.DepositAddress,
		ExpectedDepositAmount: args.ExpectedDepositAmount.value,
		ExpiryBlock:           expiry,
	}, nil
}

func decodeSwapScheduled(_ domain.Chain, raw json.RawMessage) (Event, error) {
	var args swapScheduledArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	swapID, err := required("swapId", args.SwapID)
	if err != nil {
		return nil, err
	}
	srcAsset, err := parseAsset("sourceAsset", args.SourceAsset)
	if err != nil {
		return nil, err
	}
	destAsset, err := parseAsset("destinationAsset", args.DestinationAsset)
	if err != nil {
		return nil, err
	}
	if args.DepositAmount.value == nil {
		return nil, errors.New("missing depositAmount")
	}
	if args.Origin == nil {
		return nil, errors.New("missing origin")
	}

	var origin SwapOrigin
	switch args.Origin.Kind {
	case "DepositChannel":
		channelID, err := required("origin.channelId", args.Origin.ChannelID)
		if err != nil {
			return nil, err
		}
		origin.DepositChannel = &ChannelOrigin{
			SrcChain:       srcAsset.Chain(),
			ChannelID:      channelID,
			DepositAddress: args.Origin.DepositAddress,
		}
	case "Vault":
		if args.Origin.TxHash == "" {
			return nil, errors.New("missing origin.txHash")
		}
		origin.Vault = &VaultOrigin{TxHash: strings.ToLower(args.Origin.TxHash)}
	default:
		return nil, fmt.Errorf("unknown origin kind %q", args.Origin.Kind)
	}

	return SwapScheduled{
		SwapID:        swapID,
		SrcAsset:      srcAsset,
		DestAsset:     destAsset,
		DestAddress:   args.DestinationAddress,
		DepositAmount: args.DepositAmount.value,
		Origin:        origin,
	}, nil
}

func decodeSwapExecuted(_ domain.Chain, raw json.RawMessage) (Event, error) {
	var args swapExecutedArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	swapID, err := required("swapId", args.SwapID)
	if err != nil {
		return nil, err
	}
	if args.OutputAmount.value == nil {
		return nil, errors.New("missing outputAmount")
	}

	return SwapExecuted{
		SwapID:             swapID,
		IntermediateAmount: args.IntermediateAmount.value,
		OutputAmount:       args.OutputAmount.value,
	}, nil
}

func decodeSwapEgressScheduled(_ domain.Chain, raw json.RawMessage) (Event, error) {
	var args swapEgressScheduledArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	swapID, err := required("swapId", args.SwapID)
	if err != nil {
		return nil, err
	}
	if args.EgressID == nil {
		return nil, errors.New("missing egressId")
	}
	asset, err := parseAsset("asset", args.Asset)
	if err != nil {
		return nil, err
	}
	if args.Amount.value == nil {
		return nil, errors.New("missing amount")
	}

	return SwapEgressScheduled{
		SwapID:   swapID,
		Chain:    args.EgressID.chain,
		EgressID: args.EgressID.id,
		Asset:    asset,
		Amount:   args.Amount.value,
	}, nil
}

func decodeBatchBroadcastRequested(chain domain.Chain, raw json.RawMessage) (Event, error) {
	var args batchBroadcastArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	broadcastID, err := required("broadcastId", args.BroadcastID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(args.EgressIDs))
	for _, e := range args.EgressIDs {
		if e.chain != chain {
			return nil, fmt.Errorf("egress id of %s in %s broadcast", e.chain, chain)
		}
		ids = append(ids, e.id)
	}

	return BroadcastRequested{
		Chain:       chain,
		BroadcastID: broadcastID,
		Type:        domain.BroadcastTypeBatch,
		EgressIDs:   ids,
	}, nil
}

func decodeCcmBroadcastRequested(chain domain.Chain, raw json.RawMessage) (Event, error) {
	var args ccmBroadcastArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	broadcastID, err := required("broadcastId", args.BroadcastID)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	if args.EgressID != nil {
		if args.EgressID.chain != chain {
			return nil, fmt.Errorf("egress id of %s in %s broadcast", args.EgressID.chain, chain)
		}
		ids = []uint64{args.EgressID.id}
	}

	return BroadcastRequested{
		Chain:       chain,
		BroadcastID: broadcastID,
		Type:        domain.BroadcastTypeCcm,
		EgressIDs:   ids,
	}, nil
}

func decodeTransactionBroadcastRequest(chain domain.Chain, raw json.RawMessage) (Event, error) {
	id, err := decodeBroadcastID(raw)
	if err != nil {
		return nil, err
	}
	return BroadcastRequested{Chain: chain, BroadcastID: id, Type: domain.BroadcastTypeTransaction}, nil
}

func decodeBroadcastSuccess(chain domain.Chain, raw json.RawMessage) (Event, error) {
	id, err := decodeBroadcastID(raw)
	if err != nil {
		return nil, err
	}
	return BroadcastSuccess{Chain: chain, BroadcastID: id}, nil
}

func decodeBroadcastAborted(chain domain.Chain, raw json.RawMessage) (Event, error) {
	id, err := decodeBroadcastID(raw)
	if err != nil {
		return nil, err
	}
	return BroadcastAborted{Chain: chain, BroadcastID: id}, nil
}

func decodeThresholdSignatureInvalid(chain domain.Chain, raw json.RawMessage) (Event, error) {
	var args signatureInvalidArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}

	broadcastID, err := required("broadcastId", args.BroadcastID)
	if err != nil {
		return nil, err
	}

	ev := ThresholdSignatureInvalid{Chain: chain, BroadcastID: broadcastID}
	if args.RetryBroadcastID.set {
		retry := args.RetryBroadcastID.value
		ev.RetryBroadcastID = &retry
	}
	return ev, nil
}

func decodeBroadcastID(raw json.RawMessage) (uint64, error) {
	var args broadcastIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, err
	}
	return required("broadcastId", args.BroadcastID)
}
