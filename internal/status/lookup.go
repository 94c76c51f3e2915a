package status

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/fees"
	"crosschain-swap-indexer/internal/storage"
)

// Outcome is the tri-state result of a lookup.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// maxReplacementHops bounds how far a replaced broadcast is followed.
const maxReplacementHops = 16

var (
	channelIDPattern = regexp.MustCompile(`^(\d+)-([A-Za-z]+)-(\d+)$`)
	swapIDPattern    = regexp.MustCompile(`^\d+$`)
	txHashPattern    = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
)

// View is the read model returned for a swap lookup.
type View struct {
	Status    domain.SwapStatus
	Channel   *domain.SwapDepositChannel
	Swap      *domain.Swap
	Egress    *domain.Egress
	Broadcast *domain.Broadcast
	Fees      []domain.SwapFee
	SwapCount int // swaps received through Channel
}

// Result pairs an Outcome with the view when found.
type Result struct {
	Outcome Outcome
	View    *View
}

// Service resolves swap identifiers to views.
type Service struct {
	store  storage.Reader
	calc   *fees.Calculator
	logger *zap.Logger
}

// NewService creates a lookup service. calc may be nil, in which case no fees are attached.
func NewService(store storage.Reader, calc *fees.Calculator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, calc: calc, logger: logger.Named("status")}
}

// Lookup resolves id, which is a channel id "{issuedBlock}-{srcChain}-{channelId}",
// a numeric swap id, or a 0x-prefixed source transaction hash.
// Errors are reserved for storage faults and inconsistent state.
func (s *Service) Lookup(ctx context.Context, id string) (Result, error) {
	id = strings.TrimSpace(id)

	switch {
	case channelIDPattern.MatchString(id):
		return s.lookupChannel(ctx, id)
	case swapIDPattern.MatchString(id):
		nativeID, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return Result{Outcome: Invalid}, nil
		}
		swap, err := s.store.GetSwapByNativeID(ctx, nativeID)
		return s.fromSwap(ctx, swap, err)
	case txHashPattern.MatchString(id):
		swap, err := s.store.GetSwapByTxHash(ctx, strings.ToLower(id))
		return s.fromSwap(ctx, swap, err)
	default:
		return Result{Outcome: Invalid}, nil
	}
}

func (s *Service) lookupChannel(ctx context.Context, id string) (Result, error) {
	m := channelIDPattern.FindStringSubmatch(id)
	issuedBlock, err1 := strconv.ParseUint(m[1], 10, 64)
	channelID, err2 := strconv.ParseUint(m[3], 10, 64)
	chain, err3 := domain.ParseChain(m[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Result{Outcome: Invalid}, nil
	}

	channel, err := s.store.GetChannel(ctx, issuedBlock, chain, channelID)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{Outcome: NotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("get channel %s: %w", id, err)
	}

	view := &View{Channel: channel}
	if view.SwapCount, err = s.store.CountSwapsByChannel(ctx, channel.ID); err != nil {
		return Result{}, fmt.Errorf("count swaps of channel %s: %w", id, err)
	}

	swap, err := s.store.GetLatestSwapByChannel(ctx, channel.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return Result{}, fmt.Errorf("get latest swap of channel %s: %w", id, err)
	default:
		view.Swap = swap
	}

	if err := s.complete(ctx, view); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Found, View: view}, nil
}

func (s *Service) fromSwap(ctx context.Context, swap *domain.Swap, err error) (Result, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return Result{Outcome: NotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("get swap: %w", err)
	}

	view := &View{Swap: swap}
	if swap.ChannelID != nil {
		if view.Channel, err = s.store.GetChannelByID(ctx, *swap.ChannelID); err != nil {
			return Result{}, fmt.Errorf("get channel of swap %d: %w", swap.NativeID, err)
		}
		if view.SwapCount, err = s.store.CountSwapsByChannel(ctx, *swap.ChannelID); err != nil {
			return Result{}, fmt.Errorf("count swaps of channel: %w", err)
		}
	}

	if err := s.complete(ctx, view); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Found, View: view}, nil
}

// complete loads the egress side of the view, projects the status and attaches fees.
func (s *Service) complete(ctx context.Context, view *View) error {
	var err error
	if view.Swap != nil && view.Swap.EgressID != nil {
		if view.Egress, err = s.store.GetEgressByID(ctx, *view.Swap.EgressID); err != nil {
			return fmt.Errorf("get egress of swap %d: %w", view.Swap.NativeID, err)
		}
	}
	if view.Egress != nil && view.Egress.BroadcastID != nil {
		if view.Broadcast, err = s.effectiveBroadcast(ctx, *view.Egress.BroadcastID); err != nil {
			return err
		}
	}

	view.Status, err = Project(Snapshot{
		Channel:   view.Channel,
		Swap:      view.Swap,
		Egress:    view.Egress,
		Broadcast: view.Broadcast,
	})
	if err != nil {
		return err
	}

	view.Fees, err = s.swapFees(view)
	return err
}

// effectiveBroadcast follows replacements to the broadcast currently in charge.
// Egresses are relinked on replacement, so this normally stops at the first hop.
func (s *Service) effectiveBroadcast(ctx context.Context, id int64) (*domain.Broadcast, error) {
	b, err := s.store.GetBroadcastByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get broadcast %d: %w", id, err)
	}
	for hops := 0; b.ReplacedByID != nil; hops++ {
		if hops == maxReplacementHops {
			return nil, fmt.Errorf("%w: broadcast %d replacement chain too long", ErrInconsistent, id)
		}
		if b, err = s.store.GetBroadcastByID(ctx, *b.ReplacedByID); err != nil {
			return nil, fmt.Errorf("get replacement broadcast: %w", err)
		}
	}
	return b, nil
}

func (s *Service) swapFees(view *View) ([]domain.SwapFee, error) {
	swap := view.Swap
	if s.calc == nil || swap == nil || !swap.IsExecuted() {
		return nil, nil
	}

	egressAmount := swap.SwapOutputAmount
	if view.Egress != nil {
		egressAmount = view.Egress.Amount
	}

	out, err := s.calc.ComputeSwapFees(swap.SrcAsset, swap.DestAsset, swap.DepositAmount, swap.IntermediateAmount, egressAmount)
	if errors.Is(err, fees.ErrUnknownPool) {
		s.logger.Debug("no fee schedule for pool", zap.Uint64("swap_id", swap.NativeID), zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fees of swap %d: %w", swap.NativeID, err)
	}
	return out, nil
}
