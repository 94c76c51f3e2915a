package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/addresses"
	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/statechain"
	"crosschain-swap-indexer/internal/status"
)

// SwapResponse is the JSON view of a swap lookup.
type SwapResponse struct {
	Status             domain.SwapStatus `json:"status"`
	SwapID             string            `json:"swapId,omitempty"`
	TxHash             string            `json:"txHash,omitempty"`
	SrcAsset           domain.Asset      `json:"srcAsset"`
	DestAsset          domain.Asset      `json:"destAsset"`
	DestAddress        string            `json:"destAddress"`
	DepositAmount      *AmountJSON       `json:"depositAmount,omitempty"`
	DepositReceived    *StampJSON        `json:"depositReceived,omitempty"`
	SwapExecuted       *StampJSON        `json:"swapExecuted,omitempty"`
	IntermediateAmount *AmountJSON       `json:"intermediateAmount,omitempty"`
	SwapOutputAmount   *AmountJSON       `json:"swapOutputAmount,omitempty"`
	DepositChannel     *ChannelJSON      `json:"depositChannel,omitempty"`
	Egress             *EgressJSON       `json:"egress,omitempty"`
	Broadcast          *BroadcastJSON    `json:"broadcast,omitempty"`
	Fees               []FeeJSON         `json:"fees,omitempty"`
}

// AmountJSON carries base units next to the human-readable amount.
type AmountJSON struct {
	Asset     domain.Asset `json:"asset"`
	BaseUnits string       `json:"baseUnits"`
	Formatted string       `json:"formatted"`
}

// StampJSON is a block timestamp with its "<height>-<index>" position.
type StampJSON struct {
	At         time.Time `json:"at"`
	BlockIndex string    `json:"blockIndex"`
}

// ChannelJSON describes the deposit channel a swap came through.
type ChannelJSON struct {
	ID                    string      `json:"id"`
	DepositAddress        string      `json:"depositAddress"`
	ExpectedDepositAmount *AmountJSON `json:"expectedDepositAmount,omitempty"`
	ExpiryBlock           uint64      `json:"expiryBlock"`
	IsExpired             bool        `json:"isExpired"`
	SwapCount             int         `json:"swapCount"`
}

// EgressJSON describes the payout of a swap.
type EgressJSON struct {
	ID        uint64       `json:"id"`
	Chain     domain.Chain `json:"chain"`
	Amount    *AmountJSON  `json:"amount"`
	Scheduled StampJSON    `json:"scheduled"`
}

// BroadcastJSON describes the effective broadcast of an egress.
type BroadcastJSON struct {
	ID        uint64               `json:"id"`
	Type      domain.BroadcastType `json:"type"`
	Requested StampJSON            `json:"requested"`
	Succeeded *StampJSON           `json:"succeeded,omitempty"`
	Aborted   *StampJSON           `json:"aborted,omitempty"`
}

// FeeJSON is one fee line.
type FeeJSON struct {
	Type   domain.FeeType `json:"type"`
	Amount *AmountJSON    `json:"amount"`
}

func amountJSON(asset domain.Asset, v *uint256.Int) *AmountJSON {
	if v == nil {
		return nil
	}
	return &AmountJSON{
		Asset:     asset,
		BaseUnits: domain.AmountString(v),
		Formatted: domain.FormatAmount(asset, v),
	}
}

func stampJSON(at *time.Time, index string) *StampJSON {
	if at == nil {
		return nil
	}
	return &StampJSON{At: at.UTC(), BlockIndex: index}
}

func newSwapResponse(v *status.View, settlement domain.Asset) SwapResponse {
	resp := SwapResponse{Status: v.Status}

	if ch := v.Channel; ch != nil {
		resp.SrcAsset = ch.SrcAsset
		resp.DestAsset = ch.DestAsset
		resp.DestAddress = ch.DestAddress
		resp.DepositChannel = &ChannelJSON{
			ID:                    ch.CompositeID(),
			DepositAddress:        ch.DepositAddress,
			ExpectedDepositAmount: amountJSON(ch.SrcAsset, ch.ExpectedDepositAmount),
			ExpiryBlock:           ch.ExpiryBlock,
			IsExpired:             ch.IsExpired,
			SwapCount:             v.SwapCount,
		}
	}

	if sw := v.Swap; sw != nil {
		resp.SwapID = strconv.FormatUint(sw.NativeID, 10)
		resp.TxHash = sw.TxHash
		resp.SrcAsset = sw.SrcAsset
		resp.DestAsset = sw.DestAsset
		resp.DestAddress = sw.DestAddress
		resp.DepositAmount = amountJSON(sw.SrcAsset, sw.DepositAmount)
		received := sw.DepositReceivedAt
		resp.DepositReceived = stampJSON(&received, sw.DepositReceivedBlockIndex)
		resp.SwapExecuted = stampJSON(sw.SwapExecutedAt, sw.SwapExecutedBlockIndex)
		resp.SwapOutputAmount = amountJSON(sw.DestAsset, sw.SwapOutputAmount)
		resp.IntermediateAmount = amountJSON(settlement, sw.IntermediateAmount)
	}

	if eg := v.Egress; eg != nil {
		scheduled := eg.ScheduledAt
		resp.Egress = &EgressJSON{
			ID:        eg.NativeID,
			Chain:     eg.Chain,
			Amount:    amountJSON(eg.Asset, eg.Amount),
			Scheduled: *stampJSON(&scheduled, eg.ScheduledBlockIndex),
		}
	}

	if b := v.Broadcast; b != nil {
		requested := b.RequestedAt
		resp.Broadcast = &BroadcastJSON{
			ID:        b.NativeID,
			Type:      b.Type,
			Requested: *stampJSON(&requested, b.RequestedBlockIndex),
			Succeeded: stampJSON(b.SucceededAt, b.SucceededBlockIndex),
			Aborted:   stampJSON(b.AbortedAt, b.AbortedBlockIndex),
		}
	}

	for _, f := range v.Fees {
		resp.Fees = append(resp.Fees, FeeJSON{Type: f.Type, Amount: amountJSON(f.Asset, f.Amount)})
	}
	return resp
}

func (s *Server) getSwap(c *gin.Context) {
	id := c.Param("id")

	res, err := s.lookup.Lookup(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("swap lookup failed", zap.String("id", id), zap.Error(err))
		abort(c, http.StatusInternalServerError, "internal error")
		return
	}

	switch res.Outcome {
	case status.Found:
		c.JSON(http.StatusOK, newSwapResponse(res.View, s.settlement))
	case status.NotFound:
		abort(c, http.StatusNotFound, "resource not found")
	default:
		abort(c, http.StatusBadRequest, "invalid request id")
	}
}

// OpenChannelRequest is the body of POST /swaps.
type OpenChannelRequest struct {
	SrcAsset      string `json:"srcAsset" binding:"required"`
	DestAsset     string `json:"destAsset" binding:"required"`
	DestAddress   string `json:"destAddress" binding:"required"`
	CommissionBps uint16 `json:"commissionBps"`
}

// OpenChannelResponse is returned for an opened deposit channel.
type OpenChannelResponse struct {
	ID             string `json:"id"`
	DepositAddress string `json:"depositAddress"`
	IssuedBlock    uint64 `json:"issuedBlock"`
	ExpiryBlock    uint64 `json:"srcChainExpiryBlock,omitempty"`
	DestAddress    string `json:"destAddress"`
}

// maxCommissionBps caps the broker commission at 10%.
const maxCommissionBps = 1000

func (s *Server) openChannel(c *gin.Context) {
	var body OpenChannelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	src, err := domain.ParseAsset(body.SrcAsset)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	dest, err := domain.ParseAsset(body.DestAsset)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if src == dest {
		abort(c, http.StatusBadRequest, "source and destination asset must differ")
		return
	}
	if body.CommissionBps > maxCommissionBps {
		abort(c, http.StatusBadRequest, "commission too high")
		return
	}

	address, err := s.addresses.Validate(dest.Chain(), body.DestAddress)
	if errors.Is(err, addresses.ErrInvalidAddress) {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("address validation failed", zap.Error(err))
		abort(c, http.StatusInternalServerError, "internal error")
		return
	}

	var channel *statechain.DepositChannel
	err = s.locks.WithLock(s.brokerAccount, func() error {
		var reqErr error
		channel, reqErr = s.opener.RequestSwapDepositAddress(c.Request.Context(), statechain.DepositAddressRequest{
			SrcAsset:      src,
			DestAsset:     dest,
			DestAddress:   address,
			CommissionBps: body.CommissionBps,
		})
		return reqErr
	})
	if err != nil {
		s.logger.Error("open deposit channel failed",
			zap.String("src_asset", src.String()),
			zap.String("dest_asset", dest.String()),
			zap.Error(err),
		)
		abort(c, http.StatusBadGateway, "broker unavailable")
		return
	}

	s.logger.Info("deposit channel opened", zap.String("id", channel.CompositeID()))
	c.JSON(http.StatusOK, OpenChannelResponse{
		ID:             channel.CompositeID(),
		DepositAddress: channel.DepositAddress,
		IssuedBlock:    channel.IssuedBlock,
		ExpiryBlock:    channel.ExpiryBlock,
		DestAddress:    address,
	})
}
