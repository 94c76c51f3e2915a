package domain

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
)

// SwapDepositChannel is an ephemeral deposit address issued for a swap intent.
// Corresponds to swap_deposit_channels table in PostgreSQL.
// Natural key: (issued_block, src_chain, channel_id).
type SwapDepositChannel struct {
	ID                    int64        // BIGSERIAL primary key
	IssuedBlock           uint64       // state chain block that opened the channel
	SrcChain              Chain        // chain the deposit address lives on
	ChannelID             uint64       // chain-assigned channel id, unique per src chain
	SrcAsset              Asset        // asset to deposit
	DestAsset             Asset        // asset to receive
	DestAddress           string       // payout address on the destination chain
	DepositAddress        string       // address the user deposits into
	ExpectedDepositAmount *uint256.Int // optional hint supplied by the broker
	ExpiryBlock           uint64       // channel expires once height >= ExpiryBlock
	IsExpired             bool         // flips to true exactly once
	IssuedAt              time.Time    // timestamp of IssuedBlock
	Pipeline              string       // ingestion pipeline whose heights drive expiry
}

// CompositeID returns the public "{issuedBlock}-{srcChain}-{channelId}" identifier.
func (c *SwapDepositChannel) CompositeID() string {
	return ChannelCompositeID(c.IssuedBlock, c.SrcChain, c.ChannelID)
}

// ChannelCompositeID formats a channel identifier.
func ChannelCompositeID(issuedBlock uint64, srcChain Chain, channelID uint64) string {
	return fmt.Sprintf("%d-%s-%d", issuedBlock, srcChain, channelID)
}
