package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(pipeline|block_hash|block_height|index_in_block)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(
	pipeline string,
	blockHash string,
	blockHeight uint64,
	indexInBlock uint32,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		pipeline,
		blockHash,
		blockHeight,
		indexInBlock,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
