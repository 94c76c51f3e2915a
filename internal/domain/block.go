package domain

import (
	"encoding/json"
	"time"
)

// RawEvent is an undecoded event as delivered by the chain-state source.
type RawEvent struct {
	IndexInBlock uint32          // position of the event within its block
	Name         string          // "<Pallet>.<Event>"
	Args         json.RawMessage // already deserialized from the chain wire encoding
}

// Block is one batch delivered by the chain-state source.
type Block struct {
	Height      uint64
	Hash        string
	Timestamp   time.Time
	SpecVersion uint32
	Events      []RawEvent
}

// ArchivedEvent is a raw event kept in the append-only archive.
// Corresponds to raw_events table in ClickHouse.
type ArchivedEvent struct {
	EventID      string // deterministic hash of (pipeline, height, index)
	Pipeline     string // ingestion pipeline name
	BlockHeight  uint64
	BlockHash    string
	BlockTime    time.Time
	IndexInBlock uint32
	Name         string
	Args         string // JSON text
}
