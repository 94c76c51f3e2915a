package ingestion

import (
	"context"
	"time"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/events"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// BlockSource streams blocks with height >= from in increasing order.
	// Blocks may be re-delivered; the channel is closed when the source stops.
	BlockSource interface {
		Subscribe(ctx context.Context, from uint64) (<-chan *domain.Block, error)
	}

	// EventDecoder turns raw block events into typed events.
	EventDecoder interface {
		IsTracked(name string) bool
		DecodeBlock(b *domain.Block) ([]events.Decoded, error)
	}

	// Metrics records ingestion metrics of one pipeline.
	Metrics interface {
		ObserveBlock(err error, started time.Time)
		ObserveEvent(name string)
		ObserveEffects(channelsExpired, broadcastsReplaced, eventsIgnored int)
		ObserveDuplicate()
		ObserveFailure(reason string)
		SetWatermark(height uint64)
		ObserveArchive(err error)
	}
)

type nopMetrics struct{}

func (nopMetrics) ObserveBlock(error, time.Time) {}
func (nopMetrics) ObserveEvent(string) {}
func (nopMetrics) ObserveEffects(int, int, int) {}
func (nopMetrics) ObserveDuplicate() {}
func (nopMetrics) ObserveFailure(string) {}
func (nopMetrics) SetWatermark(uint64) {}
func (nopMetrics) ObserveArchive(error) {}
