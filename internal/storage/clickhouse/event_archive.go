package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage"
)

// EventArchive implements storage.EventArchive using ClickHouse.
// raw_events is a ReplacingMergeTree keyed by event id, so re-archiving a
// block after a retry collapses on merge; reads use FINAL.
type EventArchive struct {
	conn *Conn
}

// NewEventArchive creates a new EventArchive.
func NewEventArchive(conn *Conn) *EventArchive {
	return &EventArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.EventArchive = (*EventArchive)(nil)

// InsertBulk appends events in a single batch.
func (a *EventArchive) InsertBulk(ctx context.Context, events []*domain.ArchivedEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO raw_events (
			event_id, pipeline, block_height, block_hash, block_time, index_in_block, name, args
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		if e == nil || e.EventID == "" {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			e.EventID, e.Pipeline, e.BlockHeight, e.BlockHash,
			e.BlockTime, e.IndexInBlock, e.Name, e.Args,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByBlock retrieves the archived events of a block ordered by index in block.
func (a *EventArchive) GetByBlock(ctx context.Context, pipeline string, height uint64) ([]*domain.ArchivedEvent, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT event_id, pipeline, block_height, block_hash, block_time, index_in_block, name, args
		FROM raw_events FINAL
		WHERE pipeline = ? AND block_height = ?
		ORDER BY index_in_block ASC
	`, pipeline, height)
	if err != nil {
		return nil, fmt.Errorf("query raw events: %w", err)
	}
	defer rows.Close()

	return scanArchived(rows)
}

// GetByHeightRange retrieves events with from <= height <= to ordered by (height, index).
func (a *EventArchive) GetByHeightRange(ctx context.Context, pipeline string, from, to uint64) ([]*domain.ArchivedEvent, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT event_id, pipeline, block_height, block_hash, block_time, index_in_block, name, args
		FROM raw_events FINAL
		WHERE pipeline = ? AND block_height >= ? AND block_height <= ?
		ORDER BY block_height ASC, index_in_block ASC
	`, pipeline, from, to)
	if err != nil {
		return nil, fmt.Errorf("query raw events: %w", err)
	}
	defer rows.Close()

	return scanArchived(rows)
}

func scanArchived(rows driver.Rows) ([]*domain.ArchivedEvent, error) {
	var result []*domain.ArchivedEvent
	for rows.Next() {
		var e domain.ArchivedEvent
		if err := rows.Scan(
			&e.EventID, &e.Pipeline, &e.BlockHeight, &e.BlockHash,
			&e.BlockTime, &e.IndexInBlock, &e.Name, &e.Args,
		); err != nil {
			return nil, fmt.Errorf("scan raw event: %w", err)
		}
		result = append(result, &e)
	}

	return result, rows.Err()
}
