package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage"
)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	reader
	pool *Pool
}

// NewStore creates a new Store.
func NewStore(pool *Pool) *Store {
	return &Store{reader: reader{q: pool}, pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*txn)(nil)
)

// WithTx runs fn in a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txn{reader: reader{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const channelColumns = `
	id, issued_block, src_chain, channel_id, src_asset, dest_asset, dest_address,
	deposit_address, expected_deposit_amount::text, expiry_block, is_expired, issued_at, pipeline`

const swapColumns = `
	id, native_id, channel_id, COALESCE(tx_hash, ''), src_asset, dest_asset, dest_address,
	deposit_amount::text, deposit_received_at, deposit_received_block_index,
	intermediate_amount::text, swap_output_amount::text, swap_executed_at,
	COALESCE(swap_executed_block_index, ''), egress_id`

const egressColumns = `
	id, native_id, chain, asset, amount::text, scheduled_at, scheduled_block_index, broadcast_id`

const broadcastColumns = `
	id, chain, native_id, type, requested_at, requested_block_index,
	succeeded_at, COALESCE(succeeded_block_index, ''),
	aborted_at, COALESCE(aborted_block_index, ''), replaced_by_id`

// reader implements storage.Reader on a pool or a transaction.
type reader struct {
	q querier
}

func (r reader) GetChannel(ctx context.Context, issuedBlock uint64, srcChain domain.Chain, channelID uint64) (*domain.SwapDepositChannel, error) {
	row := r.q.QueryRow(ctx, `SELECT `+channelColumns+`
		FROM swap_deposit_channels
		WHERE issued_block = $1 AND src_chain = $2 AND channel_id = $3
	`, issuedBlock, string(srcChain), channelID)
	return scanChannel(row)
}

func (r reader) GetChannelByID(ctx context.Context, id int64) (*domain.SwapDepositChannel, error) {
	row := r.q.QueryRow(ctx, `SELECT `+channelColumns+` FROM swap_deposit_channels WHERE id = $1`, id)
	return scanChannel(row)
}

func (r reader) GetSwapByNativeID(ctx context.Context, nativeID uint64) (*domain.Swap, error) {
	row := r.q.QueryRow(ctx, `SELECT `+swapColumns+` FROM swaps WHERE native_id = $1`, nativeID)
	return scanSwap(row)
}

func (r reader) GetSwapByTxHash(ctx context.Context, txHash string) (*domain.Swap, error) {
	row := r.q.QueryRow(ctx, `SELECT `+swapColumns+`
		FROM swaps
		WHERE tx_hash = $1
		ORDER BY id DESC
		LIMIT 1
	`, txHash)
	return scanSwap(row)
}

func (r reader) GetLatestSwapByChannel(ctx context.Context, channelID int64) (*domain.Swap, error) {
	row := r.q.QueryRow(ctx, `SELECT `+swapColumns+`
		FROM swaps
		WHERE channel_id = $1
		ORDER BY native_id DESC
		LIMIT 1
	`, channelID)
	return scanSwap(row)
}

func (r reader) CountSwapsByChannel(ctx context.Context, channelID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM swaps WHERE channel_id = $1`, channelID).Scan(&n)
	if err != nil {
		return 0, translateError("count swaps", err)
	}
	return n, nil
}

func (r reader) GetEgressByID(ctx context.Context, id int64) (*domain.Egress, error) {
	row := r.q.QueryRow(ctx, `SELECT `+egressColumns+` FROM egresses WHERE id = $1`, id)
	return scanEgress(row)
}

func (r reader) GetBroadcastByID(ctx context.Context, id int64) (*domain.Broadcast, error) {
	row := r.q.QueryRow(ctx, `SELECT `+broadcastColumns+` FROM broadcasts WHERE id = $1`, id)
	return scanBroadcast(row)
}

func (r reader) GetWatermark(ctx context.Context, pipeline string) (uint64, error) {
	var height uint64
	err := r.q.QueryRow(ctx, `SELECT height FROM pipeline_watermarks WHERE pipeline = $1`, pipeline).Scan(&height)
	if err != nil {
		return 0, translateError("get watermark", err)
	}
	return height, nil
}

// txn implements storage.Tx on a pgx transaction.
type txn struct {
	reader
}

// InsertChannel inserts a channel or resolves the id of the existing one.
func (t *txn) InsertChannel(ctx context.Context, c *domain.SwapDepositChannel) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	err := t.q.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO swap_deposit_channels (
				issued_block, src_chain, channel_id, src_asset, dest_asset, dest_address,
				deposit_address, expected_deposit_amount, expiry_block, is_expired, issued_at, pipeline
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (issued_block, src_chain, channel_id) DO NOTHING
			RETURNING id
		)
		SELECT id FROM ins
		UNION ALL
		SELECT id FROM swap_deposit_channels
		WHERE issued_block = $1 AND src_chain = $2 AND channel_id = $3
		LIMIT 1
	`,
		c.IssuedBlock,
		string(c.SrcChain),
		c.ChannelID,
		string(c.SrcAsset),
		string(c.DestAsset),
		c.DestAddress,
		c.DepositAddress,
		amountArg(c.ExpectedDepositAmount),
		c.ExpiryBlock,
		c.IsExpired,
		c.IssuedAt,
		c.Pipeline,
	).Scan(&c.ID)
	return translateError("insert channel", err)
}

func (t *txn) FindLatestChannel(ctx context.Context, srcChain domain.Chain, channelID uint64) (*domain.SwapDepositChannel, error) {
	row := t.q.QueryRow(ctx, `SELECT `+channelColumns+`
		FROM swap_deposit_channels
		WHERE src_chain = $1 AND channel_id = $2
		ORDER BY issued_block DESC
		LIMIT 1
	`, string(srcChain), channelID)
	return scanChannel(row)
}

func (t *txn) ExpireChannels(ctx context.Context, pipeline string, height uint64) (int, error) {
	tag, err := t.q.Exec(ctx, `
		UPDATE swap_deposit_channels
		SET is_expired = TRUE
		WHERE NOT is_expired AND pipeline = $1 AND expiry_block <= $2
	`, pipeline, height)
	if err != nil {
		return 0, translateError("expire channels", err)
	}
	return int(tag.RowsAffected()), nil
}

// InsertSwap inserts a swap or resolves the id of the existing one.
func (t *txn) InsertSwap(ctx context.Context, s *domain.Swap) error {
	if s == nil {
		return storage.ErrInvalidInput
	}

	err := t.q.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO swaps (
				native_id, channel_id, tx_hash, src_asset, dest_asset, dest_address,
				deposit_amount, deposit_received_at, deposit_received_block_index
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (native_id) DO NOTHING
			RETURNING id
		)
		SELECT id FROM ins
		UNION ALL
		SELECT id FROM swaps WHERE native_id = $1
		LIMIT 1
	`,
		s.NativeID,
		s.ChannelID,
		nullString(s.TxHash),
		string(s.SrcAsset),
		string(s.DestAsset),
		s.DestAddress,
		amountArg(s.DepositAmount),
		s.DepositReceivedAt,
		s.DepositReceivedBlockIndex,
	).Scan(&s.ID)
	return translateError("insert swap", err)
}

func (t *txn) MarkSwapExecuted(ctx context.Context, swapID int64, intermediate, output *uint256.Int, at time.Time, blockIndex string) (bool, error) {
	tag, err := t.q.Exec(ctx, `
		UPDATE swaps
		SET intermediate_amount = $2,
		    swap_output_amount = $3,
		    swap_executed_at = $4,
		    swap_executed_block_index = $5
		WHERE id = $1 AND swap_executed_at IS NULL
	`, swapID, amountArg(intermediate), amountArg(output), at, blockIndex)
	if err != nil {
		return false, translateError("mark swap executed", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	return false, t.mustExist(ctx, "swaps", swapID)
}

func (t *txn) SetSwapEgress(ctx context.Context, swapID, egressID int64) error {
	tag, err := t.q.Exec(ctx, `UPDATE swaps SET egress_id = $2 WHERE id = $1`, swapID, egressID)
	if err != nil {
		return translateError("set swap egress", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// InsertEgress inserts an egress or resolves the id of the existing one.
func (t *txn) InsertEgress(ctx context.Context, e *domain.Egress) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	err := t.q.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO egresses (
				native_id, chain, asset, amount, scheduled_at, scheduled_block_index, broadcast_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (chain, native_id) DO NOTHING
			RETURNING id
		)
		SELECT id FROM ins
		UNION ALL
		SELECT id FROM egresses WHERE chain = $2 AND native_id = $1
		LIMIT 1
	`,
		e.NativeID,
		string(e.Chain),
		string(e.Asset),
		amountArg(e.Amount),
		e.ScheduledAt,
		e.ScheduledBlockIndex,
		e.BroadcastID,
	).Scan(&e.ID)
	return translateError("insert egress", err)
}

func (t *txn) GetEgress(ctx context.Context, chain domain.Chain, nativeID uint64) (*domain.Egress, error) {
	row := t.q.QueryRow(ctx, `SELECT `+egressColumns+`
		FROM egresses
		WHERE chain = $1 AND native_id = $2
	`, string(chain), nativeID)
	return scanEgress(row)
}

func (t *txn) LinkEgresses(ctx context.Context, egressIDs []int64, broadcastID int64) error {
	if len(egressIDs) == 0 {
		return nil
	}
	tag, err := t.q.Exec(ctx, `UPDATE egresses SET broadcast_id = $1 WHERE id = ANY($2)`, broadcastID, egressIDs)
	if err != nil {
		return translateError("link egresses", err)
	}
	if int(tag.RowsAffected()) != len(egressIDs) {
		return fmt.Errorf("link egresses: %w", storage.ErrNotFound)
	}
	return nil
}

// InsertBroadcast inserts a broadcast or resolves the id of the existing one.
func (t *txn) InsertBroadcast(ctx context.Context, b *domain.Broadcast) error {
	if b == nil {
		return storage.ErrInvalidInput
	}

	err := t.q.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO broadcasts (
				chain, native_id, type, requested_at, requested_block_index
			) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (chain, native_id) DO NOTHING
			RETURNING id
		)
		SELECT id FROM ins
		UNION ALL
		SELECT id FROM broadcasts WHERE chain = $1 AND native_id = $2
		LIMIT 1
	`,
		string(b.Chain),
		b.NativeID,
		string(b.Type),
		b.RequestedAt,
		b.RequestedBlockIndex,
	).Scan(&b.ID)
	return translateError("insert broadcast", err)
}

func (t *txn) GetBroadcast(ctx context.Context, chain domain.Chain, nativeID uint64) (*domain.Broadcast, error) {
	row := t.q.QueryRow(ctx, `SELECT `+broadcastColumns+`
		FROM broadcasts
		WHERE chain = $1 AND native_id = $2
	`, string(chain), nativeID)
	return scanBroadcast(row)
}

func (t *txn) MarkBroadcastSucceeded(ctx context.Context, broadcastID int64, at time.Time, blockIndex string) (bool, error) {
	tag, err := t.q.Exec(ctx, `
		UPDATE broadcasts
		SET succeeded_at = $2, succeeded_block_index = $3
		WHERE id = $1 AND succeeded_at IS NULL AND aborted_at IS NULL
	`, broadcastID, at, blockIndex)
	if err != nil {
		return false, translateError("mark broadcast succeeded", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	return false, t.mustExist(ctx, "broadcasts", broadcastID)
}

func (t *txn) MarkBroadcastAborted(ctx context.Context, broadcastID int64, at time.Time, blockIndex string) (bool, error) {
	tag, err := t.q.Exec(ctx, `
		UPDATE broadcasts
		SET aborted_at = $2, aborted_block_index = $3
		WHERE id = $1 AND succeeded_at IS NULL AND aborted_at IS NULL
	`, broadcastID, at, blockIndex)
	if err != nil {
		return false, translateError("mark broadcast aborted", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	return false, t.mustExist(ctx, "broadcasts", broadcastID)
}

func (t *txn) ReplaceBroadcast(ctx context.Context, oldID, newID int64) (int, error) {
	if err := t.mustExist(ctx, "broadcasts", oldID); err != nil {
		return 0, err
	}
	if err := t.mustExist(ctx, "broadcasts", newID); err != nil {
		return 0, err
	}

	_, err := t.q.Exec(ctx, `
		UPDATE broadcasts SET replaced_by_id = $2
		WHERE id = $1 AND replaced_by_id IS NULL
	`, oldID, newID)
	if err != nil {
		return 0, translateError("set replaced_by", err)
	}

	tag, err := t.q.Exec(ctx, `UPDATE egresses SET broadcast_id = $2 WHERE broadcast_id = $1`, oldID, newID)
	if err != nil {
		return 0, translateError("relink egresses", err)
	}
	return int(tag.RowsAffected()), nil
}

func (t *txn) SetWatermark(ctx context.Context, pipeline string, height uint64) error {
	if pipeline == "" {
		return storage.ErrInvalidInput
	}

	_, err := t.q.Exec(ctx, `
		INSERT INTO pipeline_watermarks (pipeline, height, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (pipeline) DO UPDATE
		SET height = EXCLUDED.height,
		    updated_at = NOW()
	`, pipeline, height)
	return translateError("set watermark", err)
}

// mustExist returns ErrNotFound unless a row with id exists in table.
// table is always a package constant.
func (t *txn) mustExist(ctx context.Context, table string, id int64) error {
	var exists bool
	err := t.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return translateError("check "+table, err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return nil
}

func scanChannel(row pgx.Row) (*domain.SwapDepositChannel, error) {
	var (
		c        domain.SwapDepositChannel
		expected *string
	)
	err := row.Scan(
		&c.ID,
		&c.IssuedBlock,
		&c.SrcChain,
		&c.ChannelID,
		&c.SrcAsset,
		&c.DestAsset,
		&c.DestAddress,
		&c.DepositAddress,
		&expected,
		&c.ExpiryBlock,
		&c.IsExpired,
		&c.IssuedAt,
		&c.Pipeline,
	)
	if err != nil {
		return nil, translateError("scan channel", err)
	}
	if c.ExpectedDepositAmount, err = scanAmount(expected); err != nil {
		return nil, fmt.Errorf("channel %d expected amount: %w", c.ID, err)
	}
	return &c, nil
}

func scanSwap(row pgx.Row) (*domain.Swap, error) {
	var (
		s                    domain.Swap
		deposit              string
		intermediate, output *string
	)
	err := row.Scan(
		&s.ID,
		&s.NativeID,
		&s.ChannelID,
		&s.TxHash,
		&s.SrcAsset,
		&s.DestAsset,
		&s.DestAddress,
		&deposit,
		&s.DepositReceivedAt,
		&s.DepositReceivedBlockIndex,
		&intermediate,
		&output,
		&s.SwapExecutedAt,
		&s.SwapExecutedBlockIndex,
		&s.EgressID,
	)
	if err != nil {
		return nil, translateError("scan swap", err)
	}

	if s.DepositAmount, err = domain.ParseAmount(deposit); err != nil {
		return nil, fmt.Errorf("swap %d deposit amount: %w", s.NativeID, err)
	}
	if s.IntermediateAmount, err = scanAmount(intermediate); err != nil {
		return nil, fmt.Errorf("swap %d intermediate amount: %w", s.NativeID, err)
	}
	if s.SwapOutputAmount, err = scanAmount(output); err != nil {
		return nil, fmt.Errorf("swap %d output amount: %w", s.NativeID, err)
	}
	return &s, nil
}

func scanEgress(row pgx.Row) (*domain.Egress, error) {
	var (
		e      domain.Egress
		amount string
	)
	err := row.Scan(
		&e.ID,
		&e.NativeID,
		&e.Chain,
		&e.Asset,
		&amount,
		&e.ScheduledAt,
		&e.ScheduledBlockIndex,
		&e.BroadcastID,
	)
	if err != nil {
		return nil, translateError("scan egress", err)
	}
	if e.Amount, err = domain.ParseAmount(amount); err != nil {
		return nil, fmt.Errorf("egress %d amount: %w", e.NativeID, err)
	}
	return &e, nil
}

func scanBroadcast(row pgx.Row) (*domain.Broadcast, error) {
	var b domain.Broadcast
	err := row.Scan(
		&b.ID,
		&b.Chain,
		&b.NativeID,
		&b.Type,
		&b.RequestedAt,
		&b.RequestedBlockIndex,
		&b.SucceededAt,
		&b.SucceededBlockIndex,
		&b.AbortedAt,
		&b.AbortedBlockIndex,
		&b.ReplacedByID,
	)
	if err != nil {
		return nil, translateError("scan broadcast", err)
	}
	return &b, nil
}
