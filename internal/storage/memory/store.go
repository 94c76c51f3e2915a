package memory

import (
	"context"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
// Transactions are serialized and work on a private copy of the state that
// replaces the committed state only when the transaction function succeeds.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore creates a new in-memory entity store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// WithTx runs fn against a snapshot and commits it if fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{state: s.st.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = tx.state
	return nil
}

func (s *Store) GetChannel(ctx context.Context, issuedBlock uint64, srcChain domain.Chain, channelID uint64) (*domain.SwapDepositChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetChannel(ctx, issuedBlock, srcChain, channelID)
}

func (s *Store) GetChannelByID(ctx context.Context, id int64) (*domain.SwapDepositChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetChannelByID(ctx, id)
}

func (s *Store) GetSwapByNativeID(ctx context.Context, nativeID uint64) (*domain.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetSwapByNativeID(ctx, nativeID)
}

func (s *Store) GetSwapByTxHash(ctx context.Context, txHash string) (*domain.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetSwapByTxHash(ctx, txHash)
}

func (s *Store) GetLatestSwapByChannel(ctx context.Context, channelID int64) (*domain.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetLatestSwapByChannel(ctx, channelID)
}

func (s *Store) CountSwapsByChannel(ctx context.Context, channelID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.CountSwapsByChannel(ctx, channelID)
}

func (s *Store) GetEgressByID(ctx context.Context, id int64) (*domain.Egress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetEgressByID(ctx, id)
}

func (s *Store) GetBroadcastByID(ctx context.Context, id int64) (*domain.Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetBroadcastByID(ctx, id)
}

func (s *Store) GetWatermark(ctx context.Context, pipeline string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetWatermark(ctx, pipeline)
}

type channelKey struct {
	issuedBlock uint64
	srcChain    domain.Chain
	channelID   uint64
}

type chainKey struct {
	chain    domain.Chain
	nativeID uint64
}

// state holds all entities. Stored structs are never mutated in place once a
// transaction has committed; writes replace them with updated copies.
type state struct {
	nextID        int64
	channels      map[int64]*domain.SwapDepositChannel
	channelKeys   map[channelKey]int64
	swaps         map[int64]*domain.Swap
	swapsByNative map[uint64]int64
	egresses      map[int64]*domain.Egress
	egressKeys    map[chainKey]int64
	broadcasts    map[int64]*domain.Broadcast
	broadcastKeys map[chainKey]int64
	watermarks    map[string]uint64
}

func newState() *state {
	return &state{
		channels:      make(map[int64]*domain.SwapDepositChannel),
		channelKeys:   make(map[channelKey]int64),
		swaps:         make(map[int64]*domain.Swap),
		swapsByNative: make(map[uint64]int64),
		egresses:      make(map[int64]*domain.Egress),
		egressKeys:    make(map[chainKey]int64),
		broadcasts:    make(map[int64]*domain.Broadcast),
		broadcastKeys: make(map[chainKey]int64),
		watermarks:    make(map[string]uint64),
	}
}

func (st *state) clone() *state {
	return &state{
		nextID:        st.nextID,
		channels:      cloneMap(st.channels),
		channelKeys:   cloneMap(st.channelKeys),
		swaps:         cloneMap(st.swaps),
		swapsByNative: cloneMap(st.swapsByNative),
		egresses:      cloneMap(st.egresses),
		egressKeys:    cloneMap(st.egressKeys),
		broadcasts:    cloneMap(st.broadcasts),
		broadcastKeys: cloneMap(st.broadcastKeys),
		watermarks:    cloneMap(st.watermarks),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *state) newID() int64 {
	st.nextID++
	return st.nextID
}

func (st *state) GetChannel(_ context.Context, issuedBlock uint64, srcChain domain.Chain, channelID uint64) (*domain.SwapDepositChannel, error) {
	id, ok := st.channelKeys[channelKey{issuedBlock, srcChain, channelID}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *st.channels[id]
	return &c, nil
}

func (st *state) GetChannelByID(_ context.Context, id int64) (*domain.SwapDepositChannel, error) {
	c, ok := st.channels[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (st *state) GetSwapByNativeID(_ context.Context, nativeID uint64) (*domain.Swap, error) {
	id, ok := st.swapsByNative[nativeID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	s := *st.swaps[id]
	return &s, nil
}

func (st *state) GetSwapByTxHash(_ context.Context, txHash string) (*domain.Swap, error) {
	var latest *domain.Swap
	for _, s := range st.swaps {
		if s.TxHash != "" && s.TxHash == txHash && (latest == nil || s.ID > latest.ID) {
			latest = s
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (st *state) GetLatestSwapByChannel(_ context.Context, channelID int64) (*domain.Swap, error) {
	var latest *domain.Swap
	for _, s := range st.swaps {
		if s.ChannelID != nil && *s.ChannelID == channelID && (latest == nil || s.NativeID > latest.NativeID) {
			latest = s
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (st *state) CountSwapsByChannel(_ context.Context, channelID int64) (int, error) {
	n := 0
	for _, s := range st.swaps {
		if s.ChannelID != nil && *s.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (st *state) GetEgressByID(_ context.Context, id int64) (*domain.Egress, error) {
	e, ok := st.egresses[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (st *state) GetBroadcastByID(_ context.Context, id int64) (*domain.Broadcast, error) {
	b, ok := st.broadcasts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (st *state) GetWatermark(_ context.Context, pipeline string) (uint64, error) {
	h, ok := st.watermarks[pipeline]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return h, nil
}

// txn implements storage.Tx on a private copy of the state.
type txn struct {
	*state
}

var _ storage.Tx = (*txn)(nil)

func (t *txn) InsertChannel(_ context.Context, c *domain.SwapDepositChannel) error {
	if c == nil || !c.SrcChain.IsValid() {
		return storage.ErrInvalidInput
	}
	key := channelKey{c.IssuedBlock, c.SrcChain, c.ChannelID}
	if id, ok := t.channelKeys[key]; ok {
		c.ID = id
		return nil
	}
	c.ID = t.newID()
	cp := *c
	t.channels[c.ID] = &cp
	t.channelKeys[key] = c.ID
	return nil
}

func (t *txn) FindLatestChannel(_ context.Context, srcChain domain.Chain, channelID uint64) (*domain.SwapDepositChannel, error) {
	var latest *domain.SwapDepositChannel
	for _, c := range t.channels {
		if c.SrcChain == srcChain && c.ChannelID == channelID && (latest == nil || c.IssuedBlock > latest.IssuedBlock) {
			latest = c
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (t *txn) ExpireChannels(_ context.Context, pipeline string, height uint64) (int, error) {
	n := 0
	for id, c := range t.channels {
		if c.IsExpired || c.Pipeline != pipeline || c.ExpiryBlock > height {
			continue
		}
		cp := *c
		cp.IsExpired = true
		t.channels[id] = &cp
		n++
	}
	return n, nil
}

func (t *txn) InsertSwap(_ context.Context, s *domain.Swap) error {
	if s == nil {
		return storage.ErrInvalidInput
	}
	if id, ok := t.swapsByNative[s.NativeID]; ok {
		s.ID = id
		return nil
	}
	s.ID = t.newID()
	cp := *s
	t.swaps[s.ID] = &cp
	t.swapsByNative[s.NativeID] = s.ID
	return nil
}

func (t *txn) MarkSwapExecuted(_ context.Context, swapID int64, intermediate, output *uint256.Int, at time.Time, blockIndex string) (bool, error) {
	s, ok := t.swaps[swapID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if s.SwapExecutedAt != nil {
		return false, nil
	}
	cp := *s
	cp.IntermediateAmount = intermediate
	cp.SwapOutputAmount = output
	cp.SwapExecutedAt = &at
	cp.SwapExecutedBlockIndex = blockIndex
	t.swaps[swapID] = &cp
	return true, nil
}

func (t *txn) SetSwapEgress(_ context.Context, swapID, egressID int64) error {
	s, ok := t.swaps[swapID]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := t.egresses[egressID]; !ok {
		return storage.ErrNotFound
	}
	cp := *s
	cp.EgressID = &egressID
	t.swaps[swapID] = &cp
	return nil
}

func (t *txn) InsertEgress(_ context.Context, e *domain.Egress) error {
	if e == nil || !e.Chain.IsValid() {
		return storage.ErrInvalidInput
	}
	key := chainKey{e.Chain, e.NativeID}
	if id, ok := t.egressKeys[key]; ok {
		e.ID = id
		return nil
	}
	e.ID = t.newID()
	cp := *e
	t.egresses[e.ID] = &cp
	t.egressKeys[key] = e.ID
	return nil
}

func (t *txn) GetEgress(_ context.Context, chain domain.Chain, nativeID uint64) (*domain.Egress, error) {
	id, ok := t.egressKeys[chainKey{chain, nativeID}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t.egresses[id]
	return &cp, nil
}

func (t *txn) LinkEgresses(_ context.Context, egressIDs []int64, broadcastID int64) error {
	if _, ok := t.broadcasts[broadcastID]; !ok {
		return storage.ErrNotFound
	}
	for _, id := range egressIDs {
		e, ok := t.egresses[id]
		if !ok {
			return storage.ErrNotFound
		}
		cp := *e
		bid := broadcastID
		cp.BroadcastID = &bid
		t.egresses[id] = &cp
	}
	return nil
}

func (t *txn) InsertBroadcast(_ context.Context, b *domain.Broadcast) error {
	if b == nil || !b.Chain.IsValid() {
		return storage.ErrInvalidInput
	}
	key := chainKey{b.Chain, b.NativeID}
	if id, ok := t.broadcastKeys[key]; ok {
		b.ID = id
		return nil
	}
	b.ID = t.newID()
	cp := *b
	t.broadcasts[b.ID] = &cp
	t.broadcastKeys[key] = b.ID
	return nil
}

func (t *txn) GetBroadcast(_ context.Context, chain domain.Chain, nativeID uint64) (*domain.Broadcast, error) {
	id, ok := t.broadcastKeys[chainKey{chain, nativeID}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t.broadcasts[id]
	return &cp, nil
}

func (t *txn) MarkBroadcastSucceeded(_ context.Context, broadcastID int64, at time.Time, blockIndex string) (bool, error) {
	b, ok := t.broadcasts[broadcastID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if b.IsFinal() {
		return false, nil
	}
	cp := *b
	cp.SucceededAt = &at
	cp.SucceededBlockIndex = blockIndex
	t.broadcasts[broadcastID] = &cp
	return true, nil
}

func (t *txn) MarkBroadcastAborted(_ context.Context, broadcastID int64, at time.Time, blockIndex string) (bool, error) {
	b, ok := t.broadcasts[broadcastID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if b.IsFinal() {
		return false, nil
	}
	cp := *b
	cp.AbortedAt = &at
	cp.AbortedBlockIndex = blockIndex
	t.broadcasts[broadcastID] = &cp
	return true, nil
}

func (t *txn) ReplaceBroadcast(_ context.Context, oldID, newID int64) (int, error) {
	old, ok := t.broadcasts[oldID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if _, ok := t.broadcasts[newID]; !ok {
		return 0, storage.ErrNotFound
	}
	if old.ReplacedByID == nil {
		cp := *old
		cp.ReplacedByID = &newID
		t.broadcasts[oldID] = &cp
	}

	relinked := 0
	for id, e := range t.egresses {
		if e.BroadcastID != nil && *e.BroadcastID == oldID {
			cp := *e
			bid := newID
			cp.BroadcastID = &bid
			t.egresses[id] = &cp
			relinked++
		}
	}
	return relinked, nil
}

func (t *txn) SetWatermark(_ context.Context, pipeline string, height uint64) error {
	if pipeline == "" {
		return storage.ErrInvalidInput
	}
	t.watermarks[pipeline] = height
	return nil
}
