package sim

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

const (
	// DefaultChainID is the chain ID of a ledger created without WithChainID. It matches the
	// chain ID of the go-ethereum simulated backend.
	DefaultChainID = 1337
	// DefaultBlockGasLimit is the gas limit of every block.
	DefaultBlockGasLimit uint64 = 30_000_000
)

var (
	// DefaultBaseFee is the constant base fee of every block.
	DefaultBaseFee = big.NewInt(params.GWei)
	// DefaultGasTipCap is the priority fee suggested to clients.
	DefaultGasTipCap = big.NewInt(params.GWei)
)

type options struct {
	chainID       *big.Int
	blockGasLimit uint64
	baseFee       *big.Int
	autoMine      bool
	blockTime     time.Duration
	genesisTime   uint64
	lggr          logger.Logger
	contracts     []Contract
}

// Option configures a Backend.
type Option func(*options)

// WithChainID sets the chain ID of the ledger.
func WithChainID(id *big.Int) Option {
	return func(o *options) {
		o.chainID = new(big.Int).Set(id)
	}
}

// WithBlockGasLimit sets the gas limit of every block.
func WithBlockGasLimit(limit uint64) Option {
	return func(o *options) {
		o.blockGasLimit = limit
	}
}

// WithBaseFee sets the constant base fee of every block.
func WithBaseFee(fee *big.Int) Option {
	return func(o *options) {
		o.baseFee = new(big.Int).Set(fee)
	}
}

// WithAutoMine controls whether every accepted transaction is mined into its own block. Auto
// mining is enabled by default.
func WithAutoMine(enabled bool) Option {
	return func(o *options) {
		o.autoMine = enabled
	}
}

// WithBlockTime makes the ledger seal a block at a fixed interval. It disables auto mining.
func WithBlockTime(d time.Duration) Option {
	return func(o *options) {
		o.blockTime = d
		o.autoMine = false
	}
}

// WithGenesisTime sets the timestamp of the genesis block.
func WithGenesisTime(ts uint64) Option {
	return func(o *options) {
		o.genesisTime = ts
	}
}

// WithLogger sets the logger of the ledger.
func WithLogger(lggr logger.Logger) Option {
	return func(o *options) {
		o.lggr = lggr
	}
}

// WithContracts registers the native contracts the ledger can execute.
func WithContracts(contracts ...Contract) Option {
	return func(o *options) {
		o.contracts = append(o.contracts, contracts...)
	}
}

type txLookup struct {
	tx          *types.Transaction
	blockHash   common.Hash
	blockNumber uint64
	index       uint
}

// Backend is an in-memory EVM compatible ledger executing native contracts. It keeps the full
// history of blocks, receipts and states, and exposes it through a go-ethereum compatible client
// (Client) and JSON-RPC server (NewRPCServer).
//
// Transactions are executed against the pending block when they are sent, so pending nonces, code
// and logs are visible before the block is sealed by Commit.
type Backend struct {
	mu sync.RWMutex

	opts     options
	lggr     logger.Logger
	registry *Registry
	signer   types.Signer

	blocks   []*types.Block
	states   []*stateDB
	receipts map[common.Hash]*types.Receipt
	txs      map[common.Hash]txLookup

	pending         *stateDB
	pendingTxs      []*types.Transaction
	pendingReceipts []*types.Receipt
	pendingGasUsed  uint64
	timeShift       uint64

	logsFeed  event.Feed
	headFeed  event.Feed
	closed    bool
	closeOnce sync.Once
	quit      chan struct{}
	wg        sync.WaitGroup
}

// NewBackend creates a ledger whose genesis state holds alloc.
func NewBackend(alloc types.GenesisAlloc, opts ...Option) *Backend {
	o := options{
		chainID:       big.NewInt(DefaultChainID),
		blockGasLimit: DefaultBlockGasLimit,
		baseFee:       new(big.Int).Set(DefaultBaseFee),
		autoMine:      true,
		genesisTime:   uint64(time.Now().Unix()), //nolint:gosec // timestamps are positive
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lggr == nil {
		o.lggr = logger.Nop()
	}

	b := &Backend{
		opts:     o,
		lggr:     o.lggr.Named("sim"),
		registry: NewRegistry(o.contracts...),
		signer:   types.LatestSignerForChainID(o.chainID),
		receipts: make(map[common.Hash]*types.Receipt),
		txs:      make(map[common.Hash]txLookup),
		quit:     make(chan struct{}),
	}

	genesis := newStateDB()
	for addr, acc := range alloc {
		if acc.Balance != nil {
			genesis.setBalance(addr, acc.Balance)
		}
		genesis.setNonce(addr, acc.Nonce)
		if len(acc.Code) > 0 {
			genesis.setCode(addr, acc.Code)
		}
		for k, v := range acc.Storage {
			genesis.setState(addr, k, v)
		}
	}
	genesis.finalise()

	header := &types.Header{
		ParentHash: common.Hash{},
		Coinbase:   common.Address{},
		Root:       genesis.root(),
		Number:     new(big.Int),
		GasLimit:   o.blockGasLimit,
		Time:       o.genesisTime,
		Difficulty: new(big.Int),
		BaseFee:    new(big.Int).Set(o.baseFee),
		Extra:      []byte{},
	}
	b.blocks = append(b.blocks, types.NewBlock(header, &types.Body{}, nil, trie.NewStackTrie(nil)))
	b.states = append(b.states, genesis)
	b.pending = genesis.copy()

	if o.blockTime > 0 {
		b.wg.Add(1)
		go b.mineLoop(o.blockTime)
	}

	return b
}

// Registry returns the native contracts registry of the ledger.
func (b *Backend) Registry() *Registry {
	return b.registry
}

// ChainID returns the chain ID of the ledger.
func (b *Backend) ChainID() *big.Int {
	return new(big.Int).Set(b.opts.chainID)
}

// Signer returns the transaction signer of the ledger.
func (b *Backend) Signer() types.Signer {
	return b.signer
}

// Client returns a go-ethereum compatible client reading from and writing to the ledger.
func (b *Backend) Client() *Client {
	return &Client{b: b}
}

func (b *Backend) mineLoop(interval time.Duration) {
	defer b.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.quit:
			return
		case <-ticker.C:
			b.Commit()
		}
	}
}

// Close stops the block production loop. Further transactions are rejected.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		close(b.quit)
	})
	b.wg.Wait()

	return nil
}

// Commit seals the pending block and returns its hash.
func (b *Backend) Commit() common.Hash {
	b.mu.Lock()
	block, logs := b.commitLocked()
	b.mu.Unlock()

	b.headFeed.Send(block.Header())
	if len(logs) > 0 {
		b.logsFeed.Send(logs)
	}

	return block.Hash()
}

// Rollback discards the transactions of the pending block.
func (b *Backend) Rollback() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, tx := range b.pendingTxs {
		delete(b.txs, tx.Hash())
	}
	b.pending = b.states[len(b.states)-1].copy()
	b.pendingTxs = nil
	b.pendingReceipts = nil
	b.pendingGasUsed = 0
}

// AdjustTime shifts the timestamp of the next block by d. It fails when the pending block already
// holds transactions, since they were executed with the current timestamp.
func (b *Backend) AdjustTime(d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pendingTxs) > 0 {
		return ErrNonEmptyBlock
	}
	if d < 0 {
		return fmt.Errorf("cannot move time backwards by %s", d)
	}
	b.timeShift += uint64(d / time.Second)

	return nil
}

func (b *Backend) head() *types.Block {
	return b.blocks[len(b.blocks)-1]
}

// pendingBlockContext returns the context of the block being built.
func (b *Backend) pendingBlockContext() blockContext {
	head := b.head().Header()
	ts := head.Time + 1 + b.timeShift

	return blockContext{
		number:   new(big.Int).Add(head.Number, common.Big1),
		time:     ts,
		gasLimit: b.opts.blockGasLimit,
		baseFee:  new(big.Int).Set(b.opts.baseFee),
	}
}

func (b *Backend) commitLocked() (*types.Block, []*types.Log) {
	parent := b.head()
	bctx := b.pendingBlockContext()

	header := &types.Header{
		ParentHash: parent.Hash(),
		Coinbase:   bctx.coinbase,
		Root:       b.pending.root(),
		Number:     bctx.number,
		GasLimit:   bctx.gasLimit,
		GasUsed:    b.pendingGasUsed,
		Time:       bctx.time,
		Difficulty: new(big.Int),
		BaseFee:    bctx.baseFee,
		Extra:      []byte{},
	}
	block := types.NewBlock(header, &types.Body{Transactions: b.pendingTxs}, b.pendingReceipts, trie.NewStackTrie(nil))
	hash := block.Hash()

	var logs []*types.Log
	for i, receipt := range b.pendingReceipts {
		receipt.BlockHash = hash
		receipt.BlockNumber = new(big.Int).Set(bctx.number)
		for _, l := range receipt.Logs {
			l.BlockHash = hash
			l.BlockNumber = bctx.number.Uint64()
			logs = append(logs, l)
		}
		tx := b.pendingTxs[i]
		b.receipts[tx.Hash()] = receipt
		b.txs[tx.Hash()] = txLookup{tx: tx, blockHash: hash, blockNumber: bctx.number.Uint64(), index: uint(i)} //nolint:gosec // index is bounded by block size
	}

	b.blocks = append(b.blocks, block)
	b.states = append(b.states, b.pending)
	b.pending = b.pending.copy()
	b.pendingTxs = nil
	b.pendingReceipts = nil
	b.pendingGasUsed = 0
	b.timeShift = 0

	b.lggr.Debugw("Sealed block",
		"number", block.NumberU64(), "hash", hash.Hex(), "txs", len(block.Transactions()), "gasUsed", block.GasUsed(),
	)

	return block, logs
}

// intrinsicGas returns the gas charged before any execution of a transaction.
func intrinsicGas(data []byte, accessList types.AccessList, isCreate bool) uint64 {
	gas := params.TxGas
	if isCreate {
		gas = params.TxGasContractCreation
	}

	var nz uint64
	for _, byt := range data {
		if byt != 0 {
			nz++
		}
	}
	z := uint64(len(data)) - nz
	gas += nz*params.TxDataNonZeroGasEIP2028 + z*params.TxDataZeroGas
	if isCreate {
		gas += (uint64(len(data)) + 31) / 32 * params.InitCodeWordGas
	}

	gas += uint64(len(accessList)) * params.TxAccessListAddressGas
	gas += uint64(accessList.StorageKeys()) * params.TxAccessListStorageKeyGas //nolint:gosec // storage key count is small

	return gas
}

// effectiveGasPrice returns the price paid per unit of gas by tx under baseFee.
func effectiveGasPrice(tx *types.Transaction, baseFee *big.Int) *big.Int {
	price := new(big.Int).Add(baseFee, tx.GasTipCap())
	if price.Cmp(tx.GasFeeCap()) > 0 {
		price.Set(tx.GasFeeCap())
	}

	return price
}

// validateTx checks tx against the pending state without executing it.
func (b *Backend) validateTx(tx *types.Transaction) (common.Address, error) {
	if _, known := b.txs[tx.Hash()]; known {
		return common.Address{}, ErrAlreadyKnown
	}
	if tx.ChainId().Sign() != 0 && tx.ChainId().Cmp(b.opts.chainID) != 0 {
		return common.Address{}, fmt.Errorf("invalid chain id %s, expected %s", tx.ChainId(), b.opts.chainID)
	}

	from, err := types.Sender(b.signer, tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid sender: %w", err)
	}

	nonce := b.pending.getNonce(from)
	switch {
	case tx.Nonce() < nonce:
		return from, fmt.Errorf("%w: address %s, tx: %d state: %d", ErrNonceTooLow, from.Hex(), tx.Nonce(), nonce)
	case tx.Nonce() > nonce:
		return from, fmt.Errorf("%w: address %s, tx: %d state: %d", ErrNonceTooHigh, from.Hex(), tx.Nonce(), nonce)
	}

	if gas := intrinsicGas(tx.Data(), tx.AccessList(), tx.To() == nil); tx.Gas() < gas {
		return from, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.Gas(), gas)
	}
	if b.pendingGasUsed+tx.Gas() > b.opts.blockGasLimit {
		return from, ErrGasLimitReached
	}
	if tx.GasTipCap().Cmp(tx.GasFeeCap()) > 0 {
		return from, ErrTipAboveFeeCap
	}
	if tx.GasFeeCap().Cmp(b.opts.baseFee) < 0 {
		return from, fmt.Errorf("%w: address %s, maxFeePerGas: %s, baseFee: %s",
			ErrFeeCapTooLow, from.Hex(), tx.GasFeeCap(), b.opts.baseFee)
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), tx.GasFeeCap())
	cost.Add(cost, tx.Value())
	if balance := b.pending.getBalance(from); balance.Cmp(cost) < 0 {
		return from, fmt.Errorf("%w: address %s have %s want %s", ErrInsufficientFunds, from.Hex(), balance, cost)
	}

	return from, nil
}

// sendTransaction validates tx and executes it on top of the pending block.
func (b *Backend) sendTransaction(tx *types.Transaction) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBackendClosed
	}

	from, err := b.validateTx(tx)
	if err != nil {
		b.mu.Unlock()
		return err
	}

	receipt := b.applyTransaction(from, tx)
	b.pendingTxs = append(b.pendingTxs, tx)
	b.pendingReceipts = append(b.pendingReceipts, receipt)
	b.txs[tx.Hash()] = txLookup{tx: tx}

	b.lggr.Debugw("Accepted transaction",
		"hash", tx.Hash().Hex(), "from", from.Hex(), "nonce", tx.Nonce(), "status", receipt.Status, "gasUsed", receipt.GasUsed,
	)

	if !b.opts.autoMine {
		b.mu.Unlock()
		return nil
	}

	block, logs := b.commitLocked()
	b.mu.Unlock()

	b.headFeed.Send(block.Header())
	if len(logs) > 0 {
		b.logsFeed.Send(logs)
	}

	return nil
}

// applyTransaction executes a validated transaction against the pending state.
func (b *Backend) applyTransaction(from common.Address, tx *types.Transaction) *types.Receipt {
	state := b.pending
	bctx := b.pendingBlockContext()
	price := effectiveGasPrice(tx, bctx.baseFee)

	state.subBalance(from, new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), price))
	state.setNonce(from, tx.Nonce()+1)
	state.finalise()

	e := newEVM(state, b.registry, bctx, from, tx.Gas())
	if tx.To() != nil {
		e.warmAccounts[*tx.To()] = struct{}{}
	}
	// intrinsic gas was checked during validation
	_ = e.gas.consume(intrinsicGas(tx.Data(), tx.AccessList(), tx.To() == nil))

	receipt := &types.Receipt{
		Type:              tx.Type(),
		TxHash:            tx.Hash(),
		EffectiveGasPrice: new(big.Int).Set(price),
		TransactionIndex:  uint(len(b.pendingTxs)),
		Logs:              []*types.Log{},
	}

	var execErr error
	if tx.To() == nil {
		receipt.ContractAddress, execErr = e.create(from, tx.Nonce(), tx.Data(), tx.Value())
	} else {
		_, execErr = e.call(from, *tx.To(), tx.Data(), tx.Value(), false)
	}
	if isVMError(execErr) {
		e.gas.used = e.gas.limit
	}

	receipt.Status = types.ReceiptStatusSuccessful
	if execErr != nil {
		receipt.Status = types.ReceiptStatusFailed
		var revertErr *RevertError
		if !errors.As(execErr, &revertErr) {
			b.lggr.Debugw("Transaction failed", "hash", tx.Hash().Hex(), "err", execErr)
		}
	}

	// refund unused gas and pay the tip, the base fee is burnt
	state.addBalance(from, new(big.Int).Mul(new(big.Int).SetUint64(e.gas.remaining()), price))
	tip := new(big.Int).Sub(price, bctx.baseFee)
	state.addBalance(bctx.coinbase, tip.Mul(tip, new(big.Int).SetUint64(e.gas.used)))

	b.pendingGasUsed += e.gas.used
	receipt.GasUsed = e.gas.used
	receipt.CumulativeGasUsed = b.pendingGasUsed

	logIndex := uint(0)
	for _, r := range b.pendingReceipts {
		logIndex += uint(len(r.Logs))
	}
	for _, l := range state.takeLogs() {
		l.TxHash = tx.Hash()
		l.TxIndex = receipt.TransactionIndex
		l.Index = logIndex
		logIndex++
		receipt.Logs = append(receipt.Logs, l)
	}
	receipt.Bloom = logsBloom(receipt.Logs)
	state.finalise()

	return receipt
}

func logsBloom(logs []*types.Log) types.Bloom {
	var bloom types.Bloom
	for _, l := range logs {
		bloom.Add(l.Address.Bytes())
		for _, topic := range l.Topics {
			bloom.Add(topic.Bytes())
		}
	}

	return bloom
}
