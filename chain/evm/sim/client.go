package sim

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Client reads from and writes to a Backend. It implements the go-ethereum client interfaces
// used by contract bindings (bind.ContractBackend and bind.DeployBackend).
type Client struct {
	b *Backend
}

// Backend returns the ledger the client is connected to.
func (c *Client) Backend() *Backend {
	return c.b
}

// blockLocked resolves number to a sealed block. A nil or negative number means the head.
func (b *Backend) blockLocked(number *big.Int) (*types.Block, error) {
	if number == nil || number.Sign() < 0 {
		return b.head(), nil
	}
	if !number.IsUint64() || number.Uint64() >= uint64(len(b.blocks)) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, number)
	}

	return b.blocks[number.Uint64()], nil
}

func (b *Backend) blockByHashLocked(hash common.Hash) (*types.Block, bool) {
	for i := len(b.blocks) - 1; i >= 0; i-- {
		if b.blocks[i].Hash() == hash {
			return b.blocks[i], true
		}
	}

	return nil, false
}

// stateLocked resolves number to the state after that block. A nil or negative number means the
// latest sealed state.
func (b *Backend) stateLocked(number *big.Int) (*stateDB, error) {
	block, err := b.blockLocked(number)
	if err != nil {
		return nil, err
	}

	return b.states[block.NumberU64()], nil
}

// callLocked executes msg against state without persisting any change. It returns the output and
// the gas used.
func (b *Backend) callLocked(msg ethereum.CallMsg, state *stateDB, bctx blockContext) ([]byte, uint64, error) {
	gas := msg.Gas
	if gas == 0 || gas > bctx.gasLimit {
		gas = bctx.gasLimit
	}
	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}

	isCreate := msg.To == nil
	intrinsic := intrinsicGas(msg.Data, msg.AccessList, isCreate)
	if gas < intrinsic {
		return nil, 0, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, gas, intrinsic)
	}
	if state.getBalance(msg.From).Cmp(value) < 0 {
		return nil, 0, fmt.Errorf("%w: address %s", ErrInsufficientFunds, msg.From.Hex())
	}

	e := newEVM(state, b.registry, bctx, msg.From, gas)
	_ = e.gas.consume(intrinsic)

	var (
		out []byte
		err error
	)
	if isCreate {
		nonce := state.getNonce(msg.From)
		state.setNonce(msg.From, nonce+1)
		_, err = e.create(msg.From, nonce, msg.Data, value)
	} else {
		e.warmAccounts[*msg.To] = struct{}{}
		out, err = e.call(msg.From, *msg.To, msg.Data, value, false)
	}

	return out, e.gas.used, err
}

// ChainID returns the chain ID of the ledger.
func (c *Client) ChainID(context.Context) (*big.Int, error) {
	return c.b.ChainID(), nil
}

// BlockNumber returns the number of the most recent sealed block.
func (c *Client) BlockNumber(context.Context) (uint64, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	return c.b.head().NumberU64(), nil
}

// HeaderByNumber returns the header of a sealed block. A nil number means the latest block.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	block, err := c.BlockByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	return block.Header(), nil
}

// HeaderByHash returns the header of a sealed block.
func (c *Client) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	block, err := c.BlockByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	return block.Header(), nil
}

// BlockByNumber returns a sealed block. A nil number means the latest block.
func (c *Client) BlockByNumber(_ context.Context, number *big.Int) (*types.Block, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	block, err := c.b.blockLocked(number)
	if err != nil {
		return nil, ethereum.NotFound
	}

	return block, nil
}

// BlockByHash returns a sealed block.
func (c *Client) BlockByHash(_ context.Context, hash common.Hash) (*types.Block, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	block, ok := c.b.blockByHashLocked(hash)
	if !ok {
		return nil, ethereum.NotFound
	}

	return block, nil
}

// BalanceAt returns the wei balance of account at the given block.
func (c *Client) BalanceAt(_ context.Context, account common.Address, number *big.Int) (*big.Int, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	state, err := c.b.stateLocked(number)
	if err != nil {
		return nil, err
	}

	return state.getBalance(account), nil
}

// NonceAt returns the nonce of account at the given block.
func (c *Client) NonceAt(_ context.Context, account common.Address, number *big.Int) (uint64, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	state, err := c.b.stateLocked(number)
	if err != nil {
		return 0, err
	}

	return state.getNonce(account), nil
}

// CodeAt returns the code of contract at the given block.
func (c *Client) CodeAt(_ context.Context, contract common.Address, number *big.Int) ([]byte, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	state, err := c.b.stateLocked(number)
	if err != nil {
		return nil, err
	}

	return append([]byte{}, state.getCode(contract)...), nil
}

// StorageAt returns the value of a storage slot of account at the given block.
func (c *Client) StorageAt(_ context.Context, account common.Address, key common.Hash, number *big.Int) ([]byte, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	state, err := c.b.stateLocked(number)
	if err != nil {
		return nil, err
	}

	return state.getState(account, key).Bytes(), nil
}

// PendingStorageAt returns the value of a storage slot of account in the pending state.
func (c *Client) PendingStorageAt(_ context.Context, account common.Address, key common.Hash) ([]byte, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	return c.b.pending.getState(account, key).Bytes(), nil
}

// PendingBalanceAt returns the wei balance of account in the pending state.
func (c *Client) PendingBalanceAt(_ context.Context, account common.Address) (*big.Int, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	return c.b.pending.getBalance(account), nil
}

// PendingNonceAt returns the nonce of account in the pending state.
func (c *Client) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	return c.b.pending.getNonce(account), nil
}

// PendingCodeAt returns the code of contract in the pending state.
func (c *Client) PendingCodeAt(_ context.Context, contract common.Address) ([]byte, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	return append([]byte{}, c.b.pending.getCode(contract)...), nil
}

// CallContract executes a message call against the state at the given block. A reverting call
// returns a *RevertError.
func (c *Client) CallContract(_ context.Context, msg ethereum.CallMsg, number *big.Int) ([]byte, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	block, err := c.b.blockLocked(number)
	if err != nil {
		return nil, err
	}
	header := block.Header()
	bctx := blockContext{
		number:   header.Number,
		time:     header.Time,
		coinbase: header.Coinbase,
		gasLimit: header.GasLimit,
		baseFee:  header.BaseFee,
	}
	out, _, err := c.b.callLocked(msg, c.b.states[block.NumberU64()].copy(), bctx)

	return out, err
}

// PendingCallContract executes a message call against the pending state.
func (c *Client) PendingCallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	out, _, err := c.b.callLocked(msg, c.b.pending.copy(), c.b.pendingBlockContext())

	return out, err
}

// EstimateGas returns the gas msg consumes when executed against the pending state.
func (c *Client) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	_, used, err := c.b.callLocked(msg, c.b.pending.copy(), c.b.pendingBlockContext())
	if err != nil {
		return 0, err
	}

	return used, nil
}

// SuggestGasPrice returns the base fee plus the suggested tip.
func (c *Client) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Add(c.b.opts.baseFee, DefaultGasTipCap), nil
}

// SuggestGasTipCap returns the suggested priority fee.
func (c *Client) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(DefaultGasTipCap), nil
}

// SendTransaction executes tx on top of the pending block. A transaction that reverts is still
// accepted and included with a failed receipt.
func (c *Client) SendTransaction(_ context.Context, tx *types.Transaction) error {
	return c.b.sendTransaction(tx)
}

// TransactionReceipt returns the receipt of a sealed transaction, or ethereum.NotFound while the
// transaction is unknown or pending.
func (c *Client) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	receipt, ok := c.b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}

	return receipt, nil
}

// TransactionByHash returns a known transaction and whether it is still pending.
func (c *Client) TransactionByHash(_ context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	lookup, ok := c.b.txs[txHash]
	if !ok {
		return nil, false, ethereum.NotFound
	}

	return lookup.tx, lookup.blockHash == (common.Hash{}), nil
}

// FilterLogs returns the sealed logs matching q.
func (c *Client) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.b.mu.RLock()
	defer c.b.mu.RUnlock()

	return c.b.filterLogsLocked(q)
}

// SubscribeFilterLogs streams the logs matching q as blocks are sealed. The block range of q is
// ignored.
func (c *Client) SubscribeFilterLogs(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	sink := make(chan []*types.Log, 16)
	sub := c.b.logsFeed.Subscribe(sink)

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case logs := <-sink:
				for _, l := range filterLogs(logs, q.Addresses, q.Topics) {
					select {
					case ch <- l:
					case <-quit:
						return nil
					}
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// SubscribeNewHead streams the headers of sealed blocks.
func (c *Client) SubscribeNewHead(_ context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	return c.b.headFeed.Subscribe(ch), nil
}

// Commit seals the pending block.
func (c *Client) Commit() common.Hash {
	return c.b.Commit()
}

// Close is a no-op, the ledger is closed by its owner.
func (*Client) Close() {}
