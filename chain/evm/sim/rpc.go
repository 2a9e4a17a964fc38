package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// NewRPCServer returns a JSON-RPC server exposing the ledger through the eth namespace methods
// used by ethclient, plus the evm_mine and evm_increaseTime development methods. The server can
// be mounted as an HTTP handler or dialed in process with rpc.DialInProc.
func NewRPCServer(b *Backend) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethAPI{b: b, c: b.Client()}); err != nil {
		return nil, fmt.Errorf("failed to register eth api: %w", err)
	}
	if err := srv.RegisterName("evm", &evmAPI{b: b}); err != nil {
		return nil, fmt.Errorf("failed to register evm api: %w", err)
	}
	if err := srv.RegisterName("net", &netAPI{b: b}); err != nil {
		return nil, fmt.Errorf("failed to register net api: %w", err)
	}

	return srv, nil
}

// blockNumberArg converts an rpc block number to the client convention where nil is the latest
// block.
func blockNumberArg(n rpc.BlockNumber) *big.Int {
	if n < 0 {
		return nil
	}

	return big.NewInt(n.Int64())
}

type callArgs struct {
	From                 *common.Address  `json:"from"`
	To                   *common.Address  `json:"to"`
	Gas                  *hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big     `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big     `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big     `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big     `json:"value"`
	Data                 *hexutil.Bytes   `json:"data"`
	Input                *hexutil.Bytes   `json:"input"`
	AccessList           types.AccessList `json:"accessList"`
}

func (args callArgs) toMsg() ethereum.CallMsg {
	var msg ethereum.CallMsg
	if args.From != nil {
		msg.From = *args.From
	}
	msg.To = args.To
	if args.Gas != nil {
		msg.Gas = uint64(*args.Gas)
	}
	msg.GasPrice = (*big.Int)(args.GasPrice)
	msg.GasFeeCap = (*big.Int)(args.MaxFeePerGas)
	msg.GasTipCap = (*big.Int)(args.MaxPriorityFeePerGas)
	msg.Value = (*big.Int)(args.Value)
	switch {
	case args.Input != nil:
		msg.Data = *args.Input
	case args.Data != nil:
		msg.Data = *args.Data
	}
	msg.AccessList = args.AccessList

	return msg
}

type filterCriteria struct {
	BlockHash *common.Hash      `json:"blockHash"`
	FromBlock *rpc.BlockNumber  `json:"fromBlock"`
	ToBlock   *rpc.BlockNumber  `json:"toBlock"`
	Addresses json.RawMessage   `json:"address"`
	Topics    []json.RawMessage `json:"topics"`
}

var jsonNull = []byte("null")

func (crit filterCriteria) toQuery() (ethereum.FilterQuery, error) {
	q := ethereum.FilterQuery{BlockHash: crit.BlockHash}
	if crit.FromBlock != nil {
		q.FromBlock = blockNumberArg(*crit.FromBlock)
	}
	if crit.ToBlock != nil {
		q.ToBlock = blockNumberArg(*crit.ToBlock)
	}

	raw := bytes.TrimSpace(crit.Addresses)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, jsonNull):
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &q.Addresses); err != nil {
			return q, fmt.Errorf("invalid address list: %w", err)
		}
	default:
		var addr common.Address
		if err := json.Unmarshal(raw, &addr); err != nil {
			return q, fmt.Errorf("invalid address: %w", err)
		}
		q.Addresses = []common.Address{addr}
	}

	for i, topic := range crit.Topics {
		raw := bytes.TrimSpace(topic)
		switch {
		case len(raw) == 0 || bytes.Equal(raw, jsonNull):
			q.Topics = append(q.Topics, nil)
		case raw[0] == '[':
			var hashes []common.Hash
			if err := json.Unmarshal(raw, &hashes); err != nil {
				return q, fmt.Errorf("invalid topics at position %d: %w", i, err)
			}
			q.Topics = append(q.Topics, hashes)
		default:
			var hash common.Hash
			if err := json.Unmarshal(raw, &hash); err != nil {
				return q, fmt.Errorf("invalid topic at position %d: %w", i, err)
			}
			q.Topics = append(q.Topics, []common.Hash{hash})
		}
	}

	return q, nil
}

// mergeJSON marshals v and adds extra fields to the resulting object.
func mergeJSON(v any, extra map[string]any) (map[string]json.RawMessage, error) {
	enc, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(enc, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[k] = raw
	}

	return fields, nil
}

type ethAPI struct {
	b *Backend
	c *Client
}

func (api *ethAPI) ChainId() *hexutil.Big { //nolint:revive // json-rpc method name
	return (*hexutil.Big)(api.b.ChainID())
}

func (api *ethAPI) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	n, err := api.c.BlockNumber(ctx)
	return hexutil.Uint64(n), err
}

func (api *ethAPI) GasPrice(ctx context.Context) (*hexutil.Big, error) {
	price, err := api.c.SuggestGasPrice(ctx)
	return (*hexutil.Big)(price), err
}

func (api *ethAPI) MaxPriorityFeePerGas(ctx context.Context) (*hexutil.Big, error) {
	tip, err := api.c.SuggestGasTipCap(ctx)
	return (*hexutil.Big)(tip), err
}

func (api *ethAPI) GetBalance(ctx context.Context, addr common.Address, number rpc.BlockNumber) (*hexutil.Big, error) {
	if number == rpc.PendingBlockNumber {
		balance, err := api.c.PendingBalanceAt(ctx, addr)
		return (*hexutil.Big)(balance), err
	}
	balance, err := api.c.BalanceAt(ctx, addr, blockNumberArg(number))

	return (*hexutil.Big)(balance), err
}

func (api *ethAPI) GetTransactionCount(ctx context.Context, addr common.Address, number rpc.BlockNumber) (hexutil.Uint64, error) {
	if number == rpc.PendingBlockNumber {
		nonce, err := api.c.PendingNonceAt(ctx, addr)
		return hexutil.Uint64(nonce), err
	}
	nonce, err := api.c.NonceAt(ctx, addr, blockNumberArg(number))

	return hexutil.Uint64(nonce), err
}

func (api *ethAPI) GetCode(ctx context.Context, addr common.Address, number rpc.BlockNumber) (hexutil.Bytes, error) {
	if number == rpc.PendingBlockNumber {
		return api.c.PendingCodeAt(ctx, addr)
	}

	return api.c.CodeAt(ctx, addr, blockNumberArg(number))
}

func (api *ethAPI) GetStorageAt(ctx context.Context, addr common.Address, key common.Hash, number rpc.BlockNumber) (hexutil.Bytes, error) {
	if number == rpc.PendingBlockNumber {
		return api.c.PendingStorageAt(ctx, addr, key)
	}

	return api.c.StorageAt(ctx, addr, key, blockNumberArg(number))
}

func (api *ethAPI) Call(ctx context.Context, args callArgs, number *rpc.BlockNumber) (hexutil.Bytes, error) {
	if number != nil && *number == rpc.PendingBlockNumber {
		return api.c.PendingCallContract(ctx, args.toMsg())
	}

	var n *big.Int
	if number != nil {
		n = blockNumberArg(*number)
	}

	return api.c.CallContract(ctx, args.toMsg(), n)
}

func (api *ethAPI) EstimateGas(ctx context.Context, args callArgs, _ *rpc.BlockNumber) (hexutil.Uint64, error) {
	gas, err := api.c.EstimateGas(ctx, args.toMsg())
	return hexutil.Uint64(gas), err
}

func (api *ethAPI) SendRawTransaction(ctx context.Context, input hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(input); err != nil {
		return common.Hash{}, fmt.Errorf("invalid transaction: %w", err)
	}
	if err := api.c.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, err
	}

	return tx.Hash(), nil
}

func (api *ethAPI) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := api.c.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil //nolint:nilnil // null result for unknown receipts
	}

	return receipt, err
}

// rpcTransaction renders tx with its inclusion details.
func (api *ethAPI) rpcTransaction(tx *types.Transaction, lookup txLookup) (map[string]json.RawMessage, error) {
	from, err := types.Sender(api.b.signer, tx)
	if err != nil {
		return nil, err
	}

	extra := map[string]any{"from": from}
	if lookup.blockHash != (common.Hash{}) {
		extra["blockHash"] = lookup.blockHash
		extra["blockNumber"] = hexutil.Uint64(lookup.blockNumber)
		extra["transactionIndex"] = hexutil.Uint64(lookup.index)
	}

	return mergeJSON(tx, extra)
}

func (api *ethAPI) GetTransactionByHash(ctx context.Context, hash common.Hash) (map[string]json.RawMessage, error) {
	api.b.mu.RLock()
	lookup, ok := api.b.txs[hash]
	api.b.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	return api.rpcTransaction(lookup.tx, lookup)
}

func (api *ethAPI) renderBlock(block *types.Block, fullTx bool) (map[string]json.RawMessage, error) {
	txs := make([]any, 0, len(block.Transactions()))
	for i, tx := range block.Transactions() {
		if !fullTx {
			txs = append(txs, tx.Hash())
			continue
		}
		rendered, err := api.rpcTransaction(tx, txLookup{
			tx:          tx,
			blockHash:   block.Hash(),
			blockNumber: block.NumberU64(),
			index:       uint(i), //nolint:gosec // index is bounded by block size
		})
		if err != nil {
			return nil, err
		}
		txs = append(txs, rendered)
	}

	return mergeJSON(block.Header(), map[string]any{
		"transactions": txs,
		"uncles":       []common.Hash{},
		"size":         hexutil.Uint64(block.Size()),
	})
}

func (api *ethAPI) GetBlockByNumber(ctx context.Context, number rpc.BlockNumber, fullTx bool) (map[string]json.RawMessage, error) {
	block, err := api.c.BlockByNumber(ctx, blockNumberArg(number))
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return api.renderBlock(block, fullTx)
}

func (api *ethAPI) GetBlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (map[string]json.RawMessage, error) {
	block, err := api.c.BlockByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return api.renderBlock(block, fullTx)
}

func (api *ethAPI) GetLogs(ctx context.Context, crit filterCriteria) ([]types.Log, error) {
	q, err := crit.toQuery()
	if err != nil {
		return nil, err
	}

	return api.c.FilterLogs(ctx, q)
}

// Logs streams matching logs to eth_subscribe("logs") subscribers.
func (api *ethAPI) Logs(ctx context.Context, crit filterCriteria) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return nil, rpc.ErrNotificationsUnsupported
	}
	q, err := crit.toQuery()
	if err != nil {
		return nil, err
	}

	rpcSub := notifier.CreateSubscription()
	logs := make(chan types.Log, 64)
	sub, err := api.c.SubscribeFilterLogs(ctx, q, logs)
	if err != nil {
		return nil, err
	}

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				_ = notifier.Notify(rpcSub.ID, &l)
			case <-rpcSub.Err():
				return
			case <-sub.Err():
				return
			}
		}
	}()

	return rpcSub, nil
}

// NewHeads streams sealed headers to eth_subscribe("newHeads") subscribers.
func (api *ethAPI) NewHeads(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return nil, rpc.ErrNotificationsUnsupported
	}

	rpcSub := notifier.CreateSubscription()
	heads := make(chan *types.Header, 16)
	sub, err := api.c.SubscribeNewHead(ctx, heads)
	if err != nil {
		return nil, err
	}

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case h := <-heads:
				_ = notifier.Notify(rpcSub.ID, h)
			case <-rpcSub.Err():
				return
			case <-sub.Err():
				return
			}
		}
	}()

	return rpcSub, nil
}

type evmAPI struct {
	b *Backend
}

// Mine seals the pending block.
func (api *evmAPI) Mine() common.Hash {
	return api.b.Commit()
}

// maxIncreaseSeconds is the largest shift, in seconds, a time.Duration can hold.
const maxIncreaseSeconds = uint64(math.MaxInt64 / int64(time.Second))

// IncreaseTime shifts the timestamp of the next block by seconds.
func (api *evmAPI) IncreaseTime(seconds uint64) error {
	if seconds > maxIncreaseSeconds {
		return fmt.Errorf("time increase of %d seconds exceeds the maximum of %d", seconds, maxIncreaseSeconds)
	}

	return api.b.AdjustTime(time.Duration(seconds) * time.Second) //nolint:gosec // bounded by maxIncreaseSeconds
}

type netAPI struct {
	b *Backend
}

func (api *netAPI) Version() string {
	return api.b.ChainID().String()
}
