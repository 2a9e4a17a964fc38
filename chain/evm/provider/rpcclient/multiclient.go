package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"

	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

const (
	// Default retry configuration for RPC calls
	RPCDefaultRetryAttempts = 1
	RPCDefaultRetryDelay    = 1000 * time.Millisecond
	RPCDefaultRetryTimeout  = 10 * time.Second

	// Default retry configuration for dialing RPC endpoints
	RPCDefaultDialRetryAttempts = 1
	RPCDefaultDialRetryDelay    = 1000 * time.Millisecond
	RPCDefaultDialTimeout       = 10 * time.Second

	// Default timeout for health checks
	RPCDefaultHealthCheckTimeout = 2 * time.Second
)

// revertErrorCode is the JSON-RPC error code nodes use for execution reverts.
const revertErrorCode = 3

// RetryConfig controls how calls and dials are retried against each RPC.
type RetryConfig struct {
	Attempts     uint
	Delay        time.Duration
	Timeout      time.Duration
	DialAttempts uint
	DialDelay    time.Duration
	DialTimeout  time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     RPCDefaultRetryAttempts,
		Delay:        RPCDefaultRetryDelay,
		Timeout:      RPCDefaultRetryTimeout,
		DialAttempts: RPCDefaultDialRetryAttempts,
		DialDelay:    RPCDefaultDialRetryDelay,
		DialTimeout:  RPCDefaultDialTimeout,
	}
}

var _ evm.OnchainClient = (*MultiClient)(nil)

// MultiClient is an ethclient that fails over between the configured RPCs. Calls are retried on
// the primary client first and then on each backup. The first client to succeed becomes the new
// primary. Execution reverts are returned at once.
type MultiClient struct {
	*ethclient.Client
	Backups     []*ethclient.Client
	RetryConfig RetryConfig
	lggr        logger.Logger
	chainName   string
	mu          sync.RWMutex
}

// rpcHealthCheck performs a basic health check on the RPC client by calling eth_blockNumber
func (mc *MultiClient) rpcHealthCheck(ctx context.Context, client *ethclient.Client) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, RPCDefaultHealthCheckTimeout)
	defer cancel()

	// Try to get the latest block number
	_, err := client.BlockNumber(timeoutCtx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}

// NewMultiClient dials every RPC of rpcsCfg and keeps the healthy ones. The first healthy client
// is the primary.
func NewMultiClient(lggr logger.Logger, rpcsCfg RPCConfig, opts ...func(client *MultiClient)) (*MultiClient, error) {
	if len(rpcsCfg.RPCs) == 0 {
		return nil, errors.New("no RPCs provided, need at least one")
	}
	// Set the chain name
	chain, exists := chainsel.ChainBySelector(rpcsCfg.ChainSelector)
	if !exists {
		return nil, fmt.Errorf("chain with selector %d not found", rpcsCfg.ChainSelector)
	}
	mc := MultiClient{lggr: lggr.Named("multiclient"), chainName: chain.Name}

	mc.RetryConfig = defaultRetryConfig()

	for _, opt := range opts {
		opt(&mc)
	}

	clients := make([]*ethclient.Client, 0, len(rpcsCfg.RPCs))
	for i, rpc := range rpcsCfg.RPCs {
		client, err := mc.dialWithRetry(rpc)
		if err != nil {
			mc.lggr.Warnw("Failed to dial RPC, trying the next one",
				"index", i, "rpc", rpc.Name, "chain", chain.Name, "selector", chain.Selector, "error", err,
			)

			continue
		}
		if err := mc.rpcHealthCheck(context.Background(), client); err != nil {
			mc.lggr.Warnw("RPC health check failed, trying the next one",
				"index", i, "rpc", rpc.Name, "chain", chain.Name, "selector", chain.Selector, "error", err,
			)
			client.Close()

			continue
		}
		clients = append(clients, client)
	}

	if len(clients) == 0 {
		return nil, errors.New("no valid RPC clients created")
	}

	mc.Client = clients[0]
	mc.Backups = clients[1:]

	return &mc, nil
}

func (mc *MultiClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return mc.retryWithBackups(ctx, "SendTransaction", func(ct context.Context, client *ethclient.Client) error {
		return client.SendTransaction(ct, tx)
	})
}

func (mc *MultiClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var result []byte
	err := mc.retryWithBackups(ctx, "CallContract", func(ct context.Context, client *ethclient.Client) error {
		var err error
		result, err = client.CallContract(ct, msg, blockNumber)

		return err
	})

	return result, err
}

func (mc *MultiClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	var code []byte
	err := mc.retryWithBackups(ctx, "CodeAt", func(ct context.Context, client *ethclient.Client) error {
		var err error
		code, err = client.CodeAt(ct, account, blockNumber)

		return err
	})

	return code, err
}

func (mc *MultiClient) NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error) {
	var count uint64
	err := mc.retryWithBackups(ctx, "NonceAt", func(ct context.Context, client *ethclient.Client) error {
		var err error
		count, err = client.NonceAt(ct, account, block)

		return err
	})

	return count, err
}

func (mc *MultiClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	err := mc.retryWithBackups(ctx, "HeaderByNumber", func(ct context.Context, client *ethclient.Client) error {
		var err error
		header, err = client.HeaderByNumber(ct, number)

		return err
	})

	return header, err
}

func (mc *MultiClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var gasPrice *big.Int
	err := mc.retryWithBackups(ctx, "SuggestGasPrice", func(ct context.Context, client *ethclient.Client) error {
		var err error
		gasPrice, err = client.SuggestGasPrice(ct)

		return err
	})

	return gasPrice, err
}

func (mc *MultiClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	var gasTipCap *big.Int
	err := mc.retryWithBackups(ctx, "SuggestGasTipCap", func(ct context.Context, client *ethclient.Client) error {
		var err error
		gasTipCap, err = client.SuggestGasTipCap(ct)

		return err
	})

	return gasTipCap, err
}

func (mc *MultiClient) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	var code []byte
	err := mc.retryWithBackups(ctx, "PendingCodeAt", func(ct context.Context, client *ethclient.Client) error {
		var err error
		code, err = client.PendingCodeAt(ct, account)

		return err
	})

	return code, err
}

func (mc *MultiClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var count uint64
	err := mc.retryWithBackups(ctx, "PendingNonceAt", func(ct context.Context, client *ethclient.Client) error {
		var err error
		count, err = client.PendingNonceAt(ct, account)

		return err
	})

	return count, err
}

func (mc *MultiClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := mc.retryWithBackups(ctx, "EstimateGas", func(ct context.Context, client *ethclient.Client) error {
		var err error
		gas, err = client.EstimateGas(ct, call)

		return err
	})

	return gas, err
}

func (mc *MultiClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var balance *big.Int
	err := mc.retryWithBackups(ctx, "BalanceAt", func(ct context.Context, client *ethclient.Client) error {
		var err error
		balance, err = client.BalanceAt(ct, account, blockNumber)

		return err
	})

	return balance, err
}

func (mc *MultiClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := mc.retryWithBackups(ctx, "FilterLogs", func(ct context.Context, client *ethclient.Client) error {
		var err error
		logs, err = client.FilterLogs(ct, q)

		return err
	})

	return logs, err
}

func (mc *MultiClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := mc.retryWithBackups(ctx, "TransactionReceipt", func(ct context.Context, client *ethclient.Client) error {
		var err error
		receipt, err = client.TransactionReceipt(ct, txHash)

		return err
	})

	return receipt, err
}

func (mc *MultiClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	var sub ethereum.Subscription
	err := mc.retryWithBackups(ctx, "SubscribeFilterLogs", func(ct context.Context, client *ethclient.Client) error {
		var err error
		sub, err = client.SubscribeFilterLogs(ct, q, ch)

		return err
	})

	return sub, err
}

// WaitMined waits for a transaction to be mined and returns the receipt.
// Note: retryConfig timeout settings are not used for this operation, a timeout can be set in the context.
func (mc *MultiClient) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	mc.lggr.Debugw("Waiting for tx to be mined", "tx", tx.Hash().Hex(), "chain", mc.chainName)
	// no retries here because we want to wait for the tx to be mined
	resultCh := make(chan *types.Receipt)
	doneCh := make(chan struct{})

	waitMined := func(client *ethclient.Client, tx *types.Transaction) {
		receipt, err := bind.WaitMined(ctx, client, tx)
		if err != nil {
			mc.lggr.Warnw("WaitMined failed", "tx", tx.Hash().Hex(), "chain", mc.chainName, "error", err)
			return
		}
		select {
		case resultCh <- receipt:
		case <-doneCh:
			return
		}
	}

	for _, client := range mc.clients() {
		go waitMined(client, tx)
	}
	var receipt *types.Receipt
	select {
	case receipt = <-resultCh:
		close(doneCh)
		mc.lggr.Debugw("Tx mined", "tx", tx.Hash().Hex(), "chain", mc.chainName, "block", receipt.BlockNumber)

		return receipt, nil
	case <-ctx.Done():
		mc.lggr.Warnw("WaitMined context done", "tx", tx.Hash().Hex(), "error", ctx.Err())
		close(doneCh)

		return nil, ctx.Err()
	}
}

func (mc *MultiClient) retryWithBackups(ctx context.Context, opName string, op func(context.Context, *ethclient.Client) error) error {
	var err error
	traceID := uuid.New()

	for rpcIndex, client := range mc.clients() {
		retryCount := 0
		err2 := retry.Do(func() error {
			timeoutCtx, cancel := ensureTimeout(ctx, mc.RetryConfig.Timeout)
			defer cancel()

			err = op(timeoutCtx, client)
			if err != nil {
				if IsRevertError(err) {
					return retry.Unrecoverable(err)
				}
				mc.lggr.Warnw("RPC call failed, retrying",
					"traceID", traceID.String(), "chain", mc.chainName, "op", opName, "index", rpcIndex, "error", maybeDataErr(err),
				)

				return err
			}

			// If the operation was successful, check if we need to reorder the RPCs
			mc.reorderRPCs(rpcIndex)

			return nil
		}, retry.Attempts(mc.RetryConfig.Attempts), retry.Delay(mc.RetryConfig.Delay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) { retryCount++ }))
		if err2 == nil {
			if retryCount > 0 {
				mc.lggr.Infow("RPC call succeeded after retries",
					"traceID", traceID.String(), "chain", mc.chainName, "op", opName, "index", rpcIndex, "retries", retryCount,
				)
			}

			return nil
		}
		if IsRevertError(err) {
			// every node would revert the same way
			return err
		}
		mc.lggr.Infow("RPC call failed, trying next client",
			"traceID", traceID.String(), "chain", mc.chainName, "op", opName, "index", rpcIndex,
		)
	}

	return errors.Join(err, fmt.Errorf("all backup clients failed for chain %q", mc.chainName))
}

func (mc *MultiClient) dialWithRetry(rpc RPC) (*ethclient.Client, error) {
	endpoint, err := rpc.ToEndpoint()
	if err != nil {
		return nil, err
	}

	traceID := uuid.New()
	var client *ethclient.Client
	retryCount := 0
	err = retry.Do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), mc.RetryConfig.DialTimeout)
		defer cancel()

		var err2 error
		mc.lggr.Debugw("Dialing RPC", "traceID", traceID.String(), "chain", mc.chainName, "rpc", rpc.Name, "endpoint", endpoint)
		client, err2 = ethclient.DialContext(ctx, endpoint)
		if err2 != nil {
			mc.lggr.Warnw("Dialing RPC failed, retrying",
				"traceID", traceID.String(), "chain", mc.chainName, "rpc", rpc.Name, "endpoint", endpoint, "error", err2,
			)

			return err2
		}

		return nil
	}, retry.Attempts(mc.RetryConfig.DialAttempts), retry.Delay(mc.RetryConfig.DialDelay),
		retry.OnRetry(func(n uint, err error) { retryCount++ }))

	if err != nil {
		return nil, errors.Join(err, fmt.Errorf("failed to dial endpoint '%s' for RPC %s for chain %s after retries", endpoint, rpc.Name, mc.chainName))
	}
	if retryCount > 0 {
		mc.lggr.Infow("Dialed RPC after retries",
			"traceID", traceID.String(), "chain", mc.chainName, "rpc", rpc.Name, "retries", retryCount,
		)
	}

	return client, nil
}

// ensureTimeout checks if the parent context has a deadline.
// If it does, it returns a new cancelable context using the parent's deadline.
// If it doesn't, it creates a new context with the specified timeout.
func ensureTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	// check if the parent context already has a deadline
	if _, hasDeadline := parent.Deadline(); hasDeadline {
		// derive a new cancelable context from the parent context with the same deadline
		return context.WithCancel(parent)
	}

	// create a new context with the specified timeout
	return context.WithTimeout(parent, timeout)
}

// reorderRPCs reorders the RPCs based on the latest call.
// If the default RPC failed all attempts, it will be moved to the end of the backup list.
// If backup RPCs also failed, they will be moved to the end of the backup list.
// If the primary RPC worked, it will remain the first in the list.
func (mc *MultiClient) reorderRPCs(rpcIndex int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if rpcIndex < 1 || len(mc.Backups) == 0 {
		return // No need to reorder if the first RPC is still the default or we don't have backups
	}

	// Find the index of the backupRPC
	newDefaultRPCIndex := rpcIndex - 1
	newDefaultRPC := mc.Backups[newDefaultRPCIndex]

	// Reorder the failed backups to the end of the list
	reordered := make([]*ethclient.Client, 0, len(mc.Backups))
	reordered = append(reordered, mc.Backups[newDefaultRPCIndex+1:]...)
	reordered = append(reordered, mc.Backups[:newDefaultRPCIndex]...)
	reordered = append(reordered, mc.Client)

	mc.Backups = reordered
	mc.Client = newDefaultRPC
}

func (mc *MultiClient) clients() []*ethclient.Client {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return append([]*ethclient.Client{mc.Client}, mc.Backups...)
}

// IsRevertError reports whether err is an execution revert returned by a node.
func IsRevertError(err error) bool {
	if err == nil {
		return false
	}

	var rerr rpc.Error
	if errors.As(err, &rerr) && rerr.ErrorCode() == revertErrorCode {
		return true
	}

	return strings.Contains(err.Error(), "execution reverted")
}

func maybeDataErr(err error) error {
	var d rpc.DataError
	ok := errors.As(err, &d)
	if ok {
		return fmt.Errorf("%s: %v", d.Error(), d.ErrorData())
	}

	return err
}
