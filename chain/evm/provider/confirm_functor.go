package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/operation-factory/chain/evm"
)

// ConfirmFunctor is an interface for creating a confirmation function for transactions on the
// EVM chain.
type ConfirmFunctor interface {
	// Generate returns a function that confirms transactions on the EVM chain.
	Generate(
		ctx context.Context, selector uint64, client evm.OnchainClient, from common.Address,
	) (evm.ConfirmFunc, error)
}

// ConfirmFuncGeth returns a ConfirmFunctor that uses the Geth client to confirm transactions.
func ConfirmFuncGeth(waitMinedTimeout time.Duration, opts ...func(*confirmFuncGeth)) ConfirmFunctor {
	cf := &confirmFuncGeth{
		tickInterval:     1 * time.Second, // the same value we have in bind.WaitMined hardcoded in "go-ethereum"
		waitMinedTimeout: waitMinedTimeout,
	}
	for _, o := range opts {
		o(cf)
	}
	return cf
}

// WithTickInterval sets how often the receipt is polled.
func WithTickInterval(interval time.Duration) func(*confirmFuncGeth) {
	return func(o *confirmFuncGeth) {
		o.tickInterval = interval
	}
}

// confirmFuncGeth implements the ConfirmFunctor interface which generates a confirmation function
// for transactions using the Geth client.
type confirmFuncGeth struct {
	tickInterval     time.Duration
	waitMinedTimeout time.Duration
}

// Generate returns a function that confirms transactions using the Geth client.
func (g *confirmFuncGeth) Generate(
	ctx context.Context, selector uint64, client evm.OnchainClient, from common.Address,
) (evm.ConfirmFunc, error) {
	return func(tx *types.Transaction) (uint64, error) {
		var blockNum uint64
		if tx == nil {
			return 0, fmt.Errorf("tx was nil, nothing to confirm for selector: %d", selector)
		}

		ctxTimeout, cancel := context.WithTimeout(ctx, g.waitMinedTimeout)
		defer cancel()

		receipt, err := WaitMinedWithInterval(ctxTimeout, g.tickInterval, client, tx.Hash())
		if err != nil {
			return 0, fmt.Errorf("tx %s failed to confirm for selector %d: %w",
				tx.Hash().Hex(), selector, err,
			)
		}
		if receipt == nil {
			return blockNum, fmt.Errorf("receipt was nil for tx %s for selector %d",
				tx.Hash().Hex(), selector,
			)
		}

		blockNum = receipt.BlockNumber.Uint64()

		if receipt.Status == 0 {
			reason, err := getErrorReasonFromTx(ctxTimeout, client, from, tx, receipt)
			if err == nil && reason != "" {
				return 0, fmt.Errorf("tx %s reverted for selector %d: %s",
					tx.Hash().Hex(), selector, reason,
				)
			}

			return blockNum, fmt.Errorf("tx %s reverted, could not decode error reason for selector %d",
				tx.Hash().Hex(), selector,
			)
		}

		return blockNum, nil
	}, nil
}

// WaitMinedWithInterval is a custom function that allows to get receipts faster for networks with instant blocks
func WaitMinedWithInterval(ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}
