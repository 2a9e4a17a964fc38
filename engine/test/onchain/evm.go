// Package onchain provides chain loaders for tests.
package onchain

import (
	"testing"
	"time"

	"github.com/smartcontractkit/operation-factory/chain"
	evmprov "github.com/smartcontractkit/operation-factory/chain/evm/provider"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// EVMSimLoaderConfig configures the simulated chains of an EVM loader.
type EVMSimLoaderConfig struct {
	// NumAdditionalAccounts is the number of prefunded user accounts besides the deployer.
	NumAdditionalAccounts uint
	// BlockTime is the block interval, 0 mines every transaction immediately.
	BlockTime time.Duration
	// Logger receives the ledger logs. Nothing is logged when it is nil.
	Logger logger.Logger
}

// NewEVMSimLoader returns a loader of in-memory EVM chains with one user account.
func NewEVMSimLoader() *ChainLoader {
	return NewEVMSimLoaderWithConfig(EVMSimLoaderConfig{NumAdditionalAccounts: 1})
}

// NewEVMSimLoaderWithConfig returns a loader of in-memory EVM chains configured by cfg. The
// ledgers are closed when the test ends.
func NewEVMSimLoaderWithConfig(cfg EVMSimLoaderConfig) *ChainLoader {
	return NewChainLoader(EVMTestSelectors(), func(t *testing.T, selector uint64) (chain.BlockChain, error) {
		t.Helper()

		p := evmprov.NewSimChainProvider(selector, evmprov.SimChainProviderConfig{
			NumAdditionalAccounts: cfg.NumAdditionalAccounts,
			BlockTime:             cfg.BlockTime,
			Logger:                cfg.Logger,
		})
		c, err := p.Initialize(t.Context())
		if err != nil {
			return nil, err
		}
		t.Cleanup(func() { _ = p.Close() })

		return c, nil
	})
}
