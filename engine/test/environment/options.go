package environment

import (
	"testing"

	"github.com/smartcontractkit/operation-factory/chain"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/engine/test/onchain"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// LoadOpt sets environment components during loading.
type LoadOpt func(*components) error

// WithChains adds already constructed chains.
func WithChains(chains ...chain.BlockChain) LoadOpt {
	return func(cmps *components) error {
		cmps.AddChains(chains...)

		return nil
	}
}

// WithEVMSimulated adds in-memory EVM chains for the given selectors.
func WithEVMSimulated(t *testing.T, selectors []uint64) LoadOpt {
	t.Helper()

	return withChainLoader(t, onchain.NewEVMSimLoader(), selectors)
}

// WithEVMSimulatedN adds n in-memory EVM chains.
func WithEVMSimulatedN(t *testing.T, n int) LoadOpt {
	t.Helper()

	return withChainLoaderN(t, onchain.NewEVMSimLoader(), n)
}

// WithEVMSimulatedWithConfig adds in-memory EVM chains configured by cfg for the given selectors.
func WithEVMSimulatedWithConfig(t *testing.T, selectors []uint64, cfg onchain.EVMSimLoaderConfig) LoadOpt {
	t.Helper()

	return withChainLoader(t, onchain.NewEVMSimLoaderWithConfig(cfg), selectors)
}

// WithLogger sets the logger of the environment.
func WithLogger(lggr logger.Logger) LoadOpt {
	return func(cmps *components) error {
		cmps.Logger = lggr
		return nil
	}
}

// WithDatastore sets the initial datastore of the environment.
func WithDatastore(ds datastore.DataStore) LoadOpt {
	return func(cmps *components) error {
		cmps.Datastore = ds
		return nil
	}
}

func withChainLoader(t *testing.T, loader *onchain.ChainLoader, selectors []uint64) LoadOpt {
	t.Helper()

	return func(cmps *components) error {
		chains, err := loader.Load(t, selectors)
		if err != nil {
			return err
		}

		cmps.AddChains(chains...)

		return nil
	}
}

func withChainLoaderN(t *testing.T, loader *onchain.ChainLoader, n int) LoadOpt {
	t.Helper()

	return func(cmps *components) error {
		chains, err := loader.LoadN(t, n)
		if err != nil {
			return err
		}

		cmps.AddChains(chains...)

		return nil
	}
}
