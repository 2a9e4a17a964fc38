package chain_test

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain"
	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

var (
	evmChain1  = evm.Chain{Selector: chainsel.TEST_1000.Selector}
	evmChain2  = evm.Chain{Selector: chainsel.GETH_TESTNET.Selector}
	otherChain = fakeChain{selector: chainsel.SOLANA_DEVNET.Selector, family: chainsel.FamilySolana}
)

// fakeChain stands in for a chain of a non EVM family.
type fakeChain struct {
	selector uint64
	family   string
}

func (c fakeChain) String() string        { return "fake" }
func (c fakeChain) Name() string          { return "fake" }
func (c fakeChain) ChainSelector() uint64 { return c.selector }
func (c fakeChain) Family() string        { return c.family }

func TestNewBlockChains(t *testing.T) {
	t.Parallel()

	t.Run("nil map", func(t *testing.T) {
		t.Parallel()

		chains := chain.NewBlockChains(nil)

		assert.Empty(t, chains.ListChainSelectors())
		assert.False(t, chains.IsLazy())
	})

	t.Run("map is copied", func(t *testing.T) {
		t.Parallel()

		original := map[uint64]chain.BlockChain{evmChain1.Selector: evmChain1}
		chains := chain.NewBlockChains(original)
		original[evmChain2.Selector] = evmChain2

		assert.Equal(t, []uint64{evmChain1.Selector}, chains.ListChainSelectors())
	})
}

func TestBlockChains_GetBySelector(t *testing.T) {
	t.Parallel()

	chains := buildBlockChains()

	got, err := chains.GetBySelector(evmChain1.Selector)
	require.NoError(t, err)
	assert.Equal(t, evmChain1, got)

	_, err = chains.GetBySelector(42)
	require.ErrorIs(t, err, chain.ErrBlockChainNotFound)

	assert.True(t, chains.Exists(evmChain2.Selector))
	assert.True(t, chains.ExistsN(evmChain1.Selector, otherChain.selector))
	assert.False(t, chains.ExistsN(evmChain1.Selector, 42))
}

func TestBlockChainsEVMChains(t *testing.T) {
	t.Parallel()

	chains := chain.NewBlockChains(map[uint64]chain.BlockChain{
		evmChain1.Selector:  evmChain1,
		evmChain2.Selector:  &evmChain2,
		otherChain.selector: otherChain,
	})

	evmChains := chains.EVMChains()

	assert.Len(t, evmChains, 2, "expected 2 EVM chains")
	assert.Contains(t, evmChains, evmChain1.Selector)
	assert.Contains(t, evmChains, evmChain2.Selector)
}

func TestBlockChainsListChainSelectors(t *testing.T) {
	t.Parallel()

	chains := buildBlockChains()

	tests := []struct {
		name        string
		options     []chain.ChainSelectorsOption
		expectedIDs []uint64
	}{
		{
			name:        "no options",
			expectedIDs: sorted(evmChain1.Selector, evmChain2.Selector, otherChain.selector),
		},
		{
			name:        "with family filter - EVM",
			options:     []chain.ChainSelectorsOption{chain.WithFamily(chainsel.FamilyEVM)},
			expectedIDs: sorted(evmChain1.Selector, evmChain2.Selector),
		},
		{
			name:        "with family filter - Solana",
			options:     []chain.ChainSelectorsOption{chain.WithFamily(chainsel.FamilySolana)},
			expectedIDs: []uint64{otherChain.selector},
		},
		{
			name: "with exclusion",
			options: []chain.ChainSelectorsOption{
				chain.WithChainSelectorsExclusion([]uint64{evmChain1.Selector}),
			},
			expectedIDs: sorted(evmChain2.Selector, otherChain.selector),
		},
		{
			name: "with family and exclusion",
			options: []chain.ChainSelectorsOption{
				chain.WithFamily(chainsel.FamilyEVM),
				chain.WithChainSelectorsExclusion([]uint64{evmChain1.Selector}),
			},
			expectedIDs: []uint64{evmChain2.Selector},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expectedIDs, chains.ListChainSelectors(tt.options...))
		})
	}
}

func TestLazyBlockChains(t *testing.T) {
	t.Parallel()

	var loads atomic.Int32
	loader := chain.ChainLoaderFunc(func(_ context.Context, selector uint64) (chain.BlockChain, error) {
		loads.Add(1)
		if selector == evmChain2.Selector {
			return nil, errors.New("rpc unavailable")
		}

		return evm.Chain{Selector: selector}, nil
	})

	chains := chain.NewLazyBlockChains(t.Context(),
		[]uint64{evmChain2.Selector, evmChain1.Selector}, loader, logger.Test(t))

	assert.True(t, chains.IsLazy())
	assert.True(t, chains.Exists(evmChain2.Selector))
	assert.Zero(t, loads.Load(), "nothing is loaded before first access")

	got, err := chains.GetBySelector(evmChain1.Selector)
	require.NoError(t, err)
	assert.Equal(t, evmChain1.Selector, got.ChainSelector())

	_, err = chains.GetBySelector(evmChain1.Selector)
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load(), "loaded chains are cached")

	_, err = chains.GetBySelector(evmChain2.Selector)
	require.ErrorContains(t, err, "rpc unavailable")

	_, err = chains.GetBySelector(42)
	require.ErrorIs(t, err, chain.ErrBlockChainNotFound)

	evmChains := chains.EVMChains()
	assert.Len(t, evmChains, 1, "chains failing to load are skipped")
	assert.Contains(t, evmChains, evmChain1.Selector)
}

func sorted(selectors ...uint64) []uint64 {
	return slices.Sorted(slices.Values(selectors))
}

// buildBlockChains creates a BlockChains instance with 2 evm chains and 1 solana chain.
func buildBlockChains() chain.BlockChains {
	return chain.NewBlockChains(map[uint64]chain.BlockChain{
		evmChain1.Selector:  evmChain1,
		evmChain2.Selector:  evmChain2,
		otherChain.selector: otherChain,
	})
}
