package onchain

import (
	"errors"
	"sync"
	"testing"

	"github.com/smartcontractkit/operation-factory/chain"
)

// ChainFactory creates the chain of one selector.
type ChainFactory func(t *testing.T, selector uint64) (chain.BlockChain, error)

// ChainLoader creates chains in parallel from a fixed list of selectors.
type ChainLoader struct {
	selectors []uint64
	factory   ChainFactory
}

// NewChainLoader creates a ChainLoader.
func NewChainLoader(selectors []uint64, factory ChainFactory) *ChainLoader {
	return &ChainLoader{
		selectors: selectors,
		factory:   factory,
	}
}

// Load creates the chains of selectors, in the same order.
func (l *ChainLoader) Load(t *testing.T, selectors []uint64) ([]chain.BlockChain, error) {
	t.Helper()

	chains := make([]chain.BlockChain, len(selectors))
	errs := make([]error, len(selectors))

	var wg sync.WaitGroup
	for i, selector := range selectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chains[i], errs[i] = l.factory(t, selector)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return chains, nil
}

// LoadN creates the chains of the first n selectors.
func (l *ChainLoader) LoadN(t *testing.T, n int) ([]chain.BlockChain, error) {
	t.Helper()

	if len(l.selectors) < n {
		return nil, errMaxSelectors(len(l.selectors))
	}

	return l.Load(t, l.selectors[:n])
}
