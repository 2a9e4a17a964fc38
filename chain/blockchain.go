package chain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

var ErrBlockChainNotFound = errors.New("blockchain not found")

var _ BlockChain = evm.Chain{}

// BlockChain is an interface that represents a chain.
type BlockChain interface {
	// String returns chain name and selector "<name> (<selector>)"
	String() string
	// Name returns the name of the chain
	Name() string
	ChainSelector() uint64
	Family() string
}

// BlockChains represents a collection of chains that supports both eager and lazy loading.
//   - Eager mode: all chains are loaded upfront.
//   - Lazy mode: chains are loaded by a ChainLoader on first access and cached.
type BlockChains struct {
	chains map[uint64]BlockChain

	// lazyState is nil in eager mode
	lazyState *lazyLoadingState
}

type lazyLoadingState struct {
	mu                 sync.Mutex
	loadedChains       map[uint64]BlockChain
	loader             ChainLoader
	supportedSelectors []uint64
	ctx                context.Context //nolint:containedctx // Context is needed for lazy loading operations
	lggr               logger.Logger
}

// NewBlockChains initializes a new BlockChains instance. The map is copied.
func NewBlockChains(chains map[uint64]BlockChain) BlockChains {
	copied := make(map[uint64]BlockChain, len(chains))
	maps.Copy(copied, chains)

	return BlockChains{chains: copied}
}

// NewBlockChainsFromSlice initializes a new BlockChains instance from a slice of BlockChain.
func NewBlockChainsFromSlice(chains []BlockChain) BlockChains {
	chainsMap := make(map[uint64]BlockChain, len(chains))
	for _, c := range chains {
		chainsMap[c.ChainSelector()] = c
	}

	return NewBlockChains(chainsMap)
}

// NewLazyBlockChains creates a BlockChains instance that defers loading of the supported selectors
// until first access. A chain failing to load is logged and skipped by the iterating accessors.
func NewLazyBlockChains(
	ctx context.Context, supportedSelectors []uint64, loader ChainLoader, lggr logger.Logger,
) BlockChains {
	return BlockChains{
		lazyState: &lazyLoadingState{
			loadedChains:       make(map[uint64]BlockChain),
			loader:             loader,
			supportedSelectors: slices.Sorted(slices.Values(supportedSelectors)),
			ctx:                ctx,
			lggr:               lggr,
		},
	}
}

// GetBySelector returns a blockchain by its selector, loading it first in lazy mode.
func (b BlockChains) GetBySelector(selector uint64) (BlockChain, error) {
	if b.lazyState == nil {
		if c, ok := b.chains[selector]; ok {
			return c, nil
		}

		return nil, ErrBlockChainNotFound
	}

	lazy := b.lazyState
	lazy.mu.Lock()
	defer lazy.mu.Unlock()

	if c, ok := lazy.loadedChains[selector]; ok {
		return c, nil
	}
	if !slices.Contains(lazy.supportedSelectors, selector) {
		return nil, ErrBlockChainNotFound
	}

	c, err := lazy.loader.Load(lazy.ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain %d: %w", selector, err)
	}
	lazy.loadedChains[selector] = c

	return c, nil
}

// Exists checks if a chain with the given selector exists (not necessarily loaded).
func (b BlockChains) Exists(selector uint64) bool {
	if b.lazyState != nil {
		return slices.Contains(b.lazyState.supportedSelectors, selector)
	}
	_, ok := b.chains[selector]

	return ok
}

// ExistsN checks if all chains with the given selectors exist.
func (b BlockChains) ExistsN(selectors ...uint64) bool {
	for _, selector := range selectors {
		if !b.Exists(selector) {
			return false
		}
	}

	return true
}

// All returns an iterator over all chains with their selectors, in selector order.
func (b BlockChains) All() iter.Seq2[uint64, BlockChain] {
	return func(yield func(uint64, BlockChain) bool) {
		for _, selector := range b.ListChainSelectors() {
			c, err := b.GetBySelector(selector)
			if err != nil {
				if b.lazyState != nil {
					b.lazyState.lggr.Errorw("Failed to load chain during iteration",
						"selector", selector,
						"error", err,
					)
				}

				continue
			}
			if !yield(selector, c) {
				return
			}
		}
	}
}

// EVMChains returns a map of all EVM chains with their selectors.
func (b BlockChains) EVMChains() map[uint64]evm.Chain {
	chains := make(map[uint64]evm.Chain)
	for selector, c := range b.All() {
		switch c := c.(type) {
		case evm.Chain:
			chains[selector] = c
		case *evm.Chain:
			if c != nil {
				chains[selector] = *c
			}
		}
	}

	return chains
}

// ChainSelectorsOption defines a function type for configuring ListChainSelectors.
type ChainSelectorsOption func(*chainSelectorsOptions)

type chainSelectorsOptions struct {
	includedFamilies  map[string]struct{}
	excludedChainSels map[uint64]struct{}
}

// WithFamily returns an option to filter chains by family. Use constants from chainsel package
// eg WithFamily(chainsel.FamilyEVM). This can be used more than once to include multiple families.
func WithFamily(family string) ChainSelectorsOption {
	return func(o *chainSelectorsOptions) {
		if o.includedFamilies == nil {
			o.includedFamilies = make(map[string]struct{})
		}
		o.includedFamilies[family] = struct{}{}
	}
}

// WithChainSelectorsExclusion returns an option to exclude specific chain selectors
func WithChainSelectorsExclusion(chainSelectors []uint64) ChainSelectorsOption {
	return func(o *chainSelectorsOptions) {
		if o.excludedChainSels == nil {
			o.excludedChainSels = make(map[uint64]struct{})
		}
		for _, selector := range chainSelectors {
			o.excludedChainSels[selector] = struct{}{}
		}
	}
}

// ListChainSelectors returns all chain selectors, sorted, with optional filtering.
func (b BlockChains) ListChainSelectors(options ...ChainSelectorsOption) []uint64 {
	opts := chainSelectorsOptions{}
	for _, option := range options {
		option(&opts)
	}

	var all []uint64
	if b.lazyState != nil {
		all = b.lazyState.supportedSelectors
	} else {
		all = slices.Collect(maps.Keys(b.chains))
	}

	selectors := make([]uint64, 0, len(all))
	for _, selector := range all {
		if _, excluded := opts.excludedChainSels[selector]; excluded {
			continue
		}
		if opts.includedFamilies != nil {
			family, err := chainsel.GetSelectorFamily(selector)
			if err != nil {
				continue
			}
			if _, ok := opts.includedFamilies[family]; !ok {
				continue
			}
		}
		selectors = append(selectors, selector)
	}
	slices.Sort(selectors)

	return selectors
}

// IsLazy returns true if the BlockChains instance uses lazy loading.
func (b BlockChains) IsLazy() bool {
	return b.lazyState != nil
}
