/*
Package chain provides the blockchain abstraction used by the operation factory tooling.

# Overview

Every chain the tooling talks to satisfies the BlockChain interface, identified by its chain
selector (see github.com/smartcontractkit/chain-selectors):

	type BlockChain interface {
		String() string         // "<name> (<selector>)"
		Name() string           // chain name
		ChainSelector() uint64  // unique chain identifier
		Family() string         // blockchain family, "evm" for every chain used here
	}

# BlockChains Collection

BlockChains holds the chains of an environment, either loaded upfront:

	chains := chain.NewBlockChains(map[uint64]chain.BlockChain{
		evmChain.Selector: evmChain,
	})

or lazily, connecting to each chain on first access:

	chains := chain.NewLazyBlockChains(ctx, selectors, chain.ChainLoaderFunc(load), lggr)

Typed access and filtering:

	evmChains := chains.EVMChains()
	selectors := chains.ListChainSelectors(chain.WithFamily(chainsel.FamilyEVM))

# Provider System

A Provider initializes a chain, for instance the in-memory ledger provider or the JSON-RPC
provider in chain/evm/provider:

	blockchain, err := provider.Initialize(ctx)
*/
package chain
