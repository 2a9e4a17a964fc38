package onchain

import (
	"slices"

	chainselectors "github.com/smartcontractkit/chain-selectors"
)

// evmTestSelectors are the selectors handed out by the EVM loaders, GETH_TESTNET first.
var evmTestSelectors = []uint64{
	chainselectors.GETH_TESTNET.Selector,
	chainselectors.TEST_90000001.Selector,
	chainselectors.TEST_90000002.Selector,
	chainselectors.TEST_90000003.Selector,
	chainselectors.TEST_90000004.Selector,
	chainselectors.TEST_90000005.Selector,
}

// EVMTestSelectors returns a copy of the selectors available to the EVM loaders.
func EVMTestSelectors() []uint64 {
	return slices.Clone(evmTestSelectors)
}
