package common //nolint:revive // var-naming: This is an internal package for common code that is shared between chains.

import (
	"fmt"
	"strconv"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// ChainMetadata provides metadata about a chain.
type ChainMetadata struct {
	Selector uint64
}

// ChainSelector returns the chain selector of the chain
func (c ChainMetadata) ChainSelector() uint64 {
	return c.Selector
}

// String returns chain name and selector "<name> (<selector>)"
func (c ChainMetadata) String() string {
	chainInfo, err := chainDetails(c.Selector)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%s (%d)", chainInfo.ChainName, chainInfo.ChainSelector)
}

// Name returns the name of the chain
func (c ChainMetadata) Name() string {
	chainInfo, err := chainDetails(c.Selector)
	if err != nil {
		return ""
	}
	if chainInfo.ChainName == "" {
		return strconv.FormatUint(c.Selector, 10)
	}

	return chainInfo.ChainName
}

// Family returns the family of the chain
func (c ChainMetadata) Family() string {
	family, err := chainsel.GetSelectorFamily(c.Selector)
	if err != nil {
		return ""
	}

	return family
}

// ChainID returns the numeric EVM chain ID of the chain.
func (c ChainMetadata) ChainID() (uint64, error) {
	idStr, err := chainsel.GetChainIDFromSelector(c.Selector)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID from selector %d: %w", c.Selector, err)
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse chain ID %s: %w", idStr, err)
	}

	return id, nil
}

// chainDetails looks up the registered details of a selector.
func chainDetails(selector uint64) (chainsel.ChainDetails, error) {
	id, err := chainsel.GetChainIDFromSelector(selector)
	if err != nil {
		return chainsel.ChainDetails{}, err
	}
	family, err := chainsel.GetSelectorFamily(selector)
	if err != nil {
		return chainsel.ChainDetails{}, err
	}

	return chainsel.GetChainDetailsByChainIDAndFamily(id, family)
}
