// Package testutils provides test doubles for the test engine.
package testutils

import (
	"fmt"

	"github.com/smartcontractkit/operation-factory/chain"
)

var _ chain.BlockChain = &StubChain{}

// StubChain is a BlockChain without a client, for tests that only look at selectors.
type StubChain struct{ selector uint64 }

// NewStubChain creates a new StubChain with the given selector.
func NewStubChain(selector uint64) *StubChain {
	return &StubChain{selector: selector}
}

func (c *StubChain) ChainSelector() uint64 { return c.selector }
func (c *StubChain) Family() string        { return "test" }
func (c *StubChain) Name() string          { return "test" }
func (c *StubChain) String() string        { return fmt.Sprintf("testChain(%d)", c.selector) }
