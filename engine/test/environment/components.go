package environment

import (
	"sync"

	"github.com/smartcontractkit/operation-factory/chain"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// components collects what the load options provide. Options run concurrently.
type components struct {
	mu sync.Mutex

	Chains    []chain.BlockChain
	Logger    logger.Logger
	Datastore datastore.DataStore
}

func newComponents() *components {
	return &components{
		Chains: make([]chain.BlockChain, 0),
		Logger: logger.Nop(),
	}
}

// AddChains appends the non-nil chains.
func (c *components) AddChains(chains ...chain.BlockChain) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, bc := range chains {
		if bc == nil {
			continue
		}

		c.Chains = append(c.Chains, bc)
	}
}
