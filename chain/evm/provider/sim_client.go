package provider

import (
	"time"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

// SimClient is a wrapper struct around the in-memory ledger which implements OnchainClient but
// also exposes ledger controls.
type SimClient struct {
	// Embed the sim.Client to provide access to its methods and adhere to the OnchainClient interface.
	*sim.Client
	// backend is the underlying ledger that this client wraps.
	backend *sim.Backend
}

// NewSimClient creates a new SimClient instance from a ledger.
func NewSimClient(backend *sim.Backend) *SimClient {
	return &SimClient{
		Client:  backend.Client(),
		backend: backend,
	}
}

// Backend returns the wrapped ledger.
func (c *SimClient) Backend() *sim.Backend {
	return c.backend
}

// AdjustTime moves the clock of the ledger forward by d and seals a block carrying the new time.
func (c *SimClient) AdjustTime(d time.Duration) error {
	if err := c.backend.AdjustTime(d); err != nil {
		return err
	}
	c.backend.Commit()

	return nil
}
