// Package contracts lists the native contracts of the module.
package contracts

import (
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
	"github.com/smartcontractkit/operation-factory/contracts/operation"
	"github.com/smartcontractkit/operation-factory/contracts/operationfactory"
)

// Native returns a fresh instance of every native contract runtime.
func Native() []sim.Contract {
	return []sim.Contract{
		operation.NewNativeContract(),
		operationfactory.NewNativeContract(),
	}
}

// NewBackend returns an in-memory ledger able to execute every native contract.
func NewBackend(alloc types.GenesisAlloc, opts ...sim.Option) *sim.Backend {
	return sim.NewBackend(alloc, append([]sim.Option{sim.WithContracts(Native()...)}, opts...)...)
}
