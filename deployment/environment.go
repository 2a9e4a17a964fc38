// Package deployment defines the environment changesets run against and the changeset contract.
package deployment

import (
	"context"
	"errors"

	"github.com/smartcontractkit/operation-factory/chain"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/operations"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// Environment is everything a changeset can read: the chains, what was already deployed and
// the operations bundle to record its executions in.
type Environment struct {
	Name             string
	Logger           logger.Logger
	BlockChains      chain.BlockChains
	DataStore        datastore.DataStore
	GetContext       func() context.Context
	OperationsBundle operations.Bundle
}

// NewEnvironment creates an Environment. The operations bundle shares the logger and the
// context of the environment and reports in memory.
func NewEnvironment(
	name string,
	getContext func() context.Context,
	lggr logger.Logger,
	blockChains chain.BlockChains,
	ds datastore.DataStore,
) Environment {
	return Environment{
		Name:             name,
		Logger:           lggr,
		BlockChains:      blockChains,
		DataStore:        ds,
		GetContext:       getContext,
		OperationsBundle: operations.NewBundle(getContext, lggr, operations.NewMemoryReporter()),
	}
}

// Validate checks that the environment can run changesets.
func (e Environment) Validate() error {
	var errs []error
	if e.Logger == nil {
		errs = append(errs, errors.New("logger is required"))
	}
	if e.GetContext == nil {
		errs = append(errs, errors.New("context getter is required"))
	}
	if e.DataStore == nil {
		errs = append(errs, errors.New("datastore is required"))
	}

	return errors.Join(errs...)
}
