// Package environment builds deployment environments for tests.
package environment

import (
	"context"
	"errors"
	"sync"

	"github.com/smartcontractkit/operation-factory/chain"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/deployment"
)

const environmentName = "test_environment"

// New loads an environment with the given options.
func New(ctx context.Context, opts ...LoadOpt) (*deployment.Environment, error) {
	return NewLoader().Load(ctx, opts...)
}

// Loader builds environments.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load applies opts and returns the environment. An empty sealed datastore is used when none
// is given.
func (l *Loader) Load(ctx context.Context, opts ...LoadOpt) (*deployment.Environment, error) {
	cmps := newComponents()
	if err := applyOptions(cmps, opts); err != nil {
		return nil, err
	}

	ds := cmps.Datastore
	if ds == nil {
		ds = datastore.NewMemoryDataStore().Seal()
	}

	env := deployment.NewEnvironment(
		environmentName,
		func() context.Context { return ctx },
		cmps.Logger,
		chain.NewBlockChainsFromSlice(cmps.Chains),
		ds,
	)

	return &env, nil
}

// applyOptions runs every option concurrently and joins their errors.
func applyOptions(cmps *components, opts []LoadOpt) error {
	errs := make([]error, len(opts))

	var wg sync.WaitGroup
	for i, opt := range opts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = opt(cmps)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
