package runtime

import (
	"context"
	"sync"

	"github.com/smartcontractkit/operation-factory/deployment"
	"github.com/smartcontractkit/operation-factory/engine/test/environment"
)

// Runtime runs tasks in sequence, each against an environment reflecting the state left by
// the previous ones.
type Runtime struct {
	mu sync.Mutex

	state      *State                 // Accumulated state from task executions
	currentEnv deployment.Environment // Current environment with latest state applied
}

// New loads a test environment with the configured options and wraps it in a Runtime.
func New(ctx context.Context, opts ...RuntimeOption) (*Runtime, error) {
	cfg := &runtimeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	env, err := environment.New(ctx, cfg.envOpts...)
	if err != nil {
		return nil, err
	}

	return NewFromEnvironment(*env), nil
}

// NewFromEnvironment creates a Runtime whose state is seeded from the datastore of e.
func NewFromEnvironment(e deployment.Environment) *Runtime {
	return &Runtime{
		state:      seedStateFromEnvironment(e),
		currentEnv: e,
	}
}

// Exec runs the executables in order. It stops at the first error; the state keeps the
// outputs of the tasks that succeeded before it.
func (r *Runtime) Exec(executables ...Executable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ex := range executables {
		if err := ex.Run(r.currentEnv, r.state); err != nil {
			return err
		}

		r.currentEnv = newEnvFromState(r.currentEnv, r.state)
	}

	return nil
}

// State returns the current state of the runtime.
func (r *Runtime) State() *State {
	return r.state
}

// Environment returns the current environment of the runtime.
func (r *Runtime) Environment() deployment.Environment {
	return r.currentEnv
}
