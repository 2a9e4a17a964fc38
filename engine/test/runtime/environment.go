package runtime

import (
	"github.com/smartcontractkit/operation-factory/deployment"
	"github.com/smartcontractkit/operation-factory/operations"
)

// newEnvFromState copies fromEnv with the datastore of state and a fresh operations bundle.
func newEnvFromState(fromEnv deployment.Environment, state *State) deployment.Environment {
	return deployment.Environment{
		Name:        fromEnv.Name,
		Logger:      fromEnv.Logger,
		GetContext:  fromEnv.GetContext,
		BlockChains: fromEnv.BlockChains,

		DataStore: state.DataStore,

		// a new reporter so reports of earlier tasks are not replayed
		OperationsBundle: operations.NewBundle(
			fromEnv.GetContext, fromEnv.Logger, operations.NewMemoryReporter(),
		),
	}
}
