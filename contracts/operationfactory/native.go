package operationfactory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
	"github.com/smartcontractkit/operation-factory/contracts/operation"
)

// Storage layout.
var (
	slotOwner          = sim.Slot(0)
	slotOperator       = sim.Slot(1)
	slotStandards      = sim.Slot(2)
	slotTerraAddresses = sim.Slot(3)
	slotNextIndex      = sim.Slot(4)
	slotInstances      = sim.Slot(5)
)

// Revert reasons.
const (
	ReasonNotOwner          = "Ownable: caller is not the owner"
	ReasonNotOperator       = "Operator: caller is not the operator"
	ReasonZeroAddress       = "OperationFactory: zero address"
	ReasonQueueEmpty        = "OperationFactory: terra address queue is empty"
	ReasonStandardNotSet    = "OperationFactory: standard operation not registered"
	ReasonIndexOutOfBounds  = "OperationFactory: index out of bounds"
	ReasonInitializeFailure = "OperationFactory: instance initialization failed"
)

// NewNativeContract returns the OperationFactory runtime executed by the in-memory ledger.
func NewNativeContract() *sim.ABIContract {
	return sim.NewABIContract(ContractName, parsedABI).
		OnConstruct(func(env *sim.Env, _ []any) error {
			env.StoreAddress(slotOwner, env.Caller())
			env.StoreAddress(slotOperator, env.Caller())
			emit(env, EventOwnershipTransferred, []common.Hash{addressTopic(common.Address{}), addressTopic(env.Caller())})
			emit(env, EventOperatorTransferred, []common.Hash{addressTopic(common.Address{}), addressTopic(env.Caller())})

			return nil
		}).
		Handle("owner", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{env.LoadAddress(slotOwner)}, nil
		}).
		Handle("operator", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{env.LoadAddress(slotOperator)}, nil
		}).
		Handle("transferOwnership", onlyOwner(transferOwnership)).
		Handle("transferOperator", onlyOwner(transferOperator)).
		Handle("setStandardOperation", onlyOwner(setStandardOperation)).
		Handle("pushTerraAddresses", onlyOwner(pushTerraAddresses)).
		Handle("standards", func(env *sim.Env, args []any) ([]any, error) {
			return []any{env.LoadAddress(standardSlot(args[0].(*big.Int)))}, nil
		}).
		Handle("fetchNextTerraAddress", func(env *sim.Env, _ []any) ([]any, error) {
			next, ok := peek(env)
			if !ok {
				return nil, env.Revert(ReasonQueueEmpty)
			}

			return []any{[32]byte(next)}, nil
		}).
		Handle("remainingTerraAddresses", func(env *sim.Env, _ []any) ([]any, error) {
			remaining := env.LoadUint64(slotTerraAddresses) - env.LoadUint64(slotNextIndex)
			return []any{new(big.Int).SetUint64(remaining)}, nil
		}).
		Handle("instances", func(env *sim.Env, args []any) ([]any, error) {
			index := args[0].(*big.Int)
			if !index.IsUint64() || index.Uint64() >= env.LoadUint64(slotInstances) {
				return nil, env.Revert(ReasonIndexOutOfBounds)
			}

			return []any{env.LoadAddress(sim.ArrayElementSlot(slotInstances, index.Uint64()))}, nil
		}).
		Handle("instanceCount", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{env.LoadBig(slotInstances)}, nil
		}).
		Handle("build", build)
}

func onlyOwner(fn sim.MethodHandler) sim.MethodHandler {
	return func(env *sim.Env, args []any) ([]any, error) {
		if env.Caller() != env.LoadAddress(slotOwner) {
			return nil, env.Revert(ReasonNotOwner)
		}

		return fn(env, args)
	}
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func emit(env *sim.Env, name string, topics []common.Hash, data ...any) {
	ev := parsedABI.Events[name]
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		// event layouts are fixed by the ABI above
		panic(err)
	}

	env.Emit(append([]common.Hash{ev.ID}, topics...), packed)
}

func standardSlot(standard *big.Int) common.Hash {
	return sim.MappingSlot(slotStandards, common.BigToHash(standard))
}

// peek returns the head of the queue without consuming it.
func peek(env *sim.Env) (common.Hash, bool) {
	next := env.LoadUint64(slotNextIndex)
	if next >= env.LoadUint64(slotTerraAddresses) {
		return common.Hash{}, false
	}

	return env.Load(sim.ArrayElementSlot(slotTerraAddresses, next)), true
}

func transferOwnership(env *sim.Env, args []any) ([]any, error) {
	newOwner := args[0].(common.Address)
	if newOwner == (common.Address{}) {
		return nil, env.Revert(ReasonZeroAddress)
	}

	prev := env.LoadAddress(slotOwner)
	env.StoreAddress(slotOwner, newOwner)
	emit(env, EventOwnershipTransferred, []common.Hash{addressTopic(prev), addressTopic(newOwner)})

	return nil, nil
}

func transferOperator(env *sim.Env, args []any) ([]any, error) {
	newOperator := args[0].(common.Address)
	if newOperator == (common.Address{}) {
		return nil, env.Revert(ReasonZeroAddress)
	}

	prev := env.LoadAddress(slotOperator)
	env.StoreAddress(slotOperator, newOperator)
	emit(env, EventOperatorTransferred, []common.Hash{addressTopic(prev), addressTopic(newOperator)})

	return nil, nil
}

func setStandardOperation(env *sim.Env, args []any) ([]any, error) {
	env.StoreAddress(standardSlot(args[0].(*big.Int)), args[1].(common.Address))
	return nil, nil
}

func pushTerraAddresses(env *sim.Env, args []any) ([]any, error) {
	terraAddresses := args[0].([][32]byte)

	length := env.LoadUint64(slotTerraAddresses)
	for i, terra := range terraAddresses {
		env.Store(sim.ArrayElementSlot(slotTerraAddresses, length+uint64(i)), terra) //nolint:gosec // i is a slice index
	}
	env.StoreUint64(slotTerraAddresses, length+uint64(len(terraAddresses)))

	return nil, nil
}

// build clones the operation registered under standard, hands it the head of the queue and
// records the new instance. Checks run in order: operator, standard, queue.
func build(env *sim.Env, args []any) ([]any, error) {
	if env.Caller() != env.LoadAddress(slotOperator) {
		return nil, env.Revert(ReasonNotOperator)
	}

	standard := args[0].(*big.Int)
	controller := args[1].(common.Address)

	impl := env.LoadAddress(standardSlot(standard))
	if impl == (common.Address{}) {
		return nil, env.Revert(ReasonStandardNotSet)
	}

	terra, ok := peek(env)
	if !ok {
		return nil, env.Revert(ReasonQueueEmpty)
	}
	env.StoreUint64(slotNextIndex, env.LoadUint64(slotNextIndex)+1)

	instance, err := env.Clone(impl)
	if err != nil {
		return nil, err
	}

	data, err := operation.EncodeInitParams(operation.InitParams{
		Controller:   controller,
		TerraAddress: terra,
		Owner:        env.LoadAddress(slotOwner),
		Operator:     env.LoadAddress(slotOperator),
	})
	if err != nil {
		return nil, env.Revert(ReasonInitializeFailure)
	}
	input, err := operation.PackInitialize(data)
	if err != nil {
		return nil, env.Revert(ReasonInitializeFailure)
	}
	if _, err := env.Call(instance, input, nil); err != nil {
		return nil, err
	}

	count := env.LoadUint64(slotInstances)
	env.StoreAddress(sim.ArrayElementSlot(slotInstances, count), instance)
	env.StoreUint64(slotInstances, count+1)

	emit(env, EventContractDeployed, []common.Hash{addressTopic(env.Caller())}, [32]byte(terra), instance)

	return []any{instance}, nil
}
