package operation

import (
	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

// Storage layout.
var (
	slotOwner        = sim.Slot(0)
	slotOperator     = sim.Slot(1)
	slotInitialized  = sim.Slot(2)
	slotController   = sim.Slot(3)
	slotTerraAddress = sim.Slot(4)
)

// Revert reasons.
const (
	ReasonAlreadyInitialized = "Initializable: contract is already initialized"
	ReasonInvalidInitData    = "Operation: invalid initialization data"
)

// NewNativeContract returns the Operation runtime executed by the in-memory ledger.
//
// The constructor makes the deployer owner and operator. initialize can run exactly once per
// account, so a template and each of its clones are initialized independently.
func NewNativeContract() *sim.ABIContract {
	return sim.NewABIContract(ContractName, parsedABI).
		OnConstruct(func(env *sim.Env, _ []any) error {
			env.StoreAddress(slotOwner, env.Caller())
			env.StoreAddress(slotOperator, env.Caller())

			return nil
		}).
		Handle("initialize", initialize).
		Handle("terraAddress", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{[32]byte(env.Load(slotTerraAddress))}, nil
		}).
		Handle("controller", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{env.LoadAddress(slotController)}, nil
		}).
		Handle("owner", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{env.LoadAddress(slotOwner)}, nil
		}).
		Handle("operator", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{env.LoadAddress(slotOperator)}, nil
		})
}

func initialize(env *sim.Env, args []any) ([]any, error) {
	if env.LoadBool(slotInitialized) {
		return nil, env.Revert(ReasonAlreadyInitialized)
	}

	params, err := DecodeInitParams(args[0].([]byte))
	if err != nil {
		return nil, env.Revert(ReasonInvalidInitData)
	}

	env.StoreBool(slotInitialized, true)
	env.StoreAddress(slotController, params.Controller)
	env.Store(slotTerraAddress, params.TerraAddress)
	env.StoreAddress(slotOwner, params.Owner)
	env.StoreAddress(slotOperator, params.Operator)

	return nil, nil
}
