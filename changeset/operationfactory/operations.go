package operationfactory

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/contracts/operation"
	"github.com/smartcontractkit/operation-factory/contracts/operationfactory"
	"github.com/smartcontractkit/operation-factory/helper"
	"github.com/smartcontractkit/operation-factory/operations"
)

// ChainInput is the input of operations that only need the target chain.
type ChainInput struct {
	ChainSelector uint64 `json:"chainSelector"`
}

// DeployOutput is the result of a contract deployment.
type DeployOutput struct {
	Address     common.Address `json:"address"`
	TxHash      common.Hash    `json:"txHash"`
	BlockNumber uint64         `json:"blockNumber"`
}

// TxOutput is the result of a confirmed transaction.
type TxOutput struct {
	TxHash      common.Hash `json:"txHash"`
	BlockNumber uint64      `json:"blockNumber"`
}

// InitializeOperationInput initializes a deployed Operation.
type InitializeOperationInput struct {
	ChainSelector uint64         `json:"chainSelector"`
	Operation     common.Address `json:"operation"`
	Controller    common.Address `json:"controller"`
	TerraAddress  common.Hash    `json:"terraAddress"`
	Owner         common.Address `json:"owner"`
	Operator      common.Address `json:"operator"`
}

// TransferOperatorInput hands the operator role of a factory to NewOperator.
type TransferOperatorInput struct {
	ChainSelector uint64         `json:"chainSelector"`
	Factory       common.Address `json:"factory"`
	NewOperator   common.Address `json:"newOperator"`
}

// SetStandardOperationInput registers Operation under Standard.
type SetStandardOperationInput struct {
	ChainSelector uint64         `json:"chainSelector"`
	Factory       common.Address `json:"factory"`
	Standard      *big.Int       `json:"standard"`
	Operation     common.Address `json:"operation"`
}

// PushTerraAddressesInput appends TerraAddresses to the queue of a factory.
type PushTerraAddressesInput struct {
	ChainSelector  uint64         `json:"chainSelector"`
	Factory        common.Address `json:"factory"`
	TerraAddresses []common.Hash  `json:"terraAddresses"`
}

// BuildInput builds one instance. ExpectedTerraAddress must be the head of the queue; it also
// tells consecutive builds apart.
type BuildInput struct {
	ChainSelector        uint64         `json:"chainSelector"`
	Factory              common.Address `json:"factory"`
	Standard             *big.Int       `json:"standard"`
	Controller           common.Address `json:"controller"`
	ExpectedTerraAddress common.Hash    `json:"expectedTerraAddress"`
}

// BuildOutput is the decoded ContractDeployed event of a build.
type BuildOutput struct {
	Instance     common.Address `json:"instance"`
	Deployer     common.Address `json:"deployer"`
	TerraAddress common.Hash    `json:"terraAddress"`
	TxHash       common.Hash    `json:"txHash"`
	BlockNumber  uint64         `json:"blockNumber"`
}

// BuildDeps are the dependencies of a build: the chain and the operator key.
type BuildDeps struct {
	Chain    evm.Chain
	Operator *bind.TransactOpts
}

// DeployOperationOp deploys the Operation template with the deployer key.
var DeployOperationOp = operations.NewOperation(
	"operation:deploy",
	Version1_0_0,
	"Deploys the Operation template contract",
	func(b operations.Bundle, chain evm.Chain, input ChainInput) (DeployOutput, error) {
		if err := checkChain(chain, input.ChainSelector); err != nil {
			return DeployOutput{}, err
		}

		return deploy(b, chain, operation.ContractName,
			func(opts *bind.TransactOpts) (common.Address, *types.Transaction, error) {
				addr, tx, _, err := operation.DeployOperation(opts, chain.Client)
				return addr, tx, err
			},
		)
	},
)

// InitializeOperationOp calls initialize on an Operation with the deployer key.
var InitializeOperationOp = operations.NewOperation(
	"operation:initialize",
	Version1_0_0,
	"Initializes an Operation with its controller, terra address and roles",
	func(b operations.Bundle, chain evm.Chain, input InitializeOperationInput) (TxOutput, error) {
		if err := checkChain(chain, input.ChainSelector); err != nil {
			return TxOutput{}, err
		}

		op, err := operation.NewOperation(input.Operation, chain.Client)
		if err != nil {
			return TxOutput{}, err
		}

		return transact(b, chain, chain.DeployerKey, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return op.InitializeWith(opts, operation.InitParams{
				Controller:   input.Controller,
				TerraAddress: input.TerraAddress,
				Owner:        input.Owner,
				Operator:     input.Operator,
			})
		})
	},
)

// DeployOperationFactoryOp deploys an OperationFactory with the deployer key, which becomes its
// owner and operator.
var DeployOperationFactoryOp = operations.NewOperation(
	"operation-factory:deploy",
	Version1_0_0,
	"Deploys the OperationFactory contract",
	func(b operations.Bundle, chain evm.Chain, input ChainInput) (DeployOutput, error) {
		if err := checkChain(chain, input.ChainSelector); err != nil {
			return DeployOutput{}, err
		}

		return deploy(b, chain, operationfactory.ContractName,
			func(opts *bind.TransactOpts) (common.Address, *types.Transaction, error) {
				addr, tx, _, err := operationfactory.DeployOperationFactory(opts, chain.Client)
				return addr, tx, err
			},
		)
	},
)

// TransferOperatorOp transfers the operator role of a factory. The deployer key must own it.
var TransferOperatorOp = operations.NewOperation(
	"operation-factory:transfer-operator",
	Version1_0_0,
	"Transfers the operator role of an OperationFactory",
	func(b operations.Bundle, chain evm.Chain, input TransferOperatorInput) (TxOutput, error) {
		factory, err := bindFactory(chain, input.ChainSelector, input.Factory)
		if err != nil {
			return TxOutput{}, err
		}

		return transact(b, chain, chain.DeployerKey, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return factory.TransferOperator(opts, input.NewOperator)
		})
	},
)

// SetStandardOperationOp registers a template under a standard code. The deployer key must own
// the factory.
var SetStandardOperationOp = operations.NewOperation(
	"operation-factory:set-standard-operation",
	Version1_0_0,
	"Registers an Operation template under a standard code",
	func(b operations.Bundle, chain evm.Chain, input SetStandardOperationInput) (TxOutput, error) {
		factory, err := bindFactory(chain, input.ChainSelector, input.Factory)
		if err != nil {
			return TxOutput{}, err
		}

		return transact(b, chain, chain.DeployerKey, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return factory.SetStandardOperation(opts, standardOrZero(input.Standard), input.Operation)
		})
	},
)

// PushTerraAddressesOp appends identifiers to the queue of a factory. The deployer key must own
// the factory.
var PushTerraAddressesOp = operations.NewOperation(
	"operation-factory:push-terra-addresses",
	Version1_0_0,
	"Appends terra addresses to the queue of an OperationFactory",
	func(b operations.Bundle, chain evm.Chain, input PushTerraAddressesInput) (TxOutput, error) {
		factory, err := bindFactory(chain, input.ChainSelector, input.Factory)
		if err != nil {
			return TxOutput{}, err
		}

		terraAddresses := make([][32]byte, 0, len(input.TerraAddresses))
		for _, terra := range input.TerraAddresses {
			terraAddresses = append(terraAddresses, terra)
		}

		return transact(b, chain, chain.DeployerKey, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return factory.PushTerraAddresses(opts, terraAddresses)
		})
	},
)

// BuildOp builds an instance with the operator key and decodes the ContractDeployed event,
// the first log of the receipt.
var BuildOp = operations.NewOperation(
	"operation-factory:build",
	Version1_0_0,
	"Builds an Operation instance from the head of the terra address queue",
	func(b operations.Bundle, deps BuildDeps, input BuildInput) (BuildOutput, error) {
		if deps.Operator == nil {
			return BuildOutput{}, operations.NewUnrecoverableError(errors.New("operator key is required"))
		}

		factory, err := bindFactory(deps.Chain, input.ChainSelector, input.Factory)
		if err != nil {
			return BuildOutput{}, err
		}

		ctx := b.GetContext()
		next, err := factory.FetchNextTerraAddress(&bind.CallOpts{Context: ctx})
		if err != nil {
			return BuildOutput{}, classify(fmt.Errorf("failed to fetch next terra address: %w", err))
		}
		if common.Hash(next) != input.ExpectedTerraAddress {
			return BuildOutput{}, operations.NewUnrecoverableError(fmt.Errorf(
				"next terra address is %s, expected %s", common.Hash(next), input.ExpectedTerraAddress,
			))
		}

		sent, err := transact(b, deps.Chain, deps.Operator, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return factory.Build(opts, standardOrZero(input.Standard), input.Controller)
		})
		if err != nil {
			return BuildOutput{}, err
		}

		receipt, err := deps.Chain.Client.TransactionReceipt(ctx, sent.TxHash)
		if err != nil {
			return BuildOutput{}, fmt.Errorf("failed to get build receipt: %w", err)
		}
		if len(receipt.Logs) == 0 {
			return BuildOutput{}, operations.NewUnrecoverableError(fmt.Errorf("build tx %s emitted no logs", sent.TxHash))
		}

		event, err := factory.ParseContractDeployed(*receipt.Logs[0])
		if err != nil {
			return BuildOutput{}, operations.NewUnrecoverableError(fmt.Errorf("failed to parse ContractDeployed: %w", err))
		}

		b.Logger.Infow("Built operation instance",
			"chain", deps.Chain.String(),
			"factory", input.Factory,
			"instance", event.Instance,
			"terraAddress", common.Hash(event.TerraAddress),
		)

		return BuildOutput{
			Instance:     event.Instance,
			Deployer:     event.Deployer,
			TerraAddress: event.TerraAddress,
			TxHash:       sent.TxHash,
			BlockNumber:  sent.BlockNumber,
		}, nil
	},
)

func checkChain(chain evm.Chain, selector uint64) error {
	if chain.Selector != selector {
		return operations.NewUnrecoverableError(fmt.Errorf(
			"input targets chain %d, dependencies hold chain %d", selector, chain.Selector,
		))
	}

	return nil
}

func bindFactory(chain evm.Chain, selector uint64, addr common.Address) (*operationfactory.OperationFactory, error) {
	if err := checkChain(chain, selector); err != nil {
		return nil, err
	}

	return operationfactory.NewOperationFactory(addr, chain.Client)
}

// withContext copies opts so that the shared key is not mutated.
func withContext(opts *bind.TransactOpts, ctx context.Context) *bind.TransactOpts {
	cp := *opts
	cp.Context = ctx

	return &cp
}

func deploy(
	b operations.Bundle,
	chain evm.Chain,
	contractName string,
	send func(opts *bind.TransactOpts) (common.Address, *types.Transaction, error),
) (DeployOutput, error) {
	addr, tx, err := send(withContext(chain.DeployerKey, b.GetContext()))
	if err != nil {
		return DeployOutput{}, classify(fmt.Errorf("failed to deploy %s: %w", contractName, err))
	}

	block, err := chain.Confirm(tx)
	if err != nil {
		return DeployOutput{}, classify(fmt.Errorf("failed to confirm %s deployment: %w", contractName, err))
	}

	b.Logger.Infow("Deployed contract",
		"contract", contractName, "chain", chain.String(), "address", addr, "tx", tx.Hash())

	return DeployOutput{Address: addr, TxHash: tx.Hash(), BlockNumber: block}, nil
}

func transact(
	b operations.Bundle,
	chain evm.Chain,
	key *bind.TransactOpts,
	send func(opts *bind.TransactOpts) (*types.Transaction, error),
) (TxOutput, error) {
	tx, err := send(withContext(key, b.GetContext()))
	if err != nil {
		return TxOutput{}, classify(err)
	}

	block, err := chain.Confirm(tx)
	if err != nil {
		return TxOutput{}, classify(fmt.Errorf("failed to confirm tx %s: %w", tx.Hash(), err))
	}

	return TxOutput{TxHash: tx.Hash(), BlockNumber: block}, nil
}

// classify marks reverts as unrecoverable: retrying a reverted call cannot succeed.
func classify(err error) error {
	if _, ok := helper.RevertReason(err); ok {
		return operations.NewUnrecoverableError(err)
	}

	return err
}

// NewOperationRegistry returns a registry holding every operation of the factory lifecycle.
func NewOperationRegistry() *operations.OperationRegistry {
	r := operations.NewOperationRegistry()
	operations.RegisterOperation(r, DeployOperationOp, DeployOperationFactoryOp)
	operations.RegisterOperation(r, InitializeOperationOp)
	operations.RegisterOperation(r, TransferOperatorOp)
	operations.RegisterOperation(r, SetStandardOperationOp)
	operations.RegisterOperation(r, PushTerraAddressesOp)
	operations.RegisterOperation(r, BuildOp)

	return r
}
