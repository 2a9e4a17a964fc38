package operationfactory

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/operations"
)

// DeployFactoryInput configures the DeployFactory sequence.
type DeployFactoryInput struct {
	ChainSelector uint64 `json:"chainSelector"`
	// Standard is the code the template is registered under.
	Standard *big.Int `json:"standard"`
	// TemplateController and TemplateTerraAddress initialize the template itself. Instances get
	// their own values at build time.
	TemplateController   common.Address `json:"templateController"`
	TemplateTerraAddress common.Hash    `json:"templateTerraAddress"`
	// Operator receives the operator role. The deployer keeps it when Operator is zero.
	Operator common.Address `json:"operator"`
}

// DeployFactoryOutput holds the addresses deployed by the DeployFactory sequence.
type DeployFactoryOutput struct {
	Template common.Address `json:"template"`
	Factory  common.Address `json:"factory"`
	Operator common.Address `json:"operator"`
}

// BuildInstancesInput configures the BuildInstances sequence.
type BuildInstancesInput struct {
	ChainSelector  uint64         `json:"chainSelector"`
	Factory        common.Address `json:"factory"`
	Standard       *big.Int       `json:"standard"`
	Controller     common.Address `json:"controller"`
	TerraAddresses []common.Hash  `json:"terraAddresses"`
}

// BuildInstancesOutput lists the built instances in queue order.
type BuildInstancesOutput struct {
	Instances []BuildOutput `json:"instances"`
}

// DeployFactorySeq deploys and initializes the Operation template, deploys the factory, hands
// the operator role over and registers the template under the standard code.
var DeployFactorySeq = operations.NewSequence(
	"operation-factory:deploy-factory",
	Version1_0_0,
	"Deploys an OperationFactory with an Operation template registered under a standard",
	func(b operations.Bundle, chain evm.Chain, input DeployFactoryInput) (DeployFactoryOutput, error) {
		chainInput := ChainInput{ChainSelector: input.ChainSelector}
		deployer := chain.DeployerKey.From

		template, err := operations.ExecuteOperation(b, DeployOperationOp, chain, chainInput)
		if err != nil {
			return DeployFactoryOutput{}, fmt.Errorf("failed to deploy template: %w", err)
		}

		if _, err = operations.ExecuteOperation(b, InitializeOperationOp, chain, InitializeOperationInput{
			ChainSelector: input.ChainSelector,
			Operation:     template.Output.Address,
			Controller:    input.TemplateController,
			TerraAddress:  input.TemplateTerraAddress,
			Owner:         deployer,
			Operator:      deployer,
		}); err != nil {
			return DeployFactoryOutput{}, fmt.Errorf("failed to initialize template: %w", err)
		}

		factory, err := operations.ExecuteOperation(b, DeployOperationFactoryOp, chain, chainInput)
		if err != nil {
			return DeployFactoryOutput{}, fmt.Errorf("failed to deploy factory: %w", err)
		}

		operator := deployer
		if input.Operator != (common.Address{}) && input.Operator != deployer {
			if _, err = operations.ExecuteOperation(b, TransferOperatorOp, chain, TransferOperatorInput{
				ChainSelector: input.ChainSelector,
				Factory:       factory.Output.Address,
				NewOperator:   input.Operator,
			}); err != nil {
				return DeployFactoryOutput{}, fmt.Errorf("failed to transfer operator: %w", err)
			}
			operator = input.Operator
		}

		if _, err = operations.ExecuteOperation(b, SetStandardOperationOp, chain, SetStandardOperationInput{
			ChainSelector: input.ChainSelector,
			Factory:       factory.Output.Address,
			Standard:      standardOrZero(input.Standard),
			Operation:     template.Output.Address,
		}); err != nil {
			return DeployFactoryOutput{}, fmt.Errorf("failed to register standard %s: %w", standardOrZero(input.Standard), err)
		}

		return DeployFactoryOutput{
			Template: template.Output.Address,
			Factory:  factory.Output.Address,
			Operator: operator,
		}, nil
	},
)

// BuildInstancesSeq pushes the terra addresses with the owner key and builds one instance per
// address with the operator key, in queue order.
var BuildInstancesSeq = operations.NewSequence(
	"operation-factory:build-instances",
	Version1_0_0,
	"Seeds the terra address queue of an OperationFactory and builds one instance per address",
	func(b operations.Bundle, deps BuildDeps, input BuildInstancesInput) (BuildInstancesOutput, error) {
		if len(input.TerraAddresses) == 0 {
			return BuildInstancesOutput{}, errors.New("no terra addresses to build")
		}

		if _, err := operations.ExecuteOperation(b, PushTerraAddressesOp, deps.Chain, PushTerraAddressesInput{
			ChainSelector:  input.ChainSelector,
			Factory:        input.Factory,
			TerraAddresses: input.TerraAddresses,
		}); err != nil {
			return BuildInstancesOutput{}, fmt.Errorf("failed to push terra addresses: %w", err)
		}

		out := BuildInstancesOutput{Instances: make([]BuildOutput, 0, len(input.TerraAddresses))}
		for _, terra := range input.TerraAddresses {
			report, err := operations.ExecuteOperation(b, BuildOp, deps, BuildInput{
				ChainSelector:        input.ChainSelector,
				Factory:              input.Factory,
				Standard:             standardOrZero(input.Standard),
				Controller:           input.Controller,
				ExpectedTerraAddress: terra,
			}, operations.WithRetry[BuildInput, BuildDeps]())
			if err != nil {
				return BuildInstancesOutput{}, fmt.Errorf("failed to build instance for %s: %w", terra, err)
			}
			out.Instances = append(out.Instances, report.Output)
		}

		return out, nil
	},
)
