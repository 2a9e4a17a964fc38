package operationfactory

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/contracts/operationfactory"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/deployment"
	"github.com/smartcontractkit/operation-factory/operations"
)

// LabelTemplate marks the Operation template records.
const LabelTemplate = "template"

var (
	_ deployment.ChangeSetV2[DeployFactoryConfig]  = DeployFactoryChangeset
	_ deployment.ChangeSetV2[BuildInstancesConfig] = BuildInstancesChangeset
)

// DeployFactoryConfig configures DeployFactoryChangeset.
type DeployFactoryConfig struct {
	ChainSelector        uint64         `json:"chainSelector" yaml:"chainSelector"`
	Standard             *big.Int       `json:"standard" yaml:"standard"`
	TemplateController   common.Address `json:"templateController" yaml:"templateController"`
	TemplateTerraAddress common.Hash    `json:"templateTerraAddress" yaml:"templateTerraAddress"`
	// Operator receives the operator role. The deployer keeps it when Operator is zero.
	Operator common.Address `json:"operator" yaml:"operator"`
	// Qualifier tells apart factories on the same chain.
	Qualifier string `json:"qualifier" yaml:"qualifier"`
}

// BuildInstancesConfig configures BuildInstancesChangeset.
type BuildInstancesConfig struct {
	ChainSelector uint64 `json:"chainSelector" yaml:"chainSelector"`
	// FactoryQualifier selects the factory recorded by DeployFactoryChangeset.
	FactoryQualifier string         `json:"factoryQualifier" yaml:"factoryQualifier"`
	Standard         *big.Int       `json:"standard" yaml:"standard"`
	Controller       common.Address `json:"controller" yaml:"controller"`
	TerraAddresses   []common.Hash  `json:"terraAddresses" yaml:"terraAddresses"`
}

// DeployFactoryChangeset deploys an OperationFactory with its template and records both.
var DeployFactoryChangeset = deployment.CreateChangeSet(applyDeployFactory, verifyDeployFactory)

// BuildInstancesChangeset builds one instance per terra address and records every instance
// with its build metadata.
var BuildInstancesChangeset = deployment.CreateChangeSet(applyBuildInstances, verifyBuildInstances)

func verifyDeployFactory(e deployment.Environment, cfg DeployFactoryConfig) error {
	if _, err := evmChain(e, cfg.ChainSelector); err != nil {
		return err
	}
	if cfg.Standard == nil || cfg.Standard.Sign() < 0 {
		return errors.New("standard must be a non-negative integer")
	}

	key := datastore.NewAddressRefKey(cfg.ChainSelector, OperationFactoryType, Version1_0_0, cfg.Qualifier)
	if _, err := e.DataStore.Addresses().Get(key); err == nil {
		return fmt.Errorf("factory %s already exists", key)
	}

	return nil
}

func applyDeployFactory(e deployment.Environment, cfg DeployFactoryConfig) (deployment.ChangesetOutput, error) {
	chain, err := evmChain(e, cfg.ChainSelector)
	if err != nil {
		return deployment.ChangesetOutput{}, err
	}

	report, err := operations.ExecuteSequence(e.OperationsBundle, DeployFactorySeq, chain, DeployFactoryInput{
		ChainSelector:        cfg.ChainSelector,
		Standard:             cfg.Standard,
		TemplateController:   cfg.TemplateController,
		TemplateTerraAddress: cfg.TemplateTerraAddress,
		Operator:             cfg.Operator,
	})
	out := deployment.ChangesetOutput{Reports: sequenceReports(report)}
	if err != nil {
		return out, fmt.Errorf("failed to deploy factory on %s: %w", chain, err)
	}

	ds := datastore.NewMemoryDataStore()
	refs := []datastore.AddressRef{
		{
			Address:       report.Output.Template.Hex(),
			ChainSelector: cfg.ChainSelector,
			Type:          OperationType,
			Version:       Version1_0_0,
			Qualifier:     cfg.Qualifier,
			Labels:        datastore.NewLabelSet(LabelTemplate, "standard:"+cfg.Standard.String()),
		},
		{
			Address:       report.Output.Factory.Hex(),
			ChainSelector: cfg.ChainSelector,
			Type:          OperationFactoryType,
			Version:       Version1_0_0,
			Qualifier:     cfg.Qualifier,
		},
	}
	for _, ref := range refs {
		if err := ds.Addresses().Add(ref); err != nil {
			return out, fmt.Errorf("failed to record %s: %w", ref.Type, err)
		}
	}
	out.DataStore = ds

	return out, nil
}

func verifyBuildInstances(e deployment.Environment, cfg BuildInstancesConfig) error {
	chain, err := evmChain(e, cfg.ChainSelector)
	if err != nil {
		return err
	}
	if cfg.Standard == nil || cfg.Standard.Sign() < 0 {
		return errors.New("standard must be a non-negative integer")
	}
	if len(cfg.TerraAddresses) == 0 {
		return errors.New("at least one terra address is required")
	}

	seen := make(map[common.Hash]struct{}, len(cfg.TerraAddresses))
	for _, terra := range cfg.TerraAddresses {
		if _, dup := seen[terra]; dup {
			return fmt.Errorf("duplicate terra address %s", terra)
		}
		seen[terra] = struct{}{}

		key := datastore.NewAddressRefKey(cfg.ChainSelector, OperationInstanceType, Version1_0_0, terra.Hex())
		if ref, err := e.DataStore.Addresses().Get(key); err == nil {
			return fmt.Errorf("terra address %s already has instance %s", terra, ref.Address)
		}
	}

	factory, err := loadFactory(e, cfg)
	if err != nil {
		return err
	}

	opts := &bind.CallOpts{Context: e.GetContext()}
	impl, err := factory.Standards(opts, cfg.Standard)
	if err != nil {
		return fmt.Errorf("failed to read standard %s: %w", cfg.Standard, err)
	}
	if impl == (common.Address{}) {
		return fmt.Errorf("standard %s is not registered on factory %s", cfg.Standard, factory.Address())
	}

	remaining, err := factory.RemainingTerraAddresses(opts)
	if err != nil {
		return fmt.Errorf("failed to read terra address queue: %w", err)
	}
	if remaining.Sign() != 0 {
		return fmt.Errorf("factory %s still has %s queued terra addresses", factory.Address(), remaining)
	}

	_, err = operatorKey(e, chain, factory)

	return err
}

func applyBuildInstances(e deployment.Environment, cfg BuildInstancesConfig) (deployment.ChangesetOutput, error) {
	chain, err := evmChain(e, cfg.ChainSelector)
	if err != nil {
		return deployment.ChangesetOutput{}, err
	}
	factory, err := loadFactory(e, cfg)
	if err != nil {
		return deployment.ChangesetOutput{}, err
	}
	operator, err := operatorKey(e, chain, factory)
	if err != nil {
		return deployment.ChangesetOutput{}, err
	}

	report, err := operations.ExecuteSequence(e.OperationsBundle, BuildInstancesSeq,
		BuildDeps{Chain: chain, Operator: operator},
		BuildInstancesInput{
			ChainSelector:  cfg.ChainSelector,
			Factory:        factory.Address(),
			Standard:       cfg.Standard,
			Controller:     cfg.Controller,
			TerraAddresses: cfg.TerraAddresses,
		},
	)
	out := deployment.ChangesetOutput{Reports: sequenceReports(report)}
	if err != nil {
		return out, fmt.Errorf("failed to build instances on %s: %w", chain, err)
	}

	ds := datastore.NewMemoryDataStore()
	for _, instance := range report.Output.Instances {
		ref := datastore.AddressRef{
			Address:       instance.Instance.Hex(),
			ChainSelector: cfg.ChainSelector,
			Type:          OperationInstanceType,
			Version:       Version1_0_0,
			Qualifier:     instance.TerraAddress.Hex(),
			Labels:        datastore.NewLabelSet("standard:" + cfg.Standard.String()),
		}
		if err := ds.Addresses().Add(ref); err != nil {
			return out, fmt.Errorf("failed to record instance %s: %w", instance.Instance, err)
		}

		if err := ds.ContractMetadata().Add(datastore.ContractMetadata{
			Address:       instance.Instance.Hex(),
			ChainSelector: cfg.ChainSelector,
			Metadata: InstanceMetadata{
				Factory:      factory.Address(),
				Standard:     standardOrZero(cfg.Standard),
				TerraAddress: instance.TerraAddress,
				Controller:   cfg.Controller,
				Deployer:     instance.Deployer,
				TxHash:       instance.TxHash,
				BlockNumber:  instance.BlockNumber,
			},
		}); err != nil {
			return out, fmt.Errorf("failed to record metadata of instance %s: %w", instance.Instance, err)
		}
	}
	out.DataStore = ds

	return out, nil
}

func evmChain(e deployment.Environment, selector uint64) (evm.Chain, error) {
	chain, ok := e.BlockChains.EVMChains()[selector]
	if !ok {
		return evm.Chain{}, fmt.Errorf("evm chain %d not found in environment", selector)
	}

	return chain, nil
}

func loadFactory(e deployment.Environment, cfg BuildInstancesConfig) (*operationfactory.OperationFactory, error) {
	chain, err := evmChain(e, cfg.ChainSelector)
	if err != nil {
		return nil, err
	}

	key := datastore.NewAddressRefKey(cfg.ChainSelector, OperationFactoryType, Version1_0_0, cfg.FactoryQualifier)
	ref, err := e.DataStore.Addresses().Get(key)
	if err != nil {
		return nil, fmt.Errorf("factory %s: %w", key, err)
	}

	return operationfactory.NewOperationFactory(common.HexToAddress(ref.Address), chain.Client)
}

// operatorKey returns the key of the chain holding the operator role of factory.
func operatorKey(
	e deployment.Environment, chain evm.Chain, factory *operationfactory.OperationFactory,
) (*bind.TransactOpts, error) {
	operator, err := factory.Operator(&bind.CallOpts{Context: e.GetContext()})
	if err != nil {
		return nil, fmt.Errorf("failed to read operator of %s: %w", factory.Address(), err)
	}

	keys := append([]*bind.TransactOpts{chain.DeployerKey}, chain.Users...)
	for _, key := range keys {
		if key != nil && key.From == operator {
			return key, nil
		}
	}

	return nil, fmt.Errorf("no key on %s for operator %s", chain, operator)
}

// sequenceReports returns the reports of a sequence run, the sequence itself last.
func sequenceReports[IN, OUT any](report operations.SequenceReport[IN, OUT]) []operations.Report[any, any] {
	return report.ExecutionReports
}
