package cli

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	opfactory "github.com/smartcontractkit/operation-factory/changeset/operationfactory"
	"github.com/smartcontractkit/operation-factory/contracts/operation"
	"github.com/smartcontractkit/operation-factory/contracts/operationfactory"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/helper"
	"github.com/smartcontractkit/operation-factory/internal/cli/flags"
	"github.com/smartcontractkit/operation-factory/internal/cli/text"
)

var (
	inspectShort = "Show the state of an OperationFactory"

	inspectLong = text.LongDesc(`
		Reads the roles, the terra address queue and the built instances of a factory and
		prints them as YAML. The factory is looked up in the datastore under --qualifier
		unless --factory gives its address.
	`)

	inspectExample = text.Examples(`
		# Show everything about the main factory
		opfactory inspect -q main

		# Show only the roles of a factory by address
		opfactory inspect --factory 0x5FbDB2315678afecb367f032d93F642f64180aa3 --fields owner,operator
	`)
)

type inspectFlags struct {
	qualifier string
	factory   string
	fields    []string
}

// factoryView is the state printed by inspect.
type factoryView struct {
	Factory                 common.Address `json:"factory" yaml:"factory"`
	Owner                   common.Address `json:"owner" yaml:"owner"`
	Operator                common.Address `json:"operator" yaml:"operator"`
	RemainingTerraAddresses uint64         `json:"remainingTerraAddresses" yaml:"remainingTerraAddresses"`
	NextTerraAddress        *common.Hash   `json:"nextTerraAddress,omitempty" yaml:"nextTerraAddress,omitempty"`
	Instances               []instanceView `json:"instances" yaml:"instances"`
	LatestBlockTime         time.Time      `json:"latestBlockTime" yaml:"latestBlockTime"`
}

type instanceView struct {
	Address      common.Address `json:"address" yaml:"address"`
	TerraAddress common.Hash    `json:"terraAddress" yaml:"terraAddress"`
	Controller   common.Address `json:"controller" yaml:"controller"`
}

func newInspectCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect",
		Short:   inspectShort,
		Long:    inspectLong,
		Example: inspectExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := inspectFlags{
				qualifier: flags.MustString(cmd.Flags().GetString("qualifier")),
				factory:   flags.MustString(cmd.Flags().GetString("factory")),
				fields:    flags.MustStringSlice(cmd.Flags().GetStringSlice("fields")),
			}

			return runInspect(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Qualifier(cmd)

	// Local flags specific to this command
	cmd.Flags().String("factory", "", "Factory address, overrides the datastore lookup")
	cmd.Flags().StringSlice("fields", nil, "Fields to print, all when empty")

	return cmd
}

func runInspect(cmd *cobra.Command, cfg Config, f inspectFlags) error {
	ctx := cmd.Context()
	deps := cfg.deps()

	// --- Load

	appCfg, err := loadConfig(cmd, cfg)
	if err != nil {
		return err
	}

	c, err := deps.ChainLoader(ctx, appCfg, cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}

	var addr common.Address
	if f.factory != "" {
		if addr, err = flags.ParseAddress(f.factory); err != nil {
			return fmt.Errorf("--factory: %w", err)
		}
	} else {
		ds, lerr := deps.DataStoreLoader(ctx, appCfg, cfg.Logger)
		if lerr != nil {
			return fmt.Errorf("failed to load datastore: %w", lerr)
		}
		ref, gerr := ds.Addresses().Get(
			datastore.NewAddressRefKey(c.Selector, opfactory.OperationFactoryType, opfactory.Version1_0_0, f.qualifier))
		if gerr != nil {
			return fmt.Errorf("factory %q: %w", f.qualifier, gerr)
		}
		addr = common.HexToAddress(ref.Address)
	}

	factory, err := operationfactory.NewOperationFactory(addr, c.Client)
	if err != nil {
		return err
	}

	// --- Execute

	opts := &bind.CallOpts{Context: ctx}
	view := factoryView{Factory: addr}

	if view.Owner, err = factory.Owner(opts); err != nil {
		return fmt.Errorf("failed to read owner: %w", err)
	}
	if view.Operator, err = factory.Operator(opts); err != nil {
		return fmt.Errorf("failed to read operator: %w", err)
	}

	remaining, err := factory.RemainingTerraAddresses(opts)
	if err != nil {
		return fmt.Errorf("failed to read queue length: %w", err)
	}
	view.RemainingTerraAddresses = remaining.Uint64()
	if view.RemainingTerraAddresses > 0 {
		next, nerr := factory.FetchNextTerraAddress(opts)
		if nerr != nil {
			return fmt.Errorf("failed to read queue head: %w", nerr)
		}
		head := common.Hash(next)
		view.NextTerraAddress = &head
	}

	count, err := factory.InstanceCount(opts)
	if err != nil {
		return fmt.Errorf("failed to read instance count: %w", err)
	}
	view.Instances = make([]instanceView, 0, count.Uint64())
	for i := range count.Uint64() {
		instanceAddr, ierr := factory.Instances(opts, new(big.Int).SetUint64(i))
		if ierr != nil {
			return fmt.Errorf("failed to read instance %d: %w", i, ierr)
		}
		instance, ierr := readInstance(opts, instanceAddr, c.Client)
		if ierr != nil {
			return fmt.Errorf("failed to read instance %s: %w", instanceAddr, ierr)
		}
		view.Instances = append(view.Instances, instance)
	}

	if view.LatestBlockTime, err = helper.LatestBlockTime(ctx, c.Client); err != nil {
		return err
	}

	// --- Output

	out, err := helper.FilterStructFields(view, f.fields...)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}

	return enc.Close()
}

func readInstance(opts *bind.CallOpts, addr common.Address, backend bind.ContractBackend) (instanceView, error) {
	instance, err := operation.NewOperation(addr, backend)
	if err != nil {
		return instanceView{}, err
	}

	terra, err := instance.TerraAddress(opts)
	if err != nil {
		return instanceView{}, err
	}
	controller, err := instance.Controller(opts)
	if err != nil {
		return instanceView{}, err
	}

	return instanceView{Address: addr, TerraAddress: terra, Controller: controller}, nil
}
