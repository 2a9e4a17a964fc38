package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	opfactory "github.com/smartcontractkit/operation-factory/changeset/operationfactory"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/internal/cli/flags"
	"github.com/smartcontractkit/operation-factory/internal/cli/text"
)

var (
	deployShort = "Deploy an OperationFactory"

	deployLong = text.LongDesc(`
		Deploys and initializes an Operation template, deploys an OperationFactory owned by the
		deployer key, hands the operator role to --operator and registers the template under
		--standard. The new addresses are recorded in the datastore under --qualifier.
	`)

	deployExample = text.Examples(`
		# Deploy a factory for standard 0, keeping the operator role on the deployer
		opfactory deploy --standard 0

		# Deploy a second factory operated by another account
		opfactory deploy -q secondary --standard 1 --operator 0x7e57000000000000000000000000000000000001
	`)
)

type deployFlags struct {
	qualifier  string
	standard   string
	controller string
	operator   string
	terra      string
}

func newDeployCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deploy",
		Short:   deployShort,
		Long:    deployLong,
		Example: deployExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := deployFlags{
				qualifier:  flags.MustString(cmd.Flags().GetString("qualifier")),
				standard:   flags.MustString(cmd.Flags().GetString("standard")),
				controller: flags.MustString(cmd.Flags().GetString("controller")),
				operator:   flags.MustString(cmd.Flags().GetString("operator")),
				terra:      flags.MustString(cmd.Flags().GetString("template-terra-address")),
			}

			return runDeploy(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Qualifier(cmd)
	flags.Standard(cmd)
	flags.Controller(cmd)

	// Local flags specific to this command
	cmd.Flags().String("operator", "", "Operator of the factory, the deployer when empty")
	cmd.Flags().String("template-terra-address", common.Hash{}.Hex(), "Terra address stored in the template")

	return cmd
}

func runDeploy(cmd *cobra.Command, cfg Config, f deployFlags) error {
	ctx := cmd.Context()
	deps := cfg.deps()

	// --- Load

	csCfg, err := f.changesetConfig()
	if err != nil {
		return err
	}

	appCfg, err := loadConfig(cmd, cfg)
	if err != nil {
		return err
	}

	c, err := deps.ChainLoader(ctx, appCfg, cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}
	csCfg.ChainSelector = c.Selector

	// --- Execute

	ds, err := applyChangeset(cmd, cfg, appCfg, c, opfactory.DeployFactoryChangeset, csCfg)
	if err != nil {
		return fmt.Errorf("failed to deploy factory: %w", err)
	}

	// --- Output

	for _, typ := range []datastore.ContractType{opfactory.OperationType, opfactory.OperationFactoryType} {
		ref, err := ds.Addresses().Get(
			datastore.NewAddressRefKey(c.Selector, typ, opfactory.Version1_0_0, f.qualifier))
		if err != nil {
			return err
		}
		cmd.Printf("%s: %s\n", typ, ref.Address)
	}

	return nil
}

func (f deployFlags) changesetConfig() (opfactory.DeployFactoryConfig, error) {
	standard, err := flags.ParseBig(f.standard)
	if err != nil {
		return opfactory.DeployFactoryConfig{}, fmt.Errorf("--standard: %w", err)
	}
	controller, err := flags.ParseAddress(f.controller)
	if err != nil {
		return opfactory.DeployFactoryConfig{}, fmt.Errorf("--controller: %w", err)
	}
	terra, err := flags.ParseHashes([]string{f.terra})
	if err != nil {
		return opfactory.DeployFactoryConfig{}, fmt.Errorf("--template-terra-address: %w", err)
	}

	csCfg := opfactory.DeployFactoryConfig{
		Standard:             standard,
		TemplateController:   controller,
		TemplateTerraAddress: terra[0],
		Qualifier:            f.qualifier,
	}
	if f.operator != "" {
		if csCfg.Operator, err = flags.ParseAddress(f.operator); err != nil {
			return opfactory.DeployFactoryConfig{}, fmt.Errorf("--operator: %w", err)
		}
	}

	return csCfg, nil
}
