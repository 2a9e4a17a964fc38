package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	opfactory "github.com/smartcontractkit/operation-factory/changeset/operationfactory"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/internal/cli/flags"
	"github.com/smartcontractkit/operation-factory/internal/cli/text"
)

var (
	buildShort = "Build Operation instances"

	buildLong = text.LongDesc(`
		Pushes the given terra addresses onto the queue of the factory recorded under
		--qualifier and builds one Operation instance per address, in order. Pushing needs the
		owner key, building needs the operator key: the operator must be the deployer or the
		configured operator key.
	`)

	buildExample = text.Examples(`
		# Build two instances from the main factory
		opfactory build -q main --standard 0 --controller 0x00000000000000000000000000000000000c0de1 \
			--terra 0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef \
			--terra 0xbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdead
	`)
)

type buildFlags struct {
	qualifier  string
	standard   string
	controller string
	terra      []string
}

func newBuildCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build",
		Short:   buildShort,
		Long:    buildLong,
		Example: buildExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := buildFlags{
				qualifier:  flags.MustString(cmd.Flags().GetString("qualifier")),
				standard:   flags.MustString(cmd.Flags().GetString("standard")),
				controller: flags.MustString(cmd.Flags().GetString("controller")),
				terra:      flags.MustStringSlice(cmd.Flags().GetStringSlice("terra")),
			}

			return runBuild(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Qualifier(cmd)
	flags.Standard(cmd)
	flags.Controller(cmd)

	// Local flags specific to this command
	cmd.Flags().StringSlice("terra", nil, "Terra address to build an instance for, repeatable (required)")
	_ = cmd.MarkFlagRequired("terra")

	return cmd
}

func runBuild(cmd *cobra.Command, cfg Config, f buildFlags) error {
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

	ds, err := applyChangeset(cmd, cfg, appCfg, c, opfactory.BuildInstancesChangeset, csCfg)
	if err != nil {
		return fmt.Errorf("failed to build instances: %w", err)
	}

	// --- Output

	for _, terra := range csCfg.TerraAddresses {
		ref, err := ds.Addresses().Get(
			datastore.NewAddressRefKey(c.Selector, opfactory.OperationInstanceType, opfactory.Version1_0_0, terra.Hex()))
		if err != nil {
			return err
		}
		cmd.Printf("%s: %s\n", terra.Hex(), ref.Address)
	}

	return nil
}

func (f buildFlags) changesetConfig() (opfactory.BuildInstancesConfig, error) {
	if len(f.terra) == 0 {
		return opfactory.BuildInstancesConfig{}, errors.New("at least one --terra is required")
	}

	standard, err := flags.ParseBig(f.standard)
	if err != nil {
		return opfactory.BuildInstancesConfig{}, fmt.Errorf("--standard: %w", err)
	}
	controller, err := flags.ParseAddress(f.controller)
	if err != nil {
		return opfactory.BuildInstancesConfig{}, fmt.Errorf("--controller: %w", err)
	}
	terra, err := flags.ParseHashes(f.terra)
	if err != nil {
		return opfactory.BuildInstancesConfig{}, fmt.Errorf("--terra: %w", err)
	}

	return opfactory.BuildInstancesConfig{
		FactoryQualifier: f.qualifier,
		Standard:         standard,
		Controller:       controller,
		TerraAddresses:   terra,
	}, nil
}
