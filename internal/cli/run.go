package cli

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/operation-factory/chain"
	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/config"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/deployment"
	"github.com/smartcontractkit/operation-factory/internal/cli/flags"
)

// environmentName is the name of the environments built by the commands.
const environmentName = "opfactory"

// loadConfig loads the file named by the persistent --config flag.
func loadConfig(cmd *cobra.Command, cfg Config) (*config.Config, error) {
	path := flags.MustString(cmd.Flags().GetString("config"))

	appCfg, err := cfg.deps().ConfigLoader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return appCfg, nil
}

// applyChangeset verifies and applies cs against c and the recorded deployments, then persists
// the merged datastore. It returns the merged datastore.
func applyChangeset[C any](
	cmd *cobra.Command,
	cfg Config,
	appCfg *config.Config,
	c evm.Chain,
	cs deployment.ChangeSetV2[C],
	csCfg C,
) (datastore.DataStore, error) {
	ctx := cmd.Context()
	deps := cfg.deps()

	ds, err := deps.DataStoreLoader(ctx, appCfg, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load datastore: %w", err)
	}

	env := deployment.NewEnvironment(
		environmentName,
		cmd.Context,
		cfg.Logger,
		chain.NewBlockChainsFromSlice([]chain.BlockChain{c}),
		ds.Seal(),
	)

	if err = cs.VerifyPreconditions(env, csCfg); err != nil {
		return nil, fmt.Errorf("preconditions failed: %w", err)
	}

	out, err := cs.Apply(env, csCfg)
	if err != nil {
		return nil, err
	}

	if out.DataStore != nil {
		if err = ds.Merge(out.DataStore.Seal()); err != nil {
			return nil, fmt.Errorf("failed to merge datastore: %w", err)
		}
	}

	sealed := ds.Seal()
	if err = deps.DataStoreSaver(ctx, appCfg, sealed, cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to save datastore: %w", err)
	}

	return sealed, nil
}

// rawKey strips the 0x prefix accepted in configuration.
func rawKey(key string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), "0x")
}

// parseKey parses a hex private key, generating one when key is empty.
func parseKey(key string) (*ecdsa.PrivateKey, error) {
	if key == "" {
		return crypto.GenerateKey()
	}

	return crypto.HexToECDSA(rawKey(key))
}
