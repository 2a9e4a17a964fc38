package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/smartcontractkit/operation-factory/chain/evm"
	evmprov "github.com/smartcontractkit/operation-factory/chain/evm/provider"
	"github.com/smartcontractkit/operation-factory/config"
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/datastore/sqlstore"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// confirmTimeout bounds how long a command waits for a transaction to be mined.
const confirmTimeout = 5 * time.Minute

// ConfigLoaderFunc loads the configuration from a file path.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// ChainLoaderFunc connects to the chain described by the configuration.
type ChainLoaderFunc func(ctx context.Context, cfg *config.Config, lggr logger.Logger) (evm.Chain, error)

// DataStoreLoaderFunc loads the recorded deployments.
type DataStoreLoaderFunc func(ctx context.Context, cfg *config.Config, lggr logger.Logger) (*datastore.MemoryDataStore, error)

// DataStoreSaverFunc persists the recorded deployments.
type DataStoreSaverFunc func(ctx context.Context, cfg *config.Config, ds datastore.DataStore, lggr logger.Logger) error

// defaultConfigLoader is the production implementation that loads config.
func defaultConfigLoader(path string) (*config.Config, error) {
	return config.Load(path)
}

// defaultChainLoader connects to the configured RPCs with the configured keys. The operator key,
// when set, becomes the first user of the chain.
func defaultChainLoader(ctx context.Context, cfg *config.Config, lggr logger.Logger) (evm.Chain, error) {
	if err := cfg.Validate(); err != nil {
		return evm.Chain{}, fmt.Errorf("invalid config: %w", err)
	}

	rpcCfg, err := cfg.Network.RPCClientConfig()
	if err != nil {
		return evm.Chain{}, err
	}

	var users []evmprov.TransactorGenerator
	if cfg.Keys.OperatorKey != "" {
		users = append(users, evmprov.TransactorFromRaw(rawKey(cfg.Keys.OperatorKey)))
	}

	p := evmprov.NewRPCChainProvider(cfg.Network.ChainSelector, evmprov.RPCChainProviderConfig{
		DeployerTransactorGen: evmprov.TransactorFromRaw(rawKey(cfg.Keys.DeployerKey)),
		UsersTransactorGen:    users,
		RPCs:                  rpcCfg.RPCs,
		ConfirmFunctor:        evmprov.ConfirmFuncGeth(confirmTimeout),
		Logger:                lggr,
	})

	c, err := p.Initialize(ctx)
	if err != nil {
		return evm.Chain{}, err
	}

	return c.(evm.Chain), nil
}

// defaultDataStoreLoader reads the SQL store when a DSN is configured, the YAML export otherwise.
func defaultDataStoreLoader(ctx context.Context, cfg *config.Config, lggr logger.Logger) (*datastore.MemoryDataStore, error) {
	if cfg.Datastore.DSN != "" {
		store, err := sqlstore.Open(ctx, cfg.Datastore.Driver, cfg.Datastore.DSN, lggr)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		return store.Load(ctx)
	}

	if cfg.Datastore.ExportPath == "" {
		return datastore.NewMemoryDataStore(), nil
	}

	f, err := os.Open(cfg.Datastore.ExportPath)
	if errors.Is(err, fs.ErrNotExist) {
		return datastore.NewMemoryDataStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore export: %w", err)
	}
	defer f.Close()

	return datastore.ReadYAML(f)
}

// defaultDataStoreSaver writes to the SQL store and to the YAML export, whichever is configured.
func defaultDataStoreSaver(ctx context.Context, cfg *config.Config, ds datastore.DataStore, lggr logger.Logger) error {
	if cfg.Datastore.DSN != "" {
		store, err := sqlstore.Open(ctx, cfg.Datastore.Driver, cfg.Datastore.DSN, lggr)
		if err != nil {
			return err
		}
		if err := store.Save(ctx, ds); err != nil {
			return errors.Join(err, store.Close())
		}
		if err := store.Close(); err != nil {
			return err
		}
	}

	if cfg.Datastore.ExportPath != "" {
		f, err := os.Create(cfg.Datastore.ExportPath)
		if err != nil {
			return fmt.Errorf("failed to create datastore export: %w", err)
		}
		if err := datastore.WriteYAML(f, ds); err != nil {
			return errors.Join(err, f.Close())
		}

		return f.Close()
	}

	return nil
}

// Deps holds the injectable dependencies of the commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// ChainLoader connects to the target chain.
	// Default: an RPC chain provider built from the config
	ChainLoader ChainLoaderFunc

	// DataStoreLoader loads the recorded deployments.
	// Default: the SQL store or the YAML export
	DataStoreLoader DataStoreLoaderFunc

	// DataStoreSaver persists the recorded deployments.
	// Default: the SQL store and the YAML export
	DataStoreSaver DataStoreSaverFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = defaultConfigLoader
	}
	if d.ChainLoader == nil {
		d.ChainLoader = defaultChainLoader
	}
	if d.DataStoreLoader == nil {
		d.DataStoreLoader = defaultDataStoreLoader
	}
	if d.DataStoreSaver == nil {
		d.DataStoreSaver = defaultDataStoreSaver
	}
}
