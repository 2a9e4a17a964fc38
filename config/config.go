// Package config loads the configuration of the opfactory CLI from a YAML file and environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/smartcontractkit/operation-factory/chain/evm/provider/rpcclient"
)

// RPCConfig is one endpoint of the target chain.
type RPCConfig struct {
	Name               string `mapstructure:"name" yaml:"name"`
	HTTPURL            string `mapstructure:"http_url" yaml:"http_url"`
	WSURL              string `mapstructure:"ws_url" yaml:"ws_url"`
	PreferredURLScheme string `mapstructure:"preferred_url_scheme" yaml:"preferred_url_scheme"` // "http", "ws" or empty
}

// NetworkConfig selects the chain the CLI talks to.
type NetworkConfig struct {
	ChainSelector uint64      `mapstructure:"chain_selector" yaml:"chain_selector"`
	RPCs          []RPCConfig `mapstructure:"rpcs" yaml:"rpcs"`
}

// KeysConfig holds the signing keys.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type KeysConfig struct {
	DeployerKey string `mapstructure:"deployer_key" yaml:"deployer_key"` // Secret: hex private key of the factory owner
	OperatorKey string `mapstructure:"operator_key" yaml:"operator_key"` // Secret: hex private key of the factory operator
}

// DevnetConfig configures the local chain served by `opfactory devnet`.
type DevnetConfig struct {
	ListenAddress string        `mapstructure:"listen_address" yaml:"listen_address"`
	BlockTime     time.Duration `mapstructure:"block_time" yaml:"block_time"`
	Accounts      uint          `mapstructure:"accounts" yaml:"accounts"`
}

// DatastoreConfig configures where deployment records are persisted.
type DatastoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"` // Secret: may embed database credentials
	// ExportPath is the YAML file the datastore is written to after every command.
	ExportPath string `mapstructure:"export_path" yaml:"export_path"`
}

// Config wraps the entire configuration of the CLI.
type Config struct {
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Keys      KeysConfig      `mapstructure:"keys" yaml:"keys"`
	Devnet    DevnetConfig    `mapstructure:"devnet" yaml:"devnet"`
	Datastore DatastoreConfig `mapstructure:"datastore" yaml:"datastore"`
}

// Defaults.
const (
	DefaultListenAddress = "127.0.0.1:8545"
	DefaultAccounts      = 2
	DefaultDriver        = "postgres"
)

// RPCClientConfig converts the network section for rpcclient.
func (c NetworkConfig) RPCClientConfig() (rpcclient.RPCConfig, error) {
	rpcs := make([]rpcclient.RPC, 0, len(c.RPCs))
	for i, r := range c.RPCs {
		pref, err := rpcclient.URLSchemePreferenceFromString(r.PreferredURLScheme)
		if err != nil {
			return rpcclient.RPCConfig{}, fmt.Errorf("rpc %d: %w", i, err)
		}

		name := r.Name
		if name == "" {
			name = fmt.Sprintf("rpc-%d", i)
		}
		rpcs = append(rpcs, rpcclient.RPC{
			Name:               name,
			HTTPURL:            r.HTTPURL,
			WSURL:              r.WSURL,
			PreferredURLScheme: pref,
		})
	}

	return rpcclient.RPCConfig{ChainSelector: c.ChainSelector, RPCs: rpcs}, nil
}

// Validate checks the sections needed to drive a remote chain.
func (c Config) Validate() error {
	var errs []error
	if c.Network.ChainSelector == 0 {
		errs = append(errs, errors.New("network.chain_selector must be set"))
	}
	if len(c.Network.RPCs) == 0 {
		errs = append(errs, errors.New("network.rpcs must list at least one endpoint"))
	}
	if c.Keys.DeployerKey == "" {
		errs = append(errs, errors.New("keys.deployer_key must be set"))
	}

	return errors.Join(errs...)
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := newViper()
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadFile loads the config from a file, ignoring the environment.
func LoadFile(filePath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("devnet.listen_address", DefaultListenAddress)
	v.SetDefault("devnet.accounts", DefaultAccounts)
	v.SetDefault("datastore.driver", DefaultDriver)

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// envBindings maps config keys to the environment variables that can set them. The first name
// is preferred, the others are legacy aliases checked in order.
var envBindings = map[string][]string{
	"network.chain_selector": {"OPFACTORY_CHAIN_SELECTOR", "CHAIN_SELECTOR"},
	"keys.deployer_key":      {"OPFACTORY_DEPLOYER_KEY", "PRIVATE_KEY"},
	"keys.operator_key":      {"OPFACTORY_OPERATOR_KEY", "OPERATOR_PRIVATE_KEY"},
	"devnet.listen_address":  {"OPFACTORY_DEVNET_LISTEN_ADDRESS"},
	"devnet.block_time":      {"OPFACTORY_DEVNET_BLOCK_TIME"},
	"devnet.accounts":        {"OPFACTORY_DEVNET_ACCOUNTS"},
	"datastore.driver":       {"OPFACTORY_DATASTORE_DRIVER"},
	"datastore.dsn":          {"OPFACTORY_DATASTORE_DSN", "DATABASE_URL"},
	"datastore.export_path":  {"OPFACTORY_DATASTORE_EXPORT_PATH"},
}

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
