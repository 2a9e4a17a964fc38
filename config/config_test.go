package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/provider/rpcclient"
)

// fileCfg is the config loaded from testdata/config.yml.
var fileCfg = &Config{
	Network: NetworkConfig{
		ChainSelector: 3379446385462418246,
		RPCs: []RPCConfig{
			{Name: "primary", HTTPURL: "http://127.0.0.1:8545", PreferredURLScheme: "http"},
			{WSURL: "ws://127.0.0.1:8546"},
		},
	},
	Keys: KeysConfig{
		DeployerKey: "0xabc",
		OperatorKey: "0xdef",
	},
	Devnet: DevnetConfig{
		ListenAddress: "127.0.0.1:9545",
		BlockTime:     2 * time.Second,
		Accounts:      3,
	},
	Datastore: DatastoreConfig{
		Driver:     "ramsql",
		DSN:        "opfactory",
		ExportPath: "/tmp/datastore.yaml",
	},
}

func Test_Load(t *testing.T) { //nolint:paralleltest // sets environment variables
	tests := []struct {
		name string
		path string
		envs map[string]string
		want func() *Config
	}{
		{
			name: "file only",
			path: filepath.Join("testdata", "config.yml"),
			want: func() *Config { return fileCfg },
		},
		{
			name: "env overrides file",
			path: filepath.Join("testdata", "config.yml"),
			envs: map[string]string{
				"OPFACTORY_DEPLOYER_KEY":    "0x123",
				"OPFACTORY_DEVNET_ACCOUNTS": "5",
			},
			want: func() *Config {
				cfg := *fileCfg
				cfg.Keys.DeployerKey = "0x123"
				cfg.Devnet.Accounts = 5

				return &cfg
			},
		},
		{
			name: "missing file falls back to env and defaults",
			path: filepath.Join("testdata", "missing.yml"),
			envs: map[string]string{
				"CHAIN_SELECTOR":              "3379446385462418246",
				"PRIVATE_KEY":                 "0x456",
				"OPFACTORY_DEVNET_BLOCK_TIME": "500ms",
			},
			want: func() *Config {
				return &Config{
					Network:   NetworkConfig{ChainSelector: 3379446385462418246},
					Keys:      KeysConfig{DeployerKey: "0x456"},
					Devnet:    DevnetConfig{ListenAddress: DefaultListenAddress, BlockTime: 500 * time.Millisecond, Accounts: DefaultAccounts},
					Datastore: DatastoreConfig{Driver: DefaultDriver},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}

			got, err := Load(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func Test_LoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join("testdata", "missing.yml"))
	require.Error(t, err)
}

func Test_LoadEnv_PreferredNameWins(t *testing.T) { //nolint:paralleltest // sets environment variables
	t.Setenv("OPFACTORY_OPERATOR_KEY", "0xnew")
	t.Setenv("OPERATOR_PRIVATE_KEY", "0xold")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "0xnew", cfg.Keys.OperatorKey)
}

func Test_Config_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, fileCfg.Validate())

	err := Config{}.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "network.chain_selector must be set")
	assert.ErrorContains(t, err, "network.rpcs must list at least one endpoint")
	assert.ErrorContains(t, err, "keys.deployer_key must be set")
}

func Test_NetworkConfig_RPCClientConfig(t *testing.T) {
	t.Parallel()

	got, err := fileCfg.Network.RPCClientConfig()
	require.NoError(t, err)
	assert.Equal(t, rpcclient.RPCConfig{
		ChainSelector: fileCfg.Network.ChainSelector,
		RPCs: []rpcclient.RPC{
			{Name: "primary", HTTPURL: "http://127.0.0.1:8545", PreferredURLScheme: rpcclient.URLSchemePreferenceHTTP},
			{Name: "rpc-1", WSURL: "ws://127.0.0.1:8546", PreferredURLScheme: rpcclient.URLSchemePreferenceNone},
		},
	}, got)

	_, err = NetworkConfig{RPCs: []RPCConfig{{PreferredURLScheme: "ftp"}}}.RPCClientConfig()
	require.ErrorContains(t, err, "invalid URL scheme preference")
}
