package provider

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	chain_selectors "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChainIDBig = new(big.Int).SetUint64(chain_selectors.GETH_TESTNET.EvmChainID)

func Test_TransactorFromRaw(t *testing.T) {
	t.Parallel()

	// Setup the private key
	privKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	privKeyBytes := crypto.FromECDSA(privKey)

	// Convert the private and public keys to hex strings
	hexPrivKey := hex.EncodeToString(privKeyBytes)
	addrHex := crypto.PubkeyToAddress(privKey.PublicKey).Hex()

	tests := []struct {
		name         string
		givePrivKey  string
		giveChainID  *big.Int
		giveOpts     []GeneratorOption
		want         string
		wantGasLimit uint64
		wantErr      string
	}{
		{
			name:        "valid default account and private key",
			givePrivKey: hexPrivKey,
			giveChainID: testChainIDBig,
			want:        addrHex,
		},
		{
			name:         "with gas limit",
			givePrivKey:  hexPrivKey,
			giveChainID:  testChainIDBig,
			giveOpts:     []GeneratorOption{WithGasLimit(500_000)},
			want:         addrHex,
			wantGasLimit: 500_000,
		},
		{
			name:        "invalid private key",
			givePrivKey: "invalid",
			giveChainID: testChainIDBig,
			wantErr:     "failed to convert private key to ECDSA",
		},
		{
			name:        "invalid chain ID",
			givePrivKey: hexPrivKey,
			giveChainID: nil, // nil chain ID should trigger an error
			wantErr:     "no chain id specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := TransactorFromRaw(tt.givePrivKey, tt.giveOpts...)

			got, err := gen.Generate(tt.giveChainID)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.From.Hex())
				assert.Equal(t, tt.wantGasLimit, got.GasLimit)
			}
		})
	}
}

func Test_TransactorFromKey(t *testing.T) {
	t.Parallel()

	privKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	got, err := TransactorFromKey(privKey).Generate(testChainIDBig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(privKey.PublicKey), got.From)

	_, err = TransactorFromKey(nil).Generate(testChainIDBig)
	require.ErrorContains(t, err, "private key is nil")
}

func Test_TransactorRandom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		giveChainID *big.Int
		wantErr     string
	}{
		{
			name:        "valid",
			giveChainID: testChainIDBig,
		},
		{
			name:        "invalid chain ID",
			giveChainID: nil, // nil chain ID should trigger an error
			wantErr:     "no chain id specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := TransactorRandom()

			got, err := gen.Generate(tt.giveChainID)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, got.From)
			}
		})
	}
}

func Test_TransactorRandom_ReusesKey(t *testing.T) {
	t.Parallel()

	gen := TransactorRandom()

	first, err := gen.Generate(testChainIDBig)
	require.NoError(t, err)
	second, err := gen.Generate(big.NewInt(1))
	require.NoError(t, err)

	assert.Equal(t, first.From, second.From)
}
