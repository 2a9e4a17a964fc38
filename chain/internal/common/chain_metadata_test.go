package common_test

import (
	"testing"

	chain_selectors "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/internal/common"
)

func TestChainMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		selector   uint64
		wantName   string
		wantString string
		wantFamily string
	}{
		{
			name:       "returns correct info",
			selector:   chain_selectors.ETHEREUM_MAINNET.Selector,
			wantString: "ethereum-mainnet (5009297550715157269)",
			wantName:   chain_selectors.ETHEREUM_MAINNET.Name,
			wantFamily: chain_selectors.FamilyEVM,
		},
		{
			name:       "returns empty for unknown chain",
			selector:   0,
			wantString: "",
			wantName:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := common.ChainMetadata{
				Selector: tt.selector,
			}
			assert.Equal(t, tt.selector, c.ChainSelector())
			assert.Equal(t, tt.wantString, c.String())
			assert.Equal(t, tt.wantName, c.Name())
			assert.Equal(t, tt.wantFamily, c.Family())
		})
	}
}

func TestChainMetadata_ChainID(t *testing.T) {
	t.Parallel()

	id, err := common.ChainMetadata{Selector: chain_selectors.GETH_TESTNET.Selector}.ChainID()
	require.NoError(t, err)
	assert.Equal(t, chain_selectors.GETH_TESTNET.EvmChainID, id)

	_, err = common.ChainMetadata{Selector: 0}.ChainID()
	require.Error(t, err)
}
