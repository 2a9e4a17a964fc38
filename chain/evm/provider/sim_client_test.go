package provider

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

func Test_SimClient_Commit(t *testing.T) {
	t.Parallel()

	backend := sim.NewBackend(types.GenesisAlloc{})
	t.Cleanup(func() { _ = backend.Close() })

	client := NewSimClient(backend)
	require.Same(t, backend, client.Backend())

	blockNumber, err := client.BlockNumber(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint64(0), blockNumber) // Only the genesis block exists

	hash := client.Commit()
	require.NotEmpty(t, hash)

	blockNumber, err = client.BlockNumber(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint64(1), blockNumber)
}

func Test_SimClient_AdjustTime(t *testing.T) {
	t.Parallel()

	backend := sim.NewBackend(types.GenesisAlloc{}, sim.WithGenesisTime(1_000))
	t.Cleanup(func() { _ = backend.Close() })

	client := NewSimClient(backend)

	require.NoError(t, client.AdjustTime(time.Hour))

	header, err := client.HeaderByNumber(t.Context(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), header.Number.Uint64())
	require.Equal(t, uint64(1_000+1+3600), header.Time)

	require.Error(t, client.AdjustTime(-time.Second))
}
