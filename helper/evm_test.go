package helper

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

func TestAdvanceTimeAndBlock(t *testing.T) {
	t.Parallel()

	backend := sim.NewBackend(nil)
	t.Cleanup(func() { _ = backend.Close() })
	client := backend.Client()

	before, err := LatestBlockTime(t.Context(), client)
	require.NoError(t, err)

	require.NoError(t, AdvanceTimeAndBlock(t.Context(), backend, time.Hour))

	after, err := LatestBlockTime(t.Context(), client)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.Sub(before), time.Hour)

	number, err := client.BlockNumber(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), number)
}

func TestAdvanceTimeAndBlock_RPC(t *testing.T) {
	t.Parallel()

	backend := sim.NewBackend(nil)
	t.Cleanup(func() { _ = backend.Close() })

	srv, err := sim.NewRPCServer(backend)
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	rpcClient := rpc.DialInProc(srv)
	t.Cleanup(rpcClient.Close)

	before, err := LatestBlockTime(t.Context(), backend.Client())
	require.NoError(t, err)

	require.NoError(t, AdvanceTimeAndBlock(t.Context(), RPCTimeAdvancer{Client: rpcClient}, 2*time.Hour))

	after, err := LatestBlockTime(t.Context(), backend.Client())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.Sub(before), 2*time.Hour)
}
