package sim_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

// dial serves the ledger of l in process and returns an RPC client connected to it.
func dial(t *testing.T, l *testLedger) (*rpc.Client, *ethclient.Client) {
	t.Helper()

	srv, err := sim.NewRPCServer(l.backend)
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	rpcClient := rpc.DialInProc(srv)
	t.Cleanup(rpcClient.Close)

	return rpcClient, ethclient.NewClient(rpcClient)
}

func TestRPCServer_Contract(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, client := dial(t, l)

	chainID, err := client.ChainID(t.Context())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(sim.DefaultChainID), chainID)

	addr, tx, bound, err := bind.DeployContract(l.opts, counterParsed, sim.NativeBytecode("Counter"), client, big.NewInt(3))
	require.NoError(t, err)
	receipt, err := bind.WaitMined(t.Context(), client, tx)
	require.NoError(t, err)
	assert.Equal(t, addr, receipt.ContractAddress)

	tx, err = bound.Transact(l.opts, "increment")
	require.NoError(t, err)
	receipt, err = bind.WaitMined(t.Context(), client, tx)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)

	assert.Equal(t, big.NewInt(4), getCount(t, bound))

	got, pending, err := client.TransactionByHash(t.Context(), tx.Hash())
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, tx.Hash(), got.Hash())

	block, err := client.BlockByNumber(t.Context(), receipt.BlockNumber)
	require.NoError(t, err)
	assert.Equal(t, receipt.BlockHash, block.Hash())
	require.Len(t, block.Transactions(), 1)

	logs, err := client.FilterLogs(t.Context(), ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{addr},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, receipt.TxHash, logs[0].TxHash)
	assert.Equal(t, receipt.Logs[0].Topics, logs[0].Topics)
}

func TestRPCServer_Revert(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, client := dial(t, l)
	addr, _ := l.deployCounter(t, 0)

	input, err := counterParsed.Pack("fail", "boom")
	require.NoError(t, err)

	_, err = client.CallContract(t.Context(), ethereum.CallMsg{From: l.opts.From, To: &addr, Data: input}, nil)
	require.ErrorContains(t, err, "execution reverted: boom")

	var dataErr rpc.DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, hexutil.Encode(sim.EncodeRevert("boom")), dataErr.ErrorData())

	_, err = client.TransactionReceipt(t.Context(), common.HexToHash("0x1"))
	require.ErrorIs(t, err, ethereum.NotFound)
}

func TestRPCServer_DevMethods(t *testing.T) {
	t.Parallel()

	l := newLedger(t, sim.WithGenesisTime(1_000))
	rpcClient, client := dial(t, l)

	var version string
	require.NoError(t, rpcClient.CallContext(t.Context(), &version, "net_version"))
	assert.Equal(t, "1337", version)

	heads := make(chan *types.Header, 2)
	sub, err := client.SubscribeNewHead(t.Context(), heads)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, rpcClient.CallContext(t.Context(), nil, "evm_increaseTime", 60))

	var hash common.Hash
	require.NoError(t, rpcClient.CallContext(t.Context(), &hash, "evm_mine"))

	header, err := client.HeaderByNumber(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, hash, header.Hash())
	assert.Equal(t, uint64(1_000+1+60), header.Time)

	select {
	case h := <-heads:
		assert.Equal(t, hash, h.Hash())
	case <-time.After(5 * time.Second):
		t.Fatal("no head received")
	}
}

func TestRPCServer_GetStorageAtPending(t *testing.T) {
	t.Parallel()

	l := newLedger(t, sim.WithAutoMine(false))
	rpcClient, _ := dial(t, l)

	addr, _, bound, err := bind.DeployContract(l.opts, counterParsed, sim.NativeBytecode("Counter"), l.client, big.NewInt(3))
	require.NoError(t, err)
	l.client.Commit()

	_, err = bound.Transact(l.opts, "increment")
	require.NoError(t, err)

	tests := []struct {
		tag  string
		want int64
	}{
		{tag: "latest", want: 3},
		{tag: "pending", want: 4},
	}
	for _, tt := range tests {
		var got hexutil.Bytes
		require.NoError(t, rpcClient.CallContext(t.Context(), &got, "eth_getStorageAt", addr, slotCount, tt.tag))
		assert.Equal(t, tt.want, new(big.Int).SetBytes(got).Int64(), tt.tag)
	}
}

func TestRPCServer_IncreaseTimeOverflow(t *testing.T) {
	t.Parallel()

	l := newLedger(t, sim.WithGenesisTime(1_000))
	rpcClient, client := dial(t, l)

	err := rpcClient.CallContext(t.Context(), nil, "evm_increaseTime", uint64(10_000_000_000))
	require.ErrorContains(t, err, "exceeds the maximum")

	require.NoError(t, rpcClient.CallContext(t.Context(), nil, "evm_mine"))
	header, err := client.HeaderByNumber(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000+1), header.Time)
}
