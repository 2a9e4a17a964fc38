package sim_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

func TestBackend_DeployAndCall(t *testing.T) {
	t.Parallel()

	l := newLedger(t)

	addr, bound := l.deployCounter(t, 5)
	assert.Equal(t, big.NewInt(5), getCount(t, bound))

	code, err := l.client.CodeAt(t.Context(), addr, nil)
	require.NoError(t, err)
	assert.Equal(t, sim.NativeBytecode("Counter"), code)

	tx, err := bound.Transact(l.opts, "increment")
	require.NoError(t, err)
	receipt, err := bind.WaitMined(t.Context(), l.client, tx)
	require.NoError(t, err)

	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, big.NewInt(6), getCount(t, bound))

	// every transaction is mined into its own block
	head, err := l.client.BlockNumber(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), head)
	assert.Equal(t, head, receipt.BlockNumber.Uint64())

	require.Len(t, receipt.Logs, 1)
	ev := counterParsed.Events["Incremented"]
	assert.Equal(t, addr, receipt.Logs[0].Address)
	assert.Equal(t, ev.ID, receipt.Logs[0].Topics[0])
	assert.Equal(t, common.BytesToHash(l.opts.From.Bytes()), receipt.Logs[0].Topics[1])

	logs, err := l.client.FilterLogs(t.Context(), ethereum.FilterQuery{
		Addresses: []common.Address{addr},
		Topics:    [][]common.Hash{{ev.ID}},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, receipt.TxHash, logs[0].TxHash)
	assert.Equal(t, receipt.BlockHash, logs[0].BlockHash)

	// history stays readable
	var out []any
	require.NoError(t, bound.Call(&bind.CallOpts{Context: t.Context(), BlockNumber: big.NewInt(1)}, &out, "get"))
	assert.Equal(t, big.NewInt(5), out[0])
}

func TestBackend_Revert(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, bound := l.deployCounter(t, 1)

	// estimation fails with the reason
	_, err := bound.Transact(l.opts, "fail", "boom")
	require.ErrorContains(t, err, "execution reverted: boom")

	// calls return the revert error itself
	var out []any
	err = bound.Call(&bind.CallOpts{Context: t.Context()}, &out, "fail", "boom")
	var revertErr *sim.RevertError
	require.ErrorAs(t, err, &revertErr)
	assert.Equal(t, "boom", revertErr.Reason())
	require.ErrorIs(t, err, sim.ErrExecutionReverted)

	// a reverting transaction is included with a failed receipt and no effect
	opts := *l.opts
	opts.GasLimit = 200_000
	tx, err := bound.Transact(&opts, "fail", "boom")
	require.NoError(t, err)
	receipt, err := bind.WaitMined(t.Context(), l.client, tx)
	require.NoError(t, err)

	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.Empty(t, receipt.Logs)
	assert.Less(t, receipt.GasUsed, opts.GasLimit)
	assert.Equal(t, big.NewInt(1), getCount(t, bound))
}

func TestBackend_OutOfGas(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, bound := l.deployCounter(t, 0)

	opts := *l.opts
	opts.GasLimit = 22_000
	tx, err := bound.Transact(&opts, "increment")
	require.NoError(t, err)
	receipt, err := bind.WaitMined(t.Context(), l.client, tx)
	require.NoError(t, err)

	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.Equal(t, opts.GasLimit, receipt.GasUsed)
	assert.Equal(t, big.NewInt(0), getCount(t, bound))
}

func TestBackend_WriteProtection(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, bound := l.deployCounter(t, 0)

	var out []any
	err := bound.Call(&bind.CallOpts{Context: t.Context(), From: l.opts.From}, &out, "staticIncrement")
	require.ErrorIs(t, err, sim.ErrWriteProtection)
}

func TestBackend_Clone(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	addr, bound := l.deployCounter(t, 7)

	var out []any
	require.NoError(t, bound.Call(&bind.CallOpts{Context: t.Context(), From: l.opts.From}, &out, "spawn"))
	instance := out[0].(common.Address)
	assert.Equal(t, crypto.CreateAddress(addr, 1), instance)

	tx, err := bound.Transact(l.opts, "spawn")
	require.NoError(t, err)
	receipt, err := bind.WaitMined(t.Context(), l.client, tx)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	code, err := l.client.CodeAt(t.Context(), instance, nil)
	require.NoError(t, err)
	impl, ok := sim.ParseCloneCode(code)
	require.True(t, ok)
	assert.Equal(t, addr, impl)

	// the clone runs the counter code on its own storage
	clone := bind.NewBoundContract(instance, counterParsed, l.client, l.client, l.client)
	assert.Equal(t, big.NewInt(1), getCount(t, clone))
	assert.Equal(t, big.NewInt(7), getCount(t, bound))

	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, instance, receipt.Logs[0].Address)
	assert.Equal(t, common.BytesToHash(addr.Bytes()), receipt.Logs[0].Topics[1])
}

func TestBackend_SendTransactionErrors(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	to := common.HexToAddress("0x1")

	unfunded, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := transfer(t, l.backend, l.key, 0, to)
	require.NoError(t, l.client.SendTransaction(t.Context(), tx))

	tests := []struct {
		name    string
		tx      *types.Transaction
		wantErr error
	}{
		{name: "already known", tx: tx, wantErr: sim.ErrAlreadyKnown},
		{name: "nonce too low", tx: transfer(t, l.backend, l.key, 0, common.HexToAddress("0x2")), wantErr: sim.ErrNonceTooLow},
		{name: "nonce too high", tx: transfer(t, l.backend, l.key, 5, to), wantErr: sim.ErrNonceTooHigh},
		{name: "insufficient funds", tx: transfer(t, l.backend, unfunded, 0, to), wantErr: sim.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := l.client.SendTransaction(t.Context(), tt.tx)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBackend_ManualMining(t *testing.T) {
	t.Parallel()

	l := newLedger(t, sim.WithAutoMine(false))
	to := common.HexToAddress("0x1")

	tx := transfer(t, l.backend, l.key, 0, to)
	require.NoError(t, l.client.SendTransaction(t.Context(), tx))

	_, err := l.client.TransactionReceipt(t.Context(), tx.Hash())
	require.ErrorIs(t, err, ethereum.NotFound)

	_, pending, err := l.client.TransactionByHash(t.Context(), tx.Hash())
	require.NoError(t, err)
	assert.True(t, pending)

	nonce, err := l.client.PendingNonceAt(t.Context(), l.opts.From)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)
	nonce, err = l.client.NonceAt(t.Context(), l.opts.From, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)

	require.ErrorIs(t, l.backend.AdjustTime(time.Minute), sim.ErrNonEmptyBlock)

	hash := l.client.Commit()

	receipt, err := l.client.TransactionReceipt(t.Context(), tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, hash, receipt.BlockHash)

	balance, err := l.client.BalanceAt(t.Context(), to, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), balance)
}

func TestBackend_Rollback(t *testing.T) {
	t.Parallel()

	l := newLedger(t, sim.WithAutoMine(false))

	tx := transfer(t, l.backend, l.key, 0, common.HexToAddress("0x1"))
	require.NoError(t, l.client.SendTransaction(t.Context(), tx))

	l.backend.Rollback()

	nonce, err := l.client.PendingNonceAt(t.Context(), l.opts.From)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)

	_, _, err = l.client.TransactionByHash(t.Context(), tx.Hash())
	require.ErrorIs(t, err, ethereum.NotFound)

	// the same transaction can be sent again
	require.NoError(t, l.client.SendTransaction(t.Context(), tx))
}

func TestBackend_AdjustTime(t *testing.T) {
	t.Parallel()

	l := newLedger(t, sim.WithGenesisTime(1_000))

	require.NoError(t, l.backend.IncreaseTime(t.Context(), time.Hour))
	require.NoError(t, l.backend.Mine(t.Context()))

	header, err := l.client.HeaderByNumber(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000+1+3_600), header.Time)

	// the shift applies to a single block
	require.NoError(t, l.backend.Mine(t.Context()))
	header, err = l.client.HeaderByNumber(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000+1+3_600+1), header.Time)

	require.Error(t, l.backend.AdjustTime(-time.Second))
}

func TestBackend_BlockTime(t *testing.T) {
	t.Parallel()

	l := newLedger(t, sim.WithBlockTime(10*time.Millisecond))

	tx := transfer(t, l.backend, l.key, 0, common.HexToAddress("0x1"))
	require.NoError(t, l.client.SendTransaction(t.Context(), tx))

	receipt, err := bind.WaitMined(t.Context(), l.client, tx)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	require.Eventually(t, func() bool {
		n, err := l.client.BlockNumber(t.Context())
		return err == nil && n >= 3
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, l.backend.Close())
	err = l.client.SendTransaction(t.Context(), transfer(t, l.backend, l.key, 1, common.HexToAddress("0x1")))
	require.ErrorIs(t, err, sim.ErrBackendClosed)
}

func TestBackend_Subscriptions(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	addr, bound := l.deployCounter(t, 0)

	heads := make(chan *types.Header, 4)
	headSub, err := l.client.SubscribeNewHead(t.Context(), heads)
	require.NoError(t, err)
	defer headSub.Unsubscribe()

	logs := make(chan types.Log, 4)
	logSub, err := l.client.SubscribeFilterLogs(t.Context(), ethereum.FilterQuery{Addresses: []common.Address{addr}}, logs)
	require.NoError(t, err)
	defer logSub.Unsubscribe()

	tx, err := bound.Transact(l.opts, "increment")
	require.NoError(t, err)

	select {
	case h := <-heads:
		assert.Equal(t, uint64(2), h.Number.Uint64())
	case <-time.After(5 * time.Second):
		t.Fatal("no head received")
	}

	select {
	case lg := <-logs:
		assert.Equal(t, tx.Hash(), lg.TxHash)
	case <-time.After(5 * time.Second):
		t.Fatal("no log received")
	}
}

func TestBackend_UnknownBlock(t *testing.T) {
	t.Parallel()

	l := newLedger(t)

	_, err := l.client.BlockByNumber(t.Context(), big.NewInt(10))
	require.ErrorIs(t, err, ethereum.NotFound)

	_, err = l.client.BalanceAt(t.Context(), l.opts.From, big.NewInt(10))
	require.ErrorIs(t, err, sim.ErrUnknownBlock)

	_, err = l.client.BlockByHash(t.Context(), common.HexToHash("0x1"))
	require.ErrorIs(t, err, ethereum.NotFound)
}
