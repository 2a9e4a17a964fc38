package operation_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
	"github.com/smartcontractkit/operation-factory/contracts/operation"
	"github.com/smartcontractkit/operation-factory/helper"
)

func TestInitParams(t *testing.T) {
	t.Parallel()

	p := operation.InitParams{
		Controller:   common.HexToAddress("0x1"),
		TerraAddress: common.HexToHash("0xdeadbeef"),
		Owner:        common.HexToAddress("0x2"),
		Operator:     common.HexToAddress("0x3"),
	}

	data, err := operation.EncodeInitParams(p)
	require.NoError(t, err)

	// the payload is the plain tuple encoding
	want, err := helper.EncodeParameters(
		[]string{"address", "bytes32", "address", "address"},
		[]any{p.Controller, p.TerraAddress, p.Owner, p.Operator},
	)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	got, err := operation.DecodeInitParams(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = operation.DecodeInitParams(data[:40])
	require.Error(t, err)
}

func TestOperation(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	deployer := crypto.PubkeyToAddress(key.PublicKey)

	b := sim.NewBackend(
		types.GenesisAlloc{deployer: {Balance: big.NewInt(params.Ether)}},
		sim.WithContracts(operation.NewNativeContract()),
	)
	t.Cleanup(func() { _ = b.Close() })
	client := b.Client()

	opts, err := bind.NewKeyedTransactorWithChainID(key, b.ChainID())
	require.NoError(t, err)
	callOpts := &bind.CallOpts{Context: t.Context()}

	addr, _, op, err := operation.DeployOperation(opts, client)
	require.NoError(t, err)
	assert.Equal(t, addr, op.Address())

	// the deployer holds both roles until initialization
	owner, err := op.Owner(callOpts)
	require.NoError(t, err)
	assert.Equal(t, deployer, owner)
	operator, err := op.Operator(callOpts)
	require.NoError(t, err)
	assert.Equal(t, deployer, operator)

	_, err = op.Initialize(opts, []byte{0x01})
	reason, ok := helper.RevertReason(err)
	require.True(t, ok)
	assert.Equal(t, operation.ReasonInvalidInitData, reason)

	p := operation.InitParams{
		Controller:   common.HexToAddress("0xc0de"),
		TerraAddress: common.HexToHash("0xbeef"),
		Owner:        common.HexToAddress("0xa"),
		Operator:     common.HexToAddress("0xb"),
	}
	tx, err := op.InitializeWith(opts, p)
	require.NoError(t, err)
	receipt, err := bind.WaitMined(t.Context(), client, tx)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Empty(t, receipt.Logs)

	terra, err := op.TerraAddress(callOpts)
	require.NoError(t, err)
	assert.Equal(t, p.TerraAddress, terra)
	controller, err := op.Controller(callOpts)
	require.NoError(t, err)
	assert.Equal(t, p.Controller, controller)
	owner, err = op.Owner(callOpts)
	require.NoError(t, err)
	assert.Equal(t, p.Owner, owner)
	operator, err = op.Operator(callOpts)
	require.NoError(t, err)
	assert.Equal(t, p.Operator, operator)

	_, err = op.InitializeWith(opts, p)
	reason, ok = helper.RevertReason(err)
	require.True(t, ok)
	assert.Equal(t, operation.ReasonAlreadyInitialized, reason)
}
