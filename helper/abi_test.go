package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
	"github.com/smartcontractkit/operation-factory/contracts/operation"
	"github.com/smartcontractkit/operation-factory/contracts/operationfactory"
)

var (
	controller = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	owner      = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	hash1      = common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
)

func TestEncodeParameters(t *testing.T) {
	t.Parallel()

	got, err := EncodeParameters(
		[]string{"address", "bytes32", "address", "address"},
		[]any{controller, hash1, owner, owner},
	)
	require.NoError(t, err)

	want, err := operation.EncodeInitParams(operation.InitParams{
		Controller:   controller,
		TerraAddress: hash1,
		Owner:        owner,
		Operator:     owner,
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = EncodeParameters([]string{"address"}, nil)
	require.ErrorContains(t, err, "got 1 types and 0 values")

	_, err = EncodeParameters([]string{"notatype"}, []any{1})
	require.ErrorContains(t, err, "invalid type")
}

func TestParseLog(t *testing.T) {
	t.Parallel()

	contractABI := operationfactory.ABI()
	event := contractABI.Events[operationfactory.EventContractDeployed]
	instance := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	data, err := event.Inputs.NonIndexed().Pack([32]byte(hash1), instance)
	require.NoError(t, err)

	desc, err := ParseLog(contractABI, types.Log{
		Topics: []common.Hash{event.ID, common.BytesToHash(controller.Bytes())},
		Data:   data,
	})
	require.NoError(t, err)

	assert.Equal(t, operationfactory.EventContractDeployed, desc.Name)
	assert.Equal(t, event.ID, desc.Topic)
	assert.Equal(t, "ContractDeployed(address,bytes32,address)", desc.Signature)
	assert.Equal(t, controller, desc.Args["deployer"])
	assert.Equal(t, [32]byte(hash1), desc.Args["terraAddress"])
	assert.Equal(t, instance, desc.Args["instance"])

	_, err = ParseLog(contractABI, types.Log{})
	require.ErrorContains(t, err, "no topics")

	_, err = ParseLog(contractABI, types.Log{Topics: []common.Hash{hash1}})
	require.Error(t, err)
}

func TestRevertReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		want   string
		wantOK bool
	}{
		{
			name:   "revert data",
			err:    fmt.Errorf("estimate gas: %w", sim.NewRevertError(sim.EncodeRevert(operationfactory.ReasonNotOperator))),
			want:   operationfactory.ReasonNotOperator,
			wantOK: true,
		},
		{
			name:   "error text",
			err:    errors.New("execution reverted: OperationFactory: terra address queue is empty"),
			want:   operationfactory.ReasonQueueEmpty,
			wantOK: true,
		},
		{
			name: "not a revert",
			err:  errors.New("connection refused"),
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := RevertReason(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
