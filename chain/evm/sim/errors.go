package sim

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transaction submission errors. The messages match the ones returned by go-ethereum nodes so
// that callers matching on text behave the same against the ledger and a real node.
var (
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrNonceTooHigh      = errors.New("nonce too high")
	ErrIntrinsicGas      = errors.New("intrinsic gas too low")
	ErrGasLimitReached   = errors.New("gas limit reached")
	ErrFeeCapTooLow      = errors.New("max fee per gas less than block base fee")
	ErrTipAboveFeeCap    = errors.New("max priority fee per gas higher than max fee per gas")
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
	ErrAlreadyKnown      = errors.New("already known")
	ErrUnknownBlock      = errors.New("unknown block")
	ErrBackendClosed     = errors.New("backend closed")
	ErrNonEmptyBlock     = errors.New("could not adjust time on non-empty block")
)

// Execution errors.
var (
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrOutOfGas                 = errors.New("out of gas")
	ErrWriteProtection          = errors.New("write protection")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrUnsupportedCode          = errors.New("unsupported contract code")
	ErrUnknownContract          = errors.New("unknown native contract")
)

// revertSelector is the selector of the Error(string) solidity error.
var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

var revertArgs = func() abi.Arguments {
	stringTy, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}

	return abi.Arguments{{Type: stringTy}}
}()

// EncodeRevert returns the Error(string) revert data for reason.
func EncodeRevert(reason string) []byte {
	packed, err := revertArgs.Pack(reason)
	if err != nil {
		// packing a single string cannot fail
		panic(err)
	}

	return append(append([]byte{}, revertSelector...), packed...)
}

// RevertError is returned when contract execution reverts. It implements rpc.Error and
// rpc.DataError so that it is serialized like a node's revert error when served over JSON-RPC.
type RevertError struct {
	reason string
	data   []byte
}

// NewRevertError creates a RevertError from raw revert data, decoding the reason when the data
// is a standard Error(string) or Panic(uint256) payload.
func NewRevertError(data []byte) *RevertError {
	reason, err := abi.UnpackRevert(data)
	if err != nil {
		reason = ""
	}

	return &RevertError{reason: reason, data: data}
}

// Error implements the error interface.
func (e *RevertError) Error() string {
	if e.reason == "" {
		return ErrExecutionReverted.Error()
	}

	return ErrExecutionReverted.Error() + ": " + e.reason
}

// ErrorCode returns the JSON-RPC error code used by nodes for reverts.
func (*RevertError) ErrorCode() int {
	return 3
}

// ErrorData returns the hex encoded revert data.
func (e *RevertError) ErrorData() any {
	return hexutil.Encode(e.data)
}

// Reason returns the decoded revert reason, if any.
func (e *RevertError) Reason() string {
	return e.reason
}

// Data returns the raw revert data.
func (e *RevertError) Data() []byte {
	return e.data
}

// Unwrap allows errors.Is(err, ErrExecutionReverted).
func (*RevertError) Unwrap() error {
	return ErrExecutionReverted
}
