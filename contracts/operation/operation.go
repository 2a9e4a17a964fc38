// Package operation holds the Operation template contract: its ABI, the native runtime executed
// by the in-memory ledger and a Go binding.
package operation

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

// ContractName is the name the native runtime is registered under.
const ContractName = "Operation"

// OperationABI is the input ABI used to generate the binding from.
const OperationABI = `[
	{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},
	{"inputs":[],"name":"controller","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"bytes","name":"data","type":"bytes"}],"name":"initialize","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"operator","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"terraAddress","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"view","type":"function"}
]`

// OperationMetaData contains all meta data concerning the Operation contract.
var OperationMetaData = &bind.MetaData{
	ABI: OperationABI,
	Bin: hexutil.Encode(sim.NativeBytecode(ContractName)),
}

// OperationBin is the compiled bytecode used for deploying new contracts.
var OperationBin = OperationMetaData.Bin

var parsedABI = func() *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(OperationABI))
	if err != nil {
		panic(err)
	}

	return &parsed
}()

// ABI returns the parsed Operation ABI.
func ABI() *abi.ABI {
	return parsedABI
}

// initArgs is the layout of the initialize payload.
var initArgs = func() abi.Arguments {
	addressTy, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	bytes32Ty, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}

	return abi.Arguments{
		{Name: "controller", Type: addressTy},
		{Name: "terraAddress", Type: bytes32Ty},
		{Name: "owner", Type: addressTy},
		{Name: "operator", Type: addressTy},
	}
}()

// InitParams are the values recorded by initialize.
type InitParams struct {
	Controller   common.Address
	TerraAddress [32]byte
	Owner        common.Address
	Operator     common.Address
}

// EncodeInitParams returns the initialize payload for p.
func EncodeInitParams(p InitParams) ([]byte, error) {
	return initArgs.Pack(p.Controller, p.TerraAddress, p.Owner, p.Operator)
}

// DecodeInitParams parses an initialize payload.
func DecodeInitParams(data []byte) (InitParams, error) {
	values, err := initArgs.Unpack(data)
	if err != nil {
		return InitParams{}, fmt.Errorf("failed to decode initialize params: %w", err)
	}

	return InitParams{
		Controller:   values[0].(common.Address),
		TerraAddress: values[1].([32]byte),
		Owner:        values[2].(common.Address),
		Operator:     values[3].(common.Address),
	}, nil
}

// Operation is a binding around an Operation contract.
type Operation struct {
	address  common.Address
	contract *bind.BoundContract
}

// DeployOperation deploys a new Operation contract, binding an instance of Operation to it.
func DeployOperation(auth *bind.TransactOpts, backend bind.ContractBackend) (common.Address, *types.Transaction, *Operation, error) {
	address, tx, contract, err := bind.DeployContract(auth, *parsedABI, common.FromHex(OperationBin), backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}

	return address, tx, &Operation{address: address, contract: contract}, nil
}

// NewOperation creates a new instance of Operation, bound to a specific deployed contract.
func NewOperation(address common.Address, backend bind.ContractBackend) (*Operation, error) {
	contract := bind.NewBoundContract(address, *parsedABI, backend, backend, backend)

	return &Operation{address: address, contract: contract}, nil
}

// Address returns the address of the bound contract.
func (o *Operation) Address() common.Address {
	return o.address
}

func (o *Operation) callAddress(opts *bind.CallOpts, method string) (common.Address, error) {
	var out []any
	if err := o.contract.Call(opts, &out, method); err != nil {
		return common.Address{}, err
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// TerraAddress is a free data retrieval call.
//
// Solidity: function terraAddress() view returns(bytes32)
func (o *Operation) TerraAddress(opts *bind.CallOpts) ([32]byte, error) {
	var out []any
	if err := o.contract.Call(opts, &out, "terraAddress"); err != nil {
		return [32]byte{}, err
	}

	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// Controller is a free data retrieval call.
//
// Solidity: function controller() view returns(address)
func (o *Operation) Controller(opts *bind.CallOpts) (common.Address, error) {
	return o.callAddress(opts, "controller")
}

// Owner is a free data retrieval call.
//
// Solidity: function owner() view returns(address)
func (o *Operation) Owner(opts *bind.CallOpts) (common.Address, error) {
	return o.callAddress(opts, "owner")
}

// Operator is a free data retrieval call.
//
// Solidity: function operator() view returns(address)
func (o *Operation) Operator(opts *bind.CallOpts) (common.Address, error) {
	return o.callAddress(opts, "operator")
}

// Initialize is a paid mutator transaction.
//
// Solidity: function initialize(bytes data) returns()
func (o *Operation) Initialize(opts *bind.TransactOpts, data []byte) (*types.Transaction, error) {
	return o.contract.Transact(opts, "initialize", data)
}

// InitializeWith encodes p and sends the initialize transaction.
func (o *Operation) InitializeWith(opts *bind.TransactOpts, p InitParams) (*types.Transaction, error) {
	data, err := EncodeInitParams(p)
	if err != nil {
		return nil, err
	}

	return o.Initialize(opts, data)
}

// PackInitialize returns the calldata of initialize(data).
func PackInitialize(data []byte) ([]byte, error) {
	return parsedABI.Pack("initialize", data)
}
