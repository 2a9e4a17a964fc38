// Package operationfactory holds the OperationFactory contract: its ABI, the native runtime
// executed by the in-memory ledger and a Go binding.
package operationfactory

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

// ContractName is the name the native runtime is registered under.
const ContractName = "OperationFactory"

// Event names.
const (
	EventContractDeployed     = "ContractDeployed"
	EventOperatorTransferred  = "OperatorTransferred"
	EventOwnershipTransferred = "OwnershipTransferred"
)

// OperationFactoryABI is the input ABI used to generate the binding from.
const OperationFactoryABI = `[
	{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"deployer","type":"address"},{"indexed":false,"internalType":"bytes32","name":"terraAddress","type":"bytes32"},{"indexed":false,"internalType":"address","name":"instance","type":"address"}],"name":"ContractDeployed","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"previousOperator","type":"address"},{"indexed":true,"internalType":"address","name":"newOperator","type":"address"}],"name":"OperatorTransferred","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"previousOwner","type":"address"},{"indexed":true,"internalType":"address","name":"newOwner","type":"address"}],"name":"OwnershipTransferred","type":"event"},
	{"inputs":[{"internalType":"uint256","name":"standard","type":"uint256"},{"internalType":"address","name":"controller","type":"address"}],"name":"build","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"fetchNextTerraAddress","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"instanceCount","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"index","type":"uint256"}],"name":"instances","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"operator","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"bytes32[]","name":"terraAddresses","type":"bytes32[]"}],"name":"pushTerraAddresses","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"remainingTerraAddresses","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"standard","type":"uint256"},{"internalType":"address","name":"operation","type":"address"}],"name":"setStandardOperation","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"standard","type":"uint256"}],"name":"standards","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"newOperator","type":"address"}],"name":"transferOperator","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"newOwner","type":"address"}],"name":"transferOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// OperationFactoryMetaData contains all meta data concerning the OperationFactory contract.
var OperationFactoryMetaData = &bind.MetaData{
	ABI: OperationFactoryABI,
	Bin: hexutil.Encode(sim.NativeBytecode(ContractName)),
}

// OperationFactoryBin is the compiled bytecode used for deploying new contracts.
var OperationFactoryBin = OperationFactoryMetaData.Bin

var parsedABI = func() *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(OperationFactoryABI))
	if err != nil {
		panic(err)
	}

	return &parsed
}()

// ABI returns the parsed OperationFactory ABI.
func ABI() *abi.ABI {
	return parsedABI
}

// OperationFactory is a binding around an OperationFactory contract.
type OperationFactory struct {
	address  common.Address
	contract *bind.BoundContract
}

// DeployOperationFactory deploys a new OperationFactory contract, binding an instance of
// OperationFactory to it.
func DeployOperationFactory(auth *bind.TransactOpts, backend bind.ContractBackend) (common.Address, *types.Transaction, *OperationFactory, error) {
	address, tx, contract, err := bind.DeployContract(auth, *parsedABI, common.FromHex(OperationFactoryBin), backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}

	return address, tx, &OperationFactory{address: address, contract: contract}, nil
}

// NewOperationFactory creates a new instance of OperationFactory, bound to a specific deployed
// contract.
func NewOperationFactory(address common.Address, backend bind.ContractBackend) (*OperationFactory, error) {
	contract := bind.NewBoundContract(address, *parsedABI, backend, backend, backend)

	return &OperationFactory{address: address, contract: contract}, nil
}

// Address returns the address of the bound contract.
func (f *OperationFactory) Address() common.Address {
	return f.address
}

func (f *OperationFactory) call(opts *bind.CallOpts, method string, params ...any) (any, error) {
	var out []any
	if err := f.contract.Call(opts, &out, method, params...); err != nil {
		return nil, err
	}

	return out[0], nil
}

func (f *OperationFactory) callAddress(opts *bind.CallOpts, method string, params ...any) (common.Address, error) {
	out, err := f.call(opts, method, params...)
	if err != nil {
		return common.Address{}, err
	}

	return *abi.ConvertType(out, new(common.Address)).(*common.Address), nil
}

func (f *OperationFactory) callBig(opts *bind.CallOpts, method string) (*big.Int, error) {
	out, err := f.call(opts, method)
	if err != nil {
		return nil, err
	}

	return *abi.ConvertType(out, new(*big.Int)).(**big.Int), nil
}

// Owner is a free data retrieval call.
//
// Solidity: function owner() view returns(address)
func (f *OperationFactory) Owner(opts *bind.CallOpts) (common.Address, error) {
	return f.callAddress(opts, "owner")
}

// Operator is a free data retrieval call.
//
// Solidity: function operator() view returns(address)
func (f *OperationFactory) Operator(opts *bind.CallOpts) (common.Address, error) {
	return f.callAddress(opts, "operator")
}

// Standards is a free data retrieval call.
//
// Solidity: function standards(uint256 standard) view returns(address)
func (f *OperationFactory) Standards(opts *bind.CallOpts, standard *big.Int) (common.Address, error) {
	return f.callAddress(opts, "standards", standard)
}

// Instances is a free data retrieval call.
//
// Solidity: function instances(uint256 index) view returns(address)
func (f *OperationFactory) Instances(opts *bind.CallOpts, index *big.Int) (common.Address, error) {
	return f.callAddress(opts, "instances", index)
}

// InstanceCount is a free data retrieval call.
//
// Solidity: function instanceCount() view returns(uint256)
func (f *OperationFactory) InstanceCount(opts *bind.CallOpts) (*big.Int, error) {
	return f.callBig(opts, "instanceCount")
}

// RemainingTerraAddresses is a free data retrieval call.
//
// Solidity: function remainingTerraAddresses() view returns(uint256)
func (f *OperationFactory) RemainingTerraAddresses(opts *bind.CallOpts) (*big.Int, error) {
	return f.callBig(opts, "remainingTerraAddresses")
}

// FetchNextTerraAddress is a free data retrieval call.
//
// Solidity: function fetchNextTerraAddress() view returns(bytes32)
func (f *OperationFactory) FetchNextTerraAddress(opts *bind.CallOpts) ([32]byte, error) {
	out, err := f.call(opts, "fetchNextTerraAddress")
	if err != nil {
		return [32]byte{}, err
	}

	return *abi.ConvertType(out, new([32]byte)).(*[32]byte), nil
}

// TransferOperator is a paid mutator transaction.
//
// Solidity: function transferOperator(address newOperator) returns()
func (f *OperationFactory) TransferOperator(opts *bind.TransactOpts, newOperator common.Address) (*types.Transaction, error) {
	return f.contract.Transact(opts, "transferOperator", newOperator)
}

// TransferOwnership is a paid mutator transaction.
//
// Solidity: function transferOwnership(address newOwner) returns()
func (f *OperationFactory) TransferOwnership(opts *bind.TransactOpts, newOwner common.Address) (*types.Transaction, error) {
	return f.contract.Transact(opts, "transferOwnership", newOwner)
}

// SetStandardOperation is a paid mutator transaction.
//
// Solidity: function setStandardOperation(uint256 standard, address operation) returns()
func (f *OperationFactory) SetStandardOperation(opts *bind.TransactOpts, standard *big.Int, operation common.Address) (*types.Transaction, error) {
	return f.contract.Transact(opts, "setStandardOperation", standard, operation)
}

// PushTerraAddresses is a paid mutator transaction.
//
// Solidity: function pushTerraAddresses(bytes32[] terraAddresses) returns()
func (f *OperationFactory) PushTerraAddresses(opts *bind.TransactOpts, terraAddresses [][32]byte) (*types.Transaction, error) {
	return f.contract.Transact(opts, "pushTerraAddresses", terraAddresses)
}

// Build is a paid mutator transaction.
//
// Solidity: function build(uint256 standard, address controller) returns(address)
func (f *OperationFactory) Build(opts *bind.TransactOpts, standard *big.Int, controller common.Address) (*types.Transaction, error) {
	return f.contract.Transact(opts, "build", standard, controller)
}

// OperationFactoryContractDeployed represents a ContractDeployed event raised by the
// OperationFactory contract.
type OperationFactoryContractDeployed struct {
	Deployer     common.Address
	TerraAddress [32]byte
	Instance     common.Address
	Raw          types.Log
}

// OperationFactoryOperatorTransferred represents an OperatorTransferred event raised by the
// OperationFactory contract.
type OperationFactoryOperatorTransferred struct {
	PreviousOperator common.Address
	NewOperator      common.Address
	Raw              types.Log
}

// OperationFactoryOwnershipTransferred represents an OwnershipTransferred event raised by the
// OperationFactory contract.
type OperationFactoryOwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
	Raw           types.Log
}

// ParseContractDeployed is a log parse operation binding the contract event.
//
// Solidity: event ContractDeployed(address indexed deployer, bytes32 terraAddress, address instance)
func (f *OperationFactory) ParseContractDeployed(log types.Log) (*OperationFactoryContractDeployed, error) {
	event := new(OperationFactoryContractDeployed)
	if err := f.contract.UnpackLog(event, EventContractDeployed, log); err != nil {
		return nil, err
	}
	event.Raw = log

	return event, nil
}

// ParseOperatorTransferred is a log parse operation binding the contract event.
//
// Solidity: event OperatorTransferred(address indexed previousOperator, address indexed newOperator)
func (f *OperationFactory) ParseOperatorTransferred(log types.Log) (*OperationFactoryOperatorTransferred, error) {
	event := new(OperationFactoryOperatorTransferred)
	if err := f.contract.UnpackLog(event, EventOperatorTransferred, log); err != nil {
		return nil, err
	}
	event.Raw = log

	return event, nil
}

// ParseOwnershipTransferred is a log parse operation binding the contract event.
//
// Solidity: event OwnershipTransferred(address indexed previousOwner, address indexed newOwner)
func (f *OperationFactory) ParseOwnershipTransferred(log types.Log) (*OperationFactoryOwnershipTransferred, error) {
	event := new(OperationFactoryOwnershipTransferred)
	if err := f.contract.UnpackLog(event, EventOwnershipTransferred, log); err != nil {
		return nil, err
	}
	event.Raw = log

	return event, nil
}

// FilterContractDeployed returns the ContractDeployed events in the range of opts, optionally
// restricted to the given deployers.
//
// Solidity: event ContractDeployed(address indexed deployer, bytes32 terraAddress, address instance)
func (f *OperationFactory) FilterContractDeployed(opts *bind.FilterOpts, deployer []common.Address) ([]*OperationFactoryContractDeployed, error) {
	var deployerRule []any
	for _, d := range deployer {
		deployerRule = append(deployerRule, d)
	}

	logs, sub, err := f.contract.FilterLogs(opts, EventContractDeployed, deployerRule)
	if err != nil {
		return nil, err
	}

	raw, err := drainLogs(logs, sub)
	if err != nil {
		return nil, err
	}

	events := make([]*OperationFactoryContractDeployed, 0, len(raw))
	for _, l := range raw {
		ev, err := f.ParseContractDeployed(l)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s log: %w", EventContractDeployed, err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// WatchContractDeployed subscribes to ContractDeployed events, optionally restricted to the given
// deployers.
//
// Solidity: event ContractDeployed(address indexed deployer, bytes32 terraAddress, address instance)
func (f *OperationFactory) WatchContractDeployed(opts *bind.WatchOpts, sink chan<- *OperationFactoryContractDeployed, deployer []common.Address) (event.Subscription, error) {
	var deployerRule []any
	for _, d := range deployer {
		deployerRule = append(deployerRule, d)
	}

	logs, sub, err := f.contract.WatchLogs(opts, EventContractDeployed, deployerRule)
	if err != nil {
		return nil, err
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				ev, err := f.ParseContractDeployed(l)
				if err != nil {
					return err
				}
				select {
				case sink <- ev:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// drainLogs collects the logs delivered by a finite filter subscription.
func drainLogs(logs <-chan types.Log, sub event.Subscription) ([]types.Log, error) {
	defer sub.Unsubscribe()

	var out []types.Log
	for {
		select {
		case l := <-logs:
			out = append(out, l)
		case err := <-sub.Err():
			for {
				select {
				case l := <-logs:
					out = append(out, l)
				default:
					return out, err
				}
			}
		}
	}
}
