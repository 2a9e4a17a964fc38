package sim

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

// gasMeter tracks the gas of a single message across all of its call frames.
type gasMeter struct {
	limit uint64
	used  uint64
}

func (g *gasMeter) consume(amount uint64) error {
	if g.limit-g.used < amount {
		g.used = g.limit
		return ErrOutOfGas
	}
	g.used += amount

	return nil
}

func (g *gasMeter) remaining() uint64 {
	return g.limit - g.used
}

type blockContext struct {
	number   *big.Int
	time     uint64
	coinbase common.Address
	gasLimit uint64
	baseFee  *big.Int
}

// evm executes a single message against the state.
type evm struct {
	state    *stateDB
	registry *Registry
	block    blockContext
	origin   common.Address
	gas      *gasMeter
	fault    error
	depth    int

	warmAccounts map[common.Address]struct{}
	warmSlots    map[common.Address]map[common.Hash]struct{}
}

func newEVM(state *stateDB, registry *Registry, block blockContext, origin common.Address, gasLimit uint64) *evm {
	return &evm{
		state:        state,
		registry:     registry,
		block:        block,
		origin:       origin,
		gas:          &gasMeter{limit: gasLimit},
		warmAccounts: map[common.Address]struct{}{origin: {}},
		warmSlots:    make(map[common.Address]map[common.Hash]struct{}),
	}
}

func (e *evm) accountAccessCost(addr common.Address) uint64 {
	if _, ok := e.warmAccounts[addr]; ok {
		return params.WarmStorageReadCostEIP2929
	}
	e.warmAccounts[addr] = struct{}{}

	return params.ColdAccountAccessCostEIP2929
}

func (e *evm) slotAccessCost(addr common.Address, slot common.Hash) uint64 {
	slots, ok := e.warmSlots[addr]
	if !ok {
		slots = make(map[common.Hash]struct{})
		e.warmSlots[addr] = slots
	}
	if _, ok := slots[slot]; ok {
		return params.WarmStorageReadCostEIP2929
	}
	slots[slot] = struct{}{}

	return params.ColdSloadCostEIP2929
}

// resolve returns the native contract executing the code stored at addr and the address the code
// was loaded from. A nil contract means addr has no code.
func (e *evm) resolve(addr common.Address) (Contract, common.Address, error) {
	code := e.state.getCode(addr)
	codeAddr := addr
	if impl, ok := ParseCloneCode(code); ok {
		codeAddr = impl
		code = e.state.getCode(impl)
	}
	if len(code) == 0 {
		return nil, codeAddr, nil
	}

	name, _, ok := ParseNativeCode(code)
	if !ok {
		return nil, codeAddr, ErrUnsupportedCode
	}
	contract, ok := e.registry.Lookup(name)
	if !ok {
		return nil, codeAddr, fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}

	return contract, codeAddr, nil
}

// call executes a message call. State changes of a failing call are rolled back.
func (e *evm) call(caller, to common.Address, input []byte, value *big.Int, readOnly bool) ([]byte, error) {
	if e.depth > int(params.CallCreateDepth) {
		return nil, ErrDepth
	}

	snapshot := e.state.snapshot()
	if err := e.state.transfer(caller, to, value); err != nil {
		return nil, err
	}

	contract, codeAddr, err := e.resolve(to)
	if err != nil {
		e.state.revertToSnapshot(snapshot)
		return nil, err
	}
	if contract == nil {
		e.state.getOrNew(to)
		return nil, nil
	}

	env := &Env{
		evm:         e,
		caller:      caller,
		address:     to,
		codeAddress: codeAddr,
		value:       value,
		readOnly:    readOnly,
	}

	e.depth++
	out, err := contract.Run(env, input)
	e.depth--
	if e.fault != nil {
		err = e.fault
	}
	if err != nil {
		e.state.revertToSnapshot(snapshot)
		return nil, err
	}

	return out, nil
}

// create runs native creation code at the CREATE address derived from caller and nonce.
func (e *evm) create(caller common.Address, nonce uint64, code []byte, value *big.Int) (common.Address, error) {
	addr := crypto.CreateAddress(caller, nonce)
	if e.depth > int(params.CallCreateDepth) {
		return addr, ErrDepth
	}
	if e.state.getNonce(addr) != 0 || len(e.state.getCode(addr)) != 0 {
		return addr, ErrContractAddressCollision
	}

	name, args, ok := ParseNativeCode(code)
	if !ok {
		return addr, ErrUnsupportedCode
	}
	contract, ok := e.registry.Lookup(name)
	if !ok {
		return addr, fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}

	snapshot := e.state.snapshot()
	e.state.setNonce(addr, 1)
	if err := e.state.transfer(caller, addr, value); err != nil {
		e.state.revertToSnapshot(snapshot)
		return addr, err
	}

	env := &Env{
		evm:         e,
		caller:      caller,
		address:     addr,
		codeAddress: addr,
		value:       value,
	}

	runtime := NativeBytecode(name)
	e.depth++
	err := contract.Construct(env, args)
	e.depth--
	if err == nil {
		env.charge(params.CreateDataGas * uint64(len(runtime)))
	}
	if e.fault != nil {
		err = e.fault
	}
	if err != nil {
		e.state.revertToSnapshot(snapshot)
		return addr, err
	}
	e.state.setCode(addr, runtime)

	return addr, nil
}

// deployCode installs runtime code at the next CREATE address of caller without running any
// constructor. It is used for EIP-1167 clones.
func (e *evm) deployCode(caller common.Address, code []byte) (common.Address, error) {
	if e.depth > int(params.CallCreateDepth) {
		return common.Address{}, ErrDepth
	}

	nonce := e.state.getNonce(caller)
	addr := crypto.CreateAddress(caller, nonce)
	e.state.setNonce(caller, nonce+1)
	if e.state.getNonce(addr) != 0 || len(e.state.getCode(addr)) != 0 {
		return common.Address{}, ErrContractAddressCollision
	}
	e.state.setNonce(addr, 1)
	e.state.setCode(addr, code)
	e.warmAccounts[addr] = struct{}{}

	return addr, nil
}

// isVMError reports whether err consumes all remaining gas of a message.
func isVMError(err error) bool {
	return errors.Is(err, ErrOutOfGas) ||
		errors.Is(err, ErrWriteProtection) ||
		errors.Is(err, ErrDepth) ||
		errors.Is(err, ErrUnsupportedCode) ||
		errors.Is(err, ErrUnknownContract) ||
		errors.Is(err, ErrContractAddressCollision)
}
