package sim

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// Env is the execution environment of a single call frame. It gives a native contract access to
// the storage of the account it executes on behalf of, the call context and the ledger.
//
// Storage access is metered. When the message runs out of gas, or a state change is attempted in
// a read only frame, the fault is recorded and every further state access becomes a no-op; the
// frame fails with the fault once the contract returns, whatever the contract returned.
type Env struct {
	evm         *evm
	caller      common.Address
	address     common.Address
	codeAddress common.Address
	value       *big.Int
	readOnly    bool
}

// Caller returns the immediate sender of the call.
func (env *Env) Caller() common.Address {
	return env.caller
}

// Address returns the address whose storage the frame operates on. For a clone it is the clone
// address, not the implementation address.
func (env *Env) Address() common.Address {
	return env.address
}

// CodeAddress returns the address the executing code was loaded from.
func (env *Env) CodeAddress() common.Address {
	return env.codeAddress
}

// Origin returns the sender of the transaction.
func (env *Env) Origin() common.Address {
	return env.evm.origin
}

// Value returns the wei sent with the call.
func (env *Env) Value() *big.Int {
	return new(big.Int).Set(env.value)
}

// BlockNumber returns the number of the block being executed.
func (env *Env) BlockNumber() *big.Int {
	return new(big.Int).Set(env.evm.block.number)
}

// Timestamp returns the timestamp of the block being executed.
func (env *Env) Timestamp() uint64 {
	return env.evm.block.time
}

// ReadOnly reports whether the frame is a static call.
func (env *Env) ReadOnly() bool {
	return env.readOnly
}

// Failed reports whether the frame hit a fault.
func (env *Env) Failed() bool {
	return env.evm.fault != nil
}

func (env *Env) charge(amount uint64) bool {
	if env.evm.fault != nil {
		return false
	}
	if err := env.evm.gas.consume(amount); err != nil {
		env.evm.fault = err
		return false
	}

	return true
}

func (env *Env) writable() bool {
	if env.evm.fault != nil {
		return false
	}
	if env.readOnly {
		env.evm.fault = ErrWriteProtection
		return false
	}

	return true
}

// Load reads a storage slot.
func (env *Env) Load(slot common.Hash) common.Hash {
	if !env.charge(env.evm.slotAccessCost(env.address, slot)) {
		return common.Hash{}
	}

	return env.evm.state.getState(env.address, slot)
}

// Store writes a storage slot.
func (env *Env) Store(slot, value common.Hash) {
	if !env.writable() {
		return
	}

	cost := env.evm.slotAccessCost(env.address, slot)
	current := env.evm.state.getState(env.address, slot)
	switch {
	case current == value:
		cost += params.WarmStorageReadCostEIP2929
	case current == (common.Hash{}):
		cost += params.SstoreSetGasEIP2200
	default:
		cost += params.SstoreResetGasEIP2200
	}
	if !env.charge(cost) {
		return
	}

	env.evm.state.setState(env.address, slot, value)
}

// LoadAddress reads an address stored right aligned in slot.
func (env *Env) LoadAddress(slot common.Hash) common.Address {
	return common.BytesToAddress(env.Load(slot).Bytes())
}

// StoreAddress stores addr right aligned in slot.
func (env *Env) StoreAddress(slot common.Hash, addr common.Address) {
	env.Store(slot, common.BytesToHash(addr.Bytes()))
}

// LoadBig reads slot as an unsigned 256 bit integer.
func (env *Env) LoadBig(slot common.Hash) *big.Int {
	return env.Load(slot).Big()
}

// StoreBig stores v, truncated to 256 bits, in slot.
func (env *Env) StoreBig(slot common.Hash, v *big.Int) {
	env.Store(slot, common.BigToHash(new(big.Int).Mod(v, tt256)))
}

// LoadUint64 reads slot as an integer. Values above 2^64-1 are truncated.
func (env *Env) LoadUint64(slot common.Hash) uint64 {
	return env.LoadBig(slot).Uint64()
}

// StoreUint64 stores v in slot.
func (env *Env) StoreUint64(slot common.Hash, v uint64) {
	env.StoreBig(slot, new(big.Int).SetUint64(v))
}

// LoadBool reads slot as a boolean.
func (env *Env) LoadBool(slot common.Hash) bool {
	return env.Load(slot) != (common.Hash{})
}

// StoreBool stores v in slot.
func (env *Env) StoreBool(slot common.Hash, v bool) {
	var value common.Hash
	if v {
		value[common.HashLength-1] = 1
	}
	env.Store(slot, value)
}

// Emit appends a log to the transaction receipt. The log is attributed to Address.
func (env *Env) Emit(topics []common.Hash, data []byte) {
	if !env.writable() {
		return
	}
	if !env.charge(params.LogGas + params.LogTopicGas*uint64(len(topics)) + params.LogDataGas*uint64(len(data))) {
		return
	}

	if data == nil {
		data = []byte{}
	}
	env.evm.state.addLog(&types.Log{
		Address: env.address,
		Topics:  append([]common.Hash{}, topics...),
		Data:    append([]byte{}, data...),
	})
}

// Clone deploys an EIP-1167 minimal proxy delegating to impl, using the CREATE address scheme of
// the current account. The clone starts with empty storage.
func (env *Env) Clone(impl common.Address) (common.Address, error) {
	if !env.writable() {
		return common.Address{}, env.evm.fault
	}

	code := CloneCode(impl)
	if !env.charge(params.CreateGas + params.CreateDataGas*uint64(len(code))) {
		return common.Address{}, env.evm.fault
	}

	return env.evm.deployCode(env.address, code)
}

// Call performs a message call from the current account to to. A reverted call returns a
// *RevertError which contracts usually return unchanged to bubble the revert up.
func (env *Env) Call(to common.Address, input []byte, value *big.Int) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !env.writable() {
		return nil, env.evm.fault
	}

	cost := env.evm.accountAccessCost(to)
	if value.Sign() > 0 {
		cost += params.CallValueTransferGas
	}
	if !env.charge(cost) {
		return nil, env.evm.fault
	}

	return env.evm.call(env.address, to, input, value, env.readOnly)
}

// StaticCall performs a read only message call.
func (env *Env) StaticCall(to common.Address, input []byte) ([]byte, error) {
	if !env.charge(env.evm.accountAccessCost(to)) {
		return nil, env.evm.fault
	}

	return env.evm.call(env.address, to, input, new(big.Int), true)
}

// CodeSize returns the size of the code stored at addr.
func (env *Env) CodeSize(addr common.Address) int {
	if !env.charge(env.evm.accountAccessCost(addr)) {
		return 0
	}

	return len(env.evm.state.getCode(addr))
}

// Revert returns the error reverting the frame with an Error(string) payload.
func (*Env) Revert(reason string) error {
	return NewRevertError(EncodeRevert(reason))
}

// RevertData returns the error reverting the frame with raw revert data.
func (*Env) RevertData(data []byte) error {
	if data == nil {
		data = []byte{}
	}

	return NewRevertError(data)
}
