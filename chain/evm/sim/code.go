package sim

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// nativeCodePrefix starts every native contract code. Code starting with 0xef cannot be deployed
// on an EVM since EIP-3541, so native code never collides with real bytecode.
var nativeCodePrefix = []byte{0xef, 0x4e, 0x43}

// NativeBytecode returns the code identifying the native contract registered under name. It is
// used both as creation code (followed by the ABI encoded constructor arguments) and as the
// runtime code stored at the contract address.
func NativeBytecode(name string) []byte {
	if len(name) > 0xff {
		panic("native contract name too long: " + name)
	}

	code := make([]byte, 0, len(nativeCodePrefix)+1+len(name))
	code = append(code, nativeCodePrefix...)
	code = append(code, byte(len(name)))

	return append(code, name...)
}

// ParseNativeCode splits native creation code into the contract name and the trailing
// constructor arguments.
func ParseNativeCode(code []byte) (name string, args []byte, ok bool) {
	if !bytes.HasPrefix(code, nativeCodePrefix) || len(code) < len(nativeCodePrefix)+1 {
		return "", nil, false
	}

	n := int(code[len(nativeCodePrefix)])
	start := len(nativeCodePrefix) + 1
	if len(code) < start+n {
		return "", nil, false
	}

	return string(code[start : start+n]), code[start+n:], true
}

// EIP-1167 minimal proxy runtime code around the 20 byte implementation address.
var (
	cloneCodePrefix = common.FromHex("0x363d3d373d3d3d363d73")
	cloneCodeSuffix = common.FromHex("0x5af43d82803e903d91602b57fd5bf3")
)

// CloneCode returns the EIP-1167 minimal proxy runtime code delegating to impl.
func CloneCode(impl common.Address) []byte {
	code := make([]byte, 0, len(cloneCodePrefix)+common.AddressLength+len(cloneCodeSuffix))
	code = append(code, cloneCodePrefix...)
	code = append(code, impl.Bytes()...)

	return append(code, cloneCodeSuffix...)
}

// ParseCloneCode returns the implementation address of EIP-1167 proxy code.
func ParseCloneCode(code []byte) (common.Address, bool) {
	if len(code) != len(cloneCodePrefix)+common.AddressLength+len(cloneCodeSuffix) {
		return common.Address{}, false
	}
	if !bytes.HasPrefix(code, cloneCodePrefix) || !bytes.HasSuffix(code, cloneCodeSuffix) {
		return common.Address{}, false
	}

	return common.BytesToAddress(code[len(cloneCodePrefix) : len(cloneCodePrefix)+common.AddressLength]), true
}
