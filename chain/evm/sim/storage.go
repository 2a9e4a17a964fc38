package sim

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Slot returns the storage key of the n-th declared state variable.
func Slot(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

// MappingSlot returns the storage key of mapping[key] for a mapping declared at slot, following
// the solidity layout keccak256(key . slot).
func MappingSlot(slot common.Hash, key common.Hash) common.Hash {
	return crypto.Keccak256Hash(key.Bytes(), slot.Bytes())
}

// ArrayElementSlot returns the storage key of element index of a dynamic array declared at slot,
// following the solidity layout keccak256(slot) + index.
func ArrayElementSlot(slot common.Hash, index uint64) common.Hash {
	base := new(big.Int).SetBytes(crypto.Keccak256(slot.Bytes()))
	base.Add(base, new(big.Int).SetUint64(index))

	return common.BigToHash(base.Mod(base, tt256))
}

var tt256 = new(big.Int).Lsh(big.NewInt(1), 256)
