package sim

import (
	"bytes"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

type account struct {
	balance *big.Int
	nonce   uint64
	code    []byte
	storage map[common.Hash]common.Hash
}

func newAccount() *account {
	return &account{
		balance: new(big.Int),
		storage: make(map[common.Hash]common.Hash),
	}
}

func (a *account) copy() *account {
	storage := make(map[common.Hash]common.Hash, len(a.storage))
	for k, v := range a.storage {
		storage[k] = v
	}

	return &account{
		balance: new(big.Int).Set(a.balance),
		nonce:   a.nonce,
		code:    slices.Clone(a.code),
		storage: storage,
	}
}

// stateDB is the world state of the ledger. Every mutation is journaled so that a failing call
// frame can be rolled back to a snapshot.
type stateDB struct {
	accounts map[common.Address]*account
	logs     []*types.Log
	journal  []func()
}

func newStateDB() *stateDB {
	return &stateDB{accounts: make(map[common.Address]*account)}
}

// copy returns a deep copy of the state without the journal and pending logs.
func (s *stateDB) copy() *stateDB {
	cpy := newStateDB()
	for addr, acc := range s.accounts {
		cpy.accounts[addr] = acc.copy()
	}

	return cpy
}

func (s *stateDB) snapshot() int {
	return len(s.journal)
}

func (s *stateDB) revertToSnapshot(id int) {
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:id]
}

// finalise drops the journal. Must be called between transactions.
func (s *stateDB) finalise() {
	s.journal = s.journal[:0]
}

func (s *stateDB) exist(addr common.Address) bool {
	_, ok := s.accounts[addr]
	return ok
}

func (s *stateDB) getOrNew(addr common.Address) *account {
	acc, ok := s.accounts[addr]
	if !ok {
		acc = newAccount()
		s.accounts[addr] = acc
		s.journal = append(s.journal, func() { delete(s.accounts, addr) })
	}

	return acc
}

func (s *stateDB) getBalance(addr common.Address) *big.Int {
	if acc, ok := s.accounts[addr]; ok {
		return new(big.Int).Set(acc.balance)
	}

	return new(big.Int)
}

func (s *stateDB) setBalance(addr common.Address, amount *big.Int) {
	acc := s.getOrNew(addr)
	prev := acc.balance
	acc.balance = new(big.Int).Set(amount)
	s.journal = append(s.journal, func() { acc.balance = prev })
}

func (s *stateDB) addBalance(addr common.Address, amount *big.Int) {
	s.setBalance(addr, new(big.Int).Add(s.getBalance(addr), amount))
}

func (s *stateDB) subBalance(addr common.Address, amount *big.Int) {
	s.setBalance(addr, new(big.Int).Sub(s.getBalance(addr), amount))
}

// transfer moves value between accounts, failing when from cannot cover it.
func (s *stateDB) transfer(from, to common.Address, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		return nil
	}
	if s.getBalance(from).Cmp(value) < 0 {
		return ErrInsufficientBalance
	}
	s.subBalance(from, value)
	s.addBalance(to, value)

	return nil
}

func (s *stateDB) getNonce(addr common.Address) uint64 {
	if acc, ok := s.accounts[addr]; ok {
		return acc.nonce
	}

	return 0
}

func (s *stateDB) setNonce(addr common.Address, nonce uint64) {
	acc := s.getOrNew(addr)
	prev := acc.nonce
	acc.nonce = nonce
	s.journal = append(s.journal, func() { acc.nonce = prev })
}

func (s *stateDB) getCode(addr common.Address) []byte {
	if acc, ok := s.accounts[addr]; ok {
		return acc.code
	}

	return nil
}

func (s *stateDB) setCode(addr common.Address, code []byte) {
	acc := s.getOrNew(addr)
	prev := acc.code
	acc.code = slices.Clone(code)
	s.journal = append(s.journal, func() { acc.code = prev })
}

func (s *stateDB) getState(addr common.Address, slot common.Hash) common.Hash {
	if acc, ok := s.accounts[addr]; ok {
		return acc.storage[slot]
	}

	return common.Hash{}
}

func (s *stateDB) setState(addr common.Address, slot, value common.Hash) {
	acc := s.getOrNew(addr)
	prev, existed := acc.storage[slot]
	if value == (common.Hash{}) {
		delete(acc.storage, slot)
	} else {
		acc.storage[slot] = value
	}
	s.journal = append(s.journal, func() {
		if existed {
			acc.storage[slot] = prev
		} else {
			delete(acc.storage, slot)
		}
	})
}

func (s *stateDB) addLog(l *types.Log) {
	s.logs = append(s.logs, l)
	n := len(s.logs) - 1
	s.journal = append(s.journal, func() { s.logs = s.logs[:n] })
}

// takeLogs returns the logs emitted since the last call and resets the log buffer.
func (s *stateDB) takeLogs() []*types.Log {
	logs := s.logs
	s.logs = nil

	return logs
}

type storageEntry struct {
	Slot  common.Hash
	Value common.Hash
}

type accountEntry struct {
	Address  common.Address
	Nonce    uint64
	Balance  *big.Int
	CodeHash common.Hash
	Storage  []storageEntry
}

// root returns a deterministic commitment to the state. It is not the Merkle-Patricia root a
// node would compute, but it changes whenever any account field or storage slot changes.
func (s *stateDB) root() common.Hash {
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })

	entries := make([]accountEntry, 0, len(addrs))
	for _, addr := range addrs {
		acc := s.accounts[addr]
		slots := make([]storageEntry, 0, len(acc.storage))
		for k, v := range acc.storage {
			slots = append(slots, storageEntry{Slot: k, Value: v})
		}
		slices.SortFunc(slots, func(a, b storageEntry) int { return bytes.Compare(a.Slot[:], b.Slot[:]) })

		entries = append(entries, accountEntry{
			Address:  addr,
			Nonce:    acc.nonce,
			Balance:  acc.balance,
			CodeHash: crypto.Keccak256Hash(acc.code),
			Storage:  slots,
		})
	}

	enc, err := rlp.EncodeToBytes(entries)
	if err != nil {
		// all fields are rlp encodable
		panic(err)
	}

	return crypto.Keccak256Hash(enc)
}
