package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chaincommon "github.com/smartcontractkit/operation-factory/chain/internal/common"
)

// ConfirmFunc is a function that takes a transaction, waits for the transaction to be confirmed,
// and returns the block number and an error.
type ConfirmFunc func(tx *types.Transaction) (uint64, error)

// OnchainClient is an EVM chain client.
// For EVM specifically we can use existing geth interface to abstract chain clients.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// Chain represents an EVM chain.
type Chain struct {
	Selector uint64

	Client OnchainClient
	// Note the Sign function can be abstract supporting a variety of key storage mechanisms (e.g. KMS etc).
	DeployerKey *bind.TransactOpts
	Confirm     ConfirmFunc
	// Users are a set of keys that can be used to interact with the chain.
	// These are distinct from the deployer key.
	Users []*bind.TransactOpts
}

// ChainSelector returns the chain selector of the chain
func (c Chain) ChainSelector() uint64 {
	return c.Selector
}

// String returns chain name and selector "<name> (<selector>)"
func (c Chain) String() string {
	return chaincommon.ChainMetadata{Selector: c.Selector}.String()
}

// Name returns the name of the chain
func (c Chain) Name() string {
	return chaincommon.ChainMetadata{Selector: c.Selector}.Name()
}

// Family returns the family of the chain
func (c Chain) Family() string {
	return chaincommon.ChainMetadata{Selector: c.Selector}.Family()
}

// ChainID returns the numeric chain ID registered for the selector.
func (c Chain) ChainID() (uint64, error) {
	return chaincommon.ChainMetadata{Selector: c.Selector}.ChainID()
}

// User returns the i-th user key, or the deployer key when the chain has no such user.
func (c Chain) User(i int) *bind.TransactOpts {
	if i >= 0 && i < len(c.Users) {
		return c.Users[i]
	}

	return c.DeployerKey
}

// SendAndConfirm sends the transaction built by send with the deployer key and waits for it to
// be confirmed. It returns the confirmed transaction.
func (c Chain) SendAndConfirm(send func(opts *bind.TransactOpts) (*types.Transaction, error)) (*types.Transaction, error) {
	return c.SendAndConfirmAs(c.DeployerKey, send)
}

// SendAndConfirmAs sends the transaction built by send with opts and waits for it to be
// confirmed.
func (c Chain) SendAndConfirmAs(
	opts *bind.TransactOpts, send func(opts *bind.TransactOpts) (*types.Transaction, error),
) (*types.Transaction, error) {
	tx, err := send(opts)
	if err != nil {
		return nil, err
	}
	if _, err := c.Confirm(tx); err != nil {
		return tx, err
	}

	return tx, nil
}
