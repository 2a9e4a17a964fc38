package provider

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransactorGenerator is an interface for generating geth's *bind.TransactOpts instances. These
// instances are used to sign transactions using geth bindings.
type TransactorGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
}

var (
	_ TransactorGenerator = (*transactorFromRaw)(nil)
	_ TransactorGenerator = (*transactorFromKey)(nil)
	_ TransactorGenerator = (*transactorRandom)(nil)
)

// GeneratorOptions contains configuration options for the TransactorGenerator.
type GeneratorOptions struct {
	gasLimit uint64
}

// GeneratorOption is a function that modifies GeneratorOptions.
type GeneratorOption func(*GeneratorOptions)

// WithGasLimit fixes the gas limit of the generated transactor, skipping gas estimation.
func WithGasLimit(gasLimit uint64) GeneratorOption {
	return func(opts *GeneratorOptions) {
		opts.gasLimit = gasLimit
	}
}

func applyGeneratorOptions(opts []GeneratorOption) GeneratorOptions {
	o := GeneratorOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// TransactorFromRaw returns a generator which creates a transactor from a raw private key.
func TransactorFromRaw(privKey string, opts ...GeneratorOption) TransactorGenerator {
	return &transactorFromRaw{
		privKey:  privKey,
		gasLimit: applyGeneratorOptions(opts).gasLimit,
	}
}

// transactorFromRaw is a TransactorGenerator that creates a transactor from a private key.
type transactorFromRaw struct {
	privKey  string
	gasLimit uint64
}

// Generate parses the hex encoded private key and returns the bind transactor options.
func (g *transactorFromRaw) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	privKey, err := crypto.HexToECDSA(g.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	return newTransactor(privKey, chainID, g.gasLimit)
}

// TransactorFromKey returns a generator which creates a transactor from an ECDSA private key.
func TransactorFromKey(privKey *ecdsa.PrivateKey, opts ...GeneratorOption) TransactorGenerator {
	return &transactorFromKey{
		privKey:  privKey,
		gasLimit: applyGeneratorOptions(opts).gasLimit,
	}
}

type transactorFromKey struct {
	privKey  *ecdsa.PrivateKey
	gasLimit uint64
}

// Generate returns the bind transactor options of the key.
func (g *transactorFromKey) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	if g.privKey == nil {
		return nil, errors.New("private key is nil")
	}

	return newTransactor(g.privKey, chainID, g.gasLimit)
}

// TransactorRandom is a TransactorGenerator that creates a transactor with a random private key.
// The key is generated on the first call to Generate and reused afterwards.
func TransactorRandom() TransactorGenerator {
	return &transactorRandom{}
}

// transactorRandom is a TransactorGenerator that creates a transactor from a random keypair.
type transactorRandom struct {
	mu      sync.Mutex
	privKey *ecdsa.PrivateKey
}

// Generate generates a random key and returns the bind transactor options.
func (g *transactorRandom) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.privKey == nil {
		privKey, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate random private key: %w", err)
		}
		g.privKey = privKey
	}

	return newTransactor(g.privKey, chainID, 0)
}

func newTransactor(privKey *ecdsa.PrivateKey, chainID *big.Int, gasLimit uint64) (*bind.TransactOpts, error) {
	transactor, err := bind.NewKeyedTransactorWithChainID(privKey, chainID)
	if err != nil {
		return nil, err
	}
	if gasLimit > 0 {
		transactor.GasLimit = gasLimit
	}

	return transactor, nil
}
