package provider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/smartcontractkit/operation-factory/chain"
	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
	"github.com/smartcontractkit/operation-factory/contracts"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

const (
	// simBlockGasLimit is the block gas limit of simulated chains.
	simBlockGasLimit = 50_000_000
	// simConfirmTimeout bounds how long the confirm function waits for a receipt.
	simConfirmTimeout = 1 * time.Minute
	// simConfirmTick is how often the confirm function polls for a receipt.
	simConfirmTick = 10 * time.Millisecond
)

var (
	// prefundAmountEth is the amount of Ether to pre-fund every account with.
	prefundAmountEth = big.NewInt(1_000_000)
	// prefundAmountWei is the prefund amount in wei.
	prefundAmountWei = new(big.Int).Mul(prefundAmountEth, big.NewInt(params.Ether))
)

// SimChainProviderConfig holds the configuration to initialize the SimChainProvider.
type SimChainProviderConfig struct {
	// Optional: NumAdditionalAccounts is the number of additional accounts to generate for the
	// simulated chain.
	NumAdditionalAccounts uint
	// Optional: BlockTime configures the time between blocks being committed. By default, this is
	// set to 0s, meaning that every accepted transaction is mined into its own block.
	BlockTime time.Duration
	// Optional: DeployerKey is the key of the deployer account. A random key is generated when it
	// is not set.
	DeployerKey *ecdsa.PrivateKey
	// Optional: UserKeys are prefunded user accounts placed before the generated ones.
	UserKeys []*ecdsa.PrivateKey
	// Optional: Logger is the logger of the simulated ledger. Nothing is logged when it is not set.
	Logger logger.Logger
}

var _ chain.Provider = (*SimChainProvider)(nil)

// SimChainProvider manages a simulated EVM chain backed by the in-memory ledger executing the
// factory contracts.
type SimChainProvider struct {
	selector uint64
	config   SimChainProviderConfig

	backend *sim.Backend
	chain   *evm.Chain
}

// NewSimChainProvider creates a new SimChainProvider with the given selector and configuration.
func NewSimChainProvider(selector uint64, config SimChainProviderConfig) *SimChainProvider {
	return &SimChainProvider{
		selector: selector,
		config:   config,
	}
}

// Initialize sets up the simulated chain with a deployer account and additional accounts as
// specified in the configuration. It returns an initialized evm.Chain instance that can be used
// to interact with the simulated chain.
//
// Each account is prefunded with 1,000,000 Ether.
func (p *SimChainProvider) Initialize(ctx context.Context) (chain.BlockChain, error) {
	if p.chain != nil {
		return *p.chain, nil // Already initialized
	}

	chainIDStr, err := chainsel.GetChainIDFromSelector(p.selector)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID from selector %d: %w", p.selector, err)
	}
	id, err := strconv.ParseUint(chainIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("chain ID %q of selector %d is not numeric: %w", chainIDStr, p.selector, err)
	}
	chainID := new(big.Int).SetUint64(id)

	deployerKey := p.config.DeployerKey
	if deployerKey == nil {
		if deployerKey, err = crypto.GenerateKey(); err != nil {
			return nil, fmt.Errorf("failed to generate deployer key: %w", err)
		}
	}

	adminTransactor, err := bind.NewKeyedTransactorWithChainID(deployerKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create deployer transactor: %w", err)
	}

	// Prefund the admin account
	genesis := types.GenesisAlloc{
		adminTransactor.From: {Balance: prefundAmountWei},
	}

	userKeys := slices.Clone(p.config.UserKeys)
	for range p.config.NumAdditionalAccounts {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate user key: %w", err)
		}
		userKeys = append(userKeys, key)
	}

	additionalTransactors := make([]*bind.TransactOpts, 0, len(userKeys))
	for _, key := range userKeys {
		transactor, err := bind.NewKeyedTransactorWithChainID(key, chainID)
		if err != nil {
			return nil, fmt.Errorf("failed to create user transactor: %w", err)
		}

		additionalTransactors = append(additionalTransactors, transactor)
		genesis[transactor.From] = types.Account{Balance: prefundAmountWei}
	}

	lggr := p.config.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}

	opts := []sim.Option{
		sim.WithChainID(chainID),
		sim.WithBlockGasLimit(simBlockGasLimit),
		sim.WithLogger(lggr),
	}
	if p.config.BlockTime > 0 {
		opts = append(opts, sim.WithBlockTime(p.config.BlockTime))
	}

	p.backend = contracts.NewBackend(genesis, opts...)
	client := NewSimClient(p.backend)

	confirm, err := ConfirmFuncGeth(simConfirmTimeout, WithTickInterval(simConfirmTick)).Generate(
		ctx, p.selector, client, adminTransactor.From,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirm function: %w", err)
	}

	p.chain = &evm.Chain{
		Selector:    p.selector,
		Client:      client,
		DeployerKey: adminTransactor,
		Users:       additionalTransactors,
		Confirm:     confirm,
	}

	return *p.chain, nil
}

// Name returns the name of the SimChainProvider.
func (*SimChainProvider) Name() string {
	return "Simulated EVM Chain Provider"
}

// ChainSelector returns the chain selector of the simulated chain managed by this provider.
func (p *SimChainProvider) ChainSelector() uint64 {
	return p.selector
}

// BlockChain returns the simulated chain instance managed by this provider. You must call Initialize
// before using this method to ensure the chain is properly set up.
func (p *SimChainProvider) BlockChain() chain.BlockChain {
	return *p.chain
}

// Backend returns the ledger of the simulated chain, or nil before Initialize.
func (p *SimChainProvider) Backend() *sim.Backend {
	return p.backend
}

// Close stops the ledger of the simulated chain.
func (p *SimChainProvider) Close() error {
	if p.backend == nil {
		return errors.New("provider is not initialized")
	}

	return p.backend.Close()
}
