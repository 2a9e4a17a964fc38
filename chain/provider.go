package chain

import "context"

// Provider is an interface for blockchain providers that can initialize a blockchain instance.
type Provider interface {
	Initialize(ctx context.Context) (BlockChain, error)
	Name() string
	ChainSelector() uint64
	BlockChain() BlockChain
}

// ChainLoader is an interface for loading a blockchain instance lazily.
// It's used by the lazy loading mechanism in BlockChains to load chains on-demand.
type ChainLoader interface {
	Load(ctx context.Context, selector uint64) (BlockChain, error)
}

// ChainLoaderFunc adapts a function to a ChainLoader.
type ChainLoaderFunc func(ctx context.Context, selector uint64) (BlockChain, error)

// Load implements ChainLoader.
func (f ChainLoaderFunc) Load(ctx context.Context, selector uint64) (BlockChain, error) {
	return f(ctx, selector)
}
