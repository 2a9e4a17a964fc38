package helper

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// TimeAdvancer moves the clock of a development chain and seals blocks.
type TimeAdvancer interface {
	IncreaseTime(ctx context.Context, d time.Duration) error
	Mine(ctx context.Context) error
}

// HeaderReader reads block headers.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// AdvanceTimeAndBlock moves the chain clock forward by d and mines a block carrying the new
// timestamp.
func AdvanceTimeAndBlock(ctx context.Context, chain TimeAdvancer, d time.Duration) error {
	if err := chain.IncreaseTime(ctx, d); err != nil {
		return fmt.Errorf("failed to increase time: %w", err)
	}
	if err := chain.Mine(ctx); err != nil {
		return fmt.Errorf("failed to mine block: %w", err)
	}

	return nil
}

// LatestBlockTime returns the timestamp of the latest block.
func LatestBlockTime(ctx context.Context, client HeaderReader) (time.Time, error) {
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest header: %w", err)
	}

	return time.Unix(int64(header.Time), 0).UTC(), nil //nolint:gosec // block timestamps fit int64
}

// RPCTimeAdvancer advances a development node through evm_increaseTime and evm_mine.
type RPCTimeAdvancer struct {
	Client *rpc.Client
}

// IncreaseTime implements TimeAdvancer.
func (a RPCTimeAdvancer) IncreaseTime(ctx context.Context, d time.Duration) error {
	return a.Client.CallContext(ctx, nil, "evm_increaseTime", uint64(d/time.Second))
}

// Mine implements TimeAdvancer.
func (a RPCTimeAdvancer) Mine(ctx context.Context) error {
	var hash common.Hash

	return a.Client.CallContext(ctx, &hash, "evm_mine")
}
