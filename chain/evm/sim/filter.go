package sim

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// matchLog reports whether l is emitted by one of addresses and matches topics. An empty
// addresses list matches every emitter. topics[i] lists the accepted values at position i, an
// empty list accepting any value.
func matchLog(l *types.Log, addresses []common.Address, topics [][]common.Hash) bool {
	if len(addresses) > 0 && !slices.Contains(addresses, l.Address) {
		return false
	}
	if len(topics) > len(l.Topics) {
		return false
	}
	for i, sub := range topics {
		if len(sub) == 0 {
			continue
		}
		if !slices.Contains(sub, l.Topics[i]) {
			return false
		}
	}

	return true
}

func filterLogs(logs []*types.Log, addresses []common.Address, topics [][]common.Hash) []types.Log {
	var out []types.Log
	for _, l := range logs {
		if matchLog(l, addresses, topics) {
			out = append(out, *l)
		}
	}

	return out
}

// filterRange resolves the inclusive block range of q against the current head.
func (b *Backend) filterRange(q ethereum.FilterQuery) (uint64, uint64, error) {
	if q.BlockHash != nil {
		block, ok := b.blockByHashLocked(*q.BlockHash)
		if !ok {
			return 0, 0, fmt.Errorf("%w: %s", ErrUnknownBlock, q.BlockHash.Hex())
		}

		return block.NumberU64(), block.NumberU64(), nil
	}

	head := b.head().NumberU64()
	resolve := func(n *big.Int) uint64 {
		if n == nil || n.Sign() < 0 || !n.IsUint64() || n.Uint64() > head {
			return head
		}

		return n.Uint64()
	}
	from, to := resolve(q.FromBlock), resolve(q.ToBlock)
	if from > to {
		return 0, 0, fmt.Errorf("invalid block range %d > %d", from, to)
	}

	return from, to, nil
}

// filterLogsLocked returns the sealed logs matching q.
func (b *Backend) filterLogsLocked(q ethereum.FilterQuery) ([]types.Log, error) {
	from, to, err := b.filterRange(q)
	if err != nil {
		return nil, err
	}

	logs := []types.Log{}
	for n := from; n <= to; n++ {
		for _, tx := range b.blocks[n].Transactions() {
			receipt, ok := b.receipts[tx.Hash()]
			if !ok {
				continue
			}
			logs = append(logs, filterLogs(receipt.Logs, q.Addresses, q.Topics)...)
		}
	}

	return logs, nil
}
