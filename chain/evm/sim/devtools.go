package sim

import (
	"context"
	"time"
)

// IncreaseTime shifts the timestamp of the next block by d, like evm_increaseTime.
func (b *Backend) IncreaseTime(_ context.Context, d time.Duration) error {
	return b.AdjustTime(d)
}

// Mine seals the pending block, like evm_mine.
func (b *Backend) Mine(_ context.Context) error {
	b.Commit()
	return nil
}
