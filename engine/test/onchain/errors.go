package onchain

import (
	"errors"
	"fmt"
)

// ErrMaxSelectorsReached is returned when more chains are requested than selectors exist.
var ErrMaxSelectorsReached = errors.New("max selectors reached")

func errMaxSelectors(maxCount int) error {
	return fmt.Errorf("%w: a maximum of %d selectors are available", ErrMaxSelectorsReached, maxCount)
}
