// Package optest provides helpers for tests that execute operations.
package optest

import (
	"testing"

	"github.com/smartcontractkit/operation-factory/operations"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// NewBundle returns a bundle bound to the test context, logging to tb and reporting in memory.
func NewBundle(tb testing.TB) operations.Bundle {
	tb.Helper()

	return operations.NewBundle(tb.Context, logger.Test(tb), operations.NewMemoryReporter())
}
