package operations

import (
	"context"
	"sync"

	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// Bundle carries what operation and sequence handlers need besides their dependencies: a
// logger, the context of the run and the reporter. Use NewBundle to create a Bundle.
type Bundle struct {
	Logger     logger.Logger
	GetContext func() context.Context

	reporter Reporter
	// hashes of report definitions and inputs, keyed by report ID
	reportHashCache *sync.Map
}

// NewBundle creates a Bundle. getContext is called every time a handler needs the run context.
func NewBundle(getContext func() context.Context, lggr logger.Logger, reporter Reporter) Bundle {
	return Bundle{
		Logger:          lggr,
		GetContext:      getContext,
		reporter:        reporter,
		reportHashCache: &sync.Map{},
	}
}

// Reporter returns the reporter of the bundle.
func (b Bundle) Reporter() Reporter {
	return b.reporter
}

// withReporter returns a copy of b writing to reporter and sharing the hash cache.
func (b Bundle) withReporter(reporter Reporter) Bundle {
	return Bundle{
		Logger:          b.Logger,
		GetContext:      b.GetContext,
		reporter:        reporter,
		reportHashCache: b.reportHashCache,
	}
}
