// Command opfactory deploys and drives OperationFactory contracts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/operation-factory/internal/cli"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	level := zapcore.InfoLevel
	if s := os.Getenv("OPFACTORY_LOG_LEVEL"); s != "" {
		parsed, err := zapcore.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("invalid OPFACTORY_LOG_LEVEL: %w", err)
		}
		level = parsed
	}

	lggr, err := (&logger.Config{Level: level, Development: true}).New()
	if err != nil {
		return err
	}
	defer func() { _ = lggr.Sync() }()

	cmd, err := cli.NewCommand(cli.Config{Logger: lggr})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd.ExecuteContext(ctx)
}
