// Package cli implements the opfactory command line.
package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/operation-factory/internal/cli/text"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

var (
	rootShort = "Deploy and drive OperationFactory contracts"

	rootLong = text.LongDesc(`
		opfactory deploys OperationFactory contracts, seeds their terra address queues and
		builds Operation instances. It talks to any JSON-RPC endpoint and can serve an
		in-memory development chain.
	`)
)

// Config holds the configuration of the command line.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	var missing []string

	if c.Logger == nil {
		missing = append(missing, "Logger")
	}

	if len(missing) > 0 {
		return errors.New("cli.Config: missing required fields: " + strings.Join(missing, ", "))
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates the opfactory root command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:           "opfactory",
		Short:         rootShort,
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "opfactory.yml", "Path to the config file")

	cmd.AddCommand(newDevnetCmd(cfg))
	cmd.AddCommand(newDeployCmd(cfg))
	cmd.AddCommand(newBuildCmd(cfg))
	cmd.AddCommand(newInspectCmd(cfg))

	return cmd, nil
}
