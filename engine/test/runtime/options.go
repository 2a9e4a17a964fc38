package runtime

import "github.com/smartcontractkit/operation-factory/engine/test/environment"

// runtimeConfig is the configuration for initializing the runtime.
type runtimeConfig struct {
	envOpts []environment.LoadOpt
}

// RuntimeOption configures New.
type RuntimeOption func(*runtimeConfig)

// WithEnvOpts sets the options the environment is loaded with.
func WithEnvOpts(opts ...environment.LoadOpt) RuntimeOption {
	return func(c *runtimeConfig) {
		c.envOpts = opts
	}
}
