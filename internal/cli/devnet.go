package cli

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/smartcontractkit/freeport"
	"github.com/spf13/cobra"

	opfactory "github.com/smartcontractkit/operation-factory/changeset/operationfactory"
	"github.com/smartcontractkit/operation-factory/chain/evm"
	evmprov "github.com/smartcontractkit/operation-factory/chain/evm/provider"
	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
	"github.com/smartcontractkit/operation-factory/config"
	"github.com/smartcontractkit/operation-factory/internal/cli/flags"
	"github.com/smartcontractkit/operation-factory/internal/cli/text"
)

const (
	// devnetShutdownTimeout bounds the graceful shutdown of the HTTP server.
	devnetShutdownTimeout = 5 * time.Second
	// devnetReadHeaderTimeout bounds how long a client may take to send request headers.
	devnetReadHeaderTimeout = 10 * time.Second
)

var (
	devnetShort = "Serve an in-memory development chain"

	devnetLong = text.LongDesc(`
		Serves an in-memory chain executing the Operation and OperationFactory contracts over
		HTTP JSON-RPC until interrupted. The deployer and operator keys come from the config,
		or are generated, and are prefunded together with the configured number of extra
		accounts. Every key is printed at startup.

		With --deploy-factory a factory is deployed before serving, with the operator key as
		operator, and recorded in the datastore.
	`)

	devnetExample = text.Examples(`
		# Serve on the configured address
		opfactory devnet

		# Serve on a free port with a factory for standard 0 already deployed
		opfactory devnet --listen 127.0.0.1:0 --deploy-factory --standard 0
	`)
)

type devnetFlags struct {
	listen        string
	deployFactory bool
	standard      string
	qualifier     string
}

func newDevnetCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devnet",
		Short:   devnetShort,
		Long:    devnetLong,
		Example: devnetExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := devnetFlags{
				listen:        flags.MustString(cmd.Flags().GetString("listen")),
				deployFactory: flags.MustBool(cmd.Flags().GetBool("deploy-factory")),
				standard:      flags.MustString(cmd.Flags().GetString("standard")),
				qualifier:     flags.MustString(cmd.Flags().GetString("qualifier")),
			}

			return runDevnet(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Standard(cmd)
	flags.Qualifier(cmd)

	// Local flags specific to this command
	cmd.Flags().String("listen", "", "Listen address, overrides devnet.listen_address. Port 0 picks a free port")
	cmd.Flags().Bool("deploy-factory", false, "Deploy a factory before serving")

	return cmd
}

func runDevnet(cmd *cobra.Command, cfg Config, f devnetFlags) error {
	ctx := cmd.Context()

	// --- Load

	appCfg, err := loadConfig(cmd, cfg)
	if err != nil {
		return err
	}

	selector := appCfg.Network.ChainSelector
	if selector == 0 {
		selector = chainsel.GETH_TESTNET.Selector
	}

	deployerKey, err := parseKey(appCfg.Keys.DeployerKey)
	if err != nil {
		return fmt.Errorf("invalid deployer key: %w", err)
	}
	operatorKey, err := parseKey(appCfg.Keys.OperatorKey)
	if err != nil {
		return fmt.Errorf("invalid operator key: %w", err)
	}

	userKeys := []*ecdsa.PrivateKey{operatorKey}
	for range appCfg.Devnet.Accounts {
		key, kerr := crypto.GenerateKey()
		if kerr != nil {
			return kerr
		}
		userKeys = append(userKeys, key)
	}

	p := evmprov.NewSimChainProvider(selector, evmprov.SimChainProviderConfig{
		DeployerKey: deployerKey,
		UserKeys:    userKeys,
		BlockTime:   appCfg.Devnet.BlockTime,
		Logger:      cfg.Logger.Named("sim"),
	})
	bc, err := p.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to start chain: %w", err)
	}
	defer p.Close()
	c := bc.(evm.Chain)

	listener, release, err := listen(f.listen, appCfg.Devnet.ListenAddress)
	if err != nil {
		return err
	}
	defer release()

	// --- Execute

	if f.deployFactory {
		standard, perr := flags.ParseBig(f.standard)
		if perr != nil {
			return errors.Join(fmt.Errorf("--standard: %w", perr), listener.Close())
		}

		if _, derr := applyChangeset(cmd, cfg, appCfg, c, opfactory.DeployFactoryChangeset, opfactory.DeployFactoryConfig{
			ChainSelector: selector,
			Standard:      standard,
			Operator:      c.User(0).From,
			Qualifier:     f.qualifier,
		}); derr != nil {
			return errors.Join(fmt.Errorf("failed to deploy factory: %w", derr), listener.Close())
		}
	}

	server, err := sim.NewRPCServer(p.Backend())
	if err != nil {
		return errors.Join(err, listener.Close())
	}
	defer server.Stop()

	printDevnet(cmd, listener.Addr().String(), selector, deployerKey, userKeys)

	return serve(ctx, listener, server)
}

// listen opens the listener, taking a free port when the port is 0. release returns that port.
func listen(flagAddr, cfgAddr string) (net.Listener, func(), error) {
	addr := flagAddr
	if addr == "" {
		addr = cfgAddr
	}
	if addr == "" {
		addr = config.DefaultListenAddress
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}

	release := func() {}
	if port == "0" {
		ports, terr := freeport.Take(1)
		if terr != nil {
			return nil, nil, fmt.Errorf("failed to take a free port: %w", terr)
		}
		release = func() { freeport.Return(ports) }
		addr = net.JoinHostPort(host, strconv.Itoa(ports[0]))
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return listener, release, nil
}

// serve runs the HTTP server until ctx is done.
func serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: devnetReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), devnetShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func printDevnet(cmd *cobra.Command, addr string, selector uint64, deployer *ecdsa.PrivateKey, users []*ecdsa.PrivateKey) {
	chainID, _ := chainsel.GetChainIDFromSelector(selector)

	cmd.Printf("Listening on http://%s\n", addr)
	cmd.Printf("Chain ID: %s (selector %d)\n\n", chainID, selector)
	cmd.Println("Accounts")
	printAccount(cmd, "deployer", deployer)
	printAccount(cmd, "operator", users[0])
	for i, key := range users[1:] {
		printAccount(cmd, fmt.Sprintf("user %d", i), key)
	}
}

func printAccount(cmd *cobra.Command, name string, key *ecdsa.PrivateKey) {
	cmd.Printf("  %-9s %s %s\n", name, crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(crypto.FromECDSA(key)))
}
