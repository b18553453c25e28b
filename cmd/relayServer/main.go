package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Layr-Labs/gasless-relay-go/internal/cliFlags"
	"github.com/Layr-Labs/gasless-relay-go/pkg/config"
	"github.com/Layr-Labs/gasless-relay-go/pkg/logger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/orchestrator"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/storeFactory"
	"github.com/Layr-Labs/gasless-relay-go/pkg/server"
	"github.com/urfave/cli/v2"
)

func main() {
	flags := []cli.Flag{
		cliFlags.OwnerAddressFlag(),
		&cli.StringFlag{
			Name:    "fee-collector",
			Usage:   "Address credited with relay fees (defaults to the owner)",
			EnvVars: []string{config.EnvRelayFeeCollector},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   config.DefaultPort,
			Usage:   "HTTP server port",
			EnvVars: []string{config.EnvRelayPort},
		},
		&cli.Float64Flag{
			Name:    "rate-limit",
			Value:   config.DefaultRateLimit,
			Usage:   "Requests per second allowed per client IP",
			EnvVars: []string{config.EnvRelayRateLimit},
		},
		&cli.IntFlag{
			Name:    "rate-burst",
			Value:   config.DefaultRateBurst,
			Usage:   "Burst size per client IP",
			EnvVars: []string{config.EnvRelayRateBurst},
		},
		cliFlags.VerboseFlag(),
	}
	flags = append(flags, cliFlags.StoreFlags()...)

	app := &cli.App{
		Name:  "relay-server",
		Usage: "Gasless token transfer relay",
		Description: `Accepts transfer intents signed off-chain and settles them against the token ledger.

The server:
- Consumes the (signer, nonce) pair of every well-formed request
- Verifies the secp256k1 signature over keccak256(abi.encode(intent))
- Debits the signer, credits the recipient and collects the relay fee atomically
- Serves balances, tokens, the relay fee and nonce status over HTTP`,
		Version: "1.0.0",
		Flags:   flags,
		Action:  runRelayServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runRelayServer(c *cli.Context) error {
	// Create logger
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool(cliFlags.FlagVerbose)})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	relayConfig := parseRelayConfig(c)
	if err := relayConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storeFactory.NewLedgerStore(&relayConfig.Store, l)
	if err != nil {
		return fmt.Errorf("failed to open ledger store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Sugar().Errorw("Failed to close ledger store", "error", err)
		}
	}()

	orch, err := orchestrator.NewTransferOrchestrator(&orchestrator.Config{
		Owner:        relayConfig.Owner(),
		FeeCollector: relayConfig.FeeCollector(),
	}, store, l)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	if relayConfig.Verbose {
		l.Sugar().Infow("Relay Server Configuration",
			"owner", relayConfig.OwnerAddress,
			"fee_collector", relayConfig.FeeCollector().Hex(),
			"port", relayConfig.Port,
			"store", relayConfig.Store.Type,
			"rate_limit", relayConfig.RateLimit,
			"rate_burst", relayConfig.RateBurst)
	}

	srv := server.NewServer(&server.Config{
		Port:      relayConfig.Port,
		RateLimit: relayConfig.RateLimit,
		RateBurst: relayConfig.RateBurst,
	}, orch, l)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Relay Server running", "owner", relayConfig.OwnerAddress, "port", relayConfig.Port)
	l.Sugar().Infow("Available endpoints",
		"transfer", "POST /transfer",
		"reads", "GET /balance, /token, /fee, /nonce, /health")
	l.Sugar().Info("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	l.Sugar().Infow("Shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Sugar().Warnw("Graceful shutdown failed, closing", "error", err)
		_ = srv.Stop()
	}
	return nil
}

func parseRelayConfig(c *cli.Context) *config.RelayServerConfig {
	return &config.RelayServerConfig{
		OwnerAddress:        c.String(cliFlags.FlagOwnerAddress),
		FeeCollectorAddress: c.String("fee-collector"),
		Port:                c.Int("port"),
		Store:               cliFlags.ParseStoreConfig(c),
		RateLimit:           c.Float64("rate-limit"),
		RateBurst:           c.Int("rate-burst"),
		Verbose:             c.Bool(cliFlags.FlagVerbose),
	}
}
