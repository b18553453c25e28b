package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/gasless-relay-go/internal/cliFlags"
	"github.com/Layr-Labs/gasless-relay-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Layr-Labs/gasless-relay-go/pkg/config"
	"github.com/Layr-Labs/gasless-relay-go/pkg/logger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/orchestrator"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence/storeFactory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const ownerKeyId = "owner"

func main() {
	flags := []cli.Flag{
		cliFlags.OwnerAddressFlag(),
		&cli.StringFlag{
			Name:    "owner-private-key",
			Usage:   "Private key (hex) of the caller; must belong to the owner for admin operations",
			EnvVars: []string{config.EnvRelayOwnerPrivateKey},
		},
		cliFlags.VerboseFlag(),
	}
	flags = append(flags, cliFlags.StoreFlags()...)

	app := &cli.App{
		Name:  "relay-admin",
		Usage: "Owner operations on the relay ledger",
		Description: `Opens the ledger store directly and runs owner-only operations.

With the badger store the relay server must be stopped first; badger allows a single
process per data directory. The redis store can be administered while the server runs.`,
		Version: "1.0.0",
		Flags:   flags,
		Commands: []*cli.Command{
			{
				Name:  "register-token",
				Usage: "Register a token id with its metadata",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "id", Usage: "Token id", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Token name", Required: true},
					&cli.StringFlag{Name: "symbol", Usage: "Token symbol", Required: true},
					&cli.UintFlag{Name: "decimals", Usage: "Token decimals (0-255)", Value: 18},
				},
				Action: registerTokenCommand,
			},
			{
				Name:  "set-fee",
				Usage: "Set the relay fee charged per transfer, in units of the transferred token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "fee", Usage: "Fee (decimal or 0x hex)", Required: true},
				},
				Action: setFeeCommand,
			},
			{
				Name:  "seed",
				Usage: "Credit a balance of a registered token to a holder",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "token", Usage: "Token id", Required: true},
					&cli.StringFlag{Name: "holder", Usage: "Holder address", Required: true},
					&cli.StringFlag{Name: "amount", Usage: "Amount (decimal or 0x hex)", Required: true},
				},
				Action: seedCommand,
			},
			{
				Name:  "balance",
				Usage: "Print a balance",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "token", Usage: "Token id", Required: true},
					&cli.StringFlag{Name: "holder", Usage: "Holder address", Required: true},
				},
				Action: balanceCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type adminSession struct {
	orch   *orchestrator.TransferOrchestrator
	store  persistence.ILedgerStore
	logger *zap.Logger
}

func (s *adminSession) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Sugar().Errorw("Failed to close ledger store", "error", err)
	}
}

// openSession opens the configured store and builds an orchestrator owned by --owner-address
func openSession(c *cli.Context) (*adminSession, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool(cliFlags.FlagVerbose)})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	owner, err := messageCodec.ParseAddress(c.String(cliFlags.FlagOwnerAddress))
	if err != nil {
		return nil, fmt.Errorf("invalid owner address: %w", err)
	}

	storeConfig := cliFlags.ParseStoreConfig(c)
	store, err := storeFactory.NewLedgerStore(&storeConfig, l)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}

	orch, err := orchestrator.NewTransferOrchestrator(&orchestrator.Config{Owner: owner}, store, l)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return &adminSession{orch: orch, store: store, logger: l}, nil
}

// callerAddress derives the caller identity from --owner-private-key
func callerAddress(c *cli.Context, l *zap.Logger) (common.Address, error) {
	keyHex := c.String("owner-private-key")
	if keyHex == "" {
		return common.Address{}, fmt.Errorf("--owner-private-key is required for this command")
	}

	kg := localKeyGenerator.NewLocalKeyGenerator(l)
	if err := kg.LoadPrivateKeyFromHex(ownerKeyId, keyHex, ownerKeyId); err != nil {
		return common.Address{}, err
	}
	key, err := kg.GetECDSAKeyById(context.Background(), ownerKeyId)
	if err != nil {
		return common.Address{}, err
	}
	return key.Address, nil
}

func registerTokenCommand(c *cli.Context) error {
	decimals := c.Uint("decimals")
	if decimals > 255 {
		return fmt.Errorf("decimals must be between 0-255, got %d", decimals)
	}

	session, err := openSession(c)
	if err != nil {
		return err
	}
	defer session.Close()

	caller, err := callerAddress(c, session.logger)
	if err != nil {
		return err
	}

	id := c.Uint64("id")
	if err := session.orch.RegisterToken(caller, id, c.String("name"), c.String("symbol"), uint8(decimals)); err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}

	fmt.Printf("✅ Registered token %d (%s, %s, %d decimals)\n", id, c.String("name"), c.String("symbol"), decimals)
	return nil
}

func setFeeCommand(c *cli.Context) error {
	fee, err := messageCodec.ParseAmount(c.String("fee"))
	if err != nil {
		return fmt.Errorf("invalid fee: %w", err)
	}

	session, err := openSession(c)
	if err != nil {
		return err
	}
	defer session.Close()

	caller, err := callerAddress(c, session.logger)
	if err != nil {
		return err
	}

	if err := session.orch.UpdateRelayFee(caller, fee); err != nil {
		return fmt.Errorf("failed to set relay fee: %w", err)
	}

	fmt.Printf("✅ Relay fee set to %s\n", fee)
	return nil
}

func seedCommand(c *cli.Context) error {
	holder, err := messageCodec.ParseAddress(c.String("holder"))
	if err != nil {
		return fmt.Errorf("invalid holder: %w", err)
	}
	amount, err := messageCodec.ParseAmount(c.String("amount"))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	session, err := openSession(c)
	if err != nil {
		return err
	}
	defer session.Close()

	caller, err := callerAddress(c, session.logger)
	if err != nil {
		return err
	}

	tokenID := c.Uint64("token")
	if err := session.orch.SeedBalance(caller, tokenID, holder, amount); err != nil {
		return fmt.Errorf("failed to seed balance: %w", err)
	}

	balance, err := session.orch.GetTokenBalance(tokenID, holder)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Seeded %s of token %d to %s (balance %s)\n", amount, tokenID, holder.Hex(), balance)
	return nil
}

func balanceCommand(c *cli.Context) error {
	holder, err := messageCodec.ParseAddress(c.String("holder"))
	if err != nil {
		return fmt.Errorf("invalid holder: %w", err)
	}

	session, err := openSession(c)
	if err != nil {
		return err
	}
	defer session.Close()

	balance, err := session.orch.GetTokenBalance(c.Uint64("token"), holder)
	if err != nil {
		return err
	}
	fmt.Println(balance.String())
	return nil
}
