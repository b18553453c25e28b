package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/gasless-relay-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Layr-Labs/gasless-relay-go/pkg/config"
	"github.com/Layr-Labs/gasless-relay-go/pkg/intentSigner"
	"github.com/Layr-Labs/gasless-relay-go/pkg/intentSigner/inMemoryIntentSigner"
	"github.com/Layr-Labs/gasless-relay-go/pkg/logger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/relayClient"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func intentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "private-key",
			Usage:    "Signer private key (hex)",
			EnvVars:  []string{config.EnvRelaySignerPrivateKey},
			Required: true,
		},
		&cli.Uint64Flag{Name: "token", Usage: "Token id", Required: true},
		&cli.StringFlag{Name: "amount", Usage: "Amount (decimal or 0x hex)", Required: true},
		&cli.StringFlag{Name: "recipient", Usage: "Recipient address", Required: true},
		&cli.Uint64Flag{Name: "nonce", Usage: "Nonce; any unused value", Required: true},
	}
}

func main() {
	app := &cli.App{
		Name:  "relay-client",
		Usage: "Sign and submit gasless token transfers",
		Description: `A client for users and relayers of the gasless transfer relay.

This client can:
- Generate a secp256k1 signing key
- Sign a transfer intent off-chain and print the relay request
- Sign and submit a transfer to a relay server
- Query balances from a relay server`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Relay server URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{config.EnvRelayServerURL},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvRelayVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "Generate a new signing key",
				Action: keygenCommand,
			},
			{
				Name:   "sign",
				Usage:  "Sign a transfer intent and print the request body",
				Flags:  intentFlags(),
				Action: signCommand,
			},
			{
				Name:   "submit",
				Usage:  "Sign a transfer intent and submit it to the relay",
				Flags:  intentFlags(),
				Action: submitCommand,
			},
			{
				Name:  "balance",
				Usage: "Query a balance from the relay",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "token", Usage: "Token id", Required: true},
					&cli.StringFlag{Name: "owner", Usage: "Holder address", Required: true},
				},
				Action: balanceCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// createClient creates a new relay client from CLI context
func createClient(c *cli.Context, l *zap.Logger) (*relayClient.Client, error) {
	client, err := relayClient.NewClient(&relayClient.ClientConfig{
		BaseURL: c.String("server-url"),
		Logger:  l,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create relay client: %w", err)
	}
	return client, nil
}

// signFromFlags builds the intent described by the flags and signs it
func signFromFlags(c *cli.Context, l *zap.Logger) (*intentSigner.SignedIntent, error) {
	signer, err := inMemoryIntentSigner.NewInMemoryIntentSignerFromHex(c.String("private-key"), l)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	amount, err := messageCodec.ParseAmount(c.String("amount"))
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	recipient, err := messageCodec.ParseAddress(c.String("recipient"))
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	return signer.SignIntent(&types.TransferIntent{
		Signer:    signer.Address(),
		TokenID:   c.Uint64("token"),
		Amount:    amount,
		Recipient: recipient,
		Nonce:     c.Uint64("nonce"),
	})
}

// keygenCommand handles the keygen subcommand
func keygenCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}

	kg := localKeyGenerator.NewLocalKeyGenerator(l)
	key, err := kg.GenerateECDSAKey(contextOf(c), "relay-client")
	if err != nil {
		return err
	}
	privateKeyHex, err := kg.ExportPrivateKeyHex(key.KeyId)
	if err != nil {
		return err
	}

	fmt.Printf("Address:     %s\n", key.Address.Hex())
	fmt.Printf("Private key: %s\n", privateKeyHex)
	return nil
}

// signCommand handles the sign subcommand
func signCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}

	signed, err := signFromFlags(c, l)
	if err != nil {
		return fmt.Errorf("failed to sign intent: %w", err)
	}

	body, err := json.MarshalIndent(types.TransferRequestV1{
		Signer:    signed.Intent.Signer.Hex(),
		TokenID:   signed.Intent.TokenID,
		Amount:    (*math.HexOrDecimal256)(signed.Intent.Amount),
		Recipient: signed.Intent.Recipient.Hex(),
		Nonce:     signed.Intent.Nonce,
		Signature: signed.Signature,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Intent hash: %s\n", signed.Hash.Hex())
	fmt.Println(string(body))
	return nil
}

// submitCommand handles the submit subcommand
func submitCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}

	signed, err := signFromFlags(c, l)
	if err != nil {
		return fmt.Errorf("failed to sign intent: %w", err)
	}

	client, err := createClient(c, l)
	if err != nil {
		return err
	}

	fmt.Printf("📤 Submitting %s\n", messageCodec.String(signed.Intent))

	resp, err := client.SubmitTransfer(contextOf(c), &types.TransferRequest{
		Intent:    *signed.Intent,
		Signature: signed.Signature,
	})
	if err != nil {
		return fmt.Errorf("transfer rejected: %w", err)
	}

	fmt.Printf("✅ Transfer %s: receipt %s, intent %s, fee %s\n", resp.State, resp.ReceiptID, resp.IntentHash, resp.Fee)
	return nil
}

// balanceCommand handles the balance subcommand
func balanceCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}

	owner, err := messageCodec.ParseAddress(c.String("owner"))
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}

	client, err := createClient(c, l)
	if err != nil {
		return err
	}

	balance, err := client.GetBalance(contextOf(c), c.Uint64("token"), owner)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	fmt.Println(balance.String())
	return nil
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
