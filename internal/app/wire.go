package app

import (
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/perpwatch/liquidator/internal/chain"
	"github.com/perpwatch/liquidator/internal/config"
	"github.com/perpwatch/liquidator/internal/notify"
)

// Deps bundles the external collaborators wired from configuration.
type Deps struct {
	Ledger   *chain.Client
	Payer    solana.PrivateKey
	Program  solana.PublicKey
	Notifier *notify.Notifier
}

// Wire constructs the ledger client, loads the signing keypair, and builds
// the notifier. Any failure here is fatal to startup.
func Wire(cfg *config.Config, logger *slog.Logger) (*Deps, error) {
	program, err := solana.PublicKeyFromBase58(cfg.Venue.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("app: parse venue.program_id: %w", err)
	}

	payer, err := chain.LoadKeypair(cfg.Liquidator.KeyfilePath)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	logger.Info("signing identity loaded",
		slog.String("authority", payer.PublicKey().String()),
	)

	ledger := chain.NewClient(cfg.Ledger.RPCURL, cfg.Ledger.Commitment, cfg.Ledger.RequestTimeout.Duration)

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}

	return &Deps{
		Ledger:   ledger,
		Payer:    payer,
		Program:  program,
		Notifier: notify.New(senders, cfg.Notify.Events, logger),
	}, nil
}
