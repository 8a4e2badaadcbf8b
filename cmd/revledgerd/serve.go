package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revledger-go/api"
	"github.com/bitfsorg/revledger-go/auth"
	"github.com/bitfsorg/revledger-go/config"
	"github.com/bitfsorg/revledger-go/ledger"
	"github.com/bitfsorg/revledger-go/payment"
	"github.com/bitfsorg/revledger-go/store"
)

const boltFileName = "ledger.db"

func serve(ctx *cli.Context) error {
	if addr := ctx.String(listenFlagName); addr != "" {
		cfg.ListenAddr = addr
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(runCtx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	l, bank, err := openLedger(runCtx, cfg, st, log)
	if err != nil {
		return err
	}

	srv := api.New(l,
		api.WithCustody(bank),
		api.WithVerifier(auth.NewVerifier(nil, cfg.Auth.MaxSkew)),
		api.WithLogger(log),
	)
	return srv.Run(runCtx, cfg.ListenAddr)
}

// openLedger builds the ledger over st with an in-process custody account.
// Custody is not stored separately: it is rebuilt from the revenue the
// store still owes, so open claims stay payable across restarts.
func openLedger(ctx context.Context, c config.Config, st store.Store, log logrus.FieldLogger) (*ledger.Ledger, *payment.MemBank, error) {
	settings, err := c.PlatformSettings()
	if err != nil {
		return nil, nil, err
	}
	bank := payment.NewMemBank()
	l, err := ledger.New(ctx, st, bank, settings,
		ledger.WithLogger(log),
		ledger.WithBalanceMode(ledger.BalanceMode(c.Ledger.BalanceMode)),
	)
	if err != nil {
		return nil, nil, err
	}
	owed, err := l.Outstanding(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("restore custody: %w", err)
	}
	if err := bank.Credit(owed); err != nil {
		return nil, nil, fmt.Errorf("restore custody: %w", err)
	}
	log.WithFields(logrus.Fields{
		"store":        c.Store,
		"balance_mode": l.Mode(),
		"owner":        settings.Owner,
		"custody":      owed.Dec(),
	}).Info("ledger ready")
	return l, bank, nil
}

func openStore(ctx context.Context, c config.Config, log logrus.FieldLogger) (store.Store, error) {
	switch c.Store {
	case config.StoreMemory:
		log.Warn("memory store: ledger state is lost on exit")
		return store.NewMemStore(), nil
	case config.StoreBolt:
		if err := os.MkdirAll(c.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return store.OpenBoltStore(filepath.Join(c.DataDir, boltFileName))
	case config.StorePostgres:
		return store.OpenPostgresStore(ctx, c.Postgres.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStoreType, c.Store)
	}
}
