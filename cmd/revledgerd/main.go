package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revledger-go/config"
)

var (
	Version = "dev"

	cfg config.Config
)

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "revledgerd"
	app.Usage = "snapshot-based revenue distribution ledger"
	app.Flags = []cli.Flag{datadirFlag, configFlag}
	app.Commands = append(
		app.Commands,
		&serveCommand,
		&initCommand,
		&keygenCommand,
		&addressCommand,
		&resolveCommand,
		&registerCommand,
		&depositCommand,
		&claimCommand,
		&batchClaimCommand,
		&summaryCommand,
		&transferCommand,
		&assetCommand,
	)
	app.Before = func(ctx *cli.Context) error {
		loaded, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

var (
	serveCommand = cli.Command{
		Name:   "serve",
		Usage:  "Open the configured store and serve the ledger API",
		Action: serve,
		Flags:  []cli.Flag{listenFlag},
	}
	initCommand = cli.Command{
		Name:   "init",
		Usage:  "Write a config file with defaults to the data directory",
		Action: initConfig,
		Flags:  []cli.Flag{ownerFlag, storeFlag, forceFlag, passwordFlag},
	}
	keygenCommand = cli.Command{
		Name:   "keygen",
		Usage:  "Create an encrypted identity key in the data directory",
		Action: keygen,
		Flags:  []cli.Flag{passwordFlag, mnemonicFlag, wordsFlag},
	}
	addressCommand = cli.Command{
		Name:   "address",
		Usage:  "Show the local identity address and its DNS TXT record",
		Action: address,
		Flags:  []cli.Flag{passwordFlag, handleFlag},
	}
	resolveCommand = cli.Command{
		Name:      "resolve",
		Usage:     "Resolve an address, public key or alias@domain handle",
		ArgsUsage: "<handle>",
		Action:    resolveHandle,
	}
	registerCommand = cli.Command{
		Name:   "register",
		Usage:  "Register an asset and mint its shares",
		Action: register,
		Flags:  []cli.Flag{serverFlag, passwordFlag, nameFlag, metadataFlag, sharesFlag, operatorFlag},
	}
	depositCommand = cli.Command{
		Name:   "deposit",
		Usage:  "Deposit revenue for an asset and open a snapshot",
		Action: deposit,
		Flags:  []cli.Flag{serverFlag, passwordFlag, assetFlag, amountFlag},
	}
	claimCommand = cli.Command{
		Name:   "claim",
		Usage:  "Claim revenue from one snapshot",
		Action: claim,
		Flags:  []cli.Flag{serverFlag, passwordFlag, assetFlag, snapshotFlag},
	}
	batchClaimCommand = cli.Command{
		Name:   "batch-claim",
		Usage:  "Claim revenue from several snapshots in one payout",
		Action: batchClaim,
		Flags:  []cli.Flag{serverFlag, passwordFlag, assetFlag, snapshotsFlag},
	}
	summaryCommand = cli.Command{
		Name:   "summary",
		Usage:  "Show what a holder can claim from an asset",
		Action: summary,
		Flags:  []cli.Flag{serverFlag, passwordFlag, assetFlag, holderFlag},
	}
	transferCommand = cli.Command{
		Name:   "transfer",
		Usage:  "Transfer shares of an asset",
		Action: transfer,
		Flags:  []cli.Flag{serverFlag, passwordFlag, assetFlag, toFlag, amountFlag},
	}
	assetCommand = cli.Command{
		Name:   "asset",
		Usage:  "Show an asset and its snapshots",
		Action: showAsset,
		Flags:  []cli.Flag{serverFlag, assetFlag},
	}
)
