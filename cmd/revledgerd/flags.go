package main

import (
	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revledger-go/config"
)

const (
	datadirFlagName   = "datadir"
	configFlagName    = "config"
	listenFlagName    = "listen"
	ownerFlagName     = "owner"
	storeFlagName     = "store"
	forceFlagName     = "force"
	passwordFlagName  = "password"
	mnemonicFlagName  = "mnemonic"
	wordsFlagName     = "words"
	handleFlagName    = "handle"
	serverFlagName    = "server"
	nameFlagName      = "name"
	metadataFlagName  = "metadata"
	sharesFlagName    = "shares"
	operatorFlagName  = "operator"
	assetFlagName     = "asset"
	amountFlagName    = "amount"
	snapshotFlagName  = "snapshot"
	snapshotsFlagName = "snapshots"
	holderFlagName    = "holder"
	toFlagName        = "to"
)

var (
	datadirFlag = &cli.StringFlag{
		Name:    datadirFlagName,
		Usage:   "data directory holding the config, key file and bolt database",
		Value:   config.DefaultDataDir(),
		EnvVars: []string{config.EnvPrefix + "_DATADIR"},
	}
	configFlag = &cli.StringFlag{
		Name:  configFlagName,
		Usage: "config file path (default <datadir>/config.yaml)",
	}
	listenFlag = &cli.StringFlag{
		Name:  listenFlagName,
		Usage: "override the API listen address",
	}
	ownerFlag = &cli.StringFlag{
		Name:  ownerFlagName,
		Usage: "platform owner handle; defaults to the local identity when a key exists",
	}
	storeFlag = &cli.StringFlag{
		Name:  storeFlagName,
		Usage: "store backend: memory, bolt or postgres",
		Value: config.StoreBolt,
	}
	forceFlag = &cli.BoolFlag{
		Name:  forceFlagName,
		Usage: "overwrite an existing config file",
	}
	passwordFlag = &cli.StringFlag{
		Name:    passwordFlagName,
		Usage:   "password of the identity key file",
		EnvVars: []string{config.EnvPrefix + "_PASSWORD"},
	}
	mnemonicFlag = &cli.StringFlag{
		Name:  mnemonicFlagName,
		Usage: "restore the identity from this mnemonic instead of generating one",
	}
	wordsFlag = &cli.IntFlag{
		Name:  wordsFlagName,
		Usage: "mnemonic length, 12 or 24 words",
		Value: 12,
	}
	handleFlag = &cli.StringFlag{
		Name:  handleFlagName,
		Usage: "alias@domain to print the TXT record name for",
	}
	serverFlag = &cli.StringFlag{
		Name:    serverFlagName,
		Usage:   "base url of the ledger API (default derived from the listen address)",
		EnvVars: []string{config.EnvPrefix + "_SERVER"},
	}
	nameFlag = &cli.StringFlag{
		Name:     nameFlagName,
		Usage:    "asset name",
		Required: true,
	}
	metadataFlag = &cli.StringFlag{
		Name:  metadataFlagName,
		Usage: "asset metadata reference",
	}
	sharesFlag = &cli.StringFlag{
		Name:     sharesFlagName,
		Usage:    "initial share supply, base 10",
		Required: true,
	}
	operatorFlag = &cli.StringFlag{
		Name:  operatorFlagName,
		Usage: "operator handle; defaults to the local identity",
	}
	assetFlag = &cli.Uint64Flag{
		Name:     assetFlagName,
		Usage:    "asset id",
		Required: true,
	}
	amountFlag = &cli.StringFlag{
		Name:     amountFlagName,
		Usage:    "amount, base 10",
		Required: true,
	}
	snapshotFlag = &cli.Uint64Flag{
		Name:     snapshotFlagName,
		Usage:    "snapshot id",
		Required: true,
	}
	snapshotsFlag = &cli.StringSliceFlag{
		Name:     snapshotsFlagName,
		Usage:    "snapshot ids, repeated or comma separated",
		Required: true,
	}
	holderFlag = &cli.StringFlag{
		Name:  holderFlagName,
		Usage: "holder handle; defaults to the local identity",
	}
	toFlag = &cli.StringFlag{
		Name:     toFlagName,
		Usage:    "recipient handle",
		Required: true,
	}
)
