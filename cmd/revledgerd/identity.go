package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revledger-go/config"
	"github.com/bitfsorg/revledger-go/keystore"
	"github.com/bitfsorg/revledger-go/resolve"
)

func initConfig(ctx *cli.Context) error {
	path := configPath(ctx)
	if _, err := os.Stat(path); err == nil && !ctx.Bool(forceFlagName) {
		return fmt.Errorf("%s exists; use --%s to overwrite", path, forceFlagName)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	out := config.DefaultConfig()
	out.DataDir = cfg.DataDir
	out.Store = ctx.String(storeFlagName)

	switch handle := ctx.String(ownerFlagName); {
	case handle != "":
		owner, err := newResolver().Resolve(handle)
		if err != nil {
			return err
		}
		out.Platform.Owner = owner.Address.String()
	case ctx.String(passwordFlagName) != "":
		id, err := loadIdentity(ctx)
		if err != nil {
			return err
		}
		out.Platform.Owner = id.Address.String()
	}

	if err := config.ValidateConfig(out); err != nil {
		return err
	}
	if err := config.SaveConfig(path, out); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

func keygen(ctx *cli.Context) error {
	password := ctx.String(passwordFlagName)
	if password == "" {
		return fmt.Errorf("missing --%s", passwordFlagName)
	}

	mnemonic := ctx.String(mnemonicFlagName)
	if mnemonic == "" {
		bits := keystore.Mnemonic12Words
		if ctx.Int(wordsFlagName) == 24 {
			bits = keystore.Mnemonic24Words
		}
		var err error
		if mnemonic, err = keystore.GenerateMnemonic(bits); err != nil {
			return err
		}
	}
	seed, err := keystore.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}
	id, err := keystore.DeriveIdentity(seed, 0)
	if err != nil {
		return err
	}

	path := keystore.KeyFilePath(cfg.DataDir)
	if err := keystore.SaveSeed(path, seed, password); err != nil {
		return err
	}
	return printJSON(map[string]string{
		"keyFile":  path,
		"address":  id.Address.String(),
		"pubkey":   hex.EncodeToString(id.PublicKey.Compressed()),
		"path":     id.Path,
		"mnemonic": mnemonic,
	})
}

func address(ctx *cli.Context) error {
	id, err := loadIdentity(ctx)
	if err != nil {
		return err
	}
	out := map[string]string{
		"address": id.Address.String(),
		"pubkey":  hex.EncodeToString(id.PublicKey.Compressed()),
		"path":    id.Path,
		"txt":     resolve.FormatRecord(id.PublicKey),
	}
	if handle := ctx.String(handleFlagName); handle != "" {
		alias, domain, err := resolve.SplitHandle(handle)
		if err != nil {
			return err
		}
		out["txtName"] = resolve.RecordName(alias, domain)
	}
	return printJSON(out)
}

func resolveHandle(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one handle")
	}
	id, err := newResolver().Resolve(ctx.Args().First())
	if err != nil {
		return err
	}
	out := map[string]string{
		"handle":  id.Handle,
		"address": id.Address.String(),
	}
	if id.PubKey != nil {
		out["pubkey"] = hex.EncodeToString(id.PubKey.Compressed())
	}
	return printJSON(out)
}
