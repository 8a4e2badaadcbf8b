package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revledger-go/client"
	"github.com/bitfsorg/revledger-go/config"
	"github.com/bitfsorg/revledger-go/keystore"
	"github.com/bitfsorg/revledger-go/resolve"
	"github.com/bitfsorg/revledger-go/revshare"
)

// loadConfig reads the config file, falling back to defaults plus
// environment when none exists. --datadir always wins over the file.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	dataDir := ctx.String(datadirFlagName)
	path := ctx.String(configFlagName)
	if path == "" {
		path = config.ConfigPath(dataDir)
	}
	c, err := config.LoadOrDefault(path)
	if err != nil {
		return config.Config{}, err
	}
	if ctx.IsSet(datadirFlagName) || c.DataDir == "" {
		c.DataDir = dataDir
	}
	return c, nil
}

func configPath(ctx *cli.Context) string {
	if p := ctx.String(configFlagName); p != "" {
		return p
	}
	return config.ConfigPath(cfg.DataDir)
}

func loadIdentity(ctx *cli.Context) (*keystore.Identity, error) {
	password := ctx.String(passwordFlagName)
	if password == "" {
		return nil, fmt.Errorf("missing --%s", passwordFlagName)
	}
	return keystore.LoadIdentity(keystore.KeyFilePath(cfg.DataDir), password)
}

// serverURL returns --server, or a loopback url for the configured listen
// address.
func serverURL(ctx *cli.Context) string {
	if u := ctx.String(serverFlagName); u != "" {
		return u
	}
	addr := cfg.ListenAddr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

// readClient is an unsigned API client.
func readClient(ctx *cli.Context) *client.Client {
	return client.New(serverURL(ctx))
}

// signedClient is an API client signing with the local identity.
func signedClient(ctx *cli.Context) (*client.Client, error) {
	id, err := loadIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return client.New(serverURL(ctx), client.WithKey(id.PrivateKey)), nil
}

func newResolver() *resolve.Resolver {
	if cfg.DNS.DNSSEC {
		return resolve.New(resolve.NewDNSSECResolver(cfg.DNS.Upstream))
	}
	return resolve.New(nil)
}

// resolveAddress resolves handle, or returns fallback when handle is empty.
func resolveAddress(handle string, fallback revshare.Address) (revshare.Address, error) {
	if handle == "" {
		return fallback, nil
	}
	id, err := newResolver().Resolve(handle)
	if err != nil {
		return revshare.Address{}, err
	}
	return id.Address, nil
}

func parseAmount(flag, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	return v, nil
}

func parseSnapshotIDs(values []string) ([]uint64, error) {
	var ids []uint64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid snapshot id %q: %w", part, err)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no snapshot ids")
	}
	return ids, nil
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}
