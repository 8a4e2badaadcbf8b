package main

import (
	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revledger-go/api"
)

func register(ctx *cli.Context) error {
	c, err := signedClient(ctx)
	if err != nil {
		return err
	}
	shares, err := parseAmount(sharesFlagName, ctx.String(sharesFlagName))
	if err != nil {
		return err
	}
	operator, err := resolveAddress(ctx.String(operatorFlagName), c.Address())
	if err != nil {
		return err
	}
	id, err := c.Register(ctx.Context, operator, ctx.String(nameFlagName), ctx.String(metadataFlagName), shares)
	if err != nil {
		return err
	}
	return printJSON(api.RegisterResponse{Status: "ok", AssetID: id})
}

func deposit(ctx *cli.Context) error {
	c, err := signedClient(ctx)
	if err != nil {
		return err
	}
	amount, err := parseAmount(amountFlagName, ctx.String(amountFlagName))
	if err != nil {
		return err
	}
	snapID, err := c.Deposit(ctx.Context, ctx.Uint64(assetFlagName), amount)
	if err != nil {
		return err
	}
	return printJSON(api.DepositResponse{Status: "ok", SnapshotID: snapID})
}

func claim(ctx *cli.Context) error {
	c, err := signedClient(ctx)
	if err != nil {
		return err
	}
	paid, err := c.Claim(ctx.Context, ctx.Uint64(assetFlagName), ctx.Uint64(snapshotFlagName))
	if err != nil {
		return err
	}
	return printJSON(api.ClaimResponse{Status: "ok", Amount: paid.Dec()})
}

func batchClaim(ctx *cli.Context) error {
	c, err := signedClient(ctx)
	if err != nil {
		return err
	}
	ids, err := parseSnapshotIDs(ctx.StringSlice(snapshotsFlagName))
	if err != nil {
		return err
	}
	res, err := c.BatchClaim(ctx.Context, ctx.Uint64(assetFlagName), ids)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func summary(ctx *cli.Context) error {
	c := readClient(ctx)
	holder := ctx.String(holderFlagName)
	if holder == "" {
		id, err := loadIdentity(ctx)
		if err != nil {
			return err
		}
		holder = id.Address.String()
	}
	addr, err := resolveAddress(holder, c.Address())
	if err != nil {
		return err
	}
	sum, err := c.Claimable(ctx.Context, ctx.Uint64(assetFlagName), addr)
	if err != nil {
		return err
	}
	return printJSON(sum)
}

func transfer(ctx *cli.Context) error {
	c, err := signedClient(ctx)
	if err != nil {
		return err
	}
	to, err := resolveAddress(ctx.String(toFlagName), c.Address())
	if err != nil {
		return err
	}
	amount, err := parseAmount(amountFlagName, ctx.String(amountFlagName))
	if err != nil {
		return err
	}
	if err := c.TransferShares(ctx.Context, ctx.Uint64(assetFlagName), to, amount); err != nil {
		return err
	}
	return printJSON(api.StatusResponse{Status: "ok"})
}

func showAsset(ctx *cli.Context) error {
	c := readClient(ctx)
	id := ctx.Uint64(assetFlagName)
	a, err := c.Asset(ctx.Context, id)
	if err != nil {
		return err
	}
	snaps, err := c.Snapshots(ctx.Context, id)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Asset     *api.Asset     `json:"asset"`
		Snapshots []api.Snapshot `json:"snapshots"`
	}{a, snaps})
}
