// Package client is a Go client for the revledger HTTP API. Mutations are
// signed with the client's key; the server attributes them to the address
// of that key.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/go-resty/resty/v2"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"

	"github.com/bitfsorg/revledger-go/api"
	"github.com/bitfsorg/revledger-go/auth"
	"github.com/bitfsorg/revledger-go/revshare"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 30 * time.Second

// Client talks to one revledger server. The base URL must be the server
// root; signatures cover the request path as the server sees it.
type Client struct {
	http  *resty.Client
	key   *ec.PrivateKey
	clock clockwork.Clock
}

// Option configures a Client.
type Option func(*Client)

// WithKey sets the key that signs mutations.
func WithKey(key *ec.PrivateKey) Option {
	return func(c *Client) { c.key = key }
}

// WithClock sets the clock used for request timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Address returns the address of the signing key, or the zero address.
func (c *Client) Address() revshare.Address {
	if c.key == nil {
		return revshare.ZeroAddress
	}
	return revshare.AddressFromPubKey(c.key.PubKey())
}

// get fetches path into result.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result, false)
}

// send performs a signed mutation.
func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	return c.do(ctx, method, path, body, result, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, signed bool) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
	}

	apiErr := &api.ErrorResponse{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if result != nil {
		req.SetResult(result)
	}
	if raw != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(raw)
	}
	if signed {
		if c.key == nil {
			return ErrNoKey
		}
		h, err := auth.Sign(c.key, method, path, c.clock.Now().Unix(), raw)
		if err != nil {
			return fmt.Errorf("client: sign request: %w", err)
		}
		hdr := http.Header{}
		h.Apply(hdr)
		for k := range hdr {
			req.SetHeader(k, hdr.Get(k))
		}
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrConnectionFailed, method, path, err)
	}
	if resp.IsError() {
		if apiErr.Code == "" {
			return &APIError{Status: resp.StatusCode(), Code: "INTERNAL", Message: resp.String()}
		}
		return &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return nil
}

func assetPath(id uint64, suffix string) string {
	return "/v1/assets/" + strconv.FormatUint(id, 10) + suffix
}

func amount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %w", ErrInvalidResponse, s, err)
	}
	return v, nil
}

// --- Reads ---

// Settings returns the platform settings.
func (c *Client) Settings(ctx context.Context) (*api.Settings, error) {
	var out api.Settings
	if err := c.get(ctx, "/v1/settings", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assets lists every asset.
func (c *Client) Assets(ctx context.Context) ([]api.Asset, error) {
	var out []api.Asset
	if err := c.get(ctx, "/v1/assets", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssetsByOperator lists the assets operated by operator.
func (c *Client) AssetsByOperator(ctx context.Context, operator revshare.Address) ([]api.Asset, error) {
	var out []api.Asset
	if err := c.get(ctx, "/v1/operators/"+operator.String()+"/assets", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Asset returns one asset.
func (c *Client) Asset(ctx context.Context, id uint64) (*api.Asset, error) {
	var out api.Asset
	if err := c.get(ctx, assetPath(id, ""), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Snapshots lists an asset's snapshots in id order.
func (c *Client) Snapshots(ctx context.Context, id uint64) ([]api.Snapshot, error) {
	var out []api.Snapshot
	if err := c.get(ctx, assetPath(id, "/snapshots"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot returns one snapshot.
func (c *Client) Snapshot(ctx context.Context, id, snapshotID uint64) (*api.Snapshot, error) {
	var out api.Snapshot
	if err := c.get(ctx, assetPath(id, "/snapshots/"+strconv.FormatUint(snapshotID, 10)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Holders returns the current share distribution of an asset.
func (c *Client) Holders(ctx context.Context, id uint64) (*api.HoldersResponse, error) {
	var out api.HoldersResponse
	if err := c.get(ctx, assetPath(id, "/holders"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BalanceOf returns holder's share balance.
func (c *Client) BalanceOf(ctx context.Context, id uint64, holder revshare.Address) (*uint256.Int, error) {
	var out api.BalanceResponse
	if err := c.get(ctx, assetPath(id, "/balances/"+holder.String()), &out); err != nil {
		return nil, err
	}
	return amount(out.Balance)
}

// Claimable previews what holder can claim from an asset.
func (c *Client) Claimable(ctx context.Context, id uint64, holder revshare.Address) (*api.SummaryResponse, error) {
	var out api.SummaryResponse
	if err := c.get(ctx, assetPath(id, "/claimable/"+holder.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Projection previews how a deposit of gross would be split.
func (c *Client) Projection(ctx context.Context, id uint64, gross *uint256.Int) (*api.Projection, error) {
	var out api.Projection
	path := assetPath(id, "/projection?amount="+url.QueryEscape(gross.Dec()))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Audit asks the server to re-check an asset's bookkeeping.
func (c *Client) Audit(ctx context.Context, id uint64) error {
	return c.get(ctx, assetPath(id, "/audit"), nil)
}

// Events pages through the audit trail. assetID 0 means all assets.
func (c *Client) Events(ctx context.Context, assetID, after uint64, limit int) (*api.EventsResponse, error) {
	q := url.Values{}
	if assetID != 0 {
		q.Set("asset", strconv.FormatUint(assetID, 10))
	}
	if after != 0 {
		q.Set("after", strconv.FormatUint(after, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out api.EventsResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Registry ---

// Register creates an asset and mints shares to operator. A zero operator
// means the client's own address.
func (c *Client) Register(ctx context.Context, operator revshare.Address, name, metadataRef string, shares *uint256.Int) (uint64, error) {
	if operator.IsZero() {
		operator = c.Address()
	}
	var out api.RegisterResponse
	err := c.send(ctx, http.MethodPost, "/v1/assets", api.RegisterRequest{
		Operator:      operator,
		Name:          name,
		MetadataRef:   metadataRef,
		InitialShares: shares.Dec(),
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.AssetID, nil
}

// UpdateMetadata replaces an asset's metadata reference.
func (c *Client) UpdateMetadata(ctx context.Context, id uint64, metadataRef string) error {
	return c.send(ctx, http.MethodPut, assetPath(id, "/metadata"), api.MetadataRequest{MetadataRef: metadataRef}, nil)
}

// SetActive toggles whether an asset accepts deposits.
func (c *Client) SetActive(ctx context.Context, id uint64, active bool) error {
	return c.send(ctx, http.MethodPut, assetPath(id, "/status"), api.StatusRequest{Active: &active}, nil)
}

// TransferOperator hands operator rights to newOperator.
func (c *Client) TransferOperator(ctx context.Context, id uint64, newOperator revshare.Address) error {
	return c.send(ctx, http.MethodPut, assetPath(id, "/operator"), api.OperatorRequest{Operator: newOperator}, nil)
}

// TransferShares moves shares from the client's address to to.
func (c *Client) TransferShares(ctx context.Context, id uint64, to revshare.Address, shares *uint256.Int) error {
	return c.send(ctx, http.MethodPost, assetPath(id, "/transfers"), api.TransferRequest{To: to, Amount: shares.Dec()}, nil)
}

// --- Revenue ---

// Deposit reports revenue for an asset and returns the new snapshot id.
func (c *Client) Deposit(ctx context.Context, id uint64, gross *uint256.Int) (uint64, error) {
	var out api.DepositResponse
	if err := c.send(ctx, http.MethodPost, assetPath(id, "/deposits"), api.DepositRequest{Amount: gross.Dec()}, &out); err != nil {
		return 0, err
	}
	return out.SnapshotID, nil
}

// Claim collects the client's payout for one snapshot.
func (c *Client) Claim(ctx context.Context, id, snapshotID uint64) (*uint256.Int, error) {
	var out api.ClaimResponse
	if err := c.send(ctx, http.MethodPost, assetPath(id, "/claims"), api.ClaimRequest{SnapshotID: snapshotID}, &out); err != nil {
		return nil, err
	}
	return amount(out.Amount)
}

// BatchClaim collects several snapshots in one payout.
func (c *Client) BatchClaim(ctx context.Context, id uint64, snapshotIDs []uint64) (*api.BatchClaimResponse, error) {
	var out api.BatchClaimResponse
	if err := c.send(ctx, http.MethodPost, assetPath(id, "/batch-claims"), api.BatchClaimRequest{SnapshotIDs: snapshotIDs}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Admin ---

// SetPlatformFee sets the deposit fee in basis points.
func (c *Client) SetPlatformFee(ctx context.Context, bps uint16) error {
	return c.send(ctx, http.MethodPut, "/v1/admin/fee", api.FeeRequest{FeeBps: &bps}, nil)
}

// SetMinRevenueThreshold sets the smallest accepted deposit.
func (c *Client) SetMinRevenueThreshold(ctx context.Context, min *uint256.Int) error {
	return c.send(ctx, http.MethodPut, "/v1/admin/threshold", api.ThresholdRequest{Amount: min.Dec()}, nil)
}

// TransferPlatformOwnership hands the admin role to newOwner.
func (c *Client) TransferPlatformOwnership(ctx context.Context, newOwner revshare.Address) error {
	return c.send(ctx, http.MethodPut, "/v1/admin/owner", api.OwnerRequest{Owner: newOwner}, nil)
}

// Pause halts registrations, deposits and claims.
func (c *Client) Pause(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/v1/admin/pause", nil, nil)
}

// Unpause resumes the platform.
func (c *Client) Unpause(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/v1/admin/unpause", nil, nil)
}
