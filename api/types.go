package api

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/ledger"
	"github.com/bitfsorg/revledger-go/revshare"
)

// Amounts travel as base-10 strings; addresses as 0x-prefixed hex.

// Request models
type RegisterRequest struct {
	Operator      revshare.Address `json:"operator"`
	Name          string           `json:"name" binding:"required"`
	MetadataRef   string           `json:"metadataRef"`
	InitialShares string           `json:"initialShares" binding:"required"`
}

type MetadataRequest struct {
	MetadataRef string `json:"metadataRef"`
}

type StatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type OperatorRequest struct {
	Operator revshare.Address `json:"operator"`
}

type DepositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type ClaimRequest struct {
	SnapshotID uint64 `json:"snapshotId" binding:"required"`
}

type BatchClaimRequest struct {
	SnapshotIDs []uint64 `json:"snapshotIds" binding:"required,min=1"`
}

type TransferRequest struct {
	To     revshare.Address `json:"to"`
	Amount string           `json:"amount" binding:"required"`
}

type FeeRequest struct {
	FeeBps *uint16 `json:"feeBps" binding:"required"`
}

type ThresholdRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type OwnerRequest struct {
	Owner revshare.Address `json:"owner"`
}

// Response models
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type RegisterResponse struct {
	Status  string `json:"status"`
	AssetID uint64 `json:"assetId"`
}

type DepositResponse struct {
	Status     string `json:"status"`
	SnapshotID uint64 `json:"snapshotId"`
}

type ClaimResponse struct {
	Status string `json:"status"`
	Amount string `json:"amount"`
}

type SnapshotPayout struct {
	SnapshotID uint64 `json:"snapshotId"`
	Amount     string `json:"amount"`
}

type BatchClaimResponse struct {
	Status  string           `json:"status"`
	Total   string           `json:"total"`
	Claimed []SnapshotPayout `json:"claimed"`
	Skipped []uint64         `json:"skipped"`
}

type SummaryResponse struct {
	Total     string           `json:"total"`
	Snapshots []SnapshotPayout `json:"snapshots"`
}

type Asset struct {
	ID             uint64           `json:"id"`
	Operator       revshare.Address `json:"operator"`
	Name           string           `json:"name"`
	MetadataRef    string           `json:"metadataRef"`
	Token          revshare.Address `json:"token"`
	TotalShares    string           `json:"totalShares"`
	TotalRevenue   string           `json:"totalRevenue"`
	LastRevenueAt  *time.Time       `json:"lastRevenueAt,omitempty"`
	LastSnapshotID uint64           `json:"lastSnapshotId"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type Snapshot struct {
	AssetID       uint64           `json:"assetId"`
	ID            uint64           `json:"id"`
	TotalShares   string           `json:"totalShares"`
	Gross         string           `json:"gross"`
	Fee           string           `json:"fee"`
	Distributable string           `json:"distributable"`
	PaidOut       string           `json:"paidOut"`
	Completed     bool             `json:"completed"`
	Depositor     revshare.Address `json:"depositor"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type Holding struct {
	Holder  revshare.Address `json:"holder"`
	Balance string           `json:"balance"`
}

type BalanceResponse struct {
	AssetID uint64           `json:"assetId"`
	Holder  revshare.Address `json:"holder"`
	Balance string           `json:"balance"`
}

type HoldersResponse struct {
	AssetID     uint64    `json:"assetId"`
	TotalSupply string    `json:"totalSupply"`
	Holders     []Holding `json:"holders"`
}

type Event struct {
	Seq          uint64             `json:"seq"`
	Kind         revshare.EventKind `json:"kind"`
	AssetID      uint64             `json:"assetId,omitempty"`
	SnapshotID   uint64             `json:"snapshotId,omitempty"`
	Actor        revshare.Address   `json:"actor"`
	Counterparty revshare.Address   `json:"counterparty"`
	Amount       string             `json:"amount"`
	Name         string             `json:"name,omitempty"`
	MetadataRef  string             `json:"metadataRef,omitempty"`
	Active       bool               `json:"active"`
	FeeBps       uint16             `json:"feeBps,omitempty"`
	Time         time.Time          `json:"time"`
}

type EventsResponse struct {
	Events []Event `json:"events"`
	Next   uint64  `json:"next"`
}

type Settings struct {
	Owner               revshare.Address `json:"owner"`
	FeeBps              uint16           `json:"feeBps"`
	MaxFeeBps           uint16           `json:"maxFeeBps"`
	MinRevenueThreshold string           `json:"minRevenueThreshold"`
	Paused              bool             `json:"paused"`
	BalanceMode         string           `json:"balanceMode"`
}

type Projection struct {
	AssetID       uint64    `json:"assetId"`
	Gross         string    `json:"gross"`
	Fee           string    `json:"fee"`
	Distributable string    `json:"distributable"`
	TotalShares   string    `json:"totalShares"`
	Distributions []Holding `json:"distributions"`
	Dust          string    `json:"dust"`
}

// ParseAmount decodes a base-10 amount.
func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %w", ErrBadRequest, s, err)
	}
	return v, nil
}

func assetResponse(a *revshare.Asset) Asset {
	out := Asset{
		ID:             a.ID,
		Operator:       a.Operator,
		Name:           a.Name,
		MetadataRef:    a.MetadataRef,
		Token:          a.Token,
		TotalShares:    a.TotalShares.Dec(),
		TotalRevenue:   a.TotalRevenue.Dec(),
		LastSnapshotID: a.LastSnapshotID,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
	}
	if !a.LastRevenueAt.IsZero() {
		t := a.LastRevenueAt
		out.LastRevenueAt = &t
	}
	return out
}

func snapshotResponse(s *revshare.Snapshot) Snapshot {
	return Snapshot{
		AssetID:       s.AssetID,
		ID:            s.ID,
		TotalShares:   s.TotalShares.Dec(),
		Gross:         s.Gross.Dec(),
		Fee:           s.Fee.Dec(),
		Distributable: s.Distributable.Dec(),
		PaidOut:       s.PaidOut.Dec(),
		Completed:     s.Completed,
		Depositor:     s.Depositor,
		CreatedAt:     s.CreatedAt,
	}
}

func eventResponse(e *revshare.Event) Event {
	return Event{
		Seq:          e.Seq,
		Kind:         e.Kind,
		AssetID:      e.AssetID,
		SnapshotID:   e.SnapshotID,
		Actor:        e.Actor,
		Counterparty: e.Counterparty,
		Amount:       e.Amount.Dec(),
		Name:         e.Name,
		MetadataRef:  e.MetadataRef,
		Active:       e.Active,
		FeeBps:       e.FeeBps,
		Time:         e.Time,
	}
}

func payouts(ps []ledger.SnapshotPayout) []SnapshotPayout {
	out := make([]SnapshotPayout, len(ps))
	for i, p := range ps {
		out[i] = SnapshotPayout{SnapshotID: p.SnapshotID, Amount: p.Amount.Dec()}
	}
	return out
}

func holdings(hs []revshare.Holding) []Holding {
	out := make([]Holding, len(hs))
	for i, h := range hs {
		out[i] = Holding{Holder: h.Holder, Balance: h.Balance.Dec()}
	}
	return out
}
