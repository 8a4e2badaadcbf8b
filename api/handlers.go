package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitfsorg/revledger-go/revshare"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

func (s *Server) fail(c *gin.Context, op string, err error) {
	_, code := StatusFor(err)
	s.metrics.LedgerOpsTotal.WithLabelValues(op, code).Inc()
	abort(c, err)
}

func (s *Server) ok(op string) {
	s.metrics.LedgerOpsTotal.WithLabelValues(op, "OK").Inc()
}

func bind(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func uintParam(c *gin.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrBadRequest, name, c.Param(name))
	}
	return v, nil
}

func addressParam(c *gin.Context, name string) (revshare.Address, error) {
	a, err := revshare.ParseAddress(c.Param(name))
	if err != nil {
		return a, fmt.Errorf("%w: %s: %w", ErrBadRequest, name, err)
	}
	return a, nil
}

func uintQuery(c *gin.Context, name string, def uint64) (uint64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: query %s %q", ErrBadRequest, name, raw)
	}
	return v, nil
}

// --- Registry ---

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "register", err)
		return
	}
	shares, err := ParseAmount(req.InitialShares)
	if err != nil {
		s.fail(c, "register", err)
		return
	}
	id, err := s.ledger.Register(c.Request.Context(), callerOf(c), req.Operator, req.Name, req.MetadataRef, shares)
	if err != nil {
		s.fail(c, "register", err)
		return
	}
	s.ok("register")
	c.JSON(http.StatusCreated, RegisterResponse{Status: "ok", AssetID: id})
}

func (s *Server) updateMetadata(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		s.fail(c, "metadata", err)
		return
	}
	var req MetadataRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "metadata", err)
		return
	}
	if err := s.ledger.UpdateMetadata(c.Request.Context(), callerOf(c), id, req.MetadataRef); err != nil {
		s.fail(c, "metadata", err)
		return
	}
	s.ok("metadata")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) setStatus(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		s.fail(c, "status", err)
		return
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "status", err)
		return
	}
	if err := s.ledger.SetActive(c.Request.Context(), callerOf(c), id, *req.Active); err != nil {
		s.fail(c, "status", err)
		return
	}
	s.ok("status")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) transferOperator(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		s.fail(c, "operator", err)
		return
	}
	var req OperatorRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "operator", err)
		return
	}
	if err := s.ledger.TransferOperator(c.Request.Context(), callerOf(c), id, req.Operator); err != nil {
		s.fail(c, "operator", err)
		return
	}
	s.ok("operator")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// --- Revenue ---

func (s *Server) deposit(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		s.fail(c, "deposit", err)
		return
	}
	var req DepositRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "deposit", err)
		return
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		s.fail(c, "deposit", err)
		return
	}

	if s.custody != nil {
		if err := s.custody.Credit(amount); err != nil {
			s.fail(c, "deposit", fmt.Errorf("%w: credit custody: %w", ErrBadRequest, err))
			return
		}
	}
	snapID, err := s.ledger.DepositRevenue(c.Request.Context(), callerOf(c), id, amount)
	if err != nil {
		if s.custody != nil {
			if derr := s.custody.Debit(amount); derr != nil {
				s.log.WithError(derr).WithField("asset", id).Error("reverse custody credit")
			}
		}
		s.fail(c, "deposit", err)
		return
	}
	s.ok("deposit")
	s.metrics.DepositsTotal.Inc()
	c.JSON(http.StatusCreated, DepositResponse{Status: "ok", SnapshotID: snapID})
}

func (s *Server) claim(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		s.fail(c, "claim", err)
		return
	}
	var req ClaimRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "claim", err)
		return
	}
	amount, err := s.ledger.Claim(c.Request.Context(), callerOf(c), id, req.SnapshotID)
	if err != nil {
		s.fail(c, "claim", err)
		return
	}
	s.ok("claim")
	s.metrics.PayoutsTotal.Inc()
	c.JSON(http.StatusOK, ClaimResponse{Status: "ok", Amount: amount.Dec()})
}

func (s *Server) batchClaim(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		s.fail(c, "batch_claim", err)
		return
	}
	var req BatchClaimRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "batch_claim", err)
		return
	}
	res, err := s.ledger.BatchClaim(c.Request.Context(), callerOf(c), id, req.SnapshotIDs)
	if err != nil {
		s.fail(c, "batch_claim", err)
		return
	}
	s.ok("batch_claim")
	s.metrics.PayoutsTotal.Add(float64(len(res.Claimed)))
	skipped := res.Skipped
	if skipped == nil {
		skipped = []uint64{}
	}
	c.JSON(http.StatusOK, BatchClaimResponse{
		Status:  "ok",
		Total:   res.Total.Dec(),
		Claimed: payouts(res.Claimed),
		Skipped: skipped,
	})
}

func (s *Server) getClaimable(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	holder, err := addressParam(c, "holder")
	if err != nil {
		abort(c, err)
		return
	}
	sum, err := s.ledger.ClaimableSummary(c.Request.Context(), id, holder)
	if err != nil {
		abort(c, err)
		return
	}
	out := SummaryResponse{Total: sum.Total.Dec(), Snapshots: make([]SnapshotPayout, len(sum.SnapshotIDs))}
	for i, sid := range sum.SnapshotIDs {
		out.Snapshots[i] = SnapshotPayout{SnapshotID: sid, Amount: sum.Amounts[i].Dec()}
	}
	c.JSON(http.StatusOK, out)
}

// --- Shares ---

func (s *Server) transferShares(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		s.fail(c, "transfer", err)
		return
	}
	var req TransferRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "transfer", err)
		return
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		s.fail(c, "transfer", err)
		return
	}
	if err := s.ledger.TransferShares(c.Request.Context(), callerOf(c), id, req.To, amount); err != nil {
		s.fail(c, "transfer", err)
		return
	}
	s.ok("transfer")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) getBalance(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	holder, err := addressParam(c, "holder")
	if err != nil {
		abort(c, err)
		return
	}
	bal, err := s.ledger.BalanceOf(c.Request.Context(), id, holder)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{AssetID: id, Holder: holder, Balance: bal.Dec()})
}

func (s *Server) listHolders(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	supply, err := s.ledger.TotalSupply(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	hs, err := s.ledger.Holders(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, HoldersResponse{AssetID: id, TotalSupply: supply.Dec(), Holders: holdings(hs)})
}

// --- Reads ---

func (s *Server) getAsset(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	a, err := s.ledger.Asset(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, assetResponse(a))
}

func (s *Server) listAssets(c *gin.Context) {
	assets, err := s.ledger.Assets(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	s.writeAssets(c, assets)
}

func (s *Server) listOperatorAssets(c *gin.Context) {
	op, err := addressParam(c, "operator")
	if err != nil {
		abort(c, err)
		return
	}
	assets, err := s.ledger.AssetsByOperator(c.Request.Context(), op)
	if err != nil {
		abort(c, err)
		return
	}
	s.writeAssets(c, assets)
}

func (s *Server) writeAssets(c *gin.Context, assets []*revshare.Asset) {
	out := make([]Asset, len(assets))
	for i, a := range assets {
		out[i] = assetResponse(a)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSnapshot(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	sid, err := uintParam(c, "sid")
	if err != nil {
		abort(c, err)
		return
	}
	snap, err := s.ledger.Snapshot(c.Request.Context(), id, sid)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snap))
}

func (s *Server) listSnapshots(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	snaps, err := s.ledger.Snapshots(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	out := make([]Snapshot, len(snaps))
	for i, snap := range snaps {
		out[i] = snapshotResponse(snap)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProjection(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	amount, err := ParseAmount(c.Query("amount"))
	if err != nil {
		abort(c, err)
		return
	}
	p, err := s.ledger.ProjectDistribution(c.Request.Context(), id, amount)
	if err != nil {
		abort(c, err)
		return
	}
	dists := make([]Holding, len(p.Distributions))
	for i, d := range p.Distributions {
		dists[i] = Holding{Holder: d.Holder, Balance: d.Amount.Dec()}
	}
	c.JSON(http.StatusOK, Projection{
		AssetID:       p.AssetID,
		Gross:         p.Gross.Dec(),
		Fee:           p.Fee.Dec(),
		Distributable: p.Distributable.Dec(),
		TotalShares:   p.TotalShares.Dec(),
		Distributions: dists,
		Dust:          p.Dust.Dec(),
	})
}

func (s *Server) getAudit(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		abort(c, err)
		return
	}
	if err := s.ledger.Audit(c.Request.Context(), id); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) listEvents(c *gin.Context) {
	assetID, err := uintQuery(c, "asset", 0)
	if err != nil {
		abort(c, err)
		return
	}
	after, err := uintQuery(c, "after", 0)
	if err != nil {
		abort(c, err)
		return
	}
	limit, err := uintQuery(c, "limit", defaultEventLimit)
	if err != nil {
		abort(c, err)
		return
	}
	if limit == 0 || limit > maxEventLimit {
		limit = maxEventLimit
	}
	events, err := s.ledger.Events(c.Request.Context(), assetID, after, int(limit))
	if err != nil {
		abort(c, err)
		return
	}
	out := EventsResponse{Events: make([]Event, len(events)), Next: after}
	for i, e := range events {
		out.Events[i] = eventResponse(e)
		out.Next = e.Seq
	}
	c.JSON(http.StatusOK, out)
}

// --- Admin ---

func (s *Server) getSettings(c *gin.Context) {
	st, err := s.ledger.Settings(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, Settings{
		Owner:               st.Owner,
		FeeBps:              st.FeeBps,
		MaxFeeBps:           st.MaxFeeBps,
		MinRevenueThreshold: st.MinRevenueThreshold.Dec(),
		Paused:              st.Paused,
		BalanceMode:         string(s.ledger.Mode()),
	})
}

func (s *Server) setFee(c *gin.Context) {
	var req FeeRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "set_fee", err)
		return
	}
	if err := s.ledger.SetPlatformFee(c.Request.Context(), callerOf(c), *req.FeeBps); err != nil {
		s.fail(c, "set_fee", err)
		return
	}
	s.ok("set_fee")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) setThreshold(c *gin.Context) {
	var req ThresholdRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "set_threshold", err)
		return
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		s.fail(c, "set_threshold", err)
		return
	}
	if err := s.ledger.SetMinRevenueThreshold(c.Request.Context(), callerOf(c), amount); err != nil {
		s.fail(c, "set_threshold", err)
		return
	}
	s.ok("set_threshold")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) transferOwnership(c *gin.Context) {
	var req OwnerRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, "set_owner", err)
		return
	}
	if err := s.ledger.TransferPlatformOwnership(c.Request.Context(), callerOf(c), req.Owner); err != nil {
		s.fail(c, "set_owner", err)
		return
	}
	s.ok("set_owner")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) pause(c *gin.Context) {
	if err := s.ledger.Pause(c.Request.Context(), callerOf(c)); err != nil {
		s.fail(c, "pause", err)
		return
	}
	s.ok("pause")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) unpause(c *gin.Context) {
	if err := s.ledger.Unpause(c.Request.Context(), callerOf(c)); err != nil {
		s.fail(c, "unpause", err)
		return
	}
	s.ok("unpause")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}
