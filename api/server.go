// Package api exposes the revenue ledger over HTTP. Reads are public;
// every mutation is signed by the caller's secp256k1 key and attributed to
// the Address derived from it.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/revledger-go/auth"
	"github.com/bitfsorg/revledger-go/ledger"
)

const shutdownTimeout = 5 * time.Second

// Custodian receives the value that accompanies a deposit. Credit runs
// before the deposit is recorded; Debit reverses it when recording fails.
type Custodian interface {
	Credit(amount *uint256.Int) error
	Debit(amount *uint256.Int) error
}

// Server is the HTTP surface of a Ledger.
type Server struct {
	ledger   *ledger.Ledger
	custody  Custodian
	verifier *auth.Verifier
	log      logrus.FieldLogger
	metrics  *Metrics
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithCustody sets the custodian credited on deposit. Without one, deposit
// value is assumed to reach custody out of band.
func WithCustody(c Custodian) Option {
	return func(s *Server) { s.custody = c }
}

// WithVerifier sets the request signature verifier.
func WithVerifier(v *auth.Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

// WithLogger sets the access logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds the server and its routes.
func New(l *ledger.Ledger, opts ...Option) *Server {
	s := &Server{ledger: l, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	if s.verifier == nil {
		s.verifier = auth.NewVerifier(nil, 0)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), RequestID(), Instrument(s.metrics), AccessLog(s.log))
	s.engine.NoRoute(func(c *gin.Context) {
		abort(c, fmt.Errorf("%w: no route %s %s", ledger.ErrNotFound, c.Request.Method, c.Request.URL.Path))
	})
	s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, StatusResponse{Status: "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.GET("/settings", s.getSettings)
	v1.GET("/assets", s.listAssets)
	v1.GET("/assets/:id", s.getAsset)
	v1.GET("/assets/:id/snapshots", s.listSnapshots)
	v1.GET("/assets/:id/snapshots/:sid", s.getSnapshot)
	v1.GET("/assets/:id/holders", s.listHolders)
	v1.GET("/assets/:id/balances/:holder", s.getBalance)
	v1.GET("/assets/:id/claimable/:holder", s.getClaimable)
	v1.GET("/assets/:id/projection", s.getProjection)
	v1.GET("/assets/:id/audit", s.getAudit)
	v1.GET("/operators/:operator/assets", s.listOperatorAssets)
	v1.GET("/events", s.listEvents)
	v1.GET("/events/stream", s.streamEvents)

	signed := v1.Group("", Authenticate(s.verifier))
	signed.POST("/assets", s.register)
	signed.PUT("/assets/:id/metadata", s.updateMetadata)
	signed.PUT("/assets/:id/status", s.setStatus)
	signed.PUT("/assets/:id/operator", s.transferOperator)
	signed.POST("/assets/:id/deposits", s.deposit)
	signed.POST("/assets/:id/claims", s.claim)
	signed.POST("/assets/:id/batch-claims", s.batchClaim)
	signed.POST("/assets/:id/transfers", s.transferShares)
	signed.PUT("/admin/fee", s.setFee)
	signed.PUT("/admin/threshold", s.setThreshold)
	signed.PUT("/admin/owner", s.transferOwnership)
	signed.POST("/admin/pause", s.pause)
	signed.POST("/admin/unpause", s.unpause)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}
