package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/revledger-go/auth"
	"github.com/bitfsorg/revledger-go/revshare"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

const (
	ctxRequestID = "requestId"
	ctxCaller    = "caller"
)

// maxSignedBody bounds the body read for signature verification.
const maxSignedBody = 1 << 20

// RequestID reuses the client's X-Request-Id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// AccessLog logs one line per request.
func AccessLog(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    time.Since(start),
			"request_id": c.GetString(ctxRequestID),
		})
		if caller, ok := c.Get(ctxCaller); ok {
			entry = entry.WithField("caller", caller.(revshare.Address).String())
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// Instrument records request counters and latency.
func Instrument(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Authenticate verifies the request signature and stores the caller's
// address in the context. The body is restored for the handler.
func Authenticate(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSignedBody))
		if err != nil {
			abort(c, fmt.Errorf("%w: read body: %w", ErrBadRequest, err))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		h, err := auth.ParseHeaders(c.Request.Header)
		if err != nil {
			abort(c, fmt.Errorf("%w: %w", ErrUnauthenticated, err))
			return
		}
		caller, err := v.Verify(h, c.Request.Method, c.Request.URL.RequestURI(), body)
		if err != nil {
			abort(c, fmt.Errorf("%w: %w", ErrUnauthenticated, err))
			return
		}
		c.Set(ctxCaller, caller)
		c.Next()
	}
}

func callerOf(c *gin.Context) revshare.Address {
	return c.MustGet(ctxCaller).(revshare.Address)
}

// abort writes the error response for err and stops the handler chain.
func abort(c *gin.Context, err error) {
	status, code := StatusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: err.Error(),
	})
}
