package api

import (
	"io"

	"github.com/gin-gonic/gin"
)

const streamBuffer = 64

// streamEvents relays committed ledger events as server-sent events. An
// optional ?asset= filter restricts the feed to one asset. A "ready" event
// is sent once the subscription is live.
func (s *Server) streamEvents(c *gin.Context) {
	assetID, err := uintQuery(c, "asset", 0)
	if err != nil {
		abort(c, err)
		return
	}

	events, cancel := s.ledger.Subscribe(streamBuffer)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("ready", StatusResponse{Status: "ok"})
	c.Writer.Flush()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case e, ok := <-events:
			if !ok {
				return false
			}
			if assetID != 0 && e.AssetID != assetID {
				return true
			}
			c.SSEvent(string(e.Kind), eventResponse(&e))
			return true
		}
	})
}
