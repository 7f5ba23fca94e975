package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MattHedgcorth/net-shepherd/internal/inventory"
)

// handleSSE streams status updates via Server-Sent Events.
//
// A new client first receives the current status of every website, then
// one event per status write. Writes carry a deadline so a stalled client
// cannot pin the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the snapshot so no write falls between the two
	ch := s.inv.Subscribe()
	defer s.inv.Unsubscribe(ch)

	for _, srv := range s.inv.Servers() {
		for _, site := range srv.Websites {
			data, err := json.Marshal(inventory.StatusUpdate{
				ServerID:  srv.ID,
				WebsiteID: site.ID,
				Status:    site.Status,
			})
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}
		}
	}

	for {
		select {
		case update, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}
