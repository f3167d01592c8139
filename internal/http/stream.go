package http

import (
	"fmt"
	"net/http"
	"time"
)

const streamKeepAlive = 25 * time.Second

// handleUnreadStream pushes the unread notification count as server-sent
// events. The stream ends when the client goes away or the session is
// closed.
func (s *Server) handleUnreadStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}
	_, sess := sessionFromContext(r.Context())
	updates, cancel := sess.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case count, ok := <-updates:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: unread\ndata: {\"unread_count\":%d}\n\n", count); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
