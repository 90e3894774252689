package main

import (
	"net/http"
	"strings"
	"time"
)

const sseKeepAlive = 15 * time.Second

// sseStream writes text/event-stream frames and flushes after each one.
type sseStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// openStream sends the stream headers. The server write deadline is cleared so the
// connection can outlive WriteTimeout.
func openStream(w http.ResponseWriter) (*sseStream, error) {
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil, err
	}
	return &sseStream{w: w, rc: rc}, nil
}

// send writes one named event. Multi-line payloads become repeated data lines.
func (s *sseStream) send(event, data string) error {
	var b strings.Builder
	if event != "" {
		b.WriteString("event: ")
		b.WriteString(event)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if _, err := s.w.Write([]byte(b.String())); err != nil {
		return err
	}
	return s.rc.Flush()
}

// ping keeps idle proxies from closing the connection.
func (s *sseStream) ping() error {
	if _, err := s.w.Write([]byte(": ping\n\n")); err != nil {
		return err
	}
	return s.rc.Flush()
}
