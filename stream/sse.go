package stream

import (
	"civic-stream/domain/event"
	"civic-stream/errors"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// FrameWriter is the socket side of a session.
type FrameWriter interface {
	WriteFrame(f event.Frame) error
	WriteComment(text string) error
}

// SSEWriter writes Server-Sent Events: one JSON frame per data line, heartbeats as comments.
type SSEWriter struct {
	mu           sync.Mutex
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
}

// NewSSEWriter prepares the response headers without writing anything yet,
// so the caller can still reject the request with a plain error status.
func NewSSEWriter(w http.ResponseWriter, writeTimeout time.Duration) (*SSEWriter, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, errors.ErrStreamUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &SSEWriter{w: w, rc: http.NewResponseController(w), writeTimeout: writeTimeout}, nil
}

func (s *SSEWriter) WriteFrame(f event.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame %s: %w", f.EventID, err)
	}
	return s.write(fmt.Sprintf("id: %s\ndata: %s\n\n", f.EventID, data))
}

func (s *SSEWriter) WriteComment(text string) error {
	return s.write(fmt.Sprintf(": %s\n\n", text))
}

func (s *SSEWriter) write(chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeTimeout > 0 {
		err := s.rc.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err != nil && !stdErrors.Is(err, http.ErrNotSupported) {
			return err
		}
	}
	if _, err := s.w.Write([]byte(chunk)); err != nil {
		return err
	}
	return s.rc.Flush()
}
