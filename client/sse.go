package client

import (
	"bufio"
	"io"
	"strings"
)

const maxFrameBytes = 1 << 20

// SSEEvent is one dispatched server-sent event.
type SSEEvent struct {
	ID   string
	Data string
}

// SSEReader parses a text/event-stream body. Comment lines, heartbeats included, are skipped.
type SSEReader struct {
	scanner *bufio.Scanner
}

func NewSSEReader(r io.Reader) *SSEReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxFrameBytes)
	return &SSEReader{scanner: scanner}
}

// Next returns the next event with data, or io.EOF when the stream ends.
func (r *SSEReader) Next() (SSEEvent, error) {
	var (
		evt  SSEEvent
		data []string
	)
	for r.scanner.Scan() {
		line := r.scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				evt.Data = strings.Join(data, "\n")
				return evt, nil
			}
		case strings.HasPrefix(line, ":"):
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "data":
				data = append(data, value)
			case "id":
				evt.ID = value
			}
		}
	}
	if err := r.scanner.Err(); err != nil {
		return SSEEvent{}, err
	}
	return SSEEvent{}, io.EOF
}
