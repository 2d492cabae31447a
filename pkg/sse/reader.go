package sse

import (
	"bufio"
	"io"
	"strings"
)

// Reader reads SSE events from a source io.Reader one "data:" line at a
// time. The upstream bot API emits exactly one JSON envelope per data line,
// so each data line becomes one Event, stamped with the event name that was
// current when the line arrived.
//
// A Reader is tied to one underlying connection and is not restartable.
type Reader struct {
	scanner *bufio.Scanner

	// eventName is the value of the last "event:" line since the previous
	// blank line. Blank lines reset it per SSE framing.
	eventName string
}

// NewReader returns a Reader that parses SSE events from the src io.Reader.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{scanner: scanner}
}

// Next returns the next parsed SSE event. It blocks until a "data:" line is
// available. Next returns nil, nil when the source is exhausted.
//
// Data lines carrying the [DONE] sentinel are dropped without producing an
// event. A read failure terminates the sequence; retrying is a
// connection-level concern above this layer.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		raw := r.scanner.Text()

		// A blank line ends the current event block and resets the event name.
		if strings.TrimSpace(raw) == "" {
			r.eventName = ""
			continue
		}

		// Lines starting with ':' are comments. Skip them.
		if strings.HasPrefix(raw, ":") {
			continue
		}

		field, value, ok := strings.Cut(raw, ":")
		if !ok {
			// Line with no colon: the entire line is a field name with an
			// empty value. Nothing to emit.
			continue
		}

		// Strip a single leading space after the colon, per spec.
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			r.eventName = strings.TrimSpace(value)
		case "data":
			data := strings.TrimSpace(value)
			if data == doneSentinel {
				continue
			}
			return &Event{Type: r.eventName, Data: data}, nil
		default:
			// "id", "retry" and unknown fields are not relevant for the bot
			// stream and are ignored per the SSE spec.
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, nil
}
