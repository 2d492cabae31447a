// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// reader for consuming the conversational-agent event stream. It parses
// "event:" and "data:" lines into discrete events for the bot decoder; it
// intentionally does NOT provide SSE writer or server capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// doneSentinel is the literal data value the upstream uses to mark the end
// of meaningful data for a block. Lines carrying it are silently dropped.
const doneSentinel = "[DONE]"

// Event is a single parsed SSE event: one "data:" line combined with the
// most recent preceding "event:" name.
type Event struct {
	// Type is the SSE event type from the "event:" field, as of the last
	// "event:" line since the previous blank line. An empty string means the
	// default "message" type per the SSE spec.
	Type string

	// Data is the trimmed contents of the "data:" line that produced this
	// event.
	Data string
}
