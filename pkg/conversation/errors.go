package conversation

import (
	"errors"
	"fmt"
)

// ErrReplyFailed is the generic user-visible failure for a turn. It covers
// transport drops, unexpected stream endings, and recovered panics; the
// caller may retry by submitting a new turn.
var ErrReplyFailed = errors.New("assistant reply failed")

// ErrEmptyInput indicates a turn was submitted with no user text.
var ErrEmptyInput = errors.New("empty user input")

// UpstreamError is a failure reported by the agent platform itself, either
// as a chat.failed event or as an error field on a decoded payload.
type UpstreamError struct {
	Code int
	Msg  string
}

func (e UpstreamError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("upstream chat failed (code %d)", e.Code)
	}
	return fmt.Sprintf("upstream chat failed (code %d): %s", e.Code, e.Msg)
}
