package bot

import (
	"io"

	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/sse"
)

// Stream is a lazy, finite sequence of decoded chat events over one live
// connection. Events arrive strictly in transmission order; the stream is
// consumed once and cannot be restarted.
type Stream struct {
	body   io.ReadCloser
	reader *sse.Reader
	logger *zap.Logger
}

func newStream(body io.ReadCloser, logger *zap.Logger) *Stream {
	return &Stream{
		body:   body,
		reader: sse.NewReader(body),
		logger: logger,
	}
}

// Next returns the next decoded event. Malformed frames are skipped with a
// debug log rather than terminating the stream. Next returns nil, nil when
// the connection is exhausted, and an error on transport failure.
func (s *Stream) Next() (*ChatEvent, error) {
	for {
		raw, err := s.reader.Next()
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}

		ev, ok := DecodeEvent(raw)
		if !ok {
			s.logger.Debug("skipping undecodable stream frame",
				zap.String("event", raw.Type),
				zap.String("data", raw.Data),
			)
			continue
		}

		return ev, nil
	}
}

// Close releases the underlying connection. Safe to call while a Next is
// blocked; the pending read fails and the stream terminates.
func (s *Stream) Close() error {
	return s.body.Close()
}
