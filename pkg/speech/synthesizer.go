package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SynthesizerConfig holds the text-to-speech service settings.
type SynthesizerConfig struct {
	// Target is the synthesis endpoint URL.
	Target string

	// Token is the service access token, sent as a form field.
	Token string

	// DeviceID identifies this client to the service.
	DeviceID string
}

// HTTPSynthesizer calls a cloud text-to-speech endpoint. The service answers
// with raw audio bytes on success and a JSON error document on failure,
// discriminated by Content-Type.
type HTTPSynthesizer struct {
	config     SynthesizerConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPSynthesizer creates a synthesizer against the configured endpoint.
func NewHTTPSynthesizer(config SynthesizerConfig, logger *zap.Logger) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type synthesizeError struct {
	ErrNo  int    `json:"err_no"`
	ErrMsg string `json:"err_msg"`
}

// Synthesize returns encoded audio for the given text.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty synthesis text")
	}

	form := url.Values{}
	form.Set("tex", text)
	form.Set("tok", s.config.Token)
	form.Set("cuid", s.config.DeviceID)
	form.Set("ctp", "1")
	form.Set("lan", "zh")
	form.Set("per", strconv.Itoa(opts.Voice))
	form.Set("spd", strconv.Itoa(opts.Speed))
	form.Set("vol", strconv.Itoa(opts.Volume))
	form.Set("pit", strconv.Itoa(opts.Pitch))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, fmt.Errorf("synthesis service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	// A JSON body means the service rejected the request.
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var synthErr synthesizeError
		if err := json.NewDecoder(resp.Body).Decode(&synthErr); err != nil {
			return nil, fmt.Errorf("decoding synthesis error: %w", err)
		}
		return nil, fmt.Errorf("synthesis failed (%d): %s", synthErr.ErrNo, synthErr.ErrMsg)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading synthesis audio: %w", err)
	}

	s.logger.Debug("speech synthesized",
		zap.Int("text_runes", len([]rune(text))),
		zap.Int("audio_bytes", len(audio)),
	)

	return audio, nil
}
