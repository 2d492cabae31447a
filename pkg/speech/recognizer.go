package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RecognizerConfig holds the speech-recognition service settings.
type RecognizerConfig struct {
	// Target is the recognition endpoint URL.
	Target string

	// Token is the service access token, sent in the request body.
	Token string

	// DeviceID identifies this client to the service.
	DeviceID string

	// SampleRate of submitted audio in Hz. Defaults to 16000.
	SampleRate int
}

// HTTPRecognizer calls a cloud speech-recognition endpoint that accepts
// base64-encoded audio in a JSON body and answers with candidate
// transcriptions.
type HTTPRecognizer struct {
	config     RecognizerConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPRecognizer creates a recognizer against the configured endpoint.
func NewHTTPRecognizer(config RecognizerConfig, logger *zap.Logger) *HTTPRecognizer {
	if config.SampleRate == 0 {
		config.SampleRate = 16000
	}

	return &HTTPRecognizer{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type recognizeRequest struct {
	Format   string `json:"format"`
	Rate     int    `json:"rate"`
	Channel  int    `json:"channel"`
	Token    string `json:"token"`
	CUID     string `json:"cuid"`
	Len      int    `json:"len"`
	Speech   string `json:"speech"`
	DevPID   int    `json:"dev_pid,omitempty"`
	Language string `json:"lan,omitempty"`
}

type recognizeResponse struct {
	ErrNo  int      `json:"err_no"`
	ErrMsg string   `json:"err_msg"`
	Result []string `json:"result"`
}

// Recognize submits the audio and returns the best transcription. An empty
// result with no error means the service heard nothing intelligible.
func (r *HTTPRecognizer) Recognize(ctx context.Context, audio []byte, format string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	body, err := json.Marshal(recognizeRequest{
		Format:  format,
		Rate:    r.config.SampleRate,
		Channel: 1,
		Token:   r.config.Token,
		CUID:    r.config.DeviceID,
		Len:     len(audio),
		Speech:  base64.StdEncoding.EncodeToString(audio),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling recognition request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Target, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating recognition request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending recognition request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("recognition service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var recognized recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&recognized); err != nil {
		return "", fmt.Errorf("decoding recognition response: %w", err)
	}

	if recognized.ErrNo != 0 {
		return "", fmt.Errorf("recognition failed (%d): %s", recognized.ErrNo, recognized.ErrMsg)
	}

	if len(recognized.Result) == 0 {
		return "", nil
	}

	r.logger.Debug("speech recognized",
		zap.Int("audio_bytes", len(audio)),
		zap.String("text", recognized.Result[0]),
	)

	return recognized.Result[0], nil
}
