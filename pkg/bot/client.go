package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Config holds the connection settings for the agent platform.
type Config struct {
	// BaseURL is the platform endpoint, e.g. "https://api.coze.cn".
	BaseURL string

	// Token is the bearer token for the platform API.
	Token string

	// BotID identifies the agent to converse with.
	BotID string

	// UserID identifies the end user on turn requests.
	UserID string
}

// Client opens streaming chat turns against the agent platform.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new chat client.
func NewClient(config Config, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			// Agent replies can be slow, especially across tool round-trips
			Timeout: 5 * time.Minute,
		},
	}
}

// StreamChat opens a new conversation turn carrying the prior history plus
// the new user message, and returns the live event stream for it.
// conversationID may be empty for the first turn; the platform assigns one
// and reports it on the conversation.chat.created event.
//
// Cancelling ctx closes the underlying connection and abandons any
// undelivered events.
func (c *Client) StreamChat(ctx context.Context, conversationID string, history []Message) (*Stream, error) {
	reqBody := ChatRequest{
		BotID:              c.config.BotID,
		UserID:             c.config.UserID,
		Stream:             true,
		AutoSaveHistory:    true,
		AdditionalMessages: history,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	endpoint := c.config.BaseURL + "/v3/chat"
	if conversationID != "" {
		endpoint += "?conversation_id=" + url.QueryEscape(conversationID)
	}

	c.logger.Debug("opening chat stream",
		zap.String("endpoint", endpoint),
		zap.String("bot_id", c.config.BotID),
		zap.Int("history_len", len(history)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		resp.Body.Close()
		return nil, fmt.Errorf("agent platform returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return newStream(resp.Body, c.logger), nil
}
