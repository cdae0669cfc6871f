// Package telegram publishes digests to a Telegram chat or channel.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/retry"
)

const DefaultBaseURL = "https://api.telegram.org"

// MaxMessageLength is Telegram's limit for a text message.
const MaxMessageLength = 4096

type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	retry   retry.Policy
}

func NewClient(token, chatID string, policy retry.Policy) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   policy,
	}
}

// WithBaseURL points the client at another Bot API host.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// SendMessage sends an HTML message with link previews disabled.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if r := []rune(text); len(r) > MaxMessageLength {
		text = string(r[:MaxMessageLength])
	}
	err := retry.Do(ctx, c.retry, "telegram send", func(ctx context.Context) error {
		return c.sendOnce(ctx, text)
	})
	if err != nil {
		return err
	}
	logger.Info("message sent to Telegram", "chat", c.chatID)
	return nil
}

func (c *Client) sendOnce(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("encode payload: %w", err))
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	default:
		return retry.Permanent(fmt.Errorf("telegram API error: status %d", resp.StatusCode))
	}
}
