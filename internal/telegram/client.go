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
)

// Update represents a Telegram update
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message represents a Telegram message
type Message struct {
	MessageID int    `json:"message_id"`
	From      User   `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User represents a Telegram user
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat represents a Telegram chat
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Client is a wrapper for the Telegram Bot API
type Client struct {
	Token      string
	APIBase    string
	HTTPClient *http.Client
}

// NewClient creates a new Telegram client
func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		APIBase:    "https://api.telegram.org",
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a failed Bot API call, either a non 200 status or ok=false.
type APIError struct {
	Method      string
	Status      string
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	switch {
	case e.Description != "":
		return fmt.Sprintf("telegram: %s: %s", e.Method, e.Description)
	case e.Status != "":
		return fmt.Sprintf("telegram: %s: status %s", e.Method, e.Status)
	}
	return fmt.Sprintf("telegram: %s reported error in response", e.Method)
}

type envelope[T any] struct {
	OK     bool `json:"ok"`
	Result T    `json:"result"`
	APIError
}

// call invokes a Bot API method. A nil body is sent as GET with the query
// already in method.
func call[T any](ctx context.Context, c *Client, method string, body any) (T, error) {
	var zero T
	name, _, _ := strings.Cut(method, "?")
	u := fmt.Sprintf("%s/bot%s/%s", c.APIBase, c.Token, method)

	httpMethod, reader := http.MethodGet, io.Reader(nil)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, err
		}
		httpMethod, reader = http.MethodPost, bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, u, reader)
	if err != nil {
		return zero, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	var env envelope[T]
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	env.Method = name
	if resp.StatusCode != http.StatusOK {
		env.Status = resp.Status
		return zero, &env.APIError
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("telegram: %s: %w", name, decodeErr)
	}
	if !env.OK {
		return zero, &env.APIError
	}
	return env.Result, nil
}

// GetUpdates long polls for updates after offset. timeout is in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int, timeout int) ([]Update, error) {
	return call[[]Update](ctx, c, fmt.Sprintf("getUpdates?offset=%d&timeout=%d", offset, timeout), nil)
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage sends a plain text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := call[Message](ctx, c, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
	return err
}
