// Package client provides an HTTP client for the estate-bot chat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/property"
)

// Client is an HTTP client for the chat API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	UserID int64  `json:"user_id,omitempty"`
	Text   string `json:"text,omitempty"`
	Action string `json:"action,omitempty"`
}

// Chat sends one text turn. userID may be 0 when the key is scoped to a user.
func (c *Client) Chat(ctx context.Context, userID int64, text string) (*conversation.Reply, error) {
	var reply conversation.Reply
	if err := c.post(ctx, "/api/chat", chatRequest{UserID: userID, Text: text}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Action presses a button from an earlier reply.
func (c *Client) Action(ctx context.Context, userID int64, data string) (*conversation.Reply, error) {
	var reply conversation.Reply
	if err := c.post(ctx, "/api/chat", chatRequest{UserID: userID, Action: data}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Voice uploads a voice message.
func (c *Client) Voice(ctx context.Context, userID int64, filename string, audio io.Reader) (*conversation.Reply, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/voice"+userQuery(userID), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var reply conversation.Reply
	if err := c.do(req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListProperties returns the user's properties.
func (c *Client) ListProperties(ctx context.Context, userID int64) ([]*property.Property, error) {
	var props []*property.Property
	if err := c.get(ctx, "/api/properties"+userQuery(userID), &props); err != nil {
		return nil, err
	}
	return props, nil
}

// Stats summarizes the user's properties.
func (c *Client) Stats(ctx context.Context, userID int64) (*property.Stats, error) {
	var stats property.Stats
	if err := c.get(ctx, "/api/properties/stats"+userQuery(userID), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetProperty returns one of the user's properties.
func (c *Client) GetProperty(ctx context.Context, userID, id int64) (*property.Property, error) {
	var p property.Property
	if err := c.get(ctx, fmt.Sprintf("/api/properties/%d", id)+userQuery(userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProperty removes one of the user's properties.
func (c *Client) DeleteProperty(ctx context.Context, userID, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+fmt.Sprintf("/api/properties/%d", id)+userQuery(userID), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

func userQuery(userID int64) string {
	if userID == 0 {
		return ""
	}
	return "?" + url.Values{"user_id": {strconv.FormatInt(userID, 10)}}.Encode()
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
