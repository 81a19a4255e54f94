package slack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"slack-confessions/internal/logger"
)

// ErrMessaging marks a failed Slack Web API call (transport failure or an
// API-level error on calls that must succeed, like chat.delete).
var ErrMessaging = errors.New("slack messaging failed")

// MessageHandle is the outcome of a chat.postMessage call. Slack returns
// HTTP 200 even for API-level failures, so callers must check OK
// explicitly; a handle with OK=false is a valid response, not an error.
type MessageHandle struct {
	OK    bool
	TS    string
	Error string
}

// Client talks to the Slack Web API with a bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Web API client. baseURL is normally
// https://slack.com/api; tests point it at a local server.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// apiResponse is the envelope common to all Web API methods.
type apiResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

func (c *Client) call(method string, payload interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s payload: %v", ErrMessaging, method, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building %s request: %v", ErrMessaging, method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMessaging, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrMessaging, method, resp.StatusCode, respBody)
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v", ErrMessaging, method, err)
	}
	return &result, nil
}

// PostMessage sends a message to a channel via chat.postMessage. A
// transport failure returns an error; an API-level failure returns a
// handle with OK=false.
func (c *Client) PostMessage(channel, text string, blocks []Block) (MessageHandle, error) {
	payload := map[string]interface{}{
		"channel": channel,
		"text":    text,
	}
	if len(blocks) > 0 {
		payload["blocks"] = blocks
	}

	result, err := c.call("chat.postMessage", payload)
	if err != nil {
		return MessageHandle{}, err
	}
	if !result.OK {
		logger.Warningf("chat.postMessage to %s failed: %s", channel, result.Error)
	}
	return MessageHandle{OK: result.OK, TS: result.TS, Error: result.Error}, nil
}

// DeleteMessage removes a previously posted message via chat.delete.
func (c *Client) DeleteMessage(channel, ts string) error {
	result, err := c.call("chat.delete", map[string]string{
		"channel": channel,
		"ts":      ts,
	})
	if err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("%w: chat.delete of %s in %s: %s", ErrMessaging, ts, channel, result.Error)
	}
	return nil
}

// SendEphemeral posts an ephemeral acknowledgment to a slash-command
// response_url. Fire-and-forget: the invoker has already received HTTP
// 200, so a failure here is only logged by the caller.
func (c *Client) SendEphemeral(responseURL, text string) error {
	body, err := json.Marshal(map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
	if err != nil {
		return fmt.Errorf("%w: encoding ephemeral response: %v", ErrMessaging, err)
	}

	resp, err := c.httpClient.Post(responseURL, "application/json; charset=utf-8", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: response_url post: %v", ErrMessaging, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: response_url returned status %d: %s", ErrMessaging, resp.StatusCode, respBody)
	}
	return nil
}
