package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/services/auth"
)

// Client speaks the gateway's command API: every call is a POST of a
// JSON field map to /api/<command>, and every response is a field map
// whose "error" field reads "Success" when the command succeeded.
//
// The challenge handshake runs client-side. The plaintext password is
// hashed with the account's salt, each call answers the server's
// pending challenge, and each response carries the next challenge to
// answer.
type Client struct {
	baseURL    string
	httpClient *http.Client

	username     string
	password     string
	passwordHash string
	answer       string
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetCredentials primes the client for authenticated calls. Either a
// plaintext password or an already-salted hash works; the hash wins
// when both are set.
func (c *Client) SetCredentials(username, password, passwordHash string) {
	c.username = username
	c.password = password
	c.passwordHash = passwordHash
	c.answer = ""
}

// Username returns the configured account name.
func (c *Client) Username() string {
	return c.username
}

// PasswordHash returns the salted hash, available after a handshake.
func (c *Client) PasswordHash() string {
	return c.passwordHash
}

// Call performs an unauthenticated command.
func (c *Client) Call(name string, fields map[string]any) (map[string]any, error) {
	if fields == nil {
		fields = map[string]any{}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/"+name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if status, _ := result["error"].(string); status != command.Success {
		return result, fmt.Errorf("%s", status)
	}
	return result, nil
}

// Authed performs a command that requires a verified challenge answer.
// The first call runs the handshake; subsequent calls answer the
// challenge rotated into the previous response.
func (c *Client) Authed(name string, fields map[string]any) (map[string]any, error) {
	if c.answer == "" {
		if err := c.Handshake(); err != nil {
			return nil, err
		}
	}

	if fields == nil {
		fields = map[string]any{}
	}
	fields["username"] = c.username
	fields["challenge"] = c.answer

	result, err := c.Call(name, fields)
	if err != nil {
		// The server resets the handshake on a failed answer.
		c.answer = ""
		return result, err
	}

	if next, ok := result["challenge"].(string); ok && next != "" {
		c.answer = auth.Answer(c.passwordHash, next)
	} else {
		c.answer = ""
	}
	return result, nil
}

// Handshake requests a fresh challenge and computes its answer. The
// salt in the reply lets a password-only client derive the hash.
func (c *Client) Handshake() error {
	if c.username == "" {
		return fmt.Errorf("no account configured: use --user or run 'lobbyctl auth login'")
	}

	result, err := c.Call("auth/get_challenge", map[string]any{"username": c.username})
	if err != nil {
		return err
	}

	challenge, _ := result["challenge"].(string)
	salt, _ := result["salt"].(string)
	if challenge == "" || salt == "" {
		return fmt.Errorf("malformed challenge response")
	}

	if c.passwordHash == "" {
		if c.password == "" {
			return fmt.Errorf("no credentials: use --pass or run 'lobbyctl auth login'")
		}
		c.passwordHash = auth.HashPassword(c.password, salt)
	}

	c.answer = auth.Answer(c.passwordHash, challenge)
	return nil
}
