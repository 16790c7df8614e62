// Package wifi talks to the on-site Wi-Fi pairing service. An admin opens a
// session from the office network and employees are checked against the
// address that opened it.
package wifi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoSession is returned when no pairing session is open for the host.
var ErrNoSession = errors.New("wifi: no session found")

// Result is the pairing service verdict.
type Result struct {
	OK     bool   `json:"ok"`
	IP     string `json:"ip,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Client calls the pairing service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	now     func() time.Time
}

// New creates a client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// StartSession opens a pairing session for hostID from the caller's network.
func (c *Client) StartSession(ctx context.Context, hostID string) (Result, error) {
	if hostID == "" {
		return Result{}, fmt.Errorf("wifi: host id required")
	}
	return c.get(ctx, "/teacher/"+url.PathEscape(hostID))
}

// Check reports whether memberID is on the same network as hostID's session.
func (c *Client) Check(ctx context.Context, memberID, hostID string) (Result, error) {
	if memberID == "" || hostID == "" {
		return Result{}, fmt.Errorf("wifi: member and host id required")
	}
	return c.get(ctx, "/student/"+url.PathEscape(memberID)+"/"+url.PathEscape(hostID))
}

func (c *Client) get(ctx context.Context, path string) (Result, error) {
	// cache buster plus the header tunnels need to skip their interstitial page
	u := c.BaseURL + path + "?ngrok-skip-browser-warning=1&t=" + strconv.FormatInt(c.now().UnixMilli(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ngrok-skip-browser-warning", "1")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("wifi service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return Result{}, ErrNoSession
	}
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("wifi service error %s: %s", resp.Status, truncate(string(body), 120))
	}

	// content type is unreliable behind tunnels, so decode regardless
	var out Result
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("wifi: unexpected response: %s", truncate(string(body), 120))
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
