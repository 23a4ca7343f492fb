// Package pulp is the HTTP collaborator of the suite: repository and
// distributor management, unit upload and import, publishing, task polling
// and repodata retrieval against a Pulp-compatible v2 API.
package pulp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/repoverify/repoverify/internal/config"
)

const apiBase = "/pulp/api/v2/"

// Client talks to one server. All methods are context-aware and safe for
// sequential use; the suite never calls them concurrently.
type Client struct {
	base     *url.URL
	http     *http.Client
	username string
	password string
	polling  config.Polling
}

// New builds a client from server and polling configuration.
func New(server config.Server, polling config.Polling) (*Client, error) {
	base, err := url.Parse(server.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", server.BaseURL, err)
	}

	httpClient := &http.Client{}
	if server.Insecure {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		base:     base,
		http:     httpClient,
		username: server.Username,
		password: server.Password,
		polling:  polling,
	}, nil
}

// do issues one JSON API call. Paths starting with "/" are taken from the
// server root; anything else is relative to the v2 API base. A non-nil out
// receives the decoded response body.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	target := c.resolve(path)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	logrus.Debugf("%s %s", method, target)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, snippet(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}
	return nil
}

// fetch retrieves raw bytes from a path under the server root (repodata
// files live outside the JSON API).
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	target := c.resolve("/" + strings.TrimPrefix(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	logrus.Debugf("GET %s", target)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = apiBase + path
	}
	ref := *c.base
	ref.Path = strings.TrimSuffix(ref.Path, "/") + path
	return ref.String()
}

func snippet(data []byte) string {
	const max = 200
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
