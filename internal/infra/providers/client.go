package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("providers: http client not configured")

// Client talks to the market data service. One instance serves every data
// port; each call is bounded by Timeout.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
	Logger  *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Timeout: timeout,
		Logger:  logger,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c == nil || c.HTTP == nil {
		return ErrNotConfigured
	}
	if c.BaseURL == "" {
		return errors.New("providers: base url not configured")
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("providers: %s timeout: %w", path, err)
		} else {
			err = fmt.Errorf("providers: %s unavailable: %w", path, err)
		}
		c.logError("provider request failed", path, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("providers: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
		c.logError("provider returned error", path, err)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		err = fmt.Errorf("providers: decode %s: %w", path, err)
		c.logError("provider decode failed", path, err)
		return err
	}
	return nil
}

func (c *Client) logError(msg, path string, err error) {
	if c.Logger != nil {
		c.Logger.Error(msg, "path", path, "error", err)
	}
}
