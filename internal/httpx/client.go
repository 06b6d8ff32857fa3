// Package httpx is the JSON-over-HTTP transport used for NEAR JSON-RPC.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/version"
)

const maxBackoff = 2 * time.Second

// Client posts JSON documents and decodes JSON replies. Transport failures,
// 429 and 5xx replies are retried up to retries extra times.
type Client struct {
	httpClient *http.Client
	retries    int
	userAgent  string
}

func New(timeout time.Duration, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		userAgent:  version.UserAgent(),
	}
}

// ErrorReply is implemented by reply types that may arrive with a non-2xx
// status, such as JSON-RPC envelopes. When a non-2xx body decodes into one and
// CarriesError reports true, PostJSON returns the decoded reply instead of a
// status error.
type ErrorReply interface {
	CarriesError() bool
}

// retryable marks an attempt error that a later attempt may not repeat.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

func (c *Client) PostJSON(ctx context.Context, url string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		err := c.attempt(ctx, url, body, out)
		var again retryable
		if !errors.As(err, &again) {
			return err
		}
		if attempt >= c.retries || ctx.Err() != nil {
			return again.err
		}
		wait := backoff(attempt + 1)
		log.Debug("Retrying rpc request", "url", url, "attempt", attempt+1, "wait", wait, "err", again.err)
		select {
		case <-ctx.Done():
			return clierr.Network("rpc request cancelled", ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (c *Client) attempt(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "build rpc request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retryable{mapNetError(ctx, err)}
	}
	buf, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return clierr.Network("read rpc response", readErr)
	}
	if err := statusError(resp.StatusCode); err != nil {
		if reply, ok := out.(ErrorReply); ok && json.Unmarshal(buf, out) == nil && reply.CarriesError() {
			log.Debug("Decoded error reply", "url", url, "status", resp.StatusCode)
			return nil
		}
		return err
	}
	return decode(buf, out)
}

func statusError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return retryable{clierr.New(clierr.CodeNetworkTransport, "rpc endpoint rate limited request")}
	case status >= http.StatusInternalServerError:
		return retryable{clierr.New(clierr.CodeNetworkTransport, fmt.Sprintf("rpc endpoint unavailable (status %d)", status))}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return clierr.New(clierr.CodeNetworkTransport, fmt.Sprintf("rpc endpoint refused request (status %d)", status))
	default:
		return clierr.New(clierr.CodeNetworkTransport, fmt.Sprintf("rpc endpoint returned unexpected status %d", status))
	}
}

func decode(buf []byte, out any) error {
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return clierr.New(clierr.CodeNetworkTransport, "rpc endpoint returned empty response")
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return clierr.Wrap(clierr.CodeSerialization, "decode rpc JSON", err)
	}
	return nil
}

func mapNetError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return clierr.Network("rpc request cancelled", ctx.Err())
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return clierr.Wrap(clierr.CodeNetworkTimeout, "rpc timeout", err)
	}
	return clierr.Wrap(clierr.CodeNetworkTransport, "rpc request failed", err)
}

// backoff doubles from 120ms, capped at maxBackoff, plus up to 75ms jitter.
func backoff(attempt int) time.Duration {
	d := 120 * time.Millisecond << uint(attempt-1)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d + time.Duration(rand.Intn(75))*time.Millisecond
}
