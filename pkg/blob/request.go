package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const requestLogPrefix = "blob:request"

// Fetcher downloads HTTP resources into a Store.
type Fetcher struct {
	Client *http.Client
	Store  Store
	// NewBackOff builds the retry policy per request. Default: exponential, 30s budget.
	NewBackOff func() backoff.BackOff
}

// NewFetcher creates a Fetcher with a 30s per-attempt HTTP timeout.
func NewFetcher(store Store) *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		Store:  store,
	}
}

func (f *Fetcher) backOff() backoff.BackOff {
	if f.NewBackOff != nil {
		return f.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// RequestToBlob GETs rawURL with params as the query string and writes the body to uri.
// Network errors and 5xx responses are retried; 4xx responses are not.
func (f *Fetcher) RequestToBlob(ctx context.Context, rawURL string, params map[string]string, uri string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("%s - invalid url %q: %w", requestLogPrefix, rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	body, err := backoff.RetryWithData(func() ([]byte, error) {
		return f.get(ctx, u.String())
	}, backoff.WithContext(f.backOff(), ctx))
	if err != nil {
		return 0, err
	}

	if err := f.Store.Write(ctx, uri, body); err != nil {
		return 0, err
	}
	slog.Info(fmt.Sprintf("%s - saved %s to %s (%d bytes)", requestLogPrefix, u.Host+u.Path, uri, len(body)))
	return len(body), nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - GET %s failed, retrying: %v", requestLogPrefix, target, err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode >= 500:
		slog.Warn(fmt.Sprintf("%s - GET %s returned %d, retrying", requestLogPrefix, target, resp.StatusCode))
		return nil, fmt.Errorf("%s - GET %s: %s", requestLogPrefix, target, resp.Status)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("%s - GET %s: %s", requestLogPrefix, target, resp.Status))
	}
	return body, nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
