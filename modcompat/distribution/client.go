package distribution

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/afero"

	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/epoch"
)

const (
	defaultTimeout = 30 * time.Second
	maxTableSize   = 10 * 1024 * 1024
)

// Fetcher performs a conditional fetch of the compatibility table, presenting the given validator (if any).
type Fetcher interface {
	Fetch(ctx context.Context, etag string) Result
}

type Config struct {
	URL       string
	CACert    string
	Timeout   time.Duration
	UserAgent string
}

var _ Fetcher = (*Client)(nil)

// Client fetches the compatibility table over HTTP(S).
type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string
}

func NewClient(cfg Config) (*Client, error) {
	return newClient(afero.NewOsFs(), cfg)
}

func newClient(fs afero.Fs, cfg Config) (*Client, error) {
	httpClient, err := defaultHTTPClient(fs, cfg.CACert)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		httpClient: httpClient,
		url:        cfg.URL,
		userAgent:  cfg.UserAgent,
	}, nil
}

// Fetch issues a single GET for the table. Failures are reported in the result, never retried.
func (c Client) Fetch(ctx context.Context, etag string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Result{Outcome: Failed, Err: fmt.Errorf("failed to create request for compatibility table: %w", err)}
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log.Debugf("fetching compatibility table from %q (etag=%q)", c.url, etag)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Outcome: Failed, Err: fmt.Errorf("failed to fetch compatibility table: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return Result{Outcome: NotModified, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxTableSize))
		return Result{Outcome: Unchanged, StatusCode: resp.StatusCode}
	}

	var table epoch.Table
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTableSize)).Decode(&table); err != nil {
		return Result{
			Outcome:    Failed,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unable to parse compatibility table: %w", err),
		}
	}

	return Result{
		Outcome:    Updated,
		Table:      table,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
	}
}

func defaultHTTPClient(fs afero.Fs, caCertPath string) (*http.Client, error) {
	httpClient := cleanhttp.DefaultClient()
	httpClient.Timeout = defaultTimeout
	if caCertPath != "" {
		rootCAs := x509.NewCertPool()

		pemBytes, err := afero.ReadFile(fs, caCertPath)
		if err != nil {
			return nil, fmt.Errorf("unable to configure root CAs for compatibility table client: %w", err)
		}
		if !rootCAs.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("no certificates found in %q", caCertPath)
		}

		httpClient.Transport.(*http.Transport).TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    rootCAs,
		}
	}
	return httpClient, nil
}
