package checker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	consts "github.com/khanhnv2901/vulnscan/internal/shared/constants"
	apperrors "github.com/khanhnv2901/vulnscan/internal/shared/errors"
)

// Response is the evidence a probe gathers: status and headers only.
type Response struct {
	StatusCode int
	Header     http.Header
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Prober issues a single outbound GET. Implementations must be safe for
// concurrent use.
type Prober interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, url string) (*Response, error)

func (f ProberFunc) Fetch(ctx context.Context, url string) (*Response, error) {
	return f(ctx, url)
}

// HTTPProber fetches URLs over HTTP(S) with certificate verification disabled.
// The underlying client and connection pool are shared by all probes.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates a prober. timeout is an upper bound for any single
// request; checks apply their own, usually shorter, deadline through ctx.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Targets may be misconfigured; an invalid certificate is a signal, not a failure.
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- scanning must reach hosts with broken certificates.
	transport.MaxIdleConnsPerHost = consts.DefaultPathWorkers

	return &HTTPProber{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Fetch performs a GET and returns the final response's status and headers.
// Any failure to obtain a response is reported as a transport error.
func (p *HTTPProber) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Transport("fetch", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", consts.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.Transport("fetch", err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, consts.ProbeBodyDrainLimit))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}, nil
}

// CloseIdleConnections releases pooled connections.
func (p *HTTPProber) CloseIdleConnections() {
	p.client.CloseIdleConnections()
}
