package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const defaultUserAgent = "cause-loader/1.0"

// Fetcher retrieves remote decision documents. Both calls make exactly one
// attempt bounded by timeout; retrying is up to the caller.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
	Probe(ctx context.Context, url string, timeout time.Duration) error
}

type FailureKind int

const (
	FailureNetwork FailureKind = iota
	FailureTimeout
	FailureStatus
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureStatus:
		return "status"
	default:
		return "network"
	}
}

// FetchError reports why a single GET did not yield a 200 response.
type FetchError struct {
	URL        string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FailureStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{},
		userAgent: defaultUserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	var body []byte
	err := f.get(ctx, url, timeout, func(r io.Reader) error {
		b, err := io.ReadAll(r)
		body = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Probe is the liveness check: nil iff url answers 200 within timeout. The
// body is not read; a large document that starts answering in time is alive.
func (f *HTTPFetcher) Probe(ctx context.Context, url string, timeout time.Duration) error {
	return f.get(ctx, url, timeout, func(io.Reader) error { return nil })
}

func (f *HTTPFetcher) get(ctx context.Context, url string, timeout time.Duration, consume func(io.Reader) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return &FetchError{URL: url, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &FetchError{URL: url, Kind: FailureStatus, StatusCode: resp.StatusCode}
	}
	if err := consume(resp.Body); err != nil {
		return &FetchError{URL: url, Kind: classifyTransportError(err), Err: err}
	}
	return nil
}

func classifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	return FailureNetwork
}
