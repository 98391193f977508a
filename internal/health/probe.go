package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// The worker's liveness contract. These are fixed: the worker is expected
// to bind this port and answer this path.
const (
	Endpoint = "http://localhost:8000/health"
	Timeout  = 2 * time.Second
)

// Detector is a strategy that determines if the worker is serving.
// It must be safe for concurrent use.
type Detector interface {
	// Alive returns true if the worker is detected as healthy. The error
	// explains a false result and is meant for logs and metrics only.
	Alive(ctx context.Context) (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}

// HTTPProbe issues a single GET and treats any 2xx as healthy.
type HTTPProbe struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// NewHTTPProbe returns the probe for the fixed worker endpoint.
func NewHTTPProbe() *HTTPProbe {
	return &HTTPProbe{URL: Endpoint, Timeout: Timeout}
}

// StatusError reports a non-2xx answer.
type StatusError struct{ Code int }

func (e *StatusError) Error() string { return fmt.Sprintf("unhealthy status %d", e.Code) }

func (p *HTTPProbe) Alive(ctx context.Context) (bool, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return false, err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &StatusError{Code: resp.StatusCode}
	}
	return true, nil
}

func (p *HTTPProbe) Describe() string { return "http:" + p.URL }

// Reason classifies a probe error into a short label for metrics.
func Reason(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unreachable"
	}
}
