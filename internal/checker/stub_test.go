package checker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	apperrors "github.com/khanhnv2901/vulnscan/internal/shared/errors"
)

// stubProber answers from a fixed table keyed by URL. Unknown URLs fail with
// a transport error, mimicking a refused connection.
type stubProber struct {
	responses map[string]*Response
	calls     int32

	mu        sync.Mutex
	requested []string
}

func (s *stubProber) Fetch(ctx context.Context, url string) (*Response, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	s.requested = append(s.requested, url)
	s.mu.Unlock()

	if resp, ok := s.responses[url]; ok {
		return resp, nil
	}
	return nil, apperrors.Transport("fetch", errors.New("connection refused"))
}

func (s *stubProber) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func failingProber() Prober {
	return ProberFunc(func(ctx context.Context, url string) (*Response, error) {
		return nil, apperrors.Transport("fetch", errors.New("dial tcp: lookup failed"))
	})
}

func headerResponse(status int, kv ...string) *Response {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return &Response{StatusCode: status, Header: h}
}
