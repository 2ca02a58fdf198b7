// package testing contains shared test doubles and filesystem assertions
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
)

var (
	errWrite = errors.New("write failed")
	errRead  = errors.New("read failed")
)

// FWriter fails every Write with Err, or a generic write error.
type FWriter struct {
	Err error
}

func (f *FWriter) Write(p []byte) (n int, err error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return 0, errWrite
}

// LimitedWriter forwards to target until maxWrites writes have happened, then fails.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper answers every request with the same response or error and records what it saw.
type MockRoundTripper struct {
	response *http.Response
	err      error

	mu       sync.Mutex
	requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.response, m.err
}

// Calls returns how many requests went through the transport.
func (m *MockRoundTripper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil.
func (m *MockRoundTripper) LastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// FCloser is a response body whose reads fail. It remembers whether it was closed.
type FCloser struct {
	closed bool
}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errRead
}

func (f *FCloser) Close() error {
	f.closed = true
	return nil
}

func (f *FCloser) Closed() bool { return f.closed }

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
