package api

import (
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a ReadCloser that hands out data in fixed chunks
type MockResponseBody struct {
	chunks [][]byte
	pos    int
	err    error
	closed bool
}

// NewMockResponseBody creates a body returning each chunk from a separate Read
func NewMockResponseBody(chunks ...string) *MockResponseBody {
	b := &MockResponseBody{}
	for _, c := range chunks {
		b.chunks = append(b.chunks, []byte(c))
	}
	return b
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.chunks) {
		if m.err != nil {
			return 0, m.err
		}
		return 0, io.EOF
	}
	n = copy(p, m.chunks[m.pos])
	m.pos++
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	m.closed = true
	return nil
}

// MockHttpClient records the last request and returns a canned response
type MockHttpClient struct {
	Response *fhttp.Response
	Err      error
	DoFunc   func(req *fhttp.Request) (*fhttp.Response, error)

	LastRequest *fhttp.Request
	LastBody    []byte
}

// Do implements HTTPDoer
func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.LastRequest = req
	if req.Body != nil {
		m.LastBody, _ = io.ReadAll(req.Body)
	}
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return m.Response, m.Err
}

func newResponse(status int, body io.ReadCloser) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Body:       body,
		Header:     make(fhttp.Header),
	}
}
