package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNetworkError(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewNetworkError("ask", "http://127.0.0.1:5000/api/tactics", inner)

	expected := "network error during ask at http://127.0.0.1:5000/api/tactics: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, inner) {
		t.Error("expected NetworkError to unwrap to inner error")
	}

	if !IsNetworkError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsNetworkError should see through wrapping")
	}

	noEndpoint := NewNetworkError("ping", "", inner)
	if noEndpoint.Error() != "network error during ping: connection refused" {
		t.Errorf("Error() = %s", noEndpoint.Error())
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(500, "/api/tactics", "request failed")

	expected := "API error [500] at /api/tactics: request failed"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	noStatus := NewAPIError(0, "/api/tactics", "request failed")
	if noStatus.Error() != "API error at /api/tactics: request failed" {
		t.Errorf("Error() = %s", noStatus.Error())
	}
}

func TestNewAPIErrorWithBody_Truncates(t *testing.T) {
	body := strings.Repeat("x", maxBodyExcerpt+100)
	err := NewAPIErrorWithBody(502, "/api/tactics", "bad gateway", body)

	if len(err.Body) != maxBodyExcerpt {
		t.Errorf("Body length = %d, want %d", len(err.Body), maxBodyExcerpt)
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("invalid JSON", `{"status":`)

	if err.Error() != "parse error: invalid JSON" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("expected ParseError to match ErrInvalidResponse")
	}
	if !errors.Is(err, NewParseError("other", "")) {
		t.Error("expected ParseError to match another ParseError")
	}
	if errors.Is(err, ErrNoBody) {
		t.Error("ParseError should not match ErrNoBody")
	}
	if !IsParseError(err) {
		t.Error("IsParseError() = false")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("/api/tactics")

	if err.Error() != "request timed out: /api/tactics" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected TimeoutError to match context.DeadlineExceeded")
	}
	if NewTimeoutError("").Error() != "request timed out" {
		t.Error("unexpected message for empty endpoint")
	}
	if !IsTimeoutError(context.DeadlineExceeded) {
		t.Error("IsTimeoutError(context.DeadlineExceeded) = false")
	}
}

func TestIsCanceled(t *testing.T) {
	if !IsCanceled(context.Canceled) {
		t.Error("IsCanceled(context.Canceled) = false")
	}
	if !IsCanceled(NewNetworkError("ask", "", context.Canceled)) {
		t.Error("IsCanceled should unwrap NetworkError")
	}
	if IsCanceled(errors.New("boom")) {
		t.Error("IsCanceled(plain error) = true")
	}
	if IsCanceled(nil) {
		t.Error("IsCanceled(nil) = true")
	}
}

func TestExtractors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		endpoint string
		body     string
	}{
		{"nil", nil, 0, "", ""},
		{"plain", errors.New("x"), 0, "", ""},
		{"api", NewAPIErrorWithBody(404, "/api/test", "not found", `{"status":"error"}`), 404, "/api/test", `{"status":"error"}`},
		{"network", NewNetworkError("ask", "/api/tactics", errors.New("x")), 0, "/api/tactics", ""},
		{"timeout", NewTimeoutError("/api/tactics"), 0, "/api/tactics", ""},
		{"wrapped api", fmt.Errorf("ask: %w", NewAPIError(503, "/api/tactics", "down")), 503, "/api/tactics", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatus(tt.err); got != tt.status {
				t.Errorf("GetHTTPStatus() = %d, want %d", got, tt.status)
			}
			if got := GetEndpoint(tt.err); got != tt.endpoint {
				t.Errorf("GetEndpoint() = %s, want %s", got, tt.endpoint)
			}
			if got := GetResponseBody(tt.err); got != tt.body {
				t.Errorf("GetResponseBody() = %s, want %s", got, tt.body)
			}
		})
	}
}
