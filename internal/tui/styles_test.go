package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/render"
)

func TestFormatError(t *testing.T) {
	const baseURL = "http://localhost:5000"

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "network",
			err:      &apierrors.NetworkError{Operation: "ask", Endpoint: baseURL + "/api/tactics", Err: errors.New("connection refused")},
			contains: []string{"connection refused", "Endpoint: http://localhost:5000/api/tactics", "running at http://localhost:5000", "coach ping"},
		},
		{
			name:     "timeout",
			err:      apierrors.NewTimeoutError(baseURL + "/api/tactics"),
			contains: []string{"took too long", "timeout_seconds"},
		},
		{
			name:     "api with body",
			err:      apierrors.NewAPIErrorWithBody(500, baseURL+"/api/tactics", "internal error", "traceback here"),
			contains: []string{"HTTP Status: 500", "traceback here"},
		},
		{
			name:     "api without body",
			err:      apierrors.NewAPIError(503, baseURL+"/api/test", "unavailable"),
			contains: []string{"HTTP Status: 503", "rejected the request"},
		},
		{
			name:     "plain",
			err:      errors.New("something odd"),
			contains: []string{"something odd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatError(tt.err, baseURL)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatErrorNil(t *testing.T) {
	assert.Empty(t, FormatError(nil, ""))
}

func TestErrorHintWithoutBaseURL(t *testing.T) {
	hint := errorHint(&apierrors.NetworkError{Err: errors.New("x")}, "")
	assert.Equal(t, "Is the tactics backend running? Try 'coach ping'", hint)
}

func TestUpdateThemeFollowsRenderTheme(t *testing.T) {
	t.Cleanup(func() {
		render.SetTUITheme("pitch")
		UpdateTheme()
	})

	assert.True(t, render.SetTUITheme("chalkboard"))
	UpdateTheme()
	theme := render.GetTUITheme()
	assert.Equal(t, theme.Primary, colorPrimary)
	assert.Equal(t, theme.Error, colorError)
	assert.Len(t, loadingColors, 5)
}
