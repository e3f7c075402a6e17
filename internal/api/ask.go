package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/models"
	"github.com/diogo/tacticscoach/internal/stream"
)

// maxErrorBody limits how much of a failed response is read for diagnostics
const maxErrorBody = 4096

// AskOptions carries the per-turn callbacks. Both may be nil.
type AskOptions struct {
	// OnFirstByte fires once, when the first byte of the body arrives.
	OnFirstByte func()
	// OnSnapshot fires after every applied record.
	OnSnapshot func(models.Snapshot)
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

// Ask posts a question to /api/tactics and streams the answer. It returns
// the state after the last record. When ctx is cancelled it returns
// ctx.Err() together with whatever had been received so far.
func (c *Client) Ask(ctx context.Context, prompt string, opts *AskOptions) (models.Snapshot, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.Snapshot{}, apierrors.ErrEmptyPrompt
	}
	if opts == nil {
		opts = &AskOptions{}
	}

	endpoint := c.endpoint(models.PathTactics)
	logger := c.logger.With(zap.String("endpoint", endpoint))

	payload, err := json.Marshal(askRequest{Prompt: prompt})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)

	logger.Debug("sending tactics request", zap.Int("prompt_len", len(prompt)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Snapshot{}, transportError(ctx, "ask", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Snapshot{}, responseError(resp, endpoint, "tactics request failed")
	}
	if resp.Body == nil {
		return models.Snapshot{}, apierrors.ErrNoBody
	}

	acc := stream.NewAccumulator(stream.WithLogger(logger))
	body := &firstByteReader{r: resp.Body, onFirst: opts.OnFirstByte}

	if err := acc.Consume(ctx, body, opts.OnSnapshot); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Debug("tactics stream cancelled")
			return acc.Snapshot(), ctxErr
		}
		return acc.Snapshot(), transportError(ctx, "read stream", endpoint, err)
	}

	applied, skipped := acc.Stats()
	logger.Debug("tactics stream finished",
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
	)

	return acc.Snapshot(), nil
}

// firstByteReader calls onFirst the first time a read returns data.
type firstByteReader struct {
	r       io.Reader
	onFirst func()
	seen    bool
}

func (f *firstByteReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 && !f.seen {
		f.seen = true
		if f.onFirst != nil {
			f.onFirst()
		}
	}
	return n, err
}

// transportError maps a failed Do or body read onto the error types callers check.
func transportError(ctx context.Context, operation, endpoint string, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}

	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		return apierrors.NewTimeoutError(endpoint)
	}

	return apierrors.NewNetworkError(operation, endpoint, err)
}

// responseError reads a bounded excerpt of a failed response and turns it
// into an APIError, preferring the backend's own {"status":"error"} message.
func responseError(resp *http.Response, endpoint, fallback string) error {
	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}

	message := fallback
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, PathMessage); msg.Type == gjson.String && msg.Str != "" {
			message = msg.Str
		}
	}

	return apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, message, string(body))
}
