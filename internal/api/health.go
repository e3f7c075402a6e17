package api

import (
	"context"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/models"
)

// maxHealthBody caps the health check response size
const maxHealthBody = 64 * 1024

// Ping calls the backend health check and returns its message.
func (c *Client) Ping(ctx context.Context) (string, error) {
	endpoint := c.endpoint(models.PathHealth)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)
	req.Header.Del("Content-Type")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ctx, "health check", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", responseError(resp, endpoint, "health check failed")
	}
	if resp.Body == nil {
		return "", apierrors.ErrNoBody
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHealthBody))
	if err != nil {
		return "", transportError(ctx, "health check", endpoint, err)
	}

	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("invalid health check response", string(body))
	}

	parsed := gjson.ParseBytes(body)
	status := parsed.Get(PathStatus).String()
	message := parsed.Get(PathMessage).String()

	if status != models.StatusSuccess {
		if message == "" {
			message = "health check failed"
		}
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, message, string(body))
	}

	c.logger.Debug("health check ok", zap.String("endpoint", endpoint), zap.String("message", message))
	return message, nil
}
