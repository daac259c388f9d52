package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/masteraset/cardfetch/internal/apperrors"
	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/metrics"
	"github.com/masteraset/cardfetch/internal/retry"
)

// get fetches target with the fixed header set, retrying under the client's policy.
// operation labels retry logs and metrics ("catalog" or "image").
func (c *client) get(ctx context.Context, operation, target, accept string) ([]byte, error) {
	logger := config.GetLogger()

	policy := c.policy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		metrics.RequestRetriesTotal.WithLabelValues(operation).Inc()
		logger.Warn().
			Err(err).
			Str("url", target).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Request failed, retrying")
	}

	return retry.Do(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return c.getOnce(ctx, target, accept)
	})
}

func (c *client) getOnce(ctx context.Context, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperrors.NewUnexpectedStatusError(resp.StatusCode, target)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
