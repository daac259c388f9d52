package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/masteraset/cardfetch/internal/apperrors"
	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/metrics"
	"github.com/masteraset/cardfetch/internal/models"
)

// paginate walks resource page by page starting at 1 and returns every item.
// It stops after the first page that is empty or shorter than pageSize.
func paginate[T any](ctx context.Context, c *client, resource string, query url.Values) ([]T, error) {
	logger := config.GetLogger()

	var all []T
	for page := 1; ; page++ {
		if page > 1 {
			if err := sleepCtx(ctx, c.pageDelay); err != nil {
				return nil, err
			}
		}

		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("pageSize", strconv.Itoa(c.pageSize))
		pageURL := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, q.Encode())

		data, err := fetchPage[T](ctx, c, resource, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", resource, page, err)
		}

		logger.Debug().Str("resource", resource).Int("page", page).Int("items", len(data)).Msg("Fetched catalog page")

		all = append(all, data...)
		if len(data) < c.pageSize {
			return all, nil
		}
	}
}

// fetchPage returns the items of one page, consulting the page cache first when enabled.
// Only bodies that decode successfully are cached.
func fetchPage[T any](ctx context.Context, c *client, resource, pageURL string) ([]T, error) {
	if c.pageCache != nil {
		if body, ok := c.pageCache.Get(pageURL); ok {
			if page, err := decodePage[T](pageURL, body); err == nil {
				return page.Data, nil
			}
		}
	}

	body, err := c.get(ctx, "catalog", pageURL, "application/json")
	if err != nil {
		return nil, err
	}
	metrics.CatalogPagesTotal.WithLabelValues(resource).Inc()

	page, err := decodePage[T](pageURL, body)
	if err != nil {
		return nil, err
	}

	if c.pageCache != nil {
		c.pageCache.Set(pageURL, body)
	}
	return page.Data, nil
}

func decodePage[T any](pageURL string, body []byte) (*models.Page[T], error) {
	var page models.Page[T]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &apperrors.ErrDecode{URL: pageURL, Err: err}
	}
	return &page, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
