package client

import (
	"context"
	"net/url"

	"github.com/masteraset/cardfetch/internal/models"
)

// ListSets returns every set in the catalog ordered by release date.
func (c *client) ListSets(ctx context.Context) ([]models.Set, error) {
	query := url.Values{}
	query.Set("orderBy", "releaseDate")

	return paginate[models.Set](ctx, c, "sets", query)
}
