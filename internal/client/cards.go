package client

import (
	"context"
	"net/url"

	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/models"
)

// ListCards returns every card of setID ordered by number.
// An error on any page aborts the whole set.
func (c *client) ListCards(ctx context.Context, setID string) ([]models.Card, error) {
	logger := config.GetLogger()
	logger.Debug().Str("set", setID).Msg("Listing cards")

	query := url.Values{}
	query.Set("q", "set.id:"+setID)
	query.Set("orderBy", "number")

	return paginate[models.Card](ctx, c, "cards", query)
}
