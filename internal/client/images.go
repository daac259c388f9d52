package client

import (
	"context"
)

// FetchImage downloads the artwork at imageURL. Image bodies are never cached.
func (c *client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	return c.get(ctx, "image", imageURL, "image/*")
}
