package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/masteraset/cardfetch/internal/cache"
	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/models"
	"github.com/masteraset/cardfetch/internal/retry"
)

// Client defines the interface for querying the card catalog and fetching card artwork
type Client interface {
	// ListCards returns every card of a set, walking the paginated cards endpoint.
	ListCards(ctx context.Context, setID string) ([]models.Card, error)

	// ListSets returns every set in the catalog.
	ListSets(ctx context.Context) ([]models.Set, error)

	// FetchImage returns the raw bytes served at imageURL.
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// Close releases any resources held by the client (e.g., cache connections).
	Close() error
}

// client implements the Client interface
type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	pageSize   int
	pageDelay  time.Duration
	policy     retry.Policy
	pageCache  cache.Cache // nil when caching is disabled
}

// NewClient creates a new client instance with proxy configuration if provided
func NewClient(cfg *config.Config) Client {
	logger := config.GetLogger()

	timeout := config.ParseDuration("client_timeout", cfg.ClientTimeout, 120*time.Second)

	// Clone DefaultTransport to keep its pooling and HTTP/2 settings
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newCompressionTransport(baseTransport),
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 100
	}

	return &client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		apiKey:     cfg.APIKey,
		userAgent:  userAgent,
		pageSize:   pageSize,
		pageDelay:  config.ParseDuration("page_delay", cfg.PageDelay, 250*time.Millisecond),
		policy:     policyFromConfig(cfg),
		pageCache:  newPageCache(cfg),
	}
}

func policyFromConfig(cfg *config.Config) retry.Policy {
	def := retry.DefaultPolicy()
	p := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   config.ParseDuration("retry.base_delay", cfg.Retry.BaseDelay, def.BaseDelay),
		MaxDelay:    config.ParseDuration("retry.max_delay", cfg.Retry.MaxDelay, def.MaxDelay),
		JitterStep:  config.ParseDuration("retry.jitter_step", cfg.Retry.JitterStep, def.JitterStep),
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = def.MaxAttempts
	}
	return p
}

// newPageCache builds the optional catalog page cache. A provider that fails to start
// is logged and the client runs uncached.
func newPageCache(cfg *config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	logger := config.GetLogger()

	provider := cfg.Cache.Provider
	if provider == "" {
		provider = "memory"
	}

	c, err := cache.New(provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           config.ParseDuration("cache.ttl", cfg.Cache.TTL, time.Hour),
		Logger:        cache.NewZerologLogger(logger),
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Group:         "catalog",
	})
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("Failed to create catalog cache, continuing without cache")
		return nil
	}

	logger.Info().Str("provider", provider).Msg("Catalog page cache enabled")
	return c
}

// Close releases any resources held by the client, such as cache connections.
func (c *client) Close() error {
	if c.pageCache == nil {
		return nil
	}
	return c.pageCache.Close()
}
