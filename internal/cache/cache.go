package cache

import "github.com/rs/zerolog"

// EvictCallback is called when an entry is evicted from the cache.
// Only the memory provider reports evictions; Redis expires keys server-side.
type EvictCallback func(key string, value []byte)

// Cache stores raw catalog response bodies keyed by request URL.
type Cache interface {
	// Get returns the cached body and true, or nil and false on a miss.
	Get(key string) ([]byte, bool)

	// Set stores a body, overwriting any previous entry for the key.
	Set(key string, value []byte)

	// Contains reports whether a key is present without refreshing it.
	Contains(key string) bool

	// Len returns the number of live entries.
	Len() int

	// Close releases connections held by the provider.
	Close() error
}

// Logger receives errors from providers that talk to external backends.
type Logger interface {
	Error(msg string, err error)
}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger adapts a zerolog.Logger to the cache Logger interface.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return zerologLogger{logger: logger}
}

func (l zerologLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}
