package redis

// Config holds Redis connection settings for a store
type Config struct {
	// URL is the Redis connection URL (redis://host:port/db)
	URL string

	// KeyPrefix namespaces every key. The lobby store and each peer
	// store get distinct prefixes so they can share one Redis.
	KeyPrefix string

	// Connection pool settings
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for a store
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379/0",
		KeyPrefix:    "lobby",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}
