package config

import "time"

// CacheConfig drives the Redis response cache placed in front of read-only
// endpoints such as room templates and dashboard statistics.  Methods lists
// the HTTP methods eligible for caching; KeyStrategy picks which parts of the
// request form the key.
type CacheConfig struct {
	Enabled      bool            // CACHE_ENABLED
	Methods      map[string]bool // cacheable HTTP methods
	TTL          time.Duration   // entry lifetime
	KeyStrategy  string          // route, route_query, method_route or method_route_query
	Prefix       string          // Redis key prefix, also the purge pattern
	MaxBodyBytes int             // larger bodies are not stored
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      envSet("CACHE_METHODS", "GET"),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "seating:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
