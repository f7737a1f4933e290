package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.  Only
// GET requests under one of PathPrefixes are cached; every write to a
// hotel, room or hospital purges entries under Prefix.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	PathPrefixes []string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables, falling back to defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "hb:cache"),
		PathPrefixes: envList("CACHE_PATHS", "/v1/hotels,/v1/hospitals"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// Cacheable reports whether a request path falls under a cached prefix.
func (c CacheConfig) Cacheable(path string) bool {
	for _, p := range c.PathPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
