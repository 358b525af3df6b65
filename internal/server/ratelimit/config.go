package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Exact path, or a prefix when it ends with "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window; <= 0 means unlimited
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTimeout     time.Duration // buckets unused this long are dropped
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the server configuration for perMinute requests per
// client on read endpoints. Analysis and report endpoints get a tighter tier.
func DefaultConfig(perMinute int) *Config {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    perMinute,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(perMinute),
	}
}

// DefaultEndpointConfigs returns the endpoint tiers for a base per-minute limit.
func DefaultEndpointConfigs(perMinute int) []EndpointConfig {
	expensive := max(perMinute/4, 1)
	return []EndpointConfig{
		// Tier 1: extraction and PDF rendering
		{Path: "/v1/analyze", Method: "POST", Limit: expensive, Window: time.Minute, Burst: max(expensive/2, 1)},
		{Path: "/v1/report", Method: "POST", Limit: expensive, Window: time.Minute, Burst: max(expensive/2, 1)},

		// Tier 2: health checks are unlimited
		{Path: "/health", Method: "GET", Limit: 0},
	}
}

// ParseIPList parses a comma-separated list of IP addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}

// MatchEndpoint returns the configuration for path and method, or nil when the
// default limit applies. Exact matches win over prefix matches.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
