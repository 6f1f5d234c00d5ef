package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the rate limit for one endpoint. A Path ending in "/"
// matches by prefix, anything else matches exactly.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds the limiter configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig reads the limiter configuration from RATE_LIMIT_* environment
// variables, falling back to the built-in endpoint tiers.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the built-in per-endpoint tiers.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: endpoints that call the model (strictest)
		{Path: "/api/generate-summary", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/api/generate-multiple-candidates", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/api/generate-bulk-email", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/api/bulk-process-job", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/api/process-curated-candidates", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/api/create-gmail-draft", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Tier 2: ATS write-backs and admin mutations (moderate)
		{Path: "/api/push-to-recruitcrm", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/create-note", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/move-stage", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/admin/prompts", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/admin/prompts/", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/admin/prompts/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/admin/prompts/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/webhook-config", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},

		// Tier 3: reads fall through to the default limit.
		// Health and status polling are unlimited via match.
	}
}

// match finds the limit for a path and method. Health checks and bulk
// status polling are always unlimited; unknown endpoints get the default.
func (c *Config) match(path, method string) EndpointConfig {
	if method == "GET" && (path == "/health" || strings.HasPrefix(path, "/api/bulk-job-status/")) {
		return EndpointConfig{}
	}

	for _, ec := range c.EndpointConfigs {
		if ec.Method != method {
			continue
		}
		if ec.Path == path {
			return ec
		}
		if strings.HasSuffix(ec.Path, "/") && strings.HasPrefix(path, ec.Path) {
			return ec
		}
	}

	return EndpointConfig{
		Limit:  c.DefaultLimit,
		Window: c.DefaultWindow,
		Burst:  c.DefaultLimit,
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
