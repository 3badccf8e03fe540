package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig controls the fixed-window limiter applied to the
// order-status polling endpoint.  The defaults allow a well-behaved client
// polling every 3 seconds plenty of headroom while capping runaway loops.
type RateLimitConfig struct {
    Enabled bool
    Limit   int           // requests allowed per window
    Window  time.Duration // window length
    Prefix  string        // Redis key namespace
}

// LoadRateLimitConfig reads environment variables to build a RateLimitConfig.
// Defaults are used when variables are not set.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: getenvDefault("RATE_LIMIT_ENABLED", "true") == "true",
        Limit:   atoiDefault("RATE_LIMIT_LIMIT", 60),
        Window:  durDefault("RATE_LIMIT_WINDOW", time.Minute),
        Prefix:  getenvDefault("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Limit < 1 {
        cfg.Limit = 1
    }
    if cfg.Window <= 0 {
        cfg.Window = time.Minute
    }
    return cfg
}

func getenvDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoiDefault(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return def
}

func durDefault(key string, def time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        if d, err := time.ParseDuration(v); err == nil {
            return d
        }
    }
    return def
}
