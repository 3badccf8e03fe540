package middleware

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/p2p-marketplace/internal/config"
)

// RateLimit returns an Echo middleware enforcing a fixed-window request
// limit per user and route, backed by Redis.  Intended for the status
// polling endpoint, where a misbehaving client retrying in a tight loop
// would otherwise hammer the database.
//
// When Redis is unavailable the limiter degrades open: an outage in the
// rate limiting layer must not take down order reads with it.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg.Prefix, c)
            ctx := c.Request().Context()

            count, err := rdb.Incr(ctx, key).Result()
            if err != nil {
                c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                return next(c)
            }
            if count == 1 {
                // First hit in this window owns the expiry.
                rdb.Expire(ctx, key, cfg.Window)
            }

            remaining := int64(cfg.Limit) - count
            if remaining < 0 {
                remaining = 0
            }
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if count > int64(cfg.Limit) {
                ttl, err := rdb.TTL(ctx, key).Result()
                if err != nil || ttl < 0 {
                    ttl = cfg.Window
                }
                secs := int(ttl / time.Second)
                if secs < 1 {
                    secs = 1
                }
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func rateKey(prefix string, c echo.Context) string {
    uid := "anon"
    if v := c.Get("user_id"); v != nil {
        if s, ok := v.(string); ok && s != "" {
            uid = s
        }
    }
    return prefix + ":user:" + uid + ":route:" + c.Request().Method + " " + c.Path()
}
