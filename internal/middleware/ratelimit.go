package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
)

// limiterScript keeps {t = tokens, ts = last refill in ms} in a hash.  It
// refills whole intervals only, takes one token if it can and returns
// {allowed, remaining, retry_after_ms}.
//
// KEYS[1] bucket; ARGV now_ms, capacity, refill, interval_ms, ttl_s
var limiterScript = redis.NewScript(`
local now, cap, refill, every, ttl =
  tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local t = tonumber(redis.call('HGET', KEYS[1], 't'))
local ts = tonumber(redis.call('HGET', KEYS[1], 'ts'))
if not t or not ts then t, ts = cap, now end
if every > 0 then
  local n = math.floor(math.max(0, now - ts) / every)
  if n > 0 then
    t = math.min(cap, t + n * refill)
    ts = ts + n * every
  end
end
local ok, wait = 0, 0
if t > 0 then
  ok, t = 1, t - 1
else
  wait = math.max(0, every - (now - ts))
end
redis.call('HSET', KEYS[1], 't', t, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, t, wait}
`)

// bucketResult is the decoded reply of limiterScript.
type bucketResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// retrySeconds rounds the wait up to whole seconds for Retry-After.
func (r bucketResult) retrySeconds() int {
	return int(math.Ceil(r.retry.Seconds()))
}

func decodeBucket(v any) (bucketResult, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return bucketResult{}, false
	}
	return bucketResult{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retry:     time.Duration(max(asInt64(arr[2]), 0)) * time.Millisecond,
	}, true
}

// NewTokenBucket limits requests with a Redis-held token bucket per key.
// Requests pass through when Redis is unavailable.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	return newTokenBucket(cfg, rdb, log, time.Now)
}

func newTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger, now func() time.Time) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	parts := keyParts(cfg.KeyStrategy)
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, parts, c)
			reply, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, scriptArgs(cfg, now())...).Result()
			if err != nil {
				log.WithError(err).WithField("key", key).Warn("rate limit check failed")
				return next(c)
			}
			res, ok := decodeBucket(reply)
			if !ok {
				log.WithField("key", key).Warnf("unexpected rate limit reply %#v", reply)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			secs := res.retrySeconds()
			h.Set("Retry-After", strconv.Itoa(secs))
			log.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Debug("rate limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

func scriptArgs(cfg config.RateLimitConfig, now time.Time) []any {
	return []any{
		now.UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL / time.Second),
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

// keyParts turns a strategy such as "ip_route" into the ordered list of
// request attributes it names.  Unknown or empty strategies key on all
// three.
func keyParts(strategy string) []string {
	var parts []string
	for _, p := range strings.Split(strings.ToLower(strategy), "_") {
		switch p {
		case "ip", "user", "route":
			parts = append(parts, p)
		default:
			return []string{"ip", "user", "route"}
		}
	}
	return parts
}

func rateKey(prefix string, parts []string, c echo.Context) string {
	b := strings.Builder{}
	b.WriteString(prefix)
	for _, p := range parts {
		var v string
		switch p {
		case "ip":
			if v = c.RealIP(); v == "" {
				v = "unknown"
			}
		case "user":
			v = rateSubject(c)
		case "route":
			v = c.Request().Method + " " + c.Path()
		}
		b.WriteString(":" + p + ":" + v)
	}
	return b.String()
}
