package config

import "time"

// RateLimitConfig drives the Redis token bucket in front of /v1.
//
// KeyStrategy names the request attributes a bucket is keyed on, joined
// with underscores: any of "ip", "user" and "route", e.g. "ip_route".
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size; RATE_LIMIT_BURST overrides it
	RefillTokens   int           // tokens added per RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string
	Prefix         string
	Debug          bool // exposes the bucket key in X-RateLimit-Key
}

func LoadRateLimitConfig() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "mtb:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if burst := envInt("RATE_LIMIT_BURST", 0); burst > 0 {
		rl.Capacity = burst
	}
	return rl.clamped()
}

// clamped returns a copy with every limit raised to a usable minimum.  A
// bucket must outlive at least five refill intervals.
func (rl RateLimitConfig) clamped() RateLimitConfig {
	rl.Capacity = max(rl.Capacity, 1)
	rl.RefillTokens = max(rl.RefillTokens, 1)
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	rl.TTL = max(rl.TTL, 5*rl.RefillInterval)
	return rl
}
