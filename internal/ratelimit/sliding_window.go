package ratelimit

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// slidingWindowScript counts request timestamps in a sorted set, drops entries
// older than the window and records the current request when under the limit.
// Returns {allowed, count, oldest_ms}.
const slidingWindowScript = `
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local nowData = redis.call("TIME")
local now = (nowData[1] * 1000) + math.floor(nowData[2] / 1000)
local cutoff = now - window

redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", cutoff)

local count = redis.call("ZCARD", KEYS[1])
local allowed = 0
if count < limit then
  allowed = 1
  redis.call("ZADD", KEYS[1], now, now .. "-" .. math.random(1000000))
  count = count + 1
end

redis.call("PEXPIRE", KEYS[1], window)

local oldest = now
local first = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
if first[2] then
  oldest = tonumber(first[2])
end

return {allowed, count, oldest}
`

type slidingWindow struct {
	client *redis.Client
	script *redis.Script
}

func newSlidingWindow(client *redis.Client) *slidingWindow {
	if client == nil {
		return nil
	}
	return &slidingWindow{
		client: client,
		script: redis.NewScript(slidingWindowScript),
	}
}

// allow runs the window script. It returns the request count and the oldest
// entry timestamp so the caller can derive remaining budget and reset time.
func (w *slidingWindow) allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, count int64, oldest time.Time, err error) {
	if w == nil || w.client == nil {
		return false, 0, time.Time{}, errors.New("rate limiter not configured")
	}

	res, err := w.script.Run(
		ctx,
		w.client,
		[]string{key},
		limit,
		int64(window/time.Millisecond),
	).Slice()
	if err != nil {
		return false, 0, time.Time{}, err
	}
	if len(res) < 3 {
		return false, 0, time.Time{}, errors.New("invalid rate limit script response")
	}

	allowed = castToInt(res[0]) == 1
	count = castToInt(res[1])
	oldest = time.UnixMilli(castToInt(res[2]))
	return allowed, count, oldest, nil
}

func castToInt(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
