package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stademap_rate_limit_remaining",
		Help: "Last reported number of calls remaining in the source quota",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stademap_rate_limit_blocks_total",
		Help: "Total number of requests blocked until the source quota resets",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stademap_rate_limit_throttles_total",
		Help: "Total number of requests delayed due to a low source quota",
	})
)

// Response headers read by the tracker.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// DefaultThrottleDelay is slept before a request while the quota is low.
const DefaultThrottleDelay = 1 * time.Second

// resetLayouts are the timestamp forms accepted in X-RateLimit-Reset.
var resetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05.999999",
	http.TimeFormat,
}

// Tracker monitors the source quota and gates requests.
// State lives in Redis when a client is given, so that several processes
// sharing one egress address see the same quota; otherwise it is kept in memory.
type Tracker struct {
	redis         *redis.Client
	logger        zerolog.Logger
	throttleDelay time.Duration

	mu    sync.Mutex
	local *State
}

// NewTracker creates a new rate limit tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
		local:         unknownState(),
	}
}

// SetThrottleDelay overrides the delay applied while throttling.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState returns the current quota state.
// Returns an unknown, healthy state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		s := *t.local
		return &s, nil
	}

	fields, err := t.redis.HGetAll(ctx, RedisKeyState).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}
	if len(fields) == 0 {
		t.logger.Debug().Msg("No rate limit state in Redis, assuming healthy")
		return unknownState(), nil
	}

	state := &State{Known: true}
	if state.Limit, err = strconv.Atoi(fields[fieldLimit]); err != nil {
		return nil, fmt.Errorf("parse stored limit: %w", err)
	}
	if state.Remaining, err = strconv.Atoi(fields[fieldRemaining]); err != nil {
		return nil, fmt.Errorf("parse stored remaining: %w", err)
	}
	resetUnix, err := strconv.ParseInt(fields[fieldResetAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse stored reset: %w", err)
	}
	state.ResetAt = time.Unix(resetUnix, 0)
	if state.LastUpdate, err = time.Parse(time.RFC3339Nano, fields[fieldLastUpdate]); err != nil {
		return nil, fmt.Errorf("parse stored last update: %w", err)
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses the rate limit headers of a response and stores
// the resulting state. Responses without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(strings.TrimSpace(remainStr))
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err = strconv.Atoi(strings.TrimSpace(limitStr)); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	now := time.Now()
	resetAt, err := parseReset(headers.Get(HeaderReset), now)
	if err != nil {
		return err
	}

	state := &State{
		Known:      true,
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    resetAt,
		LastUpdate: now,
	}
	state.UpdateHealth()

	if err := t.store(ctx, state); err != nil {
		return err
	}

	rateLimitRemaining.Set(float64(remain))

	switch {
	case state.NeedsBlock():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Source quota exhausted - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Msg("Source quota low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Int("limit", limit).
			Msg("Source quota updated")
	}

	return nil
}

func (t *Tracker) store(ctx context.Context, state *State) error {
	if t.redis == nil {
		t.mu.Lock()
		t.local = state
		t.mu.Unlock()
		return nil
	}

	err := t.redis.HSet(ctx, RedisKeyState,
		fieldLimit, state.Limit,
		fieldRemaining, state.Remaining,
		fieldResetAt, state.ResetAt.Unix(),
		fieldLastUpdate, state.LastUpdate.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// ShouldAllowRequest checks if a request may be sent now.
// Returns false when the quota is exhausted. While the quota is low it
// sleeps for the throttle delay before allowing the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsBlock() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Source quota exhausted - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Msg("Source quota low - throttling request")

		rateLimitThrottlesTotal.Inc()
		if err := sleep(ctx, t.throttleDelay); err != nil {
			return false, err
		}
	}

	return true, nil
}

// parseReset accepts either seconds until reset or an absolute timestamp.
// An empty value resets at now.
func parseReset(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return now.Add(time.Duration(seconds) * time.Second), nil
	}
	for _, layout := range resetLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse %s header: unrecognized format %q", HeaderReset, value)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
