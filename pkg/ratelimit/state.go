// Package ratelimit implements politeness toward the remote data source.
// It tracks the X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers to stop issuing requests once the quota is
// spent, and paces acquisition steps with a fixed delay.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyState = "stademap:rate_limit"

	fieldLimit      = "limit"
	fieldRemaining  = "remaining"
	fieldResetAt    = "reset_at"
	fieldLastUpdate = "last_update"
)

// Thresholds for rate limit decisions.
const (
	// RemainingCritical blocks requests when remaining calls fall below this value.
	RemainingCritical = 1

	// RemainingWarning throttles requests when remaining calls fall below this value.
	RemainingWarning = 50
)

// State represents the quota reported by the source.
type State struct {
	// Known is false until a response carrying rate limit headers was seen.
	Known bool `json:"known"`

	// Limit is the quota size from X-RateLimit-Limit (0 when absent).
	Limit int `json:"limit"`

	// Remaining is the number of calls left from X-RateLimit-Remaining.
	Remaining int `json:"remaining"`

	// ResetAt is when the quota is replenished.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when no blocking or throttling applies.
	IsHealthy bool `json:"is_healthy"`
}

// unknownState is assumed before the source reports anything.
func unknownState() *State {
	return &State{IsHealthy: true}
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsBlock returns true if requests must wait for the quota to reset.
func (s *State) NeedsBlock() bool {
	return s.Known && s.Remaining < RemainingCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Known && s.Remaining < RemainingWarning && !s.NeedsBlock()
}

// TimeUntilReset returns the duration until the quota resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = !s.NeedsBlock() && !s.NeedsThrottling()
}
