package progress

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Default Redis names used by RedisSink.
const (
	DefaultStatusKey = "stademap:status"
	DefaultChannel   = "stademap:progress"
)

// Event is the JSON payload published on the progress channel.
type Event struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Update  *Update  `json:"update,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

// RedisSink stores the latest status text under a key and publishes every
// observation on a channel. Redis failures are logged and never interrupt
// acquisition.
type RedisSink struct {
	redis   *redis.Client
	key     string
	channel string
	logger  zerolog.Logger
}

// NewRedisSink creates a sink writing to the default key and channel.
func NewRedisSink(client *redis.Client, logger zerolog.Logger) *RedisSink {
	return &RedisSink{
		redis:   client,
		key:     DefaultStatusKey,
		channel: DefaultChannel,
		logger:  logger,
	}
}

// Step implements Sink.
func (r *RedisSink) Step(ctx context.Context, u Update) {
	r.publish(ctx, Event{Type: "step", Text: u.Text(), Update: &u})
}

// Done implements Sink.
func (r *RedisSink) Done(ctx context.Context, s Summary) {
	r.publish(ctx, Event{Type: "done", Text: "done", Summary: &s})
}

func (r *RedisSink) publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to encode progress event")
		return
	}

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, r.key, ev.Text, 0)
	pipe.Publish(ctx, r.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn().Err(err).Str("event", ev.Type).Msg("Failed to publish progress")
	}
}
