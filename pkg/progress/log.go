package progress

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes progress to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink that logs through logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Step implements Sink.
func (l *LogSink) Step(_ context.Context, u Update) {
	l.logger.Debug().
		Str("partition", u.Key).
		Int("index", u.Index).
		Int("total", u.Total).
		Int("records", u.Count).
		Msg(u.Text())
}

// Done implements Sink.
func (l *LogSink) Done(_ context.Context, s Summary) {
	l.logger.Info().
		Str("source", string(s.Source)).
		Int("records", s.Records).
		Int("partitions", s.Partitions).
		Dur("duration", s.Duration).
		Msgf("%d stadiums loaded", s.Records)
}
