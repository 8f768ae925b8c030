// Package progress reports acquisition progress to status displays.
package progress

import (
	"context"
	"fmt"
	"time"
)

// Source tells which dataset a run rendered.
type Source string

const (
	// SourceLive means the records came from the remote source.
	SourceLive Source = "live"

	// SourceFallback means the demo dataset was rendered.
	SourceFallback Source = "fallback"
)

// Update is emitted once per partition step.
type Update struct {
	// Index is the zero-based position of the partition just processed.
	Index int `json:"index"`

	// Total is the number of partitions in the run.
	Total int `json:"total"`

	// Key is the partition just processed.
	Key string `json:"key"`

	// Count is the number of records accumulated so far.
	Count int `json:"count"`
}

// Text renders the status line shown in the status panel.
func (u Update) Text() string {
	return fmt.Sprintf("Loading stadiums... (%d stadiums loaded, department %s)", u.Count, u.Key)
}

// Summary is emitted once when a run ends.
type Summary struct {
	Source     Source        `json:"source"`
	Records    int           `json:"records"`
	Partitions int           `json:"partitions"`
	Duration   time.Duration `json:"duration"`
}

// Sink receives progress observations in partition order.
type Sink interface {
	Step(ctx context.Context, u Update)
	Done(ctx context.Context, s Summary)
}

// Multi fans observations out to several sinks in order.
type Multi []Sink

// Step implements Sink.
func (m Multi) Step(ctx context.Context, u Update) {
	for _, s := range m {
		s.Step(ctx, u)
	}
}

// Done implements Sink.
func (m Multi) Done(ctx context.Context, s Summary) {
	for _, sink := range m {
		sink.Done(ctx, s)
	}
}
