// Package acquisition drives one pass over the partition key space.
//
// A run visits every key in order, one at a time, accumulating validated
// records. Steps are spaced by a fixed delay. Once the last key has been
// processed the accumulated records are rendered; when nothing was found, or
// when the run fails unexpectedly, the static fallback dataset is rendered
// instead. Every run ends with one rendered dataset and one Done
// notification.
package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/stade-map/pkg/facility"
	"github.com/Sternrassler/stade-map/pkg/logging"
	"github.com/Sternrassler/stade-map/pkg/partition"
	"github.com/Sternrassler/stade-map/pkg/progress"
	"github.com/Sternrassler/stade-map/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for acquisition runs.
var (
	acquisitionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stademap_acquisition_runs_total",
		Help: "Total completed acquisition runs by outcome",
	}, []string{"outcome"})

	acquisitionRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stademap_acquisition_records",
		Help: "Records rendered by the last acquisition run",
	})

	partitionsVisitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stademap_acquisition_partitions_visited_total",
		Help: "Total partition steps executed",
	})
)

// PartitionFetcher returns every valid record of one partition. It never
// fails; errors are handled below this interface.
type PartitionFetcher interface {
	FetchPartition(ctx context.Context, key partition.Key) []facility.Record
}

// Renderer replaces the displayed overlays with records.
type Renderer interface {
	Render(ctx context.Context, records []facility.Record) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(ctx context.Context, records []facility.Record) error

// Render implements Renderer.
func (f RenderFunc) Render(ctx context.Context, records []facility.Record) error {
	return f(ctx, records)
}

// Config holds orchestrator configuration.
type Config struct {
	// Keys is the enumeration order. nil means every department.
	Keys []partition.Key

	// Delay separates two partition steps.
	Delay time.Duration

	// Fallback supplies the records rendered when a run finds nothing.
	Fallback func() []facility.Record
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Keys:     partition.Departements(),
		Delay:    ratelimit.DefaultStepDelay,
		Fallback: facility.Fallback,
	}
}

// State is the mutable accumulation of one run.
type State struct {
	// Records grows monotonically; it is never reset within a run.
	Records []facility.Record

	// Index is the position of the next key to visit.
	Index int
}

// Outcome describes how a run ended.
type Outcome struct {
	Source     progress.Source
	Rendered   int
	Collected  int
	Partitions int
	Duration   time.Duration
}

// Summary converts the outcome for progress sinks.
func (o Outcome) Summary() progress.Summary {
	return progress.Summary{
		Source:     o.Source,
		Records:    o.Rendered,
		Partitions: o.Partitions,
		Duration:   o.Duration,
	}
}

// Orchestrator sequences partition fetches and the final render.
type Orchestrator struct {
	fetcher  PartitionFetcher
	renderer Renderer
	sink     progress.Sink
	keys     []partition.Key
	pacer    *ratelimit.Pacer
	fallback func() []facility.Record
	logger   zerolog.Logger
}

// New creates an orchestrator. A nil sink discards progress.
func New(fetcher PartitionFetcher, renderer Renderer, sink progress.Sink, cfg Config) *Orchestrator {
	if cfg.Keys == nil {
		cfg.Keys = partition.Departements()
	}
	if cfg.Fallback == nil {
		cfg.Fallback = facility.Fallback
	}
	if sink == nil {
		sink = progress.Multi{}
	}

	keys := make([]partition.Key, len(cfg.Keys))
	copy(keys, cfg.Keys)

	return &Orchestrator{
		fetcher:  fetcher,
		renderer: renderer,
		sink:     sink,
		keys:     keys,
		pacer:    ratelimit.NewPacer(cfg.Delay),
		fallback: cfg.Fallback,
		logger:   logging.NewLogger("acquisition"),
	}
}

// Keys returns the enumeration order of this orchestrator.
func (o *Orchestrator) Keys() []partition.Key {
	keys := make([]partition.Key, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Step visits the key at st.Index: it fetches the partition, appends the
// result and reports progress. A cancelled context skips the fetch so the
// partition contributes nothing.
func (o *Orchestrator) Step(ctx context.Context, st *State) {
	key := o.keys[st.Index]

	var recs []facility.Record
	if ctx.Err() == nil {
		recs = o.fetcher.FetchPartition(ctx, key)
	}
	st.Records = append(st.Records, recs...)
	partitionsVisitedTotal.Inc()

	o.sink.Step(ctx, progress.Update{
		Index: st.Index,
		Total: len(o.keys),
		Key:   key.String(),
		Count: len(st.Records),
	})
	st.Index++
}

// Done reports whether every key has been visited.
func (o *Orchestrator) Done(st *State) bool {
	return st.Index >= len(o.keys)
}

// Run executes one acquisition pass to completion. It always renders
// exactly one dataset and returns which one.
func (o *Orchestrator) Run(ctx context.Context) (out Outcome) {
	start := time.Now()
	st := &State{Records: make([]facility.Record, 0)}

	o.logger.Info().
		Int("partitions", len(o.keys)).
		Dur("step_delay", o.pacer.Delay()).
		Msg("Acquisition started")

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Interface("panic", r).
				Int("index", st.Index).
				Int("records", len(st.Records)).
				Msg("Acquisition failed - rendering fallback dataset")
			out = o.finishFallback(ctx, st, start)
		}
	}()

	for !o.Done(st) {
		o.Step(ctx, st)
		if !o.Done(st) {
			// Cancellation ends the wait early; the remaining steps then skip their fetches.
			_ = o.pacer.Wait(ctx)
		}
	}

	if len(st.Records) == 0 {
		return o.finishFallback(ctx, st, start)
	}

	if err := o.renderer.Render(ctx, st.Records); err != nil {
		o.logger.Error().Err(err).Msg("Render failed - rendering fallback dataset")
		return o.finishFallback(ctx, st, start)
	}
	return o.finish(ctx, st, start, progress.SourceLive, len(st.Records))
}

func (o *Orchestrator) finishFallback(ctx context.Context, st *State, start time.Time) Outcome {
	recs := o.fallback()
	if err := o.renderFallback(ctx, recs); err != nil {
		o.logger.Error().Err(err).Msg("Fallback render failed")
	}
	return o.finish(ctx, st, start, progress.SourceFallback, len(recs))
}

func (o *Orchestrator) renderFallback(ctx context.Context, recs []facility.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fallback render panicked: %v", r)
		}
	}()
	o.logger.Warn().Int("records", len(recs)).Msg("No stadiums acquired - rendering fallback dataset")
	return o.renderer.Render(ctx, recs)
}

func (o *Orchestrator) finish(ctx context.Context, st *State, start time.Time, src progress.Source, rendered int) Outcome {
	out := Outcome{
		Source:     src,
		Rendered:   rendered,
		Collected:  len(st.Records),
		Partitions: st.Index,
		Duration:   time.Since(start),
	}

	acquisitionRunsTotal.WithLabelValues(string(src)).Inc()
	acquisitionRecords.Set(float64(rendered))

	o.notifyDone(ctx, out)

	o.logger.Info().
		Str("outcome", string(src)).
		Int("records", out.Collected).
		Int("rendered", rendered).
		Int("partitions", out.Partitions).
		Dur("duration", out.Duration).
		Msgf("%d stadiums loaded", out.Collected)

	return out
}

func (o *Orchestrator) notifyDone(ctx context.Context, out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("Progress sink panicked on completion")
		}
	}()
	o.sink.Done(ctx, out.Summary())
}
