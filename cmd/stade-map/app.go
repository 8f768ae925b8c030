package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/stade-map/pkg/acquisition"
	"github.com/Sternrassler/stade-map/pkg/eventloop"
	"github.com/Sternrassler/stade-map/pkg/facility"
	"github.com/Sternrassler/stade-map/pkg/logging"
	"github.com/Sternrassler/stade-map/pkg/overlay"
	"github.com/Sternrassler/stade-map/pkg/pagination"
	"github.com/Sternrassler/stade-map/pkg/partition"
	"github.com/Sternrassler/stade-map/pkg/progress"
	"github.com/Sternrassler/stade-map/pkg/source"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app wires the acquisition pipeline to the overlays. Store and canvas are
// only touched from loop tasks.
type app struct {
	redis  *redis.Client
	loop   *eventloop.Loop
	canvas *overlay.Canvas
	store  *overlay.Store
	panel  *progress.Panel
	orch   *acquisition.Orchestrator
	logger zerolog.Logger
}

func newApp(cfg config, rdb *redis.Client) (*app, error) {
	srcCfg := source.DefaultConfig(rdb, cfg.UserAgent)
	srcCfg.BaseURL = cfg.SourceURL
	src, err := source.New(srcCfg)
	if err != nil {
		return nil, fmt.Errorf("create source client: %w", err)
	}

	canvas := overlay.NewCanvas()
	store, err := overlay.NewStore(canvas, cfg.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("create overlay store: %w", err)
	}

	panel := progress.NewPanel()
	progressLogger := logging.NewLogger("progress")
	sinks := progress.Multi{panel, progress.NewLogSink(progressLogger)}
	if rdb != nil {
		sinks = append(sinks, progress.NewRedisSink(rdb, progressLogger))
	}

	var keys []partition.Key
	if len(cfg.Partitions) > 0 {
		keys = partition.Parse(cfg.Partitions)
	}

	a := &app{
		redis:  rdb,
		loop:   eventloop.New(eventloop.DefaultQueueSize),
		canvas: canvas,
		store:  store,
		panel:  panel,
		logger: logging.NewLogger("server"),
	}

	fetcher := pagination.NewFetcher(src, pagination.Config{PageSize: cfg.PageSize})
	a.orch = acquisition.New(fetcher, acquisition.RenderFunc(a.render), sinks, acquisition.Config{
		Keys:     keys,
		Delay:    cfg.StepDelay,
		Fallback: facility.Fallback,
	})

	return a, nil
}

// render replaces the overlays on the loop and waits for it.
func (a *app) render(ctx context.Context, records []facility.Record) error {
	return a.loop.Do(ctx, func() error {
		a.store.ReplaceAll(records)
		return nil
	})
}

// setRadius handles a "radius changed" event.
func (a *app) setRadius(ctx context.Context, km int) (overlay.Snapshot, error) {
	var snap overlay.Snapshot
	err := a.loop.Do(ctx, func() error {
		if err := a.store.RebuildCircles(km); err != nil {
			return err
		}
		snap = a.store.Snapshot()
		return nil
	})
	return snap, err
}

func (a *app) featureCollection(ctx context.Context) ([]byte, error) {
	var data []byte
	err := a.loop.Do(ctx, func() error {
		var err error
		data, err = a.canvas.FeatureCollection().MarshalJSON()
		return err
	})
	return data, err
}

func (a *app) legend(ctx context.Context) ([]overlay.LegendEntry, error) {
	var entries []overlay.LegendEntry
	err := a.loop.Do(ctx, func() error {
		entries = overlay.Legend(a.store.Radius())
		return nil
	})
	return entries, err
}
