package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Sternrassler/stade-map/pkg/overlay"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCommand(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Acquire stadiums in the background and serve the overlays over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	return cmd
}

func runServe(parent context.Context, cfg config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
	}

	a, err := newApp(cfg, rdb)
	if err != nil {
		return err
	}

	go a.loop.Run(ctx)
	go a.orch.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	a.logger.Info().
		Str("addr", srv.Addr).
		Str("source", cfg.SourceURL).
		Str("user_agent", cfg.UserAgent).
		Bool("redis", rdb != nil).
		Msg("Starting stade-map server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	a.logger.Info().Msg("Server stopped")
	return nil
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", a.readyHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /status", a.statusHandler)
	mux.HandleFunc("GET /overlays.geojson", a.overlaysHandler)
	mux.HandleFunc("GET /legend", a.legendHandler)
	mux.HandleFunc("POST /radius", a.radiusHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (a *app) readyHandler(w http.ResponseWriter, r *http.Request) {
	if a.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "Redis not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (a *app) statusHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.panel.Status())
}

func (a *app) overlaysHandler(w http.ResponseWriter, r *http.Request) {
	data, err := a.featureCollection(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("export overlays: %v", err), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

func (a *app) legendHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := a.legend(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("legend: %v", err), http.StatusServiceUnavailable)
		return
	}
	a.writeJSON(w, http.StatusOK, entries)
}

func (a *app) radiusHandler(w http.ResponseWriter, r *http.Request) {
	km, err := strconv.Atoi(r.FormValue("km"))
	if err != nil {
		http.Error(w, "km must be an integer", http.StatusBadRequest)
		return
	}

	snap, err := a.setRadius(r.Context(), km)
	switch {
	case errors.Is(err, overlay.ErrNegativeRadius):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, fmt.Sprintf("rebuild circles: %v", err), http.StatusServiceUnavailable)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

func (a *app) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write response")
	}
}
