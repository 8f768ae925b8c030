package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCommand(cfg *config) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one acquisition and write the overlays as GeoJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return runExport(cmd.Context(), *cfg, w)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExport(ctx context.Context, cfg config, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rdb, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	a, err := newApp(cfg, rdb)
	if err != nil {
		return err
	}
	go a.loop.Run(ctx)

	outcome := a.orch.Run(ctx)

	data, err := a.featureCollection(ctx)
	if err != nil {
		return fmt.Errorf("export overlays: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write overlays: %w", err)
	}

	a.logger.Info().
		Str("outcome", string(outcome.Source)).
		Int("records", outcome.Rendered).
		Msg("Export complete")
	return nil
}
