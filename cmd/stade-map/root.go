package main

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/stade-map/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cfg := loadConfig()

	cmd := &cobra.Command{
		Use:   "stade-map",
		Short: "Map of French public sports stadiums",
		Long: "stade-map walks every department of the equipements.sports.gouv.fr dataset,\n" +
			"collects the stadiums that have coordinates and draws them as markers with\n" +
			"an adjustable radius circle.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.LogLevel),
				Pretty: cfg.LogPretty,
			})
		},
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfg.SourceURL, "source-url", cfg.SourceURL, "records endpoint of the data source")
	pf.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent sent to the data source")
	pf.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "results requested per page")
	pf.DurationVar(&cfg.StepDelay, "step-delay", cfg.StepDelay, "pause between two departments")
	pf.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis address or redis:// URL (optional)")
	pf.IntVar(&cfg.RadiusKm, "radius", cfg.RadiusKm, "initial circle radius in km")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "human-readable log output")
	pf.StringSliceVar(&cfg.Partitions, "partitions", cfg.Partitions, "department codes to visit (default: all)")

	cmd.AddCommand(newServeCommand(&cfg), newExportCommand(&cfg))
	return cmd
}

// newRedisClient returns nil when no Redis is configured. Both plain
// host:port addresses and redis:// URLs are accepted.
func newRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	if strings.Contains(redisURL, "://") {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}
