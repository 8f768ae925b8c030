package pagination

import (
	"context"

	"github.com/Sternrassler/stade-map/pkg/facility"
	"github.com/Sternrassler/stade-map/pkg/logging"
	"github.com/Sternrassler/stade-map/pkg/partition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for pagination.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stademap_pages_fetched_total",
		Help: "Total pages received from the source",
	})

	recordsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stademap_records_accepted_total",
		Help: "Total records kept after coordinate validation",
	})

	recordsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stademap_records_skipped_total",
		Help: "Total records dropped for missing coordinates",
	})

	partitionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stademap_partition_failures_total",
		Help: "Total partitions abandoned after a page fetch error",
	})
)

// DefaultPageSize is the number of results requested per page.
const DefaultPageSize = 100

// Config holds fetcher configuration.
type Config struct {
	// PageSize is the limit sent with every page request.
	PageSize int
}

// DefaultConfig returns the page size used against the public source.
func DefaultConfig() Config {
	return Config{
		PageSize: DefaultPageSize,
	}
}

// PageFetcher is the interface the source client implements for single-page fetching.
type PageFetcher interface {
	// FetchPage returns the raw results of one page, before validation.
	FetchPage(ctx context.Context, key string, offset, limit int) ([]facility.RawRecord, error)
}

// Fetcher drains partitions sequentially.
type Fetcher struct {
	pages  PageFetcher
	config Config
	logger zerolog.Logger
}

// NewFetcher creates a new partition fetcher.
func NewFetcher(pages PageFetcher, config Config) *Fetcher {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}

	return &Fetcher{
		pages:  pages,
		config: config,
		logger: logging.NewLogger("pagination"),
	}
}

// PageSize returns the configured page size.
func (f *Fetcher) PageSize() int {
	return f.config.PageSize
}

// FetchPartition returns every valid record of the partition. A failed page
// ends the partition: the records gathered before it are returned and the
// error is only logged.
func (f *Fetcher) FetchPartition(ctx context.Context, key partition.Key) []facility.Record {
	limit := f.config.PageSize
	records := make([]facility.Record, 0)
	offset := 0
	pages := 0

	for {
		raw, err := f.pages.FetchPage(ctx, key.String(), offset, limit)
		if err != nil {
			partitionFailuresTotal.Inc()
			f.logger.Warn().
				Err(err).
				Str("partition", key.String()).
				Int("offset", offset).
				Int("records", len(records)).
				Msg("Page fetch failed - abandoning partition")
			return records
		}
		pages++
		pagesFetchedTotal.Inc()

		valid, skipped := facility.Validate(raw)
		records = append(records, valid...)
		recordsAcceptedTotal.Add(float64(len(valid)))
		recordsSkippedTotal.Add(float64(skipped))

		if len(raw) == 0 || len(raw) < limit {
			break
		}
		offset += limit
	}

	f.logger.Debug().
		Str("partition", key.String()).
		Int("pages", pages).
		Int("records", len(records)).
		Msg("Partition exhausted")

	return records
}
