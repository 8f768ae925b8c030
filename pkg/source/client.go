// Package source provides the HTTP client for the public sports facility
// records API (Opendatasoft explore v2.1, dataset data-es).
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/stade-map/pkg/facility"
	"github.com/Sternrassler/stade-map/pkg/logging"
	"github.com/Sternrassler/stade-map/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for source requests.
var (
	sourceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stademap_source_requests_total",
		Help: "Total page requests by HTTP status",
	}, []string{"status"})

	sourceRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stademap_source_request_duration_seconds",
		Help:    "Page request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	sourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stademap_source_errors_total",
		Help: "Total page request errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the records endpoint of the public sports facility dataset.
const DefaultBaseURL = "https://equipements.sports.gouv.fr/api/explore/v2.1/catalog/datasets/data-es/records"

// Config holds the client configuration.
type Config struct {
	// BaseURL is the records endpoint.
	BaseURL string

	// UserAgent identifies this application to the source.
	UserAgent string

	// SearchTerm is matched against NameField with search().
	SearchTerm string

	// NameField holds the facility name.
	NameField string

	// CoordinatesField holds the {lat, lon} object.
	CoordinatesField string

	// PartitionField is matched against the partition key with startswith().
	PartitionField string

	// Timeout bounds a single page request.
	Timeout time.Duration

	// Redis, when set, shares rate limit state between processes.
	Redis *redis.Client
}

// DefaultConfig returns the configuration matching the public dataset.
func DefaultConfig(redisClient *redis.Client, userAgent string) Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		UserAgent:        userAgent,
		SearchTerm:       "stade",
		NameField:        "inst_nom",
		CoordinatesField: "coordonnees",
		PartitionField:   "inst_cp",
		Timeout:          30 * time.Second,
		Redis:            redisClient,
	}
}

// Client fetches record pages from the source.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	baseURL     *url.URL
	config      Config
	logger      zerolog.Logger
}

// pageResponse is the JSON envelope of a records page.
type pageResponse struct {
	TotalCount int                  `json:"total_count"`
	Results    []facility.RawRecord `json:"results"`
}

// New creates a new source client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", baseURL.Scheme)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.NameField == "" || cfg.PartitionField == "" || cfg.CoordinatesField == "" {
		return nil, fmt.Errorf("name, coordinates and partition fields are required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger("source")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		baseURL:     baseURL,
		config:      cfg,
		logger:      logger,
	}, nil
}

// PageURL builds the request URL for one page of a partition.
func (c *Client) PageURL(key string, offset, limit int) string {
	q := url.Values{}
	q.Set("select", c.config.NameField+", "+c.config.CoordinatesField)
	q.Set("where", fmt.Sprintf("search(%s, %s) AND startswith(%s, %s)",
		c.config.NameField, quote(c.config.SearchTerm),
		c.config.PartitionField, quote(key)))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	u := *c.baseURL
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage requests one page of records for a partition. The returned
// slice holds every raw result, valid or not.
func (c *Client) FetchPage(ctx context.Context, key string, offset, limit int) ([]facility.RawRecord, error) {
	startTime := time.Now()
	defer func() {
		sourceRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		return nil, c.fail(&SourceError{ErrorClass: ErrorClassNetwork, Message: "rate limit check", Err: err}, "rate_limit_check")
	}
	if !allowed {
		return nil, c.fail(&SourceError{ErrorClass: ErrorClassRateLimit, Message: "quota exhausted", Err: ErrRequestBlocked}, "blocked")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(key, offset, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("partition", key).
		Int("offset", offset).
		Int("limit", limit).
		Msg("Requesting page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(&SourceError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}, "network_error")
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded amount so the connection can be reused.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, c.fail(&SourceError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
			Err:        bodyError(body),
		}, strconv.Itoa(resp.StatusCode))
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, c.fail(&SourceError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode page",
			Err:        err,
		}, "decode_error")
	}

	sourceRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	c.logger.Debug().
		Str("partition", key).
		Int("offset", offset).
		Int("raw_count", len(page.Results)).
		Int("total_count", page.TotalCount).
		Msg("Page received")

	return page.Results, nil
}

// fail records metrics for err and returns it.
func (c *Client) fail(err *SourceError, status string) error {
	sourceRequestsTotal.WithLabelValues(status).Inc()
	sourceErrorsTotal.WithLabelValues(string(err.ErrorClass)).Inc()
	return err
}

// RateLimiter returns the tracker consulted before every request.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// quote renders s as an ODSQL string literal.
func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}

func bodyError(body []byte) error {
	if len(body) == 0 {
		return nil
	}
	return errors.New(string(body))
}
