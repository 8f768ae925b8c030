package source

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/Sternrassler/stade-map/internal/testutil"
	"github.com/Sternrassler/stade-map/pkg/ratelimit"
)

func newTestClient(t *testing.T, mock *testutil.MockSource) *Client {
	t.Helper()

	cfg := DefaultConfig(nil, "stade-map-test/1.0")
	cfg.BaseURL = mock.URL()

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	valid := DefaultConfig(nil, "TestApp/1.0.0")

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:     "empty base url",
			mutate:   func(c *Config) { c.BaseURL = "" },
			errorMsg: "base url is required",
		},
		{
			name:     "unsupported scheme",
			mutate:   func(c *Config) { c.BaseURL = "ftp://example.com/records" },
			errorMsg: `base url must be http or https (got "ftp")`,
		},
		{
			name:     "empty user agent",
			mutate:   func(c *Config) { c.UserAgent = "" },
			errorMsg: "user-agent is required",
		},
		{
			name:     "missing partition field",
			mutate:   func(c *Config) { c.PartitionField = "" },
			errorMsg: "name, coordinates and partition fields are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			client, err := New(cfg)
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if client == nil {
					t.Error("Client is nil")
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error but got nil")
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(nil, "TestApp/1.0.0")

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.SearchTerm != "stade" {
		t.Errorf("SearchTerm = %q, want stade", cfg.SearchTerm)
	}
	if cfg.PartitionField != "inst_cp" {
		t.Errorf("PartitionField = %q, want inst_cp", cfg.PartitionField)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, should be > 0", cfg.Timeout)
	}
}

func TestPageURL(t *testing.T) {
	client, err := New(DefaultConfig(nil, "TestApp/1.0.0"))
	if err != nil {
		t.Fatal(err)
	}

	raw := client.PageURL("2A", 200, 100)
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("PageURL() returned an invalid URL: %v", err)
	}

	q := u.Query()
	checks := map[string]string{
		"select": "inst_nom, coordonnees",
		"where":  "search(inst_nom, 'stade') AND startswith(inst_cp, '2A')",
		"limit":  "100",
		"offset": "200",
	}
	for param, want := range checks {
		if got := q.Get(param); got != want {
			t.Errorf("%s = %q, want %q", param, got, want)
		}
	}
	if u.Host != "equipements.sports.gouv.fr" {
		t.Errorf("Host = %q", u.Host)
	}
}

func TestFetchPage_Success(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()

	mock.SetPartition("75", append(testutil.Stades("Paris", 2), testutil.StadeWithoutCoordinates("Sans GPS")))
	client := newTestClient(t, mock)

	results, err := client.FetchPage(context.Background(), "75", 0, 100)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3 (raw, unvalidated)", len(results))
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	if reqs[0].Partition != "75" || reqs[0].Limit != 100 || reqs[0].Offset != 0 {
		t.Errorf("request = %+v", reqs[0])
	}
	if reqs[0].UserAgent != "stade-map-test/1.0" {
		t.Errorf("User-Agent = %q", reqs[0].UserAgent)
	}
}

func TestFetchPage_Offset(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()

	mock.SetPartition("13", testutil.Stades("Marseille", 5))
	client := newTestClient(t, mock)

	results, err := client.FetchPage(context.Background(), "13", 3, 2)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(results) != 2 || results[0].InstNom != "Marseille 3" {
		t.Errorf("results = %+v", results)
	}
}

func TestFetchPage_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		class  ErrorClass
	}{
		{"server error", http.StatusInternalServerError, ErrorClassServer},
		{"bad gateway", http.StatusBadGateway, ErrorClassServer},
		{"bad request", http.StatusBadRequest, ErrorClassClient},
		{"too many requests", http.StatusTooManyRequests, ErrorClassRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockSource()
			defer mock.Close()

			mock.FailAt("75", 0, testutil.Failure{StatusCode: tt.status, Body: `{"error_code": "x"}`})
			client := newTestClient(t, mock)

			_, err := client.FetchPage(context.Background(), "75", 0, 100)
			var srcErr *SourceError
			if !errors.As(err, &srcErr) {
				t.Fatalf("error = %v, want *SourceError", err)
			}
			if srcErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", srcErr.StatusCode, tt.status)
			}
			if srcErr.ErrorClass != tt.class {
				t.Errorf("ErrorClass = %q, want %q", srcErr.ErrorClass, tt.class)
			}
		})
	}
}

func TestFetchPage_DecodeError(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()

	mock.FailAt("75", 0, testutil.Failure{StatusCode: http.StatusOK, Body: "<html>maintenance</html>"})
	client := newTestClient(t, mock)

	_, err := client.FetchPage(context.Background(), "75", 0, 100)
	var srcErr *SourceError
	if !errors.As(err, &srcErr) || srcErr.ErrorClass != ErrorClassDecode {
		t.Errorf("error = %v, want decode SourceError", err)
	}
}

func TestFetchPage_NetworkError(t *testing.T) {
	mock := testutil.NewMockSource()
	client := newTestClient(t, mock)
	mock.Close()

	_, err := client.FetchPage(context.Background(), "75", 0, 100)
	var srcErr *SourceError
	if !errors.As(err, &srcErr) || srcErr.ErrorClass != ErrorClassNetwork {
		t.Errorf("error = %v, want network SourceError", err)
	}
}

func TestFetchPage_BlockedByQuota(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()

	mock.SetPartition("75", testutil.Stades("Paris", 1))
	mock.SetHeader(ratelimit.HeaderLimit, "5000")
	mock.SetHeader(ratelimit.HeaderRemaining, "0")
	mock.SetHeader(ratelimit.HeaderReset, "600")
	client := newTestClient(t, mock)
	ctx := context.Background()

	if _, err := client.FetchPage(ctx, "75", 0, 100); err != nil {
		t.Fatalf("first FetchPage() error = %v", err)
	}

	_, err := client.FetchPage(ctx, "75", 0, 100)
	if !errors.Is(err, ErrRequestBlocked) {
		t.Fatalf("second FetchPage() error = %v, want ErrRequestBlocked", err)
	}
	if n := len(mock.Requests()); n != 1 {
		t.Errorf("source saw %d requests, want 1", n)
	}

	state, err := client.RateLimiter().GetState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !state.NeedsBlock() {
		t.Error("tracker should report an exhausted quota")
	}
}

func TestFetchPage_Cancelled(t *testing.T) {
	mock := testutil.NewMockSource()
	defer mock.Close()
	client := newTestClient(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchPage(ctx, "75", 0, 100)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"stade":  "'stade'",
		"75":     "'75'",
		"l'ill": `'l\'ill'`,
	}
	for in, want := range tests {
		if got := quote(in); got != want {
			t.Errorf("quote(%q) = %q, want %q", in, got, want)
		}
	}
}
