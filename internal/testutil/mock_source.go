// Package testutil provides testing utilities for stade-map.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"

	"github.com/Sternrassler/stade-map/pkg/facility"
)

// RecordsPath is the path served by MockSource.
const RecordsPath = "/api/explore/v2.1/catalog/datasets/data-es/records"

var partitionPattern = regexp.MustCompile(`startswith\(inst_cp, '([^']*)'\)`)

// Request is one page request observed by MockSource.
type Request struct {
	Partition string
	Offset    int
	Limit     int
	Select    string
	Where     string
	UserAgent string
}

// Failure makes MockSource answer a given partition and offset with a status.
type Failure struct {
	StatusCode int
	Body       string
}

// MockSource is a configurable stand-in for the records API.
type MockSource struct {
	server *httptest.Server

	mu         sync.RWMutex
	partitions map[string][]facility.RawRecord
	failures   map[string]map[int]Failure
	headers    map[string]string
	requests   []Request
}

// NewMockSource creates and starts a new mock records API.
func NewMockSource() *MockSource {
	m := &MockSource{
		partitions: make(map[string][]facility.RawRecord),
		failures:   make(map[string]map[int]Failure),
		headers:    make(map[string]string),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the base URL of the records endpoint.
func (m *MockSource) URL() string {
	return m.server.URL + RecordsPath
}

// Close shuts down the mock server.
func (m *MockSource) Close() {
	m.server.Close()
}

// SetPartition replaces the records served for a partition.
func (m *MockSource) SetPartition(key string, records []facility.RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partitions[key] = records
}

// FailAt makes the page of key starting at offset fail with f.
func (m *MockSource) FailAt(key string, offset int, f Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[key] == nil {
		m.failures[key] = make(map[int]Failure)
	}
	m.failures[key][offset] = f
}

// SetHeader adds a header to every response.
func (m *MockSource) SetHeader(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[key] = value
}

// Requests returns a copy of the requests received so far.
func (m *MockSource) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Partitions returns the partition of every request, in arrival order.
func (m *MockSource) Partitions() []string {
	reqs := m.Requests()
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Partition)
	}
	return out
}

func (m *MockSource) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != RecordsPath {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	req := Request{
		Select:    q.Get("select"),
		Where:     q.Get("where"),
		UserAgent: r.Header.Get("User-Agent"),
	}
	if match := partitionPattern.FindStringSubmatch(req.Where); match != nil {
		req.Partition = match[1]
	}
	req.Offset, _ = strconv.Atoi(q.Get("offset"))
	req.Limit, _ = strconv.Atoi(q.Get("limit"))

	m.mu.Lock()
	m.requests = append(m.requests, req)
	for k, v := range m.headers {
		w.Header().Set(k, v)
	}
	failure, failed := m.failures[req.Partition][req.Offset]
	records := m.partitions[req.Partition]
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if failed {
		w.WriteHeader(failure.StatusCode)
		w.Write([]byte(failure.Body))
		return
	}

	page := []facility.RawRecord{}
	if req.Offset < len(records) {
		end := len(records)
		if req.Limit > 0 && req.Offset+req.Limit < end {
			end = req.Offset + req.Limit
		}
		page = records[req.Offset:end]
	}

	json.NewEncoder(w).Encode(map[string]any{
		"total_count": len(records),
		"results":     page,
	})
}

// Stade builds a raw record with coordinates.
func Stade(name string, lat, lon float64) facility.RawRecord {
	return facility.RawRecord{
		InstNom:     name,
		Coordonnees: &facility.Coordinates{Lat: &lat, Lon: &lon},
	}
}

// StadeWithoutCoordinates builds a raw record that fails validation.
func StadeWithoutCoordinates(name string) facility.RawRecord {
	return facility.RawRecord{InstNom: name}
}

// Stades builds n valid raw records named after prefix.
func Stades(prefix string, n int) []facility.RawRecord {
	out := make([]facility.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Stade(prefix+" "+strconv.Itoa(i), 45+float64(i)/1000, 2+float64(i)/1000))
	}
	return out
}
