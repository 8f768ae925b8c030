package overlay

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/stade-map/pkg/facility"
	"github.com/Sternrassler/stade-map/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for overlay state.
var (
	overlayMarkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stademap_overlay_markers",
		Help: "Number of live markers",
	})

	overlayCircles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stademap_overlay_circles",
		Help: "Number of live radius circles",
	})

	overlayRebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stademap_overlay_rebuilds_total",
		Help: "Total overlay updates by operation",
	}, []string{"operation"})
)

// DefaultRadiusKm is the circle radius before any user input.
const DefaultRadiusKm = 5

// ErrNegativeRadius is returned for radii below zero.
var ErrNegativeRadius = errors.New("radius must be >= 0")

type marker struct {
	handle Handle
	at     LatLng
}

// state is one complete set of live overlays.
type state struct {
	cluster    Handle
	hasCluster bool
	markers    []marker
	circles    []Handle
}

// Snapshot describes the live overlays.
type Snapshot struct {
	Markers    int  `json:"markers"`
	Circles    int  `json:"circles"`
	RadiusKm   int  `json:"radius_km"`
	HasCluster bool `json:"has_cluster"`
}

// Store owns the live overlays of one map. It is not safe for concurrent
// use; callers serialize access (see package eventloop).
type Store struct {
	m        Map
	radiusKm int
	live     state
	logger   zerolog.Logger
}

// NewStore creates an empty store drawing on m with the given initial radius.
func NewStore(m Map, radiusKm int) (*Store, error) {
	if m == nil {
		return nil, fmt.Errorf("map is required")
	}
	if radiusKm < 0 {
		return nil, fmt.Errorf("initial radius %d: %w", radiusKm, ErrNegativeRadius)
	}
	return &Store{
		m:        m,
		radiusKm: radiusKm,
		logger:   logging.NewLogger("overlay"),
	}, nil
}

// Radius returns the configured circle radius in kilometers.
func (s *Store) Radius() int {
	return s.radiusKm
}

// ReplaceAll retires every live overlay, then installs one marker and one
// circle per valid record. It returns the number of markers installed.
func (s *Store) ReplaceAll(records []facility.Record) int {
	s.retireAll()

	next := state{
		markers: make([]marker, 0, len(records)),
		circles: make([]Handle, 0, len(records)),
	}
	handles := make([]Handle, 0, len(records))
	radius := meters(s.radiusKm)

	for _, rec := range records {
		if !rec.Valid() {
			continue
		}
		at := LatLng{Lat: rec.Latitude, Lng: rec.Longitude}

		h := s.m.CreateMarker(at, DefaultMarkerStyle)
		s.m.BindPopup(h, rec.Name)
		handles = append(handles, h)
		next.markers = append(next.markers, marker{handle: h, at: at})

		next.circles = append(next.circles, s.m.CreateCircle(at, radius, DefaultCircleStyle))
	}

	next.cluster = s.m.CreateCluster(handles)
	next.hasCluster = true
	s.m.Add(next.cluster)
	for _, c := range next.circles {
		s.m.Add(c)
	}

	s.live = next
	s.observe("replace_all")

	s.logger.Debug().
		Int("markers", len(next.markers)).
		Int("radius_km", s.radiusKm).
		Msg("Overlays replaced")

	return len(next.markers)
}

// RebuildCircles sets the radius and redraws one circle per live marker.
// Markers are left untouched.
func (s *Store) RebuildCircles(radiusKm int) error {
	if radiusKm < 0 {
		return fmt.Errorf("rebuild circles with radius %d: %w", radiusKm, ErrNegativeRadius)
	}
	s.radiusKm = radiusKm

	for _, c := range s.live.circles {
		s.m.Remove(c)
	}

	radius := meters(radiusKm)
	circles := make([]Handle, 0, len(s.live.markers))
	for _, mk := range s.live.markers {
		c := s.m.CreateCircle(mk.at, radius, DefaultCircleStyle)
		s.m.Add(c)
		circles = append(circles, c)
	}
	s.live.circles = circles
	s.observe("rebuild_circles")

	s.logger.Info().
		Int("radius_km", radiusKm).
		Int("circles", len(circles)).
		Msg("Circles rebuilt")

	return nil
}

// Snapshot returns the current overlay counts.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Markers:    len(s.live.markers),
		Circles:    len(s.live.circles),
		RadiusKm:   s.radiusKm,
		HasCluster: s.live.hasCluster,
	}
}

func (s *Store) retireAll() {
	if s.live.hasCluster {
		s.m.Remove(s.live.cluster)
	}
	for _, c := range s.live.circles {
		s.m.Remove(c)
	}
	s.live = state{}
}

func (s *Store) observe(operation string) {
	overlayRebuildsTotal.WithLabelValues(operation).Inc()
	overlayMarkers.Set(float64(len(s.live.markers)))
	overlayCircles.Set(float64(len(s.live.circles)))
}

func meters(km int) float64 {
	return float64(km) * 1000
}
