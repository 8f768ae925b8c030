// Package overlay keeps map overlays in sync with the acquired records.
//
// A Store owns the live marker cluster and the radius circles drawn around
// each marker. Every update retires the previous layers before installing
// new ones, so the map never shows stale overlays.
package overlay

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Handle identifies a layer created on a Map. Handles are never reused.
type Handle uint64

// MarkerStyle describes a point marker.
type MarkerStyle struct {
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fill_color"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fill_opacity"`
}

// CircleStyle describes a radius circle.
type CircleStyle struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fill_color"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fill_opacity"`
}

// Default styles.
var (
	DefaultMarkerStyle = MarkerStyle{
		Radius:      5,
		FillColor:   "#e74c3c",
		Color:       "#c0392b",
		Weight:      1,
		Opacity:     1,
		FillOpacity: 0.8,
	}

	DefaultCircleStyle = CircleStyle{
		Color:       "#7f8c8d",
		FillColor:   "transparent",
		Weight:      2,
		FillOpacity: 0,
	}
)

// Map is the rendering surface. Layers are created detached; Add attaches
// them and Remove detaches and destroys them.
type Map interface {
	CreateMarker(at LatLng, style MarkerStyle) Handle
	BindPopup(h Handle, text string)
	CreateCircle(center LatLng, radiusMeters float64, style CircleStyle) Handle
	// CreateCluster groups markers so that they are attached and removed together.
	CreateCluster(markers []Handle) Handle
	Add(h Handle)
	Remove(h Handle)
}
