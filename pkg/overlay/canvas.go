package overlay

import (
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

type layerKind string

const (
	kindMarker  layerKind = "marker"
	kindCircle  layerKind = "circle"
	kindCluster layerKind = "cluster"
)

type layer struct {
	kind    layerKind
	at      LatLng
	radius  float64
	marker  MarkerStyle
	circle  CircleStyle
	popup   string
	members []Handle
}

// Canvas is a headless Map. It tracks attached layers and exports them as
// GeoJSON for a browser front-end. Canvas is not safe for concurrent use.
type Canvas struct {
	next     Handle
	layers   map[Handle]*layer
	attached map[Handle]bool
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{
		layers:   make(map[Handle]*layer),
		attached: make(map[Handle]bool),
	}
}

func (c *Canvas) create(l *layer) Handle {
	c.next++
	c.layers[c.next] = l
	return c.next
}

// CreateMarker implements Map.
func (c *Canvas) CreateMarker(at LatLng, style MarkerStyle) Handle {
	return c.create(&layer{kind: kindMarker, at: at, marker: style})
}

// BindPopup implements Map. Unknown handles are ignored.
func (c *Canvas) BindPopup(h Handle, text string) {
	if l, ok := c.layers[h]; ok {
		l.popup = text
	}
}

// CreateCircle implements Map.
func (c *Canvas) CreateCircle(center LatLng, radiusMeters float64, style CircleStyle) Handle {
	return c.create(&layer{kind: kindCircle, at: center, radius: radiusMeters, circle: style})
}

// CreateCluster implements Map.
func (c *Canvas) CreateCluster(markers []Handle) Handle {
	members := make([]Handle, len(markers))
	copy(members, markers)
	return c.create(&layer{kind: kindCluster, members: members})
}

// Add implements Map.
func (c *Canvas) Add(h Handle) {
	if _, ok := c.layers[h]; ok {
		c.attached[h] = true
	}
}

// Remove implements Map. Removing a cluster destroys its markers too.
func (c *Canvas) Remove(h Handle) {
	l, ok := c.layers[h]
	if !ok {
		return
	}
	for _, m := range l.members {
		delete(c.layers, m)
	}
	delete(c.attached, h)
	delete(c.layers, h)
}

// LiveMarkers counts markers visible on the canvas, directly or via a cluster.
func (c *Canvas) LiveMarkers() int {
	n := 0
	for h := range c.attached {
		l := c.layers[h]
		switch l.kind {
		case kindMarker:
			n++
		case kindCluster:
			n += len(l.members)
		}
	}
	return n
}

// LiveCircles counts circles attached to the canvas.
func (c *Canvas) LiveCircles() int {
	n := 0
	for h := range c.attached {
		if c.layers[h].kind == kindCircle {
			n++
		}
	}
	return n
}

// Layers counts every layer not yet removed, attached or not.
func (c *Canvas) Layers() int {
	return len(c.layers)
}

// CircleRadii returns the radius in meters of every attached circle.
func (c *Canvas) CircleRadii() []float64 {
	var radii []float64
	for _, h := range c.sortedAttached() {
		if l := c.layers[h]; l.kind == kindCircle {
			radii = append(radii, l.radius)
		}
	}
	return radii
}

// FeatureCollection exports attached markers and circles as Point features
// in creation order.
func (c *Canvas) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, h := range c.sortedAttached() {
		l := c.layers[h]
		switch l.kind {
		case kindMarker:
			fc.AddFeature(c.markerFeature(h, l, 0))
		case kindCluster:
			for _, m := range l.members {
				if ml, ok := c.layers[m]; ok {
					fc.AddFeature(c.markerFeature(m, ml, h))
				}
			}
		case kindCircle:
			f := geojson.NewPointFeature([]float64{l.at.Lng, l.at.Lat})
			f.ID = uint64(h)
			f.SetProperty("kind", string(kindCircle))
			f.SetProperty("radius_m", l.radius)
			f.SetProperty("color", l.circle.Color)
			f.SetProperty("fill_color", l.circle.FillColor)
			f.SetProperty("weight", l.circle.Weight)
			f.SetProperty("fill_opacity", l.circle.FillOpacity)
			fc.AddFeature(f)
		}
	}
	return fc
}

func (c *Canvas) markerFeature(h Handle, l *layer, cluster Handle) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{l.at.Lng, l.at.Lat})
	f.ID = uint64(h)
	f.SetProperty("kind", string(kindMarker))
	f.SetProperty("popup", l.popup)
	f.SetProperty("radius", l.marker.Radius)
	f.SetProperty("color", l.marker.Color)
	f.SetProperty("fill_color", l.marker.FillColor)
	f.SetProperty("weight", l.marker.Weight)
	f.SetProperty("opacity", l.marker.Opacity)
	f.SetProperty("fill_opacity", l.marker.FillOpacity)
	if cluster != 0 {
		f.SetProperty("cluster", uint64(cluster))
	}
	return f
}

func (c *Canvas) sortedAttached() []Handle {
	handles := make([]Handle, 0, len(c.attached))
	for h := range c.attached {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}
