// Package facility defines the geolocated facility record and its wire form.
package facility

import "math"

// Record is a validated facility with a position.
type Record struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the record carries usable coordinates.
// NaN stands in for a missing value when records are built by hand.
func (r Record) Valid() bool {
	return !math.IsNaN(r.Latitude) && !math.IsNaN(r.Longitude)
}

// Coordinates is the "coordonnees" object returned by the source.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// RawRecord is one entry of a page's "results" array.
type RawRecord struct {
	InstNom     string       `json:"inst_nom"`
	Coordonnees *Coordinates `json:"coordonnees"`
}

// Record converts r to a Record. The second return value is false when the
// coordinates object, its latitude or its longitude is absent or null.
func (r RawRecord) Record() (Record, bool) {
	if r.Coordonnees == nil || r.Coordonnees.Lat == nil || r.Coordonnees.Lon == nil {
		return Record{}, false
	}
	rec := Record{
		Name:      r.InstNom,
		Latitude:  *r.Coordonnees.Lat,
		Longitude: *r.Coordonnees.Lon,
	}
	return rec, rec.Valid()
}

// Validate keeps the records that have coordinates, in input order, and
// reports how many were dropped.
func Validate(raw []RawRecord) (valid []Record, skipped int) {
	valid = make([]Record, 0, len(raw))
	for _, r := range raw {
		rec, ok := r.Record()
		if !ok {
			skipped++
			continue
		}
		valid = append(valid, rec)
	}
	return valid, skipped
}
