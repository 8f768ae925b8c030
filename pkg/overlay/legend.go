package overlay

import "fmt"

// LegendEntry is one line of the map legend.
type LegendEntry struct {
	Label string `json:"label"`
	Shape string `json:"shape"`
	Color string `json:"color"`
}

// Legend describes the markers and the current circle radius.
func Legend(radiusKm int) []LegendEntry {
	return []LegendEntry{
		{Label: "Public sports stadium", Shape: "dot", Color: DefaultMarkerStyle.FillColor},
		{Label: fmt.Sprintf("%d km radius", radiusKm), Shape: "ring", Color: DefaultCircleStyle.Color},
	}
}
