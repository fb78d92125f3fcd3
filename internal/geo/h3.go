package geo

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// H3 resolutions used for proximity search.
//
//	8 = ~460m radius  -> urban services (default)
//	7 = ~1.4km radius -> smaller cities / regional
const (
	ResolutionUrban    = 8
	ResolutionRegional = 7

	// DefaultRings is the k-ring neighborhood size: k=2 at res 8 covers
	// roughly 1.4km around the user (19 cells).
	DefaultRings = 2
)

// CellIndex converts coordinates to an H3 cell index string.
func CellIndex(lat, lng float64, resolution int) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), resolution)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return cell.String(), nil
}

// SearchIndexes returns the H3 indexes of the k-ring neighborhood around the
// given coordinates, ready to be matched against stored service cells.
func SearchIndexes(lat, lng float64, rings, resolution int) ([]string, error) {
	center, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), resolution)
	if err != nil {
		return nil, fmt.Errorf("h3 center: %w", err)
	}

	cells, err := h3.GridDisk(center, rings)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}

	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.String())
	}
	return out, nil
}
