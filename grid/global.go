package grid

import (
	"fmt"
	"math"

	"github.com/freepiratebay/tvstudy/geo"
)

// band describes one latitude band of a global grid: the band's latitude
// range (degrees) and the longitude cell size (arc-seconds) used for
// every row inside it.
type band struct {
	startLat, endLat float64
	lonSize          int32
}

// globalBands computes the latitude-band layout for a global grid with
// the given constant latitude cell size (arc-seconds). Longitude cell
// size is held constant within a band and increases monotonically band
// to band, chosen so that cell area (height x width x cos(lat)) drifts by
// no more than areaDriftTolerance within the band.
//
// The band boundary is found by starting at cosLat=1 (the equator) and
// scaling the target longitude cell size by 1/cosLat; once that target
// has been rounded to an integer number of arc-seconds, the latitude at
// which the *realized* lonSize would drift outside the tolerance is
// solved for directly (acos of the ratio between the target and the
// realized cell size) and becomes the band's upper edge. cosLat is then
// reduced by a fixed 0.98 factor to seed the next band's search, and the
// whole process repeats until the latitude ceiling or the band-count
// limit is reached.
func globalBands(latSize int32) []band {
	var bands []band
	cosLat := 1.0
	lat := 0.0
	var prevLonSize int32

	for i := 0; i < MaxBands && lat < MaxLatitude; i++ {
		lonSizeTarget := float64(latSize) / cosLat
		lonSize := int32(math.Round(lonSizeTarget))
		if lonSize < 1 {
			lonSize = 1
		}
		if lonSize <= prevLonSize {
			// The rounded value didn't increase: force monotonicity and
			// back-solve the cosLat that would have produced it exactly.
			lonSize = prevLonSize + 1
			cosLat = float64(latSize) / float64(lonSize)
		}

		// Find the latitude at which this band's realized lonSize drifts
		// areaDriftTolerance away from the ideal latSize/cosLat(lat)
		// target, i.e. where lonSize*cosLat(lat) == latSize*(1-tolerance).
		breakCosLat := float64(latSize) * (1 - areaDriftTolerance) / float64(lonSize)
		var breakLat float64
		if breakCosLat >= 1 {
			breakLat = MaxLatitude
		} else if breakCosLat <= 0 {
			breakLat = MaxLatitude
		} else {
			breakLat = math.Acos(breakCosLat) * 180 / math.Pi
		}
		if breakLat <= lat || breakLat > MaxLatitude {
			breakLat = MaxLatitude
		}

		bands = append(bands, band{startLat: lat, endLat: breakLat, lonSize: lonSize})

		prevLonSize = lonSize
		lat = breakLat
		cosLat = math.Cos(lat*math.Pi/180) * 0.98
		if cosLat <= 0 {
			break
		}
	}
	return bands
}

// NewGlobalGrid builds a latitude-banded global grid covering bounds,
// with constant latitude cell size cellLatSize (arc-seconds) and a
// per-band longitude cell size chosen to hold cell area roughly constant.
// Per-row east anchors are independently aligned to each row's band
// longitude size against the overall grid's east bound, so rows in
// different bands are generally offset from one another; rows that share
// a band (including mirror-image rows north and south of the equator)
// share the same anchor.
func NewGlobalGrid(bounds geo.IndexBounds, cellLatSize int32) (*StudyGrid, error) {
	if cellLatSize <= 0 {
		return nil, fmt.Errorf("grid: cell size must be positive, got %d", cellLatSize)
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("grid: cannot build a grid from empty bounds")
	}

	bands := globalBands(cellLatSize)

	southAligned := alignDown(bounds.SouthLat, cellLatSize)
	northAligned := alignUp(bounds.NorthLat, cellLatSize)

	g := &StudyGrid{
		Mode:        Global,
		Bounds:      bounds,
		CellLatSize: cellLatSize,
	}

	for south := southAligned; south < northAligned; south += cellLatSize {
		midLat := (float64(south) + float64(cellLatSize)/2) / 3600
		absLat := math.Abs(midLat)
		lonSize := bands[len(bands)-1].lonSize
		for _, b := range bands {
			if absLat >= b.startLat && absLat < b.endLat {
				lonSize = b.lonSize
				break
			}
		}

		eastAnchor := alignDown(bounds.EastLon, lonSize)
		gridWidthCells := int((alignUp(bounds.WestLon, lonSize) - eastAnchor) / lonSize)
		if gridWidthCells < 1 {
			gridWidthCells = 1
		}

		row := Row{
			SouthLat:   south,
			NorthLat:   south + cellLatSize,
			LonSize:    lonSize,
			EastAnchor: eastAnchor,
			NumCells:   gridWidthCells,
			AreaKm2:    cellAreaKm2(midLat, cellLatSize, lonSize),
		}
		g.Rows = append(g.Rows, row)
		if row.NumCells > g.Width {
			g.Width = row.NumCells
		}
	}
	return g, nil
}
