// Package grid lays out the rectangular study grid a scenario's population
// and field calculations are performed on: a uniform "local" grid for one
// source's coverage area, or a latitude-banded "global" grid whose cell
// longitude size steps with latitude to keep cell area roughly constant
// across the whole grid.
package grid

import (
	"fmt"
	"math"

	"github.com/freepiratebay/tvstudy/geo"
)

// Mode selects the grid's layout strategy.
type Mode int

const (
	// Local grids use a single, uniform cell size in both axes and cover
	// one source's coverage bounds.
	Local Mode = iota
	// Global grids are latitude-banded so grids built for different
	// studies share cell edges and can be merged.
	Global
)

// MaxLatitude is the latitude ceiling beyond which studies may not run.
const MaxLatitude = 75.0

// MaxBands bounds the number of latitude bands a global grid may compute,
// guarding against a runaway iteration.
const MaxBands = 100

// areaDriftTolerance is the maximum fractional cell-area drift tolerated
// within one latitude band before a new band (and longitude cell size)
// must begin.
const areaDriftTolerance = 0.02

// Row describes one row of cells in a study grid: its latitude index
// range, the longitude cell size used for the whole row (constant in
// Local mode, per-band in Global mode), the east-longitude anchor the
// row's cell columns are aligned to, and how many cells the row holds.
// Per-row anchors mean a global grid's cell longitude indices are not
// simply offsets of the grid's nominal east bound — two rows can disagree
// about where a given longitude column index starts.
type Row struct {
	SouthLat   int32   // index units (arc-seconds)
	NorthLat   int32   // index units; SouthLat + CellLatSize
	LonSize    int32   // index units
	EastAnchor int32   // index units; row-local longitude origin
	NumCells   int     // number of cells in this row (never more than the grid's Width)
	AreaKm2    float64 // actual area of one cell in this row
}

// StudyGrid is the rectangular array of cells covering a scenario's study
// area. The cell array is always sized to the widest row; shorter rows
// simply leave trailing slots unused.
type StudyGrid struct {
	Mode        Mode
	Bounds      geo.IndexBounds
	CellLatSize int32 // index units (arc-seconds), constant across all rows
	Rows        []Row
	Width       int // widest row's NumCells
}

// NewLocalGrid builds a uniform-cell-size grid covering bounds, with cell
// edges aligned to an integer multiple of cellSize (arc-seconds).
func NewLocalGrid(bounds geo.IndexBounds, cellSize int32) (*StudyGrid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("grid: cell size must be positive, got %d", cellSize)
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("grid: cannot build a grid from empty bounds")
	}

	southAligned := alignDown(bounds.SouthLat, cellSize)
	eastAligned := alignDown(bounds.EastLon, cellSize)
	nRows := int((alignUp(bounds.NorthLat, cellSize) - southAligned) / cellSize)
	nCols := int((alignUp(bounds.WestLon, cellSize) - eastAligned) / cellSize)

	g := &StudyGrid{
		Mode:        Local,
		Bounds:      bounds,
		CellLatSize: cellSize,
		Width:       nCols,
	}
	for r := 0; r < nRows; r++ {
		south := southAligned + int32(r)*cellSize
		midLat := (float64(south) + float64(cellSize)/2) / 3600
		g.Rows = append(g.Rows, Row{
			SouthLat:   south,
			NorthLat:   south + cellSize,
			LonSize:    cellSize,
			EastAnchor: eastAligned,
			NumCells:   nCols,
			AreaKm2:    cellAreaKm2(midLat, cellSize, cellSize),
		})
	}
	return g, nil
}

// alignDown returns the largest multiple of size that is <= v.
func alignDown(v, size int32) int32 {
	if v >= 0 {
		return (v / size) * size
	}
	q := v / size
	if v%size != 0 {
		q--
	}
	return q * size
}

// alignUp returns the smallest multiple of size that is >= v.
func alignUp(v, size int32) int32 {
	a := alignDown(v, size)
	if a < v {
		return a + size
	}
	return a
}

// cellAreaKm2 computes the approximate spherical area (km^2) of a cell of
// the given latitude and longitude size (index units, arc-seconds)
// centered at midLat (degrees).
func cellAreaKm2(midLat float64, latSize, lonSize int32) float64 {
	latDeg := float64(latSize) / 3600
	lonDeg := float64(lonSize) / 3600
	height := latDeg * geo.KmPerDegree
	width := lonDeg * geo.KmPerDegree * math.Cos(midLat*math.Pi/180)
	return height * width
}

// CellIndex locates the (row, col) of the cell containing (lat, lon).
// col is relative to that row's EastAnchor, per the Global-mode per-row
// anchor invariant; ok is false if the point lies outside the grid.
func (g *StudyGrid) CellIndex(lat, lon float64) (row, col int, ok bool) {
	if !g.Bounds.ContainsPoint(lat, lon) {
		return 0, 0, false
	}
	r, c := geo.ToIndex(lat, lon)
	row = int((r - g.Rows[0].SouthLat) / g.CellLatSize)
	if row < 0 || row >= len(g.Rows) {
		return 0, 0, false
	}
	rowData := g.Rows[row]
	col = int((c - rowData.EastAnchor) / rowData.LonSize)
	if col < 0 || col >= rowData.NumCells {
		return 0, 0, false
	}
	return row, col, true
}
