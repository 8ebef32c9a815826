package terrain

import (
	"encoding/binary"
	"fmt"
)

// Cell is one decompressed 7.5'x7.5' terrain block, in the state the
// cache keeps it in once loaded. A cell with Missing set is a negative
// marker: it still occupies a cache slot (so it isn't retried every
// lookup) but carries no sample data.
type Cell struct {
	Database   Database
	LatIdx     int32 // cell index, CellsPerDegree cells per degree
	LonIdx     int32 // cell index, CellsPerDegree cells per degree
	CellRow    int   // 0..CellsPerDegree-1 within the tile
	CellCol    int

	Missing        bool // negative marker: known absence of data
	Seawater       bool // known seawater: samples are the shared all-zero grid
	PixelCentered  bool
	GridIntersect  bool // mutually exclusive with PixelCentered

	LatPoints int // number of samples along the latitude axis; 1 means uniform
	LonPoints int

	MinElevM int16       // base elevation for delta-coded samples
	Samples  []int16     // LatPoints*LonPoints samples, row-major, meters; nil if Missing or uniform
}

// zeroCell is the shared all-zero cell returned for known-seawater
// lookups, so no per-lookup allocation is required.
var zeroCell = &Cell{Seawater: true, LatPoints: 1, LonPoints: 1}

// ElevationAt returns the elevation (m) of sample (row, col) within the
// cell's LatPoints x LonPoints grid. A uniform cell (1x1) ignores its
// arguments.
func (c *Cell) ElevationAt(row, col int) float64 {
	if c.LatPoints <= 1 && c.LonPoints <= 1 {
		if len(c.Samples) > 0 {
			return float64(c.Samples[0])
		}
		return float64(c.MinElevM)
	}
	return float64(c.Samples[row*c.LonPoints+col])
}

// decompressCell reads and decompresses one cell's sample data from a
// tile file, per the flag byte's compression code: uncompressed 16-bit
// samples, bit-packed positive deltas above MinElevM (1-14 bits/sample),
// or zero-delta (code 15: uniform, one elevation for the whole cell).
func decompressCell(flag CellFlag, minElev, latPts, lonPts int16, raw []byte, order binary.ByteOrder) (*Cell, error) {
	c := &Cell{
		MinElevM:      minElev,
		PixelCentered: flag.PixelCentered(),
		GridIntersect: !flag.PixelCentered(),
	}
	if flag.NoData() {
		c.Missing = true
		return c, nil
	}

	// latPointCount == -1 is a sentinel for "known missing" kept
	// separate from a real point count (Design Note: don't overload 0).
	if latPts < 0 || lonPts < 0 {
		c.Missing = true
		return c, nil
	}
	c.LatPoints, c.LonPoints = int(latPts), int(lonPts)
	if c.LatPoints == 0 {
		c.LatPoints = 1
	}
	if c.LonPoints == 0 {
		c.LonPoints = 1
	}
	n := c.LatPoints * c.LonPoints

	code := flag.CompressionCode()
	switch {
	case code == zeroDeltaCode || n == 1:
		c.Samples = nil // uniform: MinElevM carries the single value
		c.LatPoints, c.LonPoints = 1, 1
		return c, nil
	case code == 0:
		if len(raw) < n*2 {
			return nil, &Error{Kind: KindCorrupt, Op: "decompressCell",
				Err: fmt.Errorf("truncated uncompressed cell: need %d bytes, have %d", n*2, len(raw))}
		}
		c.Samples = make([]int16, n)
		for i := 0; i < n; i++ {
			c.Samples[i] = int16(order.Uint16(raw[i*2:]))
		}
		return c, nil
	case code >= 1 && code <= 15:
		samples, err := unpackBits(raw, n, code)
		if err != nil {
			return nil, err
		}
		c.Samples = make([]int16, n)
		for i, s := range samples {
			c.Samples[i] = minElev + int16(s)
		}
		return c, nil
	default:
		return nil, &Error{Kind: KindCorrupt, Op: "decompressCell",
			Err: fmt.Errorf("unknown compression code %d", code)}
	}
}

// unpackBits extracts n bitCount-bit unsigned samples from a packed byte
// stream, least-significant bit first: a 32-bit window is filled one byte
// at a time, each sample is masked off its low end, and the window then
// shifts down by bitCount and is topped up again.
func unpackBits(raw []byte, n, bitCount int) ([]uint16, error) {
	needBytes := (n*bitCount + 7) / 8
	if len(raw) < needBytes {
		return nil, &Error{Kind: KindCorrupt, Op: "unpackBits",
			Err: fmt.Errorf("truncated bit-packed cell: need %d bytes, have %d", needBytes, len(raw))}
	}
	out := make([]uint16, n)
	mask := uint32(1<<uint(bitCount)) - 1

	var window uint32
	windowBits := 0
	bytePos := 0
	loadByte := func() {
		if bytePos < len(raw) {
			window |= uint32(raw[bytePos]) << uint(windowBits)
			windowBits += 8
			bytePos++
		}
	}
	for windowBits < 32 && bytePos < len(raw) {
		loadByte()
	}

	for i := 0; i < n; i++ {
		out[i] = uint16(window & mask)
		window >>= uint(bitCount)
		windowBits -= bitCount
		for windowBits < 24 && bytePos < len(raw) {
			loadByte()
		}
		// Every 8 samples the window has advanced by exactly bitCount
		// bytes' worth of bits; the incremental loads above keep it
		// topped up one byte at a time instead of recomputing the
		// advance, which is equivalent but avoids a per-group branch.
	}
	return out, nil
}
