package grid

import (
	"testing"

	"github.com/freepiratebay/tvstudy/geo"
)

func TestLocalGridCellIndex(t *testing.T) {
	b := geo.InitializeBounds().ExtendByPoint(37.0, 122.0).ExtendByPoint(38.0, 123.0)
	g, err := NewLocalGrid(b, 3600) // 1-degree cells
	if err != nil {
		t.Fatal(err)
	}
	row, col, ok := g.CellIndex(37.5, 122.5)
	if !ok {
		t.Fatal("expected point to be found in grid")
	}
	if row < 0 || row >= len(g.Rows) {
		t.Fatalf("row %d out of range", row)
	}
	if col < 0 || col >= g.Rows[row].NumCells {
		t.Fatalf("col %d out of range", col)
	}
}

func TestLocalGridOutOfBounds(t *testing.T) {
	b := geo.InitializeBounds().ExtendByPoint(37.0, 122.0).ExtendByPoint(38.0, 123.0)
	g, err := NewLocalGrid(b, 3600)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := g.CellIndex(60, 60); ok {
		t.Fatal("expected point far outside grid to not be found")
	}
}

func TestGlobalBandsMonotonicAndBounded(t *testing.T) {
	bands := globalBands(7200) // 2-degree (7200 arc-second) latitude steps
	if len(bands) == 0 {
		t.Fatal("expected at least one band")
	}
	if len(bands) > MaxBands {
		t.Fatalf("band count %d exceeds MaxBands", len(bands))
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].lonSize <= bands[i-1].lonSize {
			t.Errorf("band %d lonSize %d did not increase over band %d lonSize %d",
				i, bands[i].lonSize, i-1, bands[i-1].lonSize)
		}
		if bands[i].startLat < bands[i-1].startLat {
			t.Errorf("band %d starts before band %d", i, i-1)
		}
	}
	if bands[0].lonSize != 7200 {
		t.Errorf("first band lonSize = %d, want equal to latSize (7200) at the equator", bands[0].lonSize)
	}
	last := bands[len(bands)-1]
	if last.endLat > MaxLatitude+1e-9 {
		t.Errorf("last band endLat = %v, want <= %v", last.endLat, MaxLatitude)
	}
}

func TestGlobalGridLonSizeGrowsWithLatitude(t *testing.T) {
	b := geo.InitializeBounds().ExtendByPoint(0, 0).ExtendByPoint(60, 10)
	g, err := NewGlobalGrid(b, 7200)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Rows) == 0 {
		t.Fatal("expected rows")
	}
	// Higher-latitude rows should generally use a longitude cell size
	// at least as large as lower-latitude rows, since lonSize grows with
	// latitude to preserve area.
	for i := 1; i < len(g.Rows); i++ {
		if g.Rows[i].LonSize < g.Rows[i-1].LonSize {
			t.Errorf("row %d LonSize %d smaller than row %d LonSize %d",
				i, g.Rows[i].LonSize, i-1, g.Rows[i-1].LonSize)
		}
	}
}

func TestGridWidthCoversWidestRow(t *testing.T) {
	b := geo.InitializeBounds().ExtendByPoint(0, 0).ExtendByPoint(50, 20)
	g, err := NewGlobalGrid(b, 7200)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range g.Rows {
		if r.NumCells > g.Width {
			t.Errorf("row NumCells %d exceeds grid Width %d", r.NumCells, g.Width)
		}
	}
}
