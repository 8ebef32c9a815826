package terrain

import (
	"testing"
)

func TestProfileUniformTerrainIsFlat(t *testing.T) {
	dir := t.TempDir()
	writeTestTile(t, dir+"/37_122.trn", 37, 122, int32(Global30))

	c, err := InitializeTerrain(8*1024*1024*1024, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.UseDatabase(Global30, dir, int32(Global30))
	c.SetTileStatus(Global30, map[[2]int32]TileState{{37, 122}: TileData})

	// Due north stays inside cell 0 of tile 37_122 (lat 37.01 to ~37.055).
	points, err := c.Profile(37.01, 122.01, 0, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) == 0 {
		t.Fatal("expected at least one profile point")
	}
	for _, p := range points {
		if p.ElevationM != 123 {
			t.Errorf("point at %.2fkm: elevation = %v, want 123", p.DistanceKm, p.ElevationM)
		}
	}
	if points[0].DistanceKm != 0 {
		t.Errorf("first point distance = %v, want 0", points[0].DistanceKm)
	}
	last := points[len(points)-1]
	if last.DistanceKm != 5 {
		t.Errorf("last point distance = %v, want 5", last.DistanceKm)
	}
}

func TestProfileSpansMultipleSegments(t *testing.T) {
	dir := t.TempDir()
	for _, tile := range [][2]int32{{37, 122}, {37, 121}, {37, 120}} {
		writeTestTile(t, dir+"/"+itoa(tile[0])+"_"+itoa(tile[1])+".trn", tile[0], tile[1], int32(Global30))
	}

	c, err := InitializeTerrain(8*1024*1024*1024, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.UseDatabase(Global30, dir, int32(Global30))
	c.SetTileStatus(Global30, map[[2]int32]TileState{
		{37, 122}: TileData, {37, 121}: TileData, {37, 120}: TileData,
	})

	// Distance (40km) exceeds segmentKm (16km), forcing at least one
	// segment boundary recomputation via the spherical destination point.
	points, err := c.Profile(37.01, 122.01, 90, 40, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) < 2 {
		t.Fatal("expected multiple profile points across a 40km radial")
	}
	for i := 1; i < len(points); i++ {
		if points[i].DistanceKm < points[i-1].DistanceKm {
			t.Errorf("profile distances not monotonic at index %d", i)
		}
	}
}

func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
