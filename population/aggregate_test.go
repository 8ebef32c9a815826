package population

import "testing"

func newCensus(pool *CensusPool, lat, lon float64, pop, hh int64) int32 {
	idx := pool.Alloc()
	cp := pool.Get(idx)
	cp.Lat, cp.Lon, cp.Population, cp.Households = lat, lon, pop, hh
	return idx
}

func TestAssignCellCentroidWeightsByPopulation(t *testing.T) {
	points, census := NewPointPool(), NewCensusPool()
	a := newCensus(census, 40.0, -80.0, 100, 40)
	b := newCensus(census, 40.2, -80.0, 300, 120)

	in := CellInput{CellLatIdx: 320, CellLonIdx: -640, CenterLat: 40.1, CenterLon: -80.0, AreaKm2: 4, Census: []int32{a, b}}
	idxs := AssignCell(points, census, in, Centroid, US, false)
	if len(idxs) != 1 {
		t.Fatalf("got %d points, want 1", len(idxs))
	}
	pt := points.Get(idxs[0])
	wantLat := (40.0*100 + 40.2*300) / 400
	if diff := pt.Lat - wantLat; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("centroid lat = %v, want %v", pt.Lat, wantLat)
	}
	if pt.PopulationSum != 400 || pt.HouseholdSum != 160 {
		t.Errorf("population/household sums = %d/%d, want 400/160", pt.PopulationSum, pt.HouseholdSum)
	}
}

func TestAssignCellLargestPicksMaxPopulation(t *testing.T) {
	points, census := NewPointPool(), NewCensusPool()
	a := newCensus(census, 40.0, -80.0, 50, 20)
	b := newCensus(census, 40.3, -80.1, 900, 300)

	in := CellInput{CenterLat: 40.1, CenterLon: -80.0, AreaKm2: 4, Census: []int32{a, b}}
	idxs := AssignCell(points, census, in, Largest, US, false)
	pt := points.Get(idxs[0])
	if pt.Lat != 40.3 || pt.Lon != -80.1 {
		t.Errorf("largest point = (%v,%v), want (40.3,-80.1)", pt.Lat, pt.Lon)
	}
}

func TestAssignCellCenterUsesCellCentre(t *testing.T) {
	points, census := NewPointPool(), NewCensusPool()
	a := newCensus(census, 40.0, -80.0, 50, 20)

	in := CellInput{CenterLat: 40.05, CenterLon: -80.05, AreaKm2: 4, Census: []int32{a}}
	idxs := AssignCell(points, census, in, Center, US, false)
	pt := points.Get(idxs[0])
	if pt.Lat != 40.05 || pt.Lon != -80.05 {
		t.Errorf("center point = (%v,%v), want cell centre", pt.Lat, pt.Lon)
	}
}

func TestAssignCellAllPreservesEachPoint(t *testing.T) {
	points, census := NewPointPool(), NewCensusPool()
	a := newCensus(census, 40.0, -80.0, 50, 20)
	b := newCensus(census, 40.3, -80.1, 10, 4)

	in := CellInput{CenterLat: 40.1, CenterLon: -80.0, AreaKm2: 6, Census: []int32{a, b}}
	idxs := AssignCell(points, census, in, All, US, false)
	if len(idxs) != 2 {
		t.Fatalf("got %d points, want 2", len(idxs))
	}
	total := 0.0
	for _, idx := range idxs {
		total += points.Get(idx).AreaKm2
	}
	if diff := total - 6; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("area shares sum to %v, want 6", total)
	}
}

func TestAssignCellEmptyCensusGetsCentrePoint(t *testing.T) {
	points, census := NewPointPool(), NewCensusPool()
	in := CellInput{CenterLat: 41.0, CenterLon: -81.0, AreaKm2: 9}
	idxs := AssignCell(points, census, in, Centroid, US, false)
	if len(idxs) != 1 {
		t.Fatalf("got %d points, want 1", len(idxs))
	}
	pt := points.Get(idxs[0])
	if pt.Lat != 41.0 || pt.Lon != -81.0 || pt.AreaKm2 != 9 {
		t.Errorf("empty-cell point = %+v, want centre with full area", pt)
	}
}

func TestPoolResetRetainsSlabsButTruncatesCounter(t *testing.T) {
	p := NewPointPool()
	for i := 0; i < 3; i++ {
		p.Alloc()
	}
	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}
	slabsBefore := len(p.slabs)
	p.Reset()
	if p.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", p.Len())
	}
	if len(p.slabs) != slabsBefore {
		t.Errorf("Reset freed slab memory: had %d slabs, now %d", slabsBefore, len(p.slabs))
	}
	idx := p.Alloc()
	if idx != 0 {
		t.Errorf("first Alloc after Reset = %d, want 0", idx)
	}
}
