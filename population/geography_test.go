package population

import (
	"testing"

	"github.com/ctessum/geom"
)

func TestGeographyCircleContains(t *testing.T) {
	g := &Geography{Kind: GeoCircle, RadiusKm: 50}
	if !g.Contains(40, -80, 40.3, -80) { // ~33km north
		t.Error("expected point within circle radius to be contained")
	}
	if g.Contains(41, -80, 40.3, -80) {
		t.Error("expected point well outside circle radius to be excluded")
	}
}

func TestGeographyBoxIsAxisAligned(t *testing.T) {
	g := &Geography{Kind: GeoBox, WidthKm: 20, HeightKm: 20}
	if !g.Contains(40, -80, 40.05, -80) {
		t.Error("expected point inside the box to be contained")
	}
	if g.Contains(40, -80, 41.0, -80) {
		t.Error("expected point far outside the box to be excluded")
	}
}

func TestGeographyPolygonUsesWithin(t *testing.T) {
	square := geom.Polygon{{
		{X: -81, Y: 39}, {X: -79, Y: 39}, {X: -79, Y: 41}, {X: -81, Y: 41}, {X: -81, Y: 39},
	}}
	g := &Geography{Kind: GeoPolygon, Polygon: square}
	if !g.Contains(40, -80, 40, -80) {
		t.Error("expected centre point to be within its own polygon")
	}
	if g.Contains(40, -80, 50, -80) {
		t.Error("expected far point to fall outside the polygon")
	}
}

func TestSectorRadiusInterpolatesBetweenEntries(t *testing.T) {
	g := &Geography{Kind: GeoSector, Sectors: []SectorEntry{
		{AzimuthDeg: 0, RadiusKm: 10},
		{AzimuthDeg: 90, RadiusKm: 30},
		{AzimuthDeg: 180, RadiusKm: 10},
		{AzimuthDeg: 270, RadiusKm: 10},
	}}
	r := sectorRadiusAt(g.Sectors, 45)
	if r != 20 {
		t.Errorf("sector radius at 45deg = %v, want 20 (midpoint of 10 and 30)", r)
	}
}

func TestContourDistanceAtWraps(t *testing.T) {
	c := &Contour{DistancesKm: []float64{10, 20, 30, 40}} // steps of 90deg
	if got := c.DistanceAt(0); got != 10 {
		t.Errorf("DistanceAt(0) = %v, want 10", got)
	}
	if got := c.DistanceAt(45); got != 15 {
		t.Errorf("DistanceAt(45) = %v, want 15", got)
	}
	// Between the last entry (270 -> 40) and the first (360/0 -> 10):
	// at 315 degrees we're halfway through the wraparound segment.
	if got := c.DistanceAt(315); got != 25 {
		t.Errorf("DistanceAt(315) = %v, want 25", got)
	}
}

func TestCountryForPointDefaultsToUS(t *testing.T) {
	canada := geom.Polygon{{
		{X: -90, Y: 49}, {X: -80, Y: 49}, {X: -80, Y: 60}, {X: -90, Y: 60}, {X: -90, Y: 49},
	}}
	boundaries := map[Country]geom.Polygon{Canada: canada}

	if got := CountryForPoint(55, -85, boundaries); got != Canada {
		t.Errorf("CountryForPoint inside Canada polygon = %v, want Canada", got)
	}
	if got := CountryForPoint(30, -85, boundaries); got != US {
		t.Errorf("CountryForPoint with no match = %v, want US default", got)
	}
}

func TestDTSTestRequiresAnyChildThenParentOrRefContourWhenTruncated(t *testing.T) {
	childA := Child{Lat: 40, Lon: -80, Area: &Geography{Kind: GeoCircle, RadiusKm: 10}}
	childB := Child{Lat: 40.5, Lon: -80.5, Area: &Geography{Kind: GeoCircle, RadiusKm: 10}}
	children := []Child{childA, childB}

	// Outside every child: fails regardless of truncateDTS.
	if DTSTest(45, -85, children, false, nil, 0, 0, nil) {
		t.Error("expected point outside all children to fail")
	}

	// Inside childA, truncateDTS off: passes on child membership alone.
	if !DTSTest(40.01, -80.0, children, false, nil, 0, 0, nil) {
		t.Error("expected point inside a child to pass when truncateDTS is off")
	}

	// Inside childA, truncateDTS on, parent geography excludes it, no ref contour: fails.
	parentFar := &Geography{Kind: GeoCircle, RadiusKm: 1}
	if DTSTest(40.01, -80.0, children, true, parentFar, 50, -50, nil) {
		t.Error("expected truncateDTS to reject a point outside the parent geography with no ref contour")
	}

	// Same point, but within the reference-facility contour: passes.
	refContour := &Contour{DistancesKm: []float64{100}}
	if !DTSTest(40.01, -80.0, children, true, parentFar, 40.0, -80.0, refContour) {
		t.Error("expected truncateDTS to accept a point within the reference-facility contour")
	}
}
