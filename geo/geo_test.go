package geo

import (
	"math"
	"testing"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestBearDistanceNorth(t *testing.T) {
	bear, dist := BearDistance(37.000, 122.000, 38.000, 122.000)
	if !near(bear, 0, 1e-6) {
		t.Errorf("bearing = %v, want ~0", bear)
	}
	if !near(dist, 111.195, 1e-2) {
		t.Errorf("distance = %v, want ~111.195", dist)
	}
}

func TestBearDistanceEast(t *testing.T) {
	bear, dist := BearDistance(37.000, 122.000, 37.000, 120.000)
	if !near(bear, 88.803, 0.2) {
		t.Errorf("bearing = %v, want ~88.803", bear)
	}
	if !near(dist, 177.665, 0.5) {
		t.Errorf("distance = %v, want ~177.665", dist)
	}
}

func TestCoordinatesWest(t *testing.T) {
	lat, lon := Coordinates(0, 0, 90, 111.195)
	if !near(lat, 0, 1e-6) {
		t.Errorf("lat = %v, want ~0", lat)
	}
	if !near(lon, -1.0, 1e-3) {
		t.Errorf("lon = %v, want ~-1.0", lon)
	}
}

func TestCoordinatesDoesNotWrap(t *testing.T) {
	// A long westbound path should be able to cross the +/-180 boundary
	// without wrapping back into range.
	_, lon := Coordinates(0, 179, 270, 400)
	if lon <= 180 {
		t.Errorf("lon = %v, expected an over-range (>180) value for a westbound path", lon)
	}
}

func TestBoundsRoundTrip(t *testing.T) {
	b := InitializeBounds()
	if !b.Empty() {
		t.Fatal("freshly initialized bounds should be empty")
	}
	if b.ContainsPoint(0, 0) {
		t.Fatal("empty bounds should not contain any point")
	}

	b = b.ExtendByPoint(37.5, 122.5)
	if !b.ContainsPoint(37.5, 122.5) {
		t.Error("bounds should contain the point it was extended by")
	}
	if b.ContainsPoint(37.501, 122.5) {
		t.Error("north edge should be open: 37.501 should not be contained")
	}
}

func TestExtendByBoundsUnion(t *testing.T) {
	b1 := InitializeBounds().ExtendByPoint(10, 20)
	b2 := InitializeBounds().ExtendByPoint(30, 40)
	u := b1.ExtendByBounds(b2)
	if !u.ContainsPoint(10, 20) || !u.ContainsPoint(30, 40) {
		t.Error("union should contain both source points")
	}
}

func TestOverlapsBounds(t *testing.T) {
	b1 := InitializeBounds().ExtendByPoint(10, 20).ExtendByRadius(10, 20, 50)
	b2 := InitializeBounds().ExtendByPoint(10.001, 20.001)
	if !b1.OverlapsBounds(b2) {
		t.Error("expected overlapping bounds to overlap")
	}
	b3 := InitializeBounds().ExtendByPoint(80, 170)
	if b1.OverlapsBounds(b3) {
		t.Error("expected distant bounds not to overlap")
	}
}

func TestDatumRoundTripConverges(t *testing.T) {
	lat83, lon83, err := ToNAD83(NAD27, 37.5, 122.5)
	if err != nil {
		t.Fatalf("ToNAD83: %v", err)
	}
	lat27, lon27, err := FromNAD83(NAD27, lat83, lon83)
	if err != nil {
		t.Fatalf("FromNAD83: %v", err)
	}
	if !near(lat27, 37.5, 1e-8) || !near(lon27, 122.5, 1e-8) {
		t.Errorf("round trip = (%v,%v), want (37.5,122.5)", lat27, lon27)
	}
}

func TestDatumOutsideDataArea(t *testing.T) {
	_, _, err := ToNAD83(NAD27, 0, 0)
	if err == nil {
		t.Fatal("expected OutsideDataArea error for a point with no matching region")
	}
	var gerr *Error
	if !asError(err, &gerr) || gerr.Kind != KindOutsideDataArea {
		t.Errorf("got %v, want KindOutsideDataArea", err)
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}
