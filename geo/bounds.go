package geo

import "math"

// IndexBounds is a rectangular region expressed in arc-second (or other
// fixed-size integer) grid units. An index point (r,c) represents the unit
// square [r,r+1) x [c,c+1); south and east are closed edges, north and
// west are open, per the study-grid invariant.
type IndexBounds struct {
	SouthLat, NorthLat int32
	EastLon, WestLon   int32
}

// InitializeBounds returns an empty bounds value: no point satisfies
// ContainsPoint against it.
func InitializeBounds() IndexBounds {
	return IndexBounds{
		SouthLat: math.MaxInt32,
		NorthLat: math.MinInt32,
		EastLon:  math.MaxInt32,
		WestLon:  math.MinInt32,
	}
}

// Empty reports whether b has not yet been extended by any point.
func (b IndexBounds) Empty() bool {
	return b.SouthLat > b.NorthLat || b.EastLon > b.WestLon
}

// ToIndex converts a geodetic position to index units (arc-seconds).
func ToIndex(lat, lon float64) (r, c int32) {
	return int32(math.Floor(lat * 3600)), int32(math.Floor(lon * 3600))
}

// ExtendByPoint grows b to include the unit square containing (lat,lon).
// Because the north/west edges of an index cell lie outside its own unit
// square, the north/west limits must be pushed one unit past the point's
// own row/column.
func (b IndexBounds) ExtendByPoint(lat, lon float64) IndexBounds {
	r, c := ToIndex(lat, lon)
	return b.extendByIndexPoint(r, c)
}

func (b IndexBounds) extendByIndexPoint(r, c int32) IndexBounds {
	if r < b.SouthLat {
		b.SouthLat = r
	}
	if r+1 > b.NorthLat {
		b.NorthLat = r + 1
	}
	if c < b.EastLon {
		b.EastLon = c
	}
	if c+1 > b.WestLon {
		b.WestLon = c + 1
	}
	return b
}

// ExtendByBounds unions b with b2.
func (b IndexBounds) ExtendByBounds(b2 IndexBounds) IndexBounds {
	if b2.Empty() {
		return b
	}
	if b.Empty() {
		return b2
	}
	if b2.SouthLat < b.SouthLat {
		b.SouthLat = b2.SouthLat
	}
	if b2.NorthLat > b.NorthLat {
		b.NorthLat = b2.NorthLat
	}
	if b2.EastLon < b.EastLon {
		b.EastLon = b2.EastLon
	}
	if b2.WestLon > b.WestLon {
		b.WestLon = b2.WestLon
	}
	return b
}

// ExtendByRadius grows b to include a circle of the given radius (km)
// centered at (lat,lon), approximated by the four cardinal destination
// points. This is adequate while radius is much smaller than the earth's
// radius, per the design note.
func (b IndexBounds) ExtendByRadius(lat, lon, radiusKm float64) IndexBounds {
	for _, bearing := range [4]float64{0, 90, 180, 270} {
		dlat, dlon := Coordinates(lat, lon, bearing, radiusKm)
		b = b.ExtendByPoint(dlat, dlon)
	}
	return b
}

// ContainsPoint reports whether (lat,lon) lies within b, per the
// south/east-closed, north/west-open convention.
func (b IndexBounds) ContainsPoint(lat, lon float64) bool {
	r, c := ToIndex(lat, lon)
	return b.SouthLat <= r && r < b.NorthLat && b.EastLon <= c && c < b.WestLon
}

// ContainsBounds reports whether b fully contains b2.
func (b IndexBounds) ContainsBounds(b2 IndexBounds) bool {
	if b2.Empty() {
		return true
	}
	return b.SouthLat <= b2.SouthLat && b2.NorthLat <= b.NorthLat &&
		b.EastLon <= b2.EastLon && b2.WestLon <= b.WestLon
}

// OverlapsBounds reports whether b and b2 share any index point.
func (b IndexBounds) OverlapsBounds(b2 IndexBounds) bool {
	if b.Empty() || b2.Empty() {
		return false
	}
	return b.SouthLat < b2.NorthLat && b2.SouthLat < b.NorthLat &&
		b.EastLon < b2.WestLon && b2.EastLon < b.WestLon
}
