package population

// TestPoint reports whether a study point at (lat,lon) is within a
// non-DTS source's service area, per §4.E: a named Geography is tested
// directly; a source with only a Contour is tested against the
// interpolated contour distance on the source->point bearing. area may
// be nil for neither-supplied sources, in which case every point fails.
func TestPoint(originLat, originLon, lat, lon float64, area ServiceArea) bool {
	if area == nil {
		return false
	}
	return area.Contains(originLat, originLon, lat, lon)
}

// Child is one DTS child source's service-area test input: its own
// origin and geometry.
type Child struct {
	Lat, Lon float64
	Area     ServiceArea
}

// DTSTest implements the §4.E DTS parent rule: the point passes if it
// lies within any child's service area; if truncateDTS is set and the
// parent itself carries a geography, the point must additionally lie
// either inside the parent's geography or within the reference
// facility's contour measured from the reference facility's own
// coordinates.
func DTSTest(lat, lon float64, children []Child, truncateDTS bool, parentArea ServiceArea, refLat, refLon float64, refContour *Contour) bool {
	insideAnyChild := false
	for _, c := range children {
		if c.Area != nil && c.Area.Contains(c.Lat, c.Lon, lat, lon) {
			insideAnyChild = true
			break
		}
	}
	if !insideAnyChild {
		return false
	}
	if !truncateDTS || parentArea == nil {
		return true
	}
	// parentArea.Contains needs an origin; the parent geography, when
	// present, is anchored at the reference facility's coordinates per
	// the same convention non-DTS sources use.
	if parentArea.Contains(refLat, refLon, lat, lon) {
		return true
	}
	if refContour != nil && refContour.Contains(refLat, refLon, lat, lon) {
		return true
	}
	return false
}
