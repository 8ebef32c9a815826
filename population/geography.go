package population

import (
	"math"
	"sort"

	"github.com/ctessum/geom"

	"github.com/freepiratebay/tvstudy/geo"
)

// ServiceArea is anything a study point can be tested against for
// coverage: a named Geography, a bare Contour anchored at a source's
// coordinates, or a composite (DTS) test built from other ServiceAreas.
type ServiceArea interface {
	Contains(originLat, originLon, lat, lon float64) bool
}

// GeographyKind distinguishes the four shapes §3 allows a named
// Geography to take.
type GeographyKind int

const (
	GeoCircle GeographyKind = iota
	GeoBox
	GeoSector
	GeoPolygon
)

// SectorEntry is one {azimuth, radius} pair in a sectors geography.
// Azimuth is degrees true, strictly increasing across a geography's
// entry list; the list implicitly closes (the last entry's arc runs to
// 360 and wraps back to the first).
type SectorEntry struct {
	AzimuthDeg float64
	RadiusKm   float64
}

// Geography is one of circle/box/sectors/polygon, per §3. Only the
// fields relevant to Kind are populated.
type Geography struct {
	Kind GeographyKind

	RadiusKm float64 // GeoCircle

	WidthKm, HeightKm float64 // GeoBox, axis-aligned about the source

	Sectors []SectorEntry // GeoSector, azimuth-ascending

	Polygon geom.Polygon // GeoPolygon, lat/lon vertices as geom.Point{X:lon,Y:lat}
}

// Contains reports whether (lat,lon) lies within g, anchored at the
// source position (originLat, originLon).
func (g *Geography) Contains(originLat, originLon, lat, lon float64) bool {
	bearing, distance := geo.BearDistance(originLat, originLon, lat, lon)
	switch g.Kind {
	case GeoCircle:
		return distance <= g.RadiusKm
	case GeoBox:
		dLatKm := (lat - originLat) * geo.KmPerDegree
		dLonKm := (originLon - lon) * geo.KmPerDegree * math.Cos(originLat*math.Pi/180)
		return math.Abs(dLatKm) <= g.HeightKm/2 && math.Abs(dLonKm) <= g.WidthKm/2
	case GeoSector:
		r := sectorRadiusAt(g.Sectors, bearing)
		return distance <= r
	case GeoPolygon:
		p := geom.Point{X: lon, Y: lat}
		return p.Within(g.Polygon) != geom.Outside
	}
	return false
}

// sectorRadiusAt linearly interpolates the sectors list's radius at
// bearing, wrapping across the 360/0 boundary between the last and
// first entries.
func sectorRadiusAt(sectors []SectorEntry, bearing float64) float64 {
	if len(sectors) == 0 {
		return 0
	}
	if len(sectors) == 1 {
		return sectors[0].RadiusKm
	}
	sorted := append([]SectorEntry(nil), sectors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AzimuthDeg < sorted[j].AzimuthDeg })

	for i := 0; i < len(sorted); i++ {
		a := sorted[i]
		b := sorted[(i+1)%len(sorted)]
		azB := b.AzimuthDeg
		if i == len(sorted)-1 {
			azB += 360
		}
		az := bearing
		if az < a.AzimuthDeg {
			az += 360
		}
		if az >= a.AzimuthDeg && az <= azB {
			frac := (az - a.AzimuthDeg) / (azB - a.AzimuthDeg)
			return a.RadiusKm + frac*(b.RadiusKm-a.RadiusKm)
		}
	}
	return sorted[0].RadiusKm
}

// Contour is a tabulated distance-by-azimuth service boundary: a fixed
// count of distance samples at equal azimuth steps starting at 0 deg
// true, per §3.
type Contour struct {
	DistancesKm []float64 // equal azimuth steps covering 0..360
}

// DistanceAt linearly interpolates the contour's boundary distance at
// bearing (degrees true), wrapping across the table's implicit closure.
func (c *Contour) DistanceAt(bearing float64) float64 {
	n := len(c.DistancesKm)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return c.DistancesKm[0]
	}
	step := 360.0 / float64(n)
	az := math.Mod(bearing, 360)
	if az < 0 {
		az += 360
	}
	i := int(az / step)
	frac := (az - float64(i)*step) / step
	j := (i + 1) % n
	return c.DistancesKm[i] + frac*(c.DistancesKm[j]-c.DistancesKm[i])
}

// Contains implements ServiceArea for a bare contour: the point is
// covered if its distance from origin does not exceed the contour's
// interpolated boundary on that bearing.
func (c *Contour) Contains(originLat, originLon, lat, lon float64) bool {
	bearing, distance := geo.BearDistance(originLat, originLon, lat, lon)
	return distance <= c.DistanceAt(bearing)
}

// CountryForPoint tests (lat,lon) against each country's boundary
// polygon in turn and returns the first match, or US if none match,
// per §4.E's "country (polygon test on country-boundary data, default
// U.S. if no match)" rule.
func CountryForPoint(lat, lon float64, boundaries map[Country]geom.Polygon) Country {
	p := geom.Point{X: lon, Y: lat}
	for country, poly := range boundaries {
		if p.Within(poly) != geom.Outside {
			return country
		}
	}
	return US
}
