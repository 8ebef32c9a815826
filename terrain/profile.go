package terrain

import (
	"math"

	"github.com/freepiratebay/tvstudy/geo"
)

// segmentKm is the length of one great-circle segment within a profile:
// only segment endpoints get the full spherical destination-point
// calculation, and points within a segment advance by a linear
// lat/lon delta, trading a small amount of accuracy for a much cheaper
// inner loop over a radial's many sample points.
const segmentKm = 16.0

// ProfilePoint is one sampled point along a radial.
type ProfilePoint struct {
	Lat, Lon  float64
	DistanceKm float64
	ElevationM float64
}

// Profile samples elevation along the great-circle path from (lat,lon)
// on bearing degrees out to distanceKm, at pointsPerKm points per
// kilometer. Each point is looked up with Elevation, so the database
// fallback runs once per point; cells already loaded come from the LRU.
func (c *Cache) Profile(lat, lon, bearing, distanceKm float64, pointsPerKm float64) ([]ProfilePoint, error) {
	if pointsPerKm <= 0 {
		pointsPerKm = 1
	}
	step := 1.0 / pointsPerKm
	nPoints := int(distanceKm/step) + 1

	points := make([]ProfilePoint, 0, nPoints)

	segStartLat, segStartLon := lat, lon
	segStartDist := 0.0
	segEndLat, segEndLon := lat, lon

	for i := 0; i <= nPoints; i++ {
		d := float64(i) * step
		if d > distanceKm {
			d = distanceKm
		}

		for d > segStartDist+segmentKm && segStartDist+segmentKm < distanceKm {
			segStartDist += segmentKm
			segStartLat, segStartLon = geo.Coordinates(lat, lon, bearing, segStartDist)
		}
		segEndDist := segStartDist + segmentKm
		if segEndDist > distanceKm {
			segEndDist = distanceKm
		}
		segEndLat, segEndLon = geo.Coordinates(lat, lon, bearing, segEndDist)

		var pLat, pLon float64
		if segEndDist <= segStartDist {
			pLat, pLon = segStartLat, segStartLon
		} else {
			frac := (d - segStartDist) / (segEndDist - segStartDist)
			pLat = segStartLat + frac*(segEndLat-segStartLat)
			pLon = segStartLon + frac*(segEndLon-segStartLon)
		}

		elev, err := c.Elevation(pLat, pLon)
		if err != nil {
			return nil, err
		}
		points = append(points, ProfilePoint{Lat: pLat, Lon: pLon, DistanceKm: d, ElevationM: elev})

		if d >= distanceKm {
			break
		}
	}
	return points, nil
}

// BilinearElevation returns the elevation at (lat,lon) interpolated
// across the four terrain samples surrounding it within the first
// database in FallbackOrder that has data, rather than snapping to the
// nearest sample as Elevation does. Profile does not currently call
// this directly (TODO: thread pointsPerKm-scale interpolation into the
// per-point loop once a radial's accuracy requirements call for it);
// it exists as the building block for that finer-grained sampling.
func (c *Cache) BilinearElevation(lat, lon float64) (float64, error) {
	for _, db := range FallbackOrder {
		dir, ok := c.dirs[db]
		if !ok {
			continue
		}
		cell, err := c.lookupCell(db, dir, lat, lon)
		if err != nil {
			if terr, ok := err.(*Error); ok && !terr.Fatal() {
				continue
			}
			return 0, err
		}
		if cell.Missing {
			continue
		}
		if cell.LatPoints <= 1 || cell.LonPoints <= 1 {
			return cell.ElevationAt(0, 0), nil
		}

		cellLat0 := float64(cell.LatIdx) / CellsPerDegree
		cellLon0 := float64(cell.LonIdx) / CellsPerDegree
		cellSize := 1.0 / CellsPerDegree

		fr := clampFloatRange((lat-cellLat0)/cellSize*float64(cell.LatPoints-1), float64(cell.LatPoints-1))
		fc := clampFloatRange((lon-cellLon0)/cellSize*float64(cell.LonPoints-1), float64(cell.LonPoints-1))
		r0 := int(math.Floor(fr))
		c0 := int(math.Floor(fc))
		r1 := minInt(r0+1, cell.LatPoints-1)
		c1 := minInt(c0+1, cell.LonPoints-1)
		tr := fr - float64(r0)
		tc := fc - float64(c0)

		v00 := cell.ElevationAt(r0, c0)
		v01 := cell.ElevationAt(r0, c1)
		v10 := cell.ElevationAt(r1, c0)
		v11 := cell.ElevationAt(r1, c1)

		top := v00 + tc*(v01-v00)
		bottom := v10 + tc*(v11-v10)
		return top + tr*(bottom-top), nil
	}
	return 0, &Error{Kind: KindMissingFile, Op: "BilinearElevation"}
}

func clampFloatRange(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
