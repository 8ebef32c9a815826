package population

// AggregationMethod selects how Census points within one grid cell
// collapse into study points, per §4.E.
type AggregationMethod int

const (
	Centroid AggregationMethod = iota
	Largest
	Center
	All
)

// CellInput is one grid cell's worth of raw Census points, grouped by
// country by the caller (AssignCell expects census already filtered to
// one (cell, country) pair for Centroid/Largest/Center; for All it
// processes the whole cell's census slice directly).
type CellInput struct {
	CellLatIdx, CellLonIdx int32
	CenterLat, CenterLon   float64
	AreaKm2                float64
	Census                 []int32 // indices into censusPool, one country's worth
}

// AssignCell builds the study points for one (cell, country) group
// according to method, appending newly allocated points to points and
// returning their indices. snapToNearest only affects Centroid/Center:
// when set, the computed position is replaced by the nearest Census
// point's actual coordinates.
func AssignCell(points *PointPool, census *CensusPool, in CellInput, method AggregationMethod, country Country, snapToNearest bool) []int32 {
	if len(in.Census) == 0 {
		idx := points.Alloc()
		pt := points.Get(idx)
		pt.Lat, pt.Lon = in.CenterLat, in.CenterLon
		pt.CellLatIdx, pt.CellLonIdx = in.CellLatIdx, in.CellLonIdx
		pt.Country = country
		pt.AreaKm2 = in.AreaKm2
		return []int32{idx}
	}

	switch method {
	case All:
		out := make([]int32, 0, len(in.Census))
		totalPop := int64(0)
		for _, ci := range in.Census {
			totalPop += census.Get(ci).Population
		}
		for _, ci := range in.Census {
			cp := census.Get(ci)
			idx := points.Alloc()
			pt := points.Get(idx)
			pt.Lat, pt.Lon = cp.Lat, cp.Lon
			pt.CellLatIdx, pt.CellLonIdx = in.CellLatIdx, in.CellLonIdx
			pt.Country = country
			pt.PopulationSum = cp.Population
			pt.HouseholdSum = cp.Households
			pt.CensusIdx = []int32{ci}
			pt.AreaKm2 = areaShare(cp.Population, totalPop, len(in.Census), in.AreaKm2)
			out = append(out, idx)
		}
		return out

	case Largest:
		best := in.Census[0]
		for _, ci := range in.Census[1:] {
			if census.Get(ci).Population > census.Get(best).Population {
				best = ci
			}
		}
		bp := census.Get(best)
		idx := points.Alloc()
		pt := points.Get(idx)
		pt.Lat, pt.Lon = bp.Lat, bp.Lon
		pt.CellLatIdx, pt.CellLonIdx = in.CellLatIdx, in.CellLonIdx
		pt.Country = country
		pt.CensusIdx = append([]int32(nil), in.Census...)
		pt.PopulationSum, pt.HouseholdSum = sumCensus(census, in.Census)
		pt.AreaKm2 = in.AreaKm2
		return []int32{idx}

	case Center:
		idx := points.Alloc()
		pt := points.Get(idx)
		pt.Lat, pt.Lon = in.CenterLat, in.CenterLon
		if snapToNearest {
			pt.Lat, pt.Lon = nearestCensusPoint(census, in.Census, in.CenterLat, in.CenterLon)
		}
		pt.CellLatIdx, pt.CellLonIdx = in.CellLatIdx, in.CellLonIdx
		pt.Country = country
		pt.CensusIdx = append([]int32(nil), in.Census...)
		pt.PopulationSum, pt.HouseholdSum = sumCensus(census, in.Census)
		pt.AreaKm2 = in.AreaKm2
		return []int32{idx}

	default: // Centroid
		var sumLat, sumLon float64
		var sumPop int64
		for _, ci := range in.Census {
			cp := census.Get(ci)
			sumLat += cp.Lat * float64(cp.Population)
			sumLon += cp.Lon * float64(cp.Population)
			sumPop += cp.Population
		}
		idx := points.Alloc()
		pt := points.Get(idx)
		if sumPop > 0 {
			pt.Lat, pt.Lon = sumLat/float64(sumPop), sumLon/float64(sumPop)
		} else {
			pt.Lat, pt.Lon = in.CenterLat, in.CenterLon
		}
		if snapToNearest {
			pt.Lat, pt.Lon = nearestCensusPoint(census, in.Census, pt.Lat, pt.Lon)
		}
		pt.CellLatIdx, pt.CellLonIdx = in.CellLatIdx, in.CellLonIdx
		pt.Country = country
		pt.CensusIdx = append([]int32(nil), in.Census...)
		pt.PopulationSum, pt.HouseholdSum = sumCensus(census, in.Census)
		pt.AreaKm2 = in.AreaKm2
		return []int32{idx}
	}
}

func sumCensus(census *CensusPool, idxs []int32) (pop, households int64) {
	for _, ci := range idxs {
		cp := census.Get(ci)
		pop += cp.Population
		households += cp.Households
	}
	return
}

// areaShare distributes a cell's area in proportion to one point's
// share of the cell's total population; a cell where every point has
// zero population falls back to an even split.
func areaShare(pop, totalPop int64, n int, areaKm2 float64) float64 {
	if totalPop <= 0 {
		return areaKm2 / float64(n)
	}
	return areaKm2 * float64(pop) / float64(totalPop)
}

func nearestCensusPoint(census *CensusPool, idxs []int32, lat, lon float64) (float64, float64) {
	bestDist := -1.0
	bestLat, bestLon := lat, lon
	for _, ci := range idxs {
		cp := census.Get(ci)
		dLat, dLon := cp.Lat-lat, cp.Lon-lon
		d := dLat*dLat + dLon*dLon
		if bestDist < 0 || d < bestDist {
			bestDist = d
			bestLat, bestLon = cp.Lat, cp.Lon
		}
	}
	return bestLat, bestLon
}
