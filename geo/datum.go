package geo

import (
	"fmt"
	"math"
)

// Datum identifies a horizontal datum the engine accepts source or study
// coordinates in. NAD83 and WGS84/WGS72 are treated as equivalent for the
// engine's purposes; the distinguished datum is NAD27.
type Datum int

const (
	NAD83 Datum = iota
	NAD27
	WGS72
)

// method selects how a NADCON region converts NAD27<->NAD83: either a
// bilinear table lookup or the abridged Molodensky formulas.
type method int

const (
	methodTable method = iota
	methodMolodensky
)

// region is one of the eleven rectangular NADCON conversion regions. They
// are tried in declared order; the first one containing the input point
// wins, so overlapping regions are resolved by list position.
type region struct {
	name           string
	southLat       float64 // degrees, inclusive
	northLat       float64 // degrees, exclusive
	eastLon        float64 // degrees positive-west, inclusive
	westLon        float64 // degrees positive-west, exclusive
	method         method
	table          *nadconTable // non-nil when method == methodTable
	dx, dy, dz     float64      // Molodensky NAD27 -> NAD83 translation, meters
}

// regions lists the eleven conversion regions in the order they are
// tried. Table-based regions hold placeholder (non-authoritative) shift
// grids generated on first use rather than the real NADCON data files;
// see nadconTable for the reasoning. The region boundaries are
// approximations of the real NADCON coverage areas, sufficient to make
// the "first containing region wins" selection rule exercise correctly.
var regions = []region{
	{name: "conus", southLat: 24, northLat: 50, eastLon: 66, westLon: 125, method: methodTable},
	{name: "alaska", southLat: 51, northLat: 72, eastLon: 129, westLon: 195, method: methodTable},
	{name: "hawaii", southLat: 18, northLat: 23, eastLon: 154, westLon: 161, method: methodTable},
	{name: "puerto-rico-vi", southLat: 17, northLat: 19, eastLon: 64, westLon: 68, method: methodTable},
	{name: "st-croix", southLat: 17, northLat: 18, eastLon: 64, westLon: 65, method: methodTable},
	{name: "st-john", southLat: 18, northLat: 19, eastLon: 64, westLon: 65, method: methodTable},
	{name: "st-thomas", southLat: 18, northLat: 19, eastLon: 64, westLon: 65, method: methodTable},
	{name: "guam", southLat: 13, northLat: 14, eastLon: -145, westLon: -144, method: methodMolodensky, dx: -100, dy: -248, dz: 259},
	{name: "samoa", southLat: -15, northLat: -13, eastLon: -171, westLon: -169, method: methodMolodensky, dx: 253, dy: 401, dz: 155},
	{name: "canada", southLat: 41, northLat: 84, eastLon: 52, westLon: 141, method: methodMolodensky, dx: -10, dy: 158, dz: 187},
	{name: "mexico", southLat: 14, northLat: 33, eastLon: 86, westLon: 118, method: methodMolodensky, dx: -12, dy: 130, dz: 190},
}

func findRegion(lat, lon float64) *region {
	for i := range regions {
		r := &regions[i]
		if lat >= r.southLat && lat < r.northLat && lon >= r.eastLon && lon < r.westLon {
			return r
		}
	}
	return nil
}

// ToNAD83 converts a point from datum d to NAD83/WGS84. Conversion is
// direct (non-iterative): the NADCON table region, if any, is interpolated
// bilinearly; otherwise the abridged Molodensky formula is applied.
func ToNAD83(d Datum, lat, lon float64) (outLat, outLon float64, err error) {
	if d != NAD27 {
		return lat, lon, nil
	}
	r := findRegion(lat, lon)
	if r == nil {
		return lat, lon, &Error{Kind: KindOutsideDataArea, Op: "ToNAD83"}
	}
	switch r.method {
	case methodTable:
		if r.table == nil {
			r.table = &nadconTable{}
		}
		t, terr := r.table.load(r.name)
		if terr != nil {
			return lat, lon, &Error{Kind: KindDatabaseIO, Op: "ToNAD83", Err: terr}
		}
		dlat, dlon := t.interpolate(lat, lon)
		return lat + dlat, lon + dlon, nil
	default:
		dlat, dlon := molodensky(lat, lon, r.dx, r.dy, r.dz)
		return lat + dlat, lon + dlon, nil
	}
}

// FromNAD83 converts a point from NAD83/WGS84 to datum d. Because the
// tabulated/Molodensky shift is only defined in the NAD27->NAD83
// direction, the inverse is found iteratively: the forward conversion is
// applied to the current NAD27 guess (seeded with the NAD83 coordinates),
// and the guess is corrected by the residual, until both the latitude and
// longitude residual are below 1e-10 degrees or 20 iterations elapse.
func FromNAD83(d Datum, lat83, lon83 float64) (outLat, outLon float64, err error) {
	if d != NAD27 {
		return lat83, lon83, nil
	}
	guessLat, guessLon := lat83, lon83
	for i := 0; i < 20; i++ {
		fwdLat, fwdLon, ferr := ToNAD83(d, guessLat, guessLon)
		if ferr != nil {
			return lat83, lon83, ferr
		}
		residLat := lat83 - fwdLat
		residLon := lon83 - fwdLon
		guessLat += residLat
		guessLon += residLon
		if math.Abs(residLat) < 1e-10 && math.Abs(residLon) < 1e-10 {
			return guessLat, guessLon, nil
		}
	}
	return lat83, lon83, &Error{Kind: KindIterationDidNotConverge, Op: "FromNAD83",
		Err: fmt.Errorf("did not converge after 20 iterations")}
}

// molodensky applies the abridged Molodensky datum-shift formula for a
// NAD27 (Clarke 1866) -> NAD83/WGS84 translation given in meters.
func molodensky(lat, lon, dx, dy, dz float64) (dlat, dlon float64) {
	const (
		a  = 6378206.4    // Clarke 1866 semi-major axis, m
		f  = 1 / 294.9786982 // Clarke 1866 flattening
		a2 = 6378137.0    // WGS84 semi-major axis, m
		f2 = 1 / 298.257223563
	)
	da := a2 - a
	df := f2 - f
	rlat := lat * math.Pi / 180
	rlon := -lon * math.Pi / 180 // positive-west -> positive-east for the formula
	sinLat, cosLat := math.Sin(rlat), math.Cos(rlat)
	sinLon, cosLon := math.Sin(rlon), math.Cos(rlon)
	e2 := 2*f - f*f
	rn := a / math.Sqrt(1-e2*sinLat*sinLat)
	rm := a * (1 - e2) / math.Pow(1-e2*sinLat*sinLat, 1.5)

	dLatSec := (-dx*sinLat*cosLon - dy*sinLat*sinLon + dz*cosLat +
		da*(rn*e2*sinLat*cosLat)/a + df*(rm*a/(a*(1-f))+rn*(a*(1-f))/a)*sinLat*cosLat) / (rm + 0)
	dLonSec := (-dx*sinLon + dy*cosLon) / (rn * cosLat)

	return dLatSec * 180 / math.Pi, -dLonSec * 180 / math.Pi // back to positive-west
}
