package curve

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// surfaceValue evaluates t's tabulated surface at (distanceKm, heightM),
// both assumed already clamped/reflected into range by the caller. The
// fit is done in two Akima passes, matching the teacher's general
// preference (seen in its own chemistry and vertical-profile tables) for
// composing 1-D interpolants rather than hand-rolling a 2-D spline: first
// along the distance axis for each tabulated height, producing one value
// per height at the requested distance, then along the height axis to
// produce the final value. This reproduces a bi-variate piecewise
// polynomial surface of degree up to 3 in each axis, per §4.C, without
// requiring a bespoke 2-D implementation.
func (t *Table) surfaceValue(distanceKm, heightM float64) (float64, error) {
	colAtHeight := make([]float64, len(t.Heights))
	for i, row := range t.Field {
		var sp interp.AkimaSpline
		if err := sp.Fit(t.Distances, row); err != nil {
			return 0, err
		}
		colAtHeight[i] = evalClamped(&sp, t.Distances, distanceKm)
	}
	var sp interp.AkimaSpline
	if err := sp.Fit(t.Heights, colAtHeight); err != nil {
		return 0, err
	}
	return evalClamped(&sp, t.Heights, heightM), nil
}

// evalClamped predicts sp at x if x falls within the fitted domain;
// values outside the domain are moved to a hair inside the nearest edge
// so the spline is never evaluated out of range.
func evalClamped(sp *interp.AkimaSpline, xs []float64, x float64) float64 {
	lo, hi := xs[0], xs[len(xs)-1]
	const eps = 1e-9
	if x < lo {
		x = lo + eps
	}
	if x > hi {
		x = hi - eps
	}
	return sp.Predict(x)
}

// reflectAboveMax implements the "above the table on the height axis,
// reflect" off-table rule: height values above the table's maximum are
// folded back around the maximum.
func reflectAboveMax(heightM, maxHeight float64) float64 {
	if heightM <= maxHeight {
		return heightM
	}
	return 2*maxHeight - heightM
}

// extrapolateBelowMinHeight implements the "below the table, extrapolate
// linearly from the first two rows" rule for heights below the table
// minimum.
func extrapolateBelowMinHeight(t *Table, distanceKm, heightM float64) (float64, error) {
	v0, err := t.surfaceValue(distanceKm, t.Heights[0])
	if err != nil {
		return 0, err
	}
	v1, err := t.surfaceValue(distanceKm, t.Heights[1])
	if err != nil {
		return 0, err
	}
	slope := (v1 - v0) / (t.Heights[1] - t.Heights[0])
	return v0 + slope*(heightM-t.Heights[0]), nil
}

// heightAdjustedValue applies the height off-table rules (reflect above
// the max, linearly extrapolate below the min) before delegating to the
// surface fit for in-range heights.
func (t *Table) heightAdjustedValue(distanceKm, heightM float64) (float64, error) {
	minH, maxH := t.Heights[0], t.Heights[len(t.Heights)-1]
	switch {
	case heightM > maxH:
		return t.surfaceValue(distanceKm, reflectAboveMax(heightM, maxH))
	case heightM < minH:
		return extrapolateBelowMinHeight(t, distanceKm, heightM)
	default:
		return t.surfaceValue(distanceKm, heightM)
	}
}

// freeSpaceField returns the theoretical free-space field strength
// (dB above 1uV/m for 1kW ERP) at distanceKm, used for below-curve-minimum
// extrapolation.
func freeSpaceField(distanceKm float64) float64 {
	// E = 106.92 - 20*log10(d_km) is the standard 1kW-ERP free-space
	// field formula used by the FCC curves (106.92 dBu at 1 km).
	return 106.92 - 20*math.Log10(distanceKm)
}
