package curve

import (
	"fmt"
	"math"
)

// Options controls the optional behaviors of a lookup.
type Options struct {
	// BelowMin selects the distance-below-table-minimum policy. The zero
	// value is PlainFreeSpace.
	BelowMin BelowMinPolicy
	// Elevation, if non-nil, applies a vertical-pattern correction to
	// every table evaluation at the depression angle implied by the
	// current distance and receiver height.
	Elevation ElevationCorrector
}

func (t *Table) belowMinValue(band Band, set TimeSet, distanceKm, heightM float64, opt Options) (float64, Advisory, error) {
	minD := t.minDist()
	curveAtMin, err := t.heightAdjustedValue(minD, heightM)
	if err != nil {
		return 0, NoAdvisory, err
	}
	switch opt.BelowMin {
	case ClampToMin:
		return curveAtMin, UsedFreeSpace, nil
	case ScaledFreeSpace:
		scale := curveAtMin - freeSpaceField(minD)
		return freeSpaceField(distanceKm) + scale, UsedFreeSpace, nil
	default: // PlainFreeSpace
		return freeSpaceField(distanceKm), UsedFreeSpace, nil
	}
}

// tableValue evaluates the band/set table at (distanceKm, heightM),
// applying the §4.C off-table transitions: below-minimum distance policy,
// above-maximum distance clamping, the F(50,10)/F(50,90)-below-minimum
// silent switch to F(50,50), and (if opt.Elevation is set) the vertical
// pattern correction.
func tableValue(band Band, set TimeSet, distanceKm, heightM float64, opt Options) (float64, Advisory, error) {
	t := Tables[band][set]
	advisory := NoAdvisory

	effectiveSet := set
	effectiveTable := t
	if set != F5050 && distanceKm < t.minDist() {
		effectiveSet = F5050
		effectiveTable = Tables[band][F5050]
		advisory = SwitchedToMedian
	}

	d := distanceKm
	if d > effectiveTable.maxDist() {
		d = effectiveTable.maxDist()
		if advisory == NoAdvisory {
			advisory = ClampedToMax
		}
	}

	var value float64
	var err error
	if d < effectiveTable.minDist() {
		value, advisory, err = effectiveTable.belowMinValue(band, effectiveSet, d, heightM, opt)
	} else {
		value, err = effectiveTable.heightAdjustedValue(d, heightM)
	}
	if err != nil {
		return 0, NoAdvisory, err
	}

	if opt.Elevation != nil {
		angle := depressionAngle(distanceKm, heightM)
		value += opt.Elevation.GainAt(angle)
	}
	return value, advisory, nil
}

// LookupField computes field strength (mode 1): direct interpolation of
// the table value for powerDbk (dB above 1 kW ERP) at distanceKm and
// heightM.
func LookupField(powerDbk, distanceKm, heightM float64, band Band, set TimeSet, opt Options) (fieldDbu float64, adv Advisory, err error) {
	v, adv, err := tableValue(band, set, distanceKm, heightM, opt)
	if err != nil {
		return 0, NoAdvisory, err
	}
	return v + powerDbk, adv, nil
}

// LookupPower computes ERP (mode 2): direct interpolation, then subtract.
func LookupPower(fieldDbu, distanceKm, heightM float64, band Band, set TimeSet, opt Options) (powerDbk float64, adv Advisory, err error) {
	v, adv, err := tableValue(band, set, distanceKm, heightM, opt)
	if err != nil {
		return 0, NoAdvisory, err
	}
	return fieldDbu - v, adv, nil
}

// LookupDistance computes distance given field and power (mode 3):
// an iterative sweep-then-refine search for the distance whose tabulated
// field (at powerDbk) equals fieldDbu. The sweep starts with an 81.25 km
// step over the set's [min,max] distance range, brackets the target,
// then refines the step by a factor of 10 for up to 3 more passes before
// linearly interpolating within the final bracket.
//
// When opt.Elevation is set this search is itself iterative even for the
// free-space fallback branch, because the correction depends on the
// current distance guess; the correction delta is tracked with
// sign-change detection to drive a secant update, terminating when the
// delta falls below 0.01 dB or after 50 iterations.
func LookupDistance(fieldDbu, powerDbk, heightM float64, band Band, set TimeSet, opt Options) (distanceKm float64, adv Advisory, err error) {
	target := fieldDbu - powerDbk
	t := Tables[band][set]

	dist, adv, err := sweepAndBracket(band, set, t.minDist(), t.maxDist(), target, heightM, opt)
	if err != nil {
		return 0, adv, err
	}

	if opt.Elevation == nil {
		return dist, adv, nil
	}
	return refineWithElevation(band, set, dist, heightM, target, opt)
}

// sweepAndBracket performs the 81.25km-step sweep/bracket/refine search
// described above.
func sweepAndBracket(band Band, set TimeSet, lo, hi, target, heightM float64, opt Options) (float64, Advisory, error) {
	step := 81.25
	var lastAdv Advisory
	for pass := 0; pass < 4; pass++ {
		d := lo
		prevD := d
		prevVal, adv, err := tableValue(band, set, d, heightM, opt)
		if err != nil {
			return 0, NoAdvisory, err
		}
		lastAdv = adv
		loVal := prevVal
		found := false
		for d += step; d <= hi+step/2; d += step {
			dd := d
			if dd > hi {
				dd = hi
			}
			val, adv2, err := tableValue(band, set, dd, heightM, opt)
			if err != nil {
				return 0, NoAdvisory, err
			}
			if (prevVal-target)*(val-target) <= 0 {
				lo, hi = prevD, dd
				lastAdv = adv2
				found = true
				break
			}
			prevD, prevVal = dd, val
			if dd >= hi {
				break
			}
		}
		if !found {
			// Target is outside the curve's range entirely; return the
			// closer endpoint.
			if math.Abs(loVal-target) < math.Abs(prevVal-target) {
				return lo, lastAdv, nil
			}
			return prevD, lastAdv, nil
		}
		step /= 10
	}
	// Final linear interpolation within the bracket [lo,hi].
	vLo, _, err := tableValue(band, set, lo, heightM, opt)
	if err != nil {
		return 0, NoAdvisory, err
	}
	vHi, _, err := tableValue(band, set, hi, heightM, opt)
	if err != nil {
		return 0, NoAdvisory, err
	}
	if vHi == vLo {
		return lo, lastAdv, nil
	}
	frac := (target - vLo) / (vHi - vLo)
	return lo + frac*(hi-lo), lastAdv, nil
}

// refineWithElevation iterates the distance-given-field search with the
// elevation-pattern correction applied at each step, using a secant
// update once the correction delta changes sign.
func refineWithElevation(band Band, set TimeSet, initialDist, heightM, target float64, opt Options) (float64, Advisory, error) {
	t := Tables[band][set]
	d := initialDist
	var prevDelta float64
	var prevD float64
	haveSignChange := false

	for i := 0; i < 50; i++ {
		v, adv, err := tableValue(band, set, d, heightM, opt)
		if err != nil {
			return 0, adv, err
		}
		delta := v - target
		if math.Abs(delta) < 0.01 {
			return d, adv, nil
		}
		if haveSignChange || (i > 0 && prevDelta*delta < 0) {
			haveSignChange = true
			denom := delta - prevDelta
			if denom == 0 {
				break
			}
			nextD := d - delta*(d-prevD)/denom
			prevD, prevDelta = d, delta
			d = clampDist(nextD, t.minDist(), t.maxDist())
			continue
		}
		// Not yet bracketed: nudge distance by 1% in the direction that
		// reduces |delta|, matching the FCC curve's monotonic-decreasing-
		// field-with-distance behavior.
		prevD, prevDelta = d, delta
		if delta > 0 {
			d *= 1.01
		} else {
			d *= 0.99
		}
		d = clampDist(d, t.minDist(), t.maxDist())
	}
	return 0, NoAdvisory, &Error{Op: "LookupDistance", Err: fmt.Errorf("elevation-corrected iteration did not converge after 50 iterations")}
}

func clampDist(d, lo, hi float64) float64 {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
