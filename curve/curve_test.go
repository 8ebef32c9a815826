package curve

import (
	"math"
	"testing"
)

func TestLookupFieldScenario(t *testing.T) {
	field, _, err := LookupField(0, 100, 305, VHFHigh, F5050, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(field-49) > 0.2 {
		t.Errorf("field = %v, want ~49 within 0.2 dB", field)
	}
}

func TestLookupDistanceScenario(t *testing.T) {
	dist, _, err := LookupDistance(49, 0, 305, VHFHigh, F5050, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(dist-100)/100 > 0.02 {
		t.Errorf("distance = %v, want ~100 within 2%%", dist)
	}
}

func TestLookupFieldDistanceRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		band   Band
		set    TimeSet
		dist   float64
		height float64
	}{
		{VHFLow, F5050, 50, 100},
		{VHFHigh, F5050, 120, 305},
		{UHF, F5050, 80, 609.6},
		{VHFHigh, F5010, 60, 152.4},
	} {
		field, _, err := LookupField(3, tc.dist, tc.height, tc.band, tc.set, Options{})
		if err != nil {
			t.Fatalf("%+v: LookupField: %v", tc, err)
		}
		dist, _, err := LookupDistance(field, 3, tc.height, tc.band, tc.set, Options{})
		if err != nil {
			t.Fatalf("%+v: LookupDistance: %v", tc, err)
		}
		if math.Abs(dist-tc.dist)/tc.dist > 0.02 {
			t.Errorf("%+v: round-trip distance = %v, want ~%v", tc, dist, tc.dist)
		}
	}
}

func TestLookupPowerSubtractsField(t *testing.T) {
	field, _, err := LookupField(5, 60, 150, VHFLow, F5050, Options{})
	if err != nil {
		t.Fatal(err)
	}
	power, _, err := LookupPower(field, 60, 150, VHFLow, F5050, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(power-5) > 1e-6 {
		t.Errorf("power = %v, want 5", power)
	}
}

func TestSwitchedToMedianAdvisory(t *testing.T) {
	t5010 := Tables[VHFHigh][F5010]
	below := t5010.minDist() * 0.5
	_, adv, err := LookupField(0, below, 300, VHFHigh, F5010, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if adv != SwitchedToMedian {
		t.Errorf("advisory = %v, want SwitchedToMedian", adv)
	}
}

func TestClampedToMaxAdvisory(t *testing.T) {
	tbl := Tables[UHF][F5050]
	above := tbl.maxDist() * 2
	_, adv, err := LookupField(0, above, 300, UHF, F5050, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if adv != ClampedToMax {
		t.Errorf("advisory = %v, want ClampedToMax", adv)
	}
}

func TestBelowMinPolicies(t *testing.T) {
	tbl := Tables[VHFLow][F5050]
	below := tbl.minDist() * 0.5

	clamped, _, err := LookupField(0, below, 200, VHFLow, F5050, Options{BelowMin: ClampToMin})
	if err != nil {
		t.Fatal(err)
	}
	atMin, _, err := LookupField(0, tbl.minDist(), 200, VHFLow, F5050, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(clamped-atMin) > 0.2 {
		t.Errorf("clamped = %v, want ~= value at min dist %v", clamped, atMin)
	}

	scaled, _, err := LookupField(0, below, 200, VHFLow, F5050, Options{BelowMin: ScaledFreeSpace})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(scaled-atMin) < 1e-6 {
		t.Errorf("scaled free-space should differ from the clamp-to-min value")
	}
}

type constGain float64

func (g constGain) GainAt(angle float64) float64 { return float64(g) }

func TestElevationCorrectionShiftsField(t *testing.T) {
	plain, _, err := LookupField(0, 80, 300, VHFHigh, F5050, Options{})
	if err != nil {
		t.Fatal(err)
	}
	corrected, _, err := LookupField(0, 80, 300, VHFHigh, F5050, Options{Elevation: constGain(3)})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs((corrected-plain)-3) > 1e-6 {
		t.Errorf("corrected-plain = %v, want 3", corrected-plain)
	}
}
