package tvstudy

import (
	"github.com/freepiratebay/tvstudy/curve"
	"github.com/freepiratebay/tvstudy/population"
)

// RecordType discriminates the kind of transmitter a Source describes, per
// the Design Note on varadic polymorphism: instead of a recordType field
// with scattered `if recordType == TV` conditionals, the type-specific
// fields live behind the Params interface.
type RecordType int

const (
	TV RecordType = iota
	FM
	Wireless
)

func (t RecordType) String() string {
	switch t {
	case TV:
		return "TV"
	case FM:
		return "FM"
	case Wireless:
		return "Wireless"
	default:
		return "unknown"
	}
}

// Params carries the fields specific to one RecordType. Only the
// concrete type matching a Source's RecordType is meaningful for that
// Source.
type Params interface {
	recordType() RecordType
}

// TVParams carries TV-specific fields: digital emission mask and DTS
// parenthood (a DTS parent has no pattern of its own, per §3).
type TVParams struct {
	Channel      int
	EmissionMask string
	DTSChildren  []*Source // nil unless this source is a DTS parent
	DTSRef       *Source   // the reference-facility child, nil unless a DTS parent
	TruncateDTS  bool
}

func (TVParams) recordType() RecordType { return TV }

// FMParams carries FM-specific fields.
type FMParams struct {
	Channel int
	Class   string
}

func (FMParams) recordType() RecordType { return FM }

// WirelessParams carries wireless-specific fields: a frequency rather
// than a channel number.
type WirelessParams struct {
	FrequencyMHz float64
}

func (WirelessParams) recordType() RecordType { return Wireless }

// HorizontalPattern is an optional 360-value relative-field table at
// 1-degree azimuth spacing.
type HorizontalPattern struct {
	// RelativeField holds 360 gain-relative values, index i == azimuth i
	// degrees true. A nil *HorizontalPattern means omnidirectional
	// (relative field 1.0 at every azimuth; see FieldAt).
	RelativeField [360]float64
}

// FieldAt returns the relative field at the given true bearing, linearly
// interpolating between the two nearest tabulated azimuths.
func (p *HorizontalPattern) FieldAt(bearingDeg float64) float64 {
	if p == nil {
		return 1.0
	}
	for bearingDeg < 0 {
		bearingDeg += 360
	}
	for bearingDeg >= 360 {
		bearingDeg -= 360
	}
	lo := int(bearingDeg)
	hi := (lo + 1) % 360
	frac := bearingDeg - float64(lo)
	return p.RelativeField[lo]*(1-frac) + p.RelativeField[hi]*frac
}

// VerticalPattern is an optional depression-angle-to-gain table (dB),
// used by curve.ElevationCorrector.
type VerticalPattern struct {
	// AngleDeg and GainDB are parallel tables, AngleDeg strictly
	// increasing, positive below horizontal.
	AngleDeg []float64
	GainDB   []float64
}

// GainAt implements curve.ElevationCorrector: linear interpolation over
// the tabulated points, clamped at the ends.
func (p *VerticalPattern) GainAt(depressionAngleDeg float64) float64 {
	if p == nil || len(p.AngleDeg) == 0 {
		return 0
	}
	if depressionAngleDeg <= p.AngleDeg[0] {
		return p.GainDB[0]
	}
	n := len(p.AngleDeg)
	if depressionAngleDeg >= p.AngleDeg[n-1] {
		return p.GainDB[n-1]
	}
	for i := 1; i < n; i++ {
		if depressionAngleDeg <= p.AngleDeg[i] {
			lo, hi := p.AngleDeg[i-1], p.AngleDeg[i]
			frac := (depressionAngleDeg - lo) / (hi - lo)
			return p.GainDB[i-1]*(1-frac) + p.GainDB[i]*frac
		}
	}
	return p.GainDB[n-1]
}

// Source is a transmitter, per §3's data model.
type Source struct {
	Key    int
	Lat    float64
	Lon    float64
	ERPKw  float64
	HAATm  float64
	Band   curve.Band
	Params Params

	Horizontal *HorizontalPattern
	Vertical   *VerticalPattern

	Country population.Country

	// Exactly one of Geography/Contour should be set; ServiceArea()
	// returns whichever applies, per §4.E's service-area test.
	Geography *population.Geography
	Contour   *population.Contour
}

// ServiceArea returns s's service-area test, preferring an explicit
// Geography over a Contour per §3 ("contour polar-distances, OR a named
// geography").
func (s *Source) ServiceArea() population.ServiceArea {
	if s.Geography != nil {
		return s.Geography
	}
	if s.Contour != nil {
		return s.Contour
	}
	return nil
}

// IsDTSParent reports whether s is a DTS parent: a TV source with one or
// more DTS children. A DTS parent holds no operating parameters of its
// own (§3) and contributes only a placeholder field, per §8's invariant.
func (s *Source) IsDTSParent() bool {
	tv, ok := s.Params.(TVParams)
	return ok && len(tv.DTSChildren) > 0
}
