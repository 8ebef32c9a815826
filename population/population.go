// Package population assembles study points from Census points within a
// study grid cell, and tests study points against a source's service-area
// geometry. It owns the slab-pool allocators the engine uses to keep
// per-scenario allocation cost bounded.
package population

// CensusPoint is one raw population record, as supplied by the
// population database collaborator: a (lat, lon) position, its
// population and household counts, owning country, and source block ID.
type CensusPoint struct {
	Lat, Lon         float64
	Population       int64
	Households       int64
	Country          Country
	BlockID          int64
	CellLatIdx       int32
	CellLonIdx       int32
}

// Country identifies the country a Census or study point belongs to.
type Country int

const (
	US Country = iota
	Canada
	Mexico
	Bahamas
	Cuba
)

// CenPointStatus records how far along a study point's Census-point
// backing is: freshly loaded from the population cache (partial, in the
// middle of being assembled), under active construction this run, or
// fully built.
type CenPointStatus int

const (
	CachedPartial CenPointStatus = iota
	Constructing
	Complete
)

// StudyPoint is a representative location inside one grid cell at which
// field strengths are computed and population is aggregated. CensusIdx
// holds indices into a CensusPool rather than a slice of CensusPoint
// values directly, so a scenario's Census backing can be dropped and
// reloaded independently of the StudyPoint itself.
type StudyPoint struct {
	Lat, Lon    float64
	CellLatIdx  int32
	CellLonIdx  int32
	Country     Country
	GroundElevM float64
	ClutterCode int

	AreaKm2          float64
	PopulationSum    int64
	HouseholdSum     int64

	CensusIdx   []int32 // indices into a CensusPool slab
	FieldHead   int32   // head of this point's Field index list, or noIndex
	CenStatus   CenPointStatus
}

// Field is one (source, percent-time) field-strength record attached to
// a study point. Next threads an index-based singly linked list within
// a FieldPool rather than a pointer, so the pool can be reset by
// truncating its free-index counter instead of walking and freeing
// nodes individually. Status is -1 until the field has actually been
// calculated (or read from cache), at which point it holds a
// non-negative code; Cached marks a field read from the result cache
// rather than computed this run; IsUndesired distinguishes an
// interference contribution from the desired (PercentTime == 0) field.
type Field struct {
	SourceKey   int32
	PercentTime float64
	FieldDBu    float64
	Status      int32
	Cached      bool
	IsUndesired bool
	Next        int32 // index into the owning FieldPool, or noIndex
}

// FieldUncalculated is the Status value every Field starts with, per
// §3: "status (-1 uncalculated, >=0 calculated)".
const FieldUncalculated int32 = -1

// noIndex is the Option<NonMaxU32>-style "no next" sentinel used
// throughout the pools below.
const noIndex int32 = -1
