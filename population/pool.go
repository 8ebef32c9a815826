package population

// Slab sizes per §4.E/§9: StudyPoint, CensusPoint and Field objects are
// drawn from arenas sized in these increments rather than allocated one
// at a time, to keep a scenario's allocation cost bounded regardless of
// study size.
const (
	studyPointSlabSize  = 50_000
	censusPointSlabSize = 100_000
	fieldSlabSize       = 200_000
)

// PointPool is the arena backing StudyPoint. Indices start at 0; the
// "no point" sentinel is noIndex (-1).
type PointPool struct {
	slabs [][]StudyPoint
	next  int32
}

func NewPointPool() *PointPool {
	return &PointPool{}
}

// Alloc returns the index of a freshly zeroed StudyPoint.
func (p *PointPool) Alloc() int32 {
	idx := p.next
	p.next++
	slabIdx, within := int(idx)/studyPointSlabSize, int(idx)%studyPointSlabSize
	for len(p.slabs) <= slabIdx {
		p.slabs = append(p.slabs, make([]StudyPoint, studyPointSlabSize))
	}
	p.slabs[slabIdx][within] = StudyPoint{FieldHead: noIndex}
	return idx
}

// Get returns a pointer to the StudyPoint at idx for in-place mutation.
func (p *PointPool) Get(idx int32) *StudyPoint {
	slabIdx, within := int(idx)/studyPointSlabSize, int(idx)%studyPointSlabSize
	return &p.slabs[slabIdx][within]
}

// Len reports how many points have been allocated since the last Reset.
func (p *PointPool) Len() int32 { return p.next }

// Reset truncates the pool's free-index counter back to zero. Slab
// memory is retained (not released) across scenarios, matching §4.E's
// "retained across scenarios" requirement.
func (p *PointPool) Reset() { p.next = 0 }

// CensusPool is the arena backing CensusPoint.
type CensusPool struct {
	slabs [][]CensusPoint
	next  int32
}

func NewCensusPool() *CensusPool { return &CensusPool{} }

func (p *CensusPool) Alloc() int32 {
	idx := p.next
	p.next++
	slabIdx, within := int(idx)/censusPointSlabSize, int(idx)%censusPointSlabSize
	for len(p.slabs) <= slabIdx {
		p.slabs = append(p.slabs, make([]CensusPoint, censusPointSlabSize))
	}
	p.slabs[slabIdx][within] = CensusPoint{}
	return idx
}

func (p *CensusPool) Get(idx int32) *CensusPoint {
	slabIdx, within := int(idx)/censusPointSlabSize, int(idx)%censusPointSlabSize
	return &p.slabs[slabIdx][within]
}

func (p *CensusPool) Len() int32 { return p.next }

func (p *CensusPool) Reset() { p.next = 0 }

// FieldPool is the arena backing Field, threaded as index-based
// singly-linked lists rooted at each StudyPoint's FieldHead.
type FieldPool struct {
	slabs [][]Field
	next  int32
}

func NewFieldPool() *FieldPool { return &FieldPool{} }

func (p *FieldPool) Alloc() int32 {
	idx := p.next
	p.next++
	slabIdx, within := int(idx)/fieldSlabSize, int(idx)%fieldSlabSize
	for len(p.slabs) <= slabIdx {
		p.slabs = append(p.slabs, make([]Field, fieldSlabSize))
	}
	p.slabs[slabIdx][within] = Field{Next: noIndex, Status: FieldUncalculated}
	return idx
}

func (p *FieldPool) Get(idx int32) *Field {
	slabIdx, within := int(idx)/fieldSlabSize, int(idx)%fieldSlabSize
	return &p.slabs[slabIdx][within]
}

func (p *FieldPool) Len() int32 { return p.next }

func (p *FieldPool) Reset() { p.next = 0 }

// AppendField pushes a new Field onto pt's list, held in pool, and
// returns the field's index. Duplicate (source, percentTime) detection
// is the caller's responsibility (the result cache's read path is where
// §4.F's "duplicate field is fatal" rule is enforced).
func AppendField(pool *FieldPool, pt *StudyPoint, sourceKey int32, percentTime, fieldDBu float64, status int32, cached, isUndesired bool) int32 {
	idx := pool.Alloc()
	f := pool.Get(idx)
	f.SourceKey = sourceKey
	f.PercentTime = percentTime
	f.FieldDBu = fieldDBu
	f.Status = status
	f.Cached = cached
	f.IsUndesired = isUndesired
	f.Next = pt.FieldHead
	pt.FieldHead = idx
	return idx
}

// FindField searches pt's field list (rooted at pt.FieldHead) for a
// record matching (sourceKey, percentTime), returning its index and true
// if found. Used to detect the duplicate-field condition §4.F/§8 treat
// as fatal.
func FindField(pool *FieldPool, pt *StudyPoint, sourceKey int32, percentTime float64) (int32, bool) {
	for idx := pt.FieldHead; idx != noIndex; {
		f := pool.Get(idx)
		if f.SourceKey == sourceKey && f.PercentTime == percentTime {
			return idx, true
		}
		idx = f.Next
	}
	return noIndex, false
}
