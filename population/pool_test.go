package population

import "testing"

func TestPointPoolResetRetainsSlabs(t *testing.T) {
	p := NewPointPool()
	for i := 0; i < studyPointSlabSize+10; i++ {
		p.Alloc()
	}
	if p.Len() != studyPointSlabSize+10 {
		t.Fatalf("Len() = %d, want %d", p.Len(), studyPointSlabSize+10)
	}
	slabsBefore := len(p.slabs)
	p.Reset()
	if p.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", p.Len())
	}
	if len(p.slabs) != slabsBefore {
		t.Errorf("Reset freed slab memory: had %d slabs, now %d", slabsBefore, len(p.slabs))
	}
}

func TestFieldPoolAllocMarksUncalculated(t *testing.T) {
	p := NewFieldPool()
	idx := p.Alloc()
	f := p.Get(idx)
	if f.Status != FieldUncalculated {
		t.Errorf("Status = %d, want FieldUncalculated (%d)", f.Status, FieldUncalculated)
	}
	if f.Next != noIndex {
		t.Errorf("Next = %d, want noIndex", f.Next)
	}
}

func TestAppendFieldAndFindField(t *testing.T) {
	points := NewPointPool()
	fields := NewFieldPool()
	idx := points.Alloc()
	pt := points.Get(idx)

	if _, ok := FindField(fields, pt, 7, 0); ok {
		t.Fatal("expected no field before any AppendField call")
	}

	AppendField(fields, pt, 7, 0, 62.5, 0, false, false)
	AppendField(fields, pt, 7, 10, 58.0, 0, false, false)

	fIdx, ok := FindField(fields, pt, 7, 0)
	if !ok {
		t.Fatal("expected to find the (source=7, percentTime=0) field")
	}
	if fields.Get(fIdx).FieldDBu != 62.5 {
		t.Errorf("FieldDBu = %v, want 62.5", fields.Get(fIdx).FieldDBu)
	}

	if _, ok := FindField(fields, pt, 9, 0); ok {
		t.Error("expected no match for an unrelated source key")
	}
}

func TestAppendFieldThreadsMultipleEntries(t *testing.T) {
	points := NewPointPool()
	fields := NewFieldPool()
	idx := points.Alloc()
	pt := points.Get(idx)

	AppendField(fields, pt, 1, 0, 50, 0, false, false)
	AppendField(fields, pt, 2, 0, 40, 0, true, true)

	count := 0
	for i := pt.FieldHead; i != noIndex; {
		f := fields.Get(i)
		count++
		i = f.Next
	}
	if count != 2 {
		t.Errorf("expected 2 fields threaded from FieldHead, got %d", count)
	}
}
