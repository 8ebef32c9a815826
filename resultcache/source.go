package resultcache

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/gofrs/flock"
)

// SourceCacheRecord is the per-source parameter snapshot stored in
// source/<key>, compared field-by-field against the live source on
// read. Patterns and ContourKm are variable-length, which is why this
// record (unlike CellRecord) is gob-encoded rather than laid out with
// encoding/binary.
type SourceCacheRecord struct {
	SourceKey int32
	Lat, Lon  float64
	ERPKw     float64
	HAATm     float64
	ChannelBand int32
	Country     int32

	HorizontalPattern []float64 // 360 values at 1-degree spacing, or nil
	VerticalPattern   []float64 // depression-angle -> gain, or nil
	ContourKm         []float64 // tabulated distance-by-azimuth, or nil
}

// Equal compares every field against other, per §4.F's "any mismatch
// drops the whole cache for that source" rule.
func (r SourceCacheRecord) Equal(other SourceCacheRecord) bool {
	if r.SourceKey != other.SourceKey || r.Lat != other.Lat || r.Lon != other.Lon ||
		r.ERPKw != other.ERPKw || r.HAATm != other.HAATm ||
		r.ChannelBand != other.ChannelBand || r.Country != other.Country {
		return false
	}
	return float64SliceEqual(r.HorizontalPattern, other.HorizontalPattern) &&
		float64SliceEqual(r.VerticalPattern, other.VerticalPattern) &&
		float64SliceEqual(r.ContourKm, other.ContourKm)
}

func float64SliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SourceFile is one source's on-disk source/<key> cache file: a
// header plus the primary SourceCacheRecord, and for DTS parents a
// reference-facility record and one abbreviated-but-still-compared
// record per child.
type SourceFile struct {
	Header  Header
	Primary SourceCacheRecord
	Ref     *SourceCacheRecord   // DTS reference facility, nil for non-DTS
	Children []SourceCacheRecord // DTS children, empty for non-DTS
}

// LockSource returns the flock handle for sourceKey's source/<key>
// file within d: the single flock point gating every cache file
// (source, desired, undesired) belonging to that source, per §5.
// Callers RLock for reads, Lock for writes, held across the entire
// read or write of all related files.
func LockSource(d Dir, sourceKey int32) *flock.Flock {
	return flock.New(d.SourcePath(sourceKey))
}

// ReadSource decodes path's contents. The caller must already hold
// the source's lock (see LockSource) across this call. A version
// mismatch returns a non-fatal *Error (KindVersionMismatch); the
// caller should treat that, and any parameter mismatch it later finds
// via Equal, as "drop the cache and recompute."
func ReadSource(path string, live Header) (*SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "ReadSource", Err: err}
	}
	var sf SourceFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&sf); err != nil {
		return nil, &Error{Kind: KindIO, Op: "ReadSource", Err: err}
	}
	if !sf.Header.compatible(live) {
		return nil, &Error{Kind: KindVersionMismatch, Op: "ReadSource"}
	}
	return &sf, nil
}

// WriteSource fully rewrites path, per §4.F's "source files are always
// fully rewritten" rule. The caller must already hold the source's
// exclusive lock (see LockSource).
func WriteSource(path string, sf SourceFile) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sf); err != nil {
		return &Error{Kind: KindIO, Op: "WriteSource", Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return &Error{Kind: KindIO, Op: "WriteSource", Err: err}
	}
	return nil
}
