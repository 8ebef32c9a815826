package resultcache

import (
	"encoding/binary"
	"os"
)

// ReadDesired reads path's header and desired-cell records. A header
// that doesn't match live (magic/version, or the user-terrain
// request/version tracking of §4.F) drops the whole cache: ReadDesired
// returns a *Error{Kind: KindVersionMismatch} and no records, the same
// way a corrupt or missing file is handled by the caller. A cell record
// falling outside the study grid (reported by the caller via inGrid) is
// a hard error per §4.F, but is still logged rather than causing the
// cache file itself to be deleted; ReadDesired stops at the first such
// record and returns what it read along with the error, leaving the
// caller to decide whether to keep using the partial result.
func ReadDesired(path string, live Header, inGrid func(latIdx, lonIdx int32) bool) ([]CellRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "ReadDesired", Err: err}
	}
	defer f.Close()

	hdr, err := readHeader(f)
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "ReadDesired", Err: err}
	}
	if !hdr.compatible(live) {
		return nil, &Error{Kind: KindVersionMismatch, Op: "ReadDesired"}
	}

	info, err := f.Stat()
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "ReadDesired", Err: err}
	}
	size := info.Size()
	const magicSize = 4
	const recSize = cellRecordWireSize

	var recs []CellRecord
	pos := int64(headerWireSize)
	for pos+magicSize <= size {
		if size-pos == magicSize {
			var tag uint32
			if err := binary.Read(f, recordOrder, &tag); err != nil {
				return recs, &Error{Kind: KindIO, Op: "ReadDesired", Err: err}
			}
			if tag != magic {
				return recs, &Error{Kind: KindIO, Op: "ReadDesired", Err: errNotTerminated}
			}
			break
		}
		rec, err := readRecord(f)
		if err != nil {
			return recs, &Error{Kind: KindIO, Op: "ReadDesired", Err: err}
		}
		pos += recSize
		if inGrid != nil && !inGrid(rec.CellLatIdx, rec.CellLonIdx) {
			return recs, &Error{Kind: KindOutsideGrid, Op: "ReadDesired"}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// WriteDesired fully rewrites path with a leading header and recs,
// terminated by the magic EOF marker, per §4.F.
func WriteDesired(path string, sourceKey int32, live Header, recs []CellRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return &Error{Kind: KindIO, Op: "WriteDesired", Err: err}
	}
	defer f.Close()

	if err := writeHeader(f, live); err != nil {
		return &Error{Kind: KindIO, Op: "WriteDesired", Err: err}
	}

	running := SeedChecksum(sourceKey)
	for _, rec := range recs {
		running, err = writeRecord(f, rec, running)
		if err != nil {
			return &Error{Kind: KindIO, Op: "WriteDesired", Err: err}
		}
	}
	return binary.Write(f, recordOrder, magic)
}
