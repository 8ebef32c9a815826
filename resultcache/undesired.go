package resultcache

import (
	"os"
)

// ReadUndesired reads path's header, then every record in the file,
// silently skipping any cell outside the study grid (§4.F: "the
// undesired cache legitimately holds data for other grids"). It also
// returns the checksum of the last record read, which the caller
// retains as ucacheChecksum for the conflict check in AppendUndesired.
// A header that doesn't match live drops the whole cache, the same as
// for ReadDesired.
func ReadUndesired(path string, live Header, inGrid func(latIdx, lonIdx int32) bool) ([]CellRecord, uint32, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, &Error{Kind: KindIO, Op: "ReadUndesired", Err: err}
	}
	defer f.Close()

	hdr, err := readHeader(f)
	if err != nil {
		return nil, 0, &Error{Kind: KindIO, Op: "ReadUndesired", Err: err}
	}
	if !hdr.compatible(live) {
		return nil, 0, &Error{Kind: KindVersionMismatch, Op: "ReadUndesired"}
	}

	info, err := f.Stat()
	if err != nil {
		return nil, 0, &Error{Kind: KindIO, Op: "ReadUndesired", Err: err}
	}
	size := info.Size()

	var recs []CellRecord
	var lastChecksum uint32
	pos := int64(headerWireSize)
	for pos+cellRecordWireSize <= size {
		rec, err := readRecord(f)
		if err != nil {
			return recs, lastChecksum, &Error{Kind: KindIO, Op: "ReadUndesired", Err: err}
		}
		pos += cellRecordWireSize
		lastChecksum = rec.Checksum
		if inGrid != nil && !inGrid(rec.CellLatIdx, rec.CellLonIdx) {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, lastChecksum, nil
}

// undesiredTail inspects path for AppendUndesired's conflict check and
// header-compatibility check: exists reports whether the file is
// present at all; if exists and headerOK, checksum/hadTail describe its
// current tail (hadTail false for a header-only, empty file).
func undesiredTail(path string, live Header) (checksum uint32, hadTail, exists, headerOK bool, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, false, false, false, nil
	}
	if err != nil {
		return 0, false, false, false, err
	}
	defer f.Close()

	hdr, err := readHeader(f)
	if err != nil {
		return 0, false, true, false, err
	}
	if !hdr.compatible(live) {
		return 0, false, true, false, nil
	}

	info, err := f.Stat()
	if err != nil {
		return 0, false, true, true, err
	}
	size := info.Size() - headerWireSize
	if size < cellRecordWireSize {
		return 0, false, true, true, nil
	}
	n := size / cellRecordWireSize
	if _, err := f.Seek(headerWireSize+(n-1)*cellRecordWireSize, 0); err != nil {
		return 0, false, true, true, err
	}
	rec, err := readRecord(f)
	if err != nil {
		return 0, false, true, true, err
	}
	return rec.Checksum, true, true, true, nil
}

// AppendUndesired appends newRecs to path under the caller's exclusive
// source lock, per §4.F's conflict-detection rule: before appending, the
// writer re-reads the file's last record and compares its checksum to
// ucacheChecksum. If they differ, another process has appended since the
// last read and this write is silently abandoned (ok is false, err is
// nil — this is not a failure, just a no-op). If they match (or the
// file is new/empty and ucacheChecksum is the seed), the records are
// appended and the new tail checksum is returned.
//
// If path doesn't exist yet, or its header doesn't match live (a
// version bump, or a user-terrain request/version change per §4.F), a
// fresh file stamped with live's header is (re)written from newRecs —
// the existing header-incompatible cache is stale and dropped, the same
// as a read would drop it.
func AppendUndesired(path string, sourceKey int32, live Header, ucacheChecksum uint32, newRecs []CellRecord) (newChecksum uint32, ok bool, err error) {
	tail, hadTail, exists, headerOK, err := undesiredTail(path, live)
	if err != nil {
		return 0, false, &Error{Kind: KindIO, Op: "AppendUndesired", Err: err}
	}

	if !exists || !headerOK {
		f, err := os.Create(path)
		if err != nil {
			return 0, false, &Error{Kind: KindIO, Op: "AppendUndesired", Err: err}
		}
		defer f.Close()
		if err := writeHeader(f, live); err != nil {
			return 0, false, &Error{Kind: KindIO, Op: "AppendUndesired", Err: err}
		}
		running := SeedChecksum(sourceKey)
		for _, rec := range newRecs {
			running, err = writeRecord(f, rec, running)
			if err != nil {
				return 0, false, &Error{Kind: KindIO, Op: "AppendUndesired", Err: err}
			}
		}
		return running, true, nil
	}

	actualTail := SeedChecksum(sourceKey)
	if hadTail {
		actualTail = tail
	}
	if actualTail != ucacheChecksum {
		return 0, false, nil // another process appended since our last read
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, false, &Error{Kind: KindIO, Op: "AppendUndesired", Err: err}
	}
	defer f.Close()

	running := actualTail
	for _, rec := range newRecs {
		running, err = writeRecord(f, rec, running)
		if err != nil {
			return 0, false, &Error{Kind: KindIO, Op: "AppendUndesired", Err: err}
		}
	}
	return running, true, nil
}
