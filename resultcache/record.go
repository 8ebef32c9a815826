package resultcache

import (
	"encoding/binary"
	"errors"
	"io"
)

// cellRecordWireSize is the packed (field-by-field, no padding) size
// encoding/binary produces for CellRecord: 8 float64 fields, 6 int32
// fields, 2 int64 fields, and 1 uint32 field.
const cellRecordWireSize = 8*8 + 6*4 + 2*8 + 1*4

// headerWireSize is the packed size encoding/binary produces for
// Header: 2 uint32 fields, 1 int32 field, 2 bool fields.
const headerWireSize = 4*2 + 4 + 1*2

// writeHeader writes h as the leading structure of a cell file.
func writeHeader(w io.Writer, h Header) error {
	return binary.Write(w, recordOrder, &h)
}

// readHeader reads a cell file's leading Header.
func readHeader(r io.Reader) (Header, error) {
	var h Header
	err := binary.Read(r, recordOrder, &h)
	return h, err
}

// errNotTerminated reports a desired-cell file whose tail isn't the
// expected magic-number EOF marker.
var errNotTerminated = errors.New("desired-cell file missing trailing magic number")

// CellRecord is one point's worth of cached field-strength data, per
// §4.F's record layout.
type CellRecord struct {
	Lat, Lon       float64
	CellLatIdx     int32
	CellLonIdx     int32
	Population     int64
	Households     int64
	AreaKm2        float64
	ElevationM     float64
	BearingDeg     float64
	DistanceKm     float64
	FieldDBu       float64
	SourceKey      int32
	Country        int32
	Clutter        int32
	PercentTimePct float64
	Status         int32
	Checksum       uint32
}

// SeedChecksum returns the running-XOR checksum seed for sourceKey, per
// §4.F: `sourceKey | (sourceKey << 16)`.
func SeedChecksum(sourceKey int32) uint32 {
	u := uint32(sourceKey)
	return u | (u << 16)
}

// checksum folds r's identity fields into running, per §4.F's
// `checksum ^= cellLatIdx; checksum ^= cellLonIdx; checksum ^= (population << 16)`.
func (r *CellRecord) checksum(running uint32) uint32 {
	running ^= uint32(r.CellLatIdx)
	running ^= uint32(r.CellLonIdx)
	running ^= uint32(r.Population << 16)
	return running
}

// recordOrder is the byte order every cell-record file is written and
// read with; unlike the terrain tile format, the result cache never
// crosses machine boundaries within one study run, so no endian
// auto-detection is needed.
var recordOrder = binary.LittleEndian

// writeRecord appends r to w and returns its checksum, computed by
// folding r into running.
func writeRecord(w io.Writer, r CellRecord, running uint32) (uint32, error) {
	sum := r.checksum(running)
	r.Checksum = sum
	if err := binary.Write(w, recordOrder, &r); err != nil {
		return running, err
	}
	return sum, nil
}

// readRecord reads one CellRecord from r.
func readRecord(r io.Reader) (CellRecord, error) {
	var rec CellRecord
	err := binary.Read(r, recordOrder, &rec)
	return rec, err
}
