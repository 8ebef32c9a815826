package terrain

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic numbers, one per (endian, user-file) combination. The magic
// number itself is how a reader detects host byte order and file
// version on first access: the four values below are byte-swaps and
// version variants of one base pattern.
const (
	magicV2Native      uint32 = 0x54524e32 // "TRN2" native byte order
	magicV2Swapped     uint32 = 0x324e5254 // "TRN2" byte-swapped
	magicV2UserNative  uint32 = 0x54524e55 // "TRNU" native byte order
	magicV2UserSwapped uint32 = 0x554e5254 // "TRNU" byte-swapped
	magicV1Native      uint32 = 0x54524e31 // "TRN1" native byte order (no hemisphere fields)
	magicV1Swapped     uint32 = 0x314e5254
)

// FileVersion identifies the on-disk layout variant detected from a
// file's magic number.
type FileVersion int

const (
	V1 FileVersion = iota // no south/east hemisphere fields
	V2
	V2User // V2 layout; also sets the cache-wide user-terrain-used flag
)

// headerCellFlagBytes is the size of the fixed-layout per-tile cell flag
// array: 64 cells, one byte each.
const headerCellFlagBytes = CellsPerDegree * CellsPerDegree // 64

// CellFlag decodes the per-cell flag byte stored in a tile header.
type CellFlag byte

func (f CellFlag) NoData() bool    { return f&0x01 != 0 }
func (f CellFlag) PixelCentered() bool { return f&0x02 != 0 }

// CompressionCode returns the 4-bit compression code: 0 = uncompressed,
// 1-14 = bit-packed sample width, and the all-1s value 15 (zeroDeltaCode)
// means zero-delta (uniform) storage.
func (f CellFlag) CompressionCode() int { return int(f>>2) & 0x0F }

const zeroDeltaCode = 0x0F

// Header is the fixed-layout portion of a 1x1-degree terrain tile file.
type Header struct {
	Version    FileVersion
	BigSwap    bool // true if the file's byte order differs from the host's
	FileID     int32
	LatIndex   int32 // tile's south-latitude index, degrees
	LonIndex   int32 // tile's east-longitude index, degrees
	DBNumber   int32

	CellFlags    [headerCellFlagBytes]CellFlag
	MinElev      [headerCellFlagBytes]int16
	LatPointCnt  [headerCellFlagBytes]int16 // -1 is a sentinel for "known missing"
	LonPointCnt  [headerCellFlagBytes]int16
	RecordSize   [headerCellFlagBytes]int32
	RecordOffset [headerCellFlagBytes]int32
}

// fileID computes the packed file identifier for a tile, per §6:
// latIndex*10000 + lonIndex*10 + dbNumber.
func fileID(latIndex, lonIndex, dbNumber int32) int32 {
	return latIndex*10000 + lonIndex*10 + dbNumber
}

// ReadHeader parses a tile file's fixed header from r, detecting
// endianness and version from the magic number. A magic number or
// file-ID mismatch is fatal (KindCorrupt); a short/failed read is also
// fatal.
func ReadHeader(r io.Reader, wantLatIndex, wantLonIndex, wantDBNumber int32) (*Header, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, &Error{Kind: KindCorrupt, Op: "ReadHeader", Err: err}
	}
	magicLE := binary.LittleEndian.Uint32(magicBuf[:])
	magicBE := binary.BigEndian.Uint32(magicBuf[:])

	h := &Header{}
	var order binary.ByteOrder
	switch magicLE {
	case magicV2Native:
		h.Version, order, h.BigSwap = V2, binary.LittleEndian, false
	case magicV2UserNative:
		h.Version, order, h.BigSwap = V2User, binary.LittleEndian, false
	case magicV1Native:
		h.Version, order, h.BigSwap = V1, binary.LittleEndian, false
	default:
		switch magicBE {
		case magicV2Native, magicV2Swapped:
			h.Version, order, h.BigSwap = V2, binary.BigEndian, true
		case magicV2UserNative, magicV2UserSwapped:
			h.Version, order, h.BigSwap = V2User, binary.BigEndian, true
		case magicV1Native, magicV1Swapped:
			h.Version, order, h.BigSwap = V1, binary.BigEndian, true
		default:
			return nil, &Error{Kind: KindCorrupt, Op: "ReadHeader",
				Err: fmt.Errorf("unrecognized magic number 0x%08x", magicLE)}
		}
	}

	var fid int32
	if err := binary.Read(r, order, &fid); err != nil {
		return nil, &Error{Kind: KindCorrupt, Op: "ReadHeader", Err: err}
	}
	wantID := fileID(wantLatIndex, wantLonIndex, wantDBNumber)
	if fid != wantID {
		return nil, &Error{Kind: KindCorrupt, Op: "ReadHeader",
			Err: fmt.Errorf("file-id mismatch: got %d, want %d", fid, wantID)}
	}
	h.FileID = fid
	h.LatIndex, h.LonIndex, h.DBNumber = wantLatIndex, wantLonIndex, wantDBNumber

	var rawFlags [headerCellFlagBytes]byte
	if _, err := io.ReadFull(r, rawFlags[:]); err != nil {
		return nil, &Error{Kind: KindCorrupt, Op: "ReadHeader", Err: err}
	}
	for i, b := range rawFlags {
		h.CellFlags[i] = CellFlag(b)
	}

	for _, arr := range []*[headerCellFlagBytes]int16{&h.MinElev, &h.LatPointCnt, &h.LonPointCnt} {
		if err := binary.Read(r, order, arr); err != nil {
			return nil, &Error{Kind: KindCorrupt, Op: "ReadHeader", Err: err}
		}
	}
	for _, arr := range []*[headerCellFlagBytes]int32{&h.RecordSize, &h.RecordOffset} {
		if err := binary.Read(r, order, arr); err != nil {
			return nil, &Error{Kind: KindCorrupt, Op: "ReadHeader", Err: err}
		}
	}
	return h, nil
}

// ByteOrder returns the byte order records in this file must be decoded
// with.
func (h *Header) ByteOrder() binary.ByteOrder {
	if h.BigSwap {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
