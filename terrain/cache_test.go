package terrain

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/groupcache/lru"
)

// writeTestTile writes a minimal V2 tile file at path with cell 0 set to
// a uniform elevation and cell 1 set to a small bit-packed grid, so
// tests can exercise both decompression paths through the real
// ReadHeader/decompressCell code path.
func writeTestTile(t *testing.T, path string, latTile, lonTile, dbNumber int32) {
	t.Helper()
	order := binary.LittleEndian

	// Cell 0: uniform (zero-delta), elevation 123m.
	// Cell 1: bit-packed, 2x2 samples, 4 bits/sample, base 100m, deltas {0,1,2,3}.
	cellFlags := make([]byte, headerCellFlagBytes)
	minElev := make([]int16, headerCellFlagBytes)
	latCnt := make([]int16, headerCellFlagBytes)
	lonCnt := make([]int16, headerCellFlagBytes)
	recSize := make([]int32, headerCellFlagBytes)
	recOffset := make([]int32, headerCellFlagBytes)

	cellFlags[0] = byte(zeroDeltaCode << 2)
	minElev[0] = 123
	latCnt[0], lonCnt[0] = 1, 1
	recSize[0] = 0

	const bitCount = 4
	cellFlags[1] = byte(bitCount << 2)
	minElev[1] = 100
	latCnt[1], lonCnt[1] = 2, 2
	packed := packBitsForTest([]uint16{0, 1, 2, 3}, bitCount)
	recSize[1] = int32(len(packed))

	var body bytes.Buffer
	recOffsetBase := int32(4 + 4 + headerCellFlagBytes + 2*3*headerCellFlagBytes + 4*2*headerCellFlagBytes)
	recOffset[1] = recOffsetBase
	body.Write(packed)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	var magicBuf [4]byte
	order.PutUint32(magicBuf[:], magicV2Native)
	_, err = f.Write(magicBuf[:])
	must(err)
	must(binary.Write(f, order, fileID(latTile, lonTile, dbNumber)))
	_, err = f.Write(cellFlags)
	must(err)
	must(binary.Write(f, order, minElev))
	must(binary.Write(f, order, latCnt))
	must(binary.Write(f, order, lonCnt))
	must(binary.Write(f, order, recSize))
	must(binary.Write(f, order, recOffset))
	_, err = f.Write(body.Bytes())
	must(err)
}

func packBitsForTest(values []uint16, bitCount int) []byte {
	needBits := len(values) * bitCount
	needBytes := (needBits + 7) / 8
	out := make([]byte, needBytes)
	bitPos := 0
	for _, v := range values {
		for b := 0; b < bitCount; b++ {
			if v&(1<<uint(b)) != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

func TestHeaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "10_20.trn")
	writeTestTile(t, path, 10, 20, 3)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	h, err := ReadHeader(f, 10, 20, 3)
	if err != nil {
		t.Fatal(err)
	}
	if h.Version != V2 {
		t.Errorf("version = %v, want V2", h.Version)
	}
	if h.BigSwap {
		t.Error("expected native byte order, got BigSwap")
	}
	if h.MinElev[0] != 123 {
		t.Errorf("cell 0 MinElev = %d, want 123", h.MinElev[0])
	}
}

func TestHeaderFileIDMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "10_20.trn")
	writeTestTile(t, path, 10, 20, 3)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := ReadHeader(f, 11, 20, 3); err == nil {
		t.Fatal("expected a file-id mismatch error")
	}
}

func TestDecompressUniformAndBitPacked(t *testing.T) {
	uniform, err := decompressCell(CellFlag(zeroDeltaCode<<2), 123, 1, 1, nil, binary.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	if uniform.ElevationAt(0, 0) != 123 {
		t.Errorf("uniform elevation = %v, want 123", uniform.ElevationAt(0, 0))
	}

	packed := packBitsForTest([]uint16{0, 1, 2, 3}, 4)
	cell, err := decompressCell(CellFlag(4<<2), 100, 2, 2, packed, binary.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	want := [4]float64{100, 101, 102, 103}
	got := [4]float64{
		cell.ElevationAt(0, 0), cell.ElevationAt(0, 1),
		cell.ElevationAt(1, 0), cell.ElevationAt(1, 1),
	}
	if got != want {
		t.Errorf("bit-packed samples = %v, want %v", got, want)
	}
}

func TestDecompressMissingFlag(t *testing.T) {
	cell, err := decompressCell(CellFlag(0x01), 0, 0, 0, nil, binary.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	if !cell.Missing {
		t.Error("expected Missing to be set for the no-data flag")
	}
}

func TestCacheFallbackAcrossDatabases(t *testing.T) {
	dir := t.TempDir()
	writeTestTile(t, filepath.Join(dir, "37_122.trn"), 37, 122, int32(Global30))

	c, err := InitializeTerrain(8*1024*1024*1024, 1)
	if err != nil {
		t.Fatal(err)
	}
	// USOne has no status entries, so its lookup misses and falls through.
	c.UseDatabase(USOne, t.TempDir(), int32(USOne))
	c.UseDatabase(Global30, dir, int32(Global30))
	c.SetTileStatus(Global30, map[[2]int32]TileState{{37, 122}: TileData})

	elev, err := c.Elevation(37.01, 122.01) // falls in cell 0 (uniform, 123m)
	if err != nil {
		t.Fatal(err)
	}
	if elev != 123 {
		t.Errorf("elevation = %v, want 123 (fell through to Global30)", elev)
	}
}

func TestCacheSeawaterShortCircuits(t *testing.T) {
	c, err := InitializeTerrain(8*1024*1024*1024, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.UseDatabase(Global30, t.TempDir(), int32(Global30))
	c.SetTileStatus(Global30, map[[2]int32]TileState{{10, 10}: TileSeawater})

	elev, err := c.Elevation(10.5, 10.5)
	if err != nil {
		t.Fatal(err)
	}
	if elev != 0 {
		t.Errorf("seawater elevation = %v, want 0", elev)
	}
}

func TestInitializeTerrainInsufficientMemory(t *testing.T) {
	_, err := InitializeTerrain(1024*1024*1024, 4) // 1GB/4 well below 1.5GB floor
	if err == nil {
		t.Fatal("expected InsufficientMemory error")
	}
	terr, ok := err.(*Error)
	if !ok || terr.Kind != KindInsufficientMemory {
		t.Errorf("got %v, want KindInsufficientMemory", err)
	}
	if !terr.Fatal() {
		t.Error("InsufficientMemory should be fatal")
	}
}

func TestLRUEvictionRecyclesBuffer(t *testing.T) {
	c := &Cache{
		lru:   lru.New(1),
		files: newOpenFileTable(),
		dirs:  make(map[Database]*dbDir),
	}
	evicted := false
	c.lru.OnEvicted = func(key lru.Key, value interface{}) {
		evicted = true
		if cell, ok := value.(*Cell); ok {
			cell.Samples = nil
		}
	}

	cellA := &Cell{Samples: []int16{1, 2, 3, 4}}
	cellB := &Cell{Samples: []int16{5, 6, 7, 8}}
	c.lru.Add(cacheKey{Global30, 0, 0}, cellA)
	c.lru.Add(cacheKey{Global30, 1, 1}, cellB) // evicts cellA under capacity 1

	if !evicted {
		t.Error("expected eviction callback to fire")
	}
	if cellA.Samples != nil {
		t.Error("expected evicted cell's sample buffer to be released")
	}
}
