package terrain

import (
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/golang/groupcache/lru"
)

// FixedCapFraction is the ceiling (as a fraction of total RAM) the
// terrain cache may ever claim, regardless of how few parallel processes
// the orchestrator is running.
const FixedCapFraction = 0.5

// MinViableCacheBytes is the smallest terrain cache the engine will run
// with; below this the process aborts with KindInsufficientMemory.
const MinViableCacheBytes = int64(1.5 * 1024 * 1024 * 1024)

// targetCellSizeBytes estimates the in-memory footprint of one
// decompressed terrain cell, used to size the cache's slot count from
// its byte budget.
const targetCellSizeBytes = 8192

// cacheKey identifies one 7.5'-cell slot: its owning database and its
// (latIdx, lonIdx) index in CellsPerDegree-per-degree units.
type cacheKey struct {
	db             Database
	latIdx, lonIdx int32
}

// dbDir describes where one database's tile files and status index live
// on disk.
type dbDir struct {
	root   string
	number int32 // the dbNumber baked into each tile's file-ID
	status statusIndex
}

// Cache is the terrain elevation cache: a fixed pool of cell slots held
// in an LRU list, backed by per-tile files across the resolutions in
// FallbackOrder.
type Cache struct {
	lru             *lru.Cache
	files           *openFileTable
	dirs            map[Database]*dbDir
	userTerrainUsed bool
}

// InitializeTerrain reserves the terrain cache's memory budget and
// prepares its LRU pool, per §5's initialize_terrain(fraction) contract:
// the cache claims total_ram * min(1/2, FixedCapFraction) / fraction. If
// that budget is below MinViableCacheBytes the process should abort
// rather than run with an undersized cache.
func InitializeTerrain(totalRAMBytes int64, fraction int) (*Cache, error) {
	if fraction < 1 {
		fraction = 1
	}
	budget := int64(float64(totalRAMBytes) * math.Min(0.5, FixedCapFraction) / float64(fraction))
	if budget < MinViableCacheBytes {
		return nil, &Error{Kind: KindInsufficientMemory, Op: "InitializeTerrain",
			Err: fmt.Errorf("budget %d bytes is below the minimum viable cache size %d bytes", budget, MinViableCacheBytes)}
	}
	maxCells := int(budget / targetCellSizeBytes)
	if maxCells < 1 {
		maxCells = 1
	}

	c := &Cache{
		lru:   lru.New(maxCells),
		files: newOpenFileTable(),
		dirs:  make(map[Database]*dbDir),
	}
	c.lru.OnEvicted = func(key lru.Key, value interface{}) {
		if cell, ok := value.(*Cell); ok {
			cell.Samples = nil // recycle the slot's data buffer
		}
	}
	return c, nil
}

// UseDatabase registers the on-disk root directory for one resolution.
// root is expected to contain one "<latTile>_<lonTile>.trn"-named file
// per populated tile and a "blocks.idx" status index.
func (c *Cache) UseDatabase(db Database, root string, dbNumber int32) {
	c.dirs[db] = &dbDir{root: root, number: dbNumber}
}

// UserTerrainUsed reports whether any V2-user tile file has been opened
// during this cache's lifetime.
func (c *Cache) UserTerrainUsed() bool { return c.userTerrainUsed }

// SetTileStatus installs db's status index directly from entries. It is
// the only way a database's tiles get a state other than TileNoData: the
// lazy load in lookupCell (statusIndex.loadFile) does not parse
// blocks.idx.
func (c *Cache) SetTileStatus(db Database, entries map[[2]int32]TileState) {
	if dir, ok := c.dirs[db]; ok {
		dir.status.loadFromEntries(entries)
	}
}

// Elevation returns the elevation (meters) at (lat,lon), trying each
// database in FallbackOrder until one returns data. Global30 has
// complete coverage, so this never fails to produce a value as long as
// Global30 has been registered with UseDatabase.
func (c *Cache) Elevation(lat, lon float64) (float64, error) {
	for _, db := range FallbackOrder {
		dir, ok := c.dirs[db]
		if !ok {
			continue
		}
		cell, err := c.lookupCell(db, dir, lat, lon)
		if err != nil {
			if terr, ok := err.(*Error); ok && !terr.Fatal() {
				continue // try the next-coarser database
			}
			return 0, err
		}
		if cell.Missing {
			continue
		}
		row, col := sampleIndices(cell, lat, lon)
		return cell.ElevationAt(row, col), nil
	}
	return 0, &Error{Kind: KindMissingFile, Op: "Elevation",
		Err: fmt.Errorf("no database had data for (%v, %v)", lat, lon)}
}

// sampleIndices picks the nearest sample row/col within cell for
// (lat,lon). Full bilinear interpolation across the four surrounding
// samples is performed by Profile, which needs sub-cell resolution along
// a path; a single Elevation call is satisfied by the nearest sample.
func sampleIndices(cell *Cell, lat, lon float64) (row, col int) {
	if cell.LatPoints <= 1 || cell.LonPoints <= 1 {
		return 0, 0
	}
	cellLatFrac := fracWithin(lat, float64(cell.LatIdx)/CellsPerDegree, 1.0/CellsPerDegree)
	cellLonFrac := fracWithin(lon, float64(cell.LonIdx)/CellsPerDegree, 1.0/CellsPerDegree)
	row = clamp(int(cellLatFrac*float64(cell.LatPoints)), 0, cell.LatPoints-1)
	col = clamp(int(cellLonFrac*float64(cell.LonPoints)), 0, cell.LonPoints-1)
	return
}

func fracWithin(v, origin, size float64) float64 {
	f := (v - origin) / size
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lookupCell returns the decompressed cell covering (lat,lon) in db,
// consulting the cache before falling through to disk.
func (c *Cache) lookupCell(db Database, dir *dbDir, lat, lon float64) (*Cell, error) {
	latIdx := int32(math.Floor(lat * CellsPerDegree))
	lonIdx := int32(math.Floor(lon * CellsPerDegree))
	key := cacheKey{db, latIdx, lonIdx}
	if v, ok := c.lru.Get(key); ok {
		return v.(*Cell), nil
	}

	latTile, latWithin := tileSplit(latIdx)
	lonTile, lonWithin := tileSplit(lonIdx)

	if !dir.status.loaded {
		dir.status.loadFile(filepath.Join(dir.root, "blocks.idx"))
	}
	state := dir.status.state(latTile, lonTile)
	var cell *Cell
	switch state {
	case TileSeawater:
		cell = zeroCell
	case TileNoData:
		cell = &Cell{Missing: true}
	default:
		var err error
		cell, err = c.loadCellFromFile(dir, latTile, lonTile, latWithin, lonWithin)
		if err != nil {
			return nil, err
		}
	}
	cell.Database, cell.LatIdx, cell.LonIdx = db, latIdx, lonIdx
	c.lru.Add(key, cell)
	return cell, nil
}

// tileSplit splits a CellsPerDegree-scaled index into its owning
// 1-degree tile index and the within-tile cell offset, handling negative
// indices (southern/eastern-hemisphere-style values) correctly.
func tileSplit(idx int32) (tile int32, within int) {
	tile = int32(math.Floor(float64(idx) / CellsPerDegree))
	within = int(idx - tile*CellsPerDegree)
	return
}

func (c *Cache) loadCellFromFile(dir *dbDir, latTile, lonTile int32, latWithin, lonWithin int) (*Cell, error) {
	path := filepath.Join(dir.root, fmt.Sprintf("%d_%d.trn", latTile, lonTile))
	f, err := c.files.open(path)
	if err != nil {
		return nil, &Error{Kind: KindMissingFile, Op: "loadCellFromFile", Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &Error{Kind: KindCorrupt, Op: "loadCellFromFile", Err: err}
	}
	h, err := ReadHeader(f, latTile, lonTile, dir.number)
	if err != nil {
		return nil, err
	}
	if h.Version == V2User {
		c.userTerrainUsed = true
	}

	idx := latWithin*CellsPerDegree + lonWithin
	if idx < 0 || idx >= headerCellFlagBytes {
		return nil, &Error{Kind: KindCorrupt, Op: "loadCellFromFile",
			Err: fmt.Errorf("within-tile cell index %d out of range", idx)}
	}
	flag := h.CellFlags[idx]
	size := h.RecordSize[idx]
	offset := h.RecordOffset[idx]

	raw := make([]byte, size)
	if size > 0 {
		if _, err := f.ReadAt(raw, int64(offset)); err != nil && err != io.EOF {
			return nil, &Error{Kind: KindCorrupt, Op: "loadCellFromFile", Err: err}
		}
	}
	cell, err := decompressCell(flag, h.MinElev[idx], h.LatPointCnt[idx], h.LonPointCnt[idx], raw, h.ByteOrder())
	if err != nil {
		return nil, err
	}
	cell.CellRow, cell.CellCol = latWithin, lonWithin
	return cell, nil
}
