package tvstudy

import (
	"context"
	"log"
	"strconv"

	"github.com/freepiratebay/tvstudy/resultcache"
	"github.com/freepiratebay/tvstudy/terrain"
)

// Engine is the process-wide state shared by every study a process opens:
// the terrain cache, curve tables (package-level, no instance needed) and
// the two external collaborators. Per §5 it is accessed by exactly one
// thread; no locking is needed within a process.
type Engine struct {
	Station    StationDB
	Population PopulationDB
	CacheRoot  string

	terrain *terrain.Cache

	// terrainRequested and terrainVersion feed every cache file's
	// Header (§4.F): terrainRequested is set once UseTerrainDatabase
	// registers an on-disk terrain root, and terrainVersion is that
	// database's dbNumber. A result cache written under one
	// terrain-database version is dropped on read if a later process
	// requests a different one.
	terrainRequested bool
	terrainVersion   int32

	// advisories counts non-fatal curve/cache conditions across the
	// process's lifetime, surfaced in each ScenarioResult's status report
	// per §7's "every advisory is counted" requirement.
	advisories int
}

// NewEngine constructs an Engine around its two external collaborators
// and the root directory result-cache files are read from and written to.
func NewEngine(station StationDB, population PopulationDB, cacheRoot string) *Engine {
	return &Engine{Station: station, Population: population, CacheRoot: cacheRoot}
}

// InitializeTerrain is the engine's single memory-budget entry point,
// matching §5's `initialize_terrain(fraction)` contract: fraction is the
// number of parallel processes the orchestrator intends to run against
// this machine's totalRAMBytes. Must be called exactly once per process,
// before any scenario runs.
func (e *Engine) InitializeTerrain(totalRAMBytes int64, fraction int) error {
	c, err := terrain.InitializeTerrain(totalRAMBytes, fraction)
	if err != nil {
		if terr, ok := err.(*terrain.Error); ok && terr.Fatal() {
			log.Printf("tvstudy: terrain initialization failed fatally: %v", terr)
		}
		return &Error{Kind: KindOutOfMemory, Op: "InitializeTerrain", Err: err}
	}
	e.terrain = c
	return nil
}

// UseTerrainDatabase registers one of terrain.FallbackOrder's resolutions
// against an on-disk root directory, per §4.B. Must be called after
// InitializeTerrain.
func (e *Engine) UseTerrainDatabase(db terrain.Database, root string, dbNumber int32) {
	e.terrain.UseDatabase(db, root, dbNumber)
	e.terrainRequested = true
	e.terrainVersion = dbNumber
}

// cacheHeader returns the Header every cell-file read/write is checked
// or stamped against this process, per §4.F.
func (e *Engine) cacheHeader() resultcache.Header {
	used := e.terrain != nil && e.terrain.UserTerrainUsed()
	return resultcache.NewHeader(e.terrainVersion, e.terrainRequested, used)
}

// elevationAt returns the ground elevation at (lat, lon) from the terrain
// cache, or 0 if no terrain database has been registered or the lookup
// falls outside every registered database's coverage, per §7's "missing
// terrain is never surfaced" propagation policy.
func (e *Engine) elevationAt(lat, lon float64) float64 {
	if e.terrain == nil {
		return 0
	}
	elev, err := e.terrain.BilinearElevation(lat, lon)
	if err != nil {
		return 0
	}
	return elev
}

// cacheDir returns the resultcache.Dir for one study.
func (e *Engine) cacheDir(studyKey int) resultcache.Dir {
	return resultcache.Dir{Root: e.CacheRoot + "/" + strconv.Itoa(studyKey)}
}
