// Package tvstudy orchestrates a TV/FM broadcast coverage and interference
// study: it lays out a scenario's grid, loads population into it, computes
// desired and undesired fields at every study point using the geo, grid,
// curve, terrain, population and resultcache packages, and aggregates
// totals by country.
package tvstudy

import "fmt"

// Kind classifies an error returned from the top-level engine, per §7's
// fatal/non-fatal/advisory taxonomy. Component-local errors (geo.Error,
// terrain.Error, resultcache.Error) are wrapped rather than re-derived.
type Kind int

const (
	// KindOutOfMemory indicates the terrain cache could not be
	// provisioned. Fatal.
	KindOutOfMemory Kind = iota
	// KindDatabaseIO indicates a StationDB or PopulationDB query failed
	// unrecoverably. Fatal.
	KindDatabaseIO
	// KindCacheCorrupt indicates a result-cache read failed structurally
	// (header mismatch, truncated record, bad checksum). Fatal only when
	// reading a cache file that was expected to exist; an absent file is
	// never an error.
	KindCacheCorrupt
	// KindDuplicateField indicates two field records exist for one
	// (point, source, percent-time). Fatal: correctness can no longer be
	// established for that point.
	KindDuplicateField
)

// Error is the error type returned by top-level scenario operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "tvstudy: " + e.Op + ": " + e.Err.Error()
	}
	return "tvstudy: " + e.Op
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether e must abort the run, per §7's propagation
// policy: fatal errors return a negative status from the top-level
// scenario run.
func (e *Error) Fatal() bool { return true }

// fatalf builds a fatal *Error wrapping a formatted message.
func fatalf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
