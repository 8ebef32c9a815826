package tvstudy

import (
	"context"

	"github.com/freepiratebay/tvstudy/geo"
	"github.com/freepiratebay/tvstudy/population"
)

// CensusRow is one row of the PopulationDB's per-country population
// query, per §6: (latIndex, lonIndex, latitude, longitude, population,
// households, blockID).
type CensusRow struct {
	LatIndex, LonIndex int32
	Lat, Lon           float64
	Population         int64
	Households         int64
	BlockID            int64
}

// StationDB enumerates sources, patterns, and contours for a study. It is
// deliberately minimal: the relational schema, connection pooling, and
// query construction are out of scope per §1 and live entirely in the
// caller's implementation.
type StationDB interface {
	// Sources returns every source belonging to studyKey, including any
	// DTS children (already linked into their parent's TVParams).
	Sources(ctx context.Context, studyKey int) ([]*Source, error)
	// Pattern returns sourceKey's horizontal and vertical patterns,
	// either of which may be nil.
	Pattern(ctx context.Context, sourceKey int) (*HorizontalPattern, *VerticalPattern, error)
	// Contour returns sourceKey's tabulated service contour, or nil if
	// the source uses a named Geography instead.
	Contour(ctx context.Context, sourceKey int) (*population.Contour, error)
}

// PopulationDB answers the per-country, per-bounds population query of
// §6: for each requested country, the Census rows falling inside bounds.
type PopulationDB interface {
	Population(ctx context.Context, bounds geo.IndexBounds, countries []population.Country) ([]CensusRow, error)
}
