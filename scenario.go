package tvstudy

import (
	"context"
	"log"
	"math"
	"os"

	"github.com/freepiratebay/tvstudy/curve"
	"github.com/freepiratebay/tvstudy/geo"
	"github.com/freepiratebay/tvstudy/grid"
	"github.com/freepiratebay/tvstudy/population"
	"github.com/freepiratebay/tvstudy/resultcache"
)

// CountryTotal accumulates one country's aggregated population and
// households across a scenario's desired-coverage study points, per §2's
// "scenario totals aggregate by country".
type CountryTotal struct {
	Population int64
	Households int64
}

// ScenarioResult is what RunScenario returns: per-country totals over
// every study point found inside at least one desired source's service
// area, plus the Engine's running count of non-fatal advisory conditions
// (off-table curve transitions, switched-to-median lookups, dropped
// caches) since the Engine was created, not only those of this run, per
// §7's "every advisory is counted" requirement.
type ScenarioResult struct {
	CountryTotals map[population.Country]*CountryTotal
	Advisories    int
}

// Scenario holds the per-run state RunScenario builds and discards: the
// study grid, and the three object pools backing it. NewScenario resets
// (does not free) any pools it is handed, keeping their slab memory;
// RunScenario hands it none, so each RunScenario call allocates fresh
// pools and no slab memory carries over from one scenario to the next.
type Scenario struct {
	Grid   *grid.StudyGrid
	Points *population.PointPool
	Census *population.CensusPool
	Fields *population.FieldPool

	// cellPoints indexes study points by the grid cell they belong to,
	// so a later source's "does any study point already exist in this
	// cell" lazy-empty-cell test (§4.E) doesn't require a full grid scan.
	cellPoints map[[2]int32][]int32
}

// NewScenario allocates a fresh Scenario, reusing pools from a previous
// scenario run on the same Engine when provided (pass nil pools on a
// process's first scenario).
func NewScenario(points *population.PointPool, census *population.CensusPool, fields *population.FieldPool) *Scenario {
	if points == nil {
		points = population.NewPointPool()
	}
	if census == nil {
		census = population.NewCensusPool()
	}
	if fields == nil {
		fields = population.NewFieldPool()
	}
	points.Reset()
	census.Reset()
	fields.Reset()
	return &Scenario{Points: points, Census: census, Fields: fields, cellPoints: make(map[[2]int32][]int32)}
}

// coverageRadiusKm estimates how far a source's service area reaches
// from its transmitter site, used only to size the study grid's
// bounding box (§4.D: the grid covers "the union of source coverage
// areas"); the actual per-point service-area test in computeDesired is
// exact, not an approximation of this estimate.
func coverageRadiusKm(s *Source) float64 {
	if g := s.Geography; g != nil {
		switch g.Kind {
		case population.GeoCircle:
			return g.RadiusKm
		case population.GeoBox:
			if g.WidthKm > g.HeightKm {
				return g.WidthKm
			}
			return g.HeightKm
		case population.GeoSector:
			max := 0.0
			for _, se := range g.Sectors {
				if se.RadiusKm > max {
					max = se.RadiusKm
				}
			}
			return max
		case population.GeoPolygon:
			max := 0.0
			for _, ring := range g.Polygon {
				for _, v := range ring {
					_, d := geo.BearDistance(s.Lat, s.Lon, v.Y, v.X)
					if d > max {
						max = d
					}
				}
			}
			return max
		}
	}
	if c := s.Contour; c != nil {
		max := 0.0
		for _, d := range c.DistancesKm {
			if d > max {
				max = d
			}
		}
		return max
	}
	return 0
}

// scenarioBounds unions every source's coverage bounds, per §4.D.
func scenarioBounds(sources []*Source) geo.IndexBounds {
	b := geo.InitializeBounds()
	for _, s := range sources {
		b = b.ExtendByRadius(s.Lat, s.Lon, coverageRadiusKm(s))
	}
	return b
}

// cellKeyOf returns the identity key (§8's cellIndex invariant) a study
// point's owning grid cell is tracked under: the raw arc-second index of
// the cell's south/east corner.
func cellKeyOf(g *grid.StudyGrid, row, col int) [2]int32 {
	r := g.Rows[row]
	return [2]int32{r.SouthLat, r.EastAnchor + int32(col)*r.LonSize}
}

// loadPopulation queries the PopulationDB for bounds, buckets the
// resulting Census rows into g's cells, and assigns a StudyPoint per
// (cell, country) via the scenario's chosen aggregation method, per
// §4.E.
func (e *Engine) loadPopulation(ctx context.Context, sc *Scenario, g *grid.StudyGrid, countries []population.Country, method population.AggregationMethod, snapToNearest bool) error {
	rows, err := e.Population.Population(ctx, g.Bounds, countries)
	if err != nil {
		return &Error{Kind: KindDatabaseIO, Op: "loadPopulation", Err: err}
	}

	type cellKey struct {
		row, col int
		country  population.Country
	}
	type cellBucket struct {
		row, col int
		country  population.Country
		census   []int32
	}
	buckets := make(map[cellKey]*cellBucket)

	for _, r := range rows {
		row, col, ok := g.CellIndex(r.Lat, r.Lon)
		if !ok {
			continue
		}
		idx := sc.Census.Alloc()
		cp := sc.Census.Get(idx)
		*cp = population.CensusPoint{
			Lat: r.Lat, Lon: r.Lon,
			Population: r.Population, Households: r.Households,
			BlockID: r.BlockID,
			CellLatIdx: r.LatIndex, CellLonIdx: r.LonIndex,
		}
		cp.Country = countryOf(countries, r)

		key := cellKey{row: row, col: col, country: cp.Country}
		b, ok := buckets[key]
		if !ok {
			b = &cellBucket{row: row, col: col, country: cp.Country}
			buckets[key] = b
		}
		b.census = append(b.census, idx)
	}

	for _, b := range buckets {
		row, col := b.row, b.col
		rowData := g.Rows[row]
		midLat := (float64(rowData.SouthLat) + float64(rowData.NorthLat)) / 2 / 3600
		anchorCol := rowData.EastAnchor + int32(col)*rowData.LonSize
		midLon := (float64(anchorCol) + float64(rowData.LonSize)/2) / 3600

		in := population.CellInput{
			CellLatIdx: rowData.SouthLat, CellLonIdx: anchorCol,
			CenterLat: midLat, CenterLon: midLon,
			AreaKm2: rowData.AreaKm2,
			Census:  b.census,
		}
		idxs := population.AssignCell(sc.Points, sc.Census, in, method, b.country, snapToNearest)
		for _, idx := range idxs {
			pt := sc.Points.Get(idx)
			pt.GroundElevM = e.elevationAt(pt.Lat, pt.Lon)
		}
		key := cellKeyOf(g, row, col)
		sc.cellPoints[key] = append(sc.cellPoints[key], idxs...)
	}
	return nil
}

// countryOf picks the Census row's country; in a real deployment this
// would come from the row itself or a polygon test (population.CountryForPoint);
// here rows are assumed pre-tagged by the PopulationDB's per-country
// query, so the first requested country is used as a default.
func countryOf(countries []population.Country, r CensusRow) population.Country {
	if len(countries) > 0 {
		return countries[0]
	}
	return population.US
}

// ensureEmptyCellPoints walks every grid cell with no study point yet and
// adds the lazy centre-point the spec calls for (§4.E), but only for
// cells at least one of sources' service areas actually covers —
// determined here during per-source setup, just before that source's
// field computation needs it.
func (e *Engine) ensureEmptyCellPoints(sc *Scenario, g *grid.StudyGrid, s *Source) {
	area := s.ServiceArea()
	if area == nil {
		return
	}
	for row, r := range g.Rows {
		for col := 0; col < r.NumCells; col++ {
			key := cellKeyOf(g, row, col)
			if len(sc.cellPoints[key]) > 0 {
				continue
			}
			midLat := (float64(r.SouthLat) + float64(r.NorthLat)) / 2 / 3600
			anchorCol := r.EastAnchor + int32(col)*r.LonSize
			midLon := (float64(anchorCol) + float64(r.LonSize)/2) / 3600
			if !population.TestPoint(s.Lat, s.Lon, midLat, midLon, area) {
				continue
			}
			in := population.CellInput{
				CellLatIdx: r.SouthLat, CellLonIdx: anchorCol,
				CenterLat: midLat, CenterLon: midLon,
				AreaKm2: r.AreaKm2,
			}
			idxs := population.AssignCell(sc.Points, sc.Census, in, population.Center, s.Country, false)
			for _, idx := range idxs {
				pt := sc.Points.Get(idx)
				pt.GroundElevM = e.elevationAt(pt.Lat, pt.Lon)
			}
			sc.cellPoints[key] = append(sc.cellPoints[key], idxs...)
		}
	}
}

// RunScenario lays out a grid covering the union of desiredKeys' and
// undesiredKeys' coverage areas, loads population into it, computes each
// desired source's field at every study point its service area covers
// (consulting and updating the result cache), then each undesired
// source's interference contribution at the same points, and returns
// per-country population/household totals over the desired-coverage
// points, per §2's data-flow description.
func (e *Engine) RunScenario(ctx context.Context, st *Study, desiredKeys, undesiredKeys []int, mode grid.Mode, cellSize int32, method population.AggregationMethod, snapToNearest bool, countries []population.Country) (*ScenarioResult, error) {
	var desired, undesired []*Source
	for _, k := range desiredKeys {
		if s, ok := st.Sources[k]; ok {
			desired = append(desired, s)
		}
	}
	for _, k := range undesiredKeys {
		if s, ok := st.Sources[k]; ok {
			undesired = append(undesired, s)
		}
	}

	bounds := scenarioBounds(append(append([]*Source{}, desired...), undesired...))

	var g *grid.StudyGrid
	var err error
	if mode == grid.Global {
		g, err = grid.NewGlobalGrid(bounds, cellSize)
	} else {
		g, err = grid.NewLocalGrid(bounds, cellSize)
	}
	if err != nil {
		return nil, &Error{Kind: KindDatabaseIO, Op: "RunScenario", Err: err}
	}

	sc := NewScenario(nil, nil, nil)
	sc.Grid = g
	if err := e.loadPopulation(ctx, sc, g, countries, method, snapToNearest); err != nil {
		return nil, err
	}

	cacheDir := e.cacheDir(st.Key)
	for _, s := range desired {
		e.ensureEmptyCellPoints(sc, g, s)
		if err := e.cellSetupDesired(sc, s, cacheDir); err != nil {
			return nil, err
		}
	}
	for _, s := range undesired {
		if err := e.cellSetupUndesired(sc, s, desired, cacheDir); err != nil {
			return nil, err
		}
	}

	return e.aggregateTotals(sc, desired), nil
}

// aggregateTotals sums population/households per country across every
// study point that holds at least one desired (PercentTime == 0) field,
// per §2's "scenario totals aggregate by country".
func (e *Engine) aggregateTotals(sc *Scenario, desired []*Source) *ScenarioResult {
	res := &ScenarioResult{CountryTotals: make(map[population.Country]*CountryTotal), Advisories: e.advisories}
	seen := make(map[int32]bool)
	for _, idxs := range sc.cellPoints {
		for _, idx := range idxs {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			pt := sc.Points.Get(idx)
			if !hasDesiredField(sc.Fields, pt) {
				continue
			}
			ct, ok := res.CountryTotals[pt.Country]
			if !ok {
				ct = &CountryTotal{}
				res.CountryTotals[pt.Country] = ct
			}
			ct.Population += pt.PopulationSum
			ct.Households += pt.HouseholdSum
		}
	}
	return res
}

func hasDesiredField(pool *population.FieldPool, pt *population.StudyPoint) bool {
	for idx := pt.FieldHead; idx >= 0; {
		f := pool.Get(idx)
		if !f.IsUndesired {
			return true
		}
		idx = f.Next
	}
	return false
}

// serviceAreaGate reports whether pt lies inside s's service area, using
// the DTS parent/child test from population.DTSTest when s is a DTS
// parent, or the plain TestPoint test otherwise, per §4.E.
func serviceAreaGate(s *Source, pt *population.StudyPoint) bool {
	if tv, ok := s.Params.(TVParams); ok && len(tv.DTSChildren) > 0 {
		children := make([]population.Child, 0, len(tv.DTSChildren))
		for _, c := range tv.DTSChildren {
			area := c.ServiceArea()
			if area == nil {
				continue
			}
			children = append(children, population.Child{Lat: c.Lat, Lon: c.Lon, Area: area})
		}
		var parentArea population.ServiceArea
		if s.Geography != nil {
			parentArea = s.Geography
		}
		var refContour *population.Contour
		refLat, refLon := 0.0, 0.0
		if tv.DTSRef != nil {
			refLat, refLon = tv.DTSRef.Lat, tv.DTSRef.Lon
			refContour = tv.DTSRef.Contour
		}
		return population.DTSTest(pt.Lat, pt.Lon, children, tv.TruncateDTS, parentArea, refLat, refLon, refContour)
	}
	area := s.ServiceArea()
	if area == nil {
		return false
	}
	return population.TestPoint(s.Lat, s.Lon, pt.Lat, pt.Lon, area)
}

// cellSetupDesired computes s's desired (PercentTime == 0) field at
// every study point its service area covers, reading from the result
// cache when it is present and compatible, writing a fresh cache file
// otherwise, per §4.F and the "cell_setup is a no-op on a cache hit"
// idempotence property (§8).
func (e *Engine) cellSetupDesired(sc *Scenario, s *Source, dir resultcache.Dir) error {
	if s.IsDTSParent() {
		return e.placeholderDTSParentField(sc, s)
	}

	path := dir.DesiredPath(int32(s.Key))
	inGrid := func(latIdx, lonIdx int32) bool {
		_, _, ok := sc.Grid.CellIndex(float64(latIdx)/3600, float64(lonIdx)/3600)
		return ok
	}
	_, statErr := os.Stat(path)
	fileExists := statErr == nil
	cached, err := resultcache.ReadDesired(path, e.cacheHeader(), inGrid)
	if err == nil && len(cached) > 0 {
		e.applyDesiredCache(sc, s, cached)
		return nil
	}
	if err != nil && fileExists {
		if terr, ok := err.(*resultcache.Error); ok && terr.Kind == resultcache.KindOutsideGrid {
			return &Error{Kind: KindCacheCorrupt, Op: "cellSetupDesired", Err: err}
		}
		log.Printf("tvstudy: dropping desired cache for source %d: %v", s.Key, err)
		e.advisories++
	}

	var recs []resultcache.CellRecord
	for _, idxs := range sc.cellPoints {
		for _, idx := range idxs {
			pt := sc.Points.Get(idx)
			if !serviceAreaGate(s, pt) {
				continue
			}
			rec, err := e.computeField(sc, s, pt, 0, false)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
	}
	if err := resultcache.WriteDesired(path, int32(s.Key), e.cacheHeader(), recs); err != nil {
		log.Printf("tvstudy: failed to write desired cache for source %d: %v", s.Key, err)
	}
	return nil
}

// placeholderDTSParentField installs the zero-valued placeholder field
// §8 requires of a DTS parent at every point covered by any child: the
// parent itself never computes a field (it has no pattern), but its
// presence in a point's field list records that the point was tested.
func (e *Engine) placeholderDTSParentField(sc *Scenario, s *Source) error {
	for _, idxs := range sc.cellPoints {
		for _, idx := range idxs {
			pt := sc.Points.Get(idx)
			if !serviceAreaGate(s, pt) {
				continue
			}
			if _, dup := population.FindField(sc.Fields, pt, int32(s.Key), 0); dup {
				return fatalf(KindDuplicateField, "placeholderDTSParentField", "duplicate field for DTS parent %d at (%.4f,%.4f)", s.Key, pt.Lat, pt.Lon)
			}
			population.AppendField(sc.Fields, pt, int32(s.Key), 0, 0, 0, true, false)
		}
	}
	return nil
}

// applyDesiredCache re-attaches cache-read records to their study
// points, marking each Field Cached. Points cited by the cache but not
// present in this scenario's grid are silently skipped (§4.F read
// semantics only hard-errors on an in-cache cell that is outside the
// grid, not the reverse).
func (e *Engine) applyDesiredCache(sc *Scenario, s *Source, recs []resultcache.CellRecord) {
	for _, rec := range recs {
		row, col, ok := sc.Grid.CellIndex(rec.Lat, rec.Lon)
		if !ok {
			continue
		}
		key := cellKeyOf(sc.Grid, row, col)
		for _, idx := range sc.cellPoints[key] {
			pt := sc.Points.Get(idx)
			if pt.Lat == rec.Lat && pt.Lon == rec.Lon {
				population.AppendField(sc.Fields, pt, rec.SourceKey, rec.PercentTimePct, rec.FieldDBu, rec.Status, true, false)
				break
			}
		}
	}
}

// computeField computes one (source, percentTime) field at pt with a
// curve.LookupField call on the distance from s to pt and s's HAATm,
// plus s's horizontal pattern gain at the bearing to pt; no terrain
// profile is sampled. It appends the resulting Field to pt.
func (e *Engine) computeField(sc *Scenario, s *Source, pt *population.StudyPoint, percentTime float64, isUndesired bool) (resultcache.CellRecord, error) {
	bearing, distance := geo.BearDistance(s.Lat, s.Lon, pt.Lat, pt.Lon)

	var opt curve.Options
	if s.Vertical != nil {
		opt.Elevation = s.Vertical
	}
	set := curve.F5050
	switch {
	case percentTime >= 90:
		set = curve.F5090
	case percentTime <= 10 && percentTime > 0:
		set = curve.F5010
	}
	powerDbk := 10 * math.Log10(s.ERPKw)
	field, adv, err := curve.LookupField(powerDbk, distance, s.HAATm, s.Band, set, opt)
	if err != nil {
		return resultcache.CellRecord{}, &Error{Kind: KindDatabaseIO, Op: "computeField", Err: err}
	}
	if adv != curve.NoAdvisory {
		e.advisories++
	}
	if rel := s.Horizontal.FieldAt(bearing); rel > 0 {
		field += 20 * math.Log10(rel)
	}

	if _, dup := population.FindField(sc.Fields, pt, int32(s.Key), percentTime); dup {
		return resultcache.CellRecord{}, fatalf(KindDuplicateField, "computeField", "duplicate field for source %d at (%.4f,%.4f), percentTime=%g", s.Key, pt.Lat, pt.Lon, percentTime)
	}
	population.AppendField(sc.Fields, pt, int32(s.Key), percentTime, field, 0, false, isUndesired)

	return resultcache.CellRecord{
		Lat: pt.Lat, Lon: pt.Lon,
		CellLatIdx: pt.CellLatIdx, CellLonIdx: pt.CellLonIdx,
		Population: pt.PopulationSum, Households: pt.HouseholdSum,
		AreaKm2: pt.AreaKm2, ElevationM: pt.GroundElevM,
		BearingDeg: bearing, DistanceKm: distance, FieldDBu: field,
		SourceKey: int32(s.Key), Country: int32(pt.Country), Clutter: int32(pt.ClutterCode),
		PercentTimePct: percentTime, Status: 0,
	}, nil
}

// undesiredPercentTime is the time-variability percentile undesired
// (interference) fields are computed at — F(50,10), per §4.C — distinct
// from desired fields' percent-time of 0, so the two never collide in
// FindField's (source, percent-time) key.
const undesiredPercentTime = 10

// cellSetupUndesired computes s's interference contribution once at
// every study point that already holds a desired field (§2: "each
// undesired source then contributes an interference field at each point
// where the desired field exists"), then appends those records to the
// per-study undesired cache: a study point gated in by more than one
// desired source must still get exactly one field from s, so this pass
// runs over the union of qualifying points a single time rather than
// once per desired source — iterating per `ds` only for grouping cache
// records into the per-(undesired, desired) files a local grid uses.
func (e *Engine) cellSetupUndesired(sc *Scenario, s *Source, desired []*Source, dir resultcache.Dir) error {
	computed := make(map[int32]resultcache.CellRecord)
	for _, idxs := range sc.cellPoints {
		for _, idx := range idxs {
			if _, done := computed[idx]; done {
				continue
			}
			pt := sc.Points.Get(idx)
			if !hasDesiredField(sc.Fields, pt) {
				continue
			}
			if !serviceAreaGate(s, pt) {
				continue
			}
			rec, err := e.computeField(sc, s, pt, undesiredPercentTime, true)
			if err != nil {
				return err
			}
			computed[idx] = rec
		}
	}

	global := sc.Grid.Mode == grid.Global
	if global {
		recs := make([]resultcache.CellRecord, 0, len(computed))
		for _, rec := range computed {
			recs = append(recs, rec)
		}
		return e.appendUndesiredCache(sc, dir.UndesiredPath(int32(s.Key), 0), s, recs)
	}

	for _, ds := range desired {
		var recs []resultcache.CellRecord
		for _, idxs := range sc.cellPoints {
			for _, idx := range idxs {
				rec, ok := computed[idx]
				if !ok {
					continue
				}
				if !hasDesiredFieldFrom(sc.Fields, sc.Points.Get(idx), int32(ds.Key)) {
					continue
				}
				recs = append(recs, rec)
			}
		}
		if err := e.appendUndesiredCache(sc, dir.UndesiredPath(int32(s.Key), int32(ds.Key)), s, recs); err != nil {
			return err
		}
	}
	return nil
}

// appendUndesiredCache reads path's current tail checksum (seeding a
// fresh one when the file doesn't exist yet) and appends recs, per
// §4.F's append-only undesired-cache semantics.
func (e *Engine) appendUndesiredCache(sc *Scenario, path string, s *Source, recs []resultcache.CellRecord) error {
	if len(recs) == 0 {
		return nil
	}
	inGrid := func(latIdx, lonIdx int32) bool {
		_, _, ok := sc.Grid.CellIndex(float64(latIdx)/3600, float64(lonIdx)/3600)
		return ok
	}
	_, tail, err := resultcache.ReadUndesired(path, e.cacheHeader(), inGrid)
	if err != nil {
		log.Printf("tvstudy: dropping undesired cache %s: %v", path, err)
		e.advisories++
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		// No file yet: the append chain starts from the seed
		// checksum, per §4.F.
		tail = resultcache.SeedChecksum(int32(s.Key))
	}
	if _, ok, err := resultcache.AppendUndesired(path, int32(s.Key), e.cacheHeader(), tail, recs); err != nil {
		log.Printf("tvstudy: failed to append undesired cache %s: %v", path, err)
	} else if !ok {
		log.Printf("tvstudy: undesired cache %s append abandoned (concurrent writer)", path)
	}
	return nil
}

func hasDesiredFieldFrom(pool *population.FieldPool, pt *population.StudyPoint, sourceKey int32) bool {
	for idx := pt.FieldHead; idx >= 0; {
		f := pool.Get(idx)
		if f.SourceKey == sourceKey && !f.IsUndesired {
			return true
		}
		idx = f.Next
	}
	return false
}
