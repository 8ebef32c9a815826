package main

import (
	"context"

	"github.com/freepiratebay/tvstudy"
	"github.com/freepiratebay/tvstudy/curve"
	"github.com/freepiratebay/tvstudy/geo"
	"github.com/freepiratebay/tvstudy/population"
)

// memoryStationDB is a fixture StationDB: sources, patterns and contours
// held in memory rather than queried from a relational schema, per
// §6's "in-memory/fixture implementations ... for demonstration".
type memoryStationDB struct {
	sources map[int][]*tvstudy.Source
}

func newDemoStationDB() *memoryStationDB {
	desired := &tvstudy.Source{
		Key: 1, Lat: 40.0, Lon: 80.0, ERPKw: 30, HAATm: 300,
		Band:      curve.VHFHigh,
		Params:    tvstudy.TVParams{Channel: 10},
		Country:   population.US,
		Geography: &population.Geography{Kind: population.GeoCircle, RadiusKm: 80},
	}
	undesired := &tvstudy.Source{
		Key: 2, Lat: 40.5, Lon: 80.5, ERPKw: 15, HAATm: 200,
		Band:      curve.VHFHigh,
		Params:    tvstudy.TVParams{Channel: 13},
		Country:   population.US,
		Geography: &population.Geography{Kind: population.GeoCircle, RadiusKm: 80},
	}
	return &memoryStationDB{sources: map[int][]*tvstudy.Source{1: {desired, undesired}}}
}

func (db *memoryStationDB) Sources(ctx context.Context, studyKey int) ([]*tvstudy.Source, error) {
	return db.sources[studyKey], nil
}

func (db *memoryStationDB) Pattern(ctx context.Context, sourceKey int) (*tvstudy.HorizontalPattern, *tvstudy.VerticalPattern, error) {
	return nil, nil, nil
}

func (db *memoryStationDB) Contour(ctx context.Context, sourceKey int) (*population.Contour, error) {
	return nil, nil
}

// memoryPopulationDB is a fixture PopulationDB: a small fixed set of
// Census rows clustered around the demo sources' service areas.
type memoryPopulationDB struct {
	rows []tvstudy.CensusRow
}

func newDemoPopulationDB() *memoryPopulationDB {
	return &memoryPopulationDB{rows: []tvstudy.CensusRow{
		{Lat: 40.02, Lon: 80.02, Population: 120000, Households: 48000, BlockID: 1},
		{Lat: 39.9, Lon: 80.1, Population: 60000, Households: 24000, BlockID: 2},
		{Lat: 40.3, Lon: 79.8, Population: 200000, Households: 80000, BlockID: 3},
		{Lat: 40.55, Lon: 80.55, Population: 45000, Households: 18000, BlockID: 4},
	}}
}

func (db *memoryPopulationDB) Population(ctx context.Context, bounds geo.IndexBounds, countries []population.Country) ([]tvstudy.CensusRow, error) {
	var out []tvstudy.CensusRow
	for _, r := range db.rows {
		latIdx, lonIdx := geo.ToIndex(r.Lat, r.Lon)
		if latIdx < bounds.SouthLat || latIdx > bounds.NorthLat {
			continue
		}
		if lonIdx < bounds.EastLon || lonIdx > bounds.WestLon {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
