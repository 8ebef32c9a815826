package main

import (
	"context"
	"fmt"

	"github.com/freepiratebay/tvstudy"
	"github.com/freepiratebay/tvstudy/grid"
	"github.com/freepiratebay/tvstudy/population"
	"github.com/freepiratebay/tvstudy/terrain"
	"github.com/spf13/cobra"
)

var (
	demoRAMBytes     int64
	demoCacheRoot    string
	demoTerrainRoot  string
	demoTerrainDB    string
	demoTerrainDBNum int32
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a small fixture study end to end.",
	Long: "demo exercises the open-study/run-scenario/close-study contract against an\n" +
		"in-memory fixture station and population database: two VHF-high TV\n" +
		"sources, one desired and one undesired, over a handful of Census points.",
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().Int64Var(&demoRAMBytes, "ram-bytes", 4*1024*1024*1024,
		"total RAM (bytes) the terrain cache's budget is computed from")
	demoCmd.Flags().StringVar(&demoCacheRoot, "cache-root", "./tvstudy-cache",
		"root directory for the result cache's per-study subdirectories")
	demoCmd.Flags().StringVar(&demoTerrainRoot, "terrain-root", "",
		"root directory of a terrain tile database; omit to run with elevation 0 everywhere")
	demoCmd.Flags().StringVar(&demoTerrainDB, "terrain-db", "global30",
		"terrain database resolution to register terrain-root under (global30, us-one, us-three)")
	demoCmd.Flags().Int32Var(&demoTerrainDBNum, "terrain-db-number", 0,
		"the database number baked into each tile file's file-ID")
}

func parseTerrainDatabase(name string) (terrain.Database, error) {
	switch name {
	case "global30":
		return terrain.Global30, nil
	case "us-one":
		return terrain.USOne, nil
	case "us-three":
		return terrain.USThree, nil
	default:
		return 0, fmt.Errorf("unknown terrain database %q", name)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	engine := tvstudy.NewEngine(newDemoStationDB(), newDemoPopulationDB(), demoCacheRoot)

	if err := engine.InitializeTerrain(demoRAMBytes, fraction); err != nil {
		return err
	}
	if demoTerrainRoot != "" {
		db, err := parseTerrainDatabase(demoTerrainDB)
		if err != nil {
			return err
		}
		engine.UseTerrainDatabase(db, demoTerrainRoot, demoTerrainDBNum)
	}

	ctx := context.Background()
	st, err := engine.OpenStudy(ctx, 1)
	if err != nil {
		return err
	}

	res, err := engine.RunScenario(ctx, st, []int{1}, []int{2}, grid.Local, 1800,
		population.Center, false, []population.Country{population.US})
	if err != nil {
		return err
	}

	for country, total := range res.CountryTotals {
		fmt.Printf("country=%d population=%d households=%d\n", country, total.Population, total.Households)
	}
	fmt.Printf("advisories=%d\n", res.Advisories)

	return engine.CloseStudy(st)
}
