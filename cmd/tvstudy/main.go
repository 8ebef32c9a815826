// Command tvstudy is a command-line front end for the tvstudy engine.
// It implements only the open-study/run-scenario/close-study contract
// plus a fixture station/population database for demonstration; the
// relational schema a real station database would use, and the GIS
// report emission a real deployment would produce, are out of scope.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fraction int

var rootCmd = &cobra.Command{
	Use:   "tvstudy",
	Short: "TV/FM broadcast coverage and interference study engine.",
	Long: "tvstudy lays out a study grid, loads population into it, and computes\n" +
		"desired and undesired field strengths at every study point, aggregating\n" +
		"population and household totals by country.",
}

func init() {
	rootCmd.PersistentFlags().IntVar(&fraction, "fraction", 1,
		"number of parallel tvstudy processes the orchestrator intends to run on this machine; "+
			"the terrain cache's memory budget is divided by this value")
	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
