package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/locations-cli/internal/cities"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Print the parsed city epicentres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		if f.Changed("cities") {
			cfg.Cities.Path, _ = f.GetString("cities")
		}
		if f.Changed("state") {
			cfg.Cities.State, _ = f.GetString("state")
		}
		if f.Changed("has-header") {
			cfg.Cities.HasHeader, _ = f.GetBool("has-header")
		}
		if err := cfg.Validate("cities"); err != nil {
			return err
		}

		list, err := cities.ParseFile(cfg.Cities.Path, cities.Options{
			HasHeader: cfg.Cities.HasHeader,
			State:     cfg.Cities.State,
		})
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, list)
	},
}

func init() {
	citiesCmd.Flags().String("cities", "", "semicolon-separated city list (overrides cities.path)")
	citiesCmd.Flags().String("state", "", "only keep cities in this state (overrides cities.state)")
	citiesCmd.Flags().Bool("has-header", true, "city list starts with a header row")
	rootCmd.AddCommand(citiesCmd)
}
