package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/locations-cli/internal/config"
	"github.com/sells-group/locations-cli/internal/sample"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a sample of quoted company keywords",
	Long: `Cleans the company dataset, keeps one country and sector, optionally removes
the most common name words and prints a random sample of quoted keywords.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applySampleFlags(cmd, cfg)
		if err := cfg.Validate("sample"); err != nil {
			return err
		}

		names, err := sample.CompanyNames(cfg.Sample.Path, sampleOptions(cfg.Sample))
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, names)
	},
}

func init() {
	f := sampleCmd.Flags()
	f.String("csv", "", "company dataset (overrides sample.path)")
	f.Int("size", 0, "number of companies (overrides sample.size)")
	f.String("country", "", "three letter country code (overrides sample.country)")
	f.String("sector", "", "sector to keep (overrides sample.sector)")
	f.Int("stop-words", 0, "most common name words to remove (overrides sample.stop_words)")
	f.Uint64("seed", 0, "random seed, 0 for time based (overrides sample.seed)")
	rootCmd.AddCommand(sampleCmd)
}

func applySampleFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("csv") {
		c.Sample.Path, _ = f.GetString("csv")
	}
	if f.Changed("size") {
		c.Sample.Size, _ = f.GetInt("size")
	}
	if f.Changed("country") {
		c.Sample.Country, _ = f.GetString("country")
	}
	if f.Changed("sector") {
		c.Sample.Sector, _ = f.GetString("sector")
	}
	if f.Changed("stop-words") {
		c.Sample.StopWords, _ = f.GetInt("stop-words")
	}
	if f.Changed("seed") {
		c.Sample.Seed, _ = f.GetUint64("seed")
	}
}

func sampleOptions(c config.SampleConfig) sample.Options {
	return sample.Options{
		Size:      c.Size,
		Country:   c.Country,
		Sector:    c.Sector,
		StopWords: c.StopWords,
		Seed:      c.Seed,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
