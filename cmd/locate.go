package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/locations-cli/internal/cities"
	"github.com/sells-group/locations-cli/internal/config"
	"github.com/sells-group/locations-cli/internal/cost"
	"github.com/sells-group/locations-cli/internal/export"
	"github.com/sells-group/locations-cli/internal/fuzzy"
	"github.com/sells-group/locations-cli/internal/locator"
	"github.com/sells-group/locations-cli/internal/metrics"
	"github.com/sells-group/locations-cli/internal/resilience"
	"github.com/sells-group/locations-cli/internal/sample"
	"github.com/sells-group/locations-cli/pkg/google"
)

var locateCompanies string

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Find company locations around a list of cities",
	Long: `Searches Google Places for every company around every city epicentre and
writes the accepted locations.

Company keywords come from --companies (one per line) or are sampled from
--sample-csv.

Examples:
  # New Jersey cities, sampled companies, default token set matching
  locations-cli locate --cities cities.csv --state "New Jersey" --sample-csv companies.csv

  # Explicit keywords, GeoJSON output
  locations-cli locate --cities cities.csv --companies names.txt --format geojson --output out.geojson`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyLocateFlags(cmd, cfg)
		if err := cfg.Validate("locate"); err != nil {
			return err
		}

		client := google.NewClient(cfg.Google.Key,
			google.WithBaseURL(cfg.Google.BaseURL),
			google.WithTimeout(time.Duration(cfg.Google.TimeoutSecs)*time.Second),
		)
		return runLocate(ctx, cfg, client, locateCompanies)
	},
}

func init() {
	registerLocateFlags(locateCmd)
	rootCmd.AddCommand(locateCmd)
}

func registerLocateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("cities", "", "semicolon-separated city list (overrides cities.path)")
	f.String("state", "", "only search cities in this state (overrides cities.state)")
	f.Bool("has-header", true, "city list starts with a header row")
	f.StringVar(&locateCompanies, "companies", "", "file with one company keyword per line")
	f.String("sample-csv", "", "company dataset to sample keywords from (overrides sample.path)")
	f.Int("limit-cities", 0, "maximum cities to search, 0 for all (overrides search.city_limit)")
	f.String("output", "", "output path (overrides output.path)")
	f.String("format", "", "output format: jsonl, geojson or sqlite (overrides output.format)")
	f.Int("concurrency", 0, "company/city searches in flight (overrides search.concurrency)")
	f.String("fuzzy-strategy", "", "ratio, partial_ratio, token_sort_ratio or token_set_ratio")
	f.Float64("fuzzy-threshold", 0, "minimum fuzzy score, exclusive (overrides search.fuzzy_threshold)")
	f.Bool("stop-on-mismatch", false, "abandon a result batch at the first name mismatch")
}

// applyLocateFlags copies explicitly set flags over the loaded config.
func applyLocateFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("cities") {
		c.Cities.Path, _ = f.GetString("cities")
	}
	if f.Changed("state") {
		c.Cities.State, _ = f.GetString("state")
	}
	if f.Changed("has-header") {
		c.Cities.HasHeader, _ = f.GetBool("has-header")
	}
	if f.Changed("sample-csv") {
		c.Sample.Path, _ = f.GetString("sample-csv")
	}
	if f.Changed("limit-cities") {
		c.Search.CityLimit, _ = f.GetInt("limit-cities")
	}
	if f.Changed("output") {
		c.Output.Path, _ = f.GetString("output")
	}
	if f.Changed("format") {
		format, _ := f.GetString("format")
		c.Output.Format = strings.ToLower(format)
	}
	if f.Changed("concurrency") {
		c.Search.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("fuzzy-strategy") {
		c.Search.FuzzyStrategy, _ = f.GetString("fuzzy-strategy")
	}
	if f.Changed("fuzzy-threshold") {
		c.Search.FuzzyThreshold, _ = f.GetFloat64("fuzzy-threshold")
	}
	if f.Changed("stop-on-mismatch") {
		c.Search.StopOnMismatch, _ = f.GetBool("stop-on-mismatch")
	}
}

// runLocate loads the inputs, runs the locator and writes the results.
func runLocate(ctx context.Context, c *config.Config, client google.Client, companiesPath string) error {
	start := time.Now()
	log := zap.L().With(zap.String("command", "locate"))

	epicentres, err := cities.ParseFile(c.Cities.Path, cities.Options{
		HasHeader: c.Cities.HasHeader,
		State:     c.Cities.State,
	})
	if err != nil {
		return err
	}
	if len(epicentres) == 0 {
		return eris.Errorf("locate: no cities found in %s (state %q)", c.Cities.Path, c.Cities.State)
	}

	companies, err := loadCompanies(c, companiesPath)
	if err != nil {
		return err
	}
	if len(companies) == 0 {
		return eris.New("locate: no company keywords to search")
	}

	m := metrics.New()
	loc, err := buildLocator(c, client, m)
	if err != nil {
		return err
	}

	result, err := loc.Run(ctx, companies, epicentres)
	if err != nil {
		return eris.Wrap(err, "locate: run")
	}

	// Partial results are still written after an interrupt.
	written, err := writeOutput(context.WithoutCancel(ctx), c.Output, result)
	if err != nil {
		return err
	}

	if err := m.Push(context.WithoutCancel(ctx), c.Metrics.PushgatewayURL, c.Metrics.Job); err != nil {
		log.Warn("metrics push failed", zap.Error(err))
	}

	spend := cost.NewCalculator(c.Pricing.Places).Places(result.NearbyRequests, result.DetailsRequests)

	log.Info("locate complete",
		zap.String("run_id", result.RunID),
		zap.Int("companies", len(result.Companies)),
		zap.Int("written", written),
		zap.Int("results", result.Accepted()),
		zap.Int("pair_failures", result.PairFailures),
		zap.Int("skipped_companies", len(result.Skipped)),
		zap.Bool("interrupted", result.Interrupted),
		zap.Int64("nearby_requests", result.NearbyRequests),
		zap.Int64("details_requests", result.DetailsRequests),
		zap.Float64("cost_usd", spend),
		zap.String("output", c.Output.Path),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// loadCompanies reads keywords from path when set, otherwise samples them
// from the configured dataset.
func loadCompanies(c *config.Config, path string) ([]string, error) {
	if path != "" {
		return readCompaniesFile(path)
	}
	if c.Sample.Path == "" {
		return nil, eris.New("locate: --companies or --sample-csv is required")
	}
	return sample.CompanyNames(c.Sample.Path, sampleOptions(c.Sample))
}

// readCompaniesFile returns the non-blank lines of path, trimmed. Lines
// starting with # are skipped.
func readCompaniesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "locate: open companies %s", path)
	}
	defer f.Close() //nolint:errcheck

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "locate: read companies %s", path)
	}
	return out, nil
}

func buildLocator(c *config.Config, client google.Client, m *metrics.Metrics) (*locator.Locator, error) {
	strategy, err := fuzzy.ParseStrategy(c.Search.FuzzyStrategy)
	if err != nil {
		return nil, err
	}

	retry := resilience.DefaultRetryConfig()
	if c.Google.MaxAttempts > 0 {
		retry.MaxAttempts = c.Google.MaxAttempts
	}

	return locator.New(client, locator.Options{
		Radius:          c.Search.Radius,
		OpenNow:         c.Search.OpenNow,
		Matcher:         fuzzy.Matcher{Strategy: strategy, Threshold: c.Search.FuzzyThreshold},
		IrrelevantTypes: c.Search.IrrelevantTypes,
		CityLimit:       c.Search.CityLimit,
		Concurrency:     c.Search.Concurrency,
		StopOnMismatch:  c.Search.StopOnMismatch,
		RateLimit:       c.Google.RateLimit,
		Retry:           retry,
	}, m), nil
}

// writeOutput writes the run in the configured format and returns how many
// records were written.
func writeOutput(ctx context.Context, out config.OutputConfig, result *locator.RunResult) (int, error) {
	format := strings.ToLower(out.Format)
	if !export.ValidFormat(format) {
		return 0, eris.Errorf("locate: unknown output format %q", out.Format)
	}

	if format == export.FormatSQLite {
		w, err := export.NewSQLite(out.Path)
		if err != nil {
			return 0, err
		}
		defer w.Close() //nolint:errcheck

		if err := w.Migrate(ctx); err != nil {
			return 0, err
		}
		return w.Save(ctx, result.RunID, result.Companies)
	}

	f, err := os.Create(out.Path)
	if err != nil {
		return 0, eris.Wrapf(err, "locate: create %s", out.Path)
	}

	var n int
	if format == export.FormatGeoJSON {
		n, err = export.WriteGeoJSON(f, result.Companies)
	} else {
		n, err = export.WriteJSONL(f, result.Companies)
	}
	if err != nil {
		f.Close() //nolint:errcheck
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, eris.Wrapf(err, "locate: close %s", out.Path)
	}
	return n, nil
}
