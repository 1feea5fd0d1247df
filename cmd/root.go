package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/locations-cli/internal/config"
)

var (
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "locations-cli",
	Short: "Company location discovery via Google Places",
	Long:  "Searches Google Places around city epicentres for a list of companies, filters the candidates by name similarity, closure and place type, and writes the locations found.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFile(configPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		applyLogFlags(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		zap.L().Debug("config loaded",
			zap.String("command", cmd.Name()),
			zap.String("config_file", configPath),
			zap.Bool("google_key_set", cfg.Google.Key != ""),
			zap.String("cities", cfg.Cities.Path),
			zap.String("output_format", cfg.Output.Format),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./config.yaml when present)")
	pf.String("log-level", "", "log level: debug, info, warn or error (overrides log.level)")
	pf.String("log-format", "", "log encoding: json or console (overrides log.format)")
}

// applyLogFlags copies explicitly set logging flags over the loaded config.
func applyLogFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("log-level") {
		level, _ := f.GetString("log-level")
		c.Log.Level = strings.ToLower(level)
	}
	if f.Changed("log-format") {
		format, _ := f.GetString("log-format")
		c.Log.Format = strings.ToLower(format)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
