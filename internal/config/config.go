package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/locations-cli/internal/cost"
	"github.com/sells-group/locations-cli/internal/fuzzy"
)

// Config holds the full application configuration.
type Config struct {
	Google  GoogleConfig  `yaml:"google" mapstructure:"google"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Cities  CitiesConfig  `yaml:"cities" mapstructure:"cities"`
	Sample  SampleConfig  `yaml:"sample" mapstructure:"sample"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GoogleConfig configures the Places API client.
type GoogleConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// SearchConfig configures how candidates are searched and filtered.
type SearchConfig struct {
	Radius              int      `yaml:"radius" mapstructure:"radius"`
	OpenNow             bool     `yaml:"open_now" mapstructure:"open_now"`
	FuzzyStrategy       string   `yaml:"fuzzy_strategy" mapstructure:"fuzzy_strategy"`
	FuzzyThreshold      float64  `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	IrrelevantTypes     []string `yaml:"irrelevant_types" mapstructure:"irrelevant_types"`
	IrrelevantTypesFile string   `yaml:"irrelevant_types_file" mapstructure:"irrelevant_types_file"`
	CityLimit           int      `yaml:"city_limit" mapstructure:"city_limit"`
	Concurrency         int      `yaml:"concurrency" mapstructure:"concurrency"`
	StopOnMismatch      bool     `yaml:"stop_on_mismatch" mapstructure:"stop_on_mismatch"`
}

// CitiesConfig locates the epicentre list.
type CitiesConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	State     string `yaml:"state" mapstructure:"state"`
	HasHeader bool   `yaml:"has_header" mapstructure:"has_header"`
}

// SampleConfig configures company-name sampling.
type SampleConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Size      int    `yaml:"size" mapstructure:"size"`
	Country   string `yaml:"country" mapstructure:"country"`
	Sector    string `yaml:"sector" mapstructure:"sector"`
	StopWords int    `yaml:"stop_words" mapstructure:"stop_words"`
	Seed      uint64 `yaml:"seed" mapstructure:"seed"`
}

// OutputConfig selects where and how results are written.
type OutputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig configures the Pushgateway target. An empty URL disables
// pushing.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" mapstructure:"pushgateway_url"`
	Job            string `yaml:"job" mapstructure:"job"`
}

// PricingConfig holds the rates used to estimate API spend.
type PricingConfig struct {
	Places cost.Rates `yaml:"places" mapstructure:"places"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml in the working directory (when
// present) and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path and the environment. An empty path
// falls back to an optional config.yaml in the working directory; an explicit
// path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("LOCATIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("google.timeout_secs", 10)
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("google.max_attempts", 3)
	v.SetDefault("search.radius", 50000)
	v.SetDefault("search.open_now", false)
	v.SetDefault("search.fuzzy_strategy", "token_set_ratio")
	v.SetDefault("search.fuzzy_threshold", 80)
	v.SetDefault("search.irrelevant_types_file", "")
	v.SetDefault("search.city_limit", 20)
	v.SetDefault("search.concurrency", 1)
	v.SetDefault("search.stop_on_mismatch", false)
	v.SetDefault("cities.path", "")
	v.SetDefault("cities.state", "")
	v.SetDefault("cities.has_header", true)
	v.SetDefault("sample.path", "")
	v.SetDefault("sample.size", 20)
	v.SetDefault("sample.country", "USA")
	v.SetDefault("sample.sector", "Materials")
	v.SetDefault("sample.stop_words", 0)
	v.SetDefault("sample.seed", 0)
	v.SetDefault("output.path", "results.json")
	v.SetDefault("output.format", "jsonl")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "locations_cli")
	v.SetDefault("pricing.places.nearby_search_per_1k", cost.DefaultRates().NearbySearchPer1K)
	v.SetDefault("pricing.places.details_per_1k", cost.DefaultRates().DetailsPer1K)
	v.SetDefault("pricing.places.free_credit_usd", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrapf(err, "config: read file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Search.IrrelevantTypesFile != "" {
		types, err := LoadIrrelevantTypes(cfg.Search.IrrelevantTypesFile)
		if err != nil {
			return nil, err
		}
		cfg.Search.IrrelevantTypes = types
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is the command name.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "locate":
		if c.Google.Key == "" {
			problems = append(problems, "google.key is required")
		}
		if c.Cities.Path == "" {
			problems = append(problems, "cities.path is required")
		}
		if _, err := fuzzy.ParseStrategy(c.Search.FuzzyStrategy); err != nil {
			problems = append(problems, "search.fuzzy_strategy "+c.Search.FuzzyStrategy+" is not supported")
		}
		if c.Search.FuzzyThreshold < 0 || c.Search.FuzzyThreshold > 100 {
			problems = append(problems, "search.fuzzy_threshold must be between 0 and 100")
		}
		if c.Search.Radius <= 0 || c.Search.Radius > 50000 {
			problems = append(problems, "search.radius must be between 1 and 50000")
		}
		if c.Search.Concurrency < 1 || c.Search.Concurrency > 32 {
			problems = append(problems, "search.concurrency must be between 1 and 32")
		}
		if c.Search.CityLimit < 0 {
			problems = append(problems, "search.city_limit must be >= 0")
		}
		if c.Google.RateLimit <= 0 {
			problems = append(problems, "google.rate_limit must be > 0")
		}
		if c.Google.MaxAttempts < 1 {
			problems = append(problems, "google.max_attempts must be >= 1")
		}
		switch c.Output.Format {
		case "jsonl", "geojson", "sqlite":
		default:
			problems = append(problems, "output.format must be one of jsonl, geojson, sqlite")
		}
		if c.Output.Path == "" {
			problems = append(problems, "output.path is required")
		}
	case "sample":
		if c.Sample.Path == "" {
			problems = append(problems, "sample.path is required")
		}
		if c.Sample.Size < 1 {
			problems = append(problems, "sample.size must be > 0")
		}
		if c.Sample.StopWords < 0 {
			problems = append(problems, "sample.stop_words must be >= 0")
		}
	case "cities":
		if c.Cities.Path == "" {
			problems = append(problems, "cities.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

type irrelevantTypesFile struct {
	IrrelevantTypes []string `yaml:"irrelevant_types"`
}

// LoadIrrelevantTypes reads a YAML file holding an irrelevant_types list.
func LoadIrrelevantTypes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read irrelevant types %s", path)
	}

	var f irrelevantTypesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "config: parse irrelevant types %s", path)
	}
	if len(f.IrrelevantTypes) == 0 {
		return nil, eris.Errorf("config: %s has no irrelevant_types", path)
	}
	return f.IrrelevantTypes, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
