// Package config reads and writes the carefind TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the on-disk configuration.
type Config struct {
	// DataDir holds the badger store.
	DataDir string `toml:"data_dir"`
	// IndexPath is the sqlite full-text/geo index file. Relative paths are
	// resolved against DataDir.
	IndexPath string `toml:"index_path"`
	// LabelsDir holds <lang>.txt label dictionaries.
	LabelsDir       string   `toml:"labels_dir"`
	DefaultLanguage string   `toml:"default_language"`
	Languages       []string `toml:"languages"`
	// Timezone is the IANA name used for opening hours.
	Timezone string `toml:"timezone"`

	Cache    CacheConfig    `toml:"cache"`
	Taxonomy TaxonomyConfig `toml:"taxonomy"`
	Search   SearchConfig   `toml:"search"`
	Suggest  SuggestConfig  `toml:"suggest"`
	Ingest   IngestConfig   `toml:"ingest"`
}

type CacheConfig struct {
	ResultTTL Duration `toml:"result_ttl"`
	LabelTTL  Duration `toml:"label_ttl"`
}

type TaxonomyConfig struct {
	RefreshInterval Duration `toml:"refresh_interval"`
}

type SearchConfig struct {
	SearchLimit         int      `toml:"search_limit"`
	SiteLimit           int      `toml:"site_limit"`
	FacetRetries        int      `toml:"facet_retries"`
	FacetRetryDelay     Duration `toml:"facet_retry_delay"`
	SearchTaxonomyIndex bool     `toml:"search_taxonomy_index"`
}

type SuggestConfig struct {
	Limit      int  `toml:"limit"`
	Taxonomies bool `toml:"taxonomies"`
	Trending   bool `toml:"trending"`
	Related    bool `toml:"related"`
	// TrendingRange is one of week, month or quarter.
	TrendingRange    string `toml:"trending_range"`
	TrendingMinCount int    `toml:"trending_min_count"`
	TrendingMaxShow  int    `toml:"trending_max_show"`
}

type IngestConfig struct {
	PoolSize   int `toml:"pool_size"`
	BatchSize  int `toml:"batch_size"`
	MaxRetries int `toml:"max_retries"`
}

// Duration is a time.Duration written as a string such as "10m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Default returns the built-in configuration rooted at GetDefaultDataDir.
func Default() (*Config, error) {
	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("getting default data directory: %w", err)
	}
	return defaults(dataDir), nil
}

func defaults(dataDir string) *Config {
	return &Config{
		DataDir:         dataDir,
		IndexPath:       "index.db",
		LabelsDir:       "lang",
		DefaultLanguage: "en",
		Languages:       []string{"en"},
		Timezone:        "Pacific/Honolulu",
		Cache: CacheConfig{
			ResultTTL: Duration{10 * time.Minute},
			LabelTTL:  Duration{time.Minute},
		},
		Taxonomy: TaxonomyConfig{
			RefreshInterval: Duration{10 * time.Minute},
		},
		Search: SearchConfig{
			SearchLimit:     500,
			SiteLimit:       1000,
			FacetRetries:    2,
			FacetRetryDelay: Duration{250 * time.Millisecond},
		},
		Suggest: SuggestConfig{
			Limit:            10,
			Taxonomies:       true,
			Trending:         true,
			Related:          true,
			TrendingRange:    "month",
			TrendingMinCount: 2,
			TrendingMaxShow:  5,
		},
		Ingest: IngestConfig{
			BatchSize:  100,
			MaxRetries: 3,
		},
	}
}

// Load reads configPath over the defaults. A missing file gives the defaults.
func Load(configPath string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.DataDir == "" {
		if cfg.DataDir, err = GetDefaultDataDir(); err != nil {
			return nil, fmt.Errorf("getting default data directory: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration, creating its directory.
func (c *Config) Save(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks language tags, the timezone and numeric limits.
func (c *Config) Validate() error {
	var errs []error
	if _, err := language.Parse(c.DefaultLanguage); err != nil {
		errs = append(errs, fmt.Errorf("default_language %q: %w", c.DefaultLanguage, err))
	}
	for _, l := range c.Languages {
		if _, err := language.Parse(l); err != nil {
			errs = append(errs, fmt.Errorf("languages %q: %w", l, err))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.Cache.ResultTTL.Duration <= 0 || c.Cache.LabelTTL.Duration <= 0 {
		errs = append(errs, errors.New("cache TTLs must be positive"))
	}
	if c.Taxonomy.RefreshInterval.Duration <= 0 {
		errs = append(errs, errors.New("taxonomy.refresh_interval must be positive"))
	}
	if c.Search.SearchLimit < 1 || c.Search.SiteLimit < 1 {
		errs = append(errs, errors.New("search limits must be positive"))
	}
	if c.Search.FacetRetries < 0 {
		errs = append(errs, errors.New("search.facet_retries must not be negative"))
	}
	switch c.Suggest.TrendingRange {
	case "", "week", "month", "quarter":
	default:
		errs = append(errs, fmt.Errorf("suggest.trending_range %q", c.Suggest.TrendingRange))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// IndexLanguages returns Languages with DefaultLanguage first.
func (c *Config) IndexLanguages() []string {
	langs := []string{c.DefaultLanguage}
	for _, l := range c.Languages {
		if !slices.Contains(langs, l) {
			langs = append(langs, l)
		}
	}
	return langs
}

// StorePath returns the badger directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store")
}

// ResolvedIndexPath returns IndexPath, relative paths joined to DataDir.
func (c *Config) ResolvedIndexPath() string {
	return c.resolve(c.IndexPath)
}

// ResolvedLabelsDir returns LabelsDir, relative paths joined to DataDir.
func (c *Config) ResolvedLabelsDir() string {
	if c.LabelsDir == "" {
		return ""
	}
	return c.resolve(c.LabelsDir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// GetDefaultDataDir returns ~/.local/share/carefind.
func GetDefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "carefind"), nil
}

// GetDefaultConfigPath returns ~/.config/carefind/config.toml.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "carefind", "config.toml"), nil
}
