package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"formintake/internal/errors"
)

// MissingValuePolicy controls what the extractor does with absent values.
type MissingValuePolicy string

const (
	MissingSkip  MissingValuePolicy = "skip"
	MissingNull  MissingValuePolicy = "null"
	MissingError MissingValuePolicy = "error"
)

// Config holds every processing limit and policy. Loaded once at startup
// from environment variables (a local .env is honored) and validated
// fail-fast before any file is touched.
type Config struct {
	Env string `env:"APP_ENV" env-default:"local"`

	// File checks
	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" env-default:".xlsx,.xls"`
	MaxFileSizeMB     int      `env:"MAX_FILE_SIZE_MB" env-default:"10"`

	// Workbook checks
	MaxTabs int `env:"MAX_TABS" env-default:"20"`

	// Scan bounds for malformed sheets
	MaxScanRows int `env:"MAX_SCAN_ROWS" env-default:"1000"`
	MaxScanCols int `env:"MAX_SCAN_COLS" env-default:"100"`

	// Strict mode: any ERROR result fails the file, and failed file
	// checks skip workbook opening entirely.
	StrictMode bool `env:"STRICT_MODE" env-default:"true"`

	MissingValuePolicy MissingValuePolicy `env:"MISSING_VALUE_POLICY" env-default:"skip"`

	// Fixed workbook regions
	MetadataTab        string `env:"METADATA_TAB" env-default:"_META"`
	MetadataStartCell  string `env:"METADATA_START_CELL" env-default:"A1"`
	SchemaMapTab       string `env:"SCHEMA_MAP_TAB" env-default:"_SCHEMAS"`
	SchemaMapStartCell string `env:"SCHEMA_MAP_START_CELL" env-default:"A1"`

	// Batch processing
	MaxConcurrentFiles int `env:"MAX_CONCURRENT_FILES" env-default:"4"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read configuration from environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with every default applied, bypassing
// the environment. Used by tests and library callers.
func Default() *Config {
	return &Config{
		Env:                "local",
		AllowedExtensions:  []string{".xlsx", ".xls"},
		MaxFileSizeMB:      10,
		MaxTabs:            20,
		MaxScanRows:        1000,
		MaxScanCols:        100,
		StrictMode:         true,
		MissingValuePolicy: MissingSkip,
		MetadataTab:        "_META",
		MetadataStartCell:  "A1",
		SchemaMapTab:       "_SCHEMAS",
		SchemaMapStartCell: "A1",
		MaxConcurrentFiles: 4,
	}
}

// Validate enforces configuration invariants fail-fast.
func (c *Config) Validate() error {
	if c.MaxFileSizeMB <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("max file size must be positive, got %d", c.MaxFileSizeMB))
	}
	if c.MaxTabs <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("max tabs must be positive, got %d", c.MaxTabs))
	}
	if c.MaxScanRows <= 0 || c.MaxScanCols <= 0 {
		return errors.ConfigInvalid("scan bounds must be positive")
	}
	if c.MaxConcurrentFiles <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("max concurrent files must be positive, got %d", c.MaxConcurrentFiles))
	}
	if len(c.AllowedExtensions) == 0 {
		return errors.ConfigInvalid("at least one allowed extension is required")
	}
	for _, ext := range c.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return errors.ConfigInvalid(fmt.Sprintf("extension %q must start with a dot", ext))
		}
	}
	switch c.MissingValuePolicy {
	case MissingSkip, MissingNull, MissingError:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown missing-value policy %q", c.MissingValuePolicy))
	}
	return nil
}

// ExtensionAllowed reports whether a lowercase file extension (".xlsx")
// is on the allow-list.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// MaxFileSizeBytes returns the size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
