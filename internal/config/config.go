// Package config parses medscan settings from flags and MEDSCAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// Run modes.
const (
	ModeMCP  = "mcp"
	ModeHTTP = "http"
	ModeScan = "scan"
)

// EnvPrefix is prepended to upper-cased flag names when reading the environment,
// e.g. --temp-dir is also read from MEDSCAN_TEMP_DIR.
const EnvPrefix = "MEDSCAN"

// Config holds everything the binary needs to wire a scan pipeline and its callers.
type Config struct {
	Mode string

	// Language is the default recognition language when a request does not name one.
	Language string

	// TempDir is where transient scan artifacts are written. Empty means os.TempDir().
	TempDir string

	// Contrast is the contrast change applied after greyscale conversion.
	Contrast float64

	// MaxDimension caps the longest image side before recognition; 0 disables downscaling.
	MaxDimension int

	// Enhance toggles the preprocessing step.
	Enhance bool

	DBPath         string
	HTTPAddr       string
	VocabularyPath string
	LogLevel       string

	// Args holds positional arguments left after flag parsing (the image path in scan mode).
	Args []string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Mode:         ModeMCP,
		Language:     "eng",
		Contrast:     1.0,
		MaxDimension: 2400,
		Enhance:      true,
		DBPath:       "medscan.db",
		HTTPAddr:     ":5000",
		LogLevel:     "info",
	}
}

// ErrHelp is returned by Load when the user asked for usage; the usage text
// has already been written to stderr.
var ErrHelp = errors.New("help requested")

// Load parses args (without the program name) and the environment.
func Load(args []string) (*Config, error) {
	def := Default()

	fs := ff.NewFlagSet("medscan")
	var (
		mode      = fs.StringLong("mode", def.Mode, "Run mode: 'mcp' (stdio), 'http' or 'scan'")
		language  = fs.StringLong("language", def.Language, "Default Tesseract language code")
		tempDir   = fs.StringLong("temp-dir", "", "Directory for transient scan artifacts (default: system temp)")
		contrast  = fs.Float64Long("contrast", def.Contrast, "Contrast change applied after greyscale (> -1)")
		maxDim    = fs.IntLong("max-dimension", def.MaxDimension, "Longest image side before recognition, 0 disables downscaling")
		noEnhance = fs.BoolLong("no-enhance", "Skip greyscale/contrast preprocessing")
		dbPath    = fs.StringLong("db", def.DBPath, "Record database file path")
		httpAddr  = fs.StringLong("http-addr", def.HTTPAddr, "HTTP listen address in http mode")
		vocab     = fs.StringLong("vocabulary", "", "JSON file overriding the medicine dictionary and noise keywords")
		logLevel  = fs.StringLong("log-level", def.LogLevel, "Log level: debug, info, warn, error")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvPrefix)); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, err
	}

	cfg := &Config{
		Mode:           strings.ToLower(strings.TrimSpace(*mode)),
		Language:       strings.TrimSpace(*language),
		TempDir:        strings.TrimSpace(*tempDir),
		Contrast:       *contrast,
		MaxDimension:   *maxDim,
		Enhance:        !*noEnhance,
		DBPath:         strings.TrimSpace(*dbPath),
		HTTPAddr:       strings.TrimSpace(*httpAddr),
		VocabularyPath: strings.TrimSpace(*vocab),
		LogLevel:       *logLevel,
		Args:           fs.GetArgs(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMCP, ModeHTTP:
	case ModeScan:
		if len(c.Args) == 0 {
			return fmt.Errorf("scan mode needs an image path argument")
		}
	default:
		return fmt.Errorf("invalid mode %q (want mcp, http or scan)", c.Mode)
	}
	if c.Language == "" {
		return fmt.Errorf("language must not be empty")
	}
	if c.Contrast <= -1 {
		return fmt.Errorf("contrast must be > -1 (got %g)", c.Contrast)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("max-dimension must be >= 0 (got %d)", c.MaxDimension)
	}
	if c.Mode != ModeScan && c.DBPath == "" {
		return fmt.Errorf("db path must not be empty")
	}
	if c.TempDir != "" {
		st, err := os.Stat(c.TempDir)
		if err != nil {
			return fmt.Errorf("temp dir: %w", err)
		}
		if !st.IsDir() {
			return fmt.Errorf("temp dir %q is not a directory", c.TempDir)
		}
	}
	return nil
}
