// Package config loads service settings from a TOML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Result options for completed polls
const (
	ResultJSON = "json"
	ResultFile = "file"
)

// Media fetch backends
const (
	FetcherYouTube = "youtube"
	FetcherYtDlp   = "ytdlp"
)

// Config holds every runtime setting of the service
type Config struct {
	Port         string `toml:"port"`
	Environment  string `toml:"environment"`
	OutputDir    string `toml:"output_dir"`
	DatabasePath string `toml:"database_path"`

	DefaultLanguage string `toml:"default_language"`
	ResultOption    string `toml:"result_option"`
	ParagraphSize   int    `toml:"paragraph_size"`

	CleanupEnabled    bool `toml:"cleanup_enabled"`
	CleanupAgeSeconds int  `toml:"cleanup_age_seconds"`

	Workers    int `toml:"workers"`
	QueueLimit int `toml:"queue_limit"`
	MaxRetries int `toml:"max_retries"`

	Fetcher             string `toml:"fetcher"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	YtDlpPath           string `toml:"ytdlp_path"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Port:                "8080",
		Environment:         "local",
		DefaultLanguage:     "en",
		ResultOption:        ResultJSON,
		ParagraphSize:       3,
		CleanupEnabled:      false,
		CleanupAgeSeconds:   86400,
		Workers:             4,
		QueueLimit:          100,
		MaxRetries:          2,
		Fetcher:             FetcherYouTube,
		FetchTimeoutSeconds: 120,
		YtDlpPath:           "yt-dlp",
		LogLevel:            "info",
		LogFormat:           "auto",
	}
}

// Load reads .env (if present), the TOML file named by DOWNSUB_CONFIG (if set),
// then environment overrides, and validates the result.
func Load() (*Config, error) {
	// missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("DOWNSUB_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	cfg.resolvePaths(cwd)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays settings from a TOML file
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"PORT":                 &c.Port,
		"ENVIRONMENT":          &c.Environment,
		"OUTPUT_DIR":           &c.OutputDir,
		"DATABASE_PATH":        &c.DatabasePath,
		"DOWNSUB_DEFAULT_LANG": &c.DefaultLanguage,
		"RESULT_OPTION":        &c.ResultOption,
		"DOWNSUB_FETCHER":      &c.Fetcher,
		"YTDLP_PATH":           &c.YtDlpPath,
		"LOG_LEVEL":            &c.LogLevel,
		"LOG_FORMAT":           &c.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"DOWNSUB_CLEANUP_AGE":    &c.CleanupAgeSeconds,
		"DOWNSUB_PARAGRAPH_SIZE": &c.ParagraphSize,
		"DOWNSUB_WORKERS":        &c.Workers,
		"DOWNSUB_QUEUE_LIMIT":    &c.QueueLimit,
		"DOWNSUB_MAX_RETRIES":    &c.MaxRetries,
		"DOWNSUB_FETCH_TIMEOUT":  &c.FetchTimeoutSeconds,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, v)
		}
		*dst = n
	}

	if v, ok := lookup("DOWNSUB_CLEANUP_ENABLED"); ok {
		enabled, err := ParseBool(v)
		if err != nil {
			return fmt.Errorf("DOWNSUB_CLEANUP_ENABLED: %w", err)
		}
		c.CleanupEnabled = enabled
	}

	c.Environment = strings.ToLower(c.Environment)
	c.ResultOption = strings.ToLower(c.ResultOption)
	c.Fetcher = strings.ToLower(c.Fetcher)
	return nil
}

// resolvePaths fills the output directory and database path from the environment kind
func (c *Config) resolvePaths(cwd string) {
	if c.OutputDir == "" {
		if c.Environment == "docker" {
			c.OutputDir = "/app/output"
		} else {
			c.OutputDir = filepath.Join(cwd, "output")
		}
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(filepath.Dir(c.OutputDir), "data", "downsub.db")
	}
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if c.DefaultLanguage == "" {
		errs = append(errs, errors.New("default_language must not be empty"))
	}
	switch c.ResultOption {
	case ResultJSON, ResultFile:
	default:
		errs = append(errs, fmt.Errorf("result_option: unsupported value %q (expected json or file)", c.ResultOption))
	}
	switch c.Fetcher {
	case FetcherYouTube, FetcherYtDlp:
	default:
		errs = append(errs, fmt.Errorf("fetcher: unsupported value %q (expected youtube or ytdlp)", c.Fetcher))
	}
	if c.CleanupAgeSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cleanup_age_seconds must be positive, got %d", c.CleanupAgeSeconds))
	}
	if c.ParagraphSize < 0 {
		errs = append(errs, fmt.Errorf("paragraph_size must not be negative, got %d", c.ParagraphSize))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.QueueLimit < 0 {
		errs = append(errs, fmt.Errorf("queue_limit must not be negative, got %d", c.QueueLimit))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries))
	}
	if c.FetchTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("fetch_timeout_seconds must be positive, got %d", c.FetchTimeoutSeconds))
	}
	if c.OutputDir != "" && c.DatabasePath != "" && isWithin(c.OutputDir, c.DatabasePath) {
		// the sweeper would delete the database and its -wal/-shm files
		errs = append(errs, fmt.Errorf("database_path %s must not be inside output_dir %s", c.DatabasePath, c.OutputDir))
	}
	return errors.Join(errs...)
}

// isWithin reports whether path is dir itself or lies below it
func isWithin(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// EnsureDirectories creates the output and database directories
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.OutputDir, filepath.Dir(c.DatabasePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// CleanupAge returns the artifact retention age
func (c *Config) CleanupAge() time.Duration {
	return time.Duration(c.CleanupAgeSeconds) * time.Second
}

// FetchTimeout returns the bound on a single media fetch call
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ParseBool accepts the usual truthy and falsy spellings of an environment flag
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "", "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}
