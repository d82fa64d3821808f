package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the downloader
type Config struct {
	// Output layout and sidecar settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Request pacing, retries and transport settings
	Request RequestConfig `yaml:"request" json:"request"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// OutputConfig controls where downloads land and how they are named
type OutputConfig struct {
	RootDirectory string `yaml:"root_directory" json:"root_directory"`

	// Directory segments, applied in this fixed order when enabled:
	// uploader/owner, "Favorites" label, enclosing folder, gallery.
	UploaderDir  bool `yaml:"uploader_dir" json:"uploader_dir"`
	FavoritesDir bool `yaml:"favorites_dir" json:"favorites_dir"`
	FolderDir    bool `yaml:"folder_dir" json:"folder_dir"`
	GalleryDir   bool `yaml:"gallery_dir" json:"gallery_dir"`

	// Filename style
	SeqFilenames  bool `yaml:"seq_filenames" json:"seq_filenames"`
	FullFilenames bool `yaml:"full_filenames" json:"full_filenames"`

	// Sidecar files written next to the images
	WriteJSON bool `yaml:"write_json" json:"write_json"`
	WriteHTML bool `yaml:"write_html" json:"write_html"`

	Overwrite bool `yaml:"overwrite" json:"overwrite"`
}

// RequestConfig controls pacing of the two request queues and the
// shared HTTP transport
type RequestConfig struct {
	// Minimum spacing between page fetch starts; pages are always
	// fetched one at a time.
	PageIntervalMS int `yaml:"page_interval_ms" json:"page_interval_ms"`

	// Image queue concurrency and minimum spacing between starts
	ImageIntervalMS  int `yaml:"image_interval_ms" json:"image_interval_ms"`
	ImageConcurrency int `yaml:"image_concurrency" json:"image_concurrency"`

	MaxRetries     int `yaml:"max_retries" json:"max_retries"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	Proxy              string `yaml:"proxy" json:"proxy"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`

	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// PageInterval returns the page queue spacing as a duration.
func (r RequestConfig) PageInterval() time.Duration {
	return time.Duration(r.PageIntervalMS) * time.Millisecond
}

// ImageInterval returns the image queue spacing as a duration.
func (r RequestConfig) ImageInterval() time.Duration {
	return time.Duration(r.ImageIntervalMS) * time.Millisecond
}

// Timeout returns the per-request timeout as a duration.
func (r RequestConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			RootDirectory: "./downloads",
			UploaderDir:   true,
			FavoritesDir:  true,
			FolderDir:     true,
			GalleryDir:    true,
			SeqFilenames:  false,
			FullFilenames: false,
			WriteJSON:     true,
			WriteHTML:     true,
			Overwrite:     false,
		},
		Request: RequestConfig{
			PageIntervalMS:   2000,
			ImageIntervalMS:  200,
			ImageConcurrency: 10,
			MaxRetries:       3,
			TimeoutSeconds:   60,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if outputDir := os.Getenv("IMAGEFAP_DL_OUTPUT_DIR"); outputDir != "" {
		c.Output.RootDirectory = outputDir
	}

	if overwrite := os.Getenv("IMAGEFAP_DL_OVERWRITE"); overwrite != "" {
		c.Output.Overwrite = strings.ToLower(overwrite) == "true"
	}

	if interval := os.Getenv("IMAGEFAP_DL_PAGE_INTERVAL_MS"); interval != "" {
		if val, err := strconv.Atoi(interval); err == nil && val >= 0 {
			c.Request.PageIntervalMS = val
		}
	}

	if interval := os.Getenv("IMAGEFAP_DL_IMAGE_INTERVAL_MS"); interval != "" {
		if val, err := strconv.Atoi(interval); err == nil && val >= 0 {
			c.Request.ImageIntervalMS = val
		}
	}

	if concurrency := os.Getenv("IMAGEFAP_DL_IMAGE_CONCURRENCY"); concurrency != "" {
		if val, err := strconv.Atoi(concurrency); err == nil && val > 0 {
			c.Request.ImageConcurrency = val
		}
	}

	if retries := os.Getenv("IMAGEFAP_DL_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil && val >= 0 {
			c.Request.MaxRetries = val
		}
	}

	if proxy := os.Getenv("IMAGEFAP_DL_PROXY"); proxy != "" {
		c.Request.Proxy = proxy
	}

	if userAgent := os.Getenv("IMAGEFAP_DL_USER_AGENT"); userAgent != "" {
		c.Request.UserAgent = userAgent
	}

	if logLevel := os.Getenv("IMAGEFAP_DL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFile := os.Getenv("IMAGEFAP_DL_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".imagefap-dl.yaml",
		".imagefap-dl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "imagefap-dl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "imagefap-dl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".imagefap-dl.yaml"),
		filepath.Join(os.Getenv("HOME"), ".imagefap-dl.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Output.RootDirectory == "" {
		errs = append(errs, errors.New("output root directory is required"))
	}

	if c.Request.PageIntervalMS < 0 {
		errs = append(errs, errors.New("page interval cannot be negative"))
	}
	if c.Request.ImageIntervalMS < 0 {
		errs = append(errs, errors.New("image interval cannot be negative"))
	}
	if c.Request.ImageConcurrency <= 0 {
		errs = append(errs, errors.New("image concurrency must be positive"))
	}
	if c.Request.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Request.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Request.Proxy != "" {
		u, err := url.Parse(c.Request.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid proxy URL: %s", c.Request.Proxy))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set are present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.RootDirectory = outputDir
	}

	if v, ok := flags["no-uploader-dir"].(bool); ok && v {
		c.Output.UploaderDir = false
	}
	if v, ok := flags["no-favorites-dir"].(bool); ok && v {
		c.Output.FavoritesDir = false
	}
	if v, ok := flags["no-folder-dir"].(bool); ok && v {
		c.Output.FolderDir = false
	}
	if v, ok := flags["no-gallery-dir"].(bool); ok && v {
		c.Output.GalleryDir = false
	}

	if v, ok := flags["seq-filenames"].(bool); ok {
		c.Output.SeqFilenames = v
	}
	if v, ok := flags["full-filenames"].(bool); ok {
		c.Output.FullFilenames = v
	}
	if v, ok := flags["no-json"].(bool); ok && v {
		c.Output.WriteJSON = false
	}
	if v, ok := flags["no-html"].(bool); ok && v {
		c.Output.WriteHTML = false
	}
	if v, ok := flags["overwrite"].(bool); ok {
		c.Output.Overwrite = v
	}

	if v, ok := flags["page-interval"].(int); ok && v >= 0 {
		c.Request.PageIntervalMS = v
	}
	if v, ok := flags["image-interval"].(int); ok && v >= 0 {
		c.Request.ImageIntervalMS = v
	}
	if v, ok := flags["image-concurrency"].(int); ok && v > 0 {
		c.Request.ImageConcurrency = v
	}
	if v, ok := flags["max-retries"].(int); ok && v >= 0 {
		c.Request.MaxRetries = v
	}
	if v, ok := flags["proxy"].(string); ok && v != "" {
		c.Request.Proxy = v
	}
	if v, ok := flags["insecure"].(bool); ok {
		c.Request.InsecureSkipVerify = v
	}

	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["no-color"].(bool); ok {
		c.Logging.NoColor = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imagefap-dl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
