package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Request.PageIntervalMS != 2000 {
		t.Errorf("Expected default page interval to be 2000ms, got %d", config.Request.PageIntervalMS)
	}

	if config.Request.ImageIntervalMS != 200 {
		t.Errorf("Expected default image interval to be 200ms, got %d", config.Request.ImageIntervalMS)
	}

	if config.Request.ImageConcurrency != 10 {
		t.Errorf("Expected default image concurrency to be 10, got %d", config.Request.ImageConcurrency)
	}

	if config.Output.RootDirectory != "./downloads" {
		t.Errorf("Expected default output directory to be ./downloads, got %s", config.Output.RootDirectory)
	}

	if !config.Output.UploaderDir || !config.Output.FavoritesDir || !config.Output.FolderDir || !config.Output.GalleryDir {
		t.Error("Expected all directory segments to be enabled by default")
	}

	if config.Output.Overwrite {
		t.Error("Expected overwrite to be disabled by default")
	}
}

func TestIntervalAccessors(t *testing.T) {
	config := DefaultConfig()

	if config.Request.PageInterval() != 2*time.Second {
		t.Errorf("Expected page interval of 2s, got %v", config.Request.PageInterval())
	}

	if config.Request.ImageInterval() != 200*time.Millisecond {
		t.Errorf("Expected image interval of 200ms, got %v", config.Request.ImageInterval())
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("IMAGEFAP_DL_OUTPUT_DIR", "/tmp/test-downloads")
	os.Setenv("IMAGEFAP_DL_PAGE_INTERVAL_MS", "3000")
	os.Setenv("IMAGEFAP_DL_IMAGE_CONCURRENCY", "5")
	os.Setenv("IMAGEFAP_DL_MAX_RETRIES", "7")
	os.Setenv("IMAGEFAP_DL_PROXY", "http://proxy.local:8080")
	os.Setenv("IMAGEFAP_DL_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("IMAGEFAP_DL_OUTPUT_DIR")
		os.Unsetenv("IMAGEFAP_DL_PAGE_INTERVAL_MS")
		os.Unsetenv("IMAGEFAP_DL_IMAGE_CONCURRENCY")
		os.Unsetenv("IMAGEFAP_DL_MAX_RETRIES")
		os.Unsetenv("IMAGEFAP_DL_PROXY")
		os.Unsetenv("IMAGEFAP_DL_LOG_LEVEL")
	}()

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Output.RootDirectory != "/tmp/test-downloads" {
		t.Errorf("Expected output directory to be /tmp/test-downloads, got %s", config.Output.RootDirectory)
	}

	if config.Request.PageIntervalMS != 3000 {
		t.Errorf("Expected page interval to be 3000, got %d", config.Request.PageIntervalMS)
	}

	if config.Request.ImageConcurrency != 5 {
		t.Errorf("Expected image concurrency to be 5, got %d", config.Request.ImageConcurrency)
	}

	if config.Request.MaxRetries != 7 {
		t.Errorf("Expected max retries to be 7, got %d", config.Request.MaxRetries)
	}

	if config.Request.Proxy != "http://proxy.local:8080" {
		t.Errorf("Expected proxy to be http://proxy.local:8080, got %s", config.Request.Proxy)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "missing output directory",
			mutate:    func(c *Config) { c.Output.RootDirectory = "" },
			wantError: true,
		},
		{
			name:      "negative page interval",
			mutate:    func(c *Config) { c.Request.PageIntervalMS = -1 },
			wantError: true,
		},
		{
			name:      "zero image concurrency",
			mutate:    func(c *Config) { c.Request.ImageConcurrency = 0 },
			wantError: true,
		},
		{
			name:      "negative max retries",
			mutate:    func(c *Config) { c.Request.MaxRetries = -2 },
			wantError: true,
		},
		{
			name:      "invalid proxy URL",
			mutate:    func(c *Config) { c.Request.Proxy = "not a url" },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"output":            "/flag/output",
		"no-uploader-dir":   true,
		"seq-filenames":     true,
		"no-json":           true,
		"overwrite":         true,
		"image-concurrency": 4,
		"page-interval":     5000,
		"proxy":             "http://127.0.0.1:9050",
		"log-level":         "error",
	}

	config.MergeCommandLineFlags(flags)

	if config.Output.RootDirectory != "/flag/output" {
		t.Errorf("Expected output directory to be /flag/output, got %s", config.Output.RootDirectory)
	}

	if config.Output.UploaderDir {
		t.Error("Expected uploader dir segment to be disabled")
	}

	if !config.Output.SeqFilenames {
		t.Error("Expected sequential filenames to be enabled")
	}

	if config.Output.WriteJSON {
		t.Error("Expected JSON sidecar to be disabled")
	}

	if !config.Output.Overwrite {
		t.Error("Expected overwrite to be enabled")
	}

	if config.Request.ImageConcurrency != 4 {
		t.Errorf("Expected image concurrency to be 4, got %d", config.Request.ImageConcurrency)
	}

	if config.Request.PageIntervalMS != 5000 {
		t.Errorf("Expected page interval to be 5000, got %d", config.Request.PageIntervalMS)
	}

	if config.Request.Proxy != "http://127.0.0.1:9050" {
		t.Errorf("Expected proxy to be http://127.0.0.1:9050, got %s", config.Request.Proxy)
	}

	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	config := DefaultConfig()
	config.Output.RootDirectory = "/srv/archive"
	config.Output.SeqFilenames = true
	config.Request.ImageConcurrency = 8

	err := config.Save(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig := DefaultConfig()
	err = loadedConfig.LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Output.RootDirectory != "/srv/archive" {
		t.Errorf("Expected loaded output directory to be /srv/archive, got %s", loadedConfig.Output.RootDirectory)
	}

	if !loadedConfig.Output.SeqFilenames {
		t.Error("Expected loaded seq filenames to be enabled")
	}

	if loadedConfig.Request.ImageConcurrency != 8 {
		t.Errorf("Expected loaded image concurrency to be 8, got %d", loadedConfig.Request.ImageConcurrency)
	}
}
