package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/patrickkfkan/imagefap-dl/pkg/config"
	"github.com/patrickkfkan/imagefap-dl/pkg/logger"
	"github.com/patrickkfkan/imagefap-dl/pkg/scraper"
)

// siteBase is the production host targets are written against; the
// client rewrites it onto the mock server.
const siteBase = "https://www.imagefap.com"

// TestHelper wires the mock site, a test configuration and a scraper
// together for end-to-end runs against a temporary directory.
type TestHelper struct {
	t      *testing.T
	Server *MockImagefapServer
	Config *config.Config
	Logger *logger.TestLogger
}

// NewTestHelper starts a mock site and prepares a configuration with
// pacing collapsed to keep the tests fast.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	server := NewMockImagefapServer()
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.Output.RootDirectory = t.TempDir()
	cfg.Request.PageIntervalMS = 1
	cfg.Request.ImageIntervalMS = 1
	cfg.Request.ImageConcurrency = 4
	cfg.Request.MaxRetries = 0
	cfg.Request.TimeoutSeconds = 5

	return &TestHelper{
		t:      t,
		Server: server,
		Config: cfg,
		Logger: logger.NewTestLogger(),
	}
}

// NewScraper builds a scraper from the helper's configuration, pointed
// at the mock site.
func (h *TestHelper) NewScraper() *scraper.Scraper {
	h.t.Helper()
	s, err := scraper.New(h.Config, h.Logger)
	if err != nil {
		h.t.Fatalf("Failed to create scraper: %v", err)
	}
	s.Client().SetBaseURL(h.Server.URL())
	return s
}

// TargetURL turns a site path into a canonical target URL.
func (h *TestHelper) TargetURL(pathAndQuery string) string {
	return siteBase + pathAndQuery
}

// OutputPath joins parts under the configured output root.
func (h *TestHelper) OutputPath(parts ...string) string {
	return filepath.Join(append([]string{h.Config.Output.RootDirectory}, parts...)...)
}

// AssertFileExists checks that a file exists.
func (h *TestHelper) AssertFileExists(path string) {
	h.t.Helper()
	if _, err := os.Stat(path); err != nil {
		h.t.Errorf("Expected file to exist: %s (%v)", path, err)
	}
}

// AssertFileNotExists checks that a file does not exist.
func (h *TestHelper) AssertFileNotExists(path string) {
	h.t.Helper()
	if _, err := os.Stat(path); err == nil {
		h.t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContent checks a file's exact content.
func (h *TestHelper) AssertFileContent(path, want string) {
	h.t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		h.t.Errorf("Failed to read %s: %v", path, err)
		return
	}
	if string(data) != want {
		h.t.Errorf("Content mismatch for %s: got %q, want %q", path, string(data), want)
	}
}

// AssertFileContains checks that a file contains a substring.
func (h *TestHelper) AssertFileContains(path, substr string) {
	h.t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		h.t.Errorf("Failed to read %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		h.t.Errorf("File %s does not contain %q:\n%s", path, substr, string(data))
	}
}

// AssertDirContainsFiles checks how many plain files a directory holds.
func (h *TestHelper) AssertDirContainsFiles(dir string, want int) {
	h.t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		h.t.Errorf("Failed to read directory %s: %v", dir, err)
		return
	}

	got := 0
	for _, e := range entries {
		if !e.IsDir() {
			got++
		}
	}
	if got != want {
		h.t.Errorf("Directory %s contains %d files, expected %d", dir, got, want)
	}
}
