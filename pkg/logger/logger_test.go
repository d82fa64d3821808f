package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/patrickkfkan/imagefap-dl/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "warning alias", cfg: &config.LoggingConfig{Level: "warning"}},
		{name: "disabled", cfg: &config.LoggingConfig{Level: "disabled"}},
		{name: "no color", cfg: &config.LoggingConfig{Level: "info", NoColor: true}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if log == nil {
				t.Fatal("New() returned nil logger")
			}
			if err := log.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{input: "debug", want: zerolog.DebugLevel},
		{input: "info", want: zerolog.InfoLevel},
		{input: "warn", want: zerolog.WarnLevel},
		{input: "warning", want: zerolog.WarnLevel},
		{input: "error", want: zerolog.ErrorLevel},
		{input: "ERROR", want: zerolog.ErrorLevel},
		{input: "disabled", want: zerolog.Disabled},
		{input: "verbose", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFileSinkReceivesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	log, err := New(&config.LoggingConfig{Level: "debug", File: path, NoColor: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.WithField("gallery", "424242").InfoWithFields("gallery collected", map[string]interface{}{
		"images": 5,
	})
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	line := string(data)
	for _, want := range []string{
		`"message":"gallery collected"`,
		`"gallery":"424242"`,
		`"images":5`,
		`"app":"imagefap-dl"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log file missing %s\ngot: %s", want, line)
		}
	}
}

func TestLevelFiltersLowerEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	log, err := New(&config.LoggingConfig{Level: "warn", File: path, NoColor: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Debug("noisy detail")
	log.Info("routine progress")
	log.Warn("kept warning")
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	out := string(data)
	if strings.Contains(out, "noisy detail") || strings.Contains(out, "routine progress") {
		t.Errorf("events below warn leaked into the sink:\n%s", out)
	}
	if !strings.Contains(out, "kept warning") {
		t.Errorf("warn event missing from the sink:\n%s", out)
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	log, err := New(&config.LoggingConfig{Level: "info", File: path, NoColor: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	child := log.WithField("gallery", "1")
	child.Info("from child")
	log.Info("from parent")
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.Contains(line, "from parent") && strings.Contains(line, `"gallery"`) {
			t.Errorf("child field leaked into parent event: %s", line)
		}
	}
}

func TestTestLoggerCapture(t *testing.T) {
	log := NewTestLogger()

	log.Info("starting")
	log.WithField("folder", "77").Warn("folder is password protected, skipping")
	log.ErrorWithFields("target failed", map[string]interface{}{"url": "https://example.com"})

	if got := len(log.Messages()); got != 3 {
		t.Fatalf("captured %d messages, want 3", got)
	}
	if !log.HasMessage("password protected") {
		t.Error("expected warning to be captured")
	}

	warns := log.MessagesByLevel("WARN")
	if len(warns) != 1 || warns[0].Fields["folder"] != "77" {
		t.Errorf("WARN messages = %+v, want one carrying the folder field", warns)
	}

	errMsgs := log.MessagesByLevel("ERROR")
	if len(errMsgs) != 1 || errMsgs[0].Fields["url"] != "https://example.com" {
		t.Errorf("ERROR messages = %+v, want one carrying the url field", errMsgs)
	}
}

func TestInitializeSetsGlobalLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "info"}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil after Initialize")
	}
}
