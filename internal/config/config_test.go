package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func loadQuiet(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	// keep the user's real config file out of the picture
	t.Setenv("HOME", t.TempDir())
	return load(args, io.Discard)
}

func TestDefaults(t *testing.T) {
	cfg, err := loadQuiet(t)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEntries != 100000 || cfg.BatchSize != 568 || cfg.HeadBytes != 1024 {
		t.Fatalf("unexpected sizes: %+v", cfg)
	}
	if cfg.PollInterval != 200*time.Millisecond || cfg.CommandTimeout != 10*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.Theme != ThemeDark || cfg.DedupWindow != 0 || cfg.Headless {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yml")
	content := "max-entries: 42\ntheme: light\npoll-interval: 1s\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadQuiet(t, "--config", cfgFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEntries != 42 || cfg.Theme != ThemeLight || cfg.PollInterval != time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ConfigPath != cfgFile {
		t.Fatalf("ConfigPath = %q", cfg.ConfigPath)
	}

	t.Setenv("LOGTRAIL_MAX_ENTRIES", "77")
	cfg, err = loadQuiet(t, "--config="+cfgFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEntries != 77 {
		t.Fatalf("env did not override file: %d", cfg.MaxEntries)
	}

	cfg, err = loadQuiet(t, "--config", cfgFile, "--max-entries", "9", "app.log")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEntries != 9 {
		t.Fatalf("flag did not override env: %d", cfg.MaxEntries)
	}
	if cfg.FilePath != "app.log" {
		t.Fatalf("positional file = %q", cfg.FilePath)
	}
}

func TestMissingExplicitConfigFails(t *testing.T) {
	if _, err := loadQuiet(t, "--config", filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"--max-entries", "0"}, "max-entries"},
		{[]string{"--batch-size", "-1"}, "batch-size"},
		{[]string{"--theme", "neon"}, "theme"},
		{[]string{"--headless"}, "api-addr"},
		{[]string{"--dedup-window", "-3"}, "dedup-window"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			_, err := loadQuiet(t, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestScanConfigFlag(t *testing.T) {
	cases := map[string][]string{
		"a.yml": {"-config", "a.yml"},
		"b.yml": {"--file", "x", "--config=b.yml"},
		"":      {"--", "--config", "c.yml"},
	}
	for want, args := range cases {
		if got := scanConfigFlag(args); got != want {
			t.Errorf("scanConfigFlag(%v) = %q, want %q", args, got, want)
		}
	}
}
