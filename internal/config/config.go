package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"logtrail/internal/model"
	"logtrail/internal/prefs"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type Config struct {
	ConfigPath     string        `mapstructure:"-"`
	FilePath       string        `mapstructure:"file"`
	MaxEntries     int           `mapstructure:"max-entries"`
	DedupWindow    int           `mapstructure:"dedup-window"`
	BatchSize      int           `mapstructure:"batch-size"`
	PollInterval   time.Duration `mapstructure:"poll-interval"`
	HeadBytes      int           `mapstructure:"head-bytes"`
	CommandTimeout time.Duration `mapstructure:"command-timeout"`
	APIAddr        string        `mapstructure:"api-addr"`
	Headless       bool          `mapstructure:"headless"`
	Theme          Theme         `mapstructure:"theme"`
	PrefsPath      string        `mapstructure:"prefs"`
	NoPrefs        bool          `mapstructure:"no-prefs"`
	Redact         bool          `mapstructure:"redact"`

	ShowVersion bool `mapstructure:"-"`
}

const envPrefix = "LOGTRAIL"

// Load builds the configuration from, in increasing precedence: defaults,
// the config file, LOGTRAIL_* environment variables and command line flags.
func Load(args []string) (*Config, error) {
	return load(args, os.Stderr)
}

func load(args []string, out io.Writer) (*Config, error) {
	configPath := scanConfigFlag(args)

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("file", "")
	v.SetDefault("max-entries", model.MaxEntries)
	v.SetDefault("dedup-window", 0)
	v.SetDefault("batch-size", 568)
	v.SetDefault("poll-interval", 200*time.Millisecond)
	v.SetDefault("head-bytes", 1024)
	v.SetDefault("command-timeout", 10*time.Second)
	v.SetDefault("api-addr", "")
	v.SetDefault("headless", false)
	v.SetDefault("theme", string(ThemeDark))
	v.SetDefault("prefs", prefs.DefaultPath)
	v.SetDefault("no-prefs", false)
	v.SetDefault("redact", false)

	explicit := configPath != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			configPath = filepath.Join(home, ".config", "logtrail", "config.yml")
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if explicit || (!errors.As(err, &notFound) && !os.IsNotExist(err)) {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	fs := flag.NewFlagSet("logtrail", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.String("config", configPath, "config file (yaml, toml or json)")
	fs.StringVar(&cfg.FilePath, "file", cfg.FilePath, "log file to open on start")
	fs.IntVar(&cfg.MaxEntries, "max-entries", cfg.MaxEntries, "log buffer capacity")
	fs.IntVar(&cfg.DedupWindow, "dedup-window", cfg.DedupWindow, "remember only the last N record identities (0 = all since last clear)")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "records per batch when loading")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "monitor flush and size-check interval")
	fs.IntVar(&cfg.HeadBytes, "head-bytes", cfg.HeadBytes, "bytes covered by the file head fingerprint")
	fs.DurationVar(&cfg.CommandTimeout, "command-timeout", cfg.CommandTimeout, "timeout for each backend command")
	fs.StringVar(&cfg.APIAddr, "api-addr", cfg.APIAddr, "serve the JSON API on this address (e.g. 127.0.0.1:7070)")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without the terminal viewer (requires --api-addr)")
	theme := string(cfg.Theme)
	fs.StringVar(&theme, "theme", theme, "theme: dark|light")
	fs.StringVar(&cfg.PrefsPath, "prefs", cfg.PrefsPath, "preferences file")
	fs.BoolVar(&cfg.NoPrefs, "no-prefs", cfg.NoPrefs, "do not read or write preferences")
	fs.BoolVar(&cfg.Redact, "redact", cfg.Redact, "mask e-mail addresses and secrets in copied logs")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Theme = Theme(strings.ToLower(theme))
	if cfg.FilePath == "" && fs.NArg() > 0 {
		cfg.FilePath = fs.Arg(0)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.MaxEntries < 1:
		return fmt.Errorf("invalid max-entries: %d", c.MaxEntries)
	case c.DedupWindow < 0:
		return fmt.Errorf("invalid dedup-window: %d", c.DedupWindow)
	case c.BatchSize < 1:
		return fmt.Errorf("invalid batch-size: %d", c.BatchSize)
	case c.PollInterval <= 0:
		return fmt.Errorf("invalid poll-interval: %s", c.PollInterval)
	case c.HeadBytes < 1:
		return fmt.Errorf("invalid head-bytes: %d", c.HeadBytes)
	case c.CommandTimeout <= 0:
		return fmt.Errorf("invalid command-timeout: %s", c.CommandTimeout)
	case c.Theme != ThemeDark && c.Theme != ThemeLight:
		return fmt.Errorf("invalid theme %q (want dark or light)", c.Theme)
	case c.Headless && c.APIAddr == "":
		return errors.New("--headless requires --api-addr")
	}
	return nil
}

// scanConfigFlag finds -config/--config ahead of flag parsing, since the
// file it names supplies the flag defaults.
func scanConfigFlag(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func (c *Config) String() string {
	return fmt.Sprintf("file=%s max-entries=%d dedup-window=%d api=%s headless=%v theme=%s",
		c.FilePath, c.MaxEntries, c.DedupWindow, c.APIAddr, c.Headless, c.Theme)
}
