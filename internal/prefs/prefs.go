// Package prefs remembers viewer preferences between runs: the last opened
// file, the theme and the sort order. They live in
// ~/.config/logtrail/prefs.toml unless another path is given.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"logtrail/internal/util/logx"
)

type Prefs struct {
	LastFile  string `toml:"last_file"`
	Theme     string `toml:"theme"`
	SortField string `toml:"sort_field"`
	SortDesc  bool   `toml:"sort_desc"`
}

const (
	DefaultPath  = "~/.config/logtrail/prefs.toml"
	DefaultTheme = "dark"
)

func Defaults() Prefs {
	return Prefs{Theme: DefaultTheme, SortField: "timestamp"}
}

// Load reads preferences from path. A missing or unreadable file yields the
// defaults; only a path that cannot be resolved is an error.
func Load(path string) (Prefs, error) {
	p := Defaults()
	resolved, err := Resolve(path)
	if err != nil {
		return p, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logx.Warnf("prefs: read %s: %v", resolved, err)
		}
		return p, nil
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		logx.Warnf("prefs: %s is not valid TOML, using defaults: %v", resolved, err)
		return Defaults(), nil
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = DefaultTheme
	}
	return p, nil
}

// Save writes p to path, creating parent directories.
func Save(path string, p Prefs) error {
	resolved, err := Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Resolve expands ~ and makes path absolute. An empty path means DefaultPath.
func Resolve(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = DefaultPath
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
