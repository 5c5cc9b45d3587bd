package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalPackage names the settings file layered under every package.
const GlobalPackage = "acorn"

// EnvConfigDir overrides the default settings directory.
const EnvConfigDir = "ACORN_CONFIG_DIR"

// Settings is a read-only view of layered section/option values.
type Settings struct {
	sections map[string]map[string]string
}

// HasSection reports whether any layer defined section.
func (s *Settings) HasSection(section string) bool {
	_, ok := s.sections[section]
	return ok
}

// HasOption reports whether section.option is set.
func (s *Settings) HasOption(section, option string) bool {
	_, ok := s.Get(section, option)
	return ok
}

// Get returns the raw value of section.option.
func (s *Settings) Get(section, option string) (string, bool) {
	opts, ok := s.sections[section]
	if !ok {
		return "", false
	}
	v, ok := opts[option]
	return v, ok
}

// Int returns section.option parsed as an integer, or def when unset.
func (s *Settings) Int(section, option string, def int) (int, error) {
	raw, ok := s.Get(section, option)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s.%s: %q is not an integer", section, option, raw)
	}
	return n, nil
}

// Sections returns the defined section names in sorted order.
func (s *Settings) Sections() []string {
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fill copies options from layer that are not already set.
func (s *Settings) fill(layer map[string]map[string]string) {
	for section, opts := range layer {
		dst, ok := s.sections[section]
		if !ok {
			dst = make(map[string]string, len(opts))
			s.sections[section] = dst
		}
		for k, v := range opts {
			if _, set := dst[k]; !set {
				dst[k] = v
			}
		}
	}
}

// Provider loads and caches Settings per package name.
// All methods are safe for concurrent use.
type Provider struct {
	dir      string
	mu       sync.Mutex
	packages map[string]*Settings
}

// NewProvider creates a Provider reading files from dir.
func NewProvider(dir string) *Provider {
	return &Provider{
		dir:      dir,
		packages: make(map[string]*Settings),
	}
}

// DefaultDir returns $ACORN_CONFIG_DIR, or ~/.acorn when unset.
func DefaultDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".acorn"
	}
	return filepath.Join(home, ".acorn")
}

// Dir returns the directory settings are read from.
func (p *Provider) Dir() string {
	return p.dir
}

// Settings returns the cached settings for pkg, loading them on first use
// or when reload is true. Missing files are skipped; malformed ones are an
// error and leave the cache untouched.
func (p *Provider) Settings(pkg string, reload bool) (*Settings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.packages[pkg]; ok && !reload {
		return s, nil
	}

	s := &Settings{sections: make(map[string]map[string]string)}
	if pkg != GlobalPackage {
		layer, err := p.readLayer(pkg)
		if err != nil {
			return nil, err
		}
		s.fill(layer)
	}
	global, err := p.readLayer(GlobalPackage)
	if err != nil {
		return nil, err
	}
	s.fill(global)

	p.packages[pkg] = s
	return s, nil
}

func (p *Provider) readLayer(pkg string) (map[string]map[string]string, error) {
	path := filepath.Join(p.dir, pkg+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}

	layer := make(map[string]map[string]string, len(raw))
	for section, opts := range raw {
		values := make(map[string]string, len(opts))
		for k, v := range opts {
			if v == nil {
				values[k] = ""
				continue
			}
			values[k] = fmt.Sprint(v)
		}
		layer[section] = values
	}
	return layer, nil
}
