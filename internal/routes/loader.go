package routes

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// file is the on-disk layout shared by TOML and YAML:
//
//	[routes]
//	treemenu_about = "/about/"
type file struct {
	Routes map[string]string `toml:"routes" yaml:"routes"`
}

// LoadFile reads named routes from a .toml, .yaml or .yml file.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- routes file path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}

	var f file
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parse toml routes %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml routes %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported routes file extension %q (want .toml, .yaml or .yml)", ext)
	}

	for name, p := range f.Routes {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("routes file %s: empty route name", path)
		}
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("routes file %s: route %q path %q must start with /", path, name, p)
		}
	}

	if f.Routes == nil {
		f.Routes = map[string]string{}
	}
	return f.Routes, nil
}

// Merge overlays file routes on top of defaults.
func Merge(defaults, overrides map[string]string) map[string]string {
	out := maps.Clone(defaults)
	if out == nil {
		out = map[string]string{}
	}
	maps.Copy(out, overrides)
	return out
}
