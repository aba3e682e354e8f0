package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// applyConfigFile sets flags from a YAML mapping of flag names to values:
//
//	grid-size: 5x4
//	dpi: 600
//	extreme: true
//
// Keys may use '-' or '_'. Flags given on the command line keep their value.
func applyConfigFile(fs *pflag.FlagSet, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		name := strings.ReplaceAll(key, "_", "-")
		switch name {
		case "config", "help", "version":
			return fmt.Errorf("config %s: %q cannot be set from a config file", path, key)
		}
		if fs.Lookup(name) == nil {
			return fmt.Errorf("config %s: unknown setting %q", path, key)
		}
		if fs.Changed(name) {
			continue
		}
		value := values[key]
		if value == nil {
			continue
		}
		if err := fs.Set(name, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("config %s: %s: %w", path, key, err)
		}
	}
	return nil
}
