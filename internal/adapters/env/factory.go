// Package env implements ports.EnvironmentFactory by prepending tool directories onto
// the process's own environment, rather than resolving and installing packages.
package env

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Factory implements ports.EnvironmentFactory. Unlike a package-manager-backed
// implementation, it does not install anything: each entry in the tools map given to
// GetEnvironment is treated as an already-resolved directory to prepend to PATH, keyed
// by an alias used only to order the prepends.
type Factory struct {
	base []string
}

// NewFactory builds a Factory whose baseline environment is the calling process's own
// environment.
func NewFactory() *Factory {
	return &Factory{base: os.Environ()}
}

// GetEnvironment returns the process environment with each tool directory in tools
// prepended to PATH in sorted alias order, so the directory of the alphabetically last
// alias comes first and tool resolution order is deterministic regardless of map
// iteration order.
func (f *Factory) GetEnvironment(_ context.Context, tools map[string]string) ([]string, error) {
	envMap := make(map[string]string, len(f.base))
	for _, entry := range f.base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	if len(tools) > 0 {
		aliases := make([]string, 0, len(tools))
		for alias := range tools {
			aliases = append(aliases, alias)
		}
		sort.Strings(aliases)

		path := envMap["PATH"]
		for _, alias := range aliases {
			dir := filepath.Clean(tools[alias])
			if path == "" {
				path = dir
			} else {
				path = dir + string(os.PathListSeparator) + path
			}
		}
		envMap["PATH"] = path
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result, nil
}
