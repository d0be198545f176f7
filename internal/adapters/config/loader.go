// Package config provides the configuration loader for bob.
package config

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// defaultFilename is the config file name looked for in a working directory when none is
// given explicitly.
const defaultFilename = "bob.yaml"

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	Filename string
	logger   ports.Logger
}

// NewLoader builds a FileConfigLoader that reads bob.yaml from whatever working
// directory it is asked to load.
func NewLoader(logger ports.Logger) *FileConfigLoader {
	return &FileConfigLoader{Filename: defaultFilename, logger: logger}
}

// Load reads the configuration from the given working directory.
func (l *FileConfigLoader) Load(cwd string) (*domain.Graph, error) {
	filename := l.Filename
	if filename == "" {
		filename = defaultFilename
	}
	path := filepath.Join(cwd, filename)
	if l.logger != nil {
		l.logger.Debug("loading config from " + path)
	}
	return Load(path)
}

// Load reads a configuration file from the given path and returns a domain.Graph.
func Load(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var bobfile Bobfile
	if err := yaml.Unmarshal(data, &bobfile); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	g := domain.NewGraph()
	taskNames := make(map[string]bool, len(bobfile.Tasks))
	for name := range bobfile.Tasks {
		taskNames[name] = true
	}

	for name, dto := range bobfile.Tasks {
		if name == "all" {
			return nil, zerr.With(zerr.New("task name 'all' is reserved"), "task_name", name)
		}
		for _, dep := range dto.DependsOn {
			if !taskNames[dep] {
				return nil, zerr.With(zerr.New("missing dependency"), "missing_dependency", dep)
			}
		}

		task, err := taskFromDTO(name, dto)
		if err != nil {
			return nil, err
		}
		if err := g.AddTask(task); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func taskFromDTO(name string, dto TaskDTO) (*domain.Task, error) {
	task := &domain.Task{
		Name:             domain.NewInternedString(name),
		Command:          dto.Cmd,
		Inputs:           canonicalizeStrings(dto.Input),
		Outputs:          canonicalizeStrings(dto.Target),
		Dependencies:     internStrings(dto.DependsOn),
		Environment:      dto.Environment,
		WorkingDir:       domain.NewInternedString(dto.WorkingDir),
		InputProperties:  internPropertyMap(dto.InputProperties),
		OutputProperties: internPropertyMap(dto.OutputProperties),
	}

	cacheable := dto.CacheableOutputs
	if len(cacheable) == 0 {
		// Every declared output property is cacheable unless the config narrows it,
		// since the common case is a task with one output property that should
		// always be eligible for restore.
		for propertyName := range task.OutputPropertyPaths() {
			cacheable = append(cacheable, propertyName)
		}
	}
	task.CacheableOutputProperties = internStrings(cacheable)

	return task, nil
}

func internPropertyMap(properties map[string][]string) map[string][]domain.InternedString {
	if len(properties) == 0 {
		return nil
	}
	out := make(map[string][]domain.InternedString, len(properties))
	for name, paths := range properties {
		out[name] = canonicalizeStrings(paths)
	}
	return out
}

func internStrings(strs []string) []domain.InternedString {
	res := make([]domain.InternedString, len(strs))
	for i, s := range strs {
		res[i] = domain.NewInternedString(s)
	}
	return res
}

func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}
	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)
	unique := slices.Compact(sorted)
	res := make([]domain.InternedString, len(unique))
	for i, s := range unique {
		res[i] = domain.NewInternedString(s)
	}
	return res
}
