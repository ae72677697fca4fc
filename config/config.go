package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to upper-cased key names for environment lookup.
const EnvPrefix = "CONVOFLOW_"

// ProjectConfigName is the filename looked for in the project root.
const ProjectConfigName = ".convoflow.yaml"

// ResolverConfig configures the layered config resolver. The zero value is
// usable and resolves the standard convoflow settings.
type ResolverConfig struct {
	// Defaults provides the default values. If nil, Defaults() is used.
	Defaults map[string]string

	// ProjectRootFinder locates the directory holding ProjectConfigName.
	// If nil, the resolver walks up from the working directory.
	ProjectRootFinder func(startDir string) (string, error)

	// ErrWriter is where warnings are written. Defaults to os.Stderr.
	ErrWriter io.Writer
}

// Resolver handles layered configuration resolution.
type Resolver struct {
	config      ResolverConfig
	globalPath  string
	projectPath string
	projectRoot string

	// Warnings collects non-fatal issues during resolution.
	Warnings []string
}

// NewResolver creates a resolver that detects the project root and the
// user's global config path.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Defaults == nil {
		cfg.Defaults = Defaults()
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	r := &Resolver{config: cfg}

	if cfg.ProjectRootFinder != nil {
		if root, err := cfg.ProjectRootFinder("."); err == nil && root != "" {
			r.projectRoot = root
		}
	} else {
		r.projectRoot = findProjectRoot(".")
	}
	if r.projectRoot != "" {
		r.projectPath = filepath.Join(r.projectRoot, ProjectConfigName)
	}

	if home, err := os.UserHomeDir(); err == nil {
		r.globalPath = filepath.Join(home, ".config", "convoflow", "config.yaml")
	}

	return r
}

// NewResolverWithPaths creates a resolver with explicit global and project
// config paths. Useful for tests.
func NewResolverWithPaths(cfg ResolverConfig, globalPath, projectPath string) *Resolver {
	if cfg.Defaults == nil {
		cfg.Defaults = Defaults()
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	return &Resolver{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
	}
}

func (r *Resolver) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	if r.config.ErrWriter != nil {
		fmt.Fprintf(r.config.ErrWriter, "Warning: %s\n", msg)
	}
}

// Resolved holds the final merged configuration.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

// Get returns the value for a key, or empty string if not set.
func (c *Resolved) Get(key string) string {
	return c.values[key]
}

// GetBool reports whether a key resolves to "true".
func (c *Resolved) GetBool(key string) bool {
	return c.values[key] == "true"
}

// Source returns the source of a key's value.
func (c *Resolved) Source(key string) Source {
	return c.sources[key]
}

// GetWithSource returns both the value and its source.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// All returns a copy of all key-value pairs.
func (c *Resolved) All() map[string]string {
	result := make(map[string]string, len(c.values))
	for k, v := range c.values {
		result[k] = v
	}
	return result
}

// Resolve builds the final config by merging all sources.
// Priority (highest to lowest): env > project > global > defaults.
func (r *Resolver) Resolve() *Resolved {
	cfg := &Resolved{
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}

	for key, value := range r.config.Defaults {
		cfg.values[key] = value
		cfg.sources[key] = SourceDefault
	}

	r.applyFile(cfg, r.globalPath, SourceGlobal)
	r.applyFile(cfg, r.projectPath, SourceProject)
	r.applyEnv(cfg)

	return cfg
}

// ResolveWithOverrides resolves config and applies explicit overrides on
// top. Empty override values are ignored.
func (r *Resolver) ResolveWithOverrides(overrides map[string]string) *Resolved {
	cfg := r.Resolve()
	for key, value := range overrides {
		if value != "" {
			cfg.values[key] = value
			cfg.sources[key] = SourceOverride
		}
	}
	return cfg
}

func (r *Resolver) applyFile(cfg *Resolved, path string, src Source) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist - not an error
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn(fmt.Sprintf("could not parse %s: %v", path, err))
		return
	}

	for key, value := range parsed {
		if _, known := r.config.Defaults[key]; !known {
			r.warn(fmt.Sprintf("%s: unknown key %q ignored", path, key))
			continue
		}
		if strVal := toString(value); strVal != "" {
			cfg.values[key] = strVal
			cfg.sources[key] = src
		}
	}
}

func (r *Resolver) applyEnv(cfg *Resolved) {
	for key := range r.config.Defaults {
		envKey := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if value := os.Getenv(envKey); value != "" {
			cfg.values[key] = value
			cfg.sources[key] = SourceEnv
		}
	}
}

// ProjectRoot returns the detected project root directory.
func (r *Resolver) ProjectRoot() string {
	return r.projectRoot
}

// GlobalPath returns the path to the global config file.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// ProjectPath returns the path to the project config file.
func (r *Resolver) ProjectPath() string {
	return r.projectPath
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

// findProjectRoot walks up from startDir looking for ProjectConfigName.
func findProjectRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}

	for {
		marker := filepath.Join(dir, ProjectConfigName)
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached root
		}
		dir = parent
	}

	return ""
}
