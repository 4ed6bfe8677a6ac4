// Package config loads sflowg.yaml, the project file of a supadata host:
// runtime settings, global flow properties, named credentials and the
// configuration of each plugin.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sflowg/supadata/internal/security"
	"github.com/sflowg/supadata/runtime"
	"github.com/sflowg/supadata/runtime/telemetry"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the project directory.
const FileName = "sflowg.yaml"

type Config struct {
	Name        string                       `yaml:"name"`
	Runtime     RuntimeConfig                `yaml:"runtime"`
	Log         telemetry.LogConfig          `yaml:"log"`
	Telemetry   telemetry.Config             `yaml:"telemetry"`
	Properties  map[string]any               `yaml:"properties"`
	Credentials map[string]map[string]string `yaml:"credentials"`
	Plugins     map[string]map[string]any    `yaml:"plugins"`

	// Dir is the project directory the file was loaded from.
	Dir string `yaml:"-"`
}

type RuntimeConfig struct {
	Port  string `yaml:"port" default:"8080" validate:"required,numeric"`
	Flows string `yaml:"flows" default:"flows" validate:"required"`
}

// Load reads sflowg.yaml from projectDir. A missing file yields the defaults.
// Runtime, log, telemetry, credential and plugin values go through ${VAR} /
// ${VAR:default} substitution; properties are resolved per execution by the
// runtime.
func Load(projectDir string) (*Config, error) {
	path := filepath.Join(projectDir, FileName)
	if err := security.WithinBoundary(projectDir, path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s from %q: %w", FileName, projectDir, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	}

	if err := cfg.resolveEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(projectDir); err != nil {
		return nil, err
	}
	if err := runtime.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return &cfg, nil
}

// FlowsDir is the absolute flows directory. It must stay inside the project.
func (c *Config) FlowsDir() (string, error) {
	dir, err := security.Resolve(c.Dir, c.Runtime.Flows)
	if err != nil {
		return "", fmt.Errorf("runtime.flows: %w", err)
	}
	return dir, nil
}

// Addr is the listen address of the HTTP entrypoints.
func (c *Config) Addr() string {
	return ":" + c.Runtime.Port
}

// Plugin returns the raw config of a plugin, never nil.
func (c *Config) Plugin(name string) map[string]any {
	if raw, ok := c.Plugins[name]; ok && raw != nil {
		return raw
	}
	return map[string]any{}
}

func (c *Config) applyDefaults(projectDir string) error {
	for _, target := range []any{&c.Runtime, &c.Log, &c.Telemetry} {
		if err := runtime.ApplyDefaults(target); err != nil {
			return err
		}
	}
	c.Dir = projectDir
	if c.Name == "" {
		c.Name = projectName(projectDir)
	}
	return nil
}

func (c *Config) resolveEnv() error {
	settings := map[string]*string{
		"runtime.port":           &c.Runtime.Port,
		"runtime.flows":          &c.Runtime.Flows,
		"log.level":              &c.Log.Level,
		"log.format":             &c.Log.Format,
		"telemetry.endpoint":     &c.Telemetry.Endpoint,
		"telemetry.service_name": &c.Telemetry.ServiceName,
	}
	for key, s := range settings {
		resolved, err := resolveString(*s)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*s = resolved
	}

	for name, values := range c.Credentials {
		for key, v := range values {
			resolved, err := resolveString(v)
			if err != nil {
				return fmt.Errorf("credentials.%s.%s: %w", name, key, err)
			}
			values[key] = resolved
		}
	}
	for name, raw := range c.Plugins {
		resolved, err := resolveValue(raw)
		if err != nil {
			return fmt.Errorf("plugins.%s: %w", name, err)
		}
		c.Plugins[name], _ = resolved.(map[string]any)
	}
	return nil
}

func projectName(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Base(dir)
}
