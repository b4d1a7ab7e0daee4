// Package config handles talkcad configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/talkcad/internal/face"
)

// Kernel sources.
const (
	SourceBox     = "box"
	SourceTopoBox = "topobox"
	SourceFile    = "file"
)

// Config holds all talkcad settings.
type Config struct {
	Kernel    KernelConfig    `yaml:"kernel"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Archive   ArchiveConfig   `yaml:"archive"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// KernelConfig selects where meshes come from.
type KernelConfig struct {
	Source    string  `yaml:"source"` // box, topobox or file
	Path      string  `yaml:"path"`   // Mesh file for the file source
	Size      float32 `yaml:"size"`
	Divisions int     `yaml:"divisions"`
	Watch     bool    `yaml:"watch"` // Reload the mesh file when it changes
}

// ResolverConfig holds the triangle to face grouping policy.
type ResolverConfig struct {
	Mode             string `yaml:"mode"` // ratio or provenance
	TrianglesPerFace int    `yaml:"triangles_per_face"`
}

// ReasoningConfig holds the AI collaborator settings.
type ReasoningConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ArchiveConfig holds the revision archive settings. An empty path disables it.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	Markdown bool `yaml:"markdown"` // Render reasoning with glamour
	Width    int  `yaml:"width"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Kernel: KernelConfig{
			Source:    SourceBox,
			Size:      10,
			Divisions: 1,
		},
		Resolver: ResolverConfig{
			Mode:             "ratio",
			TrianglesPerFace: 2,
		},
		Reasoning: ReasoningConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
			Timeout:     30 * time.Second,
		},
		UI: UIConfig{
			Markdown: true,
			Width:    80,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Kernel.Source {
	case SourceBox, SourceTopoBox:
	case SourceFile:
		if c.Kernel.Path == "" {
			errs = append(errs, errors.New("kernel.path is required for the file source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown kernel.source %q", c.Kernel.Source))
	}
	if c.Kernel.Divisions < 0 {
		errs = append(errs, fmt.Errorf("kernel.divisions must not be negative, got %d", c.Kernel.Divisions))
	}
	if c.Kernel.Source == SourceBox && c.Resolver.Mode == "provenance" {
		errs = append(errs, errors.New("the box kernel has no provenance, use resolver.mode ratio"))
	}
	if _, err := c.FaceMode(); err != nil {
		errs = append(errs, err)
	}
	if c.Reasoning.Provider != "gemini" {
		errs = append(errs, fmt.Errorf("unknown reasoning.provider %q", c.Reasoning.Provider))
	}
	if c.Reasoning.Timeout < 0 {
		errs = append(errs, errors.New("reasoning.timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// FaceMode builds the resolver mode.
func (c *Config) FaceMode() (face.Mode, error) {
	return face.ParseMode(c.Resolver.Mode, c.Resolver.TrianglesPerFace)
}
