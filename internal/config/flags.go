package config

import (
	"strings"

	"github.com/spf13/pflag"
)

// Flags holds command-line overrides. Zero values mean "not set".
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	Kernel     string
	Mode       string
	APIKey     string
}

// Bind registers the flags on fs.
func (f *Flags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file")
	fs.StringVar(&f.Kernel, "kernel", "", "Mesh source: box, topobox or a path to a mesh JSON file")
	fs.StringVar(&f.Mode, "mode", "", "Face resolver mode: ratio or provenance")
	fs.StringVar(&f.APIKey, "api-key", "", "Gemini API key (defaults to $GEMINI_API_KEY)")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	switch k := f.Kernel; {
	case k == "":
	case k == SourceBox || k == SourceTopoBox:
		cfg.Kernel.Source = k
	case strings.HasPrefix(k, SourceFile+":"):
		cfg.Kernel.Source = SourceFile
		cfg.Kernel.Path = strings.TrimPrefix(k, SourceFile+":")
	default:
		cfg.Kernel.Source = SourceFile
		cfg.Kernel.Path = k
	}
	if f.Mode != "" {
		cfg.Resolver.Mode = f.Mode
	}
	if f.APIKey != "" {
		cfg.Reasoning.APIKey = f.APIKey
	}
}
