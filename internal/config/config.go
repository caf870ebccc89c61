// Package config loads dartfront configuration from file, environment,
// and CLI flags. Precedence, highest to lowest: flags > env vars >
// config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultCoreLibrary = "dart:core"
	DefaultFormat      = "table"

	envPrefix = "DARTFRONT_"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"dartfront.yaml", "dartfront.yml"}

// SDKConfig describes the target platform.
type SDKConfig struct {
	// CoreLibrary is the implicitly imported core library URI. Empty
	// disables the implicit import.
	CoreLibrary string `koanf:"core_library"`

	// Libraries maps dart: library names to outline paths. An empty
	// path declares the library unsupported.
	Libraries map[string]string `koanf:"libraries"`

	StrongMode           bool `koanf:"strong_mode"`
	DisableTypeInference bool `koanf:"disable_type_inference"`
}

// Supported derives the platform support map: a library is supported
// when it maps to a non-empty outline path.
func (s SDKConfig) Supported() map[string]bool {
	out := make(map[string]bool, len(s.Libraries))
	for name, path := range s.Libraries {
		out[name] = path != ""
	}
	return out
}

// Config is the full dartfront configuration.
type Config struct {
	SDK     SDKConfig `koanf:"sdk"`
	Format  string    `koanf:"format"`
	Verbose bool      `koanf:"verbose"`

	// ProjectRoot anchors relative library paths. Derived, not loaded.
	ProjectRoot string `koanf:"-"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// Load reads configuration. cfgFile may name an explicit config file;
// flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"sdk.core_library": DefaultCoreLibrary,
		"sdk.strong_mode":  true,
		"format":           DefaultFormat,
		"verbose":          false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		// DARTFRONT_SDK__STRONG_MODE -> sdk.strong_mode
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "strong_mode", "core_library", "disable_type_inference":
				key = "sdk." + key
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used
	if used != "" {
		abs, err := filepath.Abs(used)
		if err == nil {
			cfg.ProjectRoot = filepath.Dir(abs)
		}
	}
	if cfg.ProjectRoot == "" {
		cwd, _ := os.Getwd()
		if cwd == "" {
			cwd = "."
		}
		cfg.ProjectRoot = cwd
	}
	return &cfg, nil
}

// findConfigFile finds the config file to use.
// Priority: explicit path > dartfront.yaml upward from CWD.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := cwd
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
