package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config file locations.
const (
	GlobalConfigDir   = "stagegraph"  // under $XDG_CONFIG_HOME or ~/.config
	GlobalConfigFile  = "config.yaml" // global file name
	ProjectConfigDir  = ".stagegraph" // relative to the working directory
	ProjectConfigFile = "config.yaml" // project file name
)

// configKey is the viper key holding an explicit --config path.
const configKey = "config"

// layer is one config file merged over the defaults. Optional layers are
// skipped when the file does not exist.
type layer struct {
	name     string
	path     string
	required bool
}

// LoadConfig loads configuration from files and viper settings.
// Precedence (later overrides earlier):
//  1. Default() values
//  2. ~/.config/stagegraph/config.yaml (global)
//  3. .stagegraph/config.yaml (project)
//  4. --config file
//  5. Environment variables (STAGEGRAPH_*)
//  6. CLI flags (already bound to viper)
//
// Environment variables inside tasks.database_url are expanded, enum values
// are case-normalized, and the result is validated.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := Default()

	defaults, err := defaultsMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}

	for _, l := range configLayers(v) {
		if err := mergeLayer(v, l); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configLayers lists the config files in merge order.
func configLayers(v *viper.Viper) []layer {
	layers := []layer{
		{name: "global", path: userConfigFile()},
		{name: "project", path: filepath.Join(ProjectConfigDir, ProjectConfigFile)},
	}
	if explicit := v.GetString(configKey); explicit != "" {
		layers = append(layers, layer{name: "explicit", path: explicit, required: true})
	}
	return layers
}

// mergeLayer reads one YAML layer into a scratch viper and merges its
// settings into v, so that keys it leaves out keep their earlier values.
func mergeLayer(v *viper.Viper, l layer) error {
	if l.path == "" {
		return nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !l.required {
			return nil
		}
		return fmt.Errorf("%s config file: %w", l.name, err)
	}
	defer func() { _ = f.Close() }()

	scratch := viper.New()
	scratch.SetConfigType("yaml")
	if err := scratch.ReadConfig(f); err != nil {
		return fmt.Errorf("read %s config %s: %w", l.name, l.path, err)
	}
	return v.MergeConfigMap(scratch.AllSettings())
}

// userConfigFile returns the global config path, or "" when no home or
// XDG directory can be determined.
func userConfigFile() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, GlobalConfigDir, GlobalConfigFile)
}

// normalize canonicalizes values that users commonly write in either case.
func (c *Config) normalize() {
	c.Tasks.Source = strings.ToLower(strings.TrimSpace(c.Tasks.Source))
	c.Tasks.DatabaseURL = os.ExpandEnv(strings.TrimSpace(c.Tasks.DatabaseURL))
	c.Layout.Direction = strings.ToUpper(strings.TrimSpace(c.Layout.Direction))
	c.Graph.ToggleMode = strings.ToLower(strings.TrimSpace(c.Graph.ToggleMode))
}

// defaultsMap flattens cfg into the nested map viper merges, writing
// durations as strings so they round-trip through the YAML decode hook.
func defaultsMap(cfg *Config) (map[string]any, error) {
	out := make(map[string]any)
	durationType := reflect.TypeOf(time.Duration(0))

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &out,
		DecodeHook: mapstructure.DecodeHookFuncType(func(from, _ reflect.Type, data any) (any, error) {
			if from == durationType {
				return data.(time.Duration).String(), nil
			}
			return data, nil
		}),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return out, nil
}
