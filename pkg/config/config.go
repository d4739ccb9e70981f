// Package config loads pluginkit settings from flags, environment variables
// and config.yaml through viper.
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/jingkaihe/pluginkit/pkg/dirsync"
	"github.com/jingkaihe/pluginkit/pkg/skills"
	"github.com/jingkaihe/pluginkit/pkg/validator"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable viper reads
const EnvPrefix = "PLUGINKIT"

// Config is the full pluginkit configuration
type Config struct {
	LogLevel  string         `mapstructure:"log_level"`
	LogFormat string         `mapstructure:"log_format"`
	Sync      SyncConfig     `mapstructure:"sync"`
	Validate  ValidateConfig `mapstructure:"validate"`
	Tracing   TracingConfig  `mapstructure:"tracing"`
}

// SyncConfig configures the directory synchronizer
type SyncConfig struct {
	Source   string            `mapstructure:"source"`
	Dest     string            `mapstructure:"dest"`
	Mappings []dirsync.Mapping `mapstructure:"-"`
	Debounce time.Duration     `mapstructure:"debounce"`
	Lock     bool              `mapstructure:"lock"`
}

// ValidateConfig configures the skill validator runner
type ValidateConfig struct {
	Root     string        `mapstructure:"root"`
	Sentinel string        `mapstructure:"sentinel"`
	Command  string        `mapstructure:"command"`
	Builtin  bool          `mapstructure:"builtin"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Exclude  []string      `mapstructure:"exclude"`
	Filter   string        `mapstructure:"filter"`
	Format   string        `mapstructure:"format"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Sampler string  `mapstructure:"sampler"`
	Ratio   float64 `mapstructure:"ratio"`
}

// SetDefaults registers every known key on v. Keys must be registered for
// environment variables to be visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "fmt")

	v.SetDefault("sync.source", dirsync.DefaultSourceRoot)
	v.SetDefault("sync.dest", dirsync.DefaultDestRoot)
	v.SetDefault("sync.mappings", dirsync.DefaultMappings)
	v.SetDefault("sync.debounce", dirsync.DefaultDebounce)
	v.SetDefault("sync.lock", true)

	v.SetDefault("validate.root", ".")
	v.SetDefault("validate.sentinel", skills.DefaultSentinel)
	v.SetDefault("validate.command", validator.DefaultCommand)
	v.SetDefault("validate.builtin", false)
	v.SetDefault("validate.timeout", time.Duration(0))
	v.SetDefault("validate.exclude", skills.DefaultExcludes)
	v.SetDefault("validate.filter", "")
	v.SetDefault("validate.format", validator.FormatText)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sampler", "ratio")
	v.SetDefault("tracing.ratio", 1.0)
}

// Init wires environment lookup and the config file search path into v.
// A missing config file is not an error; a malformed one is.
func Init(v *viper.Viper) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.pluginkit")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load decodes the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	mappings, err := DecodeMappings(v.Get("sync.mappings"))
	if err != nil {
		return nil, err
	}
	cfg.Sync.Mappings = mappings

	if cfg.Validate.Format != "" && !validator.ValidFormat(cfg.Validate.Format) {
		return nil, errors.Errorf("unknown report format %q", cfg.Validate.Format)
	}

	return &cfg, nil
}

// DecodeMappings turns a raw mapping table into mappings. It accepts a list of
// {source, destination} objects as written in config.yaml, or the compact
// "commands:command,agents:agent" form used by flags and environment
// variables. An empty table yields DefaultMappings.
func DecodeMappings(raw any) ([]dirsync.Mapping, error) {
	if raw == nil {
		return defaultMappings(), nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return defaultMappings(), nil
	}

	var mappings []dirsync.Mapping
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &mappings,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			stringToMappingHook,
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mapping decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode sync.mappings")
	}

	if len(mappings) == 0 {
		return defaultMappings(), nil
	}
	if err := dirsync.ValidateMappings(mappings); err != nil {
		return nil, err
	}
	return mappings, nil
}

func defaultMappings() []dirsync.Mapping {
	return append([]dirsync.Mapping(nil), dirsync.DefaultMappings...)
}

// stringToMappingHook parses "source:destination"
func stringToMappingHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t != reflect.TypeOf(dirsync.Mapping{}) {
		return data, nil
	}

	s := strings.TrimSpace(data.(string))
	source, destination, ok := strings.Cut(s, ":")
	if !ok {
		return nil, errors.Errorf("invalid mapping %q: expected source:destination", s)
	}
	return dirsync.Mapping{
		Source:      strings.TrimSpace(source),
		Destination: strings.TrimSpace(destination),
	}, nil
}
