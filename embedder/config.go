package embedder

import (
	"encoding/json"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/pelletier/go-toml/v2"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/errors"
)

var validate = validator.New()

// Config is the host configuration, normally read from a TOML file.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Log      LogConfig      `toml:"log"`
	Plugins  PluginsConfig  `toml:"plugins"`
}

// EngineConfig locates the engine library and the application bundle.
type EngineConfig struct {
	// Library is the engine shared library; empty uses the default search.
	Library     string   `toml:"library"`
	AssetsPath  string   `toml:"assets_path"`
	ICUDataPath string   `toml:"icu_data_path"`
	Args        []string `toml:"args"`
}

// DispatchConfig sizes the handler worker pool and channel inboxes.
type DispatchConfig struct {
	Workers        int  `toml:"workers" validate:"gte=1,lte=1024" jsonschema:"minimum=1,maximum=1024,default=8"`
	InboxCapacity  int  `toml:"inbox_capacity" validate:"gte=1,lte=65536" jsonschema:"minimum=1,maximum=65536,default=256"`
	StrictChannels bool `toml:"strict_channels" jsonschema:"default=true"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `toml:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Development bool   `toml:"development"`
}

// PluginsConfig lists built-in plugins to leave out.
type PluginsConfig struct {
	Disable []string `toml:"disable" validate:"dive,oneof=textinput navigation platform" jsonschema:"enum=textinput,enum=navigation,enum=platform"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Dispatch: DispatchConfig{
			Workers:        channel.DefaultWorkers,
			InboxCapacity:  channel.DefaultInboxCapacity,
			StrictChannels: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ParseConfig decodes TOML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Config("parse toml", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a TOML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Config("read "+path, err)
	}
	return ParseConfig(data)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Config("validate", err)
	}
	return nil
}

// Disabled reports whether the named built-in plugin is turned off.
func (c Config) Disabled(name string) bool {
	return slices.Contains(c.Plugins.Disable, name)
}

// ConfigSchema returns the JSON Schema of the TOML configuration, for
// editor completion and external validation.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		FieldNameTag:   "toml",
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "flutter-host configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errors.Config("marshal schema", err)
	}
	return data, nil
}
