// Package config loads runner configuration from a file with sane defaults.
package config

import (
	"github.com/spf13/viper"
)

// RunnerConfig configures the zaw-run host process.
type RunnerConfig struct {
	ModulePath string        `mapstructure:"module_path"`
	LogLevel   string        `mapstructure:"log_level"`
	Channel    ChannelConfig `mapstructure:"channel"`
	Engine     EngineConfig  `mapstructure:"engine"`
}

// ChannelConfig holds the boundary protocol sizes.
type ChannelConfig struct {
	// Channel capacities requested from the module, in bytes.
	InputSize  int32 `mapstructure:"input_size"`
	OutputSize int32 `mapstructure:"output_size"`
	// Side-channel buffer capacities; must match the module's.
	MaxLogSize   uint32 `mapstructure:"max_log_size"`
	MaxErrorSize uint32 `mapstructure:"max_error_size"`
	// Memory floor in pages at bootstrap.
	InitialPages uint32 `mapstructure:"initial_pages"`
}

// EngineConfig holds Wasm runtime configuration.
type EngineConfig struct {
	// Memory limit per instance (in pages, 64KB each). 0 = engine default.
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
}

// LoadRunnerConfig reads configPath (any format viper understands) on top of
// defaults. An empty path loads defaults only.
func LoadRunnerConfig(configPath string) (*RunnerConfig, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("channel.input_size", 4096)
	v.SetDefault("channel.output_size", 4096)
	v.SetDefault("channel.max_log_size", 2048)
	v.SetDefault("channel.max_error_size", 2048)
	v.SetDefault("channel.initial_pages", 0)
	v.SetDefault("engine.memory_limit_pages", 0)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg RunnerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
