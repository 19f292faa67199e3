package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasi-http-abi/memory"
	"github.com/wippyai/wasi-http-abi/surface"
)

var validate = validator.New()

// Config is the runner configuration. Flags override file values.
type Config struct {
	Wasm         string     `yaml:"wasm" validate:"required"`
	Func         string     `yaml:"func"`
	MemoryExport string     `yaml:"memoryExport" validate:"required"`
	AllocExport  string     `yaml:"allocExport" validate:"required"`
	HTTP         HTTPConfig `yaml:"http"`
	Log          LogConfig  `yaml:"log"`
}

// HTTPConfig configures the net/http capability surface.
type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxBodySize int64         `yaml:"maxBodySize" validate:"gt=0"`
}

// LogConfig selects the log level and encoding. An empty format picks
// console output on a terminal and JSON otherwise.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

func defaultConfig() Config {
	return Config{
		MemoryExport: memory.DefaultExport,
		AllocExport:  memory.DefaultAllocExport,
		HTTP: HTTPConfig{
			Timeout:     surface.DefaultTimeout,
			MaxBodySize: surface.DefaultMaxBodySize,
		},
		Log: LogConfig{Level: "info"},
	}
}

// loadConfig returns the defaults overlaid with the YAML file at path, if
// any.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validate checks the configuration. Listing bindings needs no module.
func (c *Config) validate(needWasm bool) error {
	var err error
	if needWasm {
		err = validate.Struct(c)
	} else {
		err = validate.StructExcept(c, "Wasm")
	}
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
