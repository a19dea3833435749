package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/kafka-ops/trifecta/shell"
)

const envPrefix = "TRIFECTA_"

func newConfig(logger *zap.Logger) (shell.Config, error) {
	k := koanf.New(".")
	var cfg shell.Config
	cfg.SetDefaults()

	// 1. Check if a config filepath is set via an env var. If there is one
	// we'll try to load the file using a YAML parser.
	envKey := "CONFIG_FILEPATH"
	configFilepath := os.Getenv(envKey)
	if configFilepath == "" {
		logger.Info("the env variable '" + envKey + "' is not set, therefore no YAML config will be loaded")
	} else {
		if err := k.Load(file.Provider(configFilepath), yaml.Parser()); err != nil {
			return shell.Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	// We could unmarshal the loaded koanf input after loading both
	// providers, however we want to unmarshal the YAML config with
	// ErrorUnused set to true, but unmarshal environment variables with
	// ErrorUnused set to false. Orchestrators inject unrelated environment
	// variables that we still want to allow.
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc()),
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	})
	if err != nil {
		return shell.Config{}, err
	}

	err = k.Load(env.ProviderWithValue(envPrefix, ".", func(s string, v string) (string, interface{}) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
		if strings.Contains(v, ",") {
			return key, strings.Split(v, ",")
		}
		return key, v
	}), nil)
	if err != nil {
		return shell.Config{}, err
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return shell.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return shell.Config{}, fmt.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}
