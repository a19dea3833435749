package shell

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kafka-ops/trifecta/kafka"
	"github.com/kafka-ops/trifecta/logging"
	"github.com/kafka-ops/trifecta/telemetry"
	"github.com/kafka-ops/trifecta/zk"
)

// REPLConfig configures the interactive driver itself, independent of
// any one backend.
type REPLConfig struct {
	HistoryFile string `koanf:"historyFile"`
	DebugOn     bool   `koanf:"debugOn"`
}

func (c *REPLConfig) SetDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.HistoryFile = filepath.Join(home, ".trifecta", "history")
}

func (c *REPLConfig) Validate() error {
	return nil
}

// Config is the composite configuration the runtime context is built
// from: every subsystem's own Config, loaded and validated independently.
type Config struct {
	Kafka     kafka.Config     `koanf:"kafka"`
	ZK        zk.Config        `koanf:"zk"`
	Logger    logging.Config   `koanf:"logger"`
	Telemetry telemetry.Config `koanf:"telemetry"`
	REPL      REPLConfig       `koanf:"repl"`
}

func (c *Config) SetDefaults() {
	c.Kafka.SetDefaults()
	c.ZK.SetDefaults()
	c.Logger.SetDefaults()
	c.Telemetry.SetDefaults()
	c.REPL.SetDefaults()
}

// Validate runs every subsystem's validation, wrapping the first failure
// with the name of the offending subsection.
func (c *Config) Validate() error {
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("failed to validate kafka config: %w", err)
	}
	if err := c.ZK.Validate(); err != nil {
		return fmt.Errorf("failed to validate zk config: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("failed to validate logger config: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("failed to validate telemetry config: %w", err)
	}
	if err := c.REPL.Validate(); err != nil {
		return fmt.Errorf("failed to validate repl config: %w", err)
	}
	return nil
}
