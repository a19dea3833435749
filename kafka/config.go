package kafka

import "fmt"

// Config configures every Kafka connection this process opens: the seed
// broker list used for metadata/leader discovery and the dial options
// (SASL/TLS) shared by every short-lived and persistent client built from it.
type Config struct {
	Brokers  []string `koanf:"brokers"`
	ClientID string   `koanf:"clientId"`
	RackID   string   `koanf:"rackId"`

	TLS  TLSConfig  `koanf:"tls"`
	SASL SASLConfig `koanf:"sasl"`
}

func (c *Config) SetDefaults() {
	c.ClientID = "trifecta"

	c.TLS.SetDefaults()
	c.SASL.SetDefaults()
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("no seed brokers specified, at least one must be configured")
	}

	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("failed to validate TLS config: %w", err)
	}

	if err := c.SASL.Validate(); err != nil {
		return fmt.Errorf("failed to validate SASL config: %w", err)
	}

	return nil
}
