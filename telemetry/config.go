package telemetry

// Config configures the metrics endpoint. An empty ListenAddress
// disables it entirely: one-shot CLI invocations never bind a port.
type Config struct {
	ListenAddress string `koanf:"listenAddress"`
}

func (c *Config) SetDefaults() {
	c.ListenAddress = ""
}

func (c *Config) Validate() error {
	return nil
}
