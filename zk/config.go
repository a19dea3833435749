package zk

import (
	"fmt"
	"time"
)

// Config configures the ZooKeeper view.
type Config struct {
	// Servers is the ZooKeeper connection string, one host:port per ensemble
	// member.
	Servers []string `koanf:"servers"`

	// SessionTimeout bounds how long the ensemble waits before expiring this
	// client's session after the TCP connection drops.
	SessionTimeout time.Duration `koanf:"sessionTimeout"`

	// ChrootPath is loaded from configuration but not applied: the Client
	// uses every path exactly as given, with no chroot prefix.
	ChrootPath string `koanf:"chrootPath"`
}

func (c *Config) SetDefaults() {
	c.SessionTimeout = 6 * time.Second
}

func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return fmt.Errorf("no zookeeper servers specified, at least one must be configured")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("sessionTimeout must be positive")
	}
	return nil
}
