package shell

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kafka-ops/trifecta/kafka"
	"github.com/kafka-ops/trifecta/scan"
	"github.com/kafka-ops/trifecta/telemetry"
	"github.com/kafka-ops/trifecta/zk"
)

// Context is the runtime context: it owns the composite Config, the
// logger, the ZK handle, the shared dial options, the module registry, the
// job manager, session variables, and the active-module pointer. Session
// variables and the active module are mutated only from the REPL goroutine;
// command handlers running under the job manager only read them.
type Context struct {
	Config *Config
	Logger *zap.Logger

	ZK       *zk.Client
	Scan     *scan.Engine
	Metrics  *telemetry.Collector

	Jobs *JobManager
	Vars *SessionVars

	ZkCwd string

	registry *Registry
}

// NewContext builds a Context with an empty registry; this two-phase
// construction breaks the context/registry/module reference cycle: modules
// hold no reference to the Context (their handlers receive it on each
// call), and callers call Install to wire them in.
func NewContext(cfg *Config, logger *zap.Logger, zkClient *zk.Client, metrics *telemetry.Collector) *Context {
	return &Context{
		Config:   cfg,
		Logger:   logger,
		ZK:       zkClient,
		Scan:     scan.NewEngine(cfg.Kafka, zkClient, logger),
		Metrics:  metrics,
		Jobs:     NewJobManager(),
		Vars:     newSessionVars(),
		ZkCwd:    "/",
		registry: newRegistry(),
	}
}

// Install finishes construction by merging each module's commands into the
// registry and activating the first one installed, if none is active yet.
func (c *Context) Install(modules ...Module) error {
	if err := c.registry.Install(modules...); err != nil {
		return err
	}
	if c.registry.Active() == nil && len(modules) > 0 {
		c.registry.SetActiveModule(modules[0])
	}
	return nil
}

func (c *Context) Lookup(name string) (Command, bool) {
	return c.registry.Lookup(name)
}

func (c *Context) ActiveModule() Module {
	return c.registry.Active()
}

func (c *Context) SetActiveModule(m Module) {
	c.registry.SetActiveModule(m)
}

func (c *Context) MaybeAutoSwitch(cmd Command) {
	c.registry.MaybeAutoSwitch(cmd)
}

// Prompt returns the active module's prompt, or a bare default before any
// module has been installed.
func (c *Context) Prompt() string {
	if m := c.registry.Active(); m != nil {
		return m.Prompt()
	}
	return "trifecta> "
}

// ResolveZk resolves a possibly-relative ZooKeeper key against ZkCwd.
func (c *Context) ResolveZk(key string) string {
	return zk.ResolvePath(c.ZkCwd, key)
}

// DialSeeds returns the current broker seed list, read fresh from
// ZooKeeper on every call since brokers can come and go between commands.
func (c *Context) DialSeeds() ([]string, error) {
	brokers, err := c.ZK.GetBrokerList()
	if err != nil {
		return nil, err
	}
	seeds := make([]string, 0, len(brokers))
	for _, b := range brokers {
		seeds = append(seeds, fmt.Sprintf("%s:%d", b.Host, b.Port))
	}
	return seeds, nil
}

// KafkaConfig exposes the Kafka dial config modules need to build their own
// kafka.PartitionConsumers (e.g. the probe module's produce-mode client).
func (c *Context) KafkaConfig() kafka.Config {
	return c.Config.Kafka
}
