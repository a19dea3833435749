package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kafka-ops/trifecta/logging"
	"github.com/kafka-ops/trifecta/probe"
	"github.com/kafka-ops/trifecta/query"
	"github.com/kafka-ops/trifecta/shell"
	"github.com/kafka-ops/trifecta/telemetry"
	"github.com/kafka-ops/trifecta/zk"
)

func main() {
	// Bootstrap logger, used only while loading configuration; replaced by
	// the fully configured logger once cfg.Logger is known.
	bootstrapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create bootstrap logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := newConfig(bootstrapLogger)
	if err != nil {
		bootstrapLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger := logging.NewLogger(cfg.Logger, "trifecta")
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("trifecta exited with an error", zap.Error(err))
	}
}

func run(cfg shell.Config, logger *zap.Logger) error {
	zkClient, err := zk.New(cfg.ZK, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to zookeeper: %w", err)
	}
	defer zkClient.Close()

	metrics := telemetry.NewCollector(zkClient.Connected)
	if err := telemetry.Serve(cfg.Telemetry.ListenAddress, metrics, logger); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	ctx := shell.NewContext(&cfg, logger, zkClient, metrics)
	ctx.Scan.SetSink(metrics)

	coreModule := shell.NewCoreModule()
	probeModule := probe.NewModule(logger)
	if err := ctx.Install(coreModule, probeModule); err != nil {
		return fmt.Errorf("failed to install modules: %w", err)
	}

	planner := query.NewPlanner(ctx.Scan)
	repl := shell.NewREPL(ctx, planner, os.Stdin, os.Stdout)

	return repl.Run(context.Background())
}
