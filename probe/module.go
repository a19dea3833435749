// Package probe implements the kping end-to-end latency probe: it
// produces a canary record to every partition of a topic, then scans for
// it, reporting produce→observe latency per partition.
package probe

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"go.uber.org/zap"

	"github.com/kafka-ops/trifecta/kafka"
	"github.com/kafka-ops/trifecta/scan"
	"github.com/kafka-ops/trifecta/shell"
)

// Module contributes the kping, kstat and ktopics commands. It holds no
// state of its own
// beyond what it needs to reach the shell's Kafka dial config and scan
// engine — both read fresh from the runtime context on every invocation.
type Module struct {
	logger *zap.Logger
}

func NewModule(logger *zap.Logger) *Module {
	return &Module{logger: logger.Named("probe")}
}

func (m *Module) Name() string                    { return "probe" }
func (m *Module) Label() string                   { return "probe" }
func (m *Module) Prompt() string                  { return "probe> " }
func (m *Module) SessionVars() map[string]string  { return nil }
func (m *Module) Shutdown() error                 { return nil }

func (m *Module) Commands() []shell.Command {
	return []shell.Command{
		{
			Name:        "kping",
			Module:      m.Name(),
			PromptAware: true,
			Required:    []shell.Param{{Name: "topic"}},
			Help:        "kping <topic> — produce a canary record to every partition and measure produce-to-observe latency",
			Handler:     m.kping,
		},
		{
			Name:        "kstat",
			Module:      m.Name(),
			PromptAware: true,
			Help:        "kstat — report Kafka cluster connectivity, as zstat does for ZooKeeper",
			Handler:     m.kstat,
		},
		{
			Name:        "ktopics",
			Module:      m.Name(),
			PromptAware: true,
			Help:        "ktopics — list topics via the Kafka admin API, independent of the ZooKeeper topology view",
			Handler:     m.ktopics,
		},
	}
}

// ktopics lists topics straight from Kafka's admin API, a cross-check
// against the ZooKeeper-backed listing zls/ztree give over /brokers/topics
// — useful once a cluster's topic metadata has migrated off ZooKeeper.
func (m *Module) ktopics(ctx context.Context, sh *shell.Context, _ *shell.Args) (interface{}, error) {
	seeds, err := sh.DialSeeds()
	if err != nil {
		return nil, err
	}

	cfg := sh.KafkaConfig()
	cfg.Brokers = seeds

	svc, err := kafka.NewService(cfg, m.logger, nil)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	admin := kadm.NewClient(svc.Client)
	defer admin.Close()

	details, err := admin.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	names := make([]string, 0, len(details))
	for name := range details {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Module) kstat(ctx context.Context, sh *shell.Context, _ *shell.Args) (interface{}, error) {
	seeds, err := sh.DialSeeds()
	if err != nil {
		return nil, err
	}

	cfg := sh.KafkaConfig()
	cfg.Brokers = seeds

	svc, err := kafka.NewService(cfg, m.logger, nil)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	return svc.TestConnection(ctx)
}

// PartitionLatency is the kping result for one partition.
type PartitionLatency struct {
	Partition int32
	Canary    string
	Latency   time.Duration
	Err       error
}

func (m *Module) kping(ctx context.Context, sh *shell.Context, args *shell.Args) (interface{}, error) {
	topic := args.Positional[0]

	seeds, err := sh.DialSeeds()
	if err != nil {
		return nil, err
	}
	partitions, err := sh.ZK.GetBrokerTopicPartitions(topic)
	if err != nil {
		return nil, err
	}
	if len(partitions) == 0 {
		return nil, fmt.Errorf("topic %q has no partitions", topic)
	}

	results := make([]PartitionLatency, 0, len(partitions))
	for _, partition := range partitions {
		results = append(results, m.pingPartition(ctx, sh, seeds, topic, partition))
	}
	return results, nil
}

func (m *Module) pingPartition(ctx context.Context, sh *shell.Context, seeds []string, topic string, partition int32) PartitionLatency {
	tp := kafka.TopicAndPartition{Topic: topic, Partition: partition}
	canary := uuid.NewString()

	pc, err := kafka.NewPartitionConsumer(ctx, sh.KafkaConfig(), m.logger, tp, seeds)
	if err != nil {
		return PartitionLatency{Partition: partition, Canary: canary, Err: err}
	}
	defer pc.Close()

	started := time.Now()
	if err := pc.Produce(ctx, []byte(canary), []byte(canary)); err != nil {
		return PartitionLatency{Partition: partition, Canary: canary, Err: err}
	}

	match, err := sh.Scan.FindOne(ctx, topic, canaryPredicate(canary))
	if err != nil {
		return PartitionLatency{Partition: partition, Canary: canary, Err: err}
	}
	if match == nil {
		return PartitionLatency{Partition: partition, Canary: canary, Err: fmt.Errorf("canary %s was not observed", canary)}
	}

	return PartitionLatency{Partition: partition, Canary: canary, Latency: time.Since(started)}
}

func canaryPredicate(canary string) scan.Predicate {
	return func(value, key []byte) bool {
		return string(value) == canary
	}
}
