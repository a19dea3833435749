package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kafka-ops/trifecta/kafka"
	"github.com/kafka-ops/trifecta/zk"
)

const defaultFetchSize = 1 << 20 // 1 MiB

// Match is one predicate-matching message surfaced by the engine.
type Match struct {
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Counter tracks progress of a findMany call; Read is bumped as batches
// flow so a caller (e.g. the job manager) can report liveness.
type Counter struct {
	Read atomic.Int64
}

// partitionConsumer is the slice of *kafka.PartitionConsumer the scan loops
// need. Exists so tests can drive the loop logic against a fake instead of
// a real broker connection.
type partitionConsumer interface {
	Fetch(ctx context.Context, offsets []int64, fetchSize int32) ([]kafka.MessageData, error)
	GetFirstOffset(ctx context.Context) (int64, error)
	GetLastOffset(ctx context.Context) (int64, error)
	FetchOffset(ctx context.Context, groupID string) (int64, bool, error)
	Close()
}

// Sink receives the scan engine's activity for telemetry. Both
// methods must be safe to call from multiple partition goroutines at once.
type Sink interface {
	ObserveScanMessages(operation string, n int)
	ObservePartitionError(kind string)
}

type noopSink struct{}

func (noopSink) ObserveScanMessages(string, int) {}
func (noopSink) ObservePartitionError(string)    {}

// Engine fans a scan out across every partition of a topic, one low-level
// partition consumer per partition.
type Engine struct {
	cfg    kafka.Config
	zk     *zk.Client
	logger *zap.Logger
	sink   Sink

	// dial builds the partition consumer for one (topic,partition). Set to
	// a fake in tests; defaults to a real kafka.PartitionConsumer dialed
	// against the brokers ZooKeeper advertises.
	dial func(ctx context.Context, tp kafka.TopicAndPartition) (partitionConsumer, error)
}

func NewEngine(cfg kafka.Config, zkClient *zk.Client, logger *zap.Logger) *Engine {
	e := &Engine{cfg: cfg, zk: zkClient, logger: logger.Named("scan"), sink: noopSink{}}
	e.dial = e.dialReal
	return e
}

// SetSink installs the telemetry sink every scan operation reports
// activity to. Nil restores the no-op default.
func (e *Engine) SetSink(sink Sink) {
	if sink == nil {
		sink = noopSink{}
	}
	e.sink = sink
}

func (e *Engine) observeMessages(operation string, n int) {
	if e.sink == nil || n == 0 {
		return
	}
	e.sink.ObserveScanMessages(operation, n)
}

func (e *Engine) observePartitionError(kind string) {
	if e.sink == nil {
		return
	}
	e.sink.ObservePartitionError(kind)
}

// classifyFetchError maps a partition consumer's error to a metric kind label.
func classifyFetchError(err error) string {
	var kafkaErr *kafka.Error
	if errors.As(err, &kafkaErr) && kafkaErr.Kind == kafka.ErrKindKafkaCode {
		return "kafka_code"
	}
	return "transport"
}

func (e *Engine) seedBrokers() ([]string, error) {
	brokers, err := e.zk.GetBrokerList()
	if err != nil {
		return nil, err
	}
	seeds := make([]string, 0, len(brokers))
	for _, b := range brokers {
		seeds = append(seeds, fmt.Sprintf("%s:%d", b.Host, b.Port))
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no brokers registered under /brokers/ids")
	}
	return seeds, nil
}

func (e *Engine) partitions(topic string) ([]int32, error) {
	return e.zk.GetBrokerTopicPartitions(topic)
}

func (e *Engine) dialReal(ctx context.Context, tp kafka.TopicAndPartition) (partitionConsumer, error) {
	seeds, err := e.seedBrokers()
	if err != nil {
		return nil, err
	}
	return kafka.NewPartitionConsumer(ctx, e.cfg, e.logger, tp, seeds)
}

func (e *Engine) newConsumer(ctx context.Context, tp kafka.TopicAndPartition) (partitionConsumer, error) {
	return e.dial(ctx, tp)
}

// getStartingOffset applies the "starting offset with restrictions" rule:
// start at the group's committed offset (or the first offset), rewind by
// delta, and clamp the result so it never falls below the first offset.
// There is no upper clamp.
func getStartingOffset(ctx context.Context, pc partitionConsumer, restrictions Restrictions) (int64, error) {
	min, err := pc.GetFirstOffset(ctx)
	if err != nil {
		return 0, err
	}
	if min < 0 {
		min = 0
	}

	start := min
	if restrictions.GroupID != "" {
		offset, ok, err := pc.FetchOffset(ctx, restrictions.GroupID)
		if err != nil {
			return 0, err
		}
		if ok {
			start = offset
			if start < 0 {
				start = min
			}
		}
	}

	if restrictions.Delta != 0 {
		start = start - restrictions.Delta
		if start < min {
			start = min
		}
	}

	return start, nil
}

// Count returns the sum over partitions of (lastOffset - firstOffset) at
// scan start, ignoring predicates. lastOffset is the high watermark (one
// past the last message actually present), so this is the true message
// count, not an offset range.
func (e *Engine) Count(ctx context.Context, topic string) (int64, error) {
	partitionIDs, err := e.partitions(topic)
	if err != nil {
		return 0, err
	}
	return e.countOverPartitions(ctx, topic, partitionIDs)
}

// countOverPartitions is Count's core loop, parameterized on an explicit
// partition id list so tests can drive it without a ZooKeeper lookup.
func (e *Engine) countOverPartitions(ctx context.Context, topic string, partitionIDs []int32) (int64, error) {
	var total atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	for _, pid := range partitionIDs {
		pid := pid
		eg.Go(func() error {
			pc, err := e.newConsumer(egCtx, kafka.TopicAndPartition{Topic: topic, Partition: pid})
			if err != nil {
				return err
			}
			defer pc.Close()

			first, err := pc.GetFirstOffset(egCtx)
			if err != nil {
				return err
			}
			last, err := pc.GetLastOffset(egCtx)
			if err != nil {
				return err
			}
			if last > first {
				total.Add(last - first)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	e.observeMessages("count", int(total.Load()))
	return total.Load(), nil
}

// FindOne returns the first match observed across any partition. Both the
// partition loops and the per-batch loop short-circuit once the shared slot
// is set; there is no ordering guarantee across partitions.
func (e *Engine) FindOne(ctx context.Context, topic string, predicate Predicate) (*Match, error) {
	partitionIDs, err := e.partitions(topic)
	if err != nil {
		return nil, err
	}

	var found atomic.Bool
	var mu sync.Mutex
	var result *Match

	eg, egCtx := errgroup.WithContext(ctx)
	for _, pid := range partitionIDs {
		pid := pid
		eg.Go(func() error {
			m, err := e.scanPartitionForFirst(egCtx, kafka.TopicAndPartition{Topic: topic, Partition: pid}, predicate, &found, "find_one")
			if err != nil {
				return err
			}
			if m != nil {
				mu.Lock()
				if result == nil {
					result = m
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindNext is FindOne's single-partition variant.
func (e *Engine) FindNext(ctx context.Context, tp kafka.TopicAndPartition, predicate Predicate) (*Match, error) {
	var found atomic.Bool
	return e.scanPartitionForFirst(ctx, tp, predicate, &found, "find_next")
}

func (e *Engine) scanPartitionForFirst(ctx context.Context, tp kafka.TopicAndPartition, predicate Predicate, found *atomic.Bool, operation string) (*Match, error) {
	pc, err := e.newConsumer(ctx, tp)
	if err != nil {
		return nil, err
	}
	defer pc.Close()

	start, err := getStartingOffset(ctx, pc, Restrictions{})
	if err != nil {
		return nil, err
	}
	end, err := pc.GetLastOffset(ctx)
	if err != nil {
		return nil, err
	}

	for start <= end && ctx.Err() == nil && !found.Load() {
		msgs, err := pc.Fetch(ctx, []int64{start}, defaultFetchSize)
		if err != nil {
			e.observePartitionError(classifyFetchError(err))
			return nil, err
		}
		e.observeMessages(operation, len(msgs))
		if len(msgs) == 0 {
			start++
			continue
		}
		maxOffset := start
		for _, m := range msgs {
			if found.Load() {
				break
			}
			if predicate(m.Value, m.Key) {
				found.Store(true)
				return &Match{Partition: m.Partition, Offset: m.Offset, Key: m.Key, Value: m.Value}, nil
			}
			if m.Offset+1 > maxOffset {
				maxOffset = m.Offset + 1
			}
		}
		start = maxOffset
	}
	return nil, nil
}

// FindMany collects up to limit matches. Each partition accumulates
// locally; the engine concatenates every partition's results, updates
// counter.Read as batches flow, then sorts by partition id (stable) and
// truncates to limit.
func (e *Engine) FindMany(ctx context.Context, topic string, predicate Predicate, restrictions Restrictions, limit int, counter *Counter, cancelled *atomic.Bool) ([]Match, error) {
	partitionIDs, err := e.partitions(topic)
	if err != nil {
		return nil, err
	}
	return e.findManyOverPartitions(ctx, topic, partitionIDs, predicate, restrictions, limit, counter, cancelled)
}

// findManyOverPartitions is FindMany's core loop, parameterized on an
// explicit partition id list so tests can drive it without a ZooKeeper
// lookup.
func (e *Engine) findManyOverPartitions(ctx context.Context, topic string, partitionIDs []int32, predicate Predicate, restrictions Restrictions, limit int, counter *Counter, cancelled *atomic.Bool) ([]Match, error) {
	type partitionResult struct {
		partition int32
		matches   []Match
	}

	results := make([]partitionResult, len(partitionIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, pid := range partitionIDs {
		i, pid := i, pid
		eg.Go(func() error {
			matches, err := e.scanPartitionForMany(egCtx, kafka.TopicAndPartition{Topic: topic, Partition: pid}, predicate, restrictions, counter, cancelled)
			if err != nil {
				return err
			}
			results[i] = partitionResult{partition: pid, matches: matches}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var combined []Match
	for _, r := range results {
		combined = append(combined, r.matches...)
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Partition < combined[j].Partition
	})

	if limit > 0 && len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

func (e *Engine) scanPartitionForMany(ctx context.Context, tp kafka.TopicAndPartition, predicate Predicate, restrictions Restrictions, counter *Counter, cancelled *atomic.Bool) ([]Match, error) {
	pc, err := e.newConsumer(ctx, tp)
	if err != nil {
		return nil, err
	}
	defer pc.Close()

	start, err := getStartingOffset(ctx, pc, restrictions)
	if err != nil {
		return nil, err
	}
	end, err := pc.GetLastOffset(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for start <= end {
		if ctx.Err() != nil || (cancelled != nil && cancelled.Load()) {
			break
		}
		msgs, err := pc.Fetch(ctx, []int64{start}, defaultFetchSize)
		if err != nil {
			e.observePartitionError(classifyFetchError(err))
			return nil, err
		}
		e.observeMessages("find_many", len(msgs))
		if counter != nil {
			counter.Read.Add(int64(len(msgs)))
		}
		if len(msgs) == 0 {
			start++
			continue
		}
		maxOffset := start
		for _, m := range msgs {
			if predicate(m.Value, m.Key) {
				matches = append(matches, Match{Partition: m.Partition, Offset: m.Offset, Key: m.Key, Value: m.Value})
			}
			if m.Offset+1 > maxOffset {
				maxOffset = m.Offset + 1
			}
		}
		start = maxOffset
	}
	return matches, nil
}

// Observe is a fire-and-forget per-message callback across every partition,
// bounded by the high watermark sampled at scan start, refreshed on fetch
// exhaustion (the one exception to "end is sampled once").
func (e *Engine) Observe(ctx context.Context, topic string, sink func(Match), cancelled *atomic.Bool) error {
	partitionIDs, err := e.partitions(topic)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for _, pid := range partitionIDs {
		pid := pid
		eg.Go(func() error {
			return e.observePartition(egCtx, kafka.TopicAndPartition{Topic: topic, Partition: pid}, func(m Match) {
				mu.Lock()
				sink(m)
				mu.Unlock()
			}, cancelled)
		})
	}
	return eg.Wait()
}

func (e *Engine) observePartition(ctx context.Context, tp kafka.TopicAndPartition, sink func(Match), cancelled *atomic.Bool) error {
	pc, err := e.newConsumer(ctx, tp)
	if err != nil {
		return err
	}
	defer pc.Close()

	start, err := getStartingOffset(ctx, pc, Restrictions{})
	if err != nil {
		return err
	}
	end, err := pc.GetLastOffset(ctx)
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil || (cancelled != nil && cancelled.Load()) {
			return nil
		}
		if start > end {
			refreshed, err := pc.GetLastOffset(ctx)
			if err != nil {
				return err
			}
			if refreshed <= end {
				return nil
			}
			end = refreshed
		}

		msgs, err := pc.Fetch(ctx, []int64{start}, defaultFetchSize)
		if err != nil {
			e.observePartitionError(classifyFetchError(err))
			return err
		}
		e.observeMessages("observe", len(msgs))
		if len(msgs) == 0 {
			start++
			continue
		}
		maxOffset := start
		for _, m := range msgs {
			sink(Match{Partition: m.Partition, Offset: m.Offset, Key: m.Key, Value: m.Value})
			if m.Offset+1 > maxOffset {
				maxOffset = m.Offset + 1
			}
		}
		start = maxOffset
	}
}
