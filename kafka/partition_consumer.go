package kafka

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// EarliestTime and LatestTime are the pseudo-timestamps the wire protocol
// uses in a ListOffsetsRequest to mean "the oldest retained offset" and
// "one past the newest produced offset" respectively.
const (
	EarliestTime int64 = -2
	LatestTime   int64 = -1
)

// correlationCounter is a process-wide monotonic counter whose only job is
// to give every low-level request a value unique within this process's
// lifetime for log correlation. franz-go already frames the wire-level
// correlation id itself.
var correlationCounter atomic.Int64

func nextCorrelationID() int64 {
	return correlationCounter.Inc()
}

// TopicAndPartition is the canonical scan unit: a topic name paired with
// one of its partition ids.
type TopicAndPartition struct {
	Topic     string
	Partition int32
}

func (tp TopicAndPartition) String() string {
	return fmt.Sprintf("%s/%d", tp.Topic, tp.Partition)
}

// Broker is a Kafka server endpoint, equal by (Host,Port) when taken from a
// seed list and by ID when taken from broker metadata.
type Broker struct {
	Host string
	Port int32
	ID   int32
}

func (b Broker) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(int(b.Port)))
}

// MessageData is one fetched record plus the partition bounds observed
// alongside it. offset < nextOffset <= lastOffset+1; lastOffset is the high
// watermark seen at fetch time.
type MessageData struct {
	Partition  int32
	Offset     int64
	NextOffset int64
	LastOffset int64
	Key        []byte
	Value      []byte
}

// PartitionConsumer is a low-level client bound to exactly one
// (topic,partition). It talks to the partition's current
// leader only, never through kgo's own cluster-aware consumer group
// machinery — that would silently re-implement the leader discovery and
// failover this type exists to make explicit.
type PartitionConsumer struct {
	cfg    Config
	logger *zap.Logger
	tp     TopicAndPartition

	leader   Broker
	replicas []int32

	client *kgo.Client
}

// NewPartitionConsumer discovers the leader for tp by querying seedBrokers
// in order and opens a persistent client to it. Transport errors while
// probing a seed are swallowed and the next seed is tried. Construction
// fails with LeaderUnavailable if no seed answers or no seed's response
// names a leader for the partition.
func NewPartitionConsumer(ctx context.Context, cfg Config, logger *zap.Logger, tp TopicAndPartition, seedBrokers []string) (*PartitionConsumer, error) {
	log := logger.With(zap.String("topic", tp.Topic), zap.Int32("partition", tp.Partition))

	var leader Broker
	var replicas []int32
	var found bool

	for _, seed := range seedBrokers {
		corrID := nextCorrelationID()
		b, reps, err := probeLeader(ctx, cfg, logger, seed, tp)
		if err != nil {
			log.Debug("seed broker did not yield a leader, trying next seed",
				zap.String("seed", seed), zap.Int64("correlation_id", corrID), zap.Error(err))
			continue
		}
		leader = b
		replicas = reps
		found = true
		break
	}

	if !found {
		return nil, leaderUnavailable(tp.Topic, tp.Partition)
	}

	opts, err := DialOptsForSeeds(cfg, logger, []string{leader.Addr()})
	if err != nil {
		return nil, fmt.Errorf("failed to build dial options for leader %s: %w", leader.Addr(), err)
	}
	// This client only ever talks about tp; route every produced record to
	// its exact partition rather than letting the default partitioner
	// spread them.
	opts = append(opts, kgo.RecordPartitioner(kgo.ManualPartitioner()))
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, transportErr(err)
	}

	log.Debug("opened persistent client to partition leader", zap.String("leader", leader.Addr()))

	return &PartitionConsumer{
		cfg:      cfg,
		logger:   log,
		tp:       tp,
		leader:   leader,
		replicas: replicas,
		client:   client,
	}, nil
}

// probeLeader opens a short-lived client against a single seed broker and
// asks it for tp's leader. It never returns a wrapped *Error for transport
// failures; the caller treats any error as "try the next seed".
func probeLeader(ctx context.Context, cfg Config, logger *zap.Logger, seed string, tp TopicAndPartition) (Broker, []int32, error) {
	opts, err := DialOptsForSeeds(cfg, logger, []string{seed})
	if err != nil {
		return Broker{}, nil, err
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return Broker{}, nil, err
	}
	defer client.Close()

	topicName := tp.Topic
	reqTopic := kmsg.NewMetadataRequestTopic()
	reqTopic.Topic = &topicName
	req := kmsg.NewMetadataRequest()
	req.Topics = []kmsg.MetadataRequestTopic{reqTopic}

	res, err := req.RequestWith(ctx, client)
	if err != nil {
		return Broker{}, nil, errors.Wrap(err, "failed to get metadata")
	}

	return pickLeaderFromMetadata(res, tp)
}

// pickLeaderFromMetadata extracts tp's leader and replica list from a
// metadata response. Split out from probeLeader so the selection logic can
// be exercised without a real broker connection.
func pickLeaderFromMetadata(res *kmsg.MetadataResponse, tp TopicAndPartition) (Broker, []int32, error) {
	brokersByID := make(map[int32]Broker, len(res.Brokers))
	for _, b := range res.Brokers {
		brokersByID[b.NodeID] = Broker{Host: b.Host, Port: b.Port, ID: b.NodeID}
	}

	for _, t := range res.Topics {
		if t.Topic == nil || *t.Topic != tp.Topic {
			continue
		}
		for _, p := range t.Partitions {
			if p.Partition != tp.Partition {
				continue
			}
			if p.Leader < 0 {
				return Broker{}, nil, protocolErr("metadata response names no leader for partition")
			}
			leader, ok := brokersByID[p.Leader]
			if !ok {
				return Broker{}, nil, protocolErr("metadata response leader id not present in broker list")
			}
			return leader, p.Replicas, nil
		}
	}

	return Broker{}, nil, protocolErr("metadata response has no entry for requested partition")
}

// Fetch builds one fetch request enumerating (topic,partition,offset,fetchSize)
// per requested offset and returns the messages in server order. Null key or
// value become an empty byte array.
func (pc *PartitionConsumer) Fetch(ctx context.Context, offsets []int64, fetchSize int32) ([]MessageData, error) {
	if fetchSize <= 0 {
		fetchSize = 1 << 20 // 1 MiB
	}

	req := kmsg.NewFetchRequest()
	req.ReplicaID = -1
	req.MaxWaitMillis = 1000
	req.MinBytes = 1

	for _, offset := range offsets {
		part := kmsg.NewFetchRequestTopicPartition()
		part.Partition = pc.tp.Partition
		part.FetchOffset = offset
		part.PartitionMaxBytes = fetchSize
		part.LogStartOffset = -1
		part.LastFetchedEpoch = -1

		topic := kmsg.NewFetchRequestTopic()
		topic.Topic = pc.tp.Topic
		topic.Partitions = []kmsg.FetchRequestTopicPartition{part}
		req.Topics = append(req.Topics, topic)
	}

	_ = nextCorrelationID()
	res, err := req.RequestWith(ctx, pc.client)
	if err != nil {
		return nil, transportErr(err)
	}

	var out []MessageData
	for _, topic := range res.Topics {
		if topic.Topic != pc.tp.Topic {
			continue
		}
		for _, part := range topic.Partitions {
			if part.Partition != pc.tp.Partition {
				continue
			}
			if err := kafkaCodeErr(part.ErrorCode); err != nil {
				return nil, err
			}
			msgs, err := decodeRecordBatches(pc.tp.Partition, part.HighWatermark, part.RecordBatches)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)
		}
	}

	return out, nil
}

// GetOffsetsBefore returns the sequence of offsets known to the leader at
// or before timeMillis (EarliestTime/LatestTime are the two pseudo-times
// GetFirstOffset/GetLastOffset/GetLatestOffsets build on).
func (pc *PartitionConsumer) GetOffsetsBefore(ctx context.Context, timeMillis int64) ([]int64, error) {
	req := kmsg.NewListOffsetsRequest()
	req.ReplicaID = -1

	part := kmsg.NewListOffsetsRequestTopicPartition()
	part.Partition = pc.tp.Partition
	part.Timestamp = timeMillis
	part.CurrentLeaderEpoch = -1

	topic := kmsg.NewListOffsetsRequestTopic()
	topic.Topic = pc.tp.Topic
	topic.Partitions = []kmsg.ListOffsetsRequestTopicPartition{part}
	req.Topics = []kmsg.ListOffsetsRequestTopic{topic}

	_ = nextCorrelationID()
	res, err := req.RequestWith(ctx, pc.client)
	if err != nil {
		return nil, transportErr(err)
	}

	for _, t := range res.Topics {
		if t.Topic != pc.tp.Topic {
			continue
		}
		for _, p := range t.Partitions {
			if p.Partition != pc.tp.Partition {
				continue
			}
			if err := kafkaCodeErr(p.ErrorCode); err != nil {
				return nil, err
			}
			return []int64{p.Offset}, nil
		}
	}

	return nil, protocolErr("list offsets response has no entry for requested partition")
}

func (pc *PartitionConsumer) GetFirstOffset(ctx context.Context) (int64, error) {
	offsets, err := pc.GetOffsetsBefore(ctx, EarliestTime)
	if err != nil || len(offsets) == 0 {
		return 0, err
	}
	return offsets[0], nil
}

func (pc *PartitionConsumer) GetLastOffset(ctx context.Context) (int64, error) {
	offsets, err := pc.GetOffsetsBefore(ctx, LatestTime)
	if err != nil || len(offsets) == 0 {
		return 0, err
	}
	return offsets[0], nil
}

func (pc *PartitionConsumer) GetLatestOffsets(ctx context.Context) ([]int64, error) {
	return pc.GetOffsetsBefore(ctx, LatestTime)
}

// EarliestOrLatestOffset wraps the leader-side offset-before call; consumerId
// is carried through for log correlation only, matching the legacy API this
// type's contract is lifted from.
func (pc *PartitionConsumer) EarliestOrLatestOffset(ctx context.Context, consumerID string, timeMillis int64) (int64, error) {
	pc.logger.Debug("resolving earliest/latest offset", zap.String("consumer_id", consumerID), zap.Int64("time_millis", timeMillis))
	offsets, err := pc.GetOffsetsBefore(ctx, timeMillis)
	if err != nil || len(offsets) == 0 {
		return 0, err
	}
	return offsets[0], nil
}

// FetchOffset returns the stored offset for the bound (topic,partition)
// under groupID, or ok=false if no offset has been committed.
func (pc *PartitionConsumer) FetchOffset(ctx context.Context, groupID string) (offset int64, ok bool, err error) {
	req := kmsg.NewOffsetFetchRequest()
	req.Group = groupID

	t := kmsg.NewOffsetFetchRequestTopic()
	t.Topic = pc.tp.Topic
	t.Partitions = []int32{pc.tp.Partition}
	req.Topics = []kmsg.OffsetFetchRequestTopic{t}

	_ = nextCorrelationID()
	res, err := req.RequestWith(ctx, pc.client)
	if err != nil {
		return 0, false, transportErr(err)
	}

	for _, topic := range res.Topics {
		if topic.Topic != pc.tp.Topic {
			continue
		}
		for _, p := range topic.Partitions {
			if p.Partition != pc.tp.Partition {
				continue
			}
			if err := kafkaCodeErr(p.ErrorCode); err != nil {
				return 0, false, err
			}
			if p.Offset < 0 {
				return 0, false, nil
			}
			return p.Offset, true, nil
		}
	}

	return 0, false, nil
}

// CommitOffsets submits a commit for the bound (topic,partition) under
// groupID. A non-zero status in the response fails with KafkaCode.
func (pc *PartitionConsumer) CommitOffsets(ctx context.Context, groupID string, offset int64, metadata string) error {
	req := kmsg.NewOffsetCommitRequest()
	req.Group = groupID

	part := kmsg.NewOffsetCommitRequestTopicPartition()
	part.Partition = pc.tp.Partition
	part.Offset = offset
	part.Metadata = &metadata

	t := kmsg.NewOffsetCommitRequestTopic()
	t.Topic = pc.tp.Topic
	t.Partitions = []kmsg.OffsetCommitRequestTopicPartition{part}
	req.Topics = []kmsg.OffsetCommitRequestTopic{t}

	_ = nextCorrelationID()
	res, err := req.RequestWith(ctx, pc.client)
	if err != nil {
		return transportErr(err)
	}

	for _, topic := range res.Topics {
		if topic.Topic != pc.tp.Topic {
			continue
		}
		for _, p := range topic.Partitions {
			if p.Partition != pc.tp.Partition {
				continue
			}
			if err := kafkaCodeErr(p.ErrorCode); err != nil {
				return err
			}
		}
	}

	return nil
}

// Close closes the persistent client. Idempotent; swallows transport errors.
func (pc *PartitionConsumer) Close() {
	if pc.client == nil {
		return
	}
	pc.client.Close()
}

// Produce writes one record carrying key/value to this consumer's
// partition, via its already-open leader client. Used by the probe module
// to place a canary record without opening a second client stack.
func (pc *PartitionConsumer) Produce(ctx context.Context, key, value []byte) error {
	record := &kgo.Record{Topic: pc.tp.Topic, Partition: pc.tp.Partition, Key: key, Value: value}
	res := pc.client.ProduceSync(ctx, record)
	if err := res.FirstErr(); err != nil {
		return transportErr(err)
	}
	return nil
}
