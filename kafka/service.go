package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
	"github.com/twmb/franz-go/pkg/kversion"
	"go.uber.org/zap"
)

type Service struct {
	cfg    Config
	Client *kgo.Client
	logger *zap.Logger
}

func NewService(cfg Config, logger *zap.Logger, opts []kgo.Opt) (*Service, error) {
	kgoOpts, err := NewKgoConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create a valid kafka Client config: %w", err)
	}
	kgoOpts = append(kgoOpts, opts...)

	kafkaClient, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka Client: %w", err)
	}

	return &Service{
		cfg:    cfg,
		Client: kafkaClient,
		logger: logger,
	}, nil
}

// ClusterInfo summarizes the metadata/ApiVersions round trip TestConnection
// performs, for the kstat command's display rather than just its logs.
type ClusterInfo struct {
	BrokerCount  int
	TopicCount   int
	ControllerID int32
	KafkaVersion string
}

// TestConnection fetches Broker metadata and the cluster's ApiVersions to
// guess its Kafka version, used by kstat as a Kafka-side analogue to zstat.
func (s *Service) TestConnection(ctx context.Context) (ClusterInfo, error) {
	s.logger.Info("connecting to Kafka seed brokers, trying to fetch cluster metadata",
		zap.String("seed_brokers", strings.Join(s.cfg.Brokers, ",")))

	req := kmsg.MetadataRequest{
		Topics: nil,
	}
	res, err := req.RequestWith(ctx, s.Client)
	if err != nil {
		return ClusterInfo{}, fmt.Errorf("failed to request metadata: %w", err)
	}

	// Request versions in order to guess Kafka Cluster version
	versionsReq := kmsg.NewApiVersionsRequest()
	versionsRes, err := versionsReq.RequestWith(ctx, s.Client)
	if err != nil {
		return ClusterInfo{}, fmt.Errorf("failed to request api versions: %w", err)
	}
	err = kerr.ErrorForCode(versionsRes.ErrorCode)
	if err != nil {
		return ClusterInfo{}, fmt.Errorf("failed to request api versions. Inner kafka error: %w", err)
	}
	versions := kversion.FromApiVersionsResponse(versionsRes)

	info := ClusterInfo{
		BrokerCount:  len(res.Brokers),
		TopicCount:   len(res.Topics),
		ControllerID: res.ControllerID,
		KafkaVersion: versions.VersionGuess(),
	}

	s.logger.Info("successfully connected to kafka cluster",
		zap.Int("advertised_broker_count", info.BrokerCount),
		zap.Int("topic_count", info.TopicCount),
		zap.Int32("controller_id", info.ControllerID),
		zap.String("kafka_version", info.KafkaVersion))

	return info, nil
}

// Close releases the underlying kgo.Client.
func (s *Service) Close() {
	s.Client.Close()
}
