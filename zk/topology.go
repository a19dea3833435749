package zk

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Broker is a Kafka server endpoint as advertised under /brokers/ids.
type Broker struct {
	ID   int32
	Host string
	Port int
}

type brokerRegistration struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

const brokerListCacheKey = "broker-list"

// GetBrokerList returns every broker registered under /brokers/ids, cached
// for topologyCacheTTL so a single scan's partition fan-out doesn't re-walk
// the tree once per partition consumer it dials.
func (c *Client) GetBrokerList() ([]Broker, error) {
	if cached, err := c.topology.Get(brokerListCacheKey); err == nil {
		return cached.([]Broker), nil
	}

	ids, err := c.GetChildren("/brokers/ids")
	if err != nil {
		return nil, fmt.Errorf("failed to list broker ids: %w", err)
	}

	brokers := make([]Broker, 0, len(ids))
	for _, idStr := range ids {
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			continue
		}
		data, err := c.Read("/brokers/ids/" + idStr)
		if err != nil {
			continue
		}
		var reg brokerRegistration
		if err := json.Unmarshal(data, &reg); err != nil {
			continue
		}
		brokers = append(brokers, Broker{ID: int32(id), Host: reg.Host, Port: reg.Port})
	}

	c.topology.Set(brokerListCacheKey, brokers)
	return brokers, nil
}

const consumerOffsetsTopic = "__consumer_offsets"

// GetBrokerTopicNames returns every topic registered under /brokers/topics,
// excluding the internal consumer-offsets topic.
func (c *Client) GetBrokerTopicNames() ([]string, error) {
	names, err := c.GetChildren("/brokers/topics")
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == consumerOffsetsTopic {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// GetBrokerTopicPartitions returns the sorted partition ids of topic, cached
// for topologyCacheTTL like GetBrokerList.
func (c *Client) GetBrokerTopicPartitions(topic string) ([]int32, error) {
	cacheKey := "topic-partitions:" + topic
	if cached, err := c.topology.Get(cacheKey); err == nil {
		return cached.([]int32), nil
	}

	names, err := c.GetChildren("/brokers/topics/" + topic + "/partitions")
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions for topic %q: %w", topic, err)
	}

	ids := make([]int32, 0, len(names))
	for _, name := range names {
		id, err := strconv.ParseInt(name, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, int32(id))
	}
	sortInt32s(ids)

	c.topology.Set(cacheKey, ids)
	return ids, nil
}

func sortInt32s(ids []int32) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// PartitionState is the decoded contents of
// /brokers/topics/<topic>/partitions/<n>/state.
type PartitionState struct {
	Leader  int32   `json:"leader"`
	ISR     []int32 `json:"isr"`
	Version int     `json:"version"`
}

type partitionStateWire struct {
	Version int     `json:"version"`
	Leader  int32   `json:"leader"`
	ISR     []int32 `json:"isr"`
}

// GetPartitionState reads and decodes the partition state node for
// (topic, partition).
func (c *Client) GetPartitionState(topic string, partition int32) (PartitionState, error) {
	path := fmt.Sprintf("/brokers/topics/%s/partitions/%d/state", topic, partition)
	data, err := c.Read(path)
	if err != nil {
		return PartitionState{}, err
	}

	var wire partitionStateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return PartitionState{}, fmt.Errorf("failed to decode partition state at %s: %w", path, err)
	}
	return PartitionState{Leader: wire.Leader, ISR: wire.ISR, Version: wire.Version}, nil
}

// GetConsumerOwners returns, best-effort, the owning consumer id for each
// partition of topic under a consumer group. A missing owners tree yields
// an empty map rather than an error.
func (c *Client) GetConsumerOwners(group, topic string) (map[int32]string, error) {
	path := fmt.Sprintf("/consumers/%s/owners/%s", group, topic)
	names, err := c.GetChildren(path)
	if err != nil {
		if zkErr, ok := err.(*Error); ok && zkErr.Kind == ErrKindNotFound {
			return map[int32]string{}, nil
		}
		return nil, err
	}

	owners := make(map[int32]string, len(names))
	for _, name := range names {
		id, err := strconv.ParseInt(name, 10, 32)
		if err != nil {
			continue
		}
		data, err := c.Read(path + "/" + name)
		if err != nil {
			continue
		}
		owners[int32(id)] = string(data)
	}
	return owners, nil
}

// ConsumerThread describes the subscription metadata stored under
// /consumers/<group>/ids/<consumerId>.
type ConsumerThread struct {
	ConsumerID   string
	Version      int      `json:"version"`
	Subscription map[string]int `json:"subscription"`
	Timestamp    int64    `json:"timestamp"`
}

// GetConsumerThreads returns, best-effort, every registered consumer thread
// for group. A missing ids tree yields an empty slice.
func (c *Client) GetConsumerThreads(group string) ([]ConsumerThread, error) {
	path := fmt.Sprintf("/consumers/%s/ids", group)
	names, err := c.GetChildren(path)
	if err != nil {
		if zkErr, ok := err.(*Error); ok && zkErr.Kind == ErrKindNotFound {
			return []ConsumerThread{}, nil
		}
		return nil, err
	}

	threads := make([]ConsumerThread, 0, len(names))
	for _, name := range names {
		data, err := c.Read(path + "/" + name)
		if err != nil {
			continue
		}
		var thread ConsumerThread
		if err := json.Unmarshal(data, &thread); err != nil {
			continue
		}
		thread.ConsumerID = name
		threads = append(threads, thread)
	}
	return threads, nil
}

// ConsumerOffset mirrors the ConsumerOffset data-model entity for the
// Zookeeper-style offset storage layout:
// /consumers/<group>/offsets/<topic>/<partition>.
type ConsumerOffset struct {
	Group     string
	Topic     string
	Partition int32
	Offset    int64
}

// GetConsumerDetails returns every Zookeeper-stored offset for group.
func (c *Client) GetConsumerDetails(group string) ([]ConsumerOffset, error) {
	topics, err := c.GetChildren(fmt.Sprintf("/consumers/%s/offsets", group))
	if err != nil {
		if zkErr, ok := err.(*Error); ok && zkErr.Kind == ErrKindNotFound {
			return []ConsumerOffset{}, nil
		}
		return nil, err
	}

	var out []ConsumerOffset
	for _, topic := range topics {
		partitionPath := fmt.Sprintf("/consumers/%s/offsets/%s", group, topic)
		partitions, err := c.GetChildren(partitionPath)
		if err != nil {
			continue
		}
		for _, partitionStr := range partitions {
			partitionID, err := strconv.ParseInt(partitionStr, 10, 32)
			if err != nil {
				continue
			}
			data, err := c.Read(partitionPath + "/" + partitionStr)
			if err != nil {
				continue
			}
			offset, err := strconv.ParseInt(string(data), 10, 64)
			if err != nil {
				continue
			}
			out = append(out, ConsumerOffset{
				Group:     group,
				Topic:     topic,
				Partition: int32(partitionID),
				Offset:    offset,
			})
		}
	}
	return out, nil
}

// StormPartitionOffset is a single partition's state under a Storm
// Partition-Manager root.
type StormPartitionOffset struct {
	Topic     string
	Partition int32
	Offset    int64
}

type stormPartitionManagerState struct {
	Topology struct {
		ID string `json:"id"`
	} `json:"topology"`
	Offset    int64 `json:"offset"`
	Partition struct {
		Topic string `json:"topic"`
		Index int32  `json:"partition"`
	} `json:"partition"`
}

// GetConsumersForStorm walks a configured Storm Partition-Manager root and
// decodes every partition state node beneath it.
func (c *Client) GetConsumersForStorm(root string) ([]StormPartitionOffset, error) {
	topologies, err := c.GetChildren(root)
	if err != nil {
		if zkErr, ok := err.(*Error); ok && zkErr.Kind == ErrKindNotFound {
			return []StormPartitionOffset{}, nil
		}
		return nil, err
	}

	var out []StormPartitionOffset
	for _, topology := range topologies {
		partitionPath := root + "/" + topology
		partitionNodes, err := c.GetChildren(partitionPath)
		if err != nil {
			continue
		}
		for _, node := range partitionNodes {
			data, err := c.Read(partitionPath + "/" + node)
			if err != nil {
				continue
			}
			var state stormPartitionManagerState
			if err := json.Unmarshal(data, &state); err != nil {
				continue
			}
			out = append(out, StormPartitionOffset{
				Topic:     state.Partition.Topic,
				Partition: state.Partition.Index,
				Offset:    state.Offset,
			})
		}
	}
	return out, nil
}
