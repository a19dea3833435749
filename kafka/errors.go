package kafka

import "fmt"

// Error is the taxonomy of failures the partition consumer returns:
// Transport, Protocol, KafkaCode(n) and LeaderUnavailable.
type Error struct {
	Kind string
	Code int16
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == ErrKindKafkaCode {
		return fmt.Sprintf("%s(%d): %s", e.Kind, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	ErrKindTransport         = "Transport"
	ErrKindProtocol          = "Protocol"
	ErrKindKafkaCode         = "KafkaCode"
	ErrKindLeaderUnavailable = "LeaderUnavailable"
)

func transportErr(cause error) error {
	return &Error{Kind: ErrKindTransport, Msg: cause.Error(), Err: cause}
}

func protocolErr(msg string) error {
	return &Error{Kind: ErrKindProtocol, Msg: msg}
}

func leaderUnavailable(topic string, partition int32) error {
	return &Error{
		Kind: ErrKindLeaderUnavailable,
		Msg:  fmt.Sprintf("no seed broker returned a leader for %s/%d", topic, partition),
	}
}

// kafkaCodeErr translates a wire-level error code using the fixed table
// below. Returns nil for NoError (code 0).
func kafkaCodeErr(code int16) error {
	if code == 0 {
		return nil
	}
	return &Error{Kind: ErrKindKafkaCode, Code: code, Msg: errorCodeName(code)}
}

// errorCodeName maps the documented wire codes to their name; unknown codes
// surface as "Unrecognized Error Code" with the numeric value.
func errorCodeName(code int16) string {
	if name, ok := errorCodeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unrecognized Error Code %d", code)
}

var errorCodeNames = map[int16]string{
	-1: "Unknown",
	0:  "NoError",
	1:  "OffsetOutOfRange",
	2:  "InvalidMessage",
	3:  "UnknownTopicOrPartition",
	4:  "InvalidFetchSize",
	5:  "LeaderNotAvailable",
	6:  "NotLeaderForPartition",
	7:  "RequestTimedOut",
	8:  "BrokerNotAvailable",
	9:  "ReplicaNotAvailable",
	10: "MessageSizeTooLarge",
	11: "StaleControllerEpoch",
	12: "OffsetMetadataTooLarge",
	13: "StaleLeaderEpoch",
}
