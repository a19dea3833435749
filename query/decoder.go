package query

// Decoder turns a raw record value into named fields for projection and
// where-clause field lookups beyond the built-in "key"/"value". Spec's own
// Non-goals fence off a real schema-registry/Avro implementation; this is
// the seam a later module plugs one into.
type Decoder interface {
	Decode(value []byte) (map[string]string, error)
}

type noopDecoder struct{}

func (noopDecoder) Decode(value []byte) (map[string]string, error) { return nil, nil }

// NoopDecoder never resolves named fields; where-clauses and projections
// in this build are restricted to "key" and "value".
var NoopDecoder Decoder = noopDecoder{}
