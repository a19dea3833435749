package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/kafka-ops/trifecta/scan"
)

// Row is one projected result of a query.
type Row struct {
	Partition int32
	Offset    int64
	Fields    map[string]string
}

// Planner compiles a Query's where tree to a scan.Predicate, resolves the
// named decoder (if any), and invokes the scan engine's findMany. The
// projection is applied to the decoded fields after matching.
type Planner struct {
	engine   *scan.Engine
	decoders map[string]Decoder
}

func NewPlanner(engine *scan.Engine) *Planner {
	return &Planner{engine: engine, decoders: map[string]Decoder{}}
}

// RegisterDecoder makes a named Avro/record decoder available to queries
// that project fields beyond "key"/"value".
func (p *Planner) RegisterDecoder(name string, d Decoder) {
	p.decoders[name] = d
}

func (p *Planner) decoderFor(name string) Decoder {
	if name == "" {
		return NoopDecoder
	}
	if d, ok := p.decoders[name]; ok {
		return d
	}
	return NoopDecoder
}

// Run executes q against the scan engine and returns the projected rows.
func (p *Planner) Run(ctx context.Context, q *Query, decoderName string) ([]Row, error) {
	predicate, err := compilePredicate(q.Where)
	if err != nil {
		return nil, err
	}

	restrictions := scan.Restrictions{GroupID: q.With.GroupID, Delta: q.With.Delta}
	matches, err := p.engine.FindMany(ctx, q.Topic, predicate, restrictions, q.Limit, nil, nil)
	if err != nil {
		return nil, err
	}

	decoder := p.decoderFor(decoderName)
	rows := make([]Row, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, project(m, q.Fields, decoder))
	}
	return rows, nil
}

func project(m scan.Match, fields []string, decoder Decoder) Row {
	decoded, _ := decoder.Decode(m.Value)

	all := map[string]string{
		"key":   string(m.Key),
		"value": string(m.Value),
	}
	for k, v := range decoded {
		all[k] = v
	}

	if len(fields) == 0 {
		return Row{Partition: m.Partition, Offset: m.Offset, Fields: all}
	}

	projected := make(map[string]string, len(fields))
	for _, f := range fields {
		projected[f] = all[f]
	}
	return Row{Partition: m.Partition, Offset: m.Offset, Fields: projected}
}

// compilePredicate turns a where-clause tree into a scan.Predicate.
// Comparisons operate on "key"/"value"; any other field name fails to
// compile since no decoder runs ahead of the scan — decoding only happens
// on messages that already matched.
func compilePredicate(e Expr) (scan.Predicate, error) {
	if e == nil {
		return func(value, key []byte) bool { return true }, nil
	}

	switch node := e.(type) {
	case Comparison:
		return compileComparison(node)
	case And:
		preds := make([]scan.Predicate, 0, len(node.Children))
		for _, child := range node.Children {
			p, err := compilePredicate(child)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		return scan.All(preds), nil
	default:
		return nil, fmt.Errorf("unsupported where-clause node %T", e)
	}
}

func compileComparison(c Comparison) (scan.Predicate, error) {
	var selector func(value, key []byte) []byte
	switch strings.ToLower(c.Field) {
	case "key":
		selector = func(value, key []byte) []byte { return key }
	case "value":
		selector = func(value, key []byte) []byte { return value }
	default:
		return nil, &Error{Kind: ErrKindSyntax, Msg: "unknown field '" + c.Field + "' in where clause"}
	}

	switch c.Op {
	case "=":
		return func(value, key []byte) bool { return string(selector(value, key)) == c.Value }, nil
	case "!=":
		return func(value, key []byte) bool { return string(selector(value, key)) != c.Value }, nil
	case "contains":
		return func(value, key []byte) bool { return strings.Contains(string(selector(value, key)), c.Value) }, nil
	default:
		return nil, &Error{Kind: ErrKindSyntax, Msg: "unsupported operator '" + c.Op + "'"}
	}
}
