package scan

// Predicate is a pure, side-effect-free, concurrency-safe test of a
// message's value and key.
type Predicate func(value, key []byte) bool

// All AND-combines predicates; an empty list matches every message.
func All(predicates []Predicate) Predicate {
	return func(value, key []byte) bool {
		for _, p := range predicates {
			if !p(value, key) {
				return false
			}
		}
		return true
	}
}

// Restrictions narrows where a scan starts reading from a partition.
type Restrictions struct {
	GroupID string
	Delta   int64
}
