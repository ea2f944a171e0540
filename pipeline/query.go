package pipeline

import "github.com/lixenwraith/tickframe/handle"

// Query filters entities by kind. An empty Query matches every kind —
// used by systems whose dispatch mode ignores entity identity entirely
// (MessageQueue systems).
type Query struct {
	kinds map[handle.Kind]bool
}

// NewQuery builds a Query matching any of the given kinds. NewQuery()
// with no arguments matches everything.
func NewQuery(kinds ...handle.Kind) *Query {
	q := &Query{kinds: make(map[handle.Kind]bool, len(kinds))}
	for _, k := range kinds {
		q.kinds[k] = true
	}
	return q
}

// Matches reports whether h's kind passes this query.
func (q *Query) Matches(h handle.Handle) bool {
	if len(q.kinds) == 0 {
		return true
	}
	return q.kinds[h.Kind]
}
