// Package depsort implements the topological ordering used by the
// Reconciliation phase (spec.md §4.J, §7): dependents are ordered after
// their dependencies so positional or derived-state updates apply in a
// safe order. Edges are user-supplied rather than inferred, mirroring
// the adjacency-list dependency graph in
// pumped-fn-pumped-go/graph.go (there: reactive executor dependents;
// here: per-tick reconciliation ordering).
package depsort

// Node is any comparable identity a caller wants ordered: an entity
// handle, a system name, a resource key.
type Node comparable

// Graph supplies the edges Sort orders by. Edge(n) returns the nodes n
// depends on — n must be placed after all of them in the result.
type Graph[N Node] interface {
	Edge(n N) []N
}

// MapGraph is a Graph backed by a plain dependency map, the shape most
// callers already have on hand (entity handle -> the handles it reads
// positional state from this tick).
type MapGraph[N Node] map[N][]N

func (g MapGraph[N]) Edge(n N) []N { return g[n] }

// CycleError reports the member nodes of one cycle detected during Sort.
// Members is not guaranteed to be in cycle order, only to be exactly the
// set of nodes Kahn's algorithm could not retire.
type CycleError[N Node] struct {
	Members []N
}

func (e *CycleError[N]) Error() string {
	return "depsort: cycle detected among dependency graph nodes"
}

// Sort orders nodes so that, for every n in nodes, every node in
// graph.Edge(n) appears before n in the result. It implements Kahn's
// algorithm: nodes with no unresolved dependency are retired into the
// result one layer at a time, decrementing the in-degree of whatever
// depends on them.
//
// Ties within a layer (nodes that become ready in the same pass) are
// broken by their position in the input nodes slice, keeping Sort
// deterministic across runs given the same input order.
//
// On a cycle, Sort returns as much of the result as is ordered (the
// nodes outside the cycle, already in dependency order) along with a
// *CycleError naming the unordered remainder. Per spec.md §4.J/§7, the
// Reconciliation phase reports the cycle and skips its members for this
// tick rather than treating the cycle as fatal.
func Sort[N Node](nodes []N, graph Graph[N]) ([]N, error) {
	index := make(map[N]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	// inDegree[n] counts how many of n's dependencies have not yet been
	// retired. dependents[d] lists the nodes that depend on d, so
	// retiring d can decrement their inDegree.
	inDegree := make(map[N]int, len(nodes))
	dependents := make(map[N][]N, len(nodes))
	for _, n := range nodes {
		deps := graph.Edge(n)
		inDegree[n] = 0
		for _, d := range deps {
			if _, known := index[d]; !known {
				// A dependency outside the input set is already
				// satisfied; it never gets queued or retired.
				continue
			}
			inDegree[n]++
			dependents[d] = append(dependents[d], n)
		}
	}

	ready := make([]N, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	result := make([]N, 0, len(nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		result = append(result, next)

		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = insertByIndex(ready, dep, index)
			}
		}
	}

	if len(result) == len(nodes) {
		return result, nil
	}

	retired := make(map[N]bool, len(result))
	for _, n := range result {
		retired[n] = true
	}
	members := make([]N, 0, len(nodes)-len(result))
	for _, n := range nodes {
		if !retired[n] {
			members = append(members, n)
		}
	}
	return result, &CycleError[N]{Members: members}
}

// insertByIndex inserts n into ready keeping the slice sorted by each
// node's original position in the input, so the ready queue drains in a
// deterministic, input-order-stable sequence.
func insertByIndex[N Node](ready []N, n N, index map[N]int) []N {
	pos := index[n]
	i := 0
	for i < len(ready) && index[ready[i]] < pos {
		i++
	}
	ready = append(ready, n)
	copy(ready[i+1:], ready[i:])
	ready[i] = n
	return ready
}
