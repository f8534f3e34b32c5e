package conversion

import "github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"

// bridge returns the edges between kept vertices. A path that runs through
// dropped vertices is replaced by a direct edge so reachability between
// kept vertices is preserved. Output keeps the order of the source edges
// and holds no duplicates.
func bridge(edges []workflow.Edge, keep func(id string) bool) []workflow.Edge {
	succ := make(map[string][]string)
	for _, e := range edges {
		succ[e.From] = append(succ[e.From], e.To)
	}

	var out []workflow.Edge
	seen := make(map[[2]string]bool)
	emit := func(e workflow.Edge) {
		key := [2]string{e.From, e.To}
		if !seen[key] {
			seen[key] = true
			out = append(out, e)
		}
	}

	for _, e := range edges {
		if !keep(e.From) {
			continue
		}
		if keep(e.To) {
			emit(e)
			continue
		}
		visited := map[string]bool{}
		var walk func(id string)
		walk = func(id string) {
			if visited[id] {
				return
			}
			visited[id] = true
			for _, next := range succ[id] {
				if keep(next) {
					emit(workflow.Edge{From: e.From, FromPort: e.FromPort, To: next})
					continue
				}
				walk(next)
			}
		}
		walk(e.To)
	}
	return out
}

// layers assigns each vertex the length of the longest path reaching it.
// Vertices on a cycle are placed one column after their deepest placed
// predecessor.
func layers(ids []string, edges []workflow.Edge) map[string]int {
	indeg := make(map[string]int, len(ids))
	succ := make(map[string][]string)
	for _, id := range ids {
		indeg[id] = 0
	}
	for _, e := range edges {
		if _, ok := indeg[e.To]; !ok {
			continue
		}
		if _, ok := indeg[e.From]; !ok {
			continue
		}
		succ[e.From] = append(succ[e.From], e.To)
		indeg[e.To]++
	}

	depth := make(map[string]int, len(ids))
	var queue []string
	for _, id := range ids {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range succ[id] {
			if depth[id]+1 > depth[next] {
				depth[next] = depth[id] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return depth
}
