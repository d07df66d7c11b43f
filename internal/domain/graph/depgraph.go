package graph

import "sort"

// DependencyGraph is a small directed-graph helper reused by the template
// engine (template dependency cycles) and the DAG compiler (project
// acyclicity + weak connectivity). It intentionally carries no knowledge of
// blocks or ports; callers key nodes by whatever id fits their domain.
type DependencyGraph struct {
	nodes    map[string]struct{}
	outgoing map[string]map[string]struct{}
	incoming map[string]map[string]struct{}
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[string]struct{}),
		outgoing: make(map[string]map[string]struct{}),
		incoming: make(map[string]map[string]struct{}),
	}
}

// AddNode ensures node is present even if it has no edges.
func (g *DependencyGraph) AddNode(node string) {
	if _, ok := g.nodes[node]; ok {
		return
	}
	g.nodes[node] = struct{}{}
	g.outgoing[node] = make(map[string]struct{})
	g.incoming[node] = make(map[string]struct{})
}

// AddEdge records a directed edge from → to (from depends on / precedes to,
// depending on caller convention; this graph is direction-agnostic beyond
// bookkeeping incoming/outgoing sets).
func (g *DependencyGraph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.outgoing[from][to] = struct{}{}
	g.incoming[to][from] = struct{}{}
}

// Nodes returns node ids in deterministic (sorted) order.
func (g *DependencyGraph) Nodes() []string {
	nodes := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// DetectCycle returns the participating nodes of one cycle, or nil if the
// graph is acyclic.
func (g *DependencyGraph) DetectCycle() []string {
	visited := make(map[string]bool, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var path []string
	var cycle []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		targets := make([]string, 0, len(g.outgoing[node]))
		for t := range g.outgoing[node] {
			targets = append(targets, t)
		}
		sort.Strings(targets)

		for _, next := range targets {
			if !visited[next] {
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				idx := len(path) - 1
				for idx >= 0 && path[idx] != next {
					idx--
				}
				if idx >= 0 {
					cycle = append([]string{}, path[idx:]...)
					cycle = append(cycle, next)
				}
				return true
			}
		}

		onStack[node] = false
		path = path[:len(path)-1]
		return false
	}

	for _, node := range g.Nodes() {
		if !visited[node] {
			if dfs(node) {
				break
			}
		}
	}
	return cycle
}

// TopologicalLevels returns nodes grouped by their longest-path depth from a
// root (depth 0 = no incoming edges), using Kahn's algorithm so that ties
// are broken deterministically. The template engine uses the level index to
// assign canvas x-coordinates; returns an error-shaped nil slice when the
// graph contains a cycle (callers must run DetectCycle first).
func (g *DependencyGraph) TopologicalLevels() [][]string {
	inDegree := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		inDegree[n] = len(g.incoming[n])
	}

	var levels [][]string
	remaining := len(g.nodes)
	current := make([]string, 0)
	for n, d := range inDegree {
		if d == 0 {
			current = append(current, n)
		}
	}
	sort.Strings(current)

	for len(current) > 0 {
		levels = append(levels, current)
		remaining -= len(current)
		var next []string
		for _, n := range current {
			targets := make([]string, 0, len(g.outgoing[n]))
			for t := range g.outgoing[n] {
				targets = append(targets, t)
			}
			sort.Strings(targets)
			for _, t := range targets {
				inDegree[t]--
				if inDegree[t] == 0 {
					next = append(next, t)
				}
			}
		}
		sort.Strings(next)
		current = next
	}

	if remaining != 0 {
		return nil
	}
	return levels
}

// WeaklyConnectedComponents partitions nodes into weakly connected
// components (treating all edges as undirected), for the DAG compiler's
// connectivity check.
func (g *DependencyGraph) WeaklyConnectedComponents() [][]string {
	visited := make(map[string]bool, len(g.nodes))
	var components [][]string

	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}
		var component []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			neighbors := make([]string, 0, len(g.outgoing[node])+len(g.incoming[node]))
			for t := range g.outgoing[node] {
				neighbors = append(neighbors, t)
			}
			for t := range g.incoming[node] {
				neighbors = append(neighbors, t)
			}
			sort.Strings(neighbors)
			for _, n := range neighbors {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Strings(component)
		components = append(components, component)
	}
	return components
}
