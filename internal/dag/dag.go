// Package dag provides directed acyclic graph operations for rule dependencies.
// It supports cycle detection and transitive closure queries in both directions.
package dag

import (
	"fmt"
	"sort"
)

// Graph represents a directed acyclic graph of rule names.
// An edge from A to B means B requires A.
type Graph struct {
	nodes   map[string]bool
	edges   map[string][]string // requirement -> dependents
	parents map[string][]string // dependent -> requirements
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]bool),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(id string) {
	if !g.nodes[id] {
		g.nodes[id] = true
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	}
}

// AddEdge records that dependent requires requirement.
func (g *Graph) AddEdge(requirement, dependent string) error {
	if !g.nodes[requirement] {
		return fmt.Errorf("node %q does not exist", requirement)
	}
	if !g.nodes[dependent] {
		return fmt.Errorf("node %q does not exist", dependent)
	}
	if requirement == dependent {
		return fmt.Errorf("self-loop detected: %s", requirement)
	}

	// Avoid duplicates
	if !contains(g.edges[requirement], dependent) {
		g.edges[requirement] = append(g.edges[requirement], dependent)
	}
	if !contains(g.parents[dependent], requirement) {
		g.parents[dependent] = append(g.parents[dependent], requirement)
	}

	return nil
}

// Has reports whether the node exists.
func (g *Graph) Has(id string) bool {
	return g.nodes[id]
}

// Requirements returns the direct requirements of a node.
func (g *Graph) Requirements(id string) []string {
	return g.parents[id]
}

// Dependents returns the direct dependents of a node.
func (g *Graph) Dependents(id string) []string {
	return g.edges[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, deps := range g.edges {
		count += len(deps)
	}
	return count
}

// Closure returns the node plus everything it transitively requires,
// sorted lexicographically.
func (g *Graph) Closure(id string) []string {
	return g.reach(id, g.parents)
}

// DependentClosure returns the node plus everything that transitively
// requires it, sorted lexicographically.
func (g *Graph) DependentClosure(id string) []string {
	return g.reach(id, g.edges)
}

func (g *Graph) reach(id string, adjacency map[string][]string) []string {
	if !g.nodes[id] {
		return nil
	}

	seen := make(map[string]bool)
	var visit func(curr string)
	visit = func(curr string) {
		if seen[curr] {
			return
		}
		seen[curr] = true
		for _, next := range adjacency[curr] {
			visit(next)
		}
	}
	visit(id)

	result := make([]string, 0, len(seen))
	for node := range seen {
		result = append(result, node)
	}
	sort.Strings(result)
	return result
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string) // Track the path for error reporting

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, next := range g.edges[id] {
			if !visited[next] {
				path[next] = id
				if dfs(next) {
					return true
				}
			} else if recStack[next] {
				// Found cycle, reconstruct path
				cyclePath = []string{next}
				for curr := id; curr != next; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{next}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	// Visit in sorted order so the reported cycle is stable
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns node IDs in dependency order (requirements before
// dependents). Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		for _, req := range g.parents[id] {
			visit(req)
		}

		result = append(result, id)
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		visit(id)
	}

	return result, nil
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
