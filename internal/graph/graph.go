// Package graph builds the directed import graph of a loaded program.
// Unlike a build DAG, import graphs may legally contain cycles, so cycle
// detection here is informational: the graph command lists cycles, it
// does not reject them.
package graph

import (
	"fmt"
	"sort"

	"github.com/dartfront/dartfront/pkg/loader"
)

// Graph is a directed graph over library URIs. Edges point from importer
// to imported library.
type Graph struct {
	nodes   map[string]struct{}
	edges   map[string][]string // importer -> imported
	inverse map[string][]string // imported -> importers
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]struct{}),
		edges:   make(map[string][]string),
		inverse: make(map[string][]string),
	}
}

// FromLoader builds the import graph of every loaded library. Native
// extension imports contribute no edge. Part files appear as edges from
// their owning library with no outgoing edges of their own.
func FromLoader(l *loader.Loader) *Graph {
	g := New()
	for _, b := range l.Builders() {
		g.AddNode(b.URI)
		for _, imp := range b.Imports() {
			if imp.Target == nil {
				continue
			}
			g.AddNode(imp.Target.URI)
			g.AddEdge(b.URI, imp.Target.URI)
		}
		for _, exp := range b.Exports() {
			if exp.Target == nil {
				continue
			}
			g.AddNode(exp.Target.URI)
			g.AddEdge(b.URI, exp.Target.URI)
		}
	}
	return g
}

// AddNode adds a library to the graph.
func (g *Graph) AddNode(uri string) {
	if _, ok := g.nodes[uri]; ok {
		return
	}
	g.nodes[uri] = struct{}{}
}

// AddEdge adds an import edge. Self-edges and duplicates are dropped.
func (g *Graph) AddEdge(importer, imported string) {
	if importer == imported {
		return
	}
	if !contains(g.edges[importer], imported) {
		g.edges[importer] = append(g.edges[importer], imported)
	}
	if !contains(g.inverse[imported], importer) {
		g.inverse[imported] = append(g.inverse[imported], importer)
	}
}

// Nodes returns every library URI, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for uri := range g.nodes {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Imports returns the libraries imported by uri, sorted.
func (g *Graph) Imports(uri string) []string {
	out := append([]string(nil), g.edges[uri]...)
	sort.Strings(out)
	return out
}

// Importers returns the libraries importing uri, sorted.
func (g *Graph) Importers(uri string) []string {
	out := append([]string(nil), g.inverse[uri]...)
	sort.Strings(out)
	return out
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, targets := range g.edges {
		count += len(targets)
	}
	return count
}

// Cycles enumerates the strongly connected components with more than one
// member, each sorted internally, components ordered by first member.
// These are the import cycles of the program.
func (g *Graph) Cycles() [][]string {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var cycles [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.sortedEdges(v) {
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && indices[w] < lowlink[v] {
				lowlink[v] = indices[w]
			}
		}

		if lowlink[v] == indices[v] {
			var component []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			if len(component) > 1 {
				sort.Strings(component)
				cycles = append(cycles, component)
			}
		}
	}

	for _, v := range g.Nodes() {
		if _, seen := indices[v]; !seen {
			strongconnect(v)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// Order returns a deterministic dependencies-first ordering. Within a
// cycle the lexicographically smallest member comes out first.
func (g *Graph) Order() []string {
	visited := make(map[string]bool)
	var out []string

	var visit func(uri string)
	visit = func(uri string) {
		if visited[uri] {
			return
		}
		visited[uri] = true
		for _, dep := range g.sortedEdges(uri) {
			visit(dep)
		}
		out = append(out, uri)
	}

	for _, uri := range g.Nodes() {
		visit(uri)
	}
	return out
}

// Roots returns libraries nothing imports, sorted.
func (g *Graph) Roots() []string {
	var out []string
	for _, uri := range g.Nodes() {
		if len(g.inverse[uri]) == 0 {
			out = append(out, uri)
		}
	}
	return out
}

// Leaves returns libraries importing nothing, sorted.
func (g *Graph) Leaves() []string {
	var out []string
	for _, uri := range g.Nodes() {
		if len(g.edges[uri]) == 0 {
			out = append(out, uri)
		}
	}
	return out
}

// Describe renders one line per library for the graph command.
func (g *Graph) Describe(uri string) string {
	return fmt.Sprintf("%s -> %v", uri, g.Imports(uri))
}

func (g *Graph) sortedEdges(uri string) []string {
	out := append([]string(nil), g.edges[uri]...)
	sort.Strings(out)
	return out
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
