package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/morph/internal/ir"
)

// CycleWarning reports rule sets and named rules that can reach each other
// through "(:ruleset)" and "TRY(!rule)" actions.
//
// Cycles are warnings, not errors: every re-entry works on a new string and
// the engine bounds recursion depth, so a cycle costs time but terminates.
type CycleWarning struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeCycles finds reference cycles among the rule sets and named rules
// of t. Nodes are rule set names and named rules prefixed with "!". Output
// order is deterministic.
func AnalyzeCycles(t *ir.Tables) []CycleWarning {
	graph := buildReferenceGraph(t)
	if len(graph) == 0 {
		return []CycleWarning{}
	}

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	if warnings == nil {
		return []CycleWarning{}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// referenceGraph maps a node to the nodes its actions invoke.
type referenceGraph map[string][]string

func buildReferenceGraph(t *ir.Tables) referenceGraph {
	graph := make(referenceGraph)

	addRules := func(node string, rules []*ir.Rule) {
		seen := make(map[string]bool)
		edges := []string{}
		for _, r := range rules {
			for _, a := range r.Actions {
				var target string
				switch a.Kind {
				case ir.RuleSetAction:
					target = a.Target
				case ir.TryAction:
					target = "!" + a.Target
				default:
					continue
				}
				if !seen[target] {
					seen[target] = true
					edges = append(edges, target)
				}
			}
		}
		slices.Sort(edges)
		graph[node] = edges
	}

	sets := t.RuleSets()
	if def := t.Default(); def != nil {
		sets = append(sets, def)
	}
	for _, s := range sets {
		addRules(s.Name, s.Rules)
	}
	for _, name := range t.RuleNames() {
		r, _ := t.Rule(name)
		addRules("!"+name, []*ir.Rule{r})
	}
	return graph
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Each component is returned sorted. Edges to unknown nodes are followed
// as leaf nodes.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph referenceGraph) CycleWarning {
	if len(scc) == 1 {
		node := scc[0]
		return CycleWarning{
			Path:    []string{node, node},
			Message: fmt.Sprintf("self-referencing rules: %s → %s", node, node),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("reference cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start or runs out of unvisited members.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
