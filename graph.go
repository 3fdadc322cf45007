// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"fmt"
	"strings"
)

// Graph owns the process workflow for a run: nodes indexed by step id plus
// the predecessor adjacency. It is immutable after construction; Validate
// must pass before the graph is used by the engine.
type Graph struct {
	nodes []*ProcessNode // declaration order
	index map[string]*ProcessNode
	preds map[string][]string
	succs map[string][]string
}

// NewGraph builds a graph from the definition. Construction never fails;
// structural problems are reported by [Graph.Validate].
func NewGraph(def *ProcessDefinition) *Graph {
	g := &Graph{
		index: make(map[string]*ProcessNode, len(def.Nodes)),
		preds: make(map[string][]string, len(def.Nodes)),
		succs: make(map[string][]string, len(def.Nodes)),
	}
	for i := range def.Nodes {
		node := &def.Nodes[i]
		if _, dup := g.index[node.StepID]; dup {
			// Keep the first declaration; Validate reports the duplicate.
			g.nodes = append(g.nodes, node)
			continue
		}
		g.nodes = append(g.nodes, node)
		g.index[node.StepID] = node
	}
	for _, node := range g.nodes {
		for _, pred := range node.PredecessorList() {
			g.preds[node.StepID] = append(g.preds[node.StepID], pred)
			g.succs[pred] = append(g.succs[pred], node.StepID)
		}
	}
	return g
}

// Validate checks that the graph is non-empty, free of duplicate ids, that
// every predecessor resolves, that node attributes are in range, that no
// inspection step has a certain rework outcome, and that the graph is
// acyclic with at least one start node. Every violation wraps [ErrGraph].
func (g *Graph) Validate() error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("%w: process has no nodes", ErrGraph)
	}
	seen := make(map[string]bool, len(g.nodes))
	for _, node := range g.nodes {
		if seen[node.StepID] {
			return fmt.Errorf("%w: duplicate step id %q", ErrGraph, node.StepID)
		}
		seen[node.StepID] = true
	}
	for _, node := range g.nodes {
		if err := g.validateNode(node); err != nil {
			return err
		}
	}
	if cycle := g.findCycle(); cycle != nil {
		return fmt.Errorf("%w: cycle detected: %s", ErrGraph, strings.Join(cycle, " -> "))
	}
	if len(g.StartNodes()) == 0 {
		return fmt.Errorf("%w: no start nodes (every node has predecessors)", ErrGraph)
	}
	return nil
}

func (g *Graph) validateNode(node *ProcessNode) error {
	if node.StepID == "" {
		return fmt.Errorf("%w: node with empty step id", ErrGraph)
	}
	if !node.OpType.valid() {
		return fmt.Errorf("%w: step %q has unknown op type %q", ErrGraph, node.StepID, node.OpType)
	}
	if node.StdDuration < 0 {
		return fmt.Errorf("%w: step %q has negative std_duration", ErrGraph, node.StepID)
	}
	if node.TimeVariance < 0 {
		return fmt.Errorf("%w: step %q has negative time_variance", ErrGraph, node.StepID)
	}
	if node.WorkLoadScore < 1 || node.WorkLoadScore > 10 {
		return fmt.Errorf("%w: step %q work_load_score %d outside 1..10", ErrGraph, node.StepID, node.WorkLoadScore)
	}
	if node.ReworkProb < 0 || node.ReworkProb > 1 {
		return fmt.Errorf("%w: step %q rework_prob %g outside 0..1", ErrGraph, node.StepID, node.ReworkProb)
	}
	// rework_prob = 1 on an inspection step never passes and would loop the
	// executor forever.
	if node.OpType == OpMeasurement && node.ReworkProb >= 1 {
		return fmt.Errorf("%w: step %q rework_prob %g makes rework certain; must be below 1", ErrGraph, node.StepID, node.ReworkProb)
	}
	if node.RequiredWorkers < 1 {
		return fmt.Errorf("%w: step %q required_workers %d must be at least 1", ErrGraph, node.StepID, node.RequiredWorkers)
	}
	for _, pred := range node.PredecessorList() {
		if _, ok := g.index[pred]; !ok {
			return fmt.Errorf("%w: step %q references unknown predecessor %q", ErrGraph, node.StepID, pred)
		}
	}
	return nil
}

// findCycle returns the step ids of some cycle, or nil. Recursive DFS with
// three colors; deterministic because it walks nodes and edges in
// declaration order.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.nodes))
	parent := make(map[string]string)

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		for _, succ := range g.succs[id] {
			switch color[succ] {
			case white:
				parent[succ] = id
				if cycle := visit(succ); cycle != nil {
					return cycle
				}
			case gray:
				cycle := []string{succ}
				for at := id; at != succ; at = parent[at] {
					cycle = append(cycle, at)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
		}
		color[id] = black
		return nil
	}

	for _, node := range g.nodes {
		if color[node.StepID] == white {
			if cycle := visit(node.StepID); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Count returns the number of nodes.
func (g *Graph) Count() int {
	return len(g.nodes)
}

// Node returns the node with the given step id, or nil.
func (g *Graph) Node(stepID string) *ProcessNode {
	return g.index[stepID]
}

// StartNodes returns the nodes with no predecessors, in declaration order.
func (g *Graph) StartNodes() []*ProcessNode {
	var out []*ProcessNode
	for _, node := range g.nodes {
		if len(g.preds[node.StepID]) == 0 {
			out = append(out, node)
		}
	}
	return out
}

// EndNodes returns the nodes with no successors, in declaration order.
func (g *Graph) EndNodes() []*ProcessNode {
	var out []*ProcessNode
	for _, node := range g.nodes {
		if len(g.succs[node.StepID]) == 0 {
			out = append(out, node)
		}
	}
	return out
}

// Ready returns the nodes whose predecessors are all in completed and which
// are not themselves in it, in declaration order. Declaration order makes
// resource contention resolve deterministically under a fixed seed.
func (g *Graph) Ready(completed map[string]bool) []*ProcessNode {
	var out []*ProcessNode
	for _, node := range g.nodes {
		if completed[node.StepID] {
			continue
		}
		ready := true
		for _, pred := range g.preds[node.StepID] {
			if !completed[pred] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, node)
		}
	}
	return out
}

// Predecessors returns the step ids that must complete before the given step.
func (g *Graph) Predecessors(stepID string) []string {
	return g.preds[stepID]
}

// Successors returns the step ids unblocked by completing the given step.
func (g *Graph) Successors(stepID string) []string {
	return g.succs[stepID]
}

// TopologicalOrder returns all step ids in an order consistent with the
// predecessor constraints (declaration order among peers). Returns nil if
// the graph has a cycle.
func (g *Graph) TopologicalOrder() []string {
	indegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		indegree[node.StepID] = len(g.preds[node.StepID])
	}
	var order []string
	remaining := len(g.nodes)
	done := make(map[string]bool, len(g.nodes))
	for remaining > 0 {
		progressed := false
		for _, node := range g.nodes {
			if done[node.StepID] || indegree[node.StepID] > 0 {
				continue
			}
			done[node.StepID] = true
			order = append(order, node.StepID)
			remaining--
			progressed = true
			for _, succ := range g.succs[node.StepID] {
				indegree[succ]--
			}
		}
		if !progressed {
			return nil
		}
	}
	return order
}

// CriticalPath returns the longest chain of steps by standard duration and
// its total length in minutes. Returns nil and zero for an empty or cyclic
// graph.
func (g *Graph) CriticalPath() ([]string, float64) {
	order := g.TopologicalOrder()
	if len(order) == 0 {
		return nil, 0
	}
	earliest := make(map[string]float64, len(order))
	for _, id := range order {
		var start float64
		for _, pred := range g.preds[id] {
			if t := earliest[pred] + g.index[pred].StdDuration; t > start {
				start = t
			}
		}
		earliest[id] = start
	}

	var end string
	var total float64
	for _, node := range g.EndNodes() {
		if t := earliest[node.StepID] + node.StdDuration; end == "" || t > total {
			end = node.StepID
			total = t
		}
	}

	var path []string
	for at := end; at != ""; {
		path = append([]string{at}, path...)
		var next string
		var best float64
		for _, pred := range g.preds[at] {
			if t := earliest[pred] + g.index[pred].StdDuration; next == "" || t > best {
				next = pred
				best = t
			}
		}
		at = next
	}
	return path, total
}

// ParallelGroups partitions the steps into successive layers where every
// step in a layer can run concurrently once the previous layers complete.
func (g *Graph) ParallelGroups() [][]string {
	var groups [][]string
	completed := make(map[string]bool, len(g.nodes))
	for len(completed) < len(g.nodes) {
		ready := g.Ready(completed)
		if len(ready) == 0 {
			break
		}
		group := make([]string, len(ready))
		for i, node := range ready {
			group[i] = node.StepID
		}
		groups = append(groups, group)
		for _, id := range group {
			completed[id] = true
		}
	}
	return groups
}
