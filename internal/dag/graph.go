// Package dag validates branching room graphs and tracks a run's progress
// through them.
//
// Graphs are immutable once built and validated at load time: every edge
// must name a known room, the graph must be acyclic, and every room without
// successors must be final.
package dag

import (
	"errors"
	"fmt"
)

// NodeID uniquely identifies a room in the graph.
type NodeID string

// Node is one room and the rooms that may follow it.
type Node struct {
	ID    NodeID   `json:"id"`
	Label string   `json:"label"`
	Next  []NodeID `json:"next"`
	Final bool     `json:"final"`
}

// Graph represents a validated room graph.
type Graph struct {
	Nodes     map[NodeID]*Node    // All nodes indexed by ID
	Start     NodeID              // Entry room
	NextIn    map[NodeID][]NodeID // Reverse index: which nodes lead here
	TopoOrder []NodeID            // Topologically sorted node IDs
}

var (
	// ErrCycleDetected is returned when a cycle is detected in the graph.
	ErrCycleDetected = errors.New("dag: cycle detected in graph")
	// ErrNodeNotFound is returned when a referenced node doesn't exist.
	ErrNodeNotFound = errors.New("dag: node not found")
	// ErrDuplicateNode is returned when two nodes share an id.
	ErrDuplicateNode = errors.New("dag: duplicate node")
	// ErrDeadEnd is returned when a non-final node has no successors.
	ErrDeadEnd = errors.New("dag: non-final node has no successors")
	// ErrEmptyGraph is returned when no nodes are supplied.
	ErrEmptyGraph = errors.New("dag: graph has no nodes")
)

// Build indexes nodes and validates the graph rooted at start.
func Build(nodes []*Node, start NodeID) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	g := &Graph{
		Nodes:  make(map[NodeID]*Node, len(nodes)),
		Start:  start,
		NextIn: make(map[NodeID][]NodeID),
	}

	for _, node := range nodes {
		if _, dup := g.Nodes[node.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}
		g.Nodes[node.ID] = node
	}
	if _, ok := g.Nodes[start]; !ok {
		return nil, fmt.Errorf("%w: start node %s", ErrNodeNotFound, start)
	}

	// Build reverse index and validate edges
	for _, node := range nodes {
		for _, next := range node.Next {
			if _, exists := g.Nodes[next]; !exists {
				return nil, fmt.Errorf("%w: node %s leads to missing node %s", ErrNodeNotFound, node.ID, next)
			}
			g.NextIn[next] = append(g.NextIn[next], node.ID)
		}
		if len(node.Next) == 0 && !node.Final {
			return nil, fmt.Errorf("%w: %s", ErrDeadEnd, node.ID)
		}
	}

	order, err := g.topoSort(nodes)
	if err != nil {
		return nil, err
	}
	g.TopoOrder = order
	return g, nil
}

// GetNode returns a node by ID, or nil if not found.
func (g *Graph) GetNode(id NodeID) *Node {
	return g.Nodes[id]
}

// Successors lists the rooms reachable in one step from id.
func (g *Graph) Successors(id NodeID) []NodeID {
	if n := g.Nodes[id]; n != nil {
		return n.Next
	}
	return nil
}

// IsFinal reports whether finishing id ends the run.
func (g *Graph) IsFinal(id NodeID) bool {
	n := g.Nodes[id]
	return n != nil && n.Final
}

// Reachable lists every node reachable from the start, in breadth-first order.
func (g *Graph) Reachable() []NodeID {
	seen := map[NodeID]bool{g.Start: true}
	queue := []NodeID{g.Start}
	var out []NodeID
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		out = append(out, curr)
		for _, next := range g.Successors(curr) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return out
}

// topoSort performs topological sorting using Kahn's algorithm to detect
// cycles. Input order breaks ties so the result is deterministic.
func (g *Graph) topoSort(nodes []*Node) ([]NodeID, error) {
	// Count in-degrees
	inDegree := make(map[NodeID]int, len(nodes))
	for _, node := range nodes {
		inDegree[node.ID] += 0
		for _, next := range node.Next {
			inDegree[next]++
		}
	}

	// Queue nodes with no predecessors
	var queue []NodeID
	for _, node := range nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	var order []NodeID
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, next := range g.Nodes[curr].Next {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	// If not all nodes processed, there's a cycle
	if len(order) != len(g.Nodes) {
		return nil, ErrCycleDetected
	}
	return order, nil
}
