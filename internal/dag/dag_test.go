package dag

import (
	"errors"
	"testing"

	"CoopDungeons/internal/game"
)

func spire() []*Node {
	return []*Node{
		{ID: "gate", Label: "Gate", Next: []NodeID{"blades", "embers"}},
		{ID: "blades", Label: "Blades", Next: []NodeID{"throne"}},
		{ID: "embers", Label: "Embers", Next: []NodeID{"throne"}},
		{ID: "throne", Label: "Throne", Final: true},
	}
}

// TestGraphBuild tests basic graph construction and indexing
func TestGraphBuild(t *testing.T) {
	graph, err := Build(spire(), "gate")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(graph.Nodes) != 4 {
		t.Errorf("Expected 4 nodes, got %d", len(graph.Nodes))
	}
	if graph.TopoOrder[0] != "gate" || graph.TopoOrder[3] != "throne" {
		t.Errorf("Unexpected topo order %v", graph.TopoOrder)
	}
	if len(graph.NextIn["throne"]) != 2 {
		t.Errorf("throne should have two predecessors, got %v", graph.NextIn["throne"])
	}
	if !graph.IsFinal("throne") || graph.IsFinal("gate") {
		t.Error("final flags not reported")
	}
	if got := graph.Reachable(); len(got) != 4 {
		t.Errorf("Reachable = %v", got)
	}
}

// TestGraphCycleDetection tests that cycles are detected
func TestGraphCycleDetection(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Next: []NodeID{"b"}},
		{ID: "b", Next: []NodeID{"a", "end"}},
		{ID: "end", Final: true},
	}
	if _, err := Build(nodes, "a"); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("Expected ErrCycleDetected, got %v", err)
	}
}

// TestGraphMissingNode tests that edges to unknown rooms are rejected
func TestGraphMissingNode(t *testing.T) {
	nodes := []*Node{{ID: "a", Next: []NodeID{"ghost"}}}
	if _, err := Build(nodes, "a"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
	if _, err := Build(spire(), "nowhere"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound for missing start, got %v", err)
	}
}

func TestGraphDeadEndAndDuplicates(t *testing.T) {
	nodes := []*Node{{ID: "a", Next: []NodeID{"b"}}, {ID: "b"}}
	if _, err := Build(nodes, "a"); !errors.Is(err, ErrDeadEnd) {
		t.Errorf("Expected ErrDeadEnd, got %v", err)
	}
	dup := []*Node{{ID: "a", Final: true}, {ID: "a", Final: true}}
	if _, err := Build(dup, "a"); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("Expected ErrDuplicateNode, got %v", err)
	}
	if _, err := Build(nil, "a"); !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("Expected ErrEmptyGraph, got %v", err)
	}
}

// TestStateProgression walks a run through one branch
func TestStateProgression(t *testing.T) {
	graph, _ := Build(spire(), "gate")
	state := NewState(graph)

	if state.GetStatus("gate") != StatusAvailable {
		t.Fatalf("start should be available")
	}
	if state.GetStatus("throne") != StatusLocked {
		t.Fatalf("throne should start locked")
	}
	state.Enter("gate")
	opened := state.Complete(graph, "gate")
	if len(opened) != 2 {
		t.Fatalf("expected two branches, got %v", opened)
	}
	avail := state.Available(graph)
	if len(avail) != 2 || avail[0] != "blades" || avail[1] != "embers" {
		t.Fatalf("Available = %v", avail)
	}

	state.Enter("embers")
	if state.GetStatus("blades") != StatusSkipped {
		t.Errorf("unchosen branch should be skipped, got %s", state.GetStatus("blades"))
	}
	state.Complete(graph, "embers")
	state.Enter("throne")
	path := state.Visited()
	if len(path) != 3 || path[1] != "embers" {
		t.Fatalf("path = %v", path)
	}
}

func TestBuiltinRoguelikeGraphs(t *testing.T) {
	for _, def := range game.BuiltinDefinitions() {
		if def.Kind != game.KindRoguelike {
			continue
		}
		if err := ValidateDungeon(def); err != nil {
			t.Fatalf("%s: %v", def.ID, err)
		}
	}
}
