package dag

// Status represents where a room stands in one run.
type Status string

const (
	// StatusLocked means the room is not reachable yet.
	StatusLocked Status = "locked"
	// StatusAvailable means the room is a candidate for the next step.
	StatusAvailable Status = "available"
	// StatusInProgress means the party is in the room.
	StatusInProgress Status = "in_progress"
	// StatusCompleted means the room was cleared.
	StatusCompleted Status = "completed"
	// StatusSkipped means another branch was chosen instead.
	StatusSkipped Status = "skipped"
)

// State represents per-run progress through a graph.
type State struct {
	Status map[NodeID]Status // Current status of each node
	Path   []NodeID          // Rooms entered, in order
}

// NewState creates the state for a fresh run: only the start is available.
func NewState(g *Graph) *State {
	s := &State{Status: make(map[NodeID]Status)}
	if g != nil {
		s.Status[g.Start] = StatusAvailable
	}
	return s
}

// GetStatus returns the status of a node, defaulting to locked if not set.
func (s *State) GetStatus(id NodeID) Status {
	if status, exists := s.Status[id]; exists {
		return status
	}
	return StatusLocked
}

// Enter marks id as the current room. Sibling candidates that were not
// chosen become skipped.
func (s *State) Enter(id NodeID) {
	for other, st := range s.Status {
		if st == StatusAvailable && other != id {
			s.Status[other] = StatusSkipped
		}
	}
	s.Status[id] = StatusInProgress
	s.Path = append(s.Path, id)
}

// Complete marks id as cleared and opens its successors.
func (s *State) Complete(g *Graph, id NodeID) []NodeID {
	s.Status[id] = StatusCompleted
	var opened []NodeID
	for _, next := range g.Successors(id) {
		if s.GetStatus(next) == StatusLocked || s.GetStatus(next) == StatusSkipped {
			s.Status[next] = StatusAvailable
			opened = append(opened, next)
		}
	}
	return opened
}

// Available lists the current candidates in graph order.
func (s *State) Available(g *Graph) []NodeID {
	var out []NodeID
	for _, id := range g.TopoOrder {
		if s.GetStatus(id) == StatusAvailable {
			out = append(out, id)
		}
	}
	return out
}

// Visited returns a copy of the path taken so far.
func (s *State) Visited() []NodeID {
	return append([]NodeID(nil), s.Path...)
}
