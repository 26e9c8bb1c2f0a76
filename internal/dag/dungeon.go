package dag

import "CoopDungeons/internal/game"

// FromDungeon builds the room graph of a roguelike definition.
func FromDungeon(def *game.DungeonDefinition) (*Graph, error) {
	nodes := make([]*Node, 0, len(def.Rooms))
	for _, r := range def.Rooms {
		next := make([]NodeID, len(r.Next))
		for i, id := range r.Next {
			next[i] = NodeID(id)
		}
		nodes = append(nodes, &Node{ID: NodeID(r.ID), Label: r.Room.Name, Next: next, Final: r.Final})
	}
	return Build(nodes, NodeID(def.StartRoom))
}

// ValidateDungeon is a game.GraphValidator.
func ValidateDungeon(def *game.DungeonDefinition) error {
	_, err := FromDungeon(def)
	return err
}
