// Package world is an in-memory host world: a small component-map ECS that
// stores player units, monsters and map props, and implements the ports the
// dungeon core talks to.
package world

import (
	"time"

	"CoopDungeons/internal/game"
)

type ComponentKey string

type Transform struct {
	Pos game.Vec3
}

type Health struct {
	HP  float64
	Max float64
}

// ActorComponent marks a spawned monster.
type ActorComponent struct {
	Name  string
	Type  string
	Group string
}

// PlayerComponent marks a unit controlled by a player.
type PlayerComponent struct {
	Player game.PlayerID
}

// PropComponent marks static geometry and decorations placed by a builder.
type PropComponent struct {
	Kind  string
	Model string
}

// StatusComponent holds timed effects as effect → expiry (game time).
type StatusComponent struct {
	Until map[string]time.Duration
}

const (
	compTransform ComponentKey = "transform"
	compHealth    ComponentKey = "health"
	compActor     ComponentKey = "actor"
	compPlayer    ComponentKey = "player"
	compProp      ComponentKey = "prop"
	compStatus    ComponentKey = "status"
)

type store struct {
	nextEntity game.ActorID
	components map[ComponentKey]map[game.ActorID]any
}

func newStore() *store {
	return &store{components: make(map[ComponentKey]map[game.ActorID]any)}
}

func (s *store) NewEntity() game.ActorID {
	s.nextEntity++
	return s.nextEntity
}

func (s *store) SetComponent(id game.ActorID, key ComponentKey, value any) {
	m, ok := s.components[key]
	if !ok {
		m = make(map[game.ActorID]any)
		s.components[key] = m
	}
	m[id] = value
}

func (s *store) GetComponent(id game.ActorID, key ComponentKey) (any, bool) {
	if m, ok := s.components[key]; ok {
		v, ok := m[id]
		return v, ok
	}
	return nil, false
}

func (s *store) HasComponent(id game.ActorID, key ComponentKey) bool {
	_, ok := s.GetComponent(id, key)
	return ok
}

func (s *store) RemoveEntity(id game.ActorID) {
	for _, m := range s.components {
		delete(m, id)
	}
}

func (s *store) ForEach(required []ComponentKey, fn func(game.ActorID)) {
	if len(required) == 0 {
		return
	}
	first := s.components[required[0]]
	for id := range first {
		match := true
		for _, key := range required[1:] {
			if !s.HasComponent(id, key) {
				match = false
				break
			}
		}
		if match {
			fn(id)
		}
	}
}

func (s *store) Exists(id game.ActorID) bool {
	for _, m := range s.components {
		if _, ok := m[id]; ok {
			return true
		}
	}
	return false
}

func component[T any](s *store, id game.ActorID, key ComponentKey) *T {
	if v, ok := s.GetComponent(id, key); ok {
		if t, ok := v.(*T); ok {
			return t
		}
	}
	return nil
}

func (s *store) transform(id game.ActorID) *Transform {
	return component[Transform](s, id, compTransform)
}

func (s *store) health(id game.ActorID) *Health {
	return component[Health](s, id, compHealth)
}

func (s *store) actor(id game.ActorID) *ActorComponent {
	return component[ActorComponent](s, id, compActor)
}

func (s *store) player(id game.ActorID) *PlayerComponent {
	return component[PlayerComponent](s, id, compPlayer)
}

func (s *store) status(id game.ActorID) *StatusComponent {
	return component[StatusComponent](s, id, compStatus)
}
