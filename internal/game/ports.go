package game

import "time"

//go:generate go tool mockgen -destination=./mocks/ports_mock.go -package=mocks . Messenger,UnitDirectory

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the timer was still pending.
	Stop() bool
}

// Scheduler registers delayed and repeating callbacks. All callbacks run on
// the world-update thread.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Clock gives monotonic elapsed game time.
type Clock interface {
	Now() time.Duration
}

// SpawnRequest asks the builder to place actors for one spawner definition.
type SpawnRequest struct {
	Spawner SpawnerDef
	Count   int // overrides Spawner.Count when positive
	Group   string
}

// WorldBuilder paints static geometry for a map definition and can remove
// everything it placed. One builder serves one built map at a time.
type WorldBuilder interface {
	Build(def *MapDefinition, origin Vec3) error
	SpawnActors(req SpawnRequest) []ActorHandle
	PlaceProp(model string, p GridPos) ActorID
	GridToWorld(p GridPos) Vec3
	Teardown()
}

// BuilderFactory hands out fresh builders.
type BuilderFactory interface {
	NewBuilder() WorldBuilder
}

// UnitDirectory is the host world's view of players and actors. Any query
// against an invalid actor reports it as absent.
type UnitDirectory interface {
	UnitOf(player PlayerID) (ActorID, bool)
	Alive(id ActorID) bool
	Position(id ActorID) (Vec3, bool)
	Health(id ActorID) (float64, bool)
	Teleport(id ActorID, pos Vec3) bool
	Respawn(player PlayerID) (ActorID, bool)
	ApplyStatus(id ActorID, status string, d time.Duration)
	Remove(id ActorID)
}

// EntitySweeper lets the zone pool clear a region of leaked entities.
type EntitySweeper interface {
	EntitiesWithin(center Vec3, radius float64) []ActorID
	IsPlayerControlled(id ActorID) bool
	Position(id ActorID) (Vec3, bool)
	Remove(id ActorID)
}

// Messenger pushes presentation events to one player. Fire-and-forget.
type Messenger interface {
	Send(player PlayerID, ev Event)
}

// Broadcast sends ev to every player in players.
func Broadcast(m Messenger, players []PlayerID, ev Event) {
	if m == nil {
		return
	}
	for _, p := range players {
		m.Send(p, ev)
	}
}

// MemberUnitAlive reports whether any of players controls a live unit.
func MemberUnitAlive(units UnitDirectory, players []PlayerID) bool {
	for _, p := range players {
		if unit, ok := units.UnitOf(p); ok && units.Alive(unit) {
			return true
		}
	}
	return false
}
