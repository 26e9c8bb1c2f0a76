package world

import (
	"testing"
	"time"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/sched"
)

func newTestWorld() (*World, *sched.Loop) {
	loop := sched.NewLoop(nil)
	return New(game.Vec3{X: -500, Y: -500}, loop, nil), loop
}

func testMap() *game.MapDefinition {
	return &game.MapDefinition{
		ID: "t", Name: "T", Width: 4, Height: 2, CellSize: 100,
		Tiles:       []game.Tile{{X: 0, Y: 0, Kind: game.TileWall}, {X: 1, Y: 0, Kind: game.TileFloor}},
		Decorations: []game.Decoration{{Grid: game.GridPos{X: 3, Y: 1}, Model: "torch"}},
		EntryPoints: []game.GridPos{{X: 1, Y: 1}},
	}
}

func TestGridToWorldCentersMapOnOrigin(t *testing.T) {
	w, _ := newTestWorld()
	b := w.NewBuilder()
	if err := b.Build(testMap(), game.Vec3{X: 1000, Y: 2000, Z: 5}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := b.GridToWorld(game.GridPos{X: 0, Y: 0})
	want := game.Vec3{X: 850, Y: 1950, Z: 5}
	if got != want {
		t.Fatalf("GridToWorld = %+v, want %+v", got, want)
	}
}

func TestBuilderTeardownRemovesEverythingPlaced(t *testing.T) {
	w, _ := newTestWorld()
	player := w.SpawnPlayer("p1")
	b := w.NewBuilder()
	if err := b.Build(testMap(), game.Vec3{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := b.Build(testMap(), game.Vec3{}); err == nil {
		t.Fatalf("second Build on the same builder should fail")
	}
	actors := b.SpawnActors(game.SpawnRequest{Spawner: game.SpawnerDef{ActorType: "ghoul", Count: 3}, Group: "g"})
	if len(actors) != 3 {
		t.Fatalf("spawned %d actors", len(actors))
	}
	if w.EntityCount() != 1+2+3 {
		t.Fatalf("entity count %d", w.EntityCount())
	}
	b.Teardown()
	b.Teardown()
	if w.EntityCount() != 1 || !w.Exists(player) {
		t.Fatalf("teardown left %d entities", w.EntityCount())
	}
}

func TestKillNotifiesAndRemovesMonsters(t *testing.T) {
	w, _ := newTestWorld()
	b := w.NewBuilder()
	b.Build(testMap(), game.Vec3{})
	h := b.SpawnActors(game.SpawnRequest{Spawner: game.SpawnerDef{ActorType: "ghoul", Count: 1}})[0]

	var seen []game.ActorID
	w.OnKill(func(victim, killer game.ActorID) {
		if w.Alive(victim) {
			t.Fatalf("victim still alive during notification")
		}
		seen = append(seen, victim)
	})
	if !w.Kill(h.ID, 0) {
		t.Fatalf("Kill returned false")
	}
	if w.Kill(h.ID, 0) {
		t.Fatalf("killing twice should report false")
	}
	if len(seen) != 1 || w.Exists(h.ID) {
		t.Fatalf("kill not handled: seen=%v exists=%v", seen, w.Exists(h.ID))
	}
	if _, ok := w.Position(h.ID); ok {
		t.Fatalf("removed actor still has a position")
	}
}

func TestPlayerDeathAndRespawn(t *testing.T) {
	w, _ := newTestWorld()
	unit := w.SpawnPlayer("p1")
	spawned := 0
	w.OnPlayerSpawned(func(game.PlayerID, game.ActorID) { spawned++ })
	w.Teleport(unit, game.Vec3{X: 10})
	w.Kill(unit, 0)
	if w.Alive(unit) || !w.Exists(unit) {
		t.Fatalf("dead player unit should remain in the world")
	}
	got, ok := w.Respawn("p1")
	if !ok || got != unit || !w.Alive(unit) {
		t.Fatalf("respawn failed")
	}
	if pos, _ := w.Position(unit); pos != w.Home() {
		t.Fatalf("respawned at %+v", pos)
	}
	if spawned != 1 {
		t.Fatalf("spawn listeners called %d times", spawned)
	}
}

func TestStunBlocksMovementUntilExpiry(t *testing.T) {
	w, loop := newTestWorld()
	unit := w.SpawnPlayer("p1")
	w.ApplyStatus(unit, game.StatusStun, time.Second)
	if w.Move("p1", game.Vec3{X: 1}) {
		t.Fatalf("stunned unit moved")
	}
	loop.Advance(time.Second)
	if !w.Move("p1", game.Vec3{X: 1}) {
		t.Fatalf("unit still stunned after expiry")
	}
}

func TestStrikeHitsNearestMonster(t *testing.T) {
	w, _ := newTestWorld()
	unit := w.SpawnPlayer("p1")
	b := w.NewBuilder()
	b.Build(testMap(), game.Vec3{})
	h := b.SpawnActors(game.SpawnRequest{Spawner: game.SpawnerDef{ActorType: "ghoul", Count: 1}})[0]
	pos, _ := w.Position(h.ID)
	w.Teleport(unit, pos.Add(game.Vec3{X: 20}))

	var killer game.ActorID
	w.OnKill(func(_, k game.ActorID) { killer = k })
	for i := 0; i < 2; i++ {
		if _, ok := w.Strike("p1"); !ok {
			t.Fatalf("strike %d missed", i)
		}
	}
	if w.Exists(h.ID) || killer != unit {
		t.Fatalf("monster should die to two strikes credited to the player")
	}
	if _, ok := w.Strike("p1"); ok {
		t.Fatalf("strike with no target should miss")
	}
}

func TestStepMonstersChaseAndHit(t *testing.T) {
	w, _ := newTestWorld()
	unit := w.SpawnPlayer("p1")
	b := w.NewBuilder()
	b.Build(testMap(), game.Vec3{})
	h := b.SpawnActors(game.SpawnRequest{Spawner: game.SpawnerDef{ActorType: "ghoul", Count: 1}})[0]
	pos, _ := w.Position(h.ID)
	w.Teleport(unit, pos.Add(game.Vec3{X: 200}))

	w.Step(500 * time.Millisecond)
	moved, _ := w.Position(h.ID)
	if moved.X <= pos.X {
		t.Fatalf("monster did not approach: %+v -> %+v", pos, moved)
	}
	for i := 0; i < 20; i++ {
		w.Step(500 * time.Millisecond)
	}
	if hp, _ := w.Health(unit); hp >= PlayerMaxHP {
		t.Fatalf("monster in reach never hit the player")
	}
}

func TestSweeperQueries(t *testing.T) {
	w, _ := newTestWorld()
	unit := w.SpawnPlayer("p1")
	if !w.IsPlayerControlled(unit) {
		t.Fatalf("player unit not flagged")
	}
	w.Teleport(unit, game.Vec3{X: 5, Y: 5})
	got := w.EntitiesWithin(game.Vec3{}, 10)
	if len(got) != 1 || got[0] != unit {
		t.Fatalf("EntitiesWithin = %v", got)
	}
	w.Remove(unit)
	if _, ok := w.UnitOf("p1"); ok {
		t.Fatalf("removed unit still mapped")
	}
}
