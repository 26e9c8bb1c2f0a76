package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/mock/gomock"

	"CoopDungeons/internal/dag"
	"CoopDungeons/internal/game"
	"CoopDungeons/internal/game/mocks"
	"CoopDungeons/internal/instance"
	"CoopDungeons/internal/sched"
	"CoopDungeons/internal/world"
	"CoopDungeons/internal/zone"
)

var home = game.Vec3{X: -5000, Y: -5000}

type testEnv struct {
	loop  *sched.Loop
	world *world.World
	zones *zone.Pool
	mgr   *Manager
}

func newEnv(t *testing.T, cols int, msgs game.Messenger, extra ...*game.DungeonDefinition) *testEnv {
	t.Helper()
	env := &testEnv{loop: sched.NewLoop(nil)}
	env.world = world.New(home, env.loop, nil)
	env.zones = zone.NewPool(zone.Layout{
		Region: game.Rect{MinX: 0, MaxX: float64(cols) * 4096, MinY: 0, MaxY: 4096},
		Cols:   cols,
		Rows:   1,
	}, env.world, nil)
	catalog, err := game.NewCatalog(dag.ValidateDungeon, append(game.BuiltinDefinitions(), extra...)...)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	n := 0
	env.mgr = NewManager(env.loop, Options{
		Catalog:   catalog,
		Zones:     env.zones,
		Units:     env.world,
		Builders:  env.world,
		Messenger: msgs,
		Home:      home,
		NewID: func() game.InstanceID {
			n++
			return game.InstanceID(fmt.Sprintf("inst-%d", n))
		},
	})
	env.world.OnKill(env.mgr.OnUnitKilled)
	env.world.OnPlayerSpawned(env.mgr.OnPlayerUnitSpawned)
	return env
}

func (env *testEnv) create(t *testing.T, def string) game.InstanceID {
	t.Helper()
	id, err := env.mgr.CreateInstance(context.Background(), def, "p1")
	if err != nil {
		t.Fatalf("CreateInstance(%s): %v", def, err)
	}
	return id
}

func (env *testEnv) enter(t *testing.T, p game.PlayerID, id game.InstanceID) {
	t.Helper()
	env.world.SpawnPlayer(p)
	if err := env.mgr.EnterInstance(context.Background(), p, id); err != nil {
		t.Fatalf("EnterInstance(%s): %v", p, err)
	}
}

func (env *testEnv) position(p game.PlayerID) game.Vec3 {
	unit, _ := env.world.UnitOf(p)
	pos, _ := env.world.Position(unit)
	return pos
}

func TestCreateRejectsUnknownDefinition(t *testing.T) {
	env := newEnv(t, 2, nil)
	_, err := env.mgr.CreateInstance(context.Background(), "nowhere", "p1")
	if !errors.Is(err, game.ErrDefinitionNotFound) || game.CodeOf(err) != game.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if env.zones.Occupied() != 0 {
		t.Fatalf("failed create must not hold a zone")
	}
}

func TestPoolCapacityBoundsInstances(t *testing.T) {
	env := newEnv(t, 2, nil)
	a := env.create(t, "crypt-of-echoes")
	env.create(t, "sunken-keep")

	_, err := env.mgr.CreateInstance(context.Background(), "abyssal-spire", "p3")
	if !errors.Is(err, game.ErrZoneExhausted) || game.CodeOf(err) != game.CodeResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}
	if len(env.mgr.Sessions()) != 2 {
		t.Fatalf("rejected create must not register, have %d", len(env.mgr.Sessions()))
	}

	env.mgr.Cleanup(a)
	env.create(t, "abyssal-spire")
	if env.zones.Occupied() != 2 {
		t.Fatalf("expected 2 occupied zones, got %d", env.zones.Occupied())
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "crypt-of-echoes")
	env.enter(t, "p1", id)

	if !env.mgr.Cleanup(id) {
		t.Fatalf("first cleanup should report true")
	}
	if env.mgr.Cleanup(id) {
		t.Fatalf("second cleanup should report false")
	}
	if env.zones.Occupied() != 0 {
		t.Fatalf("zone not released exactly once: occupied=%d", env.zones.Occupied())
	}
	if _, ok := env.mgr.InstanceOf("p1"); ok {
		t.Fatalf("player mapping should be cleared")
	}
	if env.position("p1") != home {
		t.Fatalf("member should be sent home")
	}
	env.loop.Advance(game.EnterDelay)
	if env.position("p1") != home {
		t.Fatalf("pending entry ran after cleanup")
	}
}

func TestEnterTeleportsAfterDelayAndStarts(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "crypt-of-echoes")
	env.enter(t, "p1", id)

	inst, ok := env.mgr.InstanceOf("p1")
	if !ok || !inst.HasMember("p1") {
		t.Fatalf("membership should be immediate")
	}
	unit, _ := env.world.UnitOf("p1")
	if !env.world.HasStatus(unit, game.StatusStun) {
		t.Fatalf("entering player should be stunned")
	}
	if inst.State() != instance.Created {
		t.Fatalf("instance started before anyone arrived")
	}

	env.loop.Advance(game.EnterDelay)
	if env.position("p1") != inst.EntryPoint("p1") {
		t.Fatalf("player not moved to the entry point")
	}
	if inst.State() != instance.Running {
		t.Fatalf("first entrant should start the instance, got %s", inst.State())
	}
}

func TestEnterRevalidatesAfterDelay(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "crypt-of-echoes")
	env.enter(t, "p1", id)
	if !env.mgr.LeaveInstance("p1", instance.LeaveManual) {
		t.Fatalf("leave should report membership")
	}

	env.loop.Advance(game.EnterDelay)
	if env.position("p1") != home {
		t.Fatalf("stale entry teleported a player who left")
	}
	inst, _ := env.mgr.Instance(id)
	if inst.State() != instance.Created {
		t.Fatalf("stale entry started the instance")
	}

	env.loop.Advance(game.EmptyGrace)
	if _, ok := env.mgr.Instance(id); ok {
		t.Fatalf("empty instance should be cleaned up after the grace")
	}
	if env.zones.Occupied() != 0 {
		t.Fatalf("zone not released")
	}
}

func TestRejoinDuringGraceKeepsInstance(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "crypt-of-echoes")
	env.enter(t, "p1", id)
	env.loop.Advance(game.EnterDelay)
	env.mgr.LeaveInstance("p1", instance.LeaveManual)
	env.loop.Advance(game.EmptyGrace / 2)
	env.enter(t, "p1", id)
	env.loop.Advance(game.EmptyGrace)
	if _, ok := env.mgr.Instance(id); !ok {
		t.Fatalf("instance torn down while a member was inside")
	}
}

func TestJoinGraceReapsUnenteredInstance(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "sunken-keep")
	env.loop.Advance(game.JoinGrace - game.Dt)
	if _, ok := env.mgr.Instance(id); !ok {
		t.Fatalf("reaped too early")
	}
	env.loop.Advance(game.Dt)
	if _, ok := env.mgr.Instance(id); ok {
		t.Fatalf("unentered instance should be reaped")
	}
}

func TestEnterRejections(t *testing.T) {
	solo := game.BuiltinDefinitions()[0]
	solo.ID, solo.Name, solo.MaxPlayers = "solo-crypt", "Solo Crypt", 1
	env := newEnv(t, 2, nil, solo)
	id := env.create(t, "solo-crypt")

	if err := env.mgr.EnterInstance(context.Background(), "p1", "missing"); !errors.Is(err, game.ErrInstanceNotFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
	env.enter(t, "p1", id)
	env.world.SpawnPlayer("p2")
	if err := env.mgr.EnterInstance(context.Background(), "p2", id); !errors.Is(err, game.ErrInstanceFull) {
		t.Fatalf("expected ErrInstanceFull, got %v", err)
	}
	if err := env.mgr.EnterInstance(context.Background(), "p1", id); err != nil {
		t.Fatalf("re-entering the same instance should be a no-op, got %v", err)
	}
}

func TestEnterSwitchesInstances(t *testing.T) {
	env := newEnv(t, 2, nil)
	a := env.create(t, "crypt-of-echoes")
	b := env.create(t, "sunken-keep")
	env.enter(t, "p1", a)
	env.enter(t, "p1", b)

	instA, _ := env.mgr.Instance(a)
	if instA.HasMember("p1") {
		t.Fatalf("player still a member of the previous instance")
	}
	if inst, _ := env.mgr.InstanceOf("p1"); inst.ID() != b {
		t.Fatalf("player mapped to %s, want %s", inst.ID(), b)
	}
	env.loop.Advance(game.EmptyGrace)
	if _, ok := env.mgr.Instance(a); ok {
		t.Fatalf("abandoned instance should be cleaned up")
	}
}

func TestWorldKillBecomesMemberDeath(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "crypt-of-echoes")
	env.enter(t, "p1", id)
	env.enter(t, "p2", id)
	env.loop.Advance(game.EnterDelay)

	unit, _ := env.world.UnitOf("p1")
	env.world.Kill(unit, 0)
	inst, _ := env.mgr.Instance(id)
	if got := inst.Stats().Deaths; got != 1 {
		t.Fatalf("expected 1 death, got %d", got)
	}
	env.loop.Advance(game.DeathRouteDelay)
	if inst.HasMember("p1") {
		t.Fatalf("dead player should be routed out")
	}
	if env.position("p1") != home || !env.world.Alive(unit) {
		t.Fatalf("routed player should be alive at home")
	}
	if !inst.HasMember("p2") {
		t.Fatalf("surviving member should stay")
	}
}

func TestVoteAndInteractNeedMembership(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "abyssal-spire")
	if err := env.mgr.Vote("p1", id, "ember-pit"); !errors.Is(err, game.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := env.mgr.Interact("p1"); !errors.Is(err, game.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	env.enter(t, "p1", id)
	env.loop.Advance(game.EnterDelay)
	if err := env.mgr.Vote("p1", id, "ember-pit"); !errors.Is(err, game.ErrVoteClosed) {
		t.Fatalf("expected ErrVoteClosed, got %v", err)
	}
	if err := env.mgr.Vote("p1", "other", "ember-pit"); !errors.Is(err, game.ErrNotMember) {
		t.Fatalf("vote for a foreign instance should be rejected, got %v", err)
	}
}

func TestDisconnectLeavesInstance(t *testing.T) {
	env := newEnv(t, 2, nil)
	id := env.create(t, "crypt-of-echoes")
	env.enter(t, "p1", id)
	env.mgr.OnPlayerDisconnected("p1")
	if _, ok := env.mgr.InstanceOf("p1"); ok {
		t.Fatalf("disconnected player still mapped")
	}
}

func TestGameOverCleansUpEverything(t *testing.T) {
	env := newEnv(t, 3, nil)
	env.create(t, "crypt-of-echoes")
	env.create(t, "sunken-keep")
	env.create(t, "abyssal-spire")
	env.mgr.OnGameStateChanged("running")
	if len(env.mgr.Sessions()) != 3 {
		t.Fatalf("non-terminal state should not clean up")
	}
	env.mgr.OnGameStateChanged(GameOver)
	if len(env.mgr.Sessions()) != 0 || env.zones.Occupied() != 0 {
		t.Fatalf("game over should close every instance")
	}
	env.mgr.CleanupAll()
}

// eventType matches events of one type.
type eventType game.EventType

func (e eventType) Matches(x any) bool {
	ev, ok := x.(game.Event)
	return ok && ev.Type == game.EventType(e)
}

func (e eventType) String() string { return "event of type " + string(e) }

func TestSessionListBroadcastOnCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	msgs := mocks.NewMockMessenger(ctrl)
	env := newEnv(t, 2, msgs)

	msgs.EXPECT().Send(game.PlayerID("p1"), eventType(game.EventSessionList)).Times(1)
	env.world.SpawnPlayer("p1")

	msgs.EXPECT().Send(game.PlayerID("p1"), eventType(game.EventSessionList)).
		Do(func(_ game.PlayerID, ev game.Event) {
			rows := ev.Payload.([]game.SessionInfo)
			if len(rows) != 1 || rows[0].DefinitionID != "crypt-of-echoes" {
				t.Errorf("unexpected session list %+v", rows)
			}
		}).Times(1)
	env.create(t, "crypt-of-echoes")
}

func TestCreateExhaustedTellsRequester(t *testing.T) {
	ctrl := gomock.NewController(t)
	msgs := mocks.NewMockMessenger(ctrl)
	env := newEnv(t, 1, msgs)
	env.create(t, "crypt-of-echoes")

	msgs.EXPECT().Send(game.PlayerID("p3"), eventType(game.EventRejected)).
		Do(func(_ game.PlayerID, ev game.Event) {
			if ev.Key != "error.zone_exhausted" {
				t.Errorf("unexpected key %q", ev.Key)
			}
		})
	if _, err := env.mgr.CreateInstance(context.Background(), "sunken-keep", "p3"); !errors.Is(err, game.ErrZoneExhausted) {
		t.Fatalf("expected ErrZoneExhausted, got %v", err)
	}
}

func TestCreateRejectsMapLargerThanZone(t *testing.T) {
	huge := &game.DungeonDefinition{
		ID: "colossus", Name: "Colossus", Kind: game.KindSimple,
		Map: &game.MapDefinition{
			ID: "colossus", Width: 100, Height: 10, CellSize: 64,
			EntryPoints: []game.GridPos{{X: 1, Y: 1}},
		},
	}
	ctrl := gomock.NewController(t)
	msgs := mocks.NewMockMessenger(ctrl)
	env := newEnv(t, 2, msgs, huge)

	msgs.EXPECT().Send(game.PlayerID("p1"), eventType(game.EventRejected)).
		Do(func(_ game.PlayerID, ev game.Event) {
			if ev.Key != "error.map_too_large" {
				t.Errorf("unexpected key %q", ev.Key)
			}
		})
	_, err := env.mgr.CreateInstance(context.Background(), "colossus", "p1")
	if !errors.Is(err, game.ErrMapTooLarge) {
		t.Fatalf("expected ErrMapTooLarge, got %v", err)
	}
	if env.zones.Occupied() != 0 || env.world.EntityCount() != 0 {
		t.Fatalf("failed create left a zone or entities behind")
	}
}
