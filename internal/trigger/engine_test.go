package trigger

import (
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/game/mocks"
	"CoopDungeons/internal/sched"
)

type firing struct {
	id     string
	player game.PlayerID
}

func gridResolver(p game.GridPos) game.Vec3 {
	return game.Vec3{X: float64(p.X) * 100, Y: float64(p.Y) * 100, Z: 500}
}

func newEngine(units game.UnitDirectory, clock game.Clock, defs ...game.TriggerDef) (*Engine, *[]firing) {
	var got []firing
	e := New(Config{
		Triggers: defs,
		Resolve:  gridResolver,
		Units:    units,
		Members:  func() []game.PlayerID { return []game.PlayerID{"p1"} },
		Clock:    clock,
		Fire: func(def game.TriggerDef, player game.PlayerID) {
			got = append(got, firing{def.ID, player})
		},
	})
	return e, &got
}

func TestEnterTriggerUsesPlanarDistance(t *testing.T) {
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitDirectory(ctrl)
	units.EXPECT().UnitOf(game.PlayerID("p1")).Return(game.ActorID(7), true).AnyTimes()
	units.EXPECT().Alive(game.ActorID(7)).Return(true).AnyTimes()
	// far below the trigger vertically but inside its planar radius
	units.EXPECT().Position(game.ActorID(7)).Return(game.Vec3{X: 130, Y: 100, Z: -900}, true).AnyTimes()

	e, got := newEngine(units, nil, game.TriggerDef{ID: "door", Grid: game.GridPos{X: 1, Y: 1}, Radius: 50, On: game.TriggerOnEnter, OneTime: true})
	e.PollEnter()
	e.PollEnter()
	if len(*got) != 1 || (*got)[0] != (firing{"door", "p1"}) {
		t.Fatalf("expected one firing by p1, got %v", *got)
	}
	if !e.Fired("door") {
		t.Fatalf("one-time trigger not recorded")
	}
}

func TestEnterTriggerIgnoresDeadUnits(t *testing.T) {
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitDirectory(ctrl)
	units.EXPECT().UnitOf(gomock.Any()).Return(game.ActorID(7), true).AnyTimes()
	units.EXPECT().Alive(game.ActorID(7)).Return(false).AnyTimes()

	e, got := newEngine(units, nil, game.TriggerDef{ID: "door", Grid: game.GridPos{X: 1, Y: 1}, Radius: 50, On: game.TriggerOnEnter})
	e.PollEnter()
	if len(*got) != 0 {
		t.Fatalf("dead unit tripped trigger: %v", *got)
	}
}

func TestRepeatingEnterTriggerCooldown(t *testing.T) {
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitDirectory(ctrl)
	units.EXPECT().UnitOf(gomock.Any()).Return(game.ActorID(7), true).AnyTimes()
	units.EXPECT().Alive(gomock.Any()).Return(true).AnyTimes()
	units.EXPECT().Position(gomock.Any()).Return(game.Vec3{X: 100, Y: 100}, true).AnyTimes()

	loop := sched.NewLoop(nil)
	e, got := newEngine(units, loop, game.TriggerDef{ID: "shrine", Grid: game.GridPos{X: 1, Y: 1}, Radius: 10, On: game.TriggerOnEnter, Action: "message:shrine"})
	e.Start(loop)
	loop.Advance(2 * time.Second)
	if len(*got) != 1 {
		t.Fatalf("expected a single firing within the cooldown, got %d", len(*got))
	}
	loop.Advance(2 * time.Second)
	if len(*got) != 2 {
		t.Fatalf("expected a second firing after the cooldown, got %d", len(*got))
	}
	e.Stop()
	loop.Advance(10 * time.Second)
	if len(*got) != 2 {
		t.Fatalf("engine kept polling after Stop")
	}
}

func TestKillTriggerNeedsBoundGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitDirectory(ctrl)
	alive := map[game.ActorID]bool{1: true, 2: true}
	units.EXPECT().Alive(gomock.Any()).DoAndReturn(func(id game.ActorID) bool { return alive[id] }).AnyTimes()

	e, got := newEngine(units, nil, game.TriggerDef{ID: "cleared", On: game.TriggerOnKill, Group: "hall", Action: game.ActionCompleteSession, OneTime: true})
	e.PollKill()
	if len(*got) != 0 {
		t.Fatalf("unbound kill trigger fired")
	}

	e.BindGroup("hall", []game.ActorID{1, 2})
	alive[1] = false
	e.PollKill()
	if len(*got) != 0 {
		t.Fatalf("kill trigger fired with a survivor")
	}
	delete(alive, 2) // invalid reference counts as dead
	e.PollKill()
	e.PollKill()
	if len(*got) != 1 || (*got)[0].id != "cleared" {
		t.Fatalf("expected exactly one kill firing, got %v", *got)
	}
}

func TestFireCallbackMayStopEngine(t *testing.T) {
	ctrl := gomock.NewController(t)
	units := mocks.NewMockUnitDirectory(ctrl)
	units.EXPECT().Alive(gomock.Any()).Return(false).AnyTimes()

	var e *Engine
	fired := 0
	e = New(Config{
		Triggers: []game.TriggerDef{
			{ID: "a", On: game.TriggerOnKill, Group: "g", OneTime: true},
			{ID: "b", On: game.TriggerOnKill, Group: "g", OneTime: true},
		},
		Units: units,
		Fire: func(game.TriggerDef, game.PlayerID) {
			fired++
			e.Stop()
		},
	})
	e.BindGroup("g", []game.ActorID{1})
	e.PollKill()
	if fired != 1 {
		t.Fatalf("engine kept firing after being stopped, fired=%d", fired)
	}
}
