package instance

import (
	"fmt"
	"time"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/trigger"
)

// mapRun is one built, trigger-driven map: the simple dungeon's only map or
// the current stage of a multi-stage dungeon.
type mapRun struct {
	c        *core
	def      *game.MapDefinition
	builder  game.WorldBuilder
	engine   *trigger.Engine
	entries  []game.Vec3
	owned    map[game.ActorID]game.ActorHandle
	credited mapset.Set[game.ActorID]
	portal   game.ActorID

	// onComplete runs when a complete_session action fires. Nil on maps
	// that cannot end the session.
	onComplete func()
}

// buildMap paints def at origin and places its instant spawners. Triggers
// are created but not polled until start.
func (c *core) buildMap(def *game.MapDefinition, origin game.Vec3, enterPoll time.Duration, onComplete func()) (*mapRun, error) {
	if c.deps.Builders == nil {
		return nil, fmt.Errorf("instance %s: no world builder", c.id)
	}
	b := c.deps.Builders.NewBuilder()
	if err := b.Build(def, origin); err != nil {
		return nil, fmt.Errorf("build map %s: %w", def.ID, err)
	}
	m := &mapRun{
		c:          c,
		def:        def,
		builder:    b,
		owned:      make(map[game.ActorID]game.ActorHandle),
		credited:   mapset.New[game.ActorID](),
		onComplete: onComplete,
	}
	for _, p := range def.EntryPoints {
		m.entries = append(m.entries, b.GridToWorld(p))
	}
	m.engine = trigger.New(trigger.Config{
		Triggers:  def.Triggers,
		Resolve:   b.GridToWorld,
		Units:     c.deps.Units,
		Members:   c.Members,
		Clock:     c.deps.Clock,
		Fire:      m.fire,
		EnterPoll: enterPoll,
		KillPoll:  c.tuning().TriggerPoll,
		Cooldown:  c.tuning().EnterTriggerCooldown,
	})
	for _, s := range def.SpawnersByMode(game.SpawnInstant) {
		m.spawn(s)
	}
	return m, nil
}

func (m *mapRun) start() {
	m.engine.Start(m.c.deps.Sched)
}

func (m *mapRun) spawn(s game.SpawnerDef) []game.ActorHandle {
	handles := m.builder.SpawnActors(game.SpawnRequest{Spawner: s, Group: s.TriggerID})
	for _, h := range handles {
		m.owned[h.ID] = h
	}
	return handles
}

func (m *mapRun) fire(def game.TriggerDef, player game.PlayerID) {
	verb, arg := game.ParseAction(def.Action)
	log := m.c.log.With(zap.String("trigger", def.ID), zap.String("player", string(player)))
	switch verb {
	case game.ActionSpawnGroup:
		var ids []game.ActorID
		for _, s := range m.def.SpawnersFor(arg) {
			for _, h := range m.spawn(s) {
				ids = append(ids, h.ID)
			}
		}
		m.engine.BindGroup(arg, ids)
		log.Debug("trigger spawned group", zap.String("group", arg), zap.Int("actors", len(ids)))
		if len(ids) > 0 {
			m.c.broadcast(game.Status("instance.ambush"))
		}
	case game.ActionCompleteSession:
		if m.onComplete == nil {
			log.Warn("complete_session ignored outside the final map")
			return
		}
		log.Debug("trigger completed session")
		m.onComplete()
	case game.ActionMessage:
		m.c.broadcast(game.Status(arg))
	default:
		log.Warn("unknown trigger action", zap.String("action", def.Action))
	}
}

// credit records a kill of an actor this map spawned. Each actor counts once.
func (m *mapRun) credit(victim game.ActorID) bool {
	if _, ok := m.owned[victim]; !ok || m.credited.Has(victim) {
		return false
	}
	m.credited.Put(victim)
	return true
}

func (m *mapRun) teardown() {
	m.engine.Stop()
	for id := range m.owned {
		if m.c.deps.Units.Alive(id) {
			m.c.deps.Units.Remove(id)
		}
	}
	m.builder.Teardown()
}
