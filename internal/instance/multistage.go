package instance

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/room"
)

// MultiStage walks an ordered list of maps. Every stage but the last has a
// portal; any member may channel it to move the whole party on.
type MultiStage struct {
	*core
	stage   int
	run     *mapRun
	portal  game.Vec3
	channel *channel
}

// channel is an in-progress portal activation.
type channel struct {
	player  game.PlayerID
	unit    game.ActorID
	anchor  game.Vec3
	started time.Duration
	poll    game.Timer
}

// Stage is the zero-based index of the current stage.
func (m *MultiStage) Stage() int { return m.stage }

// Channeling reports who is activating the portal, if anyone.
func (m *MultiStage) Channeling() (game.PlayerID, bool) {
	if m.channel == nil {
		return "", false
	}
	return m.channel.player, true
}

// stageSlot is the width along X given to each stage: StageOffset, shrunk
// so that every stage fits across the zone.
func (m *MultiStage) stageSlot() float64 {
	return min(m.tuning().StageOffset, m.zone.Bounds.Width()/float64(len(m.def.Stages)))
}

// stageOrigin spreads stages along X, centred on the zone.
func (m *MultiStage) stageOrigin(i int) game.Vec3 {
	n := len(m.def.Stages)
	o := m.zone.Center
	o.X += (float64(i) - float64(n-1)/2) * m.stageSlot()
	return o
}

func (m *MultiStage) Initialize() error {
	if m.run != nil {
		return nil
	}
	slot := m.stageSlot()
	for i, st := range m.def.Stages {
		if err := m.checkFit(st.Map, slot); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return m.buildStage(0)
}

func (m *MultiStage) buildStage(i int) error {
	st := m.def.Stages[i]
	var onComplete func()
	if st.Final {
		onComplete = m.complete
	}
	run, err := m.buildMap(st.Map, m.stageOrigin(i), m.tuning().EnterTriggerPoll, onComplete)
	if err != nil {
		return err
	}
	m.stage = i
	m.run = run
	if !st.Final && st.Map.Portal != nil {
		run.portal = run.builder.PlaceProp("portal", *st.Map.Portal)
		m.portal = run.builder.GridToWorld(*st.Map.Portal)
	}
	return nil
}

func (m *MultiStage) Start() {
	if m.run == nil || !m.begin() {
		return
	}
	m.broadcast(game.Status("stage.enter", m.stage+1, len(m.def.Stages), m.run.def.Name))
	m.run.start()
}

func (m *MultiStage) finalStage() bool {
	return m.def.Stages[m.stage].Final
}

// Interact starts channeling the portal for player.
func (m *MultiStage) Interact(p game.PlayerID) error {
	if m.state != Running {
		return game.ErrInstanceFinished
	}
	if !m.members.Has(p) {
		return game.ErrNotMember
	}
	if m.finalStage() || m.def.Stages[m.stage].Map.Portal == nil {
		return game.ErrNotSupported.WithMetadata("reason", "no portal")
	}
	if m.channel != nil {
		if m.channel.player == p {
			return nil
		}
		return game.ErrPortalBusy.WithMetadata("channeling", string(m.channel.player))
	}
	unit, ok := m.deps.Units.UnitOf(p)
	if !ok || !m.deps.Units.Alive(unit) {
		return game.ErrStale.WithMetadata("player", string(p))
	}
	pos, ok := m.deps.Units.Position(unit)
	if !ok || game.PlanarDist(pos, m.portal) > m.tuning().PortalRadius {
		return game.ErrNotNearPortal
	}

	ch := &channel{player: p, unit: unit, anchor: pos, started: m.now()}
	ch.poll = m.deps.Sched.Every(m.tuning().ChannelPoll, func() { m.pollChannel(ch) })
	m.channel = ch
	m.broadcast(game.Status("portal.channel_start", string(p)))
	m.log.Debug("portal channel started", zap.String("player", string(p)))
	return nil
}

func (m *MultiStage) pollChannel(ch *channel) {
	if m.channel != ch || m.state != Running {
		ch.poll.Stop()
		return
	}
	if !m.members.Has(ch.player) || !m.deps.Units.Alive(ch.unit) {
		m.interrupt("portal.channel_interrupted")
		return
	}
	pos, ok := m.deps.Units.Position(ch.unit)
	if !ok || game.PlanarDist(pos, ch.anchor) > m.tuning().ChannelTolerance {
		m.interrupt("portal.channel_interrupted")
		return
	}
	if m.now()-ch.started >= m.tuning().ChannelDuration {
		m.advance()
	}
}

func (m *MultiStage) interrupt(key string) {
	ch := m.channel
	if ch == nil {
		return
	}
	ch.poll.Stop()
	m.channel = nil
	m.broadcast(game.Status(key, string(ch.player)))
}

func (m *MultiStage) stopChannel() {
	if m.channel != nil {
		m.channel.poll.Stop()
		m.channel = nil
	}
}

// advance tears down the current stage, builds the next one and moves every
// member to its entry points.
func (m *MultiStage) advance() {
	m.stopChannel()
	if m.finalStage() {
		return
	}
	next := m.stage + 1
	m.run.teardown()
	m.stats.RoomsCompleted++
	if err := m.buildStage(next); err != nil {
		m.log.Error("stage build failed", zap.Int("stage", next), zap.Error(err))
		m.finishRun(false)
		return
	}
	for _, p := range m.order {
		unit, ok := m.deps.Units.UnitOf(p)
		if !ok {
			continue
		}
		m.deps.Units.Teleport(unit, m.EntryPoint(p))
	}
	m.broadcast(game.Status("stage.enter", next+1, len(m.def.Stages), m.run.def.Name))
	m.log.Info("stage advanced", zap.Int("stage", next))
	m.run.start()
}

func (m *MultiStage) complete() {
	if m.state != Running {
		return
	}
	m.stopChannel()
	m.run.engine.Stop()
	m.stats.RoomsCompleted++
	m.finishRun(true)
}

func (m *MultiStage) OnUnitKilled(victim, _ game.ActorID) {
	if m.state != Running || m.run == nil {
		return
	}
	if m.run.credit(victim) {
		m.stats.Kills++
		if room.Classify(m.run.owned[victim]) == room.TierBoss {
			m.stats.BossesDefeated++
		}
	}
}

func (m *MultiStage) OnPlayerDeath(p game.PlayerID) {
	if m.state != Running || !m.members.Has(p) {
		return
	}
	m.stats.Deaths++
	if m.channel != nil && m.channel.player == p {
		m.interrupt("portal.channel_interrupted")
	}
	m.log.Info("player died", zap.String("player", string(p)), zap.Int("stage", m.stage))
	m.routeDeadPlayer(p)
}

func (m *MultiStage) memberRemoved(p game.PlayerID) {
	if m.channel != nil && m.channel.player == p {
		m.interrupt("portal.channel_interrupted")
	}
}

func (m *MultiStage) currentEntries() []game.Vec3 {
	if m.run == nil {
		return nil
	}
	return m.run.entries
}

func (m *MultiStage) teardown() {
	m.stopChannel()
	if m.run != nil {
		m.run.teardown()
	}
}
