// Package room implements the challenge-room state machines: a shared
// lifecycle with four goal variants selected by the room type.
package room

import (
	"strings"
	"time"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/trigger"
)

type State int

const (
	Inactive State = iota
	Preparing
	InProgress
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Preparing:
		return "preparing"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "inactive"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Completed || s == Failed }

// Controller drives one room from start to a terminal state.
type Controller interface {
	Definition() *game.RoomDefinition
	State() State
	Start()
	Complete()
	Fail(reason string)
	Cleanup()
	// OnUnitKilled reports whether the kill was credited to this room.
	OnUnitKilled(victim, killer game.ActorID) bool
	OnPlayerDeath(player game.PlayerID)
	Stats() game.RunStats
	Spawned() []game.ActorHandle
}

// Env carries the collaborators a controller needs. Builder must already
// hold the room's map.
type Env struct {
	Units     game.UnitDirectory
	Builder   game.WorldBuilder
	Sched     game.Scheduler
	Clock     game.Clock
	Messenger game.Messenger
	Members   func() []game.PlayerID
	Log       *zap.Logger
	OnFinish  func(Controller)
	Tuning    game.Tuning
}

// New builds the controller matching def.Type. The controller starts in
// Preparing.
func New(def *game.RoomDefinition, env Env) (Controller, error) {
	if def == nil {
		return nil, game.ErrRoomNotFound
	}
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	if env.Members == nil {
		env.Members = func() []game.PlayerID { return nil }
	}
	env.Tuning = game.SanitizeTuning(env.Tuning)
	b := &base{
		def:      def,
		env:      env,
		state:    Preparing,
		owned:    make(map[game.ActorID]game.ActorHandle),
		credited: mapset.New[game.ActorID](),
		log:      env.Log.With(zap.String("room", def.ID), zap.String("type", string(def.Type))),
	}
	var c Controller
	switch def.Type {
	case game.RoomScore:
		r := &ScoreRoom{base: b}
		b.variant, c = r, r
	case game.RoomClear:
		r := &ClearRoom{base: b}
		b.variant, c = r, r
	case game.RoomSurvival:
		r := &SurvivalRoom{base: b}
		b.variant, c = r, r
	case game.RoomBoss:
		r := &BossRoom{base: b}
		b.variant, c = r, r
	default:
		return nil, game.ErrUnknownRoomType.WithMetadata("type", string(def.Type))
	}
	b.self = c
	if def.Map != nil && len(def.Map.Triggers) > 0 && env.Builder != nil {
		b.triggers = trigger.New(trigger.Config{
			Triggers:  def.Map.Triggers,
			Resolve:   env.Builder.GridToWorld,
			Units:     env.Units,
			Members:   env.Members,
			Clock:     env.Clock,
			Fire:      b.fire,
			EnterPoll: env.Tuning.EnterTriggerPoll,
			KillPoll:  env.Tuning.TriggerPoll,
			Cooldown:  env.Tuning.EnterTriggerCooldown,
		})
	}
	return c, nil
}

// variant is the per-type behaviour plugged into base.
type variant interface {
	begin()
	update()
	onKill(h game.ActorHandle)
	onPlayerDeath(player game.PlayerID)
	// onSpawn sees actors released by a trigger after begin.
	onSpawn(handles []game.ActorHandle)
}

type base struct {
	def     *game.RoomDefinition
	env     Env
	log     *zap.Logger
	variant variant
	self    Controller

	state    State
	spawned  []game.ActorHandle
	owned    map[game.ActorID]game.ActorHandle
	credited mapset.Set[game.ActorID]
	stats    game.RunStats
	triggers *trigger.Engine

	tick     game.Timer
	timers   []game.Timer
	finished bool
	cleaned  bool
}

func (b *base) Definition() *game.RoomDefinition { return b.def }
func (b *base) State() State                     { return b.state }

func (b *base) Stats() game.RunStats { return b.stats }

func (b *base) Spawned() []game.ActorHandle {
	out := make([]game.ActorHandle, len(b.spawned))
	copy(out, b.spawned)
	return out
}

func (b *base) now() time.Duration {
	if b.env.Clock == nil {
		return 0
	}
	return b.env.Clock.Now()
}

func (b *base) Start() {
	if b.state != Preparing {
		return
	}
	b.state = InProgress
	b.stats.StartedAt = b.now()
	b.broadcast(game.Status("room.start", b.def.Name, b.def.Goal))
	b.log.Info("room started", zap.Int("members", len(b.env.Members())))
	b.tick = b.env.Sched.Every(b.env.Tuning.RoomTick, func() {
		if b.state == InProgress {
			b.variant.update()
		}
	})
	b.variant.begin()
	if b.triggers != nil && b.state == InProgress {
		b.triggers.Start(b.env.Sched)
	}
}

func (b *base) Complete() {
	if !b.finish(Completed) {
		return
	}
	b.stats.RoomsCompleted++
	b.broadcast(game.Status("room.complete", b.def.Name))
	b.log.Info("room completed", zap.Int("kills", b.stats.Kills), zap.Int("score", b.stats.Score))
	b.notifyFinish()
}

func (b *base) Fail(reason string) {
	if !b.finish(Failed) {
		return
	}
	if reason == "" {
		reason = "room.failed"
	}
	b.broadcast(game.Status(reason, b.def.Name))
	b.log.Info("room failed", zap.String("reason", reason))
	b.notifyFinish()
}

func (b *base) finish(to State) bool {
	if b.finished || b.state != InProgress {
		return false
	}
	b.finished = true
	b.state = to
	b.stats.EndedAt = b.now()
	b.stopTimers()
	return true
}

func (b *base) notifyFinish() {
	if b.env.OnFinish != nil {
		b.env.OnFinish(b.self)
	}
}

// Cleanup removes surviving spawned actors and stops every timer.
func (b *base) Cleanup() {
	b.stopTimers()
	if b.cleaned {
		return
	}
	b.cleaned = true
	removed := 0
	for _, h := range b.spawned {
		if b.env.Units.Alive(h.ID) {
			b.env.Units.Remove(h.ID)
			removed++
		}
	}
	if removed > 0 {
		b.log.Debug("room cleanup removed actors", zap.Int("count", removed))
	}
}

func (b *base) stopTimers() {
	if b.triggers != nil {
		b.triggers.Stop()
	}
	if b.tick != nil {
		b.tick.Stop()
		b.tick = nil
	}
	for _, t := range b.timers {
		t.Stop()
	}
	b.timers = nil
}

func (b *base) after(d time.Duration, fn func()) {
	b.timers = append(b.timers, b.env.Sched.After(d, func() {
		if b.state == InProgress {
			fn()
		}
	}))
}

func (b *base) every(d time.Duration, fn func()) {
	b.timers = append(b.timers, b.env.Sched.Every(d, func() {
		if b.state == InProgress {
			fn()
		}
	}))
}

func (b *base) OnUnitKilled(victim, killer game.ActorID) bool {
	if b.state != InProgress {
		return false
	}
	h, ok := b.owned[victim]
	if !ok || b.credited.Has(victim) {
		return false
	}
	b.credited.Put(victim)
	b.stats.Kills++
	b.variant.onKill(h)
	return true
}

func (b *base) OnPlayerDeath(player game.PlayerID) {
	if b.state != InProgress {
		return
	}
	b.stats.Deaths++
	b.variant.onPlayerDeath(player)
}

func (b *base) spawn(s game.SpawnerDef, count int) []game.ActorHandle {
	if count <= 0 {
		return nil
	}
	handles := b.env.Builder.SpawnActors(game.SpawnRequest{Spawner: s, Count: count, Group: b.def.ID})
	for _, h := range handles {
		b.spawned = append(b.spawned, h)
		b.owned[h.ID] = h
	}
	return handles
}

// fire runs the action of a room-map trigger.
func (b *base) fire(def game.TriggerDef, player game.PlayerID) {
	if b.state != InProgress {
		return
	}
	verb, arg := game.ParseAction(def.Action)
	log := b.log.With(zap.String("trigger", def.ID), zap.String("player", string(player)))
	switch verb {
	case game.ActionSpawnGroup:
		var handles []game.ActorHandle
		for _, s := range b.def.Map.SpawnersFor(arg) {
			handles = append(handles, b.spawn(s, s.Count)...)
		}
		ids := make([]game.ActorID, len(handles))
		for i, h := range handles {
			ids[i] = h.ID
		}
		b.triggers.BindGroup(arg, ids)
		log.Debug("trigger spawned group", zap.String("group", arg), zap.Int("actors", len(ids)))
		if len(handles) > 0 {
			b.broadcast(game.Status("instance.ambush"))
			b.variant.onSpawn(handles)
		}
	case game.ActionCompleteSession:
		log.Debug("trigger completed room")
		b.self.Complete()
	case game.ActionMessage:
		b.broadcast(game.Status(arg))
	default:
		log.Warn("unknown trigger action", zap.String("action", def.Action))
	}
}

// pendingAmbush reports whether a one-time spawn_group trigger that would
// release actors has not fired yet.
func (b *base) pendingAmbush() bool {
	if b.triggers == nil {
		return false
	}
	for _, t := range b.def.Map.Triggers {
		verb, arg := game.ParseAction(t.Action)
		if verb != game.ActionSpawnGroup || !t.OneTime || b.triggers.Fired(t.ID) {
			continue
		}
		if len(b.def.Map.SpawnersFor(arg)) > 0 {
			return true
		}
	}
	return false
}

// spawnAll places every instant and wave spawner once at full count.
func (b *base) spawnAll() int {
	n := 0
	for _, s := range b.def.Map.Spawners {
		if s.Mode == game.SpawnTrigger {
			continue
		}
		n += len(b.spawn(s, s.Count))
	}
	return n
}

// spawnWave places up to WaveSize actors from the wave spawners (or every
// non-trigger spawner when none is marked as wave), never exceeding MaxAlive.
func (b *base) spawnWave() int {
	spawners := b.def.Map.SpawnersByMode(game.SpawnWave)
	if len(spawners) == 0 {
		for _, s := range b.def.Map.Spawners {
			if s.Mode != game.SpawnTrigger {
				spawners = append(spawners, s)
			}
		}
	}
	budget := b.def.WaveSize
	if budget <= 0 {
		for _, s := range spawners {
			budget += s.Count
		}
	}
	if b.def.MaxAlive > 0 {
		budget = min(budget, b.def.MaxAlive-b.aliveOwned())
	}
	placed := 0
	for _, s := range spawners {
		if budget <= 0 {
			break
		}
		n := min(s.Count, budget)
		placed += len(b.spawn(s, n))
		budget -= n
	}
	return placed
}

// aliveOwned counts spawned actors still alive. Invalid handles count as dead.
func (b *base) aliveOwned() int {
	n := 0
	for _, h := range b.spawned {
		if b.env.Units.Alive(h.ID) {
			n++
		}
	}
	return n
}

func (b *base) membersAlive() bool {
	return game.MemberUnitAlive(b.env.Units, b.env.Members())
}

func (b *base) broadcast(ev game.Event) {
	game.Broadcast(b.env.Messenger, b.env.Members(), ev)
}

// Tier classifies an actor by name for point awards.
type Tier int

const (
	TierDefault Tier = iota
	TierElite
	TierBoss
)

func Classify(h game.ActorHandle) Tier {
	name := strings.ToLower(h.Name + " " + h.Type)
	switch {
	case strings.Contains(name, "boss"):
		return TierBoss
	case strings.Contains(name, "elite"):
		return TierElite
	default:
		return TierDefault
	}
}

// Points is the award for killing h under table p. Zero entries fall back
// to the default table.
func Points(p game.PointTable, h game.ActorHandle) int {
	d := game.DefaultPointTable()
	pick := func(v, fallback int) int {
		if v > 0 {
			return v
		}
		return fallback
	}
	switch Classify(h) {
	case TierBoss:
		return pick(p.Boss, d.Boss)
	case TierElite:
		return pick(p.Elite, d.Elite)
	default:
		return pick(p.Default, d.Default)
	}
}
