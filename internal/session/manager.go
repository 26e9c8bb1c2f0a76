// Package session is the instance registry: it creates dungeon instances in
// free zones, moves players in and out of them and tears them down.
//
// A Manager is not safe for concurrent use. Every method must run on the
// world-update goroutine (the sched.Loop); network handlers Post to it.
package session

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/instance"
	"CoopDungeons/internal/reward"
	"CoopDungeons/internal/sched"
	"CoopDungeons/internal/zone"
)

// GameOver is the game state that ends every session.
const GameOver = "game_over"

type Options struct {
	Catalog   *game.Catalog
	Zones     *zone.Pool
	Units     game.UnitDirectory
	Builders  game.BuilderFactory
	Messenger game.Messenger
	Tuning    game.Tuning
	Rewards   reward.Config
	// Home is where players are placed when they leave an instance.
	Home   game.Vec3
	Log    *zap.Logger
	Tracer trace.Tracer
	NewID  func() game.InstanceID
}

type entry struct {
	inst       instance.Instance
	scope      *sched.Scope
	started    bool
	emptyCheck game.Timer
}

type Manager struct {
	loop      *sched.Loop
	opts      Options
	log       *zap.Logger
	tracer    trace.Tracer
	instances map[game.InstanceID]*entry
	players   map[game.PlayerID]game.InstanceID
	online    mapset.Set[game.PlayerID]
}

func NewManager(loop *sched.Loop, opts Options) *Manager {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("CoopDungeons/session")
	}
	if opts.NewID == nil {
		opts.NewID = func() game.InstanceID { return game.InstanceID(uuid.NewString()) }
	}
	if opts.Rewards == (reward.Config{}) {
		opts.Rewards = reward.DefaultConfig()
	}
	opts.Tuning = game.SanitizeTuning(opts.Tuning)
	return &Manager{
		loop:      loop,
		opts:      opts,
		log:       opts.Log.Named("session"),
		tracer:    opts.Tracer,
		instances: make(map[game.InstanceID]*entry),
		players:   make(map[game.PlayerID]game.InstanceID),
		online:    mapset.New[game.PlayerID](),
	}
}

func (m *Manager) send(p game.PlayerID, ev game.Event) {
	if m.opts.Messenger != nil && p != "" {
		m.opts.Messenger.Send(p, ev)
	}
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// CreateInstance builds a new instance of the named definition in a free
// zone. The instance waits for its first entrant; if nobody enters within
// the join grace it is reaped.
func (m *Manager) CreateInstance(ctx context.Context, definitionID string, requester game.PlayerID) (game.InstanceID, error) {
	_, span := m.tracer.Start(ctx, "session.create", trace.WithAttributes(
		attribute.String("definition", definitionID),
		attribute.String("player", string(requester)),
	))
	defer span.End()

	def, err := m.opts.Catalog.Get(definitionID)
	if err != nil {
		m.log.Warn("create rejected", zap.String("definition", definitionID), zap.Error(err))
		return "", failSpan(span, err)
	}
	id := m.opts.NewID()
	z, err := m.opts.Zones.Allocate(id)
	if err != nil {
		m.log.Warn("create rejected",
			zap.String("definition", definitionID),
			zap.String("player", string(requester)),
			zap.Error(err),
		)
		m.rejectCreate(requester, definitionID, err)
		return "", failSpan(span, err)
	}
	scope := m.loop.NewScope()
	inst, err := instance.New(id, def, z, instance.Deps{
		Units:     m.opts.Units,
		Builders:  m.opts.Builders,
		Sched:     scope,
		Clock:     m.loop,
		Messenger: m.opts.Messenger,
		Host:      m,
		Rewards:   m.opts.Rewards,
		Tuning:    m.opts.Tuning,
		Log:       m.log,
	})
	if err != nil {
		scope.CancelAll()
		m.opts.Zones.Release(z.ID)
		return "", failSpan(span, err)
	}
	if err := inst.Initialize(); err != nil {
		inst.Cleanup()
		m.opts.Zones.Release(z.ID)
		m.log.Error("instance initialize failed", zap.String("instance", string(id)), zap.Error(err))
		m.rejectCreate(requester, definitionID, err)
		return "", failSpan(span, fmt.Errorf("initialize %s: %w", def.ID, err))
	}

	e := &entry{inst: inst, scope: scope}
	m.instances[id] = e
	scope.After(m.opts.Tuning.JoinGrace, func() { m.reapUnentered(id, e) })

	span.SetAttributes(attribute.String("instance", string(id)), attribute.Int("zone", z.ID))
	m.log.Info("instance created",
		zap.String("instance", string(id)),
		zap.String("definition", def.ID),
		zap.String("kind", string(def.Kind)),
		zap.Int("zone", z.ID),
		zap.String("player", string(requester)),
	)
	m.BroadcastSessionList()
	return id, nil
}

// rejectCreate tells requester that no zone can hold the session. Other
// create failures are left to the caller.
func (m *Manager) rejectCreate(requester game.PlayerID, definitionID string, err error) {
	if game.CodeOf(err) != game.CodeResourceExhausted {
		return
	}
	ev := game.Rejected(game.KeyOf(err))
	ev.Payload = map[string]any{
		"definitionId": definitionID,
		"code":         string(game.CodeResourceExhausted),
	}
	m.send(requester, ev)
}

func (m *Manager) reapUnentered(id game.InstanceID, e *entry) {
	if m.instances[id] != e || e.started || e.inst.MemberCount() > 0 {
		return
	}
	m.log.Info("reaping unentered instance", zap.String("instance", string(id)))
	m.Cleanup(id)
}

// EnterInstance makes player a member of id at once, then moves the unit in
// after the entry delay if the player is still mapped to id.
func (m *Manager) EnterInstance(ctx context.Context, player game.PlayerID, id game.InstanceID) error {
	_, span := m.tracer.Start(ctx, "session.enter", trace.WithAttributes(
		attribute.String("instance", string(id)),
		attribute.String("player", string(player)),
	))
	defer span.End()

	e, ok := m.instances[id]
	if !ok {
		return failSpan(span, game.ErrInstanceNotFound.WithMetadata("id", string(id)))
	}
	if e.inst.State().Finished() {
		return failSpan(span, game.ErrInstanceFinished)
	}
	if cur, ok := m.players[player]; ok && cur == id {
		return nil
	}
	def := e.inst.Definition()
	if e.inst.MemberCount() >= def.Capacity() {
		return failSpan(span, game.ErrInstanceFull.WithMetadata("max", fmt.Sprint(def.Capacity())))
	}
	unit, ok := m.opts.Units.UnitOf(player)
	if !ok {
		return failSpan(span, game.ErrStale.WithMetadata("player", string(player)))
	}
	if _, ok := m.players[player]; ok {
		m.LeaveInstance(player, instance.LeaveManual)
	}

	e.inst.AddMember(player)
	m.players[player] = id
	m.opts.Units.ApplyStatus(unit, game.StatusStun, m.opts.Tuning.EntryStun)
	m.send(player, game.Status("session.entering", def.Name))
	e.scope.After(m.opts.Tuning.EnterDelay, func() { m.completeEntry(player, id, e) })

	m.log.Info("player entering",
		zap.String("instance", string(id)),
		zap.String("player", string(player)),
		zap.Int("members", e.inst.MemberCount()),
	)
	m.BroadcastSessionList()
	return nil
}

func (m *Manager) completeEntry(player game.PlayerID, id game.InstanceID, e *entry) {
	if cur, ok := m.players[player]; !ok || cur != id || m.instances[id] != e || !e.inst.HasMember(player) {
		m.log.Debug("entry abandoned", zap.String("instance", string(id)), zap.String("player", string(player)))
		return
	}
	unit, ok := m.opts.Units.UnitOf(player)
	if !ok {
		return
	}
	m.opts.Units.Teleport(unit, e.inst.EntryPoint(player))
	if !e.started {
		e.started = true
		e.inst.Start()
	}
	m.send(player, game.Status("session.entered", e.inst.Definition().Name))
}

// LeaveInstance removes player from its instance and sends the unit home. An
// instance left empty is torn down after the empty grace unless someone
// rejoins first.
func (m *Manager) LeaveInstance(player game.PlayerID, reason instance.LeaveReason) bool {
	id, ok := m.players[player]
	if !ok {
		return false
	}
	delete(m.players, player)
	if unit, ok := m.opts.Units.UnitOf(player); ok {
		m.opts.Units.Teleport(unit, m.opts.Home)
	}
	m.send(player, game.Status("session.left_"+string(reason)))

	e, ok := m.instances[id]
	if !ok {
		return true
	}
	e.inst.RemoveMember(player)
	m.log.Info("player left",
		zap.String("instance", string(id)),
		zap.String("player", string(player)),
		zap.String("reason", string(reason)),
		zap.Int("members", e.inst.MemberCount()),
	)
	if e.inst.MemberCount() == 0 {
		if e.emptyCheck != nil {
			e.emptyCheck.Stop()
		}
		e.emptyCheck = e.scope.After(m.opts.Tuning.EmptyGrace, func() { m.checkEmpty(id, e) })
	}
	m.BroadcastSessionList()
	return true
}

func (m *Manager) checkEmpty(id game.InstanceID, e *entry) {
	if m.instances[id] != e || e.inst.MemberCount() > 0 {
		return
	}
	m.log.Info("instance empty", zap.String("instance", string(id)))
	m.Cleanup(id)
}

// InstanceFinished releases an instance whose run has ended.
func (m *Manager) InstanceFinished(id game.InstanceID) {
	m.Cleanup(id)
}

// Cleanup tears down id and frees its zone. It reports false when id is not
// registered, so calling it twice is harmless.
func (m *Manager) Cleanup(id game.InstanceID) bool {
	e, ok := m.instances[id]
	if !ok {
		return false
	}
	delete(m.instances, id)
	for _, p := range e.inst.Members() {
		if m.players[p] != id {
			continue
		}
		delete(m.players, p)
		if unit, ok := m.opts.Units.UnitOf(p); ok {
			m.opts.Units.Teleport(unit, m.opts.Home)
		}
	}
	e.inst.Cleanup()
	e.scope.CancelAll()
	m.opts.Zones.Release(e.inst.Zone().ID)
	m.log.Info("instance cleaned up", zap.String("instance", string(id)), zap.Int("zone", e.inst.Zone().ID))
	m.BroadcastSessionList()
	return true
}

func (m *Manager) CleanupAll() {
	ids := make([]game.InstanceID, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		m.Cleanup(id)
	}
}

func (m *Manager) memberEntry(player game.PlayerID) (*entry, error) {
	id, ok := m.players[player]
	if !ok {
		return nil, game.ErrNotMember
	}
	e, ok := m.instances[id]
	if !ok {
		return nil, game.ErrInstanceNotFound.WithMetadata("id", string(id))
	}
	return e, nil
}

// Vote forwards a branch vote. id must be the player's current instance.
func (m *Manager) Vote(player game.PlayerID, id game.InstanceID, roomID string) error {
	e, err := m.memberEntry(player)
	if err != nil {
		return err
	}
	if id != "" && e.inst.ID() != id {
		return game.ErrNotMember.WithMetadata("instance", string(id))
	}
	return e.inst.Vote(player, roomID)
}

func (m *Manager) Interact(player game.PlayerID) error {
	e, err := m.memberEntry(player)
	if err != nil {
		return err
	}
	return e.inst.Interact(player)
}

// InstanceOf returns the instance player belongs to.
func (m *Manager) InstanceOf(player game.PlayerID) (instance.Instance, bool) {
	e, err := m.memberEntry(player)
	if err != nil {
		return nil, false
	}
	return e.inst, true
}

func (m *Manager) Instance(id game.InstanceID) (instance.Instance, bool) {
	e, ok := m.instances[id]
	if !ok {
		return nil, false
	}
	return e.inst, true
}

// Sessions lists every registered instance ordered by zone.
func (m *Manager) Sessions() []game.SessionInfo {
	out := make([]game.SessionInfo, 0, len(m.instances))
	for _, e := range m.instances {
		out = append(out, e.inst.Summary())
	}
	slices.SortFunc(out, func(a, b game.SessionInfo) int {
		if a.Zone != b.Zone {
			return a.Zone - b.Zone
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

// Definitions lists the dungeons players may create.
func (m *Manager) Definitions() []string {
	return m.opts.Catalog.IDs()
}

func (m *Manager) sessionList() game.Event {
	return game.Event{Type: game.EventSessionList, Key: "session.list", Args: []any{len(m.instances)}, Payload: m.Sessions()}
}

// SendSessionList sends the current list to one player.
func (m *Manager) SendSessionList(player game.PlayerID) {
	m.send(player, m.sessionList())
}

// BroadcastSessionList sends the current list to every online player.
func (m *Manager) BroadcastSessionList() {
	if m.opts.Messenger == nil || m.online.Size() == 0 {
		return
	}
	ev := m.sessionList()
	var players []game.PlayerID
	m.online.Each(func(p game.PlayerID) { players = append(players, p) })
	slices.Sort(players)
	game.Broadcast(m.opts.Messenger, players, ev)
}

// OnUnitKilled routes a world kill. Player units become member deaths; any
// other victim is offered to every instance, which credit only their own.
func (m *Manager) OnUnitKilled(victim, killer game.ActorID) {
	for p, id := range m.players {
		unit, ok := m.opts.Units.UnitOf(p)
		if !ok || unit != victim {
			continue
		}
		if e, ok := m.instances[id]; ok {
			e.inst.OnPlayerDeath(p)
		}
		return
	}
	for _, e := range m.snapshot() {
		e.inst.OnUnitKilled(victim, killer)
	}
}

func (m *Manager) snapshot() []*entry {
	out := make([]*entry, 0, len(m.instances))
	for _, e := range m.instances {
		out = append(out, e)
	}
	return out
}

func (m *Manager) OnPlayerDisconnected(player game.PlayerID) {
	m.LeaveInstance(player, instance.LeaveDisconnect)
	m.online.Remove(player)
}

// OnPlayerUnitSpawned registers the player for session-list updates. A unit
// restored while its player is inside a running instance is moved back to
// the instance entry.
func (m *Manager) OnPlayerUnitSpawned(player game.PlayerID, unit game.ActorID) {
	if !m.online.Has(player) {
		m.online.Put(player)
		m.SendSessionList(player)
	}
	id, ok := m.players[player]
	if !ok {
		return
	}
	if e, ok := m.instances[id]; ok && e.started && e.inst.State() == instance.Running {
		m.opts.Units.Teleport(unit, e.inst.EntryPoint(player))
	}
}

// OnGameStateChanged ends every session when the game is over.
func (m *Manager) OnGameStateChanged(state string) {
	if state != GameOver {
		return
	}
	m.log.Info("game over, closing all instances", zap.Int("instances", len(m.instances)))
	m.CleanupAll()
}
