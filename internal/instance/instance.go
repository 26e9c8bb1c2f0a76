// Package instance runs one dungeon session inside an allocated zone. The
// three dungeon kinds share membership, statistics and the end-of-run
// routing; they differ in how the map is driven.
package instance

import (
	"slices"
	"time"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/timestamppb"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/reward"
	"CoopDungeons/internal/zone"
)

//go:generate go tool mockgen -destination=./mocks/host_mock.go -package=mocks . Host

type State int

const (
	Created State = iota
	Running
	Completed
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "created"
	}
}

// Finished reports whether the run has ended and no player may enter.
func (s State) Finished() bool { return s == Completed || s == Failed || s == Closed }

// LeaveReason says why a player is leaving an instance.
type LeaveReason string

const (
	LeaveManual     LeaveReason = "manual"
	LeaveComplete   LeaveReason = "complete"
	LeaveDeath      LeaveReason = "death"
	LeaveDisconnect LeaveReason = "disconnect"
)

// Host is the session manager as seen from an instance.
type Host interface {
	// LeaveInstance routes player out of its instance. It reports whether
	// the player was a member.
	LeaveInstance(player game.PlayerID, reason LeaveReason) bool
	// InstanceFinished asks the host to clean up and release the instance.
	InstanceFinished(id game.InstanceID)
}

// Scope is a scheduler whose timers can all be cancelled at once.
type Scope interface {
	game.Scheduler
	CancelAll()
}

type Deps struct {
	Units     game.UnitDirectory
	Builders  game.BuilderFactory
	Sched     Scope
	Clock     game.Clock
	Messenger game.Messenger
	Host      Host
	Rewards   reward.Config
	Tuning    game.Tuning
	Log       *zap.Logger
	// WallClock stamps reward summaries. Defaults to time.Now.
	WallClock func() time.Time
}

// Instance is one running dungeon session.
type Instance interface {
	ID() game.InstanceID
	Kind() game.DungeonKind
	Definition() *game.DungeonDefinition
	Zone() zone.Zone
	State() State

	Members() []game.PlayerID
	HasMember(player game.PlayerID) bool
	AddMember(player game.PlayerID) bool
	RemoveMember(player game.PlayerID) bool
	MemberCount() int
	// EntryPoint is where player should be placed in the current map.
	EntryPoint(player game.PlayerID) game.Vec3

	// Initialize builds the first map. It must succeed before Start.
	Initialize() error
	Start()
	Cleanup()

	OnUnitKilled(victim, killer game.ActorID)
	OnPlayerDeath(player game.PlayerID)
	Vote(player game.PlayerID, roomID string) error
	Interact(player game.PlayerID) error

	Stats() game.RunStats
	Summary() game.SessionInfo
}

// New constructs the instance kind named by def.
func New(id game.InstanceID, def *game.DungeonDefinition, z zone.Zone, deps Deps) (Instance, error) {
	if def == nil {
		return nil, game.ErrDefinitionNotFound
	}
	c := newCore(id, def, z, deps)
	switch def.Kind {
	case game.KindSimple:
		s := &Simple{core: c}
		c.hooks = s
		return s, nil
	case game.KindMultiStage:
		m := &MultiStage{core: c}
		c.hooks = m
		return m, nil
	case game.KindRoguelike:
		r := &Roguelike{core: c}
		c.hooks = r
		return r, nil
	default:
		return nil, game.ErrNotSupported.WithMetadata("kind", string(def.Kind))
	}
}

// hooks lets a kind react to membership changes and teardown.
type hooks interface {
	memberRemoved(player game.PlayerID)
	teardown()
	currentEntries() []game.Vec3
}

// RewardSummary is the payload broadcast when a run ends.
type RewardSummary struct {
	InstanceID game.InstanceID        `json:"instanceId"`
	Dungeon    string                 `json:"dungeon"`
	Completed  bool                   `json:"completed"`
	Stats      game.RunStats          `json:"stats"`
	Reward     reward.Breakdown       `json:"reward"`
	ElapsedS   float64                `json:"elapsedS"`
	FinishedAt *timestamppb.Timestamp `json:"finishedAt"`
}

type core struct {
	id    game.InstanceID
	def   *game.DungeonDefinition
	zone  zone.Zone
	deps  Deps
	log   *zap.Logger
	hooks hooks

	state   State
	members mapset.Set[game.PlayerID]
	order   []game.PlayerID
	stats   game.RunStats
	routing game.Timer
}

func newCore(id game.InstanceID, def *game.DungeonDefinition, z zone.Zone, deps Deps) *core {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.WallClock == nil {
		deps.WallClock = time.Now
	}
	deps.Tuning = game.SanitizeTuning(deps.Tuning)
	return &core{
		id:      id,
		def:     def,
		zone:    z,
		deps:    deps,
		members: mapset.New[game.PlayerID](),
		log: deps.Log.With(
			zap.String("instance", string(id)),
			zap.String("dungeon", def.ID),
			zap.Int("zone", z.ID),
		),
	}
}

func (c *core) ID() game.InstanceID                 { return c.id }
func (c *core) Kind() game.DungeonKind              { return c.def.Kind }
func (c *core) Definition() *game.DungeonDefinition { return c.def }
func (c *core) Zone() zone.Zone                     { return c.zone }
func (c *core) State() State                        { return c.state }
func (c *core) MemberCount() int                    { return c.members.Size() }

func (c *core) HasMember(p game.PlayerID) bool { return c.members.Has(p) }

// Members returns the members in join order.
func (c *core) Members() []game.PlayerID {
	return slices.Clone(c.order)
}

func (c *core) AddMember(p game.PlayerID) bool {
	if c.members.Has(p) {
		return false
	}
	c.members.Put(p)
	c.order = append(c.order, p)
	return true
}

func (c *core) RemoveMember(p game.PlayerID) bool {
	if !c.members.Has(p) {
		return false
	}
	c.members.Remove(p)
	c.order = slices.DeleteFunc(c.order, func(o game.PlayerID) bool { return o == p })
	if c.hooks != nil {
		c.hooks.memberRemoved(p)
	}
	return true
}

func (c *core) EntryPoint(p game.PlayerID) game.Vec3 {
	var entries []game.Vec3
	if c.hooks != nil {
		entries = c.hooks.currentEntries()
	}
	if len(entries) == 0 {
		return c.zone.Center
	}
	idx := slices.Index(c.order, p)
	if idx < 0 {
		idx = len(c.order)
	}
	return entries[idx%len(entries)]
}

func (c *core) Stats() game.RunStats { return c.stats }

func (c *core) Summary() game.SessionInfo {
	return game.SessionInfo{
		ID:           c.id,
		DefinitionID: c.def.ID,
		Name:         c.def.Name,
		Kind:         string(c.def.Kind),
		State:        c.state.String(),
		Members:      c.members.Size(),
		MaxPlayers:   c.def.Capacity(),
		Zone:         c.zone.ID,
	}
}

func (c *core) now() time.Duration {
	if c.deps.Clock == nil {
		return 0
	}
	return c.deps.Clock.Now()
}

func (c *core) tuning() game.Tuning { return c.deps.Tuning }

// checkFit rejects a map that, centred in a slot of the given width, would
// reach past the zone bounds.
func (c *core) checkFit(def *game.MapDefinition, width float64) error {
	ext := def.Extent()
	if ext.X > width || ext.Y > c.zone.Bounds.Height() {
		return game.ErrMapTooLarge.WithMetadata("map", def.ID)
	}
	return nil
}

func (c *core) broadcast(ev game.Event) {
	game.Broadcast(c.deps.Messenger, c.order, ev)
}

// begin moves a created instance to running. It reports false when the
// instance already started or has finished.
func (c *core) begin() bool {
	if c.state != Created {
		return false
	}
	c.state = Running
	c.stats.StartedAt = c.now()
	c.log.Info("instance started", zap.Int("members", c.members.Size()))
	return true
}

// Interact is unsupported unless a kind overrides it.
func (c *core) Interact(game.PlayerID) error {
	return game.ErrNotSupported
}

// Vote is unsupported unless a kind overrides it.
func (c *core) Vote(game.PlayerID, string) error {
	return game.ErrNotSupported
}

// finishRun ends the run, announces the outcome and routes every member out
// after the configured delay.
func (c *core) finishRun(completed bool) {
	if c.state != Running {
		return
	}
	if completed {
		c.state = Completed
	} else {
		c.state = Failed
	}
	c.stats.Completed = completed
	c.stats.EndedAt = c.now()

	breakdown := reward.Calculate(c.stats, c.deps.Rewards.Override(c.def.Reward))
	c.broadcast(game.Event{
		Type: game.EventRewardSummary,
		Key:  c.outcomeKey(),
		Args: []any{c.def.Name, breakdown.Total},
		Payload: RewardSummary{
			InstanceID: c.id,
			Dungeon:    c.def.Name,
			Completed:  completed,
			Stats:      c.stats,
			Reward:     breakdown,
			ElapsedS:   c.stats.Elapsed().Seconds(),
			FinishedAt: timestamppb.New(c.deps.WallClock()),
		},
	})
	c.log.Info("instance finished",
		zap.Bool("completed", completed),
		zap.Int("kills", c.stats.Kills),
		zap.Int("deaths", c.stats.Deaths),
		zap.Int("reward", breakdown.Total),
	)

	delay := c.tuning().FinishRouteDelay
	if !completed {
		delay = c.tuning().FailRouteDelay
	}
	c.routing = c.deps.Sched.After(delay, c.routeOut)
}

func (c *core) outcomeKey() string {
	if c.stats.Completed {
		return "reward.complete"
	}
	return "reward.failed"
}

// routeOut sends every member home and asks the host to release the
// instance.
func (c *core) routeOut() {
	for _, p := range c.Members() {
		if unit, ok := c.deps.Units.UnitOf(p); !ok || !c.deps.Units.Alive(unit) {
			c.deps.Units.Respawn(p)
		}
		if c.deps.Host != nil {
			c.deps.Host.LeaveInstance(p, LeaveComplete)
		} else {
			c.RemoveMember(p)
		}
	}
	if c.deps.Host != nil {
		c.deps.Host.InstanceFinished(c.id)
	}
}

// routeDeadPlayer respawns a dead member at home and removes it from the
// run, unless it already left.
func (c *core) routeDeadPlayer(p game.PlayerID) {
	c.deps.Sched.After(c.tuning().DeathRouteDelay, func() {
		if !c.members.Has(p) || c.state == Closed {
			return
		}
		c.deps.Units.Respawn(p)
		if c.deps.Host != nil {
			c.deps.Host.LeaveInstance(p, LeaveDeath)
		} else {
			c.RemoveMember(p)
		}
	})
}

// Cleanup tears the instance down. Safe to call more than once.
func (c *core) Cleanup() {
	if c.state == Closed {
		return
	}
	c.state = Closed
	if c.hooks != nil {
		c.hooks.teardown()
	}
	if c.deps.Sched != nil {
		c.deps.Sched.CancelAll()
	}
	c.log.Info("instance cleaned up")
}
