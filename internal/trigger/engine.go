// Package trigger detects when declared map triggers fire. It knows nothing
// about what a trigger does; the owner interprets the action.
package trigger

import (
	"time"

	"github.com/zyedidia/generic/mapset"

	"CoopDungeons/internal/game"
)

// Fire is called once per detection. player is the member whose unit tripped
// an enter trigger and is empty for kill triggers.
type Fire func(def game.TriggerDef, player game.PlayerID)

type Config struct {
	Triggers []game.TriggerDef
	Resolve  func(game.GridPos) game.Vec3
	Units    game.UnitDirectory
	Members  func() []game.PlayerID
	Clock    game.Clock
	Fire     Fire

	EnterPoll time.Duration
	KillPoll  time.Duration
	Cooldown  time.Duration // per player, for repeating enter triggers
}

type cooldownKey struct {
	trigger string
	player  game.PlayerID
}

type Engine struct {
	cfg       Config
	fired     mapset.Set[string]
	groups    map[string][]game.ActorID
	lastEnter map[cooldownKey]time.Duration
	worldPos  map[string]game.Vec3

	enterTimer game.Timer
	killTimer  game.Timer
	stopped    bool
}

func New(cfg Config) *Engine {
	if cfg.EnterPoll <= 0 {
		cfg.EnterPoll = game.EnterTriggerPoll
	}
	if cfg.KillPoll <= 0 {
		cfg.KillPoll = game.TriggerPoll
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = game.EnterTriggerCooldown
	}
	e := &Engine{
		cfg:       cfg,
		fired:     mapset.New[string](),
		groups:    make(map[string][]game.ActorID),
		lastEnter: make(map[cooldownKey]time.Duration),
		worldPos:  make(map[string]game.Vec3, len(cfg.Triggers)),
	}
	for _, t := range cfg.Triggers {
		if cfg.Resolve != nil {
			e.worldPos[t.ID] = cfg.Resolve(t.Grid)
		}
	}
	return e
}

// Start begins polling on s. Calling Start twice restarts the timers.
func (e *Engine) Start(s game.Scheduler) {
	e.stopTimers()
	e.stopped = false
	e.enterTimer = s.Every(e.cfg.EnterPoll, e.PollEnter)
	e.killTimer = s.Every(e.cfg.KillPoll, e.PollKill)
}

// Stop cancels polling. Idempotent.
func (e *Engine) Stop() {
	e.stopped = true
	e.stopTimers()
}

func (e *Engine) stopTimers() {
	if e.enterTimer != nil {
		e.enterTimer.Stop()
		e.enterTimer = nil
	}
	if e.killTimer != nil {
		e.killTimer.Stop()
		e.killTimer = nil
	}
}

// BindGroup records actors spawned for group. Kill triggers watching an
// unbound group never fire.
func (e *Engine) BindGroup(group string, actors []game.ActorID) {
	e.groups[group] = append(e.groups[group], actors...)
}

func (e *Engine) Bound(group string) bool {
	return len(e.groups[group]) > 0
}

func (e *Engine) Fired(id string) bool {
	return e.fired.Has(id)
}

func (e *Engine) PollEnter() {
	if e.stopped || e.cfg.Units == nil || e.cfg.Members == nil {
		return
	}
	members := e.cfg.Members()
	for _, def := range e.cfg.Triggers {
		if e.stopped {
			return
		}
		if def.On != game.TriggerOnEnter || (def.OneTime && e.fired.Has(def.ID)) {
			continue
		}
		center := e.worldPos[def.ID]
		for _, player := range members {
			unit, ok := e.cfg.Units.UnitOf(player)
			if !ok || !e.cfg.Units.Alive(unit) {
				continue
			}
			pos, ok := e.cfg.Units.Position(unit)
			if !ok || game.PlanarDist(pos, center) > def.Radius {
				continue
			}
			if !def.OneTime && !e.cooledDown(def.ID, player) {
				continue
			}
			e.fire(def, player)
			break
		}
	}
}

func (e *Engine) cooledDown(trigger string, player game.PlayerID) bool {
	var now time.Duration
	if e.cfg.Clock != nil {
		now = e.cfg.Clock.Now()
	}
	key := cooldownKey{trigger: trigger, player: player}
	if last, ok := e.lastEnter[key]; ok && now-last < e.cfg.Cooldown {
		return false
	}
	e.lastEnter[key] = now
	return true
}

func (e *Engine) PollKill() {
	if e.stopped || e.cfg.Units == nil {
		return
	}
	for _, def := range e.cfg.Triggers {
		if e.stopped {
			return
		}
		if def.On != game.TriggerOnKill || (def.OneTime && e.fired.Has(def.ID)) {
			continue
		}
		actors := e.groups[def.Group]
		if len(actors) == 0 || e.anyAlive(actors) {
			continue
		}
		if !def.OneTime {
			// a repeating kill trigger re-arms only on the next binding
			delete(e.groups, def.Group)
		}
		e.fire(def, "")
	}
}

func (e *Engine) anyAlive(actors []game.ActorID) bool {
	for _, id := range actors {
		if e.cfg.Units.Alive(id) {
			return true
		}
	}
	return false
}

func (e *Engine) fire(def game.TriggerDef, player game.PlayerID) {
	if def.OneTime {
		e.fired.Put(def.ID)
	}
	if e.cfg.Fire != nil {
		e.cfg.Fire(def, player)
	}
}
