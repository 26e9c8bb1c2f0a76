package world

import (
	"math"
	"time"

	"go.uber.org/zap"

	"CoopDungeons/internal/game"
)

const (
	PlayerMaxHP  = 100.0
	MonsterHP    = 60.0
	EliteHP      = 180.0
	BossHP       = 600.0
	StrikeDamage = 40.0
	StrikeReach  = 96.0
)

// KillListener observes every unit death. killer is zero when unknown.
type KillListener func(victim, killer game.ActorID)

// SpawnListener observes player units being created or restored.
type SpawnListener func(player game.PlayerID, unit game.ActorID)

// World holds every entity of the shared map. All methods run on the
// world-update goroutine.
type World struct {
	ents    *store
	clock   game.Clock
	home    game.Vec3
	units   map[game.PlayerID]game.ActorID
	onKill  []KillListener
	onSpawn []SpawnListener
	log     *zap.Logger
}

func New(home game.Vec3, clock game.Clock, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		ents:  newStore(),
		clock: clock,
		home:  home,
		units: make(map[game.PlayerID]game.ActorID),
		log:   log,
	}
}

func (w *World) Home() game.Vec3 { return w.home }

func (w *World) now() time.Duration {
	if w.clock == nil {
		return 0
	}
	return w.clock.Now()
}

func (w *World) OnKill(fn KillListener)           { w.onKill = append(w.onKill, fn) }
func (w *World) OnPlayerSpawned(fn SpawnListener) { w.onSpawn = append(w.onSpawn, fn) }

// SpawnPlayer creates the player's unit at home, or returns the existing one.
func (w *World) SpawnPlayer(player game.PlayerID) game.ActorID {
	if id, ok := w.units[player]; ok && w.ents.Exists(id) {
		return id
	}
	id := w.ents.NewEntity()
	w.ents.SetComponent(id, compTransform, &Transform{Pos: w.home})
	w.ents.SetComponent(id, compHealth, &Health{HP: PlayerMaxHP, Max: PlayerMaxHP})
	w.ents.SetComponent(id, compPlayer, &PlayerComponent{Player: player})
	w.units[player] = id
	w.log.Debug("player unit spawned", zap.String("player", string(player)), zap.Int64("unit", int64(id)))
	for _, fn := range w.onSpawn {
		fn(player, id)
	}
	return id
}

// RemovePlayer deletes the player's unit, e.g. after a disconnect.
func (w *World) RemovePlayer(player game.PlayerID) {
	if id, ok := w.units[player]; ok {
		w.ents.RemoveEntity(id)
		delete(w.units, player)
	}
}

func (w *World) UnitOf(player game.PlayerID) (game.ActorID, bool) {
	id, ok := w.units[player]
	if !ok || !w.ents.Exists(id) {
		return 0, false
	}
	return id, true
}

// PlayerOf resolves the player controlling unit.
func (w *World) PlayerOf(unit game.ActorID) (game.PlayerID, bool) {
	if pc := w.ents.player(unit); pc != nil {
		return pc.Player, true
	}
	return "", false
}

func (w *World) Alive(id game.ActorID) bool {
	h := w.ents.health(id)
	return h != nil && h.HP > 0
}

func (w *World) Position(id game.ActorID) (game.Vec3, bool) {
	if tr := w.ents.transform(id); tr != nil {
		return tr.Pos, true
	}
	return game.Vec3{}, false
}

func (w *World) Health(id game.ActorID) (float64, bool) {
	if h := w.ents.health(id); h != nil {
		return h.HP, true
	}
	return 0, false
}

func (w *World) Teleport(id game.ActorID, pos game.Vec3) bool {
	tr := w.ents.transform(id)
	if tr == nil {
		return false
	}
	tr.Pos = pos
	return true
}

// Move walks the player's unit to pos. Stunned or dead units do not move.
func (w *World) Move(player game.PlayerID, pos game.Vec3) bool {
	id, ok := w.UnitOf(player)
	if !ok || !w.Alive(id) || w.HasStatus(id, game.StatusStun) {
		return false
	}
	return w.Teleport(id, pos)
}

// Respawn restores the player's unit to full health at home.
func (w *World) Respawn(player game.PlayerID) (game.ActorID, bool) {
	id, ok := w.UnitOf(player)
	if !ok {
		return w.SpawnPlayer(player), true
	}
	if h := w.ents.health(id); h != nil {
		h.HP = h.Max
	}
	w.Teleport(id, w.home)
	for _, fn := range w.onSpawn {
		fn(player, id)
	}
	return id, true
}

func (w *World) ApplyStatus(id game.ActorID, status string, d time.Duration) {
	if !w.ents.Exists(id) {
		return
	}
	st := w.ents.status(id)
	if st == nil {
		st = &StatusComponent{Until: make(map[string]time.Duration)}
		w.ents.SetComponent(id, compStatus, st)
	}
	until := w.now() + d
	if until > st.Until[status] {
		st.Until[status] = until
	}
}

func (w *World) HasStatus(id game.ActorID, status string) bool {
	st := w.ents.status(id)
	if st == nil {
		return false
	}
	return w.now() < st.Until[status]
}

// Remove deletes any entity. Removing a player unit unlinks it from its player.
func (w *World) Remove(id game.ActorID) {
	if pc := w.ents.player(id); pc != nil {
		delete(w.units, pc.Player)
	}
	w.ents.RemoveEntity(id)
}

// Damage hurts victim and kills it when health runs out.
func (w *World) Damage(victim, killer game.ActorID, amount float64) bool {
	h := w.ents.health(victim)
	if h == nil || h.HP <= 0 {
		return false
	}
	h.HP -= amount
	if h.HP > 0 {
		return false
	}
	return w.Kill(victim, killer)
}

// Kill drops victim to zero health and notifies kill listeners. Monsters are
// removed afterwards; player units stay down until respawned.
func (w *World) Kill(victim, killer game.ActorID) bool {
	h := w.ents.health(victim)
	if h == nil || h.HP <= 0 {
		return false
	}
	h.HP = 0
	for _, fn := range w.onKill {
		fn(victim, killer)
	}
	if !w.IsPlayerControlled(victim) {
		w.ents.RemoveEntity(victim)
	}
	return true
}

// Strike hits the monster nearest to the player's unit within reach.
func (w *World) Strike(player game.PlayerID) (game.ActorID, bool) {
	unit, ok := w.UnitOf(player)
	if !ok || !w.Alive(unit) || w.HasStatus(unit, game.StatusStun) {
		return 0, false
	}
	pos, _ := w.Position(unit)
	target, best := game.ActorID(0), math.MaxFloat64
	w.ents.ForEach([]ComponentKey{compActor, compTransform}, func(id game.ActorID) {
		if !w.Alive(id) {
			return
		}
		d := game.PlanarDist(pos, w.ents.transform(id).Pos)
		if d <= StrikeReach && (d < best || d == best && id < target) {
			target, best = id, d
		}
	})
	if target == 0 {
		return 0, false
	}
	w.Damage(target, unit, StrikeDamage)
	return target, true
}

func (w *World) EntitiesWithin(center game.Vec3, radius float64) []game.ActorID {
	var out []game.ActorID
	w.ents.ForEach([]ComponentKey{compTransform}, func(id game.ActorID) {
		if game.PlanarDist(center, w.ents.transform(id).Pos) <= radius {
			out = append(out, id)
		}
	})
	return out
}

func (w *World) IsPlayerControlled(id game.ActorID) bool {
	return w.ents.HasComponent(id, compPlayer)
}

func (w *World) Exists(id game.ActorID) bool { return w.ents.Exists(id) }

// Monsters lists every living spawned actor.
func (w *World) Monsters() []game.ActorHandle {
	var out []game.ActorHandle
	w.ents.ForEach([]ComponentKey{compActor}, func(id game.ActorID) {
		if !w.Alive(id) {
			return
		}
		a := w.ents.actor(id)
		out = append(out, game.ActorHandle{ID: id, Name: a.Name, Type: a.Type, Group: a.Group})
	})
	return out
}

// EntityCount is the number of live entities of any kind.
func (w *World) EntityCount() int {
	n := 0
	w.ents.ForEach([]ComponentKey{compTransform}, func(game.ActorID) { n++ })
	return n
}
