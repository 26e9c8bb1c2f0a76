package world

import (
	"math"
	"strings"
	"time"

	"CoopDungeons/internal/game"
)

const (
	AggroRadius  = 480.0
	AttackReach  = 56.0
	MonsterSpeed = 140.0 // units per second
	MonsterDPS   = 6.0
	EliteDPS     = 12.0
	BossDPS      = 24.0
)

func tierStats(name string) (hp, dps float64) {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "boss"):
		return BossHP, BossDPS
	case strings.Contains(name, "elite"):
		return EliteHP, EliteDPS
	default:
		return MonsterHP, MonsterDPS
	}
}

// Step advances monster behaviour: chase the nearest living player unit in
// aggro range and hit it once in reach.
func (w *World) Step(dt time.Duration) {
	secs := dt.Seconds()
	if secs <= 0 {
		return
	}
	var players []game.ActorID
	w.ents.ForEach([]ComponentKey{compPlayer, compTransform}, func(id game.ActorID) {
		if w.Alive(id) {
			players = append(players, id)
		}
	})
	if len(players) == 0 {
		return
	}
	var monsters []game.ActorID
	w.ents.ForEach([]ComponentKey{compActor, compTransform}, func(id game.ActorID) {
		if w.Alive(id) {
			monsters = append(monsters, id)
		}
	})
	for _, id := range monsters {
		if !w.Alive(id) || w.HasStatus(id, game.StatusStun) {
			continue
		}
		self := w.ents.transform(id)
		target, best := game.ActorID(0), math.MaxFloat64
		for _, p := range players {
			if !w.Alive(p) {
				continue
			}
			if d := game.PlanarDist(self.Pos, w.ents.transform(p).Pos); d < best {
				target, best = p, d
			}
		}
		if target == 0 || best > AggroRadius {
			continue
		}
		if best <= AttackReach {
			_, dps := tierStats(w.ents.actor(id).Type)
			w.Damage(target, id, dps*secs)
			continue
		}
		dir := w.ents.transform(target).Pos.Planar().Sub(self.Pos.Planar())
		step := math.Min(MonsterSpeed*secs, best-AttackReach)
		move := dir.Scale(step / dir.Len())
		self.Pos = self.Pos.Add(game.Vec3{X: move.X, Y: move.Y})
	}
}
