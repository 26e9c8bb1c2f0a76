package room

import (
	"strings"

	"go.uber.org/zap"

	"CoopDungeons/internal/game"
)

// ScoreRoom spawns waves until the party earns RequiredScore points.
type ScoreRoom struct {
	*base
	score      int
	completing bool
	waves      game.Timer
}

func (r *ScoreRoom) Score() int { return r.score }

func (r *ScoreRoom) begin() {
	r.spawnWave()
	r.waves = r.env.Sched.Every(r.def.WaveInterval(), func() {
		if r.state == InProgress && !r.completing {
			r.spawnWave()
		}
	})
	r.timers = append(r.timers, r.waves)
}

func (r *ScoreRoom) update() { r.checkScore() }

func (r *ScoreRoom) onKill(h game.ActorHandle) {
	pts := Points(r.def.Points, h)
	r.score += pts
	r.stats.Score += pts
	r.broadcast(game.Progress("room.score", r.score, r.def.RequiredScore))
	r.checkScore()
}

func (r *ScoreRoom) onPlayerDeath(game.PlayerID) {}

func (r *ScoreRoom) onSpawn([]game.ActorHandle) {}

func (r *ScoreRoom) checkScore() {
	if r.completing || r.score < r.def.RequiredScore {
		return
	}
	r.completing = true
	if r.waves != nil {
		r.waves.Stop()
	}
	r.log.Debug("score threshold reached", zap.Int("score", r.score))
	r.after(r.env.Tuning.ScoreCompleteDelay, r.Complete)
}

// ClearRoom spawns its monster set once and completes when none survive and
// no ambush is still waiting to be sprung.
type ClearRoom struct {
	*base
	total  int
	killed int
}

func (r *ClearRoom) Total() int  { return r.total }
func (r *ClearRoom) Killed() int { return r.killed }

func (r *ClearRoom) begin() {
	r.total = r.spawnAll()
	if r.total == 0 && !r.pendingAmbush() {
		r.log.Warn("clear room spawned nothing; it cannot complete")
	}
}

func (r *ClearRoom) update() { r.check() }

func (r *ClearRoom) onKill(game.ActorHandle) {
	r.killed++
	r.broadcast(game.Progress("room.clear_progress", r.killed, r.total))
	r.check()
}

func (r *ClearRoom) onPlayerDeath(game.PlayerID) {}

func (r *ClearRoom) onSpawn(handles []game.ActorHandle) {
	r.total += len(handles)
}

func (r *ClearRoom) check() {
	if r.total > 0 && r.aliveOwned() == 0 && !r.pendingAmbush() {
		r.Complete()
	}
}

// SurvivalRoom keeps at least one member alive until Duration elapses.
type SurvivalRoom struct {
	*base
}

func (r *SurvivalRoom) Remaining() int {
	left := r.def.Duration() - (r.now() - r.stats.StartedAt)
	return game.Seconds(left)
}

func (r *SurvivalRoom) begin() {
	r.spawnWave()
	r.every(r.def.WaveInterval(), func() {
		if r.def.MaxAlive <= 0 || r.aliveOwned() < r.def.MaxAlive {
			r.spawnWave()
		}
	})
	r.every(r.env.Tuning.SurvivalAnnounceEvery, func() {
		if left := r.Remaining(); left > 0 {
			r.broadcast(game.Progress("room.survival_remaining", left))
		}
	})
}

func (r *SurvivalRoom) update() {
	if !r.membersAlive() {
		r.Fail("room.fail_wiped")
		return
	}
	if r.now()-r.stats.StartedAt >= r.def.Duration() {
		r.Complete()
	}
}

func (r *SurvivalRoom) onKill(game.ActorHandle) {}

func (r *SurvivalRoom) onSpawn([]game.ActorHandle) {}

func (r *SurvivalRoom) onPlayerDeath(game.PlayerID) {
	if !r.membersAlive() {
		r.Fail("room.fail_wiped")
	}
}

// BossRoom completes when its boss falls.
type BossRoom struct {
	*base
	boss    game.ActorHandle
	hasBoss bool
}

// Boss returns the tracked boss actor.
func (r *BossRoom) Boss() (game.ActorHandle, bool) { return r.boss, r.hasBoss }

func (r *BossRoom) begin() {
	r.spawnAll()
	r.boss, r.hasBoss = pickBoss(r.spawned)
	if !r.hasBoss {
		if !r.pendingAmbush() {
			r.log.Warn("boss room spawned nothing")
		}
		return
	}
	r.broadcast(game.Status("room.boss_appears", r.boss.Name))
}

func (r *BossRoom) onSpawn(handles []game.ActorHandle) {
	if r.hasBoss {
		return
	}
	if r.boss, r.hasBoss = pickBoss(handles); r.hasBoss {
		r.broadcast(game.Status("room.boss_appears", r.boss.Name))
	}
}

func pickBoss(spawned []game.ActorHandle) (game.ActorHandle, bool) {
	for _, h := range spawned {
		name := strings.ToLower(h.Name + " " + h.Type)
		if strings.Contains(name, "boss") || strings.Contains(name, "hero") {
			return h, true
		}
	}
	if len(spawned) > 0 {
		return spawned[0], true
	}
	return game.ActorHandle{}, false
}

func (r *BossRoom) update() {
	if !r.membersAlive() {
		r.Fail("room.fail_wiped")
		return
	}
	if r.hasBoss && !r.env.Units.Alive(r.boss.ID) {
		r.defeat()
	}
}

func (r *BossRoom) onKill(h game.ActorHandle) {
	if r.hasBoss && h.ID == r.boss.ID {
		r.defeat()
	}
}

func (r *BossRoom) onPlayerDeath(game.PlayerID) {
	if !r.membersAlive() {
		r.Fail("room.fail_wiped")
	}
}

func (r *BossRoom) defeat() {
	if r.state != InProgress {
		return
	}
	r.stats.BossesDefeated++
	r.Complete()
}
