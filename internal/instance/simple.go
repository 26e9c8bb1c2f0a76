package instance

import (
	"go.uber.org/zap"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/room"
)

// Simple is a single map driven entirely by its triggers.
type Simple struct {
	*core
	run *mapRun
}

func (s *Simple) Initialize() error {
	if s.run != nil {
		return nil
	}
	if err := s.checkFit(s.def.Map, s.zone.Bounds.Width()); err != nil {
		return err
	}
	run, err := s.buildMap(s.def.Map, s.zone.Center, s.tuning().TriggerPoll, s.complete)
	if err != nil {
		return err
	}
	s.run = run
	return nil
}

func (s *Simple) Start() {
	if s.run == nil || !s.begin() {
		return
	}
	s.broadcast(game.Status("instance.start", s.def.Name))
	s.run.start()
}

func (s *Simple) complete() {
	if s.state != Running {
		return
	}
	s.run.engine.Stop()
	s.stats.RoomsCompleted++
	s.finishRun(true)
}

func (s *Simple) OnUnitKilled(victim, _ game.ActorID) {
	if s.state != Running || s.run == nil {
		return
	}
	if s.run.credit(victim) {
		s.stats.Kills++
		if room.Classify(s.run.owned[victim]) == room.TierBoss {
			s.stats.BossesDefeated++
		}
	}
}

func (s *Simple) OnPlayerDeath(p game.PlayerID) {
	if s.state != Running || !s.members.Has(p) {
		return
	}
	s.stats.Deaths++
	s.log.Info("player died", zap.String("player", string(p)))
	s.routeDeadPlayer(p)
}

func (s *Simple) memberRemoved(game.PlayerID) {}

func (s *Simple) currentEntries() []game.Vec3 {
	if s.run == nil {
		return nil
	}
	return s.run.entries
}

func (s *Simple) teardown() {
	if s.run != nil {
		s.run.teardown()
	}
}
