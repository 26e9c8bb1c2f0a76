package game

import "time"

// RunStats accumulates per-session statistics. Room controllers mutate their
// own copy while running; instances merge them as rooms finish.
type RunStats struct {
	Kills          int           `json:"kills"`
	Deaths         int           `json:"deaths"`
	RoomsCompleted int           `json:"roomsCompleted"`
	Score          int           `json:"score"`
	BossesDefeated int           `json:"bossesDefeated"`
	Completed      bool          `json:"completed"`
	StartedAt      time.Duration `json:"startedAt"`
	EndedAt        time.Duration `json:"endedAt,omitempty"`
}

// Merge folds a finished room's counters into s.
func (s *RunStats) Merge(o RunStats) {
	s.Kills += o.Kills
	s.Deaths += o.Deaths
	s.RoomsCompleted += o.RoomsCompleted
	s.Score += o.Score
	s.BossesDefeated += o.BossesDefeated
}

// Elapsed is the run length, or zero while still running.
func (s RunStats) Elapsed() time.Duration {
	if s.EndedAt <= s.StartedAt {
		return 0
	}
	return s.EndedAt - s.StartedAt
}
