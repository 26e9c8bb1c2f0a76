// Package reward turns run statistics into a reward breakdown.
package reward

import "CoopDungeons/internal/game"

// Config is the reward table. Zero values disable the matching bonus.
type Config struct {
	Base         int `json:"base"`
	PerRoom      int `json:"perRoom"`
	PerBoss      int `json:"perBoss"`
	PerfectClear int `json:"perfectClear"`
	PerKill      int `json:"perKill"`
	MaxKillBonus int `json:"maxKillBonus"` // 0 = uncapped
}

func DefaultConfig() Config {
	return Config{
		Base:         100,
		PerRoom:      50,
		PerBoss:      100,
		PerfectClear: 75,
		PerKill:      2,
		MaxKillBonus: 100,
	}
}

// Override returns c with every positive field of t applied.
func (c Config) Override(t game.RewardTable) Config {
	set := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	set(&c.Base, t.Base)
	set(&c.PerRoom, t.PerRoom)
	set(&c.PerBoss, t.PerBoss)
	set(&c.PerfectClear, t.PerfectClear)
	set(&c.PerKill, t.PerKill)
	set(&c.MaxKillBonus, t.MaxKillBonus)
	return c
}

type Breakdown struct {
	Base              int `json:"base"`
	RoomBonus         int `json:"roomBonus"`
	BossBonus         int `json:"bossBonus"`
	PerfectClearBonus int `json:"perfectClearBonus"`
	KillBonus         int `json:"killBonus"`
	Total             int `json:"total"`
}

// Calculate is pure: the same stats and config always give the same
// breakdown. An incomplete run earns nothing.
func Calculate(stats game.RunStats, cfg Config) Breakdown {
	if !stats.Completed {
		return Breakdown{}
	}
	b := Breakdown{
		Base:      max(cfg.Base, 0),
		RoomBonus: max(cfg.PerRoom*stats.RoomsCompleted, 0),
		BossBonus: max(cfg.PerBoss*stats.BossesDefeated, 0),
		KillBonus: max(cfg.PerKill*stats.Kills, 0),
	}
	if cfg.MaxKillBonus > 0 {
		b.KillBonus = min(b.KillBonus, cfg.MaxKillBonus)
	}
	if stats.Deaths == 0 {
		b.PerfectClearBonus = max(cfg.PerfectClear, 0)
	}
	b.Total = b.Base + b.RoomBonus + b.BossBonus + b.PerfectClearBonus + b.KillBonus
	return b
}
