package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"CoopDungeons/internal/game"
	"CoopDungeons/internal/reward"
	"CoopDungeons/internal/zone"
)

// EnvPrefix namespaces every environment variable the server reads.
const EnvPrefix = "COOP_DUNGEONS_"

// AppConfig is the process configuration. Values come from the environment
// first; main.go lets flags override them.
type AppConfig struct {
	Addr         string  `env:"ADDR" envDefault:":8080"`
	LogLevel     string  `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string  `env:"LOG_FORMAT" envDefault:"console"`
	ZoneCols     int     `env:"ZONE_COLS" envDefault:"4"`
	ZoneRows     int     `env:"ZONE_ROWS" envDefault:"2"`
	ZoneSize     float64 `env:"ZONE_SIZE" envDefault:"4096"`
	OtelEndpoint string  `env:"OTEL_ENDPOINT"`
	TuningFile   string  `env:"TUNING_FILE" envDefault:"configs/tuning.json"`
	DungeonsFile string  `env:"DUNGEONS_FILE" envDefault:"configs/dungeons.json"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Addr:         ":8080",
		LogLevel:     "info",
		LogFormat:    "console",
		ZoneCols:     4,
		ZoneRows:     2,
		ZoneSize:     4096,
		TuningFile:   "configs/tuning.json",
		DungeonsFile: "configs/dungeons.json",
	}
}

// LoadConfig reads AppConfig from COOP_DUNGEONS_* variables.
func LoadConfig() (AppConfig, error) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return DefaultAppConfig(), fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Layout cuts ZoneCols×ZoneRows square zones starting at the origin.
func (c AppConfig) Layout() zone.Layout {
	cols, rows, size := c.ZoneCols, c.ZoneRows, c.ZoneSize
	if cols <= 0 || rows <= 0 || size <= 0 {
		return zone.DefaultLayout()
	}
	return zone.Layout{
		Region: game.Rect{MaxX: float64(cols) * size, MaxY: float64(rows) * size},
		Cols:   cols,
		Rows:   rows,
	}
}

// Home is the overworld spot players return to, outside every zone.
func (c AppConfig) Home() game.Vec3 {
	size := c.ZoneSize
	if size <= 0 {
		size = 4096
	}
	return game.Vec3{X: -size / 2, Y: -size / 2}
}

// Settings are the gameplay values resolved from the tuning file.
type Settings struct {
	Tuning  game.Tuning
	Rewards reward.Config
}

func DefaultSettings() Settings {
	return Settings{Tuning: game.DefaultTuning(), Rewards: reward.DefaultConfig()}
}

// Timings in the tuning file are seconds.
type timingConfig struct {
	RoomTick              *float64 `json:"roomTick"`
	TriggerPoll           *float64 `json:"triggerPoll"`
	EnterTriggerPoll      *float64 `json:"enterTriggerPoll"`
	EnterTriggerCooldown  *float64 `json:"enterTriggerCooldown"`
	EnterDelay            *float64 `json:"enterDelay"`
	EntryStun             *float64 `json:"entryStun"`
	EmptyGrace            *float64 `json:"emptyGrace"`
	JoinGrace             *float64 `json:"joinGrace"`
	ScoreCompleteDelay    *float64 `json:"scoreCompleteDelay"`
	SurvivalAnnounceEvery *float64 `json:"survivalAnnounceEvery"`
	ChannelDuration       *float64 `json:"channelDuration"`
	ChannelPoll           *float64 `json:"channelPoll"`
	DeathRouteDelay       *float64 `json:"deathRouteDelay"`
	FinishRouteDelay      *float64 `json:"finishRouteDelay"`
	FailRouteDelay        *float64 `json:"failRouteDelay"`
}

type distanceConfig struct {
	ChannelTolerance *float64 `json:"channelTolerance"`
	PortalRadius     *float64 `json:"portalRadius"`
	StageOffset      *float64 `json:"stageOffset"`
}

type rewardConfig struct {
	Base         *int `json:"base"`
	PerRoom      *int `json:"perRoom"`
	PerBoss      *int `json:"perBoss"`
	PerfectClear *int `json:"perfectClear"`
	PerKill      *int `json:"perKill"`
	MaxKillBonus *int `json:"maxKillBonus"`
}

type tuningConfig struct {
	Timings   *timingConfig   `json:"timings"`
	Distances *distanceConfig `json:"distances"`
	Rewards   *rewardConfig   `json:"rewards"`
}

func setSeconds(dst *time.Duration, secs *float64) {
	if secs != nil {
		*dst = time.Duration(*secs * float64(time.Second))
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func mergeTuningConfig(base Settings, cfg tuningConfig) Settings {
	if t := cfg.Timings; t != nil {
		setSeconds(&base.Tuning.RoomTick, t.RoomTick)
		setSeconds(&base.Tuning.TriggerPoll, t.TriggerPoll)
		setSeconds(&base.Tuning.EnterTriggerPoll, t.EnterTriggerPoll)
		setSeconds(&base.Tuning.EnterTriggerCooldown, t.EnterTriggerCooldown)
		setSeconds(&base.Tuning.EnterDelay, t.EnterDelay)
		setSeconds(&base.Tuning.EntryStun, t.EntryStun)
		setSeconds(&base.Tuning.EmptyGrace, t.EmptyGrace)
		setSeconds(&base.Tuning.JoinGrace, t.JoinGrace)
		setSeconds(&base.Tuning.ScoreCompleteDelay, t.ScoreCompleteDelay)
		setSeconds(&base.Tuning.SurvivalAnnounceEvery, t.SurvivalAnnounceEvery)
		setSeconds(&base.Tuning.ChannelDuration, t.ChannelDuration)
		setSeconds(&base.Tuning.ChannelPoll, t.ChannelPoll)
		setSeconds(&base.Tuning.DeathRouteDelay, t.DeathRouteDelay)
		setSeconds(&base.Tuning.FinishRouteDelay, t.FinishRouteDelay)
		setSeconds(&base.Tuning.FailRouteDelay, t.FailRouteDelay)
	}
	if d := cfg.Distances; d != nil {
		setFloat(&base.Tuning.ChannelTolerance, d.ChannelTolerance)
		setFloat(&base.Tuning.PortalRadius, d.PortalRadius)
		setFloat(&base.Tuning.StageOffset, d.StageOffset)
	}
	if r := cfg.Rewards; r != nil {
		setInt(&base.Rewards.Base, r.Base)
		setInt(&base.Rewards.PerRoom, r.PerRoom)
		setInt(&base.Rewards.PerBoss, r.PerBoss)
		setInt(&base.Rewards.PerfectClear, r.PerfectClear)
		setInt(&base.Rewards.PerKill, r.PerKill)
		setInt(&base.Rewards.MaxKillBonus, r.MaxKillBonus)
	}
	return sanitizeSettings(base)
}

func sanitizeSettings(s Settings) Settings {
	s.Tuning = game.SanitizeTuning(s.Tuning)
	fix := func(v *int) {
		if *v < 0 {
			*v = 0
		}
	}
	fix(&s.Rewards.Base)
	fix(&s.Rewards.PerRoom)
	fix(&s.Rewards.PerBoss)
	fix(&s.Rewards.PerfectClear)
	fix(&s.Rewards.PerKill)
	fix(&s.Rewards.MaxKillBonus)
	return s
}

// loadSettingsFromFile merges the tuning file at path over base. A missing
// file is not an error.
func loadSettingsFromFile(path string, base Settings) (Settings, error) {
	if path == "" {
		return sanitizeSettings(base), nil
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return sanitizeSettings(base), nil
		}
		return sanitizeSettings(base), fmt.Errorf("read tuning config %q: %w", cleanPath, err)
	}
	var cfg tuningConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return sanitizeSettings(base), fmt.Errorf("parse tuning config %q: %w", cleanPath, err)
	}
	return mergeTuningConfig(base, cfg), nil
}

// TuningOverrides are optional command-line overrides applied after the
// tuning file.
type TuningOverrides struct {
	EnterDelay      *time.Duration
	EmptyGrace      *time.Duration
	JoinGrace       *time.Duration
	ChannelDuration *time.Duration
	PortalRadius    *float64
	RewardBase      *int
	RewardPerRoom   *int
	RewardPerBoss   *int
}

func (o TuningOverrides) apply(base Settings) Settings {
	if o.EnterDelay != nil {
		base.Tuning.EnterDelay = *o.EnterDelay
	}
	if o.EmptyGrace != nil {
		base.Tuning.EmptyGrace = *o.EmptyGrace
	}
	if o.JoinGrace != nil {
		base.Tuning.JoinGrace = *o.JoinGrace
	}
	if o.ChannelDuration != nil {
		base.Tuning.ChannelDuration = *o.ChannelDuration
	}
	if o.PortalRadius != nil {
		base.Tuning.PortalRadius = *o.PortalRadius
	}
	if o.RewardBase != nil {
		base.Rewards.Base = *o.RewardBase
	}
	if o.RewardPerRoom != nil {
		base.Rewards.PerRoom = *o.RewardPerRoom
	}
	if o.RewardPerBoss != nil {
		base.Rewards.PerBoss = *o.RewardPerBoss
	}
	return sanitizeSettings(base)
}
