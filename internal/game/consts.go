package game

import "time"

const (
	SimHz                 = 20.0 // scheduler tick rate
	Dt                    = time.Second / time.Duration(SimHz)
	RoomTick              = 100 * time.Millisecond
	TriggerPoll           = 500 * time.Millisecond
	EnterTriggerPoll      = 250 * time.Millisecond
	EnterTriggerCooldown  = 3 * time.Second
	EnterDelay            = 1500 * time.Millisecond
	EntryStun             = 1500 * time.Millisecond
	EmptyGrace            = 5 * time.Second
	JoinGrace             = 60 * time.Second
	ScoreCompleteDelay    = time.Second
	SurvivalAnnounceEvery = 5 * time.Second
	ChannelDuration       = 2 * time.Second
	ChannelPoll           = 250 * time.Millisecond
	ChannelTolerance      = 64.0 // units a channeling unit may drift
	PortalRadius          = 192.0
	StageOffset           = 1280.0 // spacing between stage origins inside a zone
	DeathRouteDelay       = 3 * time.Second
	FinishRouteDelay      = 5 * time.Second
	FailRouteDelay        = 3 * time.Second
	DefaultMaxPlayers     = 4
	DefaultCellSize       = 64.0
)

// StatusStun is the incapacitation applied while a player is moved into an instance.
const StatusStun = "stun"

// Tuning collects the timings the core uses. Every field has a default from
// the constants above; the server may override them from its tuning file.
type Tuning struct {
	RoomTick              time.Duration
	TriggerPoll           time.Duration
	EnterTriggerPoll      time.Duration
	EnterTriggerCooldown  time.Duration
	EnterDelay            time.Duration
	EntryStun             time.Duration
	EmptyGrace            time.Duration
	JoinGrace             time.Duration
	ScoreCompleteDelay    time.Duration
	SurvivalAnnounceEvery time.Duration
	ChannelDuration       time.Duration
	ChannelPoll           time.Duration
	ChannelTolerance      float64
	PortalRadius          float64
	StageOffset           float64
	DeathRouteDelay       time.Duration
	FinishRouteDelay      time.Duration
	FailRouteDelay        time.Duration
}

func DefaultTuning() Tuning {
	return Tuning{
		RoomTick:              RoomTick,
		TriggerPoll:           TriggerPoll,
		EnterTriggerPoll:      EnterTriggerPoll,
		EnterTriggerCooldown:  EnterTriggerCooldown,
		EnterDelay:            EnterDelay,
		EntryStun:             EntryStun,
		EmptyGrace:            EmptyGrace,
		JoinGrace:             JoinGrace,
		ScoreCompleteDelay:    ScoreCompleteDelay,
		SurvivalAnnounceEvery: SurvivalAnnounceEvery,
		ChannelDuration:       ChannelDuration,
		ChannelPoll:           ChannelPoll,
		ChannelTolerance:      ChannelTolerance,
		PortalRadius:          PortalRadius,
		StageOffset:           StageOffset,
		DeathRouteDelay:       DeathRouteDelay,
		FinishRouteDelay:      FinishRouteDelay,
		FailRouteDelay:        FailRouteDelay,
	}
}

// SanitizeTuning replaces non-positive values with their defaults.
func SanitizeTuning(t Tuning) Tuning {
	d := DefaultTuning()
	fixDur := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fixF := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fixDur(&t.RoomTick, d.RoomTick)
	fixDur(&t.TriggerPoll, d.TriggerPoll)
	fixDur(&t.EnterTriggerPoll, d.EnterTriggerPoll)
	fixDur(&t.EnterTriggerCooldown, d.EnterTriggerCooldown)
	fixDur(&t.EnterDelay, d.EnterDelay)
	fixDur(&t.EntryStun, d.EntryStun)
	fixDur(&t.EmptyGrace, d.EmptyGrace)
	fixDur(&t.JoinGrace, d.JoinGrace)
	fixDur(&t.ScoreCompleteDelay, d.ScoreCompleteDelay)
	fixDur(&t.SurvivalAnnounceEvery, d.SurvivalAnnounceEvery)
	fixDur(&t.ChannelDuration, d.ChannelDuration)
	fixDur(&t.ChannelPoll, d.ChannelPoll)
	fixF(&t.ChannelTolerance, d.ChannelTolerance)
	fixF(&t.PortalRadius, d.PortalRadius)
	fixF(&t.StageOffset, d.StageOffset)
	fixDur(&t.DeathRouteDelay, d.DeathRouteDelay)
	fixDur(&t.FinishRouteDelay, d.FinishRouteDelay)
	fixDur(&t.FailRouteDelay, d.FailRouteDelay)
	return t
}
