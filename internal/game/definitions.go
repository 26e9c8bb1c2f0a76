package game

import (
	"fmt"
	"strings"
	"time"
)

// GridPos addresses a cell of a map definition.
type GridPos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type TileKind string

const (
	TileFloor TileKind = "floor"
	TileWall  TileKind = "wall"
	TileWater TileKind = "water"
	TileDoor  TileKind = "door"
)

type Tile struct {
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Kind TileKind `json:"kind"`
}

type SpawnMode string

const (
	SpawnInstant SpawnMode = "instant"
	SpawnTrigger SpawnMode = "trigger"
	SpawnWave    SpawnMode = "wave"
)

// SpawnerDef declares a group of actors placed at a grid position.
type SpawnerDef struct {
	ID        string    `json:"id"`
	Grid      GridPos   `json:"grid"`
	ActorType string    `json:"actorType"`
	Count     int       `json:"count"`
	Mode      SpawnMode `json:"mode"`
	TriggerID string    `json:"triggerId,omitempty"`
}

type TriggerEvent string

const (
	TriggerOnEnter TriggerEvent = "enter"
	TriggerOnKill  TriggerEvent = "kill"
)

// Trigger actions understood by instances.
const (
	ActionSpawnGroup      = "spawn_group"
	ActionCompleteSession = "complete_session"
	ActionMessage         = "message"
)

// TriggerDef is a declarative spatial/state condition bound to an action.
type TriggerDef struct {
	ID      string       `json:"id"`
	Grid    GridPos      `json:"grid"`
	Radius  float64      `json:"radius"`
	On      TriggerEvent `json:"on"`
	Action  string       `json:"action"`
	Group   string       `json:"group,omitempty"`
	OneTime bool         `json:"oneTime"`
}

// ParseAction splits "verb:argument" trigger actions.
func ParseAction(action string) (verb, arg string) {
	verb, arg, _ = strings.Cut(strings.TrimSpace(action), ":")
	return verb, arg
}

type Decoration struct {
	Grid  GridPos `json:"grid"`
	Model string  `json:"model"`
}

// MapDefinition is the immutable description of one buildable area.
type MapDefinition struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	CellSize    float64      `json:"cellSize"`
	Tiles       []Tile       `json:"tiles,omitempty"`
	Spawners    []SpawnerDef `json:"spawners,omitempty"`
	Triggers    []TriggerDef `json:"triggers,omitempty"`
	Decorations []Decoration `json:"decorations,omitempty"`
	EntryPoints []GridPos    `json:"entryPoints"`
	Portal      *GridPos     `json:"portal,omitempty"`
}

// SpawnersFor returns the spawners released by the named trigger group.
func (m *MapDefinition) SpawnersFor(group string) []SpawnerDef {
	var out []SpawnerDef
	for _, s := range m.Spawners {
		if s.Mode == SpawnTrigger && s.TriggerID == group {
			out = append(out, s)
		}
	}
	return out
}

// SpawnersByMode returns the spawners with the given mode.
func (m *MapDefinition) SpawnersByMode(mode SpawnMode) []SpawnerDef {
	var out []SpawnerDef
	for _, s := range m.Spawners {
		if s.Mode == mode {
			out = append(out, s)
		}
	}
	return out
}

func (m *MapDefinition) completesSession() bool {
	for _, t := range m.Triggers {
		if verb, _ := ParseAction(t.Action); verb == ActionCompleteSession {
			return true
		}
	}
	return false
}

// Extent is the world-space size of the map.
func (m *MapDefinition) Extent() Vec2 {
	return Vec2{X: float64(m.Width) * m.CellSize, Y: float64(m.Height) * m.CellSize}
}

func (m *MapDefinition) Validate() error {
	if m == nil {
		return fmt.Errorf("map definition is nil")
	}
	if m.ID == "" {
		return fmt.Errorf("map definition ID cannot be empty")
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("map %s has invalid grid %dx%d", m.ID, m.Width, m.Height)
	}
	if m.CellSize <= 0 {
		return fmt.Errorf("map %s has invalid cell size %.2f", m.ID, m.CellSize)
	}
	if len(m.EntryPoints) == 0 {
		return fmt.Errorf("map %s declares no entry points", m.ID)
	}
	inGrid := func(p GridPos) bool { return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height }
	for _, p := range m.EntryPoints {
		if !inGrid(p) {
			return fmt.Errorf("map %s entry point (%d,%d) outside grid", m.ID, p.X, p.Y)
		}
	}
	triggers := make(map[string]bool, len(m.Triggers))
	for _, t := range m.Triggers {
		if t.ID == "" {
			return fmt.Errorf("map %s has a trigger without id", m.ID)
		}
		if triggers[t.ID] {
			return fmt.Errorf("map %s has duplicate trigger %s", m.ID, t.ID)
		}
		triggers[t.ID] = true
		if t.On != TriggerOnEnter && t.On != TriggerOnKill {
			return fmt.Errorf("map %s trigger %s has unknown event %q", m.ID, t.ID, t.On)
		}
		if t.On == TriggerOnKill && t.Group == "" {
			return fmt.Errorf("map %s kill trigger %s names no group", m.ID, t.ID)
		}
	}
	for _, s := range m.Spawners {
		if s.Count <= 0 {
			return fmt.Errorf("map %s spawner %s has count %d", m.ID, s.ID, s.Count)
		}
		if !inGrid(s.Grid) {
			return fmt.Errorf("map %s spawner %s outside grid", m.ID, s.ID)
		}
		if s.Mode == SpawnTrigger && s.TriggerID == "" {
			return fmt.Errorf("map %s trigger spawner %s names no trigger", m.ID, s.ID)
		}
	}
	return nil
}

type RoomType string

const (
	RoomScore    RoomType = "score"
	RoomClear    RoomType = "clear"
	RoomSurvival RoomType = "survival"
	RoomBoss     RoomType = "boss"
)

// PointTable is the per-tier kill value used by score rooms.
type PointTable struct {
	Default int `json:"default"`
	Elite   int `json:"elite"`
	Boss    int `json:"boss"`
}

func DefaultPointTable() PointTable {
	return PointTable{Default: 10, Elite: 30, Boss: 100}
}

// RoomDefinition describes one challenge room.
type RoomDefinition struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          RoomType       `json:"type"`
	Map           *MapDefinition `json:"map"`
	Goal          string         `json:"goal"`
	RequiredScore int            `json:"requiredScore,omitempty"`
	DurationS     float64        `json:"durationS,omitempty"`
	WaveIntervalS float64        `json:"waveIntervalS,omitempty"`
	WaveSize      int            `json:"waveSize,omitempty"`
	MaxAlive      int            `json:"maxAlive,omitempty"`
	Points        PointTable     `json:"points"`
}

// DefaultWaveInterval applies when a room declares no wave interval.
const DefaultWaveInterval = 5 * time.Second

func (r *RoomDefinition) Duration() time.Duration {
	return time.Duration(r.DurationS * float64(time.Second))
}

func (r *RoomDefinition) WaveInterval() time.Duration {
	if r.WaveIntervalS <= 0 {
		return DefaultWaveInterval
	}
	return time.Duration(r.WaveIntervalS * float64(time.Second))
}

func (r *RoomDefinition) Validate() error {
	if r == nil {
		return fmt.Errorf("room definition is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("room definition ID cannot be empty")
	}
	if err := r.Map.Validate(); err != nil {
		return fmt.Errorf("room %s: %w", r.ID, err)
	}
	switch r.Type {
	case RoomScore:
		if r.RequiredScore <= 0 {
			return fmt.Errorf("score room %s needs a positive required score", r.ID)
		}
	case RoomSurvival:
		if r.DurationS <= 0 {
			return fmt.Errorf("survival room %s needs a positive duration", r.ID)
		}
	case RoomClear, RoomBoss:
	default:
		return fmt.Errorf("room %s has unknown type %q", r.ID, r.Type)
	}
	return nil
}

type DungeonKind string

const (
	KindSimple     DungeonKind = "simple"
	KindMultiStage DungeonKind = "multi_stage"
	KindRoguelike  DungeonKind = "roguelike"
)

type StageDefinition struct {
	Map   *MapDefinition `json:"map"`
	Final bool           `json:"final"`
}

type RoguelikeRoom struct {
	ID    string         `json:"id"`
	Room  RoomDefinition `json:"room"`
	Next  []string       `json:"next,omitempty"`
	Final bool           `json:"final"`
}

// RewardTable is the reward configuration a definition may carry. Zero
// fields fall back to the server-wide table.
type RewardTable struct {
	Base         int `json:"base,omitempty"`
	PerRoom      int `json:"perRoom,omitempty"`
	PerBoss      int `json:"perBoss,omitempty"`
	PerfectClear int `json:"perfectClear,omitempty"`
	PerKill      int `json:"perKill,omitempty"`
	MaxKillBonus int `json:"maxKillBonus,omitempty"`
}

// DungeonDefinition is a creatable session template.
type DungeonDefinition struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Kind       DungeonKind       `json:"kind"`
	Map        *MapDefinition    `json:"map,omitempty"`
	Stages     []StageDefinition `json:"stages,omitempty"`
	Rooms      []RoguelikeRoom   `json:"rooms,omitempty"`
	StartRoom  string            `json:"startRoom,omitempty"`
	MaxPlayers int               `json:"maxPlayers,omitempty"`
	Reward     RewardTable       `json:"reward"`
}

// Capacity is the member limit, defaulting when unset.
func (d *DungeonDefinition) Capacity() int {
	if d.MaxPlayers > 0 {
		return d.MaxPlayers
	}
	return DefaultMaxPlayers
}

func (d *DungeonDefinition) Validate() error {
	if d == nil {
		return fmt.Errorf("dungeon definition is nil")
	}
	if d.ID == "" {
		return fmt.Errorf("dungeon definition ID cannot be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("dungeon %s missing display name", d.ID)
	}
	switch d.Kind {
	case KindSimple:
		if err := d.Map.Validate(); err != nil {
			return fmt.Errorf("dungeon %s: %w", d.ID, err)
		}
	case KindMultiStage:
		if len(d.Stages) == 0 {
			return fmt.Errorf("dungeon %s has no stages", d.ID)
		}
		for i, s := range d.Stages {
			if err := s.Map.Validate(); err != nil {
				return fmt.Errorf("dungeon %s stage %d: %w", d.ID, i, err)
			}
			last := i == len(d.Stages)-1
			if s.Final != last {
				return fmt.Errorf("dungeon %s: only the last stage may be final (stage %d)", d.ID, i)
			}
			if !last && s.Map.Portal == nil {
				return fmt.Errorf("dungeon %s stage %d has no portal", d.ID, i)
			}
			if !last && s.Map.completesSession() {
				return fmt.Errorf("dungeon %s stage %d: only the final stage may complete the session", d.ID, i)
			}
		}
	case KindRoguelike:
		if len(d.Rooms) == 0 {
			return fmt.Errorf("dungeon %s has no rooms", d.ID)
		}
		if d.StartRoom == "" {
			return fmt.Errorf("dungeon %s names no start room", d.ID)
		}
		for i := range d.Rooms {
			if err := d.Rooms[i].Room.Validate(); err != nil {
				return fmt.Errorf("dungeon %s: %w", d.ID, err)
			}
		}
	default:
		return fmt.Errorf("dungeon %s has unknown kind %q", d.ID, d.Kind)
	}
	return nil
}
