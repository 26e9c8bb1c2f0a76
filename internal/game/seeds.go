package game

// walledMap returns a w×h map whose outer ring is wall. Unlisted cells are floor.
func walledMap(id, name string, w, h int) *MapDefinition {
	m := &MapDefinition{ID: id, Name: name, Width: w, Height: h, CellSize: DefaultCellSize}
	for x := 0; x < w; x++ {
		m.Tiles = append(m.Tiles, Tile{X: x, Y: 0, Kind: TileWall}, Tile{X: x, Y: h - 1, Kind: TileWall})
	}
	for y := 1; y < h-1; y++ {
		m.Tiles = append(m.Tiles, Tile{X: 0, Y: y, Kind: TileWall}, Tile{X: w - 1, Y: y, Kind: TileWall})
	}
	m.EntryPoints = []GridPos{{X: 2, Y: h / 2}, {X: 2, Y: h/2 - 1}, {X: 2, Y: h/2 + 1}, {X: 3, Y: h / 2}}
	return m
}

func cryptOfEchoes() *DungeonDefinition {
	m := walledMap("crypt-of-echoes", "Crypt of Echoes", 16, 12)
	m.Decorations = []Decoration{
		{Grid: GridPos{X: 5, Y: 2}, Model: "brazier"},
		{Grid: GridPos{X: 5, Y: 9}, Model: "brazier"},
		{Grid: GridPos{X: 13, Y: 6}, Model: "sarcophagus"},
	}
	m.Spawners = []SpawnerDef{
		{ID: "hall-skeletons", Grid: GridPos{X: 11, Y: 5}, ActorType: "skeleton", Count: 3, Mode: SpawnTrigger, TriggerID: "hall"},
		{ID: "hall-elite", Grid: GridPos{X: 12, Y: 7}, ActorType: "skeleton-elite", Count: 1, Mode: SpawnTrigger, TriggerID: "hall"},
	}
	m.Triggers = []TriggerDef{
		{ID: "intro", Grid: GridPos{X: 3, Y: 6}, Radius: 128, On: TriggerOnEnter, Action: ActionMessage + ":crypt.intro", OneTime: true},
		{ID: "hall", Grid: GridPos{X: 8, Y: 6}, Radius: 160, On: TriggerOnEnter, Action: ActionSpawnGroup + ":hall", OneTime: true},
		{ID: "hall-cleared", Grid: GridPos{X: 8, Y: 6}, On: TriggerOnKill, Group: "hall", Action: ActionCompleteSession, OneTime: true},
	}
	return &DungeonDefinition{
		ID:         "crypt-of-echoes",
		Name:       "Crypt of Echoes",
		Kind:       KindSimple,
		Map:        m,
		MaxPlayers: 4,
		Reward:     RewardTable{Base: 80},
	}
}

func sunkenKeep() *DungeonDefinition {
	gate := walledMap("keep-gate", "Flooded Gate", 16, 12)
	gate.Spawners = []SpawnerDef{
		{ID: "gate-drowned", Grid: GridPos{X: 9, Y: 4}, ActorType: "drowned", Count: 4, Mode: SpawnInstant},
	}
	gate.Portal = &GridPos{X: 14, Y: 6}

	cistern := walledMap("keep-cistern", "Cistern", 16, 12)
	for y := 3; y < 9; y++ {
		cistern.Tiles = append(cistern.Tiles, Tile{X: 7, Y: y, Kind: TileWater}, Tile{X: 8, Y: y, Kind: TileWater})
	}
	cistern.Spawners = []SpawnerDef{
		{ID: "cistern-drowned", Grid: GridPos{X: 10, Y: 3}, ActorType: "drowned", Count: 3, Mode: SpawnInstant},
		{ID: "cistern-elite", Grid: GridPos{X: 11, Y: 8}, ActorType: "drowned-elite", Count: 1, Mode: SpawnInstant},
	}
	cistern.Portal = &GridPos{X: 14, Y: 6}

	throne := walledMap("keep-throne", "Drowned Throne", 16, 12)
	throne.Spawners = []SpawnerDef{
		{ID: "throne-king", Grid: GridPos{X: 12, Y: 6}, ActorType: "drowned-king-boss", Count: 1, Mode: SpawnTrigger, TriggerID: "throne"},
	}
	throne.Triggers = []TriggerDef{
		{ID: "throne", Grid: GridPos{X: 8, Y: 6}, Radius: 192, On: TriggerOnEnter, Action: ActionSpawnGroup + ":throne", OneTime: true},
		{ID: "king-slain", Grid: GridPos{X: 12, Y: 6}, On: TriggerOnKill, Group: "throne", Action: ActionCompleteSession, OneTime: true},
	}

	return &DungeonDefinition{
		ID:   "sunken-keep",
		Name: "Sunken Keep",
		Kind: KindMultiStage,
		Stages: []StageDefinition{
			{Map: gate},
			{Map: cistern},
			{Map: throne, Final: true},
		},
		MaxPlayers: 4,
		Reward:     RewardTable{Base: 150, PerBoss: 120},
	}
}

func abyssalSpire() *DungeonDefinition {
	gate := walledMap("spire-gate", "Spire Gate", 14, 10)
	gate.Spawners = []SpawnerDef{
		{ID: "gate-imps", Grid: GridPos{X: 9, Y: 5}, ActorType: "imp", Count: 4, Mode: SpawnInstant},
	}

	blades := walledMap("spire-blades", "Hall of Blades", 14, 10)
	blades.Spawners = []SpawnerDef{
		{ID: "blade-dancers", Grid: GridPos{X: 10, Y: 3}, ActorType: "blade-dancer", Count: 2, Mode: SpawnWave},
		{ID: "blade-elites", Grid: GridPos{X: 10, Y: 7}, ActorType: "blade-elite", Count: 1, Mode: SpawnWave},
	}

	ember := walledMap("spire-ember", "Ember Pit", 14, 10)
	ember.Spawners = []SpawnerDef{
		{ID: "ember-imps", Grid: GridPos{X: 11, Y: 5}, ActorType: "ember-imp", Count: 3, Mode: SpawnWave},
	}

	throne := walledMap("spire-throne", "Abyssal Throne", 14, 10)
	throne.Spawners = []SpawnerDef{
		{ID: "throne-boss", Grid: GridPos{X: 11, Y: 5}, ActorType: "abyssal-boss", Count: 1, Mode: SpawnInstant},
		{ID: "throne-guards", Grid: GridPos{X: 9, Y: 3}, ActorType: "abyssal-guard", Count: 2, Mode: SpawnInstant},
	}

	points := DefaultPointTable()
	return &DungeonDefinition{
		ID:        "abyssal-spire",
		Name:      "Abyssal Spire",
		Kind:      KindRoguelike,
		StartRoom: "gate",
		Rooms: []RoguelikeRoom{
			{
				ID:   "gate",
				Room: RoomDefinition{ID: "gate", Name: "Spire Gate", Type: RoomClear, Map: gate, Goal: "Slay every imp at the gate", Points: points},
				Next: []string{"hall-of-blades", "ember-pit"},
			},
			{
				ID: "hall-of-blades",
				Room: RoomDefinition{
					ID: "hall-of-blades", Name: "Hall of Blades", Type: RoomScore, Map: blades,
					Goal: "Earn 120 points against the blade dancers", RequiredScore: 120,
					WaveIntervalS: 6, WaveSize: 3, MaxAlive: 8, Points: points,
				},
				Next: []string{"throne"},
			},
			{
				ID: "ember-pit",
				Room: RoomDefinition{
					ID: "ember-pit", Name: "Ember Pit", Type: RoomSurvival, Map: ember,
					Goal: "Survive the ember swarm for 45 seconds", DurationS: 45,
					WaveIntervalS: 8, WaveSize: 3, MaxAlive: 6, Points: points,
				},
				Next: []string{"throne"},
			},
			{
				ID:    "throne",
				Room:  RoomDefinition{ID: "throne", Name: "Abyssal Throne", Type: RoomBoss, Map: throne, Goal: "Defeat the abyssal lord", Points: points},
				Final: true,
			},
		},
		MaxPlayers: 4,
		Reward:     RewardTable{Base: 200, PerRoom: 60, PerBoss: 150},
	}
}

// BuiltinDefinitions returns fresh copies of the bundled dungeons, one of each kind.
func BuiltinDefinitions() []*DungeonDefinition {
	return []*DungeonDefinition{cryptOfEchoes(), sunkenKeep(), abyssalSpire()}
}
