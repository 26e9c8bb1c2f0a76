package world

import (
	"fmt"

	"go.uber.org/zap"

	"CoopDungeons/internal/game"
)

// Builder paints one map definition into the world and remembers every
// entity it placed so Teardown can take them all back.
type Builder struct {
	w      *World
	def    *game.MapDefinition
	origin game.Vec3
	placed []game.ActorID
}

// NewBuilder implements game.BuilderFactory.
func (w *World) NewBuilder() game.WorldBuilder {
	return &Builder{w: w}
}

// Build places non-floor tiles and decorations with the map centred on origin.
func (b *Builder) Build(def *game.MapDefinition, origin game.Vec3) error {
	if b.def != nil {
		return fmt.Errorf("builder already holds map %s", b.def.ID)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	b.def = def
	b.origin = origin
	for _, t := range def.Tiles {
		if t.Kind == game.TileFloor {
			continue
		}
		b.prop(game.GridPos{X: t.X, Y: t.Y}, string(t.Kind), "")
	}
	for _, d := range def.Decorations {
		b.prop(d.Grid, "decoration", d.Model)
	}
	b.w.log.Debug("map built", zap.String("map", def.ID), zap.Float64("x", origin.X), zap.Float64("y", origin.Y), zap.Int("props", len(b.placed)))
	return nil
}

func (b *Builder) prop(p game.GridPos, kind, model string) game.ActorID {
	id := b.w.ents.NewEntity()
	b.w.ents.SetComponent(id, compTransform, &Transform{Pos: b.GridToWorld(p)})
	b.w.ents.SetComponent(id, compProp, &PropComponent{Kind: kind, Model: model})
	b.placed = append(b.placed, id)
	return id
}

// PlaceProp adds an interactive prop (such as a portal) that Teardown removes
// with the rest of the map.
func (b *Builder) PlaceProp(model string, p game.GridPos) game.ActorID {
	if b.def == nil {
		return 0
	}
	return b.prop(p, "interactive", model)
}

// SpawnActors places req.Count (or the spawner's count) actors around the
// spawner cell.
func (b *Builder) SpawnActors(req game.SpawnRequest) []game.ActorHandle {
	if b.def == nil {
		return nil
	}
	n := req.Count
	if n <= 0 {
		n = req.Spawner.Count
	}
	center := b.GridToWorld(req.Spawner.Grid)
	spread := b.def.CellSize * 0.3
	hp, _ := tierStats(req.Spawner.ActorType)
	out := make([]game.ActorHandle, 0, n)
	for i := 0; i < n; i++ {
		id := b.w.ents.NewEntity()
		pos := center.Add(game.Vec3{X: float64(i%3-1) * spread, Y: float64(i/3) * spread})
		h := game.ActorHandle{ID: id, Name: fmt.Sprintf("%s#%d", req.Spawner.ActorType, id), Type: req.Spawner.ActorType, Group: req.Group}
		b.w.ents.SetComponent(id, compTransform, &Transform{Pos: pos})
		b.w.ents.SetComponent(id, compHealth, &Health{HP: hp, Max: hp})
		b.w.ents.SetComponent(id, compActor, &ActorComponent{Name: h.Name, Type: h.Type, Group: h.Group})
		b.placed = append(b.placed, id)
		out = append(out, h)
	}
	return out
}

// GridToWorld maps a cell centre to world space around the build origin.
func (b *Builder) GridToWorld(p game.GridPos) game.Vec3 {
	if b.def == nil {
		return b.origin
	}
	cs := b.def.CellSize
	return game.Vec3{
		X: b.origin.X + (float64(p.X)+0.5-float64(b.def.Width)*0.5)*cs,
		Y: b.origin.Y + (float64(p.Y)+0.5-float64(b.def.Height)*0.5)*cs,
		Z: b.origin.Z,
	}
}

// Teardown removes everything this builder placed. Idempotent.
func (b *Builder) Teardown() {
	removed := 0
	for _, id := range b.placed {
		if b.w.ents.Exists(id) {
			b.w.ents.RemoveEntity(id)
			removed++
		}
	}
	if b.def != nil {
		b.w.log.Debug("map torn down", zap.String("map", b.def.ID), zap.Int("removed", removed))
	}
	b.placed = nil
	b.def = nil
}

// Map returns the definition currently built, if any.
func (b *Builder) Map() *game.MapDefinition { return b.def }
