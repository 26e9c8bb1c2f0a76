package zone

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"CoopDungeons/internal/game"
)

type fakeSweeper struct {
	pos     map[game.ActorID]game.Vec3
	players map[game.ActorID]bool
	removed []game.ActorID
}

func newFakeSweeper() *fakeSweeper {
	return &fakeSweeper{pos: map[game.ActorID]game.Vec3{}, players: map[game.ActorID]bool{}}
}

func (f *fakeSweeper) EntitiesWithin(center game.Vec3, radius float64) []game.ActorID {
	var out []game.ActorID
	for id, p := range f.pos {
		if game.PlanarDist(center, p) <= radius {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeSweeper) IsPlayerControlled(id game.ActorID) bool { return f.players[id] }

func (f *fakeSweeper) Position(id game.ActorID) (game.Vec3, bool) {
	p, ok := f.pos[id]
	return p, ok
}

func (f *fakeSweeper) Remove(id game.ActorID) {
	delete(f.pos, id)
	f.removed = append(f.removed, id)
}

func testLayout() Layout {
	return Layout{Region: game.Rect{MinX: 0, MaxX: 400, MinY: 0, MaxY: 200}, Cols: 2, Rows: 1}
}

func TestPoolPartitionsRowMajor(t *testing.T) {
	p := NewPool(Layout{Region: game.Rect{MaxX: 300, MaxY: 200}, Cols: 3, Rows: 2}, nil, nil)
	zones := p.Zones()
	if len(zones) != 6 || p.Capacity() != 6 {
		t.Fatalf("expected 6 zones, got %d", len(zones))
	}
	if zones[1].Bounds.MinX != 100 || zones[1].Bounds.MinY != 0 {
		t.Fatalf("zone 1 bounds %+v", zones[1].Bounds)
	}
	if zones[3].Bounds.MinX != 0 || zones[3].Bounds.MinY != 100 {
		t.Fatalf("zone 3 bounds %+v", zones[3].Bounds)
	}
	if zones[4].Center.X != 150 || zones[4].Center.Y != 150 {
		t.Fatalf("zone 4 center %+v", zones[4].Center)
	}
}

func TestAllocateLowestFirstAndExhaust(t *testing.T) {
	p := NewPool(testLayout(), nil, nil)
	a, err := p.Allocate("a")
	if err != nil || a.ID != 0 {
		t.Fatalf("first allocate: %+v %v", a, err)
	}
	b, err := p.Allocate("b")
	if err != nil || b.ID != 1 {
		t.Fatalf("second allocate: %+v %v", b, err)
	}
	_, err = p.Allocate("c")
	if !errors.Is(err, game.ErrZoneExhausted) || game.CodeOf(err) != game.CodeResourceExhausted {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	p.Release(0)
	c, err := p.Allocate("c")
	if err != nil || c.ID != 0 {
		t.Fatalf("reallocate: %+v %v", c, err)
	}
}

func TestAllocateRejectsDuplicateOwner(t *testing.T) {
	p := NewPool(testLayout(), nil, nil)
	if _, err := p.Allocate("a"); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if _, err := p.Allocate("a"); !errors.Is(err, game.ErrDuplicateOwner) {
		t.Fatalf("expected duplicate owner, got %v", err)
	}
	if p.Occupied() != 1 {
		t.Fatalf("occupied = %d", p.Occupied())
	}
}

func TestDoubleReleaseIsHarmless(t *testing.T) {
	p := NewPool(testLayout(), nil, nil)
	z, _ := p.Allocate("a")
	p.Allocate("b")
	if !p.Release(z.ID) {
		t.Fatalf("first release should succeed")
	}
	if p.Release(z.ID) {
		t.Fatalf("second release should report false")
	}
	if p.Release(99) || p.Release(-1) {
		t.Fatalf("unknown zone release should report false")
	}
	if p.Occupied() != 1 {
		t.Fatalf("occupied = %d, want 1", p.Occupied())
	}
	if p.ReleaseByOwner("a") {
		t.Fatalf("owner a no longer holds a zone")
	}
	if !p.ReleaseByOwner("b") || p.Occupied() != 0 {
		t.Fatalf("release by owner failed")
	}
}

func TestReleaseSweepsNonPlayersInsideBounds(t *testing.T) {
	sw := newFakeSweeper()
	sw.pos[1] = game.Vec3{X: 50, Y: 50}  // monster in zone 0
	sw.pos[2] = game.Vec3{X: 60, Y: 60}  // player in zone 0
	sw.pos[3] = game.Vec3{X: 250, Y: 50} // monster in zone 1
	sw.pos[4] = game.Vec3{X: 199, Y: 199, Z: 40}
	sw.players[2] = true

	p := NewPool(testLayout(), sw, nil)
	z, _ := p.Allocate("a")
	p.Release(z.ID)

	if _, ok := sw.pos[1]; ok {
		t.Fatalf("monster inside zone was not swept")
	}
	if _, ok := sw.pos[4]; ok {
		t.Fatalf("elevated prop inside zone was not swept")
	}
	if _, ok := sw.pos[2]; !ok {
		t.Fatalf("player unit must survive the sweep")
	}
	if _, ok := sw.pos[3]; !ok {
		t.Fatalf("entity in the neighbouring zone must survive the sweep")
	}
}

func TestPoolInvariantsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cols := rapid.IntRange(1, 4).Draw(t, "cols")
		rows := rapid.IntRange(1, 3).Draw(t, "rows")
		p := NewPool(Layout{Region: game.Rect{MaxX: 1000, MaxY: 1000}, Cols: cols, Rows: rows}, nil, nil)
		original := p.Zones()
		held := map[game.InstanceID]int{}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			owner := game.InstanceID(fmt.Sprintf("i%d", rapid.IntRange(0, 8).Draw(t, "owner")))
			if rapid.Bool().Draw(t, "allocate") {
				before := p.Occupied()
				z, err := p.Allocate(owner)
				if _, dup := held[owner]; dup {
					if !errors.Is(err, game.ErrDuplicateOwner) {
						t.Fatalf("duplicate owner %s accepted", owner)
					}
					continue
				}
				if before == p.Capacity() {
					if !errors.Is(err, game.ErrZoneExhausted) {
						t.Fatalf("allocation beyond capacity: %v", err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("allocate: %v", err)
				}
				if !z.Occupied || z.Owner != owner {
					t.Fatalf("allocated zone not marked: %+v", z)
				}
				if z.Bounds != original[z.ID].Bounds {
					t.Fatalf("zone %d bounds changed", z.ID)
				}
				held[owner] = z.ID
			} else {
				_, had := held[owner]
				if p.ReleaseByOwner(owner) != had {
					t.Fatalf("release result mismatch for %s", owner)
				}
				delete(held, owner)
			}
			if p.Occupied() != len(held) {
				t.Fatalf("occupied %d, held %d", p.Occupied(), len(held))
			}
			owners := map[game.InstanceID]bool{}
			for _, z := range p.Zones() {
				if z.Occupied != (z.Owner != "") {
					t.Fatalf("zone %d occupied/owner out of sync", z.ID)
				}
				if z.Occupied {
					if owners[z.Owner] {
						t.Fatalf("owner %s holds two zones", z.Owner)
					}
					owners[z.Owner] = true
				}
			}
		}
	})
}
