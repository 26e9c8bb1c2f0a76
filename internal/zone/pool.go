// Package zone partitions a world region into reusable, non-overlapping play
// areas and hands them to instances one at a time.
package zone

import (
	"math"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"CoopDungeons/internal/game"
)

// Zone is one cell of the partitioned region. Occupied and Owner always
// change together.
type Zone struct {
	ID       int             `json:"id"`
	Bounds   game.Rect       `json:"bounds"`
	Center   game.Vec3       `json:"center"`
	Occupied bool            `json:"occupied"`
	Owner    game.InstanceID `json:"owner,omitempty"`
}

// Layout describes how the world region is cut into zones.
type Layout struct {
	Region game.Rect
	Cols   int
	Rows   int
	Z      float64 // ground height for zone centers
}

// DefaultLayout is a 4×2 grid of 4096-unit zones.
func DefaultLayout() Layout {
	return Layout{Region: game.Rect{MinX: 0, MaxX: 16384, MinY: 0, MaxY: 8192}, Cols: 4, Rows: 2}
}

type Pool struct {
	mu       sync.Mutex
	zones    []Zone
	owners   map[game.InstanceID]int
	occupied int
	sweeper  game.EntitySweeper
	log      *zap.Logger
}

// NewPool cuts layout.Region into Cols×Rows zones, ids assigned row-major.
func NewPool(layout Layout, sweeper game.EntitySweeper, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	cols, rows := max(layout.Cols, 1), max(layout.Rows, 1)
	w := layout.Region.Width() / float64(cols)
	h := layout.Region.Height() / float64(rows)
	p := &Pool{
		zones:   make([]Zone, 0, cols*rows),
		owners:  make(map[game.InstanceID]int),
		sweeper: sweeper,
		log:     log,
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b := game.Rect{
				MinX: layout.Region.MinX + float64(c)*w,
				MaxX: layout.Region.MinX + float64(c+1)*w,
				MinY: layout.Region.MinY + float64(r)*h,
				MaxY: layout.Region.MinY + float64(r+1)*h,
			}
			ctr := b.Center()
			p.zones = append(p.zones, Zone{
				ID:     len(p.zones),
				Bounds: b,
				Center: game.Vec3{X: ctr.X, Y: ctr.Y, Z: layout.Z},
			})
		}
	}
	return p
}

// Allocate claims the lowest free zone for owner.
func (p *Pool) Allocate(owner game.InstanceID) (Zone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.owners[owner]; ok {
		return Zone{}, game.ErrDuplicateOwner.WithMetadata("owner", string(owner), "zone", strconv.Itoa(id))
	}
	for i := range p.zones {
		z := &p.zones[i]
		if z.Occupied {
			continue
		}
		z.Occupied = true
		z.Owner = owner
		p.owners[owner] = z.ID
		p.occupied++
		p.log.Debug("zone allocated", zap.Int("zone", z.ID), zap.String("owner", string(owner)))
		return *z, nil
	}
	return Zone{}, game.ErrZoneExhausted
}

// Release sweeps leaked entities out of the zone and frees it. Releasing a
// free or unknown zone does nothing and reports false.
func (p *Pool) Release(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releaseLocked(id)
}

func (p *Pool) ReleaseByOwner(owner game.InstanceID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.owners[owner]
	if !ok {
		return false
	}
	return p.releaseLocked(id)
}

func (p *Pool) releaseLocked(id int) bool {
	if id < 0 || id >= len(p.zones) {
		return false
	}
	z := &p.zones[id]
	if !z.Occupied {
		return false
	}
	swept := p.sweepLocked(z)
	delete(p.owners, z.Owner)
	p.log.Debug("zone released", zap.Int("zone", z.ID), zap.String("owner", string(z.Owner)), zap.Int("swept", swept))
	z.Occupied = false
	z.Owner = ""
	p.occupied--
	return true
}

// sweepLocked removes every non-player entity inside the zone bounds.
func (p *Pool) sweepLocked(z *Zone) int {
	if p.sweeper == nil {
		return 0
	}
	radius := math.Hypot(z.Bounds.Width(), z.Bounds.Height()) * 0.5
	removed := 0
	for _, id := range p.sweeper.EntitiesWithin(z.Center, radius) {
		if p.sweeper.IsPlayerControlled(id) {
			continue
		}
		pos, ok := p.sweeper.Position(id)
		if !ok || !z.Bounds.Contains(pos) {
			continue
		}
		p.sweeper.Remove(id)
		removed++
	}
	return removed
}

func (p *Pool) Zone(id int) (Zone, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.zones) {
		return Zone{}, false
	}
	return p.zones[id], true
}

// Zones returns a snapshot of every zone.
func (p *Pool) Zones() []Zone {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Zone, len(p.zones))
	copy(out, p.zones)
	return out
}

func (p *Pool) Occupied() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.occupied
}

func (p *Pool) Capacity() int {
	return len(p.zones)
}
