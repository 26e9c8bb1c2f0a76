package game

import (
	"math"
	"time"
)

// PlayerID identifies a player as supplied by the host world.
type PlayerID string

// InstanceID identifies a running dungeon session.
type InstanceID string

// ActorID is a stable handle for any world entity (units, monsters, props).
type ActorID int64

// ActorHandle is what the world builder hands back for spawned actors.
type ActorHandle struct {
	ID    ActorID
	Name  string
	Type  string
	Group string
}

type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len() float64         { return math.Hypot(a.X, a.Y) }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

// Vec3 is a world position. Z is the vertical axis.
type Vec3 struct{ X, Y, Z float64 }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Planar() Vec2    { return Vec2{a.X, a.Y} }

// PlanarDist is the distance between a and b in the horizontal plane.
func PlanarDist(a, b Vec3) float64 {
	return a.Planar().Sub(b.Planar()).Len()
}

// Rect is an axis-aligned region of the horizontal plane.
type Rect struct {
	MinX, MaxX, MinY, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

func (r Rect) Center() Vec2 {
	return Vec2{X: (r.MinX + r.MaxX) * 0.5, Y: (r.MinY + r.MaxY) * 0.5}
}

// Contains reports whether p lies inside r, ignoring the vertical axis.
// The max edges are exclusive so adjacent cells never both claim a point.
func (r Rect) Contains(p Vec3) bool {
	return p.X >= r.MinX && p.X < r.MaxX && p.Y >= r.MinY && p.Y < r.MaxY
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Seconds renders a duration as whole seconds, rounding up.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
