package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
)

// Shape is the outline of the world.
type Shape uint8

const (
	ShapeRect Shape = iota
	ShapeCircle
)

// Bounds is the world boundary. Positions are clamped to it, never wrapped.
type Bounds struct {
	Shape  Shape
	Min    components.Vec2 // rect only
	Max    components.Vec2 // rect only
	Center components.Vec2
	Radius float64 // circle only
}

// RectBounds returns a rectangle from the origin to (w, h).
func RectBounds(w, h float64) Bounds {
	return Bounds{
		Shape:  ShapeRect,
		Max:    components.Vec2{X: w, Y: h},
		Center: components.Vec2{X: w / 2, Y: h / 2},
	}
}

// CircleBounds returns a disc.
func CircleBounds(center components.Vec2, radius float64) Bounds {
	return Bounds{
		Shape:  ShapeCircle,
		Min:    components.Vec2{X: center.X - radius, Y: center.Y - radius},
		Max:    components.Vec2{X: center.X + radius, Y: center.Y + radius},
		Center: center,
		Radius: radius,
	}
}

// BoundsFromConfig builds bounds from validated configuration.
func BoundsFromConfig(cfg config.BoundsConfig) Bounds {
	if cfg.Shape == "circle" {
		return CircleBounds(components.Vec2{X: cfg.CenterX, Y: cfg.CenterY}, cfg.Radius)
	}
	return RectBounds(cfg.Width, cfg.Height)
}

// Area returns the area enclosed by the bounds.
func (b Bounds) Area() float64 {
	if b.Shape == ShapeCircle {
		return math.Pi * b.Radius * b.Radius
	}
	return (b.Max.X - b.Min.X) * (b.Max.Y - b.Min.Y)
}

// Contains reports whether a body of radius margin at p lies fully inside.
func (b Bounds) Contains(p components.Vec2, margin float64) bool {
	if b.Shape == ShapeCircle {
		return p.Dist(b.Center) <= math.Max(b.Radius-margin, 0)
	}
	return p.X >= b.Min.X+margin && p.X <= b.Max.X-margin &&
		p.Y >= b.Min.Y+margin && p.Y <= b.Max.Y-margin
}

// Clamp moves p to the nearest point where a body of radius margin fits.
// If the body cannot fit at all it is placed at the center.
func (b Bounds) Clamp(p components.Vec2, margin float64) components.Vec2 {
	if b.Shape == ShapeCircle {
		limit := b.Radius - margin
		if limit <= 0 {
			return b.Center
		}
		d := p.Sub(b.Center)
		if d.Len() <= limit {
			return p
		}
		return b.Center.Add(d.Normalize().Scale(limit))
	}
	return components.Vec2{
		X: clampAxis(p.X, b.Min.X+margin, b.Max.X-margin, b.Center.X),
		Y: clampAxis(p.Y, b.Min.Y+margin, b.Max.Y-margin, b.Center.Y),
	}
}

func clampAxis(v, lo, hi, mid float64) float64 {
	if lo > hi {
		return mid
	}
	return Clamp(v, lo, hi)
}

// RandomPoint draws a uniformly distributed point where a body of radius
// margin fits.
func (b Bounds) RandomPoint(rng *rand.Rand, margin float64) components.Vec2 {
	if b.Shape == ShapeCircle {
		r := math.Max(b.Radius-margin, 0) * math.Sqrt(rng.Float64())
		a := rng.Float64() * 2 * math.Pi
		return components.Vec2{X: b.Center.X + r*math.Cos(a), Y: b.Center.Y + r*math.Sin(a)}
	}
	return b.Clamp(components.Vec2{
		X: b.Min.X + margin + rng.Float64()*(b.Max.X-b.Min.X-2*margin),
		Y: b.Min.Y + margin + rng.Float64()*(b.Max.Y-b.Min.Y-2*margin),
	}, margin)
}
