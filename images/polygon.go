// Package images - Rotated boxes and convex polygon clipping.
package images

import "github.com/chewxy/math32"

// clipEpsilon guards divisions inside polygon clipping. A denominator
// below this magnitude means the two segments are parallel for our
// purposes and the edge contributes no intersection point.
const clipEpsilon = 1e-7

// Point is a 2D point in whatever coordinate space its producer declared.
type Point struct {
	X, Y float32
}

// OrientedRect is a rectangle with an additional rotation angle, as
// produced by OBB detection heads.
type OrientedRect struct {
	CX, CY float32 // center
	W, H   float32 // full width and height
	Angle  float32 // radians, rotation about the center
}

// Area returns width*height; rotation does not change the area.
func (r OrientedRect) Area() float32 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// ToPolygon returns the 4 corners of the rotated rectangle. Corner order
// is top-left, top-right, bottom-right, bottom-left in the box's local
// frame, invariant under rotation.
func (r OrientedRect) ToPolygon() []Point {
	sin := math32.Sin(r.Angle)
	cos := math32.Cos(r.Angle)

	local := [4]Point{
		{-r.W / 2, -r.H / 2},
		{+r.W / 2, -r.H / 2},
		{+r.W / 2, +r.H / 2},
		{-r.W / 2, +r.H / 2},
	}

	poly := make([]Point, 4)
	for i, p := range local {
		poly[i] = Point{
			X: r.CX + p.X*cos - p.Y*sin,
			Y: r.CY + p.X*sin + p.Y*cos,
		}
	}
	return poly
}

// Bounding returns the axis-aligned bounding rectangle of the rotated
// box. Used as a cheap intersection pre-check before the polygon path.
func (r OrientedRect) Bounding() Rect {
	poly := r.ToPolygon()
	b := Rect{X1: poly[0].X, Y1: poly[0].Y, X2: poly[0].X, Y2: poly[0].Y}
	for _, p := range poly[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	return b
}

// ClipPolygon clips subject against clip using Sutherland-Hodgman.
//
// Both polygons are treated as implicitly closed (last vertex wraps to the
// first) and clip must be convex with the same winding as OrientedRect
// polygons. Each clip edge defines an "inside" half-plane via the
// cross-product test; subject vertices are kept, dropped, or replaced by
// edge intersections accordingly.
//
// Arguments:
//   - subject: The polygon being clipped.
//   - clip: The convex clipping polygon.
//
// Returns:
//   - The clipped polygon; nil when there is no overlap.
func ClipPolygon(subject, clip []Point) []Point {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	output := append([]Point(nil), subject...)
	for i := range clip {
		if len(output) == 0 {
			return nil
		}
		a := clip[i]
		b := clip[(i+1)%len(clip)]

		input := output
		output = make([]Point, 0, len(input)+4)
		for j := range input {
			cur := input[j]
			prev := input[(j+len(input)-1)%len(input)]
			curInside := edgeCross(a, b, cur) >= 0
			prevInside := edgeCross(a, b, prev) >= 0

			switch {
			case curInside && prevInside:
				output = append(output, cur)
			case curInside && !prevInside:
				if p, ok := edgeIntersection(prev, cur, a, b); ok {
					output = append(output, p)
				}
				output = append(output, cur)
			case !curInside && prevInside:
				if p, ok := edgeIntersection(prev, cur, a, b); ok {
					output = append(output, p)
				}
			}
		}
	}

	if len(output) < 3 {
		return nil
	}
	return output
}

// edgeCross is the 2D cross product of (b-a) and (p-a). Non-negative
// means p lies inside the half-plane of clip edge a->b.
func edgeCross(a, b, p Point) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// edgeIntersection intersects segment p1->p2 with the infinite line
// through a->b. Near-parallel segments report no intersection rather
// than dividing by a vanishing denominator.
func edgeIntersection(p1, p2, a, b Point) (Point, bool) {
	dx1 := p2.X - p1.X
	dy1 := p2.Y - p1.Y
	dx2 := b.X - a.X
	dy2 := b.Y - a.Y

	denom := dx1*dy2 - dy1*dx2
	if math32.Abs(denom) < clipEpsilon {
		return Point{}, false
	}

	t := ((a.X-p1.X)*dy2 - (a.Y-p1.Y)*dx2) / denom
	return Point{X: p1.X + t*dx1, Y: p1.Y + t*dy1}, true
}

// PolygonArea returns the area of a simple polygon via the shoelace
// formula. Polygons with fewer than 3 vertices have zero area.
func PolygonArea(poly []Point) float32 {
	if len(poly) < 3 {
		return 0
	}
	var sum float32
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math32.Abs(sum) / 2
}

// OrientedIoU measures the overlap of two rotated rectangles as the area
// of their polygon intersection over the area of their union.
//
// Arguments:
//   - a: The first oriented rectangle.
//   - b: The other oriented rectangle, in the same coordinate space.
//
// Returns:
//   - float32: A value in [0,1]; 0 when the rectangles do not overlap or
//     the union area is degenerate.
func OrientedIoU(a, b OrientedRect) float32 {
	inter := PolygonArea(ClipPolygon(a.ToPolygon(), b.ToPolygon()))
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
