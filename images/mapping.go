// Package images - Mapping between normalized model-input space and
// original-image pixel space.
package images

// Orientation describes one frame's geometry as reported by the capture
// layer: the original frame size and the rotation (a multiple of 90
// degrees) that was applied to the frame before inference. The rotation
// value is a caller-supplied contract; nothing here hard-codes per-task
// camera defaults.
type Orientation struct {
	OriginalWidth  int
	OriginalHeight int
	Rotation       int // degrees, one of 0, 90, 180, 270
}

// Mapper converts coordinates from normalized [0,1] model-input space to
// original-image pixels and back. When a rotation was applied before
// inference, normalized coordinates are rotated back first, then scaled.
type Mapper struct {
	orientation Orientation
}

// NewMapper returns a Mapper for one frame's orientation. Rotation values
// are normalized into [0,360).
func NewMapper(o Orientation) Mapper {
	o.Rotation = ((o.Rotation % 360) + 360) % 360
	return Mapper{orientation: o}
}

// RotatePoint undoes the pre-inference rotation of a normalized point,
// returning a point in the original frame's normalized space.
func (m Mapper) RotatePoint(p Point) Point {
	switch m.orientation.Rotation {
	case 90:
		return Point{X: p.Y, Y: 1 - p.X}
	case 180:
		return Point{X: 1 - p.X, Y: 1 - p.Y}
	case 270:
		return Point{X: 1 - p.Y, Y: p.X}
	default:
		return p
	}
}

// RotateRect undoes the pre-inference rotation of a normalized rectangle.
// The rotated corners are re-canonicalized so X1<=X2 and Y1<=Y2 hold.
func (m Mapper) RotateRect(r Rect) Rect {
	if m.orientation.Rotation == 0 {
		return r
	}
	a := m.RotatePoint(Point{X: r.X1, Y: r.Y1})
	b := m.RotatePoint(Point{X: r.X2, Y: r.Y2})
	return Rect{
		X1: min(a.X, b.X),
		Y1: min(a.Y, b.Y),
		X2: max(a.X, b.X),
		Y2: max(a.Y, b.Y),
	}
}

// ToPixels maps a normalized rectangle into original-image pixel space,
// rotating first when the frame was rotated before inference.
func (m Mapper) ToPixels(r Rect) Rect {
	r = m.RotateRect(r)
	w := float32(m.orientation.OriginalWidth)
	h := float32(m.orientation.OriginalHeight)
	return Rect{X1: r.X1 * w, Y1: r.Y1 * h, X2: r.X2 * w, Y2: r.Y2 * h}
}

// PointToPixels maps a normalized point into original-image pixel space.
func (m Mapper) PointToPixels(p Point) Point {
	p = m.RotatePoint(p)
	return Point{
		X: p.X * float32(m.orientation.OriginalWidth),
		Y: p.Y * float32(m.orientation.OriginalHeight),
	}
}

// ToNormalized is the inverse of ToPixels for the unrotated case: it
// scales a pixel-space rectangle back into [0,1]. With no rotation
// applied, ToNormalized(ToPixels(r)) recovers r up to floating error.
func (m Mapper) ToNormalized(r Rect) Rect {
	w := float32(m.orientation.OriginalWidth)
	h := float32(m.orientation.OriginalHeight)
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{X1: r.X1 / w, Y1: r.Y1 / h, X2: r.X2 / w, Y2: r.Y2 / h}
}

// OrientedToPixels maps a normalized oriented rectangle into pixel space.
// The center is rotated and scaled; width and height scale by the frame
// dimensions (swapped for 90/270 rotations); the angle is preserved
// relative to the original frame axes.
func (m Mapper) OrientedToPixels(r OrientedRect) OrientedRect {
	c := m.RotatePoint(Point{X: r.CX, Y: r.CY})
	w := float32(m.orientation.OriginalWidth)
	h := float32(m.orientation.OriginalHeight)

	bw, bh := r.W, r.H
	if m.orientation.Rotation == 90 || m.orientation.Rotation == 270 {
		bw, bh = bh, bw
	}
	return OrientedRect{
		CX:    c.X * w,
		CY:    c.Y * h,
		W:     bw * w,
		H:     bh * h,
		Angle: r.Angle,
	}
}
