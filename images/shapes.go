// Package images - Geometry primitives for detection postprocessing.
package images

// Rect is a lightweight axis-aligned bounding box.
//
// Coordinates are float32 so the same type serves both normalized [0,1]
// model-input space and original-image pixel space. Which space a Rect
// lives in is part of the API contract of whatever produced it; the
// geometry here only requires that both operands share a space.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 float32
}

// RectFromCenter builds a Rect from a center-size box as emitted by YOLO
// heads: {cx, cy, w, h} -> {cx-w/2, cy-h/2, cx+w/2, cy+h/2}.
func RectFromCenter(cx, cy, w, h float32) Rect {
	return Rect{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float32 { return r.X2 - r.X1 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float32 { return r.Y2 - r.Y1 }

// Area returns the area of the rectangle, 0 for degenerate boxes.
func (r Rect) Area() float32 {
	w := r.Width()
	h := r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersects reports whether the two rectangles share any interior area.
// Touching edges do not count as intersection.
func (r Rect) Intersects(o Rect) bool {
	return r.X1 < o.X2 && o.X1 < r.X2 && r.Y1 < o.Y2 && o.Y1 < r.Y2
}

// Clamp01 clamps the rectangle to the unit square. Applied to surviving
// boxes in normalized space so a box can never extend past the frame.
func (r Rect) Clamp01() Rect {
	return Rect{
		X1: clamp01(r.X1),
		Y1: clamp01(r.Y1),
		X2: clamp01(r.X2),
		Y2: clamp01(r.Y2),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CalculateIoU measures the overlap of two axis-aligned rectangles as
// intersection area over union area.
//
// The intersection corners are the max of the top-left corners and the min
// of the bottom-right corners; a non-positive width or height means the
// rectangles do not overlap. The union follows inclusion-exclusion:
//
//	Area(Union) = Area(A) + Area(B) - Area(Intersection)
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle, in the same coordinate space as r.
//
// Returns:
//   - float32: A value in [0,1]; 0 when the rectangles do not overlap or
//     the union area is degenerate.
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	union := r.Area() + o.Area() - interArea
	if union <= 0 {
		return 0.0
	}

	return interArea / union
}
