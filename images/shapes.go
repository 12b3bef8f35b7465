// Package images - Frame geometry and depth grids used by the proximity pipeline.
package images

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// Rect is an axis-aligned box in frame pixel coordinates.
type Rect struct {
	// X1,Y1 are the top-left corner, X2,Y2 the bottom-right corner.
	X1, Y1, X2, Y2 float32
}

// ClampRect builds a Rect from corner coordinates and clamps it to the frame
// bounds [0,width] x [0,height].
//
// Corners are ordered so that X1 <= X2 and Y1 <= Y2 hold even when the input
// box lies entirely outside the frame.
//
// Arguments:
//   - x1, y1, x2, y2: The unclamped corners.
//   - width, height: The frame dimensions.
//
// Returns:
//   - Rect: The clamped box.
func ClampRect(x1, y1, x2, y2 float32, width, height int) Rect {
	w := float32(width)
	h := float32(height)

	x1 = clampf(x1, 0, w)
	x2 = clampf(x2, 0, w)
	y1 = clampf(y1, 0, h)
	y2 = clampf(y2, 0, h)

	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}

	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the vertical extent of the box.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Area returns the box area, zero for degenerate boxes.
func (r Rect) Area() float32 {
	w := r.Width()
	h := r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the box center truncated to integer pixel coordinates.
func (r Rect) Center() image.Point {
	return image.Point{
		X: int((r.X1 + r.X2) / 2),
		Y: int((r.Y1 + r.Y2) / 2),
	}
}

// Within reports whether the box lies inside [0,width] x [0,height].
func (r Rect) Within(width, height int) bool {
	return r.X1 >= 0 && r.Y1 >= 0 &&
		r.X2 <= float32(width) && r.Y2 <= float32(height) &&
		r.X1 <= r.X2 && r.Y1 <= r.Y2
}

// ToRectangle converts the box to an integer image.Rectangle for drawing.
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2)).Canon()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f, %.1f)-(%.1f, %.1f)", r.X1, r.Y1, r.X2, r.Y2)
}

// CalculateIoU returns the Intersection over Union of two boxes, a value in
// [0,1] measuring how much they overlap.
//
//	IoU = Area of Intersection / Area of Union
//
// The intersection is bounded by the maximum of the top-left corners and the
// minimum of the bottom-right corners. When either side of the intersection is
// zero or negative the boxes do not overlap and 0 is returned. The union uses
// inclusion-exclusion: Area(A) + Area(B) - Area(A ∩ B). A zero union (two
// degenerate boxes) also yields 0.
//
// Coordinates are treated as continuous, so boxes that merely touch along an
// edge have an IoU of 0.
//
// Example:
//
//	a := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	b := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	CalculateIoU(a, b) // 25 / 175 = 0.142857
func CalculateIoU(r, o Rect) float32 {
	ix1 := math32.Max(r.X1, o.X1)
	iy1 := math32.Max(r.Y1, o.Y1)
	ix2 := math32.Min(r.X2, o.X2)
	iy2 := math32.Min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}

	return interArea / unionArea
}

// clampf pins v to [lo,hi]; NaN maps to lo.
func clampf(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
