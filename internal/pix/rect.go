package pix

// Rect is an axis-aligned crop window within a larger plane.
type Rect struct {
	X, Y, W, H int
}

// CenteredSquare returns the largest centered square window inside a
// width x height plane: the side is min(width, height) and the window is
// centered along the longer axis (integer division, shorter axis at 0).
func CenteredSquare(width, height int) Rect {
	if width >= height {
		return Rect{X: (width - height) / 2, Y: 0, W: height, H: height}
	}
	return Rect{X: 0, Y: (height - width) / 2, W: width, H: width}
}

// Within reports whether the window lies entirely inside a width x height
// plane.
func (r Rect) Within(width, height int) bool {
	if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 {
		return false
	}
	return r.X+r.W <= width && r.Y+r.H <= height
}
