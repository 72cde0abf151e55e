// api/schemas/geometry.go
package schemas

// Geometry captures the on-screen placement of a highlighted node, in viewport
// coordinates, together with the offset of any enclosing frame and the scroll
// position at capture time. Callers use it to paint overlays.
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Offset of the enclosing frame's content box, zero for top-level nodes.
	FrameOffsetX float64 `json:"frameOffsetX,omitempty"`
	FrameOffsetY float64 `json:"frameOffsetY,omitempty"`

	// Document scroll offsets at capture time.
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

// Center returns the geometric center of the box in viewport coordinates.
func (g Geometry) Center() (float64, float64) {
	return g.X + g.Width/2, g.Y + g.Height/2
}
