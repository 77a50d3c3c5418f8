package chunkmap

import (
	"image"
	"math"
)

// Surface is the minimal 2D drawing capability the renderers need. All
// geometry is given in map-space pixels; a surface scales it to its own
// resolution. Implementations: RasterSurface (software) and EbitenSurface.
//
// Clip restricts subsequent fill, clear, stroke and draw operations to a
// union of non-overlapping rectangles, intersected with any clip already in
// effect. ResetClip undoes the most recent Clip.
type Surface interface {
	// Size returns the surface size in its own pixels.
	Size() (w, h int)
	// Scale returns the map-to-surface pixel ratio.
	Scale() float64

	Clear()
	FillRect(r Rect, c Color)
	// SetRect replaces the pixels of r with c instead of compositing.
	SetRect(r Rect, c Color)
	ClearRect(r Rect)
	FillPath(p *Path, c Color)
	ClearPath(p *Path)
	StrokePath(p *Path, s StrokeStyle)

	Clip(region []Rect)
	ResetClip()

	DrawImage(src image.Image, op DrawOptions)
	DrawSurface(src Surface, op DrawOptions)

	// NewLayer creates a blank surface of the same kind and scale covering
	// w x h map pixels.
	NewLayer(w, h float64) Surface
	// Snapshot copies the current contents into a premultiplied RGBA image.
	Snapshot() *image.RGBA
}

// DrawOptions positions an image in map space.
type DrawOptions struct {
	// X and Y are the destination top-left in map pixels.
	X, Y float64
	// Width and Height are the destination size in map pixels. Zero uses the
	// source size divided by the source scale.
	Width, Height float64
	// Alpha multiplies the source opacity. Zero means 1.
	Alpha float64
	// Smooth selects bilinear filtering; the default is nearest-neighbor.
	Smooth bool
}

func (op DrawOptions) alpha() float64 {
	if op.Alpha == 0 {
		return 1
	}
	return clamp01(op.Alpha)
}

// LineJoin selects how stroke segments meet.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota
	JoinRound
)

// LineCap selects how open stroke ends are drawn.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
)

// StrokeStyle describes a stroke plus an optional blurred shadow drawn
// beneath it, in the manner of a canvas shadowBlur.
type StrokeStyle struct {
	Width       float64
	Color       Color
	ShadowColor Color
	ShadowBlur  float64
	Join        LineJoin
	Cap         LineCap
}

// Path is a list of subpaths made of straight segments.
type Path struct {
	subpaths [][]pathPoint
	closed   []bool
}

type pathPoint struct{ X, Y float64 }

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	p.subpaths = append(p.subpaths, []pathPoint{{x, y}})
	p.closed = append(p.closed, false)
}

// LineTo appends a segment from the current point to (x, y). With no
// current subpath it behaves like MoveTo.
func (p *Path) LineTo(x, y float64) {
	if len(p.subpaths) == 0 {
		p.MoveTo(x, y)
		return
	}
	i := len(p.subpaths) - 1
	p.subpaths[i] = append(p.subpaths[i], pathPoint{x, y})
}

// Close marks the current subpath as closed.
func (p *Path) Close() {
	if len(p.closed) > 0 {
		p.closed[len(p.closed)-1] = true
	}
}

// Rect appends a closed rectangle subpath.
func (p *Path) Rect(r Rect) {
	p.MoveTo(r.X, r.Y)
	p.LineTo(r.X+r.Width, r.Y)
	p.LineTo(r.X+r.Width, r.Y+r.Height)
	p.LineTo(r.X, r.Y+r.Height)
	p.Close()
}

// Segment appends an open two-point subpath.
func (p *Path) Segment(x0, y0, x1, y1 float64) {
	p.MoveTo(x0, y0)
	p.LineTo(x1, y1)
}

// Reset empties the path, keeping its storage.
func (p *Path) Reset() {
	p.subpaths = p.subpaths[:0]
	p.closed = p.closed[:0]
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool {
	for _, sp := range p.subpaths {
		if len(sp) > 1 {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounding box of every point in the path.
func (p *Path) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, sp := range p.subpaths {
		for _, pt := range sp {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
