package chunkmap

import "math"

// Zoom limits and the wheel step.
const (
	MinZoom         = 0.04
	MaxZoom         = 4.0
	WheelZoomStep   = 1.15
	DefaultDepth    = 1800.0 // perspective camera distance in screen pixels
	parallelEpsilon = 1e-6
)

// View is the pan/zoom/perspective state that maps the flat map onto the
// screen. Screen coordinates are relative to the viewport's top-left.
//
// The display transform, applied to map-space points, is
//
//	Translate(cx, cy) * RotateX(TiltX) * RotateY(TiltY) * RotateZ(RotateZ) *
//	Translate(-cx, -cy) * Translate(PanX, PanY) * Scale(Zoom)
//
// followed by a perspective projection from a camera at (cx, cy, Depth),
// where (cx, cy) is the viewport center.
type View struct {
	PanX, PanY float64
	Zoom       float64

	// Perspective angles in degrees.
	TiltX, TiltY, RotateZ float64

	// ViewportW and ViewportH are the viewport size in screen pixels.
	ViewportW, ViewportH float64

	// Depth is the perspective camera distance. Zero means DefaultDepth.
	Depth float64
}

// NewView creates a view for a viewport of the given size at zoom 1.
func NewView(viewportW, viewportH float64) View {
	return View{Zoom: 1, ViewportW: viewportW, ViewportH: viewportH, Depth: DefaultDepth}
}

// Perspective reports whether any tilt or rotation is active.
func (v *View) Perspective() bool {
	return v.TiltX != 0 || v.TiltY != 0 || v.RotateZ != 0
}

func (v *View) depth() float64 {
	if v.Depth <= 0 {
		return DefaultDepth
	}
	return v.Depth
}

func (v *View) center() (cx, cy float64) {
	return v.ViewportW / 2, v.ViewportH / 2
}

// Matrix returns the composite 3D transform from map space to the
// pre-projection viewport space.
func (v *View) Matrix() Mat4 {
	cx, cy := v.center()
	return Identity4.
		Translate(cx, cy, 0).
		RotateX(v.TiltX).
		RotateY(v.TiltY).
		RotateZ(v.RotateZ).
		Translate(-cx, -cy, 0).
		Translate(v.PanX, v.PanY, 0).
		Scale(v.Zoom, v.Zoom, 1)
}

// ScreenToMap converts a viewport position to map-space pixels. ok is false
// when the pointer ray runs parallel to the map plane or the view is
// degenerate.
func (v *View) ScreenToMap(sx, sy float64) (mx, my float64, ok bool) {
	if v.Zoom == 0 {
		return 0, 0, false
	}
	if !v.Perspective() {
		return (sx - v.PanX) / v.Zoom, (sy - v.PanY) / v.Zoom, true
	}

	inv, ok := v.Matrix().Invert()
	if !ok {
		return 0, 0, false
	}
	cx, cy := v.center()

	// Cast a ray from the camera through the screen point and carry both
	// ends into map-local space, where the map lies on z = 0.
	ox, oy, oz := inv.TransformPoint(cx, cy, v.depth())
	px, py, pz := inv.TransformPoint(sx, sy, 0)
	dz := pz - oz
	if math.Abs(dz) < parallelEpsilon {
		return 0, 0, false
	}
	t := -oz / dz
	return ox + t*(px-ox), oy + t*(py-oy), true
}

// MapToScreen projects a map-space point onto the viewport. ok is false when
// the point lands behind the camera.
func (v *View) MapToScreen(mx, my float64) (sx, sy float64, ok bool) {
	if !v.Perspective() {
		return mx*v.Zoom + v.PanX, my*v.Zoom + v.PanY, true
	}
	x, y, z := v.Matrix().TransformPoint(mx, my, 0)
	d := v.depth()
	if d-z <= parallelEpsilon {
		return 0, 0, false
	}
	cx, cy := v.center()
	k := d / (d - z)
	return cx + (x-cx)*k, cy + (y-cy)*k, true
}

// ScreenToTile resolves the tile under a viewport position.
func (v *View) ScreenToTile(g Grid, sx, sy float64) (TileKey, bool) {
	mx, my, ok := v.ScreenToMap(sx, sy)
	if !ok {
		return TileKey{}, false
	}
	return g.TileAt(mx, my)
}

// TileCenterToScreen projects the center of tile k onto the viewport.
func (v *View) TileCenterToScreen(g Grid, k TileKey) (sx, sy float64, ok bool) {
	cx, cy := g.rect(k).Center()
	return v.MapToScreen(cx, cy)
}

// ZoomAt zooms one wheel notch around the viewport point (sx, sy), keeping
// the map point under it fixed. deltaY < 0 zooms in.
func (v *View) ZoomAt(sx, sy, deltaY float64) {
	factor := WheelZoomStep
	if deltaY >= 0 {
		factor = 1 / WheelZoomStep
	}
	newZoom := clamp(v.Zoom*factor, MinZoom, MaxZoom)
	v.PanX = sx - (sx-v.PanX)*(newZoom/v.Zoom)
	v.PanY = sy - (sy-v.PanY)*(newZoom/v.Zoom)
	v.Zoom = newZoom
}

// Fit zooms so a mapW x mapH image fills 95% of the viewport, centered.
func (v *View) Fit(mapW, mapH float64) {
	v.Zoom = math.Min(v.ViewportW/mapW, v.ViewportH/mapH) * 0.95
	v.PanX = (v.ViewportW - mapW*v.Zoom) / 2
	v.PanY = (v.ViewportH - mapH*v.Zoom) / 2
}

// VisibleMapRect returns the map-space rectangle covered by the flat
// (untilted) viewport; the minimap indicator and viewport export use it.
func (v *View) VisibleMapRect() Rect {
	return Rect{
		X:      -v.PanX / v.Zoom,
		Y:      -v.PanY / v.Zoom,
		Width:  v.ViewportW / v.Zoom,
		Height: v.ViewportH / v.Zoom,
	}
}
