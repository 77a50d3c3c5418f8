package chunkmap

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultMinimapWidth is the minimap width in pixels.
const DefaultMinimapWidth = 200

const minimapDotRadius = 2

// Minimap draws a scaled-down overview of the map: the map image, the
// darkness over locked tiles, a dot per marker, and the viewport outline.
// It holds no state beyond the pre-scaled map image.
type Minimap struct {
	grid          Grid
	width, height int
	base          *image.RGBA
}

// NewMinimap creates a minimap width pixels wide, its height following the
// map's aspect ratio.
func NewMinimap(g Grid, width int) *Minimap {
	if width <= 0 {
		width = DefaultMinimapWidth
	}
	h := int(math.Round(float64(width) * g.Height() / g.Width()))
	return &Minimap{grid: g, width: width, height: max(h, 1)}
}

// Size returns the minimap size in pixels.
func (m *Minimap) Size() (w, h int) { return m.width, m.height }

// Scale returns the map-to-minimap pixel ratio.
func (m *Minimap) Scale() float64 {
	return float64(m.width) / m.grid.Width()
}

// NewSurface creates a software surface sized for the minimap.
func (m *Minimap) NewSurface() *RasterSurface {
	return NewRasterSurface(m.grid.Width(), m.grid.Height(), m.Scale())
}

// SetMapImage pre-scales the map image to minimap size. nil removes it.
func (m *Minimap) SetMapImage(img image.Image) {
	if img == nil {
		m.base = nil
		return
	}
	m.base = image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	draw.BiLinear.Scale(m.base, m.base.Bounds(), img, img.Bounds(), draw.Src, nil)
}

// Draw renders the overview onto s, a surface at the minimap's scale.
func (m *Minimap) Draw(s Surface, unlocked TileSet, markers map[TileKey]MarkerType, st Settings, v View) {
	s.Clear()
	g := m.grid
	if m.base != nil {
		s.DrawImage(m.base, DrawOptions{Width: g.Width(), Height: g.Height()})
	}

	dark := st.darkness()
	for _, r := range g.rowRuns(func(k TileKey) bool { return !unlocked.Has(k) }) {
		s.FillRect(r, dark)
	}

	scale := s.Scale()
	keys := make([]TileKey, 0, len(markers))
	for k := range markers {
		keys = append(keys, k)
	}
	for _, k := range SortTiles(keys) {
		if !g.ContainsKey(k) {
			continue
		}
		cx := (float64(k.Col) + 0.75) * g.TilePx
		cy := (float64(k.Row) + 0.25) * g.TilePx
		s.FillPath(dotPath(cx, cy, minimapDotRadius/scale), markers[k].MinimapColor())
	}

	if v.Zoom > 0 {
		p := &Path{}
		p.Rect(v.VisibleMapRect())
		s.StrokePath(p, StrokeStyle{Width: 1 / scale, Color: ColorWhite.WithAlpha(0.8)})
	}
}

// ViewportRect returns the viewport indicator in minimap pixels.
func (m *Minimap) ViewportRect(v View) Rect {
	r := v.VisibleMapRect()
	s := m.Scale()
	return Rect{X: r.X * s, Y: r.Y * s, Width: r.Width * s, Height: r.Height * s}
}

func dotPath(cx, cy, r float64) *Path {
	const steps = 16
	p := &Path{}
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	p.Close()
	return p
}
