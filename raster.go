package chunkmap

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// RasterSurface is a software Surface backed by an *image.RGBA. Paths are
// rasterized to coverage masks with golang.org/x/image/vector and composited
// with premultiplied source-over. It renders deterministically, which makes
// it the surface used for exports and tests.
type RasterSurface struct {
	img   *image.RGBA
	scale float64

	clipped bool
	clip    []image.Rectangle
	saved   []clipState

	damage image.Rectangle
}

type clipState struct {
	clipped bool
	clip    []image.Rectangle
}

// NewRasterSurface creates a transparent surface covering w x h map pixels
// at the given map-to-surface scale.
func NewRasterSurface(w, h, scale float64) *RasterSurface {
	if scale <= 0 {
		scale = 1
	}
	pw := max(int(math.Ceil(w*scale)), 1)
	ph := max(int(math.Ceil(h*scale)), 1)
	return &RasterSurface{img: image.NewRGBA(image.Rect(0, 0, pw, ph)), scale: scale}
}

// Image returns the backing image. It is live; later draws modify it.
func (s *RasterSurface) Image() *image.RGBA { return s.img }

// Size returns the surface size in pixels.
func (s *RasterSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Scale returns the map-to-surface pixel ratio.
func (s *RasterSurface) Scale() float64 { return s.scale }

// Clear makes every pixel transparent, ignoring the clip.
func (s *RasterSurface) Clear() {
	clear(s.img.Pix)
	s.damage = s.img.Bounds()
}

// takeDamage returns the union of the areas written since the last call.
func (s *RasterSurface) takeDamage() image.Rectangle {
	d := s.damage
	s.damage = image.Rectangle{}
	return d
}

// At returns the premultiplied pixel at surface coordinates (x, y).
func (s *RasterSurface) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}

// --- Clip ---

// Clip limits drawing to the union of region, intersected with the clip
// already in effect.
func (s *RasterSurface) Clip(region []Rect) {
	s.saved = append(s.saved, clipState{s.clipped, s.clip})
	clip := make([]image.Rectangle, 0, len(region))
	for _, r := range region {
		pr := s.pixelRect(r)
		if pr.Empty() {
			continue
		}
		if !s.clipped {
			clip = append(clip, pr)
			continue
		}
		for _, c := range s.clip {
			if x := c.Intersect(pr); !x.Empty() {
				clip = append(clip, x)
			}
		}
	}
	s.clipped, s.clip = true, clip
}

// ResetClip restores the clip that was in effect before the matching Clip.
func (s *RasterSurface) ResetClip() {
	n := len(s.saved)
	if n == 0 {
		s.clipped, s.clip = false, nil
		return
	}
	st := s.saved[n-1]
	s.saved = s.saved[:n-1]
	s.clipped, s.clip = st.clipped, st.clip
}

// targets returns the sub-images of area that the clip allows drawing into.
func (s *RasterSurface) targets(area image.Rectangle) []*image.RGBA {
	area = area.Intersect(s.img.Bounds())
	if area.Empty() {
		return nil
	}
	if !s.clipped {
		s.damage = s.damage.Union(area)
		return []*image.RGBA{s.img.SubImage(area).(*image.RGBA)}
	}
	var out []*image.RGBA
	for _, c := range s.clip {
		if r := c.Intersect(area); !r.Empty() {
			s.damage = s.damage.Union(r)
			out = append(out, s.img.SubImage(r).(*image.RGBA))
		}
	}
	return out
}

func (s *RasterSurface) pixelRect(r Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X*s.scale)),
		int(math.Round(r.Y*s.scale)),
		int(math.Round((r.X+r.Width)*s.scale)),
		int(math.Round((r.Y+r.Height)*s.scale)),
	)
}

// --- Rectangles ---

// FillRect composites c over r.
func (s *RasterSurface) FillRect(r Rect, c Color) {
	if c.A <= 0 {
		return
	}
	op := draw.Over
	if c.A >= 1 {
		op = draw.Src
	}
	src := image.NewUniform(c.RGBA())
	for _, t := range s.targets(s.pixelRect(r)) {
		draw.Draw(t, t.Bounds(), src, image.Point{}, op)
	}
}

// SetRect replaces the pixels of r with c.
func (s *RasterSurface) SetRect(r Rect, c Color) {
	src := image.NewUniform(c.RGBA())
	for _, t := range s.targets(s.pixelRect(r)) {
		draw.Draw(t, t.Bounds(), src, image.Point{}, draw.Src)
	}
}

// ClearRect makes r transparent.
func (s *RasterSurface) ClearRect(r Rect) {
	for _, t := range s.targets(s.pixelRect(r)) {
		draw.Draw(t, t.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
}

// --- Paths ---

// FillPath composites c over the interior of p.
func (s *RasterSurface) FillPath(p *Path, c Color) {
	if c.A <= 0 || p.Empty() {
		return
	}
	area := s.pathArea(p, 1)
	if area.Empty() {
		return
	}
	s.composite(s.fillMask(p, area), c)
}

// ClearPath erases the interior of p, scaling existing pixels by the
// inverse of the path coverage.
func (s *RasterSurface) ClearPath(p *Path) {
	if p.Empty() {
		return
	}
	area := s.pathArea(p, 1)
	if area.Empty() {
		return
	}
	mask := s.fillMask(p, area)
	for _, t := range s.targets(area) {
		b := t.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				m := uint32(mask.AlphaAt(x, y).A)
				if m == 0 {
					continue
				}
				i := t.PixOffset(x, y)
				k := 255 - m
				for j := 0; j < 4; j++ {
					t.Pix[i+j] = uint8((uint32(t.Pix[i+j])*k + 127) / 255)
				}
			}
		}
	}
}

// StrokePath strokes p, drawing the blurred shadow first when the style
// has one.
func (s *RasterSurface) StrokePath(p *Path, st StrokeStyle) {
	if st.Width <= 0 || p.Empty() {
		return
	}
	half := st.Width * s.scale / 2
	pad := half
	if st.Join == JoinMiter {
		pad = half * miterLimit
	}
	blur := st.ShadowBlur * s.scale
	shadow := st.ShadowColor.A > 0 && blur > 0
	if shadow {
		pad += blur
	}
	area := s.pathArea(p, pad+2)
	if area.Empty() {
		return
	}
	mask := s.strokeMask(p, st, area)
	if shadow {
		s.composite(kawaseBlur(mask, blur), st.ShadowColor)
	}
	if st.Color.A > 0 {
		s.composite(mask, st.Color)
	}
}

// pathArea returns the surface-pixel bounds of p grown by pad.
func (s *RasterSurface) pathArea(p *Path, pad float64) image.Rectangle {
	b := p.Bounds()
	r := image.Rect(
		int(math.Floor(b.X*s.scale-pad)),
		int(math.Floor(b.Y*s.scale-pad)),
		int(math.Ceil((b.X+b.Width)*s.scale+pad)),
		int(math.Ceil((b.Y+b.Height)*s.scale+pad)),
	)
	return r.Intersect(s.img.Bounds())
}

func (s *RasterSurface) composite(mask *image.Alpha, c Color) {
	src := image.NewUniform(c.RGBA())
	for _, t := range s.targets(mask.Bounds()) {
		b := t.Bounds()
		draw.DrawMask(t, b, src, image.Point{}, mask, b.Min, draw.Over)
	}
}

func (s *RasterSurface) rasterizer(area image.Rectangle) *vector.Rasterizer {
	z := vector.NewRasterizer(area.Dx(), area.Dy())
	z.DrawOp = draw.Src
	return z
}

func (s *RasterSurface) fillMask(p *Path, area image.Rectangle) *image.Alpha {
	z := s.rasterizer(area)
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	for _, sp := range p.subpaths {
		if len(sp) < 3 {
			continue
		}
		z.MoveTo(float32(sp[0].X*s.scale-ox), float32(sp[0].Y*s.scale-oy))
		for _, pt := range sp[1:] {
			z.LineTo(float32(pt.X*s.scale-ox), float32(pt.Y*s.scale-oy))
		}
		z.ClosePath()
	}
	mask := image.NewAlpha(area)
	z.Draw(mask, area, image.Opaque, image.Point{})
	return mask
}

func (s *RasterSurface) strokeMask(p *Path, st StrokeStyle, area image.Rectangle) *image.Alpha {
	z := s.rasterizer(area)
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	for _, poly := range strokePolygons(p, st, s.scale) {
		addPolygon(z, poly, ox, oy)
	}
	mask := image.NewAlpha(area)
	z.Draw(mask, area, image.Opaque, image.Point{})
	return mask
}

// --- Images ---

// DrawImage draws src into the destination rectangle described by op.
func (s *RasterSurface) DrawImage(src image.Image, op DrawOptions) {
	s.drawScaled(src, 1, op)
}

// DrawSurface draws another surface's contents.
func (s *RasterSurface) DrawSurface(src Surface, op DrawOptions) {
	var img image.Image
	if rs, ok := src.(*RasterSurface); ok {
		img = rs.img
	} else {
		img = src.Snapshot()
	}
	s.drawScaled(img, src.Scale(), op)
}

func (s *RasterSurface) drawScaled(src image.Image, srcScale float64, op DrawOptions) {
	sb := src.Bounds()
	if sb.Empty() {
		return
	}
	w, h := op.Width, op.Height
	if w == 0 {
		w = float64(sb.Dx()) / srcScale
	}
	if h == 0 {
		h = float64(sb.Dy()) / srcScale
	}
	dr := s.pixelRect(Rect{X: op.X, Y: op.Y, Width: w, Height: h})
	if dr.Empty() {
		return
	}
	var mask image.Image
	if a := op.alpha(); a < 1 {
		mask = image.NewUniform(color.Alpha{A: uint8(math.Round(a * 255))})
	}
	if dr.Size() == sb.Size() {
		for _, t := range s.targets(dr) {
			tb := t.Bounds()
			sp := sb.Min.Add(tb.Min.Sub(dr.Min))
			draw.DrawMask(t, tb, src, sp, mask, image.Point{}, draw.Over)
		}
		return
	}
	var scaler draw.Scaler = draw.NearestNeighbor
	if op.Smooth {
		scaler = draw.BiLinear
	}
	var opts *draw.Options
	if mask != nil {
		opts = &draw.Options{DstMask: mask}
	}
	for _, t := range s.targets(dr) {
		scaler.Scale(t, dr, src, sb, draw.Over, opts)
	}
}

// NewLayer creates a blank raster surface with the same scale.
func (s *RasterSurface) NewLayer(w, h float64) Surface {
	return NewRasterSurface(w, h, s.scale)
}

// Snapshot copies the surface into a new image.
func (s *RasterSurface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// --- Stroke geometry ---

const miterLimit = 10

type vec2 struct{ x, y float64 }

func (a vec2) add(b vec2) vec2 { return vec2{a.x + b.x, a.y + b.y} }
func (a vec2) sub(b vec2) vec2 { return vec2{a.x - b.x, a.y - b.y} }
func (a vec2) mul(k float64) vec2 { return vec2{a.x * k, a.y * k} }
func (a vec2) dot(b vec2) float64 { return a.x*b.x + a.y*b.y }
func (a vec2) cross(b vec2) float64 { return a.x*b.y - a.y*b.x }
func (a vec2) length() float64 { return math.Hypot(a.x, a.y) }
func (a vec2) normal() vec2 { return vec2{-a.y, a.x} }
func (a vec2) near(b vec2) bool { return math.Abs(a.x-b.x) < 1e-9 && math.Abs(a.y-b.y) < 1e-9 }
func (a vec2) unit() vec2 { return a.mul(1 / a.length()) }

// strokePolygons outlines a stroke of p as a union of convex polygons in
// surface pixels: one quad per segment, plus join and cap pieces.
func strokePolygons(p *Path, st StrokeStyle, scale float64) [][]vec2 {
	h := st.Width * scale / 2
	var polys [][]vec2
	for i, sp := range p.subpaths {
		pts := make([]vec2, 0, len(sp))
		for _, pt := range sp {
			v := vec2{pt.X * scale, pt.Y * scale}
			if len(pts) > 0 && pts[len(pts)-1].near(v) {
				continue
			}
			pts = append(pts, v)
		}
		closed := p.closed[i]
		if closed && len(pts) > 2 && pts[0].near(pts[len(pts)-1]) {
			pts = pts[:len(pts)-1]
		}
		if len(pts) < 2 {
			continue
		}

		n := len(pts)
		segs := n - 1
		if closed {
			segs = n
		}
		for j := 0; j < segs; j++ {
			a, b := pts[j], pts[(j+1)%n]
			off := b.sub(a).unit().normal().mul(h)
			polys = append(polys, []vec2{a.add(off), b.add(off), b.sub(off), a.sub(off)})
		}

		if st.Join == JoinRound {
			for _, v := range pts {
				polys = append(polys, circlePolygon(v, h))
			}
		} else {
			for j := 0; j < n; j++ {
				if !closed && (j == 0 || j == n-1) {
					continue
				}
				prev, next := pts[(j-1+n)%n], pts[(j+1)%n]
				if poly := miterJoin(prev, pts[j], next, h); poly != nil {
					polys = append(polys, poly)
				}
			}
		}
		if !closed && st.Cap == CapRound && st.Join != JoinRound {
			polys = append(polys, circlePolygon(pts[0], h), circlePolygon(pts[n-1], h))
		}
	}
	return polys
}

// miterJoin fills the outer wedge at corner p, falling back to a bevel when
// the miter exceeds miterLimit.
func miterJoin(prev, p, next vec2, h float64) []vec2 {
	d0 := p.sub(prev).unit()
	d1 := next.sub(p).unit()
	turn := d0.cross(d1)
	if math.Abs(turn) < 1e-9 {
		return nil
	}
	a0, a1 := d0.normal(), d1.normal()
	if turn > 0 {
		a0, a1 = a0.mul(-1), a1.mul(-1)
	}
	e0, e1 := p.add(a0.mul(h)), p.add(a1.mul(h))
	bis := a0.add(a1)
	if bis.length() < 1e-9 {
		return nil
	}
	m := bis.unit()
	cos := m.dot(a0)
	if cos <= 0 || 1/cos > miterLimit {
		return []vec2{p, e0, e1}
	}
	return []vec2{p, e0, p.add(m.mul(h / cos)), e1}
}

func circlePolygon(c vec2, r float64) []vec2 {
	n := min(max(int(r*2), 12), 64)
	out := make([]vec2, n)
	for i := range out {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		out[i] = vec2{c.x + r*cos, c.y + r*sin}
	}
	return out
}

// addPolygon adds poly with a fixed winding so overlapping pieces
// accumulate instead of cancelling.
func addPolygon(z *vector.Rasterizer, poly []vec2, ox, oy float64) {
	if len(poly) < 3 {
		return
	}
	var area float64
	for i := range poly {
		area += poly[i].cross(poly[(i+1)%len(poly)])
	}
	if area == 0 {
		return
	}
	at := func(i int) vec2 {
		if area > 0 {
			return poly[len(poly)-1-i]
		}
		return poly[i]
	}
	first := at(0)
	z.MoveTo(float32(first.x-ox), float32(first.y-oy))
	for i := 1; i < len(poly); i++ {
		v := at(i)
		z.LineTo(float32(v.x-ox), float32(v.y-oy))
	}
	z.ClosePath()
}
